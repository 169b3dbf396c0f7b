package handler

import (
	"errors"
	"math"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/fan-platform/internal/middleware"
	"github.com/d60-Lab/fan-platform/internal/model"
	"github.com/d60-Lab/fan-platform/internal/repository"
	"github.com/d60-Lab/fan-platform/internal/service"
	"github.com/d60-Lab/fan-platform/pkg/response"
)

type fileMetaUpdateRequest struct {
	Description      *string `json:"description"`
	Tags             *string `json:"tags"`
	IsPublic         *bool   `json:"is_public"`
	RelatedCreatorID *uint   `json:"related_creator_id"`
}

func fileView(f *model.UploadedFile) gin.H {
	return gin.H{
		"id":                 f.ID,
		"filename":           f.Filename,
		"original_filename":  f.OriginalFilename,
		"file_size":          f.FileSize,
		"content_type":       f.ContentType,
		"file_category":      f.FileCategory,
		"tags":               f.Tags,
		"description":        f.Description,
		"is_public":          f.IsPublic,
		"is_ai_generated":    f.IsAIGenerated,
		"related_creator_id": f.RelatedCreatorID,
		"upload_date":        f.UploadDate,
		"last_accessed":      f.LastAccessed,
		"download_count":     f.DownloadCount,
		"file_url":           "/uploads/" + f.Filename,
	}
}

// fileListView renders one page of files. total_size covers the page;
// categories come from the unfiltered aggregate so filters and the page
// limit never shrink them.
func fileListView(files []*model.UploadedFile, stats *repository.FileStats) gin.H {
	views := make([]gin.H, len(files))
	var totalSize int64
	for i, f := range files {
		views[i] = fileView(f)
		totalSize += f.FileSize
	}
	categories := map[string]gin.H{}
	for cat, agg := range stats.Categories {
		categories[cat] = gin.H{"count": agg.Count, "size": agg.Size}
	}
	return gin.H{
		"files":       views,
		"total_count": len(files),
		"total_size":  totalSize,
		"categories":  categories,
	}
}

func fileErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrFileNotFound), errors.Is(err, service.ErrCreatorNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, service.ErrNotOwner):
		response.Forbidden(c, err.Error())
	case errors.Is(err, service.ErrFileTooLarge), errors.Is(err, service.ErrFileTypeBlocked):
		response.BadRequest(c, err.Error())
	default:
		response.InternalError(c, err)
	}
}

// UploadFiles stores one or more uploaded files with shared metadata.
// @Summary Upload files
// @Tags files
// @Accept multipart/form-data
// @Produce json
// @Param files formData file true "files"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Security BearerAuth
// @Router /api/v1/files [post]
func (h *Handler) UploadFiles(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		response.BadRequest(c, "no files provided")
		return
	}

	meta := service.FileMeta{
		Description:   c.PostForm("description"),
		Tags:          c.PostForm("tags"),
		IsPublic:      c.PostForm("is_public") == "true",
		IsAIGenerated: c.PostForm("is_ai_generated") == "true",
	}
	if s := c.PostForm("related_creator_id"); s != "" {
		id, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			response.BadRequest(c, "invalid related_creator_id")
			return
		}
		cid := uint(id)
		meta.RelatedCreatorID = &cid
	}

	user := middleware.CurrentUser(c)
	uploaded := make([]gin.H, 0, len(headers))
	for _, fh := range headers {
		file, err := h.fileSvc.Upload(c.Request.Context(), user.ID, fh, meta)
		if err != nil {
			fileErr(c, err)
			return
		}
		uploaded = append(uploaded, fileView(file))
	}
	response.Created(c, uploaded)
}

func fileFilterFromQuery(c *gin.Context) repository.FileFilter {
	filter := repository.FileFilter{Category: c.Query("category")}
	if s := c.Query("is_public"); s != "" {
		v := s == "true"
		filter.IsPublic = &v
	}
	if s := c.Query("creator_id"); s != "" {
		if id, err := strconv.ParseUint(s, 10, 64); err == nil {
			filter.CreatorID = uint(id)
		}
	}
	filter.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "50"))
	return filter
}

// ListFiles lists the authenticated user's files with optional filters.
// @Summary List my files
// @Tags files
// @Produce json
// @Param category query string false "category filter"
// @Param is_public query bool false "public filter"
// @Param creator_id query int false "related creator filter"
// @Success 200 {object} response.Response
// @Security BearerAuth
// @Router /api/v1/files [get]
func (h *Handler) ListFiles(c *gin.Context) {
	user := middleware.CurrentUser(c)
	files, err := h.fileSvc.List(c.Request.Context(), user.ID, fileFilterFromQuery(c))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	stats, err := h.fileSvc.Stats(c.Request.Context(), user.ID)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, fileListView(files, stats))
}

// ListPublicFiles lists public files; no authentication required.
// @Summary List public files
// @Tags files
// @Produce json
// @Success 200 {object} response.Response
// @Router /api/v1/files/public [get]
func (h *Handler) ListPublicFiles(c *gin.Context) {
	files, err := h.fileSvc.ListPublic(c.Request.Context(), fileFilterFromQuery(c))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	stats, err := h.fileSvc.PublicStats(c.Request.Context())
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, fileListView(files, stats))
}

// FileStats summarizes the authenticated user's uploads.
// @Summary File statistics
// @Tags files
// @Produce json
// @Success 200 {object} response.Response
// @Security BearerAuth
// @Router /api/v1/files/stats [get]
func (h *Handler) FileStats(c *gin.Context) {
	user := middleware.CurrentUser(c)
	stats, err := h.fileSvc.Stats(c.Request.Context(), user.ID)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	sizeMB := float64(stats.TotalSize) / 1024 / 1024
	response.Success(c, gin.H{
		"user": user.Username,
		"summary": gin.H{
			"total_files":        stats.TotalFiles,
			"total_size_bytes":   stats.TotalSize,
			"total_size_mb":      math.Round(sizeMB*100) / 100,
			"total_downloads":    stats.TotalDownloads,
			"public_files":       stats.PublicFiles,
			"ai_generated_files": stats.AIGeneratedFiles,
		},
		"categories": stats.Categories,
		"storage_info": gin.H{
			"used_storage_mb":    math.Round(sizeMB*100) / 100,
			"max_file_size_mb":   h.cfg.Upload.MaxFileSize / 1024 / 1024,
			"allowed_extensions": h.cfg.Upload.AllowedExts,
		},
	})
}

// GetFile returns one file's metadata, updating its last-accessed time.
// @Summary File details
// @Tags files
// @Produce json
// @Param file_id path int true "file id"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Security BearerAuth
// @Router /api/v1/files/{file_id} [get]
func (h *Handler) GetFile(c *gin.Context) {
	fileID, ok := pathID(c, "file_id")
	if !ok {
		return
	}
	user := middleware.CurrentUser(c)
	file, err := h.fileSvc.Get(c.Request.Context(), user.ID, fileID)
	if err != nil {
		fileErr(c, err)
		return
	}
	response.Success(c, fileView(file))
}

// UpdateFile updates a file's metadata.
// @Summary Update file metadata
// @Tags files
// @Accept json
// @Produce json
// @Param file_id path int true "file id"
// @Param request body fileMetaUpdateRequest true "changes"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Security BearerAuth
// @Router /api/v1/files/{file_id} [put]
func (h *Handler) UpdateFile(c *gin.Context) {
	fileID, ok := pathID(c, "file_id")
	if !ok {
		return
	}
	var req fileMetaUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, bindError(err))
		return
	}
	user := middleware.CurrentUser(c)
	file, err := h.fileSvc.UpdateMeta(c.Request.Context(), user.ID, fileID, service.FileMetaUpdate{
		Description:      req.Description,
		Tags:             req.Tags,
		IsPublic:         req.IsPublic,
		RelatedCreatorID: req.RelatedCreatorID,
	})
	if err != nil {
		fileErr(c, err)
		return
	}
	response.Success(c, fileView(file))
}

// DeleteFile removes a file and its database record.
// @Summary Delete a file
// @Tags files
// @Produce json
// @Param file_id path int true "file id"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Security BearerAuth
// @Router /api/v1/files/{file_id} [delete]
func (h *Handler) DeleteFile(c *gin.Context) {
	fileID, ok := pathID(c, "file_id")
	if !ok {
		return
	}
	user := middleware.CurrentUser(c)
	if err := h.fileSvc.Delete(c.Request.Context(), user.ID, fileID); err != nil {
		fileErr(c, err)
		return
	}
	response.Success(c, gin.H{"deleted": fileID})
}

// ServeUpload streams a stored file and counts the download.
// @Summary Download a stored file
// @Tags files
// @Param filename path string true "stored filename"
// @Success 200 {file} binary
// @Failure 404 {object} response.Response
// @Router /uploads/{filename} [get]
func (h *Handler) ServeUpload(c *gin.Context) {
	path, err := h.fileSvc.Serve(c.Request.Context(), c.Param("filename"))
	if err != nil {
		response.NotFound(c, "file not found")
		return
	}
	c.File(path)
}
