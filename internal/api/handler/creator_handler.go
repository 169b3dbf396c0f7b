package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/fan-platform/internal/middleware"
	"github.com/d60-Lab/fan-platform/internal/service"
	"github.com/d60-Lab/fan-platform/pkg/response"
)

type creatorCreateRequest struct {
	Name            string   `json:"name" binding:"required,min=1,max=100"`
	ImageURL        string   `json:"image_url" binding:"omitempty,url"`
	Description     string   `json:"description"`
	Category        string   `json:"category"`
	CreatorFanSplit *float64 `json:"creator_fan_split" binding:"omitempty,gte=0,lte=1"`
	AllowAIContent  *bool    `json:"allow_ai_content"`
}

type creatorUpdateRequest struct {
	Name            *string  `json:"name" binding:"omitempty,min=1,max=100"`
	ImageURL        *string  `json:"image_url" binding:"omitempty,url"`
	Description     *string  `json:"description"`
	Category        *string  `json:"category"`
	CreatorFanSplit *float64 `json:"creator_fan_split" binding:"omitempty,gte=0,lte=1"`
	AllowAIContent  *bool    `json:"allow_ai_content"`
	IsActive        *bool    `json:"is_active"`
}

func pathID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		response.BadRequest(c, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}

// CreateCreator registers a creator profile with a unique name.
// @Summary Register a creator
// @Tags creators
// @Accept json
// @Produce json
// @Param request body creatorCreateRequest true "creator info"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Security BearerAuth
// @Router /api/v1/creators [post]
func (h *Handler) CreateCreator(c *gin.Context) {
	var req creatorCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, bindError(err))
		return
	}
	split := 0.8
	if req.CreatorFanSplit != nil {
		split = *req.CreatorFanSplit
	}
	allowAI := true
	if req.AllowAIContent != nil {
		allowAI = *req.AllowAIContent
	}
	user := middleware.CurrentUser(c)
	creator, err := h.creatorSvc.Create(c.Request.Context(), user.ID, service.CreatorCreate{
		Name:            req.Name,
		ImageURL:        req.ImageURL,
		Description:     req.Description,
		Category:        req.Category,
		CreatorFanSplit: split,
		AllowAIContent:  allowAI,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNameTaken), errors.Is(err, service.ErrInvalidSplitRatio):
			response.BadRequest(c, err.Error())
		default:
			response.InternalError(c, err)
		}
		return
	}
	response.Created(c, creator)
}

// UpdateCreator updates a creator profile; a split change recomputes rates.
// @Summary Update a creator
// @Tags creators
// @Accept json
// @Produce json
// @Param creator_id path int true "creator id"
// @Param request body creatorUpdateRequest true "changes"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Security BearerAuth
// @Router /api/v1/creators/{creator_id} [put]
func (h *Handler) UpdateCreator(c *gin.Context) {
	creatorID, ok := pathID(c, "creator_id")
	if !ok {
		return
	}
	var req creatorUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, bindError(err))
		return
	}
	user := middleware.CurrentUser(c)
	creator, err := h.creatorSvc.Update(c.Request.Context(), user.ID, creatorID, service.CreatorUpdate{
		Name:            req.Name,
		ImageURL:        req.ImageURL,
		Description:     req.Description,
		Category:        req.Category,
		CreatorFanSplit: req.CreatorFanSplit,
		AllowAIContent:  req.AllowAIContent,
		IsActive:        req.IsActive,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCreatorNotFound):
			response.NotFound(c, err.Error())
		case errors.Is(err, service.ErrNotOwner):
			response.Forbidden(c, err.Error())
		case errors.Is(err, service.ErrNameTaken), errors.Is(err, service.ErrInvalidSplitRatio):
			response.BadRequest(c, err.Error())
		default:
			response.InternalError(c, err)
		}
		return
	}
	response.Success(c, creator)
}

// ListMyCreators lists creators owned by the authenticated user.
// @Summary My creators
// @Tags creators
// @Produce json
// @Success 200 {object} response.Response
// @Security BearerAuth
// @Router /api/v1/creators [get]
func (h *Handler) ListMyCreators(c *gin.Context) {
	user := middleware.CurrentUser(c)
	creators, err := h.creatorSvc.ListMine(c.Request.Context(), user.ID)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, creators)
}

// GetCreator returns one creator profile with its live supporter count.
// @Summary Creator detail
// @Tags creators
// @Produce json
// @Param creator_id path int true "creator id"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/creators/{creator_id} [get]
func (h *Handler) GetCreator(c *gin.Context) {
	creatorID, ok := pathID(c, "creator_id")
	if !ok {
		return
	}
	creator, supporters, err := h.creatorSvc.Get(c.Request.Context(), creatorID)
	if err != nil {
		if errors.Is(err, service.ErrCreatorNotFound) {
			response.NotFound(c, err.Error())
			return
		}
		response.InternalError(c, err)
		return
	}
	response.Success(c, gin.H{"creator": creator, "supporter_count": supporters})
}

// ListPublicCreators lists active creators open for support.
// @Summary Public creators
// @Tags creators
// @Produce json
// @Param category query string false "category filter"
// @Param limit query int false "max results" default(20)
// @Success 200 {object} response.Response
// @Router /api/v1/creators/public [get]
func (h *Handler) ListPublicCreators(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	creators, err := h.creatorSvc.ListPublic(c.Request.Context(), c.Query("category"), limit)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, creators)
}

// CheckCreatorName reports whether a creator name is still free.
// @Summary Check creator name availability
// @Tags creators
// @Produce json
// @Param name path string true "candidate name"
// @Success 200 {object} response.Response
// @Router /api/v1/creators/check-name/{name} [get]
func (h *Handler) CheckCreatorName(c *gin.Context) {
	name := c.Param("name")
	available, err := h.creatorSvc.NameAvailable(c.Request.Context(), name)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, gin.H{"name": name, "available": available})
}
