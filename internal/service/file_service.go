package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/d60-Lab/fan-platform/internal/model"
	"github.com/d60-Lab/fan-platform/internal/repository"
	"github.com/d60-Lab/fan-platform/pkg/logger"
)

var (
	ErrFileNotFound    = errors.New("file not found")
	ErrFileTooLarge    = errors.New("file exceeds the maximum allowed size")
	ErrFileTypeBlocked = errors.New("file extension is not allowed")
)

// FileMeta carries user-supplied metadata attached on upload.
type FileMeta struct {
	Description      string
	Tags             string
	IsPublic         bool
	IsAIGenerated    bool
	RelatedCreatorID *uint
}

// FileMetaUpdate carries optional metadata changes; nil fields are untouched.
type FileMetaUpdate struct {
	Description      *string
	Tags             *string
	IsPublic         *bool
	RelatedCreatorID *uint
}

type FileService interface {
	Upload(ctx context.Context, uploaderID uint, fh *multipart.FileHeader, meta FileMeta) (*model.UploadedFile, error)
	List(ctx context.Context, uploaderID uint, filter repository.FileFilter) ([]*model.UploadedFile, error)
	ListPublic(ctx context.Context, filter repository.FileFilter) ([]*model.UploadedFile, error)
	Stats(ctx context.Context, uploaderID uint) (*repository.FileStats, error)
	PublicStats(ctx context.Context) (*repository.FileStats, error)
	Get(ctx context.Context, uploaderID, fileID uint) (*model.UploadedFile, error)
	UpdateMeta(ctx context.Context, uploaderID, fileID uint, in FileMetaUpdate) (*model.UploadedFile, error)
	Delete(ctx context.Context, uploaderID, fileID uint) error
	Serve(ctx context.Context, filename string) (path string, err error)
}

type fileService struct {
	files       repository.FileRepository
	creators    repository.CreatorRepository
	dir         string
	maxSize     int64
	allowedExts map[string]struct{}
}

func NewFileService(files repository.FileRepository, creators repository.CreatorRepository, dir string, maxSize int64, allowedExts []string) (FileService, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	exts := make(map[string]struct{}, len(allowedExts))
	for _, e := range allowedExts {
		exts[strings.ToLower(e)] = struct{}{}
	}
	return &fileService{files: files, creators: creators, dir: dir, maxSize: maxSize, allowedExts: exts}, nil
}

// categoryForExt buckets an extension into a coarse file category.
func categoryForExt(ext string) string {
	switch strings.ToLower(ext) {
	case ".jpg", ".jpeg", ".png", ".gif":
		return "image"
	case ".mp4", ".mov", ".avi":
		return "video"
	case ".mp3", ".wav", ".flac":
		return "audio"
	case ".pdf", ".doc", ".docx", ".txt":
		return "document"
	default:
		return "other"
	}
}

// storedName builds a collision-free stored filename that keeps the original
// name visible for operators browsing the upload directory.
func storedName(original string) string {
	ts := time.Now().Format("20060102_150405")
	return fmt.Sprintf("%s_%s_%s", ts, uuid.New().String()[:8], filepath.Base(original))
}

func (s *fileService) Upload(ctx context.Context, uploaderID uint, fh *multipart.FileHeader, meta FileMeta) (*model.UploadedFile, error) {
	if fh.Size > s.maxSize {
		return nil, ErrFileTooLarge
	}
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if _, ok := s.allowedExts[ext]; !ok {
		return nil, ErrFileTypeBlocked
	}
	if meta.RelatedCreatorID != nil {
		creator, err := s.creators.GetByID(ctx, *meta.RelatedCreatorID)
		if err != nil {
			return nil, err
		}
		if creator == nil {
			return nil, ErrCreatorNotFound
		}
		if creator.UserID != uploaderID {
			return nil, ErrNotOwner
		}
	}

	name := storedName(fh.Filename)
	path := filepath.Join(s.dir, name)
	if err := saveUpload(fh, path); err != nil {
		return nil, fmt.Errorf("store file: %w", err)
	}

	contentType := fh.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	file := &model.UploadedFile{
		Filename:         name,
		OriginalFilename: fh.Filename,
		FilePath:         path,
		FileSize:         fh.Size,
		ContentType:      contentType,
		FileCategory:     categoryForExt(ext),
		Tags:             meta.Tags,
		Description:      meta.Description,
		IsPublic:         meta.IsPublic,
		IsAIGenerated:    meta.IsAIGenerated,
		RelatedCreatorID: meta.RelatedCreatorID,
		UploadedBy:       uploaderID,
	}
	if err := s.files.Create(ctx, file); err != nil {
		// keep disk and DB consistent on failure
		_ = os.Remove(path)
		return nil, err
	}
	logger.Info("file uploaded",
		zap.Uint("file_id", file.ID),
		zap.String("stored", name),
		zap.Uint("uploader_id", uploaderID))
	return file, nil
}

func saveUpload(fh *multipart.FileHeader, dst string) error {
	src, err := fh.Open()
	if err != nil {
		return err
	}
	defer src.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()
	_, err = io.Copy(out, src)
	return err
}

func (s *fileService) List(ctx context.Context, uploaderID uint, filter repository.FileFilter) ([]*model.UploadedFile, error) {
	return s.files.ListByUploader(ctx, uploaderID, filter)
}

func (s *fileService) ListPublic(ctx context.Context, filter repository.FileFilter) ([]*model.UploadedFile, error) {
	return s.files.ListPublic(ctx, filter)
}

// Stats aggregates over all of the uploader's files, ignoring list filters.
func (s *fileService) Stats(ctx context.Context, uploaderID uint) (*repository.FileStats, error) {
	return s.files.StatsByUploader(ctx, uploaderID)
}

func (s *fileService) PublicStats(ctx context.Context) (*repository.FileStats, error) {
	return s.files.StatsPublic(ctx)
}

func (s *fileService) Get(ctx context.Context, uploaderID, fileID uint) (*model.UploadedFile, error) {
	file, err := s.files.GetByID(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if file == nil || file.UploadedBy != uploaderID {
		return nil, ErrFileNotFound
	}
	_ = s.files.TouchAccess(ctx, fileID, false)
	return file, nil
}

func (s *fileService) UpdateMeta(ctx context.Context, uploaderID, fileID uint, in FileMetaUpdate) (*model.UploadedFile, error) {
	file, err := s.files.GetByID(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if file == nil || file.UploadedBy != uploaderID {
		return nil, ErrFileNotFound
	}

	fields := map[string]interface{}{}
	if in.Description != nil {
		fields["description"] = *in.Description
	}
	if in.Tags != nil {
		fields["tags"] = *in.Tags
	}
	if in.IsPublic != nil {
		fields["is_public"] = *in.IsPublic
	}
	if in.RelatedCreatorID != nil {
		creator, err := s.creators.GetByID(ctx, *in.RelatedCreatorID)
		if err != nil {
			return nil, err
		}
		if creator == nil {
			return nil, ErrCreatorNotFound
		}
		if creator.UserID != uploaderID {
			return nil, ErrNotOwner
		}
		fields["related_creator_id"] = *in.RelatedCreatorID
	}
	if len(fields) == 0 {
		return file, nil
	}
	if err := s.files.Updates(ctx, fileID, fields); err != nil {
		return nil, err
	}
	return s.files.GetByID(ctx, fileID)
}

func (s *fileService) Delete(ctx context.Context, uploaderID, fileID uint) error {
	file, err := s.files.GetByID(ctx, fileID)
	if err != nil {
		return err
	}
	if file == nil || file.UploadedBy != uploaderID {
		return ErrFileNotFound
	}
	if err := os.Remove(file.FilePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove file: %w", err)
	}
	if err := s.files.Delete(ctx, fileID); err != nil {
		return err
	}
	logger.Info("file deleted", zap.Uint("file_id", fileID), zap.Uint("uploader_id", uploaderID))
	return nil
}

// Serve resolves a stored filename to its disk path, counting the download.
func (s *fileService) Serve(ctx context.Context, filename string) (string, error) {
	// stored names never contain separators; reject traversal outright
	if filepath.Base(filename) != filename {
		return "", ErrFileNotFound
	}
	file, err := s.files.GetByFilename(ctx, filename)
	if err != nil {
		return "", err
	}
	if file == nil {
		return "", ErrFileNotFound
	}
	if _, err := os.Stat(file.FilePath); err != nil {
		return "", ErrFileNotFound
	}
	_ = s.files.TouchAccess(ctx, file.ID, true)
	return file.FilePath, nil
}
