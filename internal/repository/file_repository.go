package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/d60-Lab/fan-platform/internal/model"
)

// FileFilter narrows file listings.
type FileFilter struct {
	Category  string
	IsPublic  *bool
	CreatorID uint
	Limit     int
}

// FileCategoryStats aggregates one category bucket.
type FileCategoryStats struct {
	Count     int64 `json:"count"`
	Size      int64 `json:"size"`
	Downloads int64 `json:"downloads"`
}

// FileStats aggregates a whole file collection, unfiltered.
type FileStats struct {
	TotalFiles       int64
	TotalSize        int64
	TotalDownloads   int64
	PublicFiles      int64
	AIGeneratedFiles int64
	Categories       map[string]FileCategoryStats
}

type FileRepository interface {
	Create(ctx context.Context, file *model.UploadedFile) error
	GetByID(ctx context.Context, id uint) (*model.UploadedFile, error)
	GetByFilename(ctx context.Context, filename string) (*model.UploadedFile, error)
	ListByUploader(ctx context.Context, uploaderID uint, filter FileFilter) ([]*model.UploadedFile, error)
	ListPublic(ctx context.Context, filter FileFilter) ([]*model.UploadedFile, error)
	StatsByUploader(ctx context.Context, uploaderID uint) (*FileStats, error)
	StatsPublic(ctx context.Context) (*FileStats, error)
	Updates(ctx context.Context, id uint, fields map[string]interface{}) error
	Delete(ctx context.Context, id uint) error
	TouchAccess(ctx context.Context, id uint, countDownload bool) error
}

type fileRepository struct{ db *gorm.DB }

func NewFileRepository(db *gorm.DB) FileRepository { return &fileRepository{db: db} }

func (r *fileRepository) Create(ctx context.Context, file *model.UploadedFile) error {
	return r.db.WithContext(ctx).Create(file).Error
}

func (r *fileRepository) GetByID(ctx context.Context, id uint) (*model.UploadedFile, error) {
	var f model.UploadedFile
	if err := r.db.WithContext(ctx).First(&f, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &f, nil
}

func (r *fileRepository) GetByFilename(ctx context.Context, filename string) (*model.UploadedFile, error) {
	var f model.UploadedFile
	if err := r.db.WithContext(ctx).Where("filename = ?", filename).First(&f).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &f, nil
}

func applyFileFilter(q *gorm.DB, filter FileFilter) *gorm.DB {
	if filter.Category != "" {
		q = q.Where("file_category = ?", filter.Category)
	}
	if filter.IsPublic != nil {
		q = q.Where("is_public = ?", *filter.IsPublic)
	}
	if filter.CreatorID != 0 {
		q = q.Where("related_creator_id = ?", filter.CreatorID)
	}
	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return q.Order("upload_date DESC").Limit(limit)
}

func (r *fileRepository) ListByUploader(ctx context.Context, uploaderID uint, filter FileFilter) ([]*model.UploadedFile, error) {
	q := r.db.WithContext(ctx).Where("uploaded_by = ?", uploaderID)
	var res []*model.UploadedFile
	err := applyFileFilter(q, filter).Find(&res).Error
	return res, err
}

func (r *fileRepository) ListPublic(ctx context.Context, filter FileFilter) ([]*model.UploadedFile, error) {
	q := r.db.WithContext(ctx).Where("is_public = ?", true)
	var res []*model.UploadedFile
	err := applyFileFilter(q, filter).Find(&res).Error
	return res, err
}

func (r *fileRepository) StatsByUploader(ctx context.Context, uploaderID uint) (*FileStats, error) {
	return r.stats(ctx, r.db.WithContext(ctx).
		Model(&model.UploadedFile{}).
		Where("uploaded_by = ?", uploaderID))
}

func (r *fileRepository) StatsPublic(ctx context.Context) (*FileStats, error) {
	return r.stats(ctx, r.db.WithContext(ctx).
		Model(&model.UploadedFile{}).
		Where("is_public = ?", true))
}

// stats aggregates the scoped query in one grouped pass plus two flag counts.
func (r *fileRepository) stats(ctx context.Context, scoped *gorm.DB) (*FileStats, error) {
	type bucket struct {
		Category  string
		Count     int64
		Size      int64
		Downloads int64
	}
	var buckets []bucket
	if err := scoped.Session(&gorm.Session{}).
		Select("file_category AS category, COUNT(*) AS count, COALESCE(SUM(file_size),0) AS size, COALESCE(SUM(download_count),0) AS downloads").
		Group("file_category").
		Scan(&buckets).Error; err != nil {
		return nil, err
	}

	out := &FileStats{Categories: make(map[string]FileCategoryStats, len(buckets))}
	for _, b := range buckets {
		cat := b.Category
		if cat == "" {
			cat = "other"
		}
		agg := out.Categories[cat]
		agg.Count += b.Count
		agg.Size += b.Size
		agg.Downloads += b.Downloads
		out.Categories[cat] = agg
		out.TotalFiles += b.Count
		out.TotalSize += b.Size
		out.TotalDownloads += b.Downloads
	}

	if err := scoped.Session(&gorm.Session{}).
		Where("is_public = ?", true).
		Count(&out.PublicFiles).Error; err != nil {
		return nil, err
	}
	if err := scoped.Session(&gorm.Session{}).
		Where("is_ai_generated = ?", true).
		Count(&out.AIGeneratedFiles).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *fileRepository) Updates(ctx context.Context, id uint, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).
		Model(&model.UploadedFile{}).
		Where("id = ?", id).
		Updates(fields).Error
}

func (r *fileRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&model.UploadedFile{}, id).Error
}

func (r *fileRepository) TouchAccess(ctx context.Context, id uint, countDownload bool) error {
	updates := map[string]interface{}{"last_accessed": time.Now()}
	if countDownload {
		updates["download_count"] = gorm.Expr("download_count + 1")
	}
	return r.db.WithContext(ctx).
		Model(&model.UploadedFile{}).
		Where("id = ?", id).
		Updates(updates).Error
}
