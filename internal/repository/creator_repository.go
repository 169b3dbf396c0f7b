package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/d60-Lab/fan-platform/internal/model"
)

type CreatorRepository interface {
	Create(ctx context.Context, creator *model.Creator) error
	GetByID(ctx context.Context, id uint) (*model.Creator, error)
	ListByOwner(ctx context.Context, userID uint) ([]*model.Creator, error)
	ListPublic(ctx context.Context, category string, limit int) ([]*model.Creator, error)
	NameTaken(ctx context.Context, name string, excludeID uint) (bool, error)
	Updates(ctx context.Context, id uint, fields map[string]interface{}) error
	CountActive(ctx context.Context) (int64, error)
}

type creatorRepository struct{ db *gorm.DB }

func NewCreatorRepository(db *gorm.DB) CreatorRepository { return &creatorRepository{db: db} }

func (r *creatorRepository) Create(ctx context.Context, creator *model.Creator) error {
	return r.db.WithContext(ctx).Create(creator).Error
}

func (r *creatorRepository) GetByID(ctx context.Context, id uint) (*model.Creator, error) {
	var c model.Creator
	if err := r.db.WithContext(ctx).First(&c, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (r *creatorRepository) ListByOwner(ctx context.Context, userID uint) ([]*model.Creator, error) {
	var res []*model.Creator
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Find(&res).Error
	return res, err
}

func (r *creatorRepository) ListPublic(ctx context.Context, category string, limit int) ([]*model.Creator, error) {
	q := r.db.WithContext(ctx).Where("is_active = ?", true)
	if category != "" {
		q = q.Where("category = ?", category)
	}
	var res []*model.Creator
	err := q.Limit(limit).Find(&res).Error
	return res, err
}

// NameTaken reports whether another creator already uses name.
// Case-sensitive exact match; excludeID skips the creator being updated.
func (r *creatorRepository) NameTaken(ctx context.Context, name string, excludeID uint) (bool, error) {
	q := r.db.WithContext(ctx).Model(&model.Creator{}).Where("name = ?", name)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	var cnt int64
	if err := q.Count(&cnt).Error; err != nil {
		return false, err
	}
	return cnt > 0, nil
}

// Updates applies fields in a single UPDATE so the three cached split rates
// are never observable half-replaced.
func (r *creatorRepository) Updates(ctx context.Context, id uint, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).
		Model(&model.Creator{}).
		Where("id = ?", id).
		Updates(fields).Error
}

func (r *creatorRepository) CountActive(ctx context.Context) (int64, error) {
	var cnt int64
	err := r.db.WithContext(ctx).
		Model(&model.Creator{}).
		Where("is_active = ?", true).
		Count(&cnt).Error
	return cnt, err
}
