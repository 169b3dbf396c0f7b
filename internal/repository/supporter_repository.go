package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/d60-Lab/fan-platform/internal/model"
)

// SupporterRepository reads the distinct creator/supporter pair table.
// Pairs are written inside the settlement transaction, never here.
type SupporterRepository interface {
	CountForCreator(ctx context.Context, creatorID uint) (int64, error)
}

type supporterRepository struct{ db *gorm.DB }

func NewSupporterRepository(db *gorm.DB) SupporterRepository { return &supporterRepository{db: db} }

func (r *supporterRepository) CountForCreator(ctx context.Context, creatorID uint) (int64, error) {
	var cnt int64
	err := r.db.WithContext(ctx).
		Model(&model.Supporter{}).
		Where("creator_id = ?", creatorID).
		Count(&cnt).Error
	return cnt, err
}
