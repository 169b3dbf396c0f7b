package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/d60-Lab/fan-platform/internal/model"
)

type SupportRepository interface {
	ListBySupporter(ctx context.Context, supporterID uint, limit int) ([]*model.SupportLog, error)
	CreatorNames(ctx context.Context, ids []uint) (map[uint]string, error)
	RevenueTotals(ctx context.Context) (platform, creator, fan float64, transactions int64, err error)
}

type supportRepository struct{ db *gorm.DB }

func NewSupportRepository(db *gorm.DB) SupportRepository { return &supportRepository{db: db} }

func (r *supportRepository) ListBySupporter(ctx context.Context, supporterID uint, limit int) ([]*model.SupportLog, error) {
	var res []*model.SupportLog
	err := r.db.WithContext(ctx).
		Where("supporter_id = ?", supporterID).
		Order("timestamp DESC").
		Limit(limit).
		Find(&res).Error
	return res, err
}

func (r *supportRepository) CreatorNames(ctx context.Context, ids []uint) (map[uint]string, error) {
	if len(ids) == 0 {
		return map[uint]string{}, nil
	}
	type row struct {
		ID   uint
		Name string
	}
	var rows []row
	if err := r.db.WithContext(ctx).
		Model(&model.Creator{}).
		Select("id", "name").
		Where("id IN ?", ids).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[uint]string, len(rows))
	for _, rw := range rows {
		out[rw.ID] = rw.Name
	}
	return out, nil
}

// RevenueTotals aggregates the three share columns across all settlements.
func (r *supportRepository) RevenueTotals(ctx context.Context) (platform, creator, fan float64, transactions int64, err error) {
	type sums struct {
		Platform float64
		Creator  float64
		Fan      float64
		Count    int64
	}
	var s sums
	err = r.db.WithContext(ctx).
		Model(&model.SupportLog{}).
		Select("COALESCE(SUM(platform_fee),0) AS platform, COALESCE(SUM(creator_share),0) AS creator, COALESCE(SUM(fan_commission),0) AS fan, COUNT(*) AS count").
		Scan(&s).Error
	return s.Platform, s.Creator, s.Fan, s.Count, err
}
