package service

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/fan-platform/internal/model"
	"github.com/d60-Lab/fan-platform/internal/repository"
	"github.com/d60-Lab/fan-platform/pkg/logger"
)

var (
	ErrCreatorNotFound    = errors.New("creator not found")
	ErrCreatorInactive    = errors.New("creator is not accepting support")
	ErrSelfSupport        = errors.New("cannot support your own creator")
	ErrInvalidAmount      = errors.New("support amount must be positive")
	ErrInsufficientPoints = errors.New("insufficient point balance")
	// ErrSplitMismatch means the cached rates on the creator row no longer
	// reconcile; a server fault, not a caller mistake.
	ErrSplitMismatch = errors.New("revenue split does not reconcile with amount")
)

// reconcileTolerance is the absolute error allowed between the sum of the
// three shares and the gross amount, in the smallest displayed currency unit.
const reconcileTolerance = 0.01

// FundingSource selects how a settlement is paid.
type FundingSource string

const (
	FundingDirect FundingSource = model.SupportTypeDirect
	FundingPoints FundingSource = model.SupportTypePoints
)

// SupportRequest is a settlement order against one creator.
type SupportRequest struct {
	CreatorID uint
	Amount    float64
	Source    FundingSource
	Message   string
}

// SupportResult reports one committed settlement.
type SupportResult struct {
	SupportID       uint      `json:"support_id"`
	CreatorID       uint      `json:"creator_id"`
	CreatorName     string    `json:"creator_name"`
	Amount          float64   `json:"amount"`
	SupportType     string    `json:"support_type"`
	CreatorShare    float64   `json:"creator_share"`
	FanCommission   float64   `json:"fan_commission"`
	PlatformFee     float64   `json:"platform_fee"`
	TotalSupporters int64     `json:"total_supporters"`
	Timestamp       time.Time `json:"timestamp"`
}

// SupportHistoryItem is one settlement in a payer's history.
type SupportHistoryItem struct {
	ID            uint      `json:"id"`
	CreatorID     uint      `json:"creator_id"`
	CreatorName   string    `json:"creator_name"`
	Amount        float64   `json:"amount"`
	SupportType   string    `json:"support_type"`
	CreatorShare  float64   `json:"creator_share"`
	FanCommission float64   `json:"fan_commission"`
	PlatformFee   float64   `json:"platform_fee"`
	Message       string    `json:"message"`
	Timestamp     time.Time `json:"timestamp"`
}

// SupportService settles support transactions: guards, share computation,
// reconciliation, and the atomic commit of record plus balance updates.
type SupportService interface {
	Settle(ctx context.Context, payerID uint, req SupportRequest) (*SupportResult, error)
	History(ctx context.Context, payerID uint, limit int) ([]*SupportHistoryItem, error)
}

type supportService struct {
	db          *gorm.DB
	supportRepo repository.SupportRepository
	locks       *KeyLock
}

// NewSupportService builds the settlement engine. locks is shared with the
// creator service so a rate-cache swap never races an in-flight settlement
// reading the same creator.
func NewSupportService(db *gorm.DB, supportRepo repository.SupportRepository, locks *KeyLock) SupportService {
	return &supportService{db: db, supportRepo: supportRepo, locks: locks}
}

// Settle runs the full settlement: guard checks in order (existence, active,
// self-support, amount, balance), share computation from the creator's cached
// rates, reconciliation, then a single transaction committing the support log,
// the supporter pair, and every balance mutation. Any failure leaves no
// partial state.
func (s *supportService) Settle(ctx context.Context, payerID uint, req SupportRequest) (*SupportResult, error) {
	if req.Source == "" {
		req.Source = FundingDirect
	}

	unlock := s.locks.lockPair(req.CreatorID, payerID)
	defer unlock()

	var result *SupportResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var creator model.Creator
		if err := tx.First(&creator, req.CreatorID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCreatorNotFound
			}
			return err
		}
		if !creator.IsActive {
			return ErrCreatorInactive
		}
		if creator.UserID == payerID {
			logger.Warn("self-support attempt",
				zap.Uint("user_id", payerID), zap.Uint("creator_id", creator.ID))
			return ErrSelfSupport
		}
		if req.Amount <= 0 || math.IsNaN(req.Amount) || math.IsInf(req.Amount, 0) {
			return ErrInvalidAmount
		}

		var payer model.User
		if err := tx.First(&payer, payerID).Error; err != nil {
			return err
		}
		if req.Source == FundingPoints && payer.FreePoints < req.Amount {
			return ErrInsufficientPoints
		}

		creatorShare := req.Amount * creator.RevenueShare
		fanCommission := req.Amount * creator.FanCommissionRate
		platformFee := req.Amount * creator.PlatformFeeRate

		// The rates come from cached storage, not a fresh Compute; verify
		// they still partition the amount before touching any balance.
		// Written fail-closed so a NaN difference also aborts.
		if !(math.Abs((creatorShare+fanCommission+platformFee)-req.Amount) <= reconcileTolerance) {
			logger.Error("split reconciliation failure",
				zap.Uint("creator_id", creator.ID),
				zap.Float64("amount", req.Amount),
				zap.Float64("sum", creatorShare+fanCommission+platformFee))
			return ErrSplitMismatch
		}

		log := &model.SupportLog{
			CreatorID:     creator.ID,
			SupporterID:   payerID,
			SupportType:   string(req.Source),
			Amount:        req.Amount,
			CreatorShare:  creatorShare,
			FanCommission: fanCommission,
			PlatformFee:   platformFee,
			Message:       req.Message,
			Timestamp:     time.Now(),
		}
		if err := tx.Create(log).Error; err != nil {
			return err
		}

		pair := &model.Supporter{ID: uuid.New().String(), CreatorID: creator.ID, SupporterID: payerID}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(pair).Error; err != nil {
			return err
		}
		var supporters int64
		if err := tx.Model(&model.Supporter{}).
			Where("creator_id = ?", creator.ID).
			Count(&supporters).Error; err != nil {
			return err
		}

		if err := tx.Model(&model.Creator{}).
			Where("id = ?", creator.ID).
			Updates(map[string]interface{}{
				"total_revenue":    gorm.Expr("total_revenue + ?", creatorShare),
				"total_supporters": supporters,
			}).Error; err != nil {
			return err
		}

		payerUpdates := map[string]interface{}{}
		switch req.Source {
		case FundingPoints:
			payerUpdates["free_points"] = gorm.Expr("free_points - ?", req.Amount)
			payerUpdates["points_used"] = gorm.Expr("points_used + ?", req.Amount)
			payerUpdates["points_earned"] = gorm.Expr("points_earned + ?", fanCommission)
		default:
			payerUpdates["total_supported"] = gorm.Expr("total_supported + ?", req.Amount)
			payerUpdates["total_earned"] = gorm.Expr("total_earned + ?", fanCommission)
		}
		if err := tx.Model(&model.User{}).
			Where("id = ?", payerID).
			Updates(payerUpdates).Error; err != nil {
			return err
		}

		if req.Source == FundingPoints {
			// the owning user receives the creator share into their point wallet
			if err := tx.Model(&model.User{}).
				Where("id = ?", creator.UserID).
				Update("points_earned", gorm.Expr("points_earned + ?", creatorShare)).Error; err != nil {
				return err
			}
		}

		result = &SupportResult{
			SupportID:       log.ID,
			CreatorID:       creator.ID,
			CreatorName:     creator.Name,
			Amount:          req.Amount,
			SupportType:     string(req.Source),
			CreatorShare:    creatorShare,
			FanCommission:   fanCommission,
			PlatformFee:     platformFee,
			TotalSupporters: supporters,
			Timestamp:       log.Timestamp,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("support settled",
		zap.Uint("support_id", result.SupportID),
		zap.Uint("payer_id", payerID),
		zap.Uint("creator_id", result.CreatorID),
		zap.String("type", result.SupportType),
		zap.Float64("amount", result.Amount))
	return result, nil
}

func (s *supportService) History(ctx context.Context, payerID uint, limit int) ([]*SupportHistoryItem, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	logs, err := s.supportRepo.ListBySupporter(ctx, payerID, limit)
	if err != nil {
		return nil, err
	}
	ids := make([]uint, 0, len(logs))
	for _, l := range logs {
		ids = append(ids, l.CreatorID)
	}
	names, err := s.supportRepo.CreatorNames(ctx, ids)
	if err != nil {
		return nil, err
	}
	items := make([]*SupportHistoryItem, len(logs))
	for i, l := range logs {
		items[i] = &SupportHistoryItem{
			ID:            l.ID,
			CreatorID:     l.CreatorID,
			CreatorName:   names[l.CreatorID],
			Amount:        l.Amount,
			SupportType:   l.SupportType,
			CreatorShare:  l.CreatorShare,
			FanCommission: l.FanCommission,
			PlatformFee:   l.PlatformFee,
			Message:       l.Message,
			Timestamp:     l.Timestamp,
		}
	}
	return items, nil
}
