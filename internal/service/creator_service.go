package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/d60-Lab/fan-platform/internal/model"
	"github.com/d60-Lab/fan-platform/internal/repository"
	"github.com/d60-Lab/fan-platform/pkg/logger"
)

var (
	ErrNameTaken = errors.New("creator name is already registered")
	ErrNotOwner  = errors.New("creator belongs to another user")
)

// CreatorCreate carries the fields for a new creator profile.
type CreatorCreate struct {
	Name            string
	ImageURL        string
	Description     string
	Category        string
	CreatorFanSplit float64
	AllowAIContent  bool
}

// CreatorUpdate carries optional profile changes; nil fields are untouched.
type CreatorUpdate struct {
	Name            *string
	ImageURL        *string
	Description     *string
	Category        *string
	CreatorFanSplit *float64
	AllowAIContent  *bool
	IsActive        *bool
}

type CreatorService interface {
	Create(ctx context.Context, ownerID uint, in CreatorCreate) (*model.Creator, error)
	Update(ctx context.Context, ownerID, creatorID uint, in CreatorUpdate) (*model.Creator, error)
	Get(ctx context.Context, creatorID uint) (*model.Creator, int64, error)
	ListMine(ctx context.Context, ownerID uint) ([]*model.Creator, error)
	ListPublic(ctx context.Context, category string, limit int) ([]*model.Creator, error)
	NameAvailable(ctx context.Context, name string) (bool, error)
}

type creatorService struct {
	repo       repository.CreatorRepository
	supporters repository.SupporterRepository
	split      *SplitCalculator
	locks      *KeyLock
}

func NewCreatorService(repo repository.CreatorRepository, supporters repository.SupporterRepository, split *SplitCalculator, locks *KeyLock) CreatorService {
	return &creatorService{repo: repo, supporters: supporters, split: split, locks: locks}
}

func (s *creatorService) Create(ctx context.Context, ownerID uint, in CreatorCreate) (*model.Creator, error) {
	rates, err := s.split.Compute(in.CreatorFanSplit)
	if err != nil {
		return nil, err
	}
	taken, err := s.repo.NameTaken(ctx, in.Name, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		logger.Warn("creator name duplicate on create", zap.String("name", in.Name), zap.Uint("user_id", ownerID))
		return nil, ErrNameTaken
	}

	category := in.Category
	if category == "" {
		category = "VTuber"
	}
	creator := &model.Creator{
		Name:              in.Name,
		ImageURL:          in.ImageURL,
		Description:       in.Description,
		Category:          category,
		CreatorFanSplit:   in.CreatorFanSplit,
		RevenueShare:      rates.RevenueShare,
		FanCommissionRate: rates.FanCommissionRate,
		PlatformFeeRate:   rates.PlatformFeeRate,
		IsActive:          true,
		AllowAIContent:    in.AllowAIContent,
		UserID:            ownerID,
	}
	if err := s.repo.Create(ctx, creator); err != nil {
		// the NameTaken pre-check races concurrent creates; the unique
		// index is the real arbiter
		return nil, nameConflictErr(err)
	}
	logger.Info("creator created",
		zap.Uint("creator_id", creator.ID),
		zap.String("name", creator.Name),
		zap.Float64("split", creator.CreatorFanSplit))
	return creator, nil
}

// Update applies profile changes. A split ratio change recomputes all three
// cached rates and writes them in the same UPDATE as the ratio; the write is
// serialized against settlements on the same creator.
func (s *creatorService) Update(ctx context.Context, ownerID, creatorID uint, in CreatorUpdate) (*model.Creator, error) {
	creator, err := s.repo.GetByID(ctx, creatorID)
	if err != nil {
		return nil, err
	}
	if creator == nil {
		return nil, ErrCreatorNotFound
	}
	if creator.UserID != ownerID {
		return nil, ErrNotOwner
	}

	fields := map[string]interface{}{}
	if in.Name != nil {
		taken, err := s.repo.NameTaken(ctx, *in.Name, creatorID)
		if err != nil {
			return nil, err
		}
		if taken {
			logger.Warn("creator name duplicate on update", zap.String("name", *in.Name), zap.Uint("user_id", ownerID))
			return nil, ErrNameTaken
		}
		fields["name"] = *in.Name
	}
	if in.ImageURL != nil {
		fields["image_url"] = *in.ImageURL
	}
	if in.Description != nil {
		fields["description"] = *in.Description
	}
	if in.Category != nil {
		fields["category"] = *in.Category
	}
	if in.AllowAIContent != nil {
		fields["allow_ai_content"] = *in.AllowAIContent
	}
	if in.IsActive != nil {
		fields["is_active"] = *in.IsActive
	}
	if in.CreatorFanSplit != nil {
		rates, err := s.split.Compute(*in.CreatorFanSplit)
		if err != nil {
			return nil, err
		}
		fields["creator_fan_split"] = *in.CreatorFanSplit
		fields["revenue_share"] = rates.RevenueShare
		fields["fan_commission_rate"] = rates.FanCommissionRate
		fields["platform_fee_rate"] = rates.PlatformFeeRate
	}
	if len(fields) == 0 {
		return creator, nil
	}

	unlock := s.locks.lock(creatorID)
	err = s.repo.Updates(ctx, creatorID, fields)
	unlock()
	if err != nil {
		return nil, nameConflictErr(err)
	}
	return s.repo.GetByID(ctx, creatorID)
}

// nameConflictErr maps a unique-index violation on creators.name to
// ErrNameTaken; other errors pass through unchanged.
func nameConflictErr(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrNameTaken
	}
	return err
}

// Get returns a creator profile together with a live distinct supporter
// count. The count on the row is a settlement-time snapshot; this one is
// authoritative.
func (s *creatorService) Get(ctx context.Context, creatorID uint) (*model.Creator, int64, error) {
	creator, err := s.repo.GetByID(ctx, creatorID)
	if err != nil {
		return nil, 0, err
	}
	if creator == nil {
		return nil, 0, ErrCreatorNotFound
	}
	supporters, err := s.supporters.CountForCreator(ctx, creatorID)
	if err != nil {
		return nil, 0, err
	}
	return creator, supporters, nil
}

func (s *creatorService) ListMine(ctx context.Context, ownerID uint) ([]*model.Creator, error) {
	return s.repo.ListByOwner(ctx, ownerID)
}

func (s *creatorService) ListPublic(ctx context.Context, category string, limit int) ([]*model.Creator, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.repo.ListPublic(ctx, category, limit)
}

func (s *creatorService) NameAvailable(ctx context.Context, name string) (bool, error) {
	taken, err := s.repo.NameTaken(ctx, name, 0)
	if err != nil {
		return false, err
	}
	return !taken, nil
}
