package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/d60-Lab/fan-platform/internal/repository"
)

// PlatformStats aggregates settlement revenue across the platform.
type PlatformStats struct {
	TotalPlatformRevenue float64 `json:"total_platform_revenue"`
	TotalCreatorRevenue  float64 `json:"total_creator_revenue"`
	TotalFanCommission   float64 `json:"total_fan_commission"`
	ActiveCreators       int64   `json:"active_creators"`
	ActiveFans           int64   `json:"active_fans"`
	TotalTransactions    int64   `json:"total_transactions"`
	PlatformFeeRate      float64 `json:"platform_fee_rate"`
}

type StatsService interface {
	PlatformStats(ctx context.Context) (*PlatformStats, error)
}

const statsCacheKey = "stats:platform"

type statsService struct {
	supportRepo repository.SupportRepository
	creatorRepo repository.CreatorRepository
	userRepo    repository.UserRepository
	cache       *redis.Client
	ttl         time.Duration
	feeRate     float64
}

// NewStatsService aggregates platform revenue. cache may be nil, in which
// case every call hits the database.
func NewStatsService(
	supportRepo repository.SupportRepository,
	creatorRepo repository.CreatorRepository,
	userRepo repository.UserRepository,
	cache *redis.Client,
	ttl time.Duration,
	feeRate float64,
) StatsService {
	return &statsService{
		supportRepo: supportRepo,
		creatorRepo: creatorRepo,
		userRepo:    userRepo,
		cache:       cache,
		ttl:         ttl,
		feeRate:     feeRate,
	}
}

func (s *statsService) PlatformStats(ctx context.Context) (*PlatformStats, error) {
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, statsCacheKey).Bytes(); err == nil {
			var out PlatformStats
			if uErr := json.Unmarshal(data, &out); uErr == nil {
				return &out, nil
			}
		}
	}

	platform, creator, fan, txCount, err := s.supportRepo.RevenueTotals(ctx)
	if err != nil {
		return nil, err
	}
	activeCreators, err := s.creatorRepo.CountActive(ctx)
	if err != nil {
		return nil, err
	}
	activeFans, err := s.userRepo.CountActiveFans(ctx)
	if err != nil {
		return nil, err
	}

	stats := &PlatformStats{
		TotalPlatformRevenue: platform,
		TotalCreatorRevenue:  creator,
		TotalFanCommission:   fan,
		ActiveCreators:       activeCreators,
		ActiveFans:           activeFans,
		TotalTransactions:    txCount,
		PlatformFeeRate:      s.feeRate,
	}
	if s.cache != nil {
		if payload, err := json.Marshal(stats); err == nil {
			_ = s.cache.Set(ctx, statsCacheKey, payload, s.ttl).Err()
		}
	}
	return stats, nil
}
