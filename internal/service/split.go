package service

import (
	"errors"
	"math"
)

var ErrInvalidSplitRatio = errors.New("creator/fan split ratio must be between 0.0 and 1.0")

// SplitRates are the three per-creator rates cached on the creator row.
// They always sum to 1.0.
type SplitRates struct {
	RevenueShare      float64 `json:"revenue_share"`
	FanCommissionRate float64 `json:"fan_commission_rate"`
	PlatformFeeRate   float64 `json:"platform_fee_rate"`
}

// SplitCalculator derives the per-creator revenue split from the chosen
// creator/fan ratio. The platform fee rate is fixed at construction and
// applies to every creator; only the split of the remainder is configurable.
type SplitCalculator struct {
	feeRate float64
}

func NewSplitCalculator(platformFeeRate float64) *SplitCalculator {
	return &SplitCalculator{feeRate: platformFeeRate}
}

func (c *SplitCalculator) FeeRate() float64 { return c.feeRate }

// Compute partitions the unit amount: the platform takes feeRate, and the
// remaining pool is split creatorFanSplit : (1 - creatorFanSplit) between
// creator and supporter.
func (c *SplitCalculator) Compute(creatorFanSplit float64) (SplitRates, error) {
	if math.IsNaN(creatorFanSplit) || creatorFanSplit < 0.0 || creatorFanSplit > 1.0 {
		return SplitRates{}, ErrInvalidSplitRatio
	}
	distributable := 1.0 - c.feeRate
	return SplitRates{
		RevenueShare:      distributable * creatorFanSplit,
		FanCommissionRate: distributable * (1.0 - creatorFanSplit),
		PlatformFeeRate:   c.feeRate,
	}, nil
}
