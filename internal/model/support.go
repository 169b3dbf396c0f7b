package model

import "time"

// SupportType distinguishes how a settlement was funded.
const (
	SupportTypeDirect = "direct"
	SupportTypePoints = "points"
)

// SupportLog is the append-only audit entry for one settlement.
// creator_share + fan_commission + platform_fee == amount within 0.01.
type SupportLog struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	CreatorID   uint   `json:"creator_id" gorm:"index:idx_support_creator;not null"`
	SupporterID uint   `json:"supporter_id" gorm:"index:idx_support_supporter;not null"`
	SupportType string `json:"support_type" gorm:"type:varchar(16);not null;default:direct"`

	Amount        float64 `json:"amount" gorm:"not null"`
	CreatorShare  float64 `json:"creator_share" gorm:"not null"`
	FanCommission float64 `json:"fan_commission" gorm:"not null"`
	PlatformFee   float64 `json:"platform_fee" gorm:"not null"`

	Message   string    `json:"message" gorm:"type:text"`
	Timestamp time.Time `json:"timestamp" gorm:"index:idx_support_ts;autoCreateTime"`
}

func (SupportLog) TableName() string { return "support_logs" }

// Supporter is a redundant (creator, supporter) pair table maintained on
// settlement so the distinct-supporter count is a plain COUNT instead of a
// per-settlement DISTINCT scan over support_logs.
type Supporter struct {
	ID          string    `gorm:"primaryKey;type:varchar(36)"`
	CreatorID   uint      `gorm:"index:idx_supporter_creator;index:idx_supporter_pair,unique;not null"`
	SupporterID uint      `gorm:"not null;index:idx_supporter_pair,unique"`
	CreatedAt   time.Time
}

func (Supporter) TableName() string { return "supporters" }
