package model

import "time"

// Creator is a supportable profile owned by one user.
// Name is unique platform-wide (case-sensitive exact match).
type Creator struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	Name        string `json:"name" gorm:"type:varchar(100);uniqueIndex:ux_creators_name;not null"`
	ImageURL    string `json:"image_url" gorm:"type:varchar(512)"`
	Description string `json:"description" gorm:"type:text"`
	Category    string `json:"category" gorm:"type:varchar(64);index:idx_creators_category;default:VTuber"`

	// CreatorFanSplit is the creator-chosen fraction of the post-fee pool.
	// The three cached rates below are derived from it and are always
	// replaced together; they sum to 1.0.
	CreatorFanSplit   float64 `json:"creator_fan_split" gorm:"not null;default:0.8"`
	RevenueShare      float64 `json:"revenue_share" gorm:"not null;default:0.68"`
	FanCommissionRate float64 `json:"fan_commission_rate" gorm:"not null;default:0.17"`
	PlatformFeeRate   float64 `json:"platform_fee_rate" gorm:"not null;default:0.15"`

	TotalRevenue    float64 `json:"total_revenue" gorm:"not null;default:0"`
	TotalSupporters int64   `json:"total_supporters" gorm:"not null;default:0"`

	IsActive       bool `json:"is_active" gorm:"not null;default:true"`
	AllowAIContent bool `json:"allow_ai_content" gorm:"not null;default:true"`

	UserID    uint      `json:"user_id" gorm:"index:idx_creators_user;not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Creator) TableName() string { return "creators" }
