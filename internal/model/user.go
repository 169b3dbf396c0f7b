package model

import "time"

// User is both a potential supporter and, through owned creators, an earner.
type User struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	Username       string    `json:"username" gorm:"type:varchar(64);uniqueIndex:ux_users_username;not null"`
	Email          string    `json:"email" gorm:"type:varchar(255);index:idx_users_email"`
	HashedPassword string    `json:"-" gorm:"type:varchar(255);not null"`

	// lifetime supporter/earner totals (direct-amount settlements)
	TotalEarned    float64 `json:"total_earned" gorm:"not null;default:0"`
	TotalSupported float64 `json:"total_supported" gorm:"not null;default:0"`

	// point wallet (point-funded settlements)
	FreePoints   float64 `json:"free_points" gorm:"not null;default:0"`
	PointsEarned float64 `json:"points_earned" gorm:"not null;default:0"`
	PointsUsed   float64 `json:"points_used" gorm:"not null;default:0"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string { return "users" }
