// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"gorm.io/gorm"
)

// UserStats holds denormalized aggregate counters for a user.
// These fields are owned by the counter-maintenance logic in the follow,
// like and video services; nothing else writes them. They are trusted on
// read and never recomputed from source-of-truth rows.
type UserStats struct {
	Followers  int   `json:"followers"`
	Following  int   `json:"following"`
	TotalViews int64 `json:"total_views"`
	TotalLikes int64 `json:"total_likes"`
}

// User represents a user account on the platform.
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Username  string         `gorm:"unique;not null" json:"username"`
	Email     string         `gorm:"unique;not null" json:"email"`
	Password  string         `gorm:"not null" json:"-"`
	Bio       string         `json:"bio"`
	Avatar    string         `json:"avatar"`
	Stats     UserStats      `gorm:"embedded;embeddedPrefix:stats_" json:"stats"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
