package models

import "time"

// FollowStatus represents the status of a follow relationship.
type FollowStatus string

const (
	// FollowStatusActive is a normal, counted follow.
	FollowStatusActive FollowStatus = "active"
	// FollowStatusBlocked marks a relationship the target has blocked.
	FollowStatusBlocked FollowStatus = "blocked"
)

// Follow represents a follower -> following relationship between two users.
// A pair is unique and self-follows are rejected at write time. The row is
// hard-deleted on unfollow; the follower/following counters on both users
// move in lockstep with row creation and deletion.
type Follow struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	FollowerID  uint         `gorm:"not null;uniqueIndex:idx_follow_pair" json:"follower_id"`
	FollowingID uint         `gorm:"not null;uniqueIndex:idx_follow_pair" json:"following_id"`
	Status      FollowStatus `gorm:"type:varchar(20);default:'active';index" json:"status"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`

	// Relationships
	Follower  User `gorm:"foreignKey:FollowerID" json:"follower,omitempty"`
	Following User `gorm:"foreignKey:FollowingID" json:"following,omitempty"`
}

// TableName specifies the table name for GORM
func (Follow) TableName() string {
	return "follows"
}
