package models

import "time"

// Like represents a user's like on a piece of content.
// Row existence IS the liked state: the row is created on toggle-on and
// hard-deleted on toggle-off, never flagged. The unique index over
// (user_id, content_id, content_type) is the last line of defense against
// concurrent toggles both observing "absent" and inserting.
type Like struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	UserID      uint        `gorm:"not null;uniqueIndex:idx_like_user_content" json:"user_id"`
	ContentID   uint        `gorm:"not null;uniqueIndex:idx_like_user_content" json:"content_id"`
	ContentType ContentType `gorm:"type:varchar(20);not null;uniqueIndex:idx_like_user_content" json:"content_type"`
	CreatedAt   time.Time   `json:"created_at"`

	// Relationships
	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// TableName specifies the table name for GORM
func (Like) TableName() string {
	return "likes"
}
