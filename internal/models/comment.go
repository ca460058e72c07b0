// Package models contains data structures for the application's domain models.
package models

import "time"

// Comment represents a threaded comment on a piece of content.
// Comments are soft-deleted uniformly: deletion sets Active=false and keeps
// the row so reply threads stay intact. Every list/read path must filter on
// active = true. RepliesCount counts active immediate children and is
// maintained incrementally alongside child creation/deletion.
type Comment struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	UserID      uint        `gorm:"not null;index" json:"user_id"`
	ContentID   uint        `gorm:"not null;index:idx_comment_content" json:"content_id"`
	ContentType ContentType `gorm:"type:varchar(20);not null;index:idx_comment_content" json:"content_type"`
	Text        string      `gorm:"type:text;not null" json:"text"`
	ParentID    *uint       `gorm:"index" json:"parent_id,omitempty"`

	RepliesCount int  `gorm:"default:0" json:"replies_count"`
	Active       bool `gorm:"default:true;index" json:"active"`
	IsEdited     bool `gorm:"default:false" json:"is_edited"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	User    User      `gorm:"foreignKey:UserID" json:"user"`
	Replies []Comment `gorm:"foreignKey:ParentID" json:"replies,omitempty"`
}

// TableName specifies the table name for GORM
func (Comment) TableName() string {
	return "comments"
}

// Ref returns the content reference this comment is attached to.
func (c *Comment) Ref() ContentRef {
	return ContentRef{Type: c.ContentType, ID: c.ContentID}
}
