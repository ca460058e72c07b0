package repository

import (
	"context"
	"errors"
	"fmt"

	"clipstream/internal/models"

	"gorm.io/gorm"
)

// ContentRegistry answers "does this content exist and is it engageable".
// It is the only coupling point between the engagement layer and content
// storage, and is queried synchronously before every engagement mutation.
type ContentRegistry interface {
	Exists(ctx context.Context, ref models.ContentRef) (bool, error)
	// Owner returns the authoring user of the content; used by counter
	// maintenance to credit received likes.
	Owner(ctx context.Context, ref models.ContentRef) (uint, error)
}

type contentRegistry struct {
	db *gorm.DB
}

// NewContentRegistry creates a ContentRegistry over the content tables.
func NewContentRegistry(db *gorm.DB) ContentRegistry {
	return &contentRegistry{db: db}
}

func (r *contentRegistry) Exists(ctx context.Context, ref models.ContentRef) (bool, error) {
	var count int64
	var err error

	switch ref.Type {
	case models.ContentTypeVideo:
		err = r.db.WithContext(ctx).Model(&models.Video{}).
			Where("id = ? AND published = ?", ref.ID, true).
			Count(&count).Error
	case models.ContentTypeArticle:
		err = r.db.WithContext(ctx).Model(&models.Article{}).
			Where("id = ? AND published = ?", ref.ID, true).
			Count(&count).Error
	case models.ContentTypeComment:
		err = r.db.WithContext(ctx).Model(&models.Comment{}).
			Where("id = ? AND active = ?", ref.ID, true).
			Count(&count).Error
	default:
		return false, models.NewValidationError(fmt.Sprintf("unknown content type %q", ref.Type))
	}

	if err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *contentRegistry) Owner(ctx context.Context, ref models.ContentRef) (uint, error) {
	var ownerID uint
	var err error

	switch ref.Type {
	case models.ContentTypeVideo:
		var v models.Video
		err = r.db.WithContext(ctx).Select("id", "user_id").First(&v, ref.ID).Error
		ownerID = v.UserID
	case models.ContentTypeArticle:
		var a models.Article
		err = r.db.WithContext(ctx).Select("id", "user_id").First(&a, ref.ID).Error
		ownerID = a.UserID
	case models.ContentTypeComment:
		var c models.Comment
		err = r.db.WithContext(ctx).Select("id", "user_id").First(&c, ref.ID).Error
		ownerID = c.UserID
	default:
		return 0, models.NewValidationError(fmt.Sprintf("unknown content type %q", ref.Type))
	}

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, models.NewNotFoundError(string(ref.Type), ref.ID)
		}
		return 0, models.NewInternalError(err)
	}
	return ownerID, nil
}
