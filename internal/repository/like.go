package repository

import (
	"context"
	"errors"

	"clipstream/internal/models"

	"gorm.io/gorm"
)

// LikeRepository defines the interface for like ledger operations.
type LikeRepository interface {
	Get(ctx context.Context, userID uint, ref models.ContentRef) (*models.Like, error)
	Create(ctx context.Context, like *models.Like) error
	// DeleteByUserContent removes the like row and reports how many rows
	// went away, so concurrent untoggles can detect a lost race.
	DeleteByUserContent(ctx context.Context, userID uint, ref models.ContentRef) (int64, error)
	CountForContent(ctx context.Context, ref models.ContentRef) (int64, error)
}

type likeRepository struct {
	db *gorm.DB
}

// NewLikeRepository creates a new like repository.
func NewLikeRepository(db *gorm.DB) LikeRepository {
	return &likeRepository{db: db}
}

func (r *likeRepository) Get(ctx context.Context, userID uint, ref models.ContentRef) (*models.Like, error) {
	var like models.Like
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND content_id = ? AND content_type = ?", userID, ref.ID, ref.Type).
		First(&like).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &like, nil
}

func (r *likeRepository) Create(ctx context.Context, like *models.Like) error {
	// Duplicate-key errors pass through untranslated so the service can
	// fall back to idempotent behavior.
	return r.db.WithContext(ctx).Create(like).Error
}

func (r *likeRepository) DeleteByUserContent(ctx context.Context, userID uint, ref models.ContentRef) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND content_id = ? AND content_type = ?", userID, ref.ID, ref.Type).
		Delete(&models.Like{})
	if res.Error != nil {
		return 0, models.NewInternalError(res.Error)
	}
	return res.RowsAffected, nil
}

func (r *likeRepository) CountForContent(ctx context.Context, ref models.ContentRef) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Like{}).
		Where("content_id = ? AND content_type = ?", ref.ID, ref.Type).
		Count(&count).Error
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}
