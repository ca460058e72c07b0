// Package repository provides data access layer implementations for the application.
package repository

import (
	"context"
	"errors"

	"clipstream/internal/models"

	"gorm.io/gorm"
)

// CommentRepository defines the interface for comment tree operations.
// Deletion is uniform soft-deletion (active=false); every read path here
// filters on active = true except GetByID, which the services use for
// authorization checks before mutating.
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id uint) (*models.Comment, error)
	Update(ctx context.Context, comment *models.Comment) error
	Deactivate(ctx context.Context, id uint) error
	AddReplies(ctx context.Context, parentID uint, delta int) error
	List(ctx context.Context, ref models.ContentRef, parentID *uint, limit, offset int) ([]*models.Comment, error)
}

type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new CommentRepository.
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	if err := r.db.WithContext(ctx).Create(comment).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *commentRepository) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.WithContext(ctx).Preload("User").First(&comment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Comment", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &comment, nil
}

func (r *commentRepository) Update(ctx context.Context, comment *models.Comment) error {
	if err := r.db.WithContext(ctx).Save(comment).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *commentRepository) Deactivate(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).
		Model(&models.Comment{}).
		Where("id = ?", id).
		UpdateColumn("active", false).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *commentRepository) AddReplies(ctx context.Context, parentID uint, delta int) error {
	err := r.db.WithContext(ctx).
		Model(&models.Comment{}).
		Where("id = ?", parentID).
		UpdateColumn("replies_count", gorm.Expr("replies_count + ?", delta)).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *commentRepository) List(ctx context.Context, ref models.ContentRef, parentID *uint, limit, offset int) ([]*models.Comment, error) {
	var comments []*models.Comment

	q := r.db.WithContext(ctx).
		Preload("User").
		Preload("Replies", func(db *gorm.DB) *gorm.DB {
			// One level of eager expansion; replies-of-replies are fetched
			// by listing with parentComment set.
			return db.Where("active = ?", true).Order("created_at DESC").Preload("User")
		}).
		Where("content_id = ? AND content_type = ? AND active = ?", ref.ID, ref.Type, true)

	if parentID == nil {
		q = q.Where("parent_id IS NULL")
	} else {
		q = q.Where("parent_id = ?", *parentID)
	}

	err := q.Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&comments).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return comments, nil
}
