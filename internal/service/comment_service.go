package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"clipstream/internal/cache"
	"clipstream/internal/models"
	"clipstream/internal/repository"

	"gorm.io/gorm"
)

const maxCommentRunes = 1000

// CommentService manages the threaded comment store. Creation and deletion
// move the parent's replies counter inside the same transaction as the
// comment row, so the counter tracks active immediate children exactly.
type CommentService struct {
	db          *gorm.DB
	registry    repository.ContentRegistry
	commentRepo repository.CommentRepository
}

// NewCommentService returns a new CommentService.
func NewCommentService(db *gorm.DB, registry repository.ContentRegistry, commentRepo repository.CommentRepository) *CommentService {
	return &CommentService{
		db:          db,
		registry:    registry,
		commentRepo: commentRepo,
	}
}

// CreateComment posts a comment on the given content, optionally as a reply
// to parentID.
func (s *CommentService) CreateComment(ctx context.Context, userID uint, ref models.ContentRef, parentID *uint, text string) (*models.Comment, error) {
	if !ref.Type.Valid() {
		return nil, models.NewValidationError("Invalid content type")
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, models.NewValidationError("Comment text is required")
	}
	if utf8.RuneCountInString(text) > maxCommentRunes {
		return nil, models.NewValidationError("Comment text exceeds 1000 characters")
	}

	exists, err := s.registry.Exists(ctx, ref)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, models.NewNotFoundError(string(ref.Type), ref.ID)
	}

	if parentID != nil {
		parent, err := s.commentRepo.GetByID(ctx, *parentID)
		if err != nil {
			return nil, err
		}
		if !parent.Active {
			return nil, models.NewNotFoundError("Comment", *parentID)
		}
		if parent.ContentID != ref.ID || parent.ContentType != ref.Type {
			return nil, models.NewValidationError("Parent comment belongs to different content")
		}
	}

	comment := &models.Comment{
		UserID:      userID,
		ContentID:   ref.ID,
		ContentType: ref.Type,
		Text:        text,
		ParentID:    parentID,
		Active:      true,
	}

	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		comments := repository.NewCommentRepository(tx)
		if err := comments.Create(ctx, comment); err != nil {
			return err
		}
		if parentID != nil {
			return comments.AddReplies(ctx, *parentID, 1)
		}
		return nil
	})
	if txErr != nil {
		if _, ok := txErr.(*models.AppError); ok {
			return nil, txErr
		}
		return nil, models.NewInternalError(txErr)
	}

	// Reload with the author preloaded so the broadcast payload is complete.
	created, err := s.commentRepo.GetByID(ctx, comment.ID)
	if err != nil {
		return nil, err
	}

	cache.InvalidateByPrefix(ctx, cache.CommentsPrefix(ref))
	return created, nil
}

// UpdateComment edits the text of the caller's own comment.
func (s *CommentService) UpdateComment(ctx context.Context, userID, commentID uint, text string) (*models.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, models.NewValidationError("Comment text is required")
	}
	if utf8.RuneCountInString(text) > maxCommentRunes {
		return nil, models.NewValidationError("Comment text exceeds 1000 characters")
	}

	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if !comment.Active {
		return nil, models.NewNotFoundError("Comment", commentID)
	}
	if comment.UserID != userID {
		return nil, models.NewForbiddenError("You can only edit your own comments")
	}

	comment.Text = text
	comment.IsEdited = true
	if err := s.commentRepo.Update(ctx, comment); err != nil {
		return nil, err
	}

	cache.InvalidateByPrefix(ctx, cache.CommentsPrefix(comment.Ref()))
	return comment, nil
}

// DeleteComment soft-deletes the caller's own comment. The row stays so the
// reply thread under it remains navigable; the parent's replies counter is
// decremented in the same transaction.
func (s *CommentService) DeleteComment(ctx context.Context, userID, commentID uint) (*models.Comment, error) {
	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if !comment.Active {
		return nil, models.NewNotFoundError("Comment", commentID)
	}
	if comment.UserID != userID {
		return nil, models.NewForbiddenError("You can only delete your own comments")
	}

	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		comments := repository.NewCommentRepository(tx)
		if err := comments.Deactivate(ctx, commentID); err != nil {
			return err
		}
		if comment.ParentID != nil {
			return comments.AddReplies(ctx, *comment.ParentID, -1)
		}
		return nil
	})
	if txErr != nil {
		if _, ok := txErr.(*models.AppError); ok {
			return nil, txErr
		}
		return nil, models.NewInternalError(txErr)
	}

	cache.InvalidateByPrefix(ctx, cache.CommentsPrefix(comment.Ref()))
	return comment, nil
}

// ListComments returns one page of active comments for the content, newest
// first. parentID nil lists top-level comments; non-nil lists the replies of
// that comment.
func (s *CommentService) ListComments(ctx context.Context, ref models.ContentRef, parentID *uint, page, limit int) ([]*models.Comment, error) {
	if !ref.Type.Valid() {
		return nil, models.NewValidationError("Invalid content type")
	}

	var parent uint
	if parentID != nil {
		parent = *parentID
	}

	var comments []*models.Comment
	key := cache.CommentsKey(ref, parent, page, limit)
	err := cache.CacheAside(ctx, key, &comments, cache.CommentsTTL, func() error {
		var err error
		comments, err = s.commentRepo.List(ctx, ref, parentID, limit, (page-1)*limit)
		return err
	})
	return comments, err
}
