// Package service contains the business logic of the engagement core.
package service

import (
	"context"

	"clipstream/internal/cache"
	"clipstream/internal/database"
	"clipstream/internal/models"
	"clipstream/internal/repository"

	"gorm.io/gorm"
)

// Toggle outcomes.
const (
	LikeResultLiked   = "liked"
	LikeResultUnliked = "unliked"
)

// LikeService implements the like half of the engagement ledger.
//
// ToggleLike is a read-then-write toggle with no row lock: two concurrent
// toggles from the same user can both observe "absent". The unique index on
// (user_id, content_id, content_type) backstops that race, and a duplicate
// insert is folded into the idempotent "liked" outcome instead of surfacing
// a conflict.
type LikeService struct {
	db       *gorm.DB
	registry repository.ContentRegistry
	likeRepo repository.LikeRepository
}

// NewLikeService returns a new LikeService.
func NewLikeService(db *gorm.DB, registry repository.ContentRegistry, likeRepo repository.LikeRepository) *LikeService {
	return &LikeService{
		db:       db,
		registry: registry,
		likeRepo: likeRepo,
	}
}

// ToggleLike flips the liked state of (userID, ref). The like row and the
// content owner's total-likes counter move inside one transaction.
func (s *LikeService) ToggleLike(ctx context.Context, userID uint, ref models.ContentRef) (string, error) {
	if !ref.Type.Valid() {
		return "", models.NewValidationError("Invalid content type")
	}

	exists, err := s.registry.Exists(ctx, ref)
	if err != nil {
		return "", err
	}
	if !exists {
		return "", models.NewNotFoundError(string(ref.Type), ref.ID)
	}

	existing, err := s.likeRepo.Get(ctx, userID, ref)
	if err != nil {
		return "", err
	}

	result := LikeResultLiked
	if existing != nil {
		result = LikeResultUnliked
	}

	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		likes := repository.NewLikeRepository(tx)
		users := repository.NewUserRepository(tx)

		if existing != nil {
			deleted, err := likes.DeleteByUserContent(ctx, userID, ref)
			if err != nil {
				return err
			}
			if deleted == 0 {
				// Lost a race against a concurrent untoggle; nothing to count.
				return nil
			}
			return s.creditOwner(ctx, tx, users, ref, -1)
		}

		if err := likes.Create(ctx, &models.Like{
			UserID:      userID,
			ContentID:   ref.ID,
			ContentType: ref.Type,
		}); err != nil {
			return err
		}
		return s.creditOwner(ctx, tx, users, ref, 1)
	})
	if txErr != nil {
		if database.IsDuplicateKey(txErr) {
			// A concurrent toggle inserted first; the content is liked,
			// which is the state this call wanted. The winner mutated
			// state, so read paths still have to be invalidated.
			s.invalidateReadPaths(ctx, ref)
			return LikeResultLiked, nil
		}
		if _, ok := txErr.(*models.AppError); ok {
			return "", txErr
		}
		return "", models.NewInternalError(txErr)
	}

	s.invalidateReadPaths(ctx, ref)
	return result, nil
}

// IsLiked reports whether the user currently likes the content.
func (s *LikeService) IsLiked(ctx context.Context, userID uint, ref models.ContentRef) (bool, error) {
	like, err := s.likeRepo.Get(ctx, userID, ref)
	if err != nil {
		return false, err
	}
	return like != nil, nil
}

// LikeCount returns the ad-hoc like count for the content.
func (s *LikeService) LikeCount(ctx context.Context, ref models.ContentRef) (int64, error) {
	return s.likeRepo.CountForContent(ctx, ref)
}

func (s *LikeService) creditOwner(ctx context.Context, tx *gorm.DB, users repository.UserRepository, ref models.ContentRef, delta int64) error {
	ownerID, err := repository.NewContentRegistry(tx).Owner(ctx, ref)
	if err != nil {
		return err
	}
	return users.AddTotalLikes(ctx, ownerID, delta)
}

func (s *LikeService) invalidateReadPaths(ctx context.Context, ref models.ContentRef) {
	switch ref.Type {
	case models.ContentTypeVideo:
		cache.Invalidate(ctx, cache.VideoKey(ref.ID))
		cache.InvalidateByPrefix(ctx, cache.VideosListPrefix)
	case models.ContentTypeArticle:
		cache.Invalidate(ctx, cache.ArticleKey(ref.ID))
		cache.InvalidateByPrefix(ctx, cache.ArticlesListPrefix)
	}
}
