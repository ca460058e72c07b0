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
	FollowResultFollowed   = "followed"
	FollowResultUnfollowed = "unfollowed"
)

// FollowService implements the follow half of the engagement ledger plus
// the follower/following counter maintenance. The follow row and both
// counters are written inside a single transaction so a crash can no
// longer leave the counters drifted from the ledger.
type FollowService struct {
	db         *gorm.DB
	followRepo repository.FollowRepository
	userRepo   repository.UserRepository
}

// NewFollowService returns a new FollowService.
func NewFollowService(db *gorm.DB, followRepo repository.FollowRepository, userRepo repository.UserRepository) *FollowService {
	return &FollowService{
		db:         db,
		followRepo: followRepo,
		userRepo:   userRepo,
	}
}

// ToggleFollow flips the follow state of (followerID -> targetID).
func (s *FollowService) ToggleFollow(ctx context.Context, followerID, targetID uint) (string, error) {
	if followerID == targetID {
		return "", models.NewInvalidOperationError("You cannot follow yourself")
	}

	exists, err := s.userRepo.Exists(ctx, targetID)
	if err != nil {
		return "", err
	}
	if !exists {
		return "", models.NewNotFoundError("User", targetID)
	}

	existing, err := s.followRepo.GetPair(ctx, followerID, targetID)
	if err != nil {
		return "", err
	}

	result := FollowResultFollowed
	if existing != nil {
		result = FollowResultUnfollowed
	}

	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		follows := repository.NewFollowRepository(tx)
		users := repository.NewUserRepository(tx)

		if existing != nil {
			deleted, err := follows.DeletePair(ctx, followerID, targetID)
			if err != nil {
				return err
			}
			if deleted == 0 {
				// Lost a race against a concurrent unfollow.
				return nil
			}
			if err := users.AddFollowers(ctx, targetID, -1); err != nil {
				return err
			}
			return users.AddFollowing(ctx, followerID, -1)
		}

		if err := follows.Create(ctx, &models.Follow{
			FollowerID:  followerID,
			FollowingID: targetID,
			Status:      models.FollowStatusActive,
		}); err != nil {
			return err
		}
		if err := users.AddFollowers(ctx, targetID, 1); err != nil {
			return err
		}
		return users.AddFollowing(ctx, followerID, 1)
	})
	if txErr != nil {
		if database.IsDuplicateKey(txErr) {
			// A concurrent toggle created the row first; already followed.
			// The winner mutated state, so read paths still go stale.
			s.invalidateReadPaths(ctx, followerID, targetID)
			return FollowResultFollowed, nil
		}
		if _, ok := txErr.(*models.AppError); ok {
			return "", txErr
		}
		return "", models.NewInternalError(txErr)
	}

	s.invalidateReadPaths(ctx, followerID, targetID)
	return result, nil
}

// Followers returns one page of users following userID, newest first.
func (s *FollowService) Followers(ctx context.Context, userID uint, page, limit int) ([]models.User, error) {
	var users []models.User
	key := cache.FollowListKey(cache.FollowersPrefix(userID), page, limit)
	err := cache.CacheAside(ctx, key, &users, cache.FollowTTL, func() error {
		var err error
		users, err = s.followRepo.ListFollowers(ctx, userID, limit, (page-1)*limit)
		return err
	})
	return users, err
}

// Following returns one page of users that userID follows, newest first.
func (s *FollowService) Following(ctx context.Context, userID uint, page, limit int) ([]models.User, error) {
	var users []models.User
	key := cache.FollowListKey(cache.FollowingPrefix(userID), page, limit)
	err := cache.CacheAside(ctx, key, &users, cache.FollowTTL, func() error {
		var err error
		users, err = s.followRepo.ListFollowing(ctx, userID, limit, (page-1)*limit)
		return err
	})
	return users, err
}

func (s *FollowService) invalidateReadPaths(ctx context.Context, followerID, targetID uint) {
	cache.InvalidateByPrefix(ctx, cache.FollowersPrefix(targetID))
	cache.InvalidateByPrefix(ctx, cache.FollowingPrefix(followerID))
	cache.Invalidate(ctx, cache.UserKey(targetID))
	cache.Invalidate(ctx, cache.UserKey(followerID))
}
