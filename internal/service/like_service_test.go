package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"clipstream/internal/cache"
	"clipstream/internal/models"
	"clipstream/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLikeService_ToggleLike(t *testing.T) {
	db := setupTestDB(t)
	svc := NewLikeService(db, repository.NewContentRegistry(db), repository.NewLikeRepository(db))
	ctx := context.Background()

	owner := createTestUser(t, db, "creator")
	liker := createTestUser(t, db, "fan")
	video := createTestVideo(t, db, owner.ID)
	ref := models.ContentRef{Type: models.ContentTypeVideo, ID: video.ID}

	t.Run("First toggle likes and credits the owner", func(t *testing.T) {
		result, err := svc.ToggleLike(ctx, liker.ID, ref)
		require.NoError(t, err)
		assert.Equal(t, LikeResultLiked, result)

		liked, err := svc.IsLiked(ctx, liker.ID, ref)
		require.NoError(t, err)
		assert.True(t, liked)

		assert.Equal(t, int64(1), userStats(t, db, owner.ID).TotalLikes)
	})

	t.Run("Second toggle unlikes and restores the counter", func(t *testing.T) {
		result, err := svc.ToggleLike(ctx, liker.ID, ref)
		require.NoError(t, err)
		assert.Equal(t, LikeResultUnliked, result)

		liked, err := svc.IsLiked(ctx, liker.ID, ref)
		require.NoError(t, err)
		assert.False(t, liked)

		assert.Equal(t, int64(0), userStats(t, db, owner.ID).TotalLikes)
	})

	t.Run("Toggle pairs never drift the counter", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			_, err := svc.ToggleLike(ctx, liker.ID, ref)
			require.NoError(t, err)
			_, err = svc.ToggleLike(ctx, liker.ID, ref)
			require.NoError(t, err)
		}
		assert.Equal(t, int64(0), userStats(t, db, owner.ID).TotalLikes)

		var rows int64
		require.NoError(t, db.Model(&models.Like{}).
			Where("user_id = ?", liker.ID).Count(&rows).Error)
		assert.Equal(t, int64(0), rows)
	})

	t.Run("Missing content is NotFound", func(t *testing.T) {
		_, err := svc.ToggleLike(ctx, liker.ID, models.ContentRef{Type: models.ContentTypeVideo, ID: 9999})
		require.Error(t, err)
		var appErr *models.AppError
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, models.CodeNotFound, appErr.Code)
	})

	t.Run("Unpublished content is NotFound", func(t *testing.T) {
		draft := &models.Video{Title: "draft", UserID: owner.ID, FilePath: "uploads/d.mp4", Published: false}
		require.NoError(t, db.Create(draft).Error)

		_, err := svc.ToggleLike(ctx, liker.ID, models.ContentRef{Type: models.ContentTypeVideo, ID: draft.ID})
		require.Error(t, err)
		var appErr *models.AppError
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, models.CodeNotFound, appErr.Code)
	})

	t.Run("Invalid content type is a validation error", func(t *testing.T) {
		_, err := svc.ToggleLike(ctx, liker.ID, models.ContentRef{Type: "Podcast", ID: 1})
		require.Error(t, err)
		var appErr *models.AppError
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, models.CodeValidation, appErr.Code)
	})

	t.Run("Liking a comment credits the comment author", func(t *testing.T) {
		comment := &models.Comment{
			UserID:      owner.ID,
			ContentID:   video.ID,
			ContentType: models.ContentTypeVideo,
			Text:        "nice",
			Active:      true,
		}
		require.NoError(t, db.Create(comment).Error)

		result, err := svc.ToggleLike(ctx, liker.ID, models.ContentRef{Type: models.ContentTypeComment, ID: comment.ID})
		require.NoError(t, err)
		assert.Equal(t, LikeResultLiked, result)
		assert.Equal(t, int64(1), userStats(t, db, owner.ID).TotalLikes)
	})

	t.Run("LikeCount reflects the ledger", func(t *testing.T) {
		_, err := svc.ToggleLike(ctx, owner.ID, ref)
		require.NoError(t, err)

		count, err := svc.LikeCount(ctx, ref)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})
}

func TestLikeService_ConcurrentToggleStorm(t *testing.T) {
	db := setupTestDB(t)

	// One pool connection keeps every goroutine on the same in-memory
	// database while leaving the window between the untransacted read and
	// the transactional write open to interleaving.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	svc := NewLikeService(db, repository.NewContentRegistry(db), repository.NewLikeRepository(db))
	ctx := context.Background()

	owner := createTestUser(t, db, "creator")
	fan := createTestUser(t, db, "fan")
	video := createTestVideo(t, db, owner.ID)
	ref := models.ContentRef{Type: models.ContentTypeVideo, ID: video.ID}

	const toggles = 16
	results := make([]string, toggles)
	errs := make([]error, toggles)

	var wg sync.WaitGroup
	for i := 0; i < toggles; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = svc.ToggleLike(ctx, fan.ID, ref)
		}(i)
	}
	wg.Wait()

	for i := 0; i < toggles; i++ {
		require.NoError(t, errs[i], "toggle %d", i)
		assert.Contains(t, []string{LikeResultLiked, LikeResultUnliked}, results[i], "toggle %d", i)
	}

	// However the storm interleaved, at most one like row survives and the
	// owner's counter matches the ledger exactly.
	var rows int64
	require.NoError(t, db.Model(&models.Like{}).
		Where("user_id = ? AND content_id = ? AND content_type = ?", fan.ID, ref.ID, ref.Type).
		Count(&rows).Error)
	assert.LessOrEqual(t, rows, int64(1))
	assert.Equal(t, rows, userStats(t, db, owner.ID).TotalLikes)
}

// staleGetLikeRepo reads through to the database for everything except Get,
// which always reports the like as absent. This reproduces the window where
// a concurrent toggle commits its insert between this call's read and write.
type staleGetLikeRepo struct {
	repository.LikeRepository
}

func (staleGetLikeRepo) Get(context.Context, uint, models.ContentRef) (*models.Like, error) {
	return nil, nil
}

func TestLikeService_DuplicateInsertFoldsToLiked(t *testing.T) {
	db := setupTestDB(t)
	mr := useTestCache(t)
	svc := NewLikeService(db, repository.NewContentRegistry(db),
		staleGetLikeRepo{repository.NewLikeRepository(db)})
	ctx := context.Background()

	owner := createTestUser(t, db, "creator")
	fan := createTestUser(t, db, "fan")
	video := createTestVideo(t, db, owner.ID)
	ref := models.ContentRef{Type: models.ContentTypeVideo, ID: video.ID}

	result, err := svc.ToggleLike(ctx, fan.ID, ref)
	require.NoError(t, err)
	assert.Equal(t, LikeResultLiked, result)

	require.NoError(t, cache.SetJSON(ctx, cache.VideoKey(video.ID), video, time.Minute))
	require.NoError(t, cache.SetJSON(ctx, cache.VideosListKey(1, 20), []models.Video{*video}, time.Minute))

	// The stale read misses the existing row, so the insert hits the
	// unique index and folds into the idempotent outcome.
	result, err = svc.ToggleLike(ctx, fan.ID, ref)
	require.NoError(t, err)
	assert.Equal(t, LikeResultLiked, result)

	// The rolled-back insert must not double-credit the owner.
	assert.Equal(t, int64(1), userStats(t, db, owner.ID).TotalLikes)

	var rows int64
	require.NoError(t, db.Model(&models.Like{}).
		Where("user_id = ? AND content_id = ? AND content_type = ?", fan.ID, ref.ID, ref.Type).
		Count(&rows).Error)
	assert.Equal(t, int64(1), rows)

	// Even the folded outcome drops cached read paths; the winner it lost
	// to mutated state.
	assert.False(t, mr.Exists(cache.VideoKey(video.ID)))
	assert.False(t, mr.Exists(cache.VideosListKey(1, 20)))
}
