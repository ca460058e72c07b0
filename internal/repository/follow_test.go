package repository

import (
	"context"
	"testing"

	"clipstream/internal/database"
	"clipstream/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFollowRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewFollowRepository(db)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	carol := createTestUser(t, db, "carol")

	t.Run("GetPair returns nil when absent", func(t *testing.T) {
		follow, err := repo.GetPair(ctx, alice.ID, bob.ID)
		require.NoError(t, err)
		assert.Nil(t, follow)
	})

	t.Run("Create and GetPair", func(t *testing.T) {
		err := repo.Create(ctx, &models.Follow{
			FollowerID:  alice.ID,
			FollowingID: bob.ID,
			Status:      models.FollowStatusActive,
		})
		require.NoError(t, err)

		follow, err := repo.GetPair(ctx, alice.ID, bob.ID)
		require.NoError(t, err)
		require.NotNil(t, follow)
		assert.Equal(t, models.FollowStatusActive, follow.Status)
	})

	t.Run("Pair is unique", func(t *testing.T) {
		err := repo.Create(ctx, &models.Follow{
			FollowerID:  alice.ID,
			FollowingID: bob.ID,
			Status:      models.FollowStatusActive,
		})
		require.Error(t, err)
		assert.True(t, database.IsDuplicateKey(err))
	})

	t.Run("Reverse direction is a distinct pair", func(t *testing.T) {
		err := repo.Create(ctx, &models.Follow{
			FollowerID:  bob.ID,
			FollowingID: alice.ID,
			Status:      models.FollowStatusActive,
		})
		require.NoError(t, err)
	})

	t.Run("ListFollowers and CountFollowers", func(t *testing.T) {
		require.NoError(t, repo.Create(ctx, &models.Follow{
			FollowerID:  carol.ID,
			FollowingID: bob.ID,
			Status:      models.FollowStatusActive,
		}))

		followers, err := repo.ListFollowers(ctx, bob.ID, 20, 0)
		require.NoError(t, err)
		require.Len(t, followers, 2)

		names := []string{followers[0].Username, followers[1].Username}
		assert.Contains(t, names, "alice")
		assert.Contains(t, names, "carol")

		count, err := repo.CountFollowers(ctx, bob.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)
	})

	t.Run("ListFollowing", func(t *testing.T) {
		following, err := repo.ListFollowing(ctx, alice.ID, 20, 0)
		require.NoError(t, err)
		require.Len(t, following, 1)
		assert.Equal(t, "bob", following[0].Username)
	})

	t.Run("Blocked follows are excluded from lists", func(t *testing.T) {
		require.NoError(t, db.Model(&models.Follow{}).
			Where("follower_id = ? AND following_id = ?", carol.ID, bob.ID).
			UpdateColumn("status", models.FollowStatusBlocked).Error)

		followers, err := repo.ListFollowers(ctx, bob.ID, 20, 0)
		require.NoError(t, err)
		require.Len(t, followers, 1)
		assert.Equal(t, "alice", followers[0].Username)
	})

	t.Run("Blocked follows are invisible to the toggle queries", func(t *testing.T) {
		follow, err := repo.GetPair(ctx, carol.ID, bob.ID)
		require.NoError(t, err)
		assert.Nil(t, follow)

		deleted, err := repo.DeletePair(ctx, carol.ID, bob.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(0), deleted)

		var rows int64
		require.NoError(t, db.Model(&models.Follow{}).
			Where("follower_id = ? AND following_id = ?", carol.ID, bob.ID).
			Count(&rows).Error)
		assert.Equal(t, int64(1), rows)
	})

	t.Run("DeletePair reports affected rows", func(t *testing.T) {
		deleted, err := repo.DeletePair(ctx, alice.ID, bob.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), deleted)

		deleted, err = repo.DeletePair(ctx, alice.ID, bob.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(0), deleted)
	})

	t.Run("Pagination", func(t *testing.T) {
		followers, err := repo.ListFollowers(ctx, alice.ID, 1, 0)
		require.NoError(t, err)
		assert.Len(t, followers, 1)

		followers, err = repo.ListFollowers(ctx, alice.ID, 1, 1)
		require.NoError(t, err)
		assert.Empty(t, followers)
	})
}
