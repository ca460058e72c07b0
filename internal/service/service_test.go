package service

import (
	"testing"

	"clipstream/internal/cache"
	"clipstream/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Video{},
		&models.Article{},
		&models.Like{},
		&models.Follow{},
		&models.Comment{},
	)
	if err != nil {
		t.Fatalf("Failed to migrate database: %v", err)
	}

	return db
}

// useTestCache points the cache package at a miniredis instance for the
// duration of the test and restores the previous client afterwards.
func useTestCache(t *testing.T) *miniredis.Miniredis {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	prev := cache.GetClient()
	cache.SetClient(client)
	t.Cleanup(func() { cache.SetClient(prev) })
	return mr
}

func createTestUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()

	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "hashed",
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}
	return user
}

func createTestVideo(t *testing.T, db *gorm.DB, userID uint) *models.Video {
	t.Helper()

	video := &models.Video{
		Title:     "test clip",
		UserID:    userID,
		FilePath:  "uploads/test.mp4",
		MimeType:  "video/mp4",
		Published: true,
	}
	if err := db.Create(video).Error; err != nil {
		t.Fatalf("Failed to create video: %v", err)
	}
	return video
}

func userStats(t *testing.T, db *gorm.DB, id uint) models.UserStats {
	t.Helper()

	var user models.User
	if err := db.First(&user, id).Error; err != nil {
		t.Fatalf("Failed to reload user: %v", err)
	}
	return user.Stats
}
