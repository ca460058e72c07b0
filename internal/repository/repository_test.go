package repository

import (
	"testing"

	"clipstream/internal/models"

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
