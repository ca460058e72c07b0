package service

import (
	"context"
	"os"
	"strings"

	"clipstream/internal/cache"
	"clipstream/internal/middleware"
	"clipstream/internal/models"
	"clipstream/internal/repository"

	"gorm.io/gorm"
)

// VideoService manages video metadata and view accounting. File bytes live
// on disk; only the metadata row is cached.
type VideoService struct {
	db        *gorm.DB
	videoRepo repository.VideoRepository
}

// NewVideoService returns a new VideoService.
func NewVideoService(db *gorm.DB, videoRepo repository.VideoRepository) *VideoService {
	return &VideoService{db: db, videoRepo: videoRepo}
}

// CreateVideo registers an uploaded video's metadata.
func (s *VideoService) CreateVideo(ctx context.Context, video *models.Video) (*models.Video, error) {
	video.Title = strings.TrimSpace(video.Title)
	if video.Title == "" {
		return nil, models.NewValidationError("Title is required")
	}
	if video.FilePath == "" {
		return nil, models.NewValidationError("Video file is required")
	}

	if err := s.videoRepo.Create(ctx, video); err != nil {
		return nil, err
	}

	cache.InvalidateByPrefix(ctx, cache.VideosListPrefix)
	return video, nil
}

// GetVideo returns one video with its computed like count.
func (s *VideoService) GetVideo(ctx context.Context, id uint) (*models.Video, error) {
	var video *models.Video
	err := cache.CacheAside(ctx, cache.VideoKey(id), &video, cache.ContentTTL, func() error {
		var err error
		video, err = s.videoRepo.GetByID(ctx, id)
		return err
	})
	return video, err
}

// ListVideos returns one page of published videos, newest first.
func (s *VideoService) ListVideos(ctx context.Context, page, limit int) ([]*models.Video, error) {
	var videos []*models.Video
	key := cache.VideosListKey(page, limit)
	err := cache.CacheAside(ctx, key, &videos, cache.ContentTTL, func() error {
		var err error
		videos, err = s.videoRepo.List(ctx, limit, (page-1)*limit)
		return err
	})
	return videos, err
}

// ListUserVideos returns one page of a user's videos, newest first.
func (s *VideoService) ListUserVideos(ctx context.Context, userID uint, page, limit int) ([]*models.Video, error) {
	return s.videoRepo.ListByUser(ctx, userID, limit, (page-1)*limit)
}

// DeleteVideo removes the caller's own video and its file.
func (s *VideoService) DeleteVideo(ctx context.Context, userID, videoID uint) error {
	video, err := s.videoRepo.GetByID(ctx, videoID)
	if err != nil {
		return err
	}
	if video.UserID != userID {
		return models.NewForbiddenError("You can only delete your own videos")
	}

	if err := s.videoRepo.Delete(ctx, videoID); err != nil {
		return err
	}

	if video.FilePath != "" {
		if err := os.Remove(video.FilePath); err != nil && !os.IsNotExist(err) {
			middleware.Logger.WarnContext(ctx, "failed to remove video file",
				"video_id", videoID, "path", video.FilePath, "error", err)
		}
	}

	cache.Invalidate(ctx, cache.VideoKey(videoID))
	cache.InvalidateByPrefix(ctx, cache.VideosListPrefix)
	return nil
}

// RecordView bumps the video's view counter and the owner's total-views
// stat inside one transaction. Views are fire-and-forget from the caller's
// perspective; the cached detail entry is left to age out.
func (s *VideoService) RecordView(ctx context.Context, videoID uint) error {
	video, err := s.videoRepo.GetByID(ctx, videoID)
	if err != nil {
		return err
	}

	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repository.NewVideoRepository(tx).IncrementViews(ctx, videoID); err != nil {
			return err
		}
		return repository.NewUserRepository(tx).AddTotalViews(ctx, video.UserID, 1)
	})
	if txErr != nil {
		if _, ok := txErr.(*models.AppError); ok {
			return txErr
		}
		return models.NewInternalError(txErr)
	}
	return nil
}
