package server

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"clipstream/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

var allowedVideoMimeTypes = map[string]string{
	"video/mp4":        ".mp4",
	"video/webm":       ".webm",
	"video/quicktime":  ".mov",
	"video/x-matroska": ".mkv",
}

// UploadVideo handles POST /videos (multipart form: file, title, description)
func (s *Server) UploadVideo(c *fiber.Ctx) error {
	userID := currentUserID(c)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Video file is required"))
	}

	maxBytes := int64(s.config.MaxUploadMB) * 1024 * 1024
	if fileHeader.Size > maxBytes {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(fmt.Sprintf("File exceeds %dMB limit", s.config.MaxUploadMB)))
	}

	mimeType := fileHeader.Header.Get("Content-Type")
	ext, ok := allowedVideoMimeTypes[mimeType]
	if !ok {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Unsupported video format"))
	}

	if err := os.MkdirAll(s.config.UploadDir, 0o755); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	// Server-generated file name; the client name is never trusted.
	filename := uuid.New().String() + ext
	destPath := filepath.Join(s.config.UploadDir, filename)
	if err := c.SaveFile(fileHeader, destPath); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	video := &models.Video{
		Title:       c.FormValue("title"),
		Description: c.FormValue("description"),
		UserID:      userID,
		FilePath:    destPath,
		MimeType:    mimeType,
		SizeBytes:   fileHeader.Size,
		Published:   true,
	}

	created, err := s.videoService.CreateVideo(c.UserContext(), video)
	if err != nil {
		// Metadata failed; don't leave the orphaned file behind.
		_ = os.Remove(destPath)
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

// GetVideo handles GET /videos/:id
func (s *Server) GetVideo(c *fiber.Ctx) error {
	videoID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	video, err := s.videoService.GetVideo(c.UserContext(), videoID)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(video)
}

// GetVideos handles GET /videos
func (s *Server) GetVideos(c *fiber.Ctx) error {
	p := parsePagination(c)
	videos, err := s.videoService.ListVideos(c.UserContext(), p.Page, p.Limit)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"videos": videos,
		"page":   p.Page,
		"limit":  p.Limit,
	})
}

// DeleteVideo handles DELETE /videos/:id (owner only)
func (s *Server) DeleteVideo(c *fiber.Ctx) error {
	userID := currentUserID(c)

	videoID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.videoService.DeleteVideo(c.UserContext(), userID, videoID); err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Video deleted"})
}

// RecordView handles POST /videos/:id/view
func (s *Server) RecordView(c *fiber.Ctx) error {
	videoID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.videoService.RecordView(c.UserContext(), videoID); err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{"message": "View recorded"})
}

// StreamVideo handles GET /videos/:id/stream with byte-range support so
// players can seek without downloading the whole file.
func (s *Server) StreamVideo(c *fiber.Ctx) error {
	videoID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	video, err := s.videoService.GetVideo(c.UserContext(), videoID)
	if err != nil {
		return respondServiceError(c, err)
	}

	file, err := os.Open(video.FilePath)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError("Video file", videoID))
	}

	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}
	size := info.Size()

	c.Set(fiber.HeaderAcceptRanges, "bytes")
	c.Set(fiber.HeaderContentType, video.MimeType)

	rangeHeader := c.Get(fiber.HeaderRange)
	if rangeHeader == "" {
		c.Set(fiber.HeaderContentLength, strconv.FormatInt(size, 10))
		return c.SendStream(file, int(size))
	}

	start, end, ok := parseByteRange(rangeHeader, size)
	if !ok {
		_ = file.Close()
		c.Set(fiber.HeaderContentRange, fmt.Sprintf("bytes */%d", size))
		return c.SendStatus(fiber.StatusRequestedRangeNotSatisfiable)
	}

	if _, err := file.Seek(start, io.SeekStart); err != nil {
		_ = file.Close()
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	length := end - start + 1
	c.Set(fiber.HeaderContentRange, fmt.Sprintf("bytes %d-%d/%d", start, end, size))
	c.Set(fiber.HeaderContentLength, strconv.FormatInt(length, 10))
	c.Status(fiber.StatusPartialContent)
	return c.SendStream(&rangeReader{Reader: io.LimitReader(file, length), file: file}, int(length))
}

// rangeReader serves a single byte range from the backing file. SendStream
// only closes readers that implement io.Closer, so the wrapper must forward
// Close to the file or every ranged request leaks a descriptor.
type rangeReader struct {
	io.Reader
	file *os.File
}

func (r *rangeReader) Close() error {
	return r.file.Close()
}

// parseByteRange parses a single "bytes=start-end" range against the given
// size. Suffix ranges ("bytes=-N") and open ranges ("bytes=N-") are
// supported; multipart ranges are not.
func parseByteRange(header string, size int64) (start, end int64, ok bool) {
	const prefix = "bytes="
	if !strings.HasPrefix(header, prefix) {
		return 0, 0, false
	}
	spec := strings.TrimPrefix(header, prefix)
	if strings.Contains(spec, ",") {
		return 0, 0, false
	}

	startStr, endStr, found := strings.Cut(spec, "-")
	if !found {
		return 0, 0, false
	}

	if startStr == "" {
		// Suffix range: last N bytes.
		n, err := strconv.ParseInt(endStr, 10, 64)
		if err != nil || n <= 0 {
			return 0, 0, false
		}
		if n > size {
			n = size
		}
		return size - n, size - 1, true
	}

	start, err := strconv.ParseInt(startStr, 10, 64)
	if err != nil || start < 0 || start >= size {
		return 0, 0, false
	}

	if endStr == "" {
		return start, size - 1, true
	}

	end, err = strconv.ParseInt(endStr, 10, 64)
	if err != nil || end < start {
		return 0, 0, false
	}
	if end >= size {
		end = size - 1
	}
	return start, end, true
}
