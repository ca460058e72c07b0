package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"clipstream/internal/config"
	"clipstream/internal/events"
	"clipstream/internal/models"
	"clipstream/internal/notifications"
	"clipstream/internal/repository"
	"clipstream/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// capturingSink records every delivered realtime event for assertions.
type capturingSink struct {
	mu     sync.Mutex
	events []capturedEvent
}

type capturedEvent struct {
	Channel string
	Payload map[string]interface{}
}

func (s *capturingSink) Deliver(channel string, payload []byte) {
	var decoded map[string]interface{}
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, capturedEvent{Channel: channel, Payload: decoded})
}

func (s *capturingSink) waitForEvents(t *testing.T, n int) []capturedEvent {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		s.mu.Lock()
		if len(s.events) >= n {
			out := make([]capturedEvent, len(s.events))
			copy(out, s.events)
			s.mu.Unlock()
			return out
		}
		s.mu.Unlock()
		select {
		case <-deadline:
			t.Fatalf("expected %d events", n)
		case <-time.After(5 * time.Millisecond):
		}
	}
}

type testEnv struct {
	app  *fiber.App
	srv  *Server
	db   *gorm.DB
	sink *capturingSink
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{}, &models.Video{}, &models.Article{},
		&models.Like{}, &models.Follow{}, &models.Comment{},
	))

	sink := &capturingSink{}
	srv := &Server{
		config:      &config.Config{Env: "test", JWTSecret: "test-secret", UploadDir: t.TempDir()},
		db:          db,
		userRepo:    repository.NewUserRepository(db),
		videoRepo:   repository.NewVideoRepository(db),
		articleRepo: repository.NewArticleRepository(db),
		likeRepo:    repository.NewLikeRepository(db),
		followRepo:  repository.NewFollowRepository(db),
		commentRepo: repository.NewCommentRepository(db),
		registry:    repository.NewContentRegistry(db),
		hub:         notifications.NewHub(),
	}
	srv.bus = events.NewBus(sink, 64, slog.Default())
	srv.likeService = service.NewLikeService(db, srv.registry, srv.likeRepo)
	srv.followService = service.NewFollowService(db, srv.followRepo, srv.userRepo)
	srv.commentService = service.NewCommentService(db, srv.registry, srv.commentRepo)
	srv.videoService = service.NewVideoService(db, srv.videoRepo)
	srv.articleService = service.NewArticleService(srv.articleRepo)
	srv.userService = service.NewUserService(srv.userRepo)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	srv.bus.Start(ctx)

	app := fiber.New()
	srv.SetupRoutes(app)

	return &testEnv{app: app, srv: srv, db: db, sink: sink}
}

func (e *testEnv) createUser(t *testing.T, username string) (*models.User, string) {
	t.Helper()

	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "hashed",
	}
	require.NoError(t, e.db.Create(user).Error)

	token, err := e.srv.generateToken(user.ID, user.Username)
	require.NoError(t, err)
	return user, token
}

func (e *testEnv) createVideo(t *testing.T, userID uint) *models.Video {
	t.Helper()

	video := &models.Video{
		Title:     "test clip",
		UserID:    userID,
		FilePath:  "uploads/test.mp4",
		MimeType:  "video/mp4",
		Published: true,
	}
	require.NoError(t, e.db.Create(video).Error)
	return video
}

func (e *testEnv) request(t *testing.T, method, path, token string, body interface{}) *http.Response {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestToggleLikeEndpoint(t *testing.T) {
	env := newTestEnv(t)
	owner, _ := env.createUser(t, "creator")
	_, token := env.createUser(t, "fan")
	video := env.createVideo(t, owner.ID)

	likeReq := fiber.Map{"contentId": video.ID, "contentType": "Video"}

	t.Run("Requires auth", func(t *testing.T) {
		resp := env.request(t, http.MethodPost, "/engagement/likes/toggle", "", likeReq)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("Like returns 201 and broadcasts", func(t *testing.T) {
		resp := env.request(t, http.MethodPost, "/engagement/likes/toggle", token, likeReq)
		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		body := decodeBody(t, resp)
		assert.Equal(t, "liked", body["result"])

		evs := env.sink.waitForEvents(t, 1)
		assert.Equal(t, fmt.Sprintf("Video:%d", video.ID), evs[0].Channel)
		assert.Equal(t, "like", evs[0].Payload["type"])
		assert.Equal(t, float64(video.ID), evs[0].Payload["contentId"])
	})

	t.Run("Unlike returns 200 and broadcasts", func(t *testing.T) {
		resp := env.request(t, http.MethodPost, "/engagement/likes/toggle", token, likeReq)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		body := decodeBody(t, resp)
		assert.Equal(t, "unliked", body["result"])

		evs := env.sink.waitForEvents(t, 2)
		assert.Equal(t, "unlike", evs[1].Payload["type"])
	})

	t.Run("Missing content returns 404", func(t *testing.T) {
		resp := env.request(t, http.MethodPost, "/engagement/likes/toggle", token,
			fiber.Map{"contentId": 9999, "contentType": "Video"})
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("Unknown content type returns 400", func(t *testing.T) {
		resp := env.request(t, http.MethodPost, "/engagement/likes/toggle", token,
			fiber.Map{"contentId": video.ID, "contentType": "Podcast"})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestCommentEndpoints(t *testing.T) {
	env := newTestEnv(t)
	owner, ownerToken := env.createUser(t, "creator")
	_, otherToken := env.createUser(t, "other")
	video := env.createVideo(t, owner.ID)

	var commentID float64

	t.Run("Create returns 201 with a new event", func(t *testing.T) {
		resp := env.request(t, http.MethodPost, "/engagement/comments", ownerToken,
			fiber.Map{"contentId": video.ID, "contentType": "Video", "text": "first!"})
		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		body := decodeBody(t, resp)
		commentID = body["id"].(float64)
		assert.Equal(t, "first!", body["text"])

		evs := env.sink.waitForEvents(t, 1)
		assert.Equal(t, "new", evs[0].Payload["type"])
		require.NotNil(t, evs[0].Payload["comment"])
		comment := evs[0].Payload["comment"].(map[string]interface{})
		assert.Equal(t, "first!", comment["text"])
	})

	t.Run("Create on missing content returns 404", func(t *testing.T) {
		resp := env.request(t, http.MethodPost, "/engagement/comments", ownerToken,
			fiber.Map{"contentId": 9999, "contentType": "Video", "text": "ghost"})
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("Update by non-author returns 403", func(t *testing.T) {
		resp := env.request(t, http.MethodPut,
			fmt.Sprintf("/engagement/comments/%d", int(commentID)), otherToken,
			fiber.Map{"text": "hijack"})
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("Update by author returns 200 with an update event", func(t *testing.T) {
		resp := env.request(t, http.MethodPut,
			fmt.Sprintf("/engagement/comments/%d", int(commentID)), ownerToken,
			fiber.Map{"text": "revised"})
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		body := decodeBody(t, resp)
		assert.Equal(t, "revised", body["text"])
		assert.Equal(t, true, body["is_edited"])

		evs := env.sink.waitForEvents(t, 2)
		assert.Equal(t, "update", evs[1].Payload["type"])
	})

	t.Run("List is public and paginates", func(t *testing.T) {
		resp := env.request(t, http.MethodGet,
			fmt.Sprintf("/engagement/comments?contentId=%d&contentType=Video", video.ID), "", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		body := decodeBody(t, resp)
		comments := body["comments"].([]interface{})
		require.Len(t, comments, 1)
	})

	t.Run("Delete by non-author returns 403", func(t *testing.T) {
		resp := env.request(t, http.MethodDelete,
			fmt.Sprintf("/engagement/comments/%d", int(commentID)), otherToken, nil)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("Delete by author returns 200 with a delete event", func(t *testing.T) {
		resp := env.request(t, http.MethodDelete,
			fmt.Sprintf("/engagement/comments/%d", int(commentID)), ownerToken, nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		body := decodeBody(t, resp)
		assert.Equal(t, "Comment deleted", body["message"])

		evs := env.sink.waitForEvents(t, 3)
		assert.Equal(t, "delete", evs[2].Payload["type"])
		assert.Equal(t, commentID, evs[2].Payload["commentId"])
		assert.Nil(t, evs[2].Payload["comment"])
	})

	t.Run("Delete of already-deleted comment returns 404", func(t *testing.T) {
		resp := env.request(t, http.MethodDelete,
			fmt.Sprintf("/engagement/comments/%d", int(commentID)), ownerToken, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestFollowEndpoints(t *testing.T) {
	env := newTestEnv(t)
	alice, aliceToken := env.createUser(t, "alice")
	bob, _ := env.createUser(t, "bob")

	followPath := fmt.Sprintf("/engagement/follow/%d", bob.ID)

	t.Run("Follow returns 201 and notifies the target", func(t *testing.T) {
		resp := env.request(t, http.MethodPost, followPath, aliceToken, nil)
		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		body := decodeBody(t, resp)
		assert.Equal(t, "followed", body["result"])

		evs := env.sink.waitForEvents(t, 1)
		assert.Equal(t, fmt.Sprintf("user:%d", bob.ID), evs[0].Channel)
		assert.Equal(t, "follow", evs[0].Payload["type"])
		assert.Equal(t, float64(alice.ID), evs[0].Payload["userId"])
		assert.Equal(t, float64(bob.ID), evs[0].Payload["targetUserId"])
	})

	t.Run("Unfollow returns 200", func(t *testing.T) {
		resp := env.request(t, http.MethodPost, followPath, aliceToken, nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		body := decodeBody(t, resp)
		assert.Equal(t, "unfollowed", body["result"])

		evs := env.sink.waitForEvents(t, 2)
		assert.Equal(t, "unfollow", evs[1].Payload["type"])
	})

	t.Run("Self-follow returns 400", func(t *testing.T) {
		resp := env.request(t, http.MethodPost,
			fmt.Sprintf("/engagement/follow/%d", alice.ID), aliceToken, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		body := decodeBody(t, resp)
		assert.Equal(t, "You cannot follow yourself", body["error"])
	})

	t.Run("Unknown target returns 404", func(t *testing.T) {
		resp := env.request(t, http.MethodPost, "/engagement/follow/9999", aliceToken, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("Follower listings are public", func(t *testing.T) {
		resp := env.request(t, http.MethodPost, followPath, aliceToken, nil)
		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		resp = env.request(t, http.MethodGet,
			fmt.Sprintf("/engagement/followers/%d", bob.ID), "", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		body := decodeBody(t, resp)
		users := body["users"].([]interface{})
		require.Len(t, users, 1)

		resp = env.request(t, http.MethodGet,
			fmt.Sprintf("/engagement/following/%d", alice.ID), "", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		body = decodeBody(t, resp)
		users = body["users"].([]interface{})
		require.Len(t, users, 1)
	})
}

func TestAuthRequired_TokenValidation(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.createUser(t, "alice")

	t.Run("Valid token passes", func(t *testing.T) {
		resp := env.request(t, http.MethodGet, "/users/me", token, nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("Missing token rejected", func(t *testing.T) {
		resp := env.request(t, http.MethodGet, "/users/me", "", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("Garbage token rejected", func(t *testing.T) {
		resp := env.request(t, http.MethodGet, "/users/me", "not-a-jwt", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("Bearer token rejected on websocket paths", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/ws/ticket", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := env.app.Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

		body := decodeBody(t, resp)
		assert.Equal(t, "WebSocket ticket required", body["error"])
	})
}
