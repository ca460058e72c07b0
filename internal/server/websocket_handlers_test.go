package server

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"clipstream/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthRequired_TicketIdentityCheck(t *testing.T) {
	env := newTestEnv(t)

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	env.srv.redis = redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = env.srv.redis.Close() })

	mint := func(t *testing.T, userID uint) string {
		t.Helper()
		ticket := uuid.New().String()
		require.NoError(t, env.srv.redis.Set(context.Background(),
			"ws_ticket:"+ticket, fmt.Sprintf("%d", userID), time.Minute).Err())
		return ticket
	}

	connect := func(t *testing.T, ticket string) *http.Response {
		t.Helper()
		req := httptest.NewRequest(http.MethodGet, "/ws/?ticket="+ticket, nil)
		resp, err := env.app.Test(req, -1)
		require.NoError(t, err)
		return resp
	}

	t.Run("Ticket for a live account passes auth", func(t *testing.T) {
		user, _ := env.createUser(t, "alice")
		resp := connect(t, mint(t, user.ID))
		// Auth passed; a plain GET is then refused at the upgrade step.
		assert.Equal(t, http.StatusUpgradeRequired, resp.StatusCode)
	})

	t.Run("Ticket for a deleted account is rejected", func(t *testing.T) {
		ghost, _ := env.createUser(t, "ghost")
		require.NoError(t, env.db.Delete(&models.User{}, ghost.ID).Error)

		ticket := mint(t, ghost.ID)
		resp := connect(t, ticket)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

		body := decodeBody(t, resp)
		assert.Equal(t, "Account no longer exists", body["error"])

		// The ticket is consumed either way.
		assert.False(t, mr.Exists("ws_ticket:"+ticket))
	})

	t.Run("Ticket for a never-existing account is rejected", func(t *testing.T) {
		resp := connect(t, mint(t, 9999))
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}
