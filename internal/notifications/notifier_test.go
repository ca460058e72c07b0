package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestNotifier_PublishRoundTrip(t *testing.T) {
	rdb := setupTestRedis(t)
	notifier := NewNotifier(rdb)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan [2]string, 4)
	require.NoError(t, notifier.StartPatternSubscriber(ctx, func(channel, payload string) {
		received <- [2]string{channel, payload}
	}))

	// PSubscribe setup races with the first publish; retry until the
	// subscriber sees traffic.
	deadline := time.After(2 * time.Second)
	for {
		require.NoError(t, notifier.Publish(ctx, "Video:7", []byte(`{"type":"like"}`)))
		select {
		case msg := <-received:
			assert.Equal(t, "Video:7", msg[0], "transport prefix must be stripped")
			assert.Equal(t, `{"type":"like"}`, msg[1])
			return
		case <-deadline:
			t.Fatal("no message received")
		case <-time.After(20 * time.Millisecond):
		}
	}
}

func TestNotifier_UserChannelRoundTrip(t *testing.T) {
	rdb := setupTestRedis(t)
	notifier := NewNotifier(rdb)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan string, 4)
	require.NoError(t, notifier.StartPatternSubscriber(ctx, func(channel, _ string) {
		received <- channel
	}))

	deadline := time.After(2 * time.Second)
	for {
		require.NoError(t, notifier.Publish(ctx, UserChannel(42), []byte(`{"type":"follow"}`)))
		select {
		case channel := <-received:
			assert.Equal(t, "user:42", channel)
			return
		case <-deadline:
			t.Fatal("no message received")
		case <-time.After(20 * time.Millisecond):
		}
	}
}

func TestNotifier_NilClientIsNoop(t *testing.T) {
	notifier := NewNotifier(nil)
	ctx := context.Background()

	assert.NoError(t, notifier.Publish(ctx, "Video:1", []byte("x")))
	assert.NoError(t, notifier.StartPatternSubscriber(ctx, func(string, string) {
		t.Fatal("should never be called")
	}))
}
