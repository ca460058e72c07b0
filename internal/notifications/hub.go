package notifications

import (
	"context"
	"errors"
	"log"
	"sync"

	"clipstream/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const (
	// Max connections per user
	maxConnsPerUser = 8
	// Max total connections
	maxTotalConns = 10000
	// Max channel subscriptions per client (the private user channel included)
	maxSubsPerClient = 64
)

// Hub routes realtime events to websocket clients by channel name.
// Each client is auto-subscribed to its private "user:{id}" channel at
// registration and may subscribe to further channels explicitly. Events for
// a channel nobody subscribes to are silently discarded; there is no
// queuing for disconnected clients and no replay.
type Hub struct {
	mu         sync.RWMutex
	subs       map[string]map[*Client]struct{}
	byClient   map[*Client]map[string]struct{}
	perUser    map[uint]int
	totalConns int
	shutdown   chan struct{}
	done       chan struct{}
}

// NewHub creates a new Hub instance.
func NewHub() *Hub {
	return &Hub{
		subs:     make(map[string]map[*Client]struct{}),
		byClient: make(map[*Client]map[string]struct{}),
		perUser:  make(map[uint]int),
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Name returns a human-readable identifier for this hub.
func (h *Hub) Name() string { return "notification hub" }

// Register adds a connection for userID and auto-subscribes it to the
// user's private channel. Returns an error if connection limits are hit.
func (h *Hub) Register(userID uint, conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.totalConns >= maxTotalConns {
		return nil, errors.New("server connection limit reached")
	}
	if h.perUser[userID] >= maxConnsPerUser {
		return nil, errors.New("user connection limit reached")
	}

	client := NewClient(h, conn, userID)
	h.byClient[client] = make(map[string]struct{})
	h.perUser[userID]++
	h.totalConns++

	h.subscribeLocked(client, UserChannel(userID))
	return client, nil
}

// Subscribe adds the client to a channel. The channel name must be
// well-formed; subscription is idempotent.
func (h *Hub) Subscribe(client *Client, channel string) error {
	if !ValidChannel(channel) {
		return errors.New("invalid channel name")
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	chans, ok := h.byClient[client]
	if !ok {
		return errors.New("client not registered")
	}
	if _, already := chans[channel]; already {
		return nil
	}
	if len(chans) >= maxSubsPerClient {
		return errors.New("subscription limit reached")
	}

	h.subscribeLocked(client, channel)
	return nil
}

func (h *Hub) subscribeLocked(client *Client, channel string) {
	m, ok := h.subs[channel]
	if !ok {
		m = make(map[*Client]struct{})
		h.subs[channel] = m
	}
	m[client] = struct{}{}
	h.byClient[client][channel] = struct{}{}
	observability.ChannelSubscriptions.Inc()
}

// Unsubscribe removes the client from a channel.
func (h *Hub) Unsubscribe(client *Client, channel string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.unsubscribeLocked(client, channel)
}

func (h *Hub) unsubscribeLocked(client *Client, channel string) {
	chans, ok := h.byClient[client]
	if !ok {
		return
	}
	if _, subscribed := chans[channel]; !subscribed {
		return
	}
	delete(chans, channel)
	if m, ok := h.subs[channel]; ok {
		delete(m, client)
		if len(m) == 0 {
			delete(h.subs, channel)
		}
	}
	observability.ChannelSubscriptions.Dec()
}

// UnregisterClient drops the client and all of its subscriptions.
func (h *Hub) UnregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	chans, ok := h.byClient[client]
	if !ok {
		return
	}
	for channel := range chans {
		h.unsubscribeLocked(client, channel)
	}
	delete(h.byClient, client)
	h.perUser[client.UserID]--
	if h.perUser[client.UserID] <= 0 {
		delete(h.perUser, client.UserID)
	}
	h.totalConns--
}

// Broadcast sends message to every subscriber of the channel.
func (h *Hub) Broadcast(channel string, message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.subs[channel] {
		c.TrySend(message)
	}
}

// SubscriberCount reports how many clients are subscribed to a channel.
func (h *Hub) SubscriberCount(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[channel])
}

// StartWiring connects the Notifier to this hub: realtime messages arriving
// over Redis pub/sub are forwarded to matching channel subscribers.
func (h *Hub) StartWiring(ctx context.Context, n *Notifier) error {
	return n.StartPatternSubscriber(ctx, func(channel, payload string) {
		h.Broadcast(channel, []byte(payload))
	})
}

// Shutdown gracefully closes all websocket connections.
func (h *Hub) Shutdown(_ context.Context) error {
	close(h.shutdown)

	h.mu.Lock()
	for client := range h.byClient {
		if client.Conn == nil {
			continue
		}
		if err := client.Conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "Server shutting down")); err != nil {
			log.Printf("failed to write close message for user %d: %v", client.UserID, err)
		}
		if err := client.Conn.Close(); err != nil {
			log.Printf("failed to close websocket for user %d: %v", client.UserID, err)
		}
	}
	h.subs = make(map[string]map[*Client]struct{})
	h.byClient = make(map[*Client]map[string]struct{})
	h.perUser = make(map[uint]int)
	h.totalConns = 0
	h.mu.Unlock()

	close(h.done)
	return nil
}
