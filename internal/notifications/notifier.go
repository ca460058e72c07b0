package notifications

import (
	"context"
	"log"
	"runtime/debug"
	"strings"

	"github.com/redis/go-redis/v9"
)

// transportPrefix namespaces realtime traffic inside Redis pub/sub so the
// subscriber pattern stays narrow. It is stripped before client delivery;
// clients only ever see the bare channel names.
const transportPrefix = "rt:"

// Notifier publishes realtime payloads into Redis channels so every server
// instance can fan them out to its own websocket clients.
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// Publish sends a payload to the named realtime channel.
func (n *Notifier) Publish(ctx context.Context, channel string, payload []byte) error {
	if n.rdb == nil {
		return nil
	}
	return n.rdb.Publish(ctx, transportPrefix+channel, payload).Err()
}

// StartPatternSubscriber subscribes to all realtime traffic and calls
// onMessage for each incoming message with the bare channel name.
func (n *Notifier) StartPatternSubscriber(
	ctx context.Context, onMessage func(channel string, payload string),
) error {
	if n.rdb == nil {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, transportPrefix+"*")
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							log.Printf("PANIC in PatternSubscriber: %v\n%s", r, debug.Stack())
						}
					}()
					onMessage(strings.TrimPrefix(msg.Channel, transportPrefix), msg.Payload)
				}()
			}
		}
	}()

	return nil
}
