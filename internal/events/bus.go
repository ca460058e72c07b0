// Package events provides the outbound realtime event queue.
//
// Mutation handlers never call broadcast directly: they publish onto the
// queue and move on. A worker drains the queue and hands events to the
// delivery sink. Delivery is fire-and-forget; a full queue drops the event
// and a failed delivery never reaches the originating mutation.
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"runtime/debug"

	"clipstream/internal/observability"
)

// Event is one realtime notification bound for a channel.
type Event struct {
	// Kind labels the event family for metrics ("like", "comment", "follow").
	Kind string
	// Channel is the realtime channel name, e.g. "Video:42" or "user:7".
	Channel string
	// Payload is marshaled to JSON for delivery.
	Payload map[string]interface{}
}

// Sink receives marshaled events for delivery to subscribers.
type Sink interface {
	Deliver(channel string, payload []byte)
}

// Bus is a buffered outbound event queue with a single drain worker.
type Bus struct {
	logger *slog.Logger
	queue  chan Event
	sink   Sink
	done   chan struct{}
}

// NewBus creates a Bus draining into sink with the given queue capacity.
func NewBus(sink Sink, capacity int, logger *slog.Logger) *Bus {
	if capacity <= 0 {
		capacity = 1024
	}
	return &Bus{
		logger: logger,
		queue:  make(chan Event, capacity),
		sink:   sink,
		done:   make(chan struct{}),
	}
}

// Start launches the drain worker. It returns once the worker is running;
// the worker exits when ctx is canceled.
func (b *Bus) Start(ctx context.Context) {
	go func() {
		defer close(b.done)
		for {
			select {
			case <-ctx.Done():
				return
			case ev := <-b.queue:
				b.deliver(ev)
			}
		}
	}()
}

func (b *Bus) deliver(ev Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("panic delivering event",
				slog.String("channel", ev.Channel),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())),
			)
		}
	}()

	payload, err := json.Marshal(ev.Payload)
	if err != nil {
		b.logger.Error("failed to marshal event",
			slog.String("kind", ev.Kind), slog.String("error", err.Error()))
		return
	}
	b.sink.Deliver(ev.Channel, payload)
}

// Publish enqueues an event without blocking. When the queue is full the
// event is dropped: realtime delivery is best-effort and must never slow a
// mutation down.
func (b *Bus) Publish(ev Event) {
	select {
	case b.queue <- ev:
		observability.EventsPublished.WithLabelValues(ev.Kind).Inc()
	default:
		observability.EventsDropped.Inc()
		b.logger.Warn("event queue full, dropping event",
			slog.String("kind", ev.Kind), slog.String("channel", ev.Channel))
	}
}

// Done is closed after the drain worker has exited.
func (b *Bus) Done() <-chan struct{} {
	return b.done
}
