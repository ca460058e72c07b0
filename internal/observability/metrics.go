// Package observability holds Prometheus metrics and tracing bootstrap.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis errors by operation type.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clipstream_redis_errors_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// ActiveWebSockets is the gauge of active WebSocket connections.
	ActiveWebSockets = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "clipstream_websocket_connections",
		Help: "Number of active WebSocket connections",
	})

	// WebSocketBackpressureDrops counts messages dropped due to backpressure by reason.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clipstream_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"reason"})

	// ChannelSubscriptions is the gauge of live channel subscriptions.
	ChannelSubscriptions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "clipstream_channel_subscriptions",
		Help: "Number of live realtime channel subscriptions",
	})

	// EventsPublished counts realtime events accepted onto the outbound queue by kind.
	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clipstream_events_published_total",
		Help: "Total realtime events accepted for delivery",
	}, []string{"kind"})

	// EventsDropped counts realtime events dropped because the outbound queue was full.
	EventsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clipstream_events_dropped_total",
		Help: "Total realtime events dropped due to a full outbound queue",
	})

	// CacheInvalidationFailures counts best-effort cache invalidations that failed.
	CacheInvalidationFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clipstream_cache_invalidation_failures_total",
		Help: "Total cache invalidation attempts that failed",
	})
)
