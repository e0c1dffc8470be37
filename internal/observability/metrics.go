package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "peopleconnects_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "peopleconnects_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// FeedQueryLatency records getFeed latency per filter.
	FeedQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "peopleconnects_feed_query_latency_seconds",
		Help:    "Feed query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"filter"})

	// InteractionsTotal counts interaction engine outcomes by kind
	// (like, unlike, comment, edit, delete, follow, unfollow).
	InteractionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "peopleconnects_interactions_total",
		Help: "Total interactions applied by kind",
	}, []string{"kind"})

	// RejectionsTotal counts operations rejected with a domain error, by operation and code.
	RejectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "peopleconnects_rejections_total",
		Help: "Total operations rejected by operation and error code",
	}, []string{"operation", "code"})

	// PostsCreated counts created posts, split by whether an image was attached.
	PostsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "peopleconnects_posts_created_total",
		Help: "Total posts created",
	}, []string{"with_image"})

	// MediaStoredBytes counts bytes written by media storage, by namespace.
	MediaStoredBytes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "peopleconnects_media_stored_bytes_total",
		Help: "Total bytes written by media storage",
	}, []string{"namespace"})

	// WebSocketConnectionsTotal is the gauge of total WebSocket connections.
	WebSocketConnectionsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "peopleconnects_websocket_connections_total",
		Help: "Total number of active WebSocket connections",
	})

	// WebSocketBackpressureDrops counts messages dropped due to backpressure by reason.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "peopleconnects_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"reason"})

	// NotificationsPublished counts notification events published by type.
	NotificationsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "peopleconnects_notifications_published_total",
		Help: "Total notification events published",
	}, []string{"type"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}

// TrackFeed returns a function that records feed latency for filter when called.
func TrackFeed(filter string) func() {
	start := time.Now()
	return func() {
		FeedQueryLatency.WithLabelValues(filter).Observe(time.Since(start).Seconds())
	}
}
