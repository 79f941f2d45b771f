package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Poller metrics
	PollTicksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "heatmap_poll_ticks_total",
		Help: "Total number of poll ticks that started an execution",
	})

	PollTicksDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "heatmap_poll_ticks_dropped_total",
		Help: "Ticks dropped because the previous execution was still in flight",
	})

	PollCallbackFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "heatmap_poll_callback_failures_total",
		Help: "Poll executions that ended in a callback error or panic",
	})

	// Query client metrics
	FetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "heatmap_fetch_duration_seconds",
		Help:    "Time taken to fetch one aggregate map response",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~40s
	})

	TilesReturned = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "heatmap_tiles_returned",
		Help:    "Number of aggregate tiles per successful response",
		Buckets: prometheus.ExponentialBuckets(1, 4, 8), // 1 to ~16k
	})

	// Server metrics
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "heatmap_server_requests_total",
		Help: "API requests served, by endpoint and status code",
	}, []string{"endpoint", "status"})

	PointsIngested = promauto.NewCounter(prometheus.CounterOpts{
		Name: "heatmap_points_ingested_total",
		Help: "GPS points accepted through the ingestion endpoint",
	})
)
