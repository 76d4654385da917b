// Package observability provides Prometheus metrics and HTTP middleware
// for monitoring the routebind bridge.
package observability

import "github.com/prometheus/client_golang/prometheus"

// RequestBuckets defines histogram buckets for request latencies,
// ranging from 5ms to 60s to cover both quick single responses and
// long-lived streams.
var RequestBuckets = []float64{0.005, 0.025, 0.1, 0.5, 1, 5, 15, 60}

var (
	// RequestsTotal counts all bridged requests by method, status class,
	// and endpoint kind.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "routebind_requests_total",
			Help: "Total bridged requests",
		},
		[]string{"method", "status", "kind"},
	)

	// RequestDuration records request duration in seconds by method and
	// endpoint kind.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "routebind_request_duration_seconds",
			Help:    "Request duration",
			Buckets: RequestBuckets,
		},
		[]string{"method", "kind"},
	)

	// StreamingConnections tracks the number of open event streams.
	StreamingConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "routebind_streaming_connections_active",
			Help: "Active streaming connections",
		},
	)

	// StreamEventsTotal counts framed events written to clients.
	StreamEventsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "routebind_stream_events_total",
			Help: "Framed stream events written",
		},
	)

	// LifecycleOutcomesTotal counts requests by terminal lifecycle state.
	LifecycleOutcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "routebind_lifecycle_outcomes_total",
			Help: "Terminal lifecycle states",
		},
		[]string{"state"},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		StreamingConnections,
		StreamEventsTotal,
		LifecycleOutcomesTotal,
	)
}
