package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ── HTTP request metrics (RED method) ──────────────────────────────────

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bob_supply",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"method", "path", "status_code"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "bob_supply",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path"})

	HTTPRequestsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "bob_supply",
		Subsystem: "http",
		Name:      "requests_in_flight",
		Help:      "Number of HTTP requests currently being processed.",
	})
)

// ── Supply polling metrics ─────────────────────────────────────────────

var (
	PollTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bob_supply",
		Subsystem: "poll",
		Name:      "total",
		Help:      "Total number of supply polling cycles by outcome.",
	}, []string{"status"})

	PollDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "bob_supply",
		Subsystem: "poll",
		Name:      "duration_seconds",
		Help:      "Duration of one supply polling cycle in seconds.",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	})

	TotalSupplyValue = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "bob_supply",
		Subsystem: "poll",
		Name:      "total_supply",
		Help:      "Aggregated token total supply from the last successful cycle.",
	})
)

// ── Snapshot stream metrics ────────────────────────────────────────────

var (
	UploadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bob_supply",
		Subsystem: "snapshot",
		Name:      "uploads_total",
		Help:      "Total snapshot uploads per stream by outcome.",
	}, []string{"stream", "status"})

	SnapshotTimestamp = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "bob_supply",
		Subsystem: "snapshot",
		Name:      "data_timestamp",
		Help:      "Data timestamp carried by the latest stored snapshot per stream.",
	}, []string{"stream"})
)
