package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// scoring engine.
type Metrics struct {
	RunsStarted   prometheus.Counter
	RunsCompleted prometheus.Counter
	RunsFailed    prometheus.Counter
	RunDuration   prometheus.Histogram
	GridPoints    prometheus.Histogram
	PointsScored  prometheus.Counter

	// Provider metrics.
	ProviderRequests  *prometheus.CounterVec   // labels: source, outcome={success,error,missing}
	ProviderLatency   *prometheus.HistogramVec // labels: source
	SourceUnavailable *prometheus.CounterVec   // labels: source
	CacheLookups      *prometheus.CounterVec   // labels: source, result={hit,miss}
}

// NewMetrics creates and registers all engine metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.RunsStarted,
		m.RunsCompleted,
		m.RunsFailed,
		m.RunDuration,
		m.GridPoints,
		m.PointsScored,
		m.ProviderRequests,
		m.ProviderLatency,
		m.SourceUnavailable,
		m.CacheLookups,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		RunsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sector_scoring",
			Name:      "runs_started_total",
			Help:      "Total planning runs started.",
		}),
		RunsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sector_scoring",
			Name:      "runs_completed_total",
			Help:      "Total planning runs that produced a scenario.",
		}),
		RunsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sector_scoring",
			Name:      "runs_failed_total",
			Help:      "Total planning runs aborted by invalid geometry or request errors.",
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "sector_scoring",
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete plan-fetch-fuse-score run.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		GridPoints: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "sector_scoring",
			Name:      "grid_points",
			Help:      "Number of grid points generated per sector.",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500},
		}),
		PointsScored: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sector_scoring",
			Name:      "points_scored_total",
			Help:      "Total grid points scored across all runs.",
		}),
		ProviderRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sector_scoring",
			Name:      "provider_requests_total",
			Help:      "Provider API requests by source and outcome.",
		}, []string{"source", "outcome"}),
		ProviderLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "sector_scoring",
			Name:      "provider_request_duration_seconds",
			Help:      "Provider API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 15},
		}, []string{"source"}),
		SourceUnavailable: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sector_scoring",
			Name:      "source_unavailable_total",
			Help:      "Runs where a data source was entirely unavailable.",
		}, []string{"source"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sector_scoring",
			Name:      "cache_lookups_total",
			Help:      "Provider cache lookups by source and result.",
		}, []string{"source", "result"}),
	}
}
