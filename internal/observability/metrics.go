package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters and histograms for the history service.
type Metrics struct {
	// Upstream history endpoint.
	UpstreamRequests *prometheus.CounterVec // labels: outcome={success,empty,error}
	UpstreamDuration prometheus.Histogram
	RowsSkipped      prometheus.Counter

	// Expiring cache.
	CacheLookups *prometheus.CounterVec // labels: result={hit,miss,expired,corrupt}
	CacheSwept   prometheus.Counter

	RegionUnmatchedGroups prometheus.Counter

	HistoryPublished *prometheus.CounterVec // labels: outcome={success,error}

	RelayRequests *prometheus.CounterVec // labels: code={2xx,3xx,4xx,5xx}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := NewUnregisteredMetrics()

	prometheus.MustRegister(
		m.UpstreamRequests,
		m.UpstreamDuration,
		m.RowsSkipped,
		m.CacheLookups,
		m.CacheSwept,
		m.RegionUnmatchedGroups,
		m.HistoryPublished,
		m.RelayRequests,
	)

	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return NewUnregisteredMetrics()
}

// NewUnregisteredMetrics creates Metrics that are not exposed on any
// registry, for short-lived processes with no /metrics endpoint.
func NewUnregisteredMetrics() *Metrics {
	return &Metrics{
		UpstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "weather_history",
			Name:      "upstream_requests_total",
			Help:      "History endpoint requests by outcome.",
		}, []string{"outcome"}),
		UpstreamDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "weather_history",
			Name:      "upstream_request_duration_seconds",
			Help:      "History endpoint request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		RowsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "weather_history",
			Name:      "rows_skipped_total",
			Help:      "History table rows dropped because a cell failed to parse.",
		}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "weather_history",
			Name:      "cache_lookups_total",
			Help:      "Expiring cache lookups by result.",
		}, []string{"result"}),
		CacheSwept: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "weather_history",
			Name:      "cache_swept_total",
			Help:      "Expired or corrupt cache entries removed by the sweeper.",
		}),
		RegionUnmatchedGroups: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "weather_history",
			Name:      "region_unmatched_groups_total",
			Help:      "District groups discarded because their owner city was not found.",
		}),
		HistoryPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "weather_history",
			Name:      "history_published_total",
			Help:      "Fetched months published to Kafka by outcome.",
		}, []string{"outcome"}),
		RelayRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "weather_history",
			Name:      "relay_requests_total",
			Help:      "Relayed requests by response status class.",
		}, []string{"code"}),
	}
}
