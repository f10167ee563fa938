// Package metrics holds the Prometheus instrumentation for the search
// pipeline.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search pipeline Prometheus metrics.
var (
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "coursesearch",
			Name:      "search_requests_total",
			Help:      "Total number of search requests",
		},
		[]string{"operation", "status"},
	)

	SearchRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "coursesearch",
			Name:      "search_request_duration_seconds",
			Help:      "Backend search round-trip duration in seconds",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	AccessDeniedResultsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "coursesearch",
			Name:      "access_denied_results_total",
			Help:      "Total results removed by post-processing access checks",
		},
	)

	IndexedDocumentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "coursesearch",
			Name:      "indexed_documents_total",
			Help:      "Total documents sent to the backend index",
		},
		[]string{"status"},
	)

	MappingCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "coursesearch",
			Name:      "mapping_cache_total",
			Help:      "Schema mapping cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers the search metrics with the default
// registry. Safe to call more than once.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchRequestsTotal)
	prometheus.MustRegister(SearchRequestDuration)
	prometheus.MustRegister(AccessDeniedResultsTotal)
	prometheus.MustRegister(IndexedDocumentsTotal)
	prometheus.MustRegister(MappingCacheTotal)
	searchMetricsRegistered = true
}
