package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search Prometheus metrics.
var (
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "archivesearch",
			Name:      "search_requests_total",
			Help:      "Total number of search requests by lexical strategy",
		},
		[]string{"strategy"},
	)

	SearchCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "archivesearch",
			Name:      "search_cache_total",
			Help:      "Result cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	SearcherFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "archivesearch",
			Name:      "searcher_failures_total",
			Help:      "Lexical searcher failures by collection",
		},
		[]string{"collection"},
	)

	SemanticRankerStateTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "archivesearch",
			Name:      "semantic_ranker_state_total",
			Help:      "Semantic ranker runs by terminal state",
		},
		[]string{"state"}, // "ranked" / "skipped" / "failed"
	)

	SemanticScanDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "archivesearch",
			Name:      "semantic_scan_duration_seconds",
			Help:      "Wall-clock duration of the embedding table scan",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 4, 8, 16},
		},
	)

	SemanticRowsScanned = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "archivesearch",
			Name:      "semantic_rows_scanned",
			Help:      "Embedding rows scanned per ranker run",
			Buckets:   prometheus.ExponentialBuckets(500, 2, 10),
		},
	)

	EmbeddingRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "archivesearch",
			Name:      "embedding_requests_total",
			Help:      "Total number of embedding requests",
		},
		[]string{"provider", "model", "status"},
	)

	EmbeddingRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "archivesearch",
			Name:      "embedding_request_duration_seconds",
			Help:      "Embedding request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"provider", "model"},
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers Prometheus search metrics. Must be called
// once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchRequestsTotal)
	prometheus.MustRegister(SearchCacheTotal)
	prometheus.MustRegister(SearcherFailuresTotal)
	prometheus.MustRegister(SemanticRankerStateTotal)
	prometheus.MustRegister(SemanticScanDuration)
	prometheus.MustRegister(SemanticRowsScanned)
	prometheus.MustRegister(EmbeddingRequestsTotal)
	prometheus.MustRegister(EmbeddingRequestDuration)
	searchMetricsRegistered = true
}
