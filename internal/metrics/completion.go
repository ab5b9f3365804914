package metrics

import "github.com/prometheus/client_golang/prometheus"

// Completion and retrieval Prometheus metrics.
var (
	CompletionRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "structai",
			Name:      "completion_requests_total",
			Help:      "Total number of completion requests",
		},
		[]string{"model", "status"},
	)

	CompletionRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "structai",
			Name:      "completion_request_duration_seconds",
			Help:      "Completion request duration in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"model"},
	)

	CompletionTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "structai",
			Name:      "completion_tokens_total",
			Help:      "Total completion tokens consumed",
		},
		[]string{"model", "type"},
	)

	RetrievalRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "structai",
			Name:      "retrieval_requests_total",
			Help:      "Total number of search service requests",
		},
		[]string{"category", "status"},
	)

	RetrievalChunksReturned = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "structai",
			Name:      "retrieval_chunks_returned",
			Help:      "Number of chunks returned per search request",
			Buckets:   []float64{0, 1, 2, 3, 4, 5, 10},
		},
		[]string{"category"},
	)

	GuardrailChunksDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "structai",
			Name:      "guardrail_chunks_dropped_total",
			Help:      "Chunks dropped by the relevance guardrail",
		},
	)

	ClassifierCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "structai",
			Name:      "classifier_cache_total",
			Help:      "Classification cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)
)

var pipelineMetricsRegistered bool

// RegisterPipelineMetrics registers pipeline metrics. Must be called once from main.
func RegisterPipelineMetrics() {
	if pipelineMetricsRegistered {
		return
	}
	prometheus.MustRegister(CompletionRequestsTotal)
	prometheus.MustRegister(CompletionRequestDuration)
	prometheus.MustRegister(CompletionTokensTotal)
	prometheus.MustRegister(RetrievalRequestsTotal)
	prometheus.MustRegister(RetrievalChunksReturned)
	prometheus.MustRegister(GuardrailChunksDropped)
	prometheus.MustRegister(ClassifierCacheTotal)
	pipelineMetricsRegistered = true
}
