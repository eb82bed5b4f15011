package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus metrics shared by the agent and the weather service.
var (
	QueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_queries_total",
			Help: "Total number of queries run through the workflow",
		},
		[]string{"route"},
	)
	StepDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "agent_step_duration_seconds",
			Help: "Duration of workflow steps",
		},
		[]string{"step"},
	)
	StepFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_step_failures_total",
			Help: "Total number of workflow step failures",
		},
		[]string{"step", "kind"},
	)
	EvaluationFallbacksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "agent_evaluation_fallbacks_total",
			Help: "Total number of evaluations computed from local heuristics after the service failed",
		},
	)
	ExternalAPICallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "external_api_calls_total",
			Help: "Total number of external API calls",
		},
		[]string{"provider", "status"},
	)
	CacheHitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of cache hits",
		},
	)
	CacheMissesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of cache misses",
		},
	)
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP API requests",
		},
		[]string{"method", "endpoint", "status"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "http_request_duration_seconds",
			Help: "Duration of HTTP API requests",
		},
		[]string{"method", "endpoint"},
	)
	ChunksIngestedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingestion_chunks_total",
			Help: "Total number of chunks written to the vector index",
		},
		[]string{"source"},
	)
)

func init() {
	prometheus.MustRegister(QueriesTotal)
	prometheus.MustRegister(StepDuration)
	prometheus.MustRegister(StepFailuresTotal)
	prometheus.MustRegister(EvaluationFallbacksTotal)
	prometheus.MustRegister(ExternalAPICallsTotal)
	prometheus.MustRegister(CacheHitsTotal)
	prometheus.MustRegister(CacheMissesTotal)
	prometheus.MustRegister(HTTPRequestsTotal)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(ChunksIngestedTotal)
}
