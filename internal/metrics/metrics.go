// Package metrics exposes the Prometheus collectors for the generation
// pipeline. They are registered on the default registry and served at
// /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: []float64{.01, .05, .1, .5, 1, 5, 10, 30, 60, 120},
		},
		[]string{"method", "endpoint"},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of requests rejected by a rate limit",
		},
		[]string{"endpoint"},
	)

	// Generation pipeline
	GenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recipe_generations_total",
			Help: "Total number of recipe generation runs by outcome",
		},
		[]string{"outcome"}, // SATISFIED, EXHAUSTED, NO_CONSTRAINTS, failed
	)

	GenerationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recipe_generation_duration_seconds",
			Help:    "Duration of a full generation run in seconds",
			Buckets: []float64{1, 5, 10, 20, 30, 60, 90, 120, 180},
		},
	)

	GenerationAttempts = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recipe_generation_attempts",
			Help:    "Number of drafts produced per generation run",
			Buckets: []float64{1, 2, 3},
		},
	)

	UpstreamCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "upstream_call_duration_seconds",
			Help:    "Duration of calls to external services in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "status"},
	)

	// Embedding cache
	EmbeddingCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "embedding_cache_hits_total",
			Help: "Total number of embedding cache hits",
		},
	)

	EmbeddingCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "embedding_cache_misses_total",
			Help: "Total number of embedding cache misses",
		},
	)

	// Image completion
	ImageQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "image_queue_depth",
			Help: "Current number of image jobs waiting for a worker",
		},
	)

	ImageJobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "image_jobs_total",
			Help: "Total number of image jobs by result",
		},
		[]string{"result"}, // completed, failed, dropped, duplicate
	)

	// Circuit breakers
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)
)

// RecordAPIRequest records one handled HTTP request
func RecordAPIRequest(method, endpoint string, status int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordUpstreamCall records one call to an external service
func RecordUpstreamCall(service string, err error, duration time.Duration) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	UpstreamCallDuration.WithLabelValues(service, status).Observe(duration.Seconds())
}

// RecordGeneration records the outcome of one generation run
func RecordGeneration(outcome string, attempts int, duration time.Duration) {
	GenerationsTotal.WithLabelValues(outcome).Inc()
	if attempts > 0 {
		GenerationAttempts.Observe(float64(attempts))
	}
	GenerationDuration.Observe(duration.Seconds())
}
