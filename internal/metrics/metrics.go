// Package metrics exports Prometheus metrics for the orchestrator. Bundle
// level counts also travel on the EvidenceBundle itself; these series exist
// for the scrape-based observability collaborator.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Scheduler metrics
	OrchestrationsStarted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "codeatlas_orchestrations_started_total",
			Help: "Total number of orchestration runs started",
		},
	)

	OrchestrationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "codeatlas_orchestration_duration_seconds",
			Help:    "Wall-clock duration of one orchestration run",
			Buckets: prometheus.DefBuckets,
		},
	)

	SubqueriesResolved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codeatlas_subqueries_resolved_total",
			Help: "Sub-query outcomes by kind",
		},
		[]string{"outcome"}, // accepted, exhausted, error
	)

	// Cascade metrics
	CascadeDepth = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "codeatlas_cascade_fallback_depth",
			Help:    "Fallback depth reached per accepted sub-query (0 = cache hit)",
			Buckets: []float64{0, 1, 2, 3, 4},
		},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codeatlas_cache_lookups_total",
			Help: "Result cache lookups by status",
		},
		[]string{"status"}, // hit, miss, stale, error
	)

	CacheWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codeatlas_cache_writes_total",
			Help: "Result cache write-backs by status",
		},
		[]string{"status"}, // ok, error
	)

	// Backend metrics
	BackendLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "codeatlas_backend_latency_seconds",
			Help:    "Latency of backend fetches",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"backend", "status"}, // status: ok, empty, error, timeout
	)

	WebSearchRateWait = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "codeatlas_web_search_rate_wait_seconds",
			Help:    "Time spent waiting on the shared web search rate limiter",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5},
		},
	)

	// Validation metrics
	ValidationScore = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "codeatlas_validation_score",
			Help:    "Relevance scores produced by the validator (0-10)",
			Buckets: []float64{0, 2, 4, 6, 7, 8, 9, 10},
		},
		[]string{"backend"},
	)

	ValidationInconclusive = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "codeatlas_validation_inconclusive_total",
			Help: "Validator calls where the scoring service itself failed",
		},
	)

	// Expansion metrics
	GraphExpansions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codeatlas_graph_expansions_total",
			Help: "One-hop graph expansions by status",
		},
		[]string{"status"}, // ok, error, skipped
	)
)
