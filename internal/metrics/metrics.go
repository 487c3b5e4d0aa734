// Package metrics exposes Prometheus metrics for the dendrited daemon.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	InterpretRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dendrite_interpret_requests_total",
			Help: "Total interpret requests by outcome",
		},
		[]string{"outcome"}, // "ok", "defaults", "cached", "error"
	)

	InterpretDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dendrite_interpret_duration_seconds",
			Help:    "End-to-end interpret duration including retries",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)

	InterpretAttempts = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dendrite_interpret_attempts",
			Help:    "Model attempts consumed per interpret request",
			Buckets: []float64{1, 2, 3, 4, 5},
		},
	)

	InterpretConfidence = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dendrite_interpret_confidence",
			Help:    "Confidence score of returned parameter sets",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		},
	)

	ProviderTokens = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dendrite_provider_tokens_total",
			Help: "Tokens consumed by provider calls",
		},
		[]string{"kind"}, // "prompt", "completion"
	)

	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dendrite_cache_hits_total",
			Help: "Interpret results served from cache",
		},
	)

	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dendrite_cache_misses_total",
			Help: "Interpret requests not found in cache",
		},
	)
)
