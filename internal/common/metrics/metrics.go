// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FetchRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fetch_requests_total",
			Help: "Total number of source fetch attempts by outcome",
		},
		[]string{"source", "status"},
	)

	FetchRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fetch_retries_total",
			Help: "Total number of fetch retries per source",
		},
		[]string{"source"},
	)

	CircuitOpened = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fetch_circuit_opened_total",
			Help: "Number of times a source circuit transitioned to open",
		},
		[]string{"source"},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_lookups_total",
			Help: "Cache lookups by tier and result",
		},
		[]string{"tier", "result"},
	)

	BatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "batch_duration_seconds",
			Help:    "Duration of a full analysis batch in seconds",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		},
	)

	CandidatesAnalyzed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "candidates_analyzed_total",
			Help: "Candidates processed per batch by outcome",
		},
		[]string{"outcome"},
	)
)
