// Package metrics holds the Prometheus collectors for the verification pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Submissions counts finished pipeline runs by terminal state
	Submissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "skilldiff",
		Name:      "submissions_total",
		Help:      "Pipeline runs by terminal state (notified, failed, budget).",
	}, []string{"state"})

	// Verdicts counts persisted verdicts by value
	Verdicts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "skilldiff",
		Name:      "verdicts_total",
		Help:      "Claim verdicts by value.",
	}, []string{"verdict"})

	// StageFailures counts failures per pipeline stage
	StageFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "skilldiff",
		Name:      "stage_failures_total",
		Help:      "Failures by stage (retrieve, judge, generate, persist, notify, analytics).",
	}, []string{"stage"})

	// Retries counts retried collaborator calls
	Retries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "skilldiff",
		Name:      "retries_total",
		Help:      "Retried retrieval and judgment calls.",
	}, []string{"stage"})

	// CacheHits counts evidence served from cache
	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "skilldiff",
		Name:      "evidence_cache_hits_total",
		Help:      "Search queries answered from the evidence cache.",
	})

	// RunDuration observes end-to-end pipeline duration
	RunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "skilldiff",
		Name:      "run_duration_seconds",
		Help:      "End-to-end pipeline duration.",
		Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
	})
)
