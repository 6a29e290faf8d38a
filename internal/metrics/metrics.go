// Package metrics exposes Prometheus collectors for planner activity.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OracleCalls counts exact allocation solves.
	OracleCalls = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rcbss_allocation_solves_total",
		Help: "Total exact allocation solver invocations",
	})

	// LowLevelSearches counts constrained single-agent searches.
	LowLevelSearches = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rcbss_lowlevel_searches_total",
		Help: "Total constrained path searches",
	})

	// RootsGenerated counts search-tree roots built from allocations.
	RootsGenerated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rcbss_roots_total",
		Help: "Total search-tree roots generated",
	})

	// ConflictsResolved counts branched conflicts by resource kind.
	ConflictsResolved = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rcbss_conflicts_resolved_total",
		Help: "Total conflicts branched on by resource kind",
	}, []string{"kind"})

	// VerifierSamples tracks simulations per statistical verification.
	VerifierSamples = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "rcbss_verifier_samples",
		Help:    "Simulations run per statistical verification",
		Buckets: []float64{30, 50, 100, 200, 500, 1000, 5000, 20000},
	})

	// Solves counts finished planning runs by variant and outcome.
	Solves = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rcbss_solves_total",
		Help: "Total planning runs by variant and outcome",
	}, []string{"variant", "outcome"})

	// SolveDuration tracks planning latency.
	SolveDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rcbss_solve_duration_seconds",
		Help:    "Planning run duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 16), // 1ms to ~30s
	}, []string{"variant"})
)
