package service

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/wricardo/tile-pathfinder/game/engine"
)

// Metrics records run telemetry. The zero value and a nil *Metrics are no-ops.
type Metrics struct {
	runs        *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	explored    *prometheus.HistogramVec
	pathCost    *prometheus.HistogramVec
	runErrors   *prometheus.CounterVec
	comparisons prometheus.Counter
}

// NewMetrics registers the pathfinder metrics with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		// runs counts completed runs by strategy and outcome (found|no_path)
		runs: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pathfinder_runs_total",
			Help: "Completed pathfinding runs by strategy and outcome",
		}, []string{"strategy", "outcome"}),

		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pathfinder_run_duration_seconds",
			Help:    "Search duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.00001, 2, 14), // 10us to ~80ms
		}, []string{"strategy"}),

		explored: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pathfinder_nodes_explored",
			Help:    "Frontier removals per run",
			Buckets: prometheus.ExponentialBuckets(1, 2, 15),
		}, []string{"strategy"}),

		pathCost: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pathfinder_path_cost",
			Help:    "Total cost of found paths",
			Buckets: []float64{1, 2, 5, 10, 20, 50, 100, 200, 500},
		}, []string{"strategy"}),

		runErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pathfinder_run_errors_total",
			Help: "Run requests rejected or aborted, by error class",
		}, []string{"class"}),

		comparisons: factory.NewCounter(prometheus.CounterOpts{
			Name: "pathfinder_comparisons_total",
			Help: "Strategy comparisons executed",
		}),
	}
}

// ObserveRun records one completed run
func (m *Metrics) ObserveRun(r *engine.RunResult) {
	if m == nil || m.runs == nil {
		return
	}

	strategy := string(r.Strategy)
	outcome := "no_path"
	if r.Found {
		outcome = "found"
		m.pathCost.WithLabelValues(strategy).Observe(r.TotalCost)
	}
	m.runs.WithLabelValues(strategy, outcome).Inc()
	m.duration.WithLabelValues(strategy).Observe(r.Elapsed.Seconds())
	m.explored.WithLabelValues(strategy).Observe(float64(r.NodesExplored))
}

// ObserveComparison records a comparison and each of its runs
func (m *Metrics) ObserveComparison(results []*engine.RunResult) {
	if m == nil || m.comparisons == nil {
		return
	}
	m.comparisons.Inc()
	for _, r := range results {
		m.ObserveRun(r)
	}
}

// ObserveError records a failed run request
func (m *Metrics) ObserveError(err error) {
	if m == nil || m.runErrors == nil {
		return
	}
	m.runErrors.WithLabelValues(errorClass(err)).Inc()
}

func errorClass(err error) string {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	}
	return "internal"
}
