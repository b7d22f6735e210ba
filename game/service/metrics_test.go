package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"github.com/wricardo/tile-pathfinder/game/engine"
	"github.com/wricardo/tile-pathfinder/game/search"
)

func TestMetricsObserveRun(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.ObserveRun(&engine.RunResult{Strategy: search.AStar, Found: true, TotalCost: 8, NodesExplored: 12, Elapsed: time.Millisecond})
	m.ObserveRun(&engine.RunResult{Strategy: search.AStar, Found: false, NodesExplored: 20})
	m.ObserveComparison([]*engine.RunResult{
		{Strategy: search.DFS, Found: true, TotalCost: 10},
		{Strategy: search.BFS, Found: true, TotalCost: 8},
	})

	require.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("astar", "found")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("astar", "no_path")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("dfs", "found")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.comparisons))

	count, err := testutil.GatherAndCount(reg, "pathfinder_path_cost")
	require.NoError(t, err)
	require.Equal(t, 3, count)
}

func TestMetricsErrorClasses(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	errs := []error{
		classify(engine.ErrStartNotSet),
		classify(engine.ErrRunInProgress),
		fmt.Errorf("%w: session x", ErrNotFound),
		context.Canceled,
		fmt.Errorf("disk on fire"),
	}
	for _, err := range errs {
		m.ObserveError(err)
	}

	for _, class := range []string{"invalid_input", "conflict", "not_found", "cancelled", "internal"} {
		require.Equal(t, 1.0, testutil.ToFloat64(m.runErrors.WithLabelValues(class)), class)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	require.NotPanics(t, func() {
		m.ObserveRun(&engine.RunResult{Strategy: search.BFS})
		m.ObserveComparison(nil)
		m.ObserveError(ErrConflict)
	})
}
