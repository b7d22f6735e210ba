package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/wricardo/tile-pathfinder/game/grid"
	"github.com/wricardo/tile-pathfinder/game/policy"
	"github.com/wricardo/tile-pathfinder/game/search"
)

// Engine is the run controller for one board. It is safe for concurrent use;
// runs are serialized and search a private copy of the grid.
type Engine struct {
	mu        sync.Mutex
	config    *MapConfig
	grid      *grid.Grid
	start     *grid.Coord
	goal      *grid.Coord
	strategy  search.Strategy
	heuristic policy.HeuristicKind
	state     State
	last      *RunResult
	logger    *slog.Logger
	clock     func() time.Time
}

// Option configures an Engine
type Option func(*Engine)

// WithLogger sets the logger used for run reports
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithClock replaces time.Now for elapsed-time measurement
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.clock = now
		}
	}
}

// New creates an idle engine from a map config. A nil config uses
// DefaultMapConfig. S and G markers in the layout become the initial
// start and goal.
func New(config *MapConfig, opts ...Option) (*Engine, error) {
	if config == nil {
		config = DefaultMapConfig()
	}
	if err := ValidateMapConfig(config); err != nil {
		return nil, err
	}

	g, markers, err := buildGrid(config)
	if err != nil {
		return nil, err
	}
	strategy, heuristic, err := settings(config)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		config:    config,
		grid:      g,
		start:     markers.Start,
		goal:      markers.Goal,
		strategy:  strategy,
		heuristic: heuristic,
		state:     Idle,
		logger:    slog.Default(),
		clock:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// State returns the controller state
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Config returns the map config the engine was built from
func (e *Engine) Config() *MapConfig {
	return e.config
}

// LastResult returns the result of the most recent run, or nil
func (e *Engine) LastResult() *RunResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.last
}

// Tile returns the current terrain at c
func (e *Engine) Tile(c grid.Coord) (grid.Tile, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.grid.Tile(c)
}

// Snapshot returns a consistent copy of the board and settings
func (e *Engine) Snapshot() *Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	return &Snapshot{
		MapName:    e.config.Name,
		Width:      e.grid.Width(),
		Height:     e.grid.Height(),
		Layout:     e.grid.Layout(),
		Start:      copyCoord(e.start),
		Goal:       copyCoord(e.goal),
		Strategy:   e.strategy,
		Heuristic:  e.heuristic,
		State:      e.state,
		LastResult: e.last,
	}
}

// SetTerrain changes the terrain of one tile. It is rejected while a run is
// in progress. Turning the selected start or goal into a wall is allowed; the
// next run reports it.
func (e *Engine) SetTerrain(c grid.Coord, kind grid.TerrainKind) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == Running {
		return ErrEditWhileRunning
	}
	if !e.grid.InBounds(c) {
		return fmt.Errorf("%w: (%d,%d)", ErrOutOfBounds, c.X, c.Y)
	}
	return e.grid.SetKind(c, kind)
}

// SelectStart sets the start tile
func (e *Engine) SelectStart(c grid.Coord) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkSelectable(c); err != nil {
		return err
	}
	e.start = &c
	return nil
}

// SelectGoal sets the goal tile
func (e *Engine) SelectGoal(c grid.Coord) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkSelectable(c); err != nil {
		return err
	}
	e.goal = &c
	return nil
}

func (e *Engine) checkSelectable(c grid.Coord) error {
	tile, ok := e.grid.Tile(c)
	if !ok {
		return fmt.Errorf("%w: (%d,%d)", ErrOutOfBounds, c.X, c.Y)
	}
	if tile.Kind == grid.Wall {
		return fmt.Errorf("%w: %s", ErrWallSelected, c)
	}
	return nil
}

// SetStrategy selects the strategy used by the next run
func (e *Engine) SetStrategy(s search.Strategy) error {
	parsed, err := search.ParseStrategy(string(s))
	if err != nil {
		return err
	}
	e.mu.Lock()
	e.strategy = parsed
	e.mu.Unlock()
	return nil
}

// SetHeuristic selects the heuristic used by the next A* run
func (e *Engine) SetHeuristic(h policy.HeuristicKind) error {
	parsed, err := policy.ParseHeuristic(string(h))
	if err != nil {
		return err
	}
	e.mu.Lock()
	e.heuristic = parsed
	e.mu.Unlock()
	return nil
}

// runPlan is everything a run needs, copied out under the lock
type runPlan struct {
	grid      *grid.Grid
	start     grid.Coord
	goal      grid.Coord
	strategy  search.Strategy
	heuristic policy.HeuristicKind
	prev      State
}

// begin validates the selection and moves the engine to Running
func (e *Engine) begin() (*runPlan, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == Running {
		return nil, ErrRunInProgress
	}
	if e.start == nil {
		return nil, ErrStartNotSet
	}
	if e.goal == nil {
		return nil, ErrGoalNotSet
	}
	for _, c := range []grid.Coord{*e.start, *e.goal} {
		if err := e.checkSelectable(c); err != nil {
			return nil, err
		}
	}

	plan := &runPlan{
		grid:      e.grid.Clone(),
		start:     *e.start,
		goal:      *e.goal,
		strategy:  e.strategy,
		heuristic: e.heuristic,
		prev:      e.state,
	}
	e.state = Running
	return plan, nil
}

// execute searches the plan's snapshot with one strategy. It does not touch
// engine state.
func (e *Engine) execute(ctx context.Context, plan *runPlan, strategy search.Strategy) (*RunResult, error) {
	problem := search.Problem{
		Grid:      plan.grid,
		Start:     plan.start,
		Goal:      plan.goal,
		Cost:      policy.TerrainCost,
		Heuristic: policy.For(plan.heuristic),
	}

	began := e.clock()
	out, err := search.Run(ctx, strategy, problem)
	elapsed := e.clock().Sub(began)
	if err != nil {
		return nil, err
	}

	result := &RunResult{
		Strategy:      strategy,
		Start:         plan.start,
		Goal:          plan.goal,
		Found:         out.Found,
		Path:          out.Path(),
		NodesExplored: out.NodesExplored,
		Elapsed:       elapsed,
		Explored:      out.Explored,
	}
	if strategy == search.AStar {
		result.Heuristic = plan.heuristic
	}
	if result.Path == nil {
		result.Path = []grid.Tile{}
	}
	result.TotalCost = search.TotalCost(result.Path, policy.TerrainCost)
	return result, nil
}

// Run searches from start to goal with the configured strategy and moves the
// engine to Resolved. Not finding a path is reported in the result, not as
// an error. If ctx is cancelled the engine returns to its previous state and
// the previous result is kept.
func (e *Engine) Run(ctx context.Context) (*RunResult, error) {
	plan, err := e.begin()
	if err != nil {
		return nil, err
	}

	result, err := e.execute(ctx, plan, plan.strategy)

	e.mu.Lock()
	defer e.mu.Unlock()

	if err != nil {
		e.state = plan.prev
		e.logger.Warn("run aborted", "map", e.config.Name, "strategy", plan.strategy, "error", err)
		return nil, err
	}

	e.last = result
	e.state = Resolved
	e.logger.Debug("run finished",
		"map", e.config.Name,
		"strategy", result.Strategy,
		"found", result.Found,
		"cost", result.TotalCost,
		"nodes_explored", result.NodesExplored,
		"elapsed", result.Elapsed,
	)
	return result, nil
}

// Compare runs every strategy against the same snapshot. The engine state
// and last result are left as they were.
func (e *Engine) Compare(ctx context.Context) ([]*RunResult, error) {
	plan, err := e.begin()
	if err != nil {
		return nil, err
	}
	defer func() {
		e.mu.Lock()
		e.state = plan.prev
		e.mu.Unlock()
	}()

	results := make([]*RunResult, 0, len(search.Strategies()))
	for _, s := range search.Strategies() {
		result, err := e.execute(ctx, plan, s)
		if err != nil {
			e.logger.Warn("comparison aborted", "map", e.config.Name, "strategy", s, "error", err)
			return nil, err
		}
		results = append(results, result)
	}
	return results, nil
}

// Reset returns the engine to Idle: every tile becomes Open, the selection
// is cleared and the last result is discarded.
func (e *Engine) Reset() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == Running {
		return ErrRunInProgress
	}
	e.grid.ResetTerrain()
	e.start = nil
	e.goal = nil
	e.last = nil
	e.state = Idle
	return nil
}

// Regenerate replaces the board with an open width x height grid and resets
// the engine to Idle.
func (e *Engine) Regenerate(width, height int) error {
	g, err := grid.New(width, height)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == Running {
		return ErrRunInProgress
	}
	e.grid = g
	e.start = nil
	e.goal = nil
	e.last = nil
	e.state = Idle
	return nil
}

func copyCoord(c *grid.Coord) *grid.Coord {
	if c == nil {
		return nil
	}
	cp := *c
	return &cp
}
