package engine

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wricardo/tile-pathfinder/game/grid"
	"github.com/wricardo/tile-pathfinder/game/policy"
	"github.com/wricardo/tile-pathfinder/game/search"
)

// State is the run controller state
type State string

const (
	Idle     State = "idle"
	Running  State = "running"
	Resolved State = "resolved"

	// Default board size when a map gives no layout or dimensions
	DefaultWidth  = 5
	DefaultHeight = 5
)

// Invalid input errors. None of them change engine state.
var (
	ErrStartNotSet      = errors.New("engine: start tile not selected")
	ErrGoalNotSet       = errors.New("engine: goal tile not selected")
	ErrOutOfBounds      = errors.New("engine: coordinate outside the grid")
	ErrWallSelected     = errors.New("engine: start and goal cannot be walls")
	ErrRunInProgress    = errors.New("engine: a run is in progress")
	ErrEditWhileRunning = errors.New("engine: terrain cannot change while a run is in progress")
	ErrInvalidMapConfig = errors.New("engine: invalid map config")
)

// IsInvalidInput reports whether err is a caller mistake rather than a fault
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrStartNotSet) ||
		errors.Is(err, ErrGoalNotSet) ||
		errors.Is(err, ErrOutOfBounds) ||
		errors.Is(err, ErrWallSelected) ||
		errors.Is(err, ErrInvalidMapConfig) ||
		errors.Is(err, grid.ErrUnknownTerrain) ||
		errors.Is(err, grid.ErrInvalidDimensions) ||
		errors.Is(err, search.ErrUnknownStrategy) ||
		errors.Is(err, policy.ErrUnknownHeuristic)
}

// IsConflict reports whether err was caused by a run in progress
func IsConflict(err error) bool {
	return errors.Is(err, ErrRunInProgress) || errors.Is(err, ErrEditWhileRunning)
}

// MapConfig describes a board: its size or layout and the default settings.
// It decodes from JSON and from HCL.
type MapConfig struct {
	Name        string   `json:"name" hcl:"name"`
	Description string   `json:"description,omitempty" hcl:"description,optional"`
	Width       int      `json:"width,omitempty" hcl:"width,optional"`
	Height      int      `json:"height,omitempty" hcl:"height,optional"`
	Layout      []string `json:"layout,omitempty" hcl:"layout,optional"`
	Strategy    string   `json:"strategy,omitempty" hcl:"strategy,optional"`
	Heuristic   string   `json:"heuristic,omitempty" hcl:"heuristic,optional"`
}

// RunResult is everything a run hands to presentation
type RunResult struct {
	Strategy      search.Strategy      `json:"strategy"`
	Heuristic     policy.HeuristicKind `json:"heuristic,omitempty"`
	Start         grid.Coord           `json:"start"`
	Goal          grid.Coord           `json:"goal"`
	Found         bool                 `json:"found"`
	Path          []grid.Tile          `json:"path"`
	TotalCost     float64              `json:"total_cost"`
	NodesExplored int                  `json:"nodes_explored"`
	Elapsed       time.Duration        `json:"elapsed"`
	Explored      []grid.Coord         `json:"explored"`
}

// PathString renders the path as "Tile_0_0 -> Tile_0_1 -> ..."
func (r *RunResult) PathString() string {
	names := make([]string, len(r.Path))
	for i, t := range r.Path {
		names[i] = t.Coord.String()
	}
	return strings.Join(names, " -> ")
}

// Summary is the one-paragraph run report
func (r *RunResult) Summary() string {
	if !r.Found {
		return fmt.Sprintf("%s: no path found\nNodes explored: %d\nTime taken: %.3f ms",
			r.Strategy, r.NodesExplored, float64(r.Elapsed.Microseconds())/1000)
	}
	return fmt.Sprintf("%s: path found! Total cost: %g\nPath: %s\nNodes explored: %d\nTime taken: %.3f ms",
		r.Strategy, r.TotalCost, r.PathString(), r.NodesExplored, float64(r.Elapsed.Microseconds())/1000)
}

// Snapshot is a read-only view of an engine
type Snapshot struct {
	MapName    string               `json:"map_name"`
	Width      int                  `json:"width"`
	Height     int                  `json:"height"`
	Layout     []string             `json:"layout"`
	Start      *grid.Coord          `json:"start,omitempty"`
	Goal       *grid.Coord          `json:"goal,omitempty"`
	Strategy   search.Strategy      `json:"strategy"`
	Heuristic  policy.HeuristicKind `json:"heuristic"`
	State      State                `json:"state"`
	LastResult *RunResult           `json:"last_result,omitempty"`
}

// Tile returns the terrain at c using the layout rows
func (s *Snapshot) Tile(c grid.Coord) (grid.TerrainKind, bool) {
	if c.X < 0 || c.X >= s.Width || c.Y < 0 || c.Y >= s.Height {
		return "", false
	}
	kind, err := grid.ParseTerrainKind(string(s.Layout[s.Height-1-c.Y][c.X]))
	if err != nil {
		return "", false
	}
	return kind, true
}
