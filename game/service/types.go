package service

import (
	"time"

	"github.com/wricardo/tile-pathfinder/game/engine"
	"github.com/wricardo/tile-pathfinder/game/grid"
)

// SessionInfo provides information about a session
type SessionInfo struct {
	ID             string            `json:"id"`
	MapID          string            `json:"map_id"`
	CreatedAt      time.Time         `json:"created_at"`
	LastAccessedAt time.Time         `json:"last_accessed_at"`
	State          *engine.Snapshot  `json:"state"`
	Map            *engine.MapConfig `json:"map"`
}

// Settings changes strategy and heuristic; empty fields are left as they are
type Settings struct {
	Strategy  string `json:"strategy,omitempty"`
	Heuristic string `json:"heuristic,omitempty"`
}

// RunReport is the presentation form of a run result
type RunReport struct {
	Strategy      string       `json:"strategy"`
	Heuristic     string       `json:"heuristic,omitempty"`
	Found         bool         `json:"found"`
	Path          []grid.Tile  `json:"path"`
	PathString    string       `json:"path_string"`
	PathLength    int          `json:"path_length"`
	TotalCost     float64      `json:"total_cost"`
	NodesExplored int          `json:"nodes_explored"`
	ElapsedMS     float64      `json:"elapsed_ms"`
	Explored      []grid.Coord `json:"explored"`
	Message       string       `json:"message"`
}

// RunResponse is returned by FindPath
type RunResponse struct {
	SessionID string           `json:"session_id"`
	Result    *RunReport       `json:"result"`
	State     *engine.Snapshot `json:"state"`
}

// CompareResponse is returned by Compare, one report per strategy
type CompareResponse struct {
	SessionID string       `json:"session_id"`
	Start     grid.Coord   `json:"start"`
	Goal      grid.Coord   `json:"goal"`
	Results   []*RunReport `json:"results"`
}

// MapInfo describes a map in the library
type MapInfo struct {
	Filename    string `json:"filename"`
	MapID       string `json:"map_id"` // identifier used to create sessions
	Name        string `json:"name"`
	Description string `json:"description"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Strategy    string `json:"strategy,omitempty"`
	Heuristic   string `json:"heuristic,omitempty"`
}

// NewRunReport converts an engine result for presentation
func NewRunReport(r *engine.RunResult) *RunReport {
	report := &RunReport{
		Strategy:      string(r.Strategy),
		Heuristic:     string(r.Heuristic),
		Found:         r.Found,
		Path:          r.Path,
		PathString:    r.PathString(),
		TotalCost:     r.TotalCost,
		NodesExplored: r.NodesExplored,
		ElapsedMS:     float64(r.Elapsed.Microseconds()) / 1000,
		Explored:      r.Explored,
		Message:       r.Summary(),
	}
	if len(r.Path) > 0 {
		report.PathLength = len(r.Path) - 1
	}
	return report
}
