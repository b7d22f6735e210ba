// Package policy holds the cost and heuristic functions consulted by the
// cost-aware search strategies.
package policy

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/wricardo/tile-pathfinder/game/grid"
)

// HeuristicKind selects the distance estimate used by A*
type HeuristicKind string

const (
	Manhattan HeuristicKind = "manhattan"
	Euclidean HeuristicKind = "euclidean"
	Diagonal  HeuristicKind = "diagonal"
)

var ErrUnknownHeuristic = errors.New("policy: unknown heuristic")

// CostFunc returns the cost of entering a tile
type CostFunc func(grid.Tile) float64

// HeuristicFunc estimates the remaining cost from a to b
type HeuristicFunc func(a, b grid.Coord) float64

// TerrainCost is the default CostFunc
var TerrainCost CostFunc = grid.Cost

// Zero is the heuristic that always returns 0. With it A* degenerates to Dijkstra.
func Zero(_, _ grid.Coord) float64 { return 0 }

// Kinds lists every heuristic in display order
func Kinds() []HeuristicKind {
	return []HeuristicKind{Manhattan, Euclidean, Diagonal}
}

// ParseHeuristic accepts a kind name; "chebyshev" is an alias for Diagonal
func ParseHeuristic(s string) (HeuristicKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "manhattan":
		return Manhattan, nil
	case "euclidean":
		return Euclidean, nil
	case "diagonal", "chebyshev":
		return Diagonal, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownHeuristic, s)
}

func (k HeuristicKind) String() string { return string(k) }

// UnmarshalText parses a heuristic name. Empty input leaves the zero value.
func (k *HeuristicKind) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*k = ""
		return nil
	}
	parsed, err := ParseHeuristic(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Heuristic computes the estimate between a and b for the given kind.
// Unknown kinds fall back to Manhattan.
func Heuristic(a, b grid.Coord, kind HeuristicKind) float64 {
	dx := math.Abs(float64(a.X - b.X))
	dy := math.Abs(float64(a.Y - b.Y))

	switch kind {
	case Euclidean:
		return math.Sqrt(dx*dx + dy*dy)
	case Diagonal:
		return math.Max(dx, dy)
	default:
		return dx + dy
	}
}

// For binds kind into a HeuristicFunc
func For(kind HeuristicKind) HeuristicFunc {
	return func(a, b grid.Coord) float64 {
		return Heuristic(a, b, kind)
	}
}
