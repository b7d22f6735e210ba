package search

import (
	"context"
	"errors"
	"fmt"

	"github.com/wricardo/tile-pathfinder/game/grid"
	"github.com/wricardo/tile-pathfinder/game/policy"
)

var (
	ErrUnknownStrategy = errors.New("search: unknown strategy")
	ErrNilGrid         = errors.New("search: grid is nil")
	ErrStartNotFound   = errors.New("search: start tile not found")
	ErrGoalNotFound    = errors.New("search: goal tile not found")
	ErrImpassable      = errors.New("search: start or goal is a wall")
)

// Problem is the input to a search. Cost defaults to policy.TerrainCost and
// Heuristic to Manhattan when nil. Dijkstra ignores Heuristic.
type Problem struct {
	Grid      *grid.Grid
	Start     grid.Coord
	Goal      grid.Coord
	Cost      policy.CostFunc
	Heuristic policy.HeuristicFunc
}

// Outcome is the result of a single search
type Outcome struct {
	Tree          *Tree
	Terminal      int
	Found         bool
	NodesExplored int
	Explored      []grid.Coord
}

// Path returns the start-to-goal tiles, or nil when no path was found
func (o *Outcome) Path() []grid.Tile {
	if !o.Found {
		return nil
	}
	return o.Tree.Path(o.Terminal)
}

// Run dispatches to the named strategy
func Run(ctx context.Context, strategy Strategy, p Problem) (*Outcome, error) {
	switch strategy {
	case DFS:
		return DepthFirst(ctx, p)
	case BFS:
		return BreadthFirst(ctx, p)
	case Dijkstra:
		return UniformCost(ctx, p)
	case AStar:
		return AStarSearch(ctx, p)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, strategy)
}

func (p *Problem) normalize() (start grid.Tile, err error) {
	if p.Grid == nil {
		return grid.Tile{}, ErrNilGrid
	}
	start, ok := p.Grid.Tile(p.Start)
	if !ok {
		return grid.Tile{}, fmt.Errorf("%w: %v", ErrStartNotFound, p.Start)
	}
	goal, ok := p.Grid.Tile(p.Goal)
	if !ok {
		return grid.Tile{}, fmt.Errorf("%w: %v", ErrGoalNotFound, p.Goal)
	}
	if !start.Kind.Passable() || !goal.Kind.Passable() {
		return grid.Tile{}, ErrImpassable
	}
	if p.Cost == nil {
		p.Cost = policy.TerrainCost
	}
	if p.Heuristic == nil {
		p.Heuristic = policy.For(policy.Manhattan)
	}
	return start, nil
}

// walker holds the state shared by every strategy during one search
type walker struct {
	p   Problem
	out *Outcome
	dst []grid.Tile
}

func newWalker(p Problem) *walker {
	return &walker{
		p:   p,
		out: &Outcome{Tree: &Tree{}, Terminal: NoParent},
		dst: make([]grid.Tile, 0, 4),
	}
}

// expand returns the passable neighbors of c. The slice is reused between calls.
func (w *walker) expand(c grid.Coord) []grid.Tile {
	w.dst = w.p.Grid.AppendNeighbors(w.dst[:0], c)
	n := 0
	for _, t := range w.dst {
		if !w.p.Grid.InBounds(t.Coord) {
			panic(fmt.Sprintf("search: neighbor %v of %v outside %dx%d grid", t.Coord, c, w.p.Grid.Width(), w.p.Grid.Height()))
		}
		if t.Kind.Passable() {
			w.dst[n] = t
			n++
		}
	}
	return w.dst[:n]
}

func (w *walker) finalize(c grid.Coord) {
	w.out.Explored = append(w.out.Explored, c)
}

func (w *walker) finish(terminal int) *Outcome {
	w.out.Terminal = terminal
	w.out.Found = true
	return w.out
}
