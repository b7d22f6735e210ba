package search

import (
	"context"

	"github.com/wricardo/tile-pathfinder/game/grid"
	"github.com/zyedidia/generic/mapset"
	"github.com/zyedidia/generic/queue"
	"github.com/zyedidia/generic/stack"
)

// frontier is the pending-node container of an uninformed search
type frontier interface {
	push(node int)
	pop() int
	empty() bool
}

type lifo struct{ s *stack.Stack[int] }

func (f lifo) push(node int) { f.s.Push(node) }
func (f lifo) pop() int      { return f.s.Pop() }
func (f lifo) empty() bool   { return f.s.Size() == 0 }

type fifo struct{ q *queue.Queue[int] }

func (f fifo) push(node int) { f.q.Enqueue(node) }
func (f fifo) pop() int      { return f.q.Dequeue() }
func (f fifo) empty() bool   { return f.q.Empty() }

// DepthFirst searches with a LIFO frontier. It terminates on any finite grid
// but does not guarantee a shortest path.
func DepthFirst(ctx context.Context, p Problem) (*Outcome, error) {
	return uninformed(ctx, p, lifo{s: stack.New[int]()})
}

// BreadthFirst searches with a FIFO frontier. The path it returns has the
// fewest edges, regardless of terrain cost.
func BreadthFirst(ctx context.Context, p Problem) (*Outcome, error) {
	return uninformed(ctx, p, fifo{q: queue.New[int]()})
}

// uninformed runs the lazy-visited discipline: tiles may be pushed several
// times and are marked visited when popped.
func uninformed(ctx context.Context, p Problem, open frontier) (*Outcome, error) {
	start, err := p.normalize()
	if err != nil {
		return nil, err
	}

	w := newWalker(p)
	visited := mapset.New[grid.Coord]()

	open.push(w.out.Tree.add(start, NoParent, 0, 0))
	for !open.empty() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		current := open.pop()
		w.out.NodesExplored++
		tile := w.out.Tree.nodes[current].Tile
		if visited.Has(tile.Coord) {
			continue
		}
		visited.Put(tile.Coord)

		w.finalize(tile.Coord)
		if tile.Coord == p.Goal {
			return w.finish(current), nil
		}

		for _, n := range w.expand(tile.Coord) {
			if visited.Has(n.Coord) {
				continue
			}
			open.push(w.out.Tree.add(n, current, 0, 0))
		}
	}
	return w.out, nil
}
