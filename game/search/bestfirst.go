package search

import (
	"container/heap"
	"context"

	"github.com/wricardo/tile-pathfinder/game/grid"
	"github.com/wricardo/tile-pathfinder/game/policy"
	"github.com/zyedidia/generic/mapset"
)

// openItem is an entry on the open list
type openItem struct {
	node     int
	priority float64
	seq      int
	index    int
}

// openList is a min-heap ordered by priority, then by insertion sequence
type openList []*openItem

func (o openList) Len() int { return len(o) }

func (o openList) Less(i, j int) bool {
	if o[i].priority != o[j].priority {
		return o[i].priority < o[j].priority
	}
	return o[i].seq < o[j].seq
}

func (o openList) Swap(i, j int) {
	o[i], o[j] = o[j], o[i]
	o[i].index = i
	o[j].index = j
}

func (o *openList) Push(x any) {
	item := x.(*openItem)
	item.index = len(*o)
	*o = append(*o, item)
}

func (o *openList) Pop() any {
	old := *o
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*o = old[:n-1]
	return item
}

// UniformCost is Dijkstra's algorithm: the open node with the lowest G is
// selected first. The problem's heuristic is ignored.
func UniformCost(ctx context.Context, p Problem) (*Outcome, error) {
	p.Heuristic = policy.Zero
	return bestFirst(ctx, p)
}

// AStarSearch selects the open node with the lowest G+H. H is computed once
// per node when it is created.
func AStarSearch(ctx context.Context, p Problem) (*Outcome, error) {
	return bestFirst(ctx, p)
}

func bestFirst(ctx context.Context, p Problem) (*Outcome, error) {
	start, err := p.normalize()
	if err != nil {
		return nil, err
	}

	w := newWalker(p)
	tree := w.out.Tree
	closed := mapset.New[grid.Coord]()
	inOpen := make(map[grid.Coord]*openItem)
	open := &openList{}
	seq := 0

	enqueue := func(node int) {
		item := &openItem{node: node, priority: tree.nodes[node].F(), seq: seq}
		seq++
		heap.Push(open, item)
		inOpen[tree.nodes[node].Tile.Coord] = item
	}

	enqueue(tree.add(start, NoParent, 0, p.Heuristic(start.Coord, p.Goal)))
	for open.Len() > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		item := heap.Pop(open).(*openItem)
		current := item.node
		cur := tree.nodes[current]
		delete(inOpen, cur.Tile.Coord)
		closed.Put(cur.Tile.Coord)
		w.out.NodesExplored++
		w.finalize(cur.Tile.Coord)

		if cur.Tile.Coord == p.Goal {
			return w.finish(current), nil
		}

		for _, n := range w.expand(cur.Tile.Coord) {
			if closed.Has(n.Coord) {
				continue
			}
			g := cur.G + p.Cost(n)

			if existing, ok := inOpen[n.Coord]; ok {
				if g < tree.nodes[existing.node].G {
					tree.relax(existing.node, current, g)
					existing.priority = tree.nodes[existing.node].F()
					heap.Fix(open, existing.index)
				}
				continue
			}
			enqueue(tree.add(n, current, g, p.Heuristic(n.Coord, p.Goal)))
		}
	}
	return w.out, nil
}
