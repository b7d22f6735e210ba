package search

import "github.com/wricardo/tile-pathfinder/game/grid"

// NoParent marks the root of a Tree
const NoParent = -1

// Node ties a tile to its parent in the search tree.
// G is the accumulated cost from the start and H the heuristic estimate to
// the goal. Both stay zero for DFS and BFS.
type Node struct {
	Tile   grid.Tile
	Parent int
	G      float64
	H      float64
}

func (n Node) F() float64 { return n.G + n.H }

// Tree is an arena of search nodes. Parents are referenced by index.
type Tree struct {
	nodes []Node
}

func (t *Tree) add(tile grid.Tile, parent int, g, h float64) int {
	t.nodes = append(t.nodes, Node{Tile: tile, Parent: parent, G: g, H: h})
	return len(t.nodes) - 1
}

// relax lowers the cost of node i and reroutes it through parent
func (t *Tree) relax(i, parent int, g float64) {
	t.nodes[i].G = g
	t.nodes[i].Parent = parent
}

// Len returns the number of nodes created during the search
func (t *Tree) Len() int { return len(t.nodes) }

// Node returns node i
func (t *Tree) Node(i int) Node { return t.nodes[i] }

// Path walks parent links from terminal back to the root and returns the
// tiles in root-to-terminal order.
func (t *Tree) Path(terminal int) []grid.Tile {
	if terminal < 0 || terminal >= len(t.nodes) {
		return nil
	}

	var path []grid.Tile
	for i := terminal; i != NoParent; i = t.nodes[i].Parent {
		path = append(path, t.nodes[i].Tile)
	}
	for l, r := 0, len(path)-1; l < r; l, r = l+1, r-1 {
		path[l], path[r] = path[r], path[l]
	}
	return path
}

// TotalCost sums the cost of every tile after the first. The start tile is free.
func TotalCost(path []grid.Tile, cost func(grid.Tile) float64) float64 {
	total := 0.0
	for i := 1; i < len(path); i++ {
		total += cost(path[i])
	}
	return total
}
