// Package search implements the four grid search strategies: depth-first,
// breadth-first, Dijkstra and A*.
//
// Every strategy consumes a Problem and returns an Outcome holding the node
// tree it built, the terminal node when the goal was reached, and the
// exploration telemetry. Not reaching the goal is a normal outcome
// (Found == false), not an error.
//
// Nodes live in a Tree arena and refer to their parent by index. Dijkstra and
// A* relax open nodes in place, so each tile has at most one node while it is
// on the open list.
//
// Open-list ties are broken by insertion order: of two nodes with equal
// priority, the one added to the open list first is selected first. A node
// keeps its insertion position when its cost is lowered.
//
// NodesExplored counts every removal from the frontier. For DFS and BFS this
// includes stale entries discarded because their tile was already visited.
// Explored lists the tiles in the order they were finalized.
package search
