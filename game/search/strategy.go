package search

import (
	"fmt"
	"strings"
)

// Strategy names a search algorithm
type Strategy string

const (
	DFS      Strategy = "dfs"
	BFS      Strategy = "bfs"
	Dijkstra Strategy = "dijkstra"
	AStar    Strategy = "astar"
)

// Strategies lists every strategy in display order
func Strategies() []Strategy {
	return []Strategy{DFS, BFS, Dijkstra, AStar}
}

// ParseStrategy accepts a strategy name, case-insensitive. "a*" is an alias for AStar.
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "dfs", "depth-first":
		return DFS, nil
	case "bfs", "breadth-first":
		return BFS, nil
	case "dijkstra":
		return Dijkstra, nil
	case "astar", "a*", "a-star":
		return AStar, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
}

func (s Strategy) String() string { return string(s) }

// Informed reports whether the strategy consults costs
func (s Strategy) Informed() bool {
	return s == Dijkstra || s == AStar
}

// UnmarshalText parses a strategy name. Empty input leaves the zero value.
func (s *Strategy) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*s = ""
		return nil
	}
	parsed, err := ParseStrategy(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
