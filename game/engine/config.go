package engine

import (
	"fmt"

	"github.com/wricardo/tile-pathfinder/game/grid"
	"github.com/wricardo/tile-pathfinder/game/policy"
	"github.com/wricardo/tile-pathfinder/game/search"
)

// DefaultMapConfig is an open 5x5 board searched with A* and Manhattan distance
func DefaultMapConfig() *MapConfig {
	return &MapConfig{
		Name:        "default",
		Description: "Open 5x5 board",
		Width:       DefaultWidth,
		Height:      DefaultHeight,
		Strategy:    string(search.AStar),
		Heuristic:   string(policy.Manhattan),
	}
}

// ValidateMapConfig checks that a map config can build a board
func ValidateMapConfig(config *MapConfig) error {
	if config == nil {
		return fmt.Errorf("%w: config is nil", ErrInvalidMapConfig)
	}
	if config.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidMapConfig)
	}
	if _, _, err := buildGrid(config); err != nil {
		return err
	}
	if _, _, err := settings(config); err != nil {
		return err
	}
	return nil
}

// buildGrid creates the board described by config. A layout wins over bare
// dimensions; when both are given they must agree.
func buildGrid(config *MapConfig) (*grid.Grid, grid.Markers, error) {
	if len(config.Layout) == 0 {
		w, h := config.Width, config.Height
		if w == 0 && h == 0 {
			w, h = DefaultWidth, DefaultHeight
		}
		g, err := grid.New(w, h)
		if err != nil {
			return nil, grid.Markers{}, fmt.Errorf("%w: %v", ErrInvalidMapConfig, err)
		}
		return g, grid.Markers{}, nil
	}

	g, markers, err := grid.FromLayout(config.Layout)
	if err != nil {
		return nil, markers, fmt.Errorf("%w: %v", ErrInvalidMapConfig, err)
	}
	if config.Width != 0 && config.Width != g.Width() {
		return nil, markers, fmt.Errorf("%w: width %d does not match layout width %d", ErrInvalidMapConfig, config.Width, g.Width())
	}
	if config.Height != 0 && config.Height != g.Height() {
		return nil, markers, fmt.Errorf("%w: height %d does not match layout height %d", ErrInvalidMapConfig, config.Height, g.Height())
	}
	return g, markers, nil
}

// settings parses the configured strategy and heuristic, applying defaults
func settings(config *MapConfig) (search.Strategy, policy.HeuristicKind, error) {
	strategy, heuristic := search.AStar, policy.Manhattan

	if config.Strategy != "" {
		s, err := search.ParseStrategy(config.Strategy)
		if err != nil {
			return "", "", fmt.Errorf("%w: %v", ErrInvalidMapConfig, err)
		}
		strategy = s
	}
	if config.Heuristic != "" {
		h, err := policy.ParseHeuristic(config.Heuristic)
		if err != nil {
			return "", "", fmt.Errorf("%w: %v", ErrInvalidMapConfig, err)
		}
		heuristic = h
	}
	return strategy, heuristic, nil
}
