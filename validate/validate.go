// Command validate checks the map files in a config directory (../configs by
// default). For each JSON or HCL map it reports:
//   - decode and validation errors (layout shape, characters, strategy names)
//   - a warning when the S and G markers are not connected
//   - a legend summary with the tile counts per terrain
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/wricardo/tile-pathfinder/game/config"
	"github.com/wricardo/tile-pathfinder/game/engine"
	"github.com/wricardo/tile-pathfinder/game/grid"
	"github.com/wricardo/tile-pathfinder/game/search"
)

// ValidationResult captures the outcome of validating a single file.
// Warnings never make a map invalid.
type ValidationResult struct {
	File     string
	Valid    bool
	Errors   []string
	Warnings []string
	Info     []string
}

// validateConfig loads a single map file, then checks that its markers are
// reachable and summarizes the board.
func validateConfig(filePath string) ValidationResult {
	result := ValidationResult{
		File:  filepath.Base(filePath),
		Valid: true,
	}

	cfg, err := config.LoadFile(filePath)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, err.Error())
		return result
	}

	g, markers, err := boardOf(cfg)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, err.Error())
		return result
	}

	result.Warnings = append(result.Warnings, checkMarkers(g, markers)...)

	result.Info = append(result.Info, fmt.Sprintf("✓ Name: %s", cfg.Name))
	result.Info = append(result.Info, fmt.Sprintf("✓ Grid: %dx%d", g.Width(), g.Height()))
	result.Info = append(result.Info, legendSummary(g))
	if cfg.Strategy != "" || cfg.Heuristic != "" {
		result.Info = append(result.Info, fmt.Sprintf("✓ Settings: strategy=%s heuristic=%s", orDefault(cfg.Strategy), orDefault(cfg.Heuristic)))
	}
	if markers.Start != nil && markers.Goal != nil {
		result.Info = append(result.Info, fmt.Sprintf("✓ Start (%d,%d) Goal (%d,%d)", markers.Start.X, markers.Start.Y, markers.Goal.X, markers.Goal.Y))
	}

	return result
}

// boardOf builds the grid a config describes. Maps without a layout are open
// boards of the configured size.
func boardOf(cfg *engine.MapConfig) (*grid.Grid, grid.Markers, error) {
	if len(cfg.Layout) > 0 {
		return grid.FromLayout(cfg.Layout)
	}
	w, h := cfg.Width, cfg.Height
	if w == 0 && h == 0 {
		w, h = engine.DefaultWidth, engine.DefaultHeight
	}
	g, err := grid.New(w, h)
	return g, grid.Markers{}, err
}

// checkMarkers warns about a lone marker and about a goal that BFS cannot reach
func checkMarkers(g *grid.Grid, markers grid.Markers) []string {
	switch {
	case markers.Start == nil && markers.Goal == nil:
		return nil
	case markers.Start == nil:
		return []string{"Layout has a goal (G) but no start (S)"}
	case markers.Goal == nil:
		return []string{"Layout has a start (S) but no goal (G)"}
	}

	outcome, err := search.BreadthFirst(context.Background(), search.Problem{
		Grid:  g,
		Start: *markers.Start,
		Goal:  *markers.Goal,
	})
	if err != nil {
		return []string{fmt.Sprintf("Connectivity check failed: %v", err)}
	}
	if !outcome.Found {
		return []string{fmt.Sprintf("Goal (%d,%d) is not reachable from start (%d,%d); %d tiles reachable",
			markers.Goal.X, markers.Goal.Y, markers.Start.X, markers.Start.Y, len(outcome.Explored))}
	}
	return nil
}

func legendSummary(g *grid.Grid) string {
	return fmt.Sprintf("✓ Legend: O open=%d, T swamp=%d, W wall=%d",
		g.CountKind(grid.Open), g.CountKind(grid.Swamp), g.CountKind(grid.Wall))
}

func orDefault(s string) string {
	if s == "" {
		return "default"
	}
	return s
}

// mapFiles lists the JSON and HCL files in dir in name order
func mapFiles(dir string) ([]string, error) {
	var files []string
	for _, pattern := range []string{"*.json", "*.hcl"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		files = append(files, matches...)
	}
	sort.Strings(files)
	return files, nil
}

// report prints one result and returns whether it was valid
func report(result ValidationResult) bool {
	fmt.Printf("\n%s %s\n", strings.Repeat("=", 20), result.File)

	if !result.Valid {
		fmt.Println("❌ INVALID")
		for _, err := range result.Errors {
			fmt.Println("  ❌ " + err)
		}
		return false
	}

	fmt.Println("✅ VALID")
	for _, warning := range result.Warnings {
		fmt.Println("  ⚠ " + warning)
	}
	for _, info := range result.Info {
		fmt.Println("  " + info)
	}
	return true
}

// main validates every map in the directory given as the first argument,
// printing a concise report and exiting non-zero if any map is invalid.
func main() {
	configDir := "../configs"
	if len(os.Args) > 1 {
		configDir = os.Args[1]
	}

	files, err := mapFiles(configDir)
	if err != nil {
		fmt.Printf("Error finding map files: %v\n", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Printf("No map files found in %s\n", configDir)
		os.Exit(1)
	}

	allValid := true
	for _, file := range files {
		if !report(validateConfig(file)) {
			allValid = false
		}
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Println("✅ All maps are valid!")
	} else {
		fmt.Println("❌ Some maps have errors")
		os.Exit(1)
	}
}
