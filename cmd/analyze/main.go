// Command analyze runs every search strategy against the maps in a config
// directory and prints, per map, the cost, path length, explored count and
// time of each strategy.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/urfave/cli/v3"
	"github.com/wricardo/tile-pathfinder/game/config"
	"github.com/wricardo/tile-pathfinder/game/engine"
	"github.com/wricardo/tile-pathfinder/game/grid"
	"github.com/wricardo/tile-pathfinder/game/policy"
	"github.com/wricardo/tile-pathfinder/internal/ctxlog"
)

// MapAnalysis is the comparison of all strategies on one map
type MapAnalysis struct {
	MapID   string
	Name    string
	Width   int
	Height  int
	Start   grid.Coord
	Goal    grid.Coord
	Results []*engine.RunResult
}

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "analyze:", err)
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "analyze",
		Usage: "compare DFS, BFS, Dijkstra and A* on the map library",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config-dir",
				Aliases: []string{"d"},
				Value:   "configs",
				Usage:   "directory containing map files",
			},
			&cli.StringFlag{
				Name:    "map",
				Aliases: []string{"m"},
				Usage:   "analyze a single map by ID",
			},
			&cli.StringFlag{
				Name:  "heuristic",
				Value: string(policy.Manhattan),
				Usage: "A* heuristic: manhattan, euclidean or diagonal",
			},
		},
		Action: run,
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	heuristic, err := policy.ParseHeuristic(cmd.String("heuristic"))
	if err != nil {
		return err
	}

	manager, err := config.NewManager(cmd.String("config-dir"))
	if err != nil {
		return err
	}

	ids := []string{cmd.String("map")}
	if ids[0] == "" {
		maps, err := manager.ListConfigs()
		if err != nil {
			return err
		}
		ids = ids[:0]
		for _, m := range maps {
			ids = append(ids, m.MapID)
		}
	}
	if len(ids) == 0 {
		return fmt.Errorf("no maps found in %s", cmd.String("config-dir"))
	}

	out := cmd.Writer
	if out == nil {
		out = os.Stdout
	}

	for _, id := range ids {
		cfg, err := manager.LoadConfig(id)
		if err != nil {
			return err
		}
		analysis, err := analyzeMap(ctx, id, cfg, heuristic)
		if err != nil {
			fmt.Fprintf(out, "\n=== %s ===\nskipped: %v\n", id, err)
			continue
		}
		printAnalysis(out, analysis)
	}
	return nil
}

// analyzeMap compares the strategies between the map's S and G markers.
// Maps without markers are searched corner to corner.
func analyzeMap(ctx context.Context, id string, cfg *engine.MapConfig, heuristic policy.HeuristicKind) (*MapAnalysis, error) {
	e, err := engine.New(cfg, engine.WithLogger(ctxlog.Discard()))
	if err != nil {
		return nil, err
	}
	if err := e.SetHeuristic(heuristic); err != nil {
		return nil, err
	}

	snap := e.Snapshot()
	if snap.Start == nil {
		if err := e.SelectStart(grid.Coord{X: 0, Y: 0}); err != nil {
			return nil, fmt.Errorf("no start marker and bottom-left corner unusable: %w", err)
		}
	}
	if snap.Goal == nil {
		if err := e.SelectGoal(grid.Coord{X: snap.Width - 1, Y: snap.Height - 1}); err != nil {
			return nil, fmt.Errorf("no goal marker and top-right corner unusable: %w", err)
		}
	}

	results, err := e.Compare(ctx)
	if err != nil {
		return nil, err
	}

	snap = e.Snapshot()
	return &MapAnalysis{
		MapID:   id,
		Name:    cfg.Name,
		Width:   snap.Width,
		Height:  snap.Height,
		Start:   *snap.Start,
		Goal:    *snap.Goal,
		Results: results,
	}, nil
}

func printAnalysis(w io.Writer, a *MapAnalysis) {
	fmt.Fprintf(w, "\n=== %s (%s) ===\n", a.MapID, a.Name)
	fmt.Fprintf(w, "Grid: %dx%d  Start: (%d,%d)  Goal: (%d,%d)\n\n", a.Width, a.Height, a.Start.X, a.Start.Y, a.Goal.X, a.Goal.Y)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STRATEGY\tCOST\tLENGTH\tEXPLORED\tTIME (ms)")
	for _, r := range a.Results {
		name := string(r.Strategy)
		if r.Heuristic != "" {
			name += "/" + string(r.Heuristic)
		}
		ms := float64(r.Elapsed.Microseconds()) / 1000
		if !r.Found {
			fmt.Fprintf(tw, "%s\t-\t-\t%d\t%.3f\n", name, r.NodesExplored, ms)
			continue
		}
		fmt.Fprintf(tw, "%s\t%g\t%d\t%d\t%.3f\n", name, r.TotalCost, len(r.Path)-1, r.NodesExplored, ms)
	}
	tw.Flush()
}
