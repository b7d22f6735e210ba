// Package engine provides the run controller for a single pathfinding board.
//
// An Engine owns one grid together with the start and goal selection, the
// configured strategy and heuristic, and the result of the last run. It moves
// through three states:
//
//	idle ──Run──▶ running ──▶ resolved
//	  ▲                          │
//	  └──────────Reset───────────┘
//
// Runs are synchronous and exclusive. Each run searches a private snapshot of
// the grid, and terrain edits are rejected while a run is in progress.
//
// Usage:
//
//	eng, err := engine.New(engine.DefaultMapConfig())
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	_ = eng.SelectStart(grid.Coord{X: 0, Y: 0})
//	_ = eng.SelectGoal(grid.Coord{X: 4, Y: 4})
//	_ = eng.SetStrategy(search.AStar)
//
//	result, err := eng.Run(ctx)
//	fmt.Println(result.PathString(), result.TotalCost)
//
// Selecting a missing or Wall tile, or running without both a start and a
// goal, is invalid input and leaves the engine unchanged. Not finding a path
// is a normal result.
package engine
