// Package config provides the map library: reusable board templates stored
// as files in a directory.
//
// Maps are JSON (.json) or HCL (.hcl) files describing an engine.MapConfig.
// A layout uses one character per tile: O or . for open ground, T or ~ for
// swamp, W or # for wall, and S and G for the start and goal. The first row
// is the top of the board.
//
//	name        = "walled_goal"
//	description = "Goal boxed in by walls"
//	strategy    = "astar"
//	heuristic   = "manhattan"
//	layout = [
//	  "OOOOO",
//	  "OOWOO",
//	  "OWGWO",
//	  "OOWOO",
//	  "SOOOO",
//	]
//
// Loaded maps are validated and cached. The map named "classic" is the
// default; without it the first valid map is used, and without any valid map
// an open 5x5 board.
package config
