// Package grid models the tile board searched by the pathfinder.
//
// A Grid is a fixed-size arena of tiles indexed by integer coordinate. Each
// tile carries a terrain kind (Open, Swamp or Wall) that may be edited between
// runs. Neighbor lookup is 4-connected and always returns tiles in the order
// up, down, left, right so that searches are reproducible.
//
// Layouts are plain strings, one per row, with the top row first:
//
//	g, start, goal, err := grid.FromLayout([]string{
//		"OOOOG",
//		"OWWWO",
//		"OTTTO",
//		"OOOOO",
//		"SOOOO",
//	})
package grid
