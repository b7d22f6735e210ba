package grid

import (
	"fmt"
	"strings"
)

// TerrainKind is the traversal class of a tile
type TerrainKind string

const (
	Open  TerrainKind = "open"
	Swamp TerrainKind = "swamp"
	Wall  TerrainKind = "wall"

	// Size limits for generated and loaded grids
	MinSize = 1
	MaxSize = 100
)

// Layout characters
const (
	charOpen     = 'O'
	charOpenAlt  = '.'
	charSwamp    = 'T'
	charSwampAlt = '~'
	charWall     = 'W'
	charWallAlt  = '#'
	charStart    = 'S'
	charGoal     = 'G'
)

// ParseTerrainKind accepts a kind name or its single-letter layout code
func ParseTerrainKind(s string) (TerrainKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "open", "o", ".":
		return Open, nil
	case "swamp", "t", "~":
		return Swamp, nil
	case "wall", "w", "#":
		return Wall, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTerrain, s)
}

// Valid reports whether k is one of the known kinds
func (k TerrainKind) Valid() bool {
	return k == Open || k == Swamp || k == Wall
}

// Passable reports whether searches may enter a tile of this kind
func (k TerrainKind) Passable() bool {
	return k != Wall
}

func (k TerrainKind) String() string {
	return string(k)
}

// UnmarshalText allows kinds to be given as names or layout letters in JSON and HCL
func (k *TerrainKind) UnmarshalText(b []byte) error {
	parsed, err := ParseTerrainKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

func (k TerrainKind) layoutChar() byte {
	switch k {
	case Swamp:
		return charSwamp
	case Wall:
		return charWall
	}
	return charOpen
}

// Coord is an integer grid coordinate. Y grows upward.
type Coord struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// String renders the coordinate using the tile naming scheme, e.g. Tile_2_3
func (c Coord) String() string {
	return fmt.Sprintf("Tile_%d_%d", c.X, c.Y)
}

// Adjacent reports whether o differs from c by one step on exactly one axis
func (c Coord) Adjacent(o Coord) bool {
	dx, dy := abs(c.X-o.X), abs(c.Y-o.Y)
	return dx+dy == 1
}

// Tile is a single board square
type Tile struct {
	Coord
	Kind TerrainKind `json:"kind"`
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
