package grid

import (
	"fmt"
	"strings"
)

// neighborOffsets is the fixed expansion order: up, down, left, right
var neighborOffsets = [4]Coord{
	{X: 0, Y: 1},
	{X: 0, Y: -1},
	{X: -1, Y: 0},
	{X: 1, Y: 0},
}

// Grid is a width x height arena of tiles stored row-major by coordinate
type Grid struct {
	width  int
	height int
	tiles  []Tile
}

// Markers holds the optional S and G positions found in a layout
type Markers struct {
	Start *Coord
	Goal  *Coord
}

// New creates an all-Open grid
func New(width, height int) (*Grid, error) {
	if width < MinSize || width > MaxSize || height < MinSize || height > MaxSize {
		return nil, fmt.Errorf("%w: %dx%d (allowed %d-%d)", ErrInvalidDimensions, width, height, MinSize, MaxSize)
	}

	g := &Grid{
		width:  width,
		height: height,
		tiles:  make([]Tile, width*height),
	}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			g.tiles[y*width+x] = Tile{Coord: Coord{X: x, Y: y}, Kind: Open}
		}
	}
	return g, nil
}

// FromLayout builds a grid from layout rows. The first row is the top of the
// board (y = height-1). S and G mark the start and goal and are Open tiles.
func FromLayout(rows []string) (*Grid, Markers, error) {
	var markers Markers
	if len(rows) == 0 {
		return nil, markers, fmt.Errorf("%w: no rows", ErrInvalidLayout)
	}

	width := len(rows[0])
	g, err := New(width, len(rows))
	if err != nil {
		return nil, markers, err
	}

	for i, row := range rows {
		if len(row) != width {
			return nil, markers, fmt.Errorf("%w: row %d has length %d, expected %d", ErrInvalidLayout, i, len(row), width)
		}
		y := g.height - 1 - i
		for x := 0; x < width; x++ {
			c := Coord{X: x, Y: y}
			t := &g.tiles[g.index(c)]
			switch row[x] {
			case charOpen, charOpenAlt:
				t.Kind = Open
			case charSwamp, charSwampAlt:
				t.Kind = Swamp
			case charWall, charWallAlt:
				t.Kind = Wall
			case charStart:
				if markers.Start != nil {
					return nil, markers, fmt.Errorf("%w: more than one start marker", ErrInvalidLayout)
				}
				markers.Start = &c
			case charGoal:
				if markers.Goal != nil {
					return nil, markers, fmt.Errorf("%w: more than one goal marker", ErrInvalidLayout)
				}
				markers.Goal = &c
			default:
				return nil, markers, fmt.Errorf("%w: unknown character %q at row %d col %d", ErrInvalidLayout, row[x], i, x)
			}
		}
	}
	return g, markers, nil
}

func (g *Grid) Width() int  { return g.width }
func (g *Grid) Height() int { return g.height }

// Count returns the number of tiles
func (g *Grid) Count() int { return len(g.tiles) }

func (g *Grid) index(c Coord) int {
	return c.Y*g.width + c.X
}

// InBounds reports whether c lies inside [0,width) x [0,height)
func (g *Grid) InBounds(c Coord) bool {
	return c.X >= 0 && c.X < g.width && c.Y >= 0 && c.Y < g.height
}

// Tile returns the tile at c, or false when c is outside the grid
func (g *Grid) Tile(c Coord) (Tile, bool) {
	if !g.InBounds(c) {
		return Tile{}, false
	}
	return g.tiles[g.index(c)], true
}

// SetKind changes the terrain of the tile at c
func (g *Grid) SetKind(c Coord, kind TerrainKind) error {
	if !g.InBounds(c) {
		return fmt.Errorf("%w: (%d,%d)", ErrOutOfBounds, c.X, c.Y)
	}
	if !kind.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownTerrain, kind)
	}
	g.tiles[g.index(c)].Kind = kind
	return nil
}

// ResetTerrain sets every tile back to Open
func (g *Grid) ResetTerrain() {
	for i := range g.tiles {
		g.tiles[i].Kind = Open
	}
}

// Neighbors returns the in-bounds tiles adjacent to c in up, down, left,
// right order. Walls are included; callers decide passability.
func (g *Grid) Neighbors(c Coord) []Tile {
	return g.AppendNeighbors(make([]Tile, 0, len(neighborOffsets)), c)
}

// AppendNeighbors is Neighbors without the allocation
func (g *Grid) AppendNeighbors(dst []Tile, c Coord) []Tile {
	for _, off := range neighborOffsets {
		n := Coord{X: c.X + off.X, Y: c.Y + off.Y}
		if !g.InBounds(n) {
			continue
		}
		dst = append(dst, g.tiles[g.index(n)])
	}
	return dst
}

// CountKind returns how many tiles have the given terrain
func (g *Grid) CountKind(kind TerrainKind) int {
	n := 0
	for _, t := range g.tiles {
		if t.Kind == kind {
			n++
		}
	}
	return n
}

// Tiles returns a copy of all tiles in row-major order starting at (0,0)
func (g *Grid) Tiles() []Tile {
	out := make([]Tile, len(g.tiles))
	copy(out, g.tiles)
	return out
}

// Clone returns an independent copy of the grid
func (g *Grid) Clone() *Grid {
	return &Grid{
		width:  g.width,
		height: g.height,
		tiles:  g.Tiles(),
	}
}

// Layout renders the terrain as rows, top row first
func (g *Grid) Layout() []string {
	rows := make([]string, 0, g.height)
	var b strings.Builder
	for y := g.height - 1; y >= 0; y-- {
		b.Reset()
		for x := 0; x < g.width; x++ {
			b.WriteByte(g.tiles[g.index(Coord{X: x, Y: y})].Kind.layoutChar())
		}
		rows = append(rows, b.String())
	}
	return rows
}

// Cost returns the traversal cost of entering t. Swamp costs 2, everything
// else 1. Walls are never entered and must be filtered by the caller.
func Cost(t Tile) float64 {
	if t.Kind == Swamp {
		return 2
	}
	return 1
}
