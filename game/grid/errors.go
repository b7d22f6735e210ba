package grid

import "errors"

var (
	ErrInvalidDimensions = errors.New("grid: dimensions out of range")
	ErrOutOfBounds       = errors.New("grid: coordinate out of bounds")
	ErrUnknownTerrain    = errors.New("grid: unknown terrain kind")
	ErrInvalidLayout     = errors.New("grid: invalid layout")
)
