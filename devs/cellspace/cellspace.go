// Package cellspace provides the coordinate and addressing types shared by
// cell-space models: a CellEvent payload carrying a cell's coordinates
// alongside its value, and a Bounds describing the extent of a grid.
package cellspace

// CellEvent is the payload exchanged between neighboring cells: the
// originating cell's coordinates and whatever value it produced. Z is zero
// for a purely 2D grid.
type CellEvent[V any] struct {
	X, Y, Z int
	Value   V
}

// Bounds describes the extent of a 3D (or, with Depth 1, 2D) cell grid.
type Bounds struct {
	Width, Height, Depth int
}

// Contains reports whether (x, y, z) falls within the grid.
func (b Bounds) Contains(x, y, z int) bool {
	depth := b.Depth
	if depth <= 0 {
		depth = 1
	}
	return x >= 0 && x < b.Width && y >= 0 && y < b.Height && z >= 0 && z < depth
}

// Neighbors8 lists the (dx, dy) offsets of the 8-connected neighborhood in a
// single Z-plane.
var Neighbors8 = [8][2]int{
	{-1, -1}, {0, -1}, {1, -1},
	{-1, 0}, {1, 0},
	{-1, 1}, {0, 1}, {1, 1},
}
