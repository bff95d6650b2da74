// Package world provides the tile grid, terrain, fixtures and the village layout.
// Cells use integer (x, y) coordinates with y growing downward.
package world

import "math"

// Cell is an integer grid coordinate.
type Cell struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Add returns c offset by d.
func (c Cell) Add(d Cell) Cell {
	return Cell{X: c.X + d.X, Y: c.Y + d.Y}
}

// Vec2 is a continuous world position. One cell spans one unit.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Dist returns the Euclidean distance between two positions.
func (v Vec2) Dist(o Vec2) float64 {
	return math.Hypot(v.X-o.X, v.Y-o.Y)
}

// Cardinal and diagonal neighbour offsets. Order matters: the pathfinder
// expands neighbours in this order, which fixes tie-breaking between equal paths.
var (
	CardinalDirections = [4]Cell{
		{X: 0, Y: -1}, // N
		{X: 1, Y: 0},  // E
		{X: 0, Y: 1},  // S
		{X: -1, Y: 0}, // W
	}
	DiagonalDirections = [4]Cell{
		{X: 1, Y: -1},  // NE
		{X: 1, Y: 1},   // SE
		{X: -1, Y: 1},  // SW
		{X: -1, Y: -1}, // NW
	}
)

// Chebyshev returns max(|dx|, |dy|).
func Chebyshev(a, b Cell) int {
	dx, dy := abs(a.X-b.X), abs(a.Y-b.Y)
	if dx > dy {
		return dx
	}
	return dy
}

// Manhattan returns |dx| + |dy|.
func Manhattan(a, b Cell) int {
	return abs(a.X-b.X) + abs(a.Y-b.Y)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
