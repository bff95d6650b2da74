// Package pathfind implements A* search over the 8-connected tile grid.
//
// The heuristic is Manhattan distance even though diagonal steps cost √2. It
// biases agents toward cardinal movement and can return non-optimal paths in
// mixed terrain; agent movement is tuned around that. Closed cells are never
// reopened when a cheaper route to them appears later.
package pathfind

import (
	"math"
	"sort"

	"github.com/talgya/villagesim/internal/world"
)

// Default search limits.
const (
	DefaultMaxSteps = 20000
	DefaultMaxRange = 30
)

// Limits bounds a search. Zero fields take the defaults.
type Limits struct {
	MaxSteps int `yaml:"max_steps"` // Node expansions before giving up
	MaxRange int `yaml:"max_range"` // Chebyshev distance start→goal beyond which no search runs
}

// DefaultLimits returns the standard limits.
func DefaultLimits() Limits {
	return Limits{MaxSteps: DefaultMaxSteps, MaxRange: DefaultMaxRange}
}

func (l Limits) normalized() Limits {
	if l.MaxSteps <= 0 {
		l.MaxSteps = DefaultMaxSteps
	}
	if l.MaxRange <= 0 {
		l.MaxRange = DefaultMaxRange
	}
	return l
}

type node struct {
	cell   world.Cell
	g, h   float64
	parent *node
}

func (n *node) f() float64 { return n.g + n.h }

// FindPath returns the cells from start to goal inclusive, or nil,false when
// the goal is out of range, unreachable, or the step budget runs out.
// walkable must be a pure predicate; it is never called when the range guard trips.
func FindPath(start, goal world.Cell, walkable func(world.Cell) bool, lim Limits) ([]world.Cell, bool) {
	lim = lim.normalized()

	if world.Chebyshev(start, goal) > lim.MaxRange {
		return nil, false
	}
	if start == goal {
		return []world.Cell{start}, true
	}

	open := []*node{{cell: start, h: heuristic(start, goal)}}
	openIndex := map[world.Cell]*node{start: open[0]}
	closed := make(map[world.Cell]bool)

	steps := 0
	for len(open) > 0 {
		if steps >= lim.MaxSteps {
			return nil, false
		}
		steps++

		// Stable sort keeps insertion order among equal F values.
		sort.SliceStable(open, func(i, j int) bool {
			return open[i].f() < open[j].f()
		})
		cur := open[0]
		open = open[1:]
		delete(openIndex, cur.cell)

		if cur.cell == goal {
			return reconstruct(cur), true
		}
		closed[cur.cell] = true

		for _, d := range world.CardinalDirections {
			relax(cur, cur.cell.Add(d), 1, goal, walkable, closed, openIndex, &open)
		}
		for _, d := range world.DiagonalDirections {
			// No corner cutting: both flanking orthogonal cells must be walkable.
			if !walkable(cur.cell.Add(world.Cell{X: d.X})) || !walkable(cur.cell.Add(world.Cell{Y: d.Y})) {
				continue
			}
			relax(cur, cur.cell.Add(d), math.Sqrt2, goal, walkable, closed, openIndex, &open)
		}
	}

	return nil, false
}

func relax(cur *node, next world.Cell, cost float64, goal world.Cell,
	walkable func(world.Cell) bool, closed map[world.Cell]bool,
	openIndex map[world.Cell]*node, open *[]*node) {

	if closed[next] || !walkable(next) {
		return
	}
	g := cur.g + cost
	if existing, ok := openIndex[next]; ok {
		if g < existing.g {
			existing.g = g
			existing.parent = cur
		}
		return
	}
	n := &node{cell: next, g: g, h: heuristic(next, goal), parent: cur}
	openIndex[next] = n
	*open = append(*open, n)
}

func heuristic(a, b world.Cell) float64 {
	return float64(world.Manhattan(a, b))
}

func reconstruct(n *node) []world.Cell {
	var path []world.Cell
	for ; n != nil; n = n.parent {
		path = append(path, n.cell)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// PathCost sums step costs along a path (1 cardinal, √2 diagonal).
func PathCost(path []world.Cell) float64 {
	total := 0.0
	for i := 1; i < len(path); i++ {
		if path[i].X != path[i-1].X && path[i].Y != path[i-1].Y {
			total += math.Sqrt2
		} else {
			total++
		}
	}
	return total
}
