package pathfind

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/villagesim/internal/world"
)

// openGrid returns a predicate for a w×h grid with the given blocked cells.
func openGrid(w, h int, blocked ...world.Cell) func(world.Cell) bool {
	wall := make(map[world.Cell]bool, len(blocked))
	for _, c := range blocked {
		wall[c] = true
	}
	return func(c world.Cell) bool {
		return c.X >= 0 && c.Y >= 0 && c.X < w && c.Y < h && !wall[c]
	}
}

func TestFindPath_OpenGridDiagonal(t *testing.T) {
	path, ok := FindPath(world.Cell{}, world.Cell{X: 5, Y: 5}, openGrid(10, 10), DefaultLimits())
	require.True(t, ok)
	require.Len(t, path, 6)

	for i, c := range path {
		assert.Equal(t, world.Cell{X: i, Y: i}, c)
	}
	assert.InDelta(t, 5*math.Sqrt2, PathCost(path), 1e-9)
}

func TestFindPath_Deterministic(t *testing.T) {
	walk := openGrid(12, 12,
		world.Cell{X: 3, Y: 0}, world.Cell{X: 3, Y: 1}, world.Cell{X: 3, Y: 2}, world.Cell{X: 3, Y: 3},
		world.Cell{X: 6, Y: 5}, world.Cell{X: 6, Y: 6}, world.Cell{X: 6, Y: 7}, world.Cell{X: 6, Y: 8},
	)
	first, ok := FindPath(world.Cell{X: 0, Y: 0}, world.Cell{X: 10, Y: 9}, walk, DefaultLimits())
	require.True(t, ok)

	for i := 0; i < 20; i++ {
		again, ok := FindPath(world.Cell{X: 0, Y: 0}, world.Cell{X: 10, Y: 9}, walk, DefaultLimits())
		require.True(t, ok)
		assert.Equal(t, first, again)
	}
}

func TestFindPath_NoCornerCutting(t *testing.T) {
	start, goal := world.Cell{X: 1, Y: 1}, world.Cell{X: 2, Y: 2}

	t.Run("routes around when flanks blocked", func(t *testing.T) {
		walk := openGrid(5, 5, world.Cell{X: 2, Y: 1}, world.Cell{X: 1, Y: 2})
		path, ok := FindPath(start, goal, walk, DefaultLimits())
		require.True(t, ok)
		assert.Greater(t, len(path), 2, "must not take the direct diagonal")
		for i := 1; i < len(path); i++ {
			a, b := path[i-1], path[i]
			if a.X != b.X && a.Y != b.Y {
				assert.True(t, walk(world.Cell{X: b.X, Y: a.Y}) && walk(world.Cell{X: a.X, Y: b.Y}),
					"diagonal step %v→%v cuts a corner", a, b)
			}
		}
	})

	t.Run("fails when no alternative exists", func(t *testing.T) {
		// 2×2 grid with both flank cells blocked.
		walk := openGrid(2, 2, world.Cell{X: 1, Y: 0}, world.Cell{X: 0, Y: 1})
		path, ok := FindPath(world.Cell{}, world.Cell{X: 1, Y: 1}, walk, DefaultLimits())
		assert.False(t, ok)
		assert.Nil(t, path)
	})

	t.Run("one open flank is not enough", func(t *testing.T) {
		walk := openGrid(5, 5, world.Cell{X: 2, Y: 1})
		path, ok := FindPath(start, goal, walk, DefaultLimits())
		require.True(t, ok)
		assert.Len(t, path, 3)
		assert.InDelta(t, 2.0, PathCost(path), 1e-9)
	})
}

func TestFindPath_RangeGuardSkipsSearch(t *testing.T) {
	called := false
	walk := func(world.Cell) bool {
		called = true
		return true
	}

	path, ok := FindPath(world.Cell{}, world.Cell{X: 31, Y: 0}, walk, DefaultLimits())
	assert.False(t, ok)
	assert.Nil(t, path)
	assert.False(t, called, "walkability predicate must not run when the goal is out of range")

	_, ok = FindPath(world.Cell{}, world.Cell{X: 3, Y: 0}, walk, Limits{MaxRange: 2})
	assert.False(t, ok)
	assert.False(t, called)
}

func TestFindPath_Failures(t *testing.T) {
	tests := []struct {
		name string
		walk func(world.Cell) bool
		goal world.Cell
		lim  Limits
	}{
		{
			name: "walled off goal",
			walk: openGrid(10, 10,
				world.Cell{X: 4, Y: 5}, world.Cell{X: 6, Y: 5}, world.Cell{X: 5, Y: 4}, world.Cell{X: 5, Y: 6},
				world.Cell{X: 4, Y: 4}, world.Cell{X: 6, Y: 6}, world.Cell{X: 4, Y: 6}, world.Cell{X: 6, Y: 4},
			),
			goal: world.Cell{X: 5, Y: 5},
			lim:  DefaultLimits(),
		},
		{
			name: "unwalkable goal",
			walk: openGrid(10, 10, world.Cell{X: 7, Y: 7}),
			goal: world.Cell{X: 7, Y: 7},
			lim:  DefaultLimits(),
		},
		{
			name: "step budget exhausted",
			walk: openGrid(30, 30),
			goal: world.Cell{X: 25, Y: 3},
			lim:  Limits{MaxSteps: 3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, ok := FindPath(world.Cell{}, tt.goal, tt.walk, tt.lim)
			assert.False(t, ok)
			assert.Nil(t, path)
		})
	}
}

func TestFindPath_StartEqualsGoal(t *testing.T) {
	path, ok := FindPath(world.Cell{X: 2, Y: 2}, world.Cell{X: 2, Y: 2}, openGrid(4, 4), Limits{})
	require.True(t, ok)
	assert.Equal(t, []world.Cell{{X: 2, Y: 2}}, path)
}

func TestFindPath_AroundWall(t *testing.T) {
	// Vertical wall at x=2 from y=0..3; must go below it.
	walk := openGrid(5, 6,
		world.Cell{X: 2, Y: 0}, world.Cell{X: 2, Y: 1}, world.Cell{X: 2, Y: 2}, world.Cell{X: 2, Y: 3},
	)
	path, ok := FindPath(world.Cell{X: 0, Y: 0}, world.Cell{X: 4, Y: 0}, walk, DefaultLimits())
	require.True(t, ok)
	assert.Equal(t, world.Cell{X: 0, Y: 0}, path[0])
	assert.Equal(t, world.Cell{X: 4, Y: 0}, path[len(path)-1])
	for _, c := range path {
		assert.True(t, walk(c), "path crosses blocked cell %v", c)
	}
}
