package actions

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/talgya/villagesim/internal/agents"
	"github.com/talgya/villagesim/internal/catalog"
	"github.com/talgya/villagesim/internal/clock"
	"github.com/talgya/villagesim/internal/pathfind"
	"github.com/talgya/villagesim/internal/world"
)

type rig struct {
	env   *Env
	grid  *world.Grid
	items *world.Items
	clk   *clock.Game
}

func newRig(t *testing.T) *rig {
	t.Helper()
	cat, err := catalog.Default()
	require.NoError(t, err)

	g := world.NewGrid(16, 16)
	items := world.NewItems()
	clk := clock.NewGame(8*clock.Hour, 1, 1)
	return &rig{
		env: &Env{
			World:   g,
			Items:   items,
			Catalog: cat,
			Pool:    agents.NewPool(),
			Clock:   clk,
			Limits:  pathfind.DefaultLimits(),
			Rates:   DefaultRates(),
			Rng:     rand.New(rand.NewSource(1)),
		},
		grid:  g,
		items: items,
		clk:   clk,
	}
}

func (r *rig) agent(id agents.AgentID, at world.Cell) *agents.Agent {
	ag := &agents.Agent{
		ID:        id,
		Name:      fmt.Sprintf("villager %d", id),
		Inventory: agents.Inventory{},
		Needs:     agents.FullNeeds(),
		Coins:     20,
	}
	ag.Place(at, r.grid)
	agents.NewBrain(ag, r.env.Pool, nil, 0)
	return ag
}

func (r *rig) fixture(kind world.FixtureKind, at, access world.Cell, house uint64) *world.Fixture {
	r.grid.Get(at).Solid = true
	return r.items.Add(kind, at, access, house)
}

// run steps the clock and updates every agent n times.
func (r *rig) run(dt float64, n int, ags ...*agents.Agent) {
	for i := 0; i < n; i++ {
		r.clk.Step(dt)
		for _, ag := range ags {
			ag.Update(dt)
		}
	}
}

// runUntilIdle ticks ag until its brain has nothing left, at most max times.
func (r *rig) runUntilIdle(ag *agents.Agent, max int) int {
	for i := 0; i < max; i++ {
		r.run(1, 1, ag)
		if ag.Brain.Idle() {
			return i + 1
		}
	}
	return max
}
