package actions

import (
	"github.com/talgya/villagesim/internal/agents"
	"github.com/talgya/villagesim/internal/catalog"
	"github.com/talgya/villagesim/internal/world"
)

// Factory builds a configured candidate action for ag at fixture f, or nil
// when the fixture offers ag nothing.
type Factory func(env *Env, ag *agents.Agent, f *world.Fixture) agents.Action

// Registry maps fixture kinds to the actions they offer.
type Registry struct {
	byKind map[world.FixtureKind][]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byKind: make(map[world.FixtureKind][]Factory)}
}

// Register adds a factory for kind.
func (r *Registry) Register(kind world.FixtureKind, f Factory) {
	r.byKind[kind] = append(r.byKind[kind], f)
}

// Factories returns how many factories serve kind.
func (r *Registry) Factories(kind world.FixtureKind) int {
	return len(r.byKind[kind])
}

// Bind returns the interactable view of f.
func (r *Registry) Bind(env *Env, f *world.Fixture) Interactable {
	return Interactable{reg: r, env: env, Fixture: f}
}

// Interactable is a fixture paired with the registry that knows its actions.
type Interactable struct {
	reg     *Registry
	env     *Env
	Fixture *world.Fixture
}

// CandidateActions returns fresh pooled actions f offers ag. Callers release
// the ones they do not register.
func (i Interactable) CandidateActions(ag *agents.Agent) []agents.Action {
	var out []agents.Action
	for _, fac := range i.reg.byKind[i.Fixture.Kind] {
		if act := fac(i.env, ag, i.Fixture); act != nil {
			out = append(out, act)
		}
	}
	return out
}

// DefaultRegistry wires every fixture kind to its stock actions.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(world.FixtureBed, func(env *Env, ag *agents.Agent, f *world.Fixture) agents.Action {
		return agents.Get[Sleep](env.Pool).Setup(env, f)
	})
	r.Register(world.FixtureShower, func(env *Env, ag *agents.Agent, f *world.Fixture) agents.Action {
		return agents.Get[Wash](env.Pool).Setup(env, f)
	})
	r.Register(world.FixtureToilet, func(env *Env, ag *agents.Agent, f *world.Fixture) agents.Action {
		return agents.Get[UseToilet](env.Pool).Setup(env, f)
	})
	r.Register(world.FixtureBench, func(env *Env, ag *agents.Agent, f *world.Fixture) agents.Action {
		return agents.Get[Relax](env.Pool).Setup(env, f)
	})
	r.Register(world.FixtureSeat, func(env *Env, ag *agents.Agent, f *world.Fixture) agents.Action {
		if !f.UsableBy(ag.Owner(), ag.HomeID) {
			return nil
		}
		return agents.Get[DineOut](env.Pool).Setup(env, f)
	})
	r.Register(world.FixtureStove, func(env *Env, ag *agents.Agent, f *world.Fixture) agents.Action {
		if !f.UsableBy(ag.Owner(), ag.HomeID) {
			return nil
		}
		recipe, ok := env.Catalog.Satisfiable(catalog.StationStove, ag.Inventory)
		if !ok {
			return nil
		}
		cook := agents.Get[Cook](env.Pool).Setup(env, f, recipe)
		cook.Next = agents.Get[Eat](env.Pool).Setup(env, recipe.Output, 1)
		return cook
	})
	r.Register(world.FixtureMarketStall, func(env *Env, ag *agents.Agent, f *world.Fixture) agents.Action {
		item := bestStocked(env.Catalog, f)
		if item == "" {
			return nil
		}
		return agents.Get[Shop](env.Pool).Setup(env, f, item, 1)
	})
	return r
}

// bestStocked returns the most nutritious food a stall has in stock.
func bestStocked(c *catalog.Catalog, stall *world.Fixture) string {
	best, bestN := "", 0.0
	for _, id := range c.Foods() {
		if stall.Stock[id] <= 0 {
			continue
		}
		if n := c.Nutrition(id); n > bestN {
			best, bestN = id, n
		}
	}
	return best
}

// Release returns actions to their pool, cancelling any chains they carry.
func Release(acts ...agents.Action) {
	for _, a := range acts {
		if a == nil {
			continue
		}
		agents.Cancel(a)
		agents.Release(a)
	}
}
