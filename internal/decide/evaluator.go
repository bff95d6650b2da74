// Package decide picks what a villager does next. Each tick it scans needs
// for one urgent enough to interrupt the current action; when the agent is
// idle it scans nearby fixtures, then falls back to idling or wandering.
package decide

import (
	"log/slog"
	"math/rand"
	"sort"

	"github.com/talgya/villagesim/internal/actions"
	"github.com/talgya/villagesim/internal/agents"
	"github.com/talgya/villagesim/internal/world"
)

// ItemLookup finds fixtures around a cell.
type ItemLookup interface {
	ScanAround(center world.Cell, radius int) []*world.Fixture
	Nearest(center world.Cell, kind world.FixtureKind, usable func(*world.Fixture) bool) *world.Fixture
}

// Interactable offers candidate actions for one fixture.
type Interactable interface {
	CandidateActions(ag *agents.Agent) []agents.Action
}

// Population finds other agents near a cell.
type Population interface {
	Nearby(center world.Cell, radius int) []*agents.Agent
}

// Tuning holds the decision constants.
type Tuning struct {
	MinScore     float64 `yaml:"min_score"`
	SwitchMargin float64 `yaml:"switch_margin"`
	Cooldown     float64 `yaml:"cooldown"` // Sim-seconds before a need may be chosen again
	SightRadius  int     `yaml:"sight_radius"`

	// WorkInterruptNeeds may preempt a work action.
	WorkInterruptNeeds []agents.NeedKind `yaml:"-"`

	// TypeMod scales each need's score.
	TypeMod [agents.NumNeeds]float64 `yaml:"-"`

	IdleWeight   float64 `yaml:"idle_weight"`
	WanderWeight float64 `yaml:"wander_weight"`
}

// DefaultTuning returns the stock decision constants.
func DefaultTuning() Tuning {
	t := Tuning{
		MinScore:     50,
		SwitchMargin: 1.2,
		Cooldown:     10,
		SightRadius:  12,
		WorkInterruptNeeds: []agents.NeedKind{
			agents.NeedSocial, agents.NeedMood, agents.NeedSleep, agents.NeedHygiene,
		},
		IdleWeight:   0.5,
		WanderWeight: 0.4,
	}
	for i := range t.TypeMod {
		t.TypeMod[i] = 1
	}
	t.TypeMod[agents.NeedHunger] = 1.2
	t.TypeMod[agents.NeedToilet] = 1.1
	t.TypeMod[agents.NeedSocial] = 0.7
	t.TypeMod[agents.NeedMood] = 0.6
	t.TypeMod[agents.NeedHealth] = 1.3
	return t
}

// Evaluator implements agents.Decider.
type Evaluator struct {
	Env      *actions.Env
	Items    ItemLookup
	People   Population
	Registry *actions.Registry
	Areas    func(world.Cell) world.Area
	Tuning   Tuning
	Rng      *rand.Rand

	resolvers [agents.NumNeeds]resolver
}

type resolver func(e *Evaluator, ag *agents.Agent) agents.Action

// New wires an evaluator.
func New(env *actions.Env, items ItemLookup, people Population, reg *actions.Registry, areas func(world.Cell) world.Area, tuning Tuning, rng *rand.Rand) *Evaluator {
	e := &Evaluator{
		Env:      env,
		Items:    items,
		People:   people,
		Registry: reg,
		Areas:    areas,
		Tuning:   tuning,
		Rng:      rng,
	}
	e.resolvers = [agents.NumNeeds]resolver{
		agents.NeedHunger:  resolveHunger,
		agents.NeedToilet:  resolveToilet,
		agents.NeedSocial:  resolveSocial,
		agents.NeedMood:    resolveMood,
		agents.NeedSleep:   resolveSleep,
		agents.NeedHygiene: resolveHygiene,
		agents.NeedHealth:  resolveHealth,
	}
	return e
}

type candidate struct {
	need  agents.NeedKind
	score float64
}

// Score returns the weighted utility of acting on k now.
func (e *Evaluator) Score(ag *agents.Agent, k agents.NeedKind) float64 {
	mod := e.Tuning.TypeMod[k]
	if k == agents.NeedHunger && !e.foodAvailable(ag) {
		mod = 0
	}
	return agents.Score(ag.Needs.Get(k), ag.Needs.Get(agents.NeedMood)) * mod
}

// Interrupt runs the need scan and force-registers the winner.
func (e *Evaluator) Interrupt(ag *agents.Agent) {
	b := ag.Brain
	cur := b.Current()
	if cur != nil && !cur.State().CanBeInterrupted {
		return
	}

	curNeed := agents.NeedNone
	atWork := false
	if cur != nil {
		curNeed = cur.State().Need
		atWork = cur.State().Work
	}
	curScore := 0.0
	if curNeed != agents.NeedNone {
		curScore = e.Score(ag, curNeed)
	}

	queued := make(map[agents.NeedKind]bool)
	for _, q := range b.QueuedActions() {
		queued[q.State().Need] = true
	}

	var cands []candidate
	for k := agents.NeedKind(0); k < agents.NumNeeds; k++ {
		if k == curNeed || queued[k] || b.NeedCooling(k, e.Tuning.Cooldown) {
			continue
		}
		if atWork && !e.preemptsWork(k) {
			continue
		}
		s := e.Score(ag, k)
		if s < e.Tuning.MinScore {
			continue
		}
		if curNeed != agents.NeedNone && s < curScore*e.Tuning.SwitchMargin {
			continue
		}
		cands = append(cands, candidate{need: k, score: s})
	}
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].score > cands[j].score })

	for _, c := range cands {
		act := e.resolvers[c.need](e, ag)
		if act == nil {
			continue
		}
		act.State().Need = c.need
		if !b.RegisterAction(act, true) {
			actions.Release(act)
			continue
		}
		b.MarkNeed(c.need)
		slog.Debug("need action", "agent", ag.ID, "need", c.need.String(), "score", c.score, "action", act.State().Name)
		return
	}
}

func (e *Evaluator) preemptsWork(k agents.NeedKind) bool {
	for _, w := range e.Tuning.WorkInterruptNeeds {
		if w == k {
			return true
		}
	}
	return false
}

// Idle scans nearby fixtures for the best scoring action, falling back to
// idling or wandering.
func (e *Evaluator) Idle(ag *agents.Agent) {
	if best := e.scanEnvironment(ag); best != nil {
		if ag.Brain.RegisterAction(best, false) {
			return
		}
		actions.Release(best)
	}

	r := e.Rng.Float64()
	switch {
	case r < e.Tuning.IdleWeight:
		ag.Brain.RegisterAction(agents.Get[actions.Idle](e.Env.Pool).Setup(e.Env, 0), false)
	case r < e.Tuning.IdleWeight+e.Tuning.WanderWeight:
		ag.Brain.RegisterAction(agents.Get[actions.Wander](e.Env.Pool).Setup(e.Env), false)
	}
}

func (e *Evaluator) scanEnvironment(ag *agents.Agent) agents.Action {
	if e.Registry == nil {
		return nil
	}
	var best agents.Action
	bestScore := 0.0
	for _, f := range e.Items.ScanAround(ag.Cell, e.Tuning.SightRadius) {
		area := world.AreaPublic
		if e.Areas != nil {
			area = e.Areas(f.Access)
		}
		var it Interactable = e.Registry.Bind(e.Env, f)
		for _, act := range it.CandidateActions(ag) {
			s := 0.0
			if sc, ok := act.(agents.Scorer); ok {
				s = sc.Evaluate(ag, area)
			}
			if s > bestScore {
				actions.Release(best)
				best, bestScore = act, s
				continue
			}
			actions.Release(act)
		}
	}
	return best
}

// foodAvailable reports whether hunger can be acted on at all: food carried,
// a usable stove, or a free restaurant seat.
func (e *Evaluator) foodAvailable(ag *agents.Agent) bool {
	if e.Env.Catalog.FoodCount(ag.Inventory) > 0 {
		return true
	}
	if e.Items.Nearest(ag.Cell, world.FixtureStove, usableBy(ag)) != nil {
		return true
	}
	return e.Items.Nearest(ag.Cell, world.FixtureSeat, usableBy(ag)) != nil
}

func usableBy(ag *agents.Agent) func(*world.Fixture) bool {
	return func(f *world.Fixture) bool {
		return f.UsableBy(ag.Owner(), ag.HomeID)
	}
}

// atHome accepts free fixtures in ag's own house.
func atHome(ag *agents.Agent) func(*world.Fixture) bool {
	return func(f *world.Fixture) bool {
		return f.HouseID != 0 && f.HouseID == ag.HomeID && f.UsableBy(ag.Owner(), ag.HomeID)
	}
}
