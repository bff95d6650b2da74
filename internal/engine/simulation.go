// Simulation ties together all village systems and runs them each tick.
package engine

import (
	"fmt"
	"log/slog"
	"math/rand"
	"sync"

	"github.com/talgya/villagesim/internal/actions"
	"github.com/talgya/villagesim/internal/agents"
	"github.com/talgya/villagesim/internal/catalog"
	"github.com/talgya/villagesim/internal/clock"
	"github.com/talgya/villagesim/internal/decide"
	"github.com/talgya/villagesim/internal/pathfind"
	"github.com/talgya/villagesim/internal/schedule"
	"github.com/talgya/villagesim/internal/world"
)

// Options are the gameplay constants the simulation is built with.
type Options struct {
	Decide        decide.Tuning
	Rates         actions.Rates
	Limits        pathfind.Limits
	Decay         agents.DecayRates
	GrowthRate    float64 // Field growth points per sim-second
	AgentsPerTick int     // Brains updated per tick, 0 = all
	EventLog      int
	Seed          int64
}

// DefaultOptions returns the stock constants.
func DefaultOptions() Options {
	return Options{
		Decide:     decide.DefaultTuning(),
		Rates:      actions.DefaultRates(),
		Limits:     pathfind.DefaultLimits(),
		Decay:      agents.DefaultDecayRates(),
		GrowthRate: 12.0 / clock.Hour,
		EventLog:   1000,
		Seed:       1,
	}
}

// Simulation holds the complete village state. Tick mutates it under the
// write lock; observers read through the locked accessors.
type Simulation struct {
	mu sync.RWMutex

	Grid    *world.Grid
	Items   *world.Items
	Village *world.Village
	Catalog *catalog.Catalog
	Clock   *clock.Game
	Pool    *agents.Pool
	Env     *actions.Env
	Eval    *decide.Evaluator
	Events  *EventLog

	Agents     []*agents.Agent
	AgentIndex map[agents.AgentID]*agents.Agent

	LastTick uint64
	Stats    SimStats

	opts    Options
	runners map[agents.AgentID]*schedule.Runner
	pending map[agents.AgentID]float64 // Sim-seconds owed to brains skipped by the tick budget
	cursor  int
	view    *tickView
}

// tickView is the clock as one brain update sees it: a chunked update
// reports the sim-time owed to that agent as its delta.
type tickView struct {
	*clock.Game
	dt float64
}

func (v *tickView) DeltaTime() float64 { return v.dt }

// NewSimulation wires a village from generated or restored parts.
func NewSimulation(g *world.Grid, items *world.Items, v *world.Village, cat *catalog.Catalog, clk *clock.Game, ags []*agents.Agent, opts Options) *Simulation {
	s := &Simulation{
		Grid:       g,
		Items:      items,
		Village:    v,
		Catalog:    cat,
		Clock:      clk,
		Pool:       agents.NewPool(),
		Events:     NewEventLog(opts.EventLog),
		AgentIndex: make(map[agents.AgentID]*agents.Agent, len(ags)),
		opts:       opts,
		runners:    make(map[agents.AgentID]*schedule.Runner),
		pending:    make(map[agents.AgentID]float64),
		view:       &tickView{Game: clk},
	}
	s.Env = &actions.Env{
		World:   g,
		Items:   items,
		Village: v,
		Catalog: cat,
		Pool:    s.Pool,
		Clock:   s.view,
		Limits:  opts.Limits,
		Rates:   opts.Rates,
		Rng:     rand.New(rand.NewSource(opts.Seed + 500)),
	}
	s.Eval = decide.New(s.Env, items, s, actions.DefaultRegistry(), g.AreaAt, opts.Decide, rand.New(rand.NewSource(opts.Seed+600)))

	for _, ag := range ags {
		s.addAgent(ag)
	}
	s.updateStats()
	return s
}

func (s *Simulation) addAgent(ag *agents.Agent) {
	if ag.Inventory == nil {
		ag.Inventory = agents.Inventory{}
	}
	s.Agents = append(s.Agents, ag)
	s.AgentIndex[ag.ID] = ag
	b := agents.NewBrain(ag, s.Pool, s.Eval, 0)
	b.Observe(actionEvents{s})
	if r := s.installJob(ag); r != nil {
		s.runners[ag.ID] = r
	}
}

// AddAgent brings a new villager into the running simulation.
func (s *Simulation) AddAgent(ag *agents.Agent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addAgent(ag)
	s.emit("arrival", ag.ID, fmt.Sprintf("%s moves into the village", ag.Name))
}

// Tick runs one step of dt sim-seconds: clock, needs, crops, routines and
// then the brains within the per-tick budget.
func (s *Simulation) Tick(tick uint64, dt float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.LastTick = tick
	s.Clock.Step(dt)
	s.view.dt = dt
	s.Items.Grow(dt, s.opts.GrowthRate)

	for _, ag := range s.Agents {
		agents.DecayNeeds(ag, dt, s.opts.Decay)
		if r := s.runners[ag.ID]; r != nil {
			r.Tick(s.Clock)
		}
		s.pending[ag.ID] += dt
	}

	for _, ag := range s.batch() {
		owed := s.pending[ag.ID]
		s.pending[ag.ID] = 0
		s.view.dt = owed
		ag.Update(owed)
	}
	s.view.dt = dt
}

// batch returns the agents whose brains run this tick, round robin.
func (s *Simulation) batch() []*agents.Agent {
	n := s.opts.AgentsPerTick
	if n <= 0 || n >= len(s.Agents) {
		return s.Agents
	}
	out := make([]*agents.Agent, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, s.Agents[(s.cursor+i)%len(s.Agents)])
	}
	s.cursor = (s.cursor + n) % len(s.Agents)
	return out
}

// TickHour refreshes statistics.
func (s *Simulation) TickHour(tick uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updateStats()
	slog.Debug("hourly", "tick", tick, "time", s.Clock.String(), "busy", s.Stats.Busy, "at_work", s.Stats.AtWork)
}

// TickDay logs the daily report.
func (s *Simulation) TickDay(tick uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updateStats()

	slog.Info("daily report",
		"tick", tick,
		"time", s.Clock.String(),
		"population", s.Stats.Population,
		"avg_satisfaction", fmt.Sprintf("%.1f", s.Stats.AvgSatisfaction),
		"avg_hunger", fmt.Sprintf("%.1f", s.Stats.AvgNeeds["hunger"]),
		"total_coins", s.Stats.TotalCoins,
		"food_stock", s.Stats.FoodStock,
		"ripe_fields", s.Stats.RipeFields,
		"pool_created", s.Stats.Pool.Created,
		"pool_reused", s.Stats.Pool.Reused,
		"events", s.Events.Len(),
	)
	s.emit("day", 0, fmt.Sprintf("%s begins", clock.DayName(s.Clock.Day())))
}

// Nearby returns agents within radius (Chebyshev) of center. It runs inside
// the tick and takes no lock.
func (s *Simulation) Nearby(center world.Cell, radius int) []*agents.Agent {
	var out []*agents.Agent
	for _, ag := range s.Agents {
		if world.Chebyshev(center, ag.Cell) <= radius {
			out = append(out, ag)
		}
	}
	return out
}

// Read runs fn while holding the read lock.
func (s *Simulation) Read(fn func()) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn()
}

// EmitEvent records an event from outside the tick.
func (s *Simulation) EmitEvent(category string, agent agents.AgentID, desc string) Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.emit(category, agent, desc)
}

func (s *Simulation) emit(category string, agent agents.AgentID, desc string) Event {
	return s.Events.Emit(Event{
		Tick:        s.LastTick,
		SimTime:     s.Clock.String(),
		Category:    category,
		Agent:       agent,
		Description: desc,
	})
}

// actionEvents turns finished actions into events.
type actionEvents struct {
	s *Simulation
}

// Routine actions that would flood the log.
var quietActions = map[string]bool{
	"idle":    true,
	"wander":  true,
	"wait":    true,
	"move to": true,
}

func (o actionEvents) ActionRegistered(*agents.Agent, agents.Action) {}

func (o actionEvents) ActionProgress(*agents.Agent, agents.Action, float64) {}

func (o actionEvents) ActionCompleted(ag *agents.Agent, act agents.Action, ok bool) {
	name := act.State().Name
	if quietActions[name] {
		return
	}
	verb := "finished"
	if !ok {
		verb = "gave up on"
	}
	o.s.emit("action", ag.ID, fmt.Sprintf("%s %s %s", ag.Name, verb, name))
}
