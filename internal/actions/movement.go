package actions

import (
	"log/slog"

	"github.com/talgya/villagesim/internal/agents"
	"github.com/talgya/villagesim/internal/pathfind"
	"github.com/talgya/villagesim/internal/world"
)

// MoveTo walks the agent along an A* path to Target. The path is computed on
// registration; if a cell on it becomes blocked the route is recomputed once.
type MoveTo struct {
	agents.ActionState
	env *Env

	Target   world.Cell
	path     []world.Cell
	next     int // Index of the next cell to enter
	budget   float64
	rerouted bool
}

// Setup configures the move.
func (m *MoveTo) Setup(env *Env, target world.Cell) *MoveTo {
	m.Init("move to", agents.ExecConditional, env.Rates.MoveSpeed)
	m.env = env
	m.Target = target
	return m
}

func (m *MoveTo) Register(ag *agents.Agent) {
	m.route(ag)
}

func (m *MoveTo) route(ag *agents.Agent) bool {
	path, ok := pathfind.FindPath(ag.Cell, m.Target, m.env.World.IsWalkable, m.env.Limits)
	if !ok {
		slog.Debug("no path", "agent", ag.ID, "from", ag.Cell, "to", m.Target)
		agents.Fail(m)
		return false
	}
	m.path = path
	m.next = 1
	return true
}

// Path returns the remaining cells, current position excluded.
func (m *MoveTo) Path() []world.Cell {
	if m.next >= len(m.path) {
		return nil
	}
	return m.path[m.next:]
}

func (m *MoveTo) Satisfied(ag *agents.Agent) bool {
	return ag.Cell == m.Target
}

func (m *MoveTo) Perform(ag *agents.Agent) {
	m.budget += m.Speed * m.env.dt()
	for m.budget >= 1 && m.next < len(m.path) {
		c := m.path[m.next]
		if !m.env.World.IsWalkable(c) {
			if m.rerouted {
				agents.Fail(m)
				return
			}
			m.rerouted = true
			if !m.route(ag) {
				return
			}
			continue
		}
		ag.Place(c, m.env.World)
		m.next++
		m.budget--
	}
	if n := len(m.path); n > 1 {
		m.Progress = float64(m.next-1) / float64(n-1) * 100
	}
	if m.next >= len(m.path) && ag.Cell != m.Target {
		agents.Fail(m)
	}
}

func (m *MoveTo) Reset() {
	*m = MoveTo{}
}

// Wander strolls to a random walkable cell nearby and lingers a moment.
type Wander struct {
	agents.ActionState
	env *Env
}

// Setup configures the stroll.
func (w *Wander) Setup(env *Env) *Wander {
	w.Init("wander", agents.ExecSingle, 50)
	w.env = env
	return w
}

func (w *Wander) Register(ag *agents.Agent) {
	r := w.env.Rates.WanderRadius
	if r < 1 {
		r = 1
	}
	for try := 0; try < 8; try++ {
		c := ag.Cell.Add(world.Cell{
			X: w.env.Rng.Intn(2*r+1) - r,
			Y: w.env.Rng.Intn(2*r+1) - r,
		})
		if c != ag.Cell && w.env.World.IsWalkable(c) {
			w.PushPreceding(w.env.MoveTo(c))
			return
		}
	}
	agents.Fail(w)
}

func (w *Wander) Perform(ag *agents.Agent) {
	ag.Needs.Add(agents.NeedMood, 1)
}

func (w *Wander) Reset() {
	*w = Wander{}
}

// Idle stands still for a while.
type Idle struct {
	agents.ActionState
}

// Setup configures the pause. seconds <= 0 takes the tuned idle time.
func (i *Idle) Setup(env *Env, seconds float64) *Idle {
	if seconds <= 0 {
		seconds = env.Rates.IdleSeconds
	}
	i.Init("idle", agents.ExecSingle, 100/seconds)
	return i
}

func (i *Idle) Register(*agents.Agent) {}
func (i *Idle) Perform(*agents.Agent) {}

func (i *Idle) Reset() {
	*i = Idle{}
}

// Wait holds until Until reports true. With a timeout it fails once the
// timeout passes first; without Until it simply completes after the timeout.
type Wait struct {
	agents.ActionState
	env *Env

	Until   func(ag *agents.Agent) bool
	Timeout float64
	waited  float64
}

// Setup configures the wait.
func (w *Wait) Setup(env *Env, timeout float64, until func(ag *agents.Agent) bool) *Wait {
	w.Init("wait", agents.ExecConditional, 0)
	w.env = env
	w.Timeout = timeout
	w.Until = until
	return w
}

func (w *Wait) Register(*agents.Agent) {}

func (w *Wait) Satisfied(ag *agents.Agent) bool {
	if w.Until != nil {
		return w.Until(ag)
	}
	return w.Timeout > 0 && w.waited >= w.Timeout
}

func (w *Wait) Perform(ag *agents.Agent) {
	w.waited += w.env.dt()
	if w.Until != nil && w.Timeout > 0 && w.waited >= w.Timeout {
		agents.Fail(w)
	}
}

func (w *Wait) Reset() {
	*w = Wait{}
}

// GoHome walks the agent back inside its house.
type GoHome struct {
	agents.ActionState
	env *Env
}

// Setup configures the walk.
func (g *GoHome) Setup(env *Env) *GoHome {
	g.Init("go home", agents.ExecSingle, 100)
	g.env = env
	return g
}

func (g *GoHome) Register(ag *agents.Agent) {
	home, ok := g.env.Home(ag)
	if !ok {
		agents.Fail(g)
		return
	}
	if ag.Cell != home {
		g.PushPreceding(g.env.MoveTo(home))
	}
}

func (g *GoHome) Perform(*agents.Agent) {}

func (g *GoHome) Reset() {
	*g = GoHome{}
}
