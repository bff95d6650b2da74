package engine

import (
	"sort"

	"github.com/talgya/villagesim/internal/agents"
	"github.com/talgya/villagesim/internal/pathfind"
	"github.com/talgya/villagesim/internal/world"
)

// AgentView is a copy of one villager safe to hand outside the tick.
type AgentView struct {
	ID         agents.AgentID `json:"id"`
	Name       string         `json:"name"`
	Occupation string         `json:"occupation"`
	Cell       world.Cell     `json:"cell"`
	Pos        world.Vec2     `json:"pos"`
	HomeID     uint64         `json:"home_id"`
	Coins      int            `json:"coins"`
	Needs      agents.Needs   `json:"needs"`
	Inventory  map[string]int `json:"inventory"`
	Dialog     string         `json:"dialog,omitempty"`
	Action     string         `json:"action,omitempty"`
	Progress   float64        `json:"progress,omitempty"`
	Queued     int            `json:"queued"`
	Schedule   string         `json:"schedule,omitempty"` // Active routine

	Memories []agents.Memory `json:"memories,omitempty"`
}

// Status summarizes the simulation for observers.
type Status struct {
	Tick     uint64   `json:"tick"`
	SimTime  string   `json:"sim_time"`
	Day      int      `json:"day"`
	Elapsed  float64  `json:"elapsed"`
	Fixtures int      `json:"fixtures"`
	Events   int      `json:"events"`
	Stats    SimStats `json:"stats"`
}

func (s *Simulation) viewOf(ag *agents.Agent, detail bool) AgentView {
	v := AgentView{
		ID:         ag.ID,
		Name:       ag.Name,
		Occupation: ag.Occupation.String(),
		Cell:       ag.Cell,
		Pos:        ag.Pos,
		HomeID:     ag.HomeID,
		Coins:      ag.Coins,
		Needs:      ag.Needs,
		Inventory:  make(map[string]int, len(ag.Inventory)),
		Dialog:     ag.Dialog,
	}
	for id, q := range ag.Inventory {
		v.Inventory[id] = q
	}
	if ag.Brain != nil {
		v.Queued = ag.Brain.Queued()
		if cur := ag.Brain.Current(); cur != nil {
			v.Action = cur.State().Name
			v.Progress = cur.State().Overall()
		}
	}
	if r := s.runners[ag.ID]; r != nil && r.Active() != nil {
		v.Schedule = r.Active().Name
	}
	if detail {
		v.Memories = append([]agents.Memory(nil), ag.Memories...)
	}
	return v
}

// AgentViews lists every villager by ID.
func (s *Simulation) AgentViews() []AgentView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]AgentView, 0, len(s.Agents))
	for _, ag := range s.Agents {
		out = append(out, s.viewOf(ag, false))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// AgentView returns one villager including memories.
func (s *Simulation) AgentView(id agents.AgentID) (AgentView, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ag, ok := s.AgentIndex[id]
	if !ok {
		return AgentView{}, false
	}
	return s.viewOf(ag, true), true
}

// Status returns the current summary.
func (s *Simulation) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Status{
		Tick:     s.LastTick,
		SimTime:  s.Clock.String(),
		Day:      s.Clock.Day(),
		Elapsed:  s.Clock.Elapsed(),
		Fixtures: len(s.Items.All()),
		Events:   s.Events.Len(),
		Stats:    s.Stats,
	}
}

// FindPath plans a route over the current grid.
func (s *Simulation) FindPath(from, to world.Cell) ([]world.Cell, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return pathfind.FindPath(from, to, s.Grid.IsWalkable, s.opts.Limits)
}
