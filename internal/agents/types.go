// Package agents provides the villager data model, needs, and the action engine:
// the Action state machine, the per-type action pool and the Brain that
// schedules actions for one agent.
package agents

import (
	"github.com/talgya/villagesim/internal/world"
)

// AgentID is a unique identifier for an agent. Zero is never issued.
type AgentID uint64

// Sex represents biological sex, used for names only.
type Sex uint8

const (
	SexMale   Sex = 0
	SexFemale Sex = 1
)

// Occupation represents an agent's job.
type Occupation uint8

const (
	OccupationNone Occupation = iota
	OccupationFarmer
	OccupationCrafter
	OccupationMerchant
	OccupationCook
)

var occupationNames = [...]string{"none", "farmer", "crafter", "merchant", "cook"}

func (o Occupation) String() string {
	if int(o) < len(occupationNames) {
		return occupationNames[o]
	}
	return "unknown"
}

// Agent is a villager.
type Agent struct {
	ID   AgentID `json:"id"`
	Name string  `json:"name"`
	Age  uint16  `json:"age"`
	Sex  Sex     `json:"sex"`

	// Location
	Pos    world.Vec2 `json:"pos"`
	Cell   world.Cell `json:"cell"`
	HomeID uint64     `json:"home_id"` // House ID, 0 = homeless

	// Economic
	Occupation Occupation `json:"occupation"`
	Inventory  Inventory  `json:"inventory"`
	Coins      int        `json:"coins"`

	Needs Needs `json:"needs"`

	// Dialog is the speech line currently shown above the agent; empty = hidden.
	Dialog string `json:"dialog,omitempty"`

	Memories []Memory `json:"memories,omitempty"`

	Brain *Brain `json:"-"`
}

// Owner returns the claim owner key used for fixtures.
func (a *Agent) Owner() uint64 {
	return uint64(a.ID)
}

// Place puts the agent at the centre of c.
func (a *Agent) Place(c world.Cell, oracle world.Oracle) {
	a.Cell = c
	a.Pos = oracle.CellToWorld(c)
}

// Update advances the agent's brain by dt sim-seconds.
func (a *Agent) Update(dt float64) {
	if a.Brain != nil {
		a.Brain.Update(dt)
	}
}

// CurrentAction returns the action the agent is executing, or nil.
func (a *Agent) CurrentAction() Action {
	if a.Brain == nil {
		return nil
	}
	return a.Brain.Current()
}

// Inventory holds item quantities keyed by catalog item ID.
type Inventory map[string]int

// Add increases id by n.
func (inv Inventory) Add(id string, n int) {
	if n <= 0 {
		return
	}
	inv[id] += n
}

// Remove takes n of id. It returns false and changes nothing if fewer are held.
func (inv Inventory) Remove(id string, n int) bool {
	if n <= 0 {
		return true
	}
	if inv[id] < n {
		return false
	}
	inv[id] -= n
	if inv[id] == 0 {
		delete(inv, id)
	}
	return true
}

// Count returns how many of id are held.
func (inv Inventory) Count(id string) int {
	return inv[id]
}

// Total returns the number of units held across all items.
func (inv Inventory) Total() int {
	total := 0
	for _, n := range inv {
		total += n
	}
	return total
}
