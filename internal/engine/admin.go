package engine

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/talgya/villagesim/internal/actions"
	"github.com/talgya/villagesim/internal/agents"
	"github.com/talgya/villagesim/internal/world"
)

// ErrNotFound is returned when an intervention names an unknown target.
var ErrNotFound = errors.New("not found")

// SendHome replaces whatever the villager is doing with walking home, even
// if the current action refuses interruption.
func (s *Simulation) SendHome(id agents.AgentID) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ag, ok := s.AgentIndex[id]
	if !ok {
		return "", fmt.Errorf("agent %d: %w", id, ErrNotFound)
	}
	if _, ok := s.Env.Home(ag); !ok {
		return "", fmt.Errorf("agent %d has no home", id)
	}
	ag.Brain.ReplaceCurrent(agents.Get[actions.GoHome](s.Pool).Setup(s.Env))

	desc := fmt.Sprintf("%s is called home", ag.Name)
	s.emit("admin", ag.ID, desc)
	slog.Info("send home intervention", "agent", ag.ID)
	return desc, nil
}

// ProvisionStall stocks the market stall with quantity of item.
func (s *Simulation) ProvisionStall(item string, quantity int) (string, error) {
	if quantity <= 0 {
		return "", fmt.Errorf("quantity must be positive")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	def, ok := s.Catalog.Items[item]
	if !ok {
		return "", fmt.Errorf("item %q: %w", item, ErrNotFound)
	}
	var stall *world.Fixture
	for _, f := range s.Items.All() {
		if f.Kind == world.FixtureMarketStall {
			stall = f
			break
		}
	}
	if stall == nil {
		return "", fmt.Errorf("market stall: %w", ErrNotFound)
	}
	stall.Stock[item] += quantity

	desc := fmt.Sprintf("A cart arrives at the market with %d %s", quantity, def.Name)
	s.emit("admin", 0, desc)
	slog.Info("provision intervention", "item", item, "quantity", quantity)
	return desc, nil
}
