package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/talgya/villagesim/internal/actions"
	"github.com/talgya/villagesim/internal/agents"
	"github.com/talgya/villagesim/internal/clock"
	"github.com/talgya/villagesim/internal/decide"
	"github.com/talgya/villagesim/internal/pathfind"
	"github.com/talgya/villagesim/internal/world"
)

//go:embed tuning.yaml
var defaultTuning []byte

// Tuning is every gameplay constant, loaded from YAML.
type Tuning struct {
	LogLevel string `yaml:"log_level"`

	Engine EngineTuning    `yaml:"engine"`
	World  world.GenConfig `yaml:"world"`

	VillagersPerHouse int     `yaml:"villagers_per_house"`
	CropGrowthPerHour float64 `yaml:"crop_growth_per_hour"`

	Path    pathfind.Limits    `yaml:"path"`
	Decide  DecideTuning       `yaml:"decide"`
	Decay   map[string]float64 `yaml:"decay_hours"`
	Actions actions.Rates      `yaml:"actions"`
}

// EngineTuning controls the tick loop.
type EngineTuning struct {
	TickIntervalMs    int     `yaml:"tick_interval_ms"`
	SimSecondsPerTick float64 `yaml:"sim_seconds_per_tick"`
	Speed             float64 `yaml:"speed"`           // Ticks' sim-time multiplier
	AgentsPerTick     int     `yaml:"agents_per_tick"` // 0 = all
	StartHour         float64 `yaml:"start_hour"`
	StartDay          int     `yaml:"start_day"`
	EventLog          int     `yaml:"event_log"`
}

// DecideTuning is the YAML face of decide.Tuning; needs are named.
type DecideTuning struct {
	decide.Tuning `yaml:",inline"`

	WorkInterruptNeeds []string           `yaml:"work_interrupt_needs"`
	NeedMods           map[string]float64 `yaml:"need_mods"`
}

// DefaultTuning returns the embedded tuning.
func DefaultTuning() (Tuning, error) {
	var t Tuning
	if err := yaml.Unmarshal(defaultTuning, &t); err != nil {
		return t, fmt.Errorf("default tuning: %w", err)
	}
	return t, nil
}

// LoadTuning reads the defaults and overlays path on top, when given.
func LoadTuning(path string) (Tuning, error) {
	t, err := DefaultTuning()
	if err != nil || path == "" {
		return t, err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, fmt.Errorf("read tuning: %w", err)
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("%s: %w", path, err)
	}
	if _, err := t.DecideTuning(); err != nil {
		return t, fmt.Errorf("%s: %w", path, err)
	}
	if _, err := t.DecayRates(); err != nil {
		return t, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// DecideTuning resolves need names into decide.Tuning.
func (t Tuning) DecideTuning() (decide.Tuning, error) {
	out := decide.DefaultTuning()
	d := t.Decide
	if d.MinScore > 0 {
		out.MinScore = d.MinScore
	}
	if d.SwitchMargin > 0 {
		out.SwitchMargin = d.SwitchMargin
	}
	if d.Cooldown > 0 {
		out.Cooldown = d.Cooldown
	}
	if d.SightRadius > 0 {
		out.SightRadius = d.SightRadius
	}
	out.IdleWeight = d.IdleWeight
	out.WanderWeight = d.WanderWeight

	if d.WorkInterruptNeeds != nil {
		out.WorkInterruptNeeds = nil
		for _, name := range d.WorkInterruptNeeds {
			k, err := agents.ParseNeed(name)
			if err != nil {
				return out, fmt.Errorf("work_interrupt_needs: %w", err)
			}
			out.WorkInterruptNeeds = append(out.WorkInterruptNeeds, k)
		}
	}
	for name, mod := range d.NeedMods {
		k, err := agents.ParseNeed(name)
		if err != nil {
			return out, fmt.Errorf("need_mods: %w", err)
		}
		out.TypeMod[k] = mod
	}
	return out, nil
}

// DecayRates converts hours-to-empty into per-second decay.
func (t Tuning) DecayRates() (agents.DecayRates, error) {
	r := agents.DefaultDecayRates()
	for name, hours := range t.Decay {
		k, err := agents.ParseNeed(name)
		if err != nil {
			return r, fmt.Errorf("decay_hours: %w", err)
		}
		if hours <= 0 {
			r.PerNeed[k] = 0
			continue
		}
		r.PerNeed[k] = 100 / (hours * clock.Hour)
	}
	return r, nil
}

// CropGrowthRate returns field growth points per sim-second.
func (t Tuning) CropGrowthRate() float64 {
	return t.CropGrowthPerHour / clock.Hour
}
