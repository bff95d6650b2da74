// Package actions holds the concrete villager actions and the registry that
// turns world fixtures into candidate actions.
//
// Every action is obtained from the pool with agents.Get and configured with
// its typed Setup method:
//
//	m := agents.Get[actions.MoveTo](env.Pool).Setup(env, target)
package actions

import (
	"log/slog"
	"math"
	"math/rand"

	"github.com/talgya/villagesim/internal/agents"
	"github.com/talgya/villagesim/internal/catalog"
	"github.com/talgya/villagesim/internal/clock"
	"github.com/talgya/villagesim/internal/pathfind"
	"github.com/talgya/villagesim/internal/world"
)

// Rates tunes action speeds (progress points per sim-second) and effects.
type Rates struct {
	MoveSpeed float64 `yaml:"move_speed"` // Cells per sim-second

	EatSpeed float64 `yaml:"eat_speed"`

	SleepSpeed float64 `yaml:"sleep_speed"`
	SleepGain  float64 `yaml:"sleep_gain"` // Per time
	RestSpeed  float64 `yaml:"rest_speed"`
	RestGain   float64 `yaml:"rest_gain"`

	ToiletSpeed         float64 `yaml:"toilet_speed"`
	ToiletFallbackSpeed float64 `yaml:"toilet_fallback_speed"`
	ToiletFallbackDirt  float64 `yaml:"toilet_fallback_dirt"` // Hygiene lost without a toilet

	WashSpeed float64 `yaml:"wash_speed"`
	WashGain  float64 `yaml:"wash_gain"`

	RelaxSpeed float64 `yaml:"relax_speed"`
	RelaxGain  float64 `yaml:"relax_gain"`
	RelaxTimes int     `yaml:"relax_times"`

	DineSpeed float64 `yaml:"dine_speed"`
	DineDish  string  `yaml:"dine_dish"`

	ChatTurnSeconds float64 `yaml:"chat_turn_seconds"`
	ChatTurns       int     `yaml:"chat_turns"`
	ChatSocialGain  float64 `yaml:"chat_social_gain"`
	ChatMoodGain    float64 `yaml:"chat_mood_gain"`
	JoinGrace       float64 `yaml:"join_grace"` // Seconds a shared action waits for its partner

	TradeSeconds float64 `yaml:"trade_seconds"`

	FieldSpeed float64 `yaml:"field_speed"` // Plant and harvest
	ShopSpeed  float64 `yaml:"shop_speed"`

	IdleSeconds  float64 `yaml:"idle_seconds"`
	WanderRadius int     `yaml:"wander_radius"`
}

// DefaultRates returns the stock action tuning.
func DefaultRates() Rates {
	return Rates{
		MoveSpeed:           1.5,
		EatSpeed:            20,
		SleepSpeed:          0.4,
		SleepGain:           10,
		RestSpeed:           0.5,
		RestGain:            8,
		ToiletSpeed:         10,
		ToiletFallbackSpeed: 4,
		ToiletFallbackDirt:  15,
		WashSpeed:           5,
		WashGain:            70,
		RelaxSpeed:          2,
		RelaxGain:           6,
		RelaxTimes:          4,
		DineSpeed:           8,
		DineDish:            "stew",
		ChatTurnSeconds:     4,
		ChatTurns:           6,
		ChatSocialGain:      6,
		ChatMoodGain:        2,
		JoinGrace:           30,
		TradeSeconds:        5,
		FieldSpeed:          10,
		ShopSpeed:           20,
		IdleSeconds:         20,
		WanderRadius:        6,
	}
}

// Env is the world as concrete actions see it. The composition root builds
// one and shares it between the actions and the evaluator.
type Env struct {
	World   world.Oracle
	Items   *world.Items
	Village *world.Village
	Catalog *catalog.Catalog
	Pool    *agents.Pool
	Clock   clock.Clock
	Limits  pathfind.Limits
	Rates   Rates
	Rng     *rand.Rand
}

func (e *Env) dt() float64 {
	if e.Clock == nil {
		return 0
	}
	return e.Clock.DeltaTime()
}

// MoveTo returns a pooled MoveTo toward target.
func (e *Env) MoveTo(target world.Cell) *MoveTo {
	return agents.Get[MoveTo](e.Pool).Setup(e, target)
}

// Home returns the inside cell of ag's house.
func (e *Env) Home(ag *agents.Agent) (world.Cell, bool) {
	if e.Village == nil {
		return world.Cell{}, false
	}
	h := e.Village.HouseByID(ag.HomeID)
	if h == nil {
		return world.Cell{}, false
	}
	return h.Inside, true
}

func (e *Env) remember(ag *agents.Agent, content string, importance float32) {
	m := agents.Memory{Content: content, Importance: importance}
	if ag.Brain != nil {
		m.At = ag.Brain.Now()
	}
	if e.Clock != nil {
		m.Day = e.Clock.Day()
	}
	ag.Remember(m)
}

// claim tracks one fixture reservation held by an action.
type claim struct {
	f     *world.Fixture
	owner uint64
	held  bool
}

func (c *claim) take(items *world.Items, f *world.Fixture, owner uint64) bool {
	if !items.TryClaim(f, owner) {
		return false
	}
	c.f, c.owner, c.held = f, owner, true
	return true
}

func (c *claim) drop(items *world.Items) {
	if !c.held || items == nil {
		return
	}
	items.Release(c.f, c.owner)
	c.held = false
}

// approach claims f for ag and queues a MoveTo its access cell when ag is
// elsewhere. On failure act is failed and false returned.
func (e *Env) approach(act agents.Action, ag *agents.Agent, f *world.Fixture, c *claim) bool {
	if f == nil {
		agents.Fail(act)
		return false
	}
	if !c.take(e.Items, f, ag.Owner()) {
		slog.Debug("fixture busy", "agent", ag.ID, "action", act.State().Name, "fixture", f.ID, "kind", f.Kind.String())
		agents.Fail(act)
		return false
	}
	if ag.Cell != f.Access {
		act.State().PushPreceding(e.MoveTo(f.Access))
	}
	return true
}

// timesFor returns how many times of gain restore need k from its current value.
func timesFor(ag *agents.Agent, k agents.NeedKind, gain float64) int {
	if gain <= 0 {
		return 1
	}
	n := int(math.Ceil((100 - ag.Needs.Get(k)) / gain))
	if n < 1 {
		n = 1
	}
	return n
}
