package actions

import (
	"log/slog"

	"github.com/talgya/villagesim/internal/agents"
	"github.com/talgya/villagesim/internal/catalog"
	"github.com/talgya/villagesim/internal/world"
)

// keepFood is how many food portions a worker keeps before stocking the stall.
const keepFood = 2

// keepCrop is how many raw crop units a farmer keeps before stocking the stall.
const keepCrop = 4

// Work is a job shift. It runs until Duration sim-seconds have passed,
// pays Wage spread across the shift and keeps the worker busy with
// occupation tasks in between.
type Work struct {
	agents.ActionState
	env *Env

	Station  *world.Fixture // Workplace; nil for farmers, who roam the fields
	Duration float64
	Wage     int

	elapsed float64
	owed    float64
	paid    int
	task    agents.Action
}

// Setup configures the shift.
func (w *Work) Setup(env *Env, station *world.Fixture, duration float64, wage int) *Work {
	w.Init("work", agents.ExecConditional, 0)
	w.env = env
	w.Work = true
	w.Station = station
	w.Duration = duration
	w.Wage = wage
	return w
}

// Elapsed returns the sim-seconds worked so far.
func (w *Work) Elapsed() float64 {
	return w.elapsed
}

func (w *Work) Register(ag *agents.Agent) {
	if w.Station != nil && ag.Cell != w.Station.Access {
		w.PushPreceding(w.env.MoveTo(w.Station.Access))
	}
}

func (w *Work) Satisfied(*agents.Agent) bool {
	return w.Duration > 0 && w.elapsed >= w.Duration
}

func (w *Work) Perform(ag *agents.Agent) {
	dt := w.env.dt()
	w.elapsed += dt
	w.pay(ag, dt)
	if w.Duration > 0 {
		w.Progress = w.elapsed / w.Duration * 100
	}

	if w.task != nil {
		agents.Execute(w.task, ag, dt)
		if w.task.State().Done {
			w.env.Pool.Put(w.task)
			w.task = nil
		}
		return
	}
	w.task = w.nextTask(ag)
}

func (w *Work) pay(ag *agents.Agent, dt float64) {
	if w.Wage <= 0 || w.Duration <= 0 {
		return
	}
	if w.elapsed >= w.Duration {
		ag.Coins += w.Wage - w.paid
		w.paid = w.Wage
		return
	}
	w.owed += float64(w.Wage) * dt / w.Duration
	if whole := int(w.owed); whole > 0 && w.paid+whole <= w.Wage {
		ag.Coins += whole
		w.paid += whole
		w.owed -= float64(whole)
	}
}

// nextTask picks the worker's next job step, or nil to keep standing by.
func (w *Work) nextTask(ag *agents.Agent) agents.Action {
	env := w.env
	switch ag.Occupation {
	case agents.OccupationFarmer:
		w.stock(ag, func(id string) bool {
			_, crop := env.Catalog.CropByItem(id)
			return crop
		}, keepCrop)
		for _, f := range env.Items.All() {
			if f.Kind == world.FixtureField && f.Crop == world.CropRipe && f.Free() {
				return agents.Get[Harvest](env.Pool).Setup(env, f)
			}
		}
		if _, ok := env.Catalog.SeedFor(ag.Inventory); ok {
			for _, f := range env.Items.All() {
				if f.Kind == world.FixtureField && f.Crop == world.CropEmpty && f.Free() {
					return agents.Get[Plant](env.Pool).Setup(env, f)
				}
			}
		}

	case agents.OccupationCrafter:
		if w.Station == nil {
			return nil
		}
		if r, ok := env.Catalog.Satisfiable(catalog.StationWorkbench, ag.Inventory); ok {
			return agents.Get[Craft](env.Pool).Setup(env, w.Station, r)
		}

	case agents.OccupationCook:
		w.stock(ag, env.Catalog.IsFood, keepFood)
		if w.Station == nil {
			return nil
		}
		if r, ok := env.Catalog.Satisfiable(catalog.StationStove, ag.Inventory); ok {
			return agents.Get[Cook](env.Pool).Setup(env, w.Station, r)
		}

	case agents.OccupationMerchant:
		w.stock(ag, func(string) bool { return true }, keepFood)
	}
	return nil
}

// stock moves surplus items matching want into the nearest market stall.
func (w *Work) stock(ag *agents.Agent, want func(id string) bool, keep int) {
	stall := w.Station
	if stall == nil || stall.Kind != world.FixtureMarketStall {
		stall = w.env.Items.Nearest(ag.Cell, world.FixtureMarketStall, nil)
	}
	if stall == nil {
		return
	}
	for id, n := range ag.Inventory {
		if !want(id) || n <= keep {
			continue
		}
		surplus := n - keep
		if !ag.Inventory.Remove(id, surplus) {
			continue
		}
		stall.Stock[id] += surplus
		slog.Debug("stall stocked", "agent", ag.ID, "item", id, "quantity", surplus, "stall", stall.ID)
	}
}

func (w *Work) Reset() {
	if w.task != nil {
		agents.Cancel(w.task)
		w.env.Pool.Put(w.task)
	}
	*w = Work{}
}

// Plant sows a seed into an empty field.
type Plant struct {
	agents.ActionState
	env   *Env
	Field *world.Fixture
	claim claim
}

// Setup configures the sowing.
func (p *Plant) Setup(env *Env, field *world.Fixture) *Plant {
	p.Init("plant", agents.ExecSingle, env.Rates.FieldSpeed)
	p.env = env
	p.Field = field
	return p
}

func (p *Plant) Register(ag *agents.Agent) {
	if p.Field == nil || p.Field.Kind != world.FixtureField || p.Field.Crop != world.CropEmpty {
		agents.Fail(p)
		return
	}
	if _, ok := p.env.Catalog.SeedFor(ag.Inventory); !ok {
		agents.Fail(p)
		return
	}
	p.env.approach(p, ag, p.Field, &p.claim)
}

func (p *Plant) Perform(ag *agents.Agent) {
	defer p.claim.drop(p.env.Items)
	crop, ok := p.env.Catalog.SeedFor(ag.Inventory)
	if !ok || p.Field.Crop != world.CropEmpty || !ag.Inventory.Remove(crop.Seed, 1) {
		agents.Fail(p)
		return
	}
	p.Field.Crop = world.CropGrowing
	p.Field.CropItem = crop.Crop
	p.Field.Growth = 0
}

func (p *Plant) Reset() {
	if p.env != nil {
		p.claim.drop(p.env.Items)
	}
	*p = Plant{}
}

// Harvest collects a ripe field's yield plus one seed for replanting.
type Harvest struct {
	agents.ActionState
	env   *Env
	Field *world.Fixture
	claim claim
}

// Setup configures the harvest.
func (h *Harvest) Setup(env *Env, field *world.Fixture) *Harvest {
	h.Init("harvest", agents.ExecSingle, env.Rates.FieldSpeed)
	h.env = env
	h.Field = field
	return h
}

func (h *Harvest) Register(ag *agents.Agent) {
	if h.Field == nil || h.Field.Crop != world.CropRipe {
		agents.Fail(h)
		return
	}
	h.env.approach(h, ag, h.Field, &h.claim)
}

func (h *Harvest) Perform(ag *agents.Agent) {
	defer h.claim.drop(h.env.Items)
	crop, ok := h.env.Catalog.CropByItem(h.Field.CropItem)
	if !ok || h.Field.Crop != world.CropRipe {
		agents.Fail(h)
		return
	}
	ag.Inventory.Add(crop.Crop, crop.Yield)
	ag.Inventory.Add(crop.Seed, 1)
	h.Field.Crop = world.CropEmpty
	h.Field.CropItem = ""
	h.Field.Growth = 0
	h.env.remember(ag, "harvested "+crop.Crop, 0.2)
}

func (h *Harvest) Reset() {
	if h.env != nil {
		h.claim.drop(h.env.Items)
	}
	*h = Harvest{}
}
