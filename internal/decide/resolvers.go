package decide

import (
	"github.com/talgya/villagesim/internal/actions"
	"github.com/talgya/villagesim/internal/agents"
	"github.com/talgya/villagesim/internal/catalog"
	"github.com/talgya/villagesim/internal/world"
)

// resolveHunger prefers carried food, then cooking, then the stall, then a
// restaurant seat, then buying from a neighbour.
func resolveHunger(e *Evaluator, ag *agents.Agent) agents.Action {
	env := e.Env
	if _, ok := env.Catalog.CarriedFood(ag.Inventory); ok {
		return agents.Get[actions.Eat](env.Pool).Setup(env, "", 0)
	}

	if recipe, ok := env.Catalog.Satisfiable(catalog.StationStove, ag.Inventory); ok {
		stove := e.Items.Nearest(ag.Cell, world.FixtureStove, atHome(ag))
		if stove == nil {
			stove = e.Items.Nearest(ag.Cell, world.FixtureStove, usableBy(ag))
		}
		if stove != nil {
			cook := agents.Get[actions.Cook](env.Pool).Setup(env, stove, recipe)
			cook.Next = agents.Get[actions.Eat](env.Pool).Setup(env, recipe.Output, 1)
			return cook
		}
	}

	if stall := e.Items.Nearest(ag.Cell, world.FixtureMarketStall, nil); stall != nil {
		for _, food := range env.Catalog.Foods() {
			if stall.Stock[food] > 0 && ag.Coins >= env.Catalog.Price(food) {
				shop := agents.Get[actions.Shop](env.Pool).Setup(env, stall, food, 1)
				shop.Next = agents.Get[actions.Eat](env.Pool).Setup(env, food, 1)
				return shop
			}
		}
	}

	if seat := e.Items.Nearest(ag.Cell, world.FixtureSeat, usableBy(ag)); seat != nil {
		if ag.Coins >= env.Catalog.Price(env.Rates.DineDish) {
			return agents.Get[actions.DineOut](env.Pool).Setup(env, seat)
		}
	}

	return e.tradeForFood(ag)
}

// tradeForFood buys one portion from a free neighbour with food to spare.
func (e *Evaluator) tradeForFood(ag *agents.Agent) agents.Action {
	if e.People == nil {
		return nil
	}
	env := e.Env
	for _, other := range e.People.Nearby(ag.Cell, e.Tuning.SightRadius) {
		if other == ag || !available(other) || env.Catalog.FoodCount(other.Inventory) < 2 {
			continue
		}
		food, _ := env.Catalog.CarriedFood(other.Inventory)
		if ag.Coins < env.Catalog.Price(food) {
			continue
		}
		trade := agents.Get[actions.Trade](env.Pool).Setup(env, ag, other, food, 1)
		if !other.Brain.RegisterAction(trade, true) {
			actions.Release(trade)
			continue
		}
		trade.Next = agents.Get[actions.Eat](env.Pool).Setup(env, food, 1)
		return trade
	}
	return nil
}

func resolveToilet(e *Evaluator, ag *agents.Agent) agents.Action {
	toilet := e.Items.Nearest(ag.Cell, world.FixtureToilet, atHome(ag))
	return agents.Get[actions.UseToilet](e.Env.Pool).Setup(e.Env, toilet)
}

func resolveSleep(e *Evaluator, ag *agents.Agent) agents.Action {
	bed := e.Items.Nearest(ag.Cell, world.FixtureBed, atHome(ag))
	if bed == nil {
		bed = e.Items.Nearest(ag.Cell, world.FixtureBed, usableBy(ag))
	}
	if bed == nil {
		return nil
	}
	return agents.Get[actions.Sleep](e.Env.Pool).Setup(e.Env, bed)
}

func resolveHygiene(e *Evaluator, ag *agents.Agent) agents.Action {
	shower := e.Items.Nearest(ag.Cell, world.FixtureShower, atHome(ag))
	if shower == nil {
		return nil
	}
	return agents.Get[actions.Wash](e.Env.Pool).Setup(e.Env, shower)
}

// resolveSocial starts a chat with the nearest free villager in sight. The
// chat is registered with the partner here; the caller registers it for ag.
func resolveSocial(e *Evaluator, ag *agents.Agent) agents.Action {
	if e.People == nil {
		return nil
	}
	for _, other := range e.People.Nearby(ag.Cell, e.Tuning.SightRadius) {
		if other == ag || !available(other) {
			continue
		}
		chat := agents.Get[actions.Chat](e.Env.Pool).Setup(e.Env, ag, other)
		if !other.Brain.RegisterAction(chat, true) {
			actions.Release(chat)
			continue
		}
		return chat
	}
	return nil
}

func resolveMood(e *Evaluator, ag *agents.Agent) agents.Action {
	for _, f := range e.Items.ScanAround(ag.Cell, e.Tuning.SightRadius) {
		if f.Kind == world.FixtureBench && f.Free() {
			return agents.Get[actions.Relax](e.Env.Pool).Setup(e.Env, f)
		}
	}
	return agents.Get[actions.Wander](e.Env.Pool).Setup(e.Env)
}

func resolveHealth(e *Evaluator, ag *agents.Agent) agents.Action {
	bed := e.Items.Nearest(ag.Cell, world.FixtureBed, atHome(ag))
	if bed == nil {
		return nil
	}
	return agents.Get[actions.Rest](e.Env.Pool).Setup(e.Env, bed)
}

// available reports whether other can be pulled into a shared action: it is
// doing nothing that a need or a job asked for and has nothing queued.
func available(other *agents.Agent) bool {
	b := other.Brain
	if b == nil || b.Queued() > 0 {
		return false
	}
	cur := b.Current()
	if cur == nil {
		return true
	}
	s := cur.State()
	return s.CanBeInterrupted && !s.Shared && !s.Work && s.Need == agents.NeedNone
}
