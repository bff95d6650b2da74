package actions

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/talgya/villagesim/internal/agents"
	"github.com/talgya/villagesim/internal/catalog"
	"github.com/talgya/villagesim/internal/world"
)

// Eat consumes carried food one portion per time.
type Eat struct {
	agents.ActionState
	env *Env

	Food     string // Empty picks the most nutritious carried food on registration
	Portions int    // 0 eats until hunger is met or food runs out
}

// Setup configures the meal.
func (e *Eat) Setup(env *Env, food string, portions int) *Eat {
	e.Init("eat", agents.ExecMulti, env.Rates.EatSpeed)
	e.env = env
	e.Food = food
	e.Portions = portions
	e.Need = agents.NeedHunger
	return e
}

func (e *Eat) Register(ag *agents.Agent) {
	if e.Food == "" {
		food, ok := e.env.Catalog.CarriedFood(ag.Inventory)
		if !ok {
			agents.Fail(e)
			return
		}
		e.Food = food
	}
	have := ag.Inventory.Count(e.Food)
	if have == 0 {
		agents.Fail(e)
		return
	}
	n := e.Portions
	if n <= 0 {
		nut := e.env.Catalog.Nutrition(e.Food)
		n = 1
		if nut > 0 {
			n = int(math.Ceil((100 - ag.Needs.Get(agents.NeedHunger)) / nut))
		}
	}
	if n > have {
		n = have
	}
	if n < 1 {
		n = 1
	}
	e.TotalTimes = n
}

func (e *Eat) Perform(ag *agents.Agent) {
	if !ag.Inventory.Remove(e.Food, 1) {
		agents.Fail(e)
		return
	}
	ag.Needs.Add(agents.NeedHunger, e.env.Catalog.Nutrition(e.Food))
	if e.Times == e.TotalTimes {
		e.env.remember(ag, "ate "+e.Food, 0.1)
	}
}

func (e *Eat) Reset() {
	*e = Eat{}
}

// recipeWork is the common body of Cook and Craft: hold a station, then turn
// the recipe's inputs into its output.
type recipeWork struct {
	env     *Env
	Station *world.Fixture
	Recipe  catalog.Recipe
	claim   claim
}

func (r *recipeWork) register(act agents.Action, ag *agents.Agent) {
	if !catalog.CanCover(r.Recipe, ag.Inventory) {
		agents.Fail(act)
		return
	}
	r.env.approach(act, ag, r.Station, &r.claim)
}

func (r *recipeWork) produce(act agents.Action, ag *agents.Agent) {
	defer r.claim.drop(r.env.Items)
	if !catalog.CanCover(r.Recipe, ag.Inventory) {
		agents.Fail(act)
		return
	}
	for id, n := range r.Recipe.Inputs {
		ag.Inventory.Remove(id, n)
	}
	ag.Inventory.Add(r.Recipe.Output, r.Recipe.Quantity)
	slog.Debug("produced", "agent", ag.ID, "recipe", r.Recipe.ID, "quantity", r.Recipe.Quantity)
}

func (r *recipeWork) release() {
	r.claim.drop(r.env.Items)
}

// Cook prepares a recipe at a stove. Chain an Eat through Next to eat the result.
type Cook struct {
	agents.ActionState
	recipeWork
}

// Setup configures the cooking.
func (c *Cook) Setup(env *Env, stove *world.Fixture, recipe catalog.Recipe) *Cook {
	c.Init("cook "+recipe.ID, agents.ExecSingle, recipe.Speed)
	c.env = env
	c.Station = stove
	c.Recipe = recipe
	return c
}

func (c *Cook) Register(ag *agents.Agent) { c.register(c, ag) }

func (c *Cook) Perform(ag *agents.Agent) {
	c.produce(c, ag)
	if !c.Done {
		c.env.remember(ag, fmt.Sprintf("cooked %d %s", c.Recipe.Quantity, c.Recipe.Output), 0.3)
	}
}

func (c *Cook) Reset() {
	if c.env != nil {
		c.release()
	}
	*c = Cook{}
}

// Evaluate rates cooking at the home stove while idle.
func (c *Cook) Evaluate(ag *agents.Agent, area world.Area) float64 {
	if area != world.AreaHome || c.env.Catalog.FoodCount(ag.Inventory) > 0 {
		return 0
	}
	return (100 - ag.Needs.Get(agents.NeedHunger)) * 0.5
}

// Craft makes an item at a workbench.
type Craft struct {
	agents.ActionState
	recipeWork
}

// Setup configures the crafting.
func (c *Craft) Setup(env *Env, bench *world.Fixture, recipe catalog.Recipe) *Craft {
	c.Init("craft "+recipe.ID, agents.ExecSingle, recipe.Speed)
	c.env = env
	c.Station = bench
	c.Recipe = recipe
	return c
}

func (c *Craft) Register(ag *agents.Agent) { c.register(c, ag) }
func (c *Craft) Perform(ag *agents.Agent) { c.produce(c, ag) }

func (c *Craft) Reset() {
	if c.env != nil {
		c.release()
	}
	*c = Craft{}
}

// DineOut eats paid meals at a restaurant seat, one portion per time.
type DineOut struct {
	agents.ActionState
	env   *Env
	Seat  *world.Fixture
	Dish  string
	claim claim
}

// Setup configures the meal.
func (d *DineOut) Setup(env *Env, seat *world.Fixture) *DineOut {
	d.Init("dine out", agents.ExecMulti, env.Rates.DineSpeed)
	d.env = env
	d.Seat = seat
	d.Dish = env.Rates.DineDish
	d.Need = agents.NeedHunger
	return d
}

func (d *DineOut) Register(ag *agents.Agent) {
	price := d.env.Catalog.Price(d.Dish)
	nut := d.env.Catalog.Nutrition(d.Dish)
	if nut <= 0 || ag.Coins < price {
		agents.Fail(d)
		return
	}
	n := int(math.Ceil((100 - ag.Needs.Get(agents.NeedHunger)) / nut))
	if price > 0 && n > ag.Coins/price {
		n = ag.Coins / price
	}
	if n < 1 {
		n = 1
	}
	d.TotalTimes = n
	d.env.approach(d, ag, d.Seat, &d.claim)
}

func (d *DineOut) Perform(ag *agents.Agent) {
	price := d.env.Catalog.Price(d.Dish)
	if ag.Coins < price {
		agents.Fail(d)
		return
	}
	ag.Coins -= price
	ag.Needs.Add(agents.NeedHunger, d.env.Catalog.Nutrition(d.Dish))
	if d.Times == d.TotalTimes {
		d.claim.drop(d.env.Items)
		d.env.remember(ag, "dined out on "+d.Dish, 0.3)
	}
}

// Evaluate rates a paid meal while idle.
func (d *DineOut) Evaluate(ag *agents.Agent, area world.Area) float64 {
	hunger := ag.Needs.Get(agents.NeedHunger)
	if hunger > 60 || ag.Coins < d.env.Catalog.Price(d.Dish) {
		return 0
	}
	return (100 - hunger) * 0.6
}

func (d *DineOut) Reset() {
	if d.env != nil {
		d.claim.drop(d.env.Items)
	}
	*d = DineOut{}
}

// Shop buys an item from a market stall's stock.
type Shop struct {
	agents.ActionState
	env   *Env
	Stall *world.Fixture
	Item  string
	Qty   int
	claim claim
}

// Setup configures the purchase.
func (s *Shop) Setup(env *Env, stall *world.Fixture, item string, qty int) *Shop {
	s.Init("shop", agents.ExecSingle, env.Rates.ShopSpeed)
	s.env = env
	s.Stall = stall
	s.Item = item
	s.Qty = qty
	if s.Qty < 1 {
		s.Qty = 1
	}
	return s
}

func (s *Shop) Register(ag *agents.Agent) {
	if s.Stall == nil || s.Stall.Stock[s.Item] < s.Qty || ag.Coins < s.cost() {
		agents.Fail(s)
		return
	}
	s.env.approach(s, ag, s.Stall, &s.claim)
}

func (s *Shop) cost() int {
	return s.env.Catalog.Price(s.Item) * s.Qty
}

func (s *Shop) Perform(ag *agents.Agent) {
	defer s.claim.drop(s.env.Items)
	if s.Stall.Stock[s.Item] < s.Qty || ag.Coins < s.cost() {
		agents.Fail(s)
		return
	}
	s.Stall.Stock[s.Item] -= s.Qty
	ag.Coins -= s.cost()
	ag.Inventory.Add(s.Item, s.Qty)
}

// Evaluate rates buying food when none is carried.
func (s *Shop) Evaluate(ag *agents.Agent, area world.Area) float64 {
	if s.env.Catalog.FoodCount(ag.Inventory) > 0 || s.Stall.Stock[s.Item] < s.Qty || ag.Coins < s.cost() {
		return 0
	}
	return (100 - ag.Needs.Get(agents.NeedHunger)) * 0.4
}

func (s *Shop) Reset() {
	if s.env != nil {
		s.claim.drop(s.env.Items)
	}
	*s = Shop{}
}
