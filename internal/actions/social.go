package actions

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/talgya/villagesim/internal/agents"
)

type sessionState uint8

const (
	sessionWaiting sessionState = iota
	sessionLive
	sessionOver
)

// session is the two-party bookkeeping shared by Chat and Trade. The same
// action instance is registered in both agents' brains; it runs only while
// it is current in both, and ends itself as soon as either side drops it,
// whether or not the partner had started yet.
type session struct {
	ID      uuid.UUID
	A, B    *agents.Agent
	started bool
	waited  float64
}

func current(ag *agents.Agent) agents.Action {
	if ag == nil || ag.Brain == nil {
		return nil
	}
	return ag.Brain.Current()
}

// holds reports whether act is current or still queued in ag's brain.
func holds(ag *agents.Agent, act agents.Action) bool {
	if ag == nil || ag.Brain == nil {
		return false
	}
	if ag.Brain.Current() == act {
		return true
	}
	for _, q := range ag.Brain.QueuedActions() {
		if q == act {
			return true
		}
	}
	return false
}

func (s *session) other(ag *agents.Agent) *agents.Agent {
	if ag == s.A {
		return s.B
	}
	return s.A
}

// step advances the join handshake for ag's half of the tick.
func (s *session) step(act agents.Action, ag *agents.Agent, dt, grace float64) sessionState {
	both := current(s.A) == act && current(s.B) == act
	if s.started {
		if !both {
			return sessionOver
		}
		return sessionLive
	}
	if both {
		s.started = true
		act.State().CanBeInterrupted = false
		return sessionLive
	}
	if !holds(s.A, act) || !holds(s.B, act) {
		return sessionOver
	}
	// Count the wait once per tick: on A's turn, or on B's while A has not joined.
	if ag == s.A || current(s.A) != act {
		s.waited += dt
	}
	if s.waited >= grace {
		return sessionOver
	}
	return sessionWaiting
}

// Chat is a shared conversation. Speakers alternate each turn and both
// participants gain social and mood.
type Chat struct {
	agents.ActionState
	session
	env *Env

	Turn    int
	speaker *agents.Agent
	timer   float64
	ended   bool
}

// Setup configures a conversation started by a with b.
func (c *Chat) Setup(env *Env, a, b *agents.Agent) *Chat {
	c.Init("chat", agents.ExecConditional, 0)
	c.env = env
	c.Shared = true
	c.Need = agents.NeedSocial
	c.ID = uuid.New()
	c.A, c.B = a, b
	c.speaker = a
	return c
}

func (c *Chat) Register(*agents.Agent) {}

func (c *Chat) Satisfied(*agents.Agent) bool {
	return c.ended
}

func (c *Chat) Perform(ag *agents.Agent) {
	switch c.step(c, ag, c.env.dt(), c.env.Rates.JoinGrace) {
	case sessionWaiting:
		return
	case sessionOver:
		c.finish(c.Turn > 0)
		return
	}
	if ag != c.speaker {
		return
	}
	c.timer += c.env.dt()
	if c.timer < c.env.Rates.ChatTurnSeconds {
		return
	}
	c.timer = 0
	c.Turn++
	listener := c.other(ag)
	ag.Dialog = chatLines[(c.Turn-1)%len(chatLines)]
	listener.Dialog = ""
	for _, p := range []*agents.Agent{ag, listener} {
		p.Needs.Add(agents.NeedSocial, c.env.Rates.ChatSocialGain)
		p.Needs.Add(agents.NeedMood, c.env.Rates.ChatMoodGain)
	}
	c.speaker = listener
	if turns := c.env.Rates.ChatTurns; turns > 0 {
		c.Progress = float64(c.Turn) / float64(turns) * 100
		if c.Turn >= turns {
			c.env.remember(c.A, "chatted with "+c.B.Name, 0.4)
			c.env.remember(c.B, "chatted with "+c.A.Name, 0.4)
			c.finish(true)
		}
	}
}

// Interrupted leaves the conversation; the partner's side ends it on its next tick.
func (c *Chat) Interrupted(ag *agents.Agent) {
	ag.Dialog = ""
}

func (c *Chat) finish(ok bool) {
	if c.ended {
		return
	}
	c.ended = true
	c.A.Dialog = ""
	c.B.Dialog = ""
	slog.Debug("chat ended", "session", c.ID, "a", c.A.ID, "b", c.B.ID, "turns", c.Turn)
	agents.Complete(c, ok)
}

func (c *Chat) Reset() {
	*c = Chat{}
}

var chatLines = []string{
	"Fine weather for it.",
	"Have you tried the stew?",
	"The fields look good this year.",
	"Did you hear the news from the market?",
	"I could use a nap.",
	"See you at the plaza.",
}

// Trade sells items from Seller to Buyer for coins once both are present.
type Trade struct {
	agents.ActionState
	session
	env *Env

	Item  string
	Qty   int
	Price int // Total coins
	timer float64
	ended bool
}

// Setup configures a sale of qty item from seller to buyer at catalog price.
func (t *Trade) Setup(env *Env, buyer, seller *agents.Agent, item string, qty int) *Trade {
	t.Init("trade", agents.ExecConditional, 0)
	t.env = env
	t.Shared = true
	t.ID = uuid.New()
	t.A, t.B = buyer, seller
	t.Item = item
	t.Qty = qty
	t.Price = env.Catalog.Price(item) * qty
	return t
}

// Buyer returns the paying party.
func (t *Trade) Buyer() *agents.Agent { return t.A }

// Seller returns the selling party.
func (t *Trade) Seller() *agents.Agent { return t.B }

func (t *Trade) Register(*agents.Agent) {}

func (t *Trade) Satisfied(*agents.Agent) bool {
	return t.ended
}

func (t *Trade) Perform(ag *agents.Agent) {
	switch t.step(t, ag, t.env.dt(), t.env.Rates.JoinGrace) {
	case sessionWaiting:
		return
	case sessionOver:
		t.finish(false)
		return
	}
	if ag != t.A {
		return
	}
	t.timer += t.env.dt()
	if t.timer < t.env.Rates.TradeSeconds {
		return
	}
	buyer, seller := t.A, t.B
	if buyer.Coins < t.Price || !seller.Inventory.Remove(t.Item, t.Qty) {
		t.finish(false)
		return
	}
	buyer.Coins -= t.Price
	seller.Coins += t.Price
	buyer.Inventory.Add(t.Item, t.Qty)
	note := fmt.Sprintf("bought %d %s from %s", t.Qty, t.Item, seller.Name)
	t.env.remember(buyer, note, 0.3)
	t.env.remember(seller, fmt.Sprintf("sold %d %s to %s", t.Qty, t.Item, buyer.Name), 0.3)
	t.finish(true)
}

// Interrupted leaves the trade; the partner's side ends it on its next tick.
func (t *Trade) Interrupted(*agents.Agent) {}

func (t *Trade) finish(ok bool) {
	if t.ended {
		return
	}
	t.ended = true
	slog.Debug("trade ended", "session", t.ID, "buyer", t.A.ID, "seller", t.B.ID, "ok", ok)
	agents.Complete(t, ok)
}

func (t *Trade) Reset() {
	*t = Trade{}
}
