package agents

// Lane selects one of a Brain's FIFO queues. Lanes are drained in order.
type Lane uint8

const (
	LanePrimary Lane = iota
	LaneSecondary
	LaneTertiary
	NumLanes
)

// DefaultCapacity is the per-lane queue capacity.
const DefaultCapacity = 6

// Decider picks actions for an agent. Interrupt runs every tick before the
// current action executes; Idle runs when nothing is current or queued.
type Decider interface {
	Interrupt(ag *Agent)
	Idle(ag *Agent)
}

// Observer receives action lifecycle notifications from a Brain.
type Observer interface {
	ActionRegistered(ag *Agent, act Action)
	ActionProgress(ag *Agent, act Action, progress float64)
	ActionCompleted(ag *Agent, act Action, ok bool)
}

// Brain owns one agent's action queues and its single current action.
type Brain struct {
	Capacity int

	agent   *Agent
	pool    *Pool
	decider Decider

	lanes   [NumLanes][]Action
	current Action
	unsubs  []func()

	observers []Observer
	cooldowns map[NeedKind]float64
	now       float64
}

// NewBrain attaches a brain to owner. capacity <= 0 takes DefaultCapacity.
func NewBrain(owner *Agent, pool *Pool, decider Decider, capacity int) *Brain {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	b := &Brain{
		Capacity:  capacity,
		agent:     owner,
		pool:      pool,
		decider:   decider,
		cooldowns: make(map[NeedKind]float64),
	}
	owner.Brain = b
	return b
}

// SetDecider swaps the decision maker.
func (b *Brain) SetDecider(d Decider) {
	b.decider = d
}

// Observe subscribes o to lifecycle notifications.
func (b *Brain) Observe(o Observer) {
	b.observers = append(b.observers, o)
}

// Pool returns the pool actions are drawn from.
func (b *Brain) Pool() *Pool {
	return b.pool
}

// Now returns the brain's accumulated sim time in seconds.
func (b *Brain) Now() float64 {
	return b.now
}

// Current returns the executing action, or nil.
func (b *Brain) Current() Action {
	return b.current
}

// Queued returns the number of waiting actions across all lanes.
func (b *Brain) Queued() int {
	n := 0
	for _, q := range b.lanes {
		n += len(q)
	}
	return n
}

// QueuedActions returns the waiting actions in execution order.
func (b *Brain) QueuedActions() []Action {
	var out []Action
	for _, q := range b.lanes {
		out = append(out, q...)
	}
	return out
}

// Idle reports whether the brain has nothing current or queued.
func (b *Brain) Idle() bool {
	return b.current == nil && b.Queued() == 0
}

// MarkNeed records that an action was just chosen for k.
func (b *Brain) MarkNeed(k NeedKind) {
	b.cooldowns[k] = b.now
}

// NeedCooling reports whether k was chosen less than cooldown seconds ago.
func (b *Brain) NeedCooling(k NeedKind, cooldown float64) bool {
	last, ok := b.cooldowns[k]
	return ok && b.now-last < cooldown
}

// RegisterAction queues act on the primary lane. See RegisterIn.
func (b *Brain) RegisterAction(act Action, force bool) bool {
	return b.RegisterIn(LanePrimary, act, force)
}

// RegisterIn queues act on lane. A non-forced action is appended and rejected
// when the lane is full. A forced action goes to the front, evicting the last
// entry of a full lane, and interrupts the current action if it allows it.
func (b *Brain) RegisterIn(lane Lane, act Action, force bool) bool {
	if act == nil || lane >= NumLanes || act.State().Done {
		return false
	}
	q := b.lanes[lane]
	if !force {
		if len(q) >= b.Capacity {
			return false
		}
		Retain(act)
		b.lanes[lane] = append(q, act)
		b.notifyRegistered(act)
		return true
	}

	if len(q) >= b.Capacity {
		last := q[len(q)-1]
		q[len(q)-1] = nil
		q = q[:len(q)-1]
		b.drop(last)
	}
	Retain(act)
	b.lanes[lane] = append([]Action{act}, q...)
	b.notifyRegistered(act)

	if b.current != nil && b.current.State().CanBeInterrupted {
		b.interruptCurrent()
	}
	return true
}

// ReplaceCurrent drops the current action regardless of CanBeInterrupted and
// makes act current.
func (b *Brain) ReplaceCurrent(act Action) {
	if act == nil {
		return
	}
	Retain(act)
	b.notifyRegistered(act)
	if b.current != nil {
		b.interruptCurrent()
	}
	b.adopt(act)
}

// Update advances the brain by dt sim-seconds.
func (b *Brain) Update(dt float64) {
	b.now += dt
	b.settle()

	if b.decider != nil {
		b.decider.Interrupt(b.agent)
	}

	if b.current == nil && !b.dequeue() {
		if b.decider != nil {
			b.decider.Idle(b.agent)
		}
		return
	}

	Execute(b.current, b.agent, dt)
	b.settle()
}

// Dispose drops every queued and current action.
func (b *Brain) Dispose() {
	if b.current != nil {
		b.interruptCurrent()
	}
	for i := range b.lanes {
		for _, act := range b.lanes[i] {
			b.drop(act)
		}
		b.lanes[i] = nil
	}
	b.observers = nil
}

func (b *Brain) dequeue() bool {
	for i := range b.lanes {
		for len(b.lanes[i]) > 0 {
			act := b.lanes[i][0]
			b.lanes[i][0] = nil
			b.lanes[i] = b.lanes[i][1:]

			s := act.State()
			if !s.Enabled || s.Done {
				if !s.Done {
					Cancel(act)
					Fail(act)
				}
				b.notifyCompleted(act, false)
				release(act)
				continue
			}
			b.adopt(act)
			return true
		}
	}
	return false
}

func (b *Brain) adopt(act Action) {
	b.current = act
	s := act.State()
	b.unsubs = append(b.unsubs,
		s.OnProgress(func(a Action, p float64) {
			for _, o := range b.observers {
				o.ActionProgress(b.agent, a, p)
			}
		}),
	)
}

// settle retires a finished current action and promotes its Next.
func (b *Brain) settle() {
	for b.current != nil && b.current.State().Done {
		act := b.current
		b.current = nil
		b.unsubscribe()

		s := act.State()
		ok := s.Success
		next := s.Next
		s.Next = nil
		b.notifyCompleted(act, ok)
		release(act)

		if next == nil {
			return
		}
		if !ok {
			Cancel(next)
			release(next)
			return
		}
		Retain(next)
		b.notifyRegistered(next)
		b.adopt(next)
	}
}

func (b *Brain) interruptCurrent() {
	act := b.current
	b.current = nil
	b.unsubscribe()
	if h, ok := act.(InterruptHandler); ok {
		h.Interrupted(b.agent)
	} else {
		Cancel(act)
		Fail(act)
	}
	b.notifyCompleted(act, false)
	release(act)
}

// drop releases a queued action that never became current.
func (b *Brain) drop(act Action) {
	if !act.State().Shared {
		Cancel(act)
	}
	release(act)
}

func (b *Brain) unsubscribe() {
	for _, u := range b.unsubs {
		u()
	}
	b.unsubs = b.unsubs[:0]
}

func (b *Brain) notifyRegistered(act Action) {
	for _, o := range b.observers {
		o.ActionRegistered(b.agent, act)
	}
}

func (b *Brain) notifyCompleted(act Action, ok bool) {
	for _, o := range b.observers {
		o.ActionCompleted(b.agent, act, ok)
	}
}
