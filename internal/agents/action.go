package agents

import "github.com/talgya/villagesim/internal/world"

// ExecKind selects how an action's body runs each tick.
type ExecKind uint8

const (
	// ExecSingle ramps progress to 100 once, then performs the effect.
	ExecSingle ExecKind = iota
	// ExecMulti ramps progress to 100 TotalTimes times, performing the effect each time.
	ExecMulti
	// ExecConditional completes as soon as Satisfied holds; otherwise Perform runs once per tick.
	ExecConditional
)

// Action is one unit of agent behavior. Concrete actions embed ActionState and
// implement Register, Perform and Reset. Obtain them with Get so the defaults
// are in place.
type Action interface {
	State() *ActionState

	// Register runs once, on the first Execute. It may push preceding actions,
	// Fail, or Complete immediately.
	Register(ag *Agent)

	// Perform is the effect body: once for ExecSingle, once per time for
	// ExecMulti, once per unsatisfied tick for ExecConditional.
	Perform(ag *Agent)

	// Reset wipes the concrete action back to its zero value and releases any
	// fixture it holds. Called by the pool.
	Reset()
}

// Condition is implemented by ExecConditional actions.
type Condition interface {
	Satisfied(ag *Agent) bool
}

// Scorer lets an action rate itself as an environment-scan candidate.
// Actions that do not implement it score 0.
type Scorer interface {
	Evaluate(ag *Agent, area world.Area) float64
}

// InterruptHandler overrides what happens when a Brain drops the action
// mid-flight. Without it the action is cancelled and failed.
type InterruptHandler interface {
	Interrupted(ag *Agent)
}

// ActionState is the state every action shares.
type ActionState struct {
	Name             string
	Enabled          bool
	Paused           bool
	CanBeInterrupted bool
	Done             bool
	Success          bool

	// Shared actions are registered into more than one Brain at once.
	Shared bool
	// Need is the need that drove this action, NeedNone otherwise.
	Need NeedKind
	// Work marks job actions; only whitelisted needs may preempt them.
	Work bool

	Kind       ExecKind
	Speed      float64 // Progress points per sim-second
	Progress   float64 // 0–100 within the current time
	Times      int     // Completed times (ExecMulti)
	TotalTimes int

	Preceding []Action
	Next      Action

	pool        *Pool
	refs        int
	pooled      bool
	registered  bool
	listenerSeq int
	completed   []completionListener
	progressed  []progressListener
}

type completionListener struct {
	id int
	fn func(Action, bool)
}

type progressListener struct {
	id int
	fn func(Action, float64)
}

// State returns the shared state; promoted onto every concrete action.
func (s *ActionState) State() *ActionState {
	return s
}

// Init sets the name, execution kind and speed. Concrete Setup methods call it first.
func (s *ActionState) Init(name string, kind ExecKind, speed float64) {
	s.Name = name
	s.Kind = kind
	s.Speed = speed
	if kind == ExecMulti && s.TotalTimes < 1 {
		s.TotalTimes = 1
	}
}

// Registered reports whether Register has run.
func (s *ActionState) Registered() bool {
	return s.registered
}

// Overall returns progress across all times, 0–100.
func (s *ActionState) Overall() float64 {
	if s.Kind != ExecMulti || s.TotalTimes <= 1 {
		return s.Progress
	}
	p := (float64(s.Times)*100 + s.Progress) / float64(s.TotalTimes)
	if p > 100 {
		p = 100
	}
	return p
}

// PushPreceding appends actions that must finish, in order, before this one's body runs.
func (s *ActionState) PushPreceding(acts ...Action) {
	for _, a := range acts {
		if a != nil {
			s.Preceding = append(s.Preceding, a)
		}
	}
}

// OnCompleted subscribes fn to completion. Listeners are dropped when the
// action completes; the returned func unsubscribes early.
func (s *ActionState) OnCompleted(fn func(Action, bool)) func() {
	s.listenerSeq++
	id := s.listenerSeq
	s.completed = append(s.completed, completionListener{id: id, fn: fn})
	return func() {
		for i, l := range s.completed {
			if l.id == id {
				s.completed = append(s.completed[:i], s.completed[i+1:]...)
				return
			}
		}
	}
}

// OnProgress subscribes fn to progress updates (0–100).
func (s *ActionState) OnProgress(fn func(Action, float64)) func() {
	s.listenerSeq++
	id := s.listenerSeq
	s.progressed = append(s.progressed, progressListener{id: id, fn: fn})
	return func() {
		for i, l := range s.progressed {
			if l.id == id {
				s.progressed = append(s.progressed[:i], s.progressed[i+1:]...)
				return
			}
		}
	}
}

// ListenerCount returns the number of subscribed listeners.
func (s *ActionState) ListenerCount() int {
	return len(s.completed) + len(s.progressed)
}

func (s *ActionState) emitProgress(act Action) {
	if len(s.progressed) == 0 {
		return
	}
	p := s.Overall()
	for _, l := range append([]progressListener(nil), s.progressed...) {
		l.fn(act, p)
	}
}

func (s *ActionState) prepare(p *Pool) {
	*s = ActionState{
		Enabled:          true,
		CanBeInterrupted: true,
		Need:             NeedNone,
		pool:             p,
	}
}

// Execute advances act by dt sim-seconds on behalf of ag.
func Execute(act Action, ag *Agent, dt float64) {
	s := act.State()
	if s.Done {
		return
	}
	if !s.registered {
		s.registered = true
		act.Register(ag)
		if s.Done {
			return
		}
	}

	// Preceding actions run strictly front to back; the body waits for all of them.
	if len(s.Preceding) > 0 {
		front := s.Preceding[0]
		Execute(front, ag, dt)
		if fs := front.State(); fs.Done {
			ok := fs.Success
			s.Preceding[0] = nil
			s.Preceding = s.Preceding[1:]
			release(front)
			if !ok {
				Fail(act)
			}
		}
		return
	}

	if s.Paused || !s.Enabled {
		return
	}

	switch s.Kind {
	case ExecSingle:
		s.Progress += s.Speed * dt
		if s.Progress < 100 {
			s.emitProgress(act)
			return
		}
		s.Progress = 100
		s.emitProgress(act)
		act.Perform(ag)
		if !s.Done {
			Complete(act, true)
		}

	case ExecMulti:
		s.Progress += s.Speed * dt
		// Carry overshoot into the next time, never past TotalTimes.
		for s.Progress >= 100 && s.Times < s.TotalTimes {
			s.Progress -= 100
			s.Times++
			act.Perform(ag)
			if s.Done {
				return
			}
		}
		if s.Times >= s.TotalTimes {
			s.Progress = 100
			s.emitProgress(act)
			Complete(act, true)
			return
		}
		s.emitProgress(act)

	case ExecConditional:
		cond, ok := act.(Condition)
		if !ok || cond.Satisfied(ag) {
			if !s.Done {
				Complete(act, true)
			}
			return
		}
		if s.Done {
			return
		}
		act.Perform(ag)
	}
}

// Complete marks act done and notifies then drops every listener. A failed
// completion discards the Next chain and any preceding actions still queued.
func Complete(act Action, success bool) {
	s := act.State()
	if s.Done {
		return
	}
	if !success {
		Cancel(act)
	}
	s.Done = true
	s.Success = success

	listeners := s.completed
	s.completed = nil
	s.progressed = nil
	for _, l := range listeners {
		l.fn(act, success)
	}
}

// Fail completes act unsuccessfully. Callers must not expect Next to run.
func Fail(act Action) {
	Complete(act, false)
}

// Cancel walks the preceding chain and the Next link, releasing each one.
// It does not complete act itself.
func Cancel(act Action) {
	s := act.State()
	for _, p := range s.Preceding {
		Cancel(p)
		release(p)
	}
	s.Preceding = nil
	if s.Next != nil {
		next := s.Next
		s.Next = nil
		Cancel(next)
		release(next)
	}
}

func release(a Action) {
	a.State().pool.Put(a)
}

// Release returns a to the pool it was drawn from.
func Release(a Action) {
	if a != nil {
		release(a)
	}
}
