package agents

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testAction struct {
	ActionState
	log       *[]string
	resets    *int
	performed int
	failReg   bool
	satisfied func() bool
}

func (t *testAction) Register(ag *Agent) {
	if t.failReg {
		Fail(t)
	}
}

func (t *testAction) Perform(ag *Agent) {
	t.performed++
	if t.log != nil {
		*t.log = append(*t.log, t.Name)
	}
}

func (t *testAction) Satisfied(ag *Agent) bool {
	return t.satisfied != nil && t.satisfied()
}

func (t *testAction) Reset() {
	if t.resets != nil {
		*t.resets++
	}
	*t = testAction{}
}

func newTest(p *Pool, name string, kind ExecKind, speed float64, log *[]string) *testAction {
	a := Get[testAction](p)
	a.Init(name, kind, speed)
	a.log = log
	return a
}

func TestPoolPutIsIdempotent(t *testing.T) {
	p := NewPool()
	resets := 0
	a := newTest(p, "a", ExecSingle, 10, nil)
	a.resets = &resets

	p.Put(a)
	p.Put(a)
	assert.Equal(t, 1, resets)
	assert.Equal(t, 1, p.Stats().Free)

	b := Get[testAction](p)
	c := Get[testAction](p)
	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
	assert.Equal(t, PoolStats{Created: 2, Reused: 1, Free: 0}, p.Stats())

	// A reused action comes back with defaults, not stale state.
	assert.True(t, b.Enabled)
	assert.True(t, b.CanBeInterrupted)
	assert.Equal(t, NeedNone, b.Need)
	assert.Empty(t, b.Name)
}

func TestPoolRetainDefersReset(t *testing.T) {
	p := NewPool()
	resets := 0
	a := newTest(p, "shared", ExecSingle, 10, nil)
	a.resets = &resets
	Retain(a)
	Retain(a)

	p.Put(a)
	assert.Equal(t, 0, resets)
	p.Put(a)
	assert.Equal(t, 1, resets)
}

func TestNilPoolAllocates(t *testing.T) {
	a := Get[testAction](nil)
	require.NotNil(t, a)
	assert.True(t, a.Enabled)
	var p *Pool
	p.Put(a)
	assert.Equal(t, PoolStats{}, p.Stats())
}

func TestPrecedingRunFrontToBack(t *testing.T) {
	p := NewPool()
	ag := &Agent{ID: 1}
	var log []string

	owner := newTest(p, "owner", ExecSingle, 100, &log)
	owner.PushPreceding(
		newTest(p, "first", ExecSingle, 100, &log),
		newTest(p, "second", ExecSingle, 100, &log),
		newTest(p, "third", ExecSingle, 100, &log),
	)

	Execute(owner, ag, 1)
	assert.Equal(t, []string{"first"}, log)
	assert.Zero(t, owner.Progress)
	assert.Len(t, owner.Preceding, 2)

	Execute(owner, ag, 1)
	Execute(owner, ag, 1)
	assert.False(t, owner.Done)
	Execute(owner, ag, 1)

	assert.Equal(t, []string{"first", "second", "third", "owner"}, log)
	assert.True(t, owner.Done)
	assert.True(t, owner.Success)
	assert.Equal(t, 3, p.Stats().Free)
}

func TestFailedPrecedingFailsOwner(t *testing.T) {
	p := NewPool()
	ag := &Agent{ID: 1}
	resets := 0

	owner := newTest(p, "owner", ExecSingle, 100, nil)
	pre := newTest(p, "pre", ExecSingle, 100, nil)
	pre.failReg = true
	next := newTest(p, "next", ExecSingle, 100, nil)
	next.resets = &resets
	owner.Next = next
	owner.PushPreceding(pre)

	var got []bool
	owner.OnCompleted(func(_ Action, ok bool) { got = append(got, ok) })

	Execute(owner, ag, 1)
	assert.True(t, owner.Done)
	assert.False(t, owner.Success)
	assert.Zero(t, owner.performed)
	assert.Nil(t, owner.Next)
	assert.Equal(t, 1, resets, "next is released when the owner fails")
	assert.Equal(t, []bool{false}, got)
}

func TestFailedPrecedingReleasesRest(t *testing.T) {
	p := NewPool()
	ag := &Agent{ID: 1}

	owner := newTest(p, "owner", ExecSingle, 100, nil)
	pre := newTest(p, "pre", ExecSingle, 100, nil)
	pre.failReg = true
	later := newTest(p, "later", ExecSingle, 100, nil)
	owner.PushPreceding(pre, later)

	Execute(owner, ag, 1)
	require.True(t, owner.Done)
	assert.False(t, owner.Success)
	assert.Empty(t, owner.Preceding)
	assert.Equal(t, 2, p.Stats().Free)

	p.Put(owner)
	assert.Equal(t, PoolStats{Created: 3, Reused: 0, Free: 3}, p.Stats())
}

func TestMultiFiresExactTimes(t *testing.T) {
	tests := []struct {
		name  string
		speed float64
		dt    float64
		ticks int
	}{
		{"overshoot carried", 70, 1, 5},
		{"one huge step", 100, 10, 1},
		{"many small steps", 25, 0.5, 24},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTest(NewPool(), "eat", ExecMulti, tt.speed, nil)
			a.TotalTimes = 3
			ag := &Agent{ID: 1}
			for i := 0; i < tt.ticks; i++ {
				Execute(a, ag, tt.dt)
			}
			assert.Equal(t, 3, a.performed)
			assert.Equal(t, 3, a.Times)
			assert.True(t, a.Done)
			assert.True(t, a.Success)

			// Further ticks never fire again.
			Execute(a, ag, tt.dt)
			assert.Equal(t, 3, a.performed)
		})
	}
}

func TestMultiOvershootProgress(t *testing.T) {
	a := newTest(NewPool(), "eat", ExecMulti, 70, nil)
	a.TotalTimes = 3
	ag := &Agent{ID: 1}

	Execute(a, ag, 1)
	assert.Equal(t, 0, a.performed)
	Execute(a, ag, 1)
	assert.Equal(t, 1, a.performed)
	assert.InDelta(t, 40, a.Progress, 1e-9)
	assert.InDelta(t, (100+40)/3.0, a.Overall(), 1e-9)
}

func TestListenersRemovedOnCompletion(t *testing.T) {
	a := newTest(NewPool(), "a", ExecSingle, 50, nil)
	ag := &Agent{ID: 1}
	before := a.ListenerCount()

	completions := 0
	var progress []float64
	a.OnCompleted(func(_ Action, ok bool) {
		assert.True(t, ok)
		completions++
	})
	a.OnProgress(func(_ Action, p float64) { progress = append(progress, p) })
	assert.Equal(t, before+2, a.ListenerCount())

	Execute(a, ag, 1)
	Execute(a, ag, 1)
	Execute(a, ag, 1)

	assert.Equal(t, 1, completions)
	assert.Equal(t, []float64{50, 100}, progress)
	assert.Equal(t, before, a.ListenerCount())
}

func TestUnsubscribe(t *testing.T) {
	a := newTest(NewPool(), "a", ExecSingle, 100, nil)
	fired := false
	unsub := a.OnCompleted(func(Action, bool) { fired = true })
	unsub()
	assert.Zero(t, a.ListenerCount())

	Execute(a, &Agent{ID: 1}, 1)
	assert.True(t, a.Done)
	assert.False(t, fired)
}

func TestConditionalCompletesWhenSatisfied(t *testing.T) {
	ready := false
	a := newTest(NewPool(), "wait", ExecConditional, 0, nil)
	a.satisfied = func() bool { return ready }
	ag := &Agent{ID: 1}

	Execute(a, ag, 1)
	Execute(a, ag, 1)
	assert.Equal(t, 2, a.performed)
	assert.False(t, a.Done)

	ready = true
	Execute(a, ag, 1)
	assert.Equal(t, 2, a.performed, "no body on the satisfying tick")
	assert.True(t, a.Done)
	assert.True(t, a.Success)
}

func TestPausedHoldsProgress(t *testing.T) {
	a := newTest(NewPool(), "a", ExecSingle, 30, nil)
	ag := &Agent{ID: 1}

	Execute(a, ag, 1)
	a.Paused = true
	Execute(a, ag, 1)
	assert.InDelta(t, 30, a.Progress, 1e-9)

	a.Paused = false
	Execute(a, ag, 1)
	assert.InDelta(t, 60, a.Progress, 1e-9)
}

func TestCancelReleasesChain(t *testing.T) {
	p := NewPool()
	resets := 0
	owner := newTest(p, "owner", ExecSingle, 10, nil)
	for i := 0; i < 2; i++ {
		pre := newTest(p, "pre", ExecSingle, 10, nil)
		pre.resets = &resets
		owner.PushPreceding(pre)
	}
	next := newTest(p, "next", ExecSingle, 10, nil)
	next.resets = &resets
	owner.Next = next

	Cancel(owner)
	assert.Equal(t, 3, resets)
	assert.Empty(t, owner.Preceding)
	assert.Nil(t, owner.Next)
	assert.False(t, owner.Done)
}
