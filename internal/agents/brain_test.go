package agents

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	registered []string
	completed  []string
}

func (r *recorder) ActionRegistered(_ *Agent, act Action) {
	r.registered = append(r.registered, act.State().Name)
}

func (r *recorder) ActionProgress(*Agent, Action, float64) {}

func (r *recorder) ActionCompleted(_ *Agent, act Action, ok bool) {
	r.completed = append(r.completed, fmt.Sprintf("%s:%t", act.State().Name, ok))
}

type idleDecider struct {
	idles      int
	interrupts int
	onIdle     func(ag *Agent)
}

func (d *idleDecider) Interrupt(*Agent) { d.interrupts++ }

func (d *idleDecider) Idle(ag *Agent) {
	d.idles++
	if d.onIdle != nil {
		d.onIdle(ag)
	}
}

func newBrain(capacity int) (*Brain, *Pool, *recorder) {
	p := NewPool()
	b := NewBrain(&Agent{ID: 1}, p, nil, capacity)
	rec := &recorder{}
	b.Observe(rec)
	return b, p, rec
}

func TestBrainRunsQueueInOrder(t *testing.T) {
	b, p, rec := newBrain(0)
	require.True(t, b.RegisterAction(newTest(p, "a", ExecSingle, 100, nil), false))
	require.True(t, b.RegisterAction(newTest(p, "b", ExecSingle, 100, nil), false))
	assert.Equal(t, 2, b.Queued())

	b.Update(1)
	b.Update(1)
	assert.Equal(t, []string{"a:true", "b:true"}, rec.completed)
	assert.True(t, b.Idle())
	assert.Equal(t, 2, p.Stats().Free)
}

func TestBrainRejectsWhenFull(t *testing.T) {
	b, p, _ := newBrain(2)
	require.True(t, b.RegisterAction(newTest(p, "a", ExecSingle, 1, nil), false))
	require.True(t, b.RegisterAction(newTest(p, "b", ExecSingle, 1, nil), false))
	assert.False(t, b.RegisterAction(newTest(p, "c", ExecSingle, 1, nil), false))
	assert.Equal(t, 2, b.Queued())
}

func TestBrainForcedEvictsLast(t *testing.T) {
	b, p, _ := newBrain(2)
	resets := 0
	a := newTest(p, "a", ExecSingle, 1, nil)
	last := newTest(p, "last", ExecSingle, 1, nil)
	last.resets = &resets
	require.True(t, b.RegisterAction(a, false))
	require.True(t, b.RegisterAction(last, false))

	urgent := newTest(p, "urgent", ExecSingle, 1, nil)
	require.True(t, b.RegisterAction(urgent, true))

	q := b.QueuedActions()
	require.Len(t, q, 2)
	assert.Same(t, urgent, q[0])
	assert.Same(t, a, q[1])
	assert.Equal(t, 1, resets)
}

func TestBrainForcedInterruptsCurrent(t *testing.T) {
	b, p, rec := newBrain(0)
	long := newTest(p, "long", ExecSingle, 1, nil)
	require.True(t, b.RegisterAction(long, false))
	b.Update(1)
	require.Same(t, long, b.Current())

	require.True(t, b.RegisterAction(newTest(p, "short", ExecSingle, 100, nil), true))
	assert.Nil(t, b.Current())
	assert.Equal(t, []string{"long:false"}, rec.completed)

	b.Update(1)
	assert.Equal(t, []string{"long:false", "short:true"}, rec.completed)
}

func TestBrainForcedKeepsUninterruptible(t *testing.T) {
	b, p, _ := newBrain(0)
	long := newTest(p, "long", ExecSingle, 1, nil)
	long.CanBeInterrupted = false
	require.True(t, b.RegisterAction(long, false))
	b.Update(1)

	short := newTest(p, "short", ExecSingle, 100, nil)
	require.True(t, b.RegisterAction(short, true))
	assert.Same(t, long, b.Current())
	assert.Same(t, short, b.QueuedActions()[0])
}

func TestBrainReplaceCurrentIgnoresFlag(t *testing.T) {
	b, p, rec := newBrain(0)
	long := newTest(p, "long", ExecSingle, 1, nil)
	long.CanBeInterrupted = false
	require.True(t, b.RegisterAction(long, false))
	b.Update(1)

	admin := newTest(p, "admin", ExecSingle, 1, nil)
	b.ReplaceCurrent(admin)
	assert.Same(t, admin, b.Current())
	assert.Equal(t, []string{"long:false"}, rec.completed)
}

func TestBrainChainsNext(t *testing.T) {
	b, p, rec := newBrain(0)
	cook := newTest(p, "cook", ExecSingle, 100, nil)
	eat := newTest(p, "eat", ExecSingle, 100, nil)
	cook.Next = eat
	require.True(t, b.RegisterAction(cook, false))

	b.Update(1)
	assert.Same(t, eat, b.Current())
	b.Update(1)
	assert.Nil(t, b.Current())
	assert.Equal(t, []string{"cook:true", "eat:true"}, rec.completed)
	assert.Equal(t, []string{"cook", "eat"}, rec.registered)
}

func TestBrainFailureDropsNext(t *testing.T) {
	b, p, rec := newBrain(0)
	resets := 0
	cook := newTest(p, "cook", ExecSingle, 100, nil)
	cook.failReg = true
	eat := newTest(p, "eat", ExecSingle, 100, nil)
	eat.resets = &resets
	cook.Next = eat
	require.True(t, b.RegisterAction(cook, false))

	b.Update(1)
	assert.Nil(t, b.Current())
	assert.Equal(t, 1, resets)
	assert.Equal(t, []string{"cook:false"}, rec.completed)
}

func TestBrainDisabledActionIsSkipped(t *testing.T) {
	b, p, rec := newBrain(0)
	off := newTest(p, "off", ExecSingle, 100, nil)
	off.Enabled = false
	require.True(t, b.RegisterAction(off, false))
	require.True(t, b.RegisterAction(newTest(p, "on", ExecSingle, 100, nil), false))

	b.Update(1)
	assert.Equal(t, []string{"off:false", "on:true"}, rec.completed)
}

func TestBrainLanesDrainInOrder(t *testing.T) {
	b, p, rec := newBrain(0)
	require.True(t, b.RegisterIn(LaneTertiary, newTest(p, "low", ExecSingle, 100, nil), false))
	require.True(t, b.RegisterIn(LanePrimary, newTest(p, "high", ExecSingle, 100, nil), false))
	assert.False(t, b.RegisterIn(NumLanes, newTest(p, "bad", ExecSingle, 100, nil), false))

	b.Update(1)
	b.Update(1)
	assert.Equal(t, []string{"high:true", "low:true"}, rec.completed)
}

func TestBrainIdleConsultsDecider(t *testing.T) {
	p := NewPool()
	ag := &Agent{ID: 1}
	d := &idleDecider{}
	b := NewBrain(ag, p, d, 0)
	d.onIdle = func(ag *Agent) {
		ag.Brain.RegisterAction(newTest(p, "wander", ExecSingle, 100, nil), false)
	}

	b.Update(1)
	assert.Equal(t, 1, d.idles)
	assert.Equal(t, 1, b.Queued())
	b.Update(1)
	assert.Equal(t, 1, d.idles)
	assert.Equal(t, 2, d.interrupts)
	assert.Same(t, b, ag.Brain)
}

func TestBrainSharedActionRefcount(t *testing.T) {
	p := NewPool()
	b1 := NewBrain(&Agent{ID: 1}, p, nil, 0)
	b2 := NewBrain(&Agent{ID: 2}, p, nil, 0)
	resets := 0
	chat := newTest(p, "chat", ExecSingle, 1, nil)
	chat.Shared = true
	chat.resets = &resets

	require.True(t, b1.RegisterAction(chat, false))
	require.True(t, b2.RegisterAction(chat, false))
	b1.Dispose()
	assert.Zero(t, resets)
	b2.Dispose()
	assert.Equal(t, 1, resets)
}

func TestBrainNeedCooldown(t *testing.T) {
	b, _, _ := newBrain(0)
	assert.False(t, b.NeedCooling(NeedHunger, 10))
	b.MarkNeed(NeedHunger)
	b.Update(5)
	assert.True(t, b.NeedCooling(NeedHunger, 10))
	assert.False(t, b.NeedCooling(NeedSleep, 10))
	b.Update(5)
	assert.False(t, b.NeedCooling(NeedHunger, 10))
}
