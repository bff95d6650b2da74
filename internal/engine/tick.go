// Package engine provides the tick-based simulation loop and the Simulation
// that composes the village: grid, fixtures, villagers, brains and routines.
package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/talgya/villagesim/internal/clock"
)

// Engine drives the simulation forward. Every tick advances the world by
// SimStep sim-seconds; Speed shortens the wall-clock wait between ticks.
type Engine struct {
	Interval time.Duration // Wall time between ticks at speed 1
	SimStep  float64       // Sim-seconds per tick

	// Clock is watched for hour and day rollovers; the tick callback advances it.
	Clock clock.Clock

	// Callbacks for each tick layer, populated during setup.
	OnTick func(tick uint64, dt float64) // Every tick
	OnHour func(tick uint64)             // Each new hour of the day
	OnDay  func(tick uint64)             // Each new day

	mu      sync.RWMutex
	tick    uint64
	speed   float64 // 0 = paused
	running bool
	stop    chan struct{}
}

// NewEngine creates an engine with a one-second interval, one sim-second
// per tick and real-time speed.
func NewEngine(c clock.Clock) *Engine {
	return &Engine{
		Interval: time.Second,
		SimStep:  1,
		Clock:    c,
		speed:    1,
	}
}

// Tick returns the number of ticks run.
func (e *Engine) Tick() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.tick
}

// SetTick restores the tick counter, e.g. from a saved world.
func (e *Engine) SetTick(t uint64) {
	e.mu.Lock()
	e.tick = t
	e.mu.Unlock()
}

// Speed returns the current multiplier.
func (e *Engine) Speed() float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.speed
}

// SetSpeed changes the multiplier; 0 pauses.
func (e *Engine) SetSpeed(v float64) {
	if v < 0 {
		v = 0
	}
	e.mu.Lock()
	e.speed = v
	e.mu.Unlock()
}

// Running reports whether Run is looping.
func (e *Engine) Running() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.running
}

// Run starts the simulation loop. Blocks until ctx ends or Stop is called.
func (e *Engine) Run(ctx context.Context) {
	e.mu.Lock()
	e.running = true
	e.stop = make(chan struct{})
	stop := e.stop
	e.mu.Unlock()
	slog.Info("simulation engine started", "tick", e.Tick(), "speed", e.Speed())

	defer func() {
		e.mu.Lock()
		e.running = false
		e.mu.Unlock()
		slog.Info("simulation engine stopped", "tick", e.Tick())
	}()

	for {
		wait := 100 * time.Millisecond
		if speed := e.Speed(); speed > 0 {
			start := time.Now()
			e.Step()
			wait = time.Duration(float64(e.Interval)/speed) - time.Since(start)
		}
		if wait <= 0 {
			select {
			case <-ctx.Done():
				return
			case <-stop:
				return
			default:
			}
			continue
		}
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-time.After(wait):
		}
	}
}

// Stop halts the simulation loop.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running && e.stop != nil {
		close(e.stop)
		e.stop = nil
	}
}

// Step advances the simulation by one tick.
func (e *Engine) Step() {
	e.mu.Lock()
	e.tick++
	tick := e.tick
	e.mu.Unlock()

	hour, day := e.now()
	if e.OnTick != nil {
		e.OnTick(tick, e.SimStep)
	}
	newHour, newDay := e.now()

	if newHour != hour && e.OnHour != nil {
		e.OnHour(tick)
	}
	if newDay != day && e.OnDay != nil {
		e.OnDay(tick)
	}
}

func (e *Engine) now() (hour, day int) {
	if e.Clock == nil {
		return 0, 0
	}
	return int(e.Clock.CurrentTime() / clock.Hour), e.Clock.Day()
}
