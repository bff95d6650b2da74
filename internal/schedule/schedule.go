// Package schedule injects time-windowed routines into agents' brains.
// A Schedule fires once when its window opens, forcing its action in, and
// registers an optional closing action when the window lapses.
package schedule

import (
	"log/slog"
	"strings"

	"github.com/talgya/villagesim/internal/agents"
	"github.com/talgya/villagesim/internal/clock"
)

// DaySet is a bitmask of weekdays 1..7.
type DaySet uint8

// Common day sets.
const (
	Weekdays DaySet = 1<<1 | 1<<2 | 1<<3 | 1<<4 | 1<<5
	Weekend  DaySet = 1<<6 | 1<<7
	EveryDay        = Weekdays | Weekend
)

// Days builds a set from weekday numbers, ignoring anything outside 1..7.
func Days(days ...int) DaySet {
	var s DaySet
	for _, d := range days {
		if d >= 1 && d <= clock.DaysPerWeek {
			s |= 1 << d
		}
	}
	return s
}

// Has reports whether d is in the set.
func (s DaySet) Has(d int) bool {
	return d >= 1 && d <= clock.DaysPerWeek && s&(1<<d) != 0
}

func (s DaySet) String() string {
	var names []string
	for d := 1; d <= clock.DaysPerWeek; d++ {
		if s.Has(d) {
			names = append(names, clock.DayName(d))
		}
	}
	return strings.Join(names, ",")
}

// Factory builds a fresh action each time a schedule needs one.
type Factory func() agents.Action

// Schedule is a recurring window of the day during which Owner is sent to
// do something. End before Start means the window wraps past midnight.
type Schedule struct {
	Name     string
	Start    float64 // Sim-seconds since midnight
	End      float64
	Days     DaySet
	Priority int
	Owner    *agents.Agent

	Make    Factory // Forced in when the window opens
	Closing Factory // Optional, queued when the window lapses

	elapsed float64
	active  bool
	spent   bool // Fired in the current window; re-armed once it lapses
}

// Wraps reports whether the window crosses midnight.
func (s *Schedule) Wraps() bool {
	return s.End < s.Start
}

// Duration returns the window length in sim-seconds.
func (s *Schedule) Duration() float64 {
	if s.Wraps() {
		return clock.DayLength - s.Start + s.End
	}
	return s.End - s.Start
}

// Active reports whether the schedule fired and its window has not lapsed.
func (s *Schedule) Active() bool {
	return s.active
}

// Elapsed returns the sim-seconds into the running window.
func (s *Schedule) Elapsed() float64 {
	return s.elapsed
}

// Covers reports whether now on day lies inside the window. After midnight
// a wrapped window belongs to the previous day, so day eligibility is
// checked against that effective day.
func (s *Schedule) Covers(now float64, day int) bool {
	if !s.Wraps() {
		return s.Days.Has(day) && now >= s.Start && now <= s.End
	}
	if now >= s.Start {
		return s.Days.Has(day)
	}
	if now <= s.End {
		return s.Days.Has(clock.PrevDay(day))
	}
	return false
}

// offset returns how far now lies into the window.
func (s *Schedule) offset(now float64) float64 {
	if now >= s.Start {
		return now - s.Start
	}
	return clock.DayLength - s.Start + now
}

// Check fires the schedule when its window is open and it has not fired in
// this window yet. Elapsed starts at the offset into the window, so a
// schedule picked up late still ends on time.
func (s *Schedule) Check(now float64, day int) bool {
	if !s.Covers(now, day) {
		s.spent = false
		return false
	}
	if s.spent || s.active {
		return false
	}
	s.spent = true
	s.active = true
	s.elapsed = s.offset(now)
	s.inject(s.Make, true)
	slog.Debug("schedule fired", "schedule", s.Name, "agent", s.owner(), "at", clock.Format(day, now))
	return true
}

// Update advances a fired schedule. Once the window has run its length the
// closing action is queued and done is called.
func (s *Schedule) Update(dt float64, done func(*Schedule)) {
	if !s.active {
		return
	}
	s.elapsed += dt
	if s.elapsed < s.Duration() {
		return
	}
	s.active = false
	s.inject(s.Closing, false)
	slog.Debug("schedule lapsed", "schedule", s.Name, "agent", s.owner())
	if done != nil {
		done(s)
	}
}

func (s *Schedule) inject(f Factory, force bool) {
	if f == nil || s.Owner == nil || s.Owner.Brain == nil {
		return
	}
	act := f()
	if act == nil {
		return
	}
	if !s.Owner.Brain.RegisterAction(act, force) {
		agents.Cancel(act)
		agents.Release(act)
	}
}

func (s *Schedule) owner() agents.AgentID {
	if s.Owner == nil {
		return 0
	}
	return s.Owner.ID
}
