package schedule

import (
	"log/slog"
	"sort"

	"github.com/talgya/villagesim/internal/clock"
)

// Table holds one agent's schedules. No two entries share a day with
// overlapping windows.
type Table struct {
	entries []*Schedule
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{}
}

// Add installs s unless it overlaps an entry on a shared day. A strictly
// higher priority newcomer evicts every entry it overlaps instead.
func (t *Table) Add(s *Schedule) bool {
	var clash []*Schedule
	for _, e := range t.entries {
		if !Overlaps(e, s) {
			continue
		}
		if s.Priority <= e.Priority {
			slog.Info("schedule rejected", "schedule", s.Name, "agent", s.owner(), "conflicts_with", e.Name)
			return false
		}
		clash = append(clash, e)
	}
	for _, e := range clash {
		t.remove(e)
		slog.Info("schedule evicted", "schedule", e.Name, "agent", e.owner(), "by", s.Name)
	}
	t.entries = append(t.entries, s)
	sort.SliceStable(t.entries, func(i, j int) bool {
		return t.entries[i].Priority > t.entries[j].Priority
	})
	return true
}

// Remove drops the named schedule and reports whether it was present.
func (t *Table) Remove(name string) bool {
	for _, e := range t.entries {
		if e.Name == name {
			t.remove(e)
			return true
		}
	}
	return false
}

func (t *Table) remove(s *Schedule) {
	for i, e := range t.entries {
		if e == s {
			t.entries = append(t.entries[:i], t.entries[i+1:]...)
			return
		}
	}
}

// Entries returns every schedule, highest priority first.
func (t *Table) Entries() []*Schedule {
	return t.entries
}

// ForDay returns the schedules whose window can be open on day, including
// wrapped windows spilling over from the day before.
func (t *Table) ForDay(day int) []*Schedule {
	var out []*Schedule
	for _, e := range t.entries {
		if e.Days.Has(day) || (e.Wraps() && e.Days.Has(clock.PrevDay(day))) {
			out = append(out, e)
		}
	}
	return out
}

// Overlaps reports whether a and b are ever open at the same moment of the
// week. A wrapped window's hours after midnight count toward the next day.
func Overlaps(a, b *Schedule) bool {
	for _, x := range spans(a) {
		for _, y := range spans(b) {
			if x[0] < y[1] && y[0] < x[1] {
				return true
			}
		}
	}
	return false
}

// spans places each daily occurrence of a window on the week as half-open
// sim-second ranges. Sunday's spill past midnight lands on Monday.
func spans(s *Schedule) [][2]float64 {
	const week = clock.DayLength * clock.DaysPerWeek
	var out [][2]float64
	for d := 1; d <= clock.DaysPerWeek; d++ {
		if !s.Days.Has(d) {
			continue
		}
		from := float64(d-1)*clock.DayLength + s.Start
		to := from + s.Duration()
		if to <= week {
			out = append(out, [2]float64{from, to})
			continue
		}
		out = append(out, [2]float64{from, week}, [2]float64{0, to - week})
	}
	return out
}

// Runner drives a table against the clock: while no schedule is active it
// checks today's entries, otherwise it advances the active one.
type Runner struct {
	Table  *Table
	active *Schedule
}

// NewRunner creates a runner over t.
func NewRunner(t *Table) *Runner {
	return &Runner{Table: t}
}

// Active returns the running schedule, or nil.
func (r *Runner) Active() *Schedule {
	return r.active
}

// Tick runs one step against c.
func (r *Runner) Tick(c clock.Clock) {
	if r.active != nil {
		r.active.Update(c.DeltaTime(), func(*Schedule) { r.active = nil })
		return
	}
	now, day := c.CurrentTime(), c.Day()
	for _, s := range r.Table.Entries() {
		if s.Check(now, day) {
			r.active = s
			return
		}
	}
}
