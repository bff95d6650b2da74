// Package clock provides the game clock that drives the simulation.
// Time of day is measured in sim-seconds; days of the week run 1 (Monday) to 7.
package clock

import "fmt"

// Time constants in sim-seconds.
const (
	Minute      = 60.0
	Hour        = 3600.0
	DayLength   = 86400.0
	DaysPerWeek = 7
)

// Clock is the read-only view of game time handed to the simulation core.
type Clock interface {
	DeltaTime() float64   // Sim-seconds elapsed in the current tick
	CurrentTime() float64 // Sim-seconds since local midnight
	Day() int             // 1..7
}

// Game is the authoritative clock. Advance is called once per tick.
type Game struct {
	TimeScale float64 // Sim-seconds per real second

	delta   float64
	time    float64
	day     int
	elapsed float64 // Total sim-seconds since the clock started
}

// NewGame creates a clock at the given time of day and weekday.
func NewGame(timeOfDay float64, day int, timeScale float64) *Game {
	if day < 1 || day > DaysPerWeek {
		day = 1
	}
	if timeScale <= 0 {
		timeScale = 1
	}
	g := &Game{TimeScale: timeScale, day: day}
	g.time = wrap(timeOfDay)
	return g
}

// Advance moves the clock forward by realDelta seconds of wall time.
func (g *Game) Advance(realDelta float64) {
	g.Step(realDelta * g.TimeScale)
}

// Step moves the clock forward by exactly simDelta sim-seconds.
func (g *Game) Step(simDelta float64) {
	if simDelta < 0 {
		simDelta = 0
	}
	g.delta = simDelta
	g.elapsed += simDelta
	g.time += simDelta
	for g.time >= DayLength {
		g.time -= DayLength
		g.day = NextDay(g.day)
	}
}

// DeltaTime returns the sim-seconds of the last step.
func (g *Game) DeltaTime() float64 { return g.delta }

// CurrentTime returns sim-seconds since midnight.
func (g *Game) CurrentTime() float64 { return g.time }

// Day returns the weekday, 1..7.
func (g *Game) Day() int { return g.day }

// Elapsed returns total sim-seconds since the clock started.
func (g *Game) Elapsed() float64 { return g.elapsed }

// Set jumps the clock (used when restoring a saved world).
func (g *Game) Set(timeOfDay float64, day int, elapsed float64) {
	g.time = wrap(timeOfDay)
	if day >= 1 && day <= DaysPerWeek {
		g.day = day
	}
	g.elapsed = elapsed
}

// NextDay returns the weekday after d.
func NextDay(d int) int {
	return d%DaysPerWeek + 1
}

// PrevDay returns the weekday before d.
func PrevDay(d int) int {
	if d <= 1 {
		return DaysPerWeek
	}
	return d - 1
}

// HourOf converts hours (may be fractional) to sim-seconds.
func HourOf(h float64) float64 {
	return h * Hour
}

var dayNames = [8]string{"", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// DayName returns a short weekday name.
func DayName(d int) string {
	if d < 1 || d > DaysPerWeek {
		return "?"
	}
	return dayNames[d]
}

// Format renders a weekday and time of day, e.g. "Tue 08:30".
func Format(day int, timeOfDay float64) string {
	t := int(timeOfDay)
	return fmt.Sprintf("%s %02d:%02d", DayName(day), t/3600, (t%3600)/60)
}

// String returns the clock as "Tue 08:30".
func (g *Game) String() string {
	return Format(g.day, g.time)
}

func wrap(t float64) float64 {
	for t < 0 {
		t += DayLength
	}
	for t >= DayLength {
		t -= DayLength
	}
	return t
}
