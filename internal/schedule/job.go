package schedule

import (
	"github.com/talgya/villagesim/internal/agents"
	"github.com/talgya/villagesim/internal/clock"
	"github.com/talgya/villagesim/internal/world"
)

// Job describes an occupation's working week.
type Job struct {
	Occupation agents.Occupation
	Start, End float64 // Window, sim-seconds since midnight
	Days       DaySet
	Station    world.FixtureKind // Where the shift is worked
	Roaming    bool              // No fixed station; farmers walk the fields
	Wage       int               // Coins per shift
	Priority   int
}

// Jobs lists the stock job for every employed occupation.
func Jobs() map[agents.Occupation]Job {
	farm := job(agents.OccupationFarmer, 6, 14, Days(1, 2, 3, 4, 5, 6), world.FixtureField, 12)
	farm.Roaming = true
	return map[agents.Occupation]Job{
		agents.OccupationFarmer:   farm,
		agents.OccupationCrafter:  job(agents.OccupationCrafter, 8, 16, Weekdays, world.FixtureWorkbench, 15),
		agents.OccupationCook:     job(agents.OccupationCook, 10, 20, Days(2, 3, 4, 5, 6, 7), world.FixtureStove, 14),
		agents.OccupationMerchant: job(agents.OccupationMerchant, 9, 17, Days(1, 2, 3, 4, 5, 6), world.FixtureMarketStall, 10),
	}
}

func job(occ agents.Occupation, from, to float64, days DaySet, station world.FixtureKind, wage int) Job {
	return Job{
		Occupation: occ,
		Start:      clock.HourOf(from),
		End:        clock.HourOf(to),
		Days:       days,
		Station:    station,
		Wage:       wage,
		Priority:   10,
	}
}

// Duration returns the shift length in sim-seconds.
func (j Job) Duration() float64 {
	s := Schedule{Start: j.Start, End: j.End}
	return s.Duration()
}
