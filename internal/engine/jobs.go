package engine

import (
	"log/slog"

	"github.com/talgya/villagesim/internal/actions"
	"github.com/talgya/villagesim/internal/agents"
	"github.com/talgya/villagesim/internal/schedule"
	"github.com/talgya/villagesim/internal/world"
)

// installJob gives an employed villager a schedule table holding their
// shift: Work at the nearest public station, then home.
func (s *Simulation) installJob(ag *agents.Agent) *schedule.Runner {
	job, ok := schedule.Jobs()[ag.Occupation]
	if !ok {
		return nil
	}

	var station *world.Fixture
	if !job.Roaming {
		from, ok := s.Env.Home(ag)
		if !ok {
			from = ag.Cell
		}
		station = s.Items.Nearest(from, job.Station, func(f *world.Fixture) bool { return f.HouseID == 0 })
		if station == nil {
			slog.Warn("no workplace for job", "agent", ag.ID, "occupation", ag.Occupation.String(), "station", job.Station.String())
			return nil
		}
	}

	shift := &schedule.Schedule{
		Name:     ag.Occupation.String() + " shift",
		Start:    job.Start,
		End:      job.End,
		Days:     job.Days,
		Priority: job.Priority,
		Owner:    ag,
	}
	shift.Make = func() agents.Action {
		remaining := shift.Duration() - shift.Elapsed()
		wage := int(float64(job.Wage) * remaining / shift.Duration())
		return agents.Get[actions.Work](s.Pool).Setup(s.Env, station, remaining, wage)
	}
	shift.Closing = func() agents.Action {
		return agents.Get[actions.GoHome](s.Pool).Setup(s.Env)
	}

	table := schedule.NewTable()
	table.Add(shift)
	return schedule.NewRunner(table)
}

// Runner returns an agent's schedule runner, or nil for the unemployed.
func (s *Simulation) Runner(id agents.AgentID) *schedule.Runner {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.runners[id]
}
