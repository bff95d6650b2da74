package actions

import (
	"github.com/talgya/villagesim/internal/agents"
	"github.com/talgya/villagesim/internal/world"
)

// restore holds a fixture and raises one need by gain per time.
type restore struct {
	env     *Env
	Fixture *world.Fixture
	need    agents.NeedKind
	gain    float64
	claim   claim
}

func (r *restore) apply(ag *agents.Agent) {
	ag.Needs.Add(r.need, r.gain)
}

func (r *restore) release() {
	if r.env != nil {
		r.claim.drop(r.env.Items)
	}
}

// Sleep restores the sleep need in a bed.
type Sleep struct {
	agents.ActionState
	restore
}

// Setup configures the sleep.
func (s *Sleep) Setup(env *Env, bed *world.Fixture) *Sleep {
	s.Init("sleep", agents.ExecMulti, env.Rates.SleepSpeed)
	s.env = env
	s.Fixture = bed
	s.need = agents.NeedSleep
	s.gain = env.Rates.SleepGain
	s.Need = agents.NeedSleep
	return s
}

func (s *Sleep) Register(ag *agents.Agent) {
	s.TotalTimes = timesFor(ag, s.need, s.gain)
	s.env.approach(s, ag, s.Fixture, &s.claim)
}

func (s *Sleep) Perform(ag *agents.Agent) {
	s.apply(ag)
	if s.Times == s.TotalTimes {
		s.env.remember(ag, "slept", 0.1)
	}
}

// Evaluate rates an early night at home.
func (s *Sleep) Evaluate(ag *agents.Agent, area world.Area) float64 {
	v := ag.Needs.Get(agents.NeedSleep)
	if v > 50 || !s.Fixture.UsableBy(ag.Owner(), ag.HomeID) {
		return 0
	}
	score := (100 - v) * 0.6
	if area == world.AreaHome {
		score += 10
	}
	return score
}

func (s *Sleep) Reset() {
	s.release()
	*s = Sleep{}
}

// Rest recovers health in a bed.
type Rest struct {
	agents.ActionState
	restore
}

// Setup configures the rest.
func (r *Rest) Setup(env *Env, bed *world.Fixture) *Rest {
	r.Init("rest", agents.ExecMulti, env.Rates.RestSpeed)
	r.env = env
	r.Fixture = bed
	r.need = agents.NeedHealth
	r.gain = env.Rates.RestGain
	r.Need = agents.NeedHealth
	return r
}

func (r *Rest) Register(ag *agents.Agent) {
	r.TotalTimes = timesFor(ag, r.need, r.gain)
	r.env.approach(r, ag, r.Fixture, &r.claim)
}

func (r *Rest) Perform(ag *agents.Agent) {
	r.apply(ag)
}

func (r *Rest) Reset() {
	r.release()
	*r = Rest{}
}

// Wash restores hygiene at a shower.
type Wash struct {
	agents.ActionState
	restore
}

// Setup configures the wash.
func (w *Wash) Setup(env *Env, shower *world.Fixture) *Wash {
	w.Init("wash", agents.ExecSingle, env.Rates.WashSpeed)
	w.env = env
	w.Fixture = shower
	w.need = agents.NeedHygiene
	w.gain = env.Rates.WashGain
	w.Need = agents.NeedHygiene
	return w
}

func (w *Wash) Register(ag *agents.Agent) {
	w.env.approach(w, ag, w.Fixture, &w.claim)
}

func (w *Wash) Perform(ag *agents.Agent) {
	w.apply(ag)
	w.release()
}

// Evaluate rates a wash once hygiene slips.
func (w *Wash) Evaluate(ag *agents.Agent, area world.Area) float64 {
	v := ag.Needs.Get(agents.NeedHygiene)
	if v > 60 || !w.Fixture.UsableBy(ag.Owner(), ag.HomeID) {
		return 0
	}
	return (100 - v) * 0.5
}

func (w *Wash) Reset() {
	w.release()
	*w = Wash{}
}

// Relax sits on a bench and lifts mood.
type Relax struct {
	agents.ActionState
	restore
}

// Setup configures the break.
func (r *Relax) Setup(env *Env, bench *world.Fixture) *Relax {
	r.Init("relax", agents.ExecMulti, env.Rates.RelaxSpeed)
	r.TotalTimes = env.Rates.RelaxTimes
	if r.TotalTimes < 1 {
		r.TotalTimes = 1
	}
	r.env = env
	r.Fixture = bench
	r.need = agents.NeedMood
	r.gain = env.Rates.RelaxGain
	r.Need = agents.NeedMood
	return r
}

func (r *Relax) Register(ag *agents.Agent) {
	r.env.approach(r, ag, r.Fixture, &r.claim)
}

func (r *Relax) Perform(ag *agents.Agent) {
	r.apply(ag)
}

// Evaluate prefers public benches when mood is middling.
func (r *Relax) Evaluate(ag *agents.Agent, area world.Area) float64 {
	v := ag.Needs.Get(agents.NeedMood)
	if v > 80 || !r.Fixture.Free() {
		return 0
	}
	score := (100 - v) * 0.4
	if area == world.AreaPublic {
		score += 5
	}
	return score
}

func (r *Relax) Reset() {
	r.release()
	*r = Relax{}
}

// UseToilet empties the toilet need. Without a fixture it is slower and costs hygiene.
type UseToilet struct {
	agents.ActionState
	restore
}

// Setup configures the visit. toilet may be nil for the fallback.
func (u *UseToilet) Setup(env *Env, toilet *world.Fixture) *UseToilet {
	speed := env.Rates.ToiletSpeed
	if toilet == nil {
		speed = env.Rates.ToiletFallbackSpeed
	}
	u.Init("use toilet", agents.ExecSingle, speed)
	u.env = env
	u.Fixture = toilet
	u.need = agents.NeedToilet
	u.Need = agents.NeedToilet
	return u
}

func (u *UseToilet) Register(ag *agents.Agent) {
	if u.Fixture == nil {
		return
	}
	u.env.approach(u, ag, u.Fixture, &u.claim)
}

func (u *UseToilet) Perform(ag *agents.Agent) {
	ag.Needs.Set(agents.NeedToilet, 100)
	if u.Fixture == nil {
		ag.Needs.Add(agents.NeedHygiene, -u.env.Rates.ToiletFallbackDirt)
	}
	u.release()
}

// Evaluate rates a toilet visit at home.
func (u *UseToilet) Evaluate(ag *agents.Agent, area world.Area) float64 {
	v := ag.Needs.Get(agents.NeedToilet)
	if v > 50 || u.Fixture == nil || !u.Fixture.UsableBy(ag.Owner(), ag.HomeID) {
		return 0
	}
	return (100 - v) * 0.7
}

func (u *UseToilet) Reset() {
	u.release()
	*u = UseToilet{}
}
