// Passive need dynamics: decay over time, starvation and exhaustion damage,
// and mood drifting toward overall satisfaction.
package agents

// DecayRates configures need decay in points per sim-second.
type DecayRates struct {
	PerNeed [NumNeeds]float64

	// MoodDrift is the fraction per sim-second by which mood moves toward the
	// average of the other needs.
	MoodDrift float64

	// HealthRegen is restored per sim-second while the agent is fed and rested.
	HealthRegen float64
}

// DefaultDecayRates returns rates tuned for a one-minute tick.
func DefaultDecayRates() DecayRates {
	var r DecayRates
	r.PerNeed[NeedHunger] = 100.0 / (8 * 3600)  // Empty after ~8 sim-hours
	r.PerNeed[NeedToilet] = 100.0 / (6 * 3600)  // ~6 sim-hours
	r.PerNeed[NeedSocial] = 100.0 / (12 * 3600) // ~12 sim-hours
	r.PerNeed[NeedMood] = 0                     // Mood only drifts
	r.PerNeed[NeedSleep] = 100.0 / (18 * 3600)  // ~18 sim-hours awake
	r.PerNeed[NeedHygiene] = 100.0 / (16 * 3600)
	r.PerNeed[NeedHealth] = 100.0 / (24 * 3600) // Applied only while starving or exhausted
	r.MoodDrift = 1.0 / 3600
	r.HealthRegen = 100.0 / (48 * 3600)
	return r
}

// Thresholds below which health suffers.
const (
	starvingBelow  = 5.0
	exhaustedBelow = 5.0
)

// DecayNeeds applies dt sim-seconds of passive decay to a.
func DecayNeeds(a *Agent, dt float64, rates DecayRates) {
	if dt <= 0 {
		return
	}
	n := &a.Needs

	for k := NeedKind(0); k < NumNeeds; k++ {
		if k == NeedMood || k == NeedHealth {
			continue
		}
		n.Add(k, -rates.PerNeed[k]*dt)
	}

	// Health suffers while starving or exhausted, otherwise slowly recovers.
	if n.Get(NeedHunger) < starvingBelow || n.Get(NeedSleep) < exhaustedBelow {
		n.Add(NeedHealth, -rates.PerNeed[NeedHealth]*dt)
	} else {
		n.Add(NeedHealth, rates.HealthRegen*dt)
	}

	// Mood drifts toward the mean of the other needs.
	sum := 0.0
	for k := NeedKind(0); k < NumNeeds; k++ {
		if k != NeedMood {
			sum += n.Get(k)
		}
	}
	target := sum / (NumNeeds - 1)
	step := rates.MoodDrift * dt
	if step > 1 {
		step = 1
	}
	n.Add(NeedMood, (target-n.Get(NeedMood))*step)
	n.Add(NeedMood, -rates.PerNeed[NeedMood]*dt)
}

// OverallSatisfaction returns the mean of all needs, 0–100.
func (n *Needs) OverallSatisfaction() float64 {
	total := 0.0
	for _, v := range n {
		total += v
	}
	return total / NumNeeds
}

// Lowest returns the least satisfied need.
func (n *Needs) Lowest() NeedKind {
	lowest := NeedKind(0)
	for k := NeedKind(1); k < NumNeeds; k++ {
		if n.Get(k) < n.Get(lowest) {
			lowest = k
		}
	}
	return lowest
}
