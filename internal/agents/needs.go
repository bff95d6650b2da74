package agents

import (
	"encoding/json"
	"fmt"
	"strings"
)

// NeedKind enumerates the tracked biological and social needs.
type NeedKind uint8

const (
	NeedHunger NeedKind = iota
	NeedToilet
	NeedSocial
	NeedMood
	NeedSleep
	NeedHygiene
	NeedHealth
)

// NumNeeds is the number of tracked needs.
const NumNeeds = 7

// NeedNone marks an action that no need drove.
const NeedNone NeedKind = 255

var needNames = [NumNeeds]string{"hunger", "toilet", "social", "mood", "sleep", "hygiene", "health"}

func (k NeedKind) String() string {
	if int(k) < NumNeeds {
		return needNames[k]
	}
	return "none"
}

// ParseNeed maps a lowercase name to its NeedKind.
func ParseNeed(name string) (NeedKind, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range needNames {
		if n == name {
			return NeedKind(i), nil
		}
	}
	return NeedNone, fmt.Errorf("unknown need %q", name)
}

// Needs holds one value per need. Every value stays within [0,100];
// 100 means fully satisfied.
type Needs [NumNeeds]float64

// FullNeeds returns needs at 100.
func FullNeeds() Needs {
	var n Needs
	for i := range n {
		n[i] = 100
	}
	return n
}

// Get returns the value of k.
func (n *Needs) Get(k NeedKind) float64 {
	return n[k]
}

// Set assigns k, clamped to [0,100].
func (n *Needs) Set(k NeedKind, v float64) {
	n[k] = clamp(v, 0, 100)
}

// Add changes k by delta, clamped to [0,100].
func (n *Needs) Add(k NeedKind, delta float64) {
	n.Set(k, n[k]+delta)
}

// MarshalJSON writes needs as a name → value object.
func (n Needs) MarshalJSON() ([]byte, error) {
	m := make(map[string]float64, NumNeeds)
	for i, name := range needNames {
		m[name] = n[i]
	}
	return json.Marshal(m)
}

// UnmarshalJSON reads a name → value object. Missing needs default to 100.
func (n *Needs) UnmarshalJSON(data []byte) error {
	var m map[string]float64
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*n = FullNeeds()
	for name, v := range m {
		k, err := ParseNeed(name)
		if err != nil {
			return err
		}
		n.Set(k, v)
	}
	return nil
}

// Urgency maps a need value to 0 (satisfied) … 1 (empty).
func Urgency(value float64) float64 {
	return clamp((100-value)/100, 0, 1)
}

// MoodModifier scales scores by the agent's mood: 0.5 when miserable, 1.5 when content.
func MoodModifier(mood float64) float64 {
	return lerp(0.5, 1.5, clamp(mood/100, 0, 1))
}

// Score is the base utility of acting on a need at value given the current mood.
// Type-specific modifiers are applied by the caller.
func Score(value, mood float64) float64 {
	deficit := 100 - clamp(value, 0, 100)
	return deficit * (1 + Urgency(value)*0.5) * MoodModifier(mood)
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
