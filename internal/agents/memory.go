package agents

import "sort"

// MaxMemories bounds an agent's memory stream.
const MaxMemories = 32

// Memory is one remembered outcome, such as a finished meal or a failed trip.
type Memory struct {
	At         float64 `json:"at"` // Sim seconds since start
	Day        int     `json:"day"`
	Content    string  `json:"content"`
	Importance float32 `json:"importance"` // 0.0–1.0
}

// Remember appends a memory. A full stream overwrites its least important
// entry, but only if the newcomer matters more.
func (a *Agent) Remember(m Memory) {
	if len(a.Memories) < MaxMemories {
		a.Memories = append(a.Memories, m)
		return
	}
	minIdx := 0
	for i := 1; i < len(a.Memories); i++ {
		if a.Memories[i].Importance < a.Memories[minIdx].Importance {
			minIdx = i
		}
	}
	if m.Importance > a.Memories[minIdx].Importance {
		a.Memories[minIdx] = m
	}
}

// RecentMemories returns up to count memories, newest first.
func (a *Agent) RecentMemories(count int) []Memory {
	if len(a.Memories) == 0 || count <= 0 {
		return nil
	}
	sorted := make([]Memory, len(a.Memories))
	copy(sorted, a.Memories)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].At > sorted[j].At
	})
	if count > len(sorted) {
		count = len(sorted)
	}
	return sorted[:count]
}
