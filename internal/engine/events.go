package engine

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/talgya/villagesim/internal/agents"
)

// Event is a notable occurrence in the village.
type Event struct {
	ID          uuid.UUID      `json:"id"`
	Tick        uint64         `json:"tick"`
	SimTime     string         `json:"sim_time"`
	At          time.Time      `json:"at"`
	Category    string         `json:"category"` // "action", "schedule", "admin", ...
	Agent       agents.AgentID `json:"agent,omitempty"`
	Description string         `json:"description"`
}

// EventLog keeps the most recent events in a ring and fans new ones out to
// subscribers. Slow subscribers miss events rather than block the tick.
type EventLog struct {
	mu     sync.RWMutex
	ring   []Event
	next   int
	full   bool
	subs   map[int]chan Event
	nextID int
}

// NewEventLog creates a log keeping capacity events.
func NewEventLog(capacity int) *EventLog {
	if capacity <= 0 {
		capacity = 1000
	}
	return &EventLog{ring: make([]Event, capacity), subs: make(map[int]chan Event)}
}

// Emit records e, filling in its ID and wall time when unset.
func (l *EventLog) Emit(e Event) Event {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.At.IsZero() {
		e.At = time.Now()
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ring[l.next] = e
	l.next = (l.next + 1) % len(l.ring)
	if l.next == 0 {
		l.full = true
	}
	for _, ch := range l.subs {
		select {
		case ch <- e:
		default:
		}
	}
	return e
}

// Len returns how many events are held.
func (l *EventLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.full {
		return len(l.ring)
	}
	return l.next
}

// Recent returns up to n events, oldest first. n <= 0 returns all.
func (l *EventLog) Recent(n int) []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var all []Event
	if l.full {
		all = append(all, l.ring[l.next:]...)
	}
	all = append(all, l.ring[:l.next]...)
	if n > 0 && len(all) > n {
		all = all[len(all)-n:]
	}
	return all
}

// Subscribe returns a channel receiving every event emitted from now on.
func (l *EventLog) Subscribe() (int, <-chan Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.nextID++
	ch := make(chan Event, 64)
	l.subs[l.nextID] = ch
	return l.nextID, ch
}

// Unsubscribe closes and forgets a subscription.
func (l *EventLog) Unsubscribe(id int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if ch, ok := l.subs[id]; ok {
		close(ch)
		delete(l.subs, id)
	}
}

// Subscribers returns the number of live subscriptions.
func (l *EventLog) Subscribers() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.subs)
}
