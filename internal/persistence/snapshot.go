package persistence

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"

	"github.com/talgya/villagesim/internal/agents"
	"github.com/talgya/villagesim/internal/engine"
	"github.com/talgya/villagesim/internal/world"
)

// keepSnapshots is how many snapshots survive pruning.
const keepSnapshots = 5

// Snapshot is the clock and fixture state at one tick. Agents are stored in
// their own table.
type Snapshot struct {
	Tick      uint64           `json:"tick"`
	TimeOfDay float64          `json:"time_of_day"`
	Day       int              `json:"day"`
	Elapsed   float64          `json:"elapsed"`
	Fixtures  []*world.Fixture `json:"fixtures"`
}

// SaveSnapshot stores s as zstd-compressed JSON and prunes old snapshots.
func (db *DB) SaveSnapshot(s Snapshot) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return fmt.Errorf("zstd writer: %w", err)
	}
	data := enc.EncodeAll(raw, nil)
	enc.Close()

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("INSERT OR REPLACE INTO snapshots (tick, data) VALUES (?, ?)", s.Tick, data); err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	_, err = tx.Exec(
		"DELETE FROM snapshots WHERE tick NOT IN (SELECT tick FROM snapshots ORDER BY tick DESC LIMIT ?)",
		keepSnapshots,
	)
	if err != nil {
		return fmt.Errorf("prune snapshots: %w", err)
	}
	return tx.Commit()
}

// LoadLatestSnapshot returns the newest snapshot, or ErrNoState.
func (db *DB) LoadLatestSnapshot() (Snapshot, error) {
	var data []byte
	err := db.conn.Get(&data, "SELECT data FROM snapshots ORDER BY tick DESC LIMIT 1")
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, ErrNoState
	}
	if err != nil {
		return Snapshot{}, err
	}

	dec, err := zstd.NewReader(nil)
	if err != nil {
		return Snapshot{}, fmt.Errorf("zstd reader: %w", err)
	}
	defer dec.Close()
	raw, err := dec.DecodeAll(data, nil)
	if err != nil {
		return Snapshot{}, fmt.Errorf("decompress snapshot: %w", err)
	}

	var s Snapshot
	if err := json.Unmarshal(raw, &s); err != nil {
		return Snapshot{}, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return s, nil
}

// SnapshotCount returns how many snapshots are stored.
func (db *DB) SnapshotCount() (int, error) {
	var n int
	err := db.conn.Get(&n, "SELECT COUNT(*) FROM snapshots")
	return n, err
}

// Apply restores the snapshot's clock and fixture state onto sim. It must be
// called before the simulation starts ticking.
func (s Snapshot) Apply(sim *engine.Simulation) int {
	sim.Clock.Set(s.TimeOfDay, s.Day, s.Elapsed)
	sim.LastTick = s.Tick
	return sim.Items.Restore(s.Fixtures)
}

func copyFixtures(fs []*world.Fixture) []*world.Fixture {
	out := make([]*world.Fixture, len(fs))
	for i, f := range fs {
		c := *f
		if f.Stock != nil {
			c.Stock = make(map[string]int, len(f.Stock))
			for id, q := range f.Stock {
				c.Stock[id] = q
			}
		}
		out[i] = &c
	}
	return out
}

func (r eventRow) event() (engine.Event, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return engine.Event{}, fmt.Errorf("event id %q: %w", r.ID, err)
	}
	return engine.Event{
		ID:          id,
		Tick:        r.Tick,
		SimTime:     r.SimTime,
		At:          time.Unix(0, r.AtUnix),
		Category:    r.Category,
		Agent:       agents.AgentID(r.AgentID),
		Description: r.Description,
	}, nil
}
