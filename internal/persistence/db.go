// Package persistence provides SQLite-based village state storage: villagers,
// the event history, metadata and compressed world snapshots.
package persistence

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/villagesim/internal/agents"
	"github.com/talgya/villagesim/internal/engine"
	"github.com/talgya/villagesim/internal/world"
)

// ErrNoState is returned when nothing has been saved yet.
var ErrNoState = errors.New("no saved state")

// DB wraps a SQLite connection for village state persistence.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS agents (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		age INTEGER NOT NULL,
		sex INTEGER NOT NULL,
		occupation INTEGER NOT NULL,
		home_id INTEGER NOT NULL,
		cell_x INTEGER NOT NULL,
		cell_y INTEGER NOT NULL,
		coins INTEGER NOT NULL,
		needs_json TEXT NOT NULL,
		inventory_json TEXT NOT NULL,
		memories_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS events (
		id TEXT PRIMARY KEY,
		tick INTEGER NOT NULL,
		sim_time TEXT NOT NULL,
		category TEXT NOT NULL,
		agent_id INTEGER NOT NULL,
		description TEXT NOT NULL,
		at_unix INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS world_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS snapshots (
		tick INTEGER PRIMARY KEY,
		data BLOB NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_tick ON events(tick);
	CREATE INDEX IF NOT EXISTS idx_events_agent ON events(agent_id);
	`
	_, err := db.conn.Exec(schema)
	return err
}

type agentRow struct {
	ID         uint64 `db:"id"`
	Name       string `db:"name"`
	Age        int    `db:"age"`
	Sex        int    `db:"sex"`
	Occupation int    `db:"occupation"`
	HomeID     uint64 `db:"home_id"`
	CellX      int    `db:"cell_x"`
	CellY      int    `db:"cell_y"`
	Coins      int    `db:"coins"`
	Needs      string `db:"needs_json"`
	Inventory  string `db:"inventory_json"`
	Memories   string `db:"memories_json"`
}

// SaveAgents writes all agents to the database (full replace).
func (db *DB) SaveAgents(agentList []*agents.Agent) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM agents"); err != nil {
		return err
	}

	stmt, err := tx.Preparex(`INSERT INTO agents
		(id, name, age, sex, occupation, home_id, cell_x, cell_y, coins,
		 needs_json, inventory_json, memories_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, a := range agentList {
		needsJSON, err := json.Marshal(a.Needs)
		if err != nil {
			return fmt.Errorf("agent %d needs: %w", a.ID, err)
		}
		invJSON, _ := json.Marshal(a.Inventory)
		memJSON, _ := json.Marshal(a.Memories)

		_, err = stmt.Exec(
			a.ID, a.Name, a.Age, a.Sex, a.Occupation, a.HomeID,
			a.Cell.X, a.Cell.Y, a.Coins,
			string(needsJSON), string(invJSON), string(memJSON),
		)
		if err != nil {
			return fmt.Errorf("insert agent %d: %w", a.ID, err)
		}
	}

	return tx.Commit()
}

// LoadAgents reads every saved agent, placing each on oracle's grid. Brains
// are not persisted; the simulation gives each agent a fresh one.
func (db *DB) LoadAgents(oracle world.Oracle) ([]*agents.Agent, error) {
	var rows []agentRow
	if err := db.conn.Select(&rows, "SELECT * FROM agents ORDER BY id"); err != nil {
		return nil, fmt.Errorf("select agents: %w", err)
	}

	out := make([]*agents.Agent, 0, len(rows))
	for _, r := range rows {
		a := &agents.Agent{
			ID:         agents.AgentID(r.ID),
			Name:       r.Name,
			Age:        uint16(r.Age),
			Sex:        agents.Sex(r.Sex),
			Occupation: agents.Occupation(r.Occupation),
			HomeID:     r.HomeID,
			Coins:      r.Coins,
			Inventory:  agents.Inventory{},
		}
		if err := json.Unmarshal([]byte(r.Needs), &a.Needs); err != nil {
			return nil, fmt.Errorf("agent %d needs: %w", r.ID, err)
		}
		if err := json.Unmarshal([]byte(r.Inventory), &a.Inventory); err != nil {
			return nil, fmt.Errorf("agent %d inventory: %w", r.ID, err)
		}
		if err := json.Unmarshal([]byte(r.Memories), &a.Memories); err != nil {
			return nil, fmt.Errorf("agent %d memories: %w", r.ID, err)
		}
		if a.Inventory == nil {
			a.Inventory = agents.Inventory{}
		}
		a.Place(world.Cell{X: r.CellX, Y: r.CellY}, oracle)
		out = append(out, a)
	}
	return out, nil
}

type eventRow struct {
	ID          string `db:"id"`
	Tick        uint64 `db:"tick"`
	SimTime     string `db:"sim_time"`
	Category    string `db:"category"`
	AgentID     uint64 `db:"agent_id"`
	Description string `db:"description"`
	AtUnix      int64  `db:"at_unix"`
}

// SaveEvents appends events to the database. Events already stored are skipped.
func (db *DB) SaveEvents(events []engine.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, e := range events {
		_, err := tx.Exec(
			`INSERT OR IGNORE INTO events (id, tick, sim_time, category, agent_id, description, at_unix)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			e.ID.String(), e.Tick, e.SimTime, e.Category, uint64(e.Agent), e.Description, e.At.UnixNano(),
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// RecentEvents returns the most recent N events, newest first.
func (db *DB) RecentEvents(limit int) ([]engine.Event, error) {
	var rows []eventRow
	err := db.conn.Select(&rows,
		"SELECT * FROM events ORDER BY tick DESC, at_unix DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, err
	}
	return toEvents(rows)
}

// AgentEvents returns the most recent N events about one agent, newest first.
func (db *DB) AgentEvents(id agents.AgentID, limit int) ([]engine.Event, error) {
	var rows []eventRow
	err := db.conn.Select(&rows,
		"SELECT * FROM events WHERE agent_id = ? ORDER BY tick DESC, at_unix DESC LIMIT ?",
		uint64(id), limit,
	)
	if err != nil {
		return nil, err
	}
	return toEvents(rows)
}

// SaveMeta stores a key-value pair in world metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO world_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value, or ErrNoState when the key is unset.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM world_meta WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNoState
	}
	return value, err
}

// HasWorldState reports whether a world has been saved.
func (db *DB) HasWorldState() bool {
	_, err := db.GetMeta("last_tick")
	return err == nil
}

// SaveWorldState performs a full save: agents, new events, clock metadata and
// a compressed snapshot of fixture state.
func (db *DB) SaveWorldState(sim *engine.Simulation) error {
	var (
		snap   Snapshot
		err    error
		events []engine.Event
	)
	sim.Read(func() {
		slog.Info("saving world state", "agents", len(sim.Agents), "tick", sim.LastTick)
		if err = db.SaveAgents(sim.Agents); err != nil {
			err = fmt.Errorf("save agents: %w", err)
			return
		}
		snap = Snapshot{
			Tick:      sim.LastTick,
			TimeOfDay: sim.Clock.CurrentTime(),
			Day:       sim.Clock.Day(),
			Elapsed:   sim.Clock.Elapsed(),
			Fixtures:  copyFixtures(sim.Items.All()),
		}
		events = sim.Events.Recent(0)
	})
	if err != nil {
		return err
	}

	if err := db.SaveEvents(events); err != nil {
		return fmt.Errorf("save events: %w", err)
	}
	if err := db.SaveSnapshot(snap); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	if err := db.SaveMeta("last_tick", strconv.FormatUint(snap.Tick, 10)); err != nil {
		return fmt.Errorf("save meta: %w", err)
	}

	slog.Info("world state saved", "tick", snap.Tick)
	return nil
}

func toEvents(rows []eventRow) ([]engine.Event, error) {
	out := make([]engine.Event, 0, len(rows))
	for _, r := range rows {
		e, err := r.event()
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}
