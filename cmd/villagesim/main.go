// Command villagesim runs the village life simulation and serves it over HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/talgya/villagesim/internal/agents"
	"github.com/talgya/villagesim/internal/api"
	"github.com/talgya/villagesim/internal/catalog"
	"github.com/talgya/villagesim/internal/clock"
	"github.com/talgya/villagesim/internal/config"
	"github.com/talgya/villagesim/internal/engine"
	"github.com/talgya/villagesim/internal/persistence"
	"github.com/talgya/villagesim/internal/world"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	if err := run(cfg); err != nil {
		slog.Error("villagesim failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	tuning := cfg.Tuning

	// ── Database ──────────────────────────────────────────────────────
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return fmt.Errorf("data dir: %w", err)
	}
	db, err := persistence.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()
	slog.Info("database opened", "path", cfg.DBPath)

	// ── Catalog ───────────────────────────────────────────────────────
	cat, err := loadCatalog(cfg.CatalogPath)
	if err != nil {
		return err
	}
	slog.Info("catalog loaded", "items", len(cat.Items), "foods", len(cat.Foods()))

	// ── World map (always regenerated, deterministic from seed) ──────
	gen := tuning.World
	gen.Seed = cfg.Seed
	if gen.Seed == 0 {
		if saved, err := db.GetMeta("seed"); err == nil {
			gen.Seed, _ = strconv.ParseInt(saved, 10, 64)
		}
	}
	if gen.Seed == 0 {
		gen.Seed = rand.Int63()
	}
	grid, items, village := world.Generate(gen)
	for t, c := range world.TerrainCounts(grid) {
		slog.Debug("terrain", "type", world.TerrainName(t), "count", c)
	}

	// ── Villagers: restore or spawn ──────────────────────────────────
	clk := clock.NewGame(clock.HourOf(tuning.Engine.StartHour), tuning.Engine.StartDay, 1)
	spawner := agents.NewSpawner(gen.Seed)
	var (
		villagers []*agents.Agent
		snap      persistence.Snapshot
		restored  bool
	)
	if db.HasWorldState() {
		slog.Info("found saved village state, loading...")
		villagers, err = db.LoadAgents(grid)
		if err != nil {
			return fmt.Errorf("load agents: %w", err)
		}
		snap, err = db.LoadLatestSnapshot()
		switch {
		case err == nil:
			restored = true
		case errors.Is(err, persistence.ErrNoState):
			slog.Warn("no snapshot stored, fixtures start fresh")
		default:
			return fmt.Errorf("load snapshot: %w", err)
		}

		var maxID agents.AgentID
		for _, a := range villagers {
			maxID = max(maxID, a.ID)
		}
		spawner.SetNextID(maxID + 1)
	} else {
		slog.Info("no saved state found, founding a new village...")
		villagers = spawner.SpawnVillage(village, tuning.VillagersPerHouse, grid)
	}

	// ── Simulation ────────────────────────────────────────────────────
	opts, err := simOptions(tuning, gen.Seed)
	if err != nil {
		return err
	}
	sim := engine.NewSimulation(grid, items, village, cat, clk, villagers, opts)
	if restored {
		n := snap.Apply(sim)
		slog.Info("village state restored", "agents", len(villagers), "fixtures", n, "tick", snap.Tick, "sim_time", clk.String())
	} else {
		if err := db.SaveMeta("seed", strconv.FormatInt(gen.Seed, 10)); err != nil {
			return fmt.Errorf("save seed: %w", err)
		}
		if err := db.SaveWorldState(sim); err != nil {
			slog.Error("initial save failed", "error", err)
		}
	}
	slog.Info("village ready",
		"agents", len(sim.Agents),
		"houses", len(village.Houses),
		"fixtures", len(items.All()),
		"grid", grid.String(),
	)

	eng := engine.NewEngine(clk)
	eng.Interval = time.Duration(tuning.Engine.TickIntervalMs) * time.Millisecond
	eng.SimStep = tuning.Engine.SimSecondsPerTick
	eng.SetSpeed(tuning.Engine.Speed)
	eng.SetTick(sim.LastTick)

	// Wire tick callbacks. Save every sim-day.
	eng.OnTick = sim.Tick
	eng.OnHour = sim.TickHour
	eng.OnDay = func(tick uint64) {
		sim.TickDay(tick)
		if err := db.SaveWorldState(sim); err != nil {
			slog.Error("daily save failed", "error", err)
		}
	}

	// ── HTTP API ──────────────────────────────────────────────────────
	if cfg.AdminKey == "" {
		slog.Warn("VILLAGE_ADMIN_KEY not set, admin POST endpoints will be disabled")
	}
	apiServer := &api.Server{
		Sim:      sim,
		Eng:      eng,
		DB:       db,
		Port:     cfg.Port,
		AdminKey: cfg.AdminKey,
	}
	apiServer.Start()

	// ── Start ─────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Printf("\nThe village is awake: %d villagers in %d houses.\n", len(sim.Agents), len(village.Houses))
	fmt.Printf("API: http://localhost:%d/api/v1/status\n", cfg.Port)
	fmt.Println("Starting simulation... (Ctrl+C to stop)")

	eng.Run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		slog.Warn("HTTP shutdown", "error", err)
	}

	slog.Info("final save...")
	if err := db.SaveWorldState(sim); err != nil {
		return fmt.Errorf("final save: %w", err)
	}
	fmt.Println("Simulation stopped. Village state saved.")
	return nil
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default()
	}
	return catalog.LoadFile(path)
}

// simOptions turns tuning into the simulation's constants.
func simOptions(t config.Tuning, seed int64) (engine.Options, error) {
	opts := engine.DefaultOptions()
	var err error
	if opts.Decide, err = t.DecideTuning(); err != nil {
		return opts, err
	}
	if opts.Decay, err = t.DecayRates(); err != nil {
		return opts, err
	}
	opts.Rates = t.Actions
	opts.Limits = t.Path
	opts.GrowthRate = t.CropGrowthRate()
	opts.AgentsPerTick = t.Engine.AgentsPerTick
	opts.EventLog = t.Engine.EventLog
	opts.Seed = seed
	return opts, nil
}
