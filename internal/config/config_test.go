package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/villagesim/internal/actions"
	"github.com/talgya/villagesim/internal/agents"
	"github.com/talgya/villagesim/internal/decide"
	"github.com/talgya/villagesim/internal/pathfind"
	"github.com/talgya/villagesim/internal/world"
)

func TestDefaultTuningMatchesCodeDefaults(t *testing.T) {
	tun, err := DefaultTuning()
	require.NoError(t, err)

	dt, err := tun.DecideTuning()
	require.NoError(t, err)
	assert.Equal(t, decide.DefaultTuning(), dt)
	assert.Equal(t, actions.DefaultRates(), tun.Actions)
	assert.Equal(t, pathfind.DefaultLimits(), tun.Path)

	gen := world.DefaultGenConfig()
	gen.Seed = 42
	assert.Equal(t, gen, tun.World)

	rates, err := tun.DecayRates()
	require.NoError(t, err)
	want := agents.DefaultDecayRates()
	for k := agents.NeedKind(0); k < agents.NumNeeds; k++ {
		assert.InDelta(t, want.PerNeed[k], rates.PerNeed[k], 1e-12, k.String())
	}
	assert.Equal(t, 1000, tun.Engine.EventLog)
	assert.InDelta(t, 12.0/3600, tun.CropGrowthRate(), 1e-12)
}

func writeTuning(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadTuningOverlays(t *testing.T) {
	path := writeTuning(t, `
decide:
  min_score: 70
  need_mods:
    hunger: 2
decay_hours:
  hygiene: 0
actions:
  chat_turns: 3
`)
	tun, err := LoadTuning(path)
	require.NoError(t, err)

	dt, err := tun.DecideTuning()
	require.NoError(t, err)
	assert.Equal(t, 70.0, dt.MinScore)
	assert.Equal(t, 2.0, dt.TypeMod[agents.NeedHunger])
	assert.Equal(t, 0.7, dt.TypeMod[agents.NeedSocial], "untouched keys keep their defaults")
	assert.Equal(t, 1.2, dt.SwitchMargin)

	rates, err := tun.DecayRates()
	require.NoError(t, err)
	assert.Zero(t, rates.PerNeed[agents.NeedHygiene])

	assert.Equal(t, 3, tun.Actions.ChatTurns)
	assert.Equal(t, 4.0, tun.Actions.ChatTurnSeconds)
}

func TestLoadTuningErrors(t *testing.T) {
	_, err := LoadTuning(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = LoadTuning(writeTuning(t, "decide: [not, a, map]"))
	assert.Error(t, err)

	_, err = LoadTuning(writeTuning(t, "decide:\n  need_mods:\n    thirst: 1\n"))
	assert.ErrorContains(t, err, "need_mods")

	_, err = LoadTuning(writeTuning(t, "decay_hours:\n  boredom: 4\n"))
	assert.ErrorContains(t, err, "decay_hours")
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("VILLAGE_DB", "/tmp/v.db")
	t.Setenv("VILLAGE_ADMIN_KEY", "secret")
	t.Setenv("VILLAGE_SEED", "7")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("VILLAGE_TUNING", writeTuning(t, "villagers_per_house: 3\n"))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "/tmp/v.db", cfg.DBPath)
	assert.Equal(t, "secret", cfg.AdminKey)
	assert.Equal(t, int64(7), cfg.Seed)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, 3, cfg.Tuning.VillagersPerHouse)
}

func TestLoadRejectsBadPort(t *testing.T) {
	t.Setenv("PORT", "eighty")
	_, err := Load()
	assert.ErrorContains(t, err, "PORT")
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARNING": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"loud":    slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLogLevel(in), in)
	}
}
