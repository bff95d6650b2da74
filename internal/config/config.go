// Package config loads process settings from the environment and gameplay
// tuning from YAML.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// Config is the process configuration.
type Config struct {
	Port        int
	DBPath      string
	AdminKey    string // Bearer token for mutating API calls; empty disables them
	TuningPath  string
	CatalogPath string // Replaces the embedded item catalog when set
	Seed        int64
	LogLevel    slog.Level

	Tuning Tuning
}

// Load reads the environment, then the tuning file it names.
func Load() (*Config, error) {
	port, err := strconv.Atoi(getEnv("PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("PORT: %w", err)
	}
	cfg := &Config{
		Port:       port,
		DBPath:     getEnv("VILLAGE_DB", "data/village.db"),
		AdminKey:   os.Getenv("VILLAGE_ADMIN_KEY"),
		TuningPath: os.Getenv("VILLAGE_TUNING"),
	}
	cfg.CatalogPath = os.Getenv("VILLAGE_CATALOG")

	cfg.Tuning, err = LoadTuning(cfg.TuningPath)
	if err != nil {
		return nil, err
	}
	cfg.Seed = cfg.Tuning.World.Seed
	if s := os.Getenv("VILLAGE_SEED"); s != "" {
		if cfg.Seed, err = strconv.ParseInt(s, 10, 64); err != nil {
			return nil, fmt.Errorf("VILLAGE_SEED: %w", err)
		}
	}
	cfg.LogLevel = ParseLogLevel(getEnv("LOG_LEVEL", cfg.Tuning.LogLevel))
	return cfg, nil
}

// ParseLogLevel maps a level name to slog, defaulting to info.
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
