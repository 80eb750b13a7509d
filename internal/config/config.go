package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/tgienger/eisen/internal/db"
)

// DefaultTimezone is where "midnight" is for the nightly purge
const DefaultTimezone = "Europe/Moscow"

type Config struct {
	Storage      StorageConfig
	Housekeeping HousekeepingConfig
	App          AppConfig
}

type StorageConfig struct {
	Path string
}

type HousekeepingConfig struct {
	Timezone string
}

type AppConfig struct {
	UndoDepth int
	LogFile   string
	LogLevel  string
}

// Load reads an optional .env file and then the environment
func Load() (*Config, error) {
	// a missing .env is normal
	_ = godotenv.Load()

	dataDir, err := db.DataDir()
	if err != nil {
		return nil, err
	}
	dbPath, err := db.DefaultPath()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Storage: StorageConfig{
			Path: getEnv("EISEN_DB_PATH", dbPath),
		},
		Housekeeping: HousekeepingConfig{
			Timezone: getEnv("EISEN_TIMEZONE", DefaultTimezone),
		},
		App: AppConfig{
			UndoDepth: getEnvAsInt("EISEN_UNDO_DEPTH", 10),
			LogFile:   getEnv("EISEN_LOG_FILE", filepath.Join(dataDir, "eisen.log")),
			LogLevel:  getEnv("LOG_LEVEL", "info"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Storage.Path == "" {
		return fmt.Errorf("EISEN_DB_PATH is required")
	}

	if _, err := c.Location(); err != nil {
		return err
	}

	if c.App.UndoDepth <= 0 {
		return fmt.Errorf("EISEN_UNDO_DEPTH must be positive, got %d", c.App.UndoDepth)
	}

	if _, err := parseLevel(c.App.LogLevel); err != nil {
		return err
	}

	return nil
}

// Location loads the housekeeping timezone
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Housekeeping.Timezone)
	if err != nil {
		return nil, fmt.Errorf("EISEN_TIMEZONE %q: %w", c.Housekeeping.Timezone, err)
	}
	return loc, nil
}

// Level is the configured slog level
func (c *Config) Level() slog.Level {
	level, _ := parseLevel(c.App.LogLevel)
	return level
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("LOG_LEVEL %q: %w", s, err)
	}
	return level, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		slog.Warn("invalid integer, using default", slog.String("key", key), slog.Int("default", defaultValue))
		return defaultValue
	}

	return value
}
