package config

import (
	"log/slog"
	"path/filepath"
	"testing"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dir)
	for _, key := range []string{"EISEN_DB_PATH", "EISEN_TIMEZONE", "EISEN_UNDO_DEPTH", "EISEN_LOG_FILE", "LOG_LEVEL"} {
		t.Setenv(key, "")
	}
	return dir
}

func TestLoadDefaults(t *testing.T) {
	dir := clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "eisen", "eisen.db"), cfg.Storage.Path)
	assert.Equal(t, filepath.Join(dir, "eisen", "eisen.log"), cfg.App.LogFile)
	assert.Equal(t, DefaultTimezone, cfg.Housekeeping.Timezone)
	assert.Equal(t, 10, cfg.App.UndoDepth)
	assert.Equal(t, slog.LevelInfo, cfg.Level())

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Moscow", loc.String())
}

func TestLoadFromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("EISEN_DB_PATH", "/tmp/tasks.db")
	t.Setenv("EISEN_TIMEZONE", "UTC")
	t.Setenv("EISEN_UNDO_DEPTH", "25")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/tasks.db", cfg.Storage.Path)
	assert.Equal(t, 25, cfg.App.UndoDepth)
	assert.Equal(t, slog.LevelDebug, cfg.Level())
}

func TestLoadIgnoresBadInteger(t *testing.T) {
	clearEnv(t)
	t.Setenv("EISEN_UNDO_DEPTH", "lots")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.App.UndoDepth)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Storage:      StorageConfig{Path: "eisen.db"},
			Housekeeping: HousekeepingConfig{Timezone: "UTC"},
			App:          AppConfig{UndoDepth: 10, LogLevel: "info"},
		}
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no path", func(c *Config) { c.Storage.Path = "" }},
		{"unknown timezone", func(c *Config) { c.Housekeeping.Timezone = "Mars/Olympus" }},
		{"zero undo depth", func(c *Config) { c.App.UndoDepth = 0 }},
		{"bad log level", func(c *Config) { c.App.LogLevel = "loud" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
