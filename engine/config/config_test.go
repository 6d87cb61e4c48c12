package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-trace/engine/renderer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Len(t, cfg.SchedulerOptions(), 4)

	bt, err := cfg.BackendType()
	require.NoError(t, err)
	assert.Equal(t, renderer.BackendTypeMemory, bt)
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "oxytrace.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[scheduler]
workers = 8
idle_timeout = "250ms"

[log]
level = "debug"
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Scheduler.Workers)
	assert.Equal(t, Duration(250*time.Millisecond), cfg.Scheduler.IdleTimeout)
	assert.Equal(t, 256, cfg.Scheduler.QueueSize)
	assert.Equal(t, 60.0, cfg.Engine.TickRate)

	lvl, err := cfg.LogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, lvl)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "oxytrace.toml")
	cfg := Default()
	cfg.Window.Enabled = true
	cfg.Engine.ProfileInterval = Duration(5 * time.Second)
	require.NoError(t, cfg.Save(path))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestLoadRejectsInvalidSettings(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"zero workers", "[scheduler]\nworkers = 0\n"},
		{"bad backend", "[renderer]\nbackend = \"vulkan\"\n"},
		{"bad level", "[log]\nlevel = \"loud\"\n"},
		{"bad duration", "[scheduler]\nidle_timeout = \"soon\"\n"},
		{"negative tick", "[engine]\ntick_rate = -1.0\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bad.toml")
			require.NoError(t, os.WriteFile(path, []byte(tt.body), 0o644))
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
