package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_OverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "countdown.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 1420
timers:
  tick_interval: 500ms
notifications:
  command: notify-send
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 1420, cfg.Server.Port)
	assert.Equal(t, "error", cfg.Server.LogLevel)
	assert.Equal(t, 500*time.Millisecond, cfg.Timers.TickInterval)
	assert.Equal(t, 100*time.Millisecond, cfg.Timers.PausedBackoff)
	assert.Equal(t, "notify-send", cfg.Notifications.Command)
	assert.Equal(t, "store.db", cfg.Store.Path)
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "countdown.yaml")

	cfg := DefaultConfig()
	cfg.Updater.ManifestURL = "https://example.com/latest.json"
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
