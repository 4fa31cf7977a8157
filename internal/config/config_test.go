package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "core.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, Default(), cfg)
	assert.Equal(t, 10, cfg.Sync.BatchSize)
	assert.Equal(t, 5, cfg.Sync.MaxRetries)
	assert.Equal(t, 7*24*time.Hour, cfg.Sync.MaxAge)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
data_dir: /var/lib/homevault
log_level: debug
remote:
  endpoint: https://sync.example.com
  token: abc123
  timeout: 10s
sync:
  interval: 5m
  batch_size: 25
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/homevault", cfg.DataDir)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "https://sync.example.com", cfg.Remote.Endpoint)
	assert.Equal(t, "abc123", cfg.Remote.Token)
	assert.Equal(t, 10*time.Second, cfg.Remote.Timeout)
	assert.Equal(t, 5*time.Minute, cfg.Sync.Interval)
	assert.Equal(t, 25, cfg.Sync.BatchSize)

	// Untouched fields keep their defaults.
	assert.Equal(t, time.Minute, cfg.Sync.QueueInterval)
	assert.Equal(t, 5, cfg.Sync.MaxRetries)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	path := writeConfig(t, "sync:\n  batch_size: -1\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "batch_size")

	path = writeConfig(t, "sync:\n  max_retries: 0\n")
	_, err = Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_retries")
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := writeConfig(t, "sync: [not: a: map\n")
	_, err := Load(path)
	require.Error(t, err)
}
