package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("VERSE_ROTATOR_DATA_DIR", "/tmp/vr")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/vr", cfg.DataDir)
	assert.Equal(t, filepath.Join("/tmp/vr", "bible.db"), cfg.DBPath)
	assert.Equal(t, filepath.Join("/tmp/vr", "settings"), cfg.SettingsDir)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 4, cfg.Interval)
	assert.Equal(t, []string{"http://*", "https://*"}, cfg.AllowedOrigins)
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(".verse-rotator.yaml", []byte(
		"data_dir: /srv/verses\naddr: \":9000\"\ndefault_interval_minutes: 2\nallowed_origins:\n  - http://localhost:3000\n"), 0o644))
	require.NoError(t, os.WriteFile("custom.env", []byte("VERSE_ROTATOR_LOG_LEVEL=debug\n"), 0o644))
	t.Setenv("VERSE_ROTATOR_ADDR", ":7000")
	t.Cleanup(func() { os.Unsetenv("VERSE_ROTATOR_LOG_LEVEL") })

	cfg, err := Load("custom.env", "missing.env")
	require.NoError(t, err)
	assert.Equal(t, "/srv/verses", cfg.DataDir)
	assert.Equal(t, ":7000", cfg.Addr, "environment beats the file")
	assert.Equal(t, "debug", cfg.LogLevel, "loaded from the env file")
	assert.Equal(t, 2, cfg.Interval)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.AllowedOrigins)
}

func TestOriginsSplitsCommas(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, origins([]string{"a, b", "", "c"}))
}
