package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, DefaultResultsPath, cfg.Paths.Results)
	assert.Equal(t, DefaultSessionFile, cfg.Paths.Session)
	assert.Equal(t, DefaultServerPort, cfg.Server.Port)
	assert.Empty(t, cfg.Server.Origins)
	assert.False(t, cfg.Server.NoBrowser)
	assert.Equal(t, DefaultPollInterval, cfg.PollInterval())
}

func TestLoad_OverlaysOnDefaults(t *testing.T) {
	dir := t.TempDir()
	content := `
paths:
  session: custom-session.json
server:
  port: 8080
  origins:
    - http://localhost:5173
poll_interval_seconds: 5
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(content), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "custom-session.json", cfg.Paths.Session)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.Server.Origins)
	assert.Equal(t, 5*time.Second, cfg.PollInterval())

	// Fields the file does not set keep their defaults.
	assert.Equal(t, DefaultResultsPath, cfg.Paths.Results)
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte("paths: ["), 0o644))

	_, err := Load(dir)
	assert.Error(t, err)
}

func TestPollInterval_ZeroAndNegativeKeepDefault(t *testing.T) {
	cfg := New()
	assert.Equal(t, DefaultPollInterval, cfg.PollInterval())

	cfg.PollIntervalSeconds = -3
	assert.Equal(t, DefaultPollInterval, cfg.PollInterval())
}
