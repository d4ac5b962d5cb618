package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chtemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chtemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"bing", "google"}, cfg.Search.Backends)
	assert.True(t, cfg.Search.Headless)
	assert.Equal(t, 3, cfg.Search.MaxPages)
	assert.Equal(t, 10, cfg.Enrich.Workers)
	assert.Equal(t, 5*time.Second, cfg.Enrich.RequestTimeout())
	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.Equal(t, 50, cfg.Store.MaxFinished)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chtemp(t)

	yaml := `
search:
  backends: [bing]
  headless: false
  max_pages: 5
enrich:
  workers: 4
store:
  driver: sqlite
  path: /tmp/jobs.db
log:
  level: debug
  format: console
server:
  port: 9090
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"bing"}, cfg.Search.Backends)
	assert.False(t, cfg.Search.Headless)
	assert.Equal(t, 5, cfg.Search.MaxPages)
	assert.Equal(t, 4, cfg.Enrich.Workers)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "/tmp/jobs.db", cfg.Store.Path)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadFromEnv(t *testing.T) {
	chtemp(t)
	t.Setenv("LEADENGINE_SERVER_PORT", "7070")
	t.Setenv("LEADENGINE_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	require.NoError(t, InitLogger(LogConfig{Level: "info", Format: "json"}))
	assert.Error(t, InitLogger(LogConfig{Level: "nope", Format: "json"}))
}
