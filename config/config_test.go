package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "localhost", cfg.Knowledge.Host)
	assert.Equal(t, 7474, cfg.Knowledge.Port)
	assert.Equal(t, 5, cfg.Knowledge.TopK)
	assert.Equal(t, "tavily", cfg.WebSearch.Provider)
	assert.Equal(t, 24*time.Hour, cfg.Cache.TTL)
	assert.Equal(t, 10*time.Second, cfg.Scheduler.StepTimeout)
	assert.Empty(t, cfg.Cache.RedisAddr)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "codeatlas.yaml")
	content := []byte(`
knowledge:
  host: kg.internal
  port: 9474
  top_k: 8
web_search:
  provider: serper
  max_results: 3
scheduler:
  budget: 30s
  max_concurrency: 10
`)
	require.NoError(t, os.WriteFile(path, content, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "kg.internal", cfg.Knowledge.Host)
	assert.Equal(t, 9474, cfg.Knowledge.Port)
	assert.Equal(t, 8, cfg.Knowledge.TopK)
	assert.Equal(t, "serper", cfg.WebSearch.Provider)
	assert.Equal(t, 3, cfg.WebSearch.MaxResults)
	assert.Equal(t, 30*time.Second, cfg.Scheduler.Budget)
	assert.Equal(t, 10, cfg.Scheduler.MaxConcurrency)
	// Untouched sections keep their defaults.
	assert.Equal(t, 5, cfg.Knowledge.MaxRelated)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/codeatlas.yaml")
	assert.Error(t, err)
}

func TestBuildWiresMemoryCache(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	o, err := Build(cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.NotNil(t, o)
}
