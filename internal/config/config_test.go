package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:11434", cfg.LLM.OllamaBaseURL)
	assert.Equal(t, 0.7, cfg.LLM.Temperature)
	assert.Equal(t, 10*time.Second, cfg.Weather.Timeout)
	assert.Equal(t, 10*time.Minute, cfg.Weather.CacheTTL)
	assert.Equal(t, 768, cfg.Database.EmbeddingDim)
	assert.Equal(t, 1000, cfg.Ingestion.ChunkSize)
	assert.Equal(t, 200, cfg.Ingestion.ChunkOverlap)
	assert.False(t, cfg.Tracing.Enabled)
	assert.False(t, cfg.IsProduction())
}

func TestLoadEnvironmentAliases(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("OPENWEATHER_API_KEY", "owm-key")
	t.Setenv("LANGSMITH_API_KEY", "ls-key")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/x")
	t.Setenv("LLM_MODEL", "llama3")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "owm-key", cfg.Weather.APIKey)
	assert.Equal(t, "ls-key", cfg.Evaluation.APIKey)
	assert.Equal(t, "postgres://u:p@db:5432/x", cfg.Database.URL)
	assert.Equal(t, "llama3", cfg.LLM.Model)
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	path := filepath.Join(dir, "agent.yaml")
	content := "app:\n  environment: production\ningestion:\n  chunk_size: 500\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 500, cfg.Ingestion.ChunkSize)
	assert.Equal(t, 200, cfg.Ingestion.ChunkOverlap)
}

func TestLoadMissingConfigFile(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := Load("does-not-exist.yaml")
	assert.Error(t, err)
}
