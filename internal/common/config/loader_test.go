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
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadFromFile_Defaults(t *testing.T) {
	cfg, err := LoadFromFile(writeConfig(t, "app:\n  name: till-1\n"))
	require.NoError(t, err)

	assert.Equal(t, "till-1", cfg.App.Name)
	assert.Equal(t, "default", cfg.Session.ID)
	assert.Equal(t, "file", cfg.Catalog.Source)
	assert.Equal(t, "file", cfg.Checkpoint.Backend)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "trigram", cfg.Retrieval.Provider)
	assert.Equal(t, 3, cfg.Retrieval.TopK)
	assert.Equal(t, "none", cfg.Generator.Provider)
	assert.Equal(t, 5*time.Second, GetDuration(cfg.Retrieval.Timeout))
}

func TestLoadFromFile_Overrides(t *testing.T) {
	body := `
checkpoint:
  backend: redis
retrieval:
  top_k: 5
  min_score: 0.35
generator:
  provider: ollama
  ollama:
    model: llama3
`
	cfg, err := LoadFromFile(writeConfig(t, body))
	require.NoError(t, err)

	assert.Equal(t, "redis", cfg.Checkpoint.Backend)
	assert.Equal(t, 5, cfg.Retrieval.TopK)
	assert.InDelta(t, 0.35, cfg.Retrieval.MinScore, 1e-9)
	assert.Equal(t, "llama3", cfg.Generator.Ollama.Model)
	assert.Equal(t, "http://localhost:11434", cfg.Generator.Ollama.Endpoint)
}

func TestLoadFromFile_EnvOverride(t *testing.T) {
	t.Setenv("POS_SESSION_ID", "till-7")
	t.Setenv("POS_RETRIEVAL_TOP_K", "4")

	cfg, err := LoadFromFile(writeConfig(t, "app:\n  name: pos\n"))
	require.NoError(t, err)

	assert.Equal(t, "till-7", cfg.Session.ID)
	assert.Equal(t, 4, cfg.Retrieval.TopK)
}

func TestLoadFromFile_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown checkpoint backend", "checkpoint:\n  backend: s3\n"},
		{"unknown catalog source", "catalog:\n  source: http\n"},
		{"genai without key", "generator:\n  provider: genai\n"},
		{"min score out of range", "retrieval:\n  min_score: 2\n"},
		{"mysql without dsn", "database:\n  driver: mysql\ncheckpoint:\n  backend: sql\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromFile(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestLoadFromFile_Missing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
