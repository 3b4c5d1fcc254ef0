package model

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, 300, cfg.MaxChunkSize)
	assert.Equal(t, 50, cfg.ChunkOverlap)
	assert.Equal(t, 5, cfg.DefaultTopK)
	assert.Equal(t, []string{CollectionLiterature, CollectionTrials}, cfg.Collections)
}

func TestLoadConfig(t *testing.T) {
	t.Run("Missing file returns defaults", func(t *testing.T) {
		cfg, err := LoadConfig("/nonexistent/config.yaml")

		require.NoError(t, err)
		assert.Equal(t, DefaultConfig(), cfg)
	})

	t.Run("File values override defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		content := "max_chunk_size: 400\ndefault_top_k: 7\nmax_top_k: 30\nembedding:\n  model: text-embedding-3-large\n  timeout: 30s\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		cfg, err := LoadConfig(path)

		require.NoError(t, err)
		assert.Equal(t, 400, cfg.MaxChunkSize)
		assert.Equal(t, 7, cfg.DefaultTopK)
		assert.Equal(t, "text-embedding-3-large", cfg.Embedding.Model)
		assert.Equal(t, 30*time.Second, cfg.Embedding.Timeout)
		// Untouched settings keep their defaults.
		assert.Equal(t, 50, cfg.ChunkOverlap)
	})

	t.Run("Invalid values fail validation", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("chunk_overlap: 300\n"), 0o644))

		_, err := LoadConfig(path)
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	base := func() *Config { return DefaultConfig() }

	t.Run("Overlap must stay below chunk size", func(t *testing.T) {
		cfg := base()
		cfg.ChunkOverlap = cfg.MaxChunkSize

		assert.Error(t, cfg.Validate())
	})

	t.Run("Max top-k must cover the default", func(t *testing.T) {
		cfg := base()
		cfg.MaxTopK = cfg.DefaultTopK - 1

		assert.Error(t, cfg.Validate())
	})

	t.Run("At least one collection required", func(t *testing.T) {
		cfg := base()
		cfg.Collections = nil

		assert.Error(t, cfg.Validate())
	})
}
