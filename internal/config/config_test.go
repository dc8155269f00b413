package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("returns defaults without file or env", func(t *testing.T) {
		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, 8080, cfg.Server.Port)
		assert.Equal(t, "text-embedding-3-small", cfg.OpenAI.EmbedModel)
		assert.Equal(t, 800, cfg.Chunking.ChunkSize)
		assert.Equal(t, 120, cfg.Chunking.Overlap)
	})

	t.Run("yaml file overrides defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte(
			"server:\n  port: 9000\nchunking:\n  chunk_size: 400\n  overlap: 40\n"), 0o600))

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, 9000, cfg.Server.Port)
		assert.Equal(t, 400, cfg.Chunking.ChunkSize)
		assert.Equal(t, 40, cfg.Chunking.Overlap)
		// Untouched sections keep their defaults.
		assert.Equal(t, "localhost", cfg.Server.Host)
	})

	t.Run("env overrides file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9000\n"), 0o600))
		t.Setenv("ASKPDF_SERVER_PORT", "7001")
		t.Setenv("ASKPDF_OPENAI_API_KEY", "sk-test")

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, 7001, cfg.Server.Port)
		assert.Equal(t, "sk-test", cfg.OpenAI.APIKey)
	})

	t.Run("missing file is not an error", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.NoError(t, err)
	})

	t.Run("rejects overlap not smaller than chunk size", func(t *testing.T) {
		t.Setenv("ASKPDF_CHUNKING_OVERLAP", "800")
		_, err := Load("")
		assert.Error(t, err)
	})
}
