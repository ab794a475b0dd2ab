package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvOverrides(t *testing.T) {
	t.Run("GEMINI_API_KEY sets key and provider", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("GEMINI_API_KEY", "gm-key")

		cfg := &Config{AI: AIConfig{Provider: ""}}
		require.NoError(t, cfg.applyEnvOverrides())

		assert.Equal(t, "gm-key", cfg.AI.APIKey)
		assert.Equal(t, "gemini", cfg.AI.Provider)
	})

	t.Run("empty variables leave file values alone", func(t *testing.T) {
		clearEnv(t)

		cfg := DefaultConfig()
		cfg.Backend.BaseURL = "https://from-file"
		require.NoError(t, cfg.applyEnvOverrides())

		assert.Equal(t, "https://from-file", cfg.Backend.BaseURL)
	})

	t.Run("paths and level", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("PLANTKEEPER_BACKEND_URL", "https://env-backend")
		t.Setenv("PLANTKEEPER_DB", "/tmp/pk.db")
		t.Setenv("PLANTKEEPER_SESSION_FILE", "/tmp/session.json")
		t.Setenv("PLANTKEEPER_LOG_LEVEL", "debug")
		t.Setenv("PLANTKEEPER_AI_MODEL", "gemini-2.5-pro")

		cfg := DefaultConfig()
		require.NoError(t, cfg.applyEnvOverrides())

		assert.Equal(t, "https://env-backend", cfg.Backend.BaseURL)
		assert.Equal(t, "/tmp/pk.db", cfg.Storage.DatabasePath)
		assert.Equal(t, "/tmp/session.json", cfg.Session.File)
		assert.Equal(t, "debug", cfg.Logging.Level)
		assert.Equal(t, "gemini-2.5-pro", cfg.AI.Model)
	})
}
