package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("OPENAI_BASE_URL", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)

	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.Mode)

	assert.Equal(t, "postgres://localhost:5432/whoknows?sslmode=disable", cfg.Database.URL)

	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.InDelta(t, 0.7, cfg.LLM.Temperature, 1e-6)
	assert.Equal(t, 1024, cfg.LLM.MaxTokens)

	assert.Equal(t, "text-embedding-3-small", cfg.Embedding.Model)

	assert.Equal(t, "memory", cfg.Session.Backend)
	assert.Equal(t, "./whoknows_sessions", cfg.Session.Path)

	assert.False(t, cfg.Telemetry.Enabled)

	assert.False(t, cfg.CircuitBreaker.Enabled)
	assert.Equal(t, uint32(1), cfg.CircuitBreaker.MaxRequests)
	assert.Equal(t, 60, cfg.CircuitBreaker.Interval)
	assert.Equal(t, 30, cfg.CircuitBreaker.Timeout)
	assert.InDelta(t, 0.6, cfg.CircuitBreaker.ReadyToTripRatio, 1e-9)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test-key")
	t.Setenv("DATABASE_URL", "postgres://db.internal:5432/graph")
	t.Setenv("OPENAI_BASE_URL", "https://llm.internal/v1")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sk-test-key", cfg.LLM.APIKey)
	assert.Equal(t, "sk-test-key", cfg.Embedding.APIKey, "embedding falls back to the shared key")
	assert.Equal(t, "postgres://db.internal:5432/graph", cfg.Database.URL)
	assert.Equal(t, "https://llm.internal/v1", cfg.LLM.BaseURL)
	assert.Equal(t, "https://llm.internal/v1", cfg.Embedding.BaseURL)
}
