package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, VectorModeEmbedded, cfg.Vector.Mode)
	assert.Equal(t, EmbeddingHash, cfg.Vector.Embedding)
	assert.Equal(t, 8001, cfg.Vector.ReviewsPort)
	assert.Equal(t, 8000, cfg.Vector.BusinessesPort)
	assert.Equal(t, ProviderMock, cfg.LLM.Provider)
	assert.Equal(t, SentimentModeLexicon, cfg.Sentiment.Mode)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	assert.Equal(t, 30*time.Second, cfg.Retry.CallTimeout)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, ":8080", cfg.API.Addr)

	require.NoError(t, cfg.Validate())
}

func TestLoad_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
vector:
  mode: remote
  reviews_host: chroma-reviews
  reviews_port: 9001
llm:
  provider: openai
  model: gpt-4o-mini
retry:
  max_attempts: 5
  call_timeout: 10s
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, VectorModeRemote, cfg.Vector.Mode)
	assert.Equal(t, "chroma-reviews", cfg.Vector.ReviewsHost)
	assert.Equal(t, 9001, cfg.Vector.ReviewsPort)
	// Unset keys keep their defaults.
	assert.Equal(t, "localhost", cfg.Vector.BusinessesHost)
	assert.Equal(t, ProviderOpenAI, cfg.LLM.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.Equal(t, 5, cfg.Retry.MaxAttempts)
	assert.Equal(t, 10*time.Second, cfg.Retry.CallTimeout)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("BIZPULSE_LLM_PROVIDER", "anthropic")
	t.Setenv("BIZPULSE_RETRY_MAX_ATTEMPTS", "2")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ProviderAnthropic, cfg.LLM.Provider)
	assert.Equal(t, 2, cfg.Retry.MaxAttempts)
}

func TestLoad_APIKeyExpansion(t *testing.T) {
	t.Setenv("TEST_BIZPULSE_KEY", "sk-test-123")
	t.Setenv("BIZPULSE_LLM_API_KEY", "${TEST_BIZPULSE_KEY}")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "sk-test-123", cfg.LLM.APIKey)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"bad vector mode", func(c *Config) { c.Vector.Mode = "graph" }, "vector.mode"},
		{"bad embedding", func(c *Config) { c.Vector.Embedding = "word2vec" }, "vector.embedding"},
		{"bad sentiment mode", func(c *Config) { c.Sentiment.Mode = "regex" }, "sentiment.mode"},
		{"http sentiment without endpoint", func(c *Config) { c.Sentiment.Mode = SentimentModeHTTP }, "sentiment.endpoint"},
		{"bad provider", func(c *Config) { c.LLM.Provider = "gemini" }, "llm.provider"},
		{"zero attempts", func(c *Config) { c.Retry.MaxAttempts = 0 }, "max_attempts"},
		{"zero timeout", func(c *Config) { c.Retry.CallTimeout = 0 }, "call_timeout"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
