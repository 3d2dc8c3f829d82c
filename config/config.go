// Package config handles configuration loading for bizpulse. It layers
// built-in defaults, an optional YAML file and BIZPULSE_* environment
// variables.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Vector store modes.
const (
	VectorModeEmbedded = "embedded"
	VectorModeRemote   = "remote"
)

// Embedding functions for the embedded vector store.
const (
	EmbeddingHash   = "hash"
	EmbeddingOpenAI = "openai"
)

// Sentiment scorer modes.
const (
	SentimentModeLexicon = "lexicon"
	SentimentModeHTTP    = "http"
)

// LLM providers.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderMock      = "mock"
)

// Config holds all configuration for the query system.
type Config struct {
	Vector    VectorConfig    `mapstructure:"vector"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Sentiment SentimentConfig `mapstructure:"sentiment"`
	Retry     RetryConfig     `mapstructure:"retry"`
	Log       LogConfig       `mapstructure:"log"`
	API       APIConfig       `mapstructure:"api"`
}

// VectorConfig selects the vector store deployment. In remote mode the
// review and business collections may live on separate services.
type VectorConfig struct {
	Mode string `mapstructure:"mode"`
	// Path backs the embedded store with an on-disk database; empty keeps
	// it in memory.
	Path string `mapstructure:"path"`
	// Embedding selects how embedded-mode collections vectorize text:
	// deterministic hashing (offline, seeding, tests) or the OpenAI
	// embeddings API for production quality.
	Embedding string `mapstructure:"embedding"`
	// EmbeddingModel is the OpenAI embedding model; empty uses the
	// gateway default.
	EmbeddingModel string `mapstructure:"embedding_model"`
	ReviewsHost    string `mapstructure:"reviews_host"`
	ReviewsPort    int    `mapstructure:"reviews_port"`
	BusinessesHost string `mapstructure:"businesses_host"`
	BusinessesPort int    `mapstructure:"businesses_port"`
}

// LLMConfig selects the completion backend.
type LLMConfig struct {
	Provider string `mapstructure:"provider"`
	Model    string `mapstructure:"model"`
	APIKey   string `mapstructure:"api_key"`
}

// SentimentConfig selects the sentiment scoring backend.
type SentimentConfig struct {
	Mode     string `mapstructure:"mode"`
	Endpoint string `mapstructure:"endpoint"`
}

// RetryConfig bounds the supervisor's per-step retries and the gateway's
// per-call deadline.
type RetryConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	CallTimeout time.Duration `mapstructure:"call_timeout"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// APIConfig holds HTTP server settings.
type APIConfig struct {
	Addr string `mapstructure:"addr"`
}

// Load loads configuration with the precedence (highest to lowest):
// BIZPULSE_* environment variables, the config file at path (optional,
// empty path skips the file), built-in defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("BIZPULSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config from %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	cfg.LLM.APIKey = os.ExpandEnv(cfg.LLM.APIKey)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns a Config with the built-in defaults.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	cfg := &Config{}
	// Unmarshal of static defaults cannot fail.
	_ = v.Unmarshal(cfg)
	return cfg
}

// Validate rejects mode and provider values the system cannot serve.
func (c *Config) Validate() error {
	switch c.Vector.Mode {
	case VectorModeEmbedded, VectorModeRemote:
	default:
		return fmt.Errorf("invalid vector.mode %q", c.Vector.Mode)
	}
	switch c.Vector.Embedding {
	case EmbeddingHash, EmbeddingOpenAI:
	default:
		return fmt.Errorf("invalid vector.embedding %q", c.Vector.Embedding)
	}
	switch c.Sentiment.Mode {
	case SentimentModeLexicon, SentimentModeHTTP:
	default:
		return fmt.Errorf("invalid sentiment.mode %q", c.Sentiment.Mode)
	}
	if c.Sentiment.Mode == SentimentModeHTTP && c.Sentiment.Endpoint == "" {
		return fmt.Errorf("sentiment.endpoint required in http mode")
	}
	switch c.LLM.Provider {
	case ProviderOpenAI, ProviderAnthropic, ProviderMock:
	default:
		return fmt.Errorf("invalid llm.provider %q", c.LLM.Provider)
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry.max_attempts must be at least 1, got %d", c.Retry.MaxAttempts)
	}
	if c.Retry.CallTimeout <= 0 {
		return fmt.Errorf("retry.call_timeout must be positive, got %s", c.Retry.CallTimeout)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("vector.mode", VectorModeEmbedded)
	v.SetDefault("vector.path", "")
	v.SetDefault("vector.embedding", EmbeddingHash)
	v.SetDefault("vector.embedding_model", "")
	v.SetDefault("vector.reviews_host", "localhost")
	v.SetDefault("vector.reviews_port", 8001)
	v.SetDefault("vector.businesses_host", "localhost")
	v.SetDefault("vector.businesses_port", 8000)

	v.SetDefault("llm.provider", ProviderMock)
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.api_key", "")

	v.SetDefault("sentiment.mode", SentimentModeLexicon)
	v.SetDefault("sentiment.endpoint", "")

	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.call_timeout", "30s")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("api.addr", ":8080")
}
