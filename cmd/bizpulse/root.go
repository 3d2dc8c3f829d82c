package main

import (
	"fmt"
	"os"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/openai/openai-go/option"
	chromem "github.com/philippgille/chromem-go"
	"github.com/spf13/cobra"

	"github.com/bizpulse/bizpulse"
	"github.com/bizpulse/bizpulse/config"
	"github.com/bizpulse/bizpulse/core"
	"github.com/bizpulse/bizpulse/gateway"
	"github.com/bizpulse/bizpulse/logging"
	"github.com/bizpulse/bizpulse/model"
	anthropicmodel "github.com/bizpulse/bizpulse/model/anthropic"
	openaimodel "github.com/bizpulse/bizpulse/model/openai"

	openaisdk "github.com/openai/openai-go"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "bizpulse",
	Short: "Multi-agent business intelligence over review data",
	Long: `bizpulse answers natural-language questions about businesses by
routing each query through a supervised pipeline of specialized agents:
search over review and business collections, sentiment analysis and
response synthesis.

Run a one-off question with "bizpulse query", expose the pipeline over
HTTP with "bizpulse serve", or load a dataset with "bizpulse seed".`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to config file (YAML)")
}

func loadConfig() (*config.Config, error) {
	return config.Load(cfgFile)
}

func buildLogger(cfg *config.Config) logging.Logger {
	return logging.NewSlogLogger(logging.ParseLevel(cfg.Log.Level), cfg.Log.Format, false)
}

// buildSystem wires the configured backends into a System. The returned
// store is non-nil only in embedded mode, letting callers seed it.
func buildSystem(cfg *config.Config, logger logging.Logger) (*bizpulse.System, *gateway.EmbeddedVectorStore, error) {
	var (
		vector gateway.VectorSearcher
		store  *gateway.EmbeddedVectorStore
		err    error
	)
	switch cfg.Vector.Mode {
	case config.VectorModeRemote:
		vector = gateway.NewRemoteVectorStore(map[string]gateway.Endpoint{
			core.CollectionReviews:    {Host: cfg.Vector.ReviewsHost, Port: cfg.Vector.ReviewsPort},
			core.CollectionBusinesses: {Host: cfg.Vector.BusinessesHost, Port: cfg.Vector.BusinessesPort},
		})
	default:
		embed := buildEmbedding(cfg)
		if cfg.Vector.Path != "" {
			store, err = gateway.NewPersistentVectorStore(cfg.Vector.Path, embed)
		} else {
			store, err = gateway.NewEmbeddedVectorStore(embed)
		}
		if err != nil {
			return nil, nil, fmt.Errorf("vector store: %w", err)
		}
		vector = store
	}

	var sentiment gateway.SentimentScorer
	if cfg.Sentiment.Mode == config.SentimentModeHTTP {
		sentiment = gateway.NewHTTPSentimentScorer(cfg.Sentiment.Endpoint)
	} else {
		sentiment = gateway.NewLexiconScorer()
	}

	llm, err := buildModel(cfg)
	if err != nil {
		return nil, nil, err
	}

	system, err := bizpulse.New(func(o *bizpulse.Options) {
		o.Vector = vector
		o.Sentiment = sentiment
		o.Model = llm
		o.MaxAttempts = cfg.Retry.MaxAttempts
		o.CallTimeout = cfg.Retry.CallTimeout
		o.Logger = logger
	})
	if err != nil {
		return nil, nil, err
	}
	return system, store, nil
}

// buildEmbedding selects the embedding function for embedded-mode
// collections: OpenAI-backed vectors in production, deterministic hash
// vectors otherwise.
func buildEmbedding(cfg *config.Config) chromem.EmbeddingFunc {
	if cfg.Vector.Embedding == config.EmbeddingOpenAI {
		var clientOpts []option.RequestOption
		if cfg.LLM.APIKey != "" {
			clientOpts = append(clientOpts, option.WithAPIKey(cfg.LLM.APIKey))
		}
		client := openaisdk.NewClient(clientOpts...)
		return gateway.OpenAIEmbedding(&client, cfg.Vector.EmbeddingModel)
	}
	return gateway.HashEmbedding(gateway.DefaultEmbeddingDim)
}

func buildModel(cfg *config.Config) (model.Model, error) {
	switch cfg.LLM.Provider {
	case config.ProviderOpenAI:
		var clientOpts []option.RequestOption
		if cfg.LLM.APIKey != "" {
			clientOpts = append(clientOpts, option.WithAPIKey(cfg.LLM.APIKey))
		}
		client := openaisdk.NewClient(clientOpts...)
		return openaimodel.NewModelFromClient(&client, func(o *openaimodel.Options) {
			if cfg.LLM.Model != "" {
				o.Model = cfg.LLM.Model
			}
		}), nil
	case config.ProviderAnthropic:
		return anthropicmodel.NewModel(func(o *anthropicmodel.Options) {
			if cfg.LLM.Model != "" {
				o.Model = anthropicsdk.Model(cfg.LLM.Model)
			}
			o.APIKey = cfg.LLM.APIKey
		}), nil
	default:
		return model.NewMockModel("mock"), nil
	}
}
