package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bizpulse/bizpulse/core"
	"github.com/bizpulse/bizpulse/logging"
	"github.com/bizpulse/bizpulse/model"
)

// DefaultK is the number of records returned when a search request does not
// specify a count.
const DefaultK = 5

// DefaultCallTimeout bounds every in-flight backend call so a hung service
// surfaces as a timeout failure instead of blocking the query forever.
const DefaultCallTimeout = 30 * time.Second

// SearchRequest is the normalized vector search input.
type SearchRequest struct {
	Query      string `json:"query"`
	K          int    `json:"k,omitempty"`
	BusinessID string `json:"business_id,omitempty"`
	Collection string `json:"collection,omitempty"`
}

// SentimentRequest is the normalized sentiment scoring input. Scores come
// back in the same order as Texts.
type SentimentRequest struct {
	Texts []string `json:"texts"`
}

// CompletionRequest is the normalized LLM completion input.
type CompletionRequest struct {
	Instructions string `json:"instructions,omitempty"`
	Prompt       string `json:"prompt"`
}

// Gateway is the uniform call interface agents use to reach external
// services. Implementations translate typed requests into concrete backend
// calls and backend failures into typed core.ToolError values.
type Gateway interface {
	Search(ctx context.Context, req SearchRequest) ([]core.SearchRecord, error)
	ScoreSentiment(ctx context.Context, req SentimentRequest) ([]core.SentimentScore, error)
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// VectorSearcher is the contract for one vector store deployment holding the
// review and business collections.
type VectorSearcher interface {
	Search(ctx context.Context, collection, query string, k int, where map[string]string) ([]core.SearchRecord, error)
}

// SentimentScorer scores text snippets, preserving input order.
type SentimentScorer interface {
	Score(ctx context.Context, texts []string) ([]core.SentimentScore, error)
}

// Options configures a ToolGateway.
type Options struct {
	// CallTimeout bounds each backend round-trip.
	CallTimeout time.Duration
	// Logger receives per-call timing and outcome records.
	Logger logging.Logger
}

// ToolGateway is the production Gateway implementation composing a vector
// searcher, a sentiment scorer and a completion model.
type ToolGateway struct {
	vector      VectorSearcher
	sentiment   SentimentScorer
	llm         model.Model
	callTimeout time.Duration
	logger      logging.Logger
}

// New constructs a ToolGateway with optional overrides.
func New(vector VectorSearcher, sentiment SentimentScorer, llm model.Model, optFns ...func(o *Options)) *ToolGateway {
	opts := Options{
		CallTimeout: DefaultCallTimeout,
		Logger:      logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &ToolGateway{
		vector:      vector,
		sentiment:   sentiment,
		llm:         llm,
		callTimeout: opts.CallTimeout,
		logger:      opts.Logger,
	}
}

// Search implements Gateway. An empty result set is not an error; the
// supervisor decides whether to retry.
func (g *ToolGateway) Search(ctx context.Context, req SearchRequest) ([]core.SearchRecord, error) {
	if req.Query == "" {
		return nil, core.NewToolError("vector", core.CodeInvalidInput, "search request requires a query")
	}
	if req.K <= 0 {
		req.K = DefaultK
	}
	collection := req.Collection
	if collection == "" {
		collection = core.CollectionReviews
	}
	var where map[string]string
	if req.BusinessID != "" {
		where = map[string]string{"business_id": req.BusinessID}
	}

	ctx, cancel := context.WithTimeout(ctx, g.callTimeout)
	defer cancel()

	start := time.Now()
	records, err := g.vector.Search(ctx, collection, req.Query, req.K, where)
	g.logger.Debug("vector search", "collection", collection, "k", req.K, "hits", len(records), "duration", time.Since(start))
	if err != nil {
		return nil, classify("vector", fmt.Sprintf("search in %s failed", collection), err)
	}
	for i := range records {
		if records[i].Collection == "" {
			records[i].Collection = collection
		}
	}
	return records, nil
}

// ScoreSentiment implements Gateway. The backend must return exactly one
// score per input text in input order; anything else fails contract
// validation.
func (g *ToolGateway) ScoreSentiment(ctx context.Context, req SentimentRequest) ([]core.SentimentScore, error) {
	if len(req.Texts) == 0 {
		return nil, core.NewToolError("sentiment", core.CodeInvalidInput, "sentiment request requires at least one text")
	}

	ctx, cancel := context.WithTimeout(ctx, g.callTimeout)
	defer cancel()

	start := time.Now()
	scores, err := g.sentiment.Score(ctx, req.Texts)
	g.logger.Debug("sentiment scoring", "texts", len(req.Texts), "duration", time.Since(start))
	if err != nil {
		return nil, classify("sentiment", "scoring failed", err)
	}
	if len(scores) != len(req.Texts) {
		return nil, core.NewToolError("sentiment", core.CodeMalformedResponse,
			fmt.Sprintf("expected %d scores, got %d", len(req.Texts), len(scores)))
	}
	return scores, nil
}

// Complete implements Gateway. Empty generated text fails contract
// validation so agents never write an empty final response.
func (g *ToolGateway) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	if req.Prompt == "" {
		return "", core.NewToolError("llm", core.CodeInvalidInput, "completion request requires a prompt")
	}

	ctx, cancel := context.WithTimeout(ctx, g.callTimeout)
	defer cancel()

	start := time.Now()
	resp, err := g.llm.Generate(ctx, model.Request{Instructions: req.Instructions, Prompt: req.Prompt})
	if err != nil {
		g.logger.Debug("llm completion failed", "model", g.llm.Info().Name, "duration", time.Since(start))
		return "", classify("llm", "completion failed", err)
	}
	g.logger.Debug("llm completion", "model", g.llm.Info().Name, "finish_reason", resp.FinishReason, "duration", time.Since(start))
	if resp.Text == "" {
		return "", core.NewToolError("llm", core.CodeMalformedResponse, "model returned empty text")
	}
	return resp.Text, nil
}

// classify maps an arbitrary backend error into the typed failure taxonomy.
// Errors already carrying a ToolError pass through unchanged.
func classify(backend, message string, err error) error {
	var te *core.ToolError
	if errors.As(err, &te) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return core.WrapToolError(backend, core.CodeTimeout, message, err)
	}
	return core.WrapToolError(backend, core.CodeServiceUnavailable, message, err)
}
