// Package bizpulse provides a high-level façade over the supervisor state
// machine and the tool gateway, enabling construction of a complete
// business-intelligence query system in a few lines. Most applications
// interact with this package by:
//  1. Creating a System via New() (optionally overriding backends)
//  2. Calling ProcessQuery with the user's question
//  3. Reading the Result: final response, gathered data and execution log
//
// All defaults are safe for local development and testing: an embedded
// vector store with deterministic embeddings, a lexicon sentiment scorer
// and a mock completion model. Production deployments supply real backends
// and a structured logger.
package bizpulse

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bizpulse/bizpulse/agent"
	"github.com/bizpulse/bizpulse/core"
	"github.com/bizpulse/bizpulse/gateway"
	"github.com/bizpulse/bizpulse/logging"
	"github.com/bizpulse/bizpulse/model"
)

// Options configures the System instance.
type Options struct {
	// Vector is the store queried for reviews and businesses. Defaults to
	// an embedded store with deterministic hash embeddings.
	Vector gateway.VectorSearcher
	// Sentiment scores review texts. Defaults to the lexicon scorer.
	Sentiment gateway.SentimentScorer
	// Model generates the final response. Defaults to a mock model.
	Model model.Model
	// Gateway overrides the composed ToolGateway entirely; when set the
	// Vector, Sentiment, Model and CallTimeout fields are ignored.
	Gateway gateway.Gateway

	// MaxAttempts is the per-step retry budget.
	MaxAttempts int
	// CallTimeout bounds each backend round-trip.
	CallTimeout time.Duration
	// SearchResultCount is the number of records requested per collection.
	SearchResultCount int

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// Result is the caller-facing outcome of one query. On failure it carries
// best-effort partials: whatever was gathered before the terminal
// transition, plus the full execution log for diagnosis.
type Result struct {
	Success         bool                `json:"success"`
	QueryID         string              `json:"query_id"`
	Query           string              `json:"query"`
	FinalResponse   string              `json:"final_response,omitempty"`
	SearchResults   []core.SearchRecord `json:"search_results,omitempty"`
	AnalysisResults map[string]float64  `json:"analysis_results,omitempty"`
	ExecutionLog    []core.TraceEntry   `json:"execution_log"`
}

// System is the high-level façade aggregating the supervisor and the three
// specialized agents over one tool gateway.
type System struct {
	opts       Options
	gateway    gateway.Gateway
	supervisor *agent.Supervisor
	logger     logging.Logger
}

// New creates a System with optional overrides. Any unset backend is
// initialized with a local in-process implementation.
func New(optFns ...func(o *Options)) (*System, error) {
	opts := Options{
		MaxAttempts: agent.DefaultMaxAttempts,
		CallTimeout: gateway.DefaultCallTimeout,
		Logger:      logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	gw := opts.Gateway
	if gw == nil {
		vector := opts.Vector
		if vector == nil {
			store, err := gateway.NewEmbeddedVectorStore(gateway.HashEmbedding(gateway.DefaultEmbeddingDim))
			if err != nil {
				return nil, fmt.Errorf("embedded vector store: %w", err)
			}
			vector = store
		}
		sentiment := opts.Sentiment
		if sentiment == nil {
			sentiment = gateway.NewLexiconScorer()
		}
		llm := opts.Model
		if llm == nil {
			llm = model.NewMockModel("mock")
		}
		gw = gateway.New(vector, sentiment, llm, func(o *gateway.Options) {
			o.CallTimeout = opts.CallTimeout
			o.Logger = opts.Logger
		})
	}

	var searchOpts []agent.SearchOption
	if opts.SearchResultCount > 0 {
		searchOpts = append(searchOpts, agent.WithResultCount(opts.SearchResultCount))
	}

	supervisor := agent.NewSupervisor(
		agent.NewSearchAgent(gw, opts.Logger, searchOpts...),
		agent.NewAnalysisAgent(gw, opts.Logger),
		agent.NewResponseAgent(gw, opts.Logger),
		func(o *agent.SupervisorOptions) {
			o.MaxAttempts = opts.MaxAttempts
			o.Logger = opts.Logger
		},
	)

	return &System{opts: opts, gateway: gw, supervisor: supervisor, logger: opts.Logger}, nil
}

// Gateway exposes the underlying tool gateway, letting callers seed an
// embedded store or issue direct tool calls.
func (s *System) Gateway() gateway.Gateway { return s.gateway }

// ProcessQuery runs one query through the state machine and returns the
// terminal result. A blank query is rejected before any agent is dispatched
// and yields a failed result with exactly one log entry. Backend failures
// never surface as raw errors: they end in a Result with Success=false and
// the partial data gathered so far. The returned error is reserved for
// invariant violations inside the state machine itself.
func (s *System) ProcessQuery(ctx context.Context, query string) (*Result, error) {
	state := core.NewAgentState(strings.TrimSpace(query))

	if state.Query == "" {
		err := core.NewToolError("system", core.CodeInvalidInput, "query must not be empty")
		state.AddTrace(core.NewFailureTrace("system", "validate", err))
		if markErr := state.MarkFailed(); markErr != nil {
			return nil, markErr
		}
		s.logger.Warn("query rejected", "query_id", state.QueryID, "error", err.Error())
		return resultOf(state), nil
	}

	s.logger.Info("processing query", "query_id", state.QueryID, "query", state.Query)
	if err := s.supervisor.Execute(ctx, state); err != nil {
		return resultOf(state), err
	}
	s.logger.Info("query finished", "query_id", state.QueryID, "status", string(state.Status), "log_entries", len(state.ExecutionLog()))
	return resultOf(state), nil
}

func resultOf(state *core.AgentState) *Result {
	return &Result{
		Success:         state.Status == core.StatusCompleted,
		QueryID:         state.QueryID,
		Query:           state.Query,
		FinalResponse:   state.FinalResponse,
		SearchResults:   state.SearchResults,
		AnalysisResults: state.AnalysisResults,
		ExecutionLog:    state.ExecutionLog(),
	}
}
