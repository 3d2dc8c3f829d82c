package bizpulse

import (
	"context"
	"testing"

	"github.com/bizpulse/bizpulse/core"
	"github.com/bizpulse/bizpulse/gateway"
	"github.com/bizpulse/bizpulse/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seededStore(t *testing.T) *gateway.EmbeddedVectorStore {
	t.Helper()
	store, err := gateway.NewEmbeddedVectorStore(gateway.HashEmbedding(gateway.DefaultEmbeddingDim))
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, store.AddReview(ctx, gateway.Review{
		ID: "rev-1", BusinessID: "hernandez-restaurant",
		Text: "Amazing tacos at Hernandez Restaurant, will come back", Stars: "5", Date: "2025-04-02",
	}))
	require.NoError(t, store.AddReview(ctx, gateway.Review{
		ID: "rev-2", BusinessID: "hernandez-restaurant",
		Text: "Slow service at Hernandez but the food was good", Stars: "3", Date: "2025-05-11",
	}))
	require.NoError(t, store.AddBusiness(ctx, gateway.Business{
		ID: "hernandez-restaurant", Name: "Hernandez Restaurant",
		Categories: "Mexican, Restaurants", Stars: "4.5", City: "Austin",
	}))
	return store
}

// failingVector simulates an unreachable vector service.
type failingVector struct{}

func (failingVector) Search(context.Context, string, string, int, map[string]string) ([]core.SearchRecord, error) {
	return nil, core.NewToolError("vector", core.CodeServiceUnavailable, "connection refused")
}

func TestSystem_ProcessQuery(t *testing.T) {
	llm := model.NewMockModel("mock")
	llm.SetFallback("Customers rate Hernandez Restaurant highly, especially the tacos.")

	system, err := New(func(o *Options) {
		o.Vector = seededStore(t)
		o.Model = llm
	})
	require.NoError(t, err)

	result, err := system.ProcessQuery(context.Background(), "What do people say about Hernandez?")
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, "Customers rate Hernandez Restaurant highly, especially the tacos.", result.FinalResponse)
	assert.NotEmpty(t, result.QueryID)
	assert.NotEmpty(t, result.SearchResults)
	assert.NotEmpty(t, result.AnalysisResults)
	assert.NotEmpty(t, result.ExecutionLog)

	// The log walks the full pipeline and ends in exactly one terminal
	// decision.
	var terminal int
	for _, e := range result.ExecutionLog {
		if e.Outcome == core.OutcomeRouted && e.Detail == "Completed -> FINISH" {
			terminal++
		}
	}
	assert.Equal(t, 1, terminal)
}

func TestSystem_ProcessQuery_VectorUnreachable(t *testing.T) {
	system, err := New(func(o *Options) {
		o.Vector = failingVector{}
	})
	require.NoError(t, err)

	result, err := system.ProcessQuery(context.Background(), "What do people say about Hernandez?")
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Empty(t, result.FinalResponse)
	assert.Empty(t, result.SearchResults)

	var searchFailures, budgetFailures int
	for _, e := range result.ExecutionLog {
		if e.Outcome != core.OutcomeFailure {
			continue
		}
		switch e.Agent {
		case "SearchAgent":
			searchFailures++
		default:
			assert.Contains(t, e.Error, string(core.CodeRetryBudgetExceeded))
			budgetFailures++
		}
	}
	assert.Equal(t, 3, searchFailures)
	assert.Equal(t, 1, budgetFailures)
}

func TestSystem_ProcessQuery_BlankQuery(t *testing.T) {
	system, err := New()
	require.NoError(t, err)

	for _, query := range []string{"", "   ", "\n\t"} {
		result, err := system.ProcessQuery(context.Background(), query)
		require.NoError(t, err)

		assert.False(t, result.Success)
		require.Len(t, result.ExecutionLog, 1)
		entry := result.ExecutionLog[0]
		assert.Equal(t, core.OutcomeFailure, entry.Outcome)
		assert.Contains(t, entry.Error, string(core.CodeInvalidInput))
	}
}

func TestSystem_ProcessQuery_ModelFailureReturnsPartials(t *testing.T) {
	llm := model.NewMockModel("mock")
	llm.FailWith(core.NewToolError("llm", core.CodeServiceUnavailable, "rate limited"))

	system, err := New(func(o *Options) {
		o.Vector = seededStore(t)
		o.Model = llm
		o.MaxAttempts = 2
	})
	require.NoError(t, err)

	result, err := system.ProcessQuery(context.Background(), "What do people say about Hernandez?")
	require.NoError(t, err)

	// Search and analysis succeeded before the response step exhausted its
	// budget, so the partials survive in the failed result.
	assert.False(t, result.Success)
	assert.Empty(t, result.FinalResponse)
	assert.NotEmpty(t, result.SearchResults)
	assert.NotEmpty(t, result.AnalysisResults)
	assert.Len(t, llm.Calls(), 2)
}

func TestSystem_ProcessQuery_Cancelled(t *testing.T) {
	system, err := New(func(o *Options) {
		o.Vector = seededStore(t)
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := system.ProcessQuery(ctx, "What do people say about Hernandez?")
	require.NoError(t, err)
	assert.False(t, result.Success)
}
