package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/bizpulse/bizpulse/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchStrategy(t *testing.T) {
	reviews, businesses := searchStrategy("Find reviews for Hernandez Restaurant")
	assert.True(t, reviews)
	assert.False(t, businesses)

	reviews, businesses = searchStrategy("Show me the best pizza place downtown")
	assert.False(t, reviews)
	assert.True(t, businesses)

	reviews, businesses = searchStrategy("What do people think of Hernandez?")
	assert.True(t, reviews)
	assert.True(t, businesses)
}

func TestSearchAgent_Run(t *testing.T) {
	gw := newMockGateway()
	gw.searchRecords = hernandezRecords()
	a := NewSearchAgent(gw, nil)

	state := core.NewAgentState("What do people say about Hernandez?")
	require.NoError(t, a.Run(context.Background(), state))

	assert.Len(t, state.SearchResults, 3)
	log := state.ExecutionLog()
	require.Len(t, log, 1)
	assert.Equal(t, "SearchAgent", log[0].Agent)
	assert.Equal(t, core.OutcomeSuccess, log[0].Outcome)
	assert.Equal(t, "found 2 reviews, 1 businesses", log[0].Detail)
}

func TestSearchAgent_Run_ToolFailure(t *testing.T) {
	gw := newMockGateway()
	gw.searchErr = core.NewToolError("vector", core.CodeServiceUnavailable, "collection unreachable")
	a := NewSearchAgent(gw, nil)

	state := core.NewAgentState("Find reviews for tacos")
	err := a.Run(context.Background(), state)
	require.Error(t, err)
	assert.True(t, core.IsCode(err, core.CodeServiceUnavailable))

	// No output mutation on failure; one failure trace entry.
	assert.Empty(t, state.SearchResults)
	log := state.ExecutionLog()
	require.Len(t, log, 1)
	assert.Equal(t, core.OutcomeFailure, log[0].Outcome)
	assert.NotEmpty(t, log[0].Error)
}

func TestSearchAgent_Run_NoRecordsIsFailure(t *testing.T) {
	gw := newMockGateway()
	a := NewSearchAgent(gw, nil)

	state := core.NewAgentState("Find reviews for nothing that exists")
	err := a.Run(context.Background(), state)
	require.Error(t, err)
	assert.True(t, core.IsRetryable(err))
	assert.Empty(t, state.SearchResults)
}

func TestSearchAgent_Run_Idempotent(t *testing.T) {
	gw := newMockGateway()
	gw.searchRecords = hernandezRecords()
	a := NewSearchAgent(gw, nil)

	state := core.NewAgentState("What do people say about Hernandez?")
	state.AnalysisResults = map[string]float64{"positive_ratio": 1}
	state.FinalResponse = "already answered"
	require.NoError(t, a.Run(context.Background(), state))

	// Re-running only rewrites its own output field.
	assert.Equal(t, map[string]float64{"positive_ratio": 1}, state.AnalysisResults)
	assert.Equal(t, "already answered", state.FinalResponse)
}

func TestSearchAgent_Run_PlainErrorStaysRetryable(t *testing.T) {
	gw := newMockGateway()
	gw.searchErr = errors.New("dial tcp: connection refused")
	a := NewSearchAgent(gw, nil)

	state := core.NewAgentState("reviews please")
	err := a.Run(context.Background(), state)
	require.Error(t, err)
	assert.True(t, core.IsRetryable(err))
}
