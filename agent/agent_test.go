package agent

import (
	"context"
	"fmt"
	"sync"

	"github.com/bizpulse/bizpulse/core"
	"github.com/bizpulse/bizpulse/gateway"
)

// Interface compliance (compile-time assertions)
var (
	_ core.Agent = (*SearchAgent)(nil)
	_ core.Agent = (*AnalysisAgent)(nil)
	_ core.Agent = (*ResponseAgent)(nil)
)

// mockGateway is a configurable gateway.Gateway test double shared by the
// agent tests.
type mockGateway struct {
	mu sync.Mutex

	searchRecords map[string][]core.SearchRecord // keyed by collection
	searchErr     error
	searchCalls   int

	scores       []core.SentimentScore
	sentimentErr error
	scoredTexts  [][]string

	completion    string
	completionErr error
	prompts       []gateway.CompletionRequest
}

func newMockGateway() *mockGateway {
	return &mockGateway{
		searchRecords: map[string][]core.SearchRecord{},
		completion:    "Here is what the data says.",
	}
}

func (m *mockGateway) Search(_ context.Context, req gateway.SearchRequest) ([]core.SearchRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.searchCalls++
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	return m.searchRecords[req.Collection], nil
}

func (m *mockGateway) ScoreSentiment(_ context.Context, req gateway.SentimentRequest) ([]core.SentimentScore, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scoredTexts = append(m.scoredTexts, req.Texts)
	if m.sentimentErr != nil {
		return nil, m.sentimentErr
	}
	if m.scores != nil {
		return m.scores, nil
	}
	scores := make([]core.SentimentScore, len(req.Texts))
	for i := range req.Texts {
		scores[i] = core.SentimentScore{Label: core.SentimentPositive, Score: 0.9}
	}
	return scores, nil
}

func (m *mockGateway) Complete(_ context.Context, req gateway.CompletionRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prompts = append(m.prompts, req)
	if m.completionErr != nil {
		return "", m.completionErr
	}
	return m.completion, nil
}

func hernandezRecords() map[string][]core.SearchRecord {
	return map[string][]core.SearchRecord{
		core.CollectionReviews: {
			{ID: "rev-1", Collection: core.CollectionReviews, Text: "Amazing tacos at Hernandez Restaurant", Score: 0.95,
				Metadata: map[string]string{"business_id": "hernandez-restaurant", "stars": "5"}},
			{ID: "rev-2", Collection: core.CollectionReviews, Text: "Slow service but good food", Score: 0.81,
				Metadata: map[string]string{"business_id": "hernandez-restaurant", "stars": "3"}},
		},
		core.CollectionBusinesses: {
			{ID: "hernandez-restaurant", Collection: core.CollectionBusinesses, Text: "Hernandez Restaurant Mexican", Score: 0.97,
				Metadata: map[string]string{"name": "Hernandez Restaurant", "stars": "4.5", "categories": "Mexican, Restaurants"}},
		},
	}
}

// scriptedAgent runs a canned function, used by supervisor tests.
type scriptedAgent struct {
	name string
	run  func(ctx context.Context, state *core.AgentState) error
}

func (a *scriptedAgent) Name() string        { return a.name }
func (a *scriptedAgent) Description() string { return fmt.Sprintf("Agent %s", a.name) }
func (a *scriptedAgent) Run(ctx context.Context, state *core.AgentState) error {
	return a.run(ctx, state)
}
