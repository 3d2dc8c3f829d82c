package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/bizpulse/bizpulse/core"
	"github.com/bizpulse/bizpulse/gateway"
	"github.com/bizpulse/bizpulse/logging"
)

// SearchAgent retrieves relevant reviews and businesses for the query. It
// reads only Query and writes only SearchResults.
type SearchAgent struct {
	BaseAgent
	k int
}

// SearchOption customizes a SearchAgent.
type SearchOption func(*SearchAgent)

// WithResultCount sets how many records are requested per collection.
func WithResultCount(k int) SearchOption {
	return func(a *SearchAgent) { a.k = k }
}

// NewSearchAgent creates the search agent on top of the tool gateway.
func NewSearchAgent(gw gateway.Gateway, logger logging.Logger, opts ...SearchOption) *SearchAgent {
	a := &SearchAgent{
		BaseAgent: NewBaseAgent("SearchAgent",
			"Finds and retrieves relevant reviews and business information from the vector collections", gw, logger),
		k: gateway.DefaultK,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// searchStrategy decides which collections to query from the query text,
// mirroring the review/business keyword heuristic of the original assistant.
func searchStrategy(query string) (reviews, businesses bool) {
	lower := strings.ToLower(query)
	if strings.Contains(lower, "review") {
		return true, false
	}
	for _, word := range []string{"restaurant", "business", "place", "shop"} {
		if strings.Contains(lower, word) {
			return false, true
		}
	}
	return true, true
}

// Run implements core.Agent. A run that produces zero records is reported as
// a failure so the supervisor's retry budget bounds the search loop.
func (a *SearchAgent) Run(ctx context.Context, state *core.AgentState) error {
	wantReviews, wantBusinesses := searchStrategy(state.Query)

	var records []core.SearchRecord
	var reviewCount, businessCount int

	if wantReviews {
		found, err := a.gateway.Search(ctx, gateway.SearchRequest{
			Query:      state.Query,
			K:          a.k,
			Collection: core.CollectionReviews,
		})
		if err != nil {
			state.AddTrace(core.NewFailureTrace(a.Name(), "search", err))
			return fmt.Errorf("review search: %w", err)
		}
		records = append(records, found...)
		reviewCount = len(found)
	}
	if wantBusinesses {
		found, err := a.gateway.Search(ctx, gateway.SearchRequest{
			Query:      state.Query,
			K:          a.k,
			Collection: core.CollectionBusinesses,
		})
		if err != nil {
			state.AddTrace(core.NewFailureTrace(a.Name(), "search", err))
			return fmt.Errorf("business search: %w", err)
		}
		records = append(records, found...)
		businessCount = len(found)
	}

	if len(records) == 0 {
		err := fmt.Errorf("search produced no records for query %q", state.Query)
		state.AddTrace(core.NewFailureTrace(a.Name(), "search", err))
		return err
	}

	state.SearchResults = records
	state.AddTrace(core.NewSuccessTrace(a.Name(), "search",
		fmt.Sprintf("found %d reviews, %d businesses", reviewCount, businessCount)))
	a.logger.Info("search completed", "reviews", reviewCount, "businesses", businessCount)
	return nil
}
