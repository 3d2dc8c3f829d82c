package agent

import (
	"context"
	"fmt"
	"strconv"

	"github.com/bizpulse/bizpulse/core"
	"github.com/bizpulse/bizpulse/gateway"
	"github.com/bizpulse/bizpulse/logging"
)

// Metric keys written by the AnalysisAgent. Per-record sentiment lives under
// "sentiment/<record id>" (signed: positive scores above zero, negative
// below); business star ratings under "stars/<record id>".
const (
	MetricReviewsAnalyzed = "reviews_analyzed"
	MetricPositiveRatio   = "positive_ratio"
	MetricNegativeRatio   = "negative_ratio"
	MetricAvgConfidence   = "avg_confidence"
	MetricBusinessCount   = "business_count"
	MetricAvgStars        = "avg_stars"
)

// AnalysisAgent computes sentiment metrics over retrieved reviews and
// aggregate statistics over retrieved businesses. It reads only
// SearchResults and writes only AnalysisResults.
type AnalysisAgent struct {
	BaseAgent
}

// NewAnalysisAgent creates the analysis agent on top of the tool gateway.
func NewAnalysisAgent(gw gateway.Gateway, logger logging.Logger) *AnalysisAgent {
	return &AnalysisAgent{
		BaseAgent: NewBaseAgent("AnalysisAgent",
			"Analyzes retrieved data: sentiment scoring of reviews and aggregate business statistics", gw, logger),
	}
}

// Run implements core.Agent. Metrics are built in a scratch map and only
// assigned on success, so a tool failure leaves AnalysisResults untouched.
func (a *AnalysisAgent) Run(ctx context.Context, state *core.AgentState) error {
	if len(state.SearchResults) == 0 {
		err := core.NewToolError("sentiment", core.CodeInvalidInput, "no search results to analyze")
		state.AddTrace(core.NewFailureTrace(a.Name(), "analyze", err))
		return err
	}

	var reviews, businesses []core.SearchRecord
	for _, r := range state.SearchResults {
		if r.Collection == core.CollectionBusinesses {
			businesses = append(businesses, r)
		} else {
			reviews = append(reviews, r)
		}
	}

	metrics := map[string]float64{}

	if len(reviews) > 0 {
		texts := make([]string, len(reviews))
		for i, r := range reviews {
			texts[i] = r.Text
		}
		scores, err := a.gateway.ScoreSentiment(ctx, gateway.SentimentRequest{Texts: texts})
		if err != nil {
			state.AddTrace(core.NewFailureTrace(a.Name(), "analyze", err))
			return fmt.Errorf("sentiment scoring: %w", err)
		}

		var positive, confidence float64
		for i, score := range scores {
			signed := score.Score
			if !score.Positive() {
				signed = -signed
			} else {
				positive++
			}
			metrics["sentiment/"+reviews[i].ID] = signed
			confidence += score.Score
		}
		total := float64(len(scores))
		metrics[MetricReviewsAnalyzed] = total
		metrics[MetricPositiveRatio] = positive / total
		metrics[MetricNegativeRatio] = (total - positive) / total
		metrics[MetricAvgConfidence] = confidence / total
	}

	if len(businesses) > 0 {
		var starSum float64
		var starCount int
		for _, b := range businesses {
			stars, err := strconv.ParseFloat(b.Metadata["stars"], 64)
			if err != nil {
				continue
			}
			metrics["stars/"+b.ID] = stars
			starSum += stars
			starCount++
		}
		metrics[MetricBusinessCount] = float64(len(businesses))
		if starCount > 0 {
			metrics[MetricAvgStars] = starSum / float64(starCount)
		}
	}

	state.AnalysisResults = metrics
	state.AddTrace(core.NewSuccessTrace(a.Name(), "analyze",
		fmt.Sprintf("analyzed %d reviews, %d businesses", len(reviews), len(businesses))))
	a.logger.Info("analysis completed", "reviews", len(reviews), "businesses", len(businesses))
	return nil
}
