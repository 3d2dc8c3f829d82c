package agent

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/bizpulse/bizpulse/core"
	"github.com/bizpulse/bizpulse/gateway"
	"github.com/bizpulse/bizpulse/logging"
)

const responseInstructions = `You are a business-intelligence assistant. Using the provided search
results and analysis metrics, answer the user's query directly, call out
key insights from the data, and add specific recommendations when the data
supports them. Be concise and evidence-based.`

// maxContextRecords bounds how many records of each kind go into the prompt.
const maxContextRecords = 5

// ResponseAgent synthesizes the final answer from the gathered search
// results and analysis metrics. It reads SearchResults and AnalysisResults
// and writes only FinalResponse.
type ResponseAgent struct {
	BaseAgent
}

// NewResponseAgent creates the response agent on top of the tool gateway.
func NewResponseAgent(gw gateway.Gateway, logger logging.Logger) *ResponseAgent {
	return &ResponseAgent{
		BaseAgent: NewBaseAgent("ResponseAgent",
			"Synthesizes a comprehensive final response from search results and analysis metrics", gw, logger),
	}
}

// Run implements core.Agent.
func (a *ResponseAgent) Run(ctx context.Context, state *core.AgentState) error {
	prompt := buildResponsePrompt(state)

	text, err := a.gateway.Complete(ctx, gateway.CompletionRequest{
		Instructions: responseInstructions,
		Prompt:       prompt,
	})
	if err != nil {
		state.AddTrace(core.NewFailureTrace(a.Name(), "respond", err))
		return fmt.Errorf("response generation: %w", err)
	}

	state.FinalResponse = text
	state.AddTrace(core.NewSuccessTrace(a.Name(), "respond", "generated final response"))
	a.logger.Info("response generated", "chars", len(text))
	return nil
}

// buildResponsePrompt assembles the completion context: the query, the top
// retrieved records with ratings and previews, and the analysis summary.
func buildResponsePrompt(state *core.AgentState) string {
	var b strings.Builder
	fmt.Fprintf(&b, "User Query: %s\n", state.Query)

	var reviews, businesses []core.SearchRecord
	for _, r := range state.SearchResults {
		if r.Collection == core.CollectionBusinesses {
			businesses = append(businesses, r)
		} else {
			reviews = append(reviews, r)
		}
	}

	if len(reviews) > 0 {
		fmt.Fprintf(&b, "\n## Reviews (%d found)\n", len(reviews))
		for i, r := range reviews {
			if i == maxContextRecords {
				break
			}
			fmt.Fprintf(&b, "%d. Rating: %s stars - %s\n", i+1, starsOf(r), preview(r.Text, 200))
		}
	}
	if len(businesses) > 0 {
		fmt.Fprintf(&b, "\n## Businesses (%d found)\n", len(businesses))
		for i, r := range businesses {
			if i == maxContextRecords {
				break
			}
			name := r.Metadata["name"]
			if name == "" {
				name = r.ID
			}
			fmt.Fprintf(&b, "%d. %s (%s stars) - %s\n", i+1, name, starsOf(r), r.Metadata["categories"])
		}
	}

	if len(state.AnalysisResults) > 0 {
		b.WriteString("\n## Analysis\n")
		if total, ok := state.AnalysisResults[MetricReviewsAnalyzed]; ok {
			fmt.Fprintf(&b, "- Reviews analyzed: %.0f\n", total)
			fmt.Fprintf(&b, "- Positive: %.0f%%, Negative: %.0f%%\n",
				state.AnalysisResults[MetricPositiveRatio]*100,
				state.AnalysisResults[MetricNegativeRatio]*100)
			fmt.Fprintf(&b, "- Overall sentiment: %s\n", overallSentiment(state.AnalysisResults))
		}
		if count, ok := state.AnalysisResults[MetricBusinessCount]; ok {
			fmt.Fprintf(&b, "- Businesses: %.0f, average rating %.2f stars\n",
				count, state.AnalysisResults[MetricAvgStars])
		}
	}

	return b.String()
}

// overallSentiment derives the dominant label from the positive ratio.
func overallSentiment(metrics map[string]float64) string {
	if metrics[MetricPositiveRatio] >= metrics[MetricNegativeRatio] {
		return core.SentimentPositive
	}
	return core.SentimentNegative
}

func starsOf(r core.SearchRecord) string {
	if s := r.Metadata["stars"]; s != "" {
		return s
	}
	return "N/A"
}

func preview(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	// Back up so the cut never lands inside a multi-byte rune.
	for limit > 0 && !utf8.RuneStart(text[limit]) {
		limit--
	}
	return text[:limit] + "..."
}
