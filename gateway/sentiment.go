package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/bizpulse/bizpulse/core"
)

// HTTPSentimentScorer calls a hosted sentiment model (an inference server
// exposing a classify endpoint) and preserves input order in its output.
type HTTPSentimentScorer struct {
	client   *http.Client
	endpoint string
}

// NewHTTPSentimentScorer points the scorer at the inference endpoint, e.g.
// "http://localhost:8080/classify".
func NewHTTPSentimentScorer(endpoint string) *HTTPSentimentScorer {
	return &HTTPSentimentScorer{client: &http.Client{}, endpoint: endpoint}
}

// Score implements SentimentScorer.
func (s *HTTPSentimentScorer) Score(ctx context.Context, texts []string) ([]core.SentimentScore, error) {
	reqBody, err := json.Marshal(map[string][]string{"texts": texts})
	if err != nil {
		return nil, core.WrapToolError("sentiment", core.CodeInvalidInput, "failed to marshal texts", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, core.WrapToolError("sentiment", core.CodeInvalidInput, "failed to build request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, core.WrapToolError("sentiment", core.CodeTimeout, "scoring timed out", err)
		}
		return nil, core.WrapToolError("sentiment", core.CodeServiceUnavailable, "scoring endpoint unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, core.NewToolError("sentiment", core.CodeServiceUnavailable,
			fmt.Sprintf("scoring endpoint returned status %d: %s", resp.StatusCode, bytes.TrimSpace(body)))
	}

	var scores []core.SentimentScore
	if err := json.NewDecoder(resp.Body).Decode(&scores); err != nil {
		return nil, core.WrapToolError("sentiment", core.CodeMalformedResponse, "failed to decode scores", err)
	}
	for _, score := range scores {
		if score.Label != core.SentimentPositive && score.Label != core.SentimentNegative {
			return nil, core.NewToolError("sentiment", core.CodeMalformedResponse,
				fmt.Sprintf("unexpected sentiment label %q", score.Label))
		}
	}
	return scores, nil
}

// LexiconScorer is a deterministic in-process scorer used for offline runs
// and tests. It counts polarity words, which is crude but order-preserving
// and dependency-free.
type LexiconScorer struct {
	positive map[string]struct{}
	negative map[string]struct{}
}

var defaultPositiveWords = []string{
	"good", "great", "excellent", "amazing", "delicious", "friendly",
	"fantastic", "wonderful", "love", "loved", "best", "fresh", "perfect",
	"recommend", "tasty", "clean", "attentive", "fast",
}

var defaultNegativeWords = []string{
	"bad", "terrible", "awful", "slow", "rude", "dirty", "cold",
	"horrible", "worst", "disappointing", "bland", "overpriced", "stale",
	"mediocre", "avoid", "never", "wait", "waited",
}

// NewLexiconScorer builds a scorer with the default polarity lexicon.
func NewLexiconScorer() *LexiconScorer {
	s := &LexiconScorer{
		positive: make(map[string]struct{}, len(defaultPositiveWords)),
		negative: make(map[string]struct{}, len(defaultNegativeWords)),
	}
	for _, w := range defaultPositiveWords {
		s.positive[w] = struct{}{}
	}
	for _, w := range defaultNegativeWords {
		s.negative[w] = struct{}{}
	}
	return s
}

// Score implements SentimentScorer. Each text gets the label of the
// dominant polarity; confidence is the dominant share of matched words,
// 0.5 when nothing matches.
func (s *LexiconScorer) Score(ctx context.Context, texts []string) ([]core.SentimentScore, error) {
	if err := ctx.Err(); err != nil {
		return nil, core.WrapToolError("sentiment", core.CodeTimeout, "scoring cancelled", err)
	}
	scores := make([]core.SentimentScore, 0, len(texts))
	for _, text := range texts {
		var pos, neg int
		for _, token := range strings.Fields(strings.ToLower(text)) {
			token = strings.Trim(token, ".,!?;:\"'()")
			if _, ok := s.positive[token]; ok {
				pos++
			}
			if _, ok := s.negative[token]; ok {
				neg++
			}
		}
		score := core.SentimentScore{Label: core.SentimentPositive, Score: 0.5}
		switch {
		case pos > neg:
			score = core.SentimentScore{Label: core.SentimentPositive, Score: float64(pos) / float64(pos+neg)}
		case neg > pos:
			score = core.SentimentScore{Label: core.SentimentNegative, Score: float64(neg) / float64(pos+neg)}
		}
		scores = append(scores, score)
	}
	return scores, nil
}
