package gateway

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bizpulse/bizpulse/core"
)

// The original tools accepted plain text, structured objects or serialized
// JSON interchangeably. That flexibility is preserved here as one
// normalization step at the gateway boundary: every accepted form collapses
// into the typed request, and anything that fails to parse is rejected as
// invalid input instead of leaking type branching into agent logic.

// NormalizeSearchInput converts a plain query string, a JSON string, a
// map or an existing SearchRequest into a SearchRequest.
func NormalizeSearchInput(input any) (SearchRequest, error) {
	switch v := input.(type) {
	case SearchRequest:
		return v, nil
	case *SearchRequest:
		if v == nil {
			return SearchRequest{}, core.NewToolError("vector", core.CodeInvalidInput, "nil search request")
		}
		return *v, nil
	case string:
		trimmed := strings.TrimSpace(v)
		if strings.HasPrefix(trimmed, "{") {
			var req SearchRequest
			if err := json.Unmarshal([]byte(trimmed), &req); err == nil {
				return req, nil
			}
			// Malformed JSON objects fall through as plain query text, the
			// same leniency the original tool applied.
		}
		return SearchRequest{Query: v}, nil
	case []byte:
		return NormalizeSearchInput(string(v))
	case map[string]any:
		return searchRequestFromMap(v)
	default:
		return SearchRequest{}, core.NewToolError("vector", core.CodeInvalidInput,
			fmt.Sprintf("unsupported search input type %T", input))
	}
}

func searchRequestFromMap(m map[string]any) (SearchRequest, error) {
	req := SearchRequest{}
	if q, ok := m["query"].(string); ok {
		req.Query = q
	}
	switch k := m["k"].(type) {
	case int:
		req.K = k
	case float64:
		req.K = int(k)
	}
	if id, ok := m["business_id"].(string); ok {
		req.BusinessID = id
	}
	if c, ok := m["collection"].(string); ok {
		req.Collection = c
	}
	if req.Query == "" {
		return SearchRequest{}, core.NewToolError("vector", core.CodeInvalidInput, "search input map missing query")
	}
	return req, nil
}

// NormalizeSentimentInput converts a single string, a string slice, a JSON
// array/object or a map with a "texts" (or legacy "reviews") key into a
// SentimentRequest.
func NormalizeSentimentInput(input any) (SentimentRequest, error) {
	switch v := input.(type) {
	case SentimentRequest:
		return v, nil
	case string:
		trimmed := strings.TrimSpace(v)
		if strings.HasPrefix(trimmed, "[") {
			var texts []string
			if err := json.Unmarshal([]byte(trimmed), &texts); err == nil {
				return SentimentRequest{Texts: texts}, nil
			}
		}
		if strings.HasPrefix(trimmed, "{") {
			var obj map[string]any
			if err := json.Unmarshal([]byte(trimmed), &obj); err == nil {
				return sentimentRequestFromMap(obj)
			}
		}
		return SentimentRequest{Texts: []string{v}}, nil
	case []string:
		return SentimentRequest{Texts: v}, nil
	case []any:
		texts, err := stringSlice(v)
		if err != nil {
			return SentimentRequest{}, err
		}
		return SentimentRequest{Texts: texts}, nil
	case map[string]any:
		return sentimentRequestFromMap(v)
	default:
		return SentimentRequest{}, core.NewToolError("sentiment", core.CodeInvalidInput,
			fmt.Sprintf("unsupported sentiment input type %T", input))
	}
}

func sentimentRequestFromMap(m map[string]any) (SentimentRequest, error) {
	for _, key := range []string{"texts", "reviews"} {
		raw, ok := m[key]
		if !ok {
			continue
		}
		switch v := raw.(type) {
		case []string:
			return SentimentRequest{Texts: v}, nil
		case []any:
			texts, err := stringSlice(v)
			if err != nil {
				return SentimentRequest{}, err
			}
			return SentimentRequest{Texts: texts}, nil
		}
	}
	return SentimentRequest{}, core.NewToolError("sentiment", core.CodeInvalidInput, "sentiment input map missing texts")
}

func stringSlice(values []any) ([]string, error) {
	texts := make([]string, 0, len(values))
	for _, item := range values {
		s, ok := item.(string)
		if !ok {
			return nil, core.NewToolError("sentiment", core.CodeInvalidInput,
				fmt.Sprintf("sentiment input contains non-string element %T", item))
		}
		texts = append(texts, s)
	}
	return texts, nil
}

// NormalizeCompletionInput converts a prompt string, a JSON string or a map
// with prompt/instructions keys into a CompletionRequest.
func NormalizeCompletionInput(input any) (CompletionRequest, error) {
	switch v := input.(type) {
	case CompletionRequest:
		return v, nil
	case string:
		trimmed := strings.TrimSpace(v)
		if strings.HasPrefix(trimmed, "{") {
			var req CompletionRequest
			if err := json.Unmarshal([]byte(trimmed), &req); err == nil && req.Prompt != "" {
				return req, nil
			}
		}
		return CompletionRequest{Prompt: v}, nil
	case map[string]any:
		req := CompletionRequest{}
		if p, ok := v["prompt"].(string); ok {
			req.Prompt = p
		}
		if i, ok := v["instructions"].(string); ok {
			req.Instructions = i
		}
		if req.Prompt == "" {
			return CompletionRequest{}, core.NewToolError("llm", core.CodeInvalidInput, "completion input map missing prompt")
		}
		return req, nil
	default:
		return CompletionRequest{}, core.NewToolError("llm", core.CodeInvalidInput,
			fmt.Sprintf("unsupported completion input type %T", input))
	}
}
