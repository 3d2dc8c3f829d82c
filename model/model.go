// Package model defines the normalized completion contract used by the tool
// gateway plus provider adapters and an in-memory mock for tests. Provider
// differences (message shapes, sampling knobs) stay inside the adapters so
// the rest of the system sees one Request/Response pair.
package model

import (
	"context"
	"strings"
	"sync"

	"github.com/bizpulse/bizpulse/core"
)

// Request captures the normalized model input produced by agents.
type Request struct {
	// Instructions is the system-level framing for the completion.
	Instructions string `json:"instructions,omitempty"`
	// Prompt is the user-facing content to complete.
	Prompt string `json:"prompt"`
	// Temperature overrides the adapter default when non-nil.
	Temperature *float64 `json:"temperature,omitempty"`
	// MaxTokens overrides the adapter default when non-zero.
	MaxTokens int64 `json:"max_tokens,omitempty"`
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is the completed generation returned by a provider.
type Response struct {
	Text         string      `json:"text"`
	FinishReason string      `json:"finish_reason"` // "stop", "length", etc.
	Usage        *TokenUsage `json:"usage,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name     string `json:"name"`
	Provider string `json:"provider"` // "openai", "anthropic", "mock"
}

// Model is the minimal interface required to drive text generation. An empty
// response text is a contract violation and is surfaced by the gateway as a
// malformed response, never silently accepted.
type Model interface {
	Generate(ctx context.Context, req Request) (*Response, error)

	// Info returns information about the model implementation.
	Info() Info
}

// MockModel is a lightweight in-memory Model useful for tests and offline
// runs. Responses are matched by prompt substring so callers do not need to
// reproduce full prompt text.
type MockModel struct {
	mu        sync.Mutex
	info      Info
	responses map[string]string
	fallback  string
	err       error
	calls     []Request
}

// NewMockModel constructs a MockModel with a generic fallback completion.
func NewMockModel(name string) *MockModel {
	return &MockModel{
		info:      Info{Name: name, Provider: "mock"},
		responses: make(map[string]string),
		fallback:  "Based on the available data, here is a summary of what was found.",
	}
}

// AddResponse registers a canned completion for prompts containing the
// given fragment.
func (m *MockModel) AddResponse(fragment, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[fragment] = response
}

// SetFallback replaces the default completion used when no fragment matches.
func (m *MockModel) SetFallback(response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallback = response
}

// FailWith makes every subsequent Generate call return err.
func (m *MockModel) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns the requests received so far.
func (m *MockModel) Calls() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.calls))
	copy(out, m.calls)
	return out
}

// Generate implements Model.
func (m *MockModel) Generate(ctx context.Context, req Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, core.WrapToolError("llm", core.CodeTimeout, "mock generation cancelled", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, req)
	if m.err != nil {
		return nil, m.err
	}
	for fragment, response := range m.responses {
		if strings.Contains(req.Prompt, fragment) {
			return &Response{Text: response, FinishReason: "stop"}, nil
		}
	}
	return &Response{Text: m.fallback, FinishReason: "stop"}, nil
}

// Info implements Model.
func (m *MockModel) Info() Info { return m.info }
