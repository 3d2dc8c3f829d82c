package core

import (
	"fmt"
	"time"
)

// Status is the lifecycle phase of one query's execution. Transitions are
// one-way: in_progress moves to completed or failed exactly once and a
// terminal status never changes again.
type Status string

const (
	// StatusInProgress marks a query still being routed between agents.
	StatusInProgress Status = "in_progress"
	// StatusCompleted marks a query whose final response has been produced.
	StatusCompleted Status = "completed"
	// StatusFailed marks a query that exhausted its retry budget or was
	// rejected as invalid input.
	StatusFailed Status = "failed"
)

// AgentState is the mutable record threaded through one query's lifecycle.
// It is owned exclusively by the goroutine executing that query; nothing is
// shared across concurrent queries, so no locking is performed.
//
// Contract:
//   - Query is immutable after creation
//   - ExecutionLog grows monotonically and is never truncated during a run
//   - FinalResponse is set if and only if Status is completed
//   - Each agent writes only its designated output field
type AgentState struct {
	QueryID         string             `json:"query_id"`
	Query           string             `json:"query"`
	SearchResults   []SearchRecord     `json:"search_results"`
	AnalysisResults map[string]float64 `json:"analysis_results"`
	FinalResponse   string             `json:"final_response,omitempty"`
	Status          Status             `json:"status"`
	RetryCount      int                `json:"retry_count"`
	Created         time.Time          `json:"created"`

	log []TraceEntry
}

// NewAgentState creates the per-query state for a fresh query. The caller
// owns the returned state for the duration of the query.
func NewAgentState(query string) *AgentState {
	return &AgentState{
		QueryID:         NewID(),
		Query:           query,
		AnalysisResults: map[string]float64{},
		Status:          StatusInProgress,
		Created:         time.Now().UTC(),
	}
}

// AddTrace appends an entry to the execution log. Entries are never removed
// or reordered.
func (s *AgentState) AddTrace(e TraceEntry) { s.log = append(s.log, e) }

// ExecutionLog returns a defensive copy of the trace so callers cannot
// mutate history.
func (s *AgentState) ExecutionLog() []TraceEntry {
	out := make([]TraceEntry, len(s.log))
	copy(out, s.log)
	return out
}

// Terminal reports whether the state has reached completed or failed.
func (s *AgentState) Terminal() bool {
	return s.Status == StatusCompleted || s.Status == StatusFailed
}

// MarkCompleted transitions the state to completed with the synthesized
// response. It rejects backward transitions and empty responses.
func (s *AgentState) MarkCompleted(response string) error {
	if s.Terminal() {
		return fmt.Errorf("state %s is terminal: %w", s.Status, ErrTerminalState)
	}
	if response == "" {
		return fmt.Errorf("completed state requires a non-empty response")
	}
	s.FinalResponse = response
	s.Status = StatusCompleted
	return nil
}

// MarkFailed transitions the state to failed. The final response stays
// empty; partial search and analysis results are preserved for the caller.
func (s *AgentState) MarkFailed() error {
	if s.Terminal() {
		return fmt.Errorf("state %s is terminal: %w", s.Status, ErrTerminalState)
	}
	s.Status = StatusFailed
	return nil
}

// ResetRetries clears the per-step retry counter. The supervisor calls this
// after every successful step so the budget applies per step, not per query.
func (s *AgentState) ResetRetries() { s.RetryCount = 0 }

// Clone returns a deep copy safe for snapshotting (e.g. streaming partial
// state to API clients) while the owning goroutine keeps mutating the
// original.
func (s *AgentState) Clone() *AgentState {
	clone := &AgentState{
		QueryID:         s.QueryID,
		Query:           s.Query,
		SearchResults:   make([]SearchRecord, len(s.SearchResults)),
		AnalysisResults: make(map[string]float64, len(s.AnalysisResults)),
		FinalResponse:   s.FinalResponse,
		Status:          s.Status,
		RetryCount:      s.RetryCount,
		Created:         s.Created,
		log:             make([]TraceEntry, len(s.log)),
	}
	for i, r := range s.SearchResults {
		clone.SearchResults[i] = r.Clone()
	}
	for k, v := range s.AnalysisResults {
		clone.AnalysisResults[k] = v
	}
	copy(clone.log, s.log)
	return clone
}
