package core

import (
	"time"

	"github.com/google/uuid"
)

// Outcome classifies a trace entry.
type Outcome string

const (
	// OutcomeSuccess records a step that produced its designated output.
	OutcomeSuccess Outcome = "success"
	// OutcomeFailure records a tool or agent failure visible to retry logic.
	OutcomeFailure Outcome = "failure"
	// OutcomeRouted records a supervisor routing decision.
	OutcomeRouted Outcome = "routed"
)

// TraceEntry is one immutable line of the per-query execution log. The
// supervisor appends one entry per transition; agents append one entry per
// run recording success or failure.
type TraceEntry struct {
	ID        string    `json:"id"`
	Agent     string    `json:"agent"`
	Action    string    `json:"action"`
	Outcome   Outcome   `json:"outcome"`
	Detail    string    `json:"detail,omitempty"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewTraceEntry creates a trace entry stamped with a fresh ID and the
// current UTC time.
func NewTraceEntry(agent, action string, outcome Outcome) TraceEntry {
	return TraceEntry{
		ID:        NewID(),
		Agent:     agent,
		Action:    action,
		Outcome:   outcome,
		Timestamp: time.Now().UTC(),
	}
}

// NewSuccessTrace records a completed step with a human-readable summary.
func NewSuccessTrace(agent, action, detail string) TraceEntry {
	e := NewTraceEntry(agent, action, OutcomeSuccess)
	e.Detail = detail
	return e
}

// NewFailureTrace records a failed step preserving the error text.
func NewFailureTrace(agent, action string, err error) TraceEntry {
	e := NewTraceEntry(agent, action, OutcomeFailure)
	if err != nil {
		e.Error = err.Error()
	}
	return e
}

// NewRoutingTrace records a supervisor decision: the state it was made in
// and the chosen destination.
func NewRoutingTrace(agent, stateName, decision string) TraceEntry {
	e := NewTraceEntry(agent, "route", OutcomeRouted)
	e.Detail = stateName + " -> " + decision
	return e
}

// NewID generates a unique identifier for queries and trace entries.
func NewID() string { return uuid.NewString() }
