package core

import (
	"errors"
	"fmt"
)

// ErrTerminalState is returned when a backward status transition is
// attempted on a completed or failed state.
var ErrTerminalState = errors.New("no transitions allowed from terminal state")

// FailureCode categorizes tool and system failures so the supervisor's
// retry logic can treat all backends uniformly.
type FailureCode string

const (
	// CodeServiceUnavailable signals an unreachable vector store, sentiment
	// endpoint or LLM service.
	CodeServiceUnavailable FailureCode = "service_unavailable"
	// CodeTimeout signals an in-flight call that exceeded its deadline or
	// was cancelled.
	CodeTimeout FailureCode = "timeout"
	// CodeMalformedResponse signals backend data that failed contract
	// validation.
	CodeMalformedResponse FailureCode = "malformed_response"
	// CodeRetryBudgetExceeded is raised by the supervisor after the
	// configured retries for one step are exhausted.
	CodeRetryBudgetExceeded FailureCode = "retry_budget_exceeded"
	// CodeInvalidInput signals a request rejected before dispatch.
	CodeInvalidInput FailureCode = "invalid_input"
)

// ToolError is the typed failure surfaced by the gateway and the
// supervisor. Backend names the failing collaborator ("vector", "sentiment",
// "llm", "supervisor", "system").
type ToolError struct {
	Backend string      `json:"backend"`
	Code    FailureCode `json:"code"`
	Message string      `json:"message"`
	Err     error       `json:"-"`
}

func (e *ToolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("tool error [%s] in %s: %s: %v", e.Code, e.Backend, e.Message, e.Err)
	}
	return fmt.Sprintf("tool error [%s] in %s: %s", e.Code, e.Backend, e.Message)
}

func (e *ToolError) Unwrap() error { return e.Err }

// NewToolError creates a ToolError without an underlying cause.
func NewToolError(backend string, code FailureCode, message string) *ToolError {
	return &ToolError{Backend: backend, Code: code, Message: message}
}

// WrapToolError attaches a cause to a ToolError so errors.Is/As keep working
// through the wrap.
func WrapToolError(backend string, code FailureCode, message string, err error) *ToolError {
	return &ToolError{Backend: backend, Code: code, Message: message, Err: err}
}

// CodeOf extracts the failure code from an error chain. Unclassified errors
// report service_unavailable so they stay retryable.
func CodeOf(err error) FailureCode {
	var te *ToolError
	if errors.As(err, &te) {
		return te.Code
	}
	return CodeServiceUnavailable
}

// IsCode reports whether the error chain carries the given failure code.
func IsCode(err error, code FailureCode) bool {
	var te *ToolError
	return errors.As(err, &te) && te.Code == code
}

// IsRetryable reports whether a failure should consume retry budget rather
// than fail the query outright. Invalid input is never retried.
func IsRetryable(err error) bool {
	switch CodeOf(err) {
	case CodeInvalidInput, CodeRetryBudgetExceeded:
		return false
	default:
		return true
	}
}
