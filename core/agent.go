package core

import "context"

// Agent is the uniform contract implemented by every specialized agent in
// the system. An agent reads the fields of the AgentState it needs, performs
// one bounded task through the tool gateway and writes back its designated
// output field plus a trace entry.
//
// Implementations must:
//   - Respect context cancellation on every blocking call
//   - Never mutate output fields owned by another agent
//   - Leave their own output field untouched on failure so the supervisor's
//     retry logic sees consistent state
type Agent interface {
	Name() string
	Description() string
	Run(ctx context.Context, state *AgentState) error
}

// AgentInfo carries identifying details about an agent for logs and traces.
type AgentInfo struct{ Name, Type string }
