package agent

import (
	"context"
	"fmt"

	"github.com/bizpulse/bizpulse/core"
	"github.com/bizpulse/bizpulse/logging"
)

// RoutingState is one node of the supervisor's state machine. The current
// state is derived solely from AgentState contents, never from external
// signals, so routing is reproducible from a state snapshot.
type RoutingState string

const (
	// StateStart is the entry node; it always advances to Searching.
	StateStart RoutingState = "Start"
	// StateSearching dispatches the SearchAgent until records exist.
	StateSearching RoutingState = "Searching"
	// StateAnalyzing dispatches the AnalysisAgent until metrics exist.
	StateAnalyzing RoutingState = "Analyzing"
	// StateResponding dispatches the ResponseAgent until a response exists.
	StateResponding RoutingState = "Responding"
	// StateCompleted is terminal: the final response is ready.
	StateCompleted RoutingState = "Completed"
	// StateFailed is terminal: the retry budget was exhausted or the input
	// was unrecoverable.
	StateFailed RoutingState = "Failed"
)

// DecisionFinish marks a terminal routing decision in traces.
const DecisionFinish = "FINISH"

// DefaultMaxAttempts bounds how often one step is attempted before the
// supervisor gives up on the query.
const DefaultMaxAttempts = 3

// Decision is the outcome of one routing evaluation: either the next agent
// to dispatch or a terminal state.
type Decision struct {
	State    RoutingState
	Next     core.Agent
	Terminal bool
}

// SupervisorOptions configure a Supervisor.
type SupervisorOptions struct {
	// MaxAttempts is the per-step retry budget.
	MaxAttempts int
	// Logger receives routing decisions and step outcomes.
	Logger logging.Logger
}

// Supervisor owns the routing state machine between the specialized agents.
// It guarantees exactly one terminal transition per query: once the state
// reaches Completed or Failed no agent is invoked again.
type Supervisor struct {
	name        string
	search      core.Agent
	analysis    core.Agent
	response    core.Agent
	maxAttempts int
	logger      logging.Logger
}

// NewSupervisor wires the three specialized agents into the state machine.
func NewSupervisor(search, analysis, response core.Agent, optFns ...func(o *SupervisorOptions)) *Supervisor {
	opts := SupervisorOptions{
		MaxAttempts: DefaultMaxAttempts,
		Logger:      logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}
	return &Supervisor{
		name:        "SupervisorAgent",
		search:      search,
		analysis:    analysis,
		response:    response,
		maxAttempts: opts.MaxAttempts,
		logger:      opts.Logger,
	}
}

// Name returns the supervisor's trace identifier.
func (s *Supervisor) Name() string { return s.name }

// MaxAttempts returns the configured per-step retry budget.
func (s *Supervisor) MaxAttempts() int { return s.maxAttempts }

// StateOf derives the routing state from the AgentState contents.
func (s *Supervisor) StateOf(state *core.AgentState) RoutingState {
	switch {
	case state.Status == core.StatusCompleted:
		return StateCompleted
	case state.Status == core.StatusFailed:
		return StateFailed
	case len(state.SearchResults) == 0:
		return StateSearching
	case len(state.AnalysisResults) == 0:
		return StateAnalyzing
	case state.FinalResponse == "":
		return StateResponding
	default:
		return StateCompleted
	}
}

// Route evaluates the state machine once, appending one routing trace entry
// recording the state it was made in and the decision taken.
func (s *Supervisor) Route(state *core.AgentState) Decision {
	routingState := s.StateOf(state)

	var decision Decision
	switch routingState {
	case StateSearching:
		decision = Decision{State: routingState, Next: s.search}
	case StateAnalyzing:
		decision = Decision{State: routingState, Next: s.analysis}
	case StateResponding:
		decision = Decision{State: routingState, Next: s.response}
	default:
		decision = Decision{State: routingState, Terminal: true}
	}

	target := DecisionFinish
	if !decision.Terminal {
		target = decision.Next.Name()
	}
	state.AddTrace(core.NewRoutingTrace(s.name, string(routingState), target))
	s.logger.Info("routing decision", "state", string(routingState), "decision", target, "retry_count", state.RetryCount)
	return decision
}

// Execute drives the state machine to a terminal status. Every step failure
// consumes one unit of the retry budget; exhausting it, or hitting an
// unrecoverable failure, forces the Failed state with the last error
// preserved in the execution log. Cancellation is checked before each
// transition.
func (s *Supervisor) Execute(ctx context.Context, state *core.AgentState) error {
	for !state.Terminal() {
		if err := ctx.Err(); err != nil {
			state.AddTrace(core.NewFailureTrace(s.name, "route",
				core.WrapToolError("supervisor", core.CodeTimeout, "query cancelled between states", err)))
			return s.fail(state)
		}

		decision := s.Route(state)
		if decision.Terminal {
			if decision.State == StateCompleted {
				return state.MarkCompleted(state.FinalResponse)
			}
			return s.fail(state)
		}

		err := decision.Next.Run(ctx, state)
		if err == nil && s.StateOf(state) == decision.State {
			// A step that returns nil without advancing the state would
			// route back to the same agent forever. Treat it as a retryable
			// failure so the budget bounds the loop.
			err = core.NewToolError("supervisor", core.CodeMalformedResponse,
				fmt.Sprintf("%s reported success without producing output", decision.Next.Name()))
			state.AddTrace(core.NewFailureTrace(s.name, "route", err))
		}
		if err == nil {
			state.ResetRetries()
			continue
		}

		if !core.IsRetryable(err) {
			s.logger.Warn("unrecoverable step failure", "agent", decision.Next.Name(), "error", err.Error())
			return s.fail(state)
		}

		state.RetryCount++
		if state.RetryCount >= s.maxAttempts {
			budget := core.WrapToolError("supervisor", core.CodeRetryBudgetExceeded,
				fmt.Sprintf("%s failed %d times", decision.Next.Name(), state.RetryCount), err)
			state.AddTrace(core.NewFailureTrace(s.name, "route", budget))
			s.logger.Warn("retry budget exhausted", "agent", decision.Next.Name(), "attempts", state.RetryCount)
			return s.fail(state)
		}
		s.logger.Info("retrying step", "agent", decision.Next.Name(), "attempt", state.RetryCount+1)
	}
	return nil
}

func (s *Supervisor) fail(state *core.AgentState) error {
	state.AddTrace(core.NewRoutingTrace(s.name, string(s.StateOf(state)), DecisionFinish))
	return state.MarkFailed()
}
