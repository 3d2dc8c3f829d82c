package agent

import (
	"github.com/bizpulse/bizpulse/gateway"
	"github.com/bizpulse/bizpulse/logging"
)

// BaseAgent bundles the identity and collaborators shared by all agents.
// Embed it in concrete agents and supply a Run method to satisfy core.Agent.
type BaseAgent struct {
	name        string
	description string
	gateway     gateway.Gateway
	logger      logging.Logger
}

// NewBaseAgent constructs the shared agent core.
func NewBaseAgent(name, description string, gw gateway.Gateway, logger logging.Logger) BaseAgent {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return BaseAgent{name: name, description: description, gateway: gw, logger: logger}
}

// Name returns the agent's identifier used in traces and routing.
func (b *BaseAgent) Name() string { return b.name }

// Description returns a human-readable description of the agent's purpose.
func (b *BaseAgent) Description() string { return b.description }
