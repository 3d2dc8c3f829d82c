// Package agent contains the specialized agents of the pipeline (search,
// analysis, response) plus the Supervisor that owns the routing state
// machine between them. Each agent implements core.Agent: it reads the
// AgentState fields it needs, calls the tool gateway, and writes exactly one
// designated output field plus a trace entry.
package agent
