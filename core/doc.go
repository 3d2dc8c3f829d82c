// Package core defines the shared types threaded through one query's
// lifecycle: the per-query AgentState, the append-only execution trace,
// search/sentiment value types, the Agent contract and the typed tool
// failure taxonomy used by the supervisor's retry logic.
package core
