// Package gateway implements the boundary between agents and the external
// services they call: vector search over the review and business
// collections, sentiment scoring and LLM completion. All three capabilities
// sit behind one Gateway interface, inputs are normalized into typed
// requests at this boundary, and every backend failure is surfaced as a
// typed core.ToolError so the supervisor's retry logic applies uniformly.
package gateway
