// Package policy normalizes an LLM's raw proposed policy JSON into a
// schema.Policy with stable node IDs, and validates it against a
// scenario's declared parameter ranges and tree action whitelists.
//
// Parse never raises for a domain-expected condition -- a malformed
// document is returned as an error for the caller to turn into a
// first-class rejection, matching spec.md §4.5's "violations produce a
// rejection reason string; they do not raise exceptions upward" for
// Validate, and §4.6 step (e)'s "no retry (deterministic)" for a parse
// failure itself.
package policy
