// Package schema defines the data model shared across the policy
// optimization core: experiment configuration, bootstrap samples,
// evaluation results, paired deltas, LLM interactions, and the
// event-sourced records persisted by the state package.
//
// All monetary fields are signed 64-bit integer cents; the package never
// represents money as a floating-point type. Timestamps are time.Time,
// serialized as RFC3339Nano (ISO-8601) at JSON boundaries.
package schema
