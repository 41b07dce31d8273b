// Package optimize implements OptimizationLoop and ConvergenceDetector
// (spec.md §4.6, §4.7): the per-iteration algorithm that evaluates each
// optimized agent's current policy, asks an LLM for an improved one,
// accepts it only on a positive paired-sample mean cost delta, and stops
// the run once one of three convergence criteria fires.
//
// Loop.Run drives evaluator.Evaluator, llmcontext.Builder, an
// llmclient.Client wrapped in llmclient.AuditCapture, policy.Parse, and
// policy.Validate in the exact sequence spec.md §4.6 names; it owns the
// run's mutable current-policy map and history and is the only component
// that mutates either (spec.md §5 "Shared resource policy").
package optimize
