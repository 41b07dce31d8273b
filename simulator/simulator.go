package simulator

import (
	"context"

	"github.com/lookatitude/policyopt/schema"
)

// SimulationOutcome is the stable, ordered result of one Simulator.Run call
// (spec.md §6). Events is chronologically ordered and carries every field
// needed for display, so that replay never needs to re-run the simulator
// (spec.md §4.8 Replay Identity corollary). Costs and settlement/delay
// statistics are keyed by agent ID so the evaluator can isolate the target
// agent's share (Agent Isolation invariant).
type SimulationOutcome struct {
	Events          []schema.BootstrapEvent
	CostsByAgent    map[string]schema.CostBreakdown
	SettlementRate  map[string]float64
	AvgDelay        map[string]float64
}

// Simulator runs a scenario under a single agent's proposed or current
// policy for a fixed seed and tick count. All randomness is seeded
// exclusively by seed; implementations MUST NOT read wall-clock state
// (spec.md §6).
type Simulator interface {
	Run(ctx context.Context, scenarioPath string, agentID string, policy schema.Policy, seed uint64, ticks int) (SimulationOutcome, error)
}
