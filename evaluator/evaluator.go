package evaluator

import (
	"context"
	"fmt"
	"sort"

	"github.com/lookatitude/policyopt/core"
	"github.com/lookatitude/policyopt/schema"
	"github.com/lookatitude/policyopt/simulator"
)

// eventPriority orders events for filtering and display within a sample's
// trace; lower values sort first. Mirrors llmcontext.EventPriority's
// ranking so a sample's trace and its rendered context agree on relevance.
var eventPriority = map[schema.EventKind]int{
	schema.EventPolicyDecision: 0,
	schema.EventOverdraftCost:  1,
	schema.EventDelayCost:      2,
	schema.EventQueueRelease:   3,
	schema.EventSettlement:     4,
	schema.EventArrival:        5,
}

// Evaluator implements PolicyEvaluator (spec.md §4.2): deterministic
// sample generation, simulator-backed evaluation with agent isolation, and
// paired-sample delta computation. It is synchronous and CPU-bound and
// MUST NOT yield internally (spec.md §5) -- Evaluate and GenerateSamples
// run every sample on the calling goroutine, never fanning out workers the
// way an I/O-bound runner would.
type Evaluator struct {
	sim      simulator.Simulator
	scenario string
	mode     schema.EvaluationMode
}

// New returns an Evaluator that runs scenarioPath through sim under the
// given evaluation mode.
func New(sim simulator.Simulator, scenarioPath string, mode schema.EvaluationMode) *Evaluator {
	return &Evaluator{sim: sim, scenario: scenarioPath, mode: mode}
}

// GenerateSamples implements PolicyEvaluator.generate_samples. In
// ModeBootstrap it derives numSamples seeds; in either deterministic mode
// it derives exactly one. Equal inputs always produce byte-identical
// output (spec.md §4.2).
func (e *Evaluator) GenerateSamples(agentID string, masterSeed uint64, iteration int, ticks int, numSamples int) []schema.BootstrapSample {
	if e.mode != schema.ModeBootstrap {
		seed := DeriveSeed(masterSeed, iteration, agentID, -1)
		return []schema.BootstrapSample{{SampleIndex: 0, Seed: seed, AgentID: agentID, Ticks: ticks}}
	}

	samples := make([]schema.BootstrapSample, numSamples)
	for i := 0; i < numSamples; i++ {
		samples[i] = schema.BootstrapSample{
			SampleIndex: i,
			Seed:        DeriveSeed(masterSeed, iteration, agentID, i),
			AgentID:     agentID,
			Ticks:       ticks,
		}
	}
	return samples
}

// Evaluate implements PolicyEvaluator.evaluate: for each sample, runs the
// simulator under policy and extracts a cost breakdown and an
// agent-isolated, priority-filtered event trace. A simulator error on any
// sample aborts evaluation entirely (spec.md §4.2 "fatal"; §7 "Simulator
// failure") -- it is returned wrapped in a *core.Error, never swallowed.
func (e *Evaluator) Evaluate(ctx context.Context, policy schema.Policy, samples []schema.BootstrapSample) ([]schema.EvaluationResult, error) {
	results := make([]schema.EvaluationResult, len(samples))

	for i, s := range samples {
		outcome, err := e.sim.Run(ctx, e.scenario, s.AgentID, policy, s.Seed, s.Ticks)
		if err != nil {
			return nil, core.NewError("evaluator.evaluate", core.ErrSimulatorFailure,
				fmt.Sprintf("sample %d (seed %d) for agent %q", s.SampleIndex, s.Seed, s.AgentID), err)
		}

		trace := isolateAndOrder(outcome.Events, s.AgentID)
		breakdown := outcome.CostsByAgent[s.AgentID]

		results[i] = schema.EvaluationResult{
			SampleIndex:    s.SampleIndex,
			Seed:           s.Seed,
			TotalCost:      breakdown.Total(),
			SettlementRate: outcome.SettlementRate[s.AgentID],
			AvgDelay:       outcome.AvgDelay[s.AgentID],
			EventTrace:     trace,
			CostBreakdown:  breakdown,
		}
	}

	return results, nil
}

// isolateAndOrder filters events to those attributed to agentID (Agent
// Isolation invariant, Testable Property #8) and returns them ordered by
// eventPriority, tick ascending as the tiebreaker within equal priority.
func isolateAndOrder(events []schema.BootstrapEvent, agentID string) []schema.BootstrapEvent {
	filtered := make([]schema.BootstrapEvent, 0, len(events))
	for _, ev := range events {
		if ev.AgentID == agentID {
			filtered = append(filtered, ev)
		}
	}
	sort.SliceStable(filtered, func(i, j int) bool {
		pi, pj := eventPriority[filtered[i].Type], eventPriority[filtered[j].Type]
		if pi != pj {
			return pi < pj
		}
		return filtered[i].Tick < filtered[j].Tick
	})
	return filtered
}

// ComputePairedDeltas implements PolicyEvaluator.compute_paired_deltas. It
// requires baseline and proposal to cover the identical set of sample
// indices (spec.md §4.2, Testable Property #3) -- evaluate both on the
// same []schema.BootstrapSample, never regenerate samples between calls.
func (e *Evaluator) ComputePairedDeltas(baseline, proposal []schema.EvaluationResult) ([]schema.PairedDelta, error) {
	if len(baseline) != len(proposal) {
		return nil, core.NewError("evaluator.compute_paired_deltas", core.ErrInvalidInput,
			fmt.Sprintf("baseline has %d samples, proposal has %d", len(baseline), len(proposal)), nil)
	}

	byIndex := make(map[int]schema.EvaluationResult, len(proposal))
	for _, r := range proposal {
		byIndex[r.SampleIndex] = r
	}

	deltas := make([]schema.PairedDelta, len(baseline))
	for i, b := range baseline {
		p, ok := byIndex[b.SampleIndex]
		if !ok {
			return nil, core.NewError("evaluator.compute_paired_deltas", core.ErrInvalidInput,
				fmt.Sprintf("proposal missing sample_index %d present in baseline", b.SampleIndex), nil)
		}
		deltas[i] = schema.PairedDelta{
			SampleIndex:  b.SampleIndex,
			CostBaseline: b.TotalCost,
			CostProposal: p.TotalCost,
			Delta:        b.TotalCost - p.TotalCost,
		}
	}
	return deltas, nil
}

// MeanDelta returns the arithmetic mean of deltas' Delta fields, 0 for an
// empty slice (spec.md §4.6 step (h)).
func MeanDelta(deltas []schema.PairedDelta) float64 {
	if len(deltas) == 0 {
		return 0
	}
	var sum int64
	for _, d := range deltas {
		sum += d.Delta
	}
	return float64(sum) / float64(len(deltas))
}
