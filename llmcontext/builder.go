// Package llmcontext implements ContextBuilder (spec.md §4.3): a single
// pure function producing an identical LLMAgentContext.SimulationOutput
// and CostBreakdown regardless of evaluation mode, with mode-specific
// detail confined to ModeMetadata (Testable Property #7, Design Note
// "Uniform context across modes").
package llmcontext

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/lookatitude/policyopt/core"
	"github.com/lookatitude/policyopt/schema"
)

// EventPriority ranks event kinds for simulation_output filtering and
// ordering (spec.md §4.3): PolicyDecision > Overdraft > Delay >
// QueueRelease > Settlement > Arrival. Lower values sort first. This
// mirrors evaluator.isolateAndOrder's ranking so a sample's stored trace
// and its rendered text agree.
var EventPriority = map[schema.EventKind]int{
	schema.EventPolicyDecision: 0,
	schema.EventOverdraftCost:  1,
	schema.EventDelayCost:      2,
	schema.EventQueueRelease:   3,
	schema.EventSettlement:     4,
	schema.EventArrival:        5,
}

const defaultMaxEvents = 50

// Option configures Builder. It is a core.Option so Builder construction
// shares the framework's one functional-option mechanism rather than
// inventing a second, Builder-only one.
type Option = core.Option

// WithMaxEvents overrides the default 50-event cap on simulation_output.
func WithMaxEvents(n int) Option {
	return core.OptionFunc(func(target any) {
		if n > 0 {
			target.(*Builder).maxEvents = n
		}
	})
}

// Builder produces LLMAgentContext values for one evaluation mode.
type Builder struct {
	mode      schema.EvaluationMode
	maxEvents int
}

// New returns a Builder for the given evaluation mode.
func New(mode schema.EvaluationMode, opts ...Option) *Builder {
	b := &Builder{mode: mode, maxEvents: defaultMaxEvents}
	core.ApplyOptions(b, opts...)
	return b
}

// Build constructs the LLMAgentContext for agentID from its baseline
// evaluation results and the agent's prior iteration history. baseline
// must be non-empty.
func (b *Builder) Build(agentID string, baseline []schema.EvaluationResult, history []schema.IterationRecord) (schema.LLMAgentContext, error) {
	if len(baseline) == 0 {
		return schema.LLMAgentContext{}, fmt.Errorf("llmcontext: build: baseline has no samples for agent %q", agentID)
	}

	best, worst := bestAndWorst(baseline)

	meta, err := b.modeMetadata(baseline, best, worst, agentID, history)
	if err != nil {
		return schema.LLMAgentContext{}, err
	}

	return schema.LLMAgentContext{
		AgentID:          agentID,
		SimulationOutput: renderTrace(best.EventTrace, b.maxEvents),
		CostBreakdown:    averageCostBreakdown(baseline),
		IterationHistory: agentHistory(history, agentID),
		CurrentCost:      best.TotalCost,
		ModeMetadata:     meta,
	}, nil
}

func (b *Builder) modeMetadata(baseline []schema.EvaluationResult, best, worst schema.EvaluationResult, agentID string, history []schema.IterationRecord) (schema.ModeMetadata, error) {
	switch b.mode {
	case schema.ModeBootstrap:
		mean, std := meanAndStdDev(baseline)
		return schema.BootstrapMetadata{
			BestSeed:   best.Seed,
			WorstSeed:  worst.Seed,
			NumSamples: len(baseline),
			MeanCost:   mean,
			CostStdDev: std,
		}, nil
	case schema.ModeDeterministicPairwise:
		return schema.DeterministicPairwiseMetadata{ScenarioSeed: best.Seed}, nil
	case schema.ModeDeterministicTemporal:
		return schema.DeterministicTemporalMetadata{
			ScenarioSeed:         best.Seed,
			IterationCostHistory: iterationCostHistory(history, agentID),
		}, nil
	default:
		return nil, fmt.Errorf("llmcontext: unknown evaluation mode %q", b.mode)
	}
}

// bestAndWorst returns the minimum- and maximum-total-cost samples,
// breaking ties by the first occurrence in sample order for determinism.
func bestAndWorst(results []schema.EvaluationResult) (best, worst schema.EvaluationResult) {
	best, worst = results[0], results[0]
	for _, r := range results[1:] {
		if r.TotalCost < best.TotalCost {
			best = r
		}
		if r.TotalCost > worst.TotalCost {
			worst = r
		}
	}
	return best, worst
}

func meanAndStdDev(results []schema.EvaluationResult) (int64, float64) {
	var sum int64
	for _, r := range results {
		sum += r.TotalCost
	}
	mean := sum / int64(len(results))

	var variance float64
	for _, r := range results {
		d := float64(r.TotalCost - mean)
		variance += d * d
	}
	variance /= float64(len(results))
	return mean, math.Sqrt(variance)
}

// averageCostBreakdown averages each component across samples (integer
// division), producing a single value in the deterministic modes where
// len(results) == 1.
func averageCostBreakdown(results []schema.EvaluationResult) map[string]int64 {
	var delay, overdraft, deadline, eod int64
	for _, r := range results {
		delay += r.CostBreakdown.DelayCost
		overdraft += r.CostBreakdown.OverdraftCost
		deadline += r.CostBreakdown.DeadlinePenalty
		eod += r.CostBreakdown.EODPenalty
	}
	n := int64(len(results))
	return map[string]int64{
		"delay_cost":       delay / n,
		"overdraft_cost":   overdraft / n,
		"deadline_penalty": deadline / n,
		"eod_penalty":      eod / n,
	}
}

func agentHistory(history []schema.IterationRecord, agentID string) []schema.IterationRecord {
	var out []schema.IterationRecord
	for _, h := range history {
		if h.AgentID == agentID {
			out = append(out, h)
		}
	}
	return out
}

func iterationCostHistory(history []schema.IterationRecord, agentID string) []int64 {
	var out []int64
	for _, h := range agentHistory(history, agentID) {
		if h.Accepted {
			out = append(out, h.ProposalCost)
		} else {
			out = append(out, h.BaselineCost)
		}
	}
	return out
}

// renderTrace formats events (already priority/tick ordered by the
// evaluator) as deterministic text lines, capped at max. No wall clocks
// and no floating-point values are rendered, per spec.md §4.3.
func renderTrace(events []schema.BootstrapEvent, max int) string {
	if len(events) > max {
		events = events[:max]
	}
	lines := make([]string, len(events))
	for i, ev := range events {
		lines[i] = fmt.Sprintf("tick=%d type=%s agent=%s %s", ev.Tick, ev.Type, ev.AgentID, renderDetails(ev.Details))
	}
	return strings.Join(lines, "\n")
}

// renderDetails formats a details map with keys in sorted order so the
// same event always renders to the same text.
func renderDetails(details map[string]any) string {
	if len(details) == 0 {
		return ""
	}
	keys := make([]string, 0, len(details))
	for k := range details {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, details[k])
	}
	return strings.Join(parts, " ")
}
