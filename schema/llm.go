package schema

import "time"

// LLMInteraction is an immutable record of one call to an LLMClient,
// captured irrespective of success (spec.md §3 LLMInteraction, Testable
// Property #9).
type LLMInteraction struct {
	SystemPrompt     string
	UserPrompt       string
	RawResponse      string
	ParsedPolicy     *Policy
	ParsingError     string
	PromptTokens     int
	CompletionTokens int
	LatencySeconds   float64
	Timestamp        time.Time
}

// ModeMetadata is the tagged union of per-mode context fields attached to
// an LLMAgentContext (spec.md §4.3). Implementations are a closed set;
// the unexported marker method keeps the union from growing outside this
// package, per the Design Note "Dynamic dispatch over modes".
type ModeMetadata interface {
	modeMetadata()
}

// BootstrapMetadata is the mode_metadata for ModeBootstrap.
type BootstrapMetadata struct {
	BestSeed   uint64
	WorstSeed  uint64
	NumSamples int
	MeanCost   int64
	CostStdDev float64
}

func (BootstrapMetadata) modeMetadata() {}

// DeterministicPairwiseMetadata is the mode_metadata for ModeDeterministicPairwise.
type DeterministicPairwiseMetadata struct {
	ScenarioSeed uint64
}

func (DeterministicPairwiseMetadata) modeMetadata() {}

// DeterministicTemporalMetadata is the mode_metadata for ModeDeterministicTemporal.
type DeterministicTemporalMetadata struct {
	ScenarioSeed         uint64
	IterationCostHistory []int64
}

func (DeterministicTemporalMetadata) modeMetadata() {}

// LLMAgentContext is the uniform LLM context produced by ContextBuilder,
// identical in simulation_output/cost_breakdown shape across evaluation
// modes (spec.md §4.3, Testable Property #7).
type LLMAgentContext struct {
	AgentID          string
	SimulationOutput string
	CostBreakdown    map[string]int64
	IterationHistory []IterationRecord
	CurrentCost      int64
	ModeMetadata     ModeMetadata
}
