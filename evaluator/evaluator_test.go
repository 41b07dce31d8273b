package evaluator_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lookatitude/policyopt/evaluator"
	"github.com/lookatitude/policyopt/schema"
	"github.com/lookatitude/policyopt/simulator"
)

// stubSimulator returns a cost that depends only on sample index and
// whether the policy carries a "cheaper" marker parameter, so tests can
// assert paired-delta behavior without a real scenario file.
type stubSimulator struct {
	costFn func(seed uint64, policy schema.Policy) int64
}

func (s *stubSimulator) Run(_ context.Context, _ string, agentID string, policy schema.Policy, seed uint64, ticks int) (simulator.SimulationOutcome, error) {
	cost := s.costFn(seed, policy)
	return simulator.SimulationOutcome{
		Events: []schema.BootstrapEvent{
			{Tick: 0, Type: schema.EventPolicyDecision, AgentID: agentID, Details: map[string]any{"seed": seed}},
			{Tick: 0, Type: schema.EventArrival, AgentID: "other-agent"},
		},
		CostsByAgent:   map[string]schema.CostBreakdown{agentID: {DelayCost: cost}},
		SettlementRate: map[string]float64{agentID: 1.0},
		AvgDelay:       map[string]float64{agentID: 0},
	}, nil
}

func TestGenerateSamples_BootstrapDeterministic(t *testing.T) {
	e := evaluator.New(&stubSimulator{}, "scenario.yaml", schema.ModeBootstrap)
	a := e.GenerateSamples("agent-a", 42, 0, 10, 4)
	b := e.GenerateSamples("agent-a", 42, 0, 10, 4)
	require.Equal(t, a, b)
	assert.Len(t, a, 4)

	for i, s := range a {
		assert.Equal(t, i, s.SampleIndex)
		assert.Equal(t, "agent-a", s.AgentID)
		assert.Equal(t, 10, s.Ticks)
	}
	assert.NotEqual(t, a[0].Seed, a[1].Seed)
}

func TestGenerateSamples_DeterministicModeProducesOneSample(t *testing.T) {
	e := evaluator.New(&stubSimulator{}, "scenario.yaml", schema.ModeDeterministicPairwise)
	samples := e.GenerateSamples("agent-a", 42, 3, 5, 4)
	require.Len(t, samples, 1)
	assert.Equal(t, 0, samples[0].SampleIndex)
	assert.Equal(t, 5, samples[0].Ticks)
}

func TestGenerateSamples_DifferentAgentsDifferentSeeds(t *testing.T) {
	e := evaluator.New(&stubSimulator{}, "scenario.yaml", schema.ModeDeterministicPairwise)
	a := e.GenerateSamples("agent-a", 42, 0, 5, 1)
	b := e.GenerateSamples("agent-b", 42, 0, 5, 1)
	assert.NotEqual(t, a[0].Seed, b[0].Seed)
}

func TestEvaluate_IsolatesToTargetAgent(t *testing.T) {
	sim := &stubSimulator{costFn: func(uint64, schema.Policy) int64 { return 100 }}
	e := evaluator.New(sim, "scenario.yaml", schema.ModeDeterministicPairwise)
	samples := []schema.BootstrapSample{{SampleIndex: 0, Seed: 7, AgentID: "agent-a", Ticks: 1}}

	results, err := e.Evaluate(context.Background(), schema.Policy{}, samples)
	require.NoError(t, err)
	require.Len(t, results, 1)

	for _, ev := range results[0].EventTrace {
		assert.Equal(t, "agent-a", ev.AgentID, "Agent Isolation invariant violated")
	}
	assert.Equal(t, int64(100), results[0].TotalCost)
	assert.Equal(t, results[0].CostBreakdown.Total(), results[0].TotalCost)
}

func TestEvaluate_SimulatorErrorIsFatal(t *testing.T) {
	e := evaluator.New(&erroringSimulator{}, "scenario.yaml", schema.ModeDeterministicPairwise)
	samples := []schema.BootstrapSample{{SampleIndex: 0, Seed: 7, AgentID: "agent-a", Ticks: 1}}

	_, err := e.Evaluate(context.Background(), schema.Policy{}, samples)
	require.Error(t, err)
}

type erroringSimulator struct{}

func (erroringSimulator) Run(context.Context, string, string, schema.Policy, uint64, int) (simulator.SimulationOutcome, error) {
	return simulator.SimulationOutcome{}, assertErr{}
}

type assertErr struct{}

func (assertErr) Error() string { return "simulator exploded" }

func TestComputePairedDeltas_Orientation(t *testing.T) {
	e := evaluator.New(&stubSimulator{}, "scenario.yaml", schema.ModeBootstrap)
	baseline := []schema.EvaluationResult{
		{SampleIndex: 0, TotalCost: 1000},
		{SampleIndex: 1, TotalCost: 990},
	}
	proposal := []schema.EvaluationResult{
		{SampleIndex: 0, TotalCost: 900},
		{SampleIndex: 1, TotalCost: 940},
	}

	deltas, err := e.ComputePairedDeltas(baseline, proposal)
	require.NoError(t, err)
	require.Len(t, deltas, 2)
	assert.Equal(t, int64(100), deltas[0].Delta)
	assert.Equal(t, int64(50), deltas[1].Delta)
	assert.InDelta(t, 75.0, evaluator.MeanDelta(deltas), 0.0001)
}

func TestComputePairedDeltas_MismatchedSampleSetsRejected(t *testing.T) {
	e := evaluator.New(&stubSimulator{}, "scenario.yaml", schema.ModeBootstrap)
	baseline := []schema.EvaluationResult{{SampleIndex: 0, TotalCost: 1000}, {SampleIndex: 1, TotalCost: 900}}
	proposal := []schema.EvaluationResult{{SampleIndex: 0, TotalCost: 900}}

	_, err := e.ComputePairedDeltas(baseline, proposal)
	assert.Error(t, err)
}

func TestMeanDelta_Empty(t *testing.T) {
	assert.Equal(t, 0.0, evaluator.MeanDelta(nil))
}
