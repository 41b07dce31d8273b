package optimize_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lookatitude/policyopt/evaluator"
	"github.com/lookatitude/policyopt/llmclient"
	"github.com/lookatitude/policyopt/llmcontext"
	"github.com/lookatitude/policyopt/optimize"
	"github.com/lookatitude/policyopt/schema"
	"github.com/lookatitude/policyopt/simulator"
	"github.com/lookatitude/policyopt/state/sqlite"
)

// stubSimulator reports a per-agent cost that a test controls via costFn,
// so Loop's accept/reject logic can be exercised without the real RTGS
// simulation.
type stubSimulator struct {
	costFn func(agentID string, p schema.Policy, seed uint64) int64
}

func (s *stubSimulator) Run(_ context.Context, _ string, agentID string, p schema.Policy, seed uint64, _ int) (simulator.SimulationOutcome, error) {
	cost := s.costFn(agentID, p, seed)
	return simulator.SimulationOutcome{
		Events: []schema.BootstrapEvent{
			{Tick: 0, Type: schema.EventPolicyDecision, AgentID: agentID, Details: map[string]any{"cost": cost}},
		},
		CostsByAgent:   map[string]schema.CostBreakdown{agentID: {DelayCost: cost}},
		SettlementRate: map[string]float64{agentID: 1},
		AvgDelay:       map[string]float64{agentID: 0},
	}, nil
}

// fakeClient always returns the same canned structured JSON response.
type fakeClient struct {
	text string
	err  error
}

func (f *fakeClient) ModelID() string { return "fake:test" }
func (f *fakeClient) Complete(_ context.Context, _ llmclient.Request) (*llmclient.Response, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &llmclient.Response{Text: f.text}, nil
}

func newTestStore(t *testing.T) *sqlite.Live {
	t.Helper()
	db, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	live, err := sqlite.NewLive(db, "run-1", "test-run", &schema.ExperimentConfig{})
	require.NoError(t, err)
	return live
}

func baseConfig(agents ...string) *schema.ExperimentConfig {
	return &schema.ExperimentConfig{
		Name:            "test",
		OptimizedAgents: agents,
		MasterSeed:      42,
		Evaluation:      schema.EvaluationConfig{Mode: schema.ModeDeterministicPairwise, NumSamples: 1, Ticks: 4},
		Convergence: schema.ConvergenceConfig{
			MaxIterations:        5,
			StabilityWindow:      2,
			StabilityThreshold:   -1, // disabled by default; tests that want stability override this
			ImprovementThreshold: 0.0,
		},
		PolicyConstraints: &schema.ScenarioConstraints{
			Parameters: map[string]schema.ParamConstraint{
				"initial_liquidity_fraction": {Min: 0, Max: 1, Type: "float"},
			},
			Trees: map[string][]string{
				"queue_release": {"release", "hold", "queue"},
			},
		},
	}
}

func proposalJSON(action string) string {
	b, _ := json.Marshal(map[string]any{
		"parameters": map[string]float64{"initial_liquidity_fraction": 0.5},
		"trees": map[string]any{
			"queue_release": []map[string]string{{"action": action}},
		},
	})
	return string(b)
}

func TestLoop_AcceptsLowerCostProposal(t *testing.T) {
	cfg := baseConfig("bank-a")
	sim := &stubSimulator{costFn: func(agentID string, p schema.Policy, seed uint64) int64 {
		if len(p.Trees["queue_release"]) > 0 && p.Trees["queue_release"][0].Action == "release" {
			return 100
		}
		return 500
	}}
	ev := evaluator.New(sim, "scenario.yaml", cfg.Evaluation.Mode)
	builder := llmcontext.New(cfg.Evaluation.Mode)
	client := llmclient.NewAuditCapture(&fakeClient{text: proposalJSON("release")})
	store := newTestStore(t)

	loop := optimize.New(cfg, ev, builder, client, store, nil)
	result, err := loop.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, schema.RunMaxIterations, result.State)
	assert.Equal(t, 5, result.NumIterations)
}

func TestLoop_RejectsConstraintViolation(t *testing.T) {
	cfg := baseConfig("bank-a")
	cfg.Convergence.MaxIterations = 1
	sim := &stubSimulator{costFn: func(string, schema.Policy, uint64) int64 { return 100 }}
	ev := evaluator.New(sim, "scenario.yaml", cfg.Evaluation.Mode)
	builder := llmcontext.New(cfg.Evaluation.Mode)
	client := llmclient.NewAuditCapture(&fakeClient{text: proposalJSON("not-a-whitelisted-action")})
	store := newTestStore(t)

	loop := optimize.New(cfg, ev, builder, client, store, nil)
	result, err := loop.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, schema.RunMaxIterations, result.State)

	_, hasInteraction := client.GetLastInteraction()
	assert.True(t, hasInteraction, "LLM call must still be audited even though the proposal was rejected")
}

func TestLoop_RejectsLLMTransportFailure(t *testing.T) {
	cfg := baseConfig("bank-a")
	cfg.Convergence.MaxIterations = 1
	sim := &stubSimulator{costFn: func(string, schema.Policy, uint64) int64 { return 100 }}
	ev := evaluator.New(sim, "scenario.yaml", cfg.Evaluation.Mode)
	builder := llmcontext.New(cfg.Evaluation.Mode)
	client := llmclient.NewAuditCapture(&fakeClient{err: fmt.Errorf("transport down")})
	store := newTestStore(t)

	loop := optimize.New(cfg, ev, builder, client, store, nil)
	result, err := loop.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, schema.RunMaxIterations, result.State)

	interaction, ok := client.GetLastInteraction()
	require.True(t, ok)
	assert.NotEmpty(t, interaction.ParsingError)
}

func TestLoop_ConvergesByStabilityBeforeMaxIterations(t *testing.T) {
	cfg := baseConfig("bank-a")
	cfg.Convergence.MaxIterations = 100
	cfg.Convergence.StabilityWindow = 2
	cfg.Convergence.StabilityThreshold = 0.5
	sim := &stubSimulator{costFn: func(string, schema.Policy, uint64) int64 { return 100 }}
	ev := evaluator.New(sim, "scenario.yaml", cfg.Evaluation.Mode)
	builder := llmcontext.New(cfg.Evaluation.Mode)
	client := llmclient.NewAuditCapture(&fakeClient{text: proposalJSON("hold")})
	store := newTestStore(t)

	loop := optimize.New(cfg, ev, builder, client, store, nil)
	result, err := loop.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, schema.RunConverged, result.State)
	assert.Equal(t, "stability", result.ConvergenceReason)
	assert.Less(t, result.NumIterations, 100)
}

func TestLoop_CancellationRecordsAbortedRun(t *testing.T) {
	cfg := baseConfig("bank-a")
	cfg.Convergence.MaxIterations = 100
	sim := &stubSimulator{costFn: func(string, schema.Policy, uint64) int64 { return 100 }}
	ev := evaluator.New(sim, "scenario.yaml", cfg.Evaluation.Mode)
	builder := llmcontext.New(cfg.Evaluation.Mode)
	client := llmclient.NewAuditCapture(&fakeClient{text: proposalJSON("hold")})
	store := newTestStore(t)

	loop := optimize.New(cfg, ev, builder, client, store, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result, err := loop.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, schema.RunAborted, result.State)
}

func TestNewRunID_ProducesDistinctValues(t *testing.T) {
	assert.NotEqual(t, optimize.NewRunID(), optimize.NewRunID())
}
