package optimize

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lookatitude/policyopt/core"
	"github.com/lookatitude/policyopt/evaluator"
	"github.com/lookatitude/policyopt/llmclient"
	"github.com/lookatitude/policyopt/llmcontext"
	"github.com/lookatitude/policyopt/policy"
	"github.com/lookatitude/policyopt/schema"
	"github.com/lookatitude/policyopt/state"
)

// Rejection reasons recorded in IterationRecord.Reason. These are the
// fixed vocabulary spec.md §7's error taxonomy maps iteration-level
// rejections onto.
const (
	ReasonConstraintViolation = "constraint-violation"
	ReasonParseError          = "parse-error"
	ReasonLLMTransport        = "llm-transport"
	ReasonNoImprovement       = "no-improvement"
)

// Loop implements OptimizationLoop (spec.md §4.6): it owns the mutable
// current-policy map and history, and is the sole component that mutates
// either (spec.md §5).
type Loop struct {
	cfg   *schema.ExperimentConfig
	sim   *evaluator.Evaluator
	build *llmcontext.Builder
	llm   *llmclient.AuditCapture
	store state.LiveStateProvider

	policy  map[string]schema.Policy
	history []schema.IterationRecord
	conv    *ConvergenceDetector
	life    *core.RunLifecycle
}

// New constructs a Loop ready to run cfg's experiment. initialPolicy seeds
// policy[agent_id] for every agent in cfg.OptimizedAgents that has no
// entry; a missing entry defaults to the zero Policy.
func New(cfg *schema.ExperimentConfig, sim *evaluator.Evaluator, build *llmcontext.Builder, llm *llmclient.AuditCapture, store state.LiveStateProvider, initialPolicy map[string]schema.Policy) *Loop {
	policies := make(map[string]schema.Policy, len(cfg.OptimizedAgents))
	for _, agent := range cfg.OptimizedAgents {
		if p, ok := initialPolicy[agent]; ok {
			policies[agent] = p.Clone()
		} else {
			policies[agent] = schema.Policy{}
		}
	}
	return &Loop{
		cfg:     cfg,
		sim:     sim,
		build:   build,
		llm:     llm,
		store:   store,
		policy:  policies,
		conv:    NewConvergenceDetector(cfg.Convergence),
		life:    core.NewRunLifecycle(),
	}
}

// Run drives the optimization loop to completion, convergence, or
// cooperative cancellation (spec.md §4.6 steps 1-3, §5 cancellation
// semantics).
func (l *Loop) Run(ctx context.Context) (*schema.ExperimentRecord, error) {
	if err := l.life.Start(); err != nil {
		return nil, err
	}

	constraints := l.cfg.GetConstraints()
	var totalCostHistory []int64

	for i := 0; ; i++ {
		if ctx.Err() != nil {
			return l.finish(schema.RunAborted, "")
		}

		costsPerAgent := make(map[string]int64, len(l.cfg.OptimizedAgents))
		var accepted []state.AcceptedChange

		for _, agentID := range l.cfg.OptimizedAgents {
			if ctx.Err() != nil {
				return l.finish(schema.RunAborted, "")
			}

			rec, cost, err := l.stepAgent(ctx, i, agentID, constraints)
			if err != nil {
				return nil, err
			}

			l.history = append(l.history, rec)
			costsPerAgent[agentID] = cost
			accepted = append(accepted, state.AcceptedChange{AgentID: agentID, Accepted: rec.Accepted, Reason: rec.Reason})

			if err := l.store.RecordEvent(i, "iteration_step", rec); err != nil {
				return nil, err
			}
		}

		var totalCost int64
		for _, c := range costsPerAgent {
			totalCost += c
		}
		totalCostHistory = append(totalCostHistory, totalCost)

		if err := l.store.RecordIteration(i, costsPerAgent, accepted, l.snapshotPolicies()); err != nil {
			return nil, err
		}

		if converged, reason := l.conv.Check(i, totalCostHistory); converged {
			terminal := schema.RunConverged
			if reason == "max-iterations" {
				terminal = schema.RunMaxIterations
			}
			return l.finish(terminal, reason)
		}
	}
}

// stepAgent implements spec.md §4.6 step 1(a)-(i) for one agent.
func (l *Loop) stepAgent(ctx context.Context, iteration int, agentID string, constraints *schema.ScenarioConstraints) (schema.IterationRecord, int64, error) {
	samples := l.sim.GenerateSamples(agentID, l.cfg.MasterSeed, iteration, l.cfg.Evaluation.Ticks, l.cfg.Evaluation.NumSamples)

	baselineResults, err := l.sim.Evaluate(ctx, l.policy[agentID], samples)
	if err != nil {
		return schema.IterationRecord{}, 0, err
	}
	baselineCost := baselineResults[0].TotalCost

	llmCtx, err := l.build.Build(agentID, baselineResults, l.history)
	if err != nil {
		return schema.IterationRecord{}, 0, err
	}

	resp, err := l.llm.Complete(ctx, llmclient.Request{
		Prompt:          renderPrompt(llmCtx),
		SystemPrompt:    l.cfg.GetSystemPrompt(),
		ResponseSchema:  policy.ResponseSchema(),
		Temperature:     l.cfg.LLM.Temperature,
		ThinkingBudget:  l.cfg.LLM.ThinkingBudget,
		ReasoningEffort: l.cfg.LLM.ReasoningEffort,
	})
	if err != nil {
		return l.reject(iteration, agentID, baselineCost, ReasonLLMTransport, err.Error()), baselineCost, nil
	}

	proposal, err := policy.Parse([]byte(resp.Text))
	if err != nil {
		return l.reject(iteration, agentID, baselineCost, ReasonParseError, err.Error()), baselineCost, nil
	}

	if violations := policy.Validate(proposal, *constraints); len(violations) > 0 {
		return l.reject(iteration, agentID, baselineCost, ReasonConstraintViolation, violations[0]), baselineCost, nil
	}

	proposalResults, err := l.sim.Evaluate(ctx, proposal, samples)
	if err != nil {
		return schema.IterationRecord{}, 0, err
	}

	deltas, err := l.sim.ComputePairedDeltas(baselineResults, proposalResults)
	if err != nil {
		return schema.IterationRecord{}, 0, err
	}
	meanDelta := evaluator.MeanDelta(deltas)
	proposalCost := proposalResults[0].TotalCost

	rec := schema.IterationRecord{
		Iteration:    iteration,
		AgentID:      agentID,
		MeanDelta:    meanDelta,
		BaselineCost: baselineCost,
		ProposalCost: proposalCost,
		Timestamp:    time.Now(),
	}

	if meanDelta > 0 {
		l.policy[agentID] = proposal
		rec.Accepted = true
		rec.ProposedPolicy = &proposal
		return rec, proposalCost, nil
	}

	rec.Accepted = false
	rec.Reason = ReasonNoImprovement
	return rec, baselineCost, nil
}

func (l *Loop) reject(iteration int, agentID string, baselineCost int64, reason, detail string) schema.IterationRecord {
	return schema.IterationRecord{
		Iteration:    iteration,
		AgentID:      agentID,
		Accepted:     false,
		Reason:       fmt.Sprintf("%s: %s", reason, detail),
		BaselineCost: baselineCost,
		ProposalCost: baselineCost,
		Timestamp:    time.Now(),
	}
}

func (l *Loop) snapshotPolicies() map[string]schema.Policy {
	out := make(map[string]schema.Policy, len(l.policy))
	for k, v := range l.policy {
		out[k] = v
	}
	return out
}

func (l *Loop) finish(terminal schema.RunState, reason string) (*schema.ExperimentRecord, error) {
	if err := l.life.Finish(terminal); err != nil {
		return nil, err
	}
	if err := l.store.SetConverged(reason); err != nil {
		return nil, err
	}
	result, err := l.store.GetFinalResult()
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// renderPrompt turns an LLMAgentContext into the user prompt text sent to
// the model. Kept deliberately simple -- the simulation_output field is
// already a deterministic, priority-ordered trace; renderPrompt just
// labels it alongside the cost breakdown and history for the model.
func renderPrompt(c schema.LLMAgentContext) string {
	return fmt.Sprintf(
		"Agent: %s\nCurrent cost (cents): %d\nCost breakdown: %v\nSimulation trace:\n%s\n",
		c.AgentID, c.CurrentCost, c.CostBreakdown, c.SimulationOutput,
	)
}

// NewRunID returns a fresh, randomly generated run identifier.
func NewRunID() string {
	return uuid.NewString()
}
