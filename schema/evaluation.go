package schema

// BootstrapSample is one deterministic realization a policy is evaluated
// against (spec.md §3 BootstrapSample).
type BootstrapSample struct {
	SampleIndex int
	Seed        uint64
	AgentID     string
	Ticks       int
}

// CostBreakdown decomposes a sample's total cost into its components, all
// in integer cents. Invariant (spec.md §3, Testable Property #2):
// Total() == the EvaluationResult.TotalCost it belongs to.
type CostBreakdown struct {
	DelayCost      int64
	OverdraftCost  int64
	DeadlinePenalty int64
	EODPenalty     int64
}

// Total returns the sum of all cost components.
func (b CostBreakdown) Total() int64 {
	return b.DelayCost + b.OverdraftCost + b.DeadlinePenalty + b.EODPenalty
}

// BootstrapEvent is one event observed during a single sample's simulation,
// filtered to events relevant to evaluation and, downstream, to a single
// agent (Agent Isolation invariant, spec.md §4.2/§4.3/Testable Property #8).
type BootstrapEvent struct {
	Tick    int
	Type    EventKind
	AgentID string // the agent this event is attributed to for isolation checks
	Details map[string]any
}

// EventKind enumerates the simulator event types the evaluator and context
// builder understand. Order here has no significance; display priority is
// defined by llmcontext.EventPriority.
type EventKind string

const (
	EventArrival        EventKind = "arrival"
	EventPolicyDecision EventKind = "policy_decision"
	EventSettlement     EventKind = "rtgs_settlement"
	EventQueueRelease   EventKind = "queued_release"
	EventDelayCost      EventKind = "delay_cost"
	EventOverdraftCost  EventKind = "overdraft_cost"
)

// EvaluationResult is the per-sample outcome of evaluating one Policy on
// one BootstrapSample (spec.md §3 EvaluationResult).
type EvaluationResult struct {
	SampleIndex     int
	Seed            uint64
	TotalCost       int64
	SettlementRate  float64
	AvgDelay        float64
	EventTrace      []BootstrapEvent
	CostBreakdown   CostBreakdown
}

// PairedDelta is the per-sample cost difference between a baseline and a
// proposed policy evaluated on the identical sample (spec.md §3 PairedDelta).
type PairedDelta struct {
	SampleIndex   int
	CostBaseline  int64
	CostProposal  int64
	Delta         int64 // CostBaseline - CostProposal; positive means proposal is cheaper
}
