package schema

import "time"

// IterationRecord is the outcome of optimizing one agent during one
// iteration (spec.md §3 IterationRecord).
type IterationRecord struct {
	Iteration      int
	AgentID        string
	ProposedPolicy *Policy
	Accepted       bool
	// Reason explains a rejection: "<reason>: <detail>" where <reason> is
	// "constraint-violation", "parse-error" or "llm-transport", or the bare
	// "no-improvement" when the proposal did not lower cost; empty when
	// Accepted is true. Supplemental field,
	// see SPEC_FULL.md §3.
	Reason         string
	MeanDelta      float64
	BaselineCost   int64
	ProposalCost   int64
	CostsPerAgent  map[string]int64
	Timestamp      time.Time
}

// RunState is the optimization run's lifecycle state (spec.md §4.6).
type RunState string

const (
	RunIdle         RunState = "idle"
	RunRunning      RunState = "running"
	RunConverged    RunState = "converged"
	RunMaxIterations RunState = "max_iterations"
	RunAborted      RunState = "aborted"
)

// ExperimentRecord is the run metadata persisted for one optimization run
// (spec.md §3 ExperimentRecord).
type ExperimentRecord struct {
	RunID              string
	ExperimentName     string
	ConfigSnapshot     string // canonical JSON of the loaded ExperimentConfig
	CreatedAt          time.Time
	CompletedAt        time.Time
	NumIterations      int
	Converged          bool
	ConvergenceReason  string
	State              RunState
}

// EventRecord is one entry in the run's monotonic event log (spec.md §3
// EventRecord).
type EventRecord struct {
	Sequence  int64
	Iteration int
	EventType string
	EventData string // canonical JSON
	Timestamp time.Time
}
