// Package state defines StateProvider, the read/write contract an
// optimization run's event, iteration, and policy data flow through
// (spec.md §4.8), and the canonical JSON encoding used so that two
// semantically equal values always persist byte-identically (a
// precondition of the Replay Identity invariant).
package state

import (
	"encoding/json"
	"iter"
	"time"

	"github.com/lookatitude/policyopt/schema"
)

// RunMetadata is the run-level summary exposed by get_run_metadata.
type RunMetadata struct {
	RunID         string
	Name          string
	ConfigSnapshot string
	CreatedAt     time.Time
	CompletedAt   time.Time
	State         schema.RunState
	Converged     bool
	ConvergenceReason string
}

// AcceptedChange is one agent's accepted-or-rejected outcome for a single
// iteration, as returned by get_iteration_accepted_changes.
type AcceptedChange struct {
	AgentID  string
	Accepted bool
	Reason   string
}

// StateProvider is the read surface shared by LiveStateProvider (used
// during a run) and a read-only replay provider: identical method shapes
// returning identical shapes for identical queries (spec.md §4.8).
type StateProvider interface {
	RunID() string
	GetRunMetadata() (RunMetadata, error)
	GetTotalIterations() (int, error)
	GetIterationEvents(iteration int) ([]schema.EventRecord, error)
	GetIterationPolicies(iteration int) (map[string]schema.Policy, error)
	GetIterationCosts(iteration int) (map[string]int64, error)
	GetIterationAcceptedChanges(iteration int) ([]AcceptedChange, error)
	GetAllEvents() iter.Seq[schema.EventRecord]
	GetFinalResult() (schema.ExperimentRecord, error)
}

// Writer is the additional surface only a live run exercises: every
// mutation a run makes flows through one of these three methods, never
// through ad hoc field assignment, so a single code path can fan out to
// in-memory caches and the Repository together.
type Writer interface {
	RecordEvent(iteration int, eventType string, data any) error
	RecordIteration(iteration int, costsPerAgent map[string]int64, accepted []AcceptedChange, policies map[string]schema.Policy) error
	SetConverged(reason string) error
}

// LiveStateProvider is the read/write StateProvider used while a run is in
// progress (spec.md §4.8).
type LiveStateProvider interface {
	StateProvider
	Writer
}

// CanonicalJSON marshals v with sorted object keys and no insignificant
// whitespace, the persisted encoding spec.md §6 requires for config_json,
// data_json, and policies_json so byte-identical replay is observable.
// encoding/json already sorts map keys and struct fields are emitted in
// declaration order, so a plain Marshal already satisfies this for any
// value built from maps and structs -- CanonicalJSON exists as the single
// named call site every writer uses, rather than leaving each call site to
// assume encoding/json's ordering guarantee on its own.
func CanonicalJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
