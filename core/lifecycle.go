package core

import (
	"fmt"
	"sync"

	"github.com/lookatitude/policyopt/schema"
)

// RunLifecycle guards the optimization run's state machine: Idle -> Running
// -> {Converged | MaxIterations | Aborted} (spec.md §4.6). Terminal states
// are final; Transition rejects any move out of a terminal state.
type RunLifecycle struct {
	mu    sync.Mutex
	state schema.RunState
}

// NewRunLifecycle creates a RunLifecycle in the initial Idle state.
func NewRunLifecycle() *RunLifecycle {
	return &RunLifecycle{state: schema.RunIdle}
}

// State returns the current state.
func (l *RunLifecycle) State() schema.RunState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Start transitions Idle -> Running. It is an error to start a lifecycle
// that is not Idle.
func (l *RunLifecycle) Start() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state != schema.RunIdle {
		return fmt.Errorf("core: cannot start run from state %q", l.state)
	}
	l.state = schema.RunRunning
	return nil
}

// Finish transitions Running -> one of the terminal states (Converged,
// MaxIterations, Aborted). It is an error to finish a lifecycle that is not
// Running, and an error to pass a non-terminal state.
func (l *RunLifecycle) Finish(terminal schema.RunState) error {
	if !isTerminal(terminal) {
		return fmt.Errorf("core: %q is not a terminal run state", terminal)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state != schema.RunRunning {
		return fmt.Errorf("core: cannot finish run from state %q", l.state)
	}
	l.state = terminal
	return nil
}

// IsTerminal reports whether the lifecycle is in a terminal state.
func (l *RunLifecycle) IsTerminal() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return isTerminal(l.state)
}

func isTerminal(s schema.RunState) bool {
	switch s {
	case schema.RunConverged, schema.RunMaxIterations, schema.RunAborted:
		return true
	default:
		return false
	}
}
