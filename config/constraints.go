package config

import (
	"sort"
	"sync"

	"github.com/lookatitude/policyopt/schema"
)

// ConstraintsFactory builds a ScenarioConstraints value for a dotted-path
// constraints_module name (e.g. "scenarios.checkout.v2"). Scenario packages
// register their constraints from an init() function.
type ConstraintsFactory func() schema.ScenarioConstraints

var (
	constraintsMu       sync.RWMutex
	constraintsRegistry = make(map[string]ConstraintsFactory)
)

// RegisterConstraintsModule registers fn under name so that an experiment
// YAML's legacy constraints_module field can resolve it at load time. This
// is the Go analogue of the dotted-path dynamic import the legacy field
// name implies, grounded in the same registry pattern the rest of this
// codebase uses for LLM providers and state backends.
func RegisterConstraintsModule(name string, fn ConstraintsFactory) {
	constraintsMu.Lock()
	defer constraintsMu.Unlock()
	constraintsRegistry[name] = fn
}

func lookupConstraintsModule(name string) (ConstraintsFactory, bool) {
	constraintsMu.RLock()
	defer constraintsMu.RUnlock()
	fn, ok := constraintsRegistry[name]
	return fn, ok
}

// ListConstraintsModules returns the sorted names of all registered
// constraints modules.
func ListConstraintsModules() []string {
	constraintsMu.RLock()
	defer constraintsMu.RUnlock()

	names := make([]string, 0, len(constraintsRegistry))
	for name := range constraintsRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
