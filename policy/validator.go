package policy

import (
	"fmt"
	"math"
	"sort"

	"github.com/lookatitude/policyopt/schema"
)

// Validate checks every parameter in p against its declared
// {Min,Max,Type} and every tree node's action against that tree's
// whitelist. It returns a human-readable reason string per violation and
// never an error -- a constraint violation is a first-class rejection
// outcome (spec.md §4.6 step (e)), not an exceptional one. A nil or empty
// result means p fully satisfies c.
func Validate(p schema.Policy, c schema.ScenarioConstraints) []string {
	var violations []string

	for name, value := range p.Parameters {
		constraint, ok := c.Parameters[name]
		if !ok {
			violations = append(violations, fmt.Sprintf("parameter %q is not whitelisted", name))
			continue
		}
		if value < constraint.Min || value > constraint.Max {
			violations = append(violations, fmt.Sprintf(
				"parameter %q = %v is outside [%v, %v]", name, value, constraint.Min, constraint.Max))
		}
		if reason, ok := typeViolation(name, value, constraint.Type); !ok {
			violations = append(violations, reason)
		}
	}

	for tree, nodes := range p.Trees {
		allowed, ok := c.Trees[tree]
		if !ok {
			violations = append(violations, fmt.Sprintf("tree %q is not whitelisted", tree))
			continue
		}
		for _, node := range nodes {
			if !contains(allowed, node.Action) {
				violations = append(violations, fmt.Sprintf(
					"tree %q node %q action %q is not in the allowed actions %v", tree, node.ID, node.Action, allowed))
			}
		}
	}

	sort.Strings(violations)
	return violations
}

func typeViolation(name string, value float64, t string) (string, bool) {
	switch t {
	case "int":
		if value != math.Trunc(value) {
			return fmt.Sprintf("parameter %q = %v must be an integer", name, value), false
		}
	case "bool":
		if value != 0 && value != 1 {
			return fmt.Sprintf("parameter %q = %v must be 0 or 1", name, value), false
		}
	case "float", "":
		// any finite value is acceptable
	}
	return "", true
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
