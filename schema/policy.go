package schema

// Policy is the optimizer's normalized representation of a proposed or
// current decision policy: a set of named decision trees, each a sequence
// of nodes with a chosen action, plus flat scenario parameters (spec.md §3
// Policy). It is deliberately not the raw LLM JSON — PolicyParser produces
// this shape with stable node IDs assigned from sibling order.
type Policy struct {
	// Parameters maps a whitelisted parameter name to its value.
	Parameters map[string]float64

	// Trees maps a decision-tree name to its ordered nodes.
	Trees map[string][]PolicyNode

	// Raw holds the original LLM JSON this Policy was parsed from, kept
	// for audit/display purposes only; optimizer logic never reads it.
	Raw []byte
}

// PolicyNode is one node of a decision tree: a stable ID and the chosen
// action, deterministically assigned from sibling order when the source
// JSON omits an explicit ID.
type PolicyNode struct {
	ID     string
	Action string
}

// Clone returns a deep copy of p so callers can safely mutate the result
// without aliasing the optimizer's current-policy map.
func (p Policy) Clone() Policy {
	out := Policy{
		Parameters: make(map[string]float64, len(p.Parameters)),
		Trees:      make(map[string][]PolicyNode, len(p.Trees)),
	}
	for k, v := range p.Parameters {
		out.Parameters[k] = v
	}
	for tree, nodes := range p.Trees {
		cp := make([]PolicyNode, len(nodes))
		copy(cp, nodes)
		out.Trees[tree] = cp
	}
	if p.Raw != nil {
		out.Raw = append([]byte(nil), p.Raw...)
	}
	return out
}
