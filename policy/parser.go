package policy

import (
	"encoding/json"
	"fmt"

	"github.com/lookatitude/policyopt/schema"
)

// rawPolicy is the shape an LLM's proposed policy JSON is expected to take.
// node IDs are optional; Parse assigns them deterministically from sibling
// order when omitted.
type rawPolicy struct {
	Parameters map[string]float64   `json:"parameters"`
	Trees      map[string][]rawNode `json:"trees" required:"true"`
}

type rawNode struct {
	ID     string `json:"id,omitempty"`
	Action string `json:"action" required:"true"`
}

// Parse extracts parameter values and per-tree actions from an LLM's raw
// structured output, returning a normalized schema.Policy. A tree node
// that omits "id" is assigned "<tree>/<index>" from its position among
// siblings; an explicit id is kept as-is. Parse returns an error only for
// malformed JSON or a node missing its required "action" field -- never
// for a value that merely violates scenario constraints, which is
// Validate's concern.
func Parse(raw json.RawMessage) (schema.Policy, error) {
	var rp rawPolicy
	if err := json.Unmarshal(raw, &rp); err != nil {
		return schema.Policy{}, fmt.Errorf("policy: parse: %w", err)
	}

	p := schema.Policy{
		Parameters: rp.Parameters,
		Trees:      make(map[string][]schema.PolicyNode, len(rp.Trees)),
		Raw:        append([]byte(nil), raw...),
	}
	if p.Parameters == nil {
		p.Parameters = map[string]float64{}
	}

	for tree, nodes := range rp.Trees {
		out := make([]schema.PolicyNode, len(nodes))
		for i, n := range nodes {
			if n.Action == "" {
				return schema.Policy{}, fmt.Errorf("policy: parse: tree %q node %d has no action", tree, i)
			}
			id := n.ID
			if id == "" {
				id = fmt.Sprintf("%s/%d", tree, i)
			}
			out[i] = schema.PolicyNode{ID: id, Action: n.Action}
		}
		p.Trees[tree] = out
	}

	return p, nil
}
