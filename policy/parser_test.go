package policy

import (
	"encoding/json"
	"testing"
)

func TestParse_AssignsMissingNodeIDsFromSiblingOrder(t *testing.T) {
	raw := json.RawMessage(`{
		"parameters": {"retry_budget": 3},
		"trees": {
			"routing": [
				{"action": "approve"},
				{"action": "decline"},
				{"id": "custom-id", "action": "review"}
			]
		}
	}`)

	p, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got := p.Parameters["retry_budget"]; got != 3 {
		t.Errorf("Parameters[retry_budget] = %v, want 3", got)
	}
	nodes := p.Trees["routing"]
	if len(nodes) != 3 {
		t.Fatalf("len(Trees[routing]) = %d, want 3", len(nodes))
	}
	if nodes[0].ID != "routing/0" || nodes[1].ID != "routing/1" {
		t.Errorf("assigned IDs = %q, %q, want routing/0, routing/1", nodes[0].ID, nodes[1].ID)
	}
	if nodes[2].ID != "custom-id" {
		t.Errorf("explicit ID = %q, want preserved as custom-id", nodes[2].ID)
	}
}

func TestParse_MalformedJSON(t *testing.T) {
	if _, err := Parse(json.RawMessage(`not json`)); err == nil {
		t.Fatalf("Parse() error = nil, want malformed-JSON error")
	}
}

func TestParse_NodeMissingAction(t *testing.T) {
	raw := json.RawMessage(`{"trees": {"routing": [{"id": "x"}]}}`)
	if _, err := Parse(raw); err == nil {
		t.Fatalf("Parse() error = nil, want missing-action error")
	}
}

func TestParse_EmptyDocumentIsValid(t *testing.T) {
	p, err := Parse(json.RawMessage(`{}`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(p.Parameters) != 0 || len(p.Trees) != 0 {
		t.Errorf("Parse({}) = %+v, want empty Policy", p)
	}
}

func TestParse_PreservesRawBytes(t *testing.T) {
	raw := json.RawMessage(`{"parameters": {"x": 1}}`)
	p, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if string(p.Raw) != string(raw) {
		t.Errorf("Raw = %q, want %q", p.Raw, raw)
	}
}
