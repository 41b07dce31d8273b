package policy

import "github.com/lookatitude/policyopt/internal/jsonutil"

// ResponseSchema returns the JSON Schema object passed as
// llmclient.Request.ResponseSchema when requesting a proposed policy. It is
// generated by reflection over rawPolicy -- the exact shape Parse expects
// (spec.md §3 Policy, §4.4 "structured generation") -- so the two can never
// drift out of sync the way two independently hand-maintained schemas would.
func ResponseSchema() map[string]any {
	return jsonutil.GenerateSchema(rawPolicy{})
}
