// Package jsonutil generates a JSON Schema (as a map[string]any) from a Go
// struct type via reflection, for the one place this module needs one: the
// response shape passed to llmclient.Request.ResponseSchema when asking a
// model for a proposed Policy.
//
// [GenerateSchema] conforms to JSON Schema Draft-07 and handles structs,
// slices, maps, pointers, and primitive types recursively.
//
// Supported struct tags:
//
//   - json:"name"        — sets the property name (use "-" to skip)
//   - description:"..."  — sets the property description
//   - required:"true"    — marks the property as required
//   - enum:"a,b,c"       — constrains the value to the listed options
//   - default:"..."      — sets the default value
//   - minimum:"N"        — sets the minimum numeric value
//   - maximum:"N"        — sets the maximum numeric value
package jsonutil
