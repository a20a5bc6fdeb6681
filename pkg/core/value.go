// Package core holds the data model shared by every stage of the
// orchestration pipeline: intents, plans, steps, tools, DAG nodes,
// recovery actions and trace records. None of these types perform I/O;
// they are passed by value or pointer between the internal/* packages.
package core

import "fmt"

// Value is the JSON-like value sum type that flows in and out of tools.
// Spec-Compiler-generated parameters, and everything a Tool returns as
// output, are constrained to this shape so the core never has to reason
// about language-specific dynamic typing.
type Value = any

// Params is a parameter bag: name -> value. Tools must treat the map
// handed to Invoke as read-only and must not retain it after returning.
type Params map[string]Value

// Clone returns a shallow copy of the parameter bag so callers can hand
// out immutable-by-convention copies to concurrent tool invocations.
func (p Params) Clone() Params {
	if p == nil {
		return nil
	}
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// String is a small helper for reading a string parameter with a default.
func (p Params) String(name, def string) string {
	if v, ok := p[name]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// ToolResult is what a Tool.Invoke call returns.
type ToolResult struct {
	Success bool   `json:"success"`
	Output  Value  `json:"output,omitempty"`
	Error   string `json:"error,omitempty"`
}

// OutputString renders Output as the string representation used when
// substituting {{step_id}} placeholders: strings pass through unchanged,
// everything else is stringified.
func (r ToolResult) OutputString() string {
	if s, ok := r.Output.(string); ok {
		return s
	}
	if r.Output == nil {
		return ""
	}
	return fmt.Sprintf("%v", r.Output)
}
