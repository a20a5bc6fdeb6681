package planner

import "github.com/agentcore/orchestrator/pkg/core"

// routingHintFor maps a compressed_intent tag to its decoration. Hints
// never change step semantics, only downstream presentation — the
// compiler attaches this and nothing else reads or acts on it during
// compilation.
func routingHintFor(compressed core.CompressedIntent) *core.RoutingHint {
	switch compressed {
	case core.CompressedFailure:
		return &core.RoutingHint{Priority: "diagnose", AddDiagnosticStep: true}
	case core.CompressedAutomation:
		return &core.RoutingHint{Priority: "batch", SuggestedTools: []string{"fill_formula", "batch_formula"}}
	case core.CompressedStructure:
		return &core.RoutingHint{Priority: "refactor"}
	case core.CompressedMaintainability:
		return &core.RoutingHint{Priority: "protect", SuggestedTools: []string{"protect_sheet"}}
	default:
		return nil
	}
}
