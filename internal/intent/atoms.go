package intent

import (
	"strings"

	"github.com/agentcore/orchestrator/internal/discovery"
	"github.com/agentcore/orchestrator/pkg/core"
)

// compressedIntentKeywords maps each compressed-intent tag to a small set
// of trigger phrases. This is independent of the LLM reply: a message
// mentioning an error recovers "failure" even if the model's own
// compressed_intent field is empty or wrong.
var compressedIntentKeywords = map[core.CompressedIntent][]string{
	core.CompressedFailure:        {"error", "broken", "wrong", "fix", "fails", "failing"},
	core.CompressedAutomation:     {"every time", "automatically", "whenever", "batch", "all rows"},
	core.CompressedStructure:      {"reorganize", "restructure", "rearrange", "move columns"},
	core.CompressedMaintainability: {"protect", "lock", "prevent edit", "read-only", "read only"},
}

// extractSemanticAtoms maps the raw user message against the action and
// entity synonym tables independently of whatever the LLM replies, and
// guesses a compressed-intent routing tag from a small keyword set. Both
// are attached to the returned IntentSpec so downstream layers can route
// even when the LLM answered poorly.
func extractSemanticAtoms(message string) (atoms []string, compressed core.CompressedIntent) {
	actions, entities := discovery.MatchSynonymTags(message)
	atoms = append(atoms, actions...)
	atoms = append(atoms, entities...)

	lower := strings.ToLower(message)
	for tag, keywords := range compressedIntentKeywords {
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				compressed = tag
				return atoms, compressed
			}
		}
	}
	return atoms, ""
}
