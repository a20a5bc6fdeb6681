// Package intent implements the Intent Parser (C3): it turns a user
// message plus host context into a typed core.IntentSpec, with a robust
// JSON-extraction pass over the LLM's reply and a deterministic
// clarify-intent fallback that never guesses a destructive intent.
package intent

import (
	"context"
	"encoding/json"

	"github.com/agentcore/orchestrator/internal/llm"
	"github.com/agentcore/orchestrator/pkg/core"
)

// ConfidenceThreshold is the minimum confidence the compiler will act on
// without asking for clarification. The contract leaves this threshold
// unspecified; 0.5 was chosen as the midpoint of the documented [0,1]
// confidence range.
const ConfidenceThreshold = 0.5

// genericClarificationQuestion is returned whenever the parser cannot
// recover a usable intent from the model at all.
const genericClarificationQuestion = "I'm not sure what you'd like me to do — could you rephrase or be more specific?"

// Parser turns a message into an IntentSpec using an IntentLLM for the
// free-text classification step and the closed synonym tables for the
// independent semantic-atom extraction.
type Parser struct {
	llm llm.IntentLLM
}

// New constructs a Parser bound to an IntentLLM collaborator.
func New(model llm.IntentLLM) *Parser {
	return &Parser{llm: model}
}

// Parse classifies promptCtx.Message into an IntentSpec. It never returns
// an error for a malformed or absent LLM reply — those are absorbed into
// the clarify fallback — only for a cancelled or expired ctx.
func (p *Parser) Parse(ctx context.Context, promptCtx Context) (core.IntentSpec, error) {
	atoms, compressed := extractSemanticAtoms(promptCtx.Message)

	if err := ctx.Err(); err != nil {
		return core.IntentSpec{}, err
	}

	reply, err := p.llm.GenerateJSON(ctx, buildSystemPrompt(), buildUserPrompt(promptCtx))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return core.IntentSpec{}, ctxErr
		}
		return clarifyFallback(atoms, compressed), nil
	}

	raw, err := parseLLMOutput(reply)
	if err != nil {
		return clarifyFallback(atoms, compressed), nil
	}

	spec, ok := decodeIntentSpec(raw)
	if !ok {
		return clarifyFallback(atoms, compressed), nil
	}

	spec.SemanticAtoms = atoms
	if spec.CompressedIntent == "" {
		spec.CompressedIntent = compressed
	}
	spec.NeedsClarification = spec.Intent == core.IntentClarify || spec.Confidence < ConfidenceThreshold
	if spec.NeedsClarification && spec.ClarificationQuestion == "" {
		spec.ClarificationQuestion = genericClarificationQuestion
	}
	return spec, nil
}

// decodeIntentSpec re-marshals the loosely-typed map produced by
// parseLLMOutput into a core.IntentSpec, rejecting a reply with no usable
// intent field rather than let a zero-value IntentKind slip through.
func decodeIntentSpec(raw map[string]any) (core.IntentSpec, bool) {
	intentVal, ok := raw["intent"].(string)
	if !ok || intentVal == "" {
		return core.IntentSpec{}, false
	}

	encoded, err := json.Marshal(raw)
	if err != nil {
		return core.IntentSpec{}, false
	}
	var spec core.IntentSpec
	if err := json.Unmarshal(encoded, &spec); err != nil {
		return core.IntentSpec{}, false
	}
	return spec, true
}

// clarifyFallback is the deterministic, never-guess-destructive reply
// used whenever the LLM errors, the reply can't be parsed, or it has no
// usable intent field.
func clarifyFallback(atoms []string, compressed core.CompressedIntent) core.IntentSpec {
	return core.IntentSpec{
		Intent:                core.IntentClarify,
		Confidence:            0.3,
		NeedsClarification:    true,
		ClarificationQuestion: genericClarificationQuestion,
		SemanticAtoms:         atoms,
		CompressedIntent:      compressed,
	}
}
