// Package llm defines the IntentLLM external collaborator (§6) and ships
// four thin concrete adapters over it, one per provider SDK the teacher
// depended on. The core only ever depends on the IntentLLM interface;
// these adapters exist so a host application does not have to hand-roll
// the glue for any of the four.
package llm

import "context"

// IntentLLM is the sole external LLM collaborator the core calls. It
// need not return strict JSON — the Intent Parser's robust extraction
// handles malformed output — and timeouts are the caller's
// responsibility via ctx.
type IntentLLM interface {
	GenerateJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}
