package intent

import (
	"encoding/json"
	"sync"

	"github.com/invopop/jsonschema"

	"github.com/agentcore/orchestrator/pkg/core"
)

var (
	schemaOnce sync.Once
	schemaJSON []byte
	schemaErr  error
)

// ReplySchema returns the JSON Schema the prompt embeds so the model has a
// concrete shape to fill in, reflected straight off core.IntentSpec.
func ReplySchema() ([]byte, error) {
	schemaOnce.Do(func() {
		r := &jsonschema.Reflector{FieldNameTag: "json"}
		schema := r.Reflect(&core.IntentSpec{})
		schemaJSON, schemaErr = json.MarshalIndent(schema, "", "  ")
	})
	return schemaJSON, schemaErr
}
