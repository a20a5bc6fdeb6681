package registry

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/agentcore/orchestrator/pkg/core"
)

var schemaCache sync.Map

// ValidateParams checks params against the registered tool's parameter
// descriptors before a step ever reaches Tool.Invoke, turning a plan-time
// mismatch into a typed error instead of letting it panic inside a
// third-party tool body.
func (r *Registry) ValidateParams(name string, params core.Params) error {
	rt, ok := r.GetRegistered(name)
	if !ok {
		return fmt.Errorf("registry: tool %q not found", name)
	}

	schema, err := compileParamSchema(name, rt.Tool.Parameters())
	if err != nil {
		return fmt.Errorf("registry: compile schema for %q: %w", name, err)
	}

	payload, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("registry: encode params for %q: %w", name, err)
	}
	var decoded any
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return fmt.Errorf("registry: decode params for %q: %w", name, err)
	}

	if err := schema.Validate(decoded); err != nil {
		return &ParamValidationError{ToolName: name, Cause: err}
	}
	return nil
}

// ParamValidationError reports a step's resolved parameters failing a
// tool's declared JSON Schema.
type ParamValidationError struct {
	ToolName string
	Cause    error
}

func (e *ParamValidationError) Error() string {
	return fmt.Sprintf("registry: parameters for tool %q failed validation: %v", e.ToolName, e.Cause)
}

func (e *ParamValidationError) Unwrap() error { return e.Cause }

func compileParamSchema(toolName string, params []core.ParameterDescriptor) (*jsonschema.Schema, error) {
	if cached, ok := schemaCache.Load(toolName); ok {
		return cached.(*jsonschema.Schema), nil
	}

	raw := buildJSONSchema(params)
	encoded, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}

	compiled, err := jsonschema.CompileString(toolName+".schema.json", string(encoded))
	if err != nil {
		return nil, err
	}
	schemaCache.Store(toolName, compiled)
	return compiled, nil
}

func buildJSONSchema(params []core.ParameterDescriptor) map[string]any {
	properties := make(map[string]any, len(params))
	var required []string
	for _, p := range params {
		properties[p.Name] = map[string]any{"type": jsonSchemaType(p.Type)}
		if p.Required {
			required = append(required, p.Name)
		}
	}
	schema := map[string]any{
		"type":                 "object",
		"properties":           properties,
		"additionalProperties": true,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func jsonSchemaType(t core.ParamType) string {
	switch t {
	case core.ParamString:
		return "string"
	case core.ParamNumber:
		return "number"
	case core.ParamBoolean:
		return "boolean"
	case core.ParamArray:
		return "array"
	case core.ParamObject:
		return "object"
	default:
		return "string"
	}
}
