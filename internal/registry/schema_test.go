package registry

import (
	"context"
	"testing"

	"github.com/agentcore/orchestrator/pkg/core"
)

type paramTool struct{ params []core.ParameterDescriptor }

func (t paramTool) Name() string                          { return "write_range" }
func (t paramTool) Description() string                   { return "writes a range" }
func (t paramTool) Category() string                      { return "write" }
func (t paramTool) Parameters() []core.ParameterDescriptor { return t.params }
func (t paramTool) Invoke(ctx context.Context, in core.Params) (core.ToolResult, error) {
	return core.ToolResult{Success: true}, nil
}

func TestValidateParamsAcceptsWellFormedInput(t *testing.T) {
	r := New(nil)
	tool := paramTool{params: []core.ParameterDescriptor{
		{Name: "range", Type: core.ParamString, Required: true},
		{Name: "values", Type: core.ParamArray, Required: true},
	}}
	if err := r.Register(tool, RegisterOptions{}); err != nil {
		t.Fatalf("register: %v", err)
	}

	err := r.ValidateParams("write_range", core.Params{"range": "A1:A3", "values": []any{1, 2, 3}})
	if err != nil {
		t.Fatalf("expected valid params to pass, got %v", err)
	}
}

func TestValidateParamsRejectsMissingRequiredField(t *testing.T) {
	r := New(nil)
	tool := paramTool{params: []core.ParameterDescriptor{
		{Name: "range", Type: core.ParamString, Required: true},
	}}
	if err := r.Register(tool, RegisterOptions{}); err != nil {
		t.Fatalf("register: %v", err)
	}

	err := r.ValidateParams("write_range", core.Params{})
	if err == nil {
		t.Fatal("expected missing required field to fail validation")
	}
	var verr *ParamValidationError
	if !asParamValidationError(err, &verr) {
		t.Fatalf("expected *ParamValidationError, got %T: %v", err, err)
	}
}

func TestValidateParamsRejectsWrongType(t *testing.T) {
	r := New(nil)
	tool := paramTool{params: []core.ParameterDescriptor{
		{Name: "count", Type: core.ParamNumber, Required: true},
	}}
	if err := r.Register(tool, RegisterOptions{}); err != nil {
		t.Fatalf("register: %v", err)
	}

	err := r.ValidateParams("write_range", core.Params{"count": "not a number"})
	if err == nil {
		t.Fatal("expected wrong-typed field to fail validation")
	}
}

func TestValidateParamsUnknownToolErrors(t *testing.T) {
	r := New(nil)
	if err := r.ValidateParams("missing", core.Params{}); err == nil {
		t.Fatal("expected error for unregistered tool")
	}
}

func asParamValidationError(err error, target **ParamValidationError) bool {
	if verr, ok := err.(*ParamValidationError); ok {
		*target = verr
		return true
	}
	return false
}
