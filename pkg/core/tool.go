package core

import "context"

// ParamType enumerates the types a tool parameter may declare.
type ParamType string

const (
	ParamString  ParamType = "string"
	ParamNumber  ParamType = "number"
	ParamBoolean ParamType = "boolean"
	ParamArray   ParamType = "array"
	ParamObject  ParamType = "object"
)

// ParameterDescriptor documents one parameter a tool accepts.
type ParameterDescriptor struct {
	Name     string    `json:"name"`
	Type     ParamType `json:"type"`
	Required bool      `json:"required"`
	Default  Value     `json:"default,omitempty"`
}

// Tool is the external collaborator the core never implements itself;
// concrete tool bodies (reading a cell, writing a range, drawing a
// chart) live in the host application and are registered with the
// registry at startup.
type Tool interface {
	Name() string
	Description() string
	Category() string
	Parameters() []ParameterDescriptor
	Invoke(ctx context.Context, input Params) (ToolResult, error)
}

// ToolStatus is the lifecycle state of a RegisteredTool.
type ToolStatus string

const (
	StatusActive       ToolStatus = "active"
	StatusDeprecated   ToolStatus = "deprecated"
	StatusExperimental ToolStatus = "experimental"
)

// FuncTool adapts a plain function into a Tool, the way small built-in
// tools (respond_to_user, clarify_request) are registered without a
// dedicated type.
type FuncTool struct {
	ToolName        string
	ToolDescription string
	ToolCategory    string
	ToolParameters  []ParameterDescriptor
	Fn              func(ctx context.Context, input Params) (ToolResult, error)
}

func (f *FuncTool) Name() string                        { return f.ToolName }
func (f *FuncTool) Description() string                 { return f.ToolDescription }
func (f *FuncTool) Category() string                    { return f.ToolCategory }
func (f *FuncTool) Parameters() []ParameterDescriptor    { return f.ToolParameters }
func (f *FuncTool) Invoke(ctx context.Context, input Params) (ToolResult, error) {
	return f.Fn(ctx, input)
}
