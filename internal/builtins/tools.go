package builtins

import (
	"context"
	"fmt"

	"github.com/agentcore/orchestrator/internal/registry"
	"github.com/agentcore/orchestrator/pkg/core"
)

// Register wires every demo tool body into reg against a shared
// Workbook, the set cmd/agentcore needs to exercise every recipe
// internal/planner knows how to compile.
func Register(reg *registry.Registry, wb *Workbook) error {
	tools := []core.Tool{
		readRangeTool(wb),
		writeRangeTool(wb),
		formatRangeTool(),
		autofitRangeTool(),
		createChartTool(),
		createSheetTool(wb),
		switchSheetTool(wb),
		sortRangeTool(),
		filterRangeTool(),
		dedupeRangeTool(),
		cleanRangeTool(),
		setFormulaTool(),
		respondToUserTool(),
		clarifyRequestTool(),
		getWorkbookInfoTool(wb),
	}
	for _, t := range tools {
		if err := reg.Register(t, registry.RegisterOptions{Group: "builtins"}); err != nil {
			return fmt.Errorf("builtins: register %s: %w", t.Name(), err)
		}
	}
	return nil
}

func readRangeTool(wb *Workbook) core.Tool {
	return &core.FuncTool{
		ToolName:        "read_range",
		ToolDescription: "reads a cell range from the active or named sheet",
		ToolCategory:    "sensing",
		ToolParameters: []core.ParameterDescriptor{
			{Name: "range", Type: core.ParamString, Required: true},
			{Name: "sheet", Type: core.ParamString},
		},
		Fn: func(ctx context.Context, in core.Params) (core.ToolResult, error) {
			rng := in.String("range", "")
			sheet := in.String("sheet", "")
			v, ok := wb.Read(sheet, rng)
			if !ok {
				return core.ToolResult{Success: true, Output: ""}, nil
			}
			return core.ToolResult{Success: true, Output: v}, nil
		},
	}
}

func writeRangeTool(wb *Workbook) core.Tool {
	return &core.FuncTool{
		ToolName:        "write_range",
		ToolDescription: "writes values into a cell range",
		ToolCategory:    "execution",
		ToolParameters: []core.ParameterDescriptor{
			{Name: "range", Type: core.ParamString, Required: true},
			{Name: "values", Type: core.ParamArray, Required: true},
			{Name: "sheet", Type: core.ParamString},
		},
		Fn: func(ctx context.Context, in core.Params) (core.ToolResult, error) {
			rng := in.String("range", "")
			sheet := in.String("sheet", "")
			rendered := valuesToString(in["values"])
			wb.Write(sheet, rng, rendered)
			return core.ToolResult{Success: true, Output: rendered}, nil
		},
	}
}

func formatRangeTool() core.Tool {
	return &core.FuncTool{
		ToolName:        "format_range",
		ToolDescription: "applies a named style to a cell range",
		ToolCategory:    "execution",
		ToolParameters: []core.ParameterDescriptor{
			{Name: "range", Type: core.ParamString, Required: true},
			{Name: "style", Type: core.ParamString, Required: true},
		},
		Fn: func(ctx context.Context, in core.Params) (core.ToolResult, error) {
			return core.ToolResult{Success: true, Output: "formatted " + in.String("range", "")}, nil
		},
	}
}

func autofitRangeTool() core.Tool {
	return &core.FuncTool{
		ToolName:        "autofit_range",
		ToolDescription: "autosizes columns in a range",
		ToolCategory:    "execution",
		ToolParameters: []core.ParameterDescriptor{
			{Name: "range", Type: core.ParamString, Required: true},
		},
		Fn: func(ctx context.Context, in core.Params) (core.ToolResult, error) {
			return core.ToolResult{Success: true, Output: "autofit " + in.String("range", "")}, nil
		},
	}
}

func createChartTool() core.Tool {
	return &core.FuncTool{
		ToolName:        "create_chart",
		ToolDescription: "creates a chart from a source range",
		ToolCategory:    "execution",
		ToolParameters: []core.ParameterDescriptor{
			{Name: "source_range", Type: core.ParamString, Required: true},
			{Name: "chart_type", Type: core.ParamString},
		},
		Fn: func(ctx context.Context, in core.Params) (core.ToolResult, error) {
			return core.ToolResult{Success: true, Output: "chart created"}, nil
		},
	}
}

func createSheetTool(wb *Workbook) core.Tool {
	return &core.FuncTool{
		ToolName:        "create_sheet",
		ToolDescription: "creates a new sheet in the workbook",
		ToolCategory:    "execution",
		ToolParameters: []core.ParameterDescriptor{
			{Name: "name", Type: core.ParamString, Required: true},
		},
		Fn: func(ctx context.Context, in core.Params) (core.ToolResult, error) {
			name := in.String("name", "")
			wb.CreateSheet(name)
			return core.ToolResult{Success: true, Output: name}, nil
		},
	}
}

func switchSheetTool(wb *Workbook) core.Tool {
	return &core.FuncTool{
		ToolName:        "switch_sheet",
		ToolDescription: "changes the active sheet",
		ToolCategory:    "execution",
		ToolParameters: []core.ParameterDescriptor{
			{Name: "name", Type: core.ParamString, Required: true},
		},
		Fn: func(ctx context.Context, in core.Params) (core.ToolResult, error) {
			name := in.String("name", "")
			if err := wb.SwitchSheet(name); err != nil {
				return core.ToolResult{Success: false, Error: err.Error()}, nil
			}
			return core.ToolResult{Success: true, Output: name}, nil
		},
	}
}

func sortRangeTool() core.Tool {
	return &core.FuncTool{
		ToolName:        "sort_range",
		ToolDescription: "sorts a range in place",
		ToolCategory:    "execution",
		ToolParameters: []core.ParameterDescriptor{
			{Name: "range", Type: core.ParamString, Required: true},
		},
		Fn: func(ctx context.Context, in core.Params) (core.ToolResult, error) {
			return core.ToolResult{Success: true, Output: "sorted " + in.String("range", "")}, nil
		},
	}
}

func filterRangeTool() core.Tool {
	return &core.FuncTool{
		ToolName:        "filter_range",
		ToolDescription: "filters a range, returning matching rows",
		ToolCategory:    "execution",
		ToolParameters: []core.ParameterDescriptor{
			{Name: "range", Type: core.ParamString, Required: true},
		},
		Fn: func(ctx context.Context, in core.Params) (core.ToolResult, error) {
			return core.ToolResult{Success: true, Output: "filtered " + in.String("range", "")}, nil
		},
	}
}

func dedupeRangeTool() core.Tool {
	return &core.FuncTool{
		ToolName:        "dedupe_range",
		ToolDescription: "removes duplicate rows from a range",
		ToolCategory:    "execution",
		ToolParameters: []core.ParameterDescriptor{
			{Name: "range", Type: core.ParamString, Required: true},
		},
		Fn: func(ctx context.Context, in core.Params) (core.ToolResult, error) {
			return core.ToolResult{Success: true, Output: "deduped " + in.String("range", "")}, nil
		},
	}
}

func cleanRangeTool() core.Tool {
	return &core.FuncTool{
		ToolName:        "clean_range",
		ToolDescription: "trims whitespace and normalizes a range's values",
		ToolCategory:    "execution",
		ToolParameters: []core.ParameterDescriptor{
			{Name: "range", Type: core.ParamString, Required: true},
		},
		Fn: func(ctx context.Context, in core.Params) (core.ToolResult, error) {
			return core.ToolResult{Success: true, Output: "cleaned " + in.String("range", "")}, nil
		},
	}
}

func setFormulaTool() core.Tool {
	return &core.FuncTool{
		ToolName:        "set_formula",
		ToolDescription: "writes a formula into a range",
		ToolCategory:    "execution",
		ToolParameters: []core.ParameterDescriptor{
			{Name: "range", Type: core.ParamString, Required: true},
			{Name: "custom_formula", Type: core.ParamString},
		},
		Fn: func(ctx context.Context, in core.Params) (core.ToolResult, error) {
			return core.ToolResult{Success: true, Output: in.String("custom_formula", "")}, nil
		},
	}
}

func respondToUserTool() core.Tool {
	return &core.FuncTool{
		ToolName:        "respond_to_user",
		ToolDescription: "terminal step that surfaces a reply to the user",
		ToolCategory:    "response",
		ToolParameters: []core.ParameterDescriptor{
			{Name: "template", Type: core.ParamString},
		},
		Fn: func(ctx context.Context, in core.Params) (core.ToolResult, error) {
			return core.ToolResult{Success: true, Output: in.String("template", "done")}, nil
		},
	}
}

func clarifyRequestTool() core.Tool {
	return &core.FuncTool{
		ToolName:        "clarify_request",
		ToolDescription: "terminal step that asks the user a clarifying question",
		ToolCategory:    "response",
		ToolParameters: []core.ParameterDescriptor{
			{Name: "question", Type: core.ParamString, Required: true},
			{Name: "options", Type: core.ParamArray},
		},
		Fn: func(ctx context.Context, in core.Params) (core.ToolResult, error) {
			return core.ToolResult{Success: true, Output: in.String("question", "")}, nil
		},
	}
}

func getWorkbookInfoTool(wb *Workbook) core.Tool {
	return &core.FuncTool{
		ToolName:        "get_workbook_info",
		ToolDescription: "reports the active sheet and sheet list",
		ToolCategory:    "sensing",
		Fn: func(ctx context.Context, in core.Params) (core.ToolResult, error) {
			return core.ToolResult{Success: true, Output: fmt.Sprintf("active=%s sheets=%v", wb.ActiveSheet(), wb.Sheets())}, nil
		},
	}
}
