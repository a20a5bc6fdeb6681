package builtins

import (
	"testing"

	"github.com/agentcore/orchestrator/internal/registry"
)

func TestRegisterWiresEveryCompilerAction(t *testing.T) {
	reg := registry.New(nil)
	wb := NewWorkbook()
	if err := Register(reg, wb); err != nil {
		t.Fatalf("register: %v", err)
	}

	for _, name := range []string{
		"read_range", "write_range", "format_range", "autofit_range",
		"create_chart", "create_sheet", "switch_sheet", "sort_range",
		"filter_range", "dedupe_range", "clean_range", "set_formula",
		"respond_to_user", "clarify_request", "get_workbook_info",
	} {
		if !reg.Has(name) {
			t.Fatalf("expected builtin tool %q to be registered", name)
		}
	}
}

func TestWriteThenReadRoundTrips(t *testing.T) {
	wb := NewWorkbook()
	wb.Write("", "A1:A3", "1,2,3")
	v, ok := wb.Read("", "A1:A3")
	if !ok || v != "1,2,3" {
		t.Fatalf("expected round trip, got %q ok=%v", v, ok)
	}
}

func TestSwitchSheetRejectsUnknownSheet(t *testing.T) {
	wb := NewWorkbook()
	if err := wb.SwitchSheet("DoesNotExist"); err == nil {
		t.Fatal("expected error switching to a sheet that was never created")
	}
}

func TestCreateThenSwitchSheet(t *testing.T) {
	wb := NewWorkbook()
	wb.CreateSheet("Budget")
	if err := wb.SwitchSheet("Budget"); err != nil {
		t.Fatalf("switch: %v", err)
	}
	if wb.ActiveSheet() != "Budget" {
		t.Fatalf("expected active sheet Budget, got %q", wb.ActiveSheet())
	}
}
