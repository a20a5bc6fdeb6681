package planner

import (
	"strings"
	"testing"

	"github.com/agentcore/orchestrator/pkg/core"
)

func TestCompileWriteDataSingleStepThenRespond(t *testing.T) {
	c := New(nil)
	plan, err := c.Compile(core.IntentSpec{
		Intent:     core.IntentWriteData,
		Confidence: 0.9,
		Spec:       core.Params{"range": "A1:B2"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(plan.Steps) != 2 {
		t.Fatalf("expected 2 steps, got %d", len(plan.Steps))
	}
	if plan.Steps[1].Action != "respond_to_user" {
		t.Fatalf("expected last step to respond, got %s", plan.Steps[1].Action)
	}
	if len(plan.Steps[1].DependsOn) != 1 || plan.Steps[1].DependsOn[0] != plan.Steps[0].ID {
		t.Fatalf("expected respond to depend on the write step")
	}
}

func TestCompileCreateTableDependencyChain(t *testing.T) {
	c := New(nil)
	plan, err := c.Compile(core.IntentSpec{
		Intent:     core.IntentCreateTable,
		Confidence: 0.9,
		Spec: core.Params{
			"start_cell": "A1",
			"columns": []any{
				map[string]any{"name": "Name", "type": "text"},
				map[string]any{"name": "Amount", "type": "number"},
			},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(plan.Steps) != 5 {
		t.Fatalf("expected 5 steps, got %d", len(plan.Steps))
	}
	actions := make([]string, len(plan.Steps))
	for i, s := range plan.Steps {
		actions[i] = s.Action
	}
	want := []string{"read_selection", "write_range", "format_range", "autofit_range", "respond_to_user"}
	for i, w := range want {
		if actions[i] != w {
			t.Fatalf("expected step %d to be %s, got %s", i, w, actions[i])
		}
	}
	// write depends on read; format depends on write.
	if plan.Steps[1].DependsOn[0] != plan.Steps[0].ID {
		t.Fatal("write should depend on read")
	}
	if plan.Steps[2].DependsOn[0] != plan.Steps[1].ID {
		t.Fatal("format should depend on write")
	}
}

func TestCompileHeaderRangeUsesColumnCount(t *testing.T) {
	c := New(nil)
	plan, err := c.Compile(core.IntentSpec{
		Intent: core.IntentCreateTable,
		Spec: core.Params{
			"start_cell": "B2",
			"columns": []any{
				map[string]any{"name": "A"},
				map[string]any{"name": "B"},
				map[string]any{"name": "C"},
			},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rng, _ := plan.Steps[1].Parameters["range"].(string)
	if rng != "B2:D2" {
		t.Fatalf("expected header range B2:D2, got %q", rng)
	}
}

func TestCompileFilterDataIsNotAWriteOperation(t *testing.T) {
	c := New(nil)
	plan, err := c.Compile(core.IntentSpec{
		Intent: core.IntentFilterData,
		Spec:   core.Params{"range": "A1:A10"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, s := range plan.Steps {
		if s.Action == "filter_range" && s.IsWriteOperation {
			t.Fatal("filter_range must not be marked a write operation")
		}
	}
}

func TestCompileSortDataIsAWriteOperation(t *testing.T) {
	c := New(nil)
	plan, err := c.Compile(core.IntentSpec{
		Intent: core.IntentSortData,
		Spec:   core.Params{"range": "A1:A10"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, s := range plan.Steps {
		if s.Action == "sort_range" && !s.IsWriteOperation {
			t.Fatal("sort_range must be marked a write operation")
		}
	}
}

func TestCompileClarificationShortCircuit(t *testing.T) {
	c := New(nil)
	plan, err := c.Compile(core.IntentSpec{
		Intent:                core.IntentClarify,
		NeedsClarification:    true,
		ClarificationQuestion: "Which sheet?",
		ClarificationOptions:  []string{"Sheet1", "Sheet2"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(plan.Steps) != 1 || plan.Steps[0].Action != "clarify_request" {
		t.Fatalf("expected a single clarify_request step, got %+v", plan.Steps)
	}
}

func TestCompileUnsupportedIntentFails(t *testing.T) {
	c := New(nil)
	_, err := c.Compile(core.IntentSpec{Intent: core.IntentKind("not_a_real_intent")})
	if err == nil {
		t.Fatal("expected an error for an unrecognized intent")
	}
	var unsupported *core.UnsupportedIntent
	if !errorsAs(err, &unsupported) {
		t.Fatalf("expected UnsupportedIntent, got %T: %v", err, err)
	}
}

func TestCompileStepIDsAreUniqueWithinAPlan(t *testing.T) {
	c := New(nil)
	plan, err := c.Compile(core.IntentSpec{
		Intent: core.IntentCreateTable,
		Spec: core.Params{
			"start_cell": "A1",
			"columns":    []any{map[string]any{"name": "X"}},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	seen := make(map[string]bool)
	for _, s := range plan.Steps {
		if seen[s.ID] {
			t.Fatalf("duplicate step id %s", s.ID)
		}
		seen[s.ID] = true
		if !strings.HasPrefix(s.ID, "step_") {
			t.Fatalf("expected step_<millis>_<counter> format, got %s", s.ID)
		}
	}
}

func TestCompileRoutingHintFromCompressedIntent(t *testing.T) {
	c := New(nil)
	plan, err := c.Compile(core.IntentSpec{
		Intent:           core.IntentWriteData,
		Spec:             core.Params{"range": "A1"},
		CompressedIntent: core.CompressedAutomation,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.RoutingHint == nil || plan.RoutingHint.Priority != "batch" {
		t.Fatalf("expected a batch routing hint, got %+v", plan.RoutingHint)
	}
}

func TestCompileQueryDataReadsRangeByDefault(t *testing.T) {
	c := New(nil)
	plan, err := c.Compile(core.IntentSpec{
		Intent: core.IntentQueryData,
		Spec:   core.Params{"range": "A1:A10"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(plan.Steps) != 2 {
		t.Fatalf("expected 2 steps, got %d", len(plan.Steps))
	}
	if plan.Steps[0].Action != "read_range" {
		t.Fatalf("expected read_range, got %s", plan.Steps[0].Action)
	}
	if plan.Steps[0].Parameters.String("range", "") != "A1:A10" {
		t.Fatalf("expected range A1:A10, got %v", plan.Steps[0].Parameters["range"])
	}
	if plan.Steps[1].Action != "respond_to_user" {
		t.Fatalf("expected last step to respond, got %s", plan.Steps[1].Action)
	}
}

func TestCompileQueryDataTargetSelectionReadsSelection(t *testing.T) {
	c := New(nil)
	plan, err := c.Compile(core.IntentSpec{
		Intent: core.IntentQueryData,
		Spec:   core.Params{"target": "selection"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	actions := make([]string, len(plan.Steps))
	for i, s := range plan.Steps {
		actions[i] = s.Action
	}
	want := []string{"read_selection", "respond_to_user"}
	if len(actions) != len(want) || actions[0] != want[0] || actions[1] != want[1] {
		t.Fatalf("expected %v, got %v", want, actions)
	}
}

func TestCompileAnalyzeDataTargetSelectionReadsSelection(t *testing.T) {
	c := New(nil)
	plan, err := c.Compile(core.IntentSpec{
		Intent: core.IntentAnalyzeData,
		Spec:   core.Params{"target": "selection"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.Steps[0].Action != "read_selection" {
		t.Fatalf("expected read_selection, got %s", plan.Steps[0].Action)
	}
}

func TestCompileLookupValueTargetSelectionReadsSelection(t *testing.T) {
	c := New(nil)
	plan, err := c.Compile(core.IntentSpec{
		Intent: core.IntentLookupValue,
		Spec:   core.Params{"target": "selection"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.Steps[0].Action != "read_selection" {
		t.Fatalf("expected read_selection, got %s", plan.Steps[0].Action)
	}
}

func errorsAs(err error, target **core.UnsupportedIntent) bool {
	if u, ok := err.(*core.UnsupportedIntent); ok {
		*target = u
		return true
	}
	return false
}
