package discovery

import (
	"context"
	"testing"

	"github.com/agentcore/orchestrator/internal/registry"
	"github.com/agentcore/orchestrator/pkg/core"
)

func newFuncTool(name, desc, category string) core.Tool {
	return &core.FuncTool{
		ToolName:        name,
		ToolDescription: desc,
		ToolCategory:    category,
		Fn: func(ctx context.Context, input core.Params) (core.ToolResult, error) {
			return core.ToolResult{Success: true}, nil
		},
	}
}

func newRegistryWithTools(t *testing.T) *registry.Registry {
	t.Helper()
	reg := registry.New(nil)
	tools := []core.Tool{
		newFuncTool("read_range", "Read a range of cells from the active sheet", "read"),
		newFuncTool("write_range", "Write values into a range of cells", "write"),
		newFuncTool("create_chart", "Create a chart visualizing a range", "chart"),
	}
	for _, tool := range tools {
		if err := reg.Register(tool, registry.RegisterOptions{}); err != nil {
			t.Fatalf("register %s: %v", tool.Name(), err)
		}
	}
	return reg
}

func TestDiscoverRanksByActionEntityMatch(t *testing.T) {
	reg := newRegistryWithTools(t)
	d := New(reg)

	ranked := d.Discover(core.IntentAtom{Action: "read", Entity: "range"}, DefaultOptions())
	if len(ranked) == 0 || ranked[0].Name != "read_range" {
		t.Fatalf("expected read_range to rank first, got %+v", ranked)
	}
}

func TestDiscoverRespectsMinScore(t *testing.T) {
	reg := newRegistryWithTools(t)
	d := New(reg)

	opts := DefaultOptions()
	opts.MinScore = 0.99
	ranked := d.Discover(core.IntentAtom{Action: "chart", Entity: "chart"}, opts)
	if len(ranked) != 0 {
		t.Fatalf("expected no matches above an impossible threshold, got %+v", ranked)
	}
}

func TestDiscoverSkipsDisabledTools(t *testing.T) {
	reg := newRegistryWithTools(t)
	if err := reg.Disable("read_range"); err != nil {
		t.Fatal(err)
	}
	d := New(reg)

	ranked := d.Discover(core.IntentAtom{Action: "read", Entity: "range"}, DefaultOptions())
	for _, r := range ranked {
		if r.Name == "read_range" {
			t.Fatal("disabled tool should not be ranked")
		}
	}
}

func TestDiscoverWithFallbackUsesSecondAtomWhenFirstIsEmpty(t *testing.T) {
	reg := newRegistryWithTools(t)
	d := New(reg)

	ranked := d.DiscoverWithFallback(
		core.IntentAtom{Action: "delete", Entity: "workbook"},
		[]core.IntentAtom{{Action: "read", Entity: "range"}},
		DefaultOptions(),
	)
	if len(ranked) == 0 || ranked[0].Name != "read_range" {
		t.Fatalf("expected fallback to reach read_range, got %+v", ranked)
	}
}

func TestUpdateStatsBlendsIntoScore(t *testing.T) {
	reg := newRegistryWithTools(t)
	d := New(reg)
	atom := core.IntentAtom{Action: "write", Entity: "range"}

	before := d.Discover(atom, DefaultOptions())
	if len(before) == 0 {
		t.Fatal("expected write_range to be discoverable before any stats")
	}

	for i := 0; i < 5; i++ {
		d.UpdateStats("write_range", false, 10)
	}

	ranked := d.Discover(atom, DefaultOptions())
	if len(ranked) == 0 {
		t.Fatal("expected write_range to still be discoverable")
	}
	if ranked[0].Score >= before[0].Score {
		t.Fatalf("expected poor success rate to pull the score down, got %v", ranked[0].Score)
	}
}
