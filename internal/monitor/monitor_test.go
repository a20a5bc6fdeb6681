package monitor

import (
	"testing"

	"github.com/agentcore/orchestrator/pkg/core"
)

func TestTaskLifecycleHappyPath(t *testing.T) {
	m := New()
	m.RegisterTools([]string{"read_range", "write_range"})

	m.StartTask("t1", "sum column A")
	m.StartPhase("t1", "parsing")
	m.CompletePhase("t1", "parsing")

	m.StartToolCall("t1", "read_range", core.Params{"range": "A1:A10"})
	m.CompleteToolCall("t1", "read_range", "42")

	m.CompleteTask("t1")

	rec, ok := m.GetTask("t1")
	if !ok {
		t.Fatal("expected task to be found")
	}
	if rec.Status != core.TaskCompleted {
		t.Fatalf("expected completed status, got %s", rec.Status)
	}
	if len(rec.ToolCalls) != 1 || rec.ToolCalls[0].Status != core.ToolCallSuccess {
		t.Fatalf("expected 1 successful tool call, got %+v", rec.ToolCalls)
	}
	if rec.Metrics.SuccessfulToolCalls != 1 {
		t.Fatalf("expected successful tool call tally of 1, got %d", rec.Metrics.SuccessfulToolCalls)
	}
}

func TestStartToolCallAgainstUnregisteredToolIsNotFound(t *testing.T) {
	m := New()
	m.RegisterTools([]string{"read_range"})
	m.StartTask("t1", "request")

	m.StartToolCall("t1", "ghost_tool", nil)

	rec, _ := m.GetTask("t1")
	if len(rec.ToolCalls) != 1 || rec.ToolCalls[0].Status != core.ToolCallNotFound {
		t.Fatalf("expected not_found status, got %+v", rec.ToolCalls)
	}
	if rec.Metrics.SuccessfulToolCalls != 0 || rec.Metrics.FailedToolCalls != 0 {
		t.Fatal("not_found call must not count toward success/failure tallies")
	}
}

func TestFailToolCallIncrementsFailedTally(t *testing.T) {
	m := New()
	m.RegisterTools([]string{"write_range"})
	m.StartTask("t1", "request")
	m.StartToolCall("t1", "write_range", nil)
	m.FailToolCall("t1", "write_range", "permission denied")

	rec, _ := m.GetTask("t1")
	if rec.Metrics.FailedToolCalls != 1 {
		t.Fatalf("expected 1 failed tool call, got %d", rec.Metrics.FailedToolCalls)
	}
	if rec.ToolCalls[0].Error != "permission denied" {
		t.Fatalf("expected error message recorded, got %q", rec.ToolCalls[0].Error)
	}
}

func TestRecordFallbackIncrementsCountAndRaisesAlert(t *testing.T) {
	m := New()
	m.StartTask("t1", "request")

	var seen []core.Alert
	m.AddAlertListener(func(a core.Alert) { seen = append(seen, a) })

	m.RecordFallback("t1", "set_formula", "set_value", "formula engine unavailable")

	rec, _ := m.GetTask("t1")
	if rec.Metrics.FallbackCount != 1 {
		t.Fatalf("expected fallback count 1, got %d", rec.Metrics.FallbackCount)
	}
	if len(seen) != 1 || seen[0].Code != "fallback_used" {
		t.Fatalf("expected listener to observe fallback alert, got %+v", seen)
	}
}

func TestAlertsRaiseAcknowledgeAndUnacknowledged(t *testing.T) {
	m := New()
	m.Raise(core.AlertWarning, "slow_tool", "read_range took 4s", nil)
	m.Raise(core.AlertCritical, "tool_crashed", "write_range panicked", nil)

	unacked := m.GetUnacknowledged()
	if len(unacked) != 2 {
		t.Fatalf("expected 2 unacknowledged alerts, got %d", len(unacked))
	}
	if !m.Acknowledge(0) {
		t.Fatal("expected acknowledge to succeed")
	}
	unacked = m.GetUnacknowledged()
	if len(unacked) != 1 || unacked[0].Code != "tool_crashed" {
		t.Fatalf("expected only tool_crashed unacknowledged, got %+v", unacked)
	}
}

func TestAcknowledgeOutOfRangeReturnsFalse(t *testing.T) {
	m := New()
	if m.Acknowledge(0) {
		t.Fatal("expected acknowledge on empty alert list to fail")
	}
}

func TestStatsAggregatesToolUsageAndTaskCounts(t *testing.T) {
	m := New()
	m.RegisterTools([]string{"read_range", "write_range"})

	m.StartTask("t1", "r1")
	m.StartToolCall("t1", "read_range", nil)
	m.CompleteToolCall("t1", "read_range", "ok")
	m.CompleteTask("t1")

	m.StartTask("t2", "r2")
	m.StartToolCall("t2", "write_range", nil)
	m.FailToolCall("t2", "write_range", "boom")
	m.FailTask("t2")

	stats := m.Stats(10)
	if stats.TotalTasks != 2 || stats.CompletedTasks != 1 || stats.FailedTasks != 1 {
		t.Fatalf("unexpected task tallies: %+v", stats)
	}
	if stats.ToolUsageStats["read_range"].Calls != 1 || stats.ToolUsageStats["read_range"].Failures != 0 {
		t.Fatalf("unexpected read_range stats: %+v", stats.ToolUsageStats["read_range"])
	}
	if stats.ToolUsageStats["write_range"].Failures != 1 {
		t.Fatalf("unexpected write_range stats: %+v", stats.ToolUsageStats["write_range"])
	}
}

func TestConsistencyCheckFindsBothDirections(t *testing.T) {
	m := New()
	m.RegisterTools([]string{"read_range", "write_range", "never_called"})
	m.StartTask("t1", "r1")
	m.StartToolCall("t1", "read_range", nil)
	m.StartToolCall("t1", "ghost_tool", nil)

	c := m.ConsistencyCheck()
	if len(c.UsedButNotRegistered) != 1 || c.UsedButNotRegistered[0] != "ghost_tool" {
		t.Fatalf("expected ghost_tool flagged used-but-not-registered, got %+v", c.UsedButNotRegistered)
	}
	found := false
	for _, n := range c.RegisteredButNeverUsed {
		if n == "never_called" {
			found = true
		}
		if n == "write_range" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected never_called/write_range flagged registered-but-never-used, got %+v", c.RegisteredButNeverUsed)
	}
}

func TestRingEvictsOldestTaskBeyondCapacity(t *testing.T) {
	m := New(WithRingSize(2))
	m.StartTask("t1", "r1")
	m.StartTask("t2", "r2")
	m.StartTask("t3", "r3")

	if _, ok := m.GetTask("t1"); ok {
		t.Fatal("expected oldest task t1 to be evicted")
	}
	if _, ok := m.GetTask("t3"); !ok {
		t.Fatal("expected most recent task t3 to survive")
	}
}
