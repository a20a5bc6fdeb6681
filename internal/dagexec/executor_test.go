package dagexec

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/agentcore/orchestrator/internal/recovery"
	"github.com/agentcore/orchestrator/pkg/core"
)

// fakeTool is a minimal core.Tool driven by a closure, for exercising
// the scheduler without a real registry.
type fakeTool struct {
	name string
	fn   func(ctx context.Context, input core.Params) (core.ToolResult, error)
}

func (f *fakeTool) Name() string                          { return f.name }
func (f *fakeTool) Description() string                   { return "" }
func (f *fakeTool) Category() string                       { return "" }
func (f *fakeTool) Parameters() []core.ParameterDescriptor { return nil }
func (f *fakeTool) Invoke(ctx context.Context, input core.Params) (core.ToolResult, error) {
	return f.fn(ctx, input)
}

// fakeRegistry is a minimal ToolLookup.
type fakeRegistry struct {
	mu      sync.Mutex
	tools   map[string]core.Tool
	outcome []string
}

func newFakeRegistry(tools ...core.Tool) *fakeRegistry {
	r := &fakeRegistry{tools: map[string]core.Tool{}}
	for _, t := range tools {
		r.tools[t.Name()] = t
	}
	return r
}

func (r *fakeRegistry) Get(name string) (core.Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

func (r *fakeRegistry) RecordOutcome(name string, success bool, durationMS float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcome = append(r.outcome, name)
}

func okTool(name, output string) *fakeTool {
	return &fakeTool{name: name, fn: func(context.Context, core.Params) (core.ToolResult, error) {
		return core.ToolResult{Success: true, Output: output}, nil
	}}
}

func failTool(name, errMsg string) *fakeTool {
	return &fakeTool{name: name, fn: func(context.Context, core.Params) (core.ToolResult, error) {
		return core.ToolResult{Success: false, Error: errMsg}, nil
	}}
}

func TestExecuteLinearPlanAllSucceed(t *testing.T) {
	reg := newFakeRegistry(okTool("write_range", "ok"), okTool("respond_to_user", "done"))
	ex := New(reg, recovery.New(nil), nil)
	plan := &core.ExecutionPlan{Steps: []core.Step{
		{ID: "s1", Action: "write_range"},
		{ID: "s2", Action: "respond_to_user", DependsOn: []string{"s1"}},
	}}
	res, err := ex.Execute(context.Background(), plan, DefaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Success || res.SuccessCount != 2 || res.FailedCount != 0 {
		t.Fatalf("expected full success, got %+v", res)
	}
}

func TestExecuteCycleDetectedFailsAllSteps(t *testing.T) {
	reg := newFakeRegistry()
	ex := New(reg, recovery.New(nil), nil)
	plan := &core.ExecutionPlan{Steps: []core.Step{
		{ID: "s1", Action: "a", DependsOn: []string{"s2"}},
		{ID: "s2", Action: "b", DependsOn: []string{"s1"}},
	}}
	res, err := ex.Execute(context.Background(), plan, DefaultOptions())
	var cycleErr *core.CycleDetected
	if !errors.As(err, &cycleErr) {
		t.Fatalf("expected a CycleDetected error, got %v", err)
	}
	if res.FailedCount != 2 {
		t.Fatalf("expected every step counted as failed, got %+v", res)
	}
}

func TestExecutePlaceholderResolution(t *testing.T) {
	var seenRange string
	reg := newFakeRegistry(
		okTool("read_range", "A1:A10"),
		&fakeTool{name: "write_range", fn: func(ctx context.Context, input core.Params) (core.ToolResult, error) {
			seenRange, _ = input["range"].(string)
			return core.ToolResult{Success: true, Output: "ok"}, nil
		}},
	)
	ex := New(reg, recovery.New(nil), nil)
	plan := &core.ExecutionPlan{Steps: []core.Step{
		{ID: "s1", Action: "read_range"},
		{ID: "s2", Action: "write_range", DependsOn: []string{"s1"}, Parameters: core.Params{"range": "{{previous}}"}},
	}}
	_, err := ex.Execute(context.Background(), plan, DefaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seenRange != "A1:A10" {
		t.Fatalf("expected {{previous}} resolved to A1:A10, got %q", seenRange)
	}
}

func TestExecuteFailurePropagatesSkipToDependents(t *testing.T) {
	reg := newFakeRegistry(failTool("write_range", "permission denied"), okTool("respond_to_user", "done"))
	ex := New(reg, recovery.New(nil), nil)
	plan := &core.ExecutionPlan{Steps: []core.Step{
		{ID: "s1", Action: "write_range", IsWriteOperation: true},
		{ID: "s2", Action: "respond_to_user", DependsOn: []string{"s1"}},
	}}
	opts := DefaultOptions()
	var events []core.ExecEvent
	opts.OnEvent = func(e core.ExecEvent) { events = append(events, e) }
	res, err := ex.Execute(context.Background(), plan, opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.FailedCount != 1 || res.SkippedCount != 1 {
		t.Fatalf("expected 1 failed + 1 skipped, got %+v", res)
	}
	var sawSkip bool
	for _, e := range events {
		if e.Type == core.EventStepSkip && e.StepID == "s2" {
			sawSkip = true
		}
	}
	if !sawSkip {
		t.Fatal("expected a step:skip event for s2")
	}
}

func TestExecuteContinueOnFailureFalseStopsLoop(t *testing.T) {
	reg := newFakeRegistry(failTool("write_range", "permission denied"), okTool("respond_to_user", "done"))
	ex := New(reg, recovery.New(nil), nil)
	plan := &core.ExecutionPlan{Steps: []core.Step{
		{ID: "s1", Action: "write_range", IsWriteOperation: true},
		{ID: "s2", Action: "respond_to_user", DependsOn: []string{"s1"}},
	}}
	opts := Options{MaxConcurrency: 5, ContinueOnFailure: false}
	res, _ := ex.Execute(context.Background(), plan, opts)
	if _, ok := res.StepResults["s2"]; ok {
		t.Fatalf("expected s2 never to run when continue_on_failure is false, got %+v", res.StepResults["s2"])
	}
}

func TestExecuteRetryRecoversFromNetworkError(t *testing.T) {
	var calls int
	reg := newFakeRegistry(&fakeTool{name: "fetch", fn: func(context.Context, core.Params) (core.ToolResult, error) {
		calls++
		if calls == 1 {
			return core.ToolResult{Success: false, Error: "network timeout"}, nil
		}
		return core.ToolResult{Success: true, Output: "recovered"}, nil
	}})
	ex := New(reg, recovery.New(nil), nil)
	plan := &core.ExecutionPlan{Steps: []core.Step{{ID: "s1", Action: "fetch"}}}
	start := time.Now()
	res, err := ex.Execute(context.Background(), plan, DefaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.SuccessCount != 1 {
		t.Fatalf("expected the retried call to succeed, got %+v", res.StepResults["s1"])
	}
	if time.Since(start) < 2*time.Second {
		t.Fatal("expected the 2000ms network_error retry delay to have elapsed")
	}
	if calls != 2 {
		t.Fatalf("expected exactly one retry attempt, got %d calls", calls)
	}
}

func TestExecuteSkipStrategyYieldsSyntheticSuccess(t *testing.T) {
	reg := newFakeRegistry(failTool("set_formula", "formula error: bad reference"))
	ex := New(reg, recovery.New(nil), nil)
	plan := &core.ExecutionPlan{Steps: []core.Step{{ID: "s1", Action: "set_formula"}}}
	res, err := ex.Execute(context.Background(), plan, DefaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := res.StepResults["s1"]
	if !got.Success || !got.Recovered || got.RecoveryAction != "skip" {
		t.Fatalf("expected a synthetic skip success, got %+v", got)
	}
}

func TestExecuteToolNotFoundFailsWithoutRetry(t *testing.T) {
	reg := newFakeRegistry()
	ex := New(reg, recovery.New(nil), nil)
	plan := &core.ExecutionPlan{Steps: []core.Step{{ID: "s1", Action: "nonexistent_tool"}}}
	res, err := ex.Execute(context.Background(), plan, DefaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := res.StepResults["s1"]
	if got.Success || got.Recovered {
		t.Fatalf("expected a plain unrecovered failure, got %+v", got)
	}
}

func TestExecuteParallelismStatsOneBatch(t *testing.T) {
	reg := newFakeRegistry(okTool("a", "1"), okTool("b", "2"), okTool("c", "3"))
	ex := New(reg, recovery.New(nil), nil)
	plan := &core.ExecutionPlan{Steps: []core.Step{
		{ID: "s1", Action: "a"},
		{ID: "s2", Action: "b"},
		{ID: "s3", Action: "c"},
	}}
	res, err := ex.Execute(context.Background(), plan, DefaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Parallelism.Batches != 1 || res.Parallelism.MaxConcurrent != 3 {
		t.Fatalf("expected a single 3-wide batch, got %+v", res.Parallelism)
	}
}

func TestExecuteRespectsMaxConcurrency(t *testing.T) {
	reg := newFakeRegistry(okTool("a", "1"), okTool("b", "2"), okTool("c", "3"))
	ex := New(reg, recovery.New(nil), nil)
	plan := &core.ExecutionPlan{Steps: []core.Step{
		{ID: "s1", Action: "a"},
		{ID: "s2", Action: "b"},
		{ID: "s3", Action: "c"},
	}}
	res, err := ex.Execute(context.Background(), plan, Options{MaxConcurrency: 2, ContinueOnFailure: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Parallelism.MaxConcurrent > 2 {
		t.Fatalf("expected max_concurrency=2 to cap batch size, got %+v", res.Parallelism)
	}
	if res.Parallelism.Batches != 2 {
		t.Fatalf("expected two batches (2 then 1), got %d", res.Parallelism.Batches)
	}
}

func TestExecuteCancellationStopsBeforeNextBatch(t *testing.T) {
	reg := newFakeRegistry(okTool("a", "1"), okTool("b", "2"))
	ex := New(reg, recovery.New(nil), nil)
	plan := &core.ExecutionPlan{
		Steps: []core.Step{
			{ID: "s1", Action: "a"},
			{ID: "s2", Action: "b", DependsOn: []string{"s1"}},
		},
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := ex.Execute(ctx, plan, DefaultOptions())
	if err == nil {
		t.Fatal("expected a cancellation error when the context is already done")
	}
}

func TestExecuteStreamMatchesNonStreamingOutcome(t *testing.T) {
	reg := newFakeRegistry(okTool("write_range", "ok"), okTool("respond_to_user", "done"))
	plan := &core.ExecutionPlan{Steps: []core.Step{
		{ID: "s1", Action: "write_range"},
		{ID: "s2", Action: "respond_to_user", DependsOn: []string{"s1"}},
	}}

	ex1 := New(reg, recovery.New(nil), nil)
	want, err := ex1.Execute(context.Background(), plan, DefaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ex2 := New(reg, recovery.New(nil), nil)
	var final *Result
	for chunk := range ex2.ExecuteStream(context.Background(), plan, DefaultOptions()) {
		if chunk.Type == "complete" {
			final = chunk.Result
		}
	}
	if final == nil {
		t.Fatal("expected a complete chunk")
	}
	if final.SuccessCount != want.SuccessCount || final.FailedCount != want.FailedCount {
		t.Fatalf("streaming outcome diverged from non-streaming: %+v vs %+v", final, want)
	}
}

func TestResolveParamsLeavesNonStringValuesUnchanged(t *testing.T) {
	step := core.Step{
		ID:         "s2",
		DependsOn:  []string{"s1"},
		Parameters: core.Params{"values": []any{1.0, 2.0}, "range": "{{s1}}"},
	}
	prior := map[string]core.StepResult{"s1": {Output: "A1:B2"}}
	out := resolveParams(step, prior)
	if out["range"] != "A1:B2" {
		t.Fatalf("expected range resolved, got %v", out["range"])
	}
	if _, ok := out["values"].([]any); !ok {
		t.Fatalf("expected non-string values to pass through unchanged, got %T", out["values"])
	}
}
