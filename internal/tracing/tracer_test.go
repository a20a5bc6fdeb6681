package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/agentcore/orchestrator/pkg/core"
)

func newTestTracer() *Tracer {
	return New(nil, 2)
}

func TestStartRunProducesRootSpan(t *testing.T) {
	tr := newTestTracer()
	ctx, trace := tr.StartRun(context.Background(), "orchestrate", core.SpanUser)
	if trace.RootSpan == nil {
		t.Fatal("expected root span")
	}
	if trace.RootSpan.OperationName != "orchestrate" {
		t.Fatalf("got operation name %q", trace.RootSpan.OperationName)
	}
	tr.FinishRun(ctx, &core.TraceResponse{Success: true})
}

func TestStartSpanNestsUnderParent(t *testing.T) {
	tr := newTestTracer()
	ctx, trace := tr.StartRun(context.Background(), "orchestrate", core.SpanUser)

	child := tr.StartSpan(ctx, "discover_tools", core.SpanInternal)
	tr.SetAttr(child, "candidate_count", 3)
	tr.EndSpan(child, core.SpanOK, nil)

	tr.FinishRun(ctx, &core.TraceResponse{Success: true})

	if len(trace.RootSpan.Children) != 1 {
		t.Fatalf("expected 1 child span, got %d", len(trace.RootSpan.Children))
	}
	kid := trace.RootSpan.Children[0]
	if kid.OperationName != "discover_tools" {
		t.Fatalf("got child name %q", kid.OperationName)
	}
	if kid.Attributes["candidate_count"] != 3 {
		t.Fatalf("attribute not recorded: %v", kid.Attributes)
	}
	if kid.Status != core.SpanOK {
		t.Fatalf("expected ok status, got %s", kid.Status)
	}
}

func TestEndSpanWithErrorSetsErrorStatus(t *testing.T) {
	tr := newTestTracer()
	ctx, trace := tr.StartRun(context.Background(), "orchestrate", core.SpanUser)

	child := tr.StartSpan(ctx, "invoke_tool", core.SpanTool)
	tr.EndSpan(child, core.SpanError, errors.New("timeout"))
	tr.FinishRun(ctx, &core.TraceResponse{Success: false, Error: "timeout"})

	kid := trace.RootSpan.Children[0]
	if kid.Status != core.SpanError {
		t.Fatalf("expected error status, got %s", kid.Status)
	}
	if kid.Error != "timeout" {
		t.Fatalf("expected error message recorded, got %q", kid.Error)
	}
}

func TestAddEventRecordsOnStackTop(t *testing.T) {
	tr := newTestTracer()
	ctx, trace := tr.StartRun(context.Background(), "orchestrate", core.SpanUser)
	tr.AddEvent(ctx, "plan_compiled", map[string]any{"steps": 4})
	tr.FinishRun(ctx, &core.TraceResponse{Success: true})

	if len(trace.RootSpan.Events) != 1 || trace.RootSpan.Events[0].Name != "plan_compiled" {
		t.Fatalf("expected recorded event, got %+v", trace.RootSpan.Events)
	}
}

func TestTraceAsyncEndsOkOnSuccess(t *testing.T) {
	tr := newTestTracer()
	ctx, trace := tr.StartRun(context.Background(), "orchestrate", core.SpanUser)

	err := tr.TraceAsync(ctx, "compile_plan", core.SpanInternal, func(context.Context) error {
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tr.FinishRun(ctx, &core.TraceResponse{Success: true})

	kid := trace.RootSpan.Children[0]
	if kid.Status != core.SpanOK {
		t.Fatalf("expected ok, got %s", kid.Status)
	}
}

func TestTraceAsyncEndsErrorOnFailure(t *testing.T) {
	tr := newTestTracer()
	ctx, trace := tr.StartRun(context.Background(), "orchestrate", core.SpanUser)

	boom := errors.New("boom")
	err := tr.TraceAsync(ctx, "compile_plan", core.SpanInternal, func(context.Context) error {
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom error, got %v", err)
	}
	tr.FinishRun(ctx, &core.TraceResponse{Success: false, Error: "boom"})

	kid := trace.RootSpan.Children[0]
	if kid.Status != core.SpanError || kid.Error != "boom" {
		t.Fatalf("expected error span, got %+v", kid)
	}
}

func TestFinishRunAppendsToRingBufferAndEvicts(t *testing.T) {
	tr := newTestTracer() // ringCap 2

	var last *core.Trace
	for i := 0; i < 3; i++ {
		ctx, _ := tr.StartRun(context.Background(), "orchestrate", core.SpanUser)
		last = tr.FinishRun(ctx, &core.TraceResponse{Success: true})
	}

	recent := tr.RecentTraces()
	if len(recent) != 2 {
		t.Fatalf("expected ring capped at 2, got %d", len(recent))
	}
	if recent[len(recent)-1].TraceID != last.TraceID {
		t.Fatal("expected most recent trace to be last in ring")
	}
}

func TestExportFlattensAllSpans(t *testing.T) {
	tr := newTestTracer()
	ctx, trace := tr.StartRun(context.Background(), "orchestrate", core.SpanUser)
	c1 := tr.StartSpan(ctx, "discover", core.SpanInternal)
	tr.EndSpan(c1, core.SpanOK, nil)
	c2 := tr.StartSpan(ctx, "execute", core.SpanTool)
	tr.EndSpan(c2, core.SpanOK, nil)
	tr.FinishRun(ctx, &core.TraceResponse{Success: true})

	flat := Export(trace)
	if len(flat) != 3 {
		t.Fatalf("expected 3 spans (root + 2 children), got %d", len(flat))
	}
	if flat[0] != trace.RootSpan {
		t.Fatal("expected root span first")
	}
}

func TestExportTreeReturnsRoot(t *testing.T) {
	tr := newTestTracer()
	ctx, trace := tr.StartRun(context.Background(), "orchestrate", core.SpanUser)
	tr.FinishRun(ctx, &core.TraceResponse{Success: true})

	if ExportTree(trace) != trace.RootSpan {
		t.Fatal("expected tree root to equal RootSpan")
	}
}

func TestExportTimelineIsChronological(t *testing.T) {
	tr := newTestTracer()
	ctx, trace := tr.StartRun(context.Background(), "orchestrate", core.SpanUser)
	child := tr.StartSpan(ctx, "discover", core.SpanInternal)
	tr.AddEvent(child, "candidate_found", nil)
	tr.EndSpan(child, core.SpanOK, nil)
	tr.FinishRun(ctx, &core.TraceResponse{Success: true})

	timeline := ExportTimeline(trace)
	if len(timeline) == 0 {
		t.Fatal("expected non-empty timeline")
	}
	for i := 1; i < len(timeline); i++ {
		if timeline[i].TimestampMS < timeline[i-1].TimestampMS {
			t.Fatalf("timeline not sorted at index %d", i)
		}
	}
}

func TestSpanOpsNoOpWithoutActiveTrace(t *testing.T) {
	tr := newTestTracer()
	ctx := context.Background() // no StartRun called

	// None of these should panic when there is no active trace on ctx.
	sub := tr.StartSpan(ctx, "orphan", core.SpanInternal)
	tr.SetAttr(sub, "k", "v")
	tr.AddEvent(sub, "evt", nil)
	tr.RecordError(sub, errors.New("x"))
	tr.EndSpan(sub, core.SpanOK, nil)
	if tr.FinishRun(sub, nil) != nil {
		t.Fatal("expected nil trace when no active run")
	}
}
