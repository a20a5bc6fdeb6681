// Package tracing implements the Tracer (C8): one hierarchical trace per
// orchestration call, with a task-local span stack threaded through
// context.Context (Go's equivalent of a thread-local), bridged onto a
// real OpenTelemetry exporter so spans also leave the process.
package tracing

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	otelcodes "go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/agentcore/orchestrator/internal/observability"
	"github.com/agentcore/orchestrator/pkg/core"
)

// DefaultRingSize is how many completed traces are retained in memory.
const DefaultRingSize = 50

type ctxKey struct{}

// activeTrace is the task-local state threaded through a context: the
// trace under construction and its currently-open span stack.
type activeTrace struct {
	mu    sync.Mutex
	trace *core.Trace
	stack []*core.Span
	otel  []oteltrace.Span
}

// Tracer owns the OpenTelemetry bridge and the in-memory ring buffer of
// completed traces.
type Tracer struct {
	otel *observability.Tracer

	mu      sync.Mutex
	ring    []*core.Trace
	ringCap int
}

// New builds a Tracer. otelTracer may be nil (tests, or tracing
// disabled), in which case spans are recorded locally only.
func New(otelTracer *observability.Tracer, ringSize int) *Tracer {
	if ringSize <= 0 {
		ringSize = DefaultRingSize
	}
	return &Tracer{otel: otelTracer, ringCap: ringSize}
}

func (t *Tracer) nowMS() int64 { return time.Now().UnixNano() / int64(time.Millisecond) }

// StartRun opens the root span of a new trace and returns a context
// carrying the active stack.
func (t *Tracer) StartRun(ctx context.Context, name string, spanType core.SpanType) (context.Context, *core.Trace) {
	traceID := uuid.NewString()
	root := &core.Span{
		ID:            uuid.NewString(),
		TraceID:       traceID,
		OperationName: name,
		Type:          spanType,
		Status:        core.SpanRunning,
		StartTimeMS:   t.nowMS(),
	}
	tr := &core.Trace{TraceID: traceID, RootSpan: root, StartTimeMS: root.StartTimeMS}
	at := &activeTrace{trace: tr, stack: []*core.Span{root}}

	ctx = context.WithValue(ctx, ctxKey{}, at)
	if t.otel != nil {
		var span oteltrace.Span
		ctx, span = t.otel.Start(ctx, name)
		at.otel = append(at.otel, span)
	}
	return ctx, tr
}

func fromCtx(ctx context.Context) *activeTrace {
	at, _ := ctx.Value(ctxKey{}).(*activeTrace)
	return at
}

// StartSpan pushes a new child span onto the stack, parented to
// whatever is currently on top.
func (t *Tracer) StartSpan(ctx context.Context, name string, spanType core.SpanType) context.Context {
	at := fromCtx(ctx)
	if at == nil {
		return ctx
	}
	at.mu.Lock()
	parent := at.stack[len(at.stack)-1]
	span := &core.Span{
		ID:            uuid.NewString(),
		ParentID:      parent.ID,
		TraceID:       at.trace.TraceID,
		OperationName: name,
		Type:          spanType,
		Status:        core.SpanRunning,
		StartTimeMS:   t.nowMS(),
	}
	at.stack = append(at.stack, span)
	at.mu.Unlock()

	if t.otel != nil {
		var oSpan oteltrace.Span
		ctx, oSpan = t.otel.Start(ctx, name)
		at.mu.Lock()
		at.otel = append(at.otel, oSpan)
		at.mu.Unlock()
	}
	return ctx
}

// EndSpan pops the stack top, computes its duration, and attaches it to
// its parent's children (or sets it as the finished root).
func (t *Tracer) EndSpan(ctx context.Context, status core.SpanStatus, err error) {
	at := fromCtx(ctx)
	if at == nil || len(at.stack) == 0 {
		return
	}
	at.mu.Lock()
	span := at.stack[len(at.stack)-1]
	at.stack = at.stack[:len(at.stack)-1]
	span.EndTimeMS = t.nowMS()
	span.DurationMS = span.EndTimeMS - span.StartTimeMS
	span.Status = status
	if err != nil {
		span.Error = err.Error()
		span.Status = core.SpanError
	}
	if len(at.stack) > 0 {
		parent := at.stack[len(at.stack)-1]
		parent.Children = append(parent.Children, span)
	}

	var oSpan oteltrace.Span
	if len(at.otel) > 0 {
		oSpan = at.otel[len(at.otel)-1]
		at.otel = at.otel[:len(at.otel)-1]
	}
	at.mu.Unlock()

	if oSpan != nil {
		if err != nil {
			oSpan.RecordError(err)
			oSpan.SetStatus(otelcodes.Error, err.Error())
		} else if status == core.SpanOK {
			oSpan.SetStatus(otelcodes.Ok, "")
		}
		oSpan.End()
	}
}

// SetAttr attaches an attribute to the span currently on top of the
// stack.
func (t *Tracer) SetAttr(ctx context.Context, key string, value any) {
	at := fromCtx(ctx)
	if at == nil || len(at.stack) == 0 {
		return
	}
	at.mu.Lock()
	defer at.mu.Unlock()
	span := at.stack[len(at.stack)-1]
	if span.Attributes == nil {
		span.Attributes = map[string]any{}
	}
	span.Attributes[key] = value
}

// AddEvent attaches a timestamped annotation to the span currently on
// top of the stack.
func (t *Tracer) AddEvent(ctx context.Context, name string, attrs map[string]any) {
	at := fromCtx(ctx)
	if at == nil || len(at.stack) == 0 {
		return
	}
	at.mu.Lock()
	defer at.mu.Unlock()
	span := at.stack[len(at.stack)-1]
	span.Events = append(span.Events, core.SpanEvent{Name: name, TimestampMS: t.nowMS(), Attributes: attrs})
}

// RecordError marks the span currently on top of the stack as failed
// without popping it; EndSpan may still override the final status.
func (t *Tracer) RecordError(ctx context.Context, err error) {
	at := fromCtx(ctx)
	if at == nil || len(at.stack) == 0 || err == nil {
		return
	}
	at.mu.Lock()
	defer at.mu.Unlock()
	span := at.stack[len(at.stack)-1]
	span.Error = err.Error()
}

// TraceAsync runs op inside a new span, ending it with status ok or
// error depending on op's return.
func (t *Tracer) TraceAsync(ctx context.Context, name string, spanType core.SpanType, op func(context.Context) error) error {
	spanCtx := t.StartSpan(ctx, name, spanType)
	err := op(spanCtx)
	if err != nil {
		t.EndSpan(spanCtx, core.SpanError, err)
		return err
	}
	t.EndSpan(spanCtx, core.SpanOK, nil)
	return nil
}

// FinishRun ends the root span, computes the trace's total duration,
// attaches the optional response, and pushes it into the ring buffer.
func (t *Tracer) FinishRun(ctx context.Context, resp *core.TraceResponse) *core.Trace {
	at := fromCtx(ctx)
	if at == nil {
		return nil
	}
	status := core.SpanOK
	if resp != nil && !resp.Success {
		status = core.SpanError
	}
	t.EndSpan(ctx, status, nil)

	at.mu.Lock()
	tr := at.trace
	tr.EndTimeMS = tr.RootSpan.EndTimeMS
	tr.TotalDurationMS = tr.EndTimeMS - tr.StartTimeMS
	tr.Response = resp
	at.mu.Unlock()

	t.mu.Lock()
	t.ring = append(t.ring, tr)
	if len(t.ring) > t.ringCap {
		t.ring = t.ring[len(t.ring)-t.ringCap:]
	}
	t.mu.Unlock()

	return tr
}

// RecentTraces returns the ring buffer's contents, oldest first.
func (t *Tracer) RecentTraces() []*core.Trace {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*core.Trace, len(t.ring))
	copy(out, t.ring)
	return out
}
