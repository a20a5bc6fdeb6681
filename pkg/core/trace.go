package core

// SpanType classifies what kind of operation a span covers.
type SpanType string

const (
	SpanHTTP     SpanType = "http"
	SpanDB       SpanType = "db"
	SpanExcel    SpanType = "excel"
	SpanAI       SpanType = "ai"
	SpanTool     SpanType = "tool"
	SpanInternal SpanType = "internal"
	SpanUser     SpanType = "user"
)

// SpanStatus is the outcome of a closed span, or its in-flight state.
type SpanStatus string

const (
	SpanUnset     SpanStatus = "unset"
	SpanRunning   SpanStatus = "running"
	SpanOK        SpanStatus = "ok"
	SpanError     SpanStatus = "error"
	SpanCancelled SpanStatus = "cancelled"
)

// SpanEvent is a single timestamped annotation attached to a span.
type SpanEvent struct {
	Name       string         `json:"name"`
	TimestampMS int64         `json:"timestamp_ms"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// Span is one node of the hierarchical trace tree built for an
// orchestration call.
type Span struct {
	ID            string         `json:"id"`
	ParentID      string         `json:"parent_id,omitempty"`
	TraceID       string         `json:"trace_id"`
	OperationName string         `json:"operation_name"`
	Type          SpanType       `json:"type"`
	Status        SpanStatus     `json:"status"`
	StartTimeMS   int64          `json:"start_time_ms"`
	EndTimeMS     int64          `json:"end_time_ms,omitempty"`
	DurationMS    int64          `json:"duration_ms,omitempty"`
	Attributes    map[string]any `json:"attributes,omitempty"`
	Events        []SpanEvent    `json:"events,omitempty"`
	Error         string         `json:"error,omitempty"`
	Children      []*Span        `json:"children,omitempty"`
}

// TraceResponse is the optional final outcome attached to a Trace.
type TraceResponse struct {
	Success bool   `json:"success"`
	Content string `json:"content,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Trace is the root record of one orchestration call's span tree.
type Trace struct {
	TraceID          string         `json:"trace_id"`
	RootSpan         *Span          `json:"root_span"`
	StartTimeMS      int64          `json:"start_time_ms"`
	EndTimeMS        int64          `json:"end_time_ms,omitempty"`
	TotalDurationMS  int64          `json:"total_duration_ms,omitempty"`
	Metadata         map[string]any `json:"metadata,omitempty"`
	Response         *TraceResponse `json:"response,omitempty"`
}

// TimelinePoint is one flattened, chronologically ordered entry produced
// by tracing.ExportTimeline — a span boundary or an event.
type TimelinePoint struct {
	TimestampMS int64  `json:"timestamp_ms"`
	Kind        string `json:"kind"` // "span:start" | "span:end" | "event:<event name>"
	SpanID      string `json:"span_id"`
	Name        string `json:"name"`
}
