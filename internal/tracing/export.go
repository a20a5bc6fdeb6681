package tracing

import (
	"sort"

	"github.com/agentcore/orchestrator/pkg/core"
)

// Export flattens a trace into a list of every span it contains, parent
// first.
func Export(tr *core.Trace) []*core.Span {
	if tr == nil || tr.RootSpan == nil {
		return nil
	}
	var out []*core.Span
	var walk func(s *core.Span)
	walk = func(s *core.Span) {
		out = append(out, s)
		for _, c := range s.Children {
			walk(c)
		}
	}
	walk(tr.RootSpan)
	return out
}

// ExportTree returns the trace's root span unchanged: its Children field
// already forms the nested tree.
func ExportTree(tr *core.Trace) *core.Span {
	if tr == nil {
		return nil
	}
	return tr.RootSpan
}

// ExportTimeline flattens every span's start, end, and event points into
// a single chronologically ordered list.
func ExportTimeline(tr *core.Trace) []core.TimelinePoint {
	spans := Export(tr)
	points := make([]core.TimelinePoint, 0, len(spans)*2)
	for _, s := range spans {
		points = append(points, core.TimelinePoint{TimestampMS: s.StartTimeMS, Kind: "span:start", SpanID: s.ID, Name: s.OperationName})
		if s.EndTimeMS > 0 {
			points = append(points, core.TimelinePoint{TimestampMS: s.EndTimeMS, Kind: "span:end", SpanID: s.ID, Name: s.OperationName})
		}
		for _, ev := range s.Events {
			points = append(points, core.TimelinePoint{TimestampMS: ev.TimestampMS, Kind: "event:" + ev.Name, SpanID: s.ID, Name: ev.Name})
		}
	}
	sort.Slice(points, func(i, j int) bool { return points[i].TimestampMS < points[j].TimestampMS })
	return points
}
