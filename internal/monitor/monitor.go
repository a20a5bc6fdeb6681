// Package monitor implements the Execution Monitor (C9): an in-memory,
// append-only record of task lifecycles and tool-call audit trails, an
// alert feed, and aggregate statistics, with an optional SQL-backed
// persistence layer and Prometheus export layered underneath.
package monitor

import (
	"sort"
	"sync"
	"time"

	"github.com/agentcore/orchestrator/pkg/core"
)

// DefaultRingSize bounds how many TaskRecords, running or finished, are
// retained in memory; StartTask evicts the oldest beyond it.
const DefaultRingSize = 200

// AlertListener is notified synchronously whenever Raise records a new
// alert.
type AlertListener func(core.Alert)

// Monitor tracks task lifecycles, tool-call audits, and alerts for a
// running orchestrator.
type Monitor struct {
	mu sync.Mutex

	ringCap int
	tasks   map[string]*core.TaskRecord
	order   []string // task IDs in insertion order, bounds the ring

	alerts    []core.Alert
	listeners []AlertListener

	registered map[string]bool // register_tools(names[])
	used       map[string]bool // every tool_name ever passed to start_tool_call

	metrics *Metrics
	store   Store
}

// Option configures a Monitor at construction time.
type Option func(*Monitor)

// WithRingSize overrides DefaultRingSize.
func WithRingSize(n int) Option {
	return func(m *Monitor) {
		if n > 0 {
			m.ringCap = n
		}
	}
}

// WithMetrics attaches a Prometheus exporter updated alongside every
// in-memory mutation.
func WithMetrics(metrics *Metrics) Option {
	return func(m *Monitor) { m.metrics = metrics }
}

// WithStore attaches a persistence backend written through alongside
// the in-memory ring.
func WithStore(store Store) Option {
	return func(m *Monitor) { m.store = store }
}

// New builds a Monitor with no tasks, alerts, or registered tools.
func New(opts ...Option) *Monitor {
	m := &Monitor{
		ringCap:    DefaultRingSize,
		tasks:      make(map[string]*core.TaskRecord),
		registered: make(map[string]bool),
		used:       make(map[string]bool),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

func nowMS() int64 { return time.Now().UnixNano() / int64(time.Millisecond) }

// RegisterTools supplies the catalog of tool names considered
// registered, for the consistency check.
func (m *Monitor) RegisterTools(names []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range names {
		m.registered[n] = true
	}
}

// StartTask opens a new, running TaskRecord.
func (m *Monitor) StartTask(id, request string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec := &core.TaskRecord{TaskID: id, Request: request, Status: core.TaskRunning}
	m.tasks[id] = rec
	m.order = append(m.order, id)
	m.evictLocked()
	if m.store != nil {
		m.store.SaveTask(rec)
	}
}

func (m *Monitor) evictLocked() {
	for len(m.order) > m.ringCap {
		stale := m.order[0]
		m.order = m.order[1:]
		delete(m.tasks, stale)
	}
}

// StartPhase appends a running phase entry.
func (m *Monitor) StartPhase(id, phaseName string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.tasks[id]
	if !ok {
		return
	}
	rec.Phases = append(rec.Phases, core.PhaseRecord{PhaseName: phaseName, Status: core.TaskRunning})
}

// CompletePhase marks the named phase's most recent entry completed.
func (m *Monitor) CompletePhase(id, phaseName string) {
	m.updatePhaseLocked(id, phaseName, core.TaskCompleted, "")
}

// FailPhase marks the named phase's most recent entry failed.
func (m *Monitor) FailPhase(id, phaseName, errMsg string) {
	m.updatePhaseLocked(id, phaseName, core.TaskFailed, errMsg)
}

func (m *Monitor) updatePhaseLocked(id, phaseName string, status core.TaskStatus, errMsg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.tasks[id]
	if !ok {
		return
	}
	for i := len(rec.Phases) - 1; i >= 0; i-- {
		if rec.Phases[i].PhaseName == phaseName {
			rec.Phases[i].Status = status
			rec.Phases[i].Error = errMsg
			return
		}
	}
}

// StartToolCall appends a running tool-call entry. A call against a
// tool absent from the registered set is recorded with status
// not_found and never counts toward fail/success tallies.
func (m *Monitor) StartToolCall(id, toolName string, input core.Params) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.tasks[id]
	if !ok {
		return
	}
	m.used[toolName] = true
	status := core.ToolCallRunning
	if !m.registered[toolName] {
		status = core.ToolCallNotFound
	}
	rec.ToolCalls = append(rec.ToolCalls, core.ToolCallRecord{
		ToolName:    toolName,
		Input:       input,
		Status:      status,
		StartedAtMS: nowMS(),
	})
	if m.metrics != nil && status == core.ToolCallNotFound {
		m.metrics.ToolCallNotFound(toolName)
	}
}

// CompleteToolCall resolves the most recent running entry for toolName
// as a success.
func (m *Monitor) CompleteToolCall(id, toolName string, output core.Value) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.tasks[id]
	if !ok {
		return
	}
	call := findRunningCallLocked(rec, toolName)
	if call == nil {
		return
	}
	call.Status = core.ToolCallSuccess
	call.Output = output
	call.FinishedAtMS = nowMS()
	rec.Metrics.SuccessfulToolCalls++
	if m.metrics != nil {
		m.metrics.ToolCallFinished(toolName, true, call.FinishedAtMS-call.StartedAtMS)
	}
}

// FailToolCall resolves the most recent running entry for toolName as a
// failure.
func (m *Monitor) FailToolCall(id, toolName, errMsg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.tasks[id]
	if !ok {
		return
	}
	call := findRunningCallLocked(rec, toolName)
	if call == nil {
		return
	}
	call.Status = core.ToolCallFailed
	call.Error = errMsg
	call.FinishedAtMS = nowMS()
	rec.Metrics.FailedToolCalls++
	if m.metrics != nil {
		m.metrics.ToolCallFinished(toolName, false, call.FinishedAtMS-call.StartedAtMS)
	}
}

func findRunningCallLocked(rec *core.TaskRecord, toolName string) *core.ToolCallRecord {
	for i := len(rec.ToolCalls) - 1; i >= 0; i-- {
		if rec.ToolCalls[i].ToolName == toolName && rec.ToolCalls[i].Status == core.ToolCallRunning {
			return &rec.ToolCalls[i]
		}
	}
	return nil
}

// RecordFallback bumps the task's fallback counter and raises an info
// alert naming the substitution.
func (m *Monitor) RecordFallback(id, original, fallback, reason string) {
	m.mu.Lock()
	if rec, ok := m.tasks[id]; ok {
		rec.Metrics.FallbackCount++
	}
	m.mu.Unlock()
	m.Raise(core.AlertInfo, "fallback_used", original+" substituted with "+fallback, map[string]any{
		"task_id": id, "original": original, "fallback": fallback, "reason": reason,
	})
}

// CompleteTask marks a task completed and stamps its total duration.
func (m *Monitor) CompleteTask(id string) {
	m.finishTask(id, core.TaskCompleted)
}

// FailTask marks a task failed and stamps its total duration.
func (m *Monitor) FailTask(id string) {
	m.finishTask(id, core.TaskFailed)
}

func (m *Monitor) finishTask(id string, status core.TaskStatus) {
	m.mu.Lock()
	rec, ok := m.tasks[id]
	if ok {
		rec.Status = status
		var total int64
		for _, c := range rec.ToolCalls {
			if c.FinishedAtMS > 0 {
				total += c.FinishedAtMS - c.StartedAtMS
			}
		}
		rec.Metrics.TotalDurationMS = total
	}
	store := m.store
	m.mu.Unlock()
	if ok && store != nil {
		store.SaveTask(rec)
	}
}

// GetTask returns a snapshot of one task's record.
func (m *Monitor) GetTask(id string) (core.TaskRecord, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.tasks[id]
	if !ok {
		return core.TaskRecord{}, false
	}
	return *rec, true
}

// Raise records a new alert, notifying every listener synchronously.
func (m *Monitor) Raise(level core.AlertLevel, code, message string, meta map[string]any) core.Alert {
	alert := core.Alert{Level: level, Code: code, Message: message, Meta: meta, TimestampMS: nowMS()}
	m.mu.Lock()
	m.alerts = append(m.alerts, alert)
	listeners := append([]AlertListener(nil), m.listeners...)
	if m.metrics != nil {
		m.metrics.AlertRaised(string(level))
	}
	m.mu.Unlock()
	for _, l := range listeners {
		l(alert)
	}
	return alert
}

// GetUnacknowledged returns every alert not yet acknowledged, oldest
// first.
func (m *Monitor) GetUnacknowledged() []core.Alert {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []core.Alert
	for _, a := range m.alerts {
		if !a.Acknowledged {
			out = append(out, a)
		}
	}
	return out
}

// Acknowledge marks the alert at index acknowledged.
func (m *Monitor) Acknowledge(index int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if index < 0 || index >= len(m.alerts) {
		return false
	}
	m.alerts[index].Acknowledged = true
	return true
}

// AddAlertListener registers a callback invoked on every future Raise.
func (m *Monitor) AddAlertListener(l AlertListener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, l)
}

// ToolUsageStat summarizes one tool's observed calls.
type ToolUsageStat struct {
	Calls         int     `json:"calls"`
	Failures      int     `json:"failures"`
	AvgDurationMS float64 `json:"avg_duration_ms"`
}

// Statistics is the aggregate view returned by Stats.
type Statistics struct {
	TotalTasks     int                      `json:"total_tasks"`
	CompletedTasks int                      `json:"completed_tasks"`
	FailedTasks    int                      `json:"failed_tasks"`
	ToolUsageStats map[string]ToolUsageStat `json:"tool_usage_stats"`
	TopAlerts      []core.Alert             `json:"top_alerts"`
}

// Stats computes the full-corpus statistics view.
func (m *Monitor) Stats(topAlertsN int) Statistics {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := Statistics{ToolUsageStats: make(map[string]ToolUsageStat)}
	type acc struct {
		calls, failures int
		totalDur        int64
	}
	accs := make(map[string]*acc)

	for _, id := range m.order {
		rec, ok := m.tasks[id]
		if !ok {
			continue
		}
		stats.TotalTasks++
		switch rec.Status {
		case core.TaskCompleted:
			stats.CompletedTasks++
		case core.TaskFailed:
			stats.FailedTasks++
		}
		for _, c := range rec.ToolCalls {
			if c.Status == core.ToolCallNotFound {
				continue
			}
			a, ok := accs[c.ToolName]
			if !ok {
				a = &acc{}
				accs[c.ToolName] = a
			}
			a.calls++
			if c.Status == core.ToolCallFailed {
				a.failures++
			}
			if c.FinishedAtMS > 0 {
				a.totalDur += c.FinishedAtMS - c.StartedAtMS
			}
		}
	}
	for name, a := range accs {
		avg := 0.0
		if a.calls > 0 {
			avg = float64(a.totalDur) / float64(a.calls)
		}
		stats.ToolUsageStats[name] = ToolUsageStat{Calls: a.calls, Failures: a.failures, AvgDurationMS: avg}
	}

	sorted := append([]core.Alert(nil), m.alerts...)
	sort.Slice(sorted, func(i, j int) bool {
		rank := func(l core.AlertLevel) int {
			switch l {
			case core.AlertCritical:
				return 3
			case core.AlertError:
				return 2
			case core.AlertWarning:
				return 1
			default:
				return 0
			}
		}
		if rank(sorted[i].Level) != rank(sorted[j].Level) {
			return rank(sorted[i].Level) > rank(sorted[j].Level)
		}
		return sorted[i].TimestampMS > sorted[j].TimestampMS
	})
	if topAlertsN <= 0 || topAlertsN > len(sorted) {
		topAlertsN = len(sorted)
	}
	stats.TopAlerts = sorted[:topAlertsN]
	return stats
}

// Consistency is the result of ConsistencyCheck.
type Consistency struct {
	UsedButNotRegistered    []string `json:"used_but_not_registered"`
	RegisteredButNeverUsed  []string `json:"registered_but_never_used"`
}

// ConsistencyCheck diffs the registered tool catalog against the set of
// tool names ever passed to StartToolCall.
func (m *Monitor) ConsistencyCheck() Consistency {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out Consistency
	for name := range m.used {
		if !m.registered[name] {
			out.UsedButNotRegistered = append(out.UsedButNotRegistered, name)
		}
	}
	for name := range m.registered {
		if !m.used[name] {
			out.RegisteredButNeverUsed = append(out.RegisteredButNeverUsed, name)
		}
	}
	sort.Strings(out.UsedButNotRegistered)
	sort.Strings(out.RegisteredButNeverUsed)
	return out
}

// Prune drops finished task records whose first tool call started more
// than maxAge ago, returning the count removed. A record's age is taken
// from its first tool call, so records with no tool calls are never
// pruned here, nor are running ones. Used by the cron-scheduled
// retention job.
func (m *Monitor) Prune(maxAge time.Duration) int {
	cutoff := nowMS() - maxAge.Milliseconds()
	m.mu.Lock()
	defer m.mu.Unlock()
	var kept []string
	removed := 0
	for _, id := range m.order {
		rec, ok := m.tasks[id]
		if !ok {
			continue
		}
		oldest := int64(0)
		if len(rec.Phases) == 0 && len(rec.ToolCalls) == 0 {
			oldest = 0
		} else if len(rec.ToolCalls) > 0 {
			oldest = rec.ToolCalls[0].StartedAtMS
		}
		if oldest > 0 && oldest < cutoff && rec.Status != core.TaskRunning {
			delete(m.tasks, id)
			removed++
			continue
		}
		kept = append(kept, id)
	}
	m.order = kept
	return removed
}
