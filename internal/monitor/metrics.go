package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exports the Execution Monitor's counters to Prometheus.
type Metrics struct {
	ToolCalls     *prometheus.CounterVec
	ToolDuration  *prometheus.HistogramVec
	TaskDuration  prometheus.Histogram
	AlertsTotal   *prometheus.CounterVec
}

// NewMetrics registers the monitor's collectors. Call once per process.
func NewMetrics() *Metrics {
	return &Metrics{
		ToolCalls: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agentcore_tool_usage_total",
				Help: "Tool invocations observed by the execution monitor, by tool and outcome",
			},
			[]string{"tool_name", "status"},
		),
		ToolDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "agentcore_tool_duration_seconds",
				Help:    "Observed tool invocation duration",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
			},
			[]string{"tool_name"},
		),
		TaskDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "agentcore_task_duration_seconds",
				Help:    "Total duration of one orchestration task",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
			},
		),
		AlertsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agentcore_alerts_total",
				Help: "Alerts raised by the execution monitor, by level",
			},
			[]string{"level"},
		),
	}
}

// ToolCallNotFound records an invocation attempted against an
// unregistered tool.
func (m *Metrics) ToolCallNotFound(toolName string) {
	m.ToolCalls.WithLabelValues(toolName, "not_found").Inc()
}

// ToolCallFinished records a resolved (success or failure) tool call.
func (m *Metrics) ToolCallFinished(toolName string, success bool, durationMS int64) {
	status := "failed"
	if success {
		status = "success"
	}
	m.ToolCalls.WithLabelValues(toolName, status).Inc()
	m.ToolDuration.WithLabelValues(toolName).Observe(float64(durationMS) / 1000.0)
}

// AlertRaised records one alert at the given level.
func (m *Metrics) AlertRaised(level string) {
	m.AlertsTotal.WithLabelValues(level).Inc()
}

// TaskFinished records a completed task's total duration.
func (m *Metrics) TaskFinished(durationMS int64) {
	m.TaskDuration.Observe(float64(durationMS) / 1000.0)
}
