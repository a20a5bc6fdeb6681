package core

import "time"

// ExecEventType enumerates the DAG executor's timestamped event kinds.
type ExecEventType string

const (
	EventBatchStart   ExecEventType = "batch:start"
	EventStepStart    ExecEventType = "step:start"
	EventStepComplete ExecEventType = "step:complete"
	EventStepError    ExecEventType = "step:error"
	EventStepSkip     ExecEventType = "step:skip"
	EventRunComplete  ExecEventType = "complete"
)

// ExecEvent is one entry in a single execution's event stream. Only the
// fields relevant to Type are populated.
type ExecEvent struct {
	Type      ExecEventType `json:"type"`
	Timestamp time.Time     `json:"timestamp"`

	// batch:start
	BatchIndex int `json:"batch_index,omitempty"`
	BatchSize  int `json:"batch_size,omitempty"`

	// step:*
	StepID string `json:"step_id,omitempty"`
	Output string `json:"output,omitempty"`
	Error  string `json:"error,omitempty"`
	Reason string `json:"reason,omitempty"`

	// complete
	SuccessCount    int   `json:"success_count,omitempty"`
	FailedCount     int   `json:"failed_count,omitempty"`
	SkippedCount    int   `json:"skipped_count,omitempty"`
	TotalDurationMS int64 `json:"total_duration_ms,omitempty"`
}
