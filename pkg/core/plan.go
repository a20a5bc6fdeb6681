package core

// PlanPhase is the lifecycle phase of an ExecutionPlan.
type PlanPhase string

const (
	PlanPlanning  PlanPhase = "planning"
	PlanExecuting PlanPhase = "executing"
	PlanCompleted PlanPhase = "completed"
	PlanFailed    PlanPhase = "failed"
)

// StepPhase groups a step into the sensing/execution/response band a
// plan moves through; only the last step of a non-clarify, non-respond
// plan is allowed to be StepResponse (§8 universal property).
type StepPhase string

const (
	StepSensing   StepPhase = "sensing"
	StepExecution StepPhase = "execution"
	StepResponse  StepPhase = "response"
)

// StepStatus is the only mutable field of a DAGNode during execution; it
// transitions monotonically pending -> ready -> running -> (completed |
// failed | skipped).
type StepStatus string

const (
	StepPending   StepStatus = "pending"
	StepReady     StepStatus = "ready"
	StepRunning   StepStatus = "running"
	StepCompleted StepStatus = "completed"
	StepFailed    StepStatus = "failed"
	StepSkipped   StepStatus = "skipped"
)

// Step is one node of a compiled ExecutionPlan.
type Step struct {
	ID               string          `json:"id"`
	Order            int             `json:"order"`
	Phase            StepPhase       `json:"phase"`
	Action           string          `json:"action"`
	Parameters       Params          `json:"parameters"`
	DependsOn        []string        `json:"depends_on"`
	IsWriteOperation bool            `json:"is_write_operation"`
	Status           StepStatus      `json:"status"`
}

// Clone returns a deep-enough copy of the step for recovery substitution,
// where an alternative step is invoked "like a fresh step" without
// disturbing the original.
func (s Step) Clone() Step {
	out := s
	out.Parameters = s.Parameters.Clone()
	out.DependsOn = append([]string(nil), s.DependsOn...)
	return out
}

// ExecutionPlan is the Spec Compiler's pure output.
type ExecutionPlan struct {
	ID                    string    `json:"id"`
	TaskDescription       string    `json:"task_description"`
	Steps                 []Step    `json:"steps"`
	TaskSuccessConditions []string  `json:"task_success_conditions,omitempty"`
	Phase                 PlanPhase `json:"phase"`

	// RoutingHint carries the compressed_intent decoration (§4.4); it
	// never changes step semantics, only downstream presentation.
	RoutingHint *RoutingHint `json:"routing_hint,omitempty"`
}

// RoutingHint is attached to context.__routing_hint by the compiler.
type RoutingHint struct {
	Priority          string   `json:"priority"`
	SuggestedTools    []string `json:"suggested_tools,omitempty"`
	AddDiagnosticStep bool     `json:"add_diagnostic_step,omitempty"`
	Message           string   `json:"message,omitempty"`
}

// StepByID returns the step with the given id, if present.
func (p *ExecutionPlan) StepByID(id string) (Step, bool) {
	for _, s := range p.Steps {
		if s.ID == id {
			return s, true
		}
	}
	return Step{}, false
}

// StepResult is what the DAG executor records for a finished step.
type StepResult struct {
	Success        bool    `json:"success"`
	Output         string  `json:"output"`
	Error          string  `json:"error,omitempty"`
	DurationMS     int64   `json:"duration_ms"`
	Recovered      bool    `json:"recovered,omitempty"`
	RecoveryAction string  `json:"recovery_action,omitempty"`
}

// DAGNode wraps a Step with its scheduling state during one execution.
type DAGNode struct {
	Step         Step
	Status       StepStatus
	Dependencies []string
	Dependents   []string
	Result       *StepResult
	StartTimeMS  int64
	EndTimeMS    int64
}
