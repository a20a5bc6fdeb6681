package core

import "fmt"

// The core never panics across its public boundary; every failure mode
// named in the error-handling design is a typed value implementing
// error, most wrapping an optional Cause so errors.Is/errors.As keep
// working through the stack.

// ParseJsonFailure is recovered locally by the Intent Parser with the
// clarify fallback; it is never expected to surface past internal/intent.
type ParseJsonFailure struct {
	Text  string
	Cause error
}

func (e *ParseJsonFailure) Error() string {
	return fmt.Sprintf("could not extract JSON from LLM output: %v", e.Cause)
}
func (e *ParseJsonFailure) Unwrap() error { return e.Cause }

// UnsupportedIntent is returned by the compiler for an intent kind it has
// no recipe for.
type UnsupportedIntent struct {
	Intent IntentKind
}

func (e *UnsupportedIntent) Error() string {
	return fmt.Sprintf("unsupported intent: %s", e.Intent)
}

// CompileFailure wraps any other deterministic compiler failure.
type CompileFailure struct {
	Reason string
}

func (e *CompileFailure) Error() string { return fmt.Sprintf("compile failure: %s", e.Reason) }

// PlanValidationBlocked carries the blocking errors produced by the
// validator; the orchestrator surfaces this instead of running any step.
type PlanValidationBlocked struct {
	Errors []ValidationIssue
}

func (e *PlanValidationBlocked) Error() string {
	return fmt.Sprintf("plan validation blocked: %d error(s)", len(e.Errors))
}

// ValidationIssue is one finding from a validator rule.
type ValidationIssue struct {
	RuleID   string `json:"rule_id"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
	StepID   string `json:"step_id,omitempty"`
}

// ToolNotFound is a per-step failure that is never retried.
type ToolNotFound struct {
	Name string
}

func (e *ToolNotFound) Error() string { return fmt.Sprintf("tool not found: %s", e.Name) }

// ToolInvocationFailed is consulted against the Recovery Manager; it may
// become retry/substitute/skip, or surface verbatim in step_results.
type ToolInvocationFailed struct {
	Name  string
	Cause error
}

func (e *ToolInvocationFailed) Error() string {
	return fmt.Sprintf("tool invocation failed: %s: %v", e.Name, e.Cause)
}
func (e *ToolInvocationFailed) Unwrap() error { return e.Cause }

// CycleDetected fails the whole run; no step executes.
type CycleDetected struct {
	StepIDs []string
}

func (e *CycleDetected) Error() string {
	return fmt.Sprintf("dependency cycle detected among steps: %v", e.StepIDs)
}

// Cancelled is the terminal run status produced by a cancel signal;
// partially completed steps keep their recorded results.
type Cancelled struct{}

func (e *Cancelled) Error() string { return "execution cancelled" }

// ErrorKind classifies an arbitrary error returned by a Tool so the
// Recovery Manager and retry policy can reason about it without string
// matching at every call site.
type ErrorKind string

const (
	ErrorNetwork    ErrorKind = "network"
	ErrorTransient  ErrorKind = "transient"
	ErrorRangeMiss  ErrorKind = "range_not_found"
	ErrorSheetMiss  ErrorKind = "sheet_not_exist"
	ErrorFormula    ErrorKind = "formula_error"
	ErrorDataFormat ErrorKind = "data_format_error"
	ErrorPermission ErrorKind = "permission_error"
	ErrorUnknown    ErrorKind = "unknown"
)
