package dagexec

import (
	"context"
	"errors"
	"time"

	"github.com/agentcore/orchestrator/pkg/core"
)

// executeStep invokes one step's tool, consulting the Recovery Manager
// exactly once on failure: a Retry sleeps then re-invokes one-shot (no
// further recovery on that second attempt); a Substitute invokes the
// alternative step fresh, also with no further recovery; a Skip returns
// a synthetic success; anything else (Abort, or no matching strategy) is
// a final failure.
func (e *Executor) executeStep(ctx context.Context, step core.Step, prior map[string]core.StepResult, emit func(core.ExecEvent)) core.StepResult {
	emit(core.ExecEvent{Type: core.EventStepStart, Timestamp: e.now(), StepID: step.ID})

	tool, ok := e.tools.Get(step.Action)
	if !ok {
		res := core.StepResult{Success: false, Error: (&core.ToolNotFound{Name: step.Action}).Error()}
		emit(core.ExecEvent{Type: core.EventStepError, Timestamp: e.now(), StepID: step.ID, Error: res.Error})
		return res
	}

	start := time.Now()
	params := resolveParams(step, prior)
	if pv, ok := e.tools.(paramValidator); ok {
		if err := pv.ValidateParams(step.Action, params); err != nil {
			dur := time.Since(start).Milliseconds()
			e.tools.RecordOutcome(step.Action, false, float64(dur))
			return e.finalFailure(step, err.Error(), dur, emit)
		}
	}
	toolRes, err := e.invoke(ctx, tool, params)
	dur := time.Since(start).Milliseconds()

	if err == nil && toolRes.Success {
		e.tools.RecordOutcome(step.Action, true, float64(dur))
		res := core.StepResult{Success: true, Output: toolRes.OutputString(), DurationMS: dur}
		emit(core.ExecEvent{Type: core.EventStepComplete, Timestamp: e.now(), StepID: step.ID, Output: res.Output})
		return res
	}

	failErr := err
	if failErr == nil {
		failErr = errors.New(toolRes.Error)
	}
	failErr = &core.ToolInvocationFailed{Name: step.Action, Cause: failErr}
	e.tools.RecordOutcome(step.Action, false, float64(dur))

	if e.recovery == nil {
		return e.finalFailure(step, failErr.Error(), dur, emit)
	}
	action, ok := e.recovery.Recover(failErr, step)
	if !ok {
		return e.finalFailure(step, failErr.Error(), dur, emit)
	}

	switch action.Kind {
	case core.ActionRetry:
		if !e.sleepCancelAware(ctx, action.DelayMS) {
			return e.finalFailure(step, "cancelled during retry delay", dur, emit)
		}
		retryStart := time.Now()
		toolRes2, err2 := e.invoke(ctx, tool, params)
		retryDur := dur + time.Since(retryStart).Milliseconds()
		if err2 == nil && toolRes2.Success {
			res := core.StepResult{Success: true, Output: toolRes2.OutputString(), DurationMS: retryDur, Recovered: true, RecoveryAction: "retry"}
			emit(core.ExecEvent{Type: core.EventStepComplete, Timestamp: e.now(), StepID: step.ID, Output: res.Output})
			return res
		}
		msg := errString(err2, toolRes2.Error)
		return e.finalFailure(step, msg, retryDur, emit)

	case core.ActionSubstitute:
		alt := *action.AlternativeStep
		altTool, ok := e.tools.Get(alt.Action)
		if !ok {
			return e.finalFailure(step, (&core.ToolNotFound{Name: alt.Action}).Error(), dur, emit)
		}
		altStart := time.Now()
		altParams := resolveParams(alt, prior)
		altRes, altErr := e.invoke(ctx, altTool, altParams)
		altDur := dur + time.Since(altStart).Milliseconds()
		e.log.Info("recovery substituted step", "step_id", step.ID, "alternative_step_id", alt.ID, "action", alt.Action)
		if altErr == nil && altRes.Success {
			res := core.StepResult{Success: true, Output: altRes.OutputString(), DurationMS: altDur, Recovered: true, RecoveryAction: "substitute"}
			emit(core.ExecEvent{Type: core.EventStepComplete, Timestamp: e.now(), StepID: step.ID, Output: res.Output})
			return res
		}
		msg := errString(altErr, altRes.Error)
		return e.finalFailure(step, msg, altDur, emit)

	case core.ActionSkip:
		res := core.StepResult{Success: true, Output: "", DurationMS: dur, Recovered: true, RecoveryAction: "skip"}
		emit(core.ExecEvent{Type: core.EventStepComplete, Timestamp: e.now(), StepID: step.ID, Output: ""})
		return res

	default: // core.ActionAbort
		msg := action.UserMessage
		if msg == "" {
			msg = failErr.Error()
		}
		return e.finalFailure(step, msg, dur, emit)
	}
}

func (e *Executor) finalFailure(step core.Step, msg string, dur int64, emit func(core.ExecEvent)) core.StepResult {
	res := core.StepResult{Success: false, Error: msg, DurationMS: dur}
	e.log.Warn("step failed", "step_id", step.ID, "action", step.Action, "error", msg)
	emit(core.ExecEvent{Type: core.EventStepError, Timestamp: e.now(), StepID: step.ID, Error: msg})
	return res
}

func errString(err error, fallback string) string {
	if err != nil {
		return err.Error()
	}
	return fallback
}

// invoke recovers a panicking tool into an error, matching the
// at-least-once "thrown exception" case the recovery chain must see.
func (e *Executor) invoke(ctx context.Context, tool core.Tool, params core.Params) (res core.ToolResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.New("panic during tool invocation: " + panicString(r))
		}
	}()
	return tool.Invoke(ctx, params)
}

func panicString(r any) string {
	if e, ok := r.(error); ok {
		return e.Error()
	}
	if s, ok := r.(string); ok {
		return s
	}
	return "unknown panic"
}

// sleepCancelAware waits delayMS, returning false if ctx is cancelled
// first.
func (e *Executor) sleepCancelAware(ctx context.Context, delayMS int64) bool {
	if delayMS <= 0 {
		select {
		case <-ctx.Done():
			return false
		default:
			return true
		}
	}
	timer := time.NewTimer(time.Duration(delayMS) * time.Millisecond)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
