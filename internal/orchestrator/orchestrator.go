// Package orchestrator composes the Tool Registry, Tool Discovery, Intent
// Parser, Spec Compiler, Plan Validator, DAG Executor, Tracer, and
// Execution Monitor (C1-C2, C3-C9) into the single entry point a host
// application calls per user message.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/agentcore/orchestrator/internal/dagexec"
	"github.com/agentcore/orchestrator/internal/discovery"
	"github.com/agentcore/orchestrator/internal/intent"
	"github.com/agentcore/orchestrator/internal/monitor"
	"github.com/agentcore/orchestrator/internal/planner"
	"github.com/agentcore/orchestrator/internal/tracing"
	"github.com/agentcore/orchestrator/internal/validator"
	"github.com/agentcore/orchestrator/pkg/core"
)

// Orchestrator wires one call site's worth of collaborators together.
// Parser, Compiler, and Executor are required; Discovery, Validator,
// Tracer, Monitor, Episodes, and ExecutorNoRecovery are optional (nil-safe).
type Orchestrator struct {
	Parser    *intent.Parser
	Discovery *discovery.Discovery
	Compiler  *planner.Compiler
	Validator *validator.Validator
	Executor  *dagexec.Executor
	Tracer    *tracing.Tracer
	Monitor   *monitor.Monitor
	Episodes  EpisodeStore

	// ExecutorNoRecovery is an optional second Executor sharing the same
	// ToolLookup but constructed with a nil Recovery Manager, selected
	// when a call sets Options.EnableRecovery=false. Recovery is bound at
	// Executor-construction time (§4.6), not per call, so honoring the
	// per-orchestration toggle requires holding both.
	ExecutorNoRecovery *dagexec.Executor
}

// Result is the caller-facing outcome of one Orchestrate call.
type Result struct {
	Success bool
	Reply   string
	Plan    *core.ExecutionPlan
	Exec    *dagexec.Result
	Trace   *core.Trace
}

func nowMS() int64 { return time.Now().UnixNano() / int64(time.Millisecond) }

// Orchestrate runs the full pipeline for one user message: parse intent,
// observe discovery, compile a plan, validate it, execute it, and build
// a user-facing reply. It never panics across the call boundary; every
// failure mode produces a Result with Success=false and an explanatory
// Reply.
func (o *Orchestrator) Orchestrate(ctx context.Context, userMessage string, promptCtx intent.Context, opts Options) (Result, error) {
	start := nowMS()
	taskID := fmt.Sprintf("task_%d", start)

	if o.Monitor != nil {
		o.Monitor.StartTask(taskID, userMessage)
	}

	var trace *core.Trace
	if opts.EnableTracing && o.Tracer != nil {
		ctx, trace = o.Tracer.StartRun(ctx, "orchestrate", core.SpanUser)
	}

	res, replyErr := o.run(ctx, taskID, userMessage, promptCtx, opts)

	if opts.EnableTracing && o.Tracer != nil {
		resp := &core.TraceResponse{Success: res.Success, Content: res.Reply}
		res.Trace = o.Tracer.FinishRun(ctx, resp)
	} else {
		res.Trace = trace
	}

	if o.Monitor != nil {
		if res.Success {
			o.Monitor.CompleteTask(taskID)
		} else {
			o.Monitor.FailTask(taskID)
		}
	}

	return res, replyErr
}

func (o *Orchestrator) run(ctx context.Context, taskID, userMessage string, promptCtx intent.Context, opts Options) (Result, error) {
	opts.progress("parsing", 1, "classifying intent")
	if o.Monitor != nil {
		o.Monitor.StartPhase(taskID, "parsing")
	}

	spec, err := o.Parser.Parse(ctx, promptCtx)
	if err != nil {
		if o.Monitor != nil {
			o.Monitor.FailPhase(taskID, "parsing", err.Error())
		}
		return Result{Success: false, Reply: "❌ cancelled before intent could be classified"}, err
	}
	if o.Monitor != nil {
		o.Monitor.CompletePhase(taskID, "parsing")
	}

	opts.progress("discovering", 2, "observing tool candidates")
	if o.Monitor != nil {
		o.Monitor.StartPhase(taskID, "discovering")
	}
	if atom, ok := core.AtomFor(spec.Intent, userMessage); ok && o.Discovery != nil {
		// Observability only: the ranking is never consulted by the
		// compiler, which routes on intent kind alone.
		_ = o.Discovery.Discover(atom, discovery.DefaultOptions())
	}
	if o.Monitor != nil {
		o.Monitor.CompletePhase(taskID, "discovering")
	}

	opts.progress("compiling", 3, "compiling execution plan")
	if o.Monitor != nil {
		o.Monitor.StartPhase(taskID, "compiling")
	}
	plan, err := o.Compiler.Compile(spec)
	if err != nil {
		if o.Monitor != nil {
			o.Monitor.FailPhase(taskID, "compiling", err.Error())
		}
		return Result{Success: false, Reply: "❌ " + err.Error()}, nil
	}
	if o.Monitor != nil {
		o.Monitor.CompletePhase(taskID, "compiling")
	}

	if o.Validator != nil {
		vr := o.Validator.Validate(&plan, nil)
		if !vr.CanProceed {
			msg := "❌ plan blocked:"
			for _, e := range vr.Errors {
				msg += " " + e.Message + ";"
			}
			return Result{Success: false, Reply: msg, Plan: &plan}, nil
		}
	}

	opts.progress("executing", 4, "running plan")
	if o.Monitor != nil {
		// The host is expected to have called o.Monitor.RegisterTools with
		// the full catalog once at startup; registering per-plan here would
		// defeat ConsistencyCheck's used-but-not-registered detection.
		o.Monitor.StartPhase(taskID, "executing")
	}

	execOpts := dagexec.DefaultOptions()
	execOpts.MaxConcurrency = opts.MaxConcurrency
	if !opts.Parallel || len(plan.Steps) <= 1 {
		execOpts.MaxConcurrency = 1
	}
	if o.Monitor != nil {
		actionByStep := make(map[string]string, len(plan.Steps))
		for _, s := range plan.Steps {
			actionByStep[s.ID] = s.Action
		}
		execOpts.OnEvent = monitorEventBridge(o.Monitor, taskID, actionByStep)
	}

	executor := o.Executor
	if !opts.EnableRecovery && o.ExecutorNoRecovery != nil {
		executor = o.ExecutorNoRecovery
	}

	execRes, err := executor.Execute(ctx, &plan, execOpts)
	if err != nil {
		if o.Monitor != nil {
			o.Monitor.FailPhase(taskID, "executing", err.Error())
		}
		return Result{Success: false, Reply: "❌ " + err.Error(), Plan: &plan}, nil
	}
	if o.Monitor != nil {
		o.Monitor.CompletePhase(taskID, "executing")
	}

	if o.Discovery != nil {
		for _, s := range plan.Steps {
			if r, ok := execRes.StepResults[s.ID]; ok && r.RecoveryAction != "dependency_skip" {
				o.Discovery.UpdateStats(s.Action, r.Success, float64(r.DurationMS))
			}
		}
	}

	opts.progress("reflecting", 5, "building reply")
	reply := buildReply(execRes)

	if o.Episodes != nil && opts.SessionID != "" {
		_ = o.Episodes.SaveEpisode(ctx, buildEpisode(opts.SessionID, spec, plan, execRes, nowMS()))
	}

	opts.progress("complete", 5, "done")

	return Result{
		Success: execRes.FailedCount == 0,
		Reply:   reply,
		Plan:    &plan,
		Exec:    &execRes,
	}, nil
}

func monitorEventBridge(m *monitor.Monitor, taskID string, actionByStep map[string]string) func(core.ExecEvent) {
	return func(evt core.ExecEvent) {
		action := actionByStep[evt.StepID]
		switch evt.Type {
		case core.EventStepStart:
			m.StartToolCall(taskID, action, nil)
		case core.EventStepComplete:
			m.CompleteToolCall(taskID, action, evt.Output)
		case core.EventStepError:
			m.FailToolCall(taskID, action, evt.Error)
		}
	}
}

func buildReply(res dagexec.Result) string {
	switch {
	case res.FailedCount == 0 && res.SkippedCount == 0:
		return fmt.Sprintf("✅ operation complete. %d/%d steps", res.SuccessCount, res.TotalSteps)
	case res.SuccessCount > 0:
		return fmt.Sprintf("⚠️ partial: %d/%d steps", res.SuccessCount, res.TotalSteps)
	default:
		return fmt.Sprintf("❌ failed: 0/%d steps", res.TotalSteps)
	}
}

func buildEpisode(sessionID string, spec core.IntentSpec, plan core.ExecutionPlan, res dagexec.Result, durationMS int64) Episode {
	var actions, tools []string
	for _, s := range plan.Steps {
		actions = append(actions, s.Action)
		tools = append(tools, s.Action)
	}
	outcome := EpisodeSuccess
	if res.FailedCount > 0 && res.SuccessCount > 0 {
		outcome = EpisodePartial
	} else if res.FailedCount > 0 {
		outcome = EpisodeFailure
	}
	return Episode{
		SessionID:  sessionID,
		Intent:     string(spec.Intent),
		Actions:    actions,
		Result:     outcome,
		DurationMS: durationMS,
		ToolsUsed:  tools,
	}
}
