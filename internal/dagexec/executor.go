// Package dagexec implements the DAG Executor (C6): it schedules a
// compiled ExecutionPlan's steps with bounded concurrency, resolves
// {{dep_id}}/{{previous}} placeholders, consults the Recovery Manager on
// failure, and propagates failed-dependency skips through the graph.
package dagexec

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/agentcore/orchestrator/internal/observability"
	"github.com/agentcore/orchestrator/internal/recovery"
	"github.com/agentcore/orchestrator/pkg/core"
)

// ToolLookup is the slice of the tool registry the executor depends on.
// Satisfied by *registry.Registry; kept as a narrow interface so dagexec
// never imports the registry package directly.
type ToolLookup interface {
	Get(name string) (core.Tool, bool)
	RecordOutcome(name string, success bool, durationMS float64)
}

// paramValidator is an optional capability a ToolLookup may implement
// (the registry does) to reject malformed resolved parameters before a
// step ever reaches Tool.Invoke. Detected via type assertion so a
// minimal ToolLookup (as in tests) need not implement it.
type paramValidator interface {
	ValidateParams(name string, params core.Params) error
}

// DefaultMaxConcurrency bounds per-batch parallelism when Options leaves
// MaxConcurrency unset.
const DefaultMaxConcurrency = 5

// Options configures one Execute/ExecuteStream call.
type Options struct {
	// MaxConcurrency bounds how many ready steps run in one batch.
	MaxConcurrency int

	// ContinueOnFailure, when true (the default), skips a failed step's
	// pending transitive dependents instead of stopping the run.
	ContinueOnFailure bool

	// OnEvent, if set, receives every timestamped event as it happens.
	OnEvent func(core.ExecEvent)
}

// DefaultOptions returns the documented defaults: 5-way concurrency,
// continue-on-failure semantics.
func DefaultOptions() Options {
	return Options{MaxConcurrency: DefaultMaxConcurrency, ContinueOnFailure: true}
}

func (o Options) normalized() Options {
	if o.MaxConcurrency <= 0 {
		o.MaxConcurrency = DefaultMaxConcurrency
	}
	return o
}

// Parallelism summarizes how much of the available concurrency budget an
// execution actually used.
type Parallelism struct {
	MaxConcurrent int     `json:"max_concurrent"`
	AvgConcurrent float64 `json:"avg_concurrent"`
	Batches       int     `json:"batches"`
}

// Result is what Execute returns once the scheduling loop exits.
type Result struct {
	Success         bool                       `json:"success"`
	TotalSteps      int                        `json:"total_steps"`
	SuccessCount    int                        `json:"success_count"`
	FailedCount     int                        `json:"failed_count"`
	SkippedCount    int                        `json:"skipped_count"`
	StepResults     map[string]core.StepResult `json:"step_results"`
	TotalDurationMS int64                      `json:"total_duration_ms"`
	Parallelism     Parallelism                `json:"parallelism"`
}

// Executor runs one ExecutionPlan at a time against a tool registry,
// consulting a Recovery Manager on step failure.
type Executor struct {
	tools    ToolLookup
	recovery *recovery.Manager
	now      func() time.Time
	log      *slog.Logger
}

// New builds an Executor. recoveryMgr may be nil, in which case no
// recovery strategy ever applies and every failure is final. logger may
// be nil, in which case step failures and recoveries are dropped
// instead of logged.
func New(tools ToolLookup, recoveryMgr *recovery.Manager, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = observability.NewDiscardLogger()
	}
	return &Executor{tools: tools, recovery: recoveryMgr, now: time.Now, log: logger}
}

// Execute runs plan to completion (or cancellation) and returns the
// aggregate Result.
func (e *Executor) Execute(ctx context.Context, plan *core.ExecutionPlan, opts Options) (Result, error) {
	return e.run(ctx, plan, opts.normalized(), opts.OnEvent)
}

func (e *Executor) nowMS() int64 { return e.now().UnixNano() / int64(time.Millisecond) }

func (e *Executor) run(ctx context.Context, plan *core.ExecutionPlan, opts Options, emit func(core.ExecEvent)) (Result, error) {
	if e.recovery != nil {
		e.recovery.ResetRetryCount("")
	}
	if emit == nil {
		emit = func(core.ExecEvent) {}
	}

	nodes := buildDAG(plan.Steps)
	total := len(plan.Steps)
	start := e.nowMS()

	if cycle := detectCycle(nodes); cycle != nil {
		results := make(map[string]core.StepResult, total)
		for id := range nodes {
			results[id] = core.StepResult{Success: false, Error: "dependency cycle detected"}
		}
		return Result{
			Success:         false,
			TotalSteps:      total,
			FailedCount:     total,
			StepResults:     results,
			TotalDurationMS: e.nowMS() - start,
		}, &core.CycleDetected{StepIDs: cycle}
	}

	results := make(map[string]core.StepResult, total)
	var (
		batches       int
		concurrentSum int
		maxConcurrent int
		aborted       bool
	)

	for {
		select {
		case <-ctx.Done():
			return e.finalize(results, total, start, batches, concurrentSum, maxConcurrent), ctx.Err()
		default:
		}

		if aborted {
			break
		}

		ready := readyNodes(nodes)
		if len(ready) == 0 {
			break
		}

		batchSize := opts.MaxConcurrency
		if batchSize > len(ready) {
			batchSize = len(ready)
		}
		batch := ready[:batchSize]

		batches++
		concurrentSum += len(batch)
		if len(batch) > maxConcurrent {
			maxConcurrent = len(batch)
		}
		emit(core.ExecEvent{Type: core.EventBatchStart, Timestamp: e.now(), BatchIndex: batches - 1, BatchSize: len(batch)})

		for _, id := range batch {
			nodes[id].Status = core.StepRunning
			nodes[id].StartTimeMS = e.nowMS()
		}

		batchResults := e.runBatch(ctx, nodes, batch, results, emit)
		for id, res := range batchResults {
			results[id] = res
			node := nodes[id]
			node.EndTimeMS = e.nowMS()
			node.Result = &res
			if res.Success {
				node.Status = core.StepCompleted
			} else {
				node.Status = core.StepFailed
				if opts.ContinueOnFailure {
					propagateSkip(nodes, id, results, emit, e.now)
				} else {
					aborted = true
				}
			}
		}
	}

	out := e.finalize(results, total, start, batches, concurrentSum, maxConcurrent)
	emit(core.ExecEvent{
		Type:            core.EventRunComplete,
		Timestamp:       e.now(),
		SuccessCount:    out.SuccessCount,
		FailedCount:     out.FailedCount,
		SkippedCount:    out.SkippedCount,
		TotalDurationMS: out.TotalDurationMS,
	})
	return out, nil
}

func (e *Executor) finalize(results map[string]core.StepResult, total int, startMS int64, batches, concurrentSum, maxConcurrent int) Result {
	var success, failed, skipped int
	for _, r := range results {
		switch {
		case r.RecoveryAction == "dependency_skip":
			skipped++
		case r.Success:
			success++
		default:
			failed++
		}
	}

	avg := 0.0
	if batches > 0 {
		avg = float64(concurrentSum) / float64(batches)
	}

	return Result{
		Success:         failed == 0,
		TotalSteps:      total,
		SuccessCount:    success,
		FailedCount:     failed,
		SkippedCount:    skipped,
		StepResults:     results,
		TotalDurationMS: e.nowMS() - startMS,
		Parallelism: Parallelism{
			MaxConcurrent: maxConcurrent,
			AvgConcurrent: avg,
			Batches:       batches,
		},
	}
}

// readyNodes returns every pending node whose dependencies are all
// completed or already skipped, with no failed dependency.
func readyNodes(nodes map[string]*core.DAGNode) []string {
	var ready []string
	for id, n := range nodes {
		if n.Status != core.StepPending && n.Status != core.StepReady {
			continue
		}
		ok := true
		for _, dep := range n.Dependencies {
			d := nodes[dep]
			if d == nil {
				continue
			}
			if d.Status == core.StepFailed {
				ok = false
				break
			}
			if d.Status != core.StepCompleted && d.Status != core.StepSkipped {
				ok = false
				break
			}
		}
		if ok {
			ready = append(ready, id)
		}
	}
	return ready
}

// propagateSkip walks the dependents graph breadth-first from a failed
// step, marking every reachable pending node skipped and emitting a
// step:skip event for each.
func propagateSkip(nodes map[string]*core.DAGNode, failedID string, results map[string]core.StepResult, emit func(core.ExecEvent), now func() time.Time) {
	queue := append([]string(nil), nodes[failedID].Dependents...)
	seen := map[string]bool{}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if seen[id] {
			continue
		}
		seen[id] = true
		node := nodes[id]
		if node == nil || node.Status == core.StepSkipped || node.Status == core.StepCompleted || node.Status == core.StepFailed {
			continue
		}
		node.Status = core.StepSkipped
		reason := fmt.Sprintf("dependency %s failed", failedID)
		results[id] = core.StepResult{Success: false, Recovered: true, RecoveryAction: "dependency_skip", Error: reason}
		emit(core.ExecEvent{Type: core.EventStepSkip, Timestamp: now(), StepID: id, Reason: reason})
		queue = append(queue, node.Dependents...)
	}
}

// runBatch executes every step in batch in parallel and returns each
// one's final StepResult keyed by step id.
func (e *Executor) runBatch(ctx context.Context, nodes map[string]*core.DAGNode, batch []string, prior map[string]core.StepResult, emit func(core.ExecEvent)) map[string]core.StepResult {
	out := make(map[string]core.StepResult, len(batch))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, id := range batch {
		wg.Add(1)
		go func(stepID string, step core.Step) {
			defer wg.Done()
			res := e.executeStep(ctx, step, prior, emit)
			mu.Lock()
			out[stepID] = res
			mu.Unlock()
		}(id, nodes[id].Step)
	}
	wg.Wait()
	return out
}
