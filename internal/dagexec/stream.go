package dagexec

import (
	"context"

	"github.com/agentcore/orchestrator/pkg/core"
)

// Chunk is one entry of a streamed execution: the same step-level
// outcomes Execute returns, lazily delivered as they happen.
type Chunk struct {
	Type     string `json:"type"`
	Progress int    `json:"progress"`
	StepID   string `json:"step_id,omitempty"`
	Output   string `json:"output,omitempty"`
	Error    string `json:"error,omitempty"`
	Result   *Result `json:"result,omitempty"`
}

// ExecuteStream runs the same scheduling engine as Execute, translating
// every core.ExecEvent into a typed Chunk on the returned channel. The
// channel is closed once the run completes, fails, or is cancelled. For
// identical inputs and identical cancel timing, the step-level outcomes
// delivered here match Execute exactly — both call the same run loop.
func (e *Executor) ExecuteStream(ctx context.Context, plan *core.ExecutionPlan, opts Options) <-chan Chunk {
	opts = opts.normalized()
	ch := make(chan Chunk, 16)
	total := len(plan.Steps)

	go func() {
		defer close(ch)
		done := 0
		progress := func() int {
			if total == 0 {
				return 100
			}
			p := done * 100 / total
			if p > 100 {
				p = 100
			}
			return p
		}

		userEmit := opts.OnEvent
		emit := func(evt core.ExecEvent) {
			if userEmit != nil {
				userEmit(evt)
			}
			switch evt.Type {
			case core.EventStepStart:
				ch <- Chunk{Type: "step:start", StepID: evt.StepID, Progress: progress()}
			case core.EventStepComplete:
				done++
				ch <- Chunk{Type: "step:done", StepID: evt.StepID, Output: evt.Output, Progress: progress()}
			case core.EventStepError:
				done++
				ch <- Chunk{Type: "step:error", StepID: evt.StepID, Error: evt.Error, Progress: progress()}
			case core.EventStepSkip:
				done++
				ch <- Chunk{Type: "step:done", StepID: evt.StepID, Progress: progress()}
			}
		}

		res, err := e.run(ctx, plan, opts, emit)
		switch {
		case err != nil && ctx.Err() != nil:
			ch <- Chunk{Type: "cancelled", Progress: progress()}
		case err != nil:
			ch <- Chunk{Type: "error", Error: err.Error(), Progress: 100}
		default:
			r := res
			ch <- Chunk{Type: "complete", Progress: 100, Result: &r}
		}
	}()

	return ch
}
