package orchestrator

// ProgressFunc receives a phase name, the 1-indexed phase number,
// the total phase count, and a short human-readable message.
type ProgressFunc func(phase string, current, total int, message string)

// Options configures a single Orchestrate call.
type Options struct {
	Streaming      bool
	Parallel       bool
	MaxConcurrency int
	EnableRecovery bool
	EnableTracing  bool
	SessionID      string
	OnProgress     ProgressFunc
}

// DefaultOptions mirrors the defaults named in the component contract:
// parallel execution, a concurrency cap of 5, recovery and tracing both
// on, no active session.
func DefaultOptions() Options {
	return Options{
		Parallel:       true,
		MaxConcurrency: 5,
		EnableRecovery: true,
		EnableTracing:  true,
	}
}

const totalPhases = 5

func (o Options) progress(phase string, current int, message string) {
	if o.OnProgress != nil {
		o.OnProgress(phase, current, totalPhases, message)
	}
}
