// Package observability provides the ambient logging and tracing stack
// shared across the orchestrator's components through structured
// logging with redaction and distributed tracing.
//
// # Logging
//
// Logging is built on Go's slog package, wrapped in a redacting
// handler so secrets never reach a sink:
//
//	logger := observability.NewSlogLogger(observability.LogConfig{
//	    Level:  os.Getenv("LOG_LEVEL"),
//	    Format: "json",
//	})
//
//	ctx := observability.AddRequestID(ctx, requestID)
//	logger.InfoContext(ctx, "compiled plan", "steps", len(plan.Steps))
//
//	logger.ErrorContext(ctx, "tool call failed",
//	    "error", err,
//	    "api_key", apiKey, // redacted before it reaches the handler
//	)
//
// Every component constructor that logs (registry, planner, validator,
// dagexec, recovery) takes a *slog.Logger built this way; none of them
// falls back to slog.Default().
//
// # Tracing
//
// Distributed tracing uses OpenTelemetry via the Tracer in tracing.go,
// wired into internal/tracing's ring-buffer trace store.
package observability
