package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/agentcore/orchestrator/internal/builtins"
	"github.com/agentcore/orchestrator/internal/config"
	"github.com/agentcore/orchestrator/internal/dagexec"
	"github.com/agentcore/orchestrator/internal/discovery"
	"github.com/agentcore/orchestrator/internal/intent"
	"github.com/agentcore/orchestrator/internal/llm"
	"github.com/agentcore/orchestrator/internal/monitor"
	"github.com/agentcore/orchestrator/internal/observability"
	"github.com/agentcore/orchestrator/internal/orchestrator"
	"github.com/agentcore/orchestrator/internal/planner"
	"github.com/agentcore/orchestrator/internal/recovery"
	"github.com/agentcore/orchestrator/internal/registry"
	"github.com/agentcore/orchestrator/internal/tracing"
	"github.com/agentcore/orchestrator/internal/validator"
)

var builtinToolNames = []string{
	"read_range", "write_range", "format_range", "autofit_range",
	"create_chart", "create_sheet", "switch_sheet", "sort_range",
	"filter_range", "dedupe_range", "clean_range", "set_formula",
	"respond_to_user", "clarify_request", "get_workbook_info",
}

// buildOrchestrator assembles one Orchestrator from a loaded Config,
// registering the demo builtin tools against a fresh in-memory Workbook.
func buildOrchestrator(cfg *config.Config) (*orchestrator.Orchestrator, error) {
	log := buildLogger(cfg.Logging)

	model, err := buildLLM(cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("build llm adapter: %w", err)
	}

	reg := registry.New(log.With("component", "registry"))
	wb := builtins.NewWorkbook()
	if err := builtins.Register(reg, wb); err != nil {
		return nil, err
	}

	mon, err := buildMonitor(cfg.Monitor)
	if err != nil {
		return nil, fmt.Errorf("build monitor: %w", err)
	}
	mon.RegisterTools(builtinToolNames)

	recMgr := recovery.New(log.With("component", "recovery"))

	episodes, err := buildEpisodeStore(cfg.Episodes)
	if err != nil {
		return nil, fmt.Errorf("build episode store: %w", err)
	}

	return &orchestrator.Orchestrator{
		Parser:             intent.New(model),
		Discovery:          discovery.New(reg),
		Compiler:           planner.New(log.With("component", "planner")),
		Validator:          validator.New(log.With("component", "validator")),
		Executor:           dagexec.New(reg, recMgr, log.With("component", "dagexec")),
		ExecutorNoRecovery: dagexec.New(reg, nil, log.With("component", "dagexec")),
		Tracer:             tracing.New(nil, tracingRingSize(cfg)),
		Monitor:            mon,
		Episodes:           episodes,
	}, nil
}

// buildLogger constructs the one redacting *slog.Logger every component
// constructor is handed by reference; no component ever falls back to
// slog.Default().
func buildLogger(cfg config.LoggingConfig) *slog.Logger {
	return observability.NewSlogLogger(observability.LogConfig{
		Level:  cfg.Level,
		Format: cfg.Format,
	})
}

// buildEpisodeStore selects the Orchestrator's episode-memory backend.
// Defaults to an in-memory store so a fresh checkout runs without any
// database configured.
func buildEpisodeStore(cfg config.EpisodesConfig) (orchestrator.EpisodeStore, error) {
	switch cfg.Store {
	case "", "memory":
		return orchestrator.NewMemoryEpisodeStore(), nil
	case "postgres":
		return orchestrator.NewPostgresEpisodeStore(cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown episode store %q", cfg.Store)
	}
}

// buildTraceExporter returns nil, nil when no S3 bucket is configured:
// archival is strictly optional, matching tracing.Tracer's own
// nil-safety around its OTel bridge.
func buildTraceExporter(ctx context.Context, cfg *config.Config) (*tracing.S3TraceExporter, error) {
	if cfg.Tracing.S3Bucket == "" {
		return nil, nil
	}
	return tracing.NewS3TraceExporter(ctx, tracing.S3TraceExporterConfig{
		Bucket: cfg.Tracing.S3Bucket,
		Region: cfg.Tracing.S3Region,
	})
}

func tracingRingSize(cfg *config.Config) int {
	if cfg.Tracing.RingSize > 0 {
		return cfg.Tracing.RingSize
	}
	return tracing.DefaultRingSize
}

func buildLLM(cfg config.LLMConfig) (llm.IntentLLM, error) {
	switch cfg.Provider {
	case "", "anthropic":
		return llm.NewAnthropicAdapter(llm.AnthropicConfig{
			APIKey: cfg.APIKey, Model: cfg.Model, MaxRetries: cfg.MaxRetries,
		}), nil
	case "openai":
		return llm.NewOpenAIAdapter(llm.OpenAIConfig{
			APIKey: cfg.APIKey, Model: cfg.Model, MaxRetries: cfg.MaxRetries,
		}), nil
	case "bedrock":
		return llm.NewBedrockAdapter(llm.BedrockConfig{
			Region: cfg.Region, AccessKeyID: cfg.AccessKeyID,
			SecretAccessKey: cfg.SecretAccessKey, SessionToken: cfg.SessionToken,
			Model: cfg.Model, MaxRetries: cfg.MaxRetries,
		})
	case "gemini":
		return llm.NewGeminiAdapter(llm.GeminiConfig{
			APIKey: cfg.APIKey, Model: cfg.Model, MaxRetries: cfg.MaxRetries,
		})
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

func buildMonitor(cfg config.MonitorConfig) (*monitor.Monitor, error) {
	opts := []monitor.Option{monitor.WithMetrics(monitor.NewMetrics())}
	if cfg.RingSize > 0 {
		opts = append(opts, monitor.WithRingSize(cfg.RingSize))
	}

	switch cfg.Store {
	case "", "memory":
		// no-op: in-memory only
	case "postgres":
		store, err := monitor.NewPostgresStore(cfg.DSN)
		if err != nil {
			return nil, err
		}
		opts = append(opts, monitor.WithStore(store))
	case "sqlite":
		store, err := monitor.NewSQLiteStore(cfg.DSN)
		if err != nil {
			return nil, err
		}
		opts = append(opts, monitor.WithStore(store))
	default:
		return nil, fmt.Errorf("unknown monitor store %q", cfg.Store)
	}

	m := monitor.New(opts...)

	if cfg.Store != "" && cfg.Store != "memory" {
		retention := monitor.DefaultRetention
		if cfg.RetentionHours > 0 {
			retention = time.Duration(cfg.RetentionHours) * time.Hour
		}
		pruner, err := monitor.NewPruner(m, cfg.PruneSchedule, retention)
		if err != nil {
			return nil, fmt.Errorf("schedule retention pruning: %w", err)
		}
		pruner.Start()
	}

	return m, nil
}
