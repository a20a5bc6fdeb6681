package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/agentcore/orchestrator/internal/config"
	"github.com/agentcore/orchestrator/internal/intent"
	"github.com/agentcore/orchestrator/internal/orchestrator"
	"github.com/spf13/cobra"
)

func buildRunCmd() *cobra.Command {
	var sessionID string
	var noRecovery bool

	cmd := &cobra.Command{
		Use:   "run <message>",
		Short: "Run the full orchestration pipeline for one message",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			configureLogging(cfg.Logging.Level, cfg.Logging.Format)

			orch, err := buildOrchestrator(cfg)
			if err != nil {
				return err
			}

			opts := orchestrator.DefaultOptions()
			opts.SessionID = sessionID
			opts.EnableRecovery = !noRecovery
			opts.OnProgress = func(phase string, current, total int, message string) {
				fmt.Printf("[%d/%d] %s: %s\n", current, total, phase, message)
			}

			exporter, err := buildTraceExporter(cmd.Context(), cfg)
			if err != nil {
				return fmt.Errorf("build trace exporter: %w", err)
			}

			message := strings.Join(args, " ")
			res, err := orch.Orchestrate(cmd.Context(), message, intent.Context{Message: message}, opts)
			if err != nil {
				return err
			}

			if exporter != nil && res.Trace != nil {
				if err := exporter.Export(cmd.Context(), res.Trace); err != nil {
					slog.Warn("archive trace to s3 failed", "error", err)
				}
			}

			fmt.Println(res.Reply)
			if !res.Success {
				return fmt.Errorf("orchestration completed with failures")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "session ID for episode recall")
	cmd.Flags().BoolVar(&noRecovery, "no-recovery", false, "disable automatic recovery on step failure")
	return cmd
}
