// Command agentcore is a thin CLI wrapping the orchestration pipeline
// for manual exercise. The core library itself owns no CLI or server;
// this binary exists to make the pipeline runnable outside a host
// application's own process.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/agentcore/orchestrator/internal/observability"
	"github.com/spf13/cobra"
)

var (
	version    = "dev"
	commit     = "none"
	configPath string
)

func main() {
	rootCmd := buildRootCmd()
	if err := rootCmd.Execute(); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func buildRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "agentcore",
		Short:   "Agent Orchestration Core CLI",
		Version: fmt.Sprintf("%s (%s)", version, commit),
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "agentcore.yaml",
		"path to YAML configuration file")

	rootCmd.AddCommand(
		buildServeCmd(),
		buildPlanCmd(),
		buildRunCmd(),
	)
	return rootCmd
}

// configureLogging sets the process-wide default logger used by main()
// and cobra's own error path; every orchestration component gets its
// own injected logger instead (see cmd/agentcore/wiring.go).
func configureLogging(level, format string) {
	slog.SetDefault(observability.NewSlogLogger(observability.LogConfig{
		Level:  level,
		Format: format,
		Output: os.Stderr,
	}))
}
