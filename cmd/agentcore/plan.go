package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/agentcore/orchestrator/internal/config"
	"github.com/agentcore/orchestrator/internal/intent"
	"github.com/spf13/cobra"
)

func buildPlanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plan <message>",
		Short: "Classify intent and compile an execution plan without running it",
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

			message := strings.Join(args, " ")
			spec, err := orch.Parser.Parse(cmd.Context(), intent.Context{Message: message})
			if err != nil {
				return err
			}
			plan, err := orch.Compiler.Compile(spec)
			if err != nil {
				return err
			}
			if orch.Validator != nil {
				vr := orch.Validator.Validate(&plan, nil)
				if !vr.CanProceed {
					return fmt.Errorf("plan blocked: %+v", vr.Errors)
				}
			}

			out, err := json.MarshalIndent(plan, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}
}
