package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/opspulse/sentinel/internal/config"
)

func newValidateConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate-config",
		Short: "Load and validate the config file without starting the pipeline",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("validate-config: %w", err)
			}
			fmt.Printf("config OK: %s (hop=%dms window=%dms rules=%d)\n",
				configPath, cfg.Pipeline.HopMs, cfg.Pipeline.WindowMs, len(cfg.Pipeline.Rules))
			return nil
		},
	}
}
