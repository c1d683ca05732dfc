package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version   = "0.1.0"
	buildTime = "unknown"

	configPath string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "sentineld",
		Short: "Streaming alert-correlation engine for ops telemetry",
		Long:  `sentineld ingests alerts and cluster events, groups them into episodes and situations, and scores probable root causes in real time.`,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "path to config file")

	rootCmd.AddCommand(
		newRunCmd(),
		newValidateConfigCmd(),
		newVersionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
