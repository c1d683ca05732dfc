package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the sentineld version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("sentineld %s (built %s)\n", version, buildTime)
		},
	}
}
