package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "raydar-sim",
	Short: "Rotating radar sweep simulator",
	Long:  "raydar-sim simulates a rotating radar sweep detecting moving targets, with replay, plotting and dashboard utilities.",
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(plotCmd)
	rootCmd.AddCommand(dashboardCmd)
}
