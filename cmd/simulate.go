package cmd

import (
	"github.com/spf13/cobra"
)

// simulateCmd represents the simulate command
var simulateCmd = &cobra.Command{
	Use:   "simulate <server-url> [device-id]",
	Short: "Run a simulated charge point against a central system",
	Run:   cmdHandler.Simulation.Simulate,
}

func init() {
	RootCmd.AddCommand(simulateCmd)
}
