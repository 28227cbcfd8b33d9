package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Lyadalachanchu/voice4evs/pkg/cmd/server"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the central system",
	Run:   server.RunServe(c),
}

func init() {
	RootCmd.AddCommand(serveCmd)
}
