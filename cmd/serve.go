package cmd

import (
	"github.com/spf13/cobra"
	"game-release-tracker/internal/app"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API and the sync scheduler",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	return app.Serve(ctx, cfg)
}
