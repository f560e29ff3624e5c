package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"game-release-tracker/internal/app"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext()
		defer stop()

		version, err := app.Migrate(ctx, cfg)
		if err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "database schema at version %d\n", version)
		return nil
	},
}
