package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"game-release-tracker/internal/app"
	"game-release-tracker/internal/common/logging"
	"game-release-tracker/internal/common/utils"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Refresh platforms and upcoming releases once, then exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext()
		defer stop()

		report, err := app.SyncOnce(ctx, cfg)
		if err != nil {
			return fmt.Errorf("sync failed: %w", err)
		}

		logging.Info("Sync finished",
			logging.String("job_id", report.JobID),
			logging.Int("platforms", report.Platforms),
			logging.Int("games", report.Games),
			logging.Int64("duration_ms", report.DurationMS),
		)
		fmt.Fprintf(cmd.OutOrStdout(), "synced %d platforms and %d games in %s\n",
			report.Platforms, report.Games, utils.FormatDuration(time.Duration(report.DurationMS)*time.Millisecond))
		return nil
	},
}
