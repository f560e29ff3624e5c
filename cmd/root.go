package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"game-release-tracker/internal/common/logging"
	"game-release-tracker/internal/config"
	"game-release-tracker/internal/handlers"
)

var (
	envFiles []string
	cfg      *config.Config
)

// rootCmd serves the API when no subcommand is given
var rootCmd = &cobra.Command{
	Use:   "game-release-tracker",
	Short: "Caching API for upcoming video game releases",
	Long: `game-release-tracker serves upcoming video game releases from a local
catalog backed by the IGDB API. Data is cached in SQLite or PostgreSQL and
can be refreshed on demand or on a schedule.`,
	SilenceUsage:      true,
	PersistentPreRunE: initializeApp,
	RunE:              runServe,
}

// SetVersion records the build version reported by the API
func SetVersion(version string) {
	if version != "" {
		handlers.Version = version
		rootCmd.Version = version
	}
}

// Execute runs the root command and exits non-zero on failure
func Execute() {
	defer logging.MustSync()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		logging.MustSync()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", []string{".env"}, "dotenv files to load before reading the environment")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(migrateCmd)
}

// initializeApp loads and validates configuration and sets up logging
func initializeApp(cmd *cobra.Command, args []string) error {
	if err := config.LoadEnvFile(envFiles...); err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}

	logging.InitGlobalLogger(cmd.Root().Name())

	cfg = config.Load()
	if err := cfg.Validate(); err != nil {
		logging.Error("Configuration validation failed", err)
		return err
	}
	return nil
}

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
