// Package cli provides the cogbattery command-line interface.
package cli

import (
	"fmt"
	"os"

	"cogbattery/internal/config"
	logger "cogbattery/internal/logging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	projectRoot string
	log         *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:           "cogbattery",
	Short:         "Cognitive assessment task battery server",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Annotations["config"] == "skip" || cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}

		// Logging settings come from the config file, so it is read once
		// before the watcher is installed with the real logger.
		conf, _, err := config.Load(projectRoot)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		log, err = logger.Init(projectRoot, conf.Logging)
		if err != nil {
			return fmt.Errorf("initializing logger: %w", err)
		}
		if err := config.Init(projectRoot, log); err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			_ = log.Sync()
		}
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&projectRoot, "root", ".", "project root containing config/ and logs/")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(hashPasswordCmd)
}
