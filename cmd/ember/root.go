package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/copyleftdev/EMBER/internal/logging"
)

var (
	logLevel  string
	logFormat string
	logger    *logging.Logger
)

var rootCmd = &cobra.Command{
	Use:   "ember",
	Short: "Firefly Algorithm optimization engine",
	Long: `EMBER minimizes continuous benchmark objectives with the Firefly
Algorithm, either as a one-shot command-line run or as a long-running
HTTP service.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		logger, err = logging.NewLogger(&logging.Config{
			Level:  logLevel,
			Format: logFormat,
			Output: "stderr",
		})
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format (json, text)")
}
