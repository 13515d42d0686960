package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/caiocavalcantesp/sistema-bipagem-masterhotelaria/internal/logging"
)

var logger *zap.Logger

var rootFlags struct {
	logLevel  string
	logFormat string
}

var rootCmd = &cobra.Command{
	Use:   "bipagem",
	Short: "Barcode scanning service for marketplace shipments",
	Long: `bipagem resolves scanned shipment labels and SKUs against connected
marketplaces, logs every scan and reports on scan volume.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := logging.FromEnv()
		if rootFlags.logLevel != "" {
			cfg.Level = rootFlags.logLevel
		}
		if rootFlags.logFormat != "" {
			cfg.Format = rootFlags.logFormat
		}
		var err error
		logger, err = logging.New(cfg)
		if err != nil {
			return fmt.Errorf("initializing logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			logging.Sync(logger)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootFlags.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&rootFlags.logFormat, "log-format", "", "log format (json, console)")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
