// =============================================================================
// Inventory Count Automation - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. All other commands
// are attached to it.
//
// COBRA CLI STRUCTURE:
//   rootCmd (inventory)
//   ├── processCmd (inventory process)
//   ├── layoutCmd  (inventory layout list|show|add|edit|remove|select)
//   └── versionCmd (inventory version)
//
// The root command owns the global flags (--config, --verbose) and the
// helpers that load the configuration and build the logger.
//
// =============================================================================

package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/ginjaninja78/inventory-count-automation/internal/config"
	"github.com/ginjaninja78/inventory-count-automation/internal/logger"
	"github.com/ginjaninja78/inventory-count-automation/internal/report"
	"github.com/ginjaninja78/inventory-count-automation/internal/types"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the configuration file.
// This can be overridden using the --config flag.
var cfgFile string

// verbose forces debug logging.
var verbose bool

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "inventory",
	Short: "Inventory Count Automation - reconcile scanned counts with a spreadsheet",
	Long: `Inventory Count Automation reads barcode scanner count files, aggregates
repeated scans into per-product quantities and writes those quantities into
the quantity column of a reference spreadsheet, matching rows by a key column.

Key Features:
  - Named spreadsheet layouts (rows, key/quantity columns, barcode rule)
  - Case-insensitive barcode validation by prefix, suffix or pattern
  - Report of counted barcodes missing from the spreadsheet
  - Dry runs, alternate output files and count file archival

Example Usage:
  inventory process                      # Count and update with the active layout
  inventory process --dry-run            # Show what would be updated
  inventory layout list                  # List configured layouts
  inventory layout select loja           # Change the active layout`,

	SilenceUsage:  true,
	SilenceErrors: true,

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the root command. It is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		report.NewPrinter(os.Stderr).Error(err)

		if log, lerr := logger.New(logger.Config{Level: "error"}); lerr == nil {
			log.Error("Command failed", zap.Error(err), zap.String("kind", errorKind(err)))
			_ = log.Sync()
		}
		os.Exit(1)
	}
}

// errorKind classifies fatal errors for the log.
func errorKind(err error) string {
	switch {
	case errors.Is(err, types.ErrConfiguration):
		return "configuration"
	case errors.Is(err, types.ErrSourceNotFound):
		return "source_not_found"
	case errors.Is(err, types.ErrNoActiveTable):
		return "no_active_table"
	case errors.Is(err, types.ErrDuplicateKey):
		return "duplicate_key"
	default:
		return "internal"
	}
}

// =============================================================================
// SHARED HELPERS
// =============================================================================

// loadAppConfig loads the configuration named by --config.
func loadAppConfig() (*config.AppConfig, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// newLogger builds the logger from config, honoring --verbose.
func newLogger(cfg *config.AppConfig) (*zap.Logger, error) {
	lc := cfg.Log
	if verbose {
		lc.Level = "debug"
	}
	log, err := logger.New(lc)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return log, nil
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"config.yaml",
		"Path to the configuration file",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable verbose output for debugging",
	)
}
