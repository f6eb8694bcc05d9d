// =============================================================================
// Inventory Count Automation - Process Command
// =============================================================================
//
// This file defines the 'process' command, which runs one reconciliation:
// count files in, updated spreadsheet out.
//
// COMMAND USAGE:
//   inventory process [flags]
//
// FLAGS:
//   --layout       : Use this layout instead of the active one
//   --input-dir    : Read count files from this directory
//   --spreadsheet  : Update this workbook instead of the layout's
//   --output       : Save the updated workbook to this path
//   --strict-keys  : Fail when a key repeats in the key column
//   --dry-run      : Match and report without writing anything
//   --archive      : Move count files to the archive after saving
//   --no-progress  : Do not draw the progress bar
//
// EXIT STATUS:
//   0 when the run completes, even with barcodes missing from the
//   spreadsheet. 1 on configuration errors, missing sources, an unusable
//   workbook, or I/O failures.
//
// =============================================================================

package cmd

import (
	"fmt"

	"github.com/ginjaninja78/inventory-count-automation/internal/reconciler"
	"github.com/ginjaninja78/inventory-count-automation/internal/report"
	"github.com/ginjaninja78/inventory-count-automation/pkg/utils"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

type processFlags struct {
	layout      string
	inputDir    string
	spreadsheet string
	output      string
	strictKeys  bool
	dryRun      bool
	archive     bool
	noProgress  bool
}

var procFlags processFlags

// =============================================================================
// PROCESS COMMAND DEFINITION
// =============================================================================

// processCmd represents the 'process' command.
var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Count scanned barcodes and write quantities into the spreadsheet",
	Long: `The process command reads every *.txt count file in the input directory,
keeps the lines accepted by the layout's barcode rule, counts each barcode and
writes the quantities into the layout's quantity column, matching rows by the
key column.

Barcodes that are counted but absent from the spreadsheet are listed as a
warning; the run still succeeds. Rows that were not counted are left as they
are.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runProcess(cmd)
	},
}

func init() {
	rootCmd.AddCommand(processCmd)

	f := processCmd.Flags()
	f.StringVar(&procFlags.layout, "layout", "", "Layout to use (default: the active layout)")
	f.StringVar(&procFlags.inputDir, "input-dir", "", "Directory holding the count files")
	f.StringVar(&procFlags.spreadsheet, "spreadsheet", "", "Workbook to update (default: from the layout)")
	f.StringVar(&procFlags.output, "output", "", "Save the updated workbook to this path")
	f.BoolVar(&procFlags.strictKeys, "strict-keys", false, "Fail when a key appears on more than one row")
	f.BoolVar(&procFlags.dryRun, "dry-run", false, "Match and report without writing anything")
	f.BoolVar(&procFlags.archive, "archive", false, "Move count files to the archive directory after saving")
	f.BoolVar(&procFlags.noProgress, "no-progress", false, "Do not draw the progress bar")
}

// =============================================================================
// PROCESSING LOGIC
// =============================================================================

// runProcess resolves the layout and paths, then runs the reconciler.
func runProcess(cmd *cobra.Command) error {
	cfg, err := loadAppConfig()
	if err != nil {
		return err
	}

	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	spec, err := cfg.Active()
	if procFlags.layout != "" {
		spec, err = cfg.Layout(procFlags.layout)
	}
	if err != nil {
		return fmt.Errorf("failed to resolve layout: %w", err)
	}
	if procFlags.strictKeys {
		spec = spec.WithStrictKeys(true)
	}

	inputDir := cfg.InputDir
	if procFlags.inputDir != "" {
		inputDir = procFlags.inputDir
	}

	spreadsheet := cfg.SpreadsheetPath(spec)
	if procFlags.spreadsheet != "" {
		spreadsheet = procFlags.spreadsheet
	}

	files := utils.NewFileManager(inputDir, cfg.OutputDir, cfg.ArchiveDir, cfg.ReportDir)
	if !procFlags.dryRun {
		if err := files.EnsureDirectories(); err != nil {
			return err
		}
	}

	opts := reconciler.Options{
		Spreadsheet:      spreadsheet,
		Output:           procFlags.output,
		OutputNameFormat: cfg.OutputNameFormat,
		DryRun:           procFlags.dryRun,
		Archive:          procFlags.archive,
	}
	if !procFlags.noProgress {
		opts.Progress = cmd.ErrOrStderr()
	}

	log.Debug("Starting run",
		zap.String("layout", spec.Name()),
		zap.String("input_dir", inputDir),
		zap.String("spreadsheet", spreadsheet),
		zap.Bool("dry_run", opts.DryRun))

	_, err = reconciler.New(spec, files, opts, log, report.NewPrinter(cmd.OutOrStdout())).Run()
	return err
}
