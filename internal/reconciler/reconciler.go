// =============================================================================
// Inventory Count Automation - Reconciler
// =============================================================================
//
// This module orchestrates one reconciliation run, from count files to the
// updated spreadsheet.
//
// PIPELINE:
//   1. Discover the count files (sorted by name)
//   2. Read and validate every line, aggregate the barcodes
//   3. Open the spreadsheet and build the key index
//   4. Write the counted quantities (or only match them on a dry run)
//   5. Archive the count files (optional, never on a dry run)
//   6. Write the run summary and rejected-line logs (optional)
//
// A run that finds no valid barcodes stops after step 2 and succeeds without
// opening the spreadsheet. Barcodes missing from the spreadsheet are reported,
// never fatal.
//
// =============================================================================

package reconciler

import (
	"fmt"
	"io"
	"time"

	"github.com/ginjaninja78/inventory-count-automation/internal/balance"
	"github.com/ginjaninja78/inventory-count-automation/internal/countfile"
	"github.com/ginjaninja78/inventory-count-automation/internal/counter"
	"github.com/ginjaninja78/inventory-count-automation/internal/layout"
	"github.com/ginjaninja78/inventory-count-automation/internal/report"
	"github.com/ginjaninja78/inventory-count-automation/internal/types"
	"github.com/ginjaninja78/inventory-count-automation/internal/validation"
	"github.com/ginjaninja78/inventory-count-automation/internal/workbook"
	"github.com/ginjaninja78/inventory-count-automation/pkg/utils"
	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
)

// =============================================================================
// OPTIONS
// =============================================================================

// Options are the per-run settings resolved from config and flags.
type Options struct {
	// Spreadsheet is the workbook to update.
	Spreadsheet string

	// Output overrides the save location. Empty lets the file manager decide
	// (in place when it has no output directory).
	Output string

	// OutputNameFormat names the saved workbook inside the output directory.
	OutputNameFormat string

	// DryRun matches without writing, saving or archiving.
	DryRun bool

	// Archive moves count files to the archive directory after a save.
	Archive bool

	// Progress receives a progress bar while count files are read. Nil disables it.
	Progress io.Writer
}

// =============================================================================
// RECONCILER
// =============================================================================

// Reconciler runs the count-and-match pipeline for one layout.
type Reconciler struct {
	spec  *layout.Spec
	files *utils.FileManager
	opts  Options
	log   *zap.Logger
	out   *report.Printer
}

// New creates a Reconciler. A nil logger or printer discards output.
func New(spec *layout.Spec, files *utils.FileManager, opts Options, log *zap.Logger, out *report.Printer) *Reconciler {
	if log == nil {
		log = zap.NewNop()
	}
	if out == nil {
		out = report.NewPrinter(io.Discard)
	}
	return &Reconciler{spec: spec, files: files, opts: opts, log: log, out: out}
}

// Run executes the pipeline.
//
// RETURNS:
//   - The run summary, also on success with unmatched barcodes.
//   - A fatal error: missing sources, no usable sheet, strict duplicate keys,
//     or an I/O failure. Count files are archived only after a successful save.
func (r *Reconciler) Run() (*types.RunSummary, error) {
	summary := &types.RunSummary{
		RunID:       uuid.New().String(),
		Layout:      r.spec.Name(),
		StartTime:   time.Now(),
		Spreadsheet: r.opts.Spreadsheet,
		DryRun:      r.opts.DryRun,
	}
	log := r.log.With(zap.String("run_id", summary.RunID), zap.String("layout", summary.Layout))

	r.out.Header(r.spec, summary.RunID)

	// =========================================================================
	// STEP 1: DISCOVER COUNT FILES
	// =========================================================================

	r.out.Stage(1, "Reading count files")

	paths, err := r.files.DiscoverCountFiles()
	if err != nil {
		return nil, err
	}
	log.Debug("Count files discovered", zap.Int("files", len(paths)), zap.String("dir", r.files.InputDir))

	// =========================================================================
	// STEP 2: READ, VALIDATE AND AGGREGATE
	// =========================================================================

	scans, barcodes, err := r.readCountFiles(paths, log)
	if err != nil {
		return nil, err
	}
	summary.Files = scans

	if len(barcodes) == 0 {
		r.out.NoBarcodes()
		log.Warn("No valid barcodes found", zap.Int("files", len(scans)))
		summary.EndTime = time.Now()
		return summary, nil
	}

	counted := counter.Aggregate(barcodes)
	stats := counter.Summarize(counted)
	summary.Distinct = stats.Distinct
	summary.TotalUnits = stats.Total

	r.out.Stage(2, "Counting")
	r.out.CountSummary(stats)
	log.Info("Barcodes aggregated", zap.Int("distinct", stats.Distinct), zap.Int("units", stats.Total))

	// =========================================================================
	// STEP 3: OPEN SPREADSHEET
	// =========================================================================

	r.out.Stage(3, "Matching against spreadsheet")
	r.out.Info("Spreadsheet", r.opts.Spreadsheet)

	wb, err := workbook.Open(r.opts.Spreadsheet, r.spec.Sheet())
	if err != nil {
		return nil, err
	}
	defer wb.Close()

	// =========================================================================
	// STEP 4: ASSIGN QUANTITIES
	// =========================================================================

	var res *balance.Result
	if r.opts.DryRun {
		idx, err := balance.BuildIndex(wb, r.spec.KeyColumn(), r.spec.DataStartRow(),
			balance.IndexOptions{Strict: r.spec.StrictKeys()})
		if err != nil {
			return nil, fmt.Errorf("failed to build key index: %w", err)
		}
		log.Debug("Key index built", zap.Int("keys", idx.Len()), zap.String("sheet", wb.Sheet()))
		res = balance.Match(counted, idx)
	} else {
		dest := r.destination(summary.RunID)
		res, err = balance.Assign(counted, wb, r.spec, dest)
		if err != nil {
			return nil, err
		}
		summary.Destination = dest
		if dest == "" {
			summary.Destination = r.opts.Spreadsheet
		}
	}

	for _, d := range res.Duplicates {
		summary.DuplicateKeys = append(summary.DuplicateKeys, d.Key)
		log.Warn("Duplicate key in spreadsheet", zap.String("key", d.Key), zap.Ints("rows", d.Rows))
	}
	r.out.Duplicates(res.Duplicates)

	summary.Matched = res.Matched
	summary.NotFound = res.NotFound

	r.out.Assignment(res, r.opts.DryRun)
	log.Info("Quantities assigned",
		zap.Int("matched", len(res.Matched)),
		zap.Int("not_found", len(res.NotFound)),
		zap.Bool("dry_run", r.opts.DryRun),
		zap.String("destination", summary.Destination))

	// =========================================================================
	// STEP 5: ARCHIVE COUNT FILES
	// =========================================================================

	if r.opts.Archive && !r.opts.DryRun {
		for _, p := range paths {
			archived, err := r.files.ArchiveInputFile(p)
			if err != nil {
				return nil, fmt.Errorf("failed to archive %s: %w", p, err)
			}
			log.Debug("Count file archived", zap.String("file", p), zap.String("archive", archived))
		}
	}

	summary.EndTime = time.Now()

	// =========================================================================
	// STEP 6: REPORTS
	// =========================================================================

	switch {
	case r.files.ReportDir == "":
	case r.opts.DryRun && !utils.FileExists(r.files.ReportDir):
		// Dry runs create no directories.
		log.Debug("Report directory missing, no reports written", zap.String("dir", r.files.ReportDir))
	default:
		r.writeReports(summary, log)
	}

	r.out.Final(summary)
	return summary, nil
}

// writeReports writes the summary log and, when lines were rejected, the
// rejection log. The workbook is already saved; failures are only logged.
func (r *Reconciler) writeReports(summary *types.RunSummary, log *zap.Logger) {
	path, err := utils.WriteSummaryLog(summary, r.files.ReportDir)
	if err != nil {
		log.Error("Failed to write summary log", zap.Error(err))
	} else {
		r.out.Info("Summary", path)
	}

	if validation.CountRejected(summary.Files) == 0 {
		return
	}
	path = utils.ReportPath(r.files.ReportDir, "rejected", summary.StartTime, summary.RunID)
	if err := validation.WriteRejectionLog(summary.Files, path); err != nil {
		log.Error("Failed to write rejection log", zap.Error(err))
		return
	}
	r.out.Info("Rejected", path)
}

// readCountFiles parses every file in order and reports each one.
func (r *Reconciler) readCountFiles(paths []string, log *zap.Logger) ([]types.FileScan, []string, error) {
	var onFile func(types.FileScan)
	var bar *progressbar.ProgressBar
	if r.opts.Progress != nil {
		bar = report.NewProgress(r.opts.Progress, len(paths), "reading")
		onFile = func(types.FileScan) { _ = bar.Add(1) }
	}

	scans, barcodes, err := countfile.ReadAll(paths, r.spec.Matcher(), onFile)
	if bar != nil {
		_ = bar.Finish()
	}
	if err != nil {
		return nil, nil, err
	}

	// File lines are printed once the bar is cleared.
	for _, s := range scans {
		r.out.FileRead(s)
		log.Debug("Count file read",
			zap.String("file", s.Name),
			zap.Int("lines", s.Lines),
			zap.Int("barcodes", s.Barcodes),
			zap.Int("rejected", s.Rejected))
	}

	return scans, barcodes, nil
}

// destination resolves where the workbook is saved. "" means in place.
func (r *Reconciler) destination(runID string) string {
	if r.opts.Output != "" {
		return r.opts.Output
	}
	return r.files.OutputPath(r.opts.OutputNameFormat, r.opts.Spreadsheet, r.spec.Name(), runID)
}
