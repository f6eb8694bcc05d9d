// =============================================================================
// Inventory Count Automation - Shared Types
// =============================================================================
//
// This package contains shared types used across multiple modules to avoid
// import cycles. Types defined here are used by:
//   - reconciler
//   - report
//   - utils (summary log)
//
// =============================================================================

package types

import "time"

// =============================================================================
// COUNT FILE TYPES
// =============================================================================

// FileScan describes how one count file was read.
type FileScan struct {
	// Path is the full path of the count file.
	Path string

	// Name is the base name, used in reports.
	Name string

	// Lines is the number of lines read, including blank and rejected ones.
	Lines int

	// Barcodes is the number of lines accepted by the layout's rule.
	Barcodes int

	// Rejected is the number of non-empty lines the rule refused.
	Rejected int

	// RejectedLines holds the refused lines, in line order.
	RejectedLines []RejectedLine
}

// RejectedLine is a non-empty count file line refused by the barcode rule.
type RejectedLine struct {
	// Line is the 1-based line number.
	Line int

	// Value is the trimmed line content.
	Value string

	// Reason says which part of the rule the value failed.
	Reason string
}

// =============================================================================
// RUN SUMMARY
// =============================================================================

// RunSummary is the outcome of one reconciliation run.
// It is printed to the console and optionally written to a summary log.
type RunSummary struct {
	RunID     string
	Layout    string
	StartTime time.Time
	EndTime   time.Time

	// Files lists every count file read, in processing order.
	Files []FileScan

	// Distinct is the number of distinct barcodes counted.
	Distinct int

	// TotalUnits is the sum of all counted quantities.
	TotalUnits int

	// Spreadsheet is the workbook that was read.
	Spreadsheet string

	// Destination is where the workbook was saved. Empty on dry runs.
	Destination string

	// Matched lists barcodes written to the workbook, in count order.
	Matched []string

	// NotFound lists counted barcodes absent from the workbook, in count order.
	NotFound []string

	// DuplicateKeys lists keys that appear on more than one row.
	DuplicateKeys []string

	// DryRun is true when the workbook was not modified.
	DryRun bool
}
