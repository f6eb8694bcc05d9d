// =============================================================================
// Inventory Count Automation - Rejected Line Reporting
// =============================================================================
//
// Lines refused by the barcode rule never stop a run. They are counted per
// file, and the refused lines themselves can be written to a rejection log
// so the operator can fix the scanner setup or the layout's rule.
//
// =============================================================================

package validation

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ginjaninja78/inventory-count-automation/internal/types"
)

// CountRejected returns the number of rejected lines across all scans.
func CountRejected(scans []types.FileScan) int {
	n := 0
	for _, s := range scans {
		n += len(s.RejectedLines)
	}
	return n
}

// FormatRejections formats the rejected lines of every scan for display or
// logging, grouped by file in processing order.
//
// PARAMETERS:
//   - scans: The count files as read, carrying their rejected lines.
//
// RETURNS:
//   - A formatted string listing every rejected line.
func FormatRejections(scans []types.FileScan) string {
	total := CountRejected(scans)
	if total == 0 {
		return "No rejected lines."
	}

	var builder strings.Builder

	builder.WriteString(fmt.Sprintf("%d line(s) rejected by the barcode rule:\n", total))

	for _, s := range scans {
		if len(s.RejectedLines) == 0 {
			continue
		}
		builder.WriteString(fmt.Sprintf("\n%s\n", s.Name))
		for _, r := range s.RejectedLines {
			builder.WriteString(fmt.Sprintf("  line %5d  %-30s %s\n", r.Line, r.Value, r.Reason))
		}
	}

	return builder.String()
}

// WriteRejectionLog writes the rejected lines of every scan to filePath.
//
// RETURNS:
//   - An error if the file cannot be created or written.
func WriteRejectionLog(scans []types.FileScan, filePath string) error {
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}

	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create rejection log: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	writer.WriteString("Inventory Count - Rejected Lines\n")
	writer.WriteString("================================================================================\n\n")
	writer.WriteString(FormatRejections(scans))

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush rejection log: %w", err)
	}
	return nil
}
