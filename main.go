// =============================================================================
// Inventory Count Automation - Main Entry Point
// =============================================================================
//
// USAGE:
//   inventory process       - Count scanned barcodes and update the spreadsheet
//   inventory layout ...    - Manage spreadsheet layouts
//   inventory version       - Display the application version
//
// ARCHITECTURE:
//   - cmd/       : CLI command definitions (Cobra)
//   - internal/  : Core logic (validation, counter, balance, workbook, ...)
//   - pkg/       : Shared file utilities
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/inventory-count-automation/cmd"
)

func main() {
	cmd.Execute()
}
