// =============================================================================
// Inventory Count Automation - Balance Assigner
// =============================================================================
//
// This module joins counted quantities against the key index and writes the
// matched quantities into the layout's target column.
//
// PROCESSING:
//   1. Build the key index over the data rows.
//   2. Walk the CountMap in key order:
//        found     -> write quantity to (target column, row), add to Matched
//        not found -> add to NotFound, no write
//   3. Save the table exactly once.
//
// Not-found barcodes are an expected outcome, not an error. Rows that were
// not counted are left untouched and are not reported.
//
// =============================================================================

package balance

import (
	"fmt"

	"github.com/ginjaninja78/inventory-count-automation/internal/counter"
	"github.com/ginjaninja78/inventory-count-automation/internal/layout"
	"github.com/ginjaninja78/inventory-count-automation/internal/types"
)

// Result partitions the counted barcodes.
type Result struct {
	// Matched holds barcodes written to the table, in CountMap order.
	Matched []string

	// NotFound holds barcodes absent from the table, in CountMap order.
	NotFound []string

	// Destination is where the table was saved. "" means the original
	// location, or nothing was saved (Match).
	Destination string

	// Duplicates lists keys found on more than one row of the index.
	Duplicates []Duplicate
}

// Match partitions counted barcodes without writing anything.
func Match(counted counter.CountMap, idx *Index) *Result {
	res := &Result{Matched: []string{}, NotFound: []string{}, Duplicates: idx.Duplicates()}
	for _, e := range counted.Entries() {
		if _, ok := idx.Lookup(e.Barcode); ok {
			res.Matched = append(res.Matched, e.Barcode)
		} else {
			res.NotFound = append(res.NotFound, e.Barcode)
		}
	}
	return res
}

// Apply writes every matched quantity and saves the table once.
//
// PARAMETERS:
//   - counted: Aggregated counts.
//   - idx: Index built over the same table the writer belongs to.
//   - targetColumn: Column letter receiving quantities.
//   - w: The table writer.
//   - dest: Save location. "" saves in place.
//
// RETURNS:
//   - The Result, even when nothing matched.
//   - A write or save error. A failed save leaves the file on disk untouched.
func Apply(counted counter.CountMap, idx *Index, targetColumn string, w Writer, dest string) (*Result, error) {
	res := &Result{Matched: []string{}, NotFound: []string{}, Destination: dest, Duplicates: idx.Duplicates()}

	for _, e := range counted.Entries() {
		row, ok := idx.Lookup(e.Barcode)
		if !ok {
			res.NotFound = append(res.NotFound, e.Barcode)
			continue
		}
		if err := w.SetCell(targetColumn, row, e.Quantity); err != nil {
			return nil, fmt.Errorf("failed to write quantity for %s at %s%d: %w", e.Barcode, targetColumn, row, err)
		}
		res.Matched = append(res.Matched, e.Barcode)
	}

	if err := w.Save(dest); err != nil {
		return nil, fmt.Errorf("failed to save spreadsheet: %w", err)
	}

	return res, nil
}

// Assign indexes the table with the layout's geometry, writes the counts and
// saves the table. Duplicate keys of a lenient layout come back in
// Result.Duplicates.
//
// RETURNS:
//   - The Result.
//   - *types.NoActiveTableError when table is nil.
//   - *types.DuplicateKeyError when the layout is strict and a key repeats.
func Assign(counted counter.CountMap, table Table, spec *layout.Spec, dest string) (*Result, error) {
	if table == nil {
		return nil, &types.NoActiveTableError{Sheet: spec.Sheet()}
	}

	idx, err := BuildIndex(table, spec.KeyColumn(), spec.DataStartRow(), IndexOptions{Strict: spec.StrictKeys()})
	if err != nil {
		return nil, fmt.Errorf("failed to build key index: %w", err)
	}

	return Apply(counted, idx, spec.TargetColumn(), table, dest)
}
