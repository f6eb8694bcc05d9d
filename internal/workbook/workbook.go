// =============================================================================
// Inventory Count Automation - Workbook Access
// =============================================================================
//
// This module loads the reference spreadsheet (.xlsx) fully into memory and
// exposes one worksheet as a balance.Table: last populated row, cell read,
// integer cell write and a single save.
//
// SHEET SELECTION:
//   - A layout may name a sheet. It must exist.
//   - Otherwise the workbook's active sheet is used.
//   - A workbook without a resolvable sheet is a NoActiveTable error.
//
// Cells are read with their raw values so that numeric keys (EAN codes stored
// as numbers) are not rewritten by the cell's number format.
//
// =============================================================================

package workbook

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ginjaninja78/inventory-count-automation/internal/types"
	"github.com/xuri/excelize/v2"
)

// Workbook is one worksheet of an opened .xlsx file.
type Workbook struct {
	file  *excelize.File
	path  string
	sheet string
}

// Open loads the workbook at path and selects a worksheet.
//
// PARAMETERS:
//   - path: The .xlsx file.
//   - sheet: Worksheet name, or "" for the active sheet.
//
// RETURNS:
//   - The Workbook. Callers must Close it.
//   - *types.SourceNotFoundError when the file does not exist.
//   - *types.NoActiveTableError when no usable sheet can be selected.
func Open(path, sheet string) (*Workbook, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &types.SourceNotFoundError{Kind: "spreadsheet", Path: path}
		}
		return nil, fmt.Errorf("failed to stat spreadsheet: %w", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open spreadsheet: %w", err)
	}

	name, err := resolveSheet(f, path, sheet)
	if err != nil {
		f.Close()
		return nil, err
	}

	return &Workbook{file: f, path: path, sheet: name}, nil
}

// resolveSheet returns the named sheet or the active one.
func resolveSheet(f *excelize.File, path, sheet string) (string, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return "", &types.NoActiveTableError{Path: path}
	}

	if sheet != "" {
		for _, s := range sheets {
			if s == sheet {
				return s, nil
			}
		}
		return "", &types.NoActiveTableError{Path: path, Sheet: sheet}
	}

	name := f.GetSheetName(f.GetActiveSheetIndex())
	if name == "" {
		return "", &types.NoActiveTableError{Path: path}
	}
	return name, nil
}

// Path returns the file the workbook was loaded from.
func (w *Workbook) Path() string { return w.path }

// Sheet returns the selected worksheet name.
func (w *Workbook) Sheet() string { return w.sheet }

// LastRow returns the 1-based number of the last row holding any data.
func (w *Workbook) LastRow() (int, error) {
	rows, err := w.file.GetRows(w.sheet)
	if err != nil {
		return 0, fmt.Errorf("failed to read rows: %w", err)
	}
	return len(rows), nil
}

// GetCell returns the raw value of a cell. Empty cells return "".
func (w *Workbook) GetCell(column string, row int) (string, error) {
	cell, err := excelize.JoinCellName(column, row)
	if err != nil {
		return "", fmt.Errorf("invalid cell %s%d: %w", column, row, err)
	}
	return w.file.GetCellValue(w.sheet, cell, excelize.Options{RawCellValue: true})
}

// SetCell writes an integer into a cell.
func (w *Workbook) SetCell(column string, row int, value int) error {
	cell, err := excelize.JoinCellName(column, row)
	if err != nil {
		return fmt.Errorf("invalid cell %s%d: %w", column, row, err)
	}
	return w.file.SetCellValue(w.sheet, cell, value)
}

// Save writes the workbook. An empty dest, or dest equal to the source path,
// saves in place; otherwise the parent directory is created and the
// workbook is written to dest.
func (w *Workbook) Save(dest string) error {
	if dest == "" || filepath.Clean(dest) == filepath.Clean(w.path) {
		if err := w.file.SaveAs(w.path); err != nil {
			return fmt.Errorf("failed to save workbook: %w", err)
		}
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := w.file.SaveAs(dest); err != nil {
		return fmt.Errorf("failed to save workbook as %s: %w", dest, err)
	}
	return nil
}

// Close releases the workbook's temporary files.
func (w *Workbook) Close() error {
	return w.file.Close()
}
