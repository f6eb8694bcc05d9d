// =============================================================================
// Inventory Count Automation - Key Index
// =============================================================================
//
// This module scans the key column of a loaded table and maps every
// normalized key (trimmed, uppercase) to its 1-based row.
//
// DUPLICATE KEYS:
//   The default policy keeps the LAST row for a repeated key. Every collision
//   is recorded so that callers can warn about it. With IndexOptions.Strict
//   the first collision aborts the build with a *types.DuplicateKeyError.
//
// =============================================================================

package balance

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ginjaninja78/inventory-count-automation/internal/types"
)

// =============================================================================
// TABLE INTERFACES
// =============================================================================

// Reader is the read side of a loaded table.
type Reader interface {
	// LastRow returns the 1-based number of the last row holding any data.
	// An empty sheet returns 0.
	LastRow() (int, error)

	// GetCell returns the raw text of the cell at (column, row).
	// Missing cells return "".
	GetCell(column string, row int) (string, error)
}

// Writer is the write side of a loaded table.
type Writer interface {
	// SetCell writes an integer into the cell at (column, row).
	SetCell(column string, row int, value int) error

	// Save persists the whole table. An empty dest writes back to the
	// location the table was loaded from.
	Save(dest string) error
}

// Table is a loaded tabular source that can be indexed, updated and saved.
type Table interface {
	Reader
	Writer
}

// =============================================================================
// INDEX
// =============================================================================

// IndexOptions controls how an Index is built.
type IndexOptions struct {
	// Strict makes a repeated key fatal.
	Strict bool
}

// Duplicate records a key found on more than one row.
type Duplicate struct {
	Key string

	// Rows lists every row the key was seen on, ascending. The last one wins.
	Rows []int
}

// Index maps normalized keys to 1-based rows. It is read-only once built.
type Index struct {
	rows       map[string]int
	duplicates map[string][]int
}

// NormalizeKey trims and uppercases a key cell or a barcode.
func NormalizeKey(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// BuildIndex scans keyColumn from firstRow through the last populated row.
//
// PARAMETERS:
//   - table: The loaded table.
//   - keyColumn: Column letter holding the keys (e.g. "A").
//   - firstRow: First 1-based data row.
//   - opts: Duplicate-key policy.
//
// RETURNS:
//   - The Index. Blank key cells are skipped.
//   - A *types.DuplicateKeyError in strict mode, or a read error.
func BuildIndex(table Reader, keyColumn string, firstRow int, opts IndexOptions) (*Index, error) {
	if firstRow < 1 {
		firstRow = 1
	}

	last, err := table.LastRow()
	if err != nil {
		return nil, fmt.Errorf("failed to determine last row: %w", err)
	}

	idx := &Index{
		rows:       make(map[string]int),
		duplicates: make(map[string][]int),
	}

	for row := firstRow; row <= last; row++ {
		raw, err := table.GetCell(keyColumn, row)
		if err != nil {
			return nil, fmt.Errorf("failed to read key cell %s%d: %w", keyColumn, row, err)
		}

		key := NormalizeKey(raw)
		if key == "" {
			continue
		}

		if prev, seen := idx.rows[key]; seen {
			if opts.Strict {
				return nil, &types.DuplicateKeyError{Key: key, FirstRow: prev, RepeatRow: row}
			}
			if _, tracked := idx.duplicates[key]; !tracked {
				idx.duplicates[key] = []int{prev}
			}
			idx.duplicates[key] = append(idx.duplicates[key], row)
		}

		idx.rows[key] = row
	}

	return idx, nil
}

// Lookup returns the row for a key. The key is normalized first.
func (i *Index) Lookup(key string) (int, bool) {
	row, ok := i.rows[NormalizeKey(key)]
	return row, ok
}

// Len returns the number of distinct keys.
func (i *Index) Len() int {
	return len(i.rows)
}

// Duplicates returns every repeated key, sorted by key.
func (i *Index) Duplicates() []Duplicate {
	keys := make([]string, 0, len(i.duplicates))
	for k := range i.duplicates {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]Duplicate, 0, len(keys))
	for _, k := range keys {
		rows := make([]int, len(i.duplicates[k]))
		copy(rows, i.duplicates[k])
		out = append(out, Duplicate{Key: k, Rows: rows})
	}
	return out
}
