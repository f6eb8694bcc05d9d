package balance

import (
	"errors"
	"fmt"
	"testing"

	"github.com/ginjaninja78/inventory-count-automation/internal/counter"
	"github.com/ginjaninja78/inventory-count-automation/internal/layout"
	"github.com/ginjaninja78/inventory-count-automation/internal/types"
	"github.com/ginjaninja78/inventory-count-automation/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memTable is an in-memory Table keyed by "A3"-style cell names.
type memTable struct {
	cells   map[string]string
	last    int
	saves   []string
	saveErr error
	writes  int
}

func newMemTable(keyColumn string, firstRow int, keys ...string) *memTable {
	t := &memTable{cells: map[string]string{}}
	for i, k := range keys {
		row := firstRow + i
		t.cells[fmt.Sprintf("%s%d", keyColumn, row)] = k
		t.last = row
	}
	return t
}

func (m *memTable) LastRow() (int, error) { return m.last, nil }

func (m *memTable) GetCell(column string, row int) (string, error) {
	return m.cells[fmt.Sprintf("%s%d", column, row)], nil
}

func (m *memTable) SetCell(column string, row int, value int) error {
	m.writes++
	m.cells[fmt.Sprintf("%s%d", column, row)] = fmt.Sprint(value)
	if row > m.last {
		m.last = row
	}
	return nil
}

func (m *memTable) Save(dest string) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves = append(m.saves, dest)
	return nil
}

func productTable() *memTable {
	return newMemTable("A", 3, "MCS000PROD001", "MCS000PROD002", "MCS000PROD003")
}

func TestBuildIndex(t *testing.T) {
	tbl := productTable()
	tbl.cells["A1"] = "CODE"

	idx, err := BuildIndex(tbl, "A", 3, IndexOptions{})
	require.NoError(t, err)

	assert.Equal(t, 3, idx.Len())
	row, ok := idx.Lookup("MCS000PROD002")
	require.True(t, ok)
	assert.Equal(t, 4, row)

	_, ok = idx.Lookup("CODE")
	assert.False(t, ok, "rows above the first data row are not indexed")
}

func TestBuildIndex_NormalizesAndSkipsBlanks(t *testing.T) {
	tbl := newMemTable("B", 2, "  mcs000abc ", "", "   ", "MCS000DEF")

	idx, err := BuildIndex(tbl, "B", 2, IndexOptions{})
	require.NoError(t, err)

	assert.Equal(t, 2, idx.Len())
	row, ok := idx.Lookup("MCS000ABC")
	require.True(t, ok)
	assert.Equal(t, 2, row)

	row, ok = idx.Lookup("mcs000def")
	require.True(t, ok)
	assert.Equal(t, 5, row)
}

func TestBuildIndex_Idempotent(t *testing.T) {
	tbl := productTable()

	a, err := BuildIndex(tbl, "A", 3, IndexOptions{})
	require.NoError(t, err)
	b, err := BuildIndex(tbl, "A", 3, IndexOptions{})
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestBuildIndex_DuplicateLastWins(t *testing.T) {
	tbl := newMemTable("A", 2, "DUP", "OTHER", "dup")

	idx, err := BuildIndex(tbl, "A", 2, IndexOptions{})
	require.NoError(t, err)

	row, ok := idx.Lookup("DUP")
	require.True(t, ok)
	assert.Equal(t, 4, row)
	assert.Equal(t, []Duplicate{{Key: "DUP", Rows: []int{2, 4}}}, idx.Duplicates())
}

func TestBuildIndex_DuplicateStrict(t *testing.T) {
	tbl := newMemTable("A", 2, "DUP", "OTHER", "dup")

	idx, err := BuildIndex(tbl, "A", 2, IndexOptions{Strict: true})
	assert.Nil(t, idx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrDuplicateKey))

	var dupErr *types.DuplicateKeyError
	require.True(t, errors.As(err, &dupErr))
	assert.Equal(t, "DUP", dupErr.Key)
	assert.Equal(t, 2, dupErr.FirstRow)
	assert.Equal(t, 4, dupErr.RepeatRow)
}

func TestBuildIndex_EmptyTable(t *testing.T) {
	idx, err := BuildIndex(&memTable{cells: map[string]string{}}, "A", 2, IndexOptions{})
	require.NoError(t, err)
	assert.Equal(t, 0, idx.Len())
	assert.Empty(t, idx.Duplicates())
}

func TestApply_AllMatched(t *testing.T) {
	tbl := productTable()
	idx, err := BuildIndex(tbl, "A", 3, IndexOptions{})
	require.NoError(t, err)

	counted := counter.FromMap(map[string]int{"MCS000PROD001": 5, "MCS000PROD003": 12})
	res, err := Apply(counted, idx, "Z", tbl, "")
	require.NoError(t, err)

	assert.Equal(t, "5", tbl.cells["Z3"])
	assert.Equal(t, "12", tbl.cells["Z5"])
	_, written := tbl.cells["Z4"]
	assert.False(t, written)

	assert.Equal(t, []string{"MCS000PROD001", "MCS000PROD003"}, res.Matched)
	assert.Equal(t, []string{}, res.NotFound)
	assert.Equal(t, []string{""}, tbl.saves)
}

func TestApply_PartialMatch(t *testing.T) {
	tbl := productTable()
	idx, err := BuildIndex(tbl, "A", 3, IndexOptions{})
	require.NoError(t, err)

	counted := counter.FromMap(map[string]int{"MCS000PROD001": 3, "MCS000GHOST": 7})
	res, err := Apply(counted, idx, "Z", tbl, "out.xlsx")
	require.NoError(t, err)

	assert.Equal(t, []string{"MCS000PROD001"}, res.Matched)
	assert.Equal(t, []string{"MCS000GHOST"}, res.NotFound)
	assert.Equal(t, 1, tbl.writes, "unmatched keys are never written")
	assert.Equal(t, "3", tbl.cells["Z3"])
	assert.Equal(t, []string{"out.xlsx"}, tbl.saves)
	assert.Equal(t, "out.xlsx", res.Destination)
}

func TestApply_EmptyCountsStillSavesOnce(t *testing.T) {
	tbl := productTable()
	idx, err := BuildIndex(tbl, "A", 3, IndexOptions{})
	require.NoError(t, err)

	res, err := Apply(counter.Aggregate(nil), idx, "Z", tbl, "")
	require.NoError(t, err)

	assert.Empty(t, res.Matched)
	assert.Empty(t, res.NotFound)
	assert.Equal(t, 0, tbl.writes)
	assert.Len(t, tbl.saves, 1)
}

func TestApply_SaveErrorPropagates(t *testing.T) {
	tbl := productTable()
	tbl.saveErr = errors.New("disk full")
	idx, err := BuildIndex(tbl, "A", 3, IndexOptions{})
	require.NoError(t, err)

	res, err := Apply(counter.FromMap(map[string]int{"MCS000PROD001": 1}), idx, "Z", tbl, "")
	assert.Nil(t, res)
	require.Error(t, err)
	assert.ErrorContains(t, err, "disk full")
}

func TestMatch_DoesNotWrite(t *testing.T) {
	tbl := productTable()
	idx, err := BuildIndex(tbl, "A", 3, IndexOptions{})
	require.NoError(t, err)

	res := Match(counter.FromMap(map[string]int{"MCS000PROD002": 4, "MCS000GHOST": 1}), idx)
	assert.Equal(t, []string{"MCS000PROD002"}, res.Matched)
	assert.Equal(t, []string{"MCS000GHOST"}, res.NotFound)
	assert.Equal(t, 0, tbl.writes)
	assert.Empty(t, tbl.saves)
}

func TestAssign_CaseInsensitiveEndToEnd(t *testing.T) {
	opts := layout.DefaultOptions()
	opts.DataStartRow = 3
	opts.BarcodePrefix = "MCS000"
	spec, err := layout.New("test", opts)
	require.NoError(t, err)

	tbl := productTable()

	var barcodes []string
	for _, line := range []string{"mcs000prod002", "MCS000prod002", " mcs000PROD002 "} {
		b, ok := validation.Parse(line, spec.Matcher())
		require.True(t, ok, line)
		barcodes = append(barcodes, b)
	}

	res, err := Assign(counter.Aggregate(barcodes), tbl, spec, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"MCS000PROD002"}, res.Matched)
	assert.Equal(t, "3", tbl.cells["Z4"])
}

func TestAssign_StrictLayout(t *testing.T) {
	opts := layout.DefaultOptions()
	opts.StrictKeys = true
	spec, err := layout.New("strict", opts)
	require.NoError(t, err)

	tbl := newMemTable("A", 2, "K1", "K1")
	_, err = Assign(counter.Aggregate([]string{"K1"}), tbl, spec, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrDuplicateKey))
	assert.Empty(t, tbl.saves)
}

func TestAssign_NilTable(t *testing.T) {
	spec, err := layout.New("d", layout.DefaultOptions())
	require.NoError(t, err)

	_, err = Assign(counter.Aggregate(nil), nil, spec, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrNoActiveTable))
}

func TestAssign_LenientReportsDuplicates(t *testing.T) {
	spec, err := layout.New("d", layout.DefaultOptions())
	require.NoError(t, err)

	tbl := newMemTable("A", 2, "K1", "K2", "k1")
	res, err := Assign(counter.Aggregate([]string{"K1", "K1"}), tbl, spec, "")
	require.NoError(t, err)

	assert.Equal(t, []Duplicate{{Key: "K1", Rows: []int{2, 4}}}, res.Duplicates)
	assert.Equal(t, "2", tbl.cells["Z4"], "last row wins")
	assert.Equal(t, []string{""}, tbl.saves)

	idx, err := BuildIndex(tbl, "A", 2, IndexOptions{})
	require.NoError(t, err)
	assert.Equal(t, res.Duplicates, Match(counter.Aggregate([]string{"K2"}), idx).Duplicates)
}
