package workbook

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/ginjaninja78/inventory-count-automation/internal/balance"
	"github.com/ginjaninja78/inventory-count-automation/internal/counter"
	"github.com/ginjaninja78/inventory-count-automation/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var _ balance.Table = (*Workbook)(nil)

// writeFixture creates a workbook with a header on row 1 and keys from row 2.
func writeFixture(t *testing.T, dir string, keys ...interface{}) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	require.NoError(t, f.SetCellValue("Sheet1", "A1", "Código"))
	require.NoError(t, f.SetCellValue("Sheet1", "Z1", "Quantidade"))
	for i, k := range keys {
		cell, err := excelize.JoinCellName("A", i+2)
		require.NoError(t, err)
		require.NoError(t, f.SetCellValue("Sheet1", cell, k))
	}

	path := filepath.Join(dir, "base.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestOpen_MissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope.xlsx"), "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrSourceNotFound))

	var nf *types.SourceNotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "spreadsheet", nf.Kind)
}

func TestOpen_ActiveSheet(t *testing.T) {
	path := writeFixture(t, t.TempDir(), "P1", "P2")

	wb, err := Open(path, "")
	require.NoError(t, err)
	defer wb.Close()

	assert.Equal(t, "Sheet1", wb.Sheet())
	assert.Equal(t, path, wb.Path())

	last, err := wb.LastRow()
	require.NoError(t, err)
	assert.Equal(t, 3, last)

	v, err := wb.GetCell("A", 3)
	require.NoError(t, err)
	assert.Equal(t, "P2", v)

	v, err = wb.GetCell("B", 3)
	require.NoError(t, err)
	assert.Equal(t, "", v)
}

func TestOpen_UnknownSheet(t *testing.T) {
	path := writeFixture(t, t.TempDir(), "P1")

	_, err := Open(path, "Estoque")
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrNoActiveTable))

	var nt *types.NoActiveTableError
	require.True(t, errors.As(err, &nt))
	assert.Equal(t, "Estoque", nt.Sheet)
}

func TestOpen_NamedSheet(t *testing.T) {
	dir := t.TempDir()

	f := excelize.NewFile()
	_, err := f.NewSheet("Estoque")
	require.NoError(t, err)
	require.NoError(t, f.SetCellValue("Estoque", "A2", "X1"))
	path := filepath.Join(dir, "multi.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	wb, err := Open(path, "Estoque")
	require.NoError(t, err)
	defer wb.Close()

	v, err := wb.GetCell("A", 2)
	require.NoError(t, err)
	assert.Equal(t, "X1", v)
}

func TestGetCell_NumericKeyIsRaw(t *testing.T) {
	path := writeFixture(t, t.TempDir(), 7891234567890)

	wb, err := Open(path, "")
	require.NoError(t, err)
	defer wb.Close()

	v, err := wb.GetCell("A", 2)
	require.NoError(t, err)
	assert.Equal(t, "7891234567890", v)
}

func TestSave_InPlaceAndAlternate(t *testing.T) {
	dir := t.TempDir()
	path := writeFixture(t, dir, "P1", "P2")

	wb, err := Open(path, "")
	require.NoError(t, err)
	require.NoError(t, wb.SetCell("Z", 2, 5))

	alt := filepath.Join(dir, "out", "copy.xlsx")
	require.NoError(t, wb.Save(alt))
	require.NoError(t, wb.Save(""))
	require.NoError(t, wb.Close())

	for _, p := range []string{path, alt} {
		reopened, err := Open(p, "")
		require.NoError(t, err)
		v, err := reopened.GetCell("Z", 2)
		require.NoError(t, err)
		assert.Equal(t, "5", v, p)
		require.NoError(t, reopened.Close())
	}
}

func TestAssign_AgainstWorkbook(t *testing.T) {
	dir := t.TempDir()
	f := excelize.NewFile()
	for i, k := range []string{"MCS000PROD001", "MCS000PROD002", "MCS000PROD003"} {
		cell, err := excelize.JoinCellName("A", i+3)
		require.NoError(t, err)
		require.NoError(t, f.SetCellValue("Sheet1", cell, k))
	}
	path := filepath.Join(dir, "base.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	wb, err := Open(path, "")
	require.NoError(t, err)

	idx, err := balance.BuildIndex(wb, "A", 3, balance.IndexOptions{})
	require.NoError(t, err)

	counted := counter.FromMap(map[string]int{"MCS000PROD001": 5, "MCS000PROD003": 12, "MCS000GHOST": 7})
	res, err := balance.Apply(counted, idx, "Z", wb, "")
	require.NoError(t, err)
	require.NoError(t, wb.Close())

	assert.Equal(t, []string{"MCS000PROD001", "MCS000PROD003"}, res.Matched)
	assert.Equal(t, []string{"MCS000GHOST"}, res.NotFound)

	check, err := Open(path, "")
	require.NoError(t, err)
	defer check.Close()

	for row, want := range map[int]string{3: "5", 4: "", 5: "12"} {
		v, err := check.GetCell("Z", row)
		require.NoError(t, err)
		assert.Equal(t, want, v, "row %d", row)
	}
}
