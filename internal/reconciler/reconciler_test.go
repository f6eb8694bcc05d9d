package reconciler

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ginjaninja78/inventory-count-automation/internal/layout"
	"github.com/ginjaninja78/inventory-count-automation/internal/report"
	"github.com/ginjaninja78/inventory-count-automation/internal/types"
	"github.com/ginjaninja78/inventory-count-automation/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type fixture struct {
	root        string
	inputDir    string
	spreadsheet string
	spec        *layout.Spec
}

// newFixture builds a workbook with keys on rows 3..n and a count directory.
func newFixture(t *testing.T, keys []string, counts map[string]string) *fixture {
	t.Helper()
	root := t.TempDir()

	f := excelize.NewFile()
	require.NoError(t, f.SetCellValue("Sheet1", "A1", "Inventário"))
	require.NoError(t, f.SetCellValue("Sheet1", "A2", "Código"))
	for i, k := range keys {
		cell, err := excelize.JoinCellName("A", i+3)
		require.NoError(t, err)
		require.NoError(t, f.SetCellValue("Sheet1", cell, k))
	}
	spreadsheet := filepath.Join(root, "planilhas", "base.xlsx")
	require.NoError(t, os.MkdirAll(filepath.Dir(spreadsheet), 0755))
	require.NoError(t, f.SaveAs(spreadsheet))
	require.NoError(t, f.Close())

	inputDir := filepath.Join(root, "txt")
	require.NoError(t, os.MkdirAll(inputDir, 0755))
	for name, content := range counts {
		require.NoError(t, os.WriteFile(filepath.Join(inputDir, name), []byte(content), 0644))
	}

	opts := layout.DefaultOptions()
	opts.HeaderRow = 2
	opts.DataStartRow = 3
	opts.BarcodePrefix = "MCS000"
	spec, err := layout.New("test", opts)
	require.NoError(t, err)

	return &fixture{root: root, inputDir: inputDir, spreadsheet: spreadsheet, spec: spec}
}

func (fx *fixture) cell(t *testing.T, path, col string, row int) string {
	t.Helper()
	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	cell, err := excelize.JoinCellName(col, row)
	require.NoError(t, err)
	v, err := f.GetCellValue("Sheet1", cell)
	require.NoError(t, err)
	return v
}

var products = []string{"MCS000PROD001", "MCS000PROD002", "MCS000PROD003"}

func TestRun_UpdatesSpreadsheetInPlace(t *testing.T) {
	fx := newFixture(t, products, map[string]string{
		"b.txt": "MCS000PROD003\nmcs000prod001\nMCS000GHOST\n",
		"a.txt": "MCS000PROD001\nlixo\n\nMCS000PROD001\nMCS000PROD003\n",
	})

	var out bytes.Buffer
	fm := utils.NewFileManager(fx.inputDir, "", "", "")
	r := New(fx.spec, fm, Options{Spreadsheet: fx.spreadsheet}, nil, report.NewPrinter(&out))

	summary, err := r.Run()
	require.NoError(t, err)

	assert.NotEmpty(t, summary.RunID)
	assert.Equal(t, "test", summary.Layout)
	require.Len(t, summary.Files, 2)
	assert.Equal(t, "a.txt", summary.Files[0].Name)
	assert.Equal(t, 1, summary.Files[0].Rejected)
	assert.Equal(t, 3, summary.Distinct)
	assert.Equal(t, 6, summary.TotalUnits)
	assert.Equal(t, []string{"MCS000PROD001", "MCS000PROD003"}, summary.Matched)
	assert.Equal(t, []string{"MCS000GHOST"}, summary.NotFound)
	assert.Equal(t, fx.spreadsheet, summary.Destination)

	assert.Equal(t, "3", fx.cell(t, fx.spreadsheet, "Z", 3))
	assert.Equal(t, "", fx.cell(t, fx.spreadsheet, "Z", 4))
	assert.Equal(t, "2", fx.cell(t, fx.spreadsheet, "Z", 5))

	assert.Contains(t, out.String(), "MCS000GHOST")
	assert.FileExists(t, filepath.Join(fx.inputDir, "a.txt"), "count files stay without --archive")
}

func TestRun_OutputDirArchiveAndReport(t *testing.T) {
	fx := newFixture(t, products, map[string]string{"c.txt": "MCS000PROD002\n"})

	outDir := filepath.Join(fx.root, "saida")
	archDir := filepath.Join(fx.root, "arquivo")
	reportDir := filepath.Join(fx.root, "relatorios")
	fm := utils.NewFileManager(fx.inputDir, outDir, archDir, reportDir)
	fm.UseDateSubdirs = false

	var progress bytes.Buffer
	r := New(fx.spec, fm, Options{
		Spreadsheet:      fx.spreadsheet,
		OutputNameFormat: "{original}_{layout}",
		Archive:          true,
		Progress:         &progress,
	}, nil, nil)

	summary, err := r.Run()
	require.NoError(t, err)

	dest := filepath.Join(outDir, "base_test.xlsx")
	assert.Equal(t, dest, summary.Destination)
	assert.Equal(t, "1", fx.cell(t, dest, "Z", 4))
	assert.Equal(t, "", fx.cell(t, fx.spreadsheet, "Z", 4), "source workbook untouched")

	assert.NoFileExists(t, filepath.Join(fx.inputDir, "c.txt"))
	assert.FileExists(t, filepath.Join(archDir, "c.txt"))

	reports, err := os.ReadDir(reportDir)
	require.NoError(t, err)
	assert.Len(t, reports, 1)
}

func TestRun_RejectionLog(t *testing.T) {
	fx := newFixture(t, products, map[string]string{"c.txt": "MCS000PROD002\nLIXO\n"})

	reportDir := filepath.Join(fx.root, "relatorios")
	fm := utils.NewFileManager(fx.inputDir, "", "", reportDir)

	summary, err := New(fx.spec, fm, Options{Spreadsheet: fx.spreadsheet}, nil, nil).Run()
	require.NoError(t, err)
	require.Len(t, summary.Files, 1)
	assert.Equal(t, 1, summary.Files[0].Rejected)

	rejected := utils.ReportPath(reportDir, "rejected", summary.StartTime, summary.RunID)
	data, err := os.ReadFile(rejected)
	require.NoError(t, err)
	assert.Contains(t, string(data), "LIXO")
	assert.FileExists(t, utils.ReportPath(reportDir, "summary", summary.StartTime, summary.RunID))
}

func TestRun_ExplicitOutputWins(t *testing.T) {
	fx := newFixture(t, products, map[string]string{"c.txt": "MCS000PROD002\n"})

	explicit := filepath.Join(fx.root, "x", "final.xlsx")
	fm := utils.NewFileManager(fx.inputDir, filepath.Join(fx.root, "ignored"), "", "")
	r := New(fx.spec, fm, Options{Spreadsheet: fx.spreadsheet, Output: explicit}, nil, nil)

	summary, err := r.Run()
	require.NoError(t, err)
	assert.Equal(t, explicit, summary.Destination)
	assert.FileExists(t, explicit)
}

func TestRun_DryRunWritesNothing(t *testing.T) {
	fx := newFixture(t, products, map[string]string{"a.txt": "MCS000PROD001\nMCS000GHOST\n"})

	archDir := filepath.Join(fx.root, "arquivo")
	fm := utils.NewFileManager(fx.inputDir, "", archDir, "")
	r := New(fx.spec, fm, Options{Spreadsheet: fx.spreadsheet, DryRun: true, Archive: true}, nil, nil)

	before, err := os.ReadFile(fx.spreadsheet)
	require.NoError(t, err)

	summary, err := r.Run()
	require.NoError(t, err)
	assert.True(t, summary.DryRun)
	assert.Equal(t, "", summary.Destination)
	assert.Equal(t, []string{"MCS000PROD001"}, summary.Matched)
	assert.Equal(t, []string{"MCS000GHOST"}, summary.NotFound)

	after, err := os.ReadFile(fx.spreadsheet)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.FileExists(t, filepath.Join(fx.inputDir, "a.txt"))
	assert.NoDirExists(t, archDir)
}

func TestRun_DryRunCreatesNoReportDir(t *testing.T) {
	fx := newFixture(t, products, map[string]string{"a.txt": "MCS000PROD001\nLIXO\n"})

	reportDir := filepath.Join(fx.root, "relatorios")
	fm := utils.NewFileManager(fx.inputDir, "", "", reportDir)

	_, err := New(fx.spec, fm, Options{Spreadsheet: fx.spreadsheet, DryRun: true}, nil, nil).Run()
	require.NoError(t, err)
	assert.NoDirExists(t, reportDir)

	// An existing report directory still receives the dry run's reports.
	require.NoError(t, os.MkdirAll(reportDir, 0755))
	summary, err := New(fx.spec, fm, Options{Spreadsheet: fx.spreadsheet, DryRun: true}, nil, nil).Run()
	require.NoError(t, err)
	assert.FileExists(t, utils.ReportPath(reportDir, "summary", summary.StartTime, summary.RunID))
	assert.FileExists(t, utils.ReportPath(reportDir, "rejected", summary.StartTime, summary.RunID))
}

func TestRun_NoValidBarcodes(t *testing.T) {
	fx := newFixture(t, products, map[string]string{"a.txt": "lixo\nXPROD001\n"})
	require.NoError(t, os.Remove(fx.spreadsheet))

	var out bytes.Buffer
	r := New(fx.spec, utils.NewFileManager(fx.inputDir, "", "", ""),
		Options{Spreadsheet: fx.spreadsheet}, nil, report.NewPrinter(&out))

	summary, err := r.Run()
	require.NoError(t, err, "the spreadsheet is never opened")
	assert.Equal(t, 0, summary.Distinct)
	assert.Empty(t, summary.Matched)
	assert.Contains(t, out.String(), "No valid barcodes found")
}

func TestRun_FatalErrors(t *testing.T) {
	t.Run("missing count directory", func(t *testing.T) {
		fx := newFixture(t, products, nil)
		fm := utils.NewFileManager(filepath.Join(fx.root, "nope"), "", "", "")
		_, err := New(fx.spec, fm, Options{Spreadsheet: fx.spreadsheet}, nil, nil).Run()
		assert.True(t, errors.Is(err, types.ErrSourceNotFound))
	})

	t.Run("no count files", func(t *testing.T) {
		fx := newFixture(t, products, nil)
		fm := utils.NewFileManager(fx.inputDir, "", "", "")
		_, err := New(fx.spec, fm, Options{Spreadsheet: fx.spreadsheet}, nil, nil).Run()
		assert.True(t, errors.Is(err, types.ErrSourceNotFound))
	})

	t.Run("missing spreadsheet", func(t *testing.T) {
		fx := newFixture(t, products, map[string]string{"a.txt": "MCS000PROD001\n"})
		fm := utils.NewFileManager(fx.inputDir, "", "", "")
		_, err := New(fx.spec, fm, Options{Spreadsheet: filepath.Join(fx.root, "x.xlsx")}, nil, nil).Run()
		assert.True(t, errors.Is(err, types.ErrSourceNotFound))
	})

	t.Run("unknown sheet", func(t *testing.T) {
		fx := newFixture(t, products, map[string]string{"a.txt": "MCS000PROD001\n"})
		opts := fx.spec.Options()
		opts.Sheet = "Estoque"
		spec, err := layout.New("sheet", opts)
		require.NoError(t, err)

		fm := utils.NewFileManager(fx.inputDir, "", "", "")
		_, err = New(spec, fm, Options{Spreadsheet: fx.spreadsheet}, nil, nil).Run()
		assert.True(t, errors.Is(err, types.ErrNoActiveTable))
	})

	t.Run("strict duplicate keys", func(t *testing.T) {
		fx := newFixture(t, []string{"MCS000A", "MCS000B", "mcs000a"}, map[string]string{"a.txt": "MCS000B\n"})
		fm := utils.NewFileManager(fx.inputDir, "", filepath.Join(fx.root, "arch"), "")
		strict := fx.spec.WithStrictKeys(true)

		_, err := New(strict, fm, Options{Spreadsheet: fx.spreadsheet, Archive: true}, nil, nil).Run()
		assert.True(t, errors.Is(err, types.ErrDuplicateKey))
		assert.FileExists(t, filepath.Join(fx.inputDir, "a.txt"))
	})
}

func TestRun_LenientDuplicatesAreReported(t *testing.T) {
	fx := newFixture(t, []string{"MCS000A", "MCS000B", "mcs000a"}, map[string]string{"a.txt": "MCS000A\nMCS000A\n"})
	fm := utils.NewFileManager(fx.inputDir, "", "", "")

	summary, err := New(fx.spec, fm, Options{Spreadsheet: fx.spreadsheet}, nil, nil).Run()
	require.NoError(t, err)

	assert.Equal(t, []string{"MCS000A"}, summary.DuplicateKeys)
	assert.Equal(t, "", fx.cell(t, fx.spreadsheet, "Z", 3))
	assert.Equal(t, "2", fx.cell(t, fx.spreadsheet, "Z", 5), "last row wins")
}
