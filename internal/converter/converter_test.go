package converter

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ginjaninja78/sheet2csv/internal/config"
	"github.com/ginjaninja78/sheet2csv/internal/csvio"
	"github.com/ginjaninja78/sheet2csv/internal/logging"
	"github.com/ginjaninja78/sheet2csv/internal/types"
	"github.com/ginjaninja78/sheet2csv/internal/validation"
	"github.com/ginjaninja78/sheet2csv/internal/xlsxparser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

// stubLoader returns a fixed document and records whether it was called.
type stubLoader struct {
	doc    *types.Document
	err    error
	called bool
}

func (l *stubLoader) Load(path string) (*types.Document, error) {
	l.called = true
	return l.doc, l.err
}

func defaultOptions() Options {
	return OptionsFromConfig(config.Default())
}

// touch creates an empty file so the input existence check passes.
func touch(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, nil, 0644))
	return path
}

func plainRow(values ...any) types.Row {
	row := make(types.Row, len(values))
	for i, v := range values {
		row[i] = types.Cell{Value: v}
	}
	return row
}

func singleTableDoc(rows ...types.Row) *types.Document {
	return &types.Document{Sheets: []types.Sheet{{
		Name:   "Sheet 1",
		Tables: []types.Table{{Name: "Table 1", Rows: rows}},
	}}}
}

// weeklyWorkbook writes an xlsx with a header row and three data rows.
func weeklyWorkbook(t *testing.T, dir string, header []any, edit func(f *excelize.File)) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &header))
	for i, values := range [][]any{{1, 10}, {2, 20}, {3, 30}} {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &values))
	}
	if edit != nil {
		edit(f)
	}

	path := filepath.Join(dir, "weekly.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func readLines(t *testing.T, path string) [][]string {
	t.Helper()
	records, err := csvio.ReadFile(path, csvio.DefaultSettings())
	require.NoError(t, err)
	return records
}

// =============================================================================
// END-TO-END SCENARIOS
// =============================================================================

func TestRun_ExportsValidTable(t *testing.T) {
	dir := t.TempDir()
	input := weeklyWorkbook(t, dir, []any{"Week Number", "Value"}, nil)
	output := filepath.Join(dir, "weekly.csv")

	var logs bytes.Buffer
	conv := New(xlsxparser.New(xlsxparser.DefaultOptions()), defaultOptions(), logging.New(&logs, "info", "text"))

	result, err := conv.Run(input, output)
	require.NoError(t, err)

	assert.True(t, result.Written)
	assert.Equal(t, 4, result.RowCount)
	assert.Equal(t, 1, result.SheetCount)
	assert.Equal(t, "Sheet1", result.SheetName)
	assert.Equal(t, 1, result.TableCount)
	assert.Equal(t, xlsxparser.ImplicitTableName, result.TableName)

	assert.Equal(t, [][]string{
		{"Week Number", "Value"},
		{"1", "10"},
		{"2", "20"},
		{"3", "30"},
	}, readLines(t, output))

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, "Week Number,Value\n1,10\n2,20\n3,30\n", string(data))

	assert.Contains(t, logs.String(), "found sheets")
	assert.Contains(t, logs.String(), "using table")
	assert.Contains(t, logs.String(), "No formulas found in bottom row")
}

func TestRun_HeaderMismatchWritesNothing(t *testing.T) {
	dir := t.TempDir()
	input := weeklyWorkbook(t, dir, []any{"Name", "Amount"}, nil)
	output := filepath.Join(dir, "weekly.csv")

	_, err := New(xlsxparser.New(xlsxparser.DefaultOptions()), defaultOptions(), nil).Run(input, output)
	require.Error(t, err)
	assert.ErrorIs(t, err, validation.ErrHeaderCheck)
	assert.Contains(t, err.Error(), `"name amount"`)
	assert.NoFileExists(t, output)
}

func TestRun_FormulaOutsideBottomRowWritesNothing(t *testing.T) {
	dir := t.TempDir()
	input := weeklyWorkbook(t, dir, []any{"Week Number", "Value"}, func(f *excelize.File) {
		require.NoError(t, f.SetCellFormula("Sheet1", "B2", "5*2"))
	})
	output := filepath.Join(dir, "weekly.csv")

	_, err := New(xlsxparser.New(xlsxparser.DefaultOptions()), defaultOptions(), nil).Run(input, output)
	require.Error(t, err)

	var verr *validation.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, 2, verr.Row)
	assert.Equal(t, 2, verr.Column)
	assert.Contains(t, err.Error(), "row 2, column 2")
	assert.NoFileExists(t, output)
}

func TestRun_UncachedFormulaBesideTableIsRejected(t *testing.T) {
	dir := t.TempDir()
	input := weeklyWorkbook(t, dir, []any{"Week Number", "Value"}, func(f *excelize.File) {
		require.NoError(t, f.SetCellFormula("Sheet1", "C2", "B2*2"))
	})
	output := filepath.Join(dir, "weekly.csv")

	_, err := New(xlsxparser.New(xlsxparser.DefaultOptions()), defaultOptions(), nil).Run(input, output)

	var verr *validation.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, 2, verr.Row)
	assert.Equal(t, 3, verr.Column)
	assert.NoFileExists(t, output)
}

func TestRun_FormulaInBottomRowIsExportedAsValue(t *testing.T) {
	dir := t.TempDir()
	input := weeklyWorkbook(t, dir, []any{"Week Number", "Value"}, func(f *excelize.File) {
		require.NoError(t, f.SetCellValue("Sheet1", "A5", "Total"))
		require.NoError(t, f.SetCellFormula("Sheet1", "B5", "SUM(B2:B4)"))
	})
	output := filepath.Join(dir, "weekly.csv")

	result, err := New(xlsxparser.New(xlsxparser.DefaultOptions()), defaultOptions(), nil).Run(input, output)
	require.NoError(t, err)
	assert.Contains(t, result.Checks.FormulaMessage, "formulas only in bottom row")

	lines := readLines(t, output)
	require.Len(t, lines, 5)
	assert.Equal(t, []string{"Total", "60"}, lines[4])
}

func TestRun_KeepsFormulaOnlyTotalsRow(t *testing.T) {
	dir := t.TempDir()
	input := weeklyWorkbook(t, dir, []any{"Week Number", "Value"}, func(f *excelize.File) {
		require.NoError(t, f.SetCellFormula("Sheet1", "B5", "SUM(B2:B4)"))
	})
	output := filepath.Join(dir, "weekly.csv")

	result, err := New(xlsxparser.New(xlsxparser.DefaultOptions()), defaultOptions(), nil).Run(input, output)
	require.NoError(t, err)
	assert.Equal(t, 5, result.RowCount)

	lines := readLines(t, output)
	require.Len(t, lines, 5)
	assert.Equal(t, []string{"", "60"}, lines[4])
}

func TestRun_EmptyDocument(t *testing.T) {
	dir := t.TempDir()
	input := touch(t, dir, "empty.numbers")
	output := filepath.Join(dir, "empty.csv")

	loader := &stubLoader{doc: &types.Document{}}
	result, err := New(loader, defaultOptions(), nil).Run(input, output)

	require.ErrorIs(t, err, ErrEmptyDocument)
	assert.Equal(t, 0, result.SheetCount)
	assert.Empty(t, result.TableName)
	assert.NoFileExists(t, output)
}

// =============================================================================
// PIPELINE EDGE CASES
// =============================================================================

func TestRun_InputNotFoundSkipsLoader(t *testing.T) {
	dir := t.TempDir()
	loader := &stubLoader{doc: singleTableDoc(plainRow("Week Number"))}

	_, err := New(loader, defaultOptions(), nil).Run(filepath.Join(dir, "missing.xlsx"), filepath.Join(dir, "out.csv"))
	require.ErrorIs(t, err, ErrInputNotFound)
	assert.False(t, loader.called)
}

func TestCheckInput(t *testing.T) {
	dir := t.TempDir()
	assert.NoError(t, CheckInput(touch(t, dir, "doc.xlsx")))

	err := CheckInput(filepath.Join(dir, "missing.xlsx"))
	require.ErrorIs(t, err, ErrInputNotFound)
	assert.Contains(t, err.Error(), "missing.xlsx")
}

func TestRun_LoaderErrorIsPropagated(t *testing.T) {
	dir := t.TempDir()
	input := touch(t, dir, "broken.xlsx")

	_, err := New(xlsxparser.New(xlsxparser.DefaultOptions()), defaultOptions(), nil).Run(input, filepath.Join(dir, "out.csv"))

	var formatErr *xlsxparser.FileFormatError
	require.ErrorAs(t, err, &formatErr)
	assert.NoFileExists(t, filepath.Join(dir, "out.csv"))
}

func TestRun_EmptySheet(t *testing.T) {
	dir := t.TempDir()
	input := touch(t, dir, "doc.numbers")
	loader := &stubLoader{doc: &types.Document{Sheets: []types.Sheet{{Name: "Empty"}}}}

	result, err := New(loader, defaultOptions(), nil).Run(input, filepath.Join(dir, "out.csv"))
	require.ErrorIs(t, err, ErrEmptySheet)
	assert.Contains(t, err.Error(), `"Empty"`)
	assert.Equal(t, "Empty", result.SheetName)
}

func TestRun_Selection(t *testing.T) {
	dir := t.TempDir()
	input := touch(t, dir, "doc.numbers")
	output := filepath.Join(dir, "out.csv")

	loader := &stubLoader{doc: &types.Document{Sheets: []types.Sheet{
		{Name: "Notes", Tables: []types.Table{{Name: "Scratch", Rows: []types.Row{plainRow("nothing here")}}}},
		{Name: "Log", Tables: []types.Table{
			{Name: "Summary", Rows: []types.Row{plainRow("summary")}},
			{Name: "Weeks", Rows: []types.Row{plainRow("Week Ending", "Kg"), plainRow("2025-01-05", 3)}},
		}},
	}}}

	options := defaultOptions()
	options.Selection = config.SelectionConfig{SheetIndex: 1, TableIndex: 1}

	result, err := New(loader, options, nil).Run(input, output)
	require.NoError(t, err)
	assert.Equal(t, "Log", result.SheetName)
	assert.Equal(t, "Weeks", result.TableName)
	assert.Equal(t, [][]string{{"Week Ending", "Kg"}, {"2025-01-05", "3"}}, readLines(t, output))

	options.Selection = config.SelectionConfig{SheetIndex: 2}
	_, err = New(loader, options, nil).Run(input, output)
	assert.ErrorIs(t, err, ErrSheetNotFound)

	options.Selection = config.SelectionConfig{SheetIndex: 1, TableIndex: 5}
	_, err = New(loader, options, nil).Run(input, output)
	assert.ErrorIs(t, err, ErrTableNotFound)
}

func TestRun_DryRunWritesNothing(t *testing.T) {
	dir := t.TempDir()
	input := touch(t, dir, "doc.numbers")
	output := filepath.Join(dir, "out.csv")
	loader := &stubLoader{doc: singleTableDoc(plainRow("Week Number"), plainRow(1))}

	options := defaultOptions()
	options.DryRun = true

	result, err := New(loader, options, nil).Run(input, output)
	require.NoError(t, err)
	assert.False(t, result.Written)
	assert.Equal(t, 2, result.RowCount)
	assert.NoFileExists(t, output)
}

func TestRun_RefusesToOverwriteInput(t *testing.T) {
	dir := t.TempDir()
	input := touch(t, dir, "log.csv")
	loader := &stubLoader{doc: singleTableDoc(plainRow("Week Number"))}

	_, err := New(loader, defaultOptions(), nil).Run(input, input)
	require.ErrorIs(t, err, ErrOutputIsInput)
	assert.False(t, loader.called)
}

func TestRun_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	input := touch(t, dir, "doc.numbers")
	output := filepath.Join(dir, "out.csv")

	rows := []types.Row{
		plainRow("Week Number", "Crop", "Kg", "Comment"),
		plainRow(1, "Beans", 2.5, nil),
		plainRow(2, "Peas, green", int64(3), `said "ok"`),
		plainRow(3, nil, 0.125, "multi\nline"),
	}
	loader := &stubLoader{doc: singleTableDoc(rows...)}

	_, err := New(loader, defaultOptions(), nil).Run(input, output)
	require.NoError(t, err)

	records := readLines(t, output)
	require.Len(t, records, len(rows))
	for i, row := range rows {
		require.Len(t, records[i], len(row))
		for j, cell := range row {
			assert.Equal(t, types.FormatValue(cell.Value), records[i][j], "row %d column %d", i+1, j+1)
		}
	}
}

func TestRun_OneColumnTableWithEmptyCell(t *testing.T) {
	dir := t.TempDir()
	input := touch(t, dir, "doc.numbers")
	output := filepath.Join(dir, "out.csv")

	loader := &stubLoader{doc: singleTableDoc(plainRow("Week Number"), plainRow(nil), plainRow(3))}

	result, err := New(loader, defaultOptions(), nil).Run(input, output)
	require.NoError(t, err)
	assert.True(t, result.Written)
	assert.Equal(t, [][]string{{"Week Number"}, {""}, {"3"}}, readLines(t, output))
}

func TestOptionsFromConfig(t *testing.T) {
	verify := false
	cfg := config.Default()
	cfg.Selection.TableIndex = 3
	cfg.Output.Delimiter = ";"
	cfg.Output.Verify = &verify

	options := OptionsFromConfig(cfg)
	assert.Equal(t, 3, options.Selection.TableIndex)
	assert.Equal(t, ";", options.CSV.Delimiter)
	assert.False(t, options.Verify)
	assert.Equal(t, 2, options.Validation.HeaderRows)
	assert.False(t, options.DryRun)
}

func TestSerializeTable(t *testing.T) {
	table := &types.Table{Rows: []types.Row{
		plainRow("a", nil, 1.5),
		{{Value: 4.0, Formula: "SUM(C1)"}},
		{},
	}}

	assert.Equal(t, [][]string{{"a", "", "1.5"}, {"4"}, {}}, SerializeTable(table))
}

func TestErrorsAreDistinct(t *testing.T) {
	all := []error{ErrInputNotFound, ErrEmptyDocument, ErrEmptySheet, ErrSheetNotFound, ErrTableNotFound, ErrOutputIsInput, ErrVerification}
	for i, a := range all {
		for j, b := range all {
			if i != j && errors.Is(a, b) {
				t.Errorf("%v matches %v", a, b)
			}
		}
	}
}
