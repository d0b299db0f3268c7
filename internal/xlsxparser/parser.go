// =============================================================================
// sheet2csv - Spreadsheet Document Loader
// =============================================================================
//
// This module opens a spreadsheet workbook and projects it onto the read-only
// document model in internal/types. It is the only place that talks to the
// spreadsheet library.
//
// TABLE DISCOVERY:
//   For every sheet, in workbook order:
//   1. Defined tables (Insert > Table in the spreadsheet application) are
//      returned in the order the workbook lists them.
//   2. A sheet with no defined tables but with data yields a single implicit
//      table, "Table 1", covering the bounding box of its non-empty cells
//      and its formula cells.
//   3. An empty sheet yields no tables.
//
// FORMULAS:
//   Formula cells carry their formula text and their last computed value.
//   When the workbook holds no cached result for a formula (files written by
//   tools that do not recalculate), the spreadsheet library is asked to
//   compute it. A formula that cannot be computed leaves the value empty.
//
// =============================================================================

package xlsxparser

import (
	"fmt"
	"strings"

	"github.com/ginjaninja78/sheet2csv/internal/types"
	"github.com/xuri/excelize/v2"
)

// ImplicitTableName is the name given to a sheet's data range when the sheet
// defines no tables.
const ImplicitTableName = "Table 1"

// =============================================================================
// ERRORS
// =============================================================================

// FileFormatError reports a file that could not be opened or parsed as a
// spreadsheet document.
type FileFormatError struct {
	Path string
	Err  error
}

func (e *FileFormatError) Error() string {
	return fmt.Sprintf("cannot read %q as a spreadsheet document: %v", e.Path, e.Err)
}

func (e *FileFormatError) Unwrap() error {
	return e.Err
}

// =============================================================================
// OPTIONS
// =============================================================================

// Options configures how cell values are read.
type Options struct {
	// RawValues returns stored cell values instead of the text produced by
	// applying each cell's number format.
	// Default: false
	RawValues bool
}

// DefaultOptions returns the default loader options.
func DefaultOptions() Options {
	return Options{RawValues: false}
}

func (o Options) excelize() excelize.Options {
	return excelize.Options{RawCellValue: o.RawValues}
}

// =============================================================================
// PARSER
// =============================================================================

// Parser loads workbooks into the document model. It implements types.Loader.
type Parser struct {
	options Options
}

var _ types.Loader = (*Parser)(nil)

// New creates a Parser with the given options.
func New(options Options) *Parser {
	return &Parser{options: options}
}

// Parse loads a workbook using the default options.
func Parse(path string) (*types.Document, error) {
	return New(DefaultOptions()).Load(path)
}

// Load opens the workbook at path and reads every sheet and table.
//
// RETURNS:
//   - The loaded document.
//   - A *FileFormatError if the file is not a readable workbook.
func (p *Parser) Load(path string) (*types.Document, error) {
	f, err := excelize.OpenFile(path, p.options.excelize())
	if err != nil {
		return nil, &FileFormatError{Path: path, Err: err}
	}
	defer f.Close()

	doc := &types.Document{Path: path}

	for _, sheetName := range f.GetSheetList() {
		sheet, err := p.parseSheet(f, sheetName)
		if err != nil {
			return nil, &FileFormatError{
				Path: path,
				Err:  fmt.Errorf("sheet %q: %w", sheetName, err),
			}
		}
		doc.Sheets = append(doc.Sheets, *sheet)
	}

	return doc, nil
}

// parseSheet reads all tables of one sheet.
func (p *Parser) parseSheet(f *excelize.File, sheetName string) (*types.Sheet, error) {
	sheet := &types.Sheet{Name: sheetName}

	grid, err := f.GetRows(sheetName, p.options.excelize())
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}

	defined, err := f.GetTables(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read tables: %w", err)
	}

	for _, def := range defined {
		bounds, err := parseRange(def.Range)
		if err != nil {
			return nil, fmt.Errorf("table %q: %w", def.Name, err)
		}
		table, err := p.readTable(f, sheetName, def.Name, bounds, grid)
		if err != nil {
			return nil, fmt.Errorf("table %q: %w", def.Name, err)
		}
		sheet.Tables = append(sheet.Tables, *table)
	}

	if len(defined) == 0 {
		bounds, ok, err := implicitBounds(f, sheetName, grid)
		if err != nil {
			return nil, fmt.Errorf("failed to locate data: %w", err)
		}
		if ok {
			table, err := p.readTable(f, sheetName, ImplicitTableName, bounds, grid)
			if err != nil {
				return nil, fmt.Errorf("table %q: %w", ImplicitTableName, err)
			}
			sheet.Tables = append(sheet.Tables, *table)
		}
	}

	return sheet, nil
}

// readTable projects the cells inside bounds onto a types.Table.
func (p *Parser) readTable(f *excelize.File, sheetName, name string, bounds cellRange, grid [][]string) (*types.Table, error) {
	table := &types.Table{
		Name:  name,
		Range: bounds.String(),
		Rows:  make([]types.Row, 0, bounds.rows()),
	}

	for r := bounds.top; r <= bounds.bottom; r++ {
		row := make(types.Row, 0, bounds.columns())
		for c := bounds.left; c <= bounds.right; c++ {
			cell, err := p.readCell(f, sheetName, c, r, grid)
			if err != nil {
				return nil, err
			}
			row = append(row, cell)
		}
		table.Rows = append(table.Rows, row)
	}

	return table, nil
}

// readCell reads a single cell at 1-based (col, row).
func (p *Parser) readCell(f *excelize.File, sheetName string, col, row int, grid [][]string) (types.Cell, error) {
	var cell types.Cell

	axis, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return cell, err
	}

	formula, err := f.GetCellFormula(sheetName, axis)
	if err != nil {
		return cell, fmt.Errorf("cell %s: %w", axis, err)
	}
	cell.Formula = formula

	text := gridValue(grid, col, row)
	if text == "" && cell.HasFormula() {
		// No cached result in the file.
		if computed, err := f.CalcCellValue(sheetName, axis, p.options.excelize()); err == nil {
			text = computed
		}
	}

	if text != "" {
		cell.Value = text
	}
	return cell, nil
}

// =============================================================================
// RANGE HELPERS
// =============================================================================

// cellRange is an inclusive, 1-based rectangle of cells.
type cellRange struct {
	left, top, right, bottom int
}

func (r cellRange) rows() int    { return r.bottom - r.top + 1 }
func (r cellRange) columns() int { return r.right - r.left + 1 }

func (r cellRange) String() string {
	start, _ := excelize.CoordinatesToCellName(r.left, r.top)
	end, _ := excelize.CoordinatesToCellName(r.right, r.bottom)
	return start + ":" + end
}

// parseRange parses an "A1:D10" reference. A single cell reference is a
// one-cell range.
func parseRange(ref string) (cellRange, error) {
	parts := strings.Split(strings.ReplaceAll(ref, "$", ""), ":")
	if len(parts) == 1 {
		parts = append(parts, parts[0])
	}
	if len(parts) != 2 {
		return cellRange{}, fmt.Errorf("invalid range %q", ref)
	}

	left, top, err := excelize.CellNameToCoordinates(parts[0])
	if err != nil {
		return cellRange{}, fmt.Errorf("invalid range %q: %w", ref, err)
	}
	right, bottom, err := excelize.CellNameToCoordinates(parts[1])
	if err != nil {
		return cellRange{}, fmt.Errorf("invalid range %q: %w", ref, err)
	}

	if right < left {
		left, right = right, left
	}
	if bottom < top {
		top, bottom = bottom, top
	}
	return cellRange{left: left, top: top, right: right, bottom: bottom}, nil
}

func (r cellRange) contains(col, row int) bool {
	return col >= r.left && col <= r.right && row >= r.top && row <= r.bottom
}

// union returns the smallest range covering r and o.
func (r cellRange) union(o cellRange) cellRange {
	return cellRange{
		left:   min(r.left, o.left),
		top:    min(r.top, o.top),
		right:  max(r.right, o.right),
		bottom: max(r.bottom, o.bottom),
	}
}

func point(col, row int) cellRange {
	return cellRange{left: col, top: row, right: col, bottom: row}
}

// dataBounds finds the bounding box of non-empty cells in a row grid.
func dataBounds(grid [][]string) (cellRange, bool) {
	bounds := cellRange{}
	found := false

	for rowIdx, row := range grid {
		for colIdx, value := range row {
			if value == "" {
				continue
			}
			if !found {
				bounds, found = point(colIdx+1, rowIdx+1), true
				continue
			}
			bounds = bounds.union(point(colIdx+1, rowIdx+1))
		}
	}

	return bounds, found
}

// gridExtent is the rectangle from A1 to the last row and widest column of
// grid.
func gridExtent(grid [][]string) (cellRange, bool) {
	width := 0
	for _, row := range grid {
		width = max(width, len(row))
	}
	if len(grid) == 0 || width == 0 {
		return cellRange{}, false
	}
	return cellRange{left: 1, top: 1, right: width, bottom: len(grid)}, true
}

// implicitBounds finds the data range of a sheet without defined tables.
//
// Formula cells count as data even when the workbook stores no result for
// them: those read back as empty text in grid. Every empty position inside
// the grid extent and the declared sheet dimension is checked for a formula.
func implicitBounds(f *excelize.File, sheetName string, grid [][]string) (cellRange, bool, error) {
	bounds, found := dataBounds(grid)

	window, ok := gridExtent(grid)
	if dim, err := f.GetSheetDimension(sheetName); err == nil && dim != "" {
		if declared, err := parseRange(dim); err == nil {
			if ok {
				window = window.union(declared)
			} else {
				window, ok = declared, true
			}
		}
	}
	if !ok {
		return bounds, found, nil
	}

	for row := window.top; row <= window.bottom; row++ {
		for col := window.left; col <= window.right; col++ {
			if found && bounds.contains(col, row) {
				continue
			}
			if gridValue(grid, col, row) != "" {
				continue
			}
			axis, err := excelize.CoordinatesToCellName(col, row)
			if err != nil {
				return cellRange{}, false, err
			}
			formula, err := f.GetCellFormula(sheetName, axis)
			if err != nil {
				return cellRange{}, false, fmt.Errorf("cell %s: %w", axis, err)
			}
			if formula == "" {
				continue
			}
			if !found {
				bounds, found = point(col, row), true
				continue
			}
			bounds = bounds.union(point(col, row))
		}
	}

	return bounds, found, nil
}

// gridValue returns the text at 1-based (col, row), or "" outside the grid.
func gridValue(grid [][]string, col, row int) string {
	if row < 1 || row > len(grid) {
		return ""
	}
	cells := grid[row-1]
	if col < 1 || col > len(cells) {
		return ""
	}
	return cells[col-1]
}
