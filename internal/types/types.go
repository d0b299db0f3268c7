// =============================================================================
// sheet2csv - Document Model
// =============================================================================
//
// This package contains the read-only document model shared by the loader,
// the validator and the converter. Keeping it in its own package avoids
// import cycles between:
//   - xlsxparser (builds the model)
//   - validation (inspects tables)
//   - converter  (selects a table and serializes it)
//
// MODEL:
//   Document
//   └── Sheet (ordered, named)
//       └── Table (ordered, named grid)
//           └── Row
//               └── Cell (resolved value + optional formula)
//
// =============================================================================

package types

// =============================================================================
// LOADER CONTRACT
// =============================================================================

// Loader opens a spreadsheet document from a file path.
//
// Implementations pre-resolve formula cells to their computed value, so
// consumers never evaluate formulas themselves.
type Loader interface {
	Load(path string) (*Document, error)
}

// =============================================================================
// DOCUMENT TYPES
// =============================================================================

// Document is the root container of a loaded spreadsheet file.
type Document struct {
	// Path is the file the document was loaded from.
	Path string

	// Sheets holds the sheets in document order.
	Sheets []Sheet
}

// Sheet is a named page of a document.
type Sheet struct {
	// Name is the sheet name as shown by the spreadsheet application.
	Name string

	// Tables holds the tables of the sheet in document order.
	Tables []Table
}

// Table is a named grid of cells.
//
// Rows are not required to have the same length; ragged rows serialize with
// their natural length.
type Table struct {
	// Name is the table name (e.g. "Table 1").
	Name string

	// Range is the cell range the table was read from (e.g. "A1:D10").
	// Empty for tables that were not read from a worksheet.
	Range string

	// Rows holds the table rows, top to bottom.
	Rows []Row
}

// Row is an ordered sequence of cells, left to right.
type Row []Cell

// Cell is a single table cell.
type Cell struct {
	// Value is the resolved value of the cell. For formula cells this is the
	// computed result. nil means the cell is empty.
	Value any

	// Formula is the cell formula, empty for plain value cells.
	Formula string
}

// HasFormula reports whether the cell holds a formula.
func (c Cell) HasFormula() bool {
	return c.Formula != ""
}

// RowCount returns the number of rows in the table.
func (t *Table) RowCount() int {
	return len(t.Rows)
}

// ColumnCount returns the length of the widest row.
func (t *Table) ColumnCount() int {
	width := 0
	for _, row := range t.Rows {
		if len(row) > width {
			width = len(row)
		}
	}
	return width
}
