package converter

import "github.com/ginjaninja78/sheet2csv/internal/types"

// SerializeRow converts every cell of a row to its display string. Null
// cells become empty strings; formula cells use their resolved value.
func SerializeRow(row types.Row) []string {
	fields := make([]string, len(row))
	for i, cell := range row {
		fields[i] = cell.Text()
	}
	return fields
}

// SerializeTable converts all rows of a table, preserving row order and each
// row's natural length.
func SerializeTable(table *types.Table) [][]string {
	rows := make([][]string, len(table.Rows))
	for i, row := range table.Rows {
		rows[i] = SerializeRow(row)
	}
	return rows
}
