package types

import "fmt"

// Table is an in-memory tabular snapshot: a fixed, ordered list of column
// names and ordered rows whose values follow that column order. It is the
// shape exchanged between introspection code, the reconciliation engine
// and extraction callers.
type Table struct {
	Columns []string
	Rows    [][]any
}

// NewTable creates an empty table with the given columns.
func NewTable(columns ...string) *Table {
	return &Table{Columns: columns}
}

// Append adds one row. The number of values must match the column count.
func (t *Table) Append(values ...any) error {
	if len(values) != len(t.Columns) {
		return fmt.Errorf("row has %d values, table has %d columns", len(values), len(t.Columns))
	}
	row := make([]any, len(values))
	for i, v := range values {
		row[i] = Normalize(v)
	}
	t.Rows = append(t.Rows, row)
	return nil
}

// Len returns the number of rows. A nil table has no rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Width returns the number of columns.
func (t *Table) Width() int {
	if t == nil {
		return 0
	}
	return len(t.Columns)
}

// ColumnIndex returns the position of the named column, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Value returns the value at row for the named column.
func (t *Table) Value(row int, column string) (any, bool) {
	col := t.ColumnIndex(column)
	if col < 0 || row < 0 || row >= t.Len() {
		return nil, false
	}
	return t.Rows[row][col], true
}

// ColumnValues returns every value of the named column in row order.
func (t *Table) ColumnValues(column string) []any {
	col := t.ColumnIndex(column)
	if col < 0 {
		return nil
	}
	values := make([]any, 0, t.Len())
	for _, row := range t.Rows {
		values = append(values, row[col])
	}
	return values
}
