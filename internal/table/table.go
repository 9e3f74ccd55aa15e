// Package table provides the in-memory tabular representation that every
// pipeline stage consumes and produces: an ordered set of named columns with
// a uniform row count, where each cell is null, bool, int64, float64,
// time.Time, or string.
package table

import (
	"fmt"
	"time"
)

// Kind identifies the logical type of a column after enforcement.
type Kind string

const (
	KindBool     Kind = "bool"
	KindInt      Kind = "int"
	KindFloat    Kind = "float"
	KindDateTime Kind = "datetime"
	KindString   Kind = "string"
)

// Table is an ordered collection of named columns with a uniform row count.
// A nil cell represents a missing value.
type Table struct {
	columns []string
	cells   map[string][]any
	rows    int
}

// New creates an empty table with the given column order.
// Duplicate column names are rejected.
func New(columns ...string) (*Table, error) {
	t := &Table{
		columns: make([]string, 0, len(columns)),
		cells:   make(map[string][]any, len(columns)),
	}
	for _, col := range columns {
		if _, exists := t.cells[col]; exists {
			return nil, fmt.Errorf("duplicate column %q", col)
		}
		t.columns = append(t.columns, col)
		t.cells[col] = []any{}
	}
	return t, nil
}

// MustNew is New for statically known column sets; it panics on duplicates.
func MustNew(columns ...string) *Table {
	t, err := New(columns...)
	if err != nil {
		panic(err)
	}
	return t
}

// NumRows returns the number of rows.
func (t *Table) NumRows() int {
	return t.rows
}

// NumColumns returns the number of columns.
func (t *Table) NumColumns() int {
	return len(t.columns)
}

// Columns returns the column names in declaration order.
func (t *Table) Columns() []string {
	out := make([]string, len(t.columns))
	copy(out, t.columns)
	return out
}

// HasColumn reports whether the named column exists.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.cells[name]
	return ok
}

// Column returns the cell slice for the named column. The slice is shared
// with the table; callers that mutate it mutate the table.
func (t *Table) Column(name string) []any {
	return t.cells[name]
}

// Value returns the cell at (column, row), or nil when the column does not
// exist or the row is out of range.
func (t *Table) Value(column string, row int) any {
	vals, ok := t.cells[column]
	if !ok || row < 0 || row >= len(vals) {
		return nil
	}
	return vals[row]
}

// Set overwrites the cell at (column, row).
func (t *Table) Set(column string, row int, v any) error {
	vals, ok := t.cells[column]
	if !ok {
		return fmt.Errorf("column %q not found", column)
	}
	if row < 0 || row >= len(vals) {
		return fmt.Errorf("row %d out of range for column %q", row, column)
	}
	vals[row] = v
	return nil
}

// AppendRow appends one row. Columns absent from the record get nil; keys
// that name unknown columns are ignored.
func (t *Table) AppendRow(record map[string]any) {
	for _, col := range t.columns {
		t.cells[col] = append(t.cells[col], record[col])
	}
	t.rows++
}

// AddColumn appends a new column. When values is shorter than the current
// row count it is padded with nil; when the table is empty the column's
// length defines the row count.
func (t *Table) AddColumn(name string, values []any) error {
	if _, exists := t.cells[name]; exists {
		return fmt.Errorf("column %q already exists", name)
	}
	if len(t.columns) == 0 {
		t.rows = len(values)
	}
	if len(values) > t.rows {
		return fmt.Errorf("column %q has %d values, table has %d rows", name, len(values), t.rows)
	}
	padded := make([]any, t.rows)
	copy(padded, values)
	t.columns = append(t.columns, name)
	t.cells[name] = padded
	return nil
}

// SetColumn replaces the values of an existing column. The replacement must
// match the table's row count.
func (t *Table) SetColumn(name string, values []any) error {
	if _, ok := t.cells[name]; !ok {
		return fmt.Errorf("column %q not found", name)
	}
	if len(values) != t.rows {
		return fmt.Errorf("column %q has %d values, table has %d rows", name, len(values), t.rows)
	}
	t.cells[name] = values
	return nil
}

// DropColumns removes the named columns; unknown names are ignored.
func (t *Table) DropColumns(names ...string) {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}
	kept := t.columns[:0]
	for _, col := range t.columns {
		if drop[col] {
			delete(t.cells, col)
			continue
		}
		kept = append(kept, col)
	}
	t.columns = kept
	if len(t.columns) == 0 {
		t.rows = 0
	}
}

// RenameColumns applies the full replacement name list, which must have one
// entry per existing column and contain no duplicates. Order is preserved.
func (t *Table) RenameColumns(names []string) error {
	if len(names) != len(t.columns) {
		return fmt.Errorf("got %d names for %d columns", len(names), len(t.columns))
	}
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		if seen[n] {
			return fmt.Errorf("duplicate column %q", n)
		}
		seen[n] = true
	}
	cells := make(map[string][]any, len(names))
	for i, old := range t.columns {
		cells[names[i]] = t.cells[old]
	}
	t.columns = append(t.columns[:0], names...)
	t.cells = cells
	return nil
}

// Select returns a new table containing only the rows where keep is true.
// Row order is preserved; keep must match the row count.
func (t *Table) Select(keep []bool) (*Table, error) {
	if len(keep) != t.rows {
		return nil, fmt.Errorf("mask has %d entries, table has %d rows", len(keep), t.rows)
	}
	out := &Table{
		columns: append([]string(nil), t.columns...),
		cells:   make(map[string][]any, len(t.columns)),
	}
	for _, col := range t.columns {
		src := t.cells[col]
		dst := make([]any, 0, len(src))
		for i, ok := range keep {
			if ok {
				dst = append(dst, src[i])
			}
		}
		out.cells[col] = dst
		out.rows = len(dst)
	}
	return out, nil
}

// Row returns the row at index i as a column-keyed record.
func (t *Table) Row(i int) map[string]any {
	record := make(map[string]any, len(t.columns))
	for _, col := range t.columns {
		record[col] = t.cells[col][i]
	}
	return record
}

// Records returns every row as a column-keyed record, in row order.
func (t *Table) Records() []map[string]any {
	out := make([]map[string]any, t.rows)
	for i := 0; i < t.rows; i++ {
		out[i] = t.Row(i)
	}
	return out
}

// Clone returns a deep copy of the table's structure and cell slices.
// Cell values themselves are immutable scalars and are shared.
func (t *Table) Clone() *Table {
	out := &Table{
		columns: append([]string(nil), t.columns...),
		cells:   make(map[string][]any, len(t.columns)),
		rows:    t.rows,
	}
	for col, vals := range t.cells {
		out.cells[col] = append([]any(nil), vals...)
	}
	return out
}

// MissingCells counts nil cells across the whole table.
func (t *Table) MissingCells() int {
	missing := 0
	for _, col := range t.columns {
		for _, v := range t.cells[col] {
			if IsNull(v) {
				missing++
			}
		}
	}
	return missing
}

// ColumnMissing counts nil cells in one column.
func (t *Table) ColumnMissing(name string) int {
	missing := 0
	for _, v := range t.cells[name] {
		if IsNull(v) {
			missing++
		}
	}
	return missing
}

// KindOf reports the dominant stored Go type of a column's non-null values.
// Mixed columns and all-null columns report KindString.
func (t *Table) KindOf(name string) Kind {
	var kind Kind
	for _, v := range t.cells[name] {
		if IsNull(v) {
			continue
		}
		var k Kind
		switch v.(type) {
		case bool:
			k = KindBool
		case int64:
			k = KindInt
		case float64:
			k = KindFloat
		case time.Time:
			k = KindDateTime
		default:
			k = KindString
		}
		if kind == "" {
			kind = k
			continue
		}
		if kind != k {
			// int/float mixtures are still numeric
			if (kind == KindInt && k == KindFloat) || (kind == KindFloat && k == KindInt) {
				kind = KindFloat
				continue
			}
			return KindString
		}
	}
	if kind == "" {
		return KindString
	}
	return kind
}
