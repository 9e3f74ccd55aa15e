package pipeline

import (
	"cleansed/internal/noise"
	"cleansed/internal/table"
)

// ColumnProfile describes one column of the final table.
type ColumnProfile struct {
	Dtype   table.Kind `json:"dtype"`
	Missing int        `json:"missing"`
}

// Profile is the structural summary of the cleaned table included in the
// result payload.
type Profile struct {
	Rows           int                      `json:"rows"`
	Columns        int                      `json:"columns"`
	Cells          int                      `json:"cells"`
	MissingCells   int                      `json:"missing_cells"`
	DuplicateRows  int                      `json:"duplicate_rows"`
	NumericColumns []string                 `json:"numeric_columns"`
	ColumnDetail   map[string]ColumnProfile `json:"column_detail"`
}

// profileTable summarizes the table after all cleaning stages ran.
func profileTable(t *table.Table) Profile {
	p := Profile{
		Rows:         t.NumRows(),
		Columns:      t.NumColumns(),
		Cells:        t.NumRows() * t.NumColumns(),
		MissingCells: t.MissingCells(),
		ColumnDetail: make(map[string]ColumnProfile, t.NumColumns()),
	}
	for _, col := range t.Columns() {
		kind := t.KindOf(col)
		p.ColumnDetail[col] = ColumnProfile{
			Dtype:   kind,
			Missing: t.ColumnMissing(col),
		}
		if kind == table.KindInt || kind == table.KindFloat {
			p.NumericColumns = append(p.NumericColumns, col)
		}
	}

	seen := make(map[string]bool, t.NumRows())
	for i := 0; i < t.NumRows(); i++ {
		fp := noise.Fingerprint(t, i)
		if seen[fp] {
			p.DuplicateRows++
			continue
		}
		seen[fp] = true
	}
	return p
}
