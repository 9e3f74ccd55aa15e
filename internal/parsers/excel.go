package parsers

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"

	"cleansed/internal/table"
)

// ParseExcel reads every sheet of a workbook and concatenates them row-wise
// into one table. Heterogeneous sheets produce a sparse union of columns,
// with nulls where a sheet does not contribute a column. Empty rows are
// dropped per sheet.
func ParseExcel(path string) (*table.Table, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, err
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening workbook: %v", ErrMalformed, err)
	}
	defer f.Close()

	var columns []string
	seen := make(map[string]bool)
	var rows []map[string]any

	for _, sheet := range f.GetSheetList() {
		sheetRows, err := f.GetRows(sheet)
		if err != nil {
			slog.Warn("skipping unreadable sheet",
				slog.String("path", path),
				slog.String("sheet", sheet),
				slog.String("error", err.Error()))
			continue
		}
		header, body := splitSheet(sheetRows)
		if len(header) == 0 {
			continue
		}
		header = dedupeHeader(trimAll(header))
		for _, col := range header {
			if !seen[col] {
				seen[col] = true
				columns = append(columns, col)
			}
		}
		for _, record := range body {
			if emptyRecord(record) {
				continue
			}
			row := make(map[string]any, len(header))
			for i, col := range header {
				if i < len(record) {
					row[col] = strings.TrimSpace(record[i])
				}
			}
			rows = append(rows, row)
		}
	}

	t, err := table.New(columns...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	for _, row := range rows {
		t.AppendRow(row)
	}
	return t, nil
}

// splitSheet locates the first non-empty row as the header and returns it
// with the remaining rows.
func splitSheet(rows [][]string) ([]string, [][]string) {
	for i, row := range rows {
		if !emptyRecord(row) {
			return row, rows[i+1:]
		}
	}
	return nil, nil
}

func trimAll(fields []string) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = strings.TrimSpace(f)
	}
	return out
}
