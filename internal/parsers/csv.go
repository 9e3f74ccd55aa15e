package parsers

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"cleansed/internal/table"
)

// ParseCSV reads a CSV file permissively: invalid encoding bytes are
// replaced, structurally broken lines are skipped, fully empty rows are
// dropped, and every value is kept as a raw trimmed string.
func ParseCSV(path string) (*table.Table, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, fmt.Errorf("%w: empty CSV file", ErrMalformed)
	}

	reader := csv.NewReader(strings.NewReader(strings.ToValidUTF8(string(data), "�")))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: reading CSV header: %v", ErrMalformed, err)
	}
	columns := make([]string, len(header))
	for i, name := range header {
		columns[i] = strings.TrimSpace(name)
	}

	t, err := table.New(dedupeHeader(columns)...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	skipped := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// broken line, not fatal
			skipped++
			continue
		}
		if emptyRecord(record) {
			continue
		}
		row := make(map[string]any, len(columns))
		for i, col := range t.Columns() {
			if i < len(record) {
				row[col] = strings.TrimSpace(record[i])
			}
		}
		t.AppendRow(row)
	}

	if skipped > 0 {
		slog.Warn("skipped malformed CSV lines",
			slog.String("path", path),
			slog.Int("skipped", skipped))
	}
	return t, nil
}

// dedupeHeader makes raw header names unique so the table accepts them.
// Proper canonical renaming happens later in the normalize stage.
func dedupeHeader(columns []string) []string {
	seen := make(map[string]int, len(columns))
	out := make([]string, len(columns))
	for i, name := range columns {
		if name == "" {
			name = "column"
		}
		if n, dup := seen[name]; dup {
			seen[name] = n + 1
			out[i] = fmt.Sprintf("%s_%d", name, n)
		} else {
			seen[name] = 1
			out[i] = name
		}
	}
	return out
}

func emptyRecord(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}
