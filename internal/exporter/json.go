package exporter

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"cleansed/internal/table"
)

// WriteJSON serializes the table as an array of records at the job's
// deterministic path. Datetimes are rendered with the shared value format
// so CSV and JSON artifacts agree.
func (w *Writer) WriteJSON(jobID string, t *table.Table) (string, error) {
	if err := w.ensureDir(); err != nil {
		return "", err
	}
	path := w.CleanedPath(jobID, FormatJSON)

	records := make([]map[string]any, t.NumRows())
	for row := 0; row < t.NumRows(); row++ {
		record := make(map[string]any, t.NumColumns())
		for _, col := range t.Columns() {
			v := t.Value(col, row)
			if ts, ok := v.(time.Time); ok {
				v = ts.Format(table.DateTimeFormat)
			}
			if table.IsNull(v) {
				v = nil
			}
			record[col] = v
		}
		records[row] = record
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal records: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write output file: %w", err)
	}

	slog.Info("wrote JSON artifact",
		slog.String("job_id", jobID),
		slog.String("path", path),
		slog.Int("rows", t.NumRows()))
	return path, nil
}

// WriteTable dispatches on the requested format, defaulting to CSV.
func (w *Writer) WriteTable(jobID, format string, t *table.Table) (string, error) {
	if format == FormatJSON {
		return w.WriteJSON(jobID, t)
	}
	return w.WriteCSV(jobID, t)
}
