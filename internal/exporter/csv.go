package exporter

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"

	"cleansed/internal/table"
)

// WriteCSV serializes the table as CSV at the job's deterministic path.
// Cells are stringified with the shared value formatting, nulls as empty
// strings. A UTF-8 BOM is prepended so Excel opens the file correctly.
func (w *Writer) WriteCSV(jobID string, t *table.Table) (string, error) {
	if err := w.ensureDir(); err != nil {
		return "", err
	}
	path := w.CleanedPath(jobID, FormatCSV)

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	if _, err := file.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return "", fmt.Errorf("failed to write BOM: %w", err)
	}

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write(t.Columns()); err != nil {
		return "", fmt.Errorf("failed to write header: %w", err)
	}
	record := make([]string, t.NumColumns())
	for row := 0; row < t.NumRows(); row++ {
		for i, col := range t.Columns() {
			record[i] = table.AsString(t.Value(col, row))
		}
		if err := writer.Write(record); err != nil {
			return "", fmt.Errorf("failed to write record %d: %w", row, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", err
	}

	slog.Info("wrote CSV artifact",
		slog.String("job_id", jobID),
		slog.String("path", path),
		slog.Int("rows", t.NumRows()))
	return path, nil
}
