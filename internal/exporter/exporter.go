// Package exporter serializes cleaned tables and error reports to disk.
//
// Artifacts live under a single output directory at deterministic paths
// keyed by job id:
//
//	cleaned_<job_id>.csv   or  cleaned_<job_id>.json
//	errors_<job_id>.txt
package exporter

import (
	"fmt"
	"os"
	"path/filepath"
)

// Output formats.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
	FormatText = "txt"
)

// Writer exports pipeline artifacts under a base directory.
type Writer struct {
	dir string
}

// NewWriter creates a writer rooted at dir.
func NewWriter(dir string) *Writer {
	return &Writer{dir: dir}
}

// CleanedPath returns the deterministic artifact path for a job's cleaned
// output in the given format.
func (w *Writer) CleanedPath(jobID, format string) string {
	ext := FormatCSV
	switch format {
	case FormatJSON, FormatText:
		ext = format
	}
	return filepath.Join(w.dir, fmt.Sprintf("cleaned_%s.%s", jobID, ext))
}

// ErrorReportPath returns the deterministic path of a job's error report.
func (w *Writer) ErrorReportPath(jobID string) string {
	return filepath.Join(w.dir, fmt.Sprintf("errors_%s.txt", jobID))
}

func (w *Writer) ensureDir() error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	return nil
}
