package exporter

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// WriteText persists a cleaned prose artifact, used for markdown inputs.
func (w *Writer) WriteText(jobID, content string) (string, error) {
	if err := w.ensureDir(); err != nil {
		return "", err
	}
	path := w.CleanedPath(jobID, FormatText)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("failed to write text artifact: %w", err)
	}
	return path, nil
}

// WriteErrorReport persists a plain-text error report for a job. Writing
// nothing when there are no errors keeps the artifact's presence meaningful.
func (w *Writer) WriteErrorReport(jobID, fileName string, errs []string) (string, error) {
	if len(errs) == 0 {
		return "", nil
	}
	if err := w.ensureDir(); err != nil {
		return "", err
	}
	path := w.ErrorReportPath(jobID)

	var b strings.Builder
	b.WriteString("Data Cleaning Error Report\n")
	b.WriteString("==========================\n\n")
	fmt.Fprintf(&b, "Job ID:    %s\n", jobID)
	fmt.Fprintf(&b, "File:      %s\n", fileName)
	fmt.Fprintf(&b, "Generated: %s\n\n", time.Now().UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "Errors (%d):\n", len(errs))
	for i, msg := range errs {
		fmt.Fprintf(&b, "%3d. %s\n", i+1, msg)
	}

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("failed to write error report: %w", err)
	}
	return path, nil
}
