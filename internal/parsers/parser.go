// Package parsers reads CSV, JSON, Excel, and Markdown files into the
// in-memory table representation. Typing is deferred: tabular parsers emit
// raw values and leave semantic type inference to later stages.
package parsers

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FileKind identifies the declared or inferred format of an input file.
type FileKind string

const (
	FileKindCSV      FileKind = "csv"
	FileKindJSON     FileKind = "json"
	FileKindExcel    FileKind = "excel"
	FileKindMarkdown FileKind = "markdown"
)

// Sentinel errors for the two fatal parse-stage outcomes. Callers classify
// with errors.Is.
var (
	ErrNotFound  = errors.New("input file not found")
	ErrMalformed = errors.New("malformed input")
)

// DetectKind infers the file kind from its extension.
func DetectKind(path string) (FileKind, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FileKindCSV, nil
	case ".json":
		return FileKindJSON, nil
	case ".xlsx", ".xls":
		return FileKindExcel, nil
	case ".md", ".markdown":
		return FileKindMarkdown, nil
	default:
		return "", fmt.Errorf("unsupported file extension %q", filepath.Ext(path))
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// readFile loads a file, mapping a missing path onto ErrNotFound.
func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, err
	}
	return data, nil
}
