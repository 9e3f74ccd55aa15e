// Package normalize canonicalizes column names and null-like cell values.
// Both operations are idempotent and run early in the pipeline so every
// later stage sees stable names and real nulls.
package normalize

import (
	"fmt"
	"regexp"
	"strings"

	"cleansed/internal/table"
)

var nonWord = regexp.MustCompile(`[^\w]+`)

// nullTokens are the heterogeneous encodings of "no value" that show up in
// real-world exports.
var nullTokens = map[string]bool{
	"":          true,
	"null":      true,
	"none":      true,
	"nan":       true,
	"na":        true,
	"n/a":       true,
	"undefined": true,
}

// ColumnKey converts one raw column name to its canonical slug: trim,
// lower-case, collapse runs of non-word characters to a single underscore,
// strip leading/trailing underscores. An empty result becomes "column".
func ColumnKey(name string) string {
	key := strings.ToLower(strings.TrimSpace(name))
	key = nonWord.ReplaceAllString(key, "_")
	key = strings.Trim(key, "_")
	if key == "" {
		key = "column"
	}
	return key
}

// StandardizeColumns renames every column to its canonical key, resolving
// collisions deterministically by appending _1, _2, ... in encounter order.
// Re-applying to already-normalized names is a no-op.
func StandardizeColumns(t *table.Table) error {
	seen := make(map[string]int)
	names := make([]string, 0, t.NumColumns())
	for _, col := range t.Columns() {
		key := ColumnKey(col)
		if n, dup := seen[key]; dup {
			seen[key] = n + 1
			key = fmt.Sprintf("%s_%d", key, n)
		} else {
			seen[key] = 1
		}
		names = append(names, key)
	}
	return t.RenameColumns(names)
}

// IsNullToken reports whether a raw string encodes a missing value.
func IsNullToken(s string) bool {
	return nullTokens[strings.ToLower(strings.TrimSpace(s))]
}

// NormalizeValues trims string cells and converts null-like encodings
// ("", "null", "none", "nan", "na", "n/a", "undefined", case-insensitive)
// to real nulls, in place. Returns the number of cells nulled.
func NormalizeValues(t *table.Table) int {
	nulled := 0
	for _, col := range t.Columns() {
		vals := t.Column(col)
		for i, v := range vals {
			s, ok := v.(string)
			if !ok {
				continue
			}
			trimmed := strings.TrimSpace(s)
			if IsNullToken(trimmed) {
				vals[i] = nil
				nulled++
				continue
			}
			vals[i] = trimmed
		}
	}
	return nulled
}
