// Package typeinfer infers the most likely semantic type of each column
// from cell content and converts columns in place. Candidate types are
// checked in priority order (boolean, integer, float, datetime) against a
// confidence threshold; anything below threshold stays a string column.
package typeinfer

import (
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"cleansed/internal/table"
)

// DefaultConfidence is the minimum fraction of non-null values that must
// match a candidate type before it is enforced.
const DefaultConfidence = 0.8

// explicitFormats are tried first so common layouts never fall into
// ambiguous-format guessing.
var explicitFormats = []string{
	"2006-01-02",
	"01/02/2006",
	"02/01/2006",
	"2006/01/02",
	"2006-01-02 15:04:05",
	"01/02/2006 15:04",
}

// lenientFormats are the fallback layouts attempted only when no explicit
// format reaches the confidence threshold for a column.
var lenientFormats = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"Jan 2, 2006",
	"2 Jan 2006",
	"January 2, 2006",
	"2006.01.02",
}

// ParseDateTime parses a textual datetime using the explicit format list
// and then the lenient fallbacks.
func ParseDateTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range explicitFormats {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, true
		}
	}
	for _, layout := range lenientFormats {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// DetectColumnTypes computes the candidate-type match ratio for each column
// over its non-null values and returns the first candidate that reaches the
// threshold, in priority order. Columns with no non-null values are strings.
func DetectColumnTypes(t *table.Table, threshold float64) map[string]table.Kind {
	if threshold <= 0 {
		threshold = DefaultConfidence
	}
	detected := make(map[string]table.Kind, t.NumColumns())
	for _, col := range t.Columns() {
		detected[col] = detectColumn(t.Column(col), threshold)
	}
	return detected
}

func detectColumn(values []any, threshold float64) table.Kind {
	var total, boolN, numericN, intN int
	for _, v := range values {
		if table.IsNull(v) {
			continue
		}
		total++
		if table.IsBoolToken(v) {
			boolN++
		}
		if f, ok := table.AsFloat(v); ok {
			numericN++
			if f == math.Trunc(f) {
				intN++
			}
		}
	}
	if total == 0 {
		return table.KindString
	}
	if ratio(boolN, total) >= threshold {
		return table.KindBool
	}
	if ratio(numericN, total) >= threshold {
		if intN == numericN {
			return table.KindInt
		}
		return table.KindFloat
	}
	if datetimeRatio(values, total) >= threshold {
		return table.KindDateTime
	}
	return table.KindString
}

func datetimeRatio(values []any, total int) float64 {
	matched := 0
	for _, v := range values {
		if table.IsNull(v) {
			continue
		}
		switch x := v.(type) {
		case time.Time:
			matched++
		case string:
			if _, ok := ParseDateTime(x); ok {
				matched++
			}
		}
	}
	return ratio(matched, total)
}

func ratio(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total)
}

// Conversion records one column's enforcement outcome.
type Conversion struct {
	Original table.Kind `json:"original"`
	Target   table.Kind `json:"target"`
	Final    table.Kind `json:"final"`
}

// Report summarizes a type-enforcement pass.
type Report struct {
	ColumnsEnforced int                   `json:"columns_enforced"`
	Conversions     map[string]Conversion `json:"conversions"`
	Errors          []string              `json:"errors"`
}

// EnforceTypes converts each column in place to its detected or declared
// type. Caller-supplied entries in typeMap take precedence over inference.
// Individual cells that cannot be converted become null; a column named in
// typeMap but absent from the table is recorded as a column-level error.
func EnforceTypes(t *table.Table, typeMap map[string]table.Kind, autoDetect bool, threshold float64) Report {
	report := Report{Conversions: make(map[string]Conversion)}
	if t == nil || t.NumColumns() == 0 {
		return report
	}

	targets := make(map[string]table.Kind)
	if autoDetect {
		targets = DetectColumnTypes(t, threshold)
	}
	for col, kind := range typeMap {
		targets[col] = kind
	}
	if len(targets) == 0 {
		return report
	}

	for _, col := range sortedTargetColumns(targets) {
		target := targets[col]
		if !t.HasColumn(col) {
			report.Errors = append(report.Errors, "column '"+col+"' not found")
			continue
		}
		original := t.KindOf(col)
		convertColumn(t.Column(col), target)
		report.Conversions[col] = Conversion{
			Original: original,
			Target:   target,
			Final:    t.KindOf(col),
		}
		report.ColumnsEnforced++
		slog.Debug("type enforced",
			slog.String("column", col),
			slog.String("original", string(original)),
			slog.String("target", string(target)))
	}
	return report
}

func convertColumn(values []any, target table.Kind) {
	for i, v := range values {
		if table.IsNull(v) {
			values[i] = nil
			continue
		}
		switch target {
		case table.KindBool:
			if b, ok := table.AsBool(v); ok {
				values[i] = b
			} else {
				values[i] = nil
			}
		case table.KindInt:
			if f, ok := table.AsFloat(v); ok {
				values[i] = int64(f)
			} else {
				values[i] = nil
			}
		case table.KindFloat:
			if f, ok := table.AsFloat(v); ok {
				values[i] = f
			} else {
				values[i] = nil
			}
		case table.KindDateTime:
			switch x := v.(type) {
			case time.Time:
				// already converted
			case string:
				if ts, ok := ParseDateTime(x); ok {
					values[i] = ts
				} else {
					values[i] = nil
				}
			default:
				values[i] = nil
			}
		case table.KindString:
			values[i] = table.AsString(v)
		}
	}
}

func sortedTargetColumns(targets map[string]table.Kind) []string {
	cols := make([]string, 0, len(targets))
	for col := range targets {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	return cols
}
