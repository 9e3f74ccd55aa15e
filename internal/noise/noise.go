// Package noise removes duplicate rows and statistical outliers. Both
// operations preserve first-occurrence row order and fail soft: a column
// that cannot be processed is skipped and the table returned as-is.
package noise

import (
	"log/slog"
	"math"
	"sort"
	"strings"

	"cleansed/internal/table"
)

// DedupeReport summarizes a duplicate-removal pass.
type DedupeReport struct {
	OriginalRows  int    `json:"original_rows"`
	FinalRows     int    `json:"final_rows"`
	RemovedExact  int    `json:"removed_exact"`
	RemovedFuzzy  int    `json:"removed_fuzzy"`
	FuzzyAttempts bool   `json:"fuzzy_attempted"`
	Error         string `json:"error,omitempty"`
}

// RemoveDuplicates drops repeated rows, keeping the first occurrence. An
// exact pass compares rows cell for cell; only when that pass removes
// nothing does a second pass compare normalized fingerprints, catching rows
// that differ in case or surrounding whitespace.
func RemoveDuplicates(t *table.Table) (*table.Table, DedupeReport) {
	report := DedupeReport{}
	if t == nil || t.NumRows() == 0 {
		return t, report
	}
	report.OriginalRows = t.NumRows()
	report.FinalRows = t.NumRows()

	deduped, removed := dedupeBy(t, exactFingerprint)
	if removed > 0 {
		report.RemovedExact = removed
		report.FinalRows = deduped.NumRows()
		return deduped, report
	}

	report.FuzzyAttempts = true
	deduped, removed = dedupeBy(t, Fingerprint)
	if removed > 0 {
		report.RemovedFuzzy = removed
		report.FinalRows = deduped.NumRows()
		slog.Debug("fuzzy dedupe removed rows", slog.Int("removed", removed))
		return deduped, report
	}
	return t, report
}

func dedupeBy(t *table.Table, fingerprint func(*table.Table, int) string) (*table.Table, int) {
	seen := make(map[string]bool, t.NumRows())
	keep := make([]bool, t.NumRows())
	removed := 0
	for i := 0; i < t.NumRows(); i++ {
		fp := fingerprint(t, i)
		if seen[fp] {
			removed++
			continue
		}
		seen[fp] = true
		keep[i] = true
	}
	if removed == 0 {
		return t, 0
	}
	deduped, err := t.Select(keep)
	if err != nil {
		return t, 0
	}
	return deduped, removed
}

// exactFingerprint joins the stringified cells of a row without any
// normalization, so only byte-identical rows collide.
func exactFingerprint(t *table.Table, row int) string {
	parts := make([]string, 0, t.NumColumns())
	for _, col := range t.Columns() {
		parts = append(parts, table.AsString(t.Value(col, row)))
	}
	return strings.Join(parts, "|")
}

// Fingerprint builds the fuzzy identity of a row: each cell stringified,
// trimmed and lower-cased, joined with "|".
func Fingerprint(t *table.Table, row int) string {
	parts := make([]string, 0, t.NumColumns())
	for _, col := range t.Columns() {
		parts = append(parts, strings.ToLower(strings.TrimSpace(table.AsString(t.Value(col, row)))))
	}
	return strings.Join(parts, "|")
}

// Minimum non-null values before a column's IQR is considered meaningful.
const minOutlierSamples = 10

// OutlierColumn describes the removal outcome for one column.
type OutlierColumn struct {
	Lower   float64 `json:"lower_bound"`
	Upper   float64 `json:"upper_bound"`
	Removed int     `json:"outliers_removed"`
}

// OutlierReport summarizes an outlier-removal pass.
type OutlierReport struct {
	OriginalRows int                      `json:"original_rows"`
	FinalRows    int                      `json:"final_rows"`
	Columns      map[string]OutlierColumn `json:"columns"`
	Skipped      map[string]string        `json:"skipped,omitempty"`
}

// RemoveOutliers drops rows whose value in any targeted column falls
// outside the column's IQR fences. When columns is empty, numeric columns
// are auto-detected (>=60% of values parse as numbers). Columns with fewer
// than 10 non-null values, two or fewer distinct values, or a zero IQR are
// skipped. Columns are processed sequentially, so each column's quartiles
// reflect rows surviving the previous columns.
func RemoveOutliers(t *table.Table, columns []string) (*table.Table, OutlierReport) {
	report := OutlierReport{
		Columns: make(map[string]OutlierColumn),
		Skipped: make(map[string]string),
	}
	if t == nil || t.NumRows() == 0 {
		return t, report
	}
	report.OriginalRows = t.NumRows()

	if len(columns) == 0 {
		columns = detectNumericColumns(t)
	}

	for _, col := range columns {
		if !t.HasColumn(col) {
			report.Skipped[col] = "column not found"
			continue
		}
		nums := numericValues(t.Column(col))
		if len(nums) < minOutlierSamples {
			report.Skipped[col] = "too few non-null values"
			continue
		}
		if distinctCount(nums) <= 2 {
			report.Skipped[col] = "too few distinct values"
			continue
		}
		lower, upper, ok := IQRBounds(nums)
		if !ok {
			report.Skipped[col] = "zero interquartile range"
			continue
		}

		values := t.Column(col)
		keep := make([]bool, len(values))
		removed := 0
		for i, v := range values {
			f, isNum := table.AsFloat(v)
			if isNum && (f < lower || f > upper) {
				removed++
				continue
			}
			keep[i] = true
		}
		if removed > 0 {
			narrowed, err := t.Select(keep)
			if err != nil {
				report.Skipped[col] = err.Error()
				continue
			}
			t = narrowed
		}
		report.Columns[col] = OutlierColumn{Lower: lower, Upper: upper, Removed: removed}
		slog.Debug("outlier fences applied",
			slog.String("column", col),
			slog.Float64("lower", lower),
			slog.Float64("upper", upper),
			slog.Int("removed", removed))
	}

	report.FinalRows = t.NumRows()
	if len(report.Skipped) == 0 {
		report.Skipped = nil
	}
	return t, report
}

// detectNumericColumns returns the columns where more than 60% of values
// parse as numbers.
func detectNumericColumns(t *table.Table) []string {
	var cols []string
	for _, col := range t.Columns() {
		values := t.Column(col)
		if len(values) == 0 {
			continue
		}
		numeric := 0
		for _, v := range values {
			if table.IsNull(v) {
				continue
			}
			if _, ok := table.AsFloat(v); ok {
				numeric++
			}
		}
		if float64(numeric) > float64(len(values))*0.6 {
			cols = append(cols, col)
		}
	}
	return cols
}

func numericValues(values []any) []float64 {
	var nums []float64
	for _, v := range values {
		if table.IsNull(v) {
			continue
		}
		if f, ok := table.AsFloat(v); ok {
			nums = append(nums, f)
		}
	}
	return nums
}

func distinctCount(nums []float64) int {
	set := make(map[float64]bool, len(nums))
	for _, f := range nums {
		set[f] = true
	}
	return len(set)
}

// IQRBounds computes the Tukey fences (Q1 - 1.5*IQR, Q3 + 1.5*IQR) for a
// sample. Returns ok=false when the interquartile range is zero.
func IQRBounds(nums []float64) (lower, upper float64, ok bool) {
	q1 := Quantile(nums, 0.25)
	q3 := Quantile(nums, 0.75)
	iqr := q3 - q1
	if iqr == 0 {
		return 0, 0, false
	}
	return q1 - 1.5*iqr, q3 + 1.5*iqr, true
}

// Quantile computes the q-th quantile of a sample using linear
// interpolation between closest ranks.
func Quantile(nums []float64, q float64) float64 {
	if len(nums) == 0 {
		return math.NaN()
	}
	sorted := append([]float64(nil), nums...)
	sort.Float64s(sorted)
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
