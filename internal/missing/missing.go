// Package missing detects null values across heterogeneous encodings and
// applies per-column fill/drop/flag strategies. One column's failure is
// recorded in the report and never aborts the remaining columns.
package missing

import (
	"fmt"
	"log/slog"
	"math"
	"sort"

	"cleansed/internal/table"
)

// Strategy names a missing-data handling tactic for one column.
type Strategy string

const (
	FillMean     Strategy = "fill_mean"
	FillMedian   Strategy = "fill_median"
	FillMode     Strategy = "fill_mode"
	FillForward  Strategy = "fill_forward"
	FillBackward Strategy = "fill_backward"
	FillValue    Strategy = "fill_value"
	DropRows     Strategy = "drop_rows"
	DropColumns  Strategy = "drop_columns"
	Flag         Strategy = "flag"
)

// DefaultFlagSuffix is appended to a column name to form its flag column.
const DefaultFlagSuffix = "_missing"

// ColumnStats describes missing data in one column.
type ColumnStats struct {
	MissingCount   int        `json:"missing_count"`
	MissingPercent float64    `json:"missing_percentage"`
	Kind           table.Kind `json:"dtype"`
}

// Analysis summarizes missing data across the table with a recommended
// strategy per affected column.
type Analysis struct {
	TotalRows       int                    `json:"total_rows"`
	TotalMissing    int                    `json:"total_missing"`
	MissingPercent  float64                `json:"missing_percentage"`
	Columns         map[string]ColumnStats `json:"columns"`
	Recommendations map[string]Strategy    `json:"recommendations"`
}

// Analyze counts nulls per column and overall and derives a recommendation
// from the column type: numeric columns get the median, booleans the mode,
// datetimes a forward fill, everything else the mode. A column missing more
// than half its values is recommended for dropping instead.
func Analyze(t *table.Table) Analysis {
	analysis := Analysis{
		Columns:         make(map[string]ColumnStats),
		Recommendations: make(map[string]Strategy),
	}
	if t == nil || t.NumRows() == 0 {
		return analysis
	}

	rows := t.NumRows()
	totalCells := rows * t.NumColumns()
	analysis.TotalRows = rows
	analysis.TotalMissing = t.MissingCells()
	if totalCells > 0 {
		analysis.MissingPercent = round2(float64(analysis.TotalMissing) / float64(totalCells) * 100)
	}

	for _, col := range t.Columns() {
		missingCount := t.ColumnMissing(col)
		if missingCount == 0 {
			continue
		}
		pct := round2(float64(missingCount) / float64(rows) * 100)
		kind := t.KindOf(col)

		var recommended Strategy
		switch kind {
		case table.KindInt, table.KindFloat:
			recommended = FillMedian
		case table.KindBool:
			recommended = FillMode
		case table.KindDateTime:
			recommended = FillForward
		default:
			recommended = FillMode
		}
		if pct > 50 {
			recommended = DropColumns
		}

		analysis.Columns[col] = ColumnStats{
			MissingCount:   missingCount,
			MissingPercent: pct,
			Kind:           kind,
		}
		analysis.Recommendations[col] = recommended
	}
	return analysis
}

// Options configures a missing-data handling pass.
type Options struct {
	// Strategies maps columns to strategies; columns not listed use Default.
	Strategies map[string]Strategy
	// Default applies to affected columns without an explicit strategy.
	Default Strategy
	// FillValue is the literal used by the fill_value strategy.
	FillValue any
	// FlagSuffix overrides the flag column suffix (default "_missing").
	FlagSuffix string
}

// Report records the actions taken by a handling pass.
type Report struct {
	ColumnsProcessed int               `json:"columns_processed"`
	RowsDropped      int               `json:"rows_dropped"`
	ColumnsDropped   int               `json:"columns_dropped"`
	Actions          map[string]string `json:"actions"`
	FinalRows        int               `json:"final_rows"`
	FinalColumns     int               `json:"final_columns"`
}

// Handle applies a strategy to every column with missing values. When no
// strategies are supplied the analysis recommendations are used. Column
// drops are deferred until all columns are processed so later columns still
// see the full table. Returns the resulting table and a report.
func Handle(t *table.Table, opts Options) (*table.Table, Report) {
	report := Report{Actions: make(map[string]string)}
	if t == nil || t.NumRows() == 0 {
		return t, report
	}

	if opts.Default == "" {
		opts.Default = FillMean
	}
	if opts.FlagSuffix == "" {
		opts.FlagSuffix = DefaultFlagSuffix
	}
	strategies := opts.Strategies
	if strategies == nil {
		strategies = Analyze(t).Recommendations
	}

	var columnsToDrop []string
	for _, col := range t.Columns() {
		if t.ColumnMissing(col) == 0 {
			continue
		}
		strategy, ok := strategies[col]
		if !ok {
			strategy = opts.Default
		}

		next, action, err := applyStrategy(t, col, strategy, opts, &report, &columnsToDrop)
		if err != nil {
			report.Actions[col] = fmt.Sprintf("Error: %v", err)
			slog.Warn("missing data strategy failed",
				slog.String("column", col),
				slog.String("strategy", string(strategy)),
				slog.String("error", err.Error()))
			continue
		}
		t = next
		report.Actions[col] = action
		report.ColumnsProcessed++
		slog.Debug("missing data handled",
			slog.String("column", col),
			slog.String("strategy", string(strategy)))
	}

	if len(columnsToDrop) > 0 {
		t.DropColumns(columnsToDrop...)
		report.ColumnsDropped = len(columnsToDrop)
	}
	report.FinalRows = t.NumRows()
	report.FinalColumns = t.NumColumns()
	return t, report
}

func applyStrategy(t *table.Table, col string, strategy Strategy, opts Options, report *Report, columnsToDrop *[]string) (*table.Table, string, error) {
	switch strategy {
	case FillMean:
		if fill, ok := meanOf(t.Column(col)); ok {
			fillNulls(t.Column(col), fill)
			return t, fmt.Sprintf("Filled with mean (%s)", table.AsString(fill)), nil
		}
		return t, fillWithMode(t.Column(col)) + " (mean not applicable for non-numeric)", nil

	case FillMedian:
		if fill, ok := medianOf(t.Column(col)); ok {
			fillNulls(t.Column(col), fill)
			return t, fmt.Sprintf("Filled with median (%s)", table.AsString(fill)), nil
		}
		return t, fillWithMode(t.Column(col)) + " (median not applicable)", nil

	case FillMode:
		return t, fillWithMode(t.Column(col)), nil

	case FillForward:
		forwardFill(t.Column(col))
		backwardFill(t.Column(col))
		return t, "Forward filled (with backward fill for leading nulls)", nil

	case FillBackward:
		backwardFill(t.Column(col))
		forwardFill(t.Column(col))
		return t, "Backward filled (with forward fill for trailing nulls)", nil

	case FillValue:
		fillNulls(t.Column(col), opts.FillValue)
		return t, fmt.Sprintf("Filled with custom value (%v)", opts.FillValue), nil

	case DropRows:
		before := t.NumRows()
		keep := make([]bool, before)
		for i, v := range t.Column(col) {
			keep[i] = !table.IsNull(v)
		}
		next, err := t.Select(keep)
		if err != nil {
			return t, "", err
		}
		dropped := before - next.NumRows()
		report.RowsDropped += dropped
		return next, fmt.Sprintf("Dropped %d rows with missing values", dropped), nil

	case DropColumns:
		*columnsToDrop = append(*columnsToDrop, col)
		return t, "Marked for column drop", nil

	case Flag:
		flagCol := col + opts.FlagSuffix
		flags := make([]any, t.NumRows())
		for i, v := range t.Column(col) {
			flags[i] = table.IsNull(v)
		}
		if err := t.AddColumn(flagCol, flags); err != nil {
			return t, "", err
		}
		return t, fmt.Sprintf("Created flag column '%s'", flagCol), nil

	default:
		return t, "", fmt.Errorf("unknown strategy %q", strategy)
	}
}

func fillNulls(values []any, fill any) {
	for i, v := range values {
		if table.IsNull(v) {
			values[i] = fill
		}
	}
}

func fillWithMode(values []any) string {
	mode, ok := modeOf(values)
	if !ok {
		return "No non-null values to derive mode from"
	}
	fillNulls(values, mode)
	return fmt.Sprintf("Filled with mode (%s)", table.AsString(mode))
}

func forwardFill(values []any) {
	var last any
	haveLast := false
	for i, v := range values {
		if table.IsNull(v) {
			if haveLast {
				values[i] = last
			}
			continue
		}
		last = v
		haveLast = true
	}
}

func backwardFill(values []any) {
	var next any
	haveNext := false
	for i := len(values) - 1; i >= 0; i-- {
		if table.IsNull(values[i]) {
			if haveNext {
				values[i] = next
			}
			continue
		}
		next = values[i]
		haveNext = true
	}
}

// meanOf computes the mean of numeric cells. Columns whose non-null values
// are not all numeric do not qualify.
func meanOf(values []any) (any, bool) {
	nums, intKind, ok := numericColumn(values)
	if !ok || len(nums) == 0 {
		return nil, false
	}
	sum := 0.0
	for _, f := range nums {
		sum += f
	}
	mean := sum / float64(len(nums))
	return numericFill(mean, intKind), true
}

func medianOf(values []any) (any, bool) {
	nums, intKind, ok := numericColumn(values)
	if !ok || len(nums) == 0 {
		return nil, false
	}
	sorted := append([]float64(nil), nums...)
	sort.Float64s(sorted)
	var median float64
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		median = sorted[mid]
	} else {
		median = (sorted[mid-1] + sorted[mid]) / 2
	}
	return numericFill(median, intKind), true
}

// modeOf returns the most frequent non-null value; ties break toward the
// earliest first occurrence.
func modeOf(values []any) (any, bool) {
	counts := make(map[string]int)
	firstSeen := make(map[string]int)
	byKey := make(map[string]any)
	for i, v := range values {
		if table.IsNull(v) {
			continue
		}
		key := table.AsString(v)
		counts[key]++
		if _, seen := firstSeen[key]; !seen {
			firstSeen[key] = i
			byKey[key] = v
		}
	}
	bestKey := ""
	bestCount := 0
	for key, count := range counts {
		if count > bestCount || (count == bestCount && firstSeen[key] < firstSeen[bestKey]) {
			bestKey = key
			bestCount = count
		}
	}
	if bestCount == 0 {
		return nil, false
	}
	return byKey[bestKey], true
}

// numericColumn extracts the non-null values of a genuinely numeric column
// (int64/float64 cells, not numeric-looking strings), reporting whether the
// column qualifies and whether all values are whole numbers.
func numericColumn(values []any) ([]float64, bool, bool) {
	var nums []float64
	intKind := true
	for _, v := range values {
		if table.IsNull(v) {
			continue
		}
		switch x := v.(type) {
		case int64:
			nums = append(nums, float64(x))
		case int:
			nums = append(nums, float64(x))
		case float64:
			if x != math.Trunc(x) {
				intKind = false
			}
			nums = append(nums, x)
		default:
			return nil, false, false
		}
	}
	return nums, intKind, true
}

func numericFill(f float64, intKind bool) any {
	if intKind && f == math.Trunc(f) {
		return int64(f)
	}
	return f
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
