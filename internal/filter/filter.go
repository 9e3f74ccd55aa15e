// Package filter evaluates a dynamic set of column- and global-scope
// predicates against a table. All predicates combine conjunctively: every
// predicate narrows the surviving row set further. A predicate that cannot
// be resolved or whose operand is invalid for the column type is skipped
// (fails open) without disturbing the other predicates.
package filter

import (
	"log/slog"
	"sort"
	"strings"
	"time"

	"cleansed/internal/table"
	"cleansed/internal/typeinfer"
)

// Global-scope predicate keys, evaluated before column-specific ones.
const (
	KeyTextSearch   = "_textSearch"
	KeyDateRange    = "_dateRange"
	KeyNumericRange = "_numericRange"
)

// parseRatio is the fraction of values that must parse as a type before a
// column is treated as that type for filtering purposes.
const parseRatio = 0.6

// Predicate is one filter rule. Which fields matter depends on Op.
type Predicate struct {
	Op    string `json:"op"`
	Value any    `json:"value,omitempty"`
	Min   any    `json:"min,omitempty"`
	Max   any    `json:"max,omitempty"`
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

// Apply narrows the table by every predicate in the set, conjunctively.
// Global-scope predicates run first, then column predicates in sorted key
// order (order does not affect the result of an intersection).
func Apply(t *table.Table, filters map[string]Predicate) *table.Table {
	if t == nil || t.NumRows() == 0 || len(filters) == 0 {
		return t
	}

	if p, ok := filters[KeyTextSearch]; ok && p.Op == "contains" {
		t = applyTextSearch(t, p.Value)
	}
	if p, ok := filters[KeyDateRange]; ok && (p.Op == "range" || p.Op == "between") {
		t = applyDateRange(t, p.Start, p.End)
	}
	if p, ok := filters[KeyNumericRange]; ok && p.Op == "between" {
		t = applyNumericRange(t, p.Min, p.Max)
	}

	keys := make([]string, 0, len(filters))
	for key := range filters {
		if !strings.HasPrefix(key, "_") {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	for _, key := range keys {
		column, ok := ResolveColumn(t, key)
		if !ok {
			slog.Debug("filter key did not resolve to a column", slog.String("key", key))
			continue
		}
		t = applyColumnPredicate(t, column, filters[key])
	}
	return t
}

// ResolveColumn locates a column for a filter key: exact case-insensitive
// match first, then substring match in either direction, first match
// winning by column declaration order.
func ResolveColumn(t *table.Table, key string) (string, bool) {
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" {
		return "", false
	}
	for _, col := range t.Columns() {
		if strings.ToLower(col) == key {
			return col, true
		}
	}
	for _, col := range t.Columns() {
		lower := strings.ToLower(col)
		if strings.Contains(lower, key) || strings.Contains(key, lower) {
			return col, true
		}
	}
	return "", false
}

// columnKind classifies a column for filtering purposes, independent of
// global type enforcement: boolean dtype, numeric dtype, datetime-parseable
// (>=60% of values), else text.
func columnKind(values []any) table.Kind {
	var total, bools, numeric, datetimes int
	for _, v := range values {
		if table.IsNull(v) {
			continue
		}
		total++
		switch x := v.(type) {
		case bool:
			bools++
		case int64, int, float64:
			numeric++
		case time.Time:
			datetimes++
		case string:
			if _, ok := typeinfer.ParseDateTime(x); ok {
				datetimes++
			}
		}
	}
	if total == 0 {
		return table.KindString
	}
	if bools == total {
		return table.KindBool
	}
	if numeric == total {
		return table.KindFloat
	}
	if float64(datetimes) > float64(total)*parseRatio {
		return table.KindDateTime
	}
	return table.KindString
}

func applyColumnPredicate(t *table.Table, column string, p Predicate) *table.Table {
	values := t.Column(column)
	var keep []bool

	switch columnKind(values) {
	case table.KindFloat:
		keep = numericMask(values, p)
	case table.KindDateTime:
		keep = datetimeMask(values, p)
	case table.KindBool:
		keep = booleanMask(values, p)
	default:
		keep = textMask(values, p)
	}

	if keep == nil {
		// operator/operand invalid for the column type: skip, fail open
		slog.Debug("filter predicate skipped",
			slog.String("column", column),
			slog.String("op", p.Op))
		return t
	}
	narrowed, err := t.Select(keep)
	if err != nil {
		return t
	}
	return narrowed
}

func numericMask(values []any, p Predicate) []bool {
	switch p.Op {
	case ">", ">=", "<", "<=":
		operand, ok := table.AsFloat(p.Value)
		if !ok {
			return nil
		}
		return mask(values, func(v any) bool {
			f, ok := table.AsFloat(v)
			if !ok {
				return false
			}
			switch p.Op {
			case ">":
				return f > operand
			case ">=":
				return f >= operand
			case "<":
				return f < operand
			default:
				return f <= operand
			}
		})
	case "equals", "==":
		operand, ok := table.AsFloat(p.Value)
		if !ok {
			return nil
		}
		return mask(values, func(v any) bool {
			f, ok := table.AsFloat(v)
			return ok && f == operand
		})
	case "between":
		lo, okLo := table.AsFloat(p.Min)
		hi, okHi := table.AsFloat(p.Max)
		if !okLo || !okHi {
			return nil
		}
		return mask(values, func(v any) bool {
			f, ok := table.AsFloat(v)
			return ok && f >= lo && f <= hi
		})
	default:
		return nil
	}
}

func datetimeMask(values []any, p Predicate) []bool {
	switch p.Op {
	case "range", "between":
		start, okStart := typeinfer.ParseDateTime(p.Start)
		end, okEnd := typeinfer.ParseDateTime(p.End)
		if !okStart || !okEnd {
			return nil
		}
		return mask(values, func(v any) bool {
			ts, ok := cellTime(v)
			return ok && !ts.Before(start) && !ts.After(end)
		})
	case "equals", "==":
		operand, ok := typeinfer.ParseDateTime(table.AsString(p.Value))
		if !ok {
			return nil
		}
		return mask(values, func(v any) bool {
			ts, ok := cellTime(v)
			return ok && ts.Equal(operand)
		})
	default:
		return nil
	}
}

func booleanMask(values []any, p Predicate) []bool {
	if p.Op != "equals" && p.Op != "==" {
		return nil
	}
	operand, ok := table.AsBool(p.Value)
	if !ok {
		return nil
	}
	return mask(values, func(v any) bool {
		b, ok := v.(bool)
		return ok && b == operand
	})
}

func textMask(values []any, p Predicate) []bool {
	operand := strings.TrimSpace(table.AsString(p.Value))
	switch p.Op {
	case "equals", "==":
		want := strings.ToLower(operand)
		return mask(values, func(v any) bool {
			return strings.ToLower(strings.TrimSpace(table.AsString(v))) == want
		})
	case "contains":
		want := strings.ToLower(operand)
		return mask(values, func(v any) bool {
			return !table.IsNull(v) &&
				strings.Contains(strings.ToLower(strings.TrimSpace(table.AsString(v))), want)
		})
	case "starts_with":
		return mask(values, func(v any) bool {
			return !table.IsNull(v) &&
				strings.HasPrefix(strings.TrimSpace(table.AsString(v)), operand)
		})
	case "ends_with":
		return mask(values, func(v any) bool {
			return !table.IsNull(v) &&
				strings.HasSuffix(strings.TrimSpace(table.AsString(v)), operand)
		})
	case "in":
		list, ok := p.Value.([]any)
		if !ok {
			return nil
		}
		members := make(map[string]bool, len(list))
		for _, item := range list {
			members[strings.ToLower(table.AsString(item))] = true
		}
		return mask(values, func(v any) bool {
			return members[strings.ToLower(strings.TrimSpace(table.AsString(v)))]
		})
	default:
		return nil
	}
}

// applyTextSearch keeps rows where any column's stringified value contains
// the query, case-insensitive. OR across columns, AND with everything else.
func applyTextSearch(t *table.Table, value any) *table.Table {
	query := strings.ToLower(strings.TrimSpace(table.AsString(value)))
	if query == "" {
		return t
	}
	keep := make([]bool, t.NumRows())
	for _, col := range t.Columns() {
		for i, v := range t.Column(col) {
			if keep[i] || table.IsNull(v) {
				continue
			}
			if strings.Contains(strings.ToLower(table.AsString(v)), query) {
				keep[i] = true
			}
		}
	}
	narrowed, err := t.Select(keep)
	if err != nil {
		return t
	}
	return narrowed
}

// applyDateRange filters the first column that is datetime-parseable for
// at least 60% of its values.
func applyDateRange(t *table.Table, start, end string) *table.Table {
	startTs, okStart := typeinfer.ParseDateTime(start)
	endTs, okEnd := typeinfer.ParseDateTime(end)
	if !okStart || !okEnd {
		return t
	}
	for _, col := range t.Columns() {
		values := t.Column(col)
		if !parsesAs(values, func(v any) bool { _, ok := cellTime(v); return ok }) {
			continue
		}
		keep := mask(values, func(v any) bool {
			ts, ok := cellTime(v)
			return ok && !ts.Before(startTs) && !ts.After(endTs)
		})
		narrowed, err := t.Select(keep)
		if err != nil {
			return t
		}
		return narrowed
	}
	return t
}

// applyNumericRange filters the first column that is numeric-parseable for
// at least 60% of its values.
func applyNumericRange(t *table.Table, min, max any) *table.Table {
	lo, okLo := table.AsFloat(min)
	hi, okHi := table.AsFloat(max)
	if !okLo || !okHi {
		return t
	}
	for _, col := range t.Columns() {
		values := t.Column(col)
		if !parsesAs(values, func(v any) bool { _, ok := table.AsFloat(v); return ok }) {
			continue
		}
		keep := mask(values, func(v any) bool {
			f, ok := table.AsFloat(v)
			return ok && f >= lo && f <= hi
		})
		narrowed, err := t.Select(keep)
		if err != nil {
			return t
		}
		return narrowed
	}
	return t
}

// parsesAs reports whether more than 60% of a column's values satisfy the
// given parser.
func parsesAs(values []any, parses func(any) bool) bool {
	if len(values) == 0 {
		return false
	}
	matched := 0
	for _, v := range values {
		if !table.IsNull(v) && parses(v) {
			matched++
		}
	}
	return float64(matched) > float64(len(values))*parseRatio
}

func cellTime(v any) (time.Time, bool) {
	switch x := v.(type) {
	case time.Time:
		return x, true
	case string:
		return typeinfer.ParseDateTime(x)
	default:
		return time.Time{}, false
	}
}

func mask(values []any, pred func(any) bool) []bool {
	keep := make([]bool, len(values))
	for i, v := range values {
		keep[i] = pred(v)
	}
	return keep
}
