package typeinfer

import (
	"math"

	"cleansed/internal/table"
)

// Range actions.
const (
	RangeActionFlag = "flag"
	RangeActionDrop = "drop"
	RangeActionClip = "clip"
)

// RangeRule bounds a numeric column. Nil Min/Max means unbounded on that
// side. Action decides what happens to out-of-range cells: flag only counts
// them, drop removes the offending rows, clip saturates to the bound.
type RangeRule struct {
	Min    *float64 `json:"min,omitempty"`
	Max    *float64 `json:"max,omitempty"`
	Action string   `json:"action,omitempty"`
}

// RangeViolation reports out-of-range cells for one bound of one column.
type RangeViolation struct {
	Column string  `json:"column"`
	Rule   string  `json:"rule"` // "min" or "max"
	Bound  float64 `json:"expected"`
	Count  int     `json:"violations_count"`
}

// ValidateRanges applies range rules to the table. Violations are reported
// regardless of action. Rules naming unknown columns are skipped. The
// returned table is the input table unless rows were dropped.
func ValidateRanges(t *table.Table, rules map[string]RangeRule) (*table.Table, []RangeViolation) {
	if t == nil || t.NumRows() == 0 || len(rules) == 0 {
		return t, nil
	}
	var violations []RangeViolation

	for _, col := range t.Columns() {
		rule, ok := rules[col]
		if !ok {
			continue
		}
		action := rule.Action
		if action == "" {
			action = RangeActionFlag
		}
		if rule.Min != nil {
			t = applyBound(t, col, *rule.Min, "min", action, &violations)
		}
		if rule.Max != nil {
			t = applyBound(t, col, *rule.Max, "max", action, &violations)
		}
	}
	return t, violations
}

func applyBound(t *table.Table, col string, bound float64, rule, action string, violations *[]RangeViolation) *table.Table {
	values := t.Column(col)
	outOfRange := make([]bool, len(values))
	count := 0
	for i, v := range values {
		f, ok := table.AsFloat(v)
		if !ok {
			continue
		}
		if (rule == "min" && f < bound) || (rule == "max" && f > bound) {
			outOfRange[i] = true
			count++
		}
	}
	if count == 0 {
		return t
	}

	*violations = append(*violations, RangeViolation{
		Column: col,
		Rule:   rule,
		Bound:  bound,
		Count:  count,
	})

	switch action {
	case RangeActionDrop:
		keep := make([]bool, len(outOfRange))
		for i, bad := range outOfRange {
			keep[i] = !bad
		}
		if filtered, err := t.Select(keep); err == nil {
			return filtered
		}
	case RangeActionClip:
		for i, bad := range outOfRange {
			if bad {
				values[i] = clipValue(bound)
			}
		}
	}
	return t
}

// clipValue keeps whole bounds as integers so clipped cells render without
// a decimal point.
func clipValue(bound float64) any {
	if bound == math.Trunc(bound) {
		return int64(bound)
	}
	return bound
}
