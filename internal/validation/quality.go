package validation

import (
	"math"
	"strings"
	"unicode"

	"cleansed/internal/noise"
	"cleansed/internal/table"
)

// Sub-score weights for the overall quality score.
const (
	weightCompleteness = 0.30
	weightValidity     = 0.30
	weightConsistency  = 0.20
	weightAccuracy     = 0.20
)

// QualityScore is the four-factor quality assessment of a table. Each
// sub-score and the overall score range over [0, 100].
type QualityScore struct {
	Overall      float64 `json:"overall_score"`
	Completeness float64 `json:"completeness_score"`
	Validity     float64 `json:"validity_score"`
	Consistency  float64 `json:"consistency_score"`
	Accuracy     float64 `json:"accuracy_score"`
	Grade        string  `json:"grade"`
}

// QualityInputs carries the intermediate pipeline reports the validity
// factor depends on. The zero value scores validity on the schema alone.
type QualityInputs struct {
	TypeErrors       int
	ValidationErrors int
	SchemaProvided   bool
	SchemaPassed     bool
}

// Score computes the weighted quality score of a table.
func Score(t *table.Table, in QualityInputs) QualityScore {
	if t == nil || t.NumRows() == 0 || t.NumColumns() == 0 {
		return QualityScore{Grade: "F"}
	}

	completeness := completenessScore(t)
	validity := validityScore(t, in)
	consistency := consistencyScore(t)
	accuracy := accuracyScore(t)

	overall := completeness*weightCompleteness +
		validity*weightValidity +
		consistency*weightConsistency +
		accuracy*weightAccuracy

	return QualityScore{
		Overall:      round2(overall),
		Completeness: round2(completeness),
		Validity:     round2(validity),
		Consistency:  round2(consistency),
		Accuracy:     round2(accuracy),
		Grade:        gradeFor(overall),
	}
}

func gradeFor(overall float64) string {
	switch {
	case overall >= 90:
		return "A"
	case overall >= 80:
		return "B"
	case overall >= 70:
		return "C"
	case overall >= 60:
		return "D"
	default:
		return "F"
	}
}

// completenessScore is the fraction of populated cells, with a penalty of
// up to 20 points scaled by how many columns are missing more than half
// their values.
func completenessScore(t *table.Table) float64 {
	totalCells := t.NumRows() * t.NumColumns()
	score := 100 * (1 - float64(t.MissingCells())/float64(totalCells))

	sparseColumns := 0
	for _, col := range t.Columns() {
		if float64(t.ColumnMissing(col)) > float64(t.NumRows())*0.5 {
			sparseColumns++
		}
	}
	score -= math.Min(20, float64(sparseColumns)/float64(t.NumColumns())*20)
	return clampScore(score)
}

// validityScore starts at 100, loses up to 40 points for type-enforcement
// errors (5 each) and up to 40 for validation errors relative to row count,
// and earns back up to 10 (capped at 100) when a provided schema passes in
// full.
func validityScore(t *table.Table, in QualityInputs) float64 {
	score := 100.0
	score -= math.Min(40, float64(in.TypeErrors)*5)
	score -= math.Min(40, float64(in.ValidationErrors)/float64(t.NumRows())*40)
	if in.SchemaProvided && in.SchemaPassed {
		score = math.Min(100, score+10)
	}
	return clampScore(score)
}

// consistencyScore averages per-column scores over columns with at least
// one non-null value. Text columns lose points for mixed case styles and
// inconsistent surrounding whitespace; numeric columns for a high
// coefficient of variation.
func consistencyScore(t *table.Table) float64 {
	var sum float64
	scored := 0
	for _, col := range t.Columns() {
		values := t.Column(col)
		if t.ColumnMissing(col) == len(values) {
			continue
		}
		if nums, ok := numericCells(values); ok {
			sum += numericConsistency(nums)
		} else {
			sum += textConsistency(values)
		}
		scored++
	}
	if scored == 0 {
		return 100
	}
	return clampScore(sum / float64(scored))
}

func numericConsistency(nums []float64) float64 {
	score := 100.0
	cv := coefficientOfVariation(nums)
	switch {
	case cv > 2:
		score -= 20
	case cv > 1:
		score -= 10
	}
	return score
}

func textConsistency(values []any) float64 {
	score := 100.0
	var upper, lower, mixed bool
	var trimmedSome, untrimmedSome bool
	for _, v := range values {
		if table.IsNull(v) {
			continue
		}
		s := table.AsString(v)
		if s == "" {
			continue
		}
		switch caseStyle(s) {
		case "upper":
			upper = true
		case "lower":
			lower = true
		default:
			mixed = true
		}
		if strings.TrimSpace(s) != s {
			untrimmedSome = true
		} else {
			trimmedSome = true
		}
	}
	styles := 0
	for _, present := range []bool{upper, lower, mixed} {
		if present {
			styles++
		}
	}
	if styles > 1 {
		score -= 15
	}
	if trimmedSome && untrimmedSome {
		score -= 10
	}
	return score
}

func caseStyle(s string) string {
	var hasUpper, hasLower bool
	for _, r := range s {
		if unicode.IsUpper(r) {
			hasUpper = true
		}
		if unicode.IsLower(r) {
			hasLower = true
		}
	}
	switch {
	case hasUpper && !hasLower:
		return "upper"
	case hasLower && !hasUpper:
		return "lower"
	default:
		return "mixed"
	}
}

// accuracyScore loses up to 30 points for the duplicate-row ratio and up
// to 30 for the mean outlier ratio across numeric columns.
func accuracyScore(t *table.Table) float64 {
	score := 100.0
	score -= math.Min(30, duplicateRatio(t)*30)
	score -= math.Min(30, meanOutlierRatio(t)*30)
	return clampScore(score)
}

func duplicateRatio(t *table.Table) float64 {
	seen := make(map[string]bool, t.NumRows())
	duplicates := 0
	for i := 0; i < t.NumRows(); i++ {
		fp := noise.Fingerprint(t, i)
		if seen[fp] {
			duplicates++
			continue
		}
		seen[fp] = true
	}
	return float64(duplicates) / float64(t.NumRows())
}

func meanOutlierRatio(t *table.Table) float64 {
	var sum float64
	columns := 0
	for _, col := range t.Columns() {
		nums, ok := numericCells(t.Column(col))
		if !ok || len(nums) == 0 {
			continue
		}
		columns++
		lower, upper, hasIQR := noise.IQRBounds(nums)
		if !hasIQR {
			continue
		}
		outliers := 0
		for _, f := range nums {
			if f < lower || f > upper {
				outliers++
			}
		}
		sum += float64(outliers) / float64(len(nums))
	}
	if columns == 0 {
		return 0
	}
	return sum / float64(columns)
}

// numericCells extracts the non-null values of a column whose cells are all
// genuinely numeric.
func numericCells(values []any) ([]float64, bool) {
	var nums []float64
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
			nums = append(nums, x)
		default:
			return nil, false
		}
	}
	return nums, true
}

func coefficientOfVariation(nums []float64) float64 {
	if len(nums) == 0 {
		return 0
	}
	var sum float64
	for _, f := range nums {
		sum += f
	}
	mean := sum / float64(len(nums))
	if mean == 0 {
		return 0
	}
	var variance float64
	for _, f := range nums {
		variance += (f - mean) * (f - mean)
	}
	variance /= float64(len(nums))
	return math.Sqrt(variance) / math.Abs(mean)
}

func clampScore(score float64) float64 {
	return math.Max(0, math.Min(100, score))
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
