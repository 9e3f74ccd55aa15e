package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cleansed/internal/table"
)

func cleanTable(t *testing.T) *table.Table {
	t.Helper()
	tbl := table.MustNew()
	require.NoError(t, tbl.AddColumn("name", []any{"alice", "bob", "carol"}))
	require.NoError(t, tbl.AddColumn("score", []any{int64(1), int64(2), int64(3)}))
	return tbl
}

func TestScore(t *testing.T) {
	t.Run("clean table scores a perfect A", func(t *testing.T) {
		score := Score(cleanTable(t), QualityInputs{})
		assert.Equal(t, 100.0, score.Overall)
		assert.Equal(t, 100.0, score.Completeness)
		assert.Equal(t, 100.0, score.Validity)
		assert.Equal(t, 100.0, score.Consistency)
		assert.Equal(t, 100.0, score.Accuracy)
		assert.Equal(t, "A", score.Grade)
	})

	t.Run("missing cells lower completeness", func(t *testing.T) {
		tbl := table.MustNew()
		require.NoError(t, tbl.AddColumn("v", []any{"a", nil, nil, nil}))
		score := Score(tbl, QualityInputs{})
		// 25 for populated cells, minus the full sparse-column penalty.
		assert.Equal(t, 5.0, score.Completeness)
	})

	t.Run("duplicate rows lower accuracy", func(t *testing.T) {
		tbl := table.MustNew()
		require.NoError(t, tbl.AddColumn("name", []any{"x", "x", "y", "y"}))
		score := Score(tbl, QualityInputs{})
		assert.Equal(t, 85.0, score.Accuracy, "half the rows duplicated costs 15 points")
	})

	t.Run("outliers lower accuracy", func(t *testing.T) {
		tbl := table.MustNew()
		require.NoError(t, tbl.AddColumn("v", []any{int64(1), int64(2), int64(3), int64(4), int64(100)}))
		score := Score(tbl, QualityInputs{})
		assert.Equal(t, 94.0, score.Accuracy, "one outlier in five values costs 6 points")
	})

	t.Run("empty table grades F", func(t *testing.T) {
		score := Score(table.MustNew("a"), QualityInputs{})
		assert.Equal(t, "F", score.Grade)
		assert.Equal(t, 0.0, score.Overall)
	})
}

func TestValidityScore(t *testing.T) {
	tbl := cleanTable(t)

	t.Run("type errors cost five points each capped at forty", func(t *testing.T) {
		assert.Equal(t, 90.0, validityScore(tbl, QualityInputs{TypeErrors: 2}))
		assert.Equal(t, 60.0, validityScore(tbl, QualityInputs{TypeErrors: 100}))
	})

	t.Run("validation errors scale with row count", func(t *testing.T) {
		// 3 errors over 3 rows is the full 40-point penalty.
		assert.Equal(t, 60.0, validityScore(tbl, QualityInputs{ValidationErrors: 3}))
	})

	t.Run("passing schema earns back up to ten points", func(t *testing.T) {
		in := QualityInputs{TypeErrors: 2, SchemaProvided: true, SchemaPassed: true}
		assert.Equal(t, 100.0, validityScore(tbl, in))

		in.TypeErrors = 0
		assert.Equal(t, 100.0, validityScore(tbl, in), "bonus never exceeds 100")
	})
}

func TestConsistencyScore(t *testing.T) {
	t.Run("mixed case styles penalized", func(t *testing.T) {
		tbl := table.MustNew()
		require.NoError(t, tbl.AddColumn("v", []any{"alice", "BOB", "Carol"}))
		assert.Equal(t, 85.0, consistencyScore(tbl))
	})

	t.Run("inconsistent whitespace penalized", func(t *testing.T) {
		tbl := table.MustNew()
		require.NoError(t, tbl.AddColumn("v", []any{"alice", " bob "}))
		assert.Equal(t, 90.0, consistencyScore(tbl))
	})

	t.Run("high numeric spread penalized", func(t *testing.T) {
		moderate := table.MustNew()
		require.NoError(t, moderate.AddColumn("v", []any{int64(1), int64(1), int64(1), int64(1000)}))
		assert.Equal(t, 90.0, consistencyScore(moderate))

		extreme := table.MustNew()
		values := make([]any, 10)
		for i := range values {
			values[i] = int64(1)
		}
		values[9] = int64(1000)
		require.NoError(t, extreme.AddColumn("v", values))
		assert.Equal(t, 80.0, consistencyScore(extreme))
	})

	t.Run("all-null columns excluded", func(t *testing.T) {
		tbl := table.MustNew()
		require.NoError(t, tbl.AddColumn("empty", []any{nil, nil}))
		require.NoError(t, tbl.AddColumn("full", []any{"a", "b"}))
		assert.Equal(t, 100.0, consistencyScore(tbl))
	})
}

func TestGradeFor(t *testing.T) {
	tests := []struct {
		overall float64
		want    string
	}{
		{95, "A"}, {90, "A"}, {89.9, "B"}, {80, "B"},
		{79, "C"}, {70, "C"}, {69, "D"}, {60, "D"}, {59.9, "F"}, {0, "F"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, gradeFor(tt.overall), "overall %.1f", tt.overall)
	}
}
