package typeinfer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cleansed/internal/table"
)

func columnTable(t *testing.T, values ...any) *table.Table {
	t.Helper()
	tbl := table.MustNew()
	require.NoError(t, tbl.AddColumn("c", values))
	return tbl
}

func TestDetectColumnTypes(t *testing.T) {
	tests := []struct {
		name   string
		values []any
		want   table.Kind
	}{
		{"booleans", []any{"true", "false", "yes", "NO"}, table.KindBool},
		{"integers", []any{"1", "2", "3"}, table.KindInt},
		{"floats", []any{"1.5", "2", "3.25"}, table.KindFloat},
		{"datetimes", []any{"2024-01-15", "2024-02-20", "2024-03-25"}, table.KindDateTime},
		{"text", []any{"alpha", "beta", "gamma"}, table.KindString},
		{"all null", []any{nil, nil}, table.KindString},
		{"below threshold", []any{"1", "2", "x", "y", "z"}, table.KindString},
		{"nulls excluded from ratio", []any{"1", nil, nil, "2"}, table.KindInt},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl := columnTable(t, tt.values...)
			detected := DetectColumnTypes(tbl, DefaultConfidence)
			assert.Equal(t, tt.want, detected["c"])
		})
	}
}

func TestParseDateTime(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2024-03-01", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		{"03/01/2024", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		{"2024/03/01", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		{"2024-03-01 15:04:05", time.Date(2024, 3, 1, 15, 4, 5, 0, time.UTC)},
	}
	for _, tt := range tests {
		ts, ok := ParseDateTime(tt.in)
		require.True(t, ok, tt.in)
		assert.True(t, ts.Equal(tt.want), tt.in)
	}

	_, ok := ParseDateTime("not a date")
	assert.False(t, ok)
	_, ok = ParseDateTime("")
	assert.False(t, ok)
}

func TestEnforceTypes(t *testing.T) {
	t.Run("auto-detected integer column", func(t *testing.T) {
		tbl := columnTable(t, "1", "2", "3")
		report := EnforceTypes(tbl, nil, true, DefaultConfidence)
		assert.Equal(t, 1, report.ColumnsEnforced)
		assert.Equal(t, int64(2), tbl.Value("c", 1))
	})

	t.Run("unconvertible cells become null", func(t *testing.T) {
		tbl := columnTable(t, "1", "2", "3", "4", "oops")
		report := EnforceTypes(tbl, map[string]table.Kind{"c": table.KindInt}, false, DefaultConfidence)
		assert.Empty(t, report.Errors)
		assert.Equal(t, int64(1), tbl.Value("c", 0))
		assert.Nil(t, tbl.Value("c", 4))
	})

	t.Run("missing column recorded as error", func(t *testing.T) {
		tbl := columnTable(t, "1")
		report := EnforceTypes(tbl, map[string]table.Kind{"nope": table.KindInt}, false, DefaultConfidence)
		require.Len(t, report.Errors, 1)
		assert.Contains(t, report.Errors[0], "'nope' not found")
	})

	t.Run("override takes precedence over inference", func(t *testing.T) {
		tbl := columnTable(t, "1", "2", "3")
		EnforceTypes(tbl, map[string]table.Kind{"c": table.KindString}, true, DefaultConfidence)
		assert.Equal(t, "1", tbl.Value("c", 0))
	})

	t.Run("datetime conversion", func(t *testing.T) {
		tbl := columnTable(t, "2024-03-01", "garbage")
		EnforceTypes(tbl, map[string]table.Kind{"c": table.KindDateTime}, false, DefaultConfidence)
		ts, ok := tbl.Value("c", 0).(time.Time)
		require.True(t, ok)
		assert.Equal(t, 2024, ts.Year())
		assert.Nil(t, tbl.Value("c", 1))
	})
}

func TestValidateRanges(t *testing.T) {
	floatPtr := func(f float64) *float64 { return &f }

	t.Run("clip saturates to bounds", func(t *testing.T) {
		tbl := table.MustNew()
		require.NoError(t, tbl.AddColumn("age", []any{int64(25), int64(150), int64(35), int64(-5), int64(45)}))

		result, violations := ValidateRanges(tbl, map[string]RangeRule{
			"age": {Min: floatPtr(0), Max: floatPtr(120), Action: RangeActionClip},
		})

		require.Len(t, violations, 2)
		assert.Equal(t, int64(25), result.Value("age", 0))
		assert.Equal(t, int64(120), result.Value("age", 1))
		assert.Equal(t, int64(35), result.Value("age", 2))
		assert.Equal(t, int64(0), result.Value("age", 3))
		assert.Equal(t, int64(45), result.Value("age", 4))
	})

	t.Run("drop removes offending rows", func(t *testing.T) {
		tbl := table.MustNew()
		require.NoError(t, tbl.AddColumn("v", []any{int64(1), int64(200), int64(3)}))

		result, violations := ValidateRanges(tbl, map[string]RangeRule{
			"v": {Max: floatPtr(100), Action: RangeActionDrop},
		})
		require.Len(t, violations, 1)
		assert.Equal(t, 2, result.NumRows())
	})

	t.Run("flag only counts", func(t *testing.T) {
		tbl := table.MustNew()
		require.NoError(t, tbl.AddColumn("v", []any{int64(1), int64(200)}))

		result, violations := ValidateRanges(tbl, map[string]RangeRule{
			"v": {Max: floatPtr(100)},
		})
		require.Len(t, violations, 1)
		assert.Equal(t, "max", violations[0].Rule)
		assert.Equal(t, float64(100), violations[0].Bound)
		assert.Equal(t, 1, violations[0].Count)
		assert.Equal(t, 2, result.NumRows())
		assert.Equal(t, int64(200), result.Value("v", 1), "values untouched")
	})

	t.Run("unknown columns skipped", func(t *testing.T) {
		tbl := table.MustNew()
		require.NoError(t, tbl.AddColumn("v", []any{int64(1)}))
		_, violations := ValidateRanges(tbl, map[string]RangeRule{"nope": {Max: floatPtr(1)}})
		assert.Empty(t, violations)
	})
}
