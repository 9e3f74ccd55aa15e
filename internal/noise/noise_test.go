package noise

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cleansed/internal/table"
)

func TestRemoveDuplicates(t *testing.T) {
	t.Run("exact duplicates removed, first occurrence kept", func(t *testing.T) {
		tbl := table.MustNew("name", "age")
		tbl.AppendRow(map[string]any{"name": "Alice", "age": "30"})
		tbl.AppendRow(map[string]any{"name": "Bob", "age": "25"})
		tbl.AppendRow(map[string]any{"name": "Alice", "age": "30"})

		out, report := RemoveDuplicates(tbl)
		assert.Equal(t, 2, out.NumRows())
		assert.Equal(t, 1, report.RemovedExact)
		assert.Equal(t, 0, report.RemovedFuzzy)
		assert.False(t, report.FuzzyAttempts, "fuzzy pass skipped when exact pass removes rows")
		assert.Equal(t, "Alice", out.Value("name", 0))
		assert.Equal(t, "Bob", out.Value("name", 1))
	})

	t.Run("fuzzy pass catches case and whitespace variants", func(t *testing.T) {
		tbl := table.MustNew("name")
		tbl.AppendRow(map[string]any{"name": "Alice"})
		tbl.AppendRow(map[string]any{"name": "  ALICE  "})
		tbl.AppendRow(map[string]any{"name": "Bob"})

		out, report := RemoveDuplicates(tbl)
		assert.Equal(t, 2, out.NumRows())
		assert.True(t, report.FuzzyAttempts)
		assert.Equal(t, 1, report.RemovedFuzzy)
		assert.Equal(t, "Alice", out.Value("name", 0), "first occurrence survives")
	})

	t.Run("no duplicates leaves table untouched", func(t *testing.T) {
		tbl := table.MustNew("v")
		tbl.AppendRow(map[string]any{"v": "a"})
		tbl.AppendRow(map[string]any{"v": "b"})

		out, report := RemoveDuplicates(tbl)
		assert.Same(t, tbl, out)
		assert.Equal(t, 0, report.RemovedExact+report.RemovedFuzzy)
	})
}

func TestRemoveOutliers(t *testing.T) {
	t.Run("IQR fences drop the extreme value", func(t *testing.T) {
		values := []any{
			int64(10), int64(12), int64(11), int64(13), int64(12),
			int64(14), int64(11), int64(13), int64(1000), int64(12),
		}
		tbl := table.MustNew()
		require.NoError(t, tbl.AddColumn("value", values))

		out, report := RemoveOutliers(tbl, nil)
		assert.Equal(t, 9, out.NumRows())
		assert.Equal(t, 1, report.Columns["value"].Removed)
	})

	t.Run("fewer than ten non-null values skipped", func(t *testing.T) {
		tbl := table.MustNew()
		require.NoError(t, tbl.AddColumn("v", []any{int64(1), int64(2), int64(1000)}))

		out, report := RemoveOutliers(tbl, []string{"v"})
		assert.Equal(t, 3, out.NumRows())
		assert.Contains(t, report.Skipped["v"], "too few non-null")
	})

	t.Run("two or fewer distinct values skipped", func(t *testing.T) {
		values := make([]any, 12)
		for i := range values {
			if i%2 == 0 {
				values[i] = int64(1)
			} else {
				values[i] = int64(2)
			}
		}
		tbl := table.MustNew()
		require.NoError(t, tbl.AddColumn("v", values))

		out, report := RemoveOutliers(tbl, []string{"v"})
		assert.Equal(t, 12, out.NumRows())
		assert.Contains(t, report.Skipped["v"], "distinct")
	})

	t.Run("zero IQR skipped", func(t *testing.T) {
		// three distinct values but the quartiles coincide
		values := []any{
			int64(0), int64(5), int64(5), int64(5), int64(5), int64(5),
			int64(5), int64(5), int64(5), int64(5), int64(5), int64(10),
		}
		tbl := table.MustNew()
		require.NoError(t, tbl.AddColumn("v", values))

		out, report := RemoveOutliers(tbl, []string{"v"})
		assert.Equal(t, 12, out.NumRows())
		assert.Contains(t, report.Skipped["v"], "interquartile")
	})

	t.Run("non-numeric columns not auto-detected", func(t *testing.T) {
		tbl := table.MustNew()
		words := make([]any, 12)
		for i := range words {
			words[i] = "w"
		}
		require.NoError(t, tbl.AddColumn("text", words))

		out, report := RemoveOutliers(tbl, nil)
		assert.Equal(t, 12, out.NumRows())
		assert.Empty(t, report.Columns)
	})

	t.Run("unknown requested column reported", func(t *testing.T) {
		tbl := table.MustNew()
		require.NoError(t, tbl.AddColumn("v", []any{int64(1)}))
		_, report := RemoveOutliers(tbl, []string{"nope"})
		assert.Equal(t, "column not found", report.Skipped["nope"])
	})
}

func TestQuantile(t *testing.T) {
	nums := []float64{1, 2, 3, 4}
	assert.Equal(t, 1.75, Quantile(nums, 0.25))
	assert.Equal(t, 2.5, Quantile(nums, 0.5))
	assert.Equal(t, 3.25, Quantile(nums, 0.75))
	assert.Equal(t, 4.0, Quantile(nums, 1))
}

func TestIQRBounds(t *testing.T) {
	lower, upper, ok := IQRBounds([]float64{1, 2, 3, 4})
	require.True(t, ok)
	assert.InDelta(t, -0.5, lower, 1e-9)
	assert.InDelta(t, 5.5, upper, 1e-9)

	_, _, ok = IQRBounds([]float64{5, 5, 5, 5})
	assert.False(t, ok)
}
