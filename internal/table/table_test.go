package table

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("rejects duplicate columns", func(t *testing.T) {
		_, err := New("a", "b", "a")
		assert.Error(t, err)
	})

	t.Run("preserves column order", func(t *testing.T) {
		tbl, err := New("z", "a", "m")
		require.NoError(t, err)
		assert.Equal(t, []string{"z", "a", "m"}, tbl.Columns())
	})
}

func TestAppendRow(t *testing.T) {
	tbl := MustNew("name", "age")
	tbl.AppendRow(map[string]any{"name": "Alice", "age": int64(30)})
	tbl.AppendRow(map[string]any{"name": "Bob"})

	assert.Equal(t, 2, tbl.NumRows())
	assert.Equal(t, "Alice", tbl.Value("name", 0))
	assert.Nil(t, tbl.Value("age", 1))
}

func TestAddColumn(t *testing.T) {
	t.Run("pads short values with nulls", func(t *testing.T) {
		tbl := MustNew("a")
		tbl.AppendRow(map[string]any{"a": "1"})
		tbl.AppendRow(map[string]any{"a": "2"})

		require.NoError(t, tbl.AddColumn("b", []any{"x"}))
		assert.Equal(t, "x", tbl.Value("b", 0))
		assert.Nil(t, tbl.Value("b", 1))
	})

	t.Run("rejects existing column", func(t *testing.T) {
		tbl := MustNew("a")
		assert.Error(t, tbl.AddColumn("a", nil))
	})
}

func TestSelect(t *testing.T) {
	tbl := MustNew("v")
	for _, v := range []string{"a", "b", "c", "d"} {
		tbl.AppendRow(map[string]any{"v": v})
	}

	kept, err := tbl.Select([]bool{true, false, true, false})
	require.NoError(t, err)
	assert.Equal(t, 2, kept.NumRows())
	assert.Equal(t, "a", kept.Value("v", 0))
	assert.Equal(t, "c", kept.Value("v", 1))

	_, err = tbl.Select([]bool{true})
	assert.Error(t, err, "mask length must match row count")
}

func TestRenameColumns(t *testing.T) {
	tbl := MustNew("a", "b")
	require.NoError(t, tbl.RenameColumns([]string{"x", "y"}))
	assert.Equal(t, []string{"x", "y"}, tbl.Columns())

	assert.Error(t, tbl.RenameColumns([]string{"x"}))
	assert.Error(t, tbl.RenameColumns([]string{"same", "same"}))
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name   string
		values []any
		want   Kind
	}{
		{"all ints", []any{int64(1), int64(2)}, KindInt},
		{"int float mix", []any{int64(1), 2.5}, KindFloat},
		{"bools", []any{true, false, nil}, KindBool},
		{"datetimes", []any{time.Now()}, KindDateTime},
		{"mixed types", []any{int64(1), "x"}, KindString},
		{"all null", []any{nil, nil}, KindString},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl := MustNew()
			require.NoError(t, tbl.AddColumn("d", tt.values))
			assert.Equal(t, tt.want, tbl.KindOf("d"))
		})
	}
}

func TestMissingCounts(t *testing.T) {
	tbl := MustNew("a", "b")
	tbl.AppendRow(map[string]any{"a": "1", "b": nil})
	tbl.AppendRow(map[string]any{"a": nil, "b": nil})

	assert.Equal(t, 3, tbl.MissingCells())
	assert.Equal(t, 1, tbl.ColumnMissing("a"))
	assert.Equal(t, 2, tbl.ColumnMissing("b"))
}

func TestValueConversions(t *testing.T) {
	t.Run("AsString", func(t *testing.T) {
		assert.Equal(t, "42", AsString(int64(42)))
		assert.Equal(t, "3.5", AsString(3.5))
		assert.Equal(t, "true", AsString(true))
		assert.Equal(t, "", AsString(nil))
		ts := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
		assert.Equal(t, "2024-03-01 12:30:00", AsString(ts))
	})

	t.Run("AsFloat", func(t *testing.T) {
		f, ok := AsFloat(" 3.25 ")
		require.True(t, ok)
		assert.Equal(t, 3.25, f)

		_, ok = AsFloat("abc")
		assert.False(t, ok)
		_, ok = AsFloat(nil)
		assert.False(t, ok)
	})

	t.Run("AsBool", func(t *testing.T) {
		for _, tok := range []string{"true", "YES", "t", "y", "1"} {
			b, ok := AsBool(tok)
			require.True(t, ok, tok)
			assert.True(t, b, tok)
		}
		for _, tok := range []string{"false", "No", "f", "n", "0"} {
			b, ok := AsBool(tok)
			require.True(t, ok, tok)
			assert.False(t, b, tok)
		}
		_, ok := AsBool("maybe")
		assert.False(t, ok)
	})
}
