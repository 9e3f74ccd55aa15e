package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cleansed/internal/table"
)

func TestColumnKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"First Name", "first_name"},
		{"  Email Address  ", "email_address"},
		{"UPPER-CASE", "upper_case"},
		{"price($)", "price"},
		{"a//b..c", "a_b_c"},
		{"___", "column"},
		{"", "column"},
		{"already_normal", "already_normal"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ColumnKey(tt.in), tt.in)
	}
}

func TestStandardizeColumns(t *testing.T) {
	t.Run("slugifies and resolves collisions in encounter order", func(t *testing.T) {
		tbl := table.MustNew("First Name", "first-name", "first name")
		require.NoError(t, StandardizeColumns(tbl))
		assert.Equal(t, []string{"first_name", "first_name_1", "first_name_2"}, tbl.Columns())
	})

	t.Run("idempotent", func(t *testing.T) {
		tbl := table.MustNew("Order ID", "Total ($)")
		require.NoError(t, StandardizeColumns(tbl))
		first := append([]string(nil), tbl.Columns()...)
		require.NoError(t, StandardizeColumns(tbl))
		assert.Equal(t, first, tbl.Columns())
	})
}

func TestNormalizeValues(t *testing.T) {
	tbl := table.MustNew("v")
	for _, v := range []string{"  Alice  ", "null", "NONE", "NaN", "n/a", "undefined", "", "ok"} {
		tbl.AppendRow(map[string]any{"v": v})
	}
	nulled := NormalizeValues(tbl)

	assert.Equal(t, 6, nulled)
	assert.Equal(t, "Alice", tbl.Value("v", 0), "strings are trimmed")
	for i := 1; i < 7; i++ {
		assert.Nil(t, tbl.Value("v", i), "row %d", i)
	}
	assert.Equal(t, "ok", tbl.Value("v", 7))
}

func TestIsNullToken(t *testing.T) {
	for _, tok := range []string{"", "null", "None", "NAN", " na ", "N/A", "undefined"} {
		assert.True(t, IsNullToken(tok), tok)
	}
	for _, tok := range []string{"0", "false", "nil", "value"} {
		assert.False(t, IsNullToken(tok), tok)
	}
}
