package parsers

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParseCSV(t *testing.T) {
	t.Run("basic file", func(t *testing.T) {
		path := writeTemp(t, "basic.csv", "name,age\nAlice,30\nBob,25\n")
		tbl, err := ParseCSV(path)
		require.NoError(t, err)
		assert.Equal(t, []string{"name", "age"}, tbl.Columns())
		assert.Equal(t, 2, tbl.NumRows())
		assert.Equal(t, "30", tbl.Value("age", 0), "values are read as raw strings")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := ParseCSV(filepath.Join(t.TempDir(), "nope.csv"))
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("empty file", func(t *testing.T) {
		path := writeTemp(t, "empty.csv", "")
		_, err := ParseCSV(path)
		assert.ErrorIs(t, err, ErrMalformed)
	})

	t.Run("drops fully empty rows", func(t *testing.T) {
		path := writeTemp(t, "gaps.csv", "a,b\n1,2\n,\n3,4\n")
		tbl, err := ParseCSV(path)
		require.NoError(t, err)
		assert.Equal(t, 2, tbl.NumRows())
	})

	t.Run("deduplicates header names", func(t *testing.T) {
		path := writeTemp(t, "dupes.csv", "id,name,name,\n1,a,b,c\n")
		tbl, err := ParseCSV(path)
		require.NoError(t, err)
		assert.Equal(t, []string{"id", "name", "name_1", "column"}, tbl.Columns())
	})

	t.Run("invalid utf8 is replaced not fatal", func(t *testing.T) {
		path := writeTemp(t, "latin.csv", "name\n\xff\xfe\n")
		tbl, err := ParseCSV(path)
		require.NoError(t, err)
		assert.Equal(t, 1, tbl.NumRows())
	})
}

func TestDetectKind(t *testing.T) {
	tests := []struct {
		path string
		want FileKind
	}{
		{"data.csv", FileKindCSV},
		{"data.JSON", FileKindJSON},
		{"book.xlsx", FileKindExcel},
		{"book.xls", FileKindExcel},
		{"notes.md", FileKindMarkdown},
		{"notes.markdown", FileKindMarkdown},
	}
	for _, tt := range tests {
		kind, err := DetectKind(tt.path)
		require.NoError(t, err, tt.path)
		assert.Equal(t, tt.want, kind, tt.path)
	}

	_, err := DetectKind("archive.zip")
	assert.Error(t, err)
}
