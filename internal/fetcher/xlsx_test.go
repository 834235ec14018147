package fetcher

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

func writeTestXLSX(t *testing.T, sheets map[string][][]string) string {
	t.Helper()
	wb := xlsx.NewFile()
	for name, rows := range sheets {
		sheet, err := wb.AddSheet(name)
		require.NoError(t, err)
		for _, row := range rows {
			r := sheet.AddRow()
			for _, v := range row {
				r.AddCell().Value = v
			}
		}
	}

	path := filepath.Join(t.TempDir(), "book.xlsx")
	require.NoError(t, wb.Save(path))
	return path
}

func TestReadXLSX_DefaultSheet(t *testing.T) {
	path := writeTestXLSX(t, map[string][][]string{
		"Data": {{"a", "b"}, {"1", "2"}},
	})

	header, rows, err := ReadXLSX(path, XLSXOptions{})
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b"}, header)
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"1", "2"}, rows[0])
}

func TestReadXLSX_ByName(t *testing.T) {
	path := writeTestXLSX(t, map[string][][]string{
		"Data": {{"a"}, {"1"}},
	})

	header, _, err := ReadXLSX(path, XLSXOptions{SheetName: "Data"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, header)

	_, _, err = ReadXLSX(path, XLSXOptions{SheetName: "Missing"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestReadXLSX_SheetIndexOutOfRange(t *testing.T) {
	path := writeTestXLSX(t, map[string][][]string{
		"Data": {{"a"}},
	})

	_, _, err := ReadXLSX(path, XLSXOptions{SheetIndex: 5})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")
}

func TestReadXLSX_MissingFile(t *testing.T) {
	_, _, err := ReadXLSX("/nonexistent.xlsx", XLSXOptions{})
	assert.Error(t, err)
}
