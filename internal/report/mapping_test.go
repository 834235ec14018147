package report

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCellRef(t *testing.T) {
	tests := []struct {
		ref     string
		col     int
		row     int
		wantErr bool
	}{
		{"A1", 0, 0, false},
		{"B2", 1, 1, false},
		{"Z10", 25, 9, false},
		{"AA1", 26, 0, false},
		{"AG14", 32, 13, false},
		{"14", 0, 0, true},
		{"AG", 0, 0, true},
		{"A0", 0, 0, true},
		{"A1B", 0, 0, true},
		{"", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			col, row, err := parseCellRef(tt.ref)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.col, col)
			assert.Equal(t, tt.row, row)
		})
	}
}

func TestLoadMapping(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mapping.yaml")
	content := `sheets:
  Config:
    A2: pon
    B2: cvlan
  Addresses:
    A2: pon
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	m, err := LoadMapping(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"Addresses", "Config"}, m.SheetNames())
	assert.Equal(t, "pon", m.Sheets["Config"]["A2"])
	assert.Equal(t, "cvlan", m.Sheets["Config"]["B2"])
}

func TestLoadMapping_NoSheets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mapping.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sheets: {}\n"), 0o644))

	_, err := LoadMapping(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "defines no sheets")
}

func TestLoadMapping_MissingFile(t *testing.T) {
	_, err := LoadMapping("/nonexistent/mapping.yaml")
	assert.Error(t, err)
}

func TestParseSheetMapping_SortedByColumn(t *testing.T) {
	cells, err := parseSheetMapping(map[string]string{
		"C2": "uni",
		"A2": "pon",
		"B2": "cvlan",
	})
	require.NoError(t, err)

	require.Len(t, cells, 3)
	assert.Equal(t, "pon", cells[0].field)
	assert.Equal(t, "cvlan", cells[1].field)
	assert.Equal(t, "uni", cells[2].field)
}

func TestParseSheetMapping_BadRef(t *testing.T) {
	_, err := parseSheetMapping(map[string]string{"nope": "pon"})
	assert.Error(t, err)
}
