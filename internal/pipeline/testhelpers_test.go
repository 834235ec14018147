package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/bawa-networks/provision-cli/internal/config"
	"github.com/bawa-networks/provision-cli/internal/lookup"
)

// writeXref writes a cross-reference CSV fixture and loads it. Each row is
// (tower, circuit, tag).
func writeXref(t *testing.T, rows [][3]string) *lookup.Xref {
	t.Helper()

	path := filepath.Join(t.TempDir(), "xref.csv")
	content := "Tower Name,EVC Circuit ID,CVLAN\n"
	for _, row := range rows {
		content += row[0] + "," + row[1] + "," + row[2] + "\n"
	}
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	xref, err := lookup.LoadXref(config.XrefConfig{
		Path:          path,
		TowerColumn:   "Tower Name",
		CircuitColumn: "EVC Circuit ID",
		TagColumn:     "CVLAN",
	})
	require.NoError(t, err)
	return xref
}

// writeSites writes a site directory XLSX fixture and loads it. Each row is
// (site, street, city).
func writeSites(t *testing.T, rows [][3]string) *lookup.SiteDirectory {
	t.Helper()

	wb := xlsx.NewFile()
	sheet, err := wb.AddSheet("Sites")
	require.NoError(t, err)

	header := sheet.AddRow()
	for _, col := range []string{"Site Name", "Street", "City"} {
		header.AddCell().Value = col
	}
	for _, row := range rows {
		r := sheet.AddRow()
		for _, v := range row {
			r.AddCell().Value = v
		}
	}

	path := filepath.Join(t.TempDir(), "sites.xlsx")
	require.NoError(t, wb.Save(path))

	sites, err := lookup.LoadSites(config.SitesConfig{
		Path:       path,
		NameColumn: "Site Name",
	})
	require.NoError(t, err)
	return sites
}
