// Package lookup wraps the two read-only reference tables the enrichment
// stage queries: the circuit cross-reference (tower + circuit → CVLAN tag)
// and the site address directory. Queries return explicit outcomes instead
// of errors so callers can branch on enumerated results.
package lookup

import (
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/bawa-networks/provision-cli/internal/config"
	"github.com/bawa-networks/provision-cli/internal/fetcher"
)

// Outcome enumerates the possible results of a tag lookup.
type Outcome int

const (
	OutcomeFound Outcome = iota
	OutcomeNotFound
	OutcomeAmbiguous
)

// TagResult is the result of a cross-reference query.
type TagResult struct {
	Outcome Outcome
	Tag     string
}

type xrefRow struct {
	tower   string
	circuit string
	tag     string
}

// Xref is the in-memory circuit cross-reference table. It is loaded once per
// run and read-only thereafter.
type Xref struct {
	rows        []xrefRow
	towerCounts map[string]int
}

// LoadXref reads the cross-reference CSV. A missing file or missing mapped
// column is a structural failure: nothing downstream is meaningful without
// the table.
func LoadXref(cfg config.XrefConfig) (*Xref, error) {
	f, err := os.Open(cfg.Path)
	if err != nil {
		return nil, eris.Wrapf(err, "lookup: open xref %s", cfg.Path)
	}
	defer f.Close() //nolint:errcheck

	header, rows, err := fetcher.ReadCSV(f, fetcher.CSVOptions{
		Charset:   cfg.Charset,
		TrimSpace: true,
	})
	if err != nil {
		return nil, eris.Wrap(err, "lookup: read xref")
	}

	towerIdx, circuitIdx, tagIdx := -1, -1, -1
	for i, col := range header {
		switch col {
		case cfg.TowerColumn:
			towerIdx = i
		case cfg.CircuitColumn:
			circuitIdx = i
		case cfg.TagColumn:
			tagIdx = i
		}
	}
	if towerIdx < 0 || circuitIdx < 0 || tagIdx < 0 {
		return nil, eris.Errorf("lookup: xref missing mapped columns %q/%q/%q",
			cfg.TowerColumn, cfg.CircuitColumn, cfg.TagColumn)
	}

	x := &Xref{towerCounts: make(map[string]int)}
	for _, row := range rows {
		if len(row) <= towerIdx || len(row) <= circuitIdx || len(row) <= tagIdx {
			continue
		}
		r := xrefRow{tower: row[towerIdx], circuit: row[circuitIdx], tag: row[tagIdx]}
		x.rows = append(x.rows, r)
		x.towerCounts[r.tower]++
	}

	zap.L().Info("lookup: xref loaded",
		zap.String("path", cfg.Path),
		zap.Int("rows", len(x.rows)),
		zap.Int("towers", len(x.towerCounts)),
	)
	return x, nil
}

// TagFor looks up the CVLAN tag for a (tower, circuit) pair. Exactly one
// matching row yields Found; zero rows yields NotFound; more than one is
// Ambiguous and the tag is withheld.
func (x *Xref) TagFor(tower, circuit string) TagResult {
	if circuit == "" {
		return TagResult{Outcome: OutcomeNotFound}
	}

	var tag string
	count := 0
	for _, row := range x.rows {
		if row.tower == tower && row.circuit == circuit {
			count++
			tag = row.tag
		}
	}

	switch count {
	case 0:
		return TagResult{Outcome: OutcomeNotFound}
	case 1:
		return TagResult{Outcome: OutcomeFound, Tag: tag}
	default:
		return TagResult{Outcome: OutcomeAmbiguous}
	}
}

// TowerMatchCount returns how many cross-reference rows mention the tower.
// The classifier uses this as its well-known-tower signal.
func (x *Xref) TowerMatchCount(tower string) int {
	return x.towerCounts[tower]
}

// SiteDirectory is the in-memory site address table, keyed by site name.
type SiteDirectory struct {
	nameColumn string
	sites      map[string]map[string]string
}

// LoadSites reads the site directory XLSX. When the same site appears twice
// the first row wins.
func LoadSites(cfg config.SitesConfig) (*SiteDirectory, error) {
	header, rows, err := fetcher.ReadXLSX(cfg.Path, fetcher.XLSXOptions{SheetName: cfg.Sheet})
	if err != nil {
		return nil, eris.Wrapf(err, "lookup: read sites %s", cfg.Path)
	}

	nameIdx := -1
	for i, col := range header {
		if col == cfg.NameColumn {
			nameIdx = i
			break
		}
	}
	if nameIdx < 0 {
		return nil, eris.Errorf("lookup: sites missing name column %q", cfg.NameColumn)
	}

	d := &SiteDirectory{nameColumn: cfg.NameColumn, sites: make(map[string]map[string]string)}
	for _, row := range rows {
		if len(row) <= nameIdx || row[nameIdx] == "" {
			continue
		}
		name := row[nameIdx]
		if _, ok := d.sites[name]; ok {
			continue // first match wins
		}
		fields := make(map[string]string)
		for i, col := range header {
			if i == nameIdx || i >= len(row) || row[i] == "" {
				continue
			}
			fields[col] = row[i]
		}
		d.sites[name] = fields
	}

	zap.L().Info("lookup: site directory loaded",
		zap.String("path", cfg.Path),
		zap.Int("sites", len(d.sites)),
	)
	return d, nil
}

// AddressFor returns a copy of the address fields for a site, keyed by
// column header. The site name column itself is not included.
func (d *SiteDirectory) AddressFor(site string) (map[string]string, bool) {
	fields, ok := d.sites[site]
	if !ok {
		return nil, false
	}
	out := make(map[string]string, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out, true
}
