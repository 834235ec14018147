// Package report renders grouped provisioning records into configurator
// workbooks from an XLSX template, driven by a per-sheet cell mapping.
package report

import (
	"os"
	"sort"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Mapping is the template cell mapping: per sheet, a map from cell reference
// (e.g. "AG14") to the semantic field key written there. The row in each
// reference is the first data row of that column.
type Mapping struct {
	Sheets map[string]map[string]string `yaml:"sheets"`
}

// LoadMapping reads the cell mapping from a YAML file.
func LoadMapping(path string) (*Mapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "report: read cell mapping %s", path)
	}

	var m Mapping
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, eris.Wrap(err, "report: parse cell mapping")
	}
	if len(m.Sheets) == 0 {
		return nil, eris.Errorf("report: cell mapping %s defines no sheets", path)
	}

	return &m, nil
}

// SheetNames returns the mapped sheet names in stable order.
func (m *Mapping) SheetNames() []string {
	names := make([]string, 0, len(m.Sheets))
	for name := range m.Sheets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// mappedCell is a parsed cell mapping entry.
type mappedCell struct {
	field    string
	col      int // zero-based
	startRow int // zero-based first data row
}

// parseCellRef splits an A1-style reference into zero-based column and row
// indexes.
func parseCellRef(ref string) (col, row int, err error) {
	i := 0
	for i < len(ref) && ref[i] >= 'A' && ref[i] <= 'Z' {
		col = col*26 + int(ref[i]-'A'+1)
		i++
	}
	if i == 0 || i == len(ref) {
		return 0, 0, eris.Errorf("report: malformed cell reference %q", ref)
	}
	for j := i; j < len(ref); j++ {
		if ref[j] < '0' || ref[j] > '9' {
			return 0, 0, eris.Errorf("report: malformed cell reference %q", ref)
		}
		row = row*10 + int(ref[j]-'0')
	}
	if row == 0 {
		return 0, 0, eris.Errorf("report: malformed cell reference %q", ref)
	}
	return col - 1, row - 1, nil
}

// parseSheetMapping parses all entries of one sheet's mapping, sorted by
// column for deterministic writes.
func parseSheetMapping(cells map[string]string) ([]mappedCell, error) {
	parsed := make([]mappedCell, 0, len(cells))
	for ref, field := range cells {
		col, row, err := parseCellRef(ref)
		if err != nil {
			return nil, err
		}
		parsed = append(parsed, mappedCell{field: field, col: col, startRow: row})
	}
	sort.Slice(parsed, func(i, j int) bool { return parsed[i].col < parsed[j].col })
	return parsed, nil
}
