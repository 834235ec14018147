package report

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/bawa-networks/provision-cli/internal/config"
	"github.com/bawa-networks/provision-cli/internal/model"
)

// Exporter writes record groups into copies of the configurator template.
// Rows where the flag field (the combined CVLAN) is absent while other
// mapped fields were written are highlighted: that incompleteness signal is
// a business rule, not cosmetics.
type Exporter struct {
	templatePath string
	mapping      *Mapping
	flagField    string
	color        string
}

// NewExporter loads the cell mapping and returns a ready Exporter.
func NewExporter(cfg config.ReportConfig) (*Exporter, error) {
	mapping, err := LoadMapping(cfg.MappingPath)
	if err != nil {
		return nil, err
	}

	color := cfg.HighlightColor
	if color == "" {
		color = "FF0000"
	}
	flag := cfg.FlagField
	if flag == "" {
		flag = "cvlan"
	}

	return &Exporter{
		templatePath: cfg.TemplatePath,
		mapping:      mapping,
		flagField:    flag,
		color:        color,
	}, nil
}

// Export writes one workbook for a record group. Records are written in PON
// order, each into the next free row of every mapped sheet.
func (e *Exporter) Export(records map[string]model.Record, outPath string) error {
	wb, err := xlsx.OpenFile(e.templatePath)
	if err != nil {
		return eris.Wrapf(err, "report: open template %s", e.templatePath)
	}

	pons := make([]string, 0, len(records))
	for pon := range records {
		pons = append(pons, pon)
	}
	sort.Strings(pons)

	for _, name := range e.mapping.SheetNames() {
		sheet, ok := wb.Sheet[name]
		if !ok {
			zap.L().Error("report: sheet not found in template", zap.String("sheet", name))
			continue
		}

		cells, err := parseSheetMapping(e.mapping.Sheets[name])
		if err != nil {
			return err
		}

		flagCell, ok := findField(cells, e.flagField)
		if !ok {
			zap.L().Error("report: flag field not mapped for sheet",
				zap.String("sheet", name),
				zap.String("field", e.flagField),
			)
			continue
		}

		e.fillSheet(sheet, cells, flagCell, pons, records)
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return eris.Wrapf(err, "report: create output dir for %s", outPath)
	}
	if err := wb.Save(outPath); err != nil {
		return eris.Wrapf(err, "report: save workbook %s", outPath)
	}

	zap.L().Info("report: workbook written",
		zap.String("path", outPath),
		zap.Int("records", len(records)),
	)
	return nil
}

func findField(cells []mappedCell, field string) (mappedCell, bool) {
	for _, c := range cells {
		if c.field == field {
			return c, true
		}
	}
	return mappedCell{}, false
}

// fillSheet writes every record into the sheet at the next free row band.
func (e *Exporter) fillSheet(sheet *xlsx.Sheet, cells []mappedCell, flagCell mappedCell, pons []string, records map[string]model.Record) {
	offset := 0
	for _, pon := range pons {
		rec := records[pon]

		// Advance past rows the template (or a previous export) already
		// populated in any mapped column.
		for rowOccupied(sheet, cells, offset) {
			offset++
		}

		rowFilled := false
		for _, c := range cells {
			value, ok := rec.Field(c.field)
			if !ok {
				continue
			}
			sheet.Cell(c.startRow+offset, c.col).Value = value
			rowFilled = true
		}

		if flagValue := sheet.Cell(flagCell.startRow+offset, flagCell.col).Value; flagValue == "" && rowFilled {
			zap.L().Warn("report: highlighting row with missing flag field",
				zap.String("pon", pon),
				zap.Int("row", flagCell.startRow+offset+1),
			)
			e.highlightRow(sheet, flagCell.startRow+offset)
		}

		offset++
	}
}

func rowOccupied(sheet *xlsx.Sheet, cells []mappedCell, offset int) bool {
	for _, c := range cells {
		if sheet.Cell(c.startRow+offset, c.col).Value != "" {
			return true
		}
	}
	return false
}

// highlightRow applies a solid fill across the whole row.
func (e *Exporter) highlightRow(sheet *xlsx.Sheet, row int) {
	fill := xlsx.NewFill("solid", e.color, e.color)
	maxCol := sheet.MaxCol
	if maxCol == 0 {
		maxCol = 1
	}
	for col := 0; col < maxCol; col++ {
		cell := sheet.Cell(row, col)
		style := cell.GetStyle()
		if style == nil {
			style = xlsx.NewStyle()
		}
		style.Fill = *fill
		style.ApplyFill = true
		cell.SetStyle(style)
	}
}
