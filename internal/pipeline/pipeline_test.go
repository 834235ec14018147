package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/bawa-networks/provision-cli/internal/config"
	"github.com/bawa-networks/provision-cli/internal/mailroom"
	"github.com/bawa-networks/provision-cli/internal/model"
	"github.com/bawa-networks/provision-cli/internal/report"
	"github.com/bawa-networks/provision-cli/internal/store"
)

// stubOCR returns canned text per document base name.
type stubOCR struct {
	texts map[string]string
}

func (s *stubOCR) ExtractText(_ context.Context, path string) (string, error) {
	return s.texts[filepath.Base(path)], nil
}

// newTestPipeline assembles a Pipeline over temp directories with a stub
// text extractor. The returned config points at all fixture paths.
func newTestPipeline(t *testing.T, texts map[string]string) (*Pipeline, *config.Config) {
	t.Helper()
	root := t.TempDir()

	cfg := &config.Config{
		Directories: config.DirectoriesConfig{
			Inbox:   filepath.Join(root, "inbox"),
			Staging: filepath.Join(root, "staging"),
			Output:  filepath.Join(root, "output"),
		},
		Mailroom: config.MailroomConfig{PONPattern: `PON_([A-Za-z0-9]+)`},
		Circuits: testCircuitsConfig(),
		Xref: config.XrefConfig{
			Path:          filepath.Join(root, "xref.csv"),
			TowerColumn:   "Tower Name",
			CircuitColumn: "EVC Circuit ID",
			TagColumn:     "CVLAN",
		},
		Sites: config.SitesConfig{
			Path:       filepath.Join(root, "sites.xlsx"),
			NameColumn: "Site Name",
		},
		Report: config.ReportConfig{
			TemplatePath:   filepath.Join(root, "template.xlsx"),
			MappingPath:    filepath.Join(root, "mapping.yaml"),
			FlagField:      "cvlan",
			HighlightColor: "FF0000",
		},
	}
	require.NoError(t, os.MkdirAll(cfg.Directories.Inbox, 0o755))

	// Cross-reference: tower A1 on three rows (well-known) with tags for
	// both EVC circuits.
	xref := "Tower Name,EVC Circuit ID,CVLAN\n" +
		"A1,45.EVCTAG.AAA.,10\n" +
		"A1,45.EVCTAG.BBB.,20\n" +
		"A1,45.EVCTAG.CCC.,30\n"
	require.NoError(t, os.WriteFile(cfg.Xref.Path, []byte(xref), 0o644))

	sites := xlsx.NewFile()
	sheet, err := sites.AddSheet("Sites")
	require.NoError(t, err)
	hdr := sheet.AddRow()
	hdr.AddCell().Value = "Site Name"
	hdr.AddCell().Value = "Street"
	row := sheet.AddRow()
	row.AddCell().Value = "A1"
	row.AddCell().Value = "1 Main St"
	require.NoError(t, sites.Save(cfg.Sites.Path))

	template := xlsx.NewFile()
	tpl, err := template.AddSheet("Config")
	require.NoError(t, err)
	tplHdr := tpl.AddRow()
	for _, col := range []string{"PON", "CVLAN", "DATE"} {
		tplHdr.AddCell().Value = col
	}
	require.NoError(t, template.Save(cfg.Report.TemplatePath))

	mapping := "sheets:\n  Config:\n    A2: pon\n    B2: cvlan\n    C2: date_sent\n"
	require.NoError(t, os.WriteFile(cfg.Report.MappingPath, []byte(mapping), 0o644))

	st, err := store.NewSQLite(filepath.Join(root, "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.Migrate(context.Background()))

	mr, err := mailroom.New(cfg.Mailroom, cfg.Directories)
	require.NoError(t, err)
	fields, err := NewExtractor(cfg.Circuits)
	require.NoError(t, err)
	exporter, err := report.NewExporter(cfg.Report)
	require.NoError(t, err)

	return &Pipeline{
		cfg:      cfg,
		store:    st,
		mailroom: mr,
		ocr:      &stubOCR{texts: texts},
		fields:   fields,
		exporter: exporter,
	}, cfg
}

func stageOrder(t *testing.T, inbox, pon string, files ...string) {
	t.Helper()
	dir := filepath.Join(inbox, "PON_"+pon)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for _, name := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("%PDF-1.4"), 0o644))
	}
}

func TestPipeline_Run_EndToEnd(t *testing.T) {
	p, cfg := newTestPipeline(t, map[string]string{
		"1.pdf": "FDT\n03-15-2024\nEVC CKT\n  45.EVCTAG.AAA.\n",
		"2.pdf": "EVC CKT\n  45.EVCTAG.BBB.\n",
		"3.pdf": "UNI CKT\n  45.UNITAG.XYZ.\n",
	})
	stageOrder(t, cfg.Directories.Inbox, "A1", "1.pdf", "2.pdf", "3.pdf")

	result, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Orders)
	assert.Empty(t, result.SuspiciousPONs)
	assert.Empty(t, result.DroppedNoDate)
	assert.Equal(t, 1, result.BucketCounts["unievc"])

	require.Len(t, result.Workbooks, 1)
	wantWorkbook := filepath.Join(cfg.Directories.Output,
		"unievc", "03-15-2024", "CONFIGURATOR-03-15-2024-unievc-1-SITES.xlsx")
	assert.Equal(t, wantWorkbook, result.Workbooks[0])
	assert.FileExists(t, wantWorkbook)

	// The staged order directory moved next to the workbook.
	assert.DirExists(t, filepath.Join(cfg.Directories.Output,
		"unievc", "03-15-2024", "1-SITES", "A1"))

	wb, err := xlsx.OpenFile(wantWorkbook)
	require.NoError(t, err)
	sheet := wb.Sheet["Config"]
	require.NotNil(t, sheet)
	assert.Equal(t, "A1", sheet.Cell(1, 0).Value)
	assert.Equal(t, "10/20", sheet.Cell(1, 1).Value)
	assert.Equal(t, "03-15-2024", sheet.Cell(1, 2).Value)

	// The run is recorded as complete with its result.
	runs, err := p.store.ListRuns(context.Background(), store.RunFilter{Status: model.RunStatusComplete})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	require.NotNil(t, runs[0].Result)
	assert.Equal(t, 1, runs[0].Result.Orders)
}

func TestPipeline_Run_DatelessRecordProducesNoWorkbook(t *testing.T) {
	p, cfg := newTestPipeline(t, map[string]string{
		"1.pdf": "EVC CKT\n  45.EVCTAG.AAA.\n",
	})
	stageOrder(t, cfg.Directories.Inbox, "A1", "1.pdf")

	result, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"A1"}, result.DroppedNoDate)
	assert.Empty(t, result.Workbooks)
}

func TestPipeline_Run_MissingXrefFailsRun(t *testing.T) {
	p, cfg := newTestPipeline(t, nil)
	require.NoError(t, os.Remove(cfg.Xref.Path))
	stageOrder(t, cfg.Directories.Inbox, "A1", "1.pdf")

	_, err := p.Run(context.Background())
	require.Error(t, err)

	runs, listErr := p.store.ListRuns(context.Background(), store.RunFilter{Status: model.RunStatusFailed})
	require.NoError(t, listErr)
	require.Len(t, runs, 1)
	require.NotNil(t, runs[0].Result)
	assert.NotEmpty(t, runs[0].Result.Error)
}

func TestPipeline_Run_EmptyInbox(t *testing.T) {
	p, _ := newTestPipeline(t, nil)

	result, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Zero(t, result.Orders)
	assert.Empty(t, result.Workbooks)
}
