// Package pipeline turns staged provisioning orders into classified,
// enriched configurator workbooks.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/bawa-networks/provision-cli/internal/config"
	"github.com/bawa-networks/provision-cli/internal/lookup"
	"github.com/bawa-networks/provision-cli/internal/mailroom"
	"github.com/bawa-networks/provision-cli/internal/model"
	"github.com/bawa-networks/provision-cli/internal/ocr"
	"github.com/bawa-networks/provision-cli/internal/report"
	"github.com/bawa-networks/provision-cli/internal/store"
)

// extractWorkers bounds concurrent PON extraction. Documents within one PON
// stay sequential because slot assignment depends on document order.
const extractWorkers = 4

// Pipeline orchestrates a full report run: stage, extract, enrich,
// classify, group, export.
type Pipeline struct {
	cfg      *config.Config
	store    store.Store
	mailroom *mailroom.Mailroom
	ocr      ocr.Extractor
	fields   *Extractor
	exporter *report.Exporter
}

// New creates a Pipeline with all dependencies wired from config.
func New(cfg *config.Config, st store.Store) (*Pipeline, error) {
	mr, err := mailroom.New(cfg.Mailroom, cfg.Directories)
	if err != nil {
		return nil, err
	}
	fields, err := NewExtractor(cfg.Circuits)
	if err != nil {
		return nil, err
	}
	exporter, err := report.NewExporter(cfg.Report)
	if err != nil {
		return nil, err
	}

	return &Pipeline{
		cfg:      cfg,
		store:    st,
		mailroom: mr,
		ocr:      ocr.NewExtractor(cfg.OCR),
		fields:   fields,
		exporter: exporter,
	}, nil
}

// Run executes one end-to-end report run. Per-document problems are recorded
// as anomalies and never abort the batch; only structural failures (an
// unreadable lookup table, an unwritable output tree) fail the run.
func (p *Pipeline) Run(ctx context.Context) (*model.RunResult, error) {
	run, err := p.store.CreateRun(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: create run")
	}
	log := zap.L().With(zap.String("run_id", run.ID))
	log.Info("pipeline: run started")

	setStatus := func(status model.RunStatus) {
		if statusErr := p.store.UpdateRunStatus(ctx, run.ID, status); statusErr != nil {
			log.Warn("pipeline: failed to update status", zap.Error(statusErr))
		}
	}

	result, err := p.run(ctx, log, setStatus)
	if err != nil {
		if result == nil {
			result = &model.RunResult{}
		}
		result.Error = err.Error()
		if saveErr := p.store.UpdateRunResult(ctx, run.ID, model.RunStatusFailed, result); saveErr != nil {
			log.Warn("pipeline: failed to save run result", zap.Error(saveErr))
		}
		log.Error("pipeline: run failed", zap.Error(err))
		return result, err
	}

	if saveErr := p.store.UpdateRunResult(ctx, run.ID, model.RunStatusComplete, result); saveErr != nil {
		log.Warn("pipeline: failed to save run result", zap.Error(saveErr))
	}

	log.Info("pipeline: run complete",
		zap.Int("orders", result.Orders),
		zap.Int("workbooks", len(result.Workbooks)),
		zap.Int("anomalies", len(result.Anomalies)),
	)
	return result, nil
}

func (p *Pipeline) run(ctx context.Context, log *zap.Logger, setStatus func(model.RunStatus)) (*model.RunResult, error) {
	result := &model.RunResult{}

	// Every run rebuilds the output and staging trees from the inbox.
	if err := mailroom.Clear(p.cfg.Directories.Output); err != nil {
		return result, err
	}
	if err := mailroom.Clear(p.cfg.Directories.Staging); err != nil {
		return result, err
	}

	setStatus(model.RunStatusStaging)
	orders, anomalies, err := p.mailroom.ProcessInbox()
	if err != nil {
		return result, err
	}
	result.Orders = len(orders)
	result.Anomalies = append(result.Anomalies, anomalies...)

	setStatus(model.RunStatusExtracting)
	records, extractAnomalies := p.extractAll(ctx, orders)
	result.Anomalies = append(result.Anomalies, extractAnomalies...)

	setStatus(model.RunStatusEnriching)
	xref, err := lookup.LoadXref(p.cfg.Xref)
	if err != nil {
		return result, err
	}
	sites, err := lookup.LoadSites(p.cfg.Sites)
	if err != nil {
		return result, err
	}
	enriched, suspicious := Enrich(records, xref, sites)
	result.SuspiciousPONs = suspicious

	setStatus(model.RunStatusClassifying)
	classified := Classify(enriched, xref)
	result.BucketCounts = bucketCounts(classified)

	grouped, dropped := Group(classified)
	result.DroppedNoDate = dropped

	setStatus(model.RunStatusExporting)
	workbooks, err := p.export(grouped, stagedDirs(orders))
	result.Workbooks = workbooks
	if err != nil {
		return result, err
	}

	log.Info("pipeline: records processed",
		zap.Int("extracted", len(records)),
		zap.Int("suspicious", len(suspicious)),
		zap.Int("dropped_no_date", len(dropped)),
	)
	return result, nil
}

// extractAll runs OCR and field extraction across orders with a bounded
// worker pool. One order's failure never touches another's.
func (p *Pipeline) extractAll(ctx context.Context, orders []mailroom.StagedOrder) (map[string]model.Record, []model.Anomaly) {
	var mu sync.Mutex
	records := make(map[string]model.Record, len(orders))
	var anomalies []model.Anomaly

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(extractWorkers)

	for _, order := range orders {
		g.Go(func() error {
			rec, orderAnomalies := p.extractOrder(gCtx, order)

			mu.Lock()
			records[order.PON] = rec
			anomalies = append(anomalies, orderAnomalies...)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return records, anomalies
}

// extractOrder OCRs each staged document of one PON in order and aggregates
// the extracted fields into a record.
func (p *Pipeline) extractOrder(ctx context.Context, order mailroom.StagedOrder) (model.Record, []model.Anomaly) {
	var docs []model.RawDocument
	var anomalies []model.Anomaly

	for _, path := range order.Files {
		if p.cfg.OCR.Validate {
			if _, err := ocr.PageCount(path); err != nil {
				anomalies = append(anomalies, model.Anomaly{
					PON:      order.PON,
					Document: filepath.Base(path),
					Detail:   "pdf validation failed: " + err.Error(),
				})
				zap.L().Warn("pipeline: pdf validation failed, skipping document",
					zap.String("pon", order.PON),
					zap.String("document", path),
					zap.Error(err),
				)
				continue
			}
		}

		text, err := p.ocr.ExtractText(ctx, path)
		if err != nil {
			anomalies = append(anomalies, model.Anomaly{
				PON:      order.PON,
				Document: filepath.Base(path),
				Detail:   "text extraction failed: " + err.Error(),
			})
			zap.L().Warn("pipeline: text extraction failed, skipping document",
				zap.String("pon", order.PON),
				zap.String("document", path),
				zap.Error(err),
			)
			continue
		}

		docs = append(docs, model.RawDocument{PON: order.PON, Path: path, Text: text})
	}

	rec, buildAnomalies := Build(p.fields, order.PON, docs)
	return rec, append(anomalies, buildAnomalies...)
}

// export writes one workbook per (bucket, date) group and relocates each
// group's staged order directories next to it. The output tree is
// output/<bucket>/<date>/CONFIGURATOR-<date>-<bucket>-<n>-SITES.xlsx with
// the source documents under a sibling <n>-SITES directory.
func (p *Pipeline) export(grouped model.GroupedSet, staged map[string]string) ([]string, error) {
	var workbooks []string

	for _, bucket := range model.LeafBuckets() {
		dates := make([]string, 0, len(grouped[bucket]))
		for date := range grouped[bucket] {
			dates = append(dates, date)
		}
		sort.Strings(dates)

		for _, date := range dates {
			records := grouped[bucket][date]
			outDir := filepath.Join(p.cfg.Directories.Output, string(bucket), date)
			sitesDir := filepath.Join(outDir, fmt.Sprintf("%d-SITES", len(records)))

			if err := os.MkdirAll(sitesDir, 0o755); err != nil {
				return workbooks, eris.Wrapf(err, "pipeline: create sites dir %s", sitesDir)
			}
			for pon := range records {
				src, ok := staged[pon]
				if !ok {
					continue
				}
				if err := os.Rename(src, filepath.Join(sitesDir, pon)); err != nil {
					return workbooks, eris.Wrapf(err, "pipeline: move staged order %s", pon)
				}
			}

			name := fmt.Sprintf("CONFIGURATOR-%s-%s-%d-SITES.xlsx", date, bucket, len(records))
			outPath := filepath.Join(outDir, name)
			if err := p.exporter.Export(records, outPath); err != nil {
				return workbooks, err
			}
			workbooks = append(workbooks, outPath)
		}
	}

	sort.Strings(workbooks)
	return workbooks, nil
}

func stagedDirs(orders []mailroom.StagedOrder) map[string]string {
	dirs := make(map[string]string, len(orders))
	for _, order := range orders {
		dirs[order.PON] = order.Dir
	}
	return dirs
}

func bucketCounts(set model.ClassifiedSet) map[string]int {
	counts := make(map[string]int, len(model.LeafBuckets()))
	for _, bucket := range model.LeafBuckets() {
		counts[string(bucket)] = len(set.Leaf(bucket))
	}
	return counts
}
