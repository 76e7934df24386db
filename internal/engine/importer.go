// Package engine drives chat exports through parsing, cleaning,
// classification, enrichment and persistence.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Veraticus/the-listings-must-flow/internal/chatlog"
	"github.com/Veraticus/the-listings-must-flow/internal/classification"
	"github.com/Veraticus/the-listings-must-flow/internal/common"
	"github.com/Veraticus/the-listings-must-flow/internal/contact"
	"github.com/Veraticus/the-listings-must-flow/internal/metrics"
	"github.com/Veraticus/the-listings-must-flow/internal/model"
	"github.com/Veraticus/the-listings-must-flow/internal/service"
)

// Source is one export to import.
type Source struct {
	Name string // provenance tag stored on every record
	Text string
}

// Options control a single import.
type Options struct {
	Replace  bool // delete records previously imported from the same source first
	NoEnrich bool
}

// Config holds configuration options for the importer.
type Config struct {
	Location  *time.Location
	Workers   int
	BatchSize int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Workers:   8,
		BatchSize: 500,
		Location:  time.UTC,
	}
}

// Importer turns exports into stored records.
type Importer struct {
	sink       service.RecordSink
	senders    service.SenderStore
	classifier *classification.Classifier
	enricher   Enricher
	observer   Observer
	metrics    *metrics.Metrics
	logger     *slog.Logger
	now        func() time.Time
	newID      func() string
	cfg        Config
}

// NewImporter creates an importer. enricher, m and logger may be nil.
func NewImporter(sink service.RecordSink, senders service.SenderStore, enricher Enricher, cfg Config, m *metrics.Metrics, logger *slog.Logger) *Importer {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultConfig().Workers
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultConfig().BatchSize
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	logger = common.LoggerOrDefault(logger)
	return &Importer{
		sink:       sink,
		senders:    senders,
		classifier: classification.NewClassifier(logger),
		enricher:   enricher,
		observer:   nopObserver{},
		metrics:    m,
		logger:     logger,
		now:        time.Now,
		newID:      uuid.NewString,
		cfg:        cfg,
	}
}

// SetObserver registers o to receive progress. A nil o disables reporting.
func (im *Importer) SetObserver(o Observer) {
	if o == nil {
		o = nopObserver{}
	}
	im.observer = o
}

// ImportAll imports several sources concurrently and returns the combined
// report. A failing source does not stop the others; the first error is
// returned after all sources finish. A batch with a repeated source name is
// rejected before anything is imported.
func (im *Importer) ImportAll(ctx context.Context, sources []Source, opts Options) (model.ImportReport, error) {
	seen := make(map[string]bool, len(sources))
	for _, src := range sources {
		name := strings.TrimSpace(src.Name)
		if seen[name] {
			return model.ImportReport{}, fmt.Errorf("%w: duplicate source name %q", common.ErrInvalidInput, name)
		}
		seen[name] = true
	}

	reports := make([]model.ImportReport, len(sources))
	errs := make([]error, len(sources))

	var g errgroup.Group
	g.SetLimit(max(1, min(len(sources), 4)))
	for i, src := range sources {
		g.Go(func() error {
			reports[i], errs[i] = im.Import(ctx, src, opts)
			return nil
		})
	}
	_ = g.Wait()

	var total model.ImportReport
	for _, r := range reports {
		total.Add(r)
	}
	return total, errors.Join(errs...)
}

// Import parses, classifies and stores one export.
func (im *Importer) Import(ctx context.Context, src Source, opts Options) (model.ImportReport, error) {
	report := model.ImportReport{SourceFile: src.Name}
	if strings.TrimSpace(src.Name) == "" {
		return report, fmt.Errorf("%w: source name is required", common.ErrInvalidInput)
	}
	start := time.Now()
	defer func() {
		im.metrics.ObserveImport(time.Since(start))
		im.observer.Stage(src.Name, StageIdle, 0)
	}()

	im.observer.Stage(src.Name, StageParsing, 1)
	messages := chatlog.ParseString(src.Text)
	report.Parsed = len(messages)
	im.metrics.AddParsed(len(messages))
	im.observer.Advance(src.Name, 1)

	if opts.Replace {
		n, err := im.sink.DeleteBySourceFile(ctx, src.Name)
		if err != nil {
			return report, fmt.Errorf("failed to replace records of %s: %w", src.Name, err)
		}
		report.Replaced = n
		im.metrics.AddRecords(metrics.ResultReplaced, n)
	}

	if len(messages) == 0 {
		im.logger.Info("No messages found", "source_file", src.Name)
		return report, nil
	}

	senders := NewSenderCache(im.senders)
	records, err := im.classifyAll(ctx, src.Name, messages, senders)
	if err != nil {
		return report, err
	}
	report.Skipped = len(messages) - len(records)
	report.SendersCreated = senders.Created()
	im.metrics.AddSendersCreated(report.SendersCreated)
	im.metrics.AddRecords(metrics.ResultSkipped, report.Skipped)

	if im.enricher != nil && !opts.NoEnrich {
		n, err := im.enrichAll(ctx, src.Name, records)
		if err != nil {
			return report, err
		}
		report.Enriched = n
	}

	if err := im.persist(ctx, src.Name, records, &report); err != nil {
		return report, err
	}

	im.logger.Info("Imported export",
		"source_file", src.Name,
		"parsed", report.Parsed,
		"imported", report.Imported,
		"skipped", report.Skipped,
		"errors", report.Errors,
		"enriched", report.Enriched,
		"senders_created", report.SendersCreated,
		"replaced", report.Replaced)
	return report, nil
}

// classifyAll builds records for messages in a bounded worker pool. The
// result keeps message order and leaves out messages that are empty once
// contact details are removed.
func (im *Importer) classifyAll(ctx context.Context, source string, messages []model.RawMessage, senders *SenderCache) ([]*model.Record, error) {
	im.observer.Stage(source, StageClassifying, len(messages))

	createdAt := im.now()
	slots := make([]*model.Record, len(messages))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(im.cfg.Workers)
	for i, msg := range messages {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rec, err := im.buildRecord(gctx, source, msg, createdAt, senders)
			if err != nil {
				return err
			}
			slots[i] = rec
			im.observer.Advance(source, 1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to classify %s: %w", source, err)
	}

	records := make([]*model.Record, 0, len(slots))
	for _, rec := range slots {
		if rec != nil {
			records = append(records, rec)
		}
	}
	return records, nil
}

func (im *Importer) buildRecord(ctx context.Context, source string, msg model.RawMessage, createdAt time.Time, senders *SenderCache) (*model.Record, error) {
	sender := contact.ExtractSender(msg.SenderLabel, msg.Body)
	body := contact.Scrub(msg.Body)
	if strings.TrimSpace(body) == "" {
		im.logger.Debug("Skipping empty message", "source_file", source, "line", msg.Line)
		return nil, nil
	}

	senderID, err := senders.Resolve(ctx, sender.Mobile, sender.Name)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		im.logger.Warn("Failed to resolve sender", "source_file", source, "line", msg.Line, "error", err)
	}

	rec := &model.Record{
		ID:           im.newID(),
		Message:      body,
		SenderName:   sender.Name,
		SenderMobile: sender.Mobile,
		SenderID:     senderID,
		Timestamp:    msg.Timestamp,
		SourceFile:   source,
		CreatedAt:    createdAt,
	}
	if t, ok := chatlog.ParseTimestamp(msg.Timestamp, im.cfg.Location); ok {
		rec.PostedAt = &t
	}

	res := im.classifier.Classify(body)
	res.ApplyTo(rec)
	im.metrics.ObserveClassification(string(rec.PropertyType), res.Unresolved())
	return rec, nil
}

// enrichAll consults the enricher for every record with unresolved fields
// and returns how many records it changed.
func (im *Importer) enrichAll(ctx context.Context, source string, records []*model.Record) (int, error) {
	pending := make([]*model.Record, 0, len(records))
	for _, rec := range records {
		if !classification.ResultOf(*rec).Complete() {
			pending = append(pending, rec)
		}
	}
	if len(pending) == 0 {
		return 0, nil
	}
	im.observer.Stage(source, StageEnriching, len(pending))

	enriched := make([]bool, len(pending))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(im.cfg.Workers)
	for i, rec := range pending {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			enriched[i] = enrichRecord(gctx, im.enricher, rec)
			im.observer.Advance(source, 1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, fmt.Errorf("failed to enrich %s: %w", source, err)
	}

	n := 0
	for _, ok := range enriched {
		if ok {
			n++
		}
	}
	return n, nil
}

// enrichRecord fills the unresolved fields of rec from e and reports whether
// anything changed.
func enrichRecord(ctx context.Context, e Enricher, rec *model.Record) bool {
	suggestion, ok := e.Enrich(ctx, rec.Message)
	if !ok {
		return false
	}
	res := classification.ResultOf(*rec)
	if filled := classification.ApplySuggestion(&res, suggestion, rec.Message); len(filled) == 0 {
		return false
	}
	res.ApplyTo(rec)
	rec.Enriched = true
	return true
}

// persist writes records in batches. A batch that fails as a whole is
// retried record by record so one bad record costs only itself.
func (im *Importer) persist(ctx context.Context, source string, records []*model.Record, report *model.ImportReport) error {
	im.observer.Stage(source, StagePersisting, len(records))

	for start := 0; start < len(records); start += im.cfg.BatchSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := min(start+im.cfg.BatchSize, len(records))
		batch := make([]model.Record, 0, end-start)
		for _, rec := range records[start:end] {
			batch = append(batch, *rec)
		}

		res, err := im.sink.BulkInsert(ctx, batch)
		if err == nil {
			report.Imported += res.Inserted
			report.Skipped += res.Skipped
			im.metrics.AddRecords(metrics.ResultImported, res.Inserted)
			im.metrics.AddRecords(metrics.ResultSkipped, res.Skipped)
			im.observer.Advance(source, len(batch))
			continue
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		im.logger.Warn("Bulk insert failed, inserting records individually",
			"source_file", source, "batch_size", len(batch), "error", err)
		im.insertEach(ctx, batch, report)
		im.observer.Advance(source, len(batch))
	}
	return nil
}

func (im *Importer) insertEach(ctx context.Context, batch []model.Record, report *model.ImportReport) {
	for _, rec := range batch {
		err := im.sink.Insert(ctx, rec)
		switch {
		case err == nil:
			report.Imported++
			im.metrics.AddRecords(metrics.ResultImported, 1)
		case errors.Is(err, common.ErrDuplicate):
			report.Skipped++
			im.metrics.AddRecords(metrics.ResultSkipped, 1)
		default:
			report.Errors++
			im.metrics.AddRecords(metrics.ResultFailed, 1)
			im.logger.Warn("Failed to store record",
				"source_file", rec.SourceFile, "record_id", rec.ID, "error", err)
		}
	}
}
