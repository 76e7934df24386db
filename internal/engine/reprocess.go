package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Veraticus/the-listings-must-flow/internal/classification"
	"github.com/Veraticus/the-listings-must-flow/internal/common"
	"github.com/Veraticus/the-listings-must-flow/internal/contact"
	"github.com/Veraticus/the-listings-must-flow/internal/metrics"
	"github.com/Veraticus/the-listings-must-flow/internal/model"
	"github.com/Veraticus/the-listings-must-flow/internal/service"
)

const defaultReprocessPageSize = 500

// Reprocessor re-cleans and reclassifies stored records after the rules
// change. Running it twice in a row changes nothing the second time.
type Reprocessor struct {
	sink       service.RecordSink
	classifier *classification.Classifier
	enricher   Enricher
	observer   Observer
	metrics    *metrics.Metrics
	logger     *slog.Logger
	pageSize   int
}

// NewReprocessor creates a reprocessor. enricher, m and logger may be nil.
func NewReprocessor(sink service.RecordSink, enricher Enricher, pageSize int, m *metrics.Metrics, logger *slog.Logger) *Reprocessor {
	if pageSize <= 0 {
		pageSize = defaultReprocessPageSize
	}
	logger = common.LoggerOrDefault(logger)
	return &Reprocessor{
		sink:       sink,
		classifier: classification.NewClassifier(logger),
		enricher:   enricher,
		observer:   nopObserver{},
		metrics:    m,
		logger:     logger,
		pageSize:   pageSize,
	}
}

// SetObserver registers o to receive progress. A nil o disables reporting.
func (r *Reprocessor) SetObserver(o Observer) {
	if o == nil {
		o = nopObserver{}
	}
	r.observer = o
}

// Run visits every stored record. Message text is scrubbed again, fresh
// rule results are merged into the stored classification, and fields that
// remain unresolved are offered to the enricher unless noEnrich is set.
// Records are written only when something changed.
func (r *Reprocessor) Run(ctx context.Context, noEnrich bool) (model.ReprocessReport, error) {
	var report model.ReprocessReport

	total, err := r.sink.Count(ctx)
	if err != nil {
		return report, fmt.Errorf("failed to count records: %w", err)
	}
	r.observer.Stage("", StageReprocessing, total)
	defer r.observer.Stage("", StageIdle, 0)

	err = r.sink.StreamAll(ctx, r.pageSize, func(page []model.Record) error {
		for i := range page {
			if err := ctx.Err(); err != nil {
				return err
			}
			report.Scanned++
			r.reprocess(ctx, page[i], noEnrich, &report)
		}
		r.observer.Advance("", len(page))
		return nil
	})
	if err != nil {
		return report, fmt.Errorf("failed to reprocess records: %w", err)
	}

	r.logger.Info("Reprocessed records",
		"scanned", report.Scanned,
		"updated", report.Updated,
		"enriched", report.Enriched,
		"contact_only", report.ContactOnly,
		"errors", report.Errors)
	return report, nil
}

func (r *Reprocessor) reprocess(ctx context.Context, stored model.Record, noEnrich bool, report *model.ReprocessReport) {
	updated := stored
	if cleaned := contact.Scrub(stored.Message); strings.TrimSpace(cleaned) != "" {
		updated.Message = cleaned
	} else if strings.TrimSpace(stored.Message) != "" {
		report.ContactOnly++
		r.logger.Warn("Record holds only contact details", "record_id", stored.ID, "source_file", stored.SourceFile)
	}

	fresh := r.classifier.Classify(updated.Message)
	merged := classification.Merge(classification.ResultOf(stored), fresh, updated.Message)
	merged.ApplyTo(&updated)

	if r.enricher != nil && !noEnrich && !merged.Complete() {
		if enrichRecord(ctx, r.enricher, &updated) {
			report.Enriched++
		}
	}

	if updated.SameClassification(&stored) {
		return
	}
	if err := r.sink.UpdateClassification(ctx, updated); err != nil {
		report.Errors++
		level := slog.LevelWarn
		if errors.Is(err, common.ErrNotFound) {
			level = slog.LevelDebug
		}
		r.logger.Log(ctx, level, "Failed to update record", "record_id", stored.ID, "error", err)
		return
	}
	report.Updated++
	r.metrics.AddRecords(metrics.ResultReclassify, 1)
}
