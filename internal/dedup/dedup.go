// Package dedup removes repeated submissions of the same message by the
// same sender, keeping the earliest copy.
package dedup

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"

	"github.com/Veraticus/the-listings-must-flow/internal/common"
	"github.com/Veraticus/the-listings-must-flow/internal/engine"
	"github.com/Veraticus/the-listings-must-flow/internal/metrics"
	"github.com/Veraticus/the-listings-must-flow/internal/model"
	"github.com/Veraticus/the-listings-must-flow/internal/service"
	"github.com/Veraticus/the-listings-must-flow/internal/storage"
)

// Defaults for Options.
const (
	DefaultPageSize  = 500
	DefaultBatchSize = 100
)

// Backupper snapshots the database before records are deleted.
type Backupper interface {
	Auto(ctx context.Context, prefix string) (*storage.BackupInfo, error)
}

// Options configures a deduplication pass.
type Options struct {
	Backup    Backupper // nil skips the snapshot
	PageSize  int
	BatchSize int
	DryRun    bool
}

// BatchError reports a delete batch that failed after earlier batches
// succeeded.
type BatchError struct {
	Err          error
	DeletedSoFar int
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("delete batch failed after removing %d duplicates: %v", e.DeletedSoFar, e.Err)
}

func (e *BatchError) Unwrap() error {
	return e.Err
}

// Deduplicator finds and removes duplicate records in a sink.
type Deduplicator struct {
	sink     service.RecordSink
	observer engine.Observer
	metrics  *metrics.Metrics
	logger   *slog.Logger
	opts     Options
}

// New creates a deduplicator. m and logger may be nil.
func New(sink service.RecordSink, opts Options, m *metrics.Metrics, logger *slog.Logger) *Deduplicator {
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	return &Deduplicator{
		sink:    sink,
		metrics: m,
		logger:  common.LoggerOrDefault(logger),
		opts:    opts,
	}
}

// SetObserver registers o to receive progress.
func (d *Deduplicator) SetObserver(o engine.Observer) {
	d.observer = o
}

// Run scans every record oldest first, keeps the first record of each
// identity and deletes the rest. A second run finds nothing to delete.
func (d *Deduplicator) Run(ctx context.Context) (model.DedupReport, error) {
	var report model.DedupReport

	original, err := d.sink.Count(ctx)
	if err != nil {
		return report, fmt.Errorf("failed to count records: %w", err)
	}
	report.OriginalCount = original
	report.NewTotalCount = original
	d.stage(engine.StageDeduplicating, original)
	defer d.stage(engine.StageIdle, 0)

	duplicates, err := d.scan(ctx)
	if err != nil {
		return report, err
	}
	report.DuplicatesFound = len(duplicates)

	d.logger.Info("Scanned for duplicates",
		"records", original,
		"duplicates", len(duplicates),
		"dry_run", d.opts.DryRun)

	if d.opts.DryRun || len(duplicates) == 0 {
		return report, nil
	}

	if d.opts.Backup != nil {
		info, err := d.opts.Backup.Auto(ctx, "dedup")
		if err != nil {
			return report, fmt.Errorf("failed to back up before deleting duplicates: %w", err)
		}
		d.logger.Info("Created backup", "backup_id", info.ID)
	}

	removed, err := d.delete(ctx, duplicates)
	report.DuplicatesRemoved = removed
	d.metrics.AddDuplicatesRemoved(removed)
	if n, countErr := d.sink.Count(ctx); countErr == nil {
		report.NewTotalCount = n
	} else {
		report.NewTotalCount = original - removed
	}
	if err != nil {
		return report, err
	}

	d.logger.Info("Removed duplicates", "removed", removed, "remaining", report.NewTotalCount)
	return report, nil
}

// scan returns the ids of every record whose identity was already seen
// earlier in the stream.
func (d *Deduplicator) scan(ctx context.Context) ([]string, error) {
	seen := make(map[[sha256.Size]byte]struct{})
	var duplicates []string

	err := d.sink.StreamAll(ctx, d.opts.PageSize, func(page []model.Record) error {
		for i := range page {
			key := page[i].DedupHash()
			if _, ok := seen[key]; ok {
				duplicates = append(duplicates, page[i].ID)
				continue
			}
			seen[key] = struct{}{}
		}
		d.advance(len(page))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan records: %w", err)
	}
	return duplicates, nil
}

func (d *Deduplicator) delete(ctx context.Context, ids []string) (int, error) {
	deleted := 0
	for start := 0; start < len(ids); start += d.opts.BatchSize {
		end := min(start+d.opts.BatchSize, len(ids))
		n, err := d.sink.DeleteByIDs(ctx, ids[start:end])
		if err != nil {
			d.logger.Error("Failed to delete duplicate batch",
				"batch_start", start, "batch_size", end-start, "deleted_so_far", deleted, "error", err)
			return deleted, &BatchError{DeletedSoFar: deleted, Err: err}
		}
		deleted += n
	}
	return deleted, nil
}

func (d *Deduplicator) stage(s engine.Stage, total int) {
	if d.observer != nil {
		d.observer.Stage("", s, total)
	}
}

func (d *Deduplicator) advance(n int) {
	if d.observer != nil {
		d.observer.Advance("", n)
	}
}
