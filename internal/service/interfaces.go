// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/the-listings-must-flow/internal/model"
)

// InsertResult reports how many records a bulk write stored or skipped.
type InsertResult struct {
	Inserted int
	Skipped  int
}

// RecordSink is the persistence contract for classified records.
type RecordSink interface {
	// Insert stores one record. A record whose id already exists is
	// reported with common.ErrDuplicate.
	Insert(ctx context.Context, record model.Record) error
	// BulkInsert stores all records atomically. Existing ids are skipped.
	BulkInsert(ctx context.Context, records []model.Record) (InsertResult, error)
	// StreamAll visits every record oldest first, one page at a time.
	StreamAll(ctx context.Context, pageSize int, fn func(page []model.Record) error) error
	DeleteByIDs(ctx context.Context, ids []string) (int, error)
	FindBySourceFile(ctx context.Context, sourceFile string) ([]model.Record, error)
	DeleteBySourceFile(ctx context.Context, sourceFile string) (int, error)
	// UpdateClassification rewrites the message and classification fields of an existing record.
	UpdateClassification(ctx context.Context, record model.Record) error
	Count(ctx context.Context) (int, error)
}

// SenderStore resolves a mobile number to a persistent sender id.
type SenderStore interface {
	ResolveSender(ctx context.Context, mobile, name string) (id int64, created bool, err error)
}

// Storage is everything the command line needs from the database.
type Storage interface {
	RecordSink
	SenderStore
	Migrate(ctx context.Context) error
	Close() error
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
