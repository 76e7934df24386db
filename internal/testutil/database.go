// Package testutil provides test helpers shared by the pipeline packages:
// an in-memory database and a fluent builder for records.
package testutil

import (
	"context"
	"testing"

	"github.com/Veraticus/the-listings-must-flow/internal/model"
	"github.com/Veraticus/the-listings-must-flow/internal/storage"
)

// TestDB represents a test database with associated test utilities.
type TestDB struct {
	Storage *storage.SQLiteStorage
	t       *testing.T
}

// SetupTestDB creates a new in-memory test database. It automatically
// handles migrations and cleanup.
//
// Example:
//
//	db := testutil.SetupTestDB(t)
//	db.Seed(testutil.NewRecord("r1").WithMessage("شقة للبيع").Build())
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := store.Migrate(context.Background()); err != nil {
		_ = store.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		_ = store.Close()
	})

	return &TestDB{Storage: store, t: t}
}

// Seed inserts records one by one and fails the test on any error.
func (db *TestDB) Seed(records ...model.Record) {
	db.t.Helper()
	ctx := context.Background()
	for _, r := range records {
		if err := db.Storage.Insert(ctx, r); err != nil {
			db.t.Fatalf("failed to seed record %q: %v", r.ID, err)
		}
	}
}

// MustCount returns the number of stored records or fails the test.
func (db *TestDB) MustCount() int {
	db.t.Helper()
	n, err := db.Storage.Count(context.Background())
	if err != nil {
		db.t.Fatalf("failed to count records: %v", err)
	}
	return n
}

// MustFind returns the records of a source file or fails the test.
func (db *TestDB) MustFind(sourceFile string) []model.Record {
	db.t.Helper()
	records, err := db.Storage.FindBySourceFile(context.Background(), sourceFile)
	if err != nil {
		db.t.Fatalf("failed to find records: %v", err)
	}
	return records
}
