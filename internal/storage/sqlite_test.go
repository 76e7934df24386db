package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/the-listings-must-flow/internal/common"
	"github.com/Veraticus/the-listings-must-flow/internal/model"
)

var baseTime = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func createTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	store, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, store.Migrate(context.Background()))
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func testRecord(id string, offset time.Duration) model.Record {
	return model.Record{
		ID:           id,
		Message:      "message " + id,
		SenderName:   "Ahmed",
		SenderMobile: "01012345678",
		Timestamp:    "1/3/24, 9:00 AM",
		SourceFile:   "group.txt",
		CreatedAt:    baseTime.Add(offset),
		Category:     model.CategoryOffered,
		PropertyType: model.PropertyApartment,
		Purpose:      model.PurposeSale,
		Region:       "Block 12",
	}
}

func TestSQLiteStorage_Migrations(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	ctx := context.Background()

	store1, err := NewSQLiteStorage(dbPath)
	require.NoError(t, err)
	require.NoError(t, store1.Migrate(ctx))
	require.NoError(t, store1.Insert(ctx, testRecord("a", 0)))
	require.NoError(t, store1.Close())

	store2, err := NewSQLiteStorage(dbPath)
	require.NoError(t, err)
	defer func() { _ = store2.Close() }()

	require.NoError(t, store2.Migrate(ctx))
	v, err := store2.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, ExpectedSchemaVersion, v)

	n, err := store2.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSQLiteStorage_InMemory(t *testing.T) {
	store, err := NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	require.NoError(t, store.Migrate(ctx))
	require.NoError(t, store.Insert(ctx, testRecord("a", 0)))

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestNewSQLiteStorage_EmptyPath(t *testing.T) {
	_, err := NewSQLiteStorage("  ")
	require.ErrorIs(t, err, ErrEmptyString)
	require.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestSQLiteStorage_InsertRoundTrip(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	senderID, _, err := store.ResolveSender(ctx, "01012345678", "Ahmed")
	require.NoError(t, err)

	posted := time.Date(2024, 1, 1, 10, 30, 0, 0, time.UTC)
	rec := testRecord("r1", 0)
	rec.PostedAt = &posted
	rec.SenderID = senderID
	rec.Enriched = true
	require.NoError(t, store.Insert(ctx, rec))

	got, err := store.FindBySourceFile(ctx, "group.txt")
	require.NoError(t, err)
	require.Len(t, got, 1)

	r := got[0]
	assert.Equal(t, rec.ID, r.ID)
	assert.Equal(t, rec.Message, r.Message)
	assert.Equal(t, rec.SenderName, r.SenderName)
	assert.Equal(t, rec.SenderMobile, r.SenderMobile)
	assert.Equal(t, rec.Timestamp, r.Timestamp)
	assert.Equal(t, senderID, r.SenderID)
	assert.True(t, r.Enriched)
	assert.True(t, rec.CreatedAt.Equal(r.CreatedAt))
	require.NotNil(t, r.PostedAt)
	assert.True(t, posted.Equal(*r.PostedAt))
	assert.True(t, rec.SameClassification(&r))
}

func TestSQLiteStorage_InsertNormalizesEmptyFields(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	rec := model.Record{ID: "bare", Message: "hello", SourceFile: "s.txt"}
	require.NoError(t, store.Insert(ctx, rec))

	got, err := store.FindBySourceFile(ctx, "s.txt")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, model.CategoryOther, got[0].Category)
	assert.Equal(t, model.PropertyOther, got[0].PropertyType)
	assert.Equal(t, model.PurposeOther, got[0].Purpose)
	assert.Equal(t, model.RegionOther, got[0].Region)
	assert.Equal(t, model.MobileUnknown, got[0].SenderMobile)
	assert.Zero(t, got[0].SenderID)
	assert.Nil(t, got[0].PostedAt)
	assert.False(t, got[0].CreatedAt.IsZero())
}

func TestSQLiteStorage_InsertDuplicate(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, testRecord("dup", 0)))
	err := store.Insert(ctx, testRecord("dup", time.Second))
	require.ErrorIs(t, err, common.ErrDuplicate)
}

func TestSQLiteStorage_InsertValidation(t *testing.T) {
	store := createTestStorage(t)

	tests := []struct {
		name   string
		mutate func(*model.Record)
	}{
		{"missing id", func(r *model.Record) { r.ID = "" }},
		{"missing source", func(r *model.Record) { r.SourceFile = " " }},
		{"empty message", func(r *model.Record) { r.Message = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := testRecord("x", 0)
			tt.mutate(&rec)
			err := store.Insert(context.Background(), rec)
			require.ErrorIs(t, err, ErrInvalidRecord)
			require.ErrorIs(t, err, common.ErrInvalidInput)
		})
	}

	//nolint:staticcheck // nil context is the case under test
	require.ErrorIs(t, store.Insert(nil, testRecord("x", 0)), ErrNilContext)
}

func TestSQLiteStorage_BulkInsert(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, testRecord("b", 0)))

	res, err := store.BulkInsert(ctx, []model.Record{
		testRecord("a", 0),
		testRecord("b", time.Second),
		testRecord("c", 2*time.Second),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Inserted)
	assert.Equal(t, 1, res.Skipped)

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	res, err = store.BulkInsert(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, res.Inserted)
}

func TestSQLiteStorage_BulkInsertIsAtomic(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	bad := testRecord("bad", 0)
	bad.Message = ""
	_, err := store.BulkInsert(ctx, []model.Record{testRecord("good", 0), bad})
	require.ErrorIs(t, err, ErrInvalidRecord)

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSQLiteStorage_StreamAll(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	// c and d share a creation time, so insertion order breaks the tie.
	records := []model.Record{
		testRecord("e", 4*time.Second),
		testRecord("a", 0),
		testRecord("c", 2*time.Second),
		testRecord("d", 2*time.Second),
		testRecord("b", time.Second),
	}
	for _, r := range records {
		require.NoError(t, store.Insert(ctx, r))
	}

	for _, size := range []int{1, 2, 5, 100} {
		t.Run(fmt.Sprintf("page size %d", size), func(t *testing.T) {
			var ids []string
			pages := 0
			err := store.StreamAll(ctx, size, func(page []model.Record) error {
				pages++
				assert.LessOrEqual(t, len(page), size)
				for _, r := range page {
					ids = append(ids, r.ID)
				}
				return nil
			})
			require.NoError(t, err)
			assert.Equal(t, []string{"a", "b", "c", "d", "e"}, ids)
			assert.Positive(t, pages)
		})
	}

	require.ErrorIs(t, store.StreamAll(ctx, 0, func([]model.Record) error { return nil }), ErrInvalidSize)
}

func TestSQLiteStorage_StreamAllAllowsWritesAndStops(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	for i := range 6 {
		require.NoError(t, store.Insert(ctx, testRecord(fmt.Sprintf("r%d", i), time.Duration(i)*time.Second)))
	}

	seen := 0
	err := store.StreamAll(ctx, 2, func(page []model.Record) error {
		seen += len(page)
		_, err := store.DeleteByIDs(ctx, []string{page[0].ID})
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 6, seen)

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	stop := errors.New("stop")
	err = store.StreamAll(ctx, 1, func([]model.Record) error { return stop })
	require.ErrorIs(t, err, stop)
}

func TestSQLiteStorage_DeleteByIDs(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	records := make([]model.Record, 0, 1200)
	ids := make([]string, 0, 1200)
	for i := range 1200 {
		id := fmt.Sprintf("id-%04d", i)
		records = append(records, testRecord(id, time.Duration(i)*time.Millisecond))
		ids = append(ids, id)
	}
	res, err := store.BulkInsert(ctx, records)
	require.NoError(t, err)
	require.Equal(t, 1200, res.Inserted)

	deleted, err := store.DeleteByIDs(ctx, append(ids[:1100:1100], "missing"))
	require.NoError(t, err)
	assert.Equal(t, 1100, deleted)

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 100, n)

	deleted, err = store.DeleteByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, deleted)
}

func TestSQLiteStorage_SourceFileOperations(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	a := testRecord("a", 0)
	b := testRecord("b", time.Second)
	other := testRecord("c", 0)
	other.SourceFile = "other.txt"
	for _, r := range []model.Record{a, b, other} {
		require.NoError(t, store.Insert(ctx, r))
	}

	found, err := store.FindBySourceFile(ctx, "group.txt")
	require.NoError(t, err)
	assert.Len(t, found, 2)

	deleted, err := store.DeleteBySourceFile(ctx, "group.txt")
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)

	found, err = store.FindBySourceFile(ctx, "group.txt")
	require.NoError(t, err)
	assert.Empty(t, found)

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = store.FindBySourceFile(ctx, "")
	require.ErrorIs(t, err, ErrEmptyString)
}

func TestSQLiteStorage_UpdateClassification(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	rec := testRecord("u", 0)
	require.NoError(t, store.Insert(ctx, rec))

	rec.Message = "مكتب للإيجار"
	rec.PropertyType = model.PropertyOffice
	rec.Purpose = model.PurposeRent
	rec.Enriched = true
	rec.SenderName = "ignored"
	require.NoError(t, store.UpdateClassification(ctx, rec))

	got, err := store.FindBySourceFile(ctx, rec.SourceFile)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, rec.SameClassification(&got[0]))
	assert.Equal(t, "Ahmed", got[0].SenderName)

	missing := testRecord("missing", 0)
	require.ErrorIs(t, store.UpdateClassification(ctx, missing), common.ErrNotFound)
}

func TestSQLiteStorage_CountByPropertyType(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	villa := testRecord("v", 0)
	villa.PropertyType = model.PropertyVilla
	for _, r := range []model.Record{testRecord("a", 0), testRecord("b", 0), villa} {
		require.NoError(t, store.Insert(ctx, r))
	}

	counts, err := store.CountByPropertyType(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[model.PropertyType]int{model.PropertyApartment: 2, model.PropertyVilla: 1}, counts)
}
