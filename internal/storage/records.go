package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"

	"github.com/Veraticus/the-listings-must-flow/internal/common"
	"github.com/Veraticus/the-listings-must-flow/internal/model"
	"github.com/Veraticus/the-listings-must-flow/internal/service"
)

// maxDeleteBatch keeps IN lists under SQLite's bound-parameter limit.
const maxDeleteBatch = 500

const recordColumns = `seq, id, message, sender_name, sender_mobile, sender_id, timestamp, posted_at,
	source_file, category, property_type, purpose, region, enriched, created_at`

const insertRecordQuery = `INSERT INTO records (
		id, message, sender_name, sender_mobile, sender_id, timestamp, posted_at,
		source_file, category, property_type, purpose, region, enriched, created_at
	) VALUES (
		:id, :message, :sender_name, :sender_mobile, :sender_id, :timestamp, :posted_at,
		:source_file, :category, :property_type, :purpose, :region, :enriched, :created_at
	)`

// recordRow is the column layout of the records table. Times are stored as
// Unix nanoseconds so keyset paging compares integers.
type recordRow struct {
	ID           string        `db:"id"`
	Message      string        `db:"message"`
	SenderName   string        `db:"sender_name"`
	SenderMobile string        `db:"sender_mobile"`
	Timestamp    string        `db:"timestamp"`
	SourceFile   string        `db:"source_file"`
	Category     string        `db:"category"`
	PropertyType string        `db:"property_type"`
	Purpose      string        `db:"purpose"`
	Region       string        `db:"region"`
	SenderID     sql.NullInt64 `db:"sender_id"`
	PostedAt     sql.NullInt64 `db:"posted_at"`
	Seq          int64         `db:"seq"`
	CreatedAt    int64         `db:"created_at"`
	Enriched     bool          `db:"enriched"`
}

func toRow(r model.Record) recordRow {
	r.Normalize()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	row := recordRow{
		ID:           r.ID,
		Message:      r.Message,
		SenderName:   r.SenderName,
		SenderMobile: r.SenderMobile,
		Timestamp:    r.Timestamp,
		SourceFile:   r.SourceFile,
		Category:     string(r.Category),
		PropertyType: string(r.PropertyType),
		Purpose:      string(r.Purpose),
		Region:       r.Region,
		Enriched:     r.Enriched,
		CreatedAt:    r.CreatedAt.UnixNano(),
	}
	if r.SenderID > 0 {
		row.SenderID = sql.NullInt64{Int64: r.SenderID, Valid: true}
	}
	if r.PostedAt != nil {
		row.PostedAt = sql.NullInt64{Int64: r.PostedAt.UnixNano(), Valid: true}
	}
	return row
}

func (row recordRow) toModel() model.Record {
	r := model.Record{
		ID:           row.ID,
		Message:      row.Message,
		SenderName:   row.SenderName,
		SenderMobile: row.SenderMobile,
		Timestamp:    row.Timestamp,
		SourceFile:   row.SourceFile,
		Category:     model.Category(row.Category),
		PropertyType: model.PropertyType(row.PropertyType),
		Purpose:      model.Purpose(row.Purpose),
		Region:       row.Region,
		Enriched:     row.Enriched,
		CreatedAt:    time.Unix(0, row.CreatedAt),
	}
	if row.SenderID.Valid {
		r.SenderID = row.SenderID.Int64
	}
	if row.PostedAt.Valid {
		t := time.Unix(0, row.PostedAt.Int64)
		r.PostedAt = &t
	}
	return r
}

func rowsToModels(rows []recordRow) []model.Record {
	out := make([]model.Record, len(rows))
	for i, row := range rows {
		out[i] = row.toModel()
	}
	return out
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

// Insert stores one record.
func (s *SQLiteStorage) Insert(ctx context.Context, record model.Record) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateRecord(&record); err != nil {
		return err
	}

	if _, err := s.db.NamedExecContext(ctx, insertRecordQuery, toRow(record)); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("record %s: %w", record.ID, common.ErrDuplicate)
		}
		return fmt.Errorf("failed to insert record: %w", err)
	}
	return nil
}

// BulkInsert stores records in one transaction. Records whose id already
// exists are skipped and counted.
func (s *SQLiteStorage) BulkInsert(ctx context.Context, records []model.Record) (service.InsertResult, error) {
	var res service.InsertResult
	if err := validateContext(ctx); err != nil {
		return res, err
	}
	if len(records) == 0 {
		return res, nil
	}
	if err := validateRecords(records); err != nil {
		return res, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return res, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareNamedContext(ctx, "INSERT OR IGNORE"+insertRecordQuery[len("INSERT"):])
	if err != nil {
		return res, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, record := range records {
		result, err := stmt.ExecContext(ctx, toRow(record))
		if err != nil {
			return service.InsertResult{}, fmt.Errorf("failed to insert record %s: %w", record.ID, err)
		}
		if n, _ := result.RowsAffected(); n > 0 {
			res.Inserted++
		} else {
			res.Skipped++
		}
	}

	if err := tx.Commit(); err != nil {
		return service.InsertResult{}, fmt.Errorf("failed to commit records: %w", err)
	}
	return res, nil
}

// StreamAll visits every record ordered by (created_at, seq). Each page is
// read completely before fn runs, so fn may write to the database.
func (s *SQLiteStorage) StreamAll(ctx context.Context, pageSize int, fn func([]model.Record) error) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if pageSize <= 0 {
		return ErrInvalidSize
	}

	query := `SELECT ` + recordColumns + ` FROM records
		WHERE created_at > ? OR (created_at = ? AND seq > ?)
		ORDER BY created_at, seq
		LIMIT ?`

	lastCreated, lastSeq := int64(math.MinInt64), int64(0)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		var rows []recordRow
		if err := s.db.SelectContext(ctx, &rows, query, lastCreated, lastCreated, lastSeq, pageSize); err != nil {
			return fmt.Errorf("failed to read records page: %w", err)
		}
		if len(rows) == 0 {
			return nil
		}

		last := rows[len(rows)-1]
		lastCreated, lastSeq = last.CreatedAt, last.Seq

		if err := fn(rowsToModels(rows)); err != nil {
			return err
		}
		if len(rows) < pageSize {
			return nil
		}
	}
}

// DeleteByIDs removes the given records and returns how many existed.
func (s *SQLiteStorage) DeleteByIDs(ctx context.Context, ids []string) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	deleted := 0
	for start := 0; start < len(ids); start += maxDeleteBatch {
		end := min(start+maxDeleteBatch, len(ids))
		query, args, err := sqlx.In(`DELETE FROM records WHERE id IN (?)`, ids[start:end])
		if err != nil {
			return 0, fmt.Errorf("failed to build delete: %w", err)
		}
		result, err := tx.ExecContext(ctx, tx.Rebind(query), args...)
		if err != nil {
			return 0, fmt.Errorf("failed to delete records: %w", err)
		}
		n, _ := result.RowsAffected()
		deleted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit delete: %w", err)
	}
	return deleted, nil
}

// FindBySourceFile returns the records imported from sourceFile, oldest first.
func (s *SQLiteStorage) FindBySourceFile(ctx context.Context, sourceFile string) ([]model.Record, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(sourceFile, "sourceFile"); err != nil {
		return nil, err
	}

	var rows []recordRow
	query := `SELECT ` + recordColumns + ` FROM records WHERE source_file = ? ORDER BY created_at, seq`
	if err := s.db.SelectContext(ctx, &rows, query, sourceFile); err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	return rowsToModels(rows), nil
}

// DeleteBySourceFile removes every record imported from sourceFile.
func (s *SQLiteStorage) DeleteBySourceFile(ctx context.Context, sourceFile string) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateString(sourceFile, "sourceFile"); err != nil {
		return 0, err
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM records WHERE source_file = ?`, sourceFile)
	if err != nil {
		return 0, fmt.Errorf("failed to delete records: %w", err)
	}
	n, _ := result.RowsAffected()
	return int(n), nil
}

// UpdateClassification rewrites the message and classification of a stored record.
func (s *SQLiteStorage) UpdateClassification(ctx context.Context, record model.Record) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateRecord(&record); err != nil {
		return err
	}

	row := toRow(record)
	result, err := s.db.NamedExecContext(ctx, `UPDATE records SET
			message = :message,
			category = :category,
			property_type = :property_type,
			purpose = :purpose,
			region = :region,
			enriched = :enriched
		WHERE id = :id`, row)
	if err != nil {
		return fmt.Errorf("failed to update record: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("record %s: %w", record.ID, common.ErrNotFound)
	}
	return nil
}

// Count returns the number of stored records.
func (s *SQLiteStorage) Count(ctx context.Context) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM records`); err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return n, nil
}

// CountByPropertyType returns how many records carry each property type.
func (s *SQLiteStorage) CountByPropertyType(ctx context.Context) (map[model.PropertyType]int, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	var rows []struct {
		PropertyType string `db:"property_type"`
		N            int    `db:"n"`
	}
	if err := s.db.SelectContext(ctx, &rows, `SELECT property_type, COUNT(*) AS n FROM records GROUP BY property_type`); err != nil {
		return nil, fmt.Errorf("failed to count property types: %w", err)
	}
	out := make(map[model.PropertyType]int, len(rows))
	for _, r := range rows {
		out[model.PropertyType(r.PropertyType)] = r.N
	}
	return out, nil
}
