package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 3

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Up: func(tx *sql.Tx) error {
			return execAll(tx,
				`CREATE TABLE IF NOT EXISTS senders (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					mobile TEXT UNIQUE NOT NULL,
					name TEXT NOT NULL DEFAULT '',
					first_seen INTEGER NOT NULL
				)`,

				`CREATE TABLE IF NOT EXISTS records (
					seq INTEGER PRIMARY KEY AUTOINCREMENT,
					id TEXT UNIQUE NOT NULL,
					message TEXT NOT NULL,
					sender_name TEXT NOT NULL DEFAULT '',
					sender_mobile TEXT NOT NULL DEFAULT 'N/A',
					sender_id INTEGER REFERENCES senders(id) ON DELETE SET NULL,
					timestamp TEXT NOT NULL DEFAULT '',
					posted_at INTEGER,
					source_file TEXT NOT NULL,
					category TEXT NOT NULL DEFAULT 'Other',
					property_type TEXT NOT NULL DEFAULT 'Other',
					purpose TEXT NOT NULL DEFAULT 'Other',
					region TEXT NOT NULL DEFAULT 'Other',
					enriched INTEGER NOT NULL DEFAULT 0,
					created_at INTEGER NOT NULL
				)`,
				`CREATE INDEX idx_records_source_file ON records(source_file)`,
				`CREATE INDEX idx_records_created ON records(created_at, seq)`,
			)
		},
	},
	{
		Version:     2,
		Description: "Add classification indexes",
		Up: func(tx *sql.Tx) error {
			return execAll(tx,
				`CREATE INDEX idx_records_property_type ON records(property_type)`,
				`CREATE INDEX idx_records_region ON records(region)`,
				`CREATE INDEX idx_records_category_purpose ON records(category, purpose)`,
				`CREATE INDEX idx_records_sender ON records(sender_id)`,
			)
		},
	},
	{
		Version:     3,
		Description: "Add backup metadata",
		Up: func(tx *sql.Tx) error {
			return execAll(tx,
				`CREATE TABLE IF NOT EXISTS backup_metadata (
					id TEXT PRIMARY KEY,
					created_at INTEGER NOT NULL,
					description TEXT NOT NULL DEFAULT '',
					file_size INTEGER NOT NULL DEFAULT 0,
					row_counts TEXT NOT NULL DEFAULT '{}',
					schema_version INTEGER NOT NULL,
					is_auto INTEGER NOT NULL DEFAULT 0
				)`,
			)
		},
	},
}

func execAll(tx *sql.Tx, queries ...string) error {
	for _, query := range queries {
		if _, err := tx.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}
	return nil
}

// Migrate applies all pending database migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	currentVersion, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Debug("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	finalVersion, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}
	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}
