package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/Veraticus/the-listings-must-flow/internal/common"
)

const maxAutoBackups = 5

// BackupManager snapshots the database with VACUUM INTO and restores
// snapshots over the live file.
type BackupManager struct {
	db        *sql.DB
	dbPath    string
	backupDir string
}

// BackupMetadata is written next to each snapshot as <id>.meta.json.
type BackupMetadata struct {
	CreatedAt     time.Time      `json:"created_at"`
	RowCounts     map[string]int `json:"row_counts"`
	ID            string         `json:"id"`
	Description   string         `json:"description"`
	FileSize      int64          `json:"file_size"`
	SchemaVersion int            `json:"schema_version"`
	IsAuto        bool           `json:"is_auto"`
}

// BackupInfo describes a snapshot for listing.
type BackupInfo struct {
	CreatedAt     time.Time
	ID            string
	Description   string
	FileSize      int64
	Records       int
	Senders       int
	SchemaVersion int
	IsAuto        bool
}

// Backup errors.
var (
	ErrBackupNotFound  = errors.New("backup not found")
	ErrBackupCorrupted = errors.New("backup integrity check failed")
	ErrBackupExists    = errors.New("backup already exists")
	ErrInvalidBackupID = errors.New("invalid backup id: cannot contain path separators")
)

// NewBackupManager creates a backup manager writing into backupDir.
func NewBackupManager(db *sql.DB, dbPath, backupDir string) (*BackupManager, error) {
	dir, err := filepath.Abs(backupDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve backup directory: %w", err)
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %w", err)
	}
	return &BackupManager{db: db, dbPath: dbPath, backupDir: dir}, nil
}

func validBackupID(id string) bool {
	return id != "" && !strings.ContainsAny(id, `/\'";`) && !strings.Contains(id, "..")
}

func (bm *BackupManager) paths(id string) (string, string) {
	return filepath.Join(bm.backupDir, id+".db"), filepath.Join(bm.backupDir, id+".meta.json")
}

// Create snapshots the database under tag. An empty tag is generated from
// the current time.
func (bm *BackupManager) Create(ctx context.Context, tag, description string) (*BackupInfo, error) {
	return bm.create(ctx, tag, description, false)
}

// Auto takes a snapshot before the operation named prefix and prunes older
// automatic snapshots.
func (bm *BackupManager) Auto(ctx context.Context, prefix string) (*BackupInfo, error) {
	tag := fmt.Sprintf("auto-%s-%s", prefix, time.Now().Format("20060102-150405.000"))
	info, err := bm.create(ctx, tag, "Automatic backup before "+prefix, true)
	if err != nil {
		return nil, fmt.Errorf("failed to create automatic backup: %w", err)
	}
	if err := bm.pruneAuto(ctx); err != nil {
		slog.Warn("Failed to prune automatic backups", "error", err)
	}
	return info, nil
}

func (bm *BackupManager) create(ctx context.Context, tag, description string, auto bool) (*BackupInfo, error) {
	if tag == "" {
		tag = "backup-" + time.Now().Format("20060102-150405")
	}
	if !validBackupID(tag) {
		return nil, ErrInvalidBackupID
	}

	backupPath, metadataPath := bm.paths(tag)
	if _, err := os.Stat(backupPath); err == nil {
		return nil, ErrBackupExists
	}

	var schemaVersion int
	if err := bm.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&schemaVersion); err != nil {
		return nil, fmt.Errorf("failed to get schema version: %w", err)
	}

	// The path is quoted into SQL, so it must not carry quote characters.
	if strings.ContainsAny(backupPath, `'";`) {
		return nil, fmt.Errorf("invalid backup path: contains forbidden characters")
	}
	// #nosec G201 - backupPath is validated above
	if _, err := bm.db.ExecContext(ctx, fmt.Sprintf("VACUUM INTO '%s'", backupPath)); err != nil {
		return nil, fmt.Errorf("failed to snapshot database: %w", err)
	}

	stat, err := os.Stat(backupPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat backup: %w", err)
	}

	metadata := BackupMetadata{
		ID:            tag,
		CreatedAt:     time.Now(),
		Description:   description,
		FileSize:      stat.Size(),
		RowCounts:     bm.collectRowCounts(ctx),
		SchemaVersion: schemaVersion,
		IsAuto:        auto,
	}

	if err := saveMetadata(metadataPath, metadata); err != nil {
		if rmErr := os.Remove(backupPath); rmErr != nil {
			slog.Error("Failed to remove backup after metadata failure", "error", rmErr)
		}
		return nil, fmt.Errorf("failed to save metadata: %w", err)
	}

	if err := bm.storeMetadataInDB(ctx, metadata); err != nil {
		slog.Warn("Failed to store backup metadata in database", "error", err)
	}

	info := metadata.info()
	return &info, nil
}

// List returns all backups, newest first.
func (bm *BackupManager) List(_ context.Context) ([]BackupInfo, error) {
	entries, err := os.ReadDir(bm.backupDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	backups := make([]BackupInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".meta.json") {
			continue
		}
		metadata, err := loadMetadata(filepath.Join(bm.backupDir, entry.Name()))
		if err != nil {
			slog.Debug("Skipping unreadable backup metadata", "file", entry.Name(), "error", err)
			continue
		}
		backups = append(backups, metadata.info())
	}

	sort.SliceStable(backups, func(i, j int) bool {
		return backups[i].CreatedAt.After(backups[j].CreatedAt)
	})
	return backups, nil
}

// Get returns one backup's metadata.
func (bm *BackupManager) Get(_ context.Context, id string) (*BackupInfo, error) {
	if !validBackupID(id) {
		return nil, ErrInvalidBackupID
	}
	_, metadataPath := bm.paths(id)
	metadata, err := loadMetadata(metadataPath)
	if os.IsNotExist(err) {
		return nil, ErrBackupNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load backup metadata: %w", err)
	}
	info := metadata.info()
	return &info, nil
}

// Restore replaces the database file with backup id. It closes the
// database handle, so the owning storage must be reopened afterwards.
func (bm *BackupManager) Restore(_ context.Context, id string) error {
	if !validBackupID(id) {
		return ErrInvalidBackupID
	}
	backupPath, metadataPath := bm.paths(id)

	if _, err := os.Stat(backupPath); err != nil {
		if os.IsNotExist(err) {
			return ErrBackupNotFound
		}
		return fmt.Errorf("failed to access backup: %w", err)
	}
	if _, err := loadMetadata(metadataPath); err != nil {
		return fmt.Errorf("failed to load backup metadata: %w", err)
	}
	if err := verifyIntegrity(backupPath); err != nil {
		return fmt.Errorf("%w: %w", ErrBackupCorrupted, err)
	}

	if err := bm.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	safety := bm.dbPath + ".restore-backup"
	if err := copyFile(bm.dbPath, safety); err != nil {
		return fmt.Errorf("failed to back up current database: %w", err)
	}

	for _, suffix := range []string{"-wal", "-shm"} {
		if err := os.Remove(bm.dbPath + suffix); err != nil && !os.IsNotExist(err) {
			slog.Warn("Failed to remove sidecar file", "path", bm.dbPath+suffix, "error", err)
		}
	}

	if err := copyFile(backupPath, bm.dbPath); err != nil {
		if restoreErr := copyFile(safety, bm.dbPath); restoreErr != nil {
			slog.Error("Failed to put the original database back", "error", restoreErr)
		}
		return fmt.Errorf("failed to restore backup: %w", err)
	}

	if err := os.Remove(safety); err != nil {
		slog.Warn("Failed to remove restore safety copy", "error", err)
	}
	return nil
}

// Delete removes a backup and its metadata.
func (bm *BackupManager) Delete(ctx context.Context, id string) error {
	if !validBackupID(id) {
		return ErrInvalidBackupID
	}
	backupPath, metadataPath := bm.paths(id)

	if err := os.Remove(backupPath); err != nil {
		if os.IsNotExist(err) {
			return ErrBackupNotFound
		}
		return fmt.Errorf("failed to remove backup file: %w", err)
	}
	if err := os.Remove(metadataPath); err != nil {
		slog.Debug("Failed to remove metadata file", "path", metadataPath, "error", err)
	}
	if _, err := bm.db.ExecContext(ctx, "DELETE FROM backup_metadata WHERE id = ?", id); err != nil {
		slog.Debug("Failed to remove backup metadata from database", "id", id, "error", err)
	}
	return nil
}

func (bm *BackupManager) pruneAuto(ctx context.Context) error {
	backups, err := bm.List(ctx)
	if err != nil {
		return err
	}
	kept := 0
	for _, b := range backups {
		if !b.IsAuto {
			continue
		}
		kept++
		if kept > maxAutoBackups {
			if err := bm.Delete(ctx, b.ID); err != nil {
				slog.Debug("Failed to delete old automatic backup", "backup", b.ID, "error", err)
			}
		}
	}
	return nil
}

func (bm *BackupManager) collectRowCounts(ctx context.Context) map[string]int {
	queries := map[string]string{
		"records": "SELECT COUNT(*) FROM records",
		"senders": "SELECT COUNT(*) FROM senders",
	}
	counts := make(map[string]int, len(queries))
	for table, query := range queries {
		var n int
		if err := bm.db.QueryRowContext(ctx, query).Scan(&n); err == nil {
			counts[table] = n
		}
	}
	return counts
}

func (bm *BackupManager) storeMetadataInDB(ctx context.Context, m BackupMetadata) error {
	counts, err := json.Marshal(m.RowCounts)
	if err != nil {
		return err
	}
	_, err = bm.db.ExecContext(ctx, `INSERT OR REPLACE INTO backup_metadata
		(id, created_at, description, file_size, row_counts, schema_version, is_auto)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.CreatedAt.UnixNano(), m.Description, m.FileSize, string(counts), m.SchemaVersion, m.IsAuto)
	return err
}

func (m BackupMetadata) info() BackupInfo {
	return BackupInfo{
		ID:            m.ID,
		CreatedAt:     m.CreatedAt,
		Description:   m.Description,
		FileSize:      m.FileSize,
		Records:       m.RowCounts["records"],
		Senders:       m.RowCounts["senders"],
		SchemaVersion: m.SchemaVersion,
		IsAuto:        m.IsAuto,
	}
}

func saveMetadata(path string, m BackupMetadata) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func loadMetadata(path string) (*BackupMetadata, error) {
	// #nosec G304 - path is built from a validated backup id
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m BackupMetadata
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func verifyIntegrity(path string) error {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	var result string
	if err := db.QueryRow("PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("%w: %w", common.ErrDatabaseCorrupted, err)
	}
	if result != "ok" {
		return fmt.Errorf("%w: %s", common.ErrDatabaseCorrupted, result)
	}
	return nil
}

func copyFile(src, dst string) error {
	// #nosec G304 - paths come from the configured database and backup directory
	source, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = source.Close() }()

	tmp := dst + ".tmp"
	// #nosec G304
	destination, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if _, err := io.Copy(destination, source); err != nil {
		_ = destination.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := destination.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, dst)
}
