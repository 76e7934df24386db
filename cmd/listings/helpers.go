package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Veraticus/the-listings-must-flow/internal/config"
	"github.com/Veraticus/the-listings-must-flow/internal/engine"
	"github.com/Veraticus/the-listings-must-flow/internal/llm"
	"github.com/Veraticus/the-listings-must-flow/internal/metrics"
	"github.com/Veraticus/the-listings-must-flow/internal/storage"
)

// app holds what a pipeline command needs for one run.
type app struct {
	store    *storage.SQLiteStorage
	metrics  *metrics.Metrics
	enricher engine.Enricher
	llm      *llm.Enricher
	cfg      config.Config
}

// openApp opens and migrates the database. The enricher is built only when
// withEnricher is set and an LLM provider is configured.
func openApp(ctx context.Context, cfg config.Config, withEnricher bool) (*app, error) {
	store, err := openStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}

	a := &app{store: store, metrics: metrics.New(), cfg: cfg}
	if withEnricher && llm.Enabled(cfg.LLM.Provider) {
		client, err := llm.NewClient(cfg.LLM)
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("failed to create LLM client: %w", err)
		}
		a.llm = llm.NewEnricher(client, cfg.LLM, a.metrics, slog.Default())
		a.enricher = a.llm
		slog.Info("LLM enrichment enabled", "provider", cfg.LLM.Provider)
	}
	return a, nil
}

func openStorage(ctx context.Context, cfg config.Config) (*storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close writes the metrics textfile when configured and releases resources.
func (a *app) Close() {
	if a.llm != nil {
		a.llm.Close()
	}
	if path := a.cfg.Metrics.Textfile; path != "" {
		if err := a.metrics.WriteTextfile(path); err != nil {
			slog.Warn("Failed to write metrics", "path", path, "error", err)
		}
	}
	if err := a.store.Close(); err != nil {
		slog.Warn("Failed to close database", "error", err)
	}
}

func (a *app) backups() (*storage.BackupManager, error) {
	return a.store.NewBackupManager(a.cfg.Database.BackupDir)
}
