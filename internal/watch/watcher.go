// Package watch re-imports chat exports when they change on disk.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Veraticus/the-listings-must-flow/internal/chatlog"
	"github.com/Veraticus/the-listings-must-flow/internal/common"
)

// DefaultDebounce is how long a file must stay quiet before it is imported.
const DefaultDebounce = 500 * time.Millisecond

// Handler reacts to export files appearing, changing and disappearing.
type Handler interface {
	// Import (re)imports the export at path.
	Import(ctx context.Context, path string) error
	// Remove drops everything imported from source.
	Remove(ctx context.Context, source string) error
}

// Watcher watches one directory for export files.
type Watcher struct {
	handler  Handler
	logger   *slog.Logger
	dir      string
	debounce time.Duration
}

// New creates a watcher for dir. A non-positive debounce uses DefaultDebounce.
func New(dir string, h Handler, debounce time.Duration, logger *slog.Logger) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		dir:      dir,
		handler:  h,
		debounce: debounce,
		logger:   common.LoggerOrDefault(logger),
	}
}

// Run blocks until ctx is canceled. Handler errors are logged and do not
// stop the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = fw.Close() }()

	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}
	w.logger.Info("Watching for exports", "dir", w.dir)

	ready := make(chan string)
	pending := make(map[string]*time.Timer)
	defer func() {
		for _, t := range pending {
			t.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ctx, event, pending, ready)

		case path := <-ready:
			delete(pending, path)
			if err := w.handler.Import(ctx, path); err != nil {
				w.logger.Warn("Failed to import export", "path", path, "error", err)
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				w.logger.Warn("Watcher dropped events", "dir", w.dir)
				continue
			}
			w.logger.Error("Watcher error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event, pending map[string]*time.Timer, ready chan<- string) {
	path := filepath.Clean(event.Name)
	if !chatlog.IsExport(path) {
		return
	}

	switch {
	case event.Has(fsnotify.Create) || event.Has(fsnotify.Write):
		if t, ok := pending[path]; ok {
			t.Reset(w.debounce)
			return
		}
		pending[path] = time.AfterFunc(w.debounce, func() {
			select {
			case ready <- path:
			case <-ctx.Done():
			}
		})

	case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
		if t, ok := pending[path]; ok {
			t.Stop()
			delete(pending, path)
		}
		source := chatlog.SourceName(path)
		if err := w.handler.Remove(ctx, source); err != nil {
			w.logger.Warn("Failed to remove records", "source_file", source, "error", err)
			return
		}
		w.logger.Info("Removed records of deleted export", "source_file", source)
	}
}
