package chatlog

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Veraticus/the-listings-must-flow/internal/common"
)

// maxExportSize bounds how much text is read from one export.
const maxExportSize = 256 << 20

// IsExport reports whether path names a supported export file.
func IsExport(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".zip":
		return !strings.HasPrefix(filepath.Base(path), ".")
	}
	return false
}

// SourceName returns the provenance tag recorded for an export path.
func SourceName(path string) string {
	return filepath.Base(path)
}

// ReadExport returns the chat text of a .txt export, or of the chat
// transcript inside a .zip export.
func ReadExport(path string) (string, error) {
	if strings.EqualFold(filepath.Ext(path), ".zip") {
		return readZipExport(path)
	}

	f, err := os.Open(path) // #nosec G304 -- path is chosen by the operator
	if err != nil {
		return "", fmt.Errorf("failed to open export: %w", err)
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(io.LimitReader(f, maxExportSize))
	if err != nil {
		return "", fmt.Errorf("failed to read export: %w", err)
	}
	return string(data), nil
}

func readZipExport(path string) (string, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("failed to open zip export: %w", err)
	}
	defer func() { _ = r.Close() }()

	var chat *zip.File
	for _, f := range r.File {
		if f.FileInfo().IsDir() || !strings.EqualFold(filepath.Ext(f.Name), ".txt") {
			continue
		}
		if chat == nil || strings.Contains(strings.ToLower(f.Name), "chat") {
			chat = f
		}
	}
	if chat == nil {
		return "", fmt.Errorf("%w: no .txt chat file in %s", common.ErrInvalidInput, filepath.Base(path))
	}

	rc, err := chat.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open %s in zip: %w", chat.Name, err)
	}
	defer func() { _ = rc.Close() }()

	data, err := io.ReadAll(io.LimitReader(rc, maxExportSize))
	if err != nil {
		return "", fmt.Errorf("failed to read %s in zip: %w", chat.Name, err)
	}
	return string(data), nil
}

// FindExports expands each path into export files. Directories are scanned
// one level deep; results are sorted and unique.
func FindExports(paths []string) ([]string, error) {
	seen := make(map[string]bool)
	var found []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			found = append(found, p)
		}
	}

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", p, err)
		}
		if !info.IsDir() {
			add(p)
			continue
		}
		entries, err := os.ReadDir(p)
		if err != nil {
			return nil, fmt.Errorf("failed to read directory %s: %w", p, err)
		}
		for _, e := range entries {
			if !e.IsDir() && IsExport(e.Name()) {
				add(filepath.Join(p, e.Name()))
			}
		}
	}

	sort.Strings(found)
	return found, nil
}
