package substrate

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// File persists each key as one JSON file under a data directory. Write
// failures (read-only disk, missing directory) degrade to warnings.
type File struct {
	dir string
	mu  sync.RWMutex
}

// NewFile creates a file-backed store rooted at dir. The directory is
// created on first save if missing.
func NewFile(dir string) *File {
	return &File{dir: dir}
}

var _ Store = (*File)(nil)

func (f *File) path(key string) string {
	return filepath.Join(f.dir, key+".json")
}

func (f *File) Load(_ context.Context, key string, out any) bool {
	f.mu.RLock()
	data, err := os.ReadFile(f.path(key))
	f.mu.RUnlock()
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("failed to read document", "key", key, "error", err)
		}
		return false
	}
	if err := open(data, out); err != nil {
		slog.Warn("failed to decode stored document", "key", key, "error", err)
		return false
	}
	return true
}

func (f *File) Save(_ context.Context, key string, v any) bool {
	data, err := seal(v)
	if err != nil {
		slog.Warn("failed to encode document", "key", key, "error", err)
		return false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		slog.Warn("failed to create data directory", "dir", f.dir, "error", err)
		return false
	}
	// Write to a temp file then rename so a crash never leaves a torn document.
	tmp := f.path(key) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		slog.Warn("failed to write document", "key", key, "error", err)
		return false
	}
	if err := os.Rename(tmp, f.path(key)); err != nil {
		slog.Warn("failed to replace document", "key", key, "error", err)
		return false
	}
	return true
}
