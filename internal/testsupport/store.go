package testsupport

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"kinobot/internal/catalog"
	"kinobot/internal/config"
)

// MustOpenStore opens a catalog.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *catalog.Store {
	t.Helper()

	store, err := catalog.Open(cfg)
	if err != nil {
		t.Fatalf("catalog.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewEntry inserts a catalog entry for tests using the provided store.
func NewEntry(t testing.TB, store *catalog.Store, code, title, filename, filePath string, size int64) *catalog.Entry {
	t.Helper()

	entry, err := store.CreateEntry(context.Background(), code, title, filename, filePath, size, 1)
	if err != nil {
		t.Fatalf("store.CreateEntry: %v", err)
	}
	return entry
}

// WriteStagedFile writes a file under the config staging dir and returns its path.
func WriteStagedFile(t testing.TB, cfg *config.Config, name string, contents []byte) string {
	t.Helper()

	if err := os.MkdirAll(cfg.Paths.StagingDir, 0o755); err != nil {
		t.Fatalf("mkdir staging dir: %v", err)
	}
	path := filepath.Join(cfg.Paths.StagingDir, name)
	if err := os.WriteFile(path, contents, 0o644); err != nil {
		t.Fatalf("write staged file: %v", err)
	}
	return path
}
