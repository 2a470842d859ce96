// Package library owns the managed directory of stored movie files. Files are
// named after their catalog code with the original extension preserved.
package library

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"kinobot/internal/fileutil"
)

// Library places and removes movie files under a managed root directory.
type Library struct {
	root string
}

// New returns a Library rooted at dir. The directory is created on first Store.
func New(dir string) *Library {
	return &Library{root: dir}
}

// Root returns the managed directory.
func (l *Library) Root() string {
	return l.root
}

// Path returns the location a stored file with the given name would occupy.
func (l *Library) Path(name string) string {
	return filepath.Join(l.root, name)
}

// Store moves sourcePath into the managed directory under destName and returns
// the destination path. The source file no longer exists after a successful
// move. I/O errors propagate without retries.
func (l *Library) Store(sourcePath, destName string) (string, error) {
	if err := os.MkdirAll(l.root, 0o755); err != nil {
		return "", fmt.Errorf("create library directory: %w", err)
	}
	dest := l.Path(destName)
	if err := fileutil.MoveFile(sourcePath, dest); err != nil {
		return "", fmt.Errorf("store %q: %w", destName, err)
	}
	return dest, nil
}

// Delete removes a stored file. Returns false when the file was already
// absent, which is not an error; cleanup must be idempotent.
func (l *Library) Delete(path string) (bool, error) {
	err := os.Remove(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("delete %q: %w", path, err)
}

// Exists reports whether a stored file is present.
func (l *Library) Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// List returns the names of all files currently in the managed directory.
func (l *Library) List() ([]string, error) {
	entries, err := os.ReadDir(l.root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read library directory: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		names = append(names, entry.Name())
	}
	return names, nil
}
