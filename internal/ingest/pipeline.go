// Package ingest implements the two-phase admin upload pipeline: an admin
// registers a code and title, then attaches the binary file in a later
// message. Pending registrations live only in memory and are keyed by admin;
// a restart drops them, which is acceptable for such short-lived state.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"kinobot/internal/catalog"
	"kinobot/internal/library"
	"kinobot/internal/logging"
)

// ErrNoPendingRegistration is returned by AttachFile when the admin has not
// registered a code and title first.
var ErrNoPendingRegistration = errors.New("no pending registration")

type registration struct {
	code  string
	title string
}

// Pipeline tracks pending registrations per admin and turns an attached file
// into a stored catalog entry.
type Pipeline struct {
	mu      sync.Mutex
	pending map[int64]registration

	store   *catalog.Store
	library *library.Library
	logger  *slog.Logger
}

// NewPipeline constructs the ingestion pipeline.
func NewPipeline(store *catalog.Store, lib *library.Library, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Pipeline{
		pending: make(map[int64]registration),
		store:   store,
		library: lib,
		logger:  logger,
	}
}

// BeginRegistration records the code and title the admin intends to upload.
// A second registration before the file arrives replaces the first without
// warning; last write wins.
func (p *Pipeline) BeginRegistration(adminID int64, code, title string) {
	p.mu.Lock()
	p.pending[adminID] = registration{code: code, title: title}
	p.mu.Unlock()

	p.logger.Info("registration pending",
		logging.Int64("admin", adminID),
		logging.String("code", code),
		logging.String("title", title))
}

// Pending returns the registration currently awaiting a file for the admin.
func (p *Pipeline) Pending(adminID int64) (code, title string, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	reg, ok := p.pending[adminID]
	return reg.code, reg.title, ok
}

// AttachFile completes a pending registration with the staged file at
// tempPath. The file is moved (not copied) into the library under
// {code}{original extension}. On a duplicate code the moved file is deleted
// again and the registration is consumed; the admin must re-register to retry.
func (p *Pipeline) AttachFile(ctx context.Context, adminID int64, tempPath, originalFilename string, declaredSize int64) (*catalog.Entry, error) {
	p.mu.Lock()
	reg, ok := p.pending[adminID]
	p.mu.Unlock()
	if !ok {
		return nil, ErrNoPendingRegistration
	}

	destName := reg.code + filepath.Ext(originalFilename)
	destPath, err := p.library.Store(tempPath, destName)
	if err != nil {
		// The staged file is untouched; the admin may resend it.
		return nil, fmt.Errorf("move file into library: %w", err)
	}

	size := declaredSize
	if size <= 0 {
		if info, statErr := os.Stat(destPath); statErr == nil {
			size = info.Size()
		}
	}

	entry, err := p.store.CreateEntry(ctx, reg.code, reg.title, destName, destPath, size, adminID)
	if err != nil {
		if removed, delErr := p.library.Delete(destPath); delErr != nil {
			p.logger.Warn("rollback delete failed",
				logging.String("path", destPath),
				logging.Error(delErr))
		} else if removed {
			p.logger.Info("rolled back stored file", logging.String("path", destPath))
		}
		if errors.Is(err, catalog.ErrDuplicateCode) {
			// The registration is consumed on conflict; clearing intent beats
			// silently retrying against the same taken code.
			p.clear(adminID)
			return nil, err
		}
		return nil, err
	}

	p.clear(adminID)
	p.logger.Info("entry ingested",
		logging.Int64("admin", adminID),
		logging.String("code", entry.Code),
		logging.Int64("size", entry.FileSize))
	return entry, nil
}

func (p *Pipeline) clear(adminID int64) {
	p.mu.Lock()
	delete(p.pending, adminID)
	p.mu.Unlock()
}
