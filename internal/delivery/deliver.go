// Package delivery resolves a catalog code to its stored file, streams it to
// the requester, and records the download.
package delivery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"kinobot/internal/catalog"
	"kinobot/internal/library"
	"kinobot/internal/logging"
)

var (
	// ErrInvalidCode is returned when no catalog entry exists for the code.
	// Malformed and simply-unregistered codes are deliberately not
	// distinguished.
	ErrInvalidCode = errors.New("unknown catalog code")

	// ErrFileMissing is returned when the entry exists but its backing file
	// does not. The row is left intact for the admin to reconcile.
	ErrFileMissing = errors.New("stored file missing")
)

// Sink receives the resolved entry and its open file. Transports implement
// this to hand the file to the requesting user.
type Sink interface {
	Send(entry *catalog.Entry, file *os.File) error
}

// Deliverer composes the catalog and library into the user-facing read path.
type Deliverer struct {
	store   *catalog.Store
	library *library.Library
	logger  *slog.Logger
}

// NewDeliverer constructs the delivery path.
func NewDeliverer(store *catalog.Store, lib *library.Library, logger *slog.Logger) *Deliverer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Deliverer{store: store, library: lib, logger: logger}
}

// Deliver looks up code, streams the stored file through sink, then bumps the
// download counter and appends an audit record. The bookkeeping writes are not
// atomic with the stream: a crash in between under-reports, which is accepted
// best-effort accounting.
func (d *Deliverer) Deliver(ctx context.Context, userID int64, code string, sink Sink) (*catalog.Entry, error) {
	entry, err := d.store.GetEntry(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("resolve code: %w", err)
	}
	if entry == nil {
		return nil, fmt.Errorf("code %q: %w", code, ErrInvalidCode)
	}

	if !d.library.Exists(entry.FilePath) {
		d.logger.Warn("catalog entry without backing file",
			logging.String("code", entry.Code),
			logging.String("path", entry.FilePath))
		return entry, fmt.Errorf("code %q: %w", code, ErrFileMissing)
	}

	file, err := os.Open(entry.FilePath)
	if err != nil {
		return entry, fmt.Errorf("open stored file: %w", err)
	}
	defer file.Close()

	if err := sink.Send(entry, file); err != nil {
		return entry, fmt.Errorf("stream file: %w", err)
	}

	if err := d.store.IncrementDownloadCount(ctx, code); err != nil {
		return entry, err
	}
	if err := d.store.RecordDownload(ctx, userID, code); err != nil {
		return entry, err
	}

	d.logger.Info("delivered",
		logging.Int64("user", userID),
		logging.String("code", code))
	return entry, nil
}
