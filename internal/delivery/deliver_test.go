package delivery_test

import (
	"context"
	"errors"
	"io"
	"os"
	"testing"

	"kinobot/internal/catalog"
	"kinobot/internal/delivery"
	"kinobot/internal/library"
	"kinobot/internal/testsupport"
)

type captureSink struct {
	entry *catalog.Entry
	data  []byte
	err   error
}

func (c *captureSink) Send(entry *catalog.Entry, file *os.File) error {
	if c.err != nil {
		return c.err
	}
	c.entry = entry
	data, err := io.ReadAll(file)
	if err != nil {
		return err
	}
	c.data = data
	return nil
}

func newDeliverer(t *testing.T) (*delivery.Deliverer, *catalog.Store, *library.Library, string) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	lib := library.New(cfg.Paths.MoviesDir)

	staged := testsupport.WriteStagedFile(t, cfg, "upload", []byte("movie-bytes"))
	dest, err := lib.Store(staged, "A1.mp4")
	if err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	testsupport.NewEntry(t, store, "A1", "Movie One", "A1.mp4", dest, int64(len("movie-bytes")))

	return delivery.NewDeliverer(store, lib, nil), store, lib, dest
}

func TestDeliverStreamsAndRecords(t *testing.T) {
	deliverer, store, _, _ := newDeliverer(t)
	ctx := context.Background()

	sink := &captureSink{}
	entry, err := deliverer.Deliver(ctx, 7, "A1", sink)
	if err != nil {
		t.Fatalf("Deliver failed: %v", err)
	}
	if entry.Code != "A1" || sink.entry == nil || sink.entry.Code != "A1" {
		t.Fatalf("unexpected entry: %#v", entry)
	}
	if string(sink.data) != "movie-bytes" {
		t.Fatalf("unexpected streamed data: %q", sink.data)
	}

	refreshed, err := store.GetEntry(ctx, "A1")
	if err != nil {
		t.Fatalf("GetEntry failed: %v", err)
	}
	if refreshed.DownloadCount != 1 {
		t.Fatalf("expected counter 1, got %d", refreshed.DownloadCount)
	}
	count, err := store.DownloadsForCode(ctx, "A1")
	if err != nil {
		t.Fatalf("DownloadsForCode failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected one audit record, got %d", count)
	}
}

func TestDeliverRepeatDownloadsEachCount(t *testing.T) {
	deliverer, store, _, _ := newDeliverer(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := deliverer.Deliver(ctx, 7, "A1", &captureSink{}); err != nil {
			t.Fatalf("Deliver %d failed: %v", i, err)
		}
	}

	entry, err := store.GetEntry(ctx, "A1")
	if err != nil {
		t.Fatalf("GetEntry failed: %v", err)
	}
	if entry.DownloadCount != 3 {
		t.Fatalf("expected counter 3, got %d", entry.DownloadCount)
	}
	count, err := store.DownloadsForCode(ctx, "A1")
	if err != nil {
		t.Fatalf("DownloadsForCode failed: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected three audit records, got %d", count)
	}
}

func TestDeliverUnknownCode(t *testing.T) {
	deliverer, store, _, _ := newDeliverer(t)
	ctx := context.Background()

	_, err := deliverer.Deliver(ctx, 7, "ZZZ", &captureSink{})
	if !errors.Is(err, delivery.ErrInvalidCode) {
		t.Fatalf("expected ErrInvalidCode, got %v", err)
	}

	count, err := store.DownloadsForCode(ctx, "ZZZ")
	if err != nil {
		t.Fatalf("DownloadsForCode failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no audit records, got %d", count)
	}
	entry, err := store.GetEntry(ctx, "A1")
	if err != nil {
		t.Fatalf("GetEntry failed: %v", err)
	}
	if entry.DownloadCount != 0 {
		t.Fatalf("expected untouched counter, got %d", entry.DownloadCount)
	}
}

func TestDeliverMissingFileKeepsRow(t *testing.T) {
	deliverer, store, _, dest := newDeliverer(t)
	ctx := context.Background()

	if err := os.Remove(dest); err != nil {
		t.Fatalf("remove stored file: %v", err)
	}

	_, err := deliverer.Deliver(ctx, 7, "A1", &captureSink{})
	if !errors.Is(err, delivery.ErrFileMissing) {
		t.Fatalf("expected ErrFileMissing, got %v", err)
	}

	entry, err := store.GetEntry(ctx, "A1")
	if err != nil {
		t.Fatalf("GetEntry failed: %v", err)
	}
	if entry == nil {
		t.Fatal("expected row kept for admin reconciliation")
	}
	if entry.DownloadCount != 0 {
		t.Fatalf("expected untouched counter, got %d", entry.DownloadCount)
	}
}

func TestDeliverSinkFailureSkipsBookkeeping(t *testing.T) {
	deliverer, store, _, _ := newDeliverer(t)
	ctx := context.Background()

	sinkErr := errors.New("connection reset")
	_, err := deliverer.Deliver(ctx, 7, "A1", &captureSink{err: sinkErr})
	if !errors.Is(err, sinkErr) {
		t.Fatalf("expected sink error surfaced, got %v", err)
	}

	entry, err := store.GetEntry(ctx, "A1")
	if err != nil {
		t.Fatalf("GetEntry failed: %v", err)
	}
	if entry.DownloadCount != 0 {
		t.Fatalf("expected no counting for failed stream, got %d", entry.DownloadCount)
	}
}
