// Package daemon owns single-instance execution and the lifecycle of the
// transport that feeds updates into the dispatcher.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/gofrs/flock"

	"kinobot/internal/bot"
	"kinobot/internal/catalog"
	"kinobot/internal/config"
	"kinobot/internal/logging"
	"kinobot/internal/preflight"
)

// Daemon coordinates the transport server and enforces single-instance execution.
type Daemon struct {
	cfg        *config.Config
	store      *catalog.Store
	dispatcher *bot.Dispatcher
	logger     *slog.Logger

	lockPath string
	lock     *flock.Flock

	server *bot.SocketServer

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	DatabasePath string
	LockFilePath string
	SocketPath   string
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *catalog.Store, dispatcher *bot.Dispatcher, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil || dispatcher == nil {
		return nil, errors.New("daemon requires config, store, and dispatcher")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	lockPath := cfg.LockPath()
	return &Daemon{
		cfg:        cfg,
		store:      store,
		dispatcher: dispatcher,
		logger:     logger,
		lockPath:   lockPath,
		lock:       flock.New(lockPath),
	}, nil
}

// Start acquires the daemon lock, runs preflight checks, and begins serving
// transport connections.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another kinobot daemon instance is already running")
	}

	if failed := preflight.Failed(preflight.Run(d.cfg)); len(failed) > 0 {
		_ = d.lock.Unlock()
		details := make([]string, 0, len(failed))
		for _, result := range failed {
			details = append(details, fmt.Sprintf("%s: %s", result.Name, result.Detail))
		}
		return fmt.Errorf("preflight failed: %s", strings.Join(details, "; "))
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	server, err := bot.NewSocketServer(d.ctx, d.cfg.ResolveSocketPath(), d.dispatcher, d.logger)
	if err != nil {
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return fmt.Errorf("start transport: %w", err)
	}
	server.Serve()
	d.server = server

	d.running.Store(true)
	d.logger.Info("kinobot daemon started",
		logging.String("lock", d.lockPath),
		logging.String("socket", d.cfg.ResolveSocketPath()))
	return nil
}

// Stop shuts down the transport and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if d.server != nil {
		d.server.Close()
		d.server = nil
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("kinobot daemon stopped")
}

// Close releases resources held by the daemon, including the catalog store.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Status reports runtime information for operator tooling.
func (d *Daemon) Status() Status {
	return Status{
		Running:      d.running.Load(),
		DatabasePath: d.cfg.DatabasePath(),
		LockFilePath: d.lockPath,
		SocketPath:   d.cfg.ResolveSocketPath(),
	}
}
