package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/gofrs/flock"

	"docfactory/internal/config"
	"docfactory/internal/ingest"
	"docfactory/internal/logging"
	"docfactory/internal/pipeline"
	"docfactory/internal/records"
)

// Daemon coordinates the ingestion gate and pipeline workers and enforces
// single-instance execution via a lock file.
type Daemon struct {
	cfg     *config.Config
	logger  *slog.Logger
	records *records.Store
	gate    *ingest.Gate
	orch    *pipeline.Orchestrator

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	InputDir     string
	RecordCount  int
	LockFilePath string
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, logger *slog.Logger, recordStore *records.Store, gate *ingest.Gate, orch *pipeline.Orchestrator) (*Daemon, error) {
	if cfg == nil || recordStore == nil || gate == nil || orch == nil {
		return nil, errors.New("daemon requires config, record store, gate, and orchestrator")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "docfactoryd.lock")
	return &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		records:  recordStore,
		gate:     gate,
		orch:     orch,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the daemon lock and launches the gate and workers.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another docfactory daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	d.wg.Add(2)
	go func() {
		defer d.wg.Done()
		if err := d.gate.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
			d.logger.Error("ingestion gate stopped", logging.Error(err))
		}
	}()
	go func() {
		defer d.wg.Done()
		if err := d.orch.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
			d.logger.Error("pipeline stopped", logging.Error(err))
		}
	}()

	d.running.Store(true)
	d.logger.Info("docfactory daemon started",
		logging.String("input_dir", d.cfg.Paths.InputDir),
		logging.String("lock", d.lockPath))
	return nil
}

// Stop cancels background processing, waits for in-flight documents to
// finish their current stage, and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.wg.Wait()

	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("docfactory daemon stopped")
}

// Wait blocks until the background goroutines exit.
func (d *Daemon) Wait() {
	d.wg.Wait()
}

// Running reports whether the daemon has been started.
func (d *Daemon) Running() bool {
	return d.running.Load()
}

// Status reports runtime information for the CLI.
func (d *Daemon) Status() Status {
	return Status{
		Running:      d.running.Load(),
		InputDir:     d.cfg.Paths.InputDir,
		RecordCount:  d.records.Count(),
		LockFilePath: d.lockPath,
	}
}
