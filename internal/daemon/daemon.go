package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/fenilsonani/cleancache/internal/config"
	"github.com/fenilsonani/cleancache/internal/orchestrator"
	"github.com/rs/zerolog"
)

// Runner performs one cleanup. *orchestrator.Orchestrator satisfies it.
type Runner interface {
	Run(ctx context.Context) (*orchestrator.Summary, error)
}

// Daemon runs cleanups on a schedule until it is stopped
type Daemon struct {
	config      *config.DaemonConfig
	runner      Runner
	scheduler   *Scheduler
	notifiers   []Notifier
	pidFile     string
	logger      zerolog.Logger
	running     bool
	shutdownCtx context.Context
	cancelFunc  context.CancelFunc
	mu          sync.RWMutex
}

// New creates a new daemon instance
func New(cfg *config.Config, runner Runner, logger zerolog.Logger) (*Daemon, error) {
	if cfg.Daemon == nil || !cfg.Daemon.Enabled {
		return nil, fmt.Errorf("daemon not enabled in configuration")
	}

	pidFile := cfg.Daemon.PidFile
	if pidFile == "" {
		dir, err := config.GetAppDir()
		if err != nil {
			return nil, fmt.Errorf("failed to locate pid file: %w", err)
		}
		pidFile = filepath.Join(dir, "cleancached.pid")
	}

	historyPath, err := cfg.HistoryPath()
	if err != nil {
		return nil, fmt.Errorf("failed to locate history file: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	d := &Daemon{
		config:      cfg.Daemon,
		runner:      runner,
		pidFile:     pidFile,
		logger:      logger,
		shutdownCtx: ctx,
		cancelFunc:  cancel,
		notifiers: []Notifier{
			NewHistoryNotifier(historyPath),
			NewLogNotifier(logger),
		},
	}

	d.scheduler, err = NewScheduler(cfg.Daemon.Schedule, d.RunOnce, logger)
	if err != nil {
		cancel()
		return nil, err
	}

	return d, nil
}

// Start starts the daemon and blocks until Stop is called or a shutdown
// signal arrives
func (d *Daemon) Start() error {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return fmt.Errorf("daemon already running")
	}
	d.running = true
	d.mu.Unlock()

	defer func() {
		d.mu.Lock()
		d.running = false
		d.mu.Unlock()
	}()

	d.logger.Info().Str("schedule", d.config.Schedule).Msg("starting cleanup daemon")

	if err := d.acquireLock(); err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	defer d.releaseLock()

	if err := d.writePidFile(); err != nil {
		return fmt.Errorf("failed to write PID file: %w", err)
	}
	defer d.removePidFile()

	stopSignals := d.setupSignalHandlers()
	defer stopSignals()

	d.scheduler.Start()
	defer d.scheduler.Stop()

	d.logger.Info().Time("next_run", d.scheduler.NextRun()).Msg("daemon started")

	if d.config.RunOnStart {
		go d.RunOnce(d.shutdownCtx)
	}

	<-d.shutdownCtx.Done()

	d.logger.Info().Msg("daemon shutting down")
	return nil
}

// Stop stops the daemon. A run in progress is cancelled.
func (d *Daemon) Stop() {
	if d.cancelFunc != nil {
		d.cancelFunc()
	}
}

// IsRunning returns whether the daemon is running
func (d *Daemon) IsRunning() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.running
}

// RunOnce performs one scheduled cleanup. A tick that finds a run already
// active is skipped.
func (d *Daemon) RunOnce(ctx context.Context) {
	start := time.Now()
	summary, err := d.runner.Run(ctx)
	switch {
	case errors.Is(err, orchestrator.ErrRunInProgress):
		d.logger.Info().Msg("cleanup already running, skipping scheduled run")
		return
	case err != nil:
		d.logger.Error().Err(err).Dur("elapsed", time.Since(start)).Msg("scheduled cleanup failed")
		return
	case summary == nil:
		return
	}

	for _, n := range d.notifiers {
		if err := n.Notify(summary); err != nil {
			d.logger.Warn().Err(err).Msg("failed to record cleanup summary")
		}
	}
}

// setupSignalHandlers stops the daemon on SIGINT or SIGTERM. The returned
// function unregisters the handler.
func (d *Daemon) setupSignalHandlers() func() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		select {
		case sig := <-sigChan:
			d.logger.Info().Str("signal", sig.String()).Msg("received shutdown signal")
			d.Stop()
		case <-done:
		}
	}()

	return func() {
		signal.Stop(sigChan)
		close(done)
	}
}

func (d *Daemon) lockFile() string {
	return d.pidFile + ".lock"
}

// acquireLock creates the lock file; an existing one means another daemon
// owns the schedule
func (d *Daemon) acquireLock() error {
	if err := os.MkdirAll(filepath.Dir(d.lockFile()), 0755); err != nil {
		return err
	}

	file, err := os.OpenFile(d.lockFile(), os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0644)
	if err != nil {
		if os.IsExist(err) {
			return fmt.Errorf("daemon already running (lock file exists)")
		}
		return err
	}

	_, err = fmt.Fprintf(file, "%d\n", os.Getpid())
	file.Close()
	return err
}

func (d *Daemon) releaseLock() error {
	return os.Remove(d.lockFile())
}

func (d *Daemon) writePidFile() error {
	return os.WriteFile(d.pidFile, []byte(fmt.Sprintf("%d\n", os.Getpid())), 0644)
}

func (d *Daemon) removePidFile() error {
	return os.Remove(d.pidFile)
}
