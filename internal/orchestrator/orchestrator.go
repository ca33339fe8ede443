// Package orchestrator sequences one cleanup run: resolve the candidate
// folders, scan them, delete what was found, prune empty folders and report.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/fenilsonani/cleancache/internal/commands"
	"github.com/fenilsonani/cleancache/internal/progress"
	"github.com/fenilsonani/cleancache/internal/scanner"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v4/disk"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrRunInProgress is returned when a run is triggered while one is active
	ErrRunInProgress = errors.New("a cleanup run is already in progress")
	// ErrOrchestratorFault is returned when a run aborts outside the
	// per-file and per-folder error boundaries
	ErrOrchestratorFault = errors.New("cleanup run aborted")
)

// FolderResolver produces the candidate folders for a run
type FolderResolver interface {
	Resolve(ctx context.Context) ([]string, error)
}

// FileDeleter removes one file. Remove reports false with no error when the
// file was already gone.
type FileDeleter interface {
	Remove(path string) (bool, error)
}

// manifestKeeper is implemented by deleters that record what they delete
type manifestKeeper interface {
	ResetManifest()
}

// CommandChannel runs OS-level cleanup commands alongside deletion
type CommandChannel interface {
	Run(ctx context.Context) []commands.Result
	Len() int
}

// FreeSpaceFunc reports the free bytes on the volume holding path
type FreeSpaceFunc func(path string) (uint64, error)

// Outcome is delivered when a run started with Start finishes
type Outcome struct {
	Summary *Summary
	Err     error
}

// Orchestrator runs cleanups one at a time. It is safe for concurrent use;
// a run triggered while another is active does nothing.
type Orchestrator struct {
	resolver  FolderResolver
	walker    *scanner.Walker
	deleter   FileDeleter
	commands  CommandChannel
	reporter  *progress.Reporter
	freeSpace FreeSpaceFunc
	spacePath string
	minSize   int64
	dryRun    bool
	logger    zerolog.Logger

	state atomic.Int32
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithMinSize only deletes files strictly larger than size bytes
func WithMinSize(size int64) Option {
	return func(o *Orchestrator) { o.minSize = size }
}

// WithDryRun reports what would be deleted without deleting or pruning
func WithDryRun(dryRun bool) Option {
	return func(o *Orchestrator) { o.dryRun = dryRun }
}

// WithCommands runs ch in parallel with file deletion
func WithCommands(ch CommandChannel) Option {
	return func(o *Orchestrator) { o.commands = ch }
}

// WithReporter publishes progress to r
func WithReporter(r *progress.Reporter) Option {
	return func(o *Orchestrator) { o.reporter = r }
}

// WithFreeSpace measures free space on the volume holding path
func WithFreeSpace(path string, fn FreeSpaceFunc) Option {
	return func(o *Orchestrator) {
		o.spacePath = path
		o.freeSpace = fn
	}
}

// WithLogger sets the logger
func WithLogger(logger zerolog.Logger) Option {
	return func(o *Orchestrator) { o.logger = logger }
}

// New creates an Orchestrator
func New(resolver FolderResolver, walker *scanner.Walker, deleter FileDeleter, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		resolver:  resolver,
		walker:    walker,
		deleter:   deleter,
		reporter:  progress.NewReporter(),
		freeSpace: DiskFree,
		spacePath: defaultSpacePath(),
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// DiskFree reports free space using gopsutil
func DiskFree(path string) (uint64, error) {
	usage, err := disk.Usage(path)
	if err != nil {
		return 0, err
	}
	return usage.Free, nil
}

func defaultSpacePath() string {
	if runtime.GOOS == "windows" {
		return `C:\`
	}
	return "/"
}

// Reporter returns the progress reporter runs publish to
func (o *Orchestrator) Reporter() *progress.Reporter {
	return o.reporter
}

// State returns the current run state
func (o *Orchestrator) State() State {
	return State(o.state.Load())
}

// Run performs one cleanup synchronously. It returns ErrRunInProgress
// without doing anything if a run is already active.
func (o *Orchestrator) Run(ctx context.Context) (*Summary, error) {
	if !o.acquire() {
		return nil, ErrRunInProgress
	}
	defer o.setState(StateIdle)
	return o.execute(ctx)
}

// Start performs one cleanup on its own goroutine. It returns false, and no
// channel, if a run is already active. The channel receives exactly one
// Outcome and is then closed.
func (o *Orchestrator) Start(ctx context.Context) (<-chan Outcome, bool) {
	if !o.acquire() {
		return nil, false
	}

	ch := make(chan Outcome, 1)
	go func() {
		defer close(ch)
		defer o.setState(StateIdle)
		summary, err := o.execute(ctx)
		ch <- Outcome{Summary: summary, Err: err}
	}()
	return ch, true
}

func (o *Orchestrator) acquire() bool {
	return o.state.CompareAndSwap(int32(StateIdle), int32(StateScanning))
}

func (o *Orchestrator) setState(s State) {
	o.state.Store(int32(s))
}

// execute runs the pipeline. Panics are turned into ErrOrchestratorFault;
// files already deleted stay deleted.
func (o *Orchestrator) execute(ctx context.Context) (summary *Summary, err error) {
	run := &runState{
		o: o,
		summary: &Summary{
			RunID:     uuid.NewString(),
			StartedAt: time.Now(),
			DryRun:    o.dryRun,
			Errors:    []FileError{},
		},
	}
	logger := o.logger.With().Str("run_id", run.summary.RunID).Logger()
	run.logger = logger

	defer func() {
		if r := recover(); r != nil {
			summary = nil
			err = fmt.Errorf("%w: %v", ErrOrchestratorFault, r)
			logger.Error().Interface("panic", r).Str("state", o.State().String()).Msg("cleanup run aborted")
			o.publish(progress.Snapshot{
				RunID:   run.summary.RunID,
				Phase:   progress.PhaseError,
				Percent: progress.PercentIndeterminate,
				Error:   err.Error(),
			})
		}
	}()

	logger.Info().Bool("dry_run", o.dryRun).Int64("min_size", o.minSize).Msg("cleanup run started")
	if mk, ok := o.deleter.(manifestKeeper); ok {
		mk.ResetManifest()
	}
	run.summary.FreeSpaceBefore = o.measureFree(logger)

	entries := run.scan(ctx)

	// The command channel runs alongside deletion and joins before pruning
	var g errgroup.Group
	var results []commands.Result
	if o.commands != nil && o.commands.Len() > 0 && !o.dryRun {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("command channel panicked: %v", r)
				}
			}()
			results = o.commands.Run(ctx)
			return nil
		})
	}

	run.delete(ctx, entries)

	if err := g.Wait(); err != nil {
		logger.Warn().Err(err).Msg("command channel failed")
	}
	run.summary.Commands = summarizeCommands(results)
	if len(results) > 0 {
		o.publish(progress.Snapshot{
			RunID:   run.summary.RunID,
			Phase:   progress.PhaseDeleting,
			Percent: progress.PercentIndeterminate,
			Output:  run.summary.OutputText(),
		})
	}

	run.prune()
	run.report()

	return run.summary, nil
}

func (o *Orchestrator) publish(s progress.Snapshot) {
	if o.reporter != nil {
		o.reporter.Publish(s)
	}
}

func (o *Orchestrator) measureFree(logger zerolog.Logger) uint64 {
	if o.freeSpace == nil || o.spacePath == "" {
		return 0
	}
	free, err := o.freeSpace(o.spacePath)
	if err != nil {
		logger.Debug().Err(err).Str("path", o.spacePath).Msg("free space unavailable")
		return 0
	}
	return free
}
