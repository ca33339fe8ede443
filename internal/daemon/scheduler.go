package daemon

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Job is the work performed on each tick
type Job func(ctx context.Context)

// Scheduler fires a single cleanup job on a cron schedule
type Scheduler struct {
	cron     *cron.Cron
	schedule string
	entry    cron.EntryID
	ctx      context.Context
	cancel   context.CancelFunc
	mu       sync.Mutex
	running  bool
	logger   zerolog.Logger
}

// NewScheduler parses schedule (a five-field cron expression or a
// descriptor such as "@every 480h") and binds job to it
func NewScheduler(schedule string, job Job, logger zerolog.Logger) (*Scheduler, error) {
	parser := cron.NewParser(
		cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
	)

	cl := cronLogger{logger: logger}
	c := cron.New(cron.WithParser(parser), cron.WithChain(
		cron.Recover(cl),
		cron.SkipIfStillRunning(cl),
	))

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		cron:     c,
		schedule: schedule,
		ctx:      ctx,
		cancel:   cancel,
		logger:   logger,
	}

	id, err := c.AddFunc(schedule, func() {
		logger.Info().Msg("executing scheduled cleanup")
		job(s.ctx)
	})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}
	s.entry = id

	return s, nil
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}
	s.cron.Start()
	s.running = true
}

// Stop cancels a job in progress and waits up to ten seconds for it
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	s.cancel()
	ctx := s.cron.Stop()
	select {
	case <-ctx.Done():
	case <-time.After(10 * time.Second):
		s.logger.Warn().Msg("scheduler stop timed out")
	}

	s.running = false
	s.logger.Info().Msg("scheduler stopped")
}

// NextRun returns when the job fires next. It is zero until Start.
func (s *Scheduler) NextRun() time.Time {
	return s.cron.Entry(s.entry).Next
}

// cronLogger routes cron's own messages through zerolog
type cronLogger struct {
	logger zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
