package ingestion

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/lodeworks/lodestone/core"
	"github.com/lodeworks/lodestone/storage"
)

const (
	defaultTickInterval = 30 * time.Second
	defaultMaxJobAge    = time.Hour
)

// Scheduler periodically scans for due sources and dispatches sync jobs to a
// worker pool. At most one job runs per source; concurrency across sources is
// bounded by the pool size.
type Scheduler struct {
	sources storage.SourceRepository
	jobs    storage.JobRepository
	runner  *Runner
	pool    *ants.Pool

	tick      time.Duration
	maxJobAge time.Duration
	logger    *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler) error

// WithPoolSize sets the worker pool size for concurrent jobs.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) SchedulerOption {
	return func(s *Scheduler) error {
		if size < 1 {
			size = 1
		}
		if s.pool != nil {
			s.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		s.pool = pool
		return nil
	}
}

// WithTickInterval sets how often the scheduler scans for due sources.
// Default is 30 seconds.
func WithTickInterval(interval time.Duration) SchedulerOption {
	return func(s *Scheduler) error {
		if interval <= 0 {
			interval = defaultTickInterval
		}
		s.tick = interval
		return nil
	}
}

// WithMaxJobAge sets how long a job may run before a tick force-fails it.
// Default is one hour.
func WithMaxJobAge(maxAge time.Duration) SchedulerOption {
	return func(s *Scheduler) error {
		if maxAge <= 0 {
			maxAge = defaultMaxJobAge
		}
		s.maxJobAge = maxAge
		return nil
	}
}

// WithSchedulerLogger sets a custom logger.
// Default is slog.Default().
func WithSchedulerLogger(logger *slog.Logger) SchedulerOption {
	return func(s *Scheduler) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewScheduler creates a new scheduler over the given runner.
func NewScheduler(
	sources storage.SourceRepository,
	jobs storage.JobRepository,
	runner *Runner,
	opts ...SchedulerOption,
) (*Scheduler, error) {
	if sources == nil {
		return nil, ErrSourceRepositoryRequired
	}
	if jobs == nil {
		return nil, ErrJobRepositoryRequired
	}
	if runner == nil {
		return nil, errors.New("runner required")
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	s := &Scheduler{
		sources:   sources,
		jobs:      jobs,
		runner:    runner,
		pool:      pool,
		tick:      defaultTickInterval,
		maxJobAge: defaultMaxJobAge,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			s.pool.Release()
			return nil, err
		}
	}
	return s, nil
}

// Start launches the scheduling loop. It returns immediately; the loop runs
// until Stop is called or the context is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.tick)
		defer ticker.Stop()

		// First scan happens immediately, not one tick later.
		s.Tick(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Tick(ctx)
			}
		}
	}()
}

// Tick performs one scheduling pass: recover stuck jobs, then claim and
// dispatch every due source. Sources whose slot is already held are skipped.
func (s *Scheduler) Tick(ctx context.Context) {
	now := time.Now().UTC()

	stuck, err := s.jobs.FailStuck(ctx, now, s.maxJobAge)
	if err != nil {
		s.logger.Error("failed to recover stuck jobs", "err", err)
	}
	for _, job := range stuck {
		s.logger.Warn("force-failed stuck job", "sourceID", job.SourceId, "jobID", job.Id)
	}

	due, err := s.sources.ListDue(ctx, now)
	if err != nil {
		s.logger.Error("failed to list due sources", "err", err)
		return
	}

	for _, source := range due {
		job, err := s.jobs.ClaimJob(ctx, source.Id)
		if err != nil {
			if errors.Is(err, storage.ErrJobActive) {
				continue
			}
			s.logger.Error("failed to claim job", "source", source.Name, "err", err)
			continue
		}

		source := source
		submitErr := s.pool.Submit(func() {
			if err := s.runner.Run(ctx, source, job); err != nil {
				s.logger.Error("dispatched job failed", "source", source.Name, "jobID", job.Id, "err", err)
			}
		})
		if submitErr != nil {
			// Pool is saturated or released; surrender the claim so the next
			// tick can retry.
			s.logger.Warn("failed to dispatch job", "source", source.Name, "err", submitErr)
			if err := s.jobs.FinishJob(ctx, job, core.JobStatusFailed, "dispatch failed: "+submitErr.Error()); err != nil {
				s.logger.Error("failed to release undispatched job", "jobID", job.Id, "err", err)
			}
		}
	}
}

// Stop halts the scheduling loop and waits for it to exit, then releases the
// worker pool. In-flight jobs observe the cancelled context.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	s.pool.Release()
}
