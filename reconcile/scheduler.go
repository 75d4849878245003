package reconcile

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// Job names used by the service wiring and the HTTP trigger surface.
const (
	JobVerifyDeposits     = "verify-deposits"
	JobProcessWithdrawals = "process-withdrawals"
)

// RunFunc executes one reconciliation pass and reports its summary.
type RunFunc func(ctx context.Context) (Summary, error)

type job struct {
	name     string
	interval time.Duration
	run      RunFunc
	mu       sync.Mutex // held for the duration of a pass
}

// Scheduler triggers reconciliation passes on a fixed interval or on an
// explicit external call. Each job carries its own guard so two passes of the
// same job type never execute concurrently, regardless of trigger source.
type Scheduler struct {
	mu     sync.RWMutex
	jobs   map[string]*job
	wg     sync.WaitGroup
	logger *slog.Logger
}

func NewScheduler(logger *slog.Logger) *Scheduler {
	return &Scheduler{
		jobs:   make(map[string]*job),
		logger: logger,
	}
}

// Register adds a named job. An interval of zero means the job only runs when
// explicitly triggered.
func (s *Scheduler) Register(name string, interval time.Duration, run RunFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[name] = &job{name: name, interval: interval, run: run}
}

// Trigger runs one pass of the named job synchronously. It returns
// ErrPassInProgress without running anything if a pass of the same job is
// already executing, and ErrUnknownJob for unregistered names.
func (s *Scheduler) Trigger(ctx context.Context, name string) (Summary, error) {
	s.mu.RLock()
	j, ok := s.jobs[name]
	s.mu.RUnlock()
	if !ok {
		return Summary{}, ErrUnknownJob
	}

	if !j.mu.TryLock() {
		return Summary{}, ErrPassInProgress
	}
	defer j.mu.Unlock()

	return j.run(ctx)
}

// Start launches the interval loops. It returns immediately; loops stop when
// ctx is cancelled. Use Wait to block until they have drained.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, j := range s.jobs {
		if j.interval <= 0 {
			continue
		}
		j := j
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.loop(ctx, j)
		}()
	}
}

// Wait blocks until all interval loops have exited.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) loop(ctx context.Context, j *job) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	s.logger.Info("scheduler loop started", "job", j.name, "interval", j.interval)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler loop stopped", "job", j.name)
			return
		case <-ticker.C:
			_, err := s.Trigger(ctx, j.name)
			switch {
			case errors.Is(err, ErrPassInProgress):
				// Previous pass still running; skip this tick rather than
				// queueing up overlapping work.
				s.logger.Warn("pass still running, tick skipped", "job", j.name)
			case err != nil:
				// Pass-level failure is an operator signal, not a crash.
				s.logger.Error("pass failed", "job", j.name, "error", err)
			}
		}
	}
}
