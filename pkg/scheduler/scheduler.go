// Package scheduler runs a job immediately and then at a fixed interval,
// never letting two runs overlap.
package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Job is one unit of scheduled work.
type Job func(ctx context.Context)

// Scheduler fires a job on a fixed interval with at most one run in flight.
type Scheduler struct {
	interval time.Duration
	job      Job

	// OnSkip is called for every tick dropped because the previous run had
	// not finished yet.
	OnSkip func(skipped int64)

	running atomic.Bool
	runs    atomic.Int64
	skipped atomic.Int64
	wg      sync.WaitGroup
}

// New creates a scheduler. interval must be positive.
func New(interval time.Duration, job Job) *Scheduler {
	return &Scheduler{interval: interval, job: job}
}

// Run fires the job once right away and then on every tick until ctx is
// cancelled. A tick that arrives while a run is in flight is skipped, not
// queued. Run returns after the in-flight run, if any, has finished.
func (s *Scheduler) Run(ctx context.Context) {
	defer s.wg.Wait()

	s.fire(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.fire(ctx)
		}
	}
}

// fire starts the job unless a run is already in flight.
func (s *Scheduler) fire(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if !s.running.CompareAndSwap(false, true) {
		n := s.skipped.Add(1)
		if s.OnSkip != nil {
			s.OnSkip(n)
		}
		return
	}

	s.runs.Add(1)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.running.Store(false)
		s.job(ctx)
	}()
}

// Runs returns how many times the job was started.
func (s *Scheduler) Runs() int64 {
	return s.runs.Load()
}

// Skipped returns how many ticks were dropped because a run was in flight.
func (s *Scheduler) Skipped() int64 {
	return s.skipped.Load()
}
