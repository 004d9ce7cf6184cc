// Package scheduler runs named jobs on fixed intervals, polling for due work
// on a short tick. Time comes from an injected clock so tests can drive it.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"SlinkyTA/pkg/logger"
)

// Job is a unit of recurring work.
type Job struct {
	Name     string
	Interval time.Duration
	// RunOnStart makes the first run due immediately instead of one interval after registration.
	RunOnStart bool
	Fn         func(ctx context.Context)
}

type entry struct {
	job  Job
	next time.Time
	last time.Time
	runs int
}

// Scheduler executes due jobs sequentially on the polling goroutine.
// A long job delays every job behind it.
type Scheduler struct {
	clk  clock.Clock
	poll time.Duration
	log  *logger.Logger

	mu   sync.Mutex
	jobs []*entry
}

// New creates a scheduler. A nil clock means wall-clock time.
func New(clk clock.Clock, poll time.Duration, log *logger.Logger) *Scheduler {
	if clk == nil {
		clk = clock.New()
	}
	if poll <= 0 {
		poll = 10 * time.Second
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Scheduler{clk: clk, poll: poll, log: log}
}

// Add registers a job.
func (s *Scheduler) Add(job Job) error {
	if job.Name == "" {
		return fmt.Errorf("job name is required")
	}
	if job.Interval <= 0 {
		return fmt.Errorf("job %s: interval must be positive", job.Name)
	}
	if job.Fn == nil {
		return fmt.Errorf("job %s: fn is required", job.Name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.jobs {
		if e.job.Name == job.Name {
			return fmt.Errorf("job %s already registered", job.Name)
		}
	}

	next := s.clk.Now().Add(job.Interval)
	if job.RunOnStart {
		next = s.clk.Now()
	}
	s.jobs = append(s.jobs, &entry{job: job, next: next})
	return nil
}

// NextRun reports when the named job is due next.
func (s *Scheduler) NextRun(name string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.jobs {
		if e.job.Name == name {
			return e.next, true
		}
	}
	return time.Time{}, false
}

// Runs returns how many times the named job has run.
func (s *Scheduler) Runs(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.jobs {
		if e.job.Name == name {
			return e.runs
		}
	}
	return 0
}

// RunPending runs every job that is due, in registration order, and returns how many ran.
func (s *Scheduler) RunPending(ctx context.Context) int {
	s.mu.Lock()
	now := s.clk.Now()
	due := make([]*entry, 0, len(s.jobs))
	for _, e := range s.jobs {
		if !now.Before(e.next) {
			due = append(due, e)
		}
	}
	s.mu.Unlock()

	ran := 0
	for _, e := range due {
		if ctx.Err() != nil {
			break
		}
		s.runJob(ctx, e)
		ran++
	}
	return ran
}

func (s *Scheduler) runJob(ctx context.Context, e *entry) {
	start := s.clk.Now()
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("scheduled job panicked",
				logger.String("job", e.job.Name),
				logger.Any("panic", r),
			)
		}
		done := s.clk.Now()
		s.mu.Lock()
		e.last = done
		e.next = done.Add(e.job.Interval)
		e.runs++
		s.mu.Unlock()
		s.log.Debug("scheduled job finished",
			logger.String("job", e.job.Name),
			logger.Duration("took", done.Sub(start)),
		)
	}()
	e.job.Fn(ctx)
}

// Run polls for due jobs until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := s.clk.Ticker(s.poll)
	defer ticker.Stop()

	s.mu.Lock()
	jobs := len(s.jobs)
	s.mu.Unlock()

	s.log.Info("scheduler started",
		logger.Int("jobs", jobs),
		logger.Duration("poll", s.poll),
	)
	s.RunPending(ctx)

	for {
		select {
		case <-ctx.Done():
			s.log.Info("scheduler stopped")
			return nil
		case <-ticker.C:
			s.RunPending(ctx)
		}
	}
}
