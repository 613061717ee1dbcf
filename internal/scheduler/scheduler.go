// Package scheduler runs periodic jobs aligned to wall-clock boundaries.
// Every run recomputes its next deadline from the clock, so a slow run or
// a suspended host never causes drift.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tanjiaxian99/nusfitness-api/internal/metrics"
)

// Job is one periodic task.  Next returns the first deadline strictly after
// now.
type Job struct {
	Name    string
	Next    func(now time.Time) time.Time
	Run     func(ctx context.Context) error
	Timeout time.Duration
}

type Scheduler struct {
	jobs    []Job
	log     zerolog.Logger
	metrics metrics.Recorder
	now     func() time.Time
	wg      sync.WaitGroup
}

func New(log zerolog.Logger, m metrics.Recorder, jobs ...Job) *Scheduler {
	return &Scheduler{
		jobs:    jobs,
		log:     log.With().Str("component", "scheduler").Logger(),
		metrics: m,
		now:     time.Now,
	}
}

// Start launches one goroutine per job.  They stop when ctx is cancelled;
// use Wait to block until they have.
func (s *Scheduler) Start(ctx context.Context) {
	for _, j := range s.jobs {
		s.wg.Add(1)
		go func(j Job) {
			defer s.wg.Done()
			s.loop(ctx, j)
		}(j)
	}
}

// Wait blocks until every job goroutine has returned.
func (s *Scheduler) Wait() { s.wg.Wait() }

func (s *Scheduler) loop(ctx context.Context, j Job) {
	for {
		next := j.Next(s.now())
		wait := time.Until(next)
		s.log.Debug().Str("job", j.Name).Time("next", next).Msg("scheduled")

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return
		case <-t.C:
		}
		s.runOnce(ctx, j)
	}
}

func (s *Scheduler) runOnce(ctx context.Context, j Job) {
	runCtx := ctx
	if j.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, j.Timeout)
		defer cancel()
	}
	start := time.Now()
	if err := j.Run(runCtx); err != nil {
		s.metrics.IncJobRuns(j.Name, "error")
		s.log.Error().Err(err).Str("job", j.Name).Dur("took", time.Since(start)).Msg("job failed")
		return
	}
	s.metrics.IncJobRuns(j.Name, "ok")
	s.log.Info().Str("job", j.Name).Dur("took", time.Since(start)).Msg("job done")
}

// NextMidnight returns the first local midnight after now.
func NextMidnight(loc *time.Location) func(time.Time) time.Time {
	return func(now time.Time) time.Time {
		n := now.In(loc)
		return time.Date(n.Year(), n.Month(), n.Day()+1, 0, 0, 0, 0, loc)
	}
}

// NextBoundary returns the first multiple of every (counted from local
// midnight) after now.  every must divide a day.
func NextBoundary(every time.Duration, loc *time.Location) func(time.Time) time.Time {
	return func(now time.Time) time.Time {
		n := now.In(loc)
		midnight := time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, loc)
		elapsed := n.Sub(midnight)
		return midnight.Add((elapsed/every + 1) * every)
	}
}
