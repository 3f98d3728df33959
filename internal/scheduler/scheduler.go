// Package scheduler drives the ticker-based jobs that make up the live
// pipeline: polling upstream, flushing the buffer, running the sector
// engine, cleaning up stale occupancy, and completing sessions. Each job
// follows the teacher's ticker-loop idiom (internal/workers/meta_cache_worker.go)
// but is context-cancellation aware instead of running forever.
package scheduler

import (
	"context"
	"time"

	"github.com/infinite-experiment/vatwatch/internal/logging"
	"go.uber.org/zap"
)

// Job is one independently-scheduled unit of recurring work.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// Scheduler runs a fixed set of jobs, each on its own ticker, until the
// supplied context is canceled.
type Scheduler struct {
	jobs []Job
}

// New builds a Scheduler for the given jobs.
func New(jobs ...Job) *Scheduler {
	return &Scheduler{jobs: jobs}
}

// Start launches every job in its own goroutine and blocks until ctx is
// canceled, at which point all job goroutines have stopped.
func (s *Scheduler) Start(ctx context.Context) {
	done := make(chan struct{}, len(s.jobs))
	for _, job := range s.jobs {
		go func(j Job) {
			s.runJob(ctx, j)
			done <- struct{}{}
		}(job)
	}
	<-ctx.Done()
	for range s.jobs {
		<-done
	}
}

func (s *Scheduler) runJob(ctx context.Context, job Job) {
	log := logging.WithComponent(job.Name)
	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	s.tick(ctx, job, log)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx, job, log)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context, job Job, log *zap.SugaredLogger) {
	start := time.Now()
	if err := job.Run(ctx); err != nil {
		log.Errorw("job run failed", "error", err)
		return
	}
	log.Debugw("job run completed", "duration_ms", time.Since(start).Milliseconds())
}
