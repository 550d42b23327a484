// Package jobs runs background work decoupled from the request path.
// Anchoring and notification dispatch are submitted here so alert creation
// returns as soon as the durable record is written.
package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/couchcryptid/climate-alert-service/internal/observability"
)

// Job is one unit of background work. Run returning an error triggers a
// retry with exponential backoff until maxAttempts is exhausted.
type Job struct {
	Name string
	Run  func(ctx context.Context) error
}

// Runner executes jobs on a bounded worker pool with per-job retry.
// Job failures are reported through logs and metrics only; nothing is
// returned to the submitter.
type Runner struct {
	logger      *slog.Logger
	metrics     *observability.Metrics
	slots       chan struct{}
	wg          sync.WaitGroup
	maxAttempts int
	baseBackoff time.Duration
	maxBackoff  time.Duration
}

// NewRunner creates a runner with the given worker limit and attempt cap.
func NewRunner(workers, maxAttempts int, logger *slog.Logger, metrics *observability.Metrics) *Runner {
	if workers < 1 {
		workers = 1
	}
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Runner{
		logger:      logger,
		metrics:     metrics,
		slots:       make(chan struct{}, workers),
		maxAttempts: maxAttempts,
		baseBackoff: 200 * time.Millisecond,
		maxBackoff:  5 * time.Second,
	}
}

// Submit schedules the job and returns immediately. The job stops early if
// ctx is cancelled between attempts or during backoff.
func (r *Runner) Submit(ctx context.Context, job Job) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		select {
		case r.slots <- struct{}{}:
			defer func() { <-r.slots }()
		case <-ctx.Done():
			r.logger.Warn("job abandoned before start", "job", job.Name, "reason", ctx.Err())
			return
		}

		r.run(ctx, job)
	}()
}

func (r *Runner) run(ctx context.Context, job Job) {
	backoff := r.baseBackoff
	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		err := job.Run(ctx)
		if err == nil {
			return
		}
		if ctx.Err() != nil {
			r.logger.Warn("job stopped by shutdown", "job", job.Name, "attempt", attempt)
			return
		}

		if attempt == r.maxAttempts {
			r.metrics.JobsExhausted.WithLabelValues(job.Name).Inc()
			r.logger.Error("job exhausted retries", "job", job.Name, "attempts", attempt, "error", err)
			return
		}

		r.metrics.JobRetries.WithLabelValues(job.Name).Inc()
		r.logger.Warn("job failed, retrying", "job", job.Name, "attempt", attempt, "backoff", backoff, "error", err)

		if !sleepWithContext(ctx, backoff) {
			return
		}
		backoff = nextBackoff(backoff, r.maxBackoff)
	}
}

// Wait blocks until every submitted job has finished or given up, bounded
// by the context deadline.
func (r *Runner) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
