// Package task runs non-critical side work (file unlinking, featured
// recomputes, avatar cleanup) detached from the request that spawned
// it. Failures are logged and swallowed; the primary operation's
// success never depends on them.
package task

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

type job struct {
	name string
	fn   func(context.Context) error
}

// Runner is a bounded fire-and-forget executor. Submit never blocks
// the caller beyond the queue capacity; each job runs under its own
// timeout.
type Runner struct {
	jobs    chan job
	timeout time.Duration
	log     *zap.Logger
	wg      sync.WaitGroup
}

// NewRunner starts workers draining a queue of the given capacity.
func NewRunner(workers, capacity int, timeout time.Duration, log *zap.Logger) *Runner {
	if workers <= 0 {
		workers = 4
	}
	if capacity <= 0 {
		capacity = 256
	}
	r := &Runner{
		jobs:    make(chan job, capacity),
		timeout: timeout,
		log:     log,
	}
	r.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go r.worker()
	}
	return r
}

// Submit enqueues a job. A full queue drops the job with a log line
// rather than applying backpressure to the request path.
func (r *Runner) Submit(name string, fn func(context.Context) error) {
	select {
	case r.jobs <- job{name: name, fn: fn}:
	default:
		r.log.Warn("task queue full, dropping job", zap.String("task", name))
	}
}

// Close stops the workers after the queue drains.
func (r *Runner) Close() {
	close(r.jobs)
	r.wg.Wait()
}

func (r *Runner) worker() {
	defer r.wg.Done()
	for j := range r.jobs {
		r.run(j)
	}
}

func (r *Runner) run(j job) {
	ctx := context.Background()
	cancel := func() {}
	if r.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
	}
	defer cancel()

	start := time.Now()
	if err := j.fn(ctx); err != nil {
		r.log.Warn("best-effort task failed",
			zap.String("task", j.name),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return
	}
	r.log.Debug("task completed",
		zap.String("task", j.name),
		zap.Duration("elapsed", time.Since(start)))
}
