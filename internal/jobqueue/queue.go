package jobqueue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

const (
	retryDelayFloor = 250 * time.Millisecond
	retryDelayCap   = 30 * time.Second
)

// RetryPolicy bounds how often a failing job is re-run.
type RetryPolicy struct {
	MaxAttempts   int
	InitialDelay  time.Duration
	BackoffFactor float64
}

type job struct {
	id       string
	fn       func(context.Context) error
	policy   RetryPolicy
	attempts int
	delay    time.Duration
}

// Queue is a named, bounded-concurrency worker pool over an unbounded
// in-memory FIFO. Jobs are fire-and-forget: Enqueue returns
// synchronously and the eventual result is never surfaced beyond
// logging. A failed job is re-appended to the tail of the queue, so
// retries interleave with freshly enqueued work instead of blocking
// the head. Nothing survives a process restart.
type Queue struct {
	name        string
	concurrency int
	logger      *slog.Logger
	ctx         context.Context
	cancel      context.CancelFunc

	mu      sync.Mutex
	pending []*job
	running int
}

func New(name string, concurrency int, logger *slog.Logger) *Queue {
	if concurrency < 1 {
		concurrency = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Queue{
		name:        name,
		concurrency: concurrency,
		logger:      logger,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Stop cancels the queue context. In-flight jobs observe the
// cancellation through their context; queued jobs are dropped.
func (q *Queue) Stop() {
	q.cancel()
}

// Enqueue appends a job and schedules it if a worker slot is free.
func (q *Queue) Enqueue(id string, fn func(context.Context) error, policy RetryPolicy) {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	q.mu.Lock()
	q.pending = append(q.pending, &job{id: id, fn: fn, policy: policy})
	q.mu.Unlock()
	q.pump()
}

// Stats reports queued and executing job counts.
func (q *Queue) Stats() (pending, running int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending), q.running
}

func (q *Queue) pump() {
	q.mu.Lock()
	for q.running < q.concurrency && len(q.pending) > 0 {
		next := q.pending[0]
		q.pending = q.pending[1:]
		q.running++
		go q.run(next)
	}
	q.mu.Unlock()
}

func (q *Queue) run(j *job) {
	defer func() {
		q.mu.Lock()
		q.running--
		q.mu.Unlock()
		q.pump()
	}()

	if j.delay > 0 {
		select {
		case <-time.After(j.delay):
		case <-q.ctx.Done():
			return
		}
	}

	err := q.invoke(j)
	if err == nil {
		return
	}
	j.attempts++
	if j.attempts >= j.policy.MaxAttempts {
		q.logger.Error("job failed permanently",
			slog.String("queue", q.name),
			slog.String("job", j.id),
			slog.Int("attempts", j.attempts),
			slog.String("error", err.Error()))
		return
	}
	j.delay = nextDelay(j.delay, j.policy)
	q.logger.Warn("job failed, requeued",
		slog.String("queue", q.name),
		slog.String("job", j.id),
		slog.Int("attempts", j.attempts),
		slog.Duration("delay", j.delay),
		slog.String("error", err.Error()))
	q.mu.Lock()
	q.pending = append(q.pending, j)
	q.mu.Unlock()
}

func (q *Queue) invoke(j *job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()
	return j.fn(q.ctx)
}

func nextDelay(current time.Duration, policy RetryPolicy) time.Duration {
	next := current
	if policy.BackoffFactor > 0 {
		next = time.Duration(float64(current) * policy.BackoffFactor)
	}
	if next < policy.InitialDelay {
		next = policy.InitialDelay
	}
	if next < retryDelayFloor {
		next = retryDelayFloor
	}
	if next > retryDelayCap {
		next = retryDelayCap
	}
	return next
}
