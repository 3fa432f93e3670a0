package jobqueue

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func waitIdle(t *testing.T, q *Queue) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		pending, running := q.Stats()
		if pending == 0 && running == 0 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("queue did not drain")
}

func TestEnqueueRunsJob(t *testing.T) {
	q := New("test", 1, testLogger())
	defer q.Stop()
	var calls atomic.Int32
	q.Enqueue("job-1", func(ctx context.Context) error {
		calls.Add(1)
		return nil
	}, RetryPolicy{MaxAttempts: 3})
	waitIdle(t, q)
	if calls.Load() != 1 {
		t.Fatalf("expected 1 call, got %d", calls.Load())
	}
}

func TestFailingJobRetriedUpToMaxAttempts(t *testing.T) {
	q := New("test", 1, testLogger())
	defer q.Stop()
	var calls atomic.Int32
	q.Enqueue("job-1", func(ctx context.Context) error {
		calls.Add(1)
		return errors.New("boom")
	}, RetryPolicy{MaxAttempts: 3, InitialDelay: time.Millisecond, BackoffFactor: 2})
	waitIdle(t, q)
	if calls.Load() != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls.Load())
	}
}

func TestRetriedJobRequeuedAtTail(t *testing.T) {
	q := New("test", 1, testLogger())
	defer q.Stop()
	var mu sync.Mutex
	var order []string
	record := func(name string) {
		mu.Lock()
		order = append(order, name)
		mu.Unlock()
	}
	first := true
	q.Enqueue("a", func(ctx context.Context) error {
		if first {
			first = false
			record("a-fail")
			return errors.New("boom")
		}
		record("a-retry")
		return nil
	}, RetryPolicy{MaxAttempts: 2, InitialDelay: time.Millisecond, BackoffFactor: 2})
	q.Enqueue("b", func(ctx context.Context) error {
		record("b")
		return nil
	}, RetryPolicy{MaxAttempts: 1})
	waitIdle(t, q)
	mu.Lock()
	defer mu.Unlock()
	if len(order) != 3 || order[0] != "a-fail" || order[1] != "b" || order[2] != "a-retry" {
		t.Fatalf("unexpected order %v", order)
	}
}

func TestConcurrencyBound(t *testing.T) {
	q := New("test", 2, testLogger())
	defer q.Stop()
	var active, peak atomic.Int32
	for i := 0; i < 6; i++ {
		q.Enqueue("job", func(ctx context.Context) error {
			n := active.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(20 * time.Millisecond)
			active.Add(-1)
			return nil
		}, RetryPolicy{MaxAttempts: 1})
	}
	waitIdle(t, q)
	if peak.Load() > 2 {
		t.Fatalf("concurrency exceeded: %d", peak.Load())
	}
}

func TestPanickingJobCountsAsFailure(t *testing.T) {
	q := New("test", 1, testLogger())
	defer q.Stop()
	var calls atomic.Int32
	q.Enqueue("job-1", func(ctx context.Context) error {
		calls.Add(1)
		panic("boom")
	}, RetryPolicy{MaxAttempts: 2, InitialDelay: time.Millisecond})
	waitIdle(t, q)
	if calls.Load() != 2 {
		t.Fatalf("expected 2 attempts, got %d", calls.Load())
	}
}
