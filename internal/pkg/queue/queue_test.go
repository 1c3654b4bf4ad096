package queue

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestQueue_ProcessesJobs(t *testing.T) {
	q := NewQueue(discardLogger(), 2, 8)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q.Start(ctx)

	var done atomic.Int64
	for i := 0; i < 5; i++ {
		ok := q.Enqueue(func(ctx context.Context) error {
			done.Add(1)
			return nil
		})
		if !ok {
			t.Fatalf("enqueue rejected")
		}
	}

	deadline := time.After(2 * time.Second)
	for done.Load() < 5 {
		select {
		case <-deadline:
			t.Fatalf("jobs not processed in time, done=%d", done.Load())
		case <-time.After(10 * time.Millisecond):
		}
	}

	stats := q.Snapshot()
	if stats.TotalEnqueued != 5 || stats.TotalFailed != 0 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestQueue_DropsWhenFull(t *testing.T) {
	q := NewQueue(discardLogger(), 1, 1)
	// Workers not started, so the single slot fills immediately.
	if !q.Enqueue(func(ctx context.Context) error { return nil }) {
		t.Fatalf("first enqueue must succeed")
	}
	if q.Enqueue(func(ctx context.Context) error { return nil }) {
		t.Fatalf("second enqueue must be dropped")
	}
	if stats := q.Snapshot(); stats.TotalDropped != 1 {
		t.Fatalf("expected 1 dropped, got %+v", stats)
	}
}

func TestQueue_CountsFailures(t *testing.T) {
	q := NewQueue(discardLogger(), 1, 4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q.Start(ctx)

	q.Enqueue(func(ctx context.Context) error { return errors.New("boom") })

	deadline := time.After(2 * time.Second)
	for q.Snapshot().TotalProcessed < 1 {
		select {
		case <-deadline:
			t.Fatalf("job not processed in time")
		case <-time.After(10 * time.Millisecond):
		}
	}
	if stats := q.Snapshot(); stats.TotalFailed != 1 {
		t.Fatalf("expected 1 failure, got %+v", stats)
	}
}

func TestQueue_ShutdownRejectsNewJobs(t *testing.T) {
	q := NewQueue(discardLogger(), 1, 4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q.Start(ctx)

	q.Shutdown()
	if q.Enqueue(func(ctx context.Context) error { return nil }) {
		t.Fatalf("closed queue must reject jobs")
	}
}
