package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestNewPool(t *testing.T) {
	p1 := NewPool(5, 0)
	if p1.workers != 5 {
		t.Errorf("expected 5 workers, got %d", p1.workers)
	}
	if cap(p1.jobQueue) != 10 {
		t.Errorf("expected default queue of 10, got %d", cap(p1.jobQueue))
	}

	p2 := NewPool(0, 3)
	if p2.workers != 1 {
		t.Errorf("expected default 1 worker for 0 input, got %d", p2.workers)
	}
}

func TestPool_RunsSubmittedJobs(t *testing.T) {
	p := NewPool(3, 10)
	p.Start()

	var executed int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		err := p.Submit(func(ctx context.Context) {
			defer wg.Done()
			atomic.AddInt32(&executed, 1)
		})
		if err != nil {
			t.Fatalf("Submit failed: %v", err)
		}
	}
	wg.Wait()

	if err := p.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
	if got := atomic.LoadInt32(&executed); got != 10 {
		t.Errorf("expected 10 executions, got %d", got)
	}
}

func TestPool_QueueFull(t *testing.T) {
	p := NewPool(1, 1)
	// Not started, so the single slot stays occupied
	if err := p.Submit(func(context.Context) {}); err != nil {
		t.Fatalf("first submit failed: %v", err)
	}
	if err := p.Submit(func(context.Context) {}); !errors.Is(err, ErrQueueFull) {
		t.Errorf("expected ErrQueueFull, got %v", err)
	}
}

func TestPool_SubmitAfterShutdown(t *testing.T) {
	p := NewPool(1, 1)
	p.Start()
	if err := p.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
	if err := p.Submit(func(context.Context) {}); !errors.Is(err, ErrPoolClosed) {
		t.Errorf("expected ErrPoolClosed, got %v", err)
	}
	// Second shutdown is safe
	if err := p.Shutdown(context.Background()); err != nil {
		t.Errorf("second Shutdown failed: %v", err)
	}
}

func TestPool_ShutdownDrainsQueue(t *testing.T) {
	p := NewPool(1, 5)

	var executed int32
	for i := 0; i < 5; i++ {
		if err := p.Submit(func(context.Context) {
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&executed, 1)
		}); err != nil {
			t.Fatalf("Submit failed: %v", err)
		}
	}
	p.Start()

	if err := p.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
	if got := atomic.LoadInt32(&executed); got != 5 {
		t.Errorf("expected queued jobs to drain, got %d", got)
	}
}

func TestPool_ShutdownTimeoutCancelsJobs(t *testing.T) {
	p := NewPool(1, 1)
	p.Start()

	started := make(chan struct{})
	if err := p.Submit(func(ctx context.Context) {
		close(started)
		<-ctx.Done()
	}); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := p.Shutdown(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}

func TestPool_RecoversFromPanic(t *testing.T) {
	p := NewPool(1, 2)
	p.Start()

	done := make(chan struct{})
	_ = p.Submit(func(context.Context) { panic("boom") })
	_ = p.Submit(func(context.Context) { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not survive a panicking job")
	}
	_ = p.Shutdown(context.Background())
}
