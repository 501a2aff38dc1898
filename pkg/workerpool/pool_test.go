package workerpool_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shashiranjanraj/storeadmin/pkg/workerpool"
)

func TestPool_SubmitAndExecute(t *testing.T) {
	pool := workerpool.New(4)
	defer pool.Shutdown()

	const n = 100
	var count atomic.Int64

	var wg sync.WaitGroup
	wg.Add(n)

	for i := 0; i < n; i++ {
		err := pool.SubmitWait(context.Background(), func() {
			defer wg.Done()
			count.Add(1)
		})
		if err != nil {
			t.Fatalf("SubmitWait returned unexpected error: %v", err)
		}
	}

	wg.Wait()

	if got := count.Load(); got != n {
		t.Errorf("expected %d tasks to run, got %d", n, got)
	}
}

func TestPool_SubmitWaitHonoursContext(t *testing.T) {
	pool := workerpool.New(1)
	defer pool.Shutdown()

	blocker := make(chan struct{})
	started := make(chan struct{})

	_ = pool.SubmitWait(context.Background(), func() {
		close(started)
		<-blocker
	})
	<-started

	// Fill the 2-slot queue (buffer = 2× worker count = 2).
	_ = pool.SubmitWait(context.Background(), func() {})
	_ = pool.SubmitWait(context.Background(), func() {})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := pool.SubmitWait(ctx, func() {}); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected DeadlineExceeded, got %v", err)
	}

	close(blocker)
}

func TestPool_ErrPoolClosed(t *testing.T) {
	pool := workerpool.New(2)
	pool.Shutdown()

	if err := pool.SubmitWait(context.Background(), func() {}); !errors.Is(err, workerpool.ErrPoolClosed) {
		t.Errorf("expected ErrPoolClosed after Shutdown, got %v", err)
	}
	if errs := pool.RunAll(context.Background(), []workerpool.Task{
		func(context.Context) error { return nil },
	}); !errors.Is(errs[0], workerpool.ErrPoolClosed) {
		t.Errorf("expected RunAll to report ErrPoolClosed, got %v", errs[0])
	}
}

func TestPool_RunAllIndexAlignedResults(t *testing.T) {
	pool := workerpool.New(3)
	defer pool.Shutdown()

	boom := errors.New("boom")
	tasks := []workerpool.Task{
		func(context.Context) error { return nil },
		func(context.Context) error { return boom },
		func(context.Context) error { panic("bad write") },
		func(context.Context) error { time.Sleep(5 * time.Millisecond); return nil },
	}

	errs := pool.RunAll(context.Background(), tasks)
	if len(errs) != len(tasks) {
		t.Fatalf("expected %d results, got %d", len(tasks), len(errs))
	}
	if errs[0] != nil || errs[3] != nil {
		t.Errorf("expected successful tasks to report nil, got %v / %v", errs[0], errs[3])
	}
	if !errors.Is(errs[1], boom) {
		t.Errorf("expected boom, got %v", errs[1])
	}
	if errs[2] == nil {
		t.Error("expected panicking task to report an error")
	}
}

func TestPool_RunAllRunsConcurrently(t *testing.T) {
	pool := workerpool.New(4)
	defer pool.Shutdown()

	var inFlight, peak atomic.Int32
	task := func(context.Context) error {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		inFlight.Add(-1)
		return nil
	}

	pool.RunAll(context.Background(), []workerpool.Task{task, task, task, task})

	if peak.Load() < 2 {
		t.Errorf("expected tasks to overlap, peak concurrency was %d", peak.Load())
	}
}

func TestPool_Shutdown_NoGoroutineLeak(t *testing.T) {
	pool := workerpool.New(10)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		_ = pool.SubmitWait(context.Background(), func() {
			defer wg.Done()
			time.Sleep(1 * time.Millisecond)
		})
	}

	wg.Wait()
	pool.Shutdown()
}
