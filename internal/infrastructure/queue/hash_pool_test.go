package queue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// countingHasher records how many calls run at the same time.
type countingHasher struct {
	running atomic.Int32
	peak    atomic.Int32
	delay   time.Duration
	block   chan struct{}
}

func (h *countingHasher) enter() {
	n := h.running.Add(1)
	for {
		p := h.peak.Load()
		if n <= p || h.peak.CompareAndSwap(p, n) {
			break
		}
	}
	if h.block != nil {
		<-h.block
	}
	time.Sleep(h.delay)
	h.running.Add(-1)
}

func (h *countingHasher) Hash(_ context.Context, plaintext string) (string, error) {
	h.enter()
	return "digest:" + plaintext, nil
}

func (h *countingHasher) Verify(_ context.Context, plaintext, digest string) (bool, error) {
	h.enter()
	return digest == "digest:"+plaintext, nil
}

func TestHashPool_DelegatesAndObserves(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	seen := map[string]int{}
	pool := NewHashPool(2, &countingHasher{}, func(op string, _ time.Duration) {
		mu.Lock()
		seen[op]++
		mu.Unlock()
	}, zerolog.Nop())
	pool.Start(ctx)
	defer pool.Stop()

	d, err := pool.Hash(ctx, "pw")
	if err != nil || d != "digest:pw" {
		t.Fatalf("Hash() = %q, %v", d, err)
	}
	ok, err := pool.Verify(ctx, "pw", d)
	if err != nil || !ok {
		t.Fatalf("Verify() = %v, %v", ok, err)
	}

	mu.Lock()
	defer mu.Unlock()
	if seen[OpHash] != 1 || seen[OpVerify] != 1 {
		t.Fatalf("unexpected observations %v", seen)
	}
}

func TestHashPool_BoundsConcurrency(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := &countingHasher{delay: 5 * time.Millisecond}
	pool := NewHashPool(3, h, nil, zerolog.Nop())
	pool.Start(ctx)
	defer pool.Stop()

	var wg sync.WaitGroup
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := pool.Hash(ctx, "pw"); err != nil {
				t.Errorf("Hash: %v", err)
			}
		}()
	}
	wg.Wait()

	if peak := h.peak.Load(); peak > 3 {
		t.Fatalf("peak concurrency %d exceeds worker count", peak)
	}
}

func TestHashPool_CallerCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := &countingHasher{block: make(chan struct{})}
	pool := NewHashPool(1, h, nil, zerolog.Nop())
	pool.Start(ctx)
	defer pool.Stop()
	defer close(h.block)

	// Occupy the single worker.
	go func() { _, _ = pool.Hash(ctx, "busy") }()

	callCtx, callCancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer callCancel()

	if _, err := pool.Hash(callCtx, "pw"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestHashPool_Stopped(t *testing.T) {
	pool := NewHashPool(1, &countingHasher{}, nil, zerolog.Nop())
	pool.Start(context.Background())
	pool.Stop()

	if _, err := pool.Verify(context.Background(), "pw", "digest:pw"); !errors.Is(err, ErrPoolClosed) {
		t.Fatalf("expected ErrPoolClosed, got %v", err)
	}
}

func TestHashPool_StartContextCancelledDuringVerify(t *testing.T) {
	signalCtx, signal := context.WithCancel(context.Background())
	h := &countingHasher{delay: 100 * time.Millisecond}
	pool := NewHashPool(1, h, nil, zerolog.Nop())
	pool.Start(signalCtx)
	defer pool.Stop()

	go func() {
		time.Sleep(20 * time.Millisecond)
		signal()
	}()

	ok, err := pool.Verify(context.Background(), "pw", "digest:pw")
	if err != nil || !ok {
		t.Fatalf("in-flight Verify must complete after start ctx cancel, got %v, %v", ok, err)
	}
}

func TestHashPool_StopFinishesAcceptedJobs(t *testing.T) {
	h := &countingHasher{block: make(chan struct{})}
	pool := NewHashPool(1, h, nil, zerolog.Nop())
	pool.Start(context.Background())

	type outcome struct {
		digest string
		err    error
	}
	results := make(chan outcome, 2)
	for _, pw := range []string{"a", "b"} {
		pw := pw
		go func() {
			d, err := pool.Hash(context.Background(), pw)
			results <- outcome{d, err}
		}()
	}
	// Wait until the worker holds one job; the other is queued or about to be.
	for h.running.Load() == 0 {
		time.Sleep(time.Millisecond)
	}
	time.Sleep(10 * time.Millisecond)

	stopped := make(chan struct{})
	go func() {
		pool.Stop()
		close(stopped)
	}()
	close(h.block)

	for i := 0; i < 2; i++ {
		r := <-results
		if r.err != nil && !errors.Is(r.err, ErrPoolClosed) {
			t.Fatalf("unexpected error %v", r.err)
		}
		if r.err == nil && r.digest == "" {
			t.Fatalf("empty digest")
		}
	}
	<-stopped

	if _, err := pool.Hash(context.Background(), "late"); !errors.Is(err, ErrPoolClosed) {
		t.Fatalf("expected ErrPoolClosed after Stop, got %v", err)
	}
}
