package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestUploadLimiter_AcquireRelease(t *testing.T) {
	limiter := NewUploadLimiter(2, time.Second)
	ctx := context.Background()

	if got := limiter.Available(); got != 2 {
		t.Errorf("initial Available = %d, want 2", got)
	}

	if err := limiter.Acquire(ctx); err != nil {
		t.Fatalf("first Acquire failed: %v", err)
	}
	if err := limiter.Acquire(ctx); err != nil {
		t.Fatalf("second Acquire failed: %v", err)
	}
	if got := limiter.ActiveCount(); got != 2 {
		t.Errorf("ActiveCount = %d, want 2", got)
	}
	if got := limiter.Available(); got != 0 {
		t.Errorf("Available = %d, want 0", got)
	}

	limiter.Release()
	limiter.Release()

	if got := limiter.ActiveCount(); got != 0 {
		t.Errorf("final ActiveCount = %d, want 0", got)
	}
}

func TestUploadLimiter_TimesOutWhenFull(t *testing.T) {
	limiter := NewUploadLimiter(1, 100*time.Millisecond)
	ctx := context.Background()

	if err := limiter.Acquire(ctx); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	defer limiter.Release()

	start := time.Now()
	err := limiter.Acquire(ctx)
	elapsed := time.Since(start)

	if !errors.Is(err, ErrTooManyUploads) {
		t.Errorf("expected ErrTooManyUploads, got %v", err)
	}
	if elapsed < 90*time.Millisecond {
		t.Errorf("timeout too fast: %v", elapsed)
	}
}

func TestUploadLimiter_ConcurrentAccess(t *testing.T) {
	const maxConcurrent = 3
	limiter := NewUploadLimiter(maxConcurrent, time.Second)

	var wg sync.WaitGroup
	var mu sync.Mutex
	maxObserved := 0

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := limiter.Do(context.Background(), func() error {
				mu.Lock()
				if n := limiter.ActiveCount(); n > maxObserved {
					maxObserved = n
				}
				mu.Unlock()
				time.Sleep(10 * time.Millisecond)
				return nil
			})
			if err != nil {
				t.Errorf("Do failed: %v", err)
			}
		}()
	}
	wg.Wait()

	if maxObserved > maxConcurrent {
		t.Errorf("exceeded max concurrent: observed %d, max %d", maxObserved, maxConcurrent)
	}
	if got := limiter.ActiveCount(); got != 0 {
		t.Errorf("final ActiveCount = %d, want 0", got)
	}
}

func TestUploadLimiter_DoPropagatesError(t *testing.T) {
	limiter := NewUploadLimiter(1, time.Second)
	want := errors.New("decode failed")

	err := limiter.Do(context.Background(), func() error { return want })
	if !errors.Is(err, want) {
		t.Errorf("Do error = %v, want %v", err, want)
	}
	if got := limiter.ActiveCount(); got != 0 {
		t.Errorf("slot not released, ActiveCount = %d", got)
	}
}

func TestUploadLimiter_TryAcquire(t *testing.T) {
	limiter := NewUploadLimiter(1, time.Second)

	if !limiter.TryAcquire() {
		t.Fatal("first TryAcquire should succeed")
	}
	if limiter.TryAcquire() {
		t.Error("second TryAcquire should fail")
		limiter.Release()
	}

	limiter.Release()
	if !limiter.TryAcquire() {
		t.Error("TryAcquire after Release should succeed")
	}
	limiter.Release()
}

func TestUploadLimiter_ContextCancellation(t *testing.T) {
	limiter := NewUploadLimiter(1, 5*time.Second)

	if err := limiter.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	defer limiter.Release()

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- limiter.Acquire(ctx)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Error("Acquire did not return after context cancellation")
	}
}

func TestUploadLimiter_WaitForDrain(t *testing.T) {
	limiter := NewUploadLimiter(2, time.Second)
	ctx := context.Background()

	if err := limiter.Acquire(ctx); err != nil {
		t.Fatal(err)
	}

	drainDone := make(chan error, 1)
	go func() {
		drainDone <- limiter.WaitForDrain(context.Background())
	}()

	select {
	case <-drainDone:
		t.Fatal("WaitForDrain returned while a slot was held")
	case <-time.After(50 * time.Millisecond):
	}

	limiter.Release()

	select {
	case err := <-drainDone:
		if err != nil {
			t.Errorf("WaitForDrain returned error: %v", err)
		}
	case <-time.After(time.Second):
		t.Error("WaitForDrain did not complete after release")
	}
}

func TestUploadLimiter_Status(t *testing.T) {
	limiter := NewUploadLimiter(3, time.Second)

	if err := limiter.Acquire(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer limiter.Release()

	status := limiter.Status()
	if status.Active != 1 || status.Available != 2 || status.MaxConcurrent != 3 {
		t.Errorf("Status = %+v, want {1 2 3}", status)
	}
}

func TestUploadLimiter_DefaultValues(t *testing.T) {
	limiter := NewUploadLimiter(0, 0)

	if got := limiter.MaxConcurrent(); got != DefaultMaxConcurrentUploads {
		t.Errorf("MaxConcurrent = %d, want %d", got, DefaultMaxConcurrentUploads)
	}
}
