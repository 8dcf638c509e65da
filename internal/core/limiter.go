package core

// limiter.go bounds the number of files decoded at once. Decoding a large
// spreadsheet holds the whole workbook in memory, so uploads beyond the
// limit wait up to maxWait for a slot and then fail with ErrTooManyUploads.

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
)

// ErrTooManyUploads is returned when no decode slot frees up in time.
var ErrTooManyUploads = errors.New("too many uploads in progress, please try again later")

// DefaultMaxConcurrentUploads is the default limit for parallel decodes.
const DefaultMaxConcurrentUploads = 5

// DefaultMaxWaitTime is how long to wait for a slot before rejecting.
const DefaultMaxWaitTime = 30 * time.Second

// UploadLimiter is a counting semaphore over file decodes.
type UploadLimiter struct {
	sem     *semaphore.Weighted
	max     int
	maxWait time.Duration
	active  atomic.Int64
}

// NewUploadLimiter allows at most maxConcurrent decodes at once.
// Non-positive arguments fall back to the defaults.
func NewUploadLimiter(maxConcurrent int, maxWait time.Duration) *UploadLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentUploads
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWaitTime
	}
	return &UploadLimiter{
		sem:     semaphore.NewWeighted(int64(maxConcurrent)),
		max:     maxConcurrent,
		maxWait: maxWait,
	}
}

// Acquire waits for a slot. It returns ctx.Err() when ctx ends first and
// ErrTooManyUploads when maxWait elapses. Every successful Acquire must be
// paired with Release.
func (l *UploadLimiter) Acquire(ctx context.Context) error {
	waitCtx, cancel := context.WithTimeout(ctx, l.maxWait)
	defer cancel()

	if err := l.sem.Acquire(waitCtx, 1); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrTooManyUploads
	}
	l.active.Add(1)
	return nil
}

// TryAcquire takes a slot only if one is free.
func (l *UploadLimiter) TryAcquire() bool {
	if !l.sem.TryAcquire(1) {
		return false
	}
	l.active.Add(1)
	return true
}

// Release returns a slot taken by Acquire or TryAcquire.
func (l *UploadLimiter) Release() {
	l.active.Add(-1)
	l.sem.Release(1)
}

// Do runs fn while holding a slot.
func (l *UploadLimiter) Do(ctx context.Context, fn func() error) error {
	if err := l.Acquire(ctx); err != nil {
		return err
	}
	defer l.Release()
	return fn()
}

// ActiveCount returns the number of slots in use.
func (l *UploadLimiter) ActiveCount() int {
	return int(l.active.Load())
}

// MaxConcurrent returns the slot count.
func (l *UploadLimiter) MaxConcurrent() int {
	return l.max
}

// Available returns the number of free slots.
func (l *UploadLimiter) Available() int {
	return l.max - l.ActiveCount()
}

// WaitForDrain blocks until no decode is running or ctx ends.
func (l *UploadLimiter) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		if l.ActiveCount() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// UploadLimiterStatus is a snapshot of the limiter for health output.
type UploadLimiterStatus struct {
	Active        int `json:"active"`
	Available     int `json:"available"`
	MaxConcurrent int `json:"max_concurrent"`
}

// Status returns the current limiter state.
func (l *UploadLimiter) Status() UploadLimiterStatus {
	active := l.ActiveCount()
	return UploadLimiterStatus{
		Active:        active,
		Available:     l.max - active,
		MaxConcurrent: l.max,
	}
}
