package llm

import (
	"context"
	"sync"
	"time"
)

const throttlePollInterval = 50 * time.Millisecond

// Throttle is a sliding-window admission gate pacing calls to a provider
// with strict upstream limits. Acquire blocks until both the trailing
// window has room and the in-flight count is below the concurrency ceiling.
type Throttle struct {
	mu            sync.Mutex
	window        time.Duration
	maxRequests   int
	maxConcurrent int
	active        int
	starts        []time.Time
	now           func() time.Time
}

// NewThrottle constructs a throttle admitting at most maxRequests call
// starts per trailing window and maxConcurrent calls in flight.
func NewThrottle(window time.Duration, maxRequests, maxConcurrent int) *Throttle {
	return &Throttle{
		window:        window,
		maxRequests:   maxRequests,
		maxConcurrent: maxConcurrent,
		now:           time.Now,
	}
}

// Acquire blocks until a slot is free or ctx is done. Every successful
// Acquire must be paired with exactly one Release, on error paths too.
func (t *Throttle) Acquire(ctx context.Context) error {
	for {
		if t.tryAdmit() {
			return nil
		}
		select {
		case <-time.After(throttlePollInterval):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Pace blocks until the trailing window has room for another call start and
// records it, without taking a concurrency slot. Retries reuse the slot
// taken by Acquire but still count against the window, one start per actual
// upstream dispatch.
func (t *Throttle) Pace(ctx context.Context) error {
	for {
		if t.tryRecordStart() {
			return nil
		}
		select {
		case <-time.After(throttlePollInterval):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Release frees the concurrency slot taken by Acquire.
func (t *Throttle) Release() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.active > 0 {
		t.active--
	}
}

func (t *Throttle) tryAdmit() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	t.pruneLocked(now)

	if len(t.starts) >= t.maxRequests || t.active >= t.maxConcurrent {
		return false
	}
	t.starts = append(t.starts, now)
	t.active++
	return true
}

func (t *Throttle) tryRecordStart() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	t.pruneLocked(now)

	if len(t.starts) >= t.maxRequests {
		return false
	}
	t.starts = append(t.starts, now)
	return true
}

// pruneLocked drops call starts older than the window. Caller holds the lock.
func (t *Throttle) pruneLocked(now time.Time) {
	cutoff := now.Add(-t.window)
	kept := t.starts[:0]
	for _, ts := range t.starts {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	t.starts = kept
}
