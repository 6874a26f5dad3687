package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter defines the interface for request rate limiting
type Limiter interface {
	// Allow reports whether a request may proceed right now
	Allow() bool
	// Wait blocks until a request may proceed or ctx is done
	Wait(ctx context.Context) error
	// Reset clears the limiter state
	Reset()
}

// SlidingWindow allows at most maxRequests within any windowSize span
type SlidingWindow struct {
	windowSize  time.Duration
	maxRequests int
	requests    []time.Time
	mu          sync.Mutex
}

// NewSlidingWindow creates a new sliding window rate limiter
func NewSlidingWindow(maxRequests int, windowSize time.Duration) *SlidingWindow {
	return &SlidingWindow{
		windowSize:  windowSize,
		maxRequests: maxRequests,
		requests:    make([]time.Time, 0, maxRequests),
	}
}

// PerMinute returns a limiter for the given requests per minute, or nil when rpm is not positive
func PerMinute(rpm int) Limiter {
	if rpm <= 0 {
		return nil
	}
	return NewSlidingWindow(rpm, time.Minute)
}

// Allow checks if a request can proceed
func (sw *SlidingWindow) Allow() bool {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	now := time.Now()
	sw.cleanOldRequests(now)

	if len(sw.requests) < sw.maxRequests {
		sw.requests = append(sw.requests, now)
		return true
	}
	return false
}

// Wait blocks until the oldest request leaves the window
func (sw *SlidingWindow) Wait(ctx context.Context) error {
	for !sw.Allow() {
		sw.mu.Lock()
		wait := 10 * time.Millisecond
		if len(sw.requests) > 0 {
			if d := sw.windowSize - time.Since(sw.requests[0]); d > 0 {
				wait = d
			}
		}
		sw.mu.Unlock()

		if err := Sleep(ctx, wait); err != nil {
			return err
		}
	}
	return nil
}

// Reset clears all recorded requests
func (sw *SlidingWindow) Reset() {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	sw.requests = sw.requests[:0]
}

// cleanOldRequests removes requests outside the sliding window
func (sw *SlidingWindow) cleanOldRequests(now time.Time) {
	cutoff := now.Add(-sw.windowSize)

	i := 0
	for i < len(sw.requests) && !sw.requests[i].After(cutoff) {
		i++
	}
	if i > 0 {
		copy(sw.requests, sw.requests[i:])
		sw.requests = sw.requests[:len(sw.requests)-i]
	}
}

// Pacer inserts a fixed pause between emitted records
type Pacer struct {
	delay time.Duration
}

// NewPacer creates a pacer; a zero delay never blocks
func NewPacer(delay time.Duration) *Pacer {
	if delay < 0 {
		delay = 0
	}
	return &Pacer{delay: delay}
}

// Delay returns the configured pause
func (p *Pacer) Delay() time.Duration {
	return p.delay
}

// Pause sleeps for the configured delay or until ctx is done
func (p *Pacer) Pause(ctx context.Context) error {
	if p == nil || p.delay == 0 {
		return ctx.Err()
	}
	return Sleep(ctx, p.delay)
}

// Sleep waits for d, returning early with ctx.Err() on cancellation
func Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Interval enforces a minimum spacing between consecutive grants
type Interval struct {
	every time.Duration
	next  time.Time
	mu    sync.Mutex
}

// NewInterval creates a limiter granting at most one request per every
func NewInterval(every time.Duration) *Interval {
	return &Interval{every: every}
}

// Allow grants a request if the spacing has elapsed
func (iv *Interval) Allow() bool {
	iv.mu.Lock()
	defer iv.mu.Unlock()

	now := time.Now()
	if now.Before(iv.next) {
		return false
	}
	iv.next = now.Add(iv.every)
	return true
}

// Wait reserves the next slot and sleeps until it arrives
func (iv *Interval) Wait(ctx context.Context) error {
	iv.mu.Lock()
	now := time.Now()
	slot := iv.next
	if slot.Before(now) {
		slot = now
	}
	iv.next = slot.Add(iv.every)
	iv.mu.Unlock()

	if d := time.Until(slot); d > 0 {
		return Sleep(ctx, d)
	}
	return ctx.Err()
}

// Reset forgets any reserved slots
func (iv *Interval) Reset() {
	iv.mu.Lock()
	defer iv.mu.Unlock()
	iv.next = time.Time{}
}
