// Package ratelimit limits how often a caller may hit expensive endpoints.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"jamflow/pkg/utils"
)

// Limiter decides whether a keyed request may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
	Reset(ctx context.Context, key string) error
}

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// SlidingWindowLimiter allows at most limit requests per key within any
// window-long interval.
type SlidingWindowLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
	limit   int
	size    time.Duration
	clock   utils.Clock
}

type window struct {
	mu       sync.Mutex
	requests []time.Time
}

// NewSlidingWindowLimiter creates a limiter. A nil clock uses wall time.
func NewSlidingWindowLimiter(limit int, size time.Duration, clock utils.Clock) *SlidingWindowLimiter {
	if clock == nil {
		clock = utils.SystemClock
	}
	return &SlidingWindowLimiter{
		windows: make(map[string]*window),
		limit:   limit,
		size:    size,
		clock:   clock,
	}
}

// Limit returns the number of requests allowed per window.
func (l *SlidingWindowLimiter) Limit() int { return l.limit }

// Window returns the window length.
func (l *SlidingWindowLimiter) Window() time.Duration { return l.size }

// Allow records a request for key if the window has room.
func (l *SlidingWindowLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	if err := ctx.Err(); err != nil {
		return Decision{}, err
	}

	l.mu.Lock()
	w, ok := l.windows[key]
	if !ok {
		w = &window{}
		l.windows[key] = w
	}
	l.mu.Unlock()

	w.mu.Lock()
	defer w.mu.Unlock()

	now := l.clock()
	w.prune(now.Add(-l.size))

	if len(w.requests) >= l.limit {
		return Decision{
			Allowed:    false,
			Limit:      l.limit,
			RetryAfter: w.requests[0].Add(l.size).Sub(now),
		}, nil
	}

	w.requests = append(w.requests, now)
	return Decision{
		Allowed:   true,
		Limit:     l.limit,
		Remaining: l.limit - len(w.requests),
	}, nil
}

// Reset forgets all requests recorded for key.
func (l *SlidingWindowLimiter) Reset(ctx context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.windows, key)
	return nil
}

// Sweep drops keys with no request inside the window.
func (l *SlidingWindowLimiter) Sweep() int {
	cutoff := l.clock().Add(-l.size)

	l.mu.Lock()
	defer l.mu.Unlock()
	removed := 0
	for key, w := range l.windows {
		w.mu.Lock()
		w.prune(cutoff)
		empty := len(w.requests) == 0
		w.mu.Unlock()
		if empty {
			delete(l.windows, key)
			removed++
		}
	}
	return removed
}

// RunSweeper calls Sweep every interval until ctx is done.
func (l *SlidingWindowLimiter) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Sweep()
		}
	}
}

func (w *window) prune(cutoff time.Time) {
	i := 0
	for i < len(w.requests) && !w.requests[i].After(cutoff) {
		i++
	}
	if i > 0 {
		w.requests = append(w.requests[:0], w.requests[i:]...)
	}
}
