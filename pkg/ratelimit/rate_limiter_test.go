package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func TestSlidingWindowLimiter_Allow(t *testing.T) {
	// Arrange
	clock := &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	limiter := NewSlidingWindowLimiter(2, time.Minute, clock.Now)
	ctx := context.Background()

	// Act
	first, err := limiter.Allow(ctx, "s1")
	require.NoError(t, err)
	clock.Advance(10 * time.Second)
	second, _ := limiter.Allow(ctx, "s1")
	third, _ := limiter.Allow(ctx, "s1")
	other, _ := limiter.Allow(ctx, "s2")

	// Assert
	assert.True(t, first.Allowed)
	assert.Equal(t, 1, first.Remaining)
	assert.True(t, second.Allowed)
	assert.Equal(t, 0, second.Remaining)
	assert.False(t, third.Allowed)
	assert.Equal(t, 50*time.Second, third.RetryAfter)
	assert.True(t, other.Allowed, "keys are limited independently")
}

func TestSlidingWindowLimiter_WindowSlides(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	limiter := NewSlidingWindowLimiter(1, time.Minute, clock.Now)
	ctx := context.Background()

	d, _ := limiter.Allow(ctx, "k")
	require.True(t, d.Allowed)
	clock.Advance(59 * time.Second)
	d, _ = limiter.Allow(ctx, "k")
	assert.False(t, d.Allowed)

	clock.Advance(time.Second)
	d, _ = limiter.Allow(ctx, "k")
	assert.True(t, d.Allowed)
}

func TestSlidingWindowLimiter_ResetAndSweep(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	limiter := NewSlidingWindowLimiter(1, time.Minute, clock.Now)
	ctx := context.Background()

	_, _ = limiter.Allow(ctx, "a")
	_, _ = limiter.Allow(ctx, "b")
	require.NoError(t, limiter.Reset(ctx, "a"))
	d, _ := limiter.Allow(ctx, "a")
	assert.True(t, d.Allowed)

	clock.Advance(2 * time.Minute)
	assert.Equal(t, 2, limiter.Sweep())
}

func TestSlidingWindowLimiter_CancelledContext(t *testing.T) {
	limiter := NewSlidingWindowLimiter(1, time.Minute, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := limiter.Allow(ctx, "k")

	assert.ErrorIs(t, err, context.Canceled)
}
