package ratelimit_test

import (
	"context"
	"testing"
	"time"

	"hoa-advisor-go/pkg/ratelimit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func TestMemoryLimiter_FixedWindow(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	l := ratelimit.NewMemoryLimiter().WithClock(clock.Now)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		res, err := l.Allow(ctx, "analyze:1.2.3.4", 3, time.Hour)
		require.NoError(t, err)
		assert.True(t, res.Allowed, "request %d should pass", i+1)
	}

	clock.Advance(20 * time.Minute)
	res, err := l.Allow(ctx, "analyze:1.2.3.4", 3, time.Hour)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 40*60, res.RetryAfter)

	// other keys are independent
	res, _ = l.Allow(ctx, "analyze:5.6.7.8", 3, time.Hour)
	assert.True(t, res.Allowed)

	// a new window starts once the old one has passed
	clock.Advance(40*time.Minute + time.Second)
	res, _ = l.Allow(ctx, "analyze:1.2.3.4", 3, time.Hour)
	assert.True(t, res.Allowed)
}

func TestMemoryLimiter_RetryAfterRoundsUp(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	l := ratelimit.NewMemoryLimiter().WithClock(clock.Now)
	ctx := context.Background()

	_, _ = l.Allow(ctx, "k", 1, 10*time.Second)
	clock.Advance(8*time.Second + 500*time.Millisecond)

	res, _ := l.Allow(ctx, "k", 1, 10*time.Second)
	assert.False(t, res.Allowed)
	assert.Equal(t, 2, res.RetryAfter)
}

func TestMemoryLimiter_Prune(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	l := ratelimit.NewMemoryLimiter().WithClock(clock.Now)
	ctx := context.Background()

	_, _ = l.Allow(ctx, "short", 5, time.Minute)
	_, _ = l.Allow(ctx, "long", 5, time.Hour)
	require.Equal(t, 2, l.Len())

	clock.Advance(2 * time.Minute)
	assert.Equal(t, 1, l.Prune())
	assert.Equal(t, 1, l.Len())
}

func TestMemoryLimiter_PrunerStopsWithContext(t *testing.T) {
	l := ratelimit.NewMemoryLimiter()
	ctx, cancel := context.WithCancel(context.Background())
	done := l.StartPruner(ctx, time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("pruner did not stop")
	}
}
