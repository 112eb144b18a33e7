package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobtrail-labs/jobtrail/internal/core/domain"
)

// fakeClock lets tests advance time manually.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLimiter(limits map[string]domain.ActionLimit) (*Limiter, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	l := New(limits)
	l.now = clock.Now
	return l, clock
}

func TestLimiter_Monotonicity(t *testing.T) {
	l, clock := newTestLimiter(nil)

	// gmail-scan allows 5 per 60s: the first five pass, the sixth is
	// rejected with a positive reset delay.
	for i := 0; i < 5; i++ {
		dec := l.Check("u1", domain.ActionGmailScan)
		require.True(t, dec.Allowed, "call %d", i+1)
		assert.Equal(t, 5, dec.Limit)
		assert.Equal(t, 4-i, dec.Remaining)
		clock.Advance(time.Second)
	}

	dec := l.Check("u1", domain.ActionGmailScan)
	assert.False(t, dec.Allowed)
	assert.Equal(t, 0, dec.Remaining)
	assert.Positive(t, dec.ResetIn)
	assert.LessOrEqual(t, dec.ResetIn, 60*time.Second)
}

func TestLimiter_Recovery(t *testing.T) {
	l, clock := newTestLimiter(nil)

	for i := 0; i < 5; i++ {
		require.True(t, l.Check("u1", domain.ActionGmailScan).Allowed)
	}
	dec := l.Check("u1", domain.ActionGmailScan)
	require.False(t, dec.Allowed)

	// Waiting out ResetIn recovers capacity; the rejected attempt was
	// never charged against the window.
	clock.Advance(dec.ResetIn + time.Millisecond)
	assert.True(t, l.Check("u1", domain.ActionGmailScan).Allowed)
}

func TestLimiter_SlidingWindow(t *testing.T) {
	l, clock := newTestLimiter(map[string]domain.ActionLimit{
		"burst": {Max: 2, Window: 10 * time.Second},
	})

	require.True(t, l.Check("u1", "burst").Allowed)
	clock.Advance(6 * time.Second)
	require.True(t, l.Check("u1", "burst").Allowed)

	// 8s in: the first timestamp is still inside the trailing window.
	clock.Advance(2 * time.Second)
	assert.False(t, l.Check("u1", "burst").Allowed)

	// 11s in: the first timestamp has slid out, the second remains.
	clock.Advance(3 * time.Second)
	dec := l.Check("u1", "burst")
	assert.True(t, dec.Allowed)
	assert.Equal(t, 0, dec.Remaining)
}

func TestLimiter_IndependentKeys(t *testing.T) {
	l, _ := newTestLimiter(nil)

	for i := 0; i < 5; i++ {
		require.True(t, l.Check("u1", domain.ActionGmailScan).Allowed)
	}
	require.False(t, l.Check("u1", domain.ActionGmailScan).Allowed)

	// Other users and other actions are unaffected.
	assert.True(t, l.Check("u2", domain.ActionGmailScan).Allowed)
	assert.True(t, l.Check("u1", "other-action").Allowed)
}

func TestLimiter_UnknownActionUsesDefault(t *testing.T) {
	l, _ := newTestLimiter(nil)

	dec := l.Check("u1", "never-configured")
	assert.True(t, dec.Allowed)
	assert.Equal(t, 100, dec.Limit)
}

func TestLimiter_Sweep(t *testing.T) {
	l, clock := newTestLimiter(nil)

	l.Check("u1", domain.ActionGmailScan)
	l.Check("u2", domain.ActionGmailScan)

	// Largest window is 60s; entries idle for more than 120s go.
	clock.Advance(121 * time.Second)
	l.Check("u2", domain.ActionGmailScan)

	removed := l.Sweep()
	assert.Equal(t, 1, removed)

	// u2 was active recently and survives.
	assert.Equal(t, 0, l.Sweep())
}

func TestLimiter_SetLimits(t *testing.T) {
	l, _ := newTestLimiter(nil)

	l.SetLimits(map[string]domain.ActionLimit{
		domain.ActionGmailScan: {Max: 1, Window: time.Minute},
	})

	require.True(t, l.Check("u1", domain.ActionGmailScan).Allowed)
	assert.False(t, l.Check("u1", domain.ActionGmailScan).Allowed)

	// Invalid entries are ignored, defaults remain.
	l.SetLimits(map[string]domain.ActionLimit{
		"broken": {Max: 0, Window: 0},
	})
	assert.Equal(t, 100, l.Check("u1", "broken").Limit)
}
