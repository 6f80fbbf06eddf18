package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func TestKeyedRateLimiter_Allow(t *testing.T) {
	tests := []struct {
		name     string
		rps      float64
		burst    int
		calls    int
		wantPass int
	}{
		{name: "burst allows initial requests", rps: 1, burst: 3, calls: 3, wantPass: 3},
		{name: "exceeding burst blocks", rps: 1, burst: 2, calls: 5, wantPass: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
			rl := newLimiter(tt.rps, tt.burst, time.Minute, clock.now, false)

			passed := 0
			for range tt.calls {
				if rl.Allow("client") {
					passed++
				}
			}
			assert.Equal(t, tt.wantPass, passed)
		})
	}
}

func TestKeyedRateLimiter_KeysAreIndependent(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	rl := newLimiter(1, 1, time.Minute, clock.now, false)

	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))
	assert.True(t, rl.Allow("b"))
	assert.Equal(t, 2, rl.Len())
}

func TestKeyedRateLimiter_Refills(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	rl := newLimiter(2, 1, time.Minute, clock.now, false)

	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))
	assert.InDelta(t, 500*time.Millisecond, rl.RetryAfter("a"), float64(time.Millisecond))

	clock.t = clock.t.Add(500 * time.Millisecond)
	assert.True(t, rl.Allow("a"))
}

func TestKeyedRateLimiter_RetryAfterUnknownKey(t *testing.T) {
	rl := newLimiter(1, 1, time.Minute, time.Now, false)
	assert.Zero(t, rl.RetryAfter("nobody"))
}

func TestKeyedRateLimiter_EvictsIdleKeys(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	rl := newLimiter(1, 1, time.Minute, clock.now, false)

	rl.Allow("old")
	clock.t = clock.t.Add(45 * time.Second)
	rl.Allow("fresh")
	clock.t = clock.t.Add(30 * time.Second)

	assert.Equal(t, 1, rl.evictIdle())
	assert.Equal(t, 1, rl.Len())
}

func TestKeyedRateLimiter_StopIsIdempotent(t *testing.T) {
	rl := New(1, 1)
	rl.Stop()
	assert.NotPanics(t, rl.Stop)
}
