package ratelimit

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestLimiterBurstThenRefill(t *testing.T) {
	clock := &manualClock{now: time.Unix(0, 0)}
	l := newLimiterAt(10, 3, clock.Now)

	assert.True(t, l.Allow())
	assert.True(t, l.Allow())
	assert.True(t, l.Allow())
	assert.False(t, l.Allow(), "burst exhausted")

	clock.Advance(100 * time.Millisecond)
	assert.True(t, l.Allow(), "one token refilled after 100ms at 10/s")
	assert.False(t, l.Allow())

	clock.Advance(time.Hour)
	assert.True(t, l.AllowN(3))
	assert.False(t, l.AllowN(1), "refill is capped at burst")
}

func TestGuardEscalates(t *testing.T) {
	clock := &manualClock{now: time.Unix(0, 0)}
	g := &Guard{limiter: newLimiterAt(1, 1, clock.Now), maxViolations: 2}

	assert.Equal(t, Accept, g.Check())
	assert.Equal(t, Drop, g.Check())
	assert.Equal(t, Drop, g.Check())
	assert.Equal(t, Disconnect, g.Check())
	assert.Equal(t, 3, g.Violations())
}

func TestKeyedLimiters(t *testing.T) {
	kl := NewKeyedLimiters(0.001, 2)
	defer kl.Stop()

	assert.True(t, kl.Allow("10.0.0.1"))
	assert.True(t, kl.Allow("10.0.0.1"))
	assert.False(t, kl.Allow("10.0.0.1"))
	assert.True(t, kl.Allow("10.0.0.2"), "keys have independent buckets")
	assert.Same(t, kl.Get("10.0.0.2"), kl.Get("10.0.0.2"))
	assert.Equal(t, 2, kl.Len())

	kl.Remove("10.0.0.1")
	assert.True(t, kl.Allow("10.0.0.1"), "removed key starts with a full bucket")

	kl.Stop()
	kl.Stop()
}
