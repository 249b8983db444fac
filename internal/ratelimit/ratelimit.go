// Package ratelimit throttles sync traffic: a token bucket per connection for
// inbound messages and a keyed set of buckets for connection attempts.
package ratelimit

import (
	"sync"
	"time"
)

// Limiter is a token bucket refilled continuously at rate tokens per second.
type Limiter struct {
	rate       float64
	burst      int
	tokens     float64
	lastUpdate time.Time
	now        func() time.Time
	mu         sync.Mutex
}

func NewLimiter(rate float64, burst int) *Limiter {
	return newLimiterAt(rate, burst, time.Now)
}

func newLimiterAt(rate float64, burst int, now func() time.Time) *Limiter {
	return &Limiter{
		rate:       rate,
		burst:      burst,
		tokens:     float64(burst),
		lastUpdate: now(),
		now:        now,
	}
}

// Allow takes one token if available.
func (l *Limiter) Allow() bool {
	return l.AllowN(1)
}

// AllowN takes n tokens if all of them are available.
func (l *Limiter) AllowN(n int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	elapsed := now.Sub(l.lastUpdate).Seconds()
	l.lastUpdate = now

	l.tokens += elapsed * l.rate
	if l.tokens > float64(l.burst) {
		l.tokens = float64(l.burst)
	}

	if l.tokens >= float64(n) {
		l.tokens -= float64(n)
		return true
	}

	return false
}

// Verdict is what a Guard decides about one inbound message.
type Verdict int

const (
	Accept Verdict = iota
	Drop
	Disconnect
)

// Guard wraps a Limiter with a violation budget: messages over the rate are
// dropped until MaxViolations is exceeded, then the peer is disconnected.
type Guard struct {
	limiter       *Limiter
	maxViolations int
	violations    int
}

const DefaultMaxViolations = 1000

func NewGuard(rate float64, burst int) *Guard {
	return &Guard{limiter: NewLimiter(rate, burst), maxViolations: DefaultMaxViolations}
}

// Check is called once per inbound message from a single reader goroutine.
func (g *Guard) Check() Verdict {
	if g.limiter.Allow() {
		return Accept
	}
	g.violations++
	if g.violations > g.maxViolations {
		return Disconnect
	}
	return Drop
}

// Violations returns how many messages have been refused so far.
func (g *Guard) Violations() int {
	return g.violations
}

// KeyedLimiters hands out one Limiter per key, e.g. per remote address.
type KeyedLimiters struct {
	limiters        map[string]*Limiter
	rate            float64
	burst           int
	mu              sync.RWMutex
	cleanupInterval time.Duration
	maxKeys         int
	stop            chan struct{}
	stopOnce        sync.Once
}

func NewKeyedLimiters(rate float64, burst int) *KeyedLimiters {
	kl := &KeyedLimiters{
		limiters:        make(map[string]*Limiter),
		rate:            rate,
		burst:           burst,
		cleanupInterval: 5 * time.Minute,
		maxKeys:         10000,
		stop:            make(chan struct{}),
	}
	go kl.cleanup()
	return kl
}

// Allow takes a token from key's bucket.
func (kl *KeyedLimiters) Allow(key string) bool {
	return kl.Get(key).Allow()
}

func (kl *KeyedLimiters) Get(key string) *Limiter {
	kl.mu.RLock()
	limiter, ok := kl.limiters[key]
	kl.mu.RUnlock()

	if ok {
		return limiter
	}

	kl.mu.Lock()
	defer kl.mu.Unlock()

	if limiter, ok := kl.limiters[key]; ok {
		return limiter
	}

	limiter = NewLimiter(kl.rate, kl.burst)
	kl.limiters[key] = limiter
	return limiter
}

func (kl *KeyedLimiters) Remove(key string) {
	kl.mu.Lock()
	defer kl.mu.Unlock()
	delete(kl.limiters, key)
}

func (kl *KeyedLimiters) Len() int {
	kl.mu.RLock()
	defer kl.mu.RUnlock()
	return len(kl.limiters)
}

func (kl *KeyedLimiters) Stop() {
	kl.stopOnce.Do(func() { close(kl.stop) })
}

// cleanup drops every bucket once the key set grows past maxKeys; buckets
// refill to burst anyway, so forgetting one only forgives its debt.
func (kl *KeyedLimiters) cleanup() {
	ticker := time.NewTicker(kl.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-kl.stop:
			return
		case <-ticker.C:
			kl.mu.Lock()
			if len(kl.limiters) > kl.maxKeys {
				kl.limiters = make(map[string]*Limiter)
			}
			kl.mu.Unlock()
		}
	}
}
