// Package ratelimit implements the Rate Limiter (spec §4.3): an
// in-process, mutex-guarded token bucket gating how fast the Study
// Coordinator issues retrieval requests against the Image Store. It holds
// only integer counters and is explicitly not distributed — every worker
// process has its own bucket, matching the spec's "guarded by a mutex"
// wording rather than a shared external limiter.
package ratelimit

import "sync"

// Bucket is a token bucket with a fixed capacity and a runtime-adjustable
// refill rate, gating calls with a non-blocking TryTake.
type Bucket struct {
	mu         sync.Mutex
	capacity   int
	tokens     int
	refillRate int // tokens granted per Refill call
}

// NewBucket creates a Bucket starting full, with the given capacity and
// initial per-tick refill rate.
func NewBucket(capacity, refillRate int) *Bucket {
	return &Bucket{
		capacity:   capacity,
		tokens:     capacity,
		refillRate: refillRate,
	}
}

// TryTake attempts to consume one token, returning false without blocking
// if none are available.
func (b *Bucket) TryTake() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.tokens <= 0 {
		return false
	}
	b.tokens--
	return true
}

// Refill adds tokens up to capacity, intended to be called on a fixed
// tick (e.g. once a second) by the owning worker's main loop.
func (b *Bucket) Refill() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tokens += b.refillRate
	if b.tokens > b.capacity {
		b.tokens = b.capacity
	}
}

// SetRefillRate adjusts the refill rate at runtime, backing the Control
// API's token-bucket-refresh-rate endpoint (spec §4.8).
func (b *Bucket) SetRefillRate(rate int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refillRate = rate
}

// RefillRate returns the currently configured refill rate.
func (b *Bucket) RefillRate() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.refillRate
}

// Available reports the current token count, for observability.
func (b *Bucket) Available() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.tokens
}
