// Package ratelimit implements the token-bucket rate-limit middleware
// named as a built-in ("rate_limit") in the middleware factory.
//
// The refill-on-read algorithm and mutex-guarded storage (a plain map of
// buckets under one mutex, each bucket with its own mutex) follow the TokenBucket/InMemoryRateLimiter shape of
// internal/interface/http/middleware/ratelimit.go, generalized to the
// four key-derivation strategies, whitelist/blacklist rules, and the
// X-RateLimit-* response contract this framework implements.
package ratelimit

import (
	"math"
	"sync"
	"time"
)

// Window names the refill-window unit a bucket config is expressed in.
type Window string

const (
	WindowSecond Window = "second"
	WindowMinute Window = "minute"
	WindowHour   Window = "hour"
	WindowDay    Window = "day"
)

// Seconds returns the window's length in seconds.
func (w Window) Seconds() float64 {
	switch w {
	case WindowMinute:
		return 60
	case WindowHour:
		return 3600
	case WindowDay:
		return 86400
	default:
		return 1
	}
}

// BucketConfig describes one token bucket's refill behavior.
type BucketConfig struct {
	MaxTokens    float64
	RefillRate   float64
	RefillWindow Window
	BurstAllowed bool
	BurstSize    float64
}

func (c BucketConfig) capacity() float64 {
	if c.BurstAllowed && c.BurstSize > c.MaxTokens {
		return c.BurstSize
	}
	return c.MaxTokens
}

// BucketState is the persisted state of one token bucket, the unit the
// RemoteBackend contract exchanges.
type BucketState struct {
	Tokens     float64
	LastRefill time.Time
}

// TokenBucket is a single mutex-guarded bucket: refill and consumption
// happen atomically under the same lock, per the framework's locking
// discipline for shared rate-limit state.
type TokenBucket struct {
	mu    sync.Mutex
	cfg   BucketConfig
	state BucketState
}

// NewTokenBucket creates a bucket starting full (tokens = capacity).
func NewTokenBucket(cfg BucketConfig) *TokenBucket {
	return &TokenBucket{
		cfg:   cfg,
		state: BucketState{Tokens: cfg.capacity(), LastRefill: time.Now()},
	}
}

// NewTokenBucketFromState restores a bucket from previously persisted
// state, e.g. one round-tripped through a RemoteBackend.
func NewTokenBucketFromState(cfg BucketConfig, state BucketState) *TokenBucket {
	return &TokenBucket{cfg: cfg, state: state}
}

func (b *TokenBucket) refillLocked(now time.Time) {
	elapsed := now.Sub(b.state.LastRefill).Seconds()
	if elapsed <= 0 {
		return
	}
	windowSeconds := b.cfg.RefillWindow.Seconds()
	added := math.Floor(b.cfg.RefillRate * elapsed / windowSeconds)
	if added <= 0 {
		return
	}
	b.state.Tokens = math.Min(b.cfg.capacity(), b.state.Tokens+added)
	b.state.LastRefill = now
}

// Consume refills the bucket, then attempts to take one token. It
// reports whether the request is allowed and the state after the
// attempt (for headers and for persisting to a RemoteBackend).
func (b *TokenBucket) Consume() (allowed bool, state BucketState) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refillLocked(time.Now())
	if b.state.Tokens >= 1 {
		b.state.Tokens--
		return true, b.state
	}
	return false, b.state
}

// Snapshot refills and returns the current state without consuming.
func (b *TokenBucket) Snapshot() BucketState {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refillLocked(time.Now())
	return b.state
}

// RetryAfterSeconds computes ceil(window_seconds / refill_rate), with a
// floor of one second, matching the framework's retry-after contract.
func (c BucketConfig) RetryAfterSeconds() int {
	if c.RefillRate <= 0 {
		return 1
	}
	seconds := c.RefillWindow.Seconds() / c.RefillRate
	retry := int(math.Ceil(seconds))
	if retry < 1 {
		return 1
	}
	return retry
}

// ResetAt returns the Unix timestamp at which the bucket will be full
// again, given state.
func (c BucketConfig) ResetAt(state BucketState) int64 {
	capacity := c.capacity()
	if state.Tokens >= capacity || c.RefillRate <= 0 {
		return state.LastRefill.Unix()
	}
	missing := capacity - state.Tokens
	secondsToFull := missing * c.RefillWindow.Seconds() / c.RefillRate
	return state.LastRefill.Add(time.Duration(secondsToFull * float64(time.Second))).Unix()
}
