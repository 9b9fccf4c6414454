package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTokenBucket_StartsFullAndConsumes(t *testing.T) {
	cfg := BucketConfig{MaxTokens: 2, RefillRate: 1, RefillWindow: WindowSecond}
	b := NewTokenBucket(cfg)

	allowed, state := b.Consume()
	assert.True(t, allowed)
	assert.InDelta(t, 1, state.Tokens, 0.001)

	allowed, state = b.Consume()
	assert.True(t, allowed)
	assert.InDelta(t, 0, state.Tokens, 0.001)

	allowed, _ = b.Consume()
	assert.False(t, allowed)
}

func TestTokenBucket_RefillsOverTime(t *testing.T) {
	cfg := BucketConfig{MaxTokens: 1, RefillRate: 1, RefillWindow: WindowSecond}
	b := NewTokenBucketFromState(cfg, BucketState{Tokens: 0, LastRefill: time.Now().Add(-2 * time.Second)})

	allowed, _ := b.Consume()
	assert.True(t, allowed)
}

func TestBucketConfig_RetryAfterSecondsMinimumOne(t *testing.T) {
	cfg := BucketConfig{MaxTokens: 100, RefillRate: 1000, RefillWindow: WindowSecond}
	assert.Equal(t, 1, cfg.RetryAfterSeconds())
}

func TestBucketConfig_CapacityPrefersBurstSize(t *testing.T) {
	cfg := BucketConfig{MaxTokens: 10, BurstAllowed: true, BurstSize: 20}
	assert.Equal(t, 20.0, cfg.capacity())
}
