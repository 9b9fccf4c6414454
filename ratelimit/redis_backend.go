package ratelimit

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sethvargo/go-retry"
	"github.com/sony/gobreaker"
)

// RedisBackend is a RemoteBackend backed by Redis, following the same
// "fall back to local state on Redis trouble" posture as
// internal/infra/redis/ratelimiter.go, but built on sony/gobreaker for
// the circuit breaker and sethvargo/go-retry for bounded retry instead
// of a hand-rolled circuit-breaker struct.
type RedisBackend struct {
	client    *redis.Client
	keyPrefix string
	timeout   time.Duration
	breaker   *gobreaker.CircuitBreaker
}

// RedisOption configures a RedisBackend.
type RedisOption func(*RedisBackend)

// WithKeyPrefix namespaces every key this backend touches.
func WithKeyPrefix(prefix string) RedisOption {
	return func(b *RedisBackend) { b.keyPrefix = prefix }
}

// WithTimeout bounds every Redis round trip.
func WithTimeout(d time.Duration) RedisOption {
	return func(b *RedisBackend) { b.timeout = d }
}

// NewRedisBackend wraps client with the framework's RemoteBackend
// contract.
func NewRedisBackend(client *redis.Client, opts ...RedisOption) *RedisBackend {
	b := &RedisBackend{
		client:  client,
		timeout: 200 * time.Millisecond,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "ratelimit-redis",
			MaxRequests: 1,
			Interval:    0,
			Timeout:     10 * time.Second,
			ReadyToTrip: func(c gobreaker.Counts) bool {
				return c.ConsecutiveFailures >= 3
			},
		}),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *RedisBackend) key(key string) string { return b.keyPrefix + key }

func (b *RedisBackend) GetBucket(key string) (BucketState, bool, error) {
	var state BucketState
	found := false

	_, err := b.breaker.Execute(func() (any, error) {
		ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
		defer cancel()

		return nil, retry.Do(ctx, retry.WithMaxRetries(2, retry.NewExponential(20*time.Millisecond)), func(ctx context.Context) error {
			raw, err := b.client.Get(ctx, b.key(key)).Bytes()
			if errors.Is(err, redis.Nil) {
				return nil
			}
			if err != nil {
				return retry.RetryableError(err)
			}
			if jsonErr := json.Unmarshal(raw, &state); jsonErr != nil {
				return jsonErr
			}
			found = true
			return nil
		})
	})

	if err != nil {
		return BucketState{}, false, err
	}
	return state, found, nil
}

func (b *RedisBackend) SetBucket(key string, state BucketState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return err
	}

	_, err = b.breaker.Execute(func() (any, error) {
		ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
		defer cancel()
		return nil, retry.Do(ctx, retry.WithMaxRetries(2, retry.NewExponential(20*time.Millisecond)), func(ctx context.Context) error {
			if err := b.client.Set(ctx, b.key(key), raw, time.Hour).Err(); err != nil {
				return retry.RetryableError(err)
			}
			return nil
		})
	})
	return err
}

func (b *RedisBackend) IncrementCounter(key string, inc int64, expiry time.Duration) (int64, error) {
	var result int64

	_, err := b.breaker.Execute(func() (any, error) {
		ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
		defer cancel()

		fullKey := b.key(key)
		pipe := b.client.TxPipeline()
		incr := pipe.IncrBy(ctx, fullKey, inc)
		pipe.Expire(ctx, fullKey, expiry)
		_, err := pipe.Exec(ctx)
		if err != nil {
			return nil, err
		}
		result = incr.Val()
		return nil, nil
	})

	return result, err
}

func (b *RedisBackend) GetCounter(key string) (int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
	defer cancel()

	val, err := b.client.Get(ctx, b.key(key)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return val, err
}

func (b *RedisBackend) IsConnected() bool {
	ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
	defer cancel()
	return b.client.Ping(ctx).Err() == nil && b.breaker.State() != gobreaker.StateOpen
}
