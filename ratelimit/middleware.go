package ratelimit

import (
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"github.com/iruldev/switchboard/middleware"
	"github.com/iruldev/switchboard/record"
)

// Config controls a rate-limit middleware instance.
type Config struct {
	Strategy  Strategy
	CustomKey KeyFunc // required when Strategy == StrategyCustom

	Bucket BucketConfig

	// SkipAuthenticated skips rate limiting when the context's
	// "authenticated" flag is true.
	SkipAuthenticated bool

	// Whitelist and Blacklist are matched against the client IP.
	// Blacklisted clients are rejected with a fixed retry_after (3600s)
	// and never consume a token; whitelisted clients bypass the limiter
	// entirely.
	Whitelist []string
	Blacklist []string

	// Backend, if set and connected, makes bucket state authoritative
	// remotely instead of in this process's local map.
	Backend RemoteBackend
}

func (c Config) keyFunc() (KeyFunc, error) {
	if c.Strategy == StrategyCustom {
		if c.CustomKey == nil {
			return nil, errMissingCustomKeyFunc
		}
		return c.CustomKey, nil
	}
	return keyFuncFor(c.Strategy), nil
}

// Middleware is the token-bucket rate-limit built-in. It runs at
// priority 50, in the 50-99 validation band.
type Middleware struct {
	cfg      Config
	keyFn    KeyFunc
	backend  RemoteBackend
	enabled  bool
	priority int

	mu      sync.Mutex
	buckets map[string]*TokenBucket

	stats Stats
}

// NewMiddleware validates cfg and builds a rate-limit middleware.
func NewMiddleware(cfg Config) (*Middleware, error) {
	if cfg.Bucket.MaxTokens <= 0 || cfg.Bucket.RefillRate <= 0 {
		return nil, errInvalidBucketConfig
	}
	keyFn, err := cfg.keyFunc()
	if err != nil {
		return nil, err
	}
	backend := cfg.Backend
	if backend == nil {
		backend = NopBackend()
	}

	return &Middleware{
		cfg:      cfg,
		keyFn:    keyFn,
		backend:  backend,
		enabled:  true,
		priority: 50,
		buckets:  make(map[string]*TokenBucket),
	}, nil
}

func (m *Middleware) Handle(req *record.Request, ctx *middleware.Context, next middleware.Next) *record.Response {
	key := m.keyFn(req, ctx)
	if key == "" {
		return next(req, ctx)
	}

	if m.cfg.SkipAuthenticated && ctx.GetBool("authenticated", false) {
		return next(req, ctx)
	}

	ip := clientIP(req)
	if matches(ip, m.cfg.Whitelist) {
		m.stats.recordWhitelisted()
		return next(req, ctx)
	}
	if matches(ip, m.cfg.Blacklist) {
		m.stats.recordTotal()
		m.stats.recordBlocked()
		return rateLimitedResponse(key, m.cfg.Bucket, 3600, 0)
	}

	m.stats.recordTotal()

	bucket := m.bucketFor(key)
	allowed, state := m.consume(key, bucket)
	if !allowed {
		m.stats.recordBlocked()
		retryAfter := m.cfg.Bucket.RetryAfterSeconds()
		resp := rateLimitedResponse(key, m.cfg.Bucket, retryAfter, state.Tokens)
		return resp
	}

	resp := next(req, ctx)
	setRateLimitHeaders(resp, m.cfg.Bucket, state)
	return resp
}

func (m *Middleware) consume(key string, bucket *TokenBucket) (bool, BucketState) {
	if m.backend.IsConnected() {
		if remoteState, found, err := m.backend.GetBucket(key); err == nil && found {
			bucket = NewTokenBucketFromState(m.cfg.Bucket, remoteState)
		}
		allowed, state := bucket.Consume()
		_ = m.backend.SetBucket(key, state)
		return allowed, state
	}
	return bucket.Consume()
}

func (m *Middleware) bucketFor(key string) *TokenBucket {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.buckets[key]
	if !ok {
		b = NewTokenBucket(m.cfg.Bucket)
		m.buckets[key] = b
	}
	return b
}

func (m *Middleware) Name() string  { return "rate_limit" }
func (m *Middleware) Priority() int { return m.priority }
func (m *Middleware) Enabled() bool { return m.enabled }

// SetEnabled toggles whether the middleware runs.
func (m *Middleware) SetEnabled(enabled bool) { m.enabled = enabled }

// SetPriority overrides the default priority (50).
func (m *Middleware) SetPriority(p int) { m.priority = p }

// Stats returns a snapshot of this middleware instance's counters.
func (m *Middleware) Stats() Snapshot {
	m.mu.Lock()
	active := int64(len(m.buckets))
	m.mu.Unlock()
	return m.stats.snapshot(active)
}

func matches(ip string, list []string) bool {
	for _, entry := range list {
		if entry == ip {
			return true
		}
	}
	return false
}

func setRateLimitHeaders(resp *record.Response, cfg BucketConfig, state BucketState) {
	resp.SetHeader("X-RateLimit-Limit", strconv.FormatFloat(cfg.capacity(), 'f', 0, 64))
	remaining := int64(state.Tokens)
	if remaining < 0 {
		remaining = 0
	}
	resp.SetHeader("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
	resp.SetHeader("X-RateLimit-Reset", strconv.FormatInt(cfg.ResetAt(state), 10))
	resp.SetHeader("X-RateLimit-Window", strconv.FormatFloat(cfg.RefillWindow.Seconds(), 'f', 0, 64))
}

func rateLimitedResponse(key string, cfg BucketConfig, retryAfter int, remaining float64) *record.Response {
	resp := record.NewResponse(429)
	resp.SetHeader("Retry-After", strconv.Itoa(retryAfter))
	resp.SetHeader("X-RateLimit-Limit", strconv.FormatFloat(cfg.capacity(), 'f', 0, 64))
	r := int64(remaining)
	if r < 0 {
		r = 0
	}
	resp.SetHeader("X-RateLimit-Remaining", strconv.FormatInt(r, 10))

	body, _ := json.Marshal(map[string]any{
		"error":       "rate_limited",
		"message":     "rate limit exceeded",
		"retry_after": retryAfter,
		"limit":       cfg.capacity(),
		"window":      cfg.RefillWindow.Seconds(),
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
		"key":         key,
	})
	resp.SetBody(body)
	resp.SetContentType("application/json")
	return resp
}
