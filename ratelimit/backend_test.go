package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iruldev/switchboard/middleware"
)

// fakeRemoteBackend is an in-test RemoteBackend double: Redis cannot run in
// this environment, so bucket persistence is exercised against a plain map
// instead of RedisBackend.
type fakeRemoteBackend struct {
	connected bool
	buckets   map[string]BucketState
	sets      int
}

func newFakeRemoteBackend(connected bool) *fakeRemoteBackend {
	return &fakeRemoteBackend{connected: connected, buckets: make(map[string]BucketState)}
}

func (f *fakeRemoteBackend) GetBucket(key string) (BucketState, bool, error) {
	s, ok := f.buckets[key]
	return s, ok, nil
}

func (f *fakeRemoteBackend) SetBucket(key string, state BucketState) error {
	f.sets++
	f.buckets[key] = state
	return nil
}

func (f *fakeRemoteBackend) IncrementCounter(key string, inc int64, expiry time.Duration) (int64, error) {
	return 0, nil
}

func (f *fakeRemoteBackend) GetCounter(key string) (int64, error) { return 0, nil }
func (f *fakeRemoteBackend) IsConnected() bool                    { return f.connected }

func TestNopBackend_AlwaysDisconnectedAndInert(t *testing.T) {
	b := NopBackend()
	assert.False(t, b.IsConnected())
	_, found, err := b.GetBucket("anything")
	assert.NoError(t, err)
	assert.False(t, found)
}

func TestMiddleware_UsesConnectedRemoteBackendAsAuthoritative(t *testing.T) {
	backend := newFakeRemoteBackend(true)
	mw, err := NewMiddleware(Config{
		Strategy: StrategyIP,
		Bucket:   BucketConfig{MaxTokens: 1, RefillRate: 1, RefillWindow: WindowHour},
		Backend:  backend,
	})
	require.NoError(t, err)
	ctx := middleware.NewContext()
	req := newReq("10.0.0.5")

	resp := mw.Handle(req, ctx, finalOK())
	assert.Equal(t, 200, resp.Status())
	assert.Equal(t, 1, backend.sets)

	resp = mw.Handle(req, ctx, finalOK())
	assert.Equal(t, 429, resp.Status())
}

func TestMiddleware_FallsBackToLocalWhenBackendDisconnected(t *testing.T) {
	backend := newFakeRemoteBackend(false)
	mw, err := NewMiddleware(Config{
		Strategy: StrategyIP,
		Bucket:   BucketConfig{MaxTokens: 1, RefillRate: 1, RefillWindow: WindowHour},
		Backend:  backend,
	})
	require.NoError(t, err)
	ctx := middleware.NewContext()
	req := newReq("10.0.0.6")

	resp := mw.Handle(req, ctx, finalOK())
	assert.Equal(t, 200, resp.Status())
	assert.Equal(t, 0, backend.sets)
}
