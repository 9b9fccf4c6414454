package ratelimit

import "time"

// RemoteBackend lets bucket state live outside the process, so multiple
// instances of a service share one rate-limit view. When a backend is
// configured and IsConnected reports true, it is authoritative; the
// middleware falls back to its local in-memory map otherwise.
type RemoteBackend interface {
	GetBucket(key string) (BucketState, bool, error)
	SetBucket(key string, state BucketState) error
	IncrementCounter(key string, inc int64, expiry time.Duration) (int64, error)
	GetCounter(key string) (int64, error)
	IsConnected() bool
}

// localBackend is the zero-dependency fallback: it stores nothing and
// always reports disconnected, so the middleware's own mutex-guarded
// bucket map holds all state.
type localBackend struct{}

func (localBackend) GetBucket(string) (BucketState, bool, error)        { return BucketState{}, false, nil }
func (localBackend) SetBucket(string, BucketState) error                { return nil }
func (localBackend) IncrementCounter(string, int64, time.Duration) (int64, error) { return 0, nil }
func (localBackend) GetCounter(string) (int64, error)                   { return 0, nil }
func (localBackend) IsConnected() bool                                  { return false }

// NopBackend is the no-op RemoteBackend used when no remote store is
// configured; every bucket is authoritative locally.
func NopBackend() RemoteBackend { return localBackend{} }
