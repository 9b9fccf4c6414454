// Package middleware defines the synchronous and asynchronous middleware
// interfaces and the context that flows between them, plus the pipelines
// that sequence middleware ahead of a final handler.
//
// A Middleware inspects and optionally rewrites a request, contributes to
// or reads the shared Context, and decides whether to call Next (continue
// the chain) or return its own response (short-circuit). Priority controls
// ordering within a Pipeline:
//
//	200+     critical security middleware (CORS, security headers)
//	100-199  authentication and authorization
//	50-99    request validation and parsing
//	0-49     logging, metrics, and other observability
//	negative response modification and cleanup
package middleware

import (
	"sync"

	"github.com/iruldev/switchboard/record"
)

// Handler is the terminal handler a pipeline invokes once every middleware
// has called Next.
type Handler func(req *record.Request, ctx *Context) *record.Response

// Next continues the pipeline, invoking the next middleware or, once
// exhausted, the final handler.
type Next func(req *record.Request, ctx *Context) *record.Response

// Middleware is the synchronous middleware contract. Implementations must
// be safe for concurrent use: a single Middleware instance is shared across
// every request that passes through a Pipeline.
type Middleware interface {
	// Handle processes req, optionally consulting or mutating ctx, and
	// either returns its own response or calls next to continue the chain.
	Handle(req *record.Request, ctx *Context, next Next) *record.Response

	// Name identifies this middleware for logging, debugging, and
	// configuration lookups.
	Name() string

	// Priority controls execution order: higher runs earlier. Default 0.
	Priority() int

	// Enabled reports whether this middleware should run. Disabled
	// middleware are skipped, but the chain still advances to Next.
	Enabled() bool
}

// AsyncNext continues an asynchronous pipeline. cb is invoked exactly once,
// either synchronously or from another goroutine, with the eventual
// response.
type AsyncNext func(req *record.Request, ctx *Context, cb ResponseCallback)

// ResponseCallback receives the response produced by a handler or
// middleware further down an asynchronous chain. It must be invoked
// exactly once.
type ResponseCallback func(resp *record.Response)

// AsyncMiddleware is the asynchronous counterpart to Middleware, for
// handlers that complete off the calling goroutine (e.g. after an I/O
// callback).
type AsyncMiddleware interface {
	HandleAsync(req *record.Request, ctx *Context, next AsyncNext, cb ResponseCallback)
	Name() string
	Priority() int
	Enabled() bool
}

// AsyncHandler is the terminal handler of an asynchronous pipeline.
type AsyncHandler func(req *record.Request, cb ResponseCallback)

// ValueKind discriminates the dynamic type stored under a Context key.
type ValueKind int

const (
	KindNone ValueKind = iota
	KindString
	KindInt
	KindBool
	KindFloat
	KindStringSlice
	KindBytes
)

// Value is a discriminated union for data stored in Context. Middleware
// written against a shared Context cannot rely on Go's static typing to
// agree on the type held under a key, so Value carries its own kind tag and
// the Context accessors use it to fail safely (returning the zero value and
// ok=false) instead of panicking on a mismatched type assertion.
type Value struct {
	Kind   ValueKind
	Str    string
	Int    int64
	Bool   bool
	Float  float64
	Slice  []string
	Bytes  []byte
}

func StringValue(v string) Value      { return Value{Kind: KindString, Str: v} }
func IntValue(v int64) Value          { return Value{Kind: KindInt, Int: v} }
func BoolValue(v bool) Value          { return Value{Kind: KindBool, Bool: v} }
func FloatValue(v float64) Value      { return Value{Kind: KindFloat, Float: v} }
func StringSliceValue(v []string) Value { return Value{Kind: KindStringSlice, Slice: v} }
func BytesValue(v []byte) Value       { return Value{Kind: KindBytes, Bytes: v} }

// Context is the per-request, string-keyed value map that flows through a
// pipeline, letting middleware share state with downstream middleware and
// the final handler. A single mutex guards the map since middleware may be
// invoked from pipelines that hand requests across goroutines (the async
// pipeline in particular).
type Context struct {
	mu     sync.RWMutex
	values map[string]Value
}

// NewContext creates an empty Context.
func NewContext() *Context {
	return &Context{values: make(map[string]Value)}
}

// Set stores v under key, overwriting any prior value.
func (c *Context) Set(key string, v Value) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = v
}

// Get returns the value stored under key and whether it was present.
func (c *Context) Get(key string) (Value, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.values[key]
	return v, ok
}

// Has reports whether key is present.
func (c *Context) Has(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.values[key]
	return ok
}

// Remove deletes key, reporting whether it had been present.
func (c *Context) Remove(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.values[key]; !ok {
		return false
	}
	delete(c.values, key)
	return true
}

// GetString returns the string stored under key, or def if key is absent or
// holds a value of a different kind.
func (c *Context) GetString(key, def string) string {
	v, ok := c.Get(key)
	if !ok || v.Kind != KindString {
		return def
	}
	return v.Str
}

// GetBool returns the bool stored under key, or def if key is absent or
// holds a value of a different kind.
func (c *Context) GetBool(key string, def bool) bool {
	v, ok := c.Get(key)
	if !ok || v.Kind != KindBool {
		return def
	}
	return v.Bool
}

// GetInt returns the int64 stored under key, or def if key is absent or
// holds a value of a different kind.
func (c *Context) GetInt(key string, def int64) int64 {
	v, ok := c.Get(key)
	if !ok || v.Kind != KindInt {
		return def
	}
	return v.Int
}

// SetString is a convenience wrapper for Set(key, StringValue(v)).
func (c *Context) SetString(key, v string) { c.Set(key, StringValue(v)) }

// SetBool is a convenience wrapper for Set(key, BoolValue(v)).
func (c *Context) SetBool(key string, v bool) { c.Set(key, BoolValue(v)) }

// SetInt is a convenience wrapper for Set(key, IntValue(v)).
func (c *Context) SetInt(key string, v int64) { c.Set(key, IntValue(v)) }
