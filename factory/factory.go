// Package factory builds middleware.Middleware instances from
// config.MiddlewareInstanceConfig by name, the same "type name to
// constructor" shape as a plugin's createMiddleware, so built-ins and
// plugin-registered types share one call site.
//
// Factory is deliberately an owned value, not a process-global singleton:
// an instance-owned registry keeps construction testable and lets
// multiple factories (e.g. one per test case) coexist without shared
// mutable state.
package factory

import (
	"fmt"
	"sync"

	"github.com/iruldev/switchboard/config"
	"github.com/iruldev/switchboard/middleware"
)

// Constructor builds a middleware.Middleware from an instance config. It
// must validate its own options and fail fast with a descriptive error.
type Constructor func(cfg config.MiddlewareInstanceConfig) (middleware.Middleware, error)

// Factory is a name-keyed registry of middleware constructors.
type Factory struct {
	mu           sync.RWMutex
	constructors map[string]Constructor
}

// New builds a Factory with the framework's built-in types (cors, logging,
// auth, rate_limit, authz) already registered.
func New() *Factory {
	f := &Factory{constructors: make(map[string]Constructor)}
	registerBuiltins(f)
	return f
}

// Register adds or replaces the constructor for name. Used both by
// built-in registration and by the plugin manager when a loaded plugin
// contributes new middleware types.
func (f *Factory) Register(name string, ctor Constructor) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.constructors[name] = ctor
}

// Unregister removes name's constructor, if any. Used when a plugin
// supplying it is unloaded.
func (f *Factory) Unregister(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.constructors, name)
}

// Names returns every registered type name.
func (f *Factory) Names() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	names := make([]string, 0, len(f.constructors))
	for name := range f.constructors {
		names = append(names, name)
	}
	return names
}

// Create builds a middleware instance from cfg using the registered
// constructor for cfg.Name. It returns (nil, nil) for an unknown name; a
// known name whose constructor fails validation returns the descriptive
// error instead.
func (f *Factory) Create(cfg config.MiddlewareInstanceConfig) (middleware.Middleware, error) {
	f.mu.RLock()
	ctor, ok := f.constructors[cfg.Name]
	f.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	mw, err := ctor(cfg)
	if err != nil {
		return nil, fmt.Errorf("factory: creating %q: %w", cfg.Name, err)
	}
	return mw, nil
}

// CreateAll builds every entry in cfgs in order, skipping (with no error)
// names that resolve to no registered constructor. The first constructor
// failure aborts and returns its error.
func (f *Factory) CreateAll(cfgs []config.MiddlewareInstanceConfig) ([]middleware.Middleware, error) {
	out := make([]middleware.Middleware, 0, len(cfgs))
	for _, cfg := range cfgs {
		mw, err := f.Create(cfg)
		if err != nil {
			return nil, err
		}
		if mw == nil {
			continue
		}
		out = append(out, mw)
	}
	return out, nil
}
