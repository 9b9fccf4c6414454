package middleware

import (
	"sort"
	"sync"
	"time"

	"github.com/iruldev/switchboard/record"
)

type asyncEntry struct {
	mw AsyncMiddleware
}

// AsyncPipeline is the callback-driven counterpart to Pipeline, for
// middleware and handlers that complete off the calling goroutine. It
// shares Pipeline's state shape (ordered middleware, priority sort,
// performance monitoring) but the execution contract is that the supplied
// ResponseCallback is invoked exactly once, never twice and never zero
// times, regardless of where in the chain the response is produced.
type AsyncPipeline struct {
	mu          sync.Mutex
	middlewares []asyncEntry
	sorted      bool
	final       AsyncHandler
	monitor     bool
	logger      PerformanceLogger
}

// NewAsyncPipeline creates an empty asynchronous pipeline.
func NewAsyncPipeline() *AsyncPipeline {
	return &AsyncPipeline{sorted: true, logger: nopPerformanceLogger{}}
}

// SetLogger installs the logger used for per-middleware timing output when
// performance monitoring is enabled.
func (p *AsyncPipeline) SetLogger(l PerformanceLogger) {
	if l == nil {
		l = nopPerformanceLogger{}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.logger = l
}

// SetPerformanceMonitoring turns per-middleware timing logging on or off.
func (p *AsyncPipeline) SetPerformanceMonitoring(on bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.monitor = on
}

// AddMiddleware appends mw, re-sorting by priority on the next execution.
func (p *AsyncPipeline) AddMiddleware(mw AsyncMiddleware) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.middlewares = append(p.middlewares, asyncEntry{mw: mw})
	p.sorted = false
}

// RemoveMiddleware removes the first middleware named name, reporting
// whether one was found.
func (p *AsyncPipeline) RemoveMiddleware(name string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, e := range p.middlewares {
		if e.mw.Name() == name {
			p.middlewares = append(p.middlewares[:i], p.middlewares[i+1:]...)
			return true
		}
	}
	return false
}

// ClearMiddleware removes every middleware from the pipeline.
func (p *AsyncPipeline) ClearMiddleware() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.middlewares = nil
	p.sorted = true
}

// SetFinalHandler installs the handler invoked once every middleware in the
// chain has called its next.
func (p *AsyncPipeline) SetFinalHandler(h AsyncHandler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.final = h
}

// Names returns the middleware names in execution order, sorting by
// priority first if needed.
func (p *AsyncPipeline) Names() []string {
	p.mu.Lock()
	p.sortLocked()
	names := make([]string, len(p.middlewares))
	for i, e := range p.middlewares {
		names[i] = e.mw.Name()
	}
	p.mu.Unlock()
	return names
}

func (p *AsyncPipeline) sortLocked() {
	if p.sorted {
		return
	}
	sort.SliceStable(p.middlewares, func(i, j int) bool {
		return p.middlewares[i].mw.Priority() > p.middlewares[j].mw.Priority()
	})
	p.sorted = true
}

// ExecuteAsync runs req through the pipeline, allocating a fresh Context,
// and invokes cb exactly once with the final response.
func (p *AsyncPipeline) ExecuteAsync(req *record.Request, cb ResponseCallback) {
	p.ExecuteAsyncWithContext(req, NewContext(), cb)
}

// ExecuteAsyncWithContext runs req through the pipeline using the supplied
// Context. cb is invoked exactly once: on a missing final handler, on a
// panic recovered from any middleware or the final handler (converted to
// a 500 response naming the offending component, never propagated as a
// panic across this boundary), or on ordinary completion of the chain.
func (p *AsyncPipeline) ExecuteAsyncWithContext(req *record.Request, ctx *Context, cb ResponseCallback) {
	if cb == nil {
		return
	}

	p.mu.Lock()
	p.sortLocked()
	chain := append([]asyncEntry(nil), p.middlewares...)
	final := p.final
	monitor := p.monitor
	logger := p.logger
	p.mu.Unlock()

	if final == nil {
		cb(record.InternalServerError("no final handler set in async pipeline"))
		return
	}

	once := newCallbackOnce(cb)
	start := time.Now()
	wrapped := func(resp *record.Response) {
		if monitor {
			logger.Debug("middleware timing", Field{Key: "middleware", Value: "total_pipeline"}, Field{Key: "duration_ms", Value: time.Since(start).Milliseconds()})
		}
		once(resp)
	}

	executeAsyncChain(chain, 0, req, ctx, final, monitor, logger, wrapped)
}

func executeAsyncChain(chain []asyncEntry, index int, req *record.Request, ctx *Context, final AsyncHandler, monitor bool, logger PerformanceLogger, cb ResponseCallback) {
	if index >= len(chain) {
		runAsyncFinalHandler(final, req, monitor, logger, cb)
		return
	}

	e := chain[index]
	next := func(r *record.Request, c *Context, nextCb ResponseCallback) {
		executeAsyncChain(chain, index+1, r, c, final, monitor, logger, nextCb)
	}

	if !e.mw.Enabled() {
		next(req, ctx, cb)
		return
	}

	runAsyncMiddleware(e.mw, req, ctx, next, monitor, logger, cb)
}

func runAsyncMiddleware(mw AsyncMiddleware, req *record.Request, ctx *Context, next AsyncNext, monitor bool, logger PerformanceLogger, cb ResponseCallback) {
	defer func() {
		if r := recover(); r != nil {
			cb(record.InternalServerError(newPipelineError(mw.Name(), recoveredError(r)).Error()))
		}
	}()

	start := time.Now()
	mw.HandleAsync(req, ctx, next, func(resp *record.Response) {
		if monitor {
			logger.Debug("middleware timing", Field{Key: "middleware", Value: mw.Name()}, Field{Key: "duration_ms", Value: time.Since(start).Milliseconds()})
		}
		cb(resp)
	})
}

func runAsyncFinalHandler(final AsyncHandler, req *record.Request, monitor bool, logger PerformanceLogger, cb ResponseCallback) {
	defer func() {
		if r := recover(); r != nil {
			cb(record.InternalServerError(newPipelineError("final_handler", recoveredError(r)).Error()))
		}
	}()

	start := time.Now()
	final(req, func(resp *record.Response) {
		if monitor {
			logger.Debug("middleware timing", Field{Key: "middleware", Value: "final_handler"}, Field{Key: "duration_ms", Value: time.Since(start).Milliseconds()})
		}
		cb(resp)
	})
}

// newCallbackOnce wraps cb so that only the first invocation is delivered,
// guarding the pipeline's exactly-once contract against a misbehaving
// middleware that calls its callback more than once.
func newCallbackOnce(cb ResponseCallback) ResponseCallback {
	var once sync.Once
	return func(resp *record.Response) {
		once.Do(func() { cb(resp) })
	}
}
