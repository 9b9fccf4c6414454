package middleware

import (
	"sort"
	"sync"
	"time"

	"github.com/iruldev/switchboard/record"
)

// Field is a single structured logging key/value, mirroring the field
// shape logging.Logger accepts so a Pipeline can report per-middleware
// timings without this package importing logging.
type Field struct {
	Key   string
	Value any
}

// PerformanceLogger is the narrow logging surface a Pipeline needs to
// report per-middleware execution time. It is satisfied by
// logging.Logger (and by logging.NopLogger when monitoring is disabled).
type PerformanceLogger interface {
	Debug(msg string, fields ...Field)
}

type nopPerformanceLogger struct{}

func (nopPerformanceLogger) Debug(string, ...Field) {}

type entry struct {
	mw Middleware
}

// Pipeline sequences synchronous Middleware ahead of a final Handler,
// executing higher-priority middleware first. A Pipeline is safe for
// concurrent use by multiple goroutines executing different requests; the
// middleware slice itself is only mutated by AddMiddleware/RemoveMiddleware/
// ClearMiddleware, guarded by mu.
type Pipeline struct {
	mu           sync.RWMutex
	middlewares  []entry
	sorted       bool
	final        Handler
	monitor      bool
	logger       PerformanceLogger
}

// NewPipeline creates an empty synchronous pipeline. Performance monitoring
// is off and the logger is a no-op until configured with
// SetPerformanceMonitoring and SetLogger.
func NewPipeline() *Pipeline {
	return &Pipeline{sorted: true, logger: nopPerformanceLogger{}}
}

// SetLogger installs the logger used for per-middleware timing output when
// performance monitoring is enabled.
func (p *Pipeline) SetLogger(l PerformanceLogger) {
	if l == nil {
		l = nopPerformanceLogger{}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.logger = l
}

// SetPerformanceMonitoring turns per-middleware timing logging on or off.
func (p *Pipeline) SetPerformanceMonitoring(on bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.monitor = on
}

// AddMiddleware appends mw to the pipeline. Order is re-derived by priority
// on the next Execute, not at add time.
func (p *Pipeline) AddMiddleware(mw Middleware) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.middlewares = append(p.middlewares, entry{mw: mw})
	p.sorted = false
}

// RemoveMiddleware removes the first middleware named name, reporting
// whether one was found.
func (p *Pipeline) RemoveMiddleware(name string) bool {
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
func (p *Pipeline) ClearMiddleware() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.middlewares = nil
	p.sorted = true
}

// SetFinalHandler installs the handler invoked once every middleware in the
// chain has called Next.
func (p *Pipeline) SetFinalHandler(h Handler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.final = h
}

// Names returns the middleware names in execution order, sorting by
// priority first if needed.
func (p *Pipeline) Names() []string {
	p.mu.Lock()
	p.sortLocked()
	names := make([]string, len(p.middlewares))
	for i, e := range p.middlewares {
		names[i] = e.mw.Name()
	}
	p.mu.Unlock()
	return names
}

func (p *Pipeline) sortLocked() {
	if p.sorted {
		return
	}
	sort.SliceStable(p.middlewares, func(i, j int) bool {
		return p.middlewares[i].mw.Priority() > p.middlewares[j].mw.Priority()
	})
	p.sorted = true
}

// Execute runs req through the pipeline, allocating a fresh Context, and
// returns the final response.
func (p *Pipeline) Execute(req *record.Request) (*record.Response, error) {
	return p.ExecuteWithContext(req, NewContext())
}

// ExecuteWithContext runs req through the pipeline using the supplied
// Context, so a caller can pre-populate context values (or inspect them
// afterward).
//
// An empty pipeline with no middleware registered runs the final handler
// directly: this is the documented boundary case, not an error. A panic
// recovered from a middleware or the final handler is contained here and
// returned as a *PipelineError naming the offending component, never
// propagated as a panic across Execute's boundary; an error that is
// already a *PipelineError (from a nested pipeline) is returned unchanged
// rather than re-wrapped.
func (p *Pipeline) ExecuteWithContext(req *record.Request, ctx *Context) (resp *record.Response, err error) {
	p.mu.Lock()
	p.sortLocked()
	chain := append([]entry(nil), p.middlewares...)
	final := p.final
	monitor := p.monitor
	logger := p.logger
	p.mu.Unlock()

	if final == nil {
		return nil, newPipelineError("pipeline", errNoFinalHandler)
	}

	defer func() {
		if r := recover(); r != nil {
			resp, err = nil, newPipelineError("pipeline", recoveredError(r))
		}
	}()

	return executeChain(chain, 0, req, ctx, final, monitor, logger), nil
}

func executeChain(chain []entry, index int, req *record.Request, ctx *Context, final Handler, monitor bool, logger PerformanceLogger) *record.Response {
	if index >= len(chain) {
		defer func() {
			if r := recover(); r != nil {
				panic(newPipelineError("final_handler", recoveredError(r)))
			}
		}()
		start := time.Now()
		resp := final(req, ctx)
		if monitor {
			logger.Debug("middleware timing", Field{Key: "middleware", Value: "final_handler"}, Field{Key: "duration_ms", Value: time.Since(start).Milliseconds()})
		}
		return resp
	}

	e := chain[index]
	next := func(r *record.Request, c *Context) *record.Response {
		return executeChain(chain, index+1, r, c, final, monitor, logger)
	}

	if !e.mw.Enabled() {
		return next(req, ctx)
	}

	return runMiddleware(e.mw, req, ctx, next, monitor, logger)
}

func runMiddleware(mw Middleware, req *record.Request, ctx *Context, next Next, monitor bool, logger PerformanceLogger) (resp *record.Response) {
	defer func() {
		if r := recover(); r != nil {
			panic(newPipelineError(mw.Name(), recoveredError(r)))
		}
	}()

	start := time.Now()
	resp = mw.Handle(req, ctx, next)
	if monitor {
		logger.Debug("middleware timing", Field{Key: "middleware", Value: mw.Name()}, Field{Key: "duration_ms", Value: time.Since(start).Milliseconds()})
	}
	return resp
}
