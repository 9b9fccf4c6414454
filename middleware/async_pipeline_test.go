package middleware

import (
	"errors"
	"testing"

	"github.com/iruldev/switchboard/record"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingAsyncMiddleware struct {
	name     string
	priority int
	enabled  bool
	trace    *[]string
	panicVal any
}

func (m *recordingAsyncMiddleware) HandleAsync(req *record.Request, ctx *Context, next AsyncNext, cb ResponseCallback) {
	if m.panicVal != nil {
		panic(m.panicVal)
	}
	*m.trace = append(*m.trace, m.name)
	next(req, ctx, cb)
}

func (m *recordingAsyncMiddleware) Name() string  { return m.name }
func (m *recordingAsyncMiddleware) Priority() int { return m.priority }
func (m *recordingAsyncMiddleware) Enabled() bool { return m.enabled }

func newAsyncMiddleware(trace *[]string, name string, priority int) *recordingAsyncMiddleware {
	return &recordingAsyncMiddleware{name: name, priority: priority, enabled: true, trace: trace}
}

func asyncFinalHandler(trace *[]string) AsyncHandler {
	return func(req *record.Request, cb ResponseCallback) {
		*trace = append(*trace, "final_handler")
		cb(record.OK("done", "text/plain"))
	}
}

func TestAsyncPipeline_PriorityOrderingAndSingleCallback(t *testing.T) {
	var trace []string
	var callbackCount int

	p := NewAsyncPipeline()
	p.AddMiddleware(newAsyncMiddleware(&trace, "logging", 10))
	p.AddMiddleware(newAsyncMiddleware(&trace, "cors", 250))
	p.AddMiddleware(newAsyncMiddleware(&trace, "auth", 150))
	p.SetFinalHandler(asyncFinalHandler(&trace))

	var resp *record.Response
	p.ExecuteAsync(record.NewRequest("GET", "/", "HTTP/1.1"), func(r *record.Response) {
		callbackCount++
		resp = r
	})

	require.Equal(t, 1, callbackCount)
	require.NotNil(t, resp)
	assert.Equal(t, 200, resp.Status())
	assert.Equal(t, []string{"cors", "auth", "logging", "final_handler"}, trace)
}

func TestAsyncPipeline_DisabledMiddlewareSkipped(t *testing.T) {
	var trace []string
	p := NewAsyncPipeline()
	disabled := newAsyncMiddleware(&trace, "disabled_one", 100)
	disabled.enabled = false
	p.AddMiddleware(disabled)
	p.AddMiddleware(newAsyncMiddleware(&trace, "enabled_one", 50))
	p.SetFinalHandler(asyncFinalHandler(&trace))

	var resp *record.Response
	p.ExecuteAsync(record.NewRequest("GET", "/", "HTTP/1.1"), func(r *record.Response) { resp = r })

	assert.Equal(t, []string{"enabled_one", "final_handler"}, trace)
	assert.Equal(t, 200, resp.Status())
}

func TestAsyncPipeline_NoFinalHandlerCalls500Once(t *testing.T) {
	p := NewAsyncPipeline()

	var calls int
	var resp *record.Response
	p.ExecuteAsync(record.NewRequest("GET", "/", "HTTP/1.1"), func(r *record.Response) {
		calls++
		resp = r
	})

	assert.Equal(t, 1, calls)
	assert.Equal(t, 500, resp.Status())
}

func TestAsyncPipeline_SyncPanicConvertsTo500ViaCallback(t *testing.T) {
	var trace []string
	p := NewAsyncPipeline()
	boom := newAsyncMiddleware(&trace, "boom", 10)
	boom.panicVal = errors.New("boom exploded")
	p.AddMiddleware(boom)
	p.SetFinalHandler(asyncFinalHandler(&trace))

	var calls int
	var resp *record.Response
	assert.NotPanics(t, func() {
		p.ExecuteAsync(record.NewRequest("GET", "/", "HTTP/1.1"), func(r *record.Response) {
			calls++
			resp = r
		})
	})

	assert.Equal(t, 1, calls)
	require.NotNil(t, resp)
	assert.Equal(t, 500, resp.Status())
	assert.Contains(t, string(resp.Body()), "boom")
}

func TestAsyncPipeline_CallbackInvokedExactlyOnceEvenIfMiddlewareMisbehaves(t *testing.T) {
	p := NewAsyncPipeline()
	p.SetFinalHandler(AsyncHandler(func(req *record.Request, cb ResponseCallback) {
		cb(record.OK("first", "text/plain"))
		cb(record.OK("second", "text/plain"))
	}))

	var calls int
	p.ExecuteAsync(record.NewRequest("GET", "/", "HTTP/1.1"), func(r *record.Response) {
		calls++
	})

	assert.Equal(t, 1, calls)
}
