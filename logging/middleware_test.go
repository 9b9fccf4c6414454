package logging

import (
	"testing"

	"github.com/iruldev/switchboard/middleware"
	"github.com/iruldev/switchboard/record"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturingLogger struct {
	debugMsgs []string
	infoMsgs  []string
}

func (c *capturingLogger) Debug(msg string, fields ...Field) { c.debugMsgs = append(c.debugMsgs, msg) }
func (c *capturingLogger) Info(msg string, fields ...Field)  { c.infoMsgs = append(c.infoMsgs, msg) }
func (c *capturingLogger) Warn(string, ...Field)             {}
func (c *capturingLogger) Error(string, ...Field)            {}
func (c *capturingLogger) With(...Field) Logger              { return c }
func (c *capturingLogger) Sync() error                       { return nil }

func TestLoggingMiddleware_LogsRequestAfterNext(t *testing.T) {
	cl := &capturingLogger{}
	m := NewLoggingMiddleware(cl)

	p := middleware.NewPipeline()
	p.AddMiddleware(m)
	p.SetFinalHandler(func(req *record.Request, ctx *middleware.Context) *record.Response {
		return record.OK("ok", "text/plain")
	})

	resp, err := p.Execute(record.NewRequest("GET", "/api/users", "HTTP/1.1"))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.Status())
	assert.Equal(t, []string{"request"}, cl.infoMsgs)
}

func TestLoggingMiddleware_AssignsAndEchoesRequestID(t *testing.T) {
	m := NewLoggingMiddleware(&capturingLogger{})

	p := middleware.NewPipeline()
	p.AddMiddleware(m)
	p.SetFinalHandler(func(req *record.Request, ctx *middleware.Context) *record.Response {
		return record.OK("ok", "text/plain")
	})

	resp, err := p.Execute(record.NewRequest("GET", "/api/users", "HTTP/1.1"))
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Header(RequestIDHeader))
}

func TestLoggingMiddleware_PreservesIncomingRequestID(t *testing.T) {
	m := NewLoggingMiddleware(&capturingLogger{})

	p := middleware.NewPipeline()
	p.AddMiddleware(m)
	p.SetFinalHandler(func(req *record.Request, ctx *middleware.Context) *record.Response {
		return record.OK("ok", "text/plain")
	})

	req := record.NewRequest("GET", "/api/users", "HTTP/1.1")
	req.SetHeader(RequestIDHeader, "client-supplied-id")

	resp, err := p.Execute(req)
	require.NoError(t, err)
	assert.Equal(t, "client-supplied-id", resp.Header(RequestIDHeader))
}

func TestLoggingMiddleware_PriorityInObservabilityBand(t *testing.T) {
	m := NewLoggingMiddleware(nil)
	assert.Equal(t, 10, m.Priority())
	assert.True(t, m.Enabled())
}

func TestDebugMiddleware_DisabledByDefault(t *testing.T) {
	m := NewDebugMiddleware(nil)
	assert.False(t, m.Enabled())
}

func TestDebugMiddleware_LogsBodiesWhenEnabled(t *testing.T) {
	cl := &capturingLogger{}
	m := NewDebugMiddleware(cl)
	m.SetEnabled(true)

	p := middleware.NewPipeline()
	p.AddMiddleware(m)
	p.SetFinalHandler(func(req *record.Request, ctx *middleware.Context) *record.Response {
		return record.OK("ok", "text/plain")
	})

	req := record.NewRequest("POST", "/x", "HTTP/1.1")
	req.SetBody([]byte(`{"a":1}`))

	_, err := p.Execute(req)
	require.NoError(t, err)
	assert.Equal(t, []string{"request body", "response body"}, cl.debugMsgs)
}
