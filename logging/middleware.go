package logging

import (
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/iruldev/switchboard/middleware"
	"github.com/iruldev/switchboard/record"
)

// RequestIDHeader is the header carrying the per-request correlation ID,
// generated when absent and echoed back in the response.
const RequestIDHeader = "X-Request-ID"

// LoggingMiddleware logs every request's method, path, status, and
// latency through a Logger, assigns a request ID when the client didn't
// supply one, and records Prometheus request-count and latency metrics.
// It sits in the observability priority band (0-49) per the framework's
// priority-band convention.
type LoggingMiddleware struct {
	logger   Logger
	priority int
	enabled  bool
}

// NewLoggingMiddleware creates a request logging middleware at the
// default observability priority (10).
func NewLoggingMiddleware(logger Logger) *LoggingMiddleware {
	if logger == nil {
		logger = NewNopLogger()
	}
	return &LoggingMiddleware{logger: logger, priority: 10, enabled: true}
}

func (m *LoggingMiddleware) Handle(req *record.Request, ctx *middleware.Context, next middleware.Next) *record.Response {
	requestID := req.Header(RequestIDHeader)
	if requestID == "" {
		requestID = uuid.New().String()
		req.SetHeader(RequestIDHeader, requestID)
	}

	start := time.Now()
	resp := next(req, ctx)
	elapsed := time.Since(start)

	resp.SetHeader(RequestIDHeader, requestID)

	m.logger.Info("request",
		String("request_id", requestID),
		String("method", req.Method()),
		String("path", req.Path()),
		Int("status", resp.Status()),
		Duration("latency", elapsed),
	)

	status := strconv.Itoa(resp.Status())
	requestsTotal.WithLabelValues(req.Method(), req.Path(), status).Inc()
	requestDuration.WithLabelValues(req.Method(), req.Path()).Observe(elapsed.Seconds())

	return resp
}

func (m *LoggingMiddleware) Name() string  { return "logging" }
func (m *LoggingMiddleware) Priority() int { return m.priority }
func (m *LoggingMiddleware) Enabled() bool { return m.enabled }

// SetEnabled toggles whether the middleware runs.
func (m *LoggingMiddleware) SetEnabled(enabled bool) { m.enabled = enabled }

// SetPriority overrides the default priority.
func (m *LoggingMiddleware) SetPriority(p int) { m.priority = p }

// DebugMiddleware logs request and response bodies at debug level. It is
// intended for development use and disabled by default, since logging
// full bodies in production is a deliberate opt-in.
type DebugMiddleware struct {
	logger  Logger
	enabled bool
}

// NewDebugMiddleware creates a verbose request/response body logger,
// disabled by default.
func NewDebugMiddleware(logger Logger) *DebugMiddleware {
	if logger == nil {
		logger = NewNopLogger()
	}
	return &DebugMiddleware{logger: logger, enabled: false}
}

func (m *DebugMiddleware) Handle(req *record.Request, ctx *middleware.Context, next middleware.Next) *record.Response {
	m.logger.Debug("request body",
		String("method", req.Method()),
		String("path", req.Path()),
		String("body", req.BodyText()),
	)
	resp := next(req, ctx)
	m.logger.Debug("response body",
		Int("status", resp.Status()),
		String("body", string(resp.Body())),
	)
	return resp
}

func (m *DebugMiddleware) Name() string  { return "debug" }
func (m *DebugMiddleware) Priority() int { return 0 }
func (m *DebugMiddleware) Enabled() bool { return m.enabled }

// SetEnabled toggles whether the middleware runs.
func (m *DebugMiddleware) SetEnabled(enabled bool) { m.enabled = enabled }
