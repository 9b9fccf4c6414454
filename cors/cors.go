// Package cors implements the configurable CORS middleware named as a
// built-in in the middleware factory. It follows the fixed
// security-header middleware style of a SecurityHeaders middleware,
// generalized from a hard-coded header set to configurable allowed
// origins, methods, headers, credentials, and preflight max-age.
package cors

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/iruldev/switchboard/middleware"
	"github.com/iruldev/switchboard/record"
)

// Config controls which cross-origin requests are permitted.
type Config struct {
	// AllowedOrigins is a list of exact origins, or ["*"] for any
	// origin. An empty list permits no origin.
	AllowedOrigins []string
	// AllowedMethods lists methods allowed in the Access-Control-Allow-Methods
	// response. Defaults to GET, POST, PUT, DELETE, PATCH, OPTIONS.
	AllowedMethods []string
	// AllowedHeaders lists headers allowed in preflight requests.
	// Defaults to Content-Type, Authorization.
	AllowedHeaders []string
	// AllowCredentials sets Access-Control-Allow-Credentials: true. MUST
	// NOT be combined with a wildcard origin per the CORS spec; when
	// both are set the middleware errors out opening (see NewMiddleware).
	AllowCredentials bool
	// MaxAgeSeconds is the preflight cache duration. Zero omits the
	// header.
	MaxAgeSeconds int
}

// DefaultConfig returns permissive development defaults: all origins,
// the common verbs, and no credentials.
func DefaultConfig() Config {
	return Config{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		MaxAgeSeconds:  600,
	}
}

// Middleware is the CORS built-in. It runs at priority 250, in the
// ≥200 security band, ahead of authentication and everything else.
type Middleware struct {
	cfg      Config
	enabled  bool
	priority int
}

// NewMiddleware validates cfg and builds the CORS middleware. Wildcard
// origin combined with AllowCredentials is rejected: browsers refuse
// that combination and a factory should fail fast rather than ship a
// middleware that can never succeed at the one thing it claims to do.
func NewMiddleware(cfg Config) (*Middleware, error) {
	if cfg.AllowCredentials {
		for _, o := range cfg.AllowedOrigins {
			if o == "*" {
				return nil, errWildcardWithCredentials
			}
		}
	}
	if len(cfg.AllowedMethods) == 0 {
		cfg.AllowedMethods = DefaultConfig().AllowedMethods
	}
	if len(cfg.AllowedHeaders) == 0 {
		cfg.AllowedHeaders = DefaultConfig().AllowedHeaders
	}
	return &Middleware{cfg: cfg, enabled: true, priority: 250}, nil
}

func (m *Middleware) Handle(req *record.Request, ctx *middleware.Context, next middleware.Next) *record.Response {
	origin := req.Header("Origin")

	if req.MethodEnum() == record.MethodOptions && origin != "" {
		resp := record.NewResponse(http.StatusNoContent)
		m.applyHeaders(resp, origin)
		resp.SetHeader("Access-Control-Allow-Methods", strings.Join(m.cfg.AllowedMethods, ", "))
		resp.SetHeader("Access-Control-Allow-Headers", strings.Join(m.cfg.AllowedHeaders, ", "))
		if m.cfg.MaxAgeSeconds > 0 {
			resp.SetHeader("Access-Control-Max-Age", strconv.Itoa(m.cfg.MaxAgeSeconds))
		}
		return resp
	}

	resp := next(req, ctx)
	m.applyHeaders(resp, origin)
	return resp
}

func (m *Middleware) applyHeaders(resp *record.Response, origin string) {
	if !m.originAllowed(origin) {
		return
	}
	if len(m.cfg.AllowedOrigins) == 1 && m.cfg.AllowedOrigins[0] == "*" && !m.cfg.AllowCredentials {
		resp.SetHeader("Access-Control-Allow-Origin", "*")
	} else {
		resp.SetHeader("Access-Control-Allow-Origin", origin)
		resp.SetHeader("Vary", "Origin")
	}
	if m.cfg.AllowCredentials {
		resp.SetHeader("Access-Control-Allow-Credentials", "true")
	}
}

func (m *Middleware) originAllowed(origin string) bool {
	if origin == "" {
		return false
	}
	for _, o := range m.cfg.AllowedOrigins {
		if o == "*" || o == origin {
			return true
		}
	}
	return false
}

func (m *Middleware) Name() string  { return "cors" }
func (m *Middleware) Priority() int { return m.priority }
func (m *Middleware) Enabled() bool { return m.enabled }

// SetEnabled toggles whether the middleware runs.
func (m *Middleware) SetEnabled(enabled bool) { m.enabled = enabled }

// SetPriority overrides the default priority (250).
func (m *Middleware) SetPriority(p int) { m.priority = p }
