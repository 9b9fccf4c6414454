// Package authz implements the "authz" built-in: role-based access control
// evaluated against the roles the auth middleware (priority 150) already
// populated into the request Context. Follows the RequireRole shape of
// internal/interface/http/middleware/rbac.go, adapted from a chi
// middleware-constructor taking variadic roles to this framework's
// Middleware interface with a fixed required-role set supplied through
// Config, and to plain 403 JSON responses rather than an external
// response-helper package (out of this module's scope).
package authz

import (
	"encoding/json"
	"time"

	"github.com/iruldev/switchboard/middleware"
	"github.com/iruldev/switchboard/record"
)

// Mode selects how RequiredRoles is evaluated against the context's roles.
type Mode string

const (
	// ModeAny grants access when the user holds at least one required role.
	ModeAny Mode = "any"
	// ModeAll grants access only when the user holds every required role.
	ModeAll Mode = "all"
)

// Config configures an authz middleware instance.
type Config struct {
	RequiredRoles []string
	Mode          Mode // defaults to ModeAny
}

func (c Config) mode() Mode {
	if c.Mode == ModeAll {
		return ModeAll
	}
	return ModeAny
}

// Middleware is the role-based access-control built-in. It runs at
// priority 140, just below auth (150), since it depends on auth's context
// output and must run after it within the 100-199 auth band.
type Middleware struct {
	cfg      Config
	enabled  bool
	priority int
}

// NewMiddleware builds an authz middleware from cfg.
func NewMiddleware(cfg Config) *Middleware {
	return &Middleware{cfg: cfg, enabled: true, priority: 140}
}

func (m *Middleware) Handle(req *record.Request, ctx *middleware.Context, next middleware.Next) *record.Response {
	if len(m.cfg.RequiredRoles) == 0 {
		return next(req, ctx)
	}

	if !ctx.GetBool("authenticated", false) {
		return forbiddenResponse("Access denied")
	}

	roles := contextRoles(ctx)
	held := make(map[string]bool, len(roles))
	for _, r := range roles {
		held[r] = true
	}

	switch m.cfg.mode() {
	case ModeAll:
		for _, required := range m.cfg.RequiredRoles {
			if !held[required] {
				return forbiddenResponse("Insufficient role")
			}
		}
	default:
		satisfied := false
		for _, required := range m.cfg.RequiredRoles {
			if held[required] {
				satisfied = true
				break
			}
		}
		if !satisfied {
			return forbiddenResponse("Insufficient role")
		}
	}

	return next(req, ctx)
}

func contextRoles(ctx *middleware.Context) []string {
	v, ok := ctx.Get("roles")
	if !ok || v.Kind != middleware.KindStringSlice {
		return nil
	}
	return v.Slice
}

func (m *Middleware) Name() string  { return "authz" }
func (m *Middleware) Priority() int { return m.priority }
func (m *Middleware) Enabled() bool { return m.enabled }

// SetEnabled toggles whether the middleware runs.
func (m *Middleware) SetEnabled(enabled bool) { m.enabled = enabled }

// SetPriority overrides the default priority (140).
func (m *Middleware) SetPriority(p int) { m.priority = p }

func forbiddenResponse(message string) *record.Response {
	resp := record.NewResponse(403)
	resp.SetContentType("application/json")
	body, _ := json.Marshal(map[string]any{
		"error":     "forbidden",
		"message":   message,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
	resp.SetBody(body)
	return resp
}
