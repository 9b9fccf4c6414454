// Package auth implements the JWT authentication middleware named as a
// built-in ("auth") in the middleware factory. It uses golang-jwt/jwt/v5
// for HMAC-SHA256 signature verification but layers its own
// validation-step error taxonomy and claim-mapping rules on top, since
// the library's verifier collapses format/signature/claims failures into
// one generic error.
package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iruldev/switchboard/middleware"
	"github.com/iruldev/switchboard/record"
)

// Scheme identifies how the Authorization (or configured) header is
// parsed.
type Scheme string

const (
	SchemeBearer Scheme = "Bearer"
	SchemeJWT    Scheme = "JWT"
	SchemeCustom Scheme = "Custom"
)

// Validation step errors, surfaced verbatim in the 401 response body's
// "message" field.
var (
	ErrMissingHeader      = errors.New("missing or empty authorization header")
	ErrInvalidFormat      = errors.New("Invalid JWT format")
	ErrInvalidSignature   = errors.New("Invalid JWT signature")
	ErrPayloadParseFailed = errors.New("Failed to parse JWT payload")
	ErrPayloadInvalidJSON = errors.New("Invalid JSON in JWT payload")
	ErrTokenExpired       = errors.New("token has expired")
	ErrIssuerMismatch     = errors.New("token issuer does not match configured issuer")
	ErrAudienceMismatch   = errors.New("token audience does not match configured audience")
)

// Claims carries the subset of JWT claims the framework recognizes.
type Claims struct {
	UserID    string
	Roles     []string
	Issuer    string
	Audience  string
	ExpiresAt time.Time
	IssuedAt  time.Time
}

// Config controls JWT validation.
type Config struct {
	// Scheme selects how the header value is parsed. Defaults to Bearer.
	Scheme Scheme
	// HeaderName is the header carrying the token. Defaults to
	// "Authorization".
	HeaderName string
	// SecretKey is the HMAC-SHA256 verification secret. Required unless
	// Validator is supplied.
	SecretKey []byte
	// Validator, if set, replaces SecretKey-based verification with a
	// caller-supplied validation function (e.g. for RS256 or an external
	// introspection call).
	Validator func(token string) (Claims, error)
	// Issuer, if non-empty, must match the token's "iss" claim exactly.
	Issuer string
	// Audience, if non-empty, must equal or be contained in the token's
	// "aud" claim.
	Audience string
	// ExpirationTolerance extends the expiry check by this duration,
	// accommodating clock skew between issuer and verifier. Defaults to
	// 300 seconds.
	ExpirationTolerance time.Duration
}

func (c Config) withDefaults() Config {
	if c.Scheme == "" {
		c.Scheme = SchemeBearer
	}
	if c.HeaderName == "" {
		c.HeaderName = "Authorization"
	}
	if c.ExpirationTolerance == 0 {
		c.ExpirationTolerance = 300 * time.Second
	}
	return c
}

// Middleware is the JWT auth built-in. It runs at priority 150, in the
// 100-199 authentication band.
type Middleware struct {
	cfg      Config
	enabled  bool
	priority int
}

// NewMiddleware validates cfg and builds a JWT authentication middleware.
// A config with neither a SecretKey nor a Validator is rejected. Any
// non-empty SecretKey is accepted; the framework does not impose a
// minimum HMAC key length, leaving that policy decision to the deployer.
func NewMiddleware(cfg Config) (*Middleware, error) {
	if len(cfg.SecretKey) == 0 && cfg.Validator == nil {
		return nil, errors.New("auth: a SecretKey or a Validator is required")
	}
	cfg = cfg.withDefaults()
	return &Middleware{cfg: cfg, enabled: true, priority: 150}, nil
}

func (m *Middleware) Handle(req *record.Request, ctx *middleware.Context, next middleware.Next) *record.Response {
	claims, err := m.authenticate(req)
	if err != nil {
		return unauthorizedResponse(err)
	}

	ctx.SetBool("authenticated", true)
	ctx.SetString("user_id", claims.UserID)
	ctx.Set("roles", middleware.StringSliceValue(claims.Roles))
	ctx.SetString("jwt_issuer", claims.Issuer)
	ctx.SetString("jwt_audience", claims.Audience)
	ctx.SetInt("jwt_expiration", claims.ExpiresAt.Unix())
	ctx.SetInt("jwt_issued_at", claims.IssuedAt.Unix())
	ctx.SetInt("auth_timestamp", time.Now().Unix())

	return next(req, ctx)
}

func (m *Middleware) Name() string  { return "auth" }
func (m *Middleware) Priority() int { return m.priority }
func (m *Middleware) Enabled() bool { return m.enabled }

// SetEnabled toggles whether the middleware runs.
func (m *Middleware) SetEnabled(enabled bool) { m.enabled = enabled }

// SetPriority overrides the default priority (150).
func (m *Middleware) SetPriority(p int) { m.priority = p }

func (m *Middleware) authenticate(req *record.Request) (Claims, error) {
	raw := req.Header(m.cfg.HeaderName)
	if raw == "" {
		return Claims{}, ErrMissingHeader
	}

	token, err := m.extractToken(raw)
	if err != nil {
		return Claims{}, err
	}

	if m.cfg.Validator != nil {
		return m.cfg.Validator(token)
	}
	return m.validateJWT(token)
}

func (m *Middleware) extractToken(raw string) (string, error) {
	switch m.cfg.Scheme {
	case SchemeCustom:
		return raw, nil
	case SchemeJWT:
		if strings.HasPrefix(raw, "Bearer ") {
			raw = strings.TrimPrefix(raw, "Bearer ")
		}
		if raw == "" {
			return "", ErrMissingHeader
		}
		return raw, nil
	default: // SchemeBearer
		if !strings.HasPrefix(raw, "Bearer ") {
			return "", ErrMissingHeader
		}
		token := strings.TrimPrefix(raw, "Bearer ")
		if token == "" {
			return "", ErrMissingHeader
		}
		return token, nil
	}
}

// validateJWT runs the framework's seven-step validation pipeline. It
// uses jwt/v5's parser for the HMAC-SHA256 signature-verification
// plumbing (step 2) and base64/JSON decoding (step 3), but classifies
// the library's typed errors back into this package's own error
// taxonomy, since jwt/v5 does not distinguish "malformed" from
// "bad signature" from "expired" the way this validation pipeline must.
func (m *Middleware) validateJWT(tokenString string) (Claims, error) {
	if strings.Count(tokenString, ".") != 2 {
		return Claims{}, ErrInvalidFormat
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(m.cfg.ExpirationTolerance),
	)

	token, err := parser.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidSignature
		}
		return m.cfg.SecretKey, nil
	})

	if err != nil {
		return Claims{}, classifyJWTError(err)
	}
	if !token.Valid {
		return Claims{}, ErrInvalidSignature
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, ErrPayloadParseFailed
	}

	if m.cfg.Issuer != "" {
		iss, _ := mapClaims["iss"].(string)
		if iss != m.cfg.Issuer {
			return Claims{}, ErrIssuerMismatch
		}
	}
	if m.cfg.Audience != "" && !audienceMatches(mapClaims["aud"], m.cfg.Audience) {
		return Claims{}, ErrAudienceMismatch
	}

	return mapClaimsToClaims(mapClaims), nil
}

func classifyJWTError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrInvalidFormat
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrInvalidSignature
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return ErrIssuerMismatch
	case errors.Is(err, jwt.ErrTokenInvalidAudience):
		return ErrAudienceMismatch
	default:
		var jsonErr *json.SyntaxError
		if errors.As(err, &jsonErr) {
			return ErrPayloadInvalidJSON
		}
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
}

func audienceMatches(aud any, want string) bool {
	switch v := aud.(type) {
	case string:
		return v == want
	case []string:
		for _, a := range v {
			if a == want {
				return true
			}
		}
	case []any:
		for _, a := range v {
			if s, ok := a.(string); ok && s == want {
				return true
			}
		}
	}
	return false
}

func mapClaimsToClaims(mc jwt.MapClaims) Claims {
	c := Claims{}

	if sub, ok := mc["sub"].(string); ok {
		c.UserID = sub
	} else if uid, ok := mc["user_id"].(string); ok {
		c.UserID = uid
	}

	switch roles := mc["roles"].(type) {
	case string:
		c.Roles = []string{roles}
	case []any:
		for _, r := range roles {
			if s, ok := r.(string); ok {
				c.Roles = append(c.Roles, s)
			}
		}
	}

	if iss, ok := mc["iss"].(string); ok {
		c.Issuer = iss
	}
	if aud, ok := mc["aud"].(string); ok {
		c.Audience = aud
	}
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		c.ExpiresAt = exp.Time
	}
	if iat, err := mc.GetIssuedAt(); err == nil && iat != nil {
		c.IssuedAt = iat.Time
	}

	return c
}

func unauthorizedResponse(cause error) *record.Response {
	resp := record.NewResponse(401)
	resp.SetHeader("WWW-Authenticate", "Bearer")
	body, _ := json.Marshal(map[string]any{
		"error":     "unauthorized",
		"message":   cause.Error(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
	resp.SetBody(body)
	resp.SetContentType("application/json")
	return resp
}
