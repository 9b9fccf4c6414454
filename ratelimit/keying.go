package ratelimit

import (
	"strings"

	"github.com/iruldev/switchboard/middleware"
	"github.com/iruldev/switchboard/record"
)

// Strategy selects how a request's rate-limit key is derived.
type Strategy string

const (
	StrategyIP       Strategy = "ip"
	StrategyUser     Strategy = "user"
	StrategyCombined Strategy = "combined"
	StrategyCustom   Strategy = "custom"
)

// KeyFunc derives a rate-limit key from the request and its context. An
// empty return value means "do not rate limit this request" (only
// meaningful for StrategyCustom).
type KeyFunc func(req *record.Request, ctx *middleware.Context) string

// clientIP resolves the client's address from, in order, X-Forwarded-For
// (first comma-separated value), X-Real-IP, X-Client-IP, falling back to
// a documented placeholder when the transport provides no peer address
// — implementers embedding this middleware behind a real transport
// SHOULD prefer the transport-provided peer address over this fallback.
func clientIP(req *record.Request) string {
	if xff := req.Header("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}
	if xri := req.Header("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	if xci := req.Header("X-Client-IP"); xci != "" {
		return strings.TrimSpace(xci)
	}
	return "unknown"
}

func ipKey(req *record.Request, _ *middleware.Context) string {
	return "ip:" + clientIP(req)
}

func userKey(req *record.Request, ctx *middleware.Context) string {
	if ctx.GetBool("authenticated", false) {
		if uid := ctx.GetString("user_id", ""); uid != "" {
			return "user:" + uid
		}
	}
	return ipKey(req, ctx)
}

func combinedKey(req *record.Request, ctx *middleware.Context) string {
	if ctx.GetBool("authenticated", false) {
		if uid := ctx.GetString("user_id", ""); uid != "" {
			return "combined:" + clientIP(req) + ":" + uid
		}
	}
	return ipKey(req, ctx)
}

// keyFuncFor returns the built-in KeyFunc for strategy; any strategy other
// than StrategyUser and StrategyCombined, StrategyCustom included, gets
// ipKey.
func keyFuncFor(strategy Strategy) KeyFunc {
	switch strategy {
	case StrategyUser:
		return userKey
	case StrategyCombined:
		return combinedKey
	default:
		return ipKey
	}
}
