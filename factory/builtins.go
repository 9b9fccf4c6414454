package factory

import (
	"fmt"
	"time"

	"github.com/iruldev/switchboard/authz"
	"github.com/iruldev/switchboard/config"
	"github.com/iruldev/switchboard/cors"
	"github.com/iruldev/switchboard/logging"
	"github.com/iruldev/switchboard/middleware"
	"github.com/iruldev/switchboard/ratelimit"

	authpkg "github.com/iruldev/switchboard/auth"
)

// settable is implemented by every built-in middleware: the factory applies
// an instance config's Enabled/Priority on top of whatever the constructor
// set as its own default. Enabled is always applied; Priority is applied
// only when non-zero, so a zero priority keeps the constructor's default.
type settable interface {
	SetEnabled(bool)
	SetPriority(int)
}

func applyInstanceConfig(mw settable, cfg config.MiddlewareInstanceConfig) {
	mw.SetEnabled(cfg.Enabled)
	if cfg.Priority != 0 {
		mw.SetPriority(cfg.Priority)
	}
}

func registerBuiltins(f *Factory) {
	f.Register("cors", newCORS)
	f.Register("logging", newLogging)
	f.Register("auth", newAuth)
	f.Register("rate_limit", newRateLimit)
	f.Register("authz", newAuthz)
}

func newCORS(cfg config.MiddlewareInstanceConfig) (middleware.Middleware, error) {
	corsCfg := cors.DefaultConfig()
	if origins := cfg.GetStringSlice("allowed_origins", nil); origins != nil {
		corsCfg.AllowedOrigins = origins
	}
	if methods := cfg.GetStringSlice("allowed_methods", nil); methods != nil {
		corsCfg.AllowedMethods = methods
	}
	if headers := cfg.GetStringSlice("allowed_headers", nil); headers != nil {
		corsCfg.AllowedHeaders = headers
	}
	corsCfg.AllowCredentials = cfg.GetBool("allow_credentials", corsCfg.AllowCredentials)
	corsCfg.MaxAgeSeconds = cfg.GetInt("max_age_seconds", corsCfg.MaxAgeSeconds)

	mw, err := cors.NewMiddleware(corsCfg)
	if err != nil {
		return nil, err
	}
	applyInstanceConfig(mw, cfg)
	return mw, nil
}

func newLogging(cfg config.MiddlewareInstanceConfig) (middleware.Middleware, error) {
	logger, err := logging.NewLogger(logging.Config{
		Level:      cfg.GetString("level", "info"),
		Format:     cfg.GetString("format", "json"),
		Production: cfg.GetBool("production", false),
	})
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	mw := logging.NewLoggingMiddleware(logger)
	applyInstanceConfig(mw, cfg)
	return mw, nil
}

func newAuth(cfg config.MiddlewareInstanceConfig) (middleware.Middleware, error) {
	secret := cfg.GetString("secret", "")
	authCfg := authpkg.Config{
		Scheme:              authpkg.Scheme(cfg.GetString("scheme", string(authpkg.SchemeBearer))),
		HeaderName:          cfg.GetString("header_name", "Authorization"),
		SecretKey:           []byte(secret),
		Issuer:              cfg.GetString("issuer", ""),
		Audience:            cfg.GetString("audience", ""),
		ExpirationTolerance: time.Duration(cfg.GetInt("expiration_tolerance_seconds", 300)) * time.Second,
	}
	mw, err := authpkg.NewMiddleware(authCfg)
	if err != nil {
		return nil, err
	}
	applyInstanceConfig(mw, cfg)
	return mw, nil
}

func newRateLimit(cfg config.MiddlewareInstanceConfig) (middleware.Middleware, error) {
	rlCfg := ratelimit.Config{
		Strategy: ratelimit.Strategy(cfg.GetString("strategy", string(ratelimit.StrategyIP))),
		Bucket: ratelimit.BucketConfig{
			MaxTokens:    cfg.GetFloat("max_tokens", 60),
			RefillRate:   cfg.GetFloat("refill_rate", 60),
			RefillWindow: ratelimit.Window(cfg.GetString("refill_window", string(ratelimit.WindowMinute))),
			BurstAllowed: cfg.GetBool("burst_allowed", false),
			BurstSize:    cfg.GetFloat("burst_size", 0),
		},
		SkipAuthenticated: cfg.GetBool("skip_authenticated", false),
		Whitelist:         cfg.GetStringSlice("whitelist", nil),
		Blacklist:         cfg.GetStringSlice("blacklist", nil),
	}
	mw, err := ratelimit.NewMiddleware(rlCfg)
	if err != nil {
		return nil, err
	}
	applyInstanceConfig(mw, cfg)
	return mw, nil
}

func newAuthz(cfg config.MiddlewareInstanceConfig) (middleware.Middleware, error) {
	mode := authz.ModeAny
	if cfg.GetString("mode", string(authz.ModeAny)) == string(authz.ModeAll) {
		mode = authz.ModeAll
	}
	mw := authz.NewMiddleware(authz.Config{
		RequiredRoles: cfg.GetStringSlice("required_roles", nil),
		Mode:          mode,
	})
	applyInstanceConfig(mw, cfg)
	return mw, nil
}
