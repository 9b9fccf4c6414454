// Package config models the YAML-driven middleware configuration described
// in the framework's external interface: a global middleware list, a set of
// per-route middleware lists keyed by glob or regex pattern, and an optional
// hot-reload policy.
//
// Validation follows the internal/config/validate.go style: a single pass
// collects every violation instead of failing on the first one, returned
// as a *ValidationError.
package config

import (
	"fmt"
	"regexp"
)

// MiddlewareInstanceConfig describes one middleware instance: which built-in
// or plugin-registered type to construct, whether it participates, its
// position in priority order, and type-specific options.
type MiddlewareInstanceConfig struct {
	Name     string         `yaml:"name"`
	Enabled  bool           `yaml:"enabled"`
	Priority int            `yaml:"priority"`
	Options  map[string]any `yaml:"config"`
}

func (c MiddlewareInstanceConfig) validate() []string {
	var errs []string
	if c.Name == "" {
		errs = append(errs, "middleware name must not be empty")
	}
	if c.Priority < -1000 || c.Priority > 1000 {
		errs = append(errs, fmt.Sprintf("middleware %q: priority %d out of range [-1000, 1000]", c.Name, c.Priority))
	}
	return errs
}

// GetString returns the string-typed option value under key, or def if
// absent or of a different underlying type.
func (c MiddlewareInstanceConfig) GetString(key, def string) string {
	v, ok := c.Options[key]
	if !ok {
		return def
	}
	s, ok := v.(string)
	if !ok {
		return def
	}
	return s
}

// GetBool returns the bool-typed option value under key, or def otherwise.
func (c MiddlewareInstanceConfig) GetBool(key string, def bool) bool {
	v, ok := c.Options[key]
	if !ok {
		return def
	}
	b, ok := v.(bool)
	if !ok {
		return def
	}
	return b
}

// GetInt returns the option value under key coerced to int, or def if
// absent or not numeric. YAML decodes bare integers as int.
func (c MiddlewareInstanceConfig) GetInt(key string, def int) int {
	v, ok := c.Options[key]
	if !ok {
		return def
	}
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return def
	}
}

// GetFloat returns the option value under key coerced to float64, or def.
func (c MiddlewareInstanceConfig) GetFloat(key string, def float64) float64 {
	v, ok := c.Options[key]
	if !ok {
		return def
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return def
	}
}

// GetStringSlice returns the option value under key as a []string, or def.
// YAML sequences decode as []any, so each element is coerced individually;
// a non-string element causes the whole slice to fall back to def.
func (c MiddlewareInstanceConfig) GetStringSlice(key string, def []string) []string {
	v, ok := c.Options[key]
	if !ok {
		return def
	}
	raw, ok := v.([]any)
	if !ok {
		return def
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		s, ok := item.(string)
		if !ok {
			return def
		}
		out = append(out, s)
	}
	return out
}

// RouteMiddlewareConfig binds an ordered middleware list to a route pattern,
// matched either as a glob (the default) or, when IsRegex is set, as a
// compiled regular expression.
type RouteMiddlewareConfig struct {
	Pattern     string                     `yaml:"pattern"`
	IsRegex     bool                       `yaml:"is_regex"`
	Middlewares []MiddlewareInstanceConfig `yaml:"middlewares"`

	compiled *regexp.Regexp
}

func (r *RouteMiddlewareConfig) validate() []string {
	var errs []string
	if r.Pattern == "" {
		errs = append(errs, "route pattern must not be empty")
		return errs
	}
	if r.IsRegex {
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			errs = append(errs, fmt.Sprintf("route %q: invalid regex: %v", r.Pattern, err))
		} else {
			r.compiled = re
		}
	}
	for _, mw := range r.Middlewares {
		errs = append(errs, mw.validate()...)
	}
	return errs
}

// Matches reports whether path satisfies this route's pattern, using glob
// matching (the single-segment "*" wildcard plus literal path.Match
// semantics) or the compiled regular expression.
func (r *RouteMiddlewareConfig) Matches(path string) bool {
	if r.IsRegex {
		if r.compiled == nil {
			re, err := regexp.Compile(r.Pattern)
			if err != nil {
				return false
			}
			r.compiled = re
		}
		return r.compiled.MatchString(path)
	}
	return globMatch(r.Pattern, path)
}

// HotReloadConfig governs whether and how a Watcher re-reads configuration
// from disk.
type HotReloadConfig struct {
	Enabled              bool     `yaml:"enabled"`
	CheckIntervalSeconds int      `yaml:"check_interval"`
	WatchedFiles         []string `yaml:"watched_files"`
	ReloadOnChange       bool     `yaml:"reload_on_change"`
	ValidateBeforeReload bool     `yaml:"validate_before_reload"`
}

func (h HotReloadConfig) validate() []string {
	var errs []string
	if !h.Enabled {
		return errs
	}
	if h.CheckIntervalSeconds < 1 {
		errs = append(errs, "hot_reload.check_interval must be >= 1 when enabled")
	}
	if len(h.WatchedFiles) == 0 {
		errs = append(errs, "hot_reload.watched_files must be non-empty when enabled")
	}
	return errs
}

// Config is the top-level, comprehensive configuration: the middleware
// applied to every request, the per-route overrides, and the hot-reload
// policy.
type Config struct {
	Global     []MiddlewareInstanceConfig `yaml:"global"`
	Routes     []RouteMiddlewareConfig    `yaml:"routes"`
	HotReload  HotReloadConfig            `yaml:"hot_reload"`
}

// Validate collects every schema violation instead of stopping at the
// first.
func (c *Config) Validate() error {
	var errs []string

	for i := range c.Global {
		errs = append(errs, c.Global[i].validate()...)
	}

	seen := make(map[string]bool, len(c.Routes))
	for i := range c.Routes {
		route := &c.Routes[i]
		if seen[route.Pattern] {
			errs = append(errs, fmt.Sprintf("duplicate route pattern %q", route.Pattern))
		}
		seen[route.Pattern] = true
		errs = append(errs, route.validate()...)
	}

	errs = append(errs, c.HotReload.validate()...)

	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}

// EffectiveMiddleware returns the middleware list that applies to path:
// the global list plus the first matching route's middlewares, deduplicated
// by name with route entries taking precedence over global ones of the same
// name. The caller is expected to priority-sort the result (e.g. by handing
// it to a Pipeline), but entries are also returned in priority-descending
// order here for callers that want it directly.
func (c *Config) EffectiveMiddleware(path string) []MiddlewareInstanceConfig {
	byName := make(map[string]MiddlewareInstanceConfig, len(c.Global))
	order := make([]string, 0, len(c.Global))
	for _, mw := range c.Global {
		if _, exists := byName[mw.Name]; !exists {
			order = append(order, mw.Name)
		}
		byName[mw.Name] = mw
	}

	for i := range c.Routes {
		route := &c.Routes[i]
		if !route.Matches(path) {
			continue
		}
		for _, mw := range route.Middlewares {
			if _, exists := byName[mw.Name]; !exists {
				order = append(order, mw.Name)
			}
			byName[mw.Name] = mw
		}
		break
	}

	result := make([]MiddlewareInstanceConfig, 0, len(order))
	for _, name := range order {
		result = append(result, byName[name])
	}
	sortByPriorityDescending(result)
	return result
}

func sortByPriorityDescending(cfgs []MiddlewareInstanceConfig) {
	for i := 1; i < len(cfgs); i++ {
		j := i
		for j > 0 && cfgs[j-1].Priority < cfgs[j].Priority {
			cfgs[j-1], cfgs[j] = cfgs[j], cfgs[j-1]
			j--
		}
	}
}
