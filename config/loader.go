package config

import (
	"errors"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadOptions controls how Load behaves beyond the file path.
type LoadOptions struct {
	// DisableEnvSubstitution skips the "${NAME}" environment substitution
	// pass. Substitution is enabled by default.
	DisableEnvSubstitution bool
}

// Load reads path, parses it as the canonical "middleware:" YAML shape,
// applies environment substitution, and validates the result. Any failure
// is returned as a *LoadError carrying one of the documented ErrorKind
// values; a schema violation is reported as VALIDATION_FAILED carrying the
// *ValidationError's message text (the *ValidationError itself is not
// wrapped).
func Load(path string) (*Config, error) {
	return LoadWithOptions(path, LoadOptions{})
}

// LoadWithOptions is Load with explicit options.
func LoadWithOptions(path string, opts LoadOptions) (*Config, error) {
	raw, err := readFile(path)
	if err != nil {
		return nil, err
	}
	return parse(raw, opts)
}

func readFile(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, newLoadError(ErrorKindFileNotFound, "config file not found: %s", path)
		}
		return nil, newLoadError(ErrorKindFileNotFound, "reading %s: %v", path, err)
	}
	return raw, nil
}

// Parse behaves like Load but reads YAML already in memory, useful for
// tests and for hot-reload re-parsing of a watched file's freshly read
// bytes.
func Parse(raw []byte) (*Config, error) {
	return parse(raw, LoadOptions{})
}

func parse(raw []byte, opts LoadOptions) (*Config, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, newLoadError(ErrorKindInvalidYAML, "%v", err)
	}
	if len(doc.Content) == 0 {
		return &Config{}, nil
	}

	if !opts.DisableEnvSubstitution {
		substituteEnvNode(&doc)
	}

	var wrapper struct {
		Middleware struct {
			Global    []MiddlewareInstanceConfig `yaml:"global"`
			Routes    yaml.Node                  `yaml:"routes"`
			HotReload HotReloadConfig            `yaml:"hot_reload"`
		} `yaml:"middleware"`
	}
	if err := doc.Decode(&wrapper); err != nil {
		return nil, newLoadError(ErrorKindInvalidYAML, "%v", err)
	}

	routes, err := decodeRoutes(&wrapper.Middleware.Routes)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Global:    wrapper.Middleware.Global,
		Routes:    routes,
		HotReload: wrapper.Middleware.HotReload,
	}

	if err := cfg.Validate(); err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			return nil, &LoadError{Kind: ErrorKindValidationFailed, Message: verr.Error()}
		}
		return nil, newLoadError(ErrorKindValidationFailed, "%v", err)
	}

	return cfg, nil
}

// decodeRoutes handles the "routes" mapping's dual per-pattern shape: a
// bare sequence of middleware instances (implicit glob, non-regex), or a
// mapping object carrying "is_regex" and "middlewares" alongside it.
func decodeRoutes(node *yaml.Node) ([]RouteMiddlewareConfig, error) {
	if node.Kind == 0 {
		return nil, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, newLoadError(ErrorKindInvalidValue, "middleware.routes must be a mapping of pattern to middleware list")
	}

	routes := make([]RouteMiddlewareConfig, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode := node.Content[i]
		valNode := node.Content[i+1]

		route := RouteMiddlewareConfig{Pattern: keyNode.Value}

		switch valNode.Kind {
		case yaml.SequenceNode:
			if err := valNode.Decode(&route.Middlewares); err != nil {
				return nil, newLoadError(ErrorKindInvalidValue, "route %q: %v", route.Pattern, err)
			}
		case yaml.MappingNode:
			var obj struct {
				IsRegex     bool                       `yaml:"is_regex"`
				Middlewares []MiddlewareInstanceConfig `yaml:"middlewares"`
			}
			if err := valNode.Decode(&obj); err != nil {
				return nil, newLoadError(ErrorKindInvalidValue, "route %q: %v", route.Pattern, err)
			}
			route.IsRegex = obj.IsRegex
			route.Middlewares = obj.Middlewares
		default:
			return nil, newLoadError(ErrorKindInvalidValue, "route %q: expected a list or an object", route.Pattern)
		}

		routes = append(routes, route)
	}
	return routes, nil
}
