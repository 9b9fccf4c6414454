package config

import (
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

var envPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// substituteEnv replaces every "${NAME}" occurrence in s with the value of
// the environment variable NAME, an unset variable substituting empty
// string. Follows the env-overlay pass in internal/config/loader.go,
// generalized from that loader's prefix-mapped env vars (APP_, DB_, ...)
// to inline ${NAME} substitution anywhere in a config value.
func substituteEnv(s string) string {
	return envPattern.ReplaceAllStringFunc(s, func(match string) string {
		name := envPattern.FindStringSubmatch(match)[1]
		return os.Getenv(name)
	})
}

// substituteEnvNode walks a parsed yaml.Node tree in place, replacing every
// string scalar's content with its env-substituted form. It runs after
// parsing but before decoding into Config, so substitution applies equally
// to map keys (route patterns), string values, and nested option maps.
func substituteEnvNode(n *yaml.Node) {
	if n == nil {
		return
	}
	if n.Kind == yaml.ScalarNode && n.Tag == "!!str" {
		n.Value = substituteEnv(n.Value)
	}
	for _, child := range n.Content {
		substituteEnvNode(child)
	}
}
