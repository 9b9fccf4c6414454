package config

import "path"

// globMatch matches pattern against name using the stdlib path.Match rules:
// "*" matches any sequence of non-separator characters, "?" matches any
// single non-separator character. It is the glob mode named in the route
// middleware config's pattern semantics; no third-party glob matcher in the
// retrieval pack covers this narrow a need, so path.Match (Go's own
// shell-style matcher) is used directly rather than hand-rolling one.
func globMatch(pattern, name string) bool {
	matched, err := path.Match(pattern, name)
	if err != nil {
		return false
	}
	return matched
}
