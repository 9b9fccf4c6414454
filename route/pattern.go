package route

import (
	"fmt"
	"strings"
)

type segmentKind int

const (
	segmentLiteral segmentKind = iota
	segmentPlaceholder
	segmentWildcard
)

type segment struct {
	kind segmentKind
	text string // literal text, or placeholder name
}

// pattern is a compiled route pattern: a sequence of segments derived from
// a "/"-delimited path template. A trailing "*" segment, if present, is
// always the last element of segments and matches zero or more remaining
// request segments.
type pattern struct {
	raw      string
	segments []segment
	wildcard bool
}

// compilePattern splits pattern text into segments and validates that a
// "*" wildcard, if present, is the last segment. Empty leading/trailing
// slashes are ignored consistently with splitPath.
func compilePattern(raw string) (*pattern, error) {
	parts := splitPath(raw)
	p := &pattern{raw: raw, segments: make([]segment, 0, len(parts))}

	for i, part := range parts {
		switch {
		case part == "*":
			if i != len(parts)-1 {
				return nil, fmt.Errorf("route: wildcard %q must be the last segment in pattern %q", part, raw)
			}
			p.segments = append(p.segments, segment{kind: segmentWildcard})
			p.wildcard = true
		case strings.HasPrefix(part, "{") && strings.HasSuffix(part, "}") && len(part) > 2:
			name := part[1 : len(part)-1]
			p.segments = append(p.segments, segment{kind: segmentPlaceholder, text: name})
		default:
			p.segments = append(p.segments, segment{kind: segmentLiteral, text: part})
		}
	}
	return p, nil
}

// splitPath splits a "/"-delimited path into segments, dropping empty
// leading/trailing segments so "/a/b/", "/a/b", and "a/b" all split the
// same way.
func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

// match attempts to match the pattern against request segments, returning
// bound path parameters on success.
func (p *pattern) match(reqSegments []string) (map[string]string, bool) {
	if p.wildcard {
		prefix := p.segments[:len(p.segments)-1]
		if len(reqSegments) < len(prefix) {
			return nil, false
		}
	} else if len(reqSegments) != len(p.segments) {
		return nil, false
	}

	params := make(map[string]string)
	for i, seg := range p.segments {
		if seg.kind == segmentWildcard {
			break
		}
		switch seg.kind {
		case segmentLiteral:
			if reqSegments[i] != seg.text {
				return nil, false
			}
		case segmentPlaceholder:
			params[seg.text] = reqSegments[i]
		}
	}
	return params, true
}

// literalCount, placeholderCount are used by the precedence comparator.
func (p *pattern) literalCount() int {
	n := 0
	for _, s := range p.segments {
		if s.kind == segmentLiteral {
			n++
		}
	}
	return n
}

func (p *pattern) placeholderCount() int {
	n := 0
	for _, s := range p.segments {
		if s.kind == segmentPlaceholder {
			n++
		}
	}
	return n
}

// less implements the deterministic route-precedence tie-break:
// (a) more literal segments wins, (b) fewer placeholders wins,
// (c) no trailing wildcard wins, (d) lexicographic pattern order.
func (p *pattern) less(other *pattern) bool {
	if p.literalCount() != other.literalCount() {
		return p.literalCount() > other.literalCount()
	}
	if p.placeholderCount() != other.placeholderCount() {
		return p.placeholderCount() < other.placeholderCount()
	}
	if p.wildcard != other.wildcard {
		return !p.wildcard
	}
	return p.raw < other.raw
}
