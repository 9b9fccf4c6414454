// Package record defines the Request and Response value types that flow
// through a switchboard pipeline. They are produced and consumed by the
// transport (HTTP/1.1 or HTTP/2 wire implementations), which is out of
// scope for this module.
package record

import (
	"strings"
)

// Method is the canonical enum tag for the HTTP methods this module
// understands. Any other method string is still accepted by Request
// (canonicalized to uppercase) but maps to MethodUnknown.
type Method string

const (
	MethodGet     Method = "GET"
	MethodPost    Method = "POST"
	MethodPut     Method = "PUT"
	MethodDelete  Method = "DELETE"
	MethodPatch   Method = "PATCH"
	MethodHead    Method = "HEAD"
	MethodOptions Method = "OPTIONS"
	MethodUnknown Method = ""
)

func parseMethod(s string) Method {
	switch Method(s) {
	case MethodGet, MethodPost, MethodPut, MethodDelete, MethodPatch, MethodHead, MethodOptions:
		return Method(s)
	default:
		return MethodUnknown
	}
}

// Request is the canonical, protocol-independent representation of an
// inbound HTTP request. It is created once per request by the transport
// and is immutable in the segments that matter for routing (method, path)
// but supports header/query/path-param mutation used by middleware.
type Request struct {
	method      string
	methodEnum  Method
	path        string
	protocol    string
	headers     map[string]string // preserves last-set casing; lookup is case-insensitive
	query       map[string]string
	pathParams  map[string]string
	body        []byte
	streamID    int
}

// NewRequest constructs a Request, canonicalizing method to uppercase and
// splitting any "?query" suffix out of path into the query parameter map.
// After construction, Path() never contains "?".
func NewRequest(method, path, protocol string) *Request {
	r := &Request{
		method:     strings.ToUpper(method),
		path:       path,
		protocol:   protocol,
		headers:    make(map[string]string),
		query:      make(map[string]string),
		pathParams: make(map[string]string),
	}
	r.methodEnum = parseMethod(r.method)

	if idx := strings.IndexByte(path, '?'); idx >= 0 {
		r.path = path[:idx]
		r.parseQueryString(path[idx+1:])
	}
	return r
}

func (r *Request) parseQueryString(qs string) {
	for _, pair := range strings.Split(qs, "&") {
		if pair == "" {
			continue
		}
		if idx := strings.IndexByte(pair, '='); idx >= 0 {
			r.query[pair[:idx]] = pair[idx+1:]
		} else {
			r.query[pair] = ""
		}
	}
}

// Method returns the canonical uppercase HTTP method string.
func (r *Request) Method() string { return r.method }

// MethodEnum returns the enum tag for Method, or MethodUnknown for methods
// outside the fixed set this module enumerates.
func (r *Request) MethodEnum() Method { return r.methodEnum }

// Path returns the request path with any query string already stripped.
func (r *Request) Path() string { return r.path }

// Protocol returns the protocol tag, e.g. "HTTP/1.1" or "HTTP/2".
func (r *Request) Protocol() string { return r.protocol }

// StreamID returns the multiplexed stream identifier, or zero when the
// transport is not multiplexed (e.g. HTTP/1.1).
func (r *Request) StreamID() int { return r.streamID }

// SetStreamID sets the stream identifier. Used by HTTP/2-aware transports.
func (r *Request) SetStreamID(id int) { r.streamID = id }

// Header retrieves a header value by name, case-insensitively.
func (r *Request) Header(name string) string {
	if v, ok := r.headers[name]; ok {
		return v
	}
	lower := strings.ToLower(name)
	for k, v := range r.headers {
		if strings.ToLower(k) == lower {
			return v
		}
	}
	return ""
}

// SetHeader sets a header value. Later writes with a different case for
// the same name replace the prior entry rather than duplicating it.
func (r *Request) SetHeader(name, value string) {
	lower := strings.ToLower(name)
	for k := range r.headers {
		if strings.ToLower(k) == lower {
			delete(r.headers, k)
			break
		}
	}
	r.headers[name] = value
}

// Headers returns the underlying header map. Callers must not mutate it
// directly; use SetHeader for case-insensitive replacement semantics.
func (r *Request) Headers() map[string]string { return r.headers }

// QueryParam returns a query parameter value, or "" if absent.
func (r *Request) QueryParam(name string) string { return r.query[name] }

// SetQueryParam sets a query parameter value.
func (r *Request) SetQueryParam(name, value string) { r.query[name] = value }

// QueryParams returns the full query parameter map.
func (r *Request) QueryParams() map[string]string { return r.query }

// PathParam returns a path parameter bound by route matching, or "" if
// the route had no such placeholder.
func (r *Request) PathParam(name string) string { return r.pathParams[name] }

// SetPathParam binds a path parameter. Called by the route registry after
// a successful match.
func (r *Request) SetPathParam(name, value string) { r.pathParams[name] = value }

// PathParams returns the full path parameter map bound for this request.
func (r *Request) PathParams() map[string]string { return r.pathParams }

// Body returns the raw request body bytes.
func (r *Request) Body() []byte { return r.body }

// BodyText surfaces the body as text for callers that want a string view.
func (r *Request) BodyText() string { return string(r.body) }

// SetBody replaces the request body.
func (r *Request) SetBody(body []byte) { r.body = body }

// ContentType is a convenience accessor for the Content-Type header.
func (r *Request) ContentType() string { return r.Header("Content-Type") }

// IsJSON reports whether the Content-Type header names a JSON payload.
func (r *Request) IsJSON() bool {
	return strings.Contains(r.ContentType(), "application/json")
}

// IsFormData reports whether the Content-Type header names a form payload,
// either urlencoded or multipart.
func (r *Request) IsFormData() bool {
	ct := r.ContentType()
	return strings.Contains(ct, "application/x-www-form-urlencoded") ||
		strings.Contains(ct, "multipart/form-data")
}
