package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequest_ParsesQueryString(t *testing.T) {
	r := NewRequest("get", "/api/users?page=1&limit=10", "HTTP/1.1")

	assert.Equal(t, "GET", r.Method())
	assert.Equal(t, MethodGet, r.MethodEnum())
	assert.Equal(t, "/api/users", r.Path())
	assert.NotContains(t, r.Path(), "?")
	assert.Equal(t, "1", r.QueryParam("page"))
	assert.Equal(t, "10", r.QueryParam("limit"))
}

func TestNewRequest_NoQueryString(t *testing.T) {
	r := NewRequest("POST", "/api/users", "HTTP/2")
	assert.Equal(t, "/api/users", r.Path())
	assert.Empty(t, r.QueryParams())
}

func TestNewRequest_UnknownMethodEnum(t *testing.T) {
	r := NewRequest("TRACE", "/x", "HTTP/1.1")
	assert.Equal(t, "TRACE", r.Method())
	assert.Equal(t, MethodUnknown, r.MethodEnum())
}

func TestRequest_HeaderCaseInsensitive(t *testing.T) {
	r := NewRequest("GET", "/", "HTTP/1.1")
	r.SetHeader("Content-Type", "application/json")

	assert.Equal(t, "application/json", r.Header("Content-Type"))
	assert.Equal(t, "application/json", r.Header("content-type"))
	assert.Equal(t, "application/json", r.Header("CONTENT-TYPE"))
	assert.Empty(t, r.Header("X-Missing"))
}

func TestRequest_SetHeaderReplacesPriorCasing(t *testing.T) {
	r := NewRequest("GET", "/", "HTTP/1.1")
	r.SetHeader("X-Trace", "a")
	r.SetHeader("x-trace", "b")

	require.Len(t, r.Headers(), 1)
	assert.Equal(t, "b", r.Header("X-Trace"))
}

func TestRequest_QueryAndPathParams(t *testing.T) {
	r := NewRequest("GET", "/", "HTTP/1.1")
	r.SetQueryParam("sort", "name")
	r.SetPathParam("id", "456")

	assert.Equal(t, "name", r.QueryParam("sort"))
	assert.Equal(t, "456", r.PathParam("id"))
	assert.Empty(t, r.PathParam("missing"))
}

func TestRequest_Body(t *testing.T) {
	r := NewRequest("POST", "/", "HTTP/1.1")
	r.SetBody([]byte(`{"name":"test"}`))

	assert.Equal(t, `{"name":"test"}`, r.BodyText())
}

func TestRequest_ContentTypePredicates(t *testing.T) {
	r := NewRequest("POST", "/", "HTTP/1.1")

	r.SetHeader("Content-Type", "application/json; charset=utf-8")
	assert.True(t, r.IsJSON())
	assert.False(t, r.IsFormData())

	r.SetHeader("Content-Type", "multipart/form-data; boundary=x")
	assert.False(t, r.IsJSON())
	assert.True(t, r.IsFormData())
}

func TestRequest_StreamID(t *testing.T) {
	r := NewRequest("GET", "/", "HTTP/2")
	assert.Zero(t, r.StreamID())

	r.SetStreamID(7)
	assert.Equal(t, 7, r.StreamID())
}
