package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iruldev/switchboard/record"
)

func TestToRecordRequest_CopiesMethodPathQueryAndHeaders(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/widgets?color=red", strings.NewReader(`{"name":"gizmo"}`))
	r.Header.Set("X-Request-Id", "abc-123")

	req := toRecordRequest(r)

	assert.Equal(t, "POST", req.Method())
	assert.Equal(t, "/widgets", req.Path())
	assert.Equal(t, "red", req.QueryParam("color"))
	assert.Equal(t, "abc-123", req.Header("X-Request-Id"))
	assert.Equal(t, `{"name":"gizmo"}`, req.BodyText())
	assert.Equal(t, "HTTP/1.1", req.Protocol())
}

func TestToRecordRequest_TagsHTTP2ByProtoMajor(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.ProtoMajor = 2

	req := toRecordRequest(r)
	assert.Equal(t, "HTTP/2", req.Protocol())
}

func TestWriteRecordResponse_CopiesStatusHeadersAndBody(t *testing.T) {
	resp := record.NewResponse(201)
	resp.SetContentType("application/json")
	resp.SetBodyText(`{"ok":true}`)

	w := httptest.NewRecorder()
	writeRecordResponse(w, resp)

	require.Equal(t, 201, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, `{"ok":true}`, w.Body.String())
}
