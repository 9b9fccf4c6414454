package main

import (
	"io"
	"net/http"

	"github.com/iruldev/switchboard/record"
)

// toRecordRequest converts an inbound *http.Request into the
// protocol-independent record.Request a pipeline understands. Building
// this conversion is the one piece of transport glue this composition
// root needs; the wire protocol itself remains out of scope.
func toRecordRequest(r *http.Request) *record.Request {
	protocol := "HTTP/1.1"
	if r.ProtoMajor == 2 {
		protocol = "HTTP/2"
	}

	path := r.URL.Path
	if r.URL.RawQuery != "" {
		path += "?" + r.URL.RawQuery
	}

	req := record.NewRequest(r.Method, path, protocol)
	for name, values := range r.Header {
		if len(values) > 0 {
			req.SetHeader(name, values[0])
		}
	}

	body, err := io.ReadAll(r.Body)
	if err == nil {
		req.SetBody(body)
	}
	return req
}

// writeRecordResponse copies a record.Response onto the real
// http.ResponseWriter.
func writeRecordResponse(w http.ResponseWriter, resp *record.Response) {
	headers := w.Header()
	for name, value := range resp.Headers() {
		headers.Set(name, value)
	}
	w.WriteHeader(resp.Status())
	_, _ = w.Write(resp.Body())
}
