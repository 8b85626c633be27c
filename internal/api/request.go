package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Source says which path produced a Response
type Source string

const (
	SourceLocal   Source = "local"
	SourceDemo    Source = "demo"
	SourceNetwork Source = "network"
)

// Request is an outgoing API call. Path is relative to the API base, e.g. "/chatbot/chat".
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   interface{}
	Header http.Header

	// Vars holds path variables when a local handler matched a templated route
	Vars map[string]string
}

// NewRequest creates a request with an empty header set. A query string in
// path is split off into Query.
func NewRequest(method, path string, body interface{}) *Request {
	req := &Request{
		Method: strings.ToUpper(method),
		Body:   body,
		Header: make(http.Header),
	}
	if i := strings.IndexByte(path, '?'); i >= 0 {
		req.Query, _ = url.ParseQuery(path[i+1:])
		path = path[:i]
	}
	req.Path = normalizePath(path)
	return req
}

// normalizePath guarantees a leading slash and drops an "/api" prefix so
// callers may pass either form.
func normalizePath(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if path == "/api" {
		return "/"
	}
	if strings.HasPrefix(path, "/api/") {
		return path[len("/api"):]
	}
	return path
}

// PathWithQuery returns the path plus its encoded query, if any
func (r *Request) PathWithQuery() string {
	if len(r.Query) == 0 {
		return r.Path
	}
	return r.Path + "?" + r.Query.Encode()
}

// BodyJSON encodes the body. A nil body encodes to nil.
func (r *Request) BodyJSON() ([]byte, error) {
	switch b := r.Body.(type) {
	case nil:
		return nil, nil
	case json.RawMessage:
		return b, nil
	case []byte:
		return b, nil
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		return data, nil
	}
}

// DecodeBody decodes the body into v, whatever form it was supplied in
func (r *Request) DecodeBody(v interface{}) error {
	data, err := r.BodyJSON()
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}

// Response is the envelope both the local and network paths return
type Response struct {
	Data   json.RawMessage
	Status int
	Source Source
}

// JSONResponse encodes v as the response data
func JSONResponse(status int, v interface{}, source Source) *Response {
	data, err := json.Marshal(v)
	if err != nil {
		// Handlers only encode plain data; fall back to null rather than fail
		data = []byte("null")
	}
	return &Response{Data: data, Status: status, Source: source}
}

// Decode decodes the response data into v. Empty or null data leaves v untouched.
func (r *Response) Decode(v interface{}) error {
	if len(r.Data) == 0 || string(r.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(r.Data, v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// IsNull reports whether the response carried no data
func (r *Response) IsNull() bool {
	return len(r.Data) == 0 || string(r.Data) == "null"
}
