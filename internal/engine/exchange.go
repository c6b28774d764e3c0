// Package engine rewrites intercepted HTTP exchanges. A router feeds every
// exchange through a fixed chain of handlers; whichever handler recognizes
// the traffic claims it and edits the request or response in place.
package engine

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// Exchange is one intercepted request/response pair. Handlers mutate it in
// place; the proxy layer serializes whatever is left back onto the wire.
// During the request phase the response fields are zero; a handler that
// fills Status short-circuits the upstream call entirely.
type Exchange struct {
	Method         string
	URL            *url.URL
	RequestHeader  http.Header
	RequestBody    []byte
	Status         int
	ResponseHeader http.Header
	ResponseBody   []byte
}

// NewExchange builds an exchange for the request phase.
func NewExchange(method string, u *url.URL, header http.Header, body []byte) *Exchange {
	if header == nil {
		header = make(http.Header)
	}
	return &Exchange{Method: method, URL: u, RequestHeader: header, RequestBody: body}
}

// FullURL returns the absolute request URL.
func (e *Exchange) FullURL() string { return e.URL.String() }

// URLContains reports whether the absolute URL contains the fragment.
// Handlers match traffic by host-plus-path fragments rather than full parses.
func (e *Exchange) URLContains(fragment string) bool {
	return strings.Contains(e.FullURL(), fragment)
}

// Path returns the URL path.
func (e *Exchange) Path() string { return e.URL.Path }

// Query returns the parsed query parameters.
func (e *Exchange) Query() url.Values { return e.URL.Query() }

// QueryInt64 returns a numeric query parameter, or 0 when absent or malformed.
func (e *Exchange) QueryInt64(key string) int64 {
	v, _ := strconv.ParseInt(e.URL.Query().Get(key), 10, 64)
	return v
}

// PathSegment returns the idx-th path segment counted from the end, so the
// trailing ids of REST-style paths can be pulled without pattern matching.
// Empty segments from a trailing slash are skipped.
func (e *Exchange) PathSegment(fromEnd int) string {
	segments := strings.Split(strings.Trim(e.URL.Path, "/"), "/")
	idx := len(segments) - 1 - fromEnd
	if idx < 0 || idx >= len(segments) {
		return ""
	}
	return segments[idx]
}

// RequestCookie returns the named request cookie value, or "".
func (e *Exchange) RequestCookie(name string) string {
	r := http.Request{Header: e.RequestHeader}
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}

// HasResponse reports whether a response is attached yet.
func (e *Exchange) HasResponse() bool { return e.Status != 0 }

// RequestJSON decodes the request body into out.
func (e *Exchange) RequestJSON(out any) error {
	if err := json.Unmarshal(e.RequestBody, out); err != nil {
		return fmt.Errorf("failed to parse request body: %w", err)
	}
	return nil
}

// SetRequestJSON replaces the request body.
func (e *Exchange) SetRequestJSON(v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode request body: %w", err)
	}
	e.RequestBody = body
	e.RequestHeader.Set("Content-Type", "application/json")
	return nil
}

// ResponseJSON decodes the response body into out.
func (e *Exchange) ResponseJSON(out any) error {
	if err := json.Unmarshal(e.ResponseBody, out); err != nil {
		return fmt.Errorf("failed to parse response body: %w", err)
	}
	return nil
}

// ResponseProbe reads one value out of the response body without a full
// decode, for handlers that only branch on a field or two.
func (e *Exchange) ResponseProbe(path string) gjson.Result {
	return gjson.GetBytes(e.ResponseBody, path)
}

// ResponseText returns the response body as text.
func (e *Exchange) ResponseText() string { return string(e.ResponseBody) }

// SetResponseJSON replaces the response body and fixes the framing headers.
func (e *Exchange) SetResponseJSON(v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode response body: %w", err)
	}
	e.setResponseBody(body, "application/json; charset=utf-8")
	return nil
}

// SetResponseText replaces the response body, keeping the content type.
func (e *Exchange) SetResponseText(text string) {
	contentType := e.ResponseHeader.Get("Content-Type")
	if contentType == "" {
		contentType = "text/html; charset=utf-8"
	}
	e.setResponseBody([]byte(text), contentType)
}

// SetResponseRaw replaces the response body with arbitrary bytes.
func (e *Exchange) SetResponseRaw(body []byte, contentType string) {
	e.setResponseBody(body, contentType)
}

// Respond attaches a synthetic response during the request phase, which
// stops the exchange from ever reaching upstream.
func (e *Exchange) Respond(status int, v any) error {
	if e.ResponseHeader == nil {
		e.ResponseHeader = make(http.Header)
	}
	e.Status = status
	return e.SetResponseJSON(v)
}

func (e *Exchange) setResponseBody(body []byte, contentType string) {
	if e.ResponseHeader == nil {
		e.ResponseHeader = make(http.Header)
	}
	e.ResponseBody = body
	e.ResponseHeader.Set("Content-Type", contentType)
	e.ResponseHeader.Set("Content-Length", strconv.Itoa(len(body)))
	e.ResponseHeader.Del("Content-Encoding")
	e.ResponseHeader.Del("Transfer-Encoding")
}
