package linear

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/andywolf/speclinear/internal/version"
)

type requestIDKey struct{}

func withRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

type responseBodyKey struct{}

// responseBody keeps a copy of the response body read by the GraphQL client,
// which only reports errors when the array is non-empty.
type responseBody struct {
	buf bytes.Buffer
}

func withResponseBody(ctx context.Context, rb *responseBody) context.Context {
	return context.WithValue(ctx, responseBodyKey{}, rb)
}

// hasErrorsKey reports whether the body carried a top-level errors array,
// empty or not.
func (rb *responseBody) hasErrorsKey() bool {
	var envelope struct {
		Errors *json.RawMessage `json:"errors"`
	}
	if err := json.NewDecoder(bytes.NewReader(rb.buf.Bytes())).Decode(&envelope); err != nil {
		return false
	}
	return envelope.Errors != nil
}

type teeBody struct {
	io.Reader
	io.Closer
}

// authedTransport sets the Linear headers on every outgoing request.
// Linear expects the API key itself in Authorization, with no scheme.
type authedTransport struct {
	token   string
	wrapped http.RoundTripper
}

func (t *authedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("Authorization", t.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())
	if id := requestIDFrom(req.Context()); id != "" {
		req.Header.Set("X-Request-Id", id)
	}
	resp, err := t.base().RoundTrip(req)
	if err != nil {
		return nil, err
	}

	// Any 2xx carries a GraphQL body; the client only accepts 200.
	if resp.StatusCode >= 200 && resp.StatusCode < 300 && resp.StatusCode != http.StatusOK {
		resp.StatusCode = http.StatusOK
		resp.Status = "200 OK"
	}
	if rb, ok := req.Context().Value(responseBodyKey{}).(*responseBody); ok && resp.Body != nil {
		resp.Body = teeBody{Reader: io.TeeReader(resp.Body, &rb.buf), Closer: resp.Body}
	}
	return resp, nil
}

// CloseIdleConnections lets http.Client.CloseIdleConnections reach the wrapped transport.
func (t *authedTransport) CloseIdleConnections() {
	if ci, ok := t.base().(interface{ CloseIdleConnections() }); ok {
		ci.CloseIdleConnections()
	}
}

func (t *authedTransport) base() http.RoundTripper {
	if t.wrapped != nil {
		return t.wrapped
	}
	return http.DefaultTransport
}
