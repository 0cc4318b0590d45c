package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gqlwire/gqlwire/pkg/graphql"
	"github.com/gqlwire/gqlwire/pkg/logging"
)

// MaxResponseBodySize is the maximum response body size read from the
// server (10MB).
const MaxResponseBodySize = 10 << 20

// Interface compliance check
var _ Transport = (*HTTPTransport)(nil)

// HTTPTransport sends GraphQL operations as HTTP POST requests with a JSON
// body {query, operationName?, variables?}.
type HTTPTransport struct {
	endpoint string
	client   *http.Client
	header   http.Header
	log      *slog.Logger
}

// HTTPOption configures an HTTPTransport.
type HTTPOption func(*HTTPTransport)

// WithHTTPClient sets the underlying *http.Client. Timeouts belong here;
// the transport imposes none of its own.
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(t *HTTPTransport) {
		if client != nil {
			t.client = client
		}
	}
}

// WithHeader adds a default header sent with every request.
func WithHeader(key, value string) HTTPOption {
	return func(t *HTTPTransport) {
		t.header.Add(key, value)
	}
}

// WithHeaders merges a set of default headers sent with every request.
func WithHeaders(h http.Header) HTTPOption {
	return func(t *HTTPTransport) {
		for k, vals := range h {
			for _, v := range vals {
				t.header.Add(k, v)
			}
		}
	}
}

// WithLogger sets the logger for request-level debug logging.
func WithLogger(log *slog.Logger) HTTPOption {
	return func(t *HTTPTransport) {
		if log != nil {
			t.log = log
		}
	}
}

// NewHTTP creates an HTTP transport for the given endpoint.
func NewHTTP(endpoint string, opts ...HTTPOption) *HTTPTransport {
	t := &HTTPTransport{
		endpoint: endpoint,
		client:   http.DefaultClient,
		header:   make(http.Header),
		log:      logging.Nop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Endpoint returns the endpoint URL this transport posts to.
func (t *HTTPTransport) Endpoint() string { return t.endpoint }

// Send executes one request and decodes the response envelope.
func (t *HTTPTransport) Send(ctx context.Context, req *graphql.Request) (*graphql.Response, error) {
	body, err := t.post(ctx, req, req.Header)
	if err != nil {
		return nil, err
	}

	var resp graphql.Response
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &graphql.TransportError{URL: t.endpoint, Err: fmt.Errorf("malformed response body: %w", err)}
	}
	return &resp, nil
}

// SendBatch executes the requests as a single JSON-array POST and returns
// the envelopes in request order.
func (t *HTTPTransport) SendBatch(ctx context.Context, reqs []*graphql.Request) ([]*graphql.Response, error) {
	if len(reqs) == 0 {
		return nil, nil
	}

	body, err := t.post(ctx, reqs, nil)
	if err != nil {
		return nil, err
	}

	var envelopes []*graphql.Response
	if err := json.Unmarshal(body, &envelopes); err != nil {
		return nil, &graphql.TransportError{URL: t.endpoint, Err: fmt.Errorf("malformed batch response body: %w", err)}
	}
	if len(envelopes) != len(reqs) {
		return nil, &graphql.TransportError{
			URL: t.endpoint,
			Err: fmt.Errorf("batch response has %d envelope(s) for %d request(s)", len(envelopes), len(reqs)),
		}
	}
	return envelopes, nil
}

// post marshals payload, issues the POST, and returns the raw body of a 2xx
// response. Everything else becomes a *graphql.TransportError.
func (t *HTTPTransport) post(ctx context.Context, payload interface{}, extra http.Header) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, &graphql.EncodingError{Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, &graphql.TransportError{URL: t.endpoint, Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	for k, vals := range t.header {
		for _, v := range vals {
			httpReq.Header.Add(k, v)
		}
	}
	for k, vals := range extra {
		httpReq.Header.Del(k)
		for _, v := range vals {
			httpReq.Header.Add(k, v)
		}
	}

	start := time.Now()
	httpResp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, &graphql.TransportError{URL: t.endpoint, Err: err}
	}
	defer func() { _ = httpResp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, MaxResponseBodySize))
	if err != nil {
		return nil, &graphql.TransportError{URL: t.endpoint, StatusCode: httpResp.StatusCode, Err: err}
	}

	t.log.Debug("graphql request complete",
		"endpoint", t.endpoint,
		"status", httpResp.StatusCode,
		"duration", time.Since(start),
		"bytes", len(body))

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return nil, &graphql.TransportError{URL: t.endpoint, StatusCode: httpResp.StatusCode}
	}
	return body, nil
}
