package client

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gqlwire/gqlwire/pkg/cache"
	"github.com/gqlwire/gqlwire/pkg/graphql"
	"github.com/gqlwire/gqlwire/pkg/logging"
	"github.com/gqlwire/gqlwire/pkg/retry"
	"github.com/gqlwire/gqlwire/pkg/subscription"
	"github.com/gqlwire/gqlwire/pkg/transport"
)

// ErrNoWebSocketEndpoint indicates Subscribe was called on a client without
// a configured WebSocket endpoint.
var ErrNoWebSocketEndpoint = errors.New("no websocket endpoint configured")

// Client is a GraphQL client execution core: transport, result cache, retry
// policy, and subscription sessions behind one facade. A Client is safe for
// concurrent use.
type Client struct {
	transport  transport.Transport
	wsEndpoint string
	cache      *cache.LRU
	retry      retry.Policy
	httpClient *http.Client
	header     http.Header
	handshake  subscription.Options
	log        *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the *http.Client used for both HTTP requests and
// WebSocket handshakes. Timeouts belong to this client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTransport replaces the request/response transport entirely.
func WithTransport(t transport.Transport) Option {
	return func(c *Client) {
		if t != nil {
			c.transport = t
		}
	}
}

// WithHeader adds a default header sent with every request.
func WithHeader(key, value string) Option {
	return func(c *Client) { c.header.Add(key, value) }
}

// WithHeaders merges a set of default headers sent with every request.
func WithHeaders(h http.Header) Option {
	return func(c *Client) {
		for k, vals := range h {
			for _, v := range vals {
				c.header.Add(k, v)
			}
		}
	}
}

// WithWebSocketEndpoint sets the streaming endpoint used by Subscribe.
func WithWebSocketEndpoint(url string) Option {
	return func(c *Client) { c.wsEndpoint = url }
}

// WithCacheSize sets the result cache capacity. Zero or negative falls back
// to cache.DefaultCapacity.
func WithCacheSize(n int) Option {
	return func(c *Client) { c.cache = cache.NewLRU(n) }
}

// WithRetryPolicy sets the retry policy used by ExecuteWithRetry.
func WithRetryPolicy(p retry.Policy) Option {
	return func(c *Client) { c.retry = p }
}

// WithHandshakeOptions sets connection-establishment options for
// subscription sessions (deadline, handshake headers).
func WithHandshakeOptions(opts subscription.Options) Option {
	return func(c *Client) { c.handshake = opts }
}

// WithLogger sets the logger shared by the client and its components.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// New creates a client for the given HTTP endpoint.
func New(endpoint string, opts ...Option) *Client {
	c := &Client{
		cache:  cache.NewLRU(cache.DefaultCapacity),
		retry:  retry.DefaultPolicy(),
		header: make(http.Header),
		log:    logging.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.transport == nil {
		topts := []transport.HTTPOption{
			transport.WithHeaders(c.header),
			transport.WithLogger(c.log),
		}
		if c.httpClient != nil {
			topts = append(topts, transport.WithHTTPClient(c.httpClient))
		}
		c.transport = transport.NewHTTP(endpoint, topts...)
	}
	return c
}

// Execute runs one operation and returns the raw envelope, GraphQL errors
// and all. It never consults or fills the cache.
func (c *Client) Execute(ctx context.Context, query string, variables map[string]interface{}) (*graphql.Response, error) {
	return c.ExecuteRequest(ctx, graphql.NewRequest(query, variables))
}

// ExecuteRequest is Execute with full control over the request, including
// per-request headers.
func (c *Client) ExecuteRequest(ctx context.Context, req *graphql.Request) (*graphql.Response, error) {
	return c.transport.Send(ctx, req)
}

// ExecuteCached runs the operation through the result cache. A hit returns
// the stored envelope without a transport call; a miss stores the full
// envelope, GraphQL errors included. Nothing is stored when the transport
// itself fails.
func (c *Client) ExecuteCached(ctx context.Context, query string, variables map[string]interface{}) (*graphql.Response, error) {
	key, err := cache.Key(query, variables)
	if err != nil {
		return nil, err
	}

	if resp, ok := c.cache.Get(key); ok {
		c.log.Debug("cache hit", "key", key)
		return resp, nil
	}

	resp, err := c.transport.Send(ctx, graphql.NewRequest(query, variables))
	if err != nil {
		return nil, err
	}
	c.cache.Put(key, resp)
	return resp, nil
}

// ExecuteWithRetry runs the operation with bounded retry on transport
// failures. maxAttempts overrides the policy's attempt count when positive.
//
// A successfully received envelope with a non-empty errors list is returned
// as a *graphql.ExecutionError after exactly one transport call; semantic
// errors are not expected to resolve by repetition. On exhausting attempts
// the last transport error is returned unchanged.
func (c *Client) ExecuteWithRetry(ctx context.Context, query string, variables map[string]interface{}, maxAttempts int) (*graphql.Response, error) {
	policy := c.retry
	if maxAttempts > 0 {
		policy.MaxAttempts = maxAttempts
	}

	req := graphql.NewRequest(query, variables)
	resp, err := policy.Do(ctx, func(ctx context.Context) (*graphql.Response, error) {
		return c.transport.Send(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	if resp.HasErrors() {
		return nil, &graphql.ExecutionError{Errors: resp.Errors, Response: resp}
	}
	return resp, nil
}

// ExecuteBatch sends the requests as one wire-level batch and returns
// envelopes positionally aligned with the input. Server-side batching
// support is an external precondition the core cannot verify. A transport
// failure fails the whole batch; there are no partial results.
func (c *Client) ExecuteBatch(ctx context.Context, reqs []*graphql.Request) ([]*graphql.Response, error) {
	return c.transport.SendBatch(ctx, reqs)
}

// Subscribe opens a subscription session on the configured WebSocket
// endpoint and starts the given subscription operation. The returned channel
// yields event payloads in server emission order and closes when the stream
// ends; session.Err reports why.
//
// The caller owns the session and must Close it to release the connection
// when done early.
func (c *Client) Subscribe(ctx context.Context, query string, variables map[string]interface{}) (*subscription.Session, <-chan json.RawMessage, error) {
	if c.wsEndpoint == "" {
		return nil, nil, ErrNoWebSocketEndpoint
	}

	opts := c.handshake
	if opts.Logger == nil {
		opts.Logger = c.log
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = c.httpClient
	}
	if len(c.header) > 0 {
		merged := make(http.Header)
		for k, vals := range c.header {
			for _, v := range vals {
				merged.Add(k, v)
			}
		}
		for k, vals := range opts.HTTPHeader {
			merged.Del(k)
			for _, v := range vals {
				merged.Add(k, v)
			}
		}
		opts.HTTPHeader = merged
	}

	sess, err := subscription.Dial(ctx, c.wsEndpoint, &opts)
	if err != nil {
		return nil, nil, err
	}
	events, err := sess.Subscribe(ctx, query, variables)
	if err != nil {
		_ = sess.Close()
		return nil, nil, err
	}
	return sess, events, nil
}

// CacheLen returns the number of envelopes currently cached.
func (c *Client) CacheLen() int { return c.cache.Len() }

// PurgeCache drops every cached envelope.
func (c *Client) PurgeCache() { c.cache.Purge() }
