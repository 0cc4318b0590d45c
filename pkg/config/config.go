package config

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gqlwire/gqlwire/pkg/cache"
	"github.com/gqlwire/gqlwire/pkg/client"
	"github.com/gqlwire/gqlwire/pkg/logging"
	"github.com/gqlwire/gqlwire/pkg/retry"
	"github.com/gqlwire/gqlwire/pkg/subscription"
)

// Common validation errors.
var (
	ErrNoEndpoint      = errors.New("endpoint is required")
	ErrInvalidEndpoint = errors.New("endpoint is not a valid URL")
	ErrInvalidDuration = errors.New("invalid duration")
)

// RetryConfig configures the retry policy. Durations are strings in
// time.ParseDuration form (e.g. "100ms", "2s").
type RetryConfig struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int `json:"maxAttempts,omitempty" yaml:"maxAttempts,omitempty"`
	// InitialBackoff is the delay before the second attempt.
	InitialBackoff string `json:"initialBackoff,omitempty" yaml:"initialBackoff,omitempty"`
	// MaxBackoff caps the delay between attempts.
	MaxBackoff string `json:"maxBackoff,omitempty" yaml:"maxBackoff,omitempty"`
	// Multiplier grows the delay after each failed attempt.
	Multiplier float64 `json:"multiplier,omitempty" yaml:"multiplier,omitempty"`
	// Jitter randomizes each delay by up to this fraction of itself.
	Jitter float64 `json:"jitter,omitempty" yaml:"jitter,omitempty"`
}

// ClientConfig describes a gqlwire client.
type ClientConfig struct {
	// Endpoint is the HTTP GraphQL endpoint URL.
	Endpoint string `json:"endpoint" yaml:"endpoint"`
	// WSEndpoint is the WebSocket endpoint used for subscriptions.
	WSEndpoint string `json:"wsEndpoint,omitempty" yaml:"wsEndpoint,omitempty"`
	// Headers are default headers sent with every request.
	Headers map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	// CacheSize is the result cache capacity (default 128).
	CacheSize int `json:"cacheSize,omitempty" yaml:"cacheSize,omitempty"`
	// Timeout bounds each HTTP request, e.g. "30s" (default none).
	Timeout string `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	// HandshakeTimeout bounds subscription connection establishment.
	HandshakeTimeout string `json:"handshakeTimeout,omitempty" yaml:"handshakeTimeout,omitempty"`
	// Retry configures the retry policy.
	Retry RetryConfig `json:"retry,omitempty" yaml:"retry,omitempty"`
	// LogLevel is debug, info, warn, or error (default info).
	LogLevel string `json:"logLevel,omitempty" yaml:"logLevel,omitempty"`
	// LogFormat is text or json (default text).
	LogFormat string `json:"logFormat,omitempty" yaml:"logFormat,omitempty"`
}

// ApplyDefaults fills unset fields with their defaults.
func (c *ClientConfig) ApplyDefaults() {
	if c.CacheSize <= 0 {
		c.CacheSize = cache.DefaultCapacity
	}
	if c.Retry.MaxAttempts <= 0 {
		c.Retry.MaxAttempts = retry.DefaultPolicy().MaxAttempts
	}
}

// Validate checks the configuration for structural problems.
func (c *ClientConfig) Validate() error {
	if c.Endpoint == "" {
		return ErrNoEndpoint
	}
	if _, err := url.ParseRequestURI(c.Endpoint); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidEndpoint, c.Endpoint)
	}
	if c.WSEndpoint != "" {
		if _, err := url.ParseRequestURI(c.WSEndpoint); err != nil {
			return fmt.Errorf("%w: %q", ErrInvalidEndpoint, c.WSEndpoint)
		}
	}
	for name, v := range map[string]string{
		"timeout":              c.Timeout,
		"handshakeTimeout":     c.HandshakeTimeout,
		"retry.initialBackoff": c.Retry.InitialBackoff,
		"retry.maxBackoff":     c.Retry.MaxBackoff,
	} {
		if v == "" {
			continue
		}
		if _, err := time.ParseDuration(v); err != nil {
			return fmt.Errorf("%w: %s=%q", ErrInvalidDuration, name, v)
		}
	}
	return nil
}

// Policy converts the retry section into a retry.Policy. Unset fields take
// the default policy's values.
func (c *ClientConfig) Policy() retry.Policy {
	p := retry.DefaultPolicy()
	if c.Retry.MaxAttempts > 0 {
		p.MaxAttempts = c.Retry.MaxAttempts
	}
	if d := parseDuration(c.Retry.InitialBackoff); d > 0 {
		p.InitialBackoff = d
	}
	if d := parseDuration(c.Retry.MaxBackoff); d > 0 {
		p.MaxBackoff = d
	}
	if c.Retry.Multiplier > 0 {
		p.Multiplier = c.Retry.Multiplier
	}
	if c.Retry.Jitter >= 0 && c.Retry.Jitter != 0 {
		p.Jitter = c.Retry.Jitter
	}
	return p
}

// Client builds a configured client from the configuration.
func (c *ClientConfig) Client() (*client.Client, error) {
	c.ApplyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}

	log := logging.New(logging.Config{
		Level:  logging.ParseLevel(c.LogLevel),
		Format: logging.ParseFormat(c.LogFormat),
	})

	opts := []client.Option{
		client.WithCacheSize(c.CacheSize),
		client.WithRetryPolicy(c.Policy()),
		client.WithLogger(log),
	}
	for k, v := range c.Headers {
		opts = append(opts, client.WithHeader(k, v))
	}
	if d := parseDuration(c.Timeout); d > 0 {
		opts = append(opts, client.WithHTTPClient(&http.Client{Timeout: d}))
	}
	if c.WSEndpoint != "" {
		opts = append(opts, client.WithWebSocketEndpoint(c.WSEndpoint))
	}
	if d := parseDuration(c.HandshakeTimeout); d > 0 {
		opts = append(opts, client.WithHandshakeOptions(subscription.Options{
			HandshakeTimeout: d,
		}))
	}

	return client.New(c.Endpoint, opts...), nil
}

// parseDuration returns 0 for empty or malformed input; Validate reports
// malformed durations before this is consulted.
func parseDuration(s string) time.Duration {
	if s == "" {
		return 0
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0
	}
	return d
}
