// Package httpclient provides the outbound HTTP client used to fetch agent
// cards. Every request is restricted to https and to publicly routable
// addresses, including across redirects.
package httpclient

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"
)

const (
	// DefaultTimeout is the default timeout for HTTP requests
	DefaultTimeout = 10 * time.Second

	// DefaultMaxResponseSize is the default maximum response size (1 MiB)
	DefaultMaxResponseSize int64 = 1 << 20

	// MaxRedirects is the maximum number of redirects followed
	MaxRedirects = 3

	// DefaultUserAgent is sent when no user agent is configured
	DefaultUserAgent = "agent-directory/1.0"
)

// Response is the outcome of a successful GET
type Response struct {
	StatusCode int
	Body       []byte
	Latency    time.Duration
}

// Client is an interface for HTTP operations
//
//go:generate mockgen -destination=mocks/mock_client.go -package=mocks -source=client.go Client
type Client interface {
	// Get performs an HTTPS GET request and returns the response of a 2xx answer.
	// Non-2xx answers are returned as *HTTPError.
	Get(ctx context.Context, url string) (*Response, error)
}

// Option configures the client
type Option func(*clientConfig) error

type clientConfig struct {
	timeout         time.Duration
	maxResponseSize int64
	userAgent       string
	deniedHosts     []string
	allowPrivate    bool
	tlsConfig       *tls.Config
	resolver        Resolver
}

// WithTimeout sets the hard timeout of a request, redirects and body read included
func WithTimeout(timeout time.Duration) Option {
	return func(c *clientConfig) error {
		if timeout <= 0 {
			return fmt.Errorf("timeout must be positive")
		}
		c.timeout = timeout
		return nil
	}
}

// WithMaxResponseSize caps the size of response bodies
func WithMaxResponseSize(size int64) Option {
	return func(c *clientConfig) error {
		if size <= 0 {
			return fmt.Errorf("max response size must be positive")
		}
		c.maxResponseSize = size
		return nil
	}
}

// WithUserAgent sets the User-Agent header
func WithUserAgent(userAgent string) Option {
	return func(c *clientConfig) error {
		c.userAgent = userAgent
		return nil
	}
}

// WithDeniedHosts sets glob patterns of host names that are never fetched
func WithDeniedHosts(patterns []string) Option {
	return func(c *clientConfig) error {
		c.deniedHosts = patterns
		return nil
	}
}

// WithAllowPrivateNetworks disables the public address checks
func WithAllowPrivateNetworks(allow bool) Option {
	return func(c *clientConfig) error {
		c.allowPrivate = allow
		return nil
	}
}

// WithTLSConfig overrides the TLS configuration, e.g. to trust a test CA
func WithTLSConfig(cfg *tls.Config) Option {
	return func(c *clientConfig) error {
		c.tlsConfig = cfg
		return nil
	}
}

// WithResolver overrides the resolver used for the pre-connect address check
func WithResolver(resolver Resolver) Option {
	return func(c *clientConfig) error {
		c.resolver = resolver
		return nil
	}
}

// GuardedClient is the default Client implementation
type GuardedClient struct {
	client          *http.Client
	guard           *Guard
	maxResponseSize int64
	userAgent       string
}

var _ Client = (*GuardedClient)(nil)

// NewClient creates a guarded client
func NewClient(opts ...Option) (*GuardedClient, error) {
	cfg := &clientConfig{
		timeout:         DefaultTimeout,
		maxResponseSize: DefaultMaxResponseSize,
		userAgent:       DefaultUserAgent,
	}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	guard, err := NewGuard(cfg.deniedHosts, cfg.allowPrivate, cfg.resolver)
	if err != nil {
		return nil, err
	}

	dialer := &net.Dialer{
		Timeout: cfg.timeout,
		Control: guard.control,
	}

	transport := &http.Transport{
		// Proxies would be dialed instead of the target and bypass the guard
		Proxy:                 nil,
		DialContext:           dialer.DialContext,
		TLSClientConfig:       cfg.tlsConfig,
		TLSHandshakeTimeout:   cfg.timeout,
		ResponseHeaderTimeout: cfg.timeout,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   2,
		IdleConnTimeout:       90 * time.Second,
		ForceAttemptHTTP2:     true,
	}

	client := &http.Client{
		Timeout:   cfg.timeout,
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= MaxRedirects {
				return fmt.Errorf("stopped after %d redirects", MaxRedirects)
			}
			return guard.CheckURL(req.Context(), req.URL)
		},
	}

	return &GuardedClient{
		client:          client,
		guard:           guard,
		maxResponseSize: cfg.maxResponseSize,
		userAgent:       cfg.userAgent,
	}, nil
}

// CheckURL runs the pre-connect checks without issuing a request
func (c *GuardedClient) CheckURL(ctx context.Context, rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	return c.guard.CheckURL(ctx, u)
}

// Get performs an HTTP GET request
func (c *GuardedClient) Get(ctx context.Context, rawURL string) (*Response, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if err := c.guard.CheckURL(ctx, u); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, NewHTTPError(resp.StatusCode, rawURL)
	}

	if resp.ContentLength > c.maxResponseSize {
		return nil, fmt.Errorf("%w: content length %d, limit %d", ErrResponseTooLarge, resp.ContentLength, c.maxResponseSize)
	}

	// Read one byte past the limit to detect oversized bodies without a Content-Length
	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if int64(len(body)) > c.maxResponseSize {
		return nil, fmt.Errorf("%w: limit %d", ErrResponseTooLarge, c.maxResponseSize)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Body:       body,
		Latency:    time.Since(start),
	}, nil
}
