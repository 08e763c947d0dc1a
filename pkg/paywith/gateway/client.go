package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
)

// Result is the outcome of one HTTP exchange with a gateway. Non-2xx
// responses are still results, not errors: gateways report business
// failures inside well-formed envelopes.
type Result struct {
	StatusCode int
	Body       []byte
}

// HTTPClient is the transport collaborator the core issues requests
// through. It never constructs raw sockets in the core; implementations own
// connection handling, TLS and timeouts. An error return means the exchange
// itself failed (network, timeout, cancelled context).
type HTTPClient interface {
	Post(ctx context.Context, url string, body any, headers map[string]string) (*Result, error)
	Get(ctx context.Context, url string, headers map[string]string) (*Result, error)
}

// Client is the default HTTPClient: net/http with a request timeout and a
// circuit breaker. A single attempt per call; failures surface immediately
// with no retry.
type Client struct {
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
}

// ClientOption configures the default client.
type ClientOption func(*Client)

// WithTimeout overrides the per-request timeout (default 30s).
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.http.Timeout = d
	}
}

// WithTransport overrides the underlying http.RoundTripper.
func WithTransport(rt http.RoundTripper) ClientOption {
	return func(c *Client) {
		c.http.Transport = rt
	}
}

// NewClient builds the default HTTP client. The breaker opens after five
// consecutive failures and probes again after 30 seconds, so a dead gateway
// fails fast instead of tying up callers.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		http: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "gateway_http",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
	return c
}

// Post sends a JSON-encoded body to url.
func (c *Client) Post(ctx context.Context, url string, body any, headers map[string]string) (*Result, error) {
	var payload io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("gateway: encode request body: %w", err)
		}
		payload = bytes.NewReader(encoded)
	}
	return c.do(ctx, http.MethodPost, url, payload, headers)
}

// Get issues a GET request to url.
func (c *Client) Get(ctx context.Context, url string, headers map[string]string) (*Result, error) {
	return c.do(ctx, http.MethodGet, url, nil, headers)
}

func (c *Client) do(ctx context.Context, method, url string, body io.Reader, headers map[string]string) (*Result, error) {
	out, err := c.breaker.Execute(func() (any, error) {
		req, err := http.NewRequestWithContext(ctx, method, url, body)
		if err != nil {
			return nil, err
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("gateway: read response body: %w", err)
		}
		return &Result{StatusCode: resp.StatusCode, Body: raw}, nil
	})
	if err != nil {
		return nil, err
	}
	return out.(*Result), nil
}
