// Package fetch performs bounded, single-shot HTTP GETs for the upstream adapters.
package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sovagpt/nhl/internal/metrics"
)

const (
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	DefaultAccept    = "text/html,application/xhtml+xml,application/json;q=0.9,*/*;q=0.8"
	DefaultTimeout   = 15 * time.Second
	DefaultMaxBody   = 8 << 20
)

// ErrTransport marks network, DNS and timeout failures. Status codes are never errors here.
var ErrTransport = errors.New("transport failure")

// Response is a received upstream body.
type Response struct {
	StatusCode int
	Body       []byte
}

// OK reports a 2xx status.
func (r *Response) OK() bool { return r.StatusCode >= 200 && r.StatusCode < 300 }

// JSON decodes the body into v.
func (r *Response) JSON(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}

// Client issues GETs with a fixed identity header.
type Client struct {
	http      *http.Client
	userAgent string
	accept    string
	maxBody   int64
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying client (tests inject a rewriting transport).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout bounds every call made through the client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithUserAgent overrides the identity header. Empty keeps the default.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithAccept overrides the Accept header.
func WithAccept(accept string) Option {
	return func(c *Client) {
		if accept != "" {
			c.accept = accept
		}
	}
}

// WithMaxBody caps how many body bytes are read.
func WithMaxBody(n int64) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxBody = n
		}
	}
}

// New returns a client with a 15s timeout and a desktop browser User-Agent.
func New(opts ...Option) *Client {
	c := &Client{
		http:      &http.Client{Timeout: DefaultTimeout},
		userAgent: DefaultUserAgent,
		accept:    DefaultAccept,
		maxBody:   DefaultMaxBody,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http.Timeout <= 0 {
		c.http.Timeout = DefaultTimeout
	}
	return c
}

// UserAgent returns the identity header sent with every request.
func (c *Client) UserAgent() string { return c.userAgent }

// Get issues one GET. Only transport failures are returned as errors (wrapping
// ErrTransport); non-2xx statuses come back as a Response for the caller to judge.
func (c *Client) Get(ctx context.Context, rawURL string) (*Response, error) {
	host := hostOf(rawURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrTransport, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", c.accept)
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.RecordUpstreamRequest(host, "error")
		return nil, fmt.Errorf("%w: GET %s: %v", ErrTransport, host, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody))
	if err != nil {
		metrics.RecordUpstreamRequest(host, "error")
		return nil, fmt.Errorf("%w: read %s: %v", ErrTransport, host, err)
	}
	metrics.RecordUpstreamRequest(host, statusClass(resp.StatusCode))
	return &Response{StatusCode: resp.StatusCode, Body: body}, nil
}

// StatusError describes a non-2xx response for adapter logs.
func StatusError(what string, resp *Response) error {
	return fmt.Errorf("%s status %d", what, resp.StatusCode)
}

func statusClass(code int) string {
	return strconv.Itoa(code/100) + "xx"
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "unknown"
	}
	return u.Host
}
