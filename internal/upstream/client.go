package upstream

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/angeloszaimis/edge-filter/internal/circuitbreaker"
)

var ErrFetch = errors.New("upstream fetch failed")

// FetchError wraps a failed outbound request. errors.Is(err, ErrFetch)
// holds for every FetchError.
type FetchError struct {
	Target string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %q: %v", e.Target, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

func (e *FetchError) Is(target error) bool {
	return target == ErrFetch
}

// Fetcher sends one request to target and returns the response untouched.
type Fetcher interface {
	Fetch(ctx context.Context, method, target string, header http.Header) (*http.Response, error)
}

// Client is the Fetcher used in production.
type Client struct {
	httpClient *http.Client
	breakers   *circuitbreaker.Registry
}

type Option func(*Client)

// WithTimeout bounds the whole outbound exchange, body included.
// Zero means no limit.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithBreakers refuses requests to hosts whose breaker is open.
func WithBreakers(r *circuitbreaker.Registry) Option {
	return func(c *Client) {
		c.breakers = r
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func NewClient(opts ...Option) *Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	// Bodies and Content-Encoding must reach the caller as sent.
	transport.DisableCompression = true

	c := &Client{
		httpClient: &http.Client{Transport: transport},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Fetch issues method against target with exactly the given headers. The
// caller owns the response body.
func (c *Client) Fetch(ctx context.Context, method, target string, header http.Header) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return nil, &FetchError{Target: target, Err: err}
	}

	req.Header = header.Clone()
	if req.Header == nil {
		req.Header = make(http.Header)
	}
	// An empty User-Agent keeps net/http from adding its own.
	if _, ok := req.Header["User-Agent"]; !ok {
		req.Header["User-Agent"] = []string{""}
	}

	var breaker *circuitbreaker.Breaker
	if host := Host(target); c.breakers != nil && host != "" {
		breaker = c.breakers.Get(host)
		if err := breaker.Acquire(); err != nil {
			return nil, fmt.Errorf("%s: %w", host, err)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if breaker != nil {
			// A caller that went away says nothing about the upstream.
			if ctx.Err() != nil {
				breaker.Release()
			} else {
				breaker.RecordFailure()
			}
		}
		return nil, &FetchError{Target: target, Err: err}
	}

	if breaker != nil {
		if resp.StatusCode >= http.StatusInternalServerError {
			breaker.RecordFailure()
		} else {
			breaker.RecordSuccess()
		}
	}

	return resp, nil
}

// Host returns the host part of target, or the empty string when target
// is not an absolute URL.
func Host(target string) string {
	u, err := url.Parse(target)
	if err != nil {
		return ""
	}
	return u.Host
}
