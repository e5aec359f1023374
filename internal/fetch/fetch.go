// Package fetch retrieves resource bytes for headless documents.
//
// A Client resolves references against a base URL, keeps every body it
// fetched for its own lifetime, and collapses concurrent requests for the
// same URL into one transfer. Failures are returned and never retried.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"

	"golang.org/x/sync/singleflight"
)

// ErrStatus is wrapped by Fetch when the server answers with a non-2xx
// status.
var ErrStatus = errors.New("unexpected status")

// Stats summarizes a Client's activity.
type Stats struct {
	Requests  int   // transfers that reached the network or file system
	CacheHits int   // fetches answered from memory
	Bytes     int64 // body bytes cached
}

// Client fetches and caches resource bodies.
type Client struct {
	http    *http.Client
	baseRaw string
	root    string
	base    *url.URL
	logger  *slog.Logger
	group   singleflight.Group

	mu       sync.Mutex
	cache    map[string][]byte
	requests map[string]int
	hits     int
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for transfers.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithBaseURL sets the URL relative references resolve against.
func WithBaseURL(raw string) Option {
	return func(c *Client) { c.baseRaw = raw }
}

// WithRoot serves file: URLs from dir. When no base URL is set, relative
// references resolve into dir as well.
func WithRoot(dir string) Option {
	return func(c *Client) { c.root = dir }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// New creates a Client.
func New(opts ...Option) (*Client, error) {
	c := &Client{
		logger:   slog.New(slog.DiscardHandler),
		cache:    make(map[string][]byte),
		requests: make(map[string]int),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.http == nil {
		c.http = &http.Client{}
	}
	if c.root != "" {
		t := &http.Transport{}
		t.RegisterProtocol("file", http.NewFileTransport(http.Dir(c.root)))
		c.http = &http.Client{Transport: t, Timeout: c.http.Timeout}
		if c.baseRaw == "" {
			c.baseRaw = "file:///"
		}
	}
	if c.baseRaw != "" {
		base, err := url.Parse(c.baseRaw)
		if err != nil {
			return nil, fmt.Errorf("invalid base URL %q: %w", c.baseRaw, err)
		}
		c.base = base
	}
	return c, nil
}

// Resolve returns the absolute URL for ref.
func (c *Client) Resolve(ref string) (string, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("invalid reference %q: %w", ref, err)
	}
	if c.base != nil {
		u = c.base.ResolveReference(u)
	}
	if !u.IsAbs() {
		return "", fmt.Errorf("cannot resolve relative reference %q without a base URL", ref)
	}
	return u.String(), nil
}

// Fetch returns the body behind ref, from memory when it was fetched
// before.
func (c *Client) Fetch(ctx context.Context, ref string) ([]byte, error) {
	u, err := c.Resolve(ref)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if body, ok := c.cache[u]; ok {
		c.hits++
		c.mu.Unlock()
		return body, nil
	}
	c.mu.Unlock()

	v, err, shared := c.group.Do(u, func() (any, error) {
		// A transfer that finished between the check above and here has
		// already filled the cache.
		c.mu.Lock()
		body, ok := c.cache[u]
		c.mu.Unlock()
		if ok {
			return body, nil
		}
		return c.get(ctx, u)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		c.logger.Debug("fetch shared with concurrent caller", "url", u)
	}
	return v.([]byte), nil
}

// Requests returns how many transfers were made for ref.
func (c *Client) Requests(ref string) int {
	u, err := c.Resolve(ref)
	if err != nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.requests[u]
}

// Stats returns a snapshot of the client's counters.
func (c *Client) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Stats{CacheHits: c.hits}
	for _, n := range c.requests {
		s.Requests += n
	}
	for _, body := range c.cache {
		s.Bytes += int64(len(body))
	}
	return s
}

func (c *Client) get(ctx context.Context, u string) ([]byte, error) {
	c.mu.Lock()
	c.requests[u]++
	c.mu.Unlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", u, err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", u, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s returned %d", ErrStatus, u, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", u, err)
	}

	c.mu.Lock()
	c.cache[u] = body
	c.mu.Unlock()

	c.logger.Debug("fetched resource", "url", u, "bytes", len(body))
	return body, nil
}
