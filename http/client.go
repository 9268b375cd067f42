// Package http provides HTTP implementations of httpmon.Fetcher and
// httpmon.Putter: conditional GETs against monitored resources and
// WebDAV writes to their destinations.
package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/fwojciec/httpmon"
)

// DefaultReadTimeout is used when a request carries no timeout of its own.
const DefaultReadTimeout = 60 * time.Second

// Ensure Client implements httpmon.Fetcher at compile time.
var _ httpmon.Fetcher = (*Client)(nil)

// Client performs conditional GETs of monitored resources.
type Client struct {
	client  *http.Client
	timeout time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the timeout for requests that do not carry one.
// Defaults to DefaultReadTimeout (60s) if not specified.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.client = hc
	}
}

// NewClient creates a new Client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		client:  &http.Client{},
		timeout: DefaultReadTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get issues a GET for req.URL. The body is only read for 200 responses,
// and exactly Content-Length bytes are expected when the server sends one.
func (c *Client) Get(ctx context.Context, req httpmon.Request) (*httpmon.Response, error) {
	u, err := url.Parse(req.URL)
	if err != nil {
		return nil, httpmon.Errorf(httpmon.EINVALID, "malformed source %q: %v", req.URL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, httpmon.Errorf(httpmon.EINVALID, "unsupported source scheme %q", u.Scheme)
	}

	timeout := req.Timeout
	if timeout == 0 {
		timeout = c.timeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	hreq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return nil, httpmon.Errorf(httpmon.EINVALID, "building request for %s: %v", req.URL, err)
	}
	// Set through the map so the value goes out exactly as stored.
	if req.IfModifiedSince != "" {
		hreq.Header["If-Modified-Since"] = []string{req.IfModifiedSince}
	}
	if req.Authorization != "" {
		hreq.Header.Set("Authorization", req.Authorization)
	}

	resp, err := c.client.Do(hreq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	out := &httpmon.Response{
		StatusCode:      resp.StatusCode,
		Date:            headerMillis(resp.Header, "Date"),
		LastModified:    headerMillis(resp.Header, "Last-Modified"),
		Expires:         headerMillis(resp.Header, "Expires"),
		LastModifiedRaw: resp.Header.Get("Last-Modified"),
	}

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return out, nil
	}

	if resp.ContentLength >= 0 {
		body, err := io.ReadAll(io.LimitReader(resp.Body, resp.ContentLength))
		if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("reading %s: %w", req.URL, err)
		}
		if int64(len(body)) < resp.ContentLength {
			return nil, httpmon.Errorf(httpmon.EUNAVAILABLE, "short read from %s: got %d of %d bytes", req.URL, len(body), resp.ContentLength)
		}
		out.Body = body
		return out, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", req.URL, err)
	}
	out.Body = body
	return out, nil
}

// headerMillis parses an HTTP date header into Unix milliseconds.
// Missing or unparsable values yield zero.
func headerMillis(h http.Header, key string) int64 {
	v := h.Get(key)
	if v == "" {
		return 0
	}
	t, err := http.ParseTime(v)
	if err != nil {
		return 0
	}
	return t.UnixMilli()
}
