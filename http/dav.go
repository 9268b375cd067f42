package http

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/fwojciec/httpmon"
	"golang.org/x/time/rate"
)

// DefaultMkcolInterval is the delay between MKCOL attempts.
const DefaultMkcolInterval = 5 * time.Second

// MethodMkcol is the WebDAV method that creates a collection.
const MethodMkcol = "MKCOL"

// Ensure DAV implements httpmon.Putter at compile time.
var _ httpmon.Putter = (*DAV)(nil)

// DAV writes content to a WebDAV server.
// Writes carry no timeout: a slow destination stalls the caller.
type DAV struct {
	client        *http.Client
	mkcolInterval time.Duration
}

// DAVOption configures a DAV.
type DAVOption func(*DAV)

// WithMkcolInterval sets the delay between MKCOL attempts.
// Defaults to DefaultMkcolInterval (5s) if not specified.
func WithMkcolInterval(interval time.Duration) DAVOption {
	return func(d *DAV) {
		d.mkcolInterval = interval
	}
}

// WithDAVClient sets the underlying HTTP client.
func WithDAVClient(hc *http.Client) DAVOption {
	return func(d *DAV) {
		d.client = hc
	}
}

// NewDAV creates a new DAV.
func NewDAV(opts ...DAVOption) *DAV {
	d := &DAV{
		client:        &http.Client{},
		mkcolInterval: DefaultMkcolInterval,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Put writes req.Body to req.URL. A 409 Conflict means the parent
// collection is missing: it is created and Put returns 409 with a nil
// error without retrying the write.
func (d *DAV) Put(ctx context.Context, req httpmon.PutRequest) (int, error) {
	status, err := d.do(ctx, http.MethodPut, req.URL, req.Authorization, req.Body)
	if err != nil {
		return 0, err
	}

	switch {
	case status >= 200 && status < 300:
		return status, nil
	case status == http.StatusConflict:
		collection, err := CollectionURL(req.URL, req.MkcolQuery)
		if err != nil {
			return status, err
		}
		return status, d.MakeCollection(ctx, collection, req.Authorization)
	default:
		return status, httpmon.Errorf(httpmon.EUNAVAILABLE, "PUT %s: HTTP %d", req.URL, status)
	}
}

// MakeCollection issues MKCOL against collectionURL until the server
// answers 2xx, or 405 Method Not Allowed meaning the collection already
// exists. Attempts are spaced by the MKCOL interval. Only context
// cancellation ends the loop early.
func (d *DAV) MakeCollection(ctx context.Context, collectionURL, auth string) error {
	limiter := rate.NewLimiter(rate.Every(d.mkcolInterval), 1)
	for {
		if err := limiter.Wait(ctx); err != nil {
			return err
		}
		status, err := d.do(ctx, MethodMkcol, collectionURL, auth, nil)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			continue
		}
		if (status >= 200 && status < 300) || status == http.StatusMethodNotAllowed {
			return nil
		}
	}
}

func (d *DAV) do(ctx context.Context, method, rawURL, auth string, body []byte) (int, error) {
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, r)
	if err != nil {
		return 0, httpmon.Errorf(httpmon.EINVALID, "building %s request for %s: %v", method, rawURL, err)
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode, nil
}

// CollectionURL returns the URL of the collection containing destURL with
// mkcolQuery appended verbatim.
// Example: http://dav/data/a.bin, "?create" → http://dav/data/?create
func CollectionURL(destURL, mkcolQuery string) (string, error) {
	u, err := url.Parse(destURL)
	if err != nil {
		return "", httpmon.Errorf(httpmon.EINVALID, "malformed destination %q: %v", destURL, err)
	}
	dir := path.Dir(u.Path)
	if dir == "." {
		dir = "/"
	}
	if dir != "/" {
		dir += "/"
	}
	u.Path = dir
	u.RawPath = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u.String() + mkcolQuery, nil
}
