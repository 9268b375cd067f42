package httpmon

import (
	"context"
	"time"
)

// Request is a conditional GET of a monitored resource.
type Request struct {
	URL string

	// IfModifiedSince is sent verbatim as the If-Modified-Since header.
	// Some servers compare it as a string, so it must never be reformatted.
	IfModifiedSince string

	Authorization string

	// Timeout bounds the whole request including the body read.
	// Zero falls back to the Fetcher's default timeout.
	Timeout time.Duration
}

// Response is the outcome of a GET.
// Times are Unix milliseconds; zero means the header was absent or unparsable.
type Response struct {
	StatusCode int
	Body       []byte

	Date         int64
	LastModified int64
	Expires      int64

	// LastModifiedRaw is the Last-Modified header exactly as received.
	LastModifiedRaw string
}

// Fetcher retrieves monitored resources.
type Fetcher interface {
	// Get issues the request and returns the response for any HTTP status.
	// Transport failures and short body reads return an error.
	// A request that cannot be built returns EINVALID.
	Get(ctx context.Context, req Request) (*Response, error)
}
