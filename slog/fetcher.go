// Package slog decorates httpmon services with structured logging.
package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/httpmon"
)

// Ensure LoggingFetcher implements httpmon.Fetcher.
var _ httpmon.Fetcher = (*LoggingFetcher)(nil)

// LoggingFetcher wraps a Fetcher with debug logging.
type LoggingFetcher struct {
	next   httpmon.Fetcher
	logger *slog.Logger
}

// NewLoggingFetcher creates a new LoggingFetcher.
func NewLoggingFetcher(next httpmon.Fetcher, logger *slog.Logger) *LoggingFetcher {
	return &LoggingFetcher{next: next, logger: logger}
}

// Get delegates to the wrapped fetcher and logs the request.
func (f *LoggingFetcher) Get(ctx context.Context, req httpmon.Request) (resp *httpmon.Response, err error) {
	defer func(begin time.Time) {
		var status, n int
		if resp != nil {
			status, n = resp.StatusCode, len(resp.Body)
		}
		f.logger.DebugContext(ctx, "get",
			"url", req.URL,
			"if_modified_since", req.IfModifiedSince,
			"status", status,
			"bytes", n,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return f.next.Get(ctx, req)
}
