package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/httpmon"
)

// Ensure LoggingPutter implements httpmon.Putter.
var _ httpmon.Putter = (*LoggingPutter)(nil)

// LoggingPutter wraps a Putter with debug logging.
type LoggingPutter struct {
	next   httpmon.Putter
	logger *slog.Logger
}

// NewLoggingPutter creates a new LoggingPutter.
func NewLoggingPutter(next httpmon.Putter, logger *slog.Logger) *LoggingPutter {
	return &LoggingPutter{next: next, logger: logger}
}

// Put delegates to the wrapped putter and logs the write.
func (p *LoggingPutter) Put(ctx context.Context, req httpmon.PutRequest) (status int, err error) {
	defer func(begin time.Time) {
		p.logger.DebugContext(ctx, "put",
			"url", req.URL,
			"bytes", len(req.Body),
			"status", status,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return p.next.Put(ctx, req)
}
