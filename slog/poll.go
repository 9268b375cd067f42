package slog

import (
	"context"
	"log/slog"

	"github.com/fwojciec/httpmon"
)

// Ensure PollLogger implements httpmon.PollRecorder.
var _ httpmon.PollRecorder = (*PollLogger)(nil)

// PollLogger records each poll as one CSV line logged at debug level.
type PollLogger struct {
	logger *slog.Logger
}

// NewPollLogger creates a new PollLogger.
func NewPollLogger(logger *slog.Logger) *PollLogger {
	return &PollLogger{logger: logger}
}

// RecordPoll logs rec. It never fails.
func (l *PollLogger) RecordPoll(ctx context.Context, rec *httpmon.PollRecord) error {
	if !l.logger.Enabled(ctx, slog.LevelDebug) {
		return nil
	}
	l.logger.Log(ctx, slog.LevelDebug, rec.CSV())
	return nil
}
