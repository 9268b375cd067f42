package mock

import (
	"context"

	"github.com/fwojciec/httpmon"
)

var _ httpmon.PollRecorder = (*PollRecorder)(nil)

// PollRecorder is a mock implementation of httpmon.PollRecorder.
type PollRecorder struct {
	RecordPollFn func(ctx context.Context, rec *httpmon.PollRecord) error
}

func (r *PollRecorder) RecordPoll(ctx context.Context, rec *httpmon.PollRecord) error {
	return r.RecordPollFn(ctx, rec)
}
