package monitor

import (
	"context"
	"net/http"

	"github.com/fwojciec/httpmon"
)

// PollResult is the outcome of one poll.
type PollResult struct {
	// Status is the GET status code, zero when the request failed.
	Status int
	// Success is true when the response carried new content.
	Success bool
	Payload []byte

	// Delivered is the number of live subscribers that received the payload.
	Delivered int
	// PutStatus is the status of the destination write, zero if none was made.
	PutStatus int
	// WriteErr is the error of the destination write. It never stops
	// the resource from being polled again.
	WriteErr error
}

// Poll fetches r once, updates its schedule and, when the content changed
// and write is true, writes the content through to subscribers and the
// destination.
//
// Transient failures are folded into the schedule and return a nil error.
// A returned error means r can never be fetched.
func (e *Engine) Poll(ctx context.Context, r *httpmon.Resource, write bool) (*PollResult, error) {
	e.init()
	tuning := e.settings.Tuning()

	res := &PollResult{}
	obs := httpmon.Observation{RequestTime: e.nowMillis()}

	resp, err := e.Fetcher.Get(ctx, httpmon.Request{
		URL:             r.Source,
		IfModifiedSince: r.LastModifiedRaw,
		Authorization:   r.Authorization,
		Timeout:         millis(e.settings.ReadTimeout),
	})
	if err != nil {
		r.NextRequestTime = tuning.NextRequestTime(r, obs)
		e.record(ctx, r, res, obs)
		if httpmon.ErrorCode(err) == httpmon.EINVALID {
			return res, err
		}
		e.log().Warn("fetch failed", "source", r.Source, "destination", r.Destination, "err", err)
		return res, nil
	}

	res.Status = resp.StatusCode
	obs.Date = resp.Date
	obs.LastModified = resp.LastModified
	obs.Expires = resp.Expires
	obs.Success = resp.StatusCode == http.StatusOK &&
		(resp.LastModified == 0 || resp.LastModified != r.PrevLastModified)

	if obs.Success {
		res.Success = true
		res.Payload = resp.Body
		r.LastPayload = resp.Body
		r.LastModifiedRaw = resp.LastModifiedRaw
	}
	r.NextRequestTime = tuning.NextRequestTime(r, obs)

	if obs.Success && write {
		res.Delivered, res.PutStatus, res.WriteErr = e.write(ctx, r, resp.Body)
	}
	e.record(ctx, r, res, obs)
	return res, nil
}

// write broadcasts body to live subscribers and then stores it at the
// destination of r.
func (e *Engine) write(ctx context.Context, r *httpmon.Resource, body []byte) (int, int, error) {
	var delivered int
	if e.fanout != nil {
		delivered = e.fanout.Broadcast(body)
	}
	if r.Destination == "" || e.Putter == nil {
		return delivered, 0, nil
	}
	status, err := e.Putter.Put(ctx, httpmon.PutRequest{
		URL:           r.Destination,
		Authorization: e.settings.PutAuth(),
		Body:          body,
		MkcolQuery:    e.settings.MkcolQuery,
	})
	return delivered, status, err
}

func (e *Engine) record(ctx context.Context, r *httpmon.Resource, res *PollResult, obs httpmon.Observation) {
	if e.Recorder == nil {
		return
	}
	rec := &httpmon.PollRecord{
		Time:         obs.RequestTime,
		Source:       r.Source,
		Destination:  r.Destination,
		GetStatus:    res.Status,
		PutStatus:    res.PutStatus,
		Date:         obs.Date,
		LastModified: obs.LastModified,
		Expires:      obs.Expires,
		Next:         r.NextRequestTime,
	}
	if err := e.Recorder.RecordPoll(ctx, rec); err != nil {
		e.log().Warn("recording poll", "source", r.Source, "err", err)
	}
}
