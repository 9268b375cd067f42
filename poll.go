package httpmon

import (
	"context"
	"encoding/csv"
	"strconv"
	"strings"
	"time"
)

// PollRecord describes one completed poll of a resource.
// Times are Unix milliseconds; zero means unknown.
type PollRecord struct {
	ID           string `json:"id"`
	Time         int64  `json:"time"`
	Source       string `json:"source"`
	Destination  string `json:"destination"`
	GetStatus    int    `json:"getStatus"`
	PutStatus    int    `json:"putStatus"`
	Date         int64  `json:"date"`
	LastModified int64  `json:"lastModified"`
	Expires      int64  `json:"expires"`
	Next         int64  `json:"next"`
}

// Validate returns an error if the record contains invalid fields.
func (p *PollRecord) Validate() error {
	if p.Source == "" {
		return Errorf(EINVALID, "poll record source URL required")
	}
	if p.Time <= 0 {
		return Errorf(EINVALID, "poll record time required")
	}
	return nil
}

// CSV formats the record as a single CSV line without a trailing newline.
func (p *PollRecord) CSV() string {
	var b strings.Builder
	w := csv.NewWriter(&b)
	_ = w.Write([]string{
		formatMillis(p.Time),
		p.Source,
		p.Destination,
		strconv.Itoa(p.GetStatus),
		strconv.Itoa(p.PutStatus),
		formatMillis(p.Date),
		formatMillis(p.LastModified),
		formatMillis(p.Expires),
		formatMillis(p.Next),
	})
	w.Flush()
	return strings.TrimRight(b.String(), "\n")
}

func formatMillis(ms int64) string {
	if ms == 0 {
		return ""
	}
	return time.UnixMilli(ms).UTC().Format("2006-01-02T15:04:05.000Z")
}

// PollRecorder stores completed polls.
type PollRecorder interface {
	RecordPoll(ctx context.Context, rec *PollRecord) error
}

// PollRecorders fans a record out to several recorders.
// The first error is returned after every recorder has been called.
type PollRecorders []PollRecorder

// RecordPoll records rec with every recorder.
func (rs PollRecorders) RecordPoll(ctx context.Context, rec *PollRecord) error {
	var first error
	for _, r := range rs {
		if err := r.RecordPoll(ctx, rec); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// PollService stores and queries the poll history.
type PollService interface {
	PollRecorder

	// FindPolls returns the polls matching filter, newest first.
	FindPolls(ctx context.Context, filter PollFilter) ([]*PollRecord, error)
}

// PollFilter restricts FindPolls. Nil fields match everything.
type PollFilter struct {
	Source      *string
	Destination *string
	// Since excludes polls before the given Unix millisecond time.
	Since *int64

	Limit  int
	Offset int
}
