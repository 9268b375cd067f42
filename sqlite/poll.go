package sqlite

import (
	"context"
	"strings"

	"github.com/fwojciec/httpmon"
	"github.com/google/uuid"
)

// Compile-time interface verification.
var _ httpmon.PollService = (*PollService)(nil)

// PollService implements httpmon.PollService using SQLite.
type PollService struct {
	db *DB
}

// NewPollService creates a new PollService.
func NewPollService(db *DB) *PollService {
	return &PollService{db: db}
}

// RecordPoll stores a completed poll and assigns it an ID.
func (s *PollService) RecordPoll(ctx context.Context, rec *httpmon.PollRecord) error {
	if err := rec.Validate(); err != nil {
		return err
	}

	rec.ID = uuid.New().String()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO polls (id, time, source_url, destination_url, get_status, put_status, server_date, last_modified, expires, next_time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.Time, rec.Source, rec.Destination, rec.GetStatus, rec.PutStatus,
		rec.Date, rec.LastModified, rec.Expires, rec.Next)

	return err
}

// FindPolls retrieves polls matching the filter, newest first.
func (s *PollService) FindPolls(ctx context.Context, filter httpmon.PollFilter) ([]*httpmon.PollRecord, error) {
	var query strings.Builder
	var args []any

	query.WriteString("SELECT id, time, source_url, destination_url, get_status, put_status, server_date, last_modified, expires, next_time FROM polls WHERE 1=1")

	if filter.Source != nil {
		query.WriteString(" AND source_url = ?")
		args = append(args, *filter.Source)
	}
	if filter.Destination != nil {
		query.WriteString(" AND destination_url = ?")
		args = append(args, *filter.Destination)
	}
	if filter.Since != nil {
		query.WriteString(" AND time >= ?")
		args = append(args, *filter.Since)
	}

	query.WriteString(" ORDER BY time DESC, rowid DESC")
	appendPagination(&query, &args, filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var polls []*httpmon.PollRecord
	for rows.Next() {
		var rec httpmon.PollRecord
		if err := rows.Scan(&rec.ID, &rec.Time, &rec.Source, &rec.Destination, &rec.GetStatus,
			&rec.PutStatus, &rec.Date, &rec.LastModified, &rec.Expires, &rec.Next); err != nil {
			return nil, err
		}
		polls = append(polls, &rec)
	}

	return polls, rows.Err()
}
