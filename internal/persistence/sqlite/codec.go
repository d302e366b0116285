package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/example/course-admin/internal/timeutil"
)

// Storage codecs shared by the repositories. Timestamps are persisted as
// RFC3339 strings, calendar dates as "2006-01-02" strings, both interpreted in
// the location the repositories were constructed with.

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTimestamp(value, column string) (time.Time, error) {
	ts, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse %s: %w", column, err)
	}
	return ts, nil
}

func formatDate(t time.Time, loc *time.Location) string {
	return timeutil.FormatDate(t, loc)
}

func parseDate(value, column string, loc *time.Location) (time.Time, error) {
	date, err := timeutil.ParseDate(value, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse %s: %w", column, err)
	}
	return date, nil
}

func nullString(value *string) sql.NullString {
	if value == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *value, Valid: true}
}

func stringPtr(value sql.NullString) *string {
	if !value.Valid {
		return nil
	}
	s := value.String
	return &s
}
