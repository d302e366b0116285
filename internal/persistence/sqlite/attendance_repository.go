package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/example/course-admin/internal/persistence"
	"github.com/example/course-admin/internal/timeutil"
)

// AttendanceRepository implements persistence.AttendanceRepository using SQLite.
type AttendanceRepository struct {
	pool     *ConnectionPool
	helper   *QueryHelper
	mapper   *ErrorMapper
	retry    *RetryHelper
	location *time.Location
}

// NewAttendanceRepository creates a new SQLite attendance repository. Dates are
// interpreted in loc; nil falls back to the default location.
func NewAttendanceRepository(pool *ConnectionPool, loc *time.Location) *AttendanceRepository {
	if loc == nil {
		loc = timeutil.DefaultLocation()
	}
	return &AttendanceRepository{
		pool:     pool,
		helper:   NewQueryHelper(pool),
		mapper:   NewErrorMapper(),
		retry:    NewRetryHelper(DefaultRetryConfig()),
		location: loc,
	}
}

const upsertAttendanceSQL = `
	INSERT INTO attendance_records
		(id, organization_id, course_id, learner_id, date, attended, notes, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (organization_id, course_id, learner_id, date)
	DO UPDATE SET attended = excluded.attended, notes = excluded.notes, updated_at = excluded.updated_at`

// UpsertAttendance creates or replaces the record keyed on
// (organization, course, learner, date). The date is normalized to midnight
// before storage.
func (r *AttendanceRepository) UpsertAttendance(ctx context.Context, record persistence.AttendanceRecord) error {
	if record.ID == "" || record.CourseID == "" || record.LearnerID == "" || record.OrganizationID == "" {
		return persistence.ErrConstraintViolation
	}

	now := time.Now().UTC()
	_, err := r.helper.Exec(ctx, upsertAttendanceSQL,
		record.ID,
		record.OrganizationID,
		record.CourseID,
		record.LearnerID,
		formatDate(timeutil.Midnight(record.Date, r.location), r.location),
		boolToInt(record.Attended),
		nullString(record.Notes),
		formatTimestamp(now),
		formatTimestamp(now),
	)
	return r.mapper.MapError(err)
}

// BulkUpsertAttendance applies the single-record upsert semantics to every
// record within one transaction. Contention is retried as a whole since each
// key is independently idempotent.
func (r *AttendanceRepository) BulkUpsertAttendance(ctx context.Context, records []persistence.AttendanceRecord) error {
	if len(records) == 0 {
		return nil
	}

	now := time.Now().UTC()

	return r.retry.WithRetry(ctx, func() error {
		return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
			for _, record := range records {
				if record.ID == "" || record.CourseID == "" || record.LearnerID == "" || record.OrganizationID == "" {
					return persistence.ErrConstraintViolation
				}
				if _, err := r.helper.ExecTx(tx, upsertAttendanceSQL,
					record.ID,
					record.OrganizationID,
					record.CourseID,
					record.LearnerID,
					formatDate(timeutil.Midnight(record.Date, r.location), r.location),
					boolToInt(record.Attended),
					nullString(record.Notes),
					formatTimestamp(now),
					formatTimestamp(now),
				); err != nil {
					return r.mapper.MapError(err)
				}
			}
			return nil
		})
	})
}

// ListAttendanceForCourseAndDate returns every record for the course on the
// exact calendar day.
func (r *AttendanceRepository) ListAttendanceForCourseAndDate(ctx context.Context, organizationID, courseID string, date time.Time) ([]persistence.AttendanceRecord, error) {
	rows, err := r.helper.Query(ctx, `
		SELECT id, organization_id, course_id, learner_id, date, attended, notes,
		       created_at, updated_at
		FROM attendance_records
		WHERE organization_id = ? AND course_id = ? AND date = ?
		ORDER BY learner_id ASC`,
		organizationID, courseID, formatDate(timeutil.Midnight(date, r.location), r.location))
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var records []persistence.AttendanceRecord
	for rows.Next() {
		var record persistence.AttendanceRecord
		var dateStr, createdAt, updatedAt string
		var attended int
		var notes sql.NullString
		if err := rows.Scan(
			&record.ID,
			&record.OrganizationID,
			&record.CourseID,
			&record.LearnerID,
			&dateStr,
			&attended,
			&notes,
			&createdAt,
			&updatedAt,
		); err != nil {
			return nil, r.mapper.MapError(err)
		}
		record.Attended = attended != 0
		record.Notes = stringPtr(notes)
		if record.Date, err = parseDate(dateStr, "date", r.location); err != nil {
			return nil, err
		}
		if record.CreatedAt, err = parseTimestamp(createdAt, "created_at"); err != nil {
			return nil, err
		}
		if record.UpdatedAt, err = parseTimestamp(updatedAt, "updated_at"); err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return records, nil
}

// ListAttendedLearnerIDsForDate returns the distinct learners with a positive
// attendance record anywhere in the organization on the date.
func (r *AttendanceRepository) ListAttendedLearnerIDsForDate(ctx context.Context, organizationID string, date time.Time) ([]string, error) {
	rows, err := r.helper.Query(ctx, `
		SELECT DISTINCT learner_id FROM attendance_records
		WHERE organization_id = ? AND date = ? AND attended = 1
		ORDER BY learner_id ASC`,
		organizationID, formatDate(timeutil.Midnight(date, r.location), r.location))
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, r.mapper.MapError(err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return ids, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
