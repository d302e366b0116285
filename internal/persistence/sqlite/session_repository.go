package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/example/course-admin/internal/persistence"
	"github.com/example/course-admin/internal/timeutil"
)

// SessionRepository implements persistence.SessionRepository using SQLite.
type SessionRepository struct {
	pool     *ConnectionPool
	helper   *QueryHelper
	mapper   *ErrorMapper
	location *time.Location
}

// NewSessionRepository creates a new SQLite session repository. Dates are
// interpreted in loc; nil falls back to the default location.
func NewSessionRepository(pool *ConnectionPool, loc *time.Location) *SessionRepository {
	if loc == nil {
		loc = timeutil.DefaultLocation()
	}
	return &SessionRepository{
		pool:     pool,
		helper:   NewQueryHelper(pool),
		mapper:   NewErrorMapper(),
		location: loc,
	}
}

// CreateSessions batch-inserts materialized sessions within one transaction.
func (r *SessionRepository) CreateSessions(ctx context.Context, sessions []persistence.Session) error {
	if len(sessions) == 0 {
		return nil
	}

	now := time.Now().UTC()

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		for _, session := range sessions {
			if session.ID == "" || session.CourseID == "" || session.OrganizationID == "" {
				return persistence.ErrConstraintViolation
			}
			status := session.Status
			if status == "" {
				status = "NORMAL"
			}
			if _, err := r.helper.ExecTx(tx, `
				INSERT INTO sessions
					(id, course_id, organization_id, schedule_item_id, date, start_at, end_at,
					 status, created_at, updated_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				session.ID,
				session.CourseID,
				session.OrganizationID,
				session.ScheduleItemID,
				formatDate(session.Date, r.location),
				formatTimestamp(session.Start),
				formatTimestamp(session.End),
				status,
				formatTimestamp(now),
				formatTimestamp(now),
			); err != nil {
				return r.mapper.MapError(err)
			}
		}
		return nil
	})
}

// GetSession retrieves a session by ID.
func (r *SessionRepository) GetSession(ctx context.Context, id string) (persistence.Session, error) {
	if id == "" {
		return persistence.Session{}, persistence.ErrNotFound
	}

	row := r.helper.QueryRow(ctx, `
		SELECT id, course_id, organization_id, schedule_item_id, date, start_at, end_at,
		       status, created_at, updated_at
		FROM sessions WHERE id = ?`, id)

	return r.scanSession(row.Scan)
}

// ListSessionsForCourse returns the course's sessions ordered by start time,
// optionally narrowed to a date window.
func (r *SessionRepository) ListSessionsForCourse(ctx context.Context, courseID, organizationID string, filter persistence.SessionFilter) ([]persistence.Session, error) {
	query := `
		SELECT id, course_id, organization_id, schedule_item_id, date, start_at, end_at,
		       status, created_at, updated_at
		FROM sessions
		WHERE course_id = ? AND organization_id = ?`
	args := []any{courseID, organizationID}

	if filter.From != nil {
		query += " AND date >= ?"
		args = append(args, formatDate(*filter.From, r.location))
	}
	if filter.To != nil {
		query += " AND date <= ?"
		args = append(args, formatDate(*filter.To, r.location))
	}
	query += " ORDER BY start_at ASC, id ASC"

	rows, err := r.helper.Query(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var sessions []persistence.Session
	for rows.Next() {
		session, err := r.scanSession(rows.Scan)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}

	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return sessions, nil
}

// DeleteFutureSessions removes every session for the course dated at or after
// the cutoff. The cutoff is the caller's to choose, not wall-clock "now".
func (r *SessionRepository) DeleteFutureSessions(ctx context.Context, courseID, organizationID string, from time.Time) error {
	if courseID == "" || organizationID == "" {
		return persistence.ErrConstraintViolation
	}

	_, err := r.helper.Exec(ctx,
		"DELETE FROM sessions WHERE course_id = ? AND organization_id = ? AND date >= ?",
		courseID, organizationID, formatDate(from, r.location))
	return r.mapper.MapError(err)
}

// UpdateSession rewrites a session's status and time window.
func (r *SessionRepository) UpdateSession(ctx context.Context, session persistence.Session) error {
	if session.ID == "" {
		return persistence.ErrConstraintViolation
	}

	result, err := r.helper.Exec(ctx, `
		UPDATE sessions
		SET date = ?, start_at = ?, end_at = ?, status = ?, updated_at = ?
		WHERE id = ? AND organization_id = ?`,
		formatDate(session.Date, r.location),
		formatTimestamp(session.Start),
		formatTimestamp(session.End),
		session.Status,
		formatTimestamp(time.Now().UTC()),
		session.ID,
		session.OrganizationID,
	)
	if err != nil {
		return r.mapper.MapError(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

func (r *SessionRepository) scanSession(scan func(dest ...any) error) (persistence.Session, error) {
	var session persistence.Session
	var date, startAt, endAt, createdAt, updatedAt string

	err := scan(
		&session.ID,
		&session.CourseID,
		&session.OrganizationID,
		&session.ScheduleItemID,
		&date,
		&startAt,
		&endAt,
		&session.Status,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return persistence.Session{}, r.mapper.MapError(err)
	}

	if session.Date, err = parseDate(date, "date", r.location); err != nil {
		return persistence.Session{}, err
	}
	if session.Start, err = parseTimestamp(startAt, "start_at"); err != nil {
		return persistence.Session{}, err
	}
	if session.End, err = parseTimestamp(endAt, "end_at"); err != nil {
		return persistence.Session{}, err
	}
	if session.CreatedAt, err = parseTimestamp(createdAt, "created_at"); err != nil {
		return persistence.Session{}, err
	}
	if session.UpdatedAt, err = parseTimestamp(updatedAt, "updated_at"); err != nil {
		return persistence.Session{}, err
	}
	return session, nil
}
