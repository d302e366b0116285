package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/example/course-admin/internal/persistence"
	"github.com/example/course-admin/internal/timeutil"
)

// ScheduleItemRepository implements persistence.ScheduleItemRepository using SQLite.
type ScheduleItemRepository struct {
	pool     *ConnectionPool
	helper   *QueryHelper
	mapper   *ErrorMapper
	location *time.Location
}

// NewScheduleItemRepository creates a new SQLite schedule item repository.
// Dates are interpreted in loc; nil falls back to the default location.
func NewScheduleItemRepository(pool *ConnectionPool, loc *time.Location) *ScheduleItemRepository {
	if loc == nil {
		loc = timeutil.DefaultLocation()
	}
	return &ScheduleItemRepository{
		pool:     pool,
		helper:   NewQueryHelper(pool),
		mapper:   NewErrorMapper(),
		location: loc,
	}
}

// GetScheduleItem retrieves a schedule item by ID.
func (r *ScheduleItemRepository) GetScheduleItem(ctx context.Context, id string) (persistence.ScheduleItem, error) {
	if id == "" {
		return persistence.ScheduleItem{}, persistence.ErrNotFound
	}

	row := r.helper.QueryRow(ctx, `
		SELECT id, course_id, organization_id, day_of_week, start_time, end_time,
		       validity_start, validity_end, created_at, updated_at
		FROM schedule_items WHERE id = ?`, id)

	item, err := r.scanItem(row.Scan)
	if err != nil {
		return persistence.ScheduleItem{}, err
	}
	return item, nil
}

// ListScheduleItemsForCourse returns the course's schedule items ordered by
// weekday then start time.
func (r *ScheduleItemRepository) ListScheduleItemsForCourse(ctx context.Context, courseID, organizationID string) ([]persistence.ScheduleItem, error) {
	rows, err := r.helper.Query(ctx, `
		SELECT id, course_id, organization_id, day_of_week, start_time, end_time,
		       validity_start, validity_end, created_at, updated_at
		FROM schedule_items
		WHERE course_id = ? AND organization_id = ?
		ORDER BY day_of_week ASC, start_time ASC, id ASC`, courseID, organizationID)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var items []persistence.ScheduleItem
	for rows.Next() {
		item, err := r.scanItem(rows.Scan)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return items, nil
}

// ReplaceScheduleItems deletes every existing item for the course and inserts
// the new set within one transaction. An empty set clears the schedule.
func (r *ScheduleItemRepository) ReplaceScheduleItems(ctx context.Context, courseID, organizationID string, items []persistence.ScheduleItem) error {
	if courseID == "" || organizationID == "" {
		return persistence.ErrConstraintViolation
	}

	now := time.Now().UTC()

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := r.helper.ExecTx(tx,
			"DELETE FROM schedule_items WHERE course_id = ? AND organization_id = ?",
			courseID, organizationID); err != nil {
			return r.mapper.MapError(err)
		}

		for _, item := range items {
			if item.ID == "" {
				return persistence.ErrConstraintViolation
			}
			if _, err := r.helper.ExecTx(tx, `
				INSERT INTO schedule_items
					(id, course_id, organization_id, day_of_week, start_time, end_time,
					 validity_start, validity_end, created_at, updated_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				item.ID,
				courseID,
				organizationID,
				int(item.DayOfWeek),
				item.StartTime,
				item.EndTime,
				formatDate(item.ValidityStart, r.location),
				formatDate(item.ValidityEnd, r.location),
				formatTimestamp(now),
				formatTimestamp(now),
			); err != nil {
				return r.mapper.MapError(err)
			}
		}

		return nil
	})
}

// UpdateScheduleItem updates one item's recurrence fields in place.
func (r *ScheduleItemRepository) UpdateScheduleItem(ctx context.Context, item persistence.ScheduleItem) error {
	if item.ID == "" {
		return persistence.ErrConstraintViolation
	}

	result, err := r.helper.Exec(ctx, `
		UPDATE schedule_items
		SET day_of_week = ?, start_time = ?, end_time = ?,
		    validity_start = ?, validity_end = ?, updated_at = ?
		WHERE id = ? AND organization_id = ?`,
		int(item.DayOfWeek),
		item.StartTime,
		item.EndTime,
		formatDate(item.ValidityStart, r.location),
		formatDate(item.ValidityEnd, r.location),
		formatTimestamp(time.Now().UTC()),
		item.ID,
		item.OrganizationID,
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

// DeleteScheduleItem removes one item. Materialized sessions are left alone;
// orphans persist until the next schedule replacement.
func (r *ScheduleItemRepository) DeleteScheduleItem(ctx context.Context, id, organizationID string) error {
	if id == "" {
		return persistence.ErrNotFound
	}

	result, err := r.helper.Exec(ctx,
		"DELETE FROM schedule_items WHERE id = ? AND organization_id = ?", id, organizationID)
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

func (r *ScheduleItemRepository) scanItem(scan func(dest ...any) error) (persistence.ScheduleItem, error) {
	var item persistence.ScheduleItem
	var dayOfWeek int
	var validityStart, validityEnd, createdAt, updatedAt string

	err := scan(
		&item.ID,
		&item.CourseID,
		&item.OrganizationID,
		&dayOfWeek,
		&item.StartTime,
		&item.EndTime,
		&validityStart,
		&validityEnd,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return persistence.ScheduleItem{}, r.mapper.MapError(err)
	}

	item.DayOfWeek = time.Weekday(dayOfWeek)
	if item.ValidityStart, err = parseDate(validityStart, "validity_start", r.location); err != nil {
		return persistence.ScheduleItem{}, err
	}
	if item.ValidityEnd, err = parseDate(validityEnd, "validity_end", r.location); err != nil {
		return persistence.ScheduleItem{}, err
	}
	if item.CreatedAt, err = parseTimestamp(createdAt, "created_at"); err != nil {
		return persistence.ScheduleItem{}, err
	}
	if item.UpdatedAt, err = parseTimestamp(updatedAt, "updated_at"); err != nil {
		return persistence.ScheduleItem{}, err
	}
	return item, nil
}
