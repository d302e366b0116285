package sqlite

import (
	"context"
	"time"

	"github.com/example/course-admin/internal/persistence"
	"github.com/example/course-admin/internal/timeutil"
)

// EnrollmentRepository implements persistence.EnrollmentRepository using SQLite.
type EnrollmentRepository struct {
	pool     *ConnectionPool
	helper   *QueryHelper
	mapper   *ErrorMapper
	location *time.Location
}

// NewEnrollmentRepository creates a new SQLite enrollment repository. Dates are
// interpreted in loc; nil falls back to the default location.
func NewEnrollmentRepository(pool *ConnectionPool, loc *time.Location) *EnrollmentRepository {
	if loc == nil {
		loc = timeutil.DefaultLocation()
	}
	return &EnrollmentRepository{
		pool:     pool,
		helper:   NewQueryHelper(pool),
		mapper:   NewErrorMapper(),
		location: loc,
	}
}

// CreateEnrollment inserts a membership. The (course_id, learner_id) unique
// constraint surfaces duplicates as persistence.ErrDuplicate.
func (r *EnrollmentRepository) CreateEnrollment(ctx context.Context, enrollment persistence.Enrollment) error {
	if enrollment.ID == "" || enrollment.CourseID == "" || enrollment.LearnerID == "" {
		return persistence.ErrConstraintViolation
	}

	_, err := r.helper.Exec(ctx, `
		INSERT INTO enrollments (id, organization_id, course_id, learner_id, enrolled_on, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		enrollment.ID,
		enrollment.OrganizationID,
		enrollment.CourseID,
		enrollment.LearnerID,
		formatDate(enrollment.EnrolledOn, r.location),
		formatTimestamp(time.Now().UTC()),
	)
	return r.mapper.MapError(err)
}

// DeleteEnrollment removes a membership. Removing an absent membership is a
// no-op, not an error.
func (r *EnrollmentRepository) DeleteEnrollment(ctx context.Context, courseID, learnerID string) error {
	_, err := r.helper.Exec(ctx,
		"DELETE FROM enrollments WHERE course_id = ? AND learner_id = ?", courseID, learnerID)
	return r.mapper.MapError(err)
}

// ListEnrollmentsForCourse returns the course's memberships ordered by
// enrollment date.
func (r *EnrollmentRepository) ListEnrollmentsForCourse(ctx context.Context, organizationID, courseID string) ([]persistence.Enrollment, error) {
	rows, err := r.helper.Query(ctx, `
		SELECT id, organization_id, course_id, learner_id, enrolled_on, created_at
		FROM enrollments
		WHERE organization_id = ? AND course_id = ?
		ORDER BY enrolled_on ASC, id ASC`, organizationID, courseID)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var enrollments []persistence.Enrollment
	for rows.Next() {
		var enrollment persistence.Enrollment
		var enrolledOn, createdAt string
		if err := rows.Scan(
			&enrollment.ID,
			&enrollment.OrganizationID,
			&enrollment.CourseID,
			&enrollment.LearnerID,
			&enrolledOn,
			&createdAt,
		); err != nil {
			return nil, r.mapper.MapError(err)
		}
		if enrollment.EnrolledOn, err = parseDate(enrolledOn, "enrolled_on", r.location); err != nil {
			return nil, err
		}
		if enrollment.CreatedAt, err = parseTimestamp(createdAt, "created_at"); err != nil {
			return nil, err
		}
		enrollments = append(enrollments, enrollment)
	}

	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return enrollments, nil
}

// ListLearnerIDsForCourse returns the distinct learners enrolled in the course.
func (r *EnrollmentRepository) ListLearnerIDsForCourse(ctx context.Context, organizationID, courseID string) ([]string, error) {
	return r.listLearnerIDs(ctx, `
		SELECT DISTINCT learner_id FROM enrollments
		WHERE organization_id = ? AND course_id = ?
		ORDER BY learner_id ASC`, organizationID, courseID)
}

// ListLearnerIDsForOrganization returns the distinct learners enrolled in any
// course of the organization.
func (r *EnrollmentRepository) ListLearnerIDsForOrganization(ctx context.Context, organizationID string) ([]string, error) {
	return r.listLearnerIDs(ctx, `
		SELECT DISTINCT learner_id FROM enrollments
		WHERE organization_id = ?
		ORDER BY learner_id ASC`, organizationID)
}

func (r *EnrollmentRepository) listLearnerIDs(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := r.helper.Query(ctx, query, args...)
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
