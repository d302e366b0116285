package sqlite

import (
	"context"
	"time"

	"github.com/example/course-admin/internal/persistence"
)

// CourseRepository implements persistence.CourseRepository using SQLite.
type CourseRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewCourseRepository creates a new SQLite course repository.
func NewCourseRepository(pool *ConnectionPool) *CourseRepository {
	return &CourseRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// CreateCourse inserts a new course catalog entry.
func (r *CourseRepository) CreateCourse(ctx context.Context, course persistence.Course) error {
	if course.ID == "" || course.OrganizationID == "" {
		return persistence.ErrConstraintViolation
	}

	now := time.Now().UTC()
	course.CreatedAt = now
	course.UpdatedAt = now

	_, err := r.helper.Exec(ctx, `
		INSERT INTO courses (id, organization_id, name, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		course.ID,
		course.OrganizationID,
		course.Name,
		formatTimestamp(course.CreatedAt),
		formatTimestamp(course.UpdatedAt),
	)
	return r.mapper.MapError(err)
}

// GetCourse retrieves a course by ID.
func (r *CourseRepository) GetCourse(ctx context.Context, id string) (persistence.Course, error) {
	if id == "" {
		return persistence.Course{}, persistence.ErrNotFound
	}

	var course persistence.Course
	var createdAt, updatedAt string

	err := r.helper.QueryRow(ctx, `
		SELECT id, organization_id, name, created_at, updated_at
		FROM courses WHERE id = ?`, id).Scan(
		&course.ID,
		&course.OrganizationID,
		&course.Name,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return persistence.Course{}, r.mapper.MapError(err)
	}

	if course.CreatedAt, err = parseTimestamp(createdAt, "created_at"); err != nil {
		return persistence.Course{}, err
	}
	if course.UpdatedAt, err = parseTimestamp(updatedAt, "updated_at"); err != nil {
		return persistence.Course{}, err
	}

	return course, nil
}

// ListCourses returns the organization's courses ordered by name.
func (r *CourseRepository) ListCourses(ctx context.Context, organizationID string) ([]persistence.Course, error) {
	rows, err := r.helper.Query(ctx, `
		SELECT id, organization_id, name, created_at, updated_at
		FROM courses
		WHERE organization_id = ?
		ORDER BY name ASC, id ASC`, organizationID)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var courses []persistence.Course
	for rows.Next() {
		var course persistence.Course
		var createdAt, updatedAt string
		if err := rows.Scan(&course.ID, &course.OrganizationID, &course.Name, &createdAt, &updatedAt); err != nil {
			return nil, r.mapper.MapError(err)
		}
		if course.CreatedAt, err = parseTimestamp(createdAt, "created_at"); err != nil {
			return nil, err
		}
		if course.UpdatedAt, err = parseTimestamp(updatedAt, "updated_at"); err != nil {
			return nil, err
		}
		courses = append(courses, course)
	}

	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return courses, nil
}
