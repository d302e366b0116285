package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/course-admin/internal/persistence"
)

// CourseService orchestrates validation and persistence for the course catalog.
type CourseService struct {
	courses     persistence.CourseRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewCourseService constructs a course service with the provided dependencies.
func NewCourseService(courses persistence.CourseRepository, idGenerator func() string, now func() time.Time) *CourseService {
	return NewCourseServiceWithLogger(courses, idGenerator, now, nil)
}

// NewCourseServiceWithLogger constructs a course service with a specified logger.
func NewCourseServiceWithLogger(courses persistence.CourseRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *CourseService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &CourseService{courses: courses, idGenerator: idGenerator, now: now, logger: defaultLogger(logger)}
}

func (s *CourseService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "CourseService", operation, attrs...)
}

// CreateCourse validates input and persists a new course in the caller's organization.
func (s *CourseService) CreateCourse(ctx context.Context, principal Principal, input CourseInput) (course Course, err error) {
	if s == nil {
		err = fmt.Errorf("CourseService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CreateCourse", "organization_id", principal.OrganizationID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create course", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("course_id", course.ID).InfoContext(ctx, "course created")
	}()

	vErr := &ValidationError{}
	if strings.TrimSpace(input.Name) == "" {
		vErr.add("name", "name is required")
	}
	if principal.OrganizationID == "" {
		vErr.add("organization_id", "organization is required")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	createdAt := s.now()
	course = Course{
		ID:             s.idGenerator(),
		OrganizationID: principal.OrganizationID,
		Name:           strings.TrimSpace(input.Name),
		CreatedAt:      createdAt,
		UpdatedAt:      createdAt,
	}

	if s.courses == nil {
		return
	}

	if err = s.courses.CreateCourse(ctx, persistence.Course{
		ID:             course.ID,
		OrganizationID: course.OrganizationID,
		Name:           course.Name,
		CreatedAt:      course.CreatedAt,
		UpdatedAt:      course.UpdatedAt,
	}); err != nil {
		err = mapCatalogRepoError(err)
		return
	}

	return
}

// GetCourse fetches one course, hiding records that belong to other organizations.
func (s *CourseService) GetCourse(ctx context.Context, principal Principal, courseID string) (Course, error) {
	if s == nil {
		return Course{}, fmt.Errorf("CourseService is nil")
	}
	if s.courses == nil {
		return Course{}, fmt.Errorf("course repository not configured")
	}

	record, err := s.courses.GetCourse(ctx, courseID)
	if err != nil {
		return Course{}, mapCatalogRepoError(err)
	}
	if record.OrganizationID != principal.OrganizationID {
		return Course{}, ErrNotFound
	}
	return toCourse(record), nil
}

// ListCourses enumerates the courses of the caller's organization.
func (s *CourseService) ListCourses(ctx context.Context, principal Principal) ([]Course, error) {
	if s == nil {
		return nil, fmt.Errorf("CourseService is nil")
	}
	if s.courses == nil {
		return nil, fmt.Errorf("course repository not configured")
	}

	records, err := s.courses.ListCourses(ctx, principal.OrganizationID)
	if err != nil {
		return nil, mapCatalogRepoError(err)
	}

	courses := make([]Course, 0, len(records))
	for _, record := range records {
		courses = append(courses, toCourse(record))
	}
	return courses, nil
}

func mapCatalogRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrDuplicate) {
		return ErrAlreadyExists
	}
	return err
}
