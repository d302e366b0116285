package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/course-admin/internal/persistence"
	"github.com/example/course-admin/internal/timeutil"
)

// EnrollmentService tracks learner membership in courses.
type EnrollmentService struct {
	enrollments persistence.EnrollmentRepository
	courses     persistence.CourseRepository
	learners    persistence.LearnerRepository
	location    *time.Location
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewEnrollmentService constructs an enrollment service with the provided dependencies.
func NewEnrollmentService(enrollments persistence.EnrollmentRepository, courses persistence.CourseRepository, learners persistence.LearnerRepository, loc *time.Location, idGenerator func() string, now func() time.Time) *EnrollmentService {
	return NewEnrollmentServiceWithLogger(enrollments, courses, learners, loc, idGenerator, now, nil)
}

// NewEnrollmentServiceWithLogger constructs an enrollment service with a specified logger.
func NewEnrollmentServiceWithLogger(enrollments persistence.EnrollmentRepository, courses persistence.CourseRepository, learners persistence.LearnerRepository, loc *time.Location, idGenerator func() string, now func() time.Time, logger *slog.Logger) *EnrollmentService {
	if loc == nil {
		loc = timeutil.DefaultLocation()
	}
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &EnrollmentService{
		enrollments: enrollments,
		courses:     courses,
		learners:    learners,
		location:    loc,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *EnrollmentService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "EnrollmentService", operation, attrs...)
}

// Enroll registers a learner in a course. A second enrollment for the same
// (course, learner) pair fails with ErrDuplicateEnrollment. EnrolledOn
// defaults to today when the caller leaves it zero.
func (s *EnrollmentService) Enroll(ctx context.Context, params EnrollParams) (enrollment Enrollment, err error) {
	if s == nil {
		err = fmt.Errorf("EnrollmentService is nil")
		return
	}
	if s.enrollments == nil {
		err = fmt.Errorf("enrollment repository not configured")
		return
	}

	principal := params.Principal
	logger := s.loggerWith(ctx, "Enroll",
		"organization_id", principal.OrganizationID,
		"course_id", params.CourseID,
		"learner_id", params.LearnerID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to enroll learner", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("enrollment_id", enrollment.ID).InfoContext(ctx, "learner enrolled")
	}()

	vErr := &ValidationError{}
	if params.LearnerID == "" {
		vErr.add("learner_id", "learnerId is required")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	if err = s.ensureCourseOwned(ctx, principal, params.CourseID); err != nil {
		return
	}
	if err = s.ensureLearnerExists(ctx, principal, params.LearnerID); err != nil {
		return
	}

	enrolledOn := params.EnrolledOn
	if enrolledOn.IsZero() {
		enrolledOn = s.now()
	}

	record := persistence.Enrollment{
		ID:             s.idGenerator(),
		OrganizationID: principal.OrganizationID,
		CourseID:       params.CourseID,
		LearnerID:      params.LearnerID,
		EnrolledOn:     timeutil.Midnight(enrolledOn, s.location),
		CreatedAt:      s.now(),
	}

	if err = s.enrollments.CreateEnrollment(ctx, record); err != nil {
		if errors.Is(err, persistence.ErrDuplicate) {
			err = ErrDuplicateEnrollment
			return
		}
		err = mapEnrollmentRepoError(err)
		return
	}

	enrollment = toEnrollment(record)
	return
}

// Unenroll removes a learner's membership. Removing an absent enrollment is a
// no-op, not an error.
func (s *EnrollmentService) Unenroll(ctx context.Context, principal Principal, courseID, learnerID string) (err error) {
	if s == nil {
		return fmt.Errorf("EnrollmentService is nil")
	}
	if s.enrollments == nil {
		return fmt.Errorf("enrollment repository not configured")
	}

	logger := s.loggerWith(ctx, "Unenroll",
		"organization_id", principal.OrganizationID,
		"course_id", courseID,
		"learner_id", learnerID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to unenroll learner", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "learner unenrolled")
	}()

	if err = s.ensureCourseOwned(ctx, principal, courseID); err != nil {
		return
	}

	if err = s.enrollments.DeleteEnrollment(ctx, courseID, learnerID); err != nil {
		err = mapEnrollmentRepoError(err)
		return
	}
	return
}

// ListEnrollments enumerates the enrollments of a course.
func (s *EnrollmentService) ListEnrollments(ctx context.Context, principal Principal, courseID string) ([]Enrollment, error) {
	if s == nil {
		return nil, fmt.Errorf("EnrollmentService is nil")
	}
	if s.enrollments == nil {
		return nil, fmt.Errorf("enrollment repository not configured")
	}

	if err := s.ensureCourseOwned(ctx, principal, courseID); err != nil {
		return nil, err
	}

	records, err := s.enrollments.ListEnrollmentsForCourse(ctx, principal.OrganizationID, courseID)
	if err != nil {
		return nil, mapEnrollmentRepoError(err)
	}

	enrollments := make([]Enrollment, 0, len(records))
	for _, record := range records {
		enrollments = append(enrollments, toEnrollment(record))
	}
	return enrollments, nil
}

// ListEnrolledLearnerIDs returns the distinct learner ids enrolled in the
// course. Historical duplicate enrollments never double-count a learner.
func (s *EnrollmentService) ListEnrolledLearnerIDs(ctx context.Context, principal Principal, courseID string) ([]string, error) {
	if s == nil {
		return nil, fmt.Errorf("EnrollmentService is nil")
	}
	if s.enrollments == nil {
		return nil, fmt.Errorf("enrollment repository not configured")
	}

	if err := s.ensureCourseOwned(ctx, principal, courseID); err != nil {
		return nil, err
	}

	ids, err := s.enrollments.ListLearnerIDsForCourse(ctx, principal.OrganizationID, courseID)
	if err != nil {
		return nil, mapEnrollmentRepoError(err)
	}
	return ids, nil
}

func (s *EnrollmentService) ensureCourseOwned(ctx context.Context, principal Principal, courseID string) error {
	if s.courses == nil {
		return nil
	}
	course, err := s.courses.GetCourse(ctx, courseID)
	if err != nil {
		return mapEnrollmentRepoError(err)
	}
	if course.OrganizationID != principal.OrganizationID {
		return ErrAccessDenied
	}
	return nil
}

func (s *EnrollmentService) ensureLearnerExists(ctx context.Context, principal Principal, learnerID string) error {
	if s.learners == nil {
		return nil
	}
	missing, err := s.learners.MissingLearnerIDs(ctx, principal.OrganizationID, []string{learnerID})
	if err != nil {
		return err
	}
	if len(missing) == 0 {
		return nil
	}
	vErr := &ValidationError{}
	vErr.add("learner_id", fmt.Sprintf("unknown learner id: %s", learnerID))
	return vErr
}

func mapEnrollmentRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrForeignKeyViolation) {
		vErr := &ValidationError{}
		vErr.add("course_id", "course does not exist")
		return vErr
	}
	return err
}
