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

// AttendanceService records per-learner daily attendance and computes the
// organization-wide daily presence rollup.
type AttendanceService struct {
	attendance  persistence.AttendanceRepository
	enrollments persistence.EnrollmentRepository
	courses     persistence.CourseRepository
	cache       *aggregateCache
	location    *time.Location
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewAttendanceService constructs an attendance service with the provided dependencies.
func NewAttendanceService(attendance persistence.AttendanceRepository, enrollments persistence.EnrollmentRepository, courses persistence.CourseRepository, loc *time.Location, cacheTTL time.Duration, idGenerator func() string, now func() time.Time) *AttendanceService {
	return NewAttendanceServiceWithLogger(attendance, enrollments, courses, loc, cacheTTL, idGenerator, now, nil)
}

// NewAttendanceServiceWithLogger constructs an attendance service with a specified logger.
func NewAttendanceServiceWithLogger(attendance persistence.AttendanceRepository, enrollments persistence.EnrollmentRepository, courses persistence.CourseRepository, loc *time.Location, cacheTTL time.Duration, idGenerator func() string, now func() time.Time, logger *slog.Logger) *AttendanceService {
	if loc == nil {
		loc = timeutil.DefaultLocation()
	}
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &AttendanceService{
		attendance:  attendance,
		enrollments: enrollments,
		courses:     courses,
		cache:       newAggregateCache(cacheTTL, 0, now),
		location:    loc,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *AttendanceService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AttendanceService", operation, attrs...)
}

// Upsert records one learner's attendance flag for a date. The date is
// normalized to midnight and the write replaces any existing record for the
// same (organization, course, learner, date) key.
func (s *AttendanceService) Upsert(ctx context.Context, params UpsertAttendanceParams) (record AttendanceRecord, err error) {
	if s == nil {
		err = fmt.Errorf("AttendanceService is nil")
		return
	}
	if s.attendance == nil {
		err = fmt.Errorf("attendance repository not configured")
		return
	}

	principal := params.Principal
	logger := s.loggerWith(ctx, "Upsert",
		"organization_id", principal.OrganizationID,
		"course_id", params.CourseID,
		"learner_id", params.Input.LearnerID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to upsert attendance", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "attendance recorded")
	}()

	vErr := validateAttendanceInput(params.Input.LearnerID, params.Input.Date)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	if err = s.ensureCourseOwned(ctx, principal, params.CourseID); err != nil {
		return
	}

	stamp := s.now()
	stored := persistence.AttendanceRecord{
		ID:             s.idGenerator(),
		OrganizationID: principal.OrganizationID,
		CourseID:       params.CourseID,
		LearnerID:      params.Input.LearnerID,
		Date:           timeutil.Midnight(params.Input.Date, s.location),
		Attended:       params.Input.Attended,
		Notes:          copyOptionalString(params.Input.Notes),
		CreatedAt:      stamp,
		UpdatedAt:      stamp,
	}

	if err = s.attendance.UpsertAttendance(ctx, stored); err != nil {
		err = mapAttendanceRepoError(err)
		return
	}

	s.cache.InvalidateOrganization(principal.OrganizationID)
	record = toAttendanceRecord(stored)
	return
}

// BulkUpsert applies the per-key upsert semantics to a batch of records in one
// storage operation. Records whose attended flag is omitted default to false;
// two records for the same learner converge to the last one applied.
func (s *AttendanceService) BulkUpsert(ctx context.Context, params BulkUpsertAttendanceParams) (records []AttendanceRecord, err error) {
	if s == nil {
		err = fmt.Errorf("AttendanceService is nil")
		return
	}
	if s.attendance == nil {
		err = fmt.Errorf("attendance repository not configured")
		return
	}

	principal := params.Principal
	logger := s.loggerWith(ctx, "BulkUpsert",
		"organization_id", principal.OrganizationID,
		"course_id", params.CourseID,
		"record_count", len(params.Records),
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to bulk upsert attendance", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "attendance batch recorded")
	}()

	vErr := &ValidationError{}
	if params.Date.IsZero() {
		vErr.add("date", "date is required")
	}
	for i, entry := range params.Records {
		if entry.LearnerID == "" {
			vErr.add(fmt.Sprintf("records[%d].learner_id", i), "learnerId is required")
		}
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	if err = s.ensureCourseOwned(ctx, principal, params.CourseID); err != nil {
		return
	}

	stamp := s.now()
	date := timeutil.Midnight(params.Date, s.location)
	stored := make([]persistence.AttendanceRecord, 0, len(params.Records))
	for _, entry := range params.Records {
		stored = append(stored, persistence.AttendanceRecord{
			ID:             s.idGenerator(),
			OrganizationID: principal.OrganizationID,
			CourseID:       params.CourseID,
			LearnerID:      entry.LearnerID,
			Date:           date,
			Attended:       entry.Attended,
			Notes:          copyOptionalString(entry.Notes),
			CreatedAt:      stamp,
			UpdatedAt:      stamp,
		})
	}

	if len(stored) > 0 {
		if err = s.attendance.BulkUpsertAttendance(ctx, stored); err != nil {
			err = mapAttendanceRepoError(err)
			return
		}
		s.cache.InvalidateOrganization(principal.OrganizationID)
	}

	records = make([]AttendanceRecord, 0, len(stored))
	for _, entry := range stored {
		records = append(records, toAttendanceRecord(entry))
	}
	return
}

// FindByCourseAndDate returns every attendance record of the course for one
// calendar day.
func (s *AttendanceService) FindByCourseAndDate(ctx context.Context, principal Principal, courseID string, date time.Time) ([]AttendanceRecord, error) {
	if s == nil {
		return nil, fmt.Errorf("AttendanceService is nil")
	}
	if s.attendance == nil {
		return nil, fmt.Errorf("attendance repository not configured")
	}

	if err := s.ensureCourseOwned(ctx, principal, courseID); err != nil {
		return nil, err
	}

	stored, err := s.attendance.ListAttendanceForCourseAndDate(ctx, principal.OrganizationID, courseID, timeutil.Midnight(date, s.location))
	if err != nil {
		return nil, mapAttendanceRepoError(err)
	}

	records := make([]AttendanceRecord, 0, len(stored))
	for _, entry := range stored {
		records = append(records, toAttendanceRecord(entry))
	}
	return records, nil
}

// AggregateByDate computes the daily presence indicator for one organization:
// arrived is the count of distinct learners with a positive attendance record
// in any course that day, notArrived the count of learners enrolled anywhere
// in the organization without one. A learner attending several courses the
// same day counts once.
func (s *AttendanceService) AggregateByDate(ctx context.Context, principal Principal, date time.Time) (AttendanceSummary, error) {
	if s == nil {
		return AttendanceSummary{}, fmt.Errorf("AttendanceService is nil")
	}
	if s.attendance == nil || s.enrollments == nil {
		return AttendanceSummary{}, fmt.Errorf("attendance aggregation not configured")
	}

	day := timeutil.Midnight(date, s.location)
	key := buildAggregateCacheKey(principal.OrganizationID, day, s.location)
	if summary, ok := s.cache.Get(key); ok {
		return summary, nil
	}

	enrolled, err := s.enrollments.ListLearnerIDsForOrganization(ctx, principal.OrganizationID)
	if err != nil {
		return AttendanceSummary{}, mapAttendanceRepoError(err)
	}

	attended, err := s.attendance.ListAttendedLearnerIDsForDate(ctx, principal.OrganizationID, day)
	if err != nil {
		return AttendanceSummary{}, mapAttendanceRepoError(err)
	}

	arrived := make(map[string]struct{}, len(attended))
	for _, id := range attended {
		arrived[id] = struct{}{}
	}

	notArrived := 0
	for _, id := range enrolled {
		if _, ok := arrived[id]; !ok {
			notArrived++
		}
	}

	summary := AttendanceSummary{Arrived: len(arrived), NotArrived: notArrived}
	s.cache.Store(key, summary)
	return summary, nil
}

func (s *AttendanceService) ensureCourseOwned(ctx context.Context, principal Principal, courseID string) error {
	if s.courses == nil {
		return nil
	}
	course, err := s.courses.GetCourse(ctx, courseID)
	if err != nil {
		return mapAttendanceRepoError(err)
	}
	if course.OrganizationID != principal.OrganizationID {
		return ErrAccessDenied
	}
	return nil
}

func validateAttendanceInput(learnerID string, date time.Time) *ValidationError {
	vErr := &ValidationError{}
	if learnerID == "" {
		vErr.add("learner_id", "learnerId is required")
	}
	if date.IsZero() {
		vErr.add("date", "date is required")
	}
	return vErr
}

func mapAttendanceRepoError(err error) error {
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
