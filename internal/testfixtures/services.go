package testfixtures

import (
	"log/slog"
	"time"

	"github.com/example/course-admin/internal/application"
	"github.com/example/course-admin/internal/persistence"
	"github.com/example/course-admin/internal/timeutil"
)

// ServiceFactory assists tests with constructing application services using
// deterministic identifiers and clocks.
type ServiceFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
	Location    *time.Location
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a ServiceFactory with defaults.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{
		Clock:       NewClock(time.Time{}),
		IDGenerator: NewIDGenerator("id"),
		Location:    timeutil.DefaultLocation(),
	}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock(time.Time{})
	}
	if factory.IDGenerator == nil {
		factory.IDGenerator = NewIDGenerator("id")
	}
	if factory.Location == nil {
		factory.Location = timeutil.DefaultLocation()
	}
	return factory
}

// WithClock overrides the clock used by the factory.
func WithClock(clock *Clock) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Clock = clock
	}
}

// WithIDGenerator overrides the identifier generator used by the factory.
func WithIDGenerator(generator *IDGenerator) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.IDGenerator = generator
	}
}

// WithLocation overrides the time zone used by the factory.
func WithLocation(loc *time.Location) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Location = loc
	}
}

// NewCourseService builds a course service on the factory defaults.
func (f *ServiceFactory) NewCourseService(courses persistence.CourseRepository, logger *slog.Logger) *application.CourseService {
	return application.NewCourseServiceWithLogger(courses, f.IDGenerator.NextFunc(), f.Clock.NowFunc(), logger)
}

// NewLearnerService builds a learner service on the factory defaults.
func (f *ServiceFactory) NewLearnerService(learners persistence.LearnerRepository, logger *slog.Logger) *application.LearnerService {
	return application.NewLearnerServiceWithLogger(learners, f.IDGenerator.NextFunc(), f.Clock.NowFunc(), logger)
}

// NewSessionService builds a session service on the factory defaults.
func (f *ServiceFactory) NewSessionService(sessions persistence.SessionRepository, courses persistence.CourseRepository, logger *slog.Logger) *application.SessionService {
	return application.NewSessionServiceWithLogger(sessions, courses, f.Location, f.IDGenerator.NextFunc(), f.Clock.NowFunc(), logger)
}

// NewScheduleService builds a schedule service wired to the supplied session
// service, using the factory defaults for everything else.
func (f *ServiceFactory) NewScheduleService(courses persistence.CourseRepository, items persistence.ScheduleItemRepository, sessions *application.SessionService, logger *slog.Logger) *application.ScheduleService {
	return application.NewScheduleServiceWithLogger(courses, items, sessions, f.Location, f.IDGenerator.NextFunc(), f.Clock.NowFunc(), logger)
}

// NewEnrollmentService builds an enrollment service on the factory defaults.
func (f *ServiceFactory) NewEnrollmentService(enrollments persistence.EnrollmentRepository, courses persistence.CourseRepository, learners persistence.LearnerRepository, logger *slog.Logger) *application.EnrollmentService {
	return application.NewEnrollmentServiceWithLogger(enrollments, courses, learners, f.Location, f.IDGenerator.NextFunc(), f.Clock.NowFunc(), logger)
}

// NewAttendanceService builds an attendance service on the factory defaults.
func (f *ServiceFactory) NewAttendanceService(attendance persistence.AttendanceRepository, enrollments persistence.EnrollmentRepository, courses persistence.CourseRepository, cacheTTL time.Duration, logger *slog.Logger) *application.AttendanceService {
	return application.NewAttendanceServiceWithLogger(attendance, enrollments, courses, f.Location, cacheTTL, f.IDGenerator.NextFunc(), f.Clock.NowFunc(), logger)
}
