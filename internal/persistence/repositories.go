package persistence

import (
	"context"
	"time"
)

// CourseRepository exposes the course catalog.
type CourseRepository interface {
	CreateCourse(ctx context.Context, course Course) error
	GetCourse(ctx context.Context, id string) (Course, error)
	ListCourses(ctx context.Context, organizationID string) ([]Course, error)
}

// LearnerRepository exposes learner records and existence checks.
type LearnerRepository interface {
	CreateLearner(ctx context.Context, learner Learner) error
	ListLearners(ctx context.Context, organizationID string) ([]Learner, error)
	MissingLearnerIDs(ctx context.Context, organizationID string, ids []string) ([]string, error)
}

// ScheduleItemRepository stores the weekly recurrence rules of courses.
type ScheduleItemRepository interface {
	GetScheduleItem(ctx context.Context, id string) (ScheduleItem, error)
	ListScheduleItemsForCourse(ctx context.Context, courseID, organizationID string) ([]ScheduleItem, error)
	// ReplaceScheduleItems deletes every existing item for the course and
	// inserts the new set within one transaction.
	ReplaceScheduleItems(ctx context.Context, courseID, organizationID string, items []ScheduleItem) error
	UpdateScheduleItem(ctx context.Context, item ScheduleItem) error
	DeleteScheduleItem(ctx context.Context, id, organizationID string) error
}

// SessionFilter narrows session queries to a date window.
type SessionFilter struct {
	From *time.Time
	To   *time.Time
}

// SessionRepository stores materialized course sessions.
type SessionRepository interface {
	CreateSessions(ctx context.Context, sessions []Session) error
	GetSession(ctx context.Context, id string) (Session, error)
	ListSessionsForCourse(ctx context.Context, courseID, organizationID string, filter SessionFilter) ([]Session, error)
	// DeleteFutureSessions removes every session for the course whose date is
	// at or after the caller-supplied cutoff.
	DeleteFutureSessions(ctx context.Context, courseID, organizationID string, from time.Time) error
	UpdateSession(ctx context.Context, session Session) error
}

// EnrollmentRepository stores learner-course memberships.
type EnrollmentRepository interface {
	CreateEnrollment(ctx context.Context, enrollment Enrollment) error
	// DeleteEnrollment is idempotent: removing an absent enrollment is not an error.
	DeleteEnrollment(ctx context.Context, courseID, learnerID string) error
	ListEnrollmentsForCourse(ctx context.Context, organizationID, courseID string) ([]Enrollment, error)
	ListLearnerIDsForCourse(ctx context.Context, organizationID, courseID string) ([]string, error)
	ListLearnerIDsForOrganization(ctx context.Context, organizationID string) ([]string, error)
}

// AttendanceRepository stores per-learner per-date attendance flags.
type AttendanceRepository interface {
	UpsertAttendance(ctx context.Context, record AttendanceRecord) error
	BulkUpsertAttendance(ctx context.Context, records []AttendanceRecord) error
	ListAttendanceForCourseAndDate(ctx context.Context, organizationID, courseID string, date time.Time) ([]AttendanceRecord, error)
	// ListAttendedLearnerIDsForDate returns the distinct learners with a
	// positive attendance record anywhere in the organization on the date.
	ListAttendedLearnerIDsForDate(ctx context.Context, organizationID string, date time.Time) ([]string, error)
}
