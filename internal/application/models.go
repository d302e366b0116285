package application

import "time"

// Principal carries the organization scope resolved for the requesting caller.
// Authentication itself happens upstream; the services only ever see an
// already-scoped organization identifier.
type Principal struct {
	OrganizationID string
}

// Course represents a course catalog entry.
type Course struct {
	ID             string
	OrganizationID string
	Name           string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// CourseInput captures caller provided course fields.
type CourseInput struct {
	Name string
}

// Learner represents a learner record.
type Learner struct {
	ID             string
	OrganizationID string
	DisplayName    string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// LearnerInput captures caller provided learner fields.
type LearnerInput struct {
	DisplayName string
}

// ScheduleItemInput captures one weekly recurrence rule as supplied by callers.
// StartTime and EndTime are "HH:MM"; validity dates are inclusive.
type ScheduleItemInput struct {
	DayOfWeek     int
	StartTime     string
	EndTime       string
	ValidityStart time.Time
	ValidityEnd   time.Time
}

// ScheduleItemPatch carries the optional fields of a single-item update. Nil
// fields keep their stored value; supplied fields are re-validated against the
// unchanged siblings.
type ScheduleItemPatch struct {
	DayOfWeek     *int
	StartTime     *string
	EndTime       *string
	ValidityStart *time.Time
	ValidityEnd   *time.Time
}

// ScheduleItem represents a persisted weekly recurrence rule.
type ScheduleItem struct {
	ID             string
	CourseID       string
	OrganizationID string
	DayOfWeek      time.Weekday
	StartTime      string
	EndTime        string
	ValidityStart  time.Time
	ValidityEnd    time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// OverlapWarning flags two schedule items of one course whose weekly windows
// intersect. Overlaps are accepted but surfaced to callers.
type OverlapWarning struct {
	ItemID     string
	WithItemID string
	DayOfWeek  time.Weekday
}

// SessionStatus enumerates the lifecycle states of a materialized session.
type SessionStatus string

const (
	// SessionStatusNormal is the state every freshly materialized session starts in.
	SessionStatusNormal SessionStatus = "NORMAL"
	// SessionStatusCancelled marks a session that will not take place.
	SessionStatusCancelled SessionStatus = "CANCELLED"
	// SessionStatusMoved marks a session relocated to another room or venue.
	SessionStatusMoved SessionStatus = "MOVED"
	// SessionStatusTimeChanged marks a session whose time window was overridden.
	SessionStatusTimeChanged SessionStatus = "TIME_CHANGED"
)

// Valid reports whether the status is one of the known values.
func (s SessionStatus) Valid() bool {
	switch s {
	case SessionStatusNormal, SessionStatusCancelled, SessionStatusMoved, SessionStatusTimeChanged:
		return true
	}
	return false
}

// Session represents one concrete dated occurrence of a course meeting.
type Session struct {
	ID             string
	CourseID       string
	OrganizationID string
	ScheduleItemID string
	Date           time.Time
	Start          time.Time
	End            time.Time
	Status         SessionStatus
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// SessionPatch carries a manual session override: a status transition and,
// optionally, a replacement time window.
type SessionPatch struct {
	Status SessionStatus
	Start  *time.Time
	End    *time.Time
}

// Enrollment represents a learner's membership in a course.
type Enrollment struct {
	ID             string
	OrganizationID string
	CourseID       string
	LearnerID      string
	EnrolledOn     time.Time
	CreatedAt      time.Time
}

// AttendanceInput captures one learner's attendance flag for a date.
type AttendanceInput struct {
	LearnerID string
	Date      time.Time
	Attended  bool
	Notes     *string
}

// BulkAttendanceRecord is one entry of a bulk upsert. Attended defaults to
// false when the caller omits it.
type BulkAttendanceRecord struct {
	LearnerID string
	Attended  bool
	Notes     *string
}

// AttendanceRecord represents a persisted per-learner per-date attendance flag.
type AttendanceRecord struct {
	ID             string
	OrganizationID string
	CourseID       string
	LearnerID      string
	Date           time.Time
	Attended       bool
	Notes          *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// AttendanceSummary is the organization-wide daily presence rollup: arrived is
// the count of distinct learners with a positive attendance record on the day,
// notArrived the count of enrolled learners without one.
type AttendanceSummary struct {
	Arrived    int
	NotArrived int
}

// ReplaceScheduleParams wraps the data required to replace a course's schedule set.
type ReplaceScheduleParams struct {
	Principal Principal
	CourseID  string
	Items     []ScheduleItemInput
}

// UpdateScheduleItemParams wraps the data required for a single-item update.
type UpdateScheduleItemParams struct {
	Principal Principal
	ItemID    string
	Patch     ScheduleItemPatch
}

// EnrollParams wraps the data required to enroll a learner.
type EnrollParams struct {
	Principal Principal
	CourseID  string
	LearnerID string
	// EnrolledOn defaults to today when zero.
	EnrolledOn time.Time
}

// UpsertAttendanceParams wraps the data required for a single attendance upsert.
type UpsertAttendanceParams struct {
	Principal Principal
	CourseID  string
	Input     AttendanceInput
}

// BulkUpsertAttendanceParams wraps the data required for a bulk attendance upsert.
type BulkUpsertAttendanceParams struct {
	Principal Principal
	CourseID  string
	Date      time.Time
	Records   []BulkAttendanceRecord
}
