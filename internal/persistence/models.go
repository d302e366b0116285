package persistence

import "time"

// Course represents a course catalog entry scoped to one organization.
type Course struct {
	ID             string
	OrganizationID string
	Name           string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Learner represents a learner record scoped to one organization.
type Learner struct {
	ID             string
	OrganizationID string
	DisplayName    string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ScheduleItem represents one weekly recurrence rule for a course.
//
// StartTime and EndTime are stored as "HH:MM"; ValidityStart and ValidityEnd
// are calendar dates normalized to midnight, inclusive on both ends.
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

// Session represents one concrete dated occurrence materialized from a
// schedule item. Date is the calendar date of Start with the time stripped.
type Session struct {
	ID             string
	CourseID       string
	OrganizationID string
	ScheduleItemID string
	Date           time.Time
	Start          time.Time
	End            time.Time
	Status         string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Enrollment represents a learner's membership in a course, unique per
// (CourseID, LearnerID).
type Enrollment struct {
	ID             string
	OrganizationID string
	CourseID       string
	LearnerID      string
	EnrolledOn     time.Time
	CreatedAt      time.Time
}

// AttendanceRecord represents one learner's attendance for one course on one
// calendar date, unique per (OrganizationID, CourseID, LearnerID, Date).
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
