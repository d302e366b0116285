package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/course-admin/internal/application"
	"github.com/example/course-admin/internal/persistence"
	"github.com/example/course-admin/internal/timeutil"
)

var (
	courseCounter     uint64
	learnerCounter    uint64
	itemCounter       uint64
	sessionCounter    uint64
	enrollmentCounter uint64
	attendanceCounter uint64
)

var referenceTime = time.Date(2024, time.March, 14, 9, 0, 0, 0, timeutil.DefaultLocation())

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// DefaultOrganization is the tenant used by fixtures unless overridden.
const DefaultOrganization = "org-fixture"

// ----------------------------- Course fixtures ----------------------------

// CourseFixture represents a deterministic course catalog entry.
type CourseFixture struct {
	ID             string
	OrganizationID string
	Name           string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// CourseOption configures the generated course fixture.
type CourseOption func(*CourseFixture)

// NewCourseFixture returns a deterministic course fixture with optional overrides.
func NewCourseFixture(opts ...CourseOption) CourseFixture {
	idx := atomic.AddUint64(&courseCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := CourseFixture{
		ID:             fmt.Sprintf("course-%03d", idx),
		OrganizationID: DefaultOrganization,
		Name:           fmt.Sprintf("Course %03d", idx),
		CreatedAt:      created,
		UpdatedAt:      created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithCourseID overrides the generated course ID.
func WithCourseID(id string) CourseOption {
	return func(f *CourseFixture) {
		f.ID = id
	}
}

// WithCourseOrganization sets the owning organization.
func WithCourseOrganization(organizationID string) CourseOption {
	return func(f *CourseFixture) {
		f.OrganizationID = organizationID
	}
}

// WithCourseName overrides the generated course name.
func WithCourseName(name string) CourseOption {
	return func(f *CourseFixture) {
		f.Name = name
	}
}

// WithCourseTimestamps sets both created and updated timestamps.
func WithCourseTimestamps(created, updated time.Time) CourseOption {
	return func(f *CourseFixture) {
		f.CreatedAt = created
		f.UpdatedAt = updated
	}
}

// Application returns the fixture as an application.Course value.
func (f CourseFixture) Application() application.Course {
	return application.Course{
		ID:             f.ID,
		OrganizationID: f.OrganizationID,
		Name:           f.Name,
		CreatedAt:      f.CreatedAt,
		UpdatedAt:      f.UpdatedAt,
	}
}

// Persistence returns the fixture as a persistence.Course value.
func (f CourseFixture) Persistence() persistence.Course {
	return persistence.Course{
		ID:             f.ID,
		OrganizationID: f.OrganizationID,
		Name:           f.Name,
		CreatedAt:      f.CreatedAt,
		UpdatedAt:      f.UpdatedAt,
	}
}

// Principal returns a principal scoped to the fixture's organization.
func (f CourseFixture) Principal() application.Principal {
	return application.Principal{OrganizationID: f.OrganizationID}
}

// ---------------------------- Learner fixtures ----------------------------

// LearnerFixture represents a deterministic learner record.
type LearnerFixture struct {
	ID             string
	OrganizationID string
	DisplayName    string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// LearnerOption configures the generated learner fixture.
type LearnerOption func(*LearnerFixture)

// NewLearnerFixture returns a deterministic learner fixture with optional overrides.
func NewLearnerFixture(opts ...LearnerOption) LearnerFixture {
	idx := atomic.AddUint64(&learnerCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := LearnerFixture{
		ID:             fmt.Sprintf("learner-%03d", idx),
		OrganizationID: DefaultOrganization,
		DisplayName:    fmt.Sprintf("Learner %03d", idx),
		CreatedAt:      created,
		UpdatedAt:      created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithLearnerID overrides the generated learner ID.
func WithLearnerID(id string) LearnerOption {
	return func(f *LearnerFixture) {
		f.ID = id
	}
}

// WithLearnerOrganization sets the owning organization.
func WithLearnerOrganization(organizationID string) LearnerOption {
	return func(f *LearnerFixture) {
		f.OrganizationID = organizationID
	}
}

// WithLearnerDisplayName overrides the generated display name.
func WithLearnerDisplayName(name string) LearnerOption {
	return func(f *LearnerFixture) {
		f.DisplayName = name
	}
}

// Application returns the fixture as an application.Learner value.
func (f LearnerFixture) Application() application.Learner {
	return application.Learner{
		ID:             f.ID,
		OrganizationID: f.OrganizationID,
		DisplayName:    f.DisplayName,
		CreatedAt:      f.CreatedAt,
		UpdatedAt:      f.UpdatedAt,
	}
}

// Persistence returns the fixture as a persistence.Learner value.
func (f LearnerFixture) Persistence() persistence.Learner {
	return persistence.Learner{
		ID:             f.ID,
		OrganizationID: f.OrganizationID,
		DisplayName:    f.DisplayName,
		CreatedAt:      f.CreatedAt,
		UpdatedAt:      f.UpdatedAt,
	}
}

// ------------------------- Schedule item fixtures -------------------------

// ScheduleItemFixture represents a deterministic weekly recurrence rule.
type ScheduleItemFixture struct {
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

// ScheduleItemOption configures the generated schedule item fixture.
type ScheduleItemOption func(*ScheduleItemFixture)

// NewScheduleItemFixture returns a deterministic schedule item fixture with
// optional overrides. The default rule runs Mondays 09:00 to 10:00 across a
// quarter starting at the reference date.
func NewScheduleItemFixture(opts ...ScheduleItemOption) ScheduleItemFixture {
	idx := atomic.AddUint64(&itemCounter, 1)
	start := timeutil.Midnight(referenceTime, nil)
	fixture := ScheduleItemFixture{
		ID:             fmt.Sprintf("item-%03d", idx),
		CourseID:       fmt.Sprintf("course-%03d", idx),
		OrganizationID: DefaultOrganization,
		DayOfWeek:      time.Monday,
		StartTime:      "09:00",
		EndTime:        "10:00",
		ValidityStart:  start,
		ValidityEnd:    start.AddDate(0, 3, 0),
		CreatedAt:      referenceTime,
		UpdatedAt:      referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithItemID overrides the schedule item ID.
func WithItemID(id string) ScheduleItemOption {
	return func(f *ScheduleItemFixture) {
		f.ID = id
	}
}

// WithItemCourse sets the owning course ID.
func WithItemCourse(courseID string) ScheduleItemOption {
	return func(f *ScheduleItemFixture) {
		f.CourseID = courseID
	}
}

// WithItemOrganization sets the owning organization.
func WithItemOrganization(organizationID string) ScheduleItemOption {
	return func(f *ScheduleItemFixture) {
		f.OrganizationID = organizationID
	}
}

// WithItemDay sets the weekly recurrence day.
func WithItemDay(day time.Weekday) ScheduleItemOption {
	return func(f *ScheduleItemFixture) {
		f.DayOfWeek = day
	}
}

// WithItemWindow sets the start and end times of day.
func WithItemWindow(startTime, endTime string) ScheduleItemOption {
	return func(f *ScheduleItemFixture) {
		f.StartTime = startTime
		f.EndTime = endTime
	}
}

// WithItemValidity sets the inclusive validity range.
func WithItemValidity(start, end time.Time) ScheduleItemOption {
	return func(f *ScheduleItemFixture) {
		f.ValidityStart = start
		f.ValidityEnd = end
	}
}

// Application returns the fixture as an application.ScheduleItem value.
func (f ScheduleItemFixture) Application() application.ScheduleItem {
	return application.ScheduleItem{
		ID:             f.ID,
		CourseID:       f.CourseID,
		OrganizationID: f.OrganizationID,
		DayOfWeek:      f.DayOfWeek,
		StartTime:      f.StartTime,
		EndTime:        f.EndTime,
		ValidityStart:  f.ValidityStart,
		ValidityEnd:    f.ValidityEnd,
		CreatedAt:      f.CreatedAt,
		UpdatedAt:      f.UpdatedAt,
	}
}

// Persistence returns the fixture as a persistence.ScheduleItem value.
func (f ScheduleItemFixture) Persistence() persistence.ScheduleItem {
	return persistence.ScheduleItem{
		ID:             f.ID,
		CourseID:       f.CourseID,
		OrganizationID: f.OrganizationID,
		DayOfWeek:      f.DayOfWeek,
		StartTime:      f.StartTime,
		EndTime:        f.EndTime,
		ValidityStart:  f.ValidityStart,
		ValidityEnd:    f.ValidityEnd,
		CreatedAt:      f.CreatedAt,
		UpdatedAt:      f.UpdatedAt,
	}
}

// Input returns the fixture as an application.ScheduleItemInput.
func (f ScheduleItemFixture) Input() application.ScheduleItemInput {
	return application.ScheduleItemInput{
		DayOfWeek:     int(f.DayOfWeek),
		StartTime:     f.StartTime,
		EndTime:       f.EndTime,
		ValidityStart: f.ValidityStart,
		ValidityEnd:   f.ValidityEnd,
	}
}

// ---------------------------- Session fixtures ----------------------------

// SessionFixture represents a deterministic materialized session.
type SessionFixture struct {
	ID             string
	CourseID       string
	OrganizationID string
	ScheduleItemID string
	Date           time.Time
	Start          time.Time
	End            time.Time
	Status         application.SessionStatus
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// SessionOption configures the generated session fixture.
type SessionOption func(*SessionFixture)

// NewSessionFixture returns a deterministic session fixture with optional overrides.
func NewSessionFixture(opts ...SessionOption) SessionFixture {
	idx := atomic.AddUint64(&sessionCounter, 1)
	date := timeutil.Midnight(referenceTime.AddDate(0, 0, int(idx)*7), nil)
	start := date.Add(9 * time.Hour)
	fixture := SessionFixture{
		ID:             fmt.Sprintf("session-%03d", idx),
		CourseID:       fmt.Sprintf("course-%03d", idx),
		OrganizationID: DefaultOrganization,
		ScheduleItemID: fmt.Sprintf("item-%03d", idx),
		Date:           date,
		Start:          start,
		End:            start.Add(time.Hour),
		Status:         application.SessionStatusNormal,
		CreatedAt:      referenceTime,
		UpdatedAt:      referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithSessionID overrides the session ID.
func WithSessionID(id string) SessionOption {
	return func(f *SessionFixture) {
		f.ID = id
	}
}

// WithSessionCourse sets the owning course ID.
func WithSessionCourse(courseID string) SessionOption {
	return func(f *SessionFixture) {
		f.CourseID = courseID
	}
}

// WithSessionOrganization sets the owning organization.
func WithSessionOrganization(organizationID string) SessionOption {
	return func(f *SessionFixture) {
		f.OrganizationID = organizationID
	}
}

// WithSessionItem sets the provenance schedule item ID.
func WithSessionItem(itemID string) SessionOption {
	return func(f *SessionFixture) {
		f.ScheduleItemID = itemID
	}
}

// WithSessionWindow sets the start and end instants and realigns the date.
func WithSessionWindow(start, end time.Time) SessionOption {
	return func(f *SessionFixture) {
		f.Start = start
		f.End = end
		f.Date = timeutil.Midnight(start, nil)
	}
}

// WithSessionStatus sets the lifecycle status.
func WithSessionStatus(status application.SessionStatus) SessionOption {
	return func(f *SessionFixture) {
		f.Status = status
	}
}

// Application returns the fixture as an application.Session value.
func (f SessionFixture) Application() application.Session {
	return application.Session{
		ID:             f.ID,
		CourseID:       f.CourseID,
		OrganizationID: f.OrganizationID,
		ScheduleItemID: f.ScheduleItemID,
		Date:           f.Date,
		Start:          f.Start,
		End:            f.End,
		Status:         f.Status,
		CreatedAt:      f.CreatedAt,
		UpdatedAt:      f.UpdatedAt,
	}
}

// Persistence returns the fixture as a persistence.Session value.
func (f SessionFixture) Persistence() persistence.Session {
	return persistence.Session{
		ID:             f.ID,
		CourseID:       f.CourseID,
		OrganizationID: f.OrganizationID,
		ScheduleItemID: f.ScheduleItemID,
		Date:           f.Date,
		Start:          f.Start,
		End:            f.End,
		Status:         string(f.Status),
		CreatedAt:      f.CreatedAt,
		UpdatedAt:      f.UpdatedAt,
	}
}

// -------------------------- Enrollment fixtures ---------------------------

// EnrollmentFixture represents a deterministic learner-course membership.
type EnrollmentFixture struct {
	ID             string
	OrganizationID string
	CourseID       string
	LearnerID      string
	EnrolledOn     time.Time
	CreatedAt      time.Time
}

// EnrollmentOption configures the generated enrollment fixture.
type EnrollmentOption func(*EnrollmentFixture)

// NewEnrollmentFixture returns a deterministic enrollment fixture with optional overrides.
func NewEnrollmentFixture(opts ...EnrollmentOption) EnrollmentFixture {
	idx := atomic.AddUint64(&enrollmentCounter, 1)
	fixture := EnrollmentFixture{
		ID:             fmt.Sprintf("enrollment-%03d", idx),
		OrganizationID: DefaultOrganization,
		CourseID:       fmt.Sprintf("course-%03d", idx),
		LearnerID:      fmt.Sprintf("learner-%03d", idx),
		EnrolledOn:     timeutil.Midnight(referenceTime, nil),
		CreatedAt:      referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithEnrollmentID overrides the enrollment ID.
func WithEnrollmentID(id string) EnrollmentOption {
	return func(f *EnrollmentFixture) {
		f.ID = id
	}
}

// WithEnrollmentCourse sets the course ID.
func WithEnrollmentCourse(courseID string) EnrollmentOption {
	return func(f *EnrollmentFixture) {
		f.CourseID = courseID
	}
}

// WithEnrollmentLearner sets the learner ID.
func WithEnrollmentLearner(learnerID string) EnrollmentOption {
	return func(f *EnrollmentFixture) {
		f.LearnerID = learnerID
	}
}

// WithEnrollmentOrganization sets the owning organization.
func WithEnrollmentOrganization(organizationID string) EnrollmentOption {
	return func(f *EnrollmentFixture) {
		f.OrganizationID = organizationID
	}
}

// WithEnrolledOn sets the membership start date.
func WithEnrolledOn(date time.Time) EnrollmentOption {
	return func(f *EnrollmentFixture) {
		f.EnrolledOn = date
	}
}

// Persistence returns the fixture as a persistence.Enrollment value.
func (f EnrollmentFixture) Persistence() persistence.Enrollment {
	return persistence.Enrollment{
		ID:             f.ID,
		OrganizationID: f.OrganizationID,
		CourseID:       f.CourseID,
		LearnerID:      f.LearnerID,
		EnrolledOn:     f.EnrolledOn,
		CreatedAt:      f.CreatedAt,
	}
}

// -------------------------- Attendance fixtures ---------------------------

// AttendanceFixture represents a deterministic attendance record.
type AttendanceFixture struct {
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

// AttendanceOption configures the generated attendance fixture.
type AttendanceOption func(*AttendanceFixture)

// NewAttendanceFixture returns a deterministic attendance fixture with optional overrides.
func NewAttendanceFixture(opts ...AttendanceOption) AttendanceFixture {
	idx := atomic.AddUint64(&attendanceCounter, 1)
	fixture := AttendanceFixture{
		ID:             fmt.Sprintf("attendance-%03d", idx),
		OrganizationID: DefaultOrganization,
		CourseID:       fmt.Sprintf("course-%03d", idx),
		LearnerID:      fmt.Sprintf("learner-%03d", idx),
		Date:           timeutil.Midnight(referenceTime, nil),
		Attended:       true,
		CreatedAt:      referenceTime,
		UpdatedAt:      referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithAttendanceCourse sets the course ID.
func WithAttendanceCourse(courseID string) AttendanceOption {
	return func(f *AttendanceFixture) {
		f.CourseID = courseID
	}
}

// WithAttendanceLearner sets the learner ID.
func WithAttendanceLearner(learnerID string) AttendanceOption {
	return func(f *AttendanceFixture) {
		f.LearnerID = learnerID
	}
}

// WithAttendanceOrganization sets the owning organization.
func WithAttendanceOrganization(organizationID string) AttendanceOption {
	return func(f *AttendanceFixture) {
		f.OrganizationID = organizationID
	}
}

// WithAttendanceDate sets the calendar date.
func WithAttendanceDate(date time.Time) AttendanceOption {
	return func(f *AttendanceFixture) {
		f.Date = timeutil.Midnight(date, nil)
	}
}

// WithAttendanceFlag sets the attended flag.
func WithAttendanceFlag(attended bool) AttendanceOption {
	return func(f *AttendanceFixture) {
		f.Attended = attended
	}
}

// WithAttendanceNotes sets the notes field.
func WithAttendanceNotes(notes string) AttendanceOption {
	return func(f *AttendanceFixture) {
		value := notes
		f.Notes = &value
	}
}

// Persistence returns the fixture as a persistence.AttendanceRecord value.
func (f AttendanceFixture) Persistence() persistence.AttendanceRecord {
	var notes *string
	if f.Notes != nil {
		value := *f.Notes
		notes = &value
	}
	return persistence.AttendanceRecord{
		ID:             f.ID,
		OrganizationID: f.OrganizationID,
		CourseID:       f.CourseID,
		LearnerID:      f.LearnerID,
		Date:           f.Date,
		Attended:       f.Attended,
		Notes:          notes,
		CreatedAt:      f.CreatedAt,
		UpdatedAt:      f.UpdatedAt,
	}
}
