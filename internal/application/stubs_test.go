package application

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/example/course-admin/internal/persistence"
	"github.com/example/course-admin/internal/timeutil"
)

func jstDate(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, timeutil.DefaultLocation())
}

func fixedNow() time.Time {
	return time.Date(2024, 3, 14, 9, 0, 0, 0, timeutil.DefaultLocation())
}

func sequentialIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

type courseRepoStub struct {
	courses []persistence.Course
	err     error
}

func (s *courseRepoStub) CreateCourse(ctx context.Context, course persistence.Course) error {
	if s.err != nil {
		return s.err
	}
	s.courses = append(s.courses, course)
	return nil
}

func (s *courseRepoStub) GetCourse(ctx context.Context, id string) (persistence.Course, error) {
	if s.err != nil {
		return persistence.Course{}, s.err
	}
	for _, course := range s.courses {
		if course.ID == id {
			return course, nil
		}
	}
	return persistence.Course{}, persistence.ErrNotFound
}

func (s *courseRepoStub) ListCourses(ctx context.Context, organizationID string) ([]persistence.Course, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([]persistence.Course, 0)
	for _, course := range s.courses {
		if course.OrganizationID == organizationID {
			out = append(out, course)
		}
	}
	return out, nil
}

type learnerRepoStub struct {
	learners []persistence.Learner
	err      error
}

func (s *learnerRepoStub) CreateLearner(ctx context.Context, learner persistence.Learner) error {
	if s.err != nil {
		return s.err
	}
	s.learners = append(s.learners, learner)
	return nil
}

func (s *learnerRepoStub) ListLearners(ctx context.Context, organizationID string) ([]persistence.Learner, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([]persistence.Learner, 0)
	for _, learner := range s.learners {
		if learner.OrganizationID == organizationID {
			out = append(out, learner)
		}
	}
	return out, nil
}

func (s *learnerRepoStub) MissingLearnerIDs(ctx context.Context, organizationID string, ids []string) ([]string, error) {
	if s.err != nil {
		return nil, s.err
	}
	known := make(map[string]struct{})
	for _, learner := range s.learners {
		if learner.OrganizationID == organizationID {
			known[learner.ID] = struct{}{}
		}
	}
	missing := make([]string, 0)
	for _, id := range ids {
		if _, ok := known[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

type itemRepoStub struct {
	items        []persistence.ScheduleItem
	replaceCalls int
	err          error
}

func (s *itemRepoStub) GetScheduleItem(ctx context.Context, id string) (persistence.ScheduleItem, error) {
	if s.err != nil {
		return persistence.ScheduleItem{}, s.err
	}
	for _, item := range s.items {
		if item.ID == id {
			return item, nil
		}
	}
	return persistence.ScheduleItem{}, persistence.ErrNotFound
}

func (s *itemRepoStub) ListScheduleItemsForCourse(ctx context.Context, courseID, organizationID string) ([]persistence.ScheduleItem, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([]persistence.ScheduleItem, 0)
	for _, item := range s.items {
		if item.CourseID == courseID && item.OrganizationID == organizationID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (s *itemRepoStub) ReplaceScheduleItems(ctx context.Context, courseID, organizationID string, items []persistence.ScheduleItem) error {
	if s.err != nil {
		return s.err
	}
	s.replaceCalls++
	kept := make([]persistence.ScheduleItem, 0)
	for _, item := range s.items {
		if item.CourseID != courseID || item.OrganizationID != organizationID {
			kept = append(kept, item)
		}
	}
	s.items = append(kept, items...)
	return nil
}

func (s *itemRepoStub) UpdateScheduleItem(ctx context.Context, item persistence.ScheduleItem) error {
	if s.err != nil {
		return s.err
	}
	for i := range s.items {
		if s.items[i].ID == item.ID && s.items[i].OrganizationID == item.OrganizationID {
			s.items[i] = item
			return nil
		}
	}
	return persistence.ErrNotFound
}

func (s *itemRepoStub) DeleteScheduleItem(ctx context.Context, id, organizationID string) error {
	if s.err != nil {
		return s.err
	}
	for i := range s.items {
		if s.items[i].ID == id && s.items[i].OrganizationID == organizationID {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return nil
		}
	}
	return persistence.ErrNotFound
}

type sessionRepoStub struct {
	sessions    []persistence.Session
	createCalls int
	err         error
}

func (s *sessionRepoStub) CreateSessions(ctx context.Context, sessions []persistence.Session) error {
	if s.err != nil {
		return s.err
	}
	s.createCalls++
	s.sessions = append(s.sessions, sessions...)
	return nil
}

func (s *sessionRepoStub) GetSession(ctx context.Context, id string) (persistence.Session, error) {
	if s.err != nil {
		return persistence.Session{}, s.err
	}
	for _, session := range s.sessions {
		if session.ID == id {
			return session, nil
		}
	}
	return persistence.Session{}, persistence.ErrNotFound
}

func (s *sessionRepoStub) ListSessionsForCourse(ctx context.Context, courseID, organizationID string, filter persistence.SessionFilter) ([]persistence.Session, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([]persistence.Session, 0)
	for _, session := range s.sessions {
		if session.CourseID != courseID || session.OrganizationID != organizationID {
			continue
		}
		if filter.From != nil && session.Date.Before(*filter.From) {
			continue
		}
		if filter.To != nil && session.Date.After(*filter.To) {
			continue
		}
		out = append(out, session)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}

func (s *sessionRepoStub) DeleteFutureSessions(ctx context.Context, courseID, organizationID string, from time.Time) error {
	if s.err != nil {
		return s.err
	}
	kept := make([]persistence.Session, 0)
	for _, session := range s.sessions {
		if session.CourseID == courseID && session.OrganizationID == organizationID && !session.Date.Before(from) {
			continue
		}
		kept = append(kept, session)
	}
	s.sessions = kept
	return nil
}

func (s *sessionRepoStub) UpdateSession(ctx context.Context, session persistence.Session) error {
	if s.err != nil {
		return s.err
	}
	for i := range s.sessions {
		if s.sessions[i].ID == session.ID {
			s.sessions[i] = session
			return nil
		}
	}
	return persistence.ErrNotFound
}

type enrollmentRepoStub struct {
	enrollments []persistence.Enrollment
	err         error
}

func (s *enrollmentRepoStub) CreateEnrollment(ctx context.Context, enrollment persistence.Enrollment) error {
	if s.err != nil {
		return s.err
	}
	for _, existing := range s.enrollments {
		if existing.CourseID == enrollment.CourseID && existing.LearnerID == enrollment.LearnerID {
			return persistence.ErrDuplicate
		}
	}
	s.enrollments = append(s.enrollments, enrollment)
	return nil
}

func (s *enrollmentRepoStub) DeleteEnrollment(ctx context.Context, courseID, learnerID string) error {
	if s.err != nil {
		return s.err
	}
	kept := make([]persistence.Enrollment, 0)
	for _, enrollment := range s.enrollments {
		if enrollment.CourseID == courseID && enrollment.LearnerID == learnerID {
			continue
		}
		kept = append(kept, enrollment)
	}
	s.enrollments = kept
	return nil
}

func (s *enrollmentRepoStub) ListEnrollmentsForCourse(ctx context.Context, organizationID, courseID string) ([]persistence.Enrollment, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([]persistence.Enrollment, 0)
	for _, enrollment := range s.enrollments {
		if enrollment.OrganizationID == organizationID && enrollment.CourseID == courseID {
			out = append(out, enrollment)
		}
	}
	return out, nil
}

func (s *enrollmentRepoStub) ListLearnerIDsForCourse(ctx context.Context, organizationID, courseID string) ([]string, error) {
	if s.err != nil {
		return nil, s.err
	}
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, enrollment := range s.enrollments {
		if enrollment.OrganizationID != organizationID || enrollment.CourseID != courseID {
			continue
		}
		if _, ok := seen[enrollment.LearnerID]; ok {
			continue
		}
		seen[enrollment.LearnerID] = struct{}{}
		out = append(out, enrollment.LearnerID)
	}
	return out, nil
}

func (s *enrollmentRepoStub) ListLearnerIDsForOrganization(ctx context.Context, organizationID string) ([]string, error) {
	if s.err != nil {
		return nil, s.err
	}
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, enrollment := range s.enrollments {
		if enrollment.OrganizationID != organizationID {
			continue
		}
		if _, ok := seen[enrollment.LearnerID]; ok {
			continue
		}
		seen[enrollment.LearnerID] = struct{}{}
		out = append(out, enrollment.LearnerID)
	}
	return out, nil
}

type attendanceRepoStub struct {
	records     []persistence.AttendanceRecord
	upsertCalls int
	bulkCalls   int
	err         error
}

func (s *attendanceRepoStub) UpsertAttendance(ctx context.Context, record persistence.AttendanceRecord) error {
	if s.err != nil {
		return s.err
	}
	s.upsertCalls++
	s.apply(record)
	return nil
}

func (s *attendanceRepoStub) BulkUpsertAttendance(ctx context.Context, records []persistence.AttendanceRecord) error {
	if s.err != nil {
		return s.err
	}
	s.bulkCalls++
	for _, record := range records {
		s.apply(record)
	}
	return nil
}

func (s *attendanceRepoStub) apply(record persistence.AttendanceRecord) {
	for i := range s.records {
		existing := s.records[i]
		if existing.OrganizationID == record.OrganizationID &&
			existing.CourseID == record.CourseID &&
			existing.LearnerID == record.LearnerID &&
			existing.Date.Equal(record.Date) {
			record.ID = existing.ID
			record.CreatedAt = existing.CreatedAt
			s.records[i] = record
			return
		}
	}
	s.records = append(s.records, record)
}

func (s *attendanceRepoStub) ListAttendanceForCourseAndDate(ctx context.Context, organizationID, courseID string, date time.Time) ([]persistence.AttendanceRecord, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([]persistence.AttendanceRecord, 0)
	for _, record := range s.records {
		if record.OrganizationID == organizationID && record.CourseID == courseID && record.Date.Equal(date) {
			out = append(out, record)
		}
	}
	return out, nil
}

func (s *attendanceRepoStub) ListAttendedLearnerIDsForDate(ctx context.Context, organizationID string, date time.Time) ([]string, error) {
	if s.err != nil {
		return nil, s.err
	}
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, record := range s.records {
		if record.OrganizationID != organizationID || !record.Date.Equal(date) || !record.Attended {
			continue
		}
		if _, ok := seen[record.LearnerID]; ok {
			continue
		}
		seen[record.LearnerID] = struct{}{}
		out = append(out, record.LearnerID)
	}
	return out, nil
}
