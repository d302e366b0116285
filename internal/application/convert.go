package application

import (
	"github.com/example/course-admin/internal/persistence"
)

func toCourse(record persistence.Course) Course {
	return Course{
		ID:             record.ID,
		OrganizationID: record.OrganizationID,
		Name:           record.Name,
		CreatedAt:      record.CreatedAt,
		UpdatedAt:      record.UpdatedAt,
	}
}

func toLearner(record persistence.Learner) Learner {
	return Learner{
		ID:             record.ID,
		OrganizationID: record.OrganizationID,
		DisplayName:    record.DisplayName,
		CreatedAt:      record.CreatedAt,
		UpdatedAt:      record.UpdatedAt,
	}
}

func toScheduleItem(record persistence.ScheduleItem) ScheduleItem {
	return ScheduleItem{
		ID:             record.ID,
		CourseID:       record.CourseID,
		OrganizationID: record.OrganizationID,
		DayOfWeek:      record.DayOfWeek,
		StartTime:      record.StartTime,
		EndTime:        record.EndTime,
		ValidityStart:  record.ValidityStart,
		ValidityEnd:    record.ValidityEnd,
		CreatedAt:      record.CreatedAt,
		UpdatedAt:      record.UpdatedAt,
	}
}

func toScheduleItems(records []persistence.ScheduleItem) []ScheduleItem {
	items := make([]ScheduleItem, 0, len(records))
	for _, record := range records {
		items = append(items, toScheduleItem(record))
	}
	return items
}

func toSession(record persistence.Session) Session {
	return Session{
		ID:             record.ID,
		CourseID:       record.CourseID,
		OrganizationID: record.OrganizationID,
		ScheduleItemID: record.ScheduleItemID,
		Date:           record.Date,
		Start:          record.Start,
		End:            record.End,
		Status:         SessionStatus(record.Status),
		CreatedAt:      record.CreatedAt,
		UpdatedAt:      record.UpdatedAt,
	}
}

func toSessions(records []persistence.Session) []Session {
	sessions := make([]Session, 0, len(records))
	for _, record := range records {
		sessions = append(sessions, toSession(record))
	}
	return sessions
}

func toEnrollment(record persistence.Enrollment) Enrollment {
	return Enrollment{
		ID:             record.ID,
		OrganizationID: record.OrganizationID,
		CourseID:       record.CourseID,
		LearnerID:      record.LearnerID,
		EnrolledOn:     record.EnrolledOn,
		CreatedAt:      record.CreatedAt,
	}
}

func toAttendanceRecord(record persistence.AttendanceRecord) AttendanceRecord {
	return AttendanceRecord{
		ID:             record.ID,
		OrganizationID: record.OrganizationID,
		CourseID:       record.CourseID,
		LearnerID:      record.LearnerID,
		Date:           record.Date,
		Attended:       record.Attended,
		Notes:          copyOptionalString(record.Notes),
		CreatedAt:      record.CreatedAt,
		UpdatedAt:      record.UpdatedAt,
	}
}

func copyOptionalString(value *string) *string {
	if value == nil {
		return nil
	}
	out := *value
	return &out
}
