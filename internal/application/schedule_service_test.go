package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/course-admin/internal/persistence"
)

func newScheduleFixture() (*ScheduleService, *courseRepoStub, *itemRepoStub, *sessionRepoStub) {
	courses := &courseRepoStub{courses: []persistence.Course{
		{ID: "course-1", OrganizationID: "org-1", Name: "Piano"},
	}}
	items := &itemRepoStub{}
	sessions := &sessionRepoStub{}
	sessionSvc := NewSessionService(sessions, courses, nil, sequentialIDs("session"), fixedNow)
	svc := NewScheduleService(courses, items, sessionSvc, nil, sequentialIDs("item"), fixedNow)
	return svc, courses, items, sessions
}

func TestValidateTimeRange(t *testing.T) {
	t.Parallel()

	if err := ValidateTimeRange("09:00", "10:00"); err != nil {
		t.Fatalf("expected valid range, got %v", err)
	}

	err := ValidateTimeRange("10:00", "09:00")
	if err == nil {
		t.Fatal("expected error for inverted range")
	}
	if _, ok := err.FieldErrors["time"]; !ok {
		t.Fatalf("expected time field error, got %v", err.FieldErrors)
	}

	err = ValidateTimeRange("9:00", "10:00")
	if err == nil {
		t.Fatal("expected error for loose format")
	}
	if _, ok := err.FieldErrors["start_time"]; !ok {
		t.Fatalf("expected start_time field error, got %v", err.FieldErrors)
	}

	if err := ValidateTimeRange("09:00", "09:00"); err == nil {
		t.Fatal("expected error for equal start and end")
	}
}

func TestValidateDateRange(t *testing.T) {
	t.Parallel()

	if err := ValidateDateRange(jstDate(2024, 1, 1), jstDate(2024, 1, 22)); err != nil {
		t.Fatalf("expected valid range, got %v", err)
	}
	if err := ValidateDateRange(jstDate(2024, 1, 1), jstDate(2024, 1, 1)); err != nil {
		t.Fatalf("expected same-day range to be valid, got %v", err)
	}

	err := ValidateDateRange(jstDate(2024, 1, 22), jstDate(2024, 1, 1))
	if err == nil {
		t.Fatal("expected error for inverted range")
	}
	if _, ok := err.FieldErrors["validity"]; !ok {
		t.Fatalf("expected validity field error, got %v", err.FieldErrors)
	}
}

func TestScheduleService_ReplaceAll_MaterializesWeeklySessions(t *testing.T) {
	t.Parallel()

	svc, _, items, sessions := newScheduleFixture()

	saved, warnings, err := svc.ReplaceAll(context.Background(), ReplaceScheduleParams{
		Principal: Principal{OrganizationID: "org-1"},
		CourseID:  "course-1",
		Items: []ScheduleItemInput{{
			DayOfWeek:     1,
			StartTime:     "09:00",
			EndTime:       "10:00",
			ValidityStart: jstDate(2024, 1, 1),
			ValidityEnd:   jstDate(2024, 1, 22),
		}},
	})
	if err != nil {
		t.Fatalf("ReplaceAll failed: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("expected no warnings, got %v", warnings)
	}
	if len(saved) != 1 {
		t.Fatalf("expected 1 saved item, got %d", len(saved))
	}
	if items.replaceCalls != 1 {
		t.Fatalf("expected one replace call, got %d", items.replaceCalls)
	}

	if len(sessions.sessions) != 4 {
		t.Fatalf("expected 4 sessions, got %d", len(sessions.sessions))
	}
	wantDates := []time.Time{
		jstDate(2024, 1, 1), jstDate(2024, 1, 8), jstDate(2024, 1, 15), jstDate(2024, 1, 22),
	}
	for i, session := range sessions.sessions {
		if !session.Date.Equal(wantDates[i]) {
			t.Fatalf("session %d: want date %v, got %v", i, wantDates[i], session.Date)
		}
		if session.Start.Hour() != 9 || session.End.Hour() != 10 {
			t.Fatalf("session %d: want 09:00-10:00, got %v-%v", i, session.Start, session.End)
		}
		midnight := time.Date(session.Start.Year(), session.Start.Month(), session.Start.Day(), 0, 0, 0, 0, session.Start.Location())
		if !session.Date.Equal(midnight) {
			t.Fatalf("session %d: date %v is not the calendar date of start %v", i, session.Date, session.Start)
		}
		if session.Status != string(SessionStatusNormal) {
			t.Fatalf("session %d: want status NORMAL, got %s", i, session.Status)
		}
		if session.ScheduleItemID != saved[0].ID {
			t.Fatalf("session %d: missing provenance link", i)
		}
	}
}

func TestScheduleService_ReplaceAll_ValidationGateBlocksAllMutation(t *testing.T) {
	t.Parallel()

	svc, _, items, sessions := newScheduleFixture()

	_, _, err := svc.ReplaceAll(context.Background(), ReplaceScheduleParams{
		Principal: Principal{OrganizationID: "org-1"},
		CourseID:  "course-1",
		Items: []ScheduleItemInput{
			{DayOfWeek: 1, StartTime: "09:00", EndTime: "10:00", ValidityStart: jstDate(2024, 1, 1), ValidityEnd: jstDate(2024, 1, 22)},
			{DayOfWeek: 9, StartTime: "10:00", EndTime: "09:00", ValidityStart: jstDate(2024, 1, 22), ValidityEnd: jstDate(2024, 1, 1)},
		},
	})

	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	for _, field := range []string{"items[1].day_of_week", "items[1].time", "items[1].validity"} {
		if _, ok := vErr.FieldErrors[field]; !ok {
			t.Fatalf("expected %s error, got %v", field, vErr.FieldErrors)
		}
	}

	if items.replaceCalls != 0 {
		t.Fatal("invalid input must not mutate the schedule set")
	}
	if len(sessions.sessions) != 0 {
		t.Fatal("invalid input must not materialize sessions")
	}
}

func TestScheduleService_ReplaceAll_EmptySetClearsScheduleAndSessions(t *testing.T) {
	t.Parallel()

	svc, _, items, sessions := newScheduleFixture()
	principal := Principal{OrganizationID: "org-1"}

	_, _, err := svc.ReplaceAll(context.Background(), ReplaceScheduleParams{
		Principal: principal,
		CourseID:  "course-1",
		Items: []ScheduleItemInput{{
			DayOfWeek:     1,
			StartTime:     "09:00",
			EndTime:       "10:00",
			ValidityStart: jstDate(2024, 1, 1),
			ValidityEnd:   jstDate(2024, 1, 22),
		}},
	})
	if err != nil {
		t.Fatalf("seed ReplaceAll failed: %v", err)
	}

	saved, _, err := svc.ReplaceAll(context.Background(), ReplaceScheduleParams{
		Principal: principal,
		CourseID:  "course-1",
		Items:     nil,
	})
	if err != nil {
		t.Fatalf("empty ReplaceAll failed: %v", err)
	}
	if len(saved) != 0 {
		t.Fatalf("expected empty item set, got %d", len(saved))
	}
	if len(items.items) != 0 {
		t.Fatalf("expected all items removed, %d remain", len(items.items))
	}
	if len(sessions.sessions) != 0 {
		t.Fatalf("expected all sessions removed, %d remain", len(sessions.sessions))
	}
}

func TestScheduleService_ReplaceAll_WipesSessionOverrides(t *testing.T) {
	t.Parallel()

	svc, courses, _, sessions := newScheduleFixture()
	principal := Principal{OrganizationID: "org-1"}
	input := ReplaceScheduleParams{
		Principal: principal,
		CourseID:  "course-1",
		Items: []ScheduleItemInput{{
			DayOfWeek:     1,
			StartTime:     "09:00",
			EndTime:       "10:00",
			ValidityStart: jstDate(2024, 1, 1),
			ValidityEnd:   jstDate(2024, 1, 22),
		}},
	}

	if _, _, err := svc.ReplaceAll(context.Background(), input); err != nil {
		t.Fatalf("seed ReplaceAll failed: %v", err)
	}

	sessionSvc := NewSessionService(sessions, courses, nil, sequentialIDs("override"), fixedNow)
	if _, err := sessionSvc.UpdateSession(context.Background(), principal, sessions.sessions[0].ID, SessionPatch{Status: SessionStatusCancelled}); err != nil {
		t.Fatalf("override failed: %v", err)
	}

	if _, _, err := svc.ReplaceAll(context.Background(), input); err != nil {
		t.Fatalf("second ReplaceAll failed: %v", err)
	}

	for _, session := range sessions.sessions {
		if session.Status != string(SessionStatusNormal) {
			t.Fatalf("regeneration must reset overrides, got %s", session.Status)
		}
	}
}

func TestScheduleService_ReplaceAll_PreservesPastSessions(t *testing.T) {
	t.Parallel()

	svc, _, _, sessions := newScheduleFixture()
	principal := Principal{OrganizationID: "org-1"}

	_, _, err := svc.ReplaceAll(context.Background(), ReplaceScheduleParams{
		Principal: principal,
		CourseID:  "course-1",
		Items: []ScheduleItemInput{{
			DayOfWeek:     1,
			StartTime:     "09:00",
			EndTime:       "10:00",
			ValidityStart: jstDate(2024, 1, 1),
			ValidityEnd:   jstDate(2024, 1, 22),
		}},
	})
	if err != nil {
		t.Fatalf("seed ReplaceAll failed: %v", err)
	}

	// The replacing set starts 2024-01-15, so the January 1 and 8 sessions
	// belong to a still valid past period and must survive.
	_, _, err = svc.ReplaceAll(context.Background(), ReplaceScheduleParams{
		Principal: principal,
		CourseID:  "course-1",
		Items: []ScheduleItemInput{{
			DayOfWeek:     2,
			StartTime:     "11:00",
			EndTime:       "12:00",
			ValidityStart: jstDate(2024, 1, 15),
			ValidityEnd:   jstDate(2024, 1, 28),
		}},
	})
	if err != nil {
		t.Fatalf("second ReplaceAll failed: %v", err)
	}

	preserved := 0
	for _, session := range sessions.sessions {
		if session.Date.Before(jstDate(2024, 1, 15)) {
			preserved++
		}
	}
	if preserved != 2 {
		t.Fatalf("expected 2 preserved past sessions, got %d", preserved)
	}
}

func TestScheduleService_ReplaceAll_ReportsOverlapWarnings(t *testing.T) {
	t.Parallel()

	svc, _, _, _ := newScheduleFixture()

	_, warnings, err := svc.ReplaceAll(context.Background(), ReplaceScheduleParams{
		Principal: Principal{OrganizationID: "org-1"},
		CourseID:  "course-1",
		Items: []ScheduleItemInput{
			{DayOfWeek: 1, StartTime: "09:00", EndTime: "10:00", ValidityStart: jstDate(2024, 1, 1), ValidityEnd: jstDate(2024, 1, 22)},
			{DayOfWeek: 1, StartTime: "09:30", EndTime: "10:30", ValidityStart: jstDate(2024, 1, 1), ValidityEnd: jstDate(2024, 1, 22)},
		},
	})
	if err != nil {
		t.Fatalf("ReplaceAll failed: %v", err)
	}
	if len(warnings) != 1 {
		t.Fatalf("expected 1 overlap warning, got %d", len(warnings))
	}
	if warnings[0].DayOfWeek != time.Monday {
		t.Fatalf("expected Monday overlap, got %v", warnings[0].DayOfWeek)
	}
}

func TestScheduleService_ReplaceAll_DeniesForeignCourse(t *testing.T) {
	t.Parallel()

	svc, _, items, _ := newScheduleFixture()

	_, _, err := svc.ReplaceAll(context.Background(), ReplaceScheduleParams{
		Principal: Principal{OrganizationID: "org-2"},
		CourseID:  "course-1",
	})
	if !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("expected ErrAccessDenied, got %v", err)
	}
	if items.replaceCalls != 0 {
		t.Fatal("denied request must not mutate")
	}
}

func TestScheduleService_ReplaceAll_UnknownCourse(t *testing.T) {
	t.Parallel()

	svc, _, _, _ := newScheduleFixture()

	_, _, err := svc.ReplaceAll(context.Background(), ReplaceScheduleParams{
		Principal: Principal{OrganizationID: "org-1"},
		CourseID:  "missing",
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestScheduleService_UpdateItem_ValidatesAgainstStoredSiblingField(t *testing.T) {
	t.Parallel()

	svc, _, items, sessions := newScheduleFixture()
	items.items = []persistence.ScheduleItem{{
		ID:             "item-1",
		CourseID:       "course-1",
		OrganizationID: "org-1",
		DayOfWeek:      time.Monday,
		StartTime:      "09:00",
		EndTime:        "10:00",
		ValidityStart:  jstDate(2024, 1, 1),
		ValidityEnd:    jstDate(2024, 1, 22),
	}}

	start := "10:30"
	_, err := svc.UpdateItem(context.Background(), UpdateScheduleItemParams{
		Principal: Principal{OrganizationID: "org-1"},
		ItemID:    "item-1",
		Patch:     ScheduleItemPatch{StartTime: &start},
	})

	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError against stored end time, got %v", err)
	}

	start = "08:30"
	updated, err := svc.UpdateItem(context.Background(), UpdateScheduleItemParams{
		Principal: Principal{OrganizationID: "org-1"},
		ItemID:    "item-1",
		Patch:     ScheduleItemPatch{StartTime: &start},
	})
	if err != nil {
		t.Fatalf("UpdateItem failed: %v", err)
	}
	if updated.StartTime != "08:30" || updated.EndTime != "10:00" {
		t.Fatalf("unexpected merged window %s-%s", updated.StartTime, updated.EndTime)
	}

	if sessions.createCalls != 0 {
		t.Fatal("single-item update must not regenerate sessions")
	}
}

func TestScheduleService_UpdateItem_DeniesForeignItem(t *testing.T) {
	t.Parallel()

	svc, _, items, _ := newScheduleFixture()
	items.items = []persistence.ScheduleItem{{
		ID:             "item-1",
		CourseID:       "course-1",
		OrganizationID: "org-1",
		StartTime:      "09:00",
		EndTime:        "10:00",
		ValidityStart:  jstDate(2024, 1, 1),
		ValidityEnd:    jstDate(2024, 1, 22),
	}}

	_, err := svc.UpdateItem(context.Background(), UpdateScheduleItemParams{
		Principal: Principal{OrganizationID: "org-2"},
		ItemID:    "item-1",
	})
	if !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("expected ErrAccessDenied, got %v", err)
	}
}

func TestScheduleService_RemoveItem_KeepsOrphanedSessions(t *testing.T) {
	t.Parallel()

	svc, _, items, sessions := newScheduleFixture()
	principal := Principal{OrganizationID: "org-1"}

	_, _, err := svc.ReplaceAll(context.Background(), ReplaceScheduleParams{
		Principal: principal,
		CourseID:  "course-1",
		Items: []ScheduleItemInput{{
			DayOfWeek:     1,
			StartTime:     "09:00",
			EndTime:       "10:00",
			ValidityStart: jstDate(2024, 1, 1),
			ValidityEnd:   jstDate(2024, 1, 22),
		}},
	})
	if err != nil {
		t.Fatalf("seed ReplaceAll failed: %v", err)
	}

	if err := svc.RemoveItem(context.Background(), principal, items.items[0].ID); err != nil {
		t.Fatalf("RemoveItem failed: %v", err)
	}

	if len(items.items) != 0 {
		t.Fatal("expected item removed")
	}
	if len(sessions.sessions) != 4 {
		t.Fatalf("removal must not cascade to sessions, got %d", len(sessions.sessions))
	}
}

func TestScheduleService_ListItems_ReturnsSetWithWarnings(t *testing.T) {
	t.Parallel()

	svc, _, items, _ := newScheduleFixture()
	items.items = []persistence.ScheduleItem{
		{ID: "item-1", CourseID: "course-1", OrganizationID: "org-1", DayOfWeek: time.Monday, StartTime: "09:00", EndTime: "10:00", ValidityStart: jstDate(2024, 1, 1), ValidityEnd: jstDate(2024, 1, 22)},
		{ID: "item-2", CourseID: "course-1", OrganizationID: "org-1", DayOfWeek: time.Monday, StartTime: "09:30", EndTime: "10:30", ValidityStart: jstDate(2024, 1, 1), ValidityEnd: jstDate(2024, 1, 22)},
		{ID: "item-3", CourseID: "other", OrganizationID: "org-1", DayOfWeek: time.Monday, StartTime: "09:00", EndTime: "10:00", ValidityStart: jstDate(2024, 1, 1), ValidityEnd: jstDate(2024, 1, 22)},
	}

	listed, warnings, err := svc.ListItems(context.Background(), Principal{OrganizationID: "org-1"}, "course-1")
	if err != nil {
		t.Fatalf("ListItems failed: %v", err)
	}
	if len(listed) != 2 {
		t.Fatalf("expected 2 items, got %d", len(listed))
	}
	if len(warnings) != 1 {
		t.Fatalf("expected 1 warning, got %d", len(warnings))
	}
}

func TestCourseLocks_SerializesAndReleasesEntries(t *testing.T) {
	t.Parallel()

	locks := newCourseLocks()

	release := locks.lock("course-1", "org-1")
	if got := len(locks.locks); got != 1 {
		t.Fatalf("expected 1 registry entry while held, got %d", got)
	}

	acquired := make(chan struct{})
	go func() {
		second := locks.lock("course-1", "org-1")
		close(acquired)
		second()
	}()

	select {
	case <-acquired:
		t.Fatal("second lock acquired while the first is still held")
	case <-time.After(20 * time.Millisecond):
	}

	release()

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second lock was never acquired after release")
	}

	deadline := time.Now().Add(time.Second)
	for {
		locks.mu.Lock()
		remaining := len(locks.locks)
		locks.mu.Unlock()
		if remaining == 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("expected empty registry after all releases, got %d entries", remaining)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestCourseLocks_IndependentCoursesDoNotBlock(t *testing.T) {
	t.Parallel()

	locks := newCourseLocks()

	release := locks.lock("course-1", "org-1")
	defer release()

	done := make(chan struct{})
	go func() {
		other := locks.lock("course-2", "org-1")
		other()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on an unrelated course blocked")
	}
}
