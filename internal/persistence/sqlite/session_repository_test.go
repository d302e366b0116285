package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/course-admin/internal/persistence"
)

func newSession(t *testing.T, id, courseID, date string, startHour int) persistence.Session {
	t.Helper()

	day := mustDate(t, date)
	return persistence.Session{
		ID:             id,
		CourseID:       courseID,
		OrganizationID: "org-1",
		ScheduleItemID: "item-1",
		Date:           day,
		Start:          day.Add(time.Duration(startHour) * time.Hour),
		End:            day.Add(time.Duration(startHour+1) * time.Hour),
		Status:         "NORMAL",
	}
}

func TestSessionRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	pool := newTestPool(t)
	repo := NewSessionRepository(pool, nil)

	seedCourse(t, pool, "course-1", "org-1", "体操教室")

	sessions := []persistence.Session{
		newSession(t, "sess-1", "course-1", "2024-04-01", 9),
		newSession(t, "sess-2", "course-1", "2024-04-08", 9),
	}
	if err := repo.CreateSessions(ctx, sessions); err != nil {
		t.Fatalf("CreateSessions failed: %v", err)
	}

	fetched, err := repo.GetSession(ctx, "sess-1")
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if fetched.CourseID != "course-1" || fetched.ScheduleItemID != "item-1" {
		t.Fatalf("unexpected session retrieved: %#v", fetched)
	}
	if !fetched.Date.Equal(mustDate(t, "2024-04-01")) {
		t.Fatalf("unexpected session date: %v", fetched.Date)
	}
	if !fetched.Start.Equal(sessions[0].Start) || !fetched.End.Equal(sessions[0].End) {
		t.Fatalf("time window round-trip mismatch: %#v", fetched)
	}
	if fetched.Status != "NORMAL" {
		t.Fatalf("unexpected status: %q", fetched.Status)
	}

	if _, err := repo.GetSession(ctx, "missing"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing session, got %v", err)
	}

	// An empty batch is a no-op.
	if err := repo.CreateSessions(ctx, nil); err != nil {
		t.Fatalf("empty CreateSessions failed: %v", err)
	}

	// A batch with one invalid session inserts nothing.
	bad := []persistence.Session{
		newSession(t, "sess-3", "course-1", "2024-04-15", 9),
		newSession(t, "", "course-1", "2024-04-22", 9),
	}
	if err := repo.CreateSessions(ctx, bad); !errors.Is(err, persistence.ErrConstraintViolation) {
		t.Fatalf("expected ErrConstraintViolation, got %v", err)
	}
	if _, err := repo.GetSession(ctx, "sess-3"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected rollback of sess-3, got %v", err)
	}
}

func TestSessionRepository_ListSessionsForCourse(t *testing.T) {
	ctx := context.Background()
	pool := newTestPool(t)
	repo := NewSessionRepository(pool, nil)

	seedCourse(t, pool, "course-1", "org-1", "体操教室")
	seedCourse(t, pool, "course-2", "org-1", "絵画教室")

	sessions := []persistence.Session{
		newSession(t, "sess-3", "course-1", "2024-04-15", 9),
		newSession(t, "sess-1", "course-1", "2024-04-01", 9),
		newSession(t, "sess-2", "course-1", "2024-04-08", 9),
		newSession(t, "other-1", "course-2", "2024-04-01", 10),
	}
	if err := repo.CreateSessions(ctx, sessions); err != nil {
		t.Fatalf("CreateSessions failed: %v", err)
	}

	listed, err := repo.ListSessionsForCourse(ctx, "course-1", "org-1", persistence.SessionFilter{})
	if err != nil {
		t.Fatalf("ListSessionsForCourse failed: %v", err)
	}
	if len(listed) != 3 {
		t.Fatalf("expected 3 sessions, got %d", len(listed))
	}
	if listed[0].ID != "sess-1" || listed[1].ID != "sess-2" || listed[2].ID != "sess-3" {
		t.Fatalf("expected start-time ordering, got %s, %s, %s",
			listed[0].ID, listed[1].ID, listed[2].ID)
	}

	from := mustDate(t, "2024-04-08")
	to := mustDate(t, "2024-04-08")
	listed, err = repo.ListSessionsForCourse(ctx, "course-1", "org-1",
		persistence.SessionFilter{From: &from, To: &to})
	if err != nil {
		t.Fatalf("filtered ListSessionsForCourse failed: %v", err)
	}
	if len(listed) != 1 || listed[0].ID != "sess-2" {
		t.Fatalf("expected only sess-2 in window, got %#v", listed)
	}

	listed, err = repo.ListSessionsForCourse(ctx, "course-1", "org-2", persistence.SessionFilter{})
	if err != nil {
		t.Fatalf("cross-organization list failed: %v", err)
	}
	if len(listed) != 0 {
		t.Fatalf("expected no sessions for foreign organization, got %d", len(listed))
	}
}

func TestSessionRepository_DeleteFutureSessions(t *testing.T) {
	ctx := context.Background()
	pool := newTestPool(t)
	repo := NewSessionRepository(pool, nil)

	seedCourse(t, pool, "course-1", "org-1", "体操教室")

	sessions := []persistence.Session{
		newSession(t, "sess-1", "course-1", "2024-04-01", 9),
		newSession(t, "sess-2", "course-1", "2024-04-08", 9),
		newSession(t, "sess-3", "course-1", "2024-04-15", 9),
	}
	if err := repo.CreateSessions(ctx, sessions); err != nil {
		t.Fatalf("CreateSessions failed: %v", err)
	}

	if err := repo.DeleteFutureSessions(ctx, "course-1", "org-1", mustDate(t, "2024-04-08")); err != nil {
		t.Fatalf("DeleteFutureSessions failed: %v", err)
	}

	listed, err := repo.ListSessionsForCourse(ctx, "course-1", "org-1", persistence.SessionFilter{})
	if err != nil {
		t.Fatalf("ListSessionsForCourse failed: %v", err)
	}
	// The cutoff itself is deleted; only the earlier session survives.
	if len(listed) != 1 || listed[0].ID != "sess-1" {
		t.Fatalf("expected only sess-1 to remain, got %#v", listed)
	}

	if err := repo.DeleteFutureSessions(ctx, "", "org-1", mustDate(t, "2024-04-01")); !errors.Is(err, persistence.ErrConstraintViolation) {
		t.Fatalf("expected ErrConstraintViolation for blank course, got %v", err)
	}
}

func TestSessionRepository_UpdateSession(t *testing.T) {
	ctx := context.Background()
	pool := newTestPool(t)
	repo := NewSessionRepository(pool, nil)

	seedCourse(t, pool, "course-1", "org-1", "体操教室")

	session := newSession(t, "sess-1", "course-1", "2024-04-01", 9)
	if err := repo.CreateSessions(ctx, []persistence.Session{session}); err != nil {
		t.Fatalf("CreateSessions failed: %v", err)
	}

	session.Status = "CANCELLED"
	session.Start = session.Start.Add(30 * time.Minute)
	session.End = session.End.Add(30 * time.Minute)
	if err := repo.UpdateSession(ctx, session); err != nil {
		t.Fatalf("UpdateSession failed: %v", err)
	}

	fetched, err := repo.GetSession(ctx, "sess-1")
	if err != nil {
		t.Fatalf("GetSession after update failed: %v", err)
	}
	if fetched.Status != "CANCELLED" {
		t.Fatalf("status not updated: %q", fetched.Status)
	}
	if !fetched.Start.Equal(session.Start) {
		t.Fatalf("start not updated: %v", fetched.Start)
	}

	missing := session
	missing.ID = "missing"
	if err := repo.UpdateSession(ctx, missing); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing session, got %v", err)
	}

	foreign := session
	foreign.OrganizationID = "org-2"
	if err := repo.UpdateSession(ctx, foreign); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on organization mismatch, got %v", err)
	}
}
