package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/example/course-admin/internal/persistence"
)

func newAttendanceRecord(t *testing.T, id, courseID, learnerID, date string, attended bool) persistence.AttendanceRecord {
	t.Helper()

	return persistence.AttendanceRecord{
		ID:             id,
		OrganizationID: "org-1",
		CourseID:       courseID,
		LearnerID:      learnerID,
		Date:           mustDate(t, date),
		Attended:       attended,
	}
}

func TestAttendanceRepository_UpsertAttendance(t *testing.T) {
	ctx := context.Background()
	pool := newTestPool(t)
	repo := NewAttendanceRepository(pool, nil)

	seedCourse(t, pool, "course-1", "org-1", "リトミック")
	seedLearner(t, pool, "learner-1", "org-1", "山田 花子")

	record := newAttendanceRecord(t, "att-1", "course-1", "learner-1", "2024-04-01", true)
	if err := repo.UpsertAttendance(ctx, record); err != nil {
		t.Fatalf("UpsertAttendance failed: %v", err)
	}

	// A second upsert for the same key replaces the record in place.
	notes := "早退"
	update := newAttendanceRecord(t, "att-2", "course-1", "learner-1", "2024-04-01", false)
	update.Notes = &notes
	if err := repo.UpsertAttendance(ctx, update); err != nil {
		t.Fatalf("second UpsertAttendance failed: %v", err)
	}

	listed, err := repo.ListAttendanceForCourseAndDate(ctx, "org-1", "course-1", mustDate(t, "2024-04-01"))
	if err != nil {
		t.Fatalf("ListAttendanceForCourseAndDate failed: %v", err)
	}
	if len(listed) != 1 {
		t.Fatalf("expected key convergence to 1 record, got %d", len(listed))
	}
	if listed[0].Attended {
		t.Fatalf("expected attended flag to be replaced: %#v", listed[0])
	}
	if listed[0].Notes == nil || *listed[0].Notes != "早退" {
		t.Fatalf("expected notes to be replaced: %#v", listed[0])
	}

	blank := newAttendanceRecord(t, "", "course-1", "learner-1", "2024-04-01", true)
	if err := repo.UpsertAttendance(ctx, blank); !errors.Is(err, persistence.ErrConstraintViolation) {
		t.Fatalf("expected ErrConstraintViolation for blank ID, got %v", err)
	}
}

func TestAttendanceRepository_BulkUpsertAttendance(t *testing.T) {
	ctx := context.Background()
	pool := newTestPool(t)
	repo := NewAttendanceRepository(pool, nil)

	seedCourse(t, pool, "course-1", "org-1", "リトミック")
	seedLearner(t, pool, "learner-1", "org-1", "山田 花子")
	seedLearner(t, pool, "learner-2", "org-1", "佐藤 太郎")

	records := []persistence.AttendanceRecord{
		newAttendanceRecord(t, "att-1", "course-1", "learner-1", "2024-04-01", true),
		newAttendanceRecord(t, "att-2", "course-1", "learner-2", "2024-04-01", false),
	}
	if err := repo.BulkUpsertAttendance(ctx, records); err != nil {
		t.Fatalf("BulkUpsertAttendance failed: %v", err)
	}

	listed, err := repo.ListAttendanceForCourseAndDate(ctx, "org-1", "course-1", mustDate(t, "2024-04-01"))
	if err != nil {
		t.Fatalf("ListAttendanceForCourseAndDate failed: %v", err)
	}
	if len(listed) != 2 {
		t.Fatalf("expected 2 records, got %d", len(listed))
	}
	if listed[0].LearnerID != "learner-1" || listed[1].LearnerID != "learner-2" {
		t.Fatalf("expected learner ordering, got %s then %s",
			listed[0].LearnerID, listed[1].LearnerID)
	}

	// The bulk path shares upsert semantics with the single-record path.
	flip := []persistence.AttendanceRecord{
		newAttendanceRecord(t, "att-3", "course-1", "learner-2", "2024-04-01", true),
	}
	if err := repo.BulkUpsertAttendance(ctx, flip); err != nil {
		t.Fatalf("second BulkUpsertAttendance failed: %v", err)
	}

	listed, err = repo.ListAttendanceForCourseAndDate(ctx, "org-1", "course-1", mustDate(t, "2024-04-01"))
	if err != nil {
		t.Fatalf("ListAttendanceForCourseAndDate after flip failed: %v", err)
	}
	if len(listed) != 2 || !listed[1].Attended {
		t.Fatalf("expected learner-2 flipped to attended, got %#v", listed)
	}

	if err := repo.BulkUpsertAttendance(ctx, nil); err != nil {
		t.Fatalf("empty BulkUpsertAttendance failed: %v", err)
	}

	// One invalid record fails the whole batch.
	bad := []persistence.AttendanceRecord{
		newAttendanceRecord(t, "att-4", "course-1", "learner-1", "2024-04-08", true),
		newAttendanceRecord(t, "att-5", "", "learner-2", "2024-04-08", true),
	}
	if err := repo.BulkUpsertAttendance(ctx, bad); !errors.Is(err, persistence.ErrConstraintViolation) {
		t.Fatalf("expected ErrConstraintViolation, got %v", err)
	}
	listed, err = repo.ListAttendanceForCourseAndDate(ctx, "org-1", "course-1", mustDate(t, "2024-04-08"))
	if err != nil {
		t.Fatalf("ListAttendanceForCourseAndDate after rollback failed: %v", err)
	}
	if len(listed) != 0 {
		t.Fatalf("expected rollback of the bad batch, got %d records", len(listed))
	}
}

func TestAttendanceRepository_ListAttendedLearnerIDsForDate(t *testing.T) {
	ctx := context.Background()
	pool := newTestPool(t)
	repo := NewAttendanceRepository(pool, nil)

	seedCourse(t, pool, "course-1", "org-1", "リトミック")
	seedCourse(t, pool, "course-2", "org-1", "英語あそび")
	seedLearner(t, pool, "learner-1", "org-1", "山田 花子")
	seedLearner(t, pool, "learner-2", "org-1", "佐藤 太郎")
	seedLearner(t, pool, "learner-3", "org-1", "鈴木 一郎")

	records := []persistence.AttendanceRecord{
		// learner-1 attended two courses on the day; counted once.
		newAttendanceRecord(t, "att-1", "course-1", "learner-1", "2024-04-01", true),
		newAttendanceRecord(t, "att-2", "course-2", "learner-1", "2024-04-01", true),
		newAttendanceRecord(t, "att-3", "course-1", "learner-2", "2024-04-01", false),
		newAttendanceRecord(t, "att-4", "course-1", "learner-3", "2024-04-08", true),
	}
	if err := repo.BulkUpsertAttendance(ctx, records); err != nil {
		t.Fatalf("BulkUpsertAttendance failed: %v", err)
	}

	ids, err := repo.ListAttendedLearnerIDsForDate(ctx, "org-1", mustDate(t, "2024-04-01"))
	if err != nil {
		t.Fatalf("ListAttendedLearnerIDsForDate failed: %v", err)
	}
	if len(ids) != 1 || ids[0] != "learner-1" {
		t.Fatalf("unexpected attended learner IDs: %v", ids)
	}

	ids, err = repo.ListAttendedLearnerIDsForDate(ctx, "org-1", mustDate(t, "2024-04-08"))
	if err != nil {
		t.Fatalf("ListAttendedLearnerIDsForDate for later date failed: %v", err)
	}
	if len(ids) != 1 || ids[0] != "learner-3" {
		t.Fatalf("unexpected attended learner IDs for later date: %v", ids)
	}

	ids, err = repo.ListAttendedLearnerIDsForDate(ctx, "org-2", mustDate(t, "2024-04-01"))
	if err != nil {
		t.Fatalf("foreign organization query failed: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("expected no attended learners for foreign organization, got %v", ids)
	}
}
