package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/course-admin/internal/persistence"
)

func newScheduleItem(t *testing.T, id, courseID string, day time.Weekday, start, end string) persistence.ScheduleItem {
	t.Helper()

	return persistence.ScheduleItem{
		ID:             id,
		CourseID:       courseID,
		OrganizationID: "org-1",
		DayOfWeek:      day,
		StartTime:      start,
		EndTime:        end,
		ValidityStart:  mustDate(t, "2024-04-01"),
		ValidityEnd:    mustDate(t, "2024-06-30"),
	}
}

func TestScheduleItemRepository_ReplaceScheduleItems(t *testing.T) {
	ctx := context.Background()
	pool := newTestPool(t)
	repo := NewScheduleItemRepository(pool, nil)

	seedCourse(t, pool, "course-1", "org-1", "うさぎ組")

	items := []persistence.ScheduleItem{
		newScheduleItem(t, "item-1", "course-1", time.Monday, "09:00", "10:00"),
		newScheduleItem(t, "item-2", "course-1", time.Wednesday, "14:30", "15:30"),
	}
	if err := repo.ReplaceScheduleItems(ctx, "course-1", "org-1", items); err != nil {
		t.Fatalf("ReplaceScheduleItems failed: %v", err)
	}

	listed, err := repo.ListScheduleItemsForCourse(ctx, "course-1", "org-1")
	if err != nil {
		t.Fatalf("ListScheduleItemsForCourse failed: %v", err)
	}
	if len(listed) != 2 {
		t.Fatalf("expected 2 items, got %d", len(listed))
	}
	if listed[0].ID != "item-1" || listed[1].ID != "item-2" {
		t.Fatalf("expected day-of-week ordering, got %s then %s", listed[0].ID, listed[1].ID)
	}
	if listed[0].StartTime != "09:00" || listed[0].EndTime != "10:00" {
		t.Fatalf("unexpected time window: %#v", listed[0])
	}
	if !listed[0].ValidityStart.Equal(mustDate(t, "2024-04-01")) {
		t.Fatalf("unexpected validity start: %v", listed[0].ValidityStart)
	}

	// A second replace discards the previous set entirely.
	replacement := []persistence.ScheduleItem{
		newScheduleItem(t, "item-3", "course-1", time.Friday, "16:00", "17:00"),
	}
	if err := repo.ReplaceScheduleItems(ctx, "course-1", "org-1", replacement); err != nil {
		t.Fatalf("second ReplaceScheduleItems failed: %v", err)
	}

	listed, err = repo.ListScheduleItemsForCourse(ctx, "course-1", "org-1")
	if err != nil {
		t.Fatalf("ListScheduleItemsForCourse after replace failed: %v", err)
	}
	if len(listed) != 1 || listed[0].ID != "item-3" {
		t.Fatalf("expected only item-3 after replace, got %#v", listed)
	}

	// An empty replacement clears the schedule.
	if err := repo.ReplaceScheduleItems(ctx, "course-1", "org-1", nil); err != nil {
		t.Fatalf("clearing ReplaceScheduleItems failed: %v", err)
	}
	listed, err = repo.ListScheduleItemsForCourse(ctx, "course-1", "org-1")
	if err != nil {
		t.Fatalf("ListScheduleItemsForCourse after clear failed: %v", err)
	}
	if len(listed) != 0 {
		t.Fatalf("expected empty schedule, got %d items", len(listed))
	}
}

func TestScheduleItemRepository_ReplaceScheduleItems_Invalid(t *testing.T) {
	ctx := context.Background()
	pool := newTestPool(t)
	repo := NewScheduleItemRepository(pool, nil)

	seedCourse(t, pool, "course-1", "org-1", "うさぎ組")

	err := repo.ReplaceScheduleItems(ctx, "", "org-1", nil)
	if !errors.Is(err, persistence.ErrConstraintViolation) {
		t.Fatalf("expected ErrConstraintViolation for blank course, got %v", err)
	}

	blank := newScheduleItem(t, "", "course-1", time.Monday, "09:00", "10:00")
	err = repo.ReplaceScheduleItems(ctx, "course-1", "org-1", []persistence.ScheduleItem{blank})
	if !errors.Is(err, persistence.ErrConstraintViolation) {
		t.Fatalf("expected ErrConstraintViolation for blank item ID, got %v", err)
	}
}

func TestScheduleItemRepository_GetScheduleItem(t *testing.T) {
	ctx := context.Background()
	pool := newTestPool(t)
	repo := NewScheduleItemRepository(pool, nil)

	seedCourse(t, pool, "course-1", "org-1", "うさぎ組")

	item := newScheduleItem(t, "item-1", "course-1", time.Tuesday, "10:00", "11:00")
	if err := repo.ReplaceScheduleItems(ctx, "course-1", "org-1", []persistence.ScheduleItem{item}); err != nil {
		t.Fatalf("ReplaceScheduleItems failed: %v", err)
	}

	fetched, err := repo.GetScheduleItem(ctx, "item-1")
	if err != nil {
		t.Fatalf("GetScheduleItem failed: %v", err)
	}
	if fetched.DayOfWeek != time.Tuesday || fetched.CourseID != "course-1" {
		t.Fatalf("unexpected item retrieved: %#v", fetched)
	}
	if !fetched.ValidityEnd.Equal(mustDate(t, "2024-06-30")) {
		t.Fatalf("unexpected validity end: %v", fetched.ValidityEnd)
	}

	if _, err := repo.GetScheduleItem(ctx, "missing"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing item, got %v", err)
	}
}

func TestScheduleItemRepository_UpdateScheduleItem(t *testing.T) {
	ctx := context.Background()
	pool := newTestPool(t)
	repo := NewScheduleItemRepository(pool, nil)

	seedCourse(t, pool, "course-1", "org-1", "うさぎ組")

	item := newScheduleItem(t, "item-1", "course-1", time.Monday, "09:00", "10:00")
	if err := repo.ReplaceScheduleItems(ctx, "course-1", "org-1", []persistence.ScheduleItem{item}); err != nil {
		t.Fatalf("ReplaceScheduleItems failed: %v", err)
	}

	item.DayOfWeek = time.Thursday
	item.StartTime = "13:00"
	item.EndTime = "14:00"
	item.ValidityEnd = mustDate(t, "2024-09-30")
	if err := repo.UpdateScheduleItem(ctx, item); err != nil {
		t.Fatalf("UpdateScheduleItem failed: %v", err)
	}

	fetched, err := repo.GetScheduleItem(ctx, "item-1")
	if err != nil {
		t.Fatalf("GetScheduleItem after update failed: %v", err)
	}
	if fetched.DayOfWeek != time.Thursday || fetched.StartTime != "13:00" {
		t.Fatalf("update not applied: %#v", fetched)
	}
	if !fetched.ValidityEnd.Equal(mustDate(t, "2024-09-30")) {
		t.Fatalf("validity end not updated: %v", fetched.ValidityEnd)
	}

	missing := item
	missing.ID = "missing"
	if err := repo.UpdateScheduleItem(ctx, missing); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing item, got %v", err)
	}

	// Organization mismatch must not touch the row.
	other := item
	other.OrganizationID = "org-2"
	if err := repo.UpdateScheduleItem(ctx, other); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on organization mismatch, got %v", err)
	}
}

func TestScheduleItemRepository_DeleteScheduleItem(t *testing.T) {
	ctx := context.Background()
	pool := newTestPool(t)
	repo := NewScheduleItemRepository(pool, nil)

	seedCourse(t, pool, "course-1", "org-1", "うさぎ組")

	item := newScheduleItem(t, "item-1", "course-1", time.Monday, "09:00", "10:00")
	if err := repo.ReplaceScheduleItems(ctx, "course-1", "org-1", []persistence.ScheduleItem{item}); err != nil {
		t.Fatalf("ReplaceScheduleItems failed: %v", err)
	}

	if err := repo.DeleteScheduleItem(ctx, "item-1", "org-2"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on organization mismatch, got %v", err)
	}

	if err := repo.DeleteScheduleItem(ctx, "item-1", "org-1"); err != nil {
		t.Fatalf("DeleteScheduleItem failed: %v", err)
	}

	if err := repo.DeleteScheduleItem(ctx, "item-1", "org-1"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on repeated delete, got %v", err)
	}
}
