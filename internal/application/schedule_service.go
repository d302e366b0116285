package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/example/course-admin/internal/overlap"
	"github.com/example/course-admin/internal/persistence"
	"github.com/example/course-admin/internal/timeutil"
)

// ValidateTimeRange checks a "HH:MM" time-of-day window. The format itself is
// validated strictly; the end must fall after the start when compared as
// minutes since midnight.
func ValidateTimeRange(startTime, endTime string) *ValidationError {
	vErr := &ValidationError{}

	start, startErr := timeutil.ParseClock(startTime)
	if startErr != nil {
		vErr.add("start_time", "startTime must match HH:MM")
	}
	end, endErr := timeutil.ParseClock(endTime)
	if endErr != nil {
		vErr.add("end_time", "endTime must match HH:MM")
	}
	if startErr == nil && endErr == nil && end.Minutes() <= start.Minutes() {
		vErr.add("time", "endTime must be after startTime")
	}

	if vErr.HasErrors() {
		return vErr
	}
	return nil
}

// ValidateDateRange checks an inclusive validity range.
func ValidateDateRange(validityStart, validityEnd time.Time) *ValidationError {
	vErr := &ValidationError{}

	if validityStart.IsZero() {
		vErr.add("validity_start", "validityStart is required")
	}
	if validityEnd.IsZero() {
		vErr.add("validity_end", "validityEnd is required")
	}
	if !validityStart.IsZero() && !validityEnd.IsZero() && validityEnd.Before(validityStart) {
		vErr.add("validity", "validityEnd must not be before validityStart")
	}

	if vErr.HasErrors() {
		return vErr
	}
	return nil
}

// courseLocks serializes schedule replacement per (courseID, organizationID).
// Interleaved replacements for the same course could otherwise leave a mix of
// two schedule sets behind. Entries are reference counted and removed once the
// last holder releases, keeping the registry bounded by concurrent courses.
type courseLocks struct {
	mu    sync.Mutex
	locks map[string]*courseLock
}

type courseLock struct {
	mu   sync.Mutex
	refs int
}

func newCourseLocks() *courseLocks {
	return &courseLocks{locks: make(map[string]*courseLock)}
}

// lock blocks until the (course, organization) pair is exclusively held and
// returns the release function.
func (c *courseLocks) lock(courseID, organizationID string) func() {
	key := courseID + "\x00" + organizationID

	c.mu.Lock()
	entry, ok := c.locks[key]
	if !ok {
		entry = &courseLock{}
		c.locks[key] = entry
	}
	entry.refs++
	c.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()

		c.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(c.locks, key)
		}
		c.mu.Unlock()
	}
}

// ScheduleService owns the weekly recurrence rules of courses and the
// replace-and-regenerate protocol that keeps materialized sessions consistent
// with them.
type ScheduleService struct {
	courses     persistence.CourseRepository
	items       persistence.ScheduleItemRepository
	sessions    *SessionService
	locks       *courseLocks
	location    *time.Location
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewScheduleService wires dependencies for schedule operations.
func NewScheduleService(courses persistence.CourseRepository, items persistence.ScheduleItemRepository, sessions *SessionService, loc *time.Location, idGenerator func() string, now func() time.Time) *ScheduleService {
	return NewScheduleServiceWithLogger(courses, items, sessions, loc, idGenerator, now, nil)
}

// NewScheduleServiceWithLogger wires dependencies for schedule operations with a specified logger.
func NewScheduleServiceWithLogger(courses persistence.CourseRepository, items persistence.ScheduleItemRepository, sessions *SessionService, loc *time.Location, idGenerator func() string, now func() time.Time, logger *slog.Logger) *ScheduleService {
	if loc == nil {
		loc = timeutil.DefaultLocation()
	}
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &ScheduleService{
		courses:     courses,
		items:       items,
		sessions:    sessions,
		locks:       newCourseLocks(),
		location:    loc,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *ScheduleService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "ScheduleService", operation, attrs...)
}

// ReplaceAll swaps the full schedule set of a course and rebuilds its future
// sessions from the new rules. The steps run in a fixed order: validate every
// incoming item, replace the stored item set, delete sessions dated at or
// after the earliest new validity start, regenerate from the fresh set. The
// sequence is serialized per course but is not one storage transaction; a
// failure mid-sequence leaves the course with a new schedule and stale or
// missing sessions, and callers must re-query before retrying.
//
// Regeneration is wholesale. Per-session overrides applied since the previous
// materialization are wiped for every regenerated date.
func (s *ScheduleService) ReplaceAll(ctx context.Context, params ReplaceScheduleParams) (items []ScheduleItem, warnings []OverlapWarning, err error) {
	if s == nil {
		err = fmt.Errorf("ScheduleService is nil")
		return
	}
	if s.items == nil {
		err = fmt.Errorf("schedule item repository not configured")
		return
	}

	principal := params.Principal
	logger := s.loggerWith(ctx, "ReplaceAll",
		"organization_id", principal.OrganizationID,
		"course_id", params.CourseID,
		"item_count", len(params.Items),
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to replace schedule", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("warning_count", len(warnings)).InfoContext(ctx, "schedule replaced")
	}()

	if err = s.ensureCourseOwned(ctx, principal, params.CourseID); err != nil {
		return
	}

	vErr := &ValidationError{}
	for i, input := range params.Items {
		validateScheduleItemInput(i, input, vErr)
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	release := s.locks.lock(params.CourseID, principal.OrganizationID)
	defer release()

	createdAt := s.now()
	records := make([]persistence.ScheduleItem, 0, len(params.Items))
	for _, input := range params.Items {
		records = append(records, persistence.ScheduleItem{
			ID:             s.idGenerator(),
			CourseID:       params.CourseID,
			OrganizationID: principal.OrganizationID,
			DayOfWeek:      time.Weekday(input.DayOfWeek),
			StartTime:      input.StartTime,
			EndTime:        input.EndTime,
			ValidityStart:  timeutil.Midnight(input.ValidityStart, s.location),
			ValidityEnd:    timeutil.Midnight(input.ValidityEnd, s.location),
			CreatedAt:      createdAt,
			UpdatedAt:      createdAt,
		})
	}

	// An empty replacement clears the schedule and every remaining session;
	// the zero cutoff precedes any stored date.
	cutoff := time.Time{}
	for i, record := range records {
		if i == 0 || record.ValidityStart.Before(cutoff) {
			cutoff = record.ValidityStart
		}
	}

	if err = s.items.ReplaceScheduleItems(ctx, params.CourseID, principal.OrganizationID, records); err != nil {
		err = mapScheduleRepoError(err)
		return
	}

	if s.sessions != nil {
		if err = s.sessions.DeleteFutureSessions(ctx, params.CourseID, principal.OrganizationID, cutoff); err != nil {
			return
		}
		if len(records) > 0 {
			if _, err = s.sessions.Generate(ctx, toScheduleItems(records)); err != nil {
				return
			}
		}
	}

	items = toScheduleItems(records)
	warnings = detectOverlaps(items)
	return
}

// UpdateItem applies a narrow field-level edit to one schedule item. Supplied
// fields are re-validated against the unchanged stored siblings. Sessions are
// not regenerated; callers who need the materialized set rebuilt use ReplaceAll.
func (s *ScheduleService) UpdateItem(ctx context.Context, params UpdateScheduleItemParams) (item ScheduleItem, err error) {
	if s == nil {
		err = fmt.Errorf("ScheduleService is nil")
		return
	}
	if s.items == nil {
		err = fmt.Errorf("schedule item repository not configured")
		return
	}

	principal := params.Principal
	logger := s.loggerWith(ctx, "UpdateItem",
		"organization_id", principal.OrganizationID,
		"item_id", params.ItemID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update schedule item", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "schedule item updated")
	}()

	var existing persistence.ScheduleItem
	existing, err = s.items.GetScheduleItem(ctx, params.ItemID)
	if err != nil {
		err = mapScheduleRepoError(err)
		return
	}
	if existing.OrganizationID != principal.OrganizationID {
		err = ErrAccessDenied
		return
	}

	merged := existing
	patch := params.Patch
	if patch.DayOfWeek != nil {
		merged.DayOfWeek = time.Weekday(*patch.DayOfWeek)
	}
	if patch.StartTime != nil {
		merged.StartTime = *patch.StartTime
	}
	if patch.EndTime != nil {
		merged.EndTime = *patch.EndTime
	}
	if patch.ValidityStart != nil {
		merged.ValidityStart = timeutil.Midnight(*patch.ValidityStart, s.location)
	}
	if patch.ValidityEnd != nil {
		merged.ValidityEnd = timeutil.Midnight(*patch.ValidityEnd, s.location)
	}

	vErr := &ValidationError{}
	if patch.DayOfWeek != nil && (*patch.DayOfWeek < 0 || *patch.DayOfWeek > 6) {
		vErr.add("day_of_week", "dayOfWeek must be between 0 and 6")
	}
	vErr.merge(ValidateTimeRange(merged.StartTime, merged.EndTime))
	vErr.merge(ValidateDateRange(merged.ValidityStart, merged.ValidityEnd))
	if vErr.HasErrors() {
		err = vErr
		return
	}

	merged.UpdatedAt = s.now()
	if err = s.items.UpdateScheduleItem(ctx, merged); err != nil {
		err = mapScheduleRepoError(err)
		return
	}

	item = toScheduleItem(merged)
	return
}

// RemoveItem deletes one schedule item. Sessions already materialized from the
// item are left in place until the next ReplaceAll.
func (s *ScheduleService) RemoveItem(ctx context.Context, principal Principal, itemID string) (err error) {
	if s == nil {
		return fmt.Errorf("ScheduleService is nil")
	}
	if s.items == nil {
		return fmt.Errorf("schedule item repository not configured")
	}

	logger := s.loggerWith(ctx, "RemoveItem",
		"organization_id", principal.OrganizationID,
		"item_id", itemID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to remove schedule item", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "schedule item removed")
	}()

	var existing persistence.ScheduleItem
	existing, err = s.items.GetScheduleItem(ctx, itemID)
	if err != nil {
		err = mapScheduleRepoError(err)
		return
	}
	if existing.OrganizationID != principal.OrganizationID {
		err = ErrAccessDenied
		return
	}

	if err = s.items.DeleteScheduleItem(ctx, itemID, principal.OrganizationID); err != nil {
		err = mapScheduleRepoError(err)
		return
	}
	return
}

// ListItems enumerates the schedule items of a course with overlap warnings
// for the current set.
func (s *ScheduleService) ListItems(ctx context.Context, principal Principal, courseID string) ([]ScheduleItem, []OverlapWarning, error) {
	if s == nil {
		return nil, nil, fmt.Errorf("ScheduleService is nil")
	}
	if s.items == nil {
		return nil, nil, fmt.Errorf("schedule item repository not configured")
	}

	if err := s.ensureCourseOwned(ctx, principal, courseID); err != nil {
		return nil, nil, err
	}

	records, err := s.items.ListScheduleItemsForCourse(ctx, courseID, principal.OrganizationID)
	if err != nil {
		return nil, nil, mapScheduleRepoError(err)
	}

	items := toScheduleItems(records)
	return items, detectOverlaps(items), nil
}

func (s *ScheduleService) ensureCourseOwned(ctx context.Context, principal Principal, courseID string) error {
	if s.courses == nil {
		return nil
	}
	course, err := s.courses.GetCourse(ctx, courseID)
	if err != nil {
		return mapScheduleRepoError(err)
	}
	if course.OrganizationID != principal.OrganizationID {
		return ErrAccessDenied
	}
	return nil
}

func validateScheduleItemInput(index int, input ScheduleItemInput, vErr *ValidationError) {
	prefix := fmt.Sprintf("items[%d].", index)

	if input.DayOfWeek < 0 || input.DayOfWeek > 6 {
		vErr.add(prefix+"day_of_week", "dayOfWeek must be between 0 and 6")
	}
	if inner := ValidateTimeRange(input.StartTime, input.EndTime); inner != nil {
		for field, msg := range inner.FieldErrors {
			vErr.add(prefix+field, msg)
		}
	}
	if inner := ValidateDateRange(input.ValidityStart, input.ValidityEnd); inner != nil {
		for field, msg := range inner.FieldErrors {
			vErr.add(prefix+field, msg)
		}
	}
}

func detectOverlaps(items []ScheduleItem) []OverlapWarning {
	if len(items) <= 1 {
		return nil
	}

	converted := make([]overlap.Item, 0, len(items))
	for _, item := range items {
		start, err := timeutil.ParseClock(item.StartTime)
		if err != nil {
			continue
		}
		end, err := timeutil.ParseClock(item.EndTime)
		if err != nil {
			continue
		}
		converted = append(converted, overlap.Item{
			ID:            item.ID,
			DayOfWeek:     item.DayOfWeek,
			StartMinutes:  start.Minutes(),
			EndMinutes:    end.Minutes(),
			ValidityStart: item.ValidityStart,
			ValidityEnd:   item.ValidityEnd,
		})
	}

	detected := overlap.Detect(converted)
	if len(detected) == 0 {
		return nil
	}

	warnings := make([]OverlapWarning, 0, len(detected))
	for _, w := range detected {
		warnings = append(warnings, OverlapWarning{
			ItemID:     w.ItemID,
			WithItemID: w.WithItemID,
			DayOfWeek:  w.DayOfWeek,
		})
	}
	return warnings
}

func mapScheduleRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrConstraintViolation) {
		vErr := &ValidationError{}
		vErr.add("day_of_week", "dayOfWeek must be between 0 and 6")
		return vErr
	}
	if errors.Is(err, persistence.ErrForeignKeyViolation) {
		vErr := &ValidationError{}
		vErr.add("course_id", "course does not exist")
		return vErr
	}
	return err
}
