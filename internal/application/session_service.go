package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/course-admin/internal/persistence"
	"github.com/example/course-admin/internal/recurrence"
	"github.com/example/course-admin/internal/timeutil"
)

// SessionService materializes schedule items into concrete session records and
// manages the per-session overrides applied afterward.
type SessionService struct {
	sessions    persistence.SessionRepository
	courses     persistence.CourseRepository
	engine      *recurrence.Engine
	location    *time.Location
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewSessionService constructs a session service with the provided dependencies.
func NewSessionService(sessions persistence.SessionRepository, courses persistence.CourseRepository, loc *time.Location, idGenerator func() string, now func() time.Time) *SessionService {
	return NewSessionServiceWithLogger(sessions, courses, loc, idGenerator, now, nil)
}

// NewSessionServiceWithLogger constructs a session service with a specified logger.
func NewSessionServiceWithLogger(sessions persistence.SessionRepository, courses persistence.CourseRepository, loc *time.Location, idGenerator func() string, now func() time.Time, logger *slog.Logger) *SessionService {
	if loc == nil {
		loc = timeutil.DefaultLocation()
	}
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &SessionService{
		sessions:    sessions,
		courses:     courses,
		engine:      recurrence.NewEngine(loc),
		location:    loc,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *SessionService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "SessionService", operation, attrs...)
}

// Generate expands every schedule item into dated sessions and persists them in
// one batch insert. Each occurrence date is combined with the item's time-of-day
// window; every session starts in status NORMAL and carries a provenance link to
// its originating item.
func (s *SessionService) Generate(ctx context.Context, items []ScheduleItem) (sessions []Session, err error) {
	if s == nil {
		return nil, fmt.Errorf("SessionService is nil")
	}

	logger := s.loggerWith(ctx, "Generate", "item_count", len(items))
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to generate sessions", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("session_count", len(sessions)).InfoContext(ctx, "sessions generated")
	}()

	createdAt := s.now()
	records := make([]persistence.Session, 0, len(items))
	for _, item := range items {
		var startClock, endClock timeutil.Clock
		startClock, err = timeutil.ParseClock(item.StartTime)
		if err != nil {
			return nil, err
		}
		endClock, err = timeutil.ParseClock(item.EndTime)
		if err != nil {
			return nil, err
		}

		for _, date := range s.engine.Occurrences(item.ValidityStart, item.ValidityEnd, item.DayOfWeek) {
			records = append(records, persistence.Session{
				ID:             s.idGenerator(),
				CourseID:       item.CourseID,
				OrganizationID: item.OrganizationID,
				ScheduleItemID: item.ID,
				Date:           date,
				Start:          startClock.On(date, s.location),
				End:            endClock.On(date, s.location),
				Status:         string(SessionStatusNormal),
				CreatedAt:      createdAt,
				UpdatedAt:      createdAt,
			})
		}
	}

	if len(records) > 0 && s.sessions != nil {
		if err = s.sessions.CreateSessions(ctx, records); err != nil {
			return nil, err
		}
	}

	return toSessions(records), nil
}

// DeleteFutureSessions removes every session of the course dated at or after
// the supplied cutoff. The cutoff is the caller's, typically the earliest
// validity start of a replacing schedule set, so sessions of still valid past
// periods survive.
func (s *SessionService) DeleteFutureSessions(ctx context.Context, courseID, organizationID string, from time.Time) error {
	if s == nil {
		return fmt.Errorf("SessionService is nil")
	}
	if s.sessions == nil {
		return fmt.Errorf("session repository not configured")
	}
	return s.sessions.DeleteFutureSessions(ctx, courseID, organizationID, timeutil.Midnight(from, s.location))
}

// ListSessions enumerates the sessions of a course, optionally bounded by a
// date window.
func (s *SessionService) ListSessions(ctx context.Context, principal Principal, courseID string, from, to *time.Time) ([]Session, error) {
	if s == nil {
		return nil, fmt.Errorf("SessionService is nil")
	}
	if s.sessions == nil {
		return nil, fmt.Errorf("session repository not configured")
	}

	if err := s.ensureCourseAccess(ctx, principal, courseID); err != nil {
		return nil, err
	}

	filter := persistence.SessionFilter{}
	if from != nil {
		normalized := timeutil.Midnight(*from, s.location)
		filter.From = &normalized
	}
	if to != nil {
		normalized := timeutil.Midnight(*to, s.location)
		filter.To = &normalized
	}

	records, err := s.sessions.ListSessionsForCourse(ctx, courseID, principal.OrganizationID, filter)
	if err != nil {
		return nil, mapSessionRepoError(err)
	}
	return toSessions(records), nil
}

// UpdateSession applies a manual override to one session: a status transition
// and, for time changes, a replacement window. Overrides survive only until the
// next schedule replacement regenerates the session.
func (s *SessionService) UpdateSession(ctx context.Context, principal Principal, sessionID string, patch SessionPatch) (session Session, err error) {
	if s == nil {
		err = fmt.Errorf("SessionService is nil")
		return
	}
	if s.sessions == nil {
		err = fmt.Errorf("session repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "UpdateSession",
		"organization_id", principal.OrganizationID,
		"session_id", sessionID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update session", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("status", string(session.Status)).InfoContext(ctx, "session updated")
	}()

	var record persistence.Session
	record, err = s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		err = mapSessionRepoError(err)
		return
	}
	if record.OrganizationID != principal.OrganizationID {
		err = ErrAccessDenied
		return
	}

	vErr := &ValidationError{}
	if !patch.Status.Valid() {
		vErr.add("status", "status must be one of NORMAL, CANCELLED, MOVED, TIME_CHANGED")
	}
	if patch.Start != nil && patch.End != nil && !patch.Start.Before(*patch.End) {
		vErr.add("time", "start must be before end")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	record.Status = string(patch.Status)
	if patch.Start != nil {
		record.Start = *patch.Start
		record.Date = timeutil.Midnight(*patch.Start, s.location)
	}
	if patch.End != nil {
		record.End = *patch.End
	}
	record.UpdatedAt = s.now()

	if err = s.sessions.UpdateSession(ctx, record); err != nil {
		err = mapSessionRepoError(err)
		return
	}

	session = toSession(record)
	return
}

func (s *SessionService) ensureCourseAccess(ctx context.Context, principal Principal, courseID string) error {
	if s.courses == nil {
		return nil
	}
	course, err := s.courses.GetCourse(ctx, courseID)
	if err != nil {
		return mapSessionRepoError(err)
	}
	if course.OrganizationID != principal.OrganizationID {
		return ErrAccessDenied
	}
	return nil
}

func mapSessionRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
