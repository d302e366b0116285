package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/example/course-admin/internal/application"
	"github.com/example/course-admin/internal/timeutil"
)

type sessionService interface {
	ListSessions(ctx context.Context, principal application.Principal, courseID string, from, to *time.Time) ([]application.Session, error)
	UpdateSession(ctx context.Context, principal application.Principal, sessionID string, patch application.SessionPatch) (application.Session, error)
}

type SessionHandler struct {
	service   sessionService
	responder responder
	logger    *slog.Logger
}

func NewSessionHandler(service sessionService, logger *slog.Logger) *SessionHandler {
	base := defaultLogger(logger)
	return &SessionHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *SessionHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "SessionHandler", operation, attrs...)
}

// List returns the materialized sessions of a course, optionally bounded by
// from/to date query parameters.
func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	sessions, ok := h.listForRequest(w, r, "List")
	if !ok {
		return
	}

	dtos := make([]sessionDTO, 0, len(sessions))
	for _, session := range sessions {
		dtos = append(dtos, toSessionDTO(session))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listSessionsResponse{Sessions: dtos})
}

// Calendar renders the course's sessions as an iCalendar feed. Cancelled
// sessions are kept in the feed with STATUS:CANCELLED so subscribers see the
// cancellation instead of a silent disappearance.
func (h *SessionHandler) Calendar(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	sessions, ok := h.listForRequest(w, r, "Calendar")
	if !ok {
		return
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//course-admin//sessions//JA")

	for _, session := range sessions {
		event := cal.AddEvent(fmt.Sprintf("session-%s@course-admin", session.ID))
		event.SetStartAt(session.Start)
		event.SetEndAt(session.End)
		event.SetSummary(fmt.Sprintf("Course %s", session.CourseID))
		event.SetDtStampTime(session.UpdatedAt)
		switch session.Status {
		case application.SessionStatusCancelled:
			event.SetStatus(ics.ObjectStatusCancelled)
		default:
			event.SetStatus(ics.ObjectStatusConfirmed)
		}
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(cal.Serialize())); err != nil {
		h.responder.loggerFor(r.Context()).ErrorContext(r.Context(), "failed to write calendar", "error", err)
	}
}

// Update applies a status transition or time override to one session.
func (h *SessionHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	sessionID, ok := SessionIDFromContext(r.Context())
	if !ok || strings.TrimSpace(sessionID) == "" {
		h.log(r.Context(), "Update", "error_kind", "bad_request").ErrorContext(r.Context(), "missing session id")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidSessionID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req sessionPatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Update", "organization_id", principal.OrganizationID, "session_id", sessionID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode session patch", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Update", "organization_id", principal.OrganizationID, "session_id", sessionID)

	patch, err := req.toPatch()
	if err != nil {
		logger.ErrorContext(r.Context(), "malformed timestamp in patch", "error", err, "error_kind", "bad_request")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidTimestamp)
		return
	}

	session, err := h.service.UpdateSession(r.Context(), principal, sessionID, patch)
	if err != nil {
		logger.ErrorContext(r.Context(), "session update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("status", string(session.Status)).InfoContext(r.Context(), "session updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toSessionDTO(session))
}

func (h *SessionHandler) listForRequest(w http.ResponseWriter, r *http.Request, operation string) ([]application.Session, bool) {
	courseID, ok := CourseIDFromContext(r.Context())
	if !ok || strings.TrimSpace(courseID) == "" {
		h.log(r.Context(), operation, "error_kind", "bad_request").ErrorContext(r.Context(), "missing course id")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidCourseID)
		return nil, false
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), operation, "organization_id", principal.OrganizationID, "course_id", courseID)

	from, err := parseDateParam(r.URL.Query(), "from")
	if err != nil {
		logger.ErrorContext(r.Context(), "malformed from parameter", "error", err, "error_kind", "bad_request")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidDateParam)
		return nil, false
	}
	to, err := parseDateParam(r.URL.Query(), "to")
	if err != nil {
		logger.ErrorContext(r.Context(), "malformed to parameter", "error", err, "error_kind", "bad_request")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidDateParam)
		return nil, false
	}

	sessions, err := h.service.ListSessions(r.Context(), principal, courseID, from, to)
	if err != nil {
		logger.ErrorContext(r.Context(), "session list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return nil, false
	}
	return sessions, true
}

func parseDateParam(query url.Values, key string) (*time.Time, error) {
	value := strings.TrimSpace(query.Get(key))
	if value == "" {
		return nil, nil
	}
	parsed, err := timeutil.ParseDate(value, nil)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

type sessionPatchRequest struct {
	Status string  `json:"status"`
	Start  *string `json:"start"`
	End    *string `json:"end"`
}

func (r sessionPatchRequest) toPatch() (application.SessionPatch, error) {
	patch := application.SessionPatch{Status: application.SessionStatus(strings.TrimSpace(r.Status))}
	if r.Start != nil {
		ts, err := parseTimestamp(*r.Start)
		if err != nil {
			return application.SessionPatch{}, err
		}
		if !ts.IsZero() {
			patch.Start = &ts
		}
	}
	if r.End != nil {
		ts, err := parseTimestamp(*r.End)
		if err != nil {
			return application.SessionPatch{}, err
		}
		if !ts.IsZero() {
			patch.End = &ts
		}
	}
	return patch, nil
}

func parseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	if ts, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return ts, nil
	}
	return time.Parse(time.RFC3339, value)
}

type sessionDTO struct {
	ID             string `json:"id"`
	CourseID       string `json:"course_id"`
	OrganizationID string `json:"organization_id"`
	ScheduleItemID string `json:"schedule_item_id"`
	Date           string `json:"date"`
	Start          string `json:"start"`
	End            string `json:"end"`
	Status         string `json:"status"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at"`
}

type listSessionsResponse struct {
	Sessions []sessionDTO `json:"sessions"`
}

func toSessionDTO(session application.Session) sessionDTO {
	return sessionDTO{
		ID:             session.ID,
		CourseID:       session.CourseID,
		OrganizationID: session.OrganizationID,
		ScheduleItemID: session.ScheduleItemID,
		Date:           timeutil.FormatDate(session.Date, nil),
		Start:          session.Start.UTC().Format(time.RFC3339Nano),
		End:            session.End.UTC().Format(time.RFC3339Nano),
		Status:         string(session.Status),
		CreatedAt:      session.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:      session.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}
