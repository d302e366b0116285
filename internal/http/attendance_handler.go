package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/course-admin/internal/application"
	"github.com/example/course-admin/internal/timeutil"
)

type attendanceService interface {
	Upsert(ctx context.Context, params application.UpsertAttendanceParams) (application.AttendanceRecord, error)
	BulkUpsert(ctx context.Context, params application.BulkUpsertAttendanceParams) ([]application.AttendanceRecord, error)
	FindByCourseAndDate(ctx context.Context, principal application.Principal, courseID string, date time.Time) ([]application.AttendanceRecord, error)
	AggregateByDate(ctx context.Context, principal application.Principal, date time.Time) (application.AttendanceSummary, error)
}

type AttendanceHandler struct {
	service   attendanceService
	responder responder
	logger    *slog.Logger
}

func NewAttendanceHandler(service attendanceService, logger *slog.Logger) *AttendanceHandler {
	base := defaultLogger(logger)
	return &AttendanceHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *AttendanceHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "AttendanceHandler", operation, attrs...)
}

func (h *AttendanceHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	courseID, ok := CourseIDFromContext(r.Context())
	if !ok || strings.TrimSpace(courseID) == "" {
		h.log(r.Context(), "Upsert", "error_kind", "bad_request").ErrorContext(r.Context(), "missing course id")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidCourseID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req attendanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Upsert", "organization_id", principal.OrganizationID, "course_id", courseID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode attendance request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Upsert", "organization_id", principal.OrganizationID, "course_id", courseID)

	record, err := h.service.Upsert(r.Context(), application.UpsertAttendanceParams{
		Principal: principal,
		CourseID:  courseID,
		Input: application.AttendanceInput{
			LearnerID: strings.TrimSpace(req.LearnerID),
			Date:      parseDate(req.Date),
			Attended:  req.Attended,
			Notes:     req.Notes,
		},
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "attendance upsert failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("learner_id", record.LearnerID).InfoContext(r.Context(), "attendance recorded")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toAttendanceDTO(record))
}

func (h *AttendanceHandler) BulkUpsert(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	courseID, ok := CourseIDFromContext(r.Context())
	if !ok || strings.TrimSpace(courseID) == "" {
		h.log(r.Context(), "BulkUpsert", "error_kind", "bad_request").ErrorContext(r.Context(), "missing course id")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidCourseID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req bulkAttendanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "BulkUpsert", "organization_id", principal.OrganizationID, "course_id", courseID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode bulk attendance request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "BulkUpsert", "organization_id", principal.OrganizationID, "course_id", courseID)

	records := make([]application.BulkAttendanceRecord, 0, len(req.Records))
	for _, record := range req.Records {
		records = append(records, application.BulkAttendanceRecord{
			LearnerID: strings.TrimSpace(record.LearnerID),
			Attended:  record.Attended,
			Notes:     record.Notes,
		})
	}

	result, err := h.service.BulkUpsert(r.Context(), application.BulkUpsertAttendanceParams{
		Principal: principal,
		CourseID:  courseID,
		Date:      parseDate(req.Date),
		Records:   records,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "bulk attendance upsert failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("record_count", len(result)).InfoContext(r.Context(), "bulk attendance recorded")
	dtos := make([]attendanceDTO, 0, len(result))
	for _, record := range result {
		dtos = append(dtos, toAttendanceDTO(record))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listAttendanceResponse{Records: dtos})
}

func (h *AttendanceHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	courseID, ok := CourseIDFromContext(r.Context())
	if !ok || strings.TrimSpace(courseID) == "" {
		h.log(r.Context(), "List", "error_kind", "bad_request").ErrorContext(r.Context(), "missing course id")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidCourseID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "List", "organization_id", principal.OrganizationID, "course_id", courseID)

	date, err := requireDateParam(r, "date")
	if err != nil {
		logger.ErrorContext(r.Context(), "missing or malformed date parameter", "error", err, "error_kind", "bad_request")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	records, err := h.service.FindByCourseAndDate(r.Context(), principal, courseID, date)
	if err != nil {
		logger.ErrorContext(r.Context(), "attendance list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	dtos := make([]attendanceDTO, 0, len(records))
	for _, record := range records {
		dtos = append(dtos, toAttendanceDTO(record))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listAttendanceResponse{Records: dtos})
}

func (h *AttendanceHandler) Summary(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Summary", "organization_id", principal.OrganizationID)

	date, err := requireDateParam(r, "date")
	if err != nil {
		logger.ErrorContext(r.Context(), "missing or malformed date parameter", "error", err, "error_kind", "bad_request")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	summary, err := h.service.AggregateByDate(r.Context(), principal, date)
	if err != nil {
		logger.ErrorContext(r.Context(), "attendance aggregation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, attendanceSummaryDTO{
		Date:       timeutil.FormatDate(date, nil),
		Arrived:    summary.Arrived,
		NotArrived: summary.NotArrived,
	})
}

func requireDateParam(r *http.Request, key string) (time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return time.Time{}, errInvalidDateParam
	}
	date, err := timeutil.ParseDate(raw, nil)
	if err != nil {
		return time.Time{}, errInvalidDateParam
	}
	return date, nil
}

type attendanceRequest struct {
	LearnerID string  `json:"learner_id"`
	Date      string  `json:"date"`
	Attended  bool    `json:"attended"`
	Notes     *string `json:"notes,omitempty"`
}

type bulkAttendanceRequest struct {
	Date    string                `json:"date"`
	Records []bulkAttendanceEntry `json:"records"`
}

type bulkAttendanceEntry struct {
	LearnerID string  `json:"learner_id"`
	Attended  bool    `json:"attended"`
	Notes     *string `json:"notes,omitempty"`
}

type attendanceDTO struct {
	ID             string  `json:"id"`
	OrganizationID string  `json:"organization_id"`
	CourseID       string  `json:"course_id"`
	LearnerID      string  `json:"learner_id"`
	Date           string  `json:"date"`
	Attended       bool    `json:"attended"`
	Notes          *string `json:"notes,omitempty"`
	CreatedAt      string  `json:"created_at"`
	UpdatedAt      string  `json:"updated_at"`
}

type listAttendanceResponse struct {
	Records []attendanceDTO `json:"records"`
}

type attendanceSummaryDTO struct {
	Date       string `json:"date"`
	Arrived    int    `json:"arrived"`
	NotArrived int    `json:"not_arrived"`
}

func toAttendanceDTO(record application.AttendanceRecord) attendanceDTO {
	return attendanceDTO{
		ID:             record.ID,
		OrganizationID: record.OrganizationID,
		CourseID:       record.CourseID,
		LearnerID:      record.LearnerID,
		Date:           timeutil.FormatDate(record.Date, nil),
		Attended:       record.Attended,
		Notes:          record.Notes,
		CreatedAt:      record.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:      record.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}
