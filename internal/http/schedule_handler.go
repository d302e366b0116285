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

type scheduleService interface {
	ReplaceAll(ctx context.Context, params application.ReplaceScheduleParams) ([]application.ScheduleItem, []application.OverlapWarning, error)
	UpdateItem(ctx context.Context, params application.UpdateScheduleItemParams) (application.ScheduleItem, error)
	RemoveItem(ctx context.Context, principal application.Principal, itemID string) error
	ListItems(ctx context.Context, principal application.Principal, courseID string) ([]application.ScheduleItem, []application.OverlapWarning, error)
}

type ScheduleHandler struct {
	service   scheduleService
	responder responder
	logger    *slog.Logger
}

func NewScheduleHandler(service scheduleService, logger *slog.Logger) *ScheduleHandler {
	base := defaultLogger(logger)
	return &ScheduleHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *ScheduleHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "ScheduleHandler", operation, attrs...)
}

// Replace swaps the full schedule set of a course and regenerates its sessions.
func (h *ScheduleHandler) Replace(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	courseID, ok := CourseIDFromContext(r.Context())
	if !ok || strings.TrimSpace(courseID) == "" {
		h.log(r.Context(), "Replace", "error_kind", "bad_request").ErrorContext(r.Context(), "missing course id")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidCourseID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req replaceScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Replace", "organization_id", principal.OrganizationID, "course_id", courseID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode schedule request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Replace", "organization_id", principal.OrganizationID, "course_id", courseID)

	items, warnings, err := h.service.ReplaceAll(r.Context(), application.ReplaceScheduleParams{
		Principal: principal,
		CourseID:  courseID,
		Items:     req.toInputs(),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "schedule replacement failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("item_count", len(items), "warning_count", len(warnings)).InfoContext(r.Context(), "schedule replaced")
	h.renderSchedule(r.Context(), w, items, warnings, http.StatusOK)
}

// List returns the current schedule set of a course.
func (h *ScheduleHandler) List(w http.ResponseWriter, r *http.Request) {
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

	items, warnings, err := h.service.ListItems(r.Context(), principal, courseID)
	if err != nil {
		logger.ErrorContext(r.Context(), "schedule list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.renderSchedule(r.Context(), w, items, warnings, http.StatusOK)
}

// UpdateItem applies a field-level edit to one schedule item without touching sessions.
func (h *ScheduleHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	itemID, ok := ItemIDFromContext(r.Context())
	if !ok || strings.TrimSpace(itemID) == "" {
		h.log(r.Context(), "UpdateItem", "error_kind", "bad_request").ErrorContext(r.Context(), "missing schedule item id")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidItemID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req scheduleItemPatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "UpdateItem", "organization_id", principal.OrganizationID, "item_id", itemID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode schedule item patch", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "UpdateItem", "organization_id", principal.OrganizationID, "item_id", itemID)

	patch, err := req.toPatch()
	if err != nil {
		logger.ErrorContext(r.Context(), "malformed validity date in patch", "error", err, "error_kind", "bad_request")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidDateParam)
		return
	}

	item, err := h.service.UpdateItem(r.Context(), application.UpdateScheduleItemParams{
		Principal: principal,
		ItemID:    itemID,
		Patch:     patch,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "schedule item update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "schedule item updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toScheduleItemDTO(item))
}

// RemoveItem deletes one schedule item. Materialized sessions are untouched.
func (h *ScheduleHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	itemID, ok := ItemIDFromContext(r.Context())
	if !ok || strings.TrimSpace(itemID) == "" {
		h.log(r.Context(), "RemoveItem", "error_kind", "bad_request").ErrorContext(r.Context(), "missing schedule item id")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidItemID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "RemoveItem", "organization_id", principal.OrganizationID, "item_id", itemID)
	if err := h.service.RemoveItem(r.Context(), principal, itemID); err != nil {
		logger.ErrorContext(r.Context(), "schedule item removal failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "schedule item removed")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *ScheduleHandler) renderSchedule(ctx context.Context, w http.ResponseWriter, items []application.ScheduleItem, warnings []application.OverlapWarning, status int) {
	payload := scheduleResponse{
		Items:    toScheduleItemDTOs(items),
		Warnings: toOverlapWarningDTOs(warnings),
	}
	h.responder.writeJSON(ctx, w, status, payload)
}

type scheduleItemRequest struct {
	DayOfWeek     int    `json:"day_of_week"`
	StartTime     string `json:"start_time"`
	EndTime       string `json:"end_time"`
	ValidityStart string `json:"validity_start"`
	ValidityEnd   string `json:"validity_end"`
}

type replaceScheduleRequest struct {
	Items []scheduleItemRequest `json:"items"`
}

func (r replaceScheduleRequest) toInputs() []application.ScheduleItemInput {
	inputs := make([]application.ScheduleItemInput, 0, len(r.Items))
	for _, item := range r.Items {
		inputs = append(inputs, application.ScheduleItemInput{
			DayOfWeek:     item.DayOfWeek,
			StartTime:     strings.TrimSpace(item.StartTime),
			EndTime:       strings.TrimSpace(item.EndTime),
			ValidityStart: parseDate(item.ValidityStart),
			ValidityEnd:   parseDate(item.ValidityEnd),
		})
	}
	return inputs
}

type scheduleItemPatchRequest struct {
	DayOfWeek     *int    `json:"day_of_week"`
	StartTime     *string `json:"start_time"`
	EndTime       *string `json:"end_time"`
	ValidityStart *string `json:"validity_start"`
	ValidityEnd   *string `json:"validity_end"`
}

func (r scheduleItemPatchRequest) toPatch() (application.ScheduleItemPatch, error) {
	patch := application.ScheduleItemPatch{
		DayOfWeek: r.DayOfWeek,
		StartTime: r.StartTime,
		EndTime:   r.EndTime,
	}
	if r.ValidityStart != nil {
		parsed, err := timeutil.ParseDate(strings.TrimSpace(*r.ValidityStart), nil)
		if err != nil {
			return application.ScheduleItemPatch{}, err
		}
		patch.ValidityStart = &parsed
	}
	if r.ValidityEnd != nil {
		parsed, err := timeutil.ParseDate(strings.TrimSpace(*r.ValidityEnd), nil)
		if err != nil {
			return application.ScheduleItemPatch{}, err
		}
		patch.ValidityEnd = &parsed
	}
	return patch, nil
}

// parseDate leaves the zero time for malformed values so the application
// layer's required-field validation reports them.
func parseDate(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	parsed, err := timeutil.ParseDate(value, nil)
	if err != nil {
		return time.Time{}
	}
	return parsed
}

type scheduleResponse struct {
	Items    []scheduleItemDTO   `json:"items"`
	Warnings []overlapWarningDTO `json:"warnings,omitempty"`
}

type scheduleItemDTO struct {
	ID             string `json:"id"`
	CourseID       string `json:"course_id"`
	OrganizationID string `json:"organization_id"`
	DayOfWeek      int    `json:"day_of_week"`
	StartTime      string `json:"start_time"`
	EndTime        string `json:"end_time"`
	ValidityStart  string `json:"validity_start"`
	ValidityEnd    string `json:"validity_end"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at"`
}

func toScheduleItemDTO(item application.ScheduleItem) scheduleItemDTO {
	return scheduleItemDTO{
		ID:             item.ID,
		CourseID:       item.CourseID,
		OrganizationID: item.OrganizationID,
		DayOfWeek:      int(item.DayOfWeek),
		StartTime:      item.StartTime,
		EndTime:        item.EndTime,
		ValidityStart:  timeutil.FormatDate(item.ValidityStart, nil),
		ValidityEnd:    timeutil.FormatDate(item.ValidityEnd, nil),
		CreatedAt:      item.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:      item.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func toScheduleItemDTOs(items []application.ScheduleItem) []scheduleItemDTO {
	out := make([]scheduleItemDTO, 0, len(items))
	for _, item := range items {
		out = append(out, toScheduleItemDTO(item))
	}
	return out
}

type overlapWarningDTO struct {
	ItemID     string `json:"item_id"`
	WithItemID string `json:"with_item_id"`
	DayOfWeek  int    `json:"day_of_week"`
}

func toOverlapWarningDTOs(warnings []application.OverlapWarning) []overlapWarningDTO {
	if len(warnings) == 0 {
		return nil
	}
	out := make([]overlapWarningDTO, 0, len(warnings))
	for _, warning := range warnings {
		out = append(out, overlapWarningDTO{
			ItemID:     warning.ItemID,
			WithItemID: warning.WithItemID,
			DayOfWeek:  int(warning.DayOfWeek),
		})
	}
	return out
}
