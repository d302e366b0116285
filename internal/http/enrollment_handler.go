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

type enrollmentService interface {
	Enroll(ctx context.Context, params application.EnrollParams) (application.Enrollment, error)
	Unenroll(ctx context.Context, principal application.Principal, courseID, learnerID string) error
	ListEnrollments(ctx context.Context, principal application.Principal, courseID string) ([]application.Enrollment, error)
}

type EnrollmentHandler struct {
	service   enrollmentService
	responder responder
	logger    *slog.Logger
}

func NewEnrollmentHandler(service enrollmentService, logger *slog.Logger) *EnrollmentHandler {
	base := defaultLogger(logger)
	return &EnrollmentHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *EnrollmentHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "EnrollmentHandler", operation, attrs...)
}

func (h *EnrollmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	courseID, ok := CourseIDFromContext(r.Context())
	if !ok || strings.TrimSpace(courseID) == "" {
		h.log(r.Context(), "Create", "error_kind", "bad_request").ErrorContext(r.Context(), "missing course id")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidCourseID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req enrollmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "organization_id", principal.OrganizationID, "course_id", courseID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode enrollment request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create", "organization_id", principal.OrganizationID, "course_id", courseID)

	enrollment, err := h.service.Enroll(r.Context(), application.EnrollParams{
		Principal:  principal,
		CourseID:   courseID,
		LearnerID:  strings.TrimSpace(req.LearnerID),
		EnrolledOn: parseDate(req.EnrolledOn),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "enrollment failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("learner_id", enrollment.LearnerID).InfoContext(r.Context(), "learner enrolled")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toEnrollmentDTO(enrollment))
}

func (h *EnrollmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	courseID, ok := CourseIDFromContext(r.Context())
	if !ok || strings.TrimSpace(courseID) == "" {
		h.log(r.Context(), "Delete", "error_kind", "bad_request").ErrorContext(r.Context(), "missing course id")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidCourseID)
		return
	}

	learnerID, ok := LearnerIDFromContext(r.Context())
	if !ok || strings.TrimSpace(learnerID) == "" {
		h.log(r.Context(), "Delete", "error_kind", "bad_request").ErrorContext(r.Context(), "missing learner id")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidLearnerID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Delete", "organization_id", principal.OrganizationID, "course_id", courseID, "learner_id", learnerID)
	if err := h.service.Unenroll(r.Context(), principal, courseID, learnerID); err != nil {
		logger.ErrorContext(r.Context(), "unenrollment failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "learner unenrolled")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *EnrollmentHandler) List(w http.ResponseWriter, r *http.Request) {
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

	enrollments, err := h.service.ListEnrollments(r.Context(), principal, courseID)
	if err != nil {
		logger.ErrorContext(r.Context(), "enrollment list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	dtos := make([]enrollmentDTO, 0, len(enrollments))
	for _, enrollment := range enrollments {
		dtos = append(dtos, toEnrollmentDTO(enrollment))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listEnrollmentsResponse{Enrollments: dtos})
}

type enrollmentRequest struct {
	LearnerID  string `json:"learner_id"`
	EnrolledOn string `json:"enrolled_on"`
}

type enrollmentDTO struct {
	ID             string `json:"id"`
	OrganizationID string `json:"organization_id"`
	CourseID       string `json:"course_id"`
	LearnerID      string `json:"learner_id"`
	EnrolledOn     string `json:"enrolled_on"`
	CreatedAt      string `json:"created_at"`
}

type listEnrollmentsResponse struct {
	Enrollments []enrollmentDTO `json:"enrollments"`
}

func toEnrollmentDTO(enrollment application.Enrollment) enrollmentDTO {
	return enrollmentDTO{
		ID:             enrollment.ID,
		OrganizationID: enrollment.OrganizationID,
		CourseID:       enrollment.CourseID,
		LearnerID:      enrollment.LearnerID,
		EnrolledOn:     timeutil.FormatDate(enrollment.EnrolledOn, nil),
		CreatedAt:      enrollment.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}
