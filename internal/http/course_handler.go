package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/course-admin/internal/application"
)

type courseService interface {
	CreateCourse(ctx context.Context, principal application.Principal, input application.CourseInput) (application.Course, error)
	GetCourse(ctx context.Context, principal application.Principal, courseID string) (application.Course, error)
	ListCourses(ctx context.Context, principal application.Principal) ([]application.Course, error)
}

type CourseHandler struct {
	service   courseService
	responder responder
	logger    *slog.Logger
}

func NewCourseHandler(service courseService, logger *slog.Logger) *CourseHandler {
	base := defaultLogger(logger)
	return &CourseHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *CourseHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "CourseHandler", operation, attrs...)
}

func (h *CourseHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req courseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "organization_id", principal.OrganizationID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode course request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create", "organization_id", principal.OrganizationID)

	course, err := h.service.CreateCourse(r.Context(), principal, application.CourseInput{Name: req.Name})
	if err != nil {
		logger.ErrorContext(r.Context(), "course creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("course_id", course.ID).InfoContext(r.Context(), "course created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toCourseDTO(course))
}

func (h *CourseHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	courseID, ok := CourseIDFromContext(r.Context())
	if !ok || strings.TrimSpace(courseID) == "" {
		h.log(r.Context(), "Get", "error_kind", "bad_request").ErrorContext(r.Context(), "missing course id")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidCourseID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Get", "organization_id", principal.OrganizationID, "course_id", courseID)

	course, err := h.service.GetCourse(r.Context(), principal, courseID)
	if err != nil {
		logger.ErrorContext(r.Context(), "course fetch failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toCourseDTO(course))
}

func (h *CourseHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "List", "organization_id", principal.OrganizationID)

	courses, err := h.service.ListCourses(r.Context(), principal)
	if err != nil {
		logger.ErrorContext(r.Context(), "course list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(courses)).InfoContext(r.Context(), "courses listed")
	dtos := make([]courseDTO, 0, len(courses))
	for _, course := range courses {
		dtos = append(dtos, toCourseDTO(course))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listCoursesResponse{Courses: dtos})
}

type courseRequest struct {
	Name string `json:"name"`
}

type courseDTO struct {
	ID             string `json:"id"`
	OrganizationID string `json:"organization_id"`
	Name           string `json:"name"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at"`
}

type listCoursesResponse struct {
	Courses []courseDTO `json:"courses"`
}

func toCourseDTO(course application.Course) courseDTO {
	return courseDTO{
		ID:             course.ID,
		OrganizationID: course.OrganizationID,
		Name:           course.Name,
		CreatedAt:      course.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:      course.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}
