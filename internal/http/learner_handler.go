package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/example/course-admin/internal/application"
)

type learnerService interface {
	CreateLearner(ctx context.Context, principal application.Principal, input application.LearnerInput) (application.Learner, error)
	ListLearners(ctx context.Context, principal application.Principal) ([]application.Learner, error)
}

type LearnerHandler struct {
	service   learnerService
	responder responder
	logger    *slog.Logger
}

func NewLearnerHandler(service learnerService, logger *slog.Logger) *LearnerHandler {
	base := defaultLogger(logger)
	return &LearnerHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *LearnerHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "LearnerHandler", operation, attrs...)
}

func (h *LearnerHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req learnerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "organization_id", principal.OrganizationID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode learner request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create", "organization_id", principal.OrganizationID)

	learner, err := h.service.CreateLearner(r.Context(), principal, application.LearnerInput{DisplayName: req.DisplayName})
	if err != nil {
		logger.ErrorContext(r.Context(), "learner creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("learner_id", learner.ID).InfoContext(r.Context(), "learner created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toLearnerDTO(learner))
}

func (h *LearnerHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "List", "organization_id", principal.OrganizationID)

	learners, err := h.service.ListLearners(r.Context(), principal)
	if err != nil {
		logger.ErrorContext(r.Context(), "learner list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(learners)).InfoContext(r.Context(), "learners listed")

	dtos := make([]learnerDTO, 0, len(learners))
	for _, learner := range learners {
		dtos = append(dtos, toLearnerDTO(learner))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listLearnersResponse{Learners: dtos})
}

type learnerRequest struct {
	DisplayName string `json:"display_name"`
}

type learnerDTO struct {
	ID             string `json:"id"`
	OrganizationID string `json:"organization_id"`
	DisplayName    string `json:"display_name"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at"`
}

type listLearnersResponse struct {
	Learners []learnerDTO `json:"learners"`
}

func toLearnerDTO(learner application.Learner) learnerDTO {
	return learnerDTO{
		ID:             learner.ID,
		OrganizationID: learner.OrganizationID,
		DisplayName:    learner.DisplayName,
		CreatedAt:      learner.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:      learner.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}
