package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/course-admin/internal/persistence"
)

// LearnerService orchestrates validation and persistence for learner records.
type LearnerService struct {
	learners    persistence.LearnerRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewLearnerService constructs a learner service with the provided dependencies.
func NewLearnerService(learners persistence.LearnerRepository, idGenerator func() string, now func() time.Time) *LearnerService {
	return NewLearnerServiceWithLogger(learners, idGenerator, now, nil)
}

// NewLearnerServiceWithLogger constructs a learner service with a specified logger.
func NewLearnerServiceWithLogger(learners persistence.LearnerRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *LearnerService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &LearnerService{learners: learners, idGenerator: idGenerator, now: now, logger: defaultLogger(logger)}
}

func (s *LearnerService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "LearnerService", operation, attrs...)
}

// CreateLearner validates input and persists a new learner in the caller's organization.
func (s *LearnerService) CreateLearner(ctx context.Context, principal Principal, input LearnerInput) (learner Learner, err error) {
	if s == nil {
		err = fmt.Errorf("LearnerService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CreateLearner", "organization_id", principal.OrganizationID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create learner", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("learner_id", learner.ID).InfoContext(ctx, "learner created")
	}()

	vErr := &ValidationError{}
	if strings.TrimSpace(input.DisplayName) == "" {
		vErr.add("display_name", "display name is required")
	}
	if principal.OrganizationID == "" {
		vErr.add("organization_id", "organization is required")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	createdAt := s.now()
	learner = Learner{
		ID:             s.idGenerator(),
		OrganizationID: principal.OrganizationID,
		DisplayName:    strings.TrimSpace(input.DisplayName),
		CreatedAt:      createdAt,
		UpdatedAt:      createdAt,
	}

	if s.learners == nil {
		return
	}

	if err = s.learners.CreateLearner(ctx, persistence.Learner{
		ID:             learner.ID,
		OrganizationID: learner.OrganizationID,
		DisplayName:    learner.DisplayName,
		CreatedAt:      learner.CreatedAt,
		UpdatedAt:      learner.UpdatedAt,
	}); err != nil {
		err = mapCatalogRepoError(err)
		return
	}

	return
}

// ListLearners enumerates the learners of the caller's organization.
func (s *LearnerService) ListLearners(ctx context.Context, principal Principal) ([]Learner, error) {
	if s == nil {
		return nil, fmt.Errorf("LearnerService is nil")
	}
	if s.learners == nil {
		return nil, fmt.Errorf("learner repository not configured")
	}

	records, err := s.learners.ListLearners(ctx, principal.OrganizationID)
	if err != nil {
		return nil, mapCatalogRepoError(err)
	}

	learners := make([]Learner, 0, len(records))
	for _, record := range records {
		learners = append(learners, toLearner(record))
	}
	return learners, nil
}
