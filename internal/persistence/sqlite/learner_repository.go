package sqlite

import (
	"context"
	"strings"
	"time"

	"github.com/example/course-admin/internal/persistence"
)

// LearnerRepository implements persistence.LearnerRepository using SQLite.
type LearnerRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewLearnerRepository creates a new SQLite learner repository.
func NewLearnerRepository(pool *ConnectionPool) *LearnerRepository {
	return &LearnerRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// CreateLearner inserts a new learner record.
func (r *LearnerRepository) CreateLearner(ctx context.Context, learner persistence.Learner) error {
	if learner.ID == "" || learner.OrganizationID == "" {
		return persistence.ErrConstraintViolation
	}

	now := time.Now().UTC()
	learner.CreatedAt = now
	learner.UpdatedAt = now

	_, err := r.helper.Exec(ctx, `
		INSERT INTO learners (id, organization_id, display_name, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		learner.ID,
		learner.OrganizationID,
		learner.DisplayName,
		formatTimestamp(learner.CreatedAt),
		formatTimestamp(learner.UpdatedAt),
	)
	return r.mapper.MapError(err)
}

// ListLearners returns the organization's learners ordered by display name.
func (r *LearnerRepository) ListLearners(ctx context.Context, organizationID string) ([]persistence.Learner, error) {
	rows, err := r.helper.Query(ctx, `
		SELECT id, organization_id, display_name, created_at, updated_at
		FROM learners
		WHERE organization_id = ?
		ORDER BY display_name ASC, id ASC`, organizationID)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var learners []persistence.Learner
	for rows.Next() {
		var learner persistence.Learner
		var createdAt, updatedAt string
		if err := rows.Scan(&learner.ID, &learner.OrganizationID, &learner.DisplayName, &createdAt, &updatedAt); err != nil {
			return nil, r.mapper.MapError(err)
		}
		if learner.CreatedAt, err = parseTimestamp(createdAt, "created_at"); err != nil {
			return nil, err
		}
		if learner.UpdatedAt, err = parseTimestamp(updatedAt, "updated_at"); err != nil {
			return nil, err
		}
		learners = append(learners, learner)
	}

	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return learners, nil
}

// MissingLearnerIDs returns the subset of ids with no learner record in the
// organization, preserving input order and skipping blanks and duplicates.
func (r *LearnerRepository) MissingLearnerIDs(ctx context.Context, organizationID string, ids []string) ([]string, error) {
	unique := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	if len(unique) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(unique))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]any, 0, len(unique)+1)
	args = append(args, organizationID)
	for _, id := range unique {
		args = append(args, id)
	}

	rows, err := r.helper.Query(ctx,
		"SELECT id FROM learners WHERE organization_id = ? AND id IN ("+placeholders+")", args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	existing := make(map[string]struct{}, len(unique))
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, r.mapper.MapError(err)
		}
		existing[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	var missing []string
	for _, id := range unique {
		if _, ok := existing[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing, nil
}
