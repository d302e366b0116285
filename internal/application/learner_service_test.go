package application

import (
	"context"
	"errors"
	"testing"

	"github.com/example/course-admin/internal/persistence"
)

func TestLearnerService_CreateLearner(t *testing.T) {
	t.Parallel()

	repo := &learnerRepoStub{}
	svc := NewLearnerService(repo, sequentialIDs("learner"), fixedNow)

	learner, err := svc.CreateLearner(context.Background(), Principal{OrganizationID: "org-1"}, LearnerInput{DisplayName: "  山田 花子  "})
	if err != nil {
		t.Fatalf("CreateLearner failed: %v", err)
	}
	if learner.DisplayName != "山田 花子" {
		t.Fatalf("expected trimmed display name, got %q", learner.DisplayName)
	}
	if learner.ID != "learner-1" {
		t.Fatalf("expected generated ID, got %q", learner.ID)
	}
	if len(repo.learners) != 1 {
		t.Fatalf("expected 1 stored learner, got %d", len(repo.learners))
	}
}

func TestLearnerService_CreateLearner_RequiresDisplayName(t *testing.T) {
	t.Parallel()

	svc := NewLearnerService(&learnerRepoStub{}, nil, nil)

	_, err := svc.CreateLearner(context.Background(), Principal{OrganizationID: "org-1"}, LearnerInput{DisplayName: "   "})
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, ok := vErr.FieldErrors["display_name"]; !ok {
		t.Fatalf("expected display_name error, got %v", vErr.FieldErrors)
	}
}

func TestLearnerService_ListLearners_ScopedToOrganization(t *testing.T) {
	t.Parallel()

	repo := &learnerRepoStub{learners: []persistence.Learner{
		{ID: "learner-1", OrganizationID: "org-1", DisplayName: "山田 花子"},
		{ID: "learner-2", OrganizationID: "org-2", DisplayName: "別組織の園児"},
	}}
	svc := NewLearnerService(repo, nil, nil)

	learners, err := svc.ListLearners(context.Background(), Principal{OrganizationID: "org-1"})
	if err != nil {
		t.Fatalf("ListLearners failed: %v", err)
	}
	if len(learners) != 1 || learners[0].ID != "learner-1" {
		t.Fatalf("expected only org-1 learners, got %#v", learners)
	}
}

func TestLearnerService_ListLearners_MapsStorageErrors(t *testing.T) {
	t.Parallel()

	svc := NewLearnerService(&learnerRepoStub{err: persistence.ErrNotFound}, nil, nil)

	_, err := svc.ListLearners(context.Background(), Principal{OrganizationID: "org-1"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
