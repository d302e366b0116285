package http

import (
	"context"

	"github.com/example/course-admin/internal/application"
)

type contextKey string

const (
	principalContextKey contextKey = "principal"
	courseIDContextKey  contextKey = "course_id"
	itemIDContextKey    contextKey = "item_id"
	sessionIDContextKey contextKey = "session_id"
	learnerIDContextKey contextKey = "learner_id"
)

// ContextWithPrincipal returns a derived context containing the organization-scoped principal.
func ContextWithPrincipal(ctx context.Context, principal application.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, principal)
}

// PrincipalFromContext extracts the organization-scoped principal from context if available.
func PrincipalFromContext(ctx context.Context) (application.Principal, bool) {
	principal, ok := ctx.Value(principalContextKey).(application.Principal)
	return principal, ok
}

// ContextWithCourseID injects the course identifier resolved from the request path.
func ContextWithCourseID(ctx context.Context, courseID string) context.Context {
	return context.WithValue(ctx, courseIDContextKey, courseID)
}

// CourseIDFromContext extracts a course identifier previously associated with the context.
func CourseIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(courseIDContextKey).(string)
	return id, ok
}

// ContextWithItemID injects the schedule item identifier resolved from the request path.
func ContextWithItemID(ctx context.Context, itemID string) context.Context {
	return context.WithValue(ctx, itemIDContextKey, itemID)
}

// ItemIDFromContext extracts a schedule item identifier previously associated with the context.
func ItemIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(itemIDContextKey).(string)
	return id, ok
}

// ContextWithSessionID injects the session identifier resolved from the request path.
func ContextWithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionIDContextKey, sessionID)
}

// SessionIDFromContext extracts a session identifier previously associated with the context.
func SessionIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(sessionIDContextKey).(string)
	return id, ok
}

// ContextWithLearnerID injects the learner identifier resolved from the request path.
func ContextWithLearnerID(ctx context.Context, learnerID string) context.Context {
	return context.WithValue(ctx, learnerIDContextKey, learnerID)
}

// LearnerIDFromContext extracts a learner identifier previously associated with the context.
func LearnerIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(learnerIDContextKey).(string)
	return id, ok
}
