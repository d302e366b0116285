package http

import (
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/example/course-admin/internal/application"
)

// OrganizationHeader carries the caller's organization scope. Authentication
// happens upstream; every request reaching this service is already
// authenticated and the header names the tenant it acts for.
const OrganizationHeader = "X-Organization-ID"

// RequireOrganization rejects requests without an organization scope and
// attaches the resolved principal to the request context.
func RequireOrganization(logger *slog.Logger) func(http.Handler) http.Handler {
	responder := newResponder(logger)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/healthz" {
				next.ServeHTTP(w, r)
				return
			}

			organizationID := strings.TrimSpace(r.Header.Get(OrganizationHeader))
			if organizationID == "" {
				responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingOrganization)
				return
			}

			ctx := ContextWithPrincipal(r.Context(), application.Principal{OrganizationID: organizationID})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestLogger attaches a request scoped logger to the context and records
// start/completion of every request.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	if base == nil {
		base = slog.Default()
	}
	var counter atomic.Uint64

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := counter.Add(1)
			logger := base.With(
				"request_id", id,
				"method", r.Method,
				"path", r.URL.Path,
			)

			ctx := ContextWithLogger(r.Context(), logger)
			start := time.Now()
			logger.InfoContext(ctx, "request started")
			next.ServeHTTP(w, r.WithContext(ctx))
			logger.InfoContext(ctx, "request completed", "duration", time.Since(start))
		})
	}
}
