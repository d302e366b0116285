// Package http provides HTTP handlers, routing and middleware for the course
// administration API.
//
// Every route except GET /healthz requires the `X-Organization-ID` header;
// the header names the tenant the request acts for and authentication itself
// happens upstream. The router exposes the following endpoints:
//   - GET /healthz: liveness probe, no organization scope required.
//   - GET /courses, POST /courses, GET /courses/{id}: course catalog endpoints
//     exchanging the `courseDTO` payload defined in course_handler.go.
//   - GET /learners, POST /learners: learner directory endpoints exchanging
//     the `learnerDTO` payload defined in learner_handler.go.
//   - GET /courses/{id}/schedule, PUT /courses/{id}/schedule: read and replace
//     a course's weekly schedule set. Replacement regenerates all future
//     sessions and the response carries advisory overlap warnings.
//   - PATCH /schedule-items/{id}, DELETE /schedule-items/{id}: single item
//     edits that deliberately leave materialized sessions untouched.
//   - GET /courses/{id}/sessions: materialized session listing with optional
//     `from`/`to` date filters.
//   - GET /courses/{id}/sessions.ics: the same listing rendered as an
//     iCalendar feed, cancelled sessions carried with STATUS:CANCELLED.
//   - PATCH /sessions/{id}: per session status and time overrides.
//   - GET /courses/{id}/enrollments, POST /courses/{id}/enrollments,
//     DELETE /courses/{id}/enrollments/{learnerId}: enrollment management.
//   - GET /courses/{id}/attendance?date=, PUT /courses/{id}/attendance,
//     PUT /courses/{id}/attendance/bulk: per course attendance reads and
//     idempotent upserts.
//   - GET /attendance/summary?date=: organization wide arrived/not arrived
//     rollup for one calendar date.
//
// Request/response DTOs live alongside their respective handlers so tests and
// documentation share the same ground truth.
package http
