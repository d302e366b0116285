package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/example/course-admin/internal/persistence"
	"github.com/example/course-admin/internal/persistence/sqlite"
	"github.com/example/course-admin/internal/timeutil"
)

// SQLiteHarness provides repository access backed by a temporary SQLite
// database for integration-style persistence tests.
type SQLiteHarness struct {
	Pool        *sqlite.ConnectionPool
	Courses     persistence.CourseRepository
	Learners    persistence.LearnerRepository
	Items       persistence.ScheduleItemRepository
	Sessions    persistence.SessionRepository
	Enrollments persistence.EnrollmentRepository
	Attendance  persistence.AttendanceRepository

	cleanup func()
}

// Close releases resources associated with the harness.
func (h *SQLiteHarness) Close() {
	if h != nil && h.cleanup != nil {
		h.cleanup()
		h.cleanup = nil
	}
}

// NewSQLiteHarness constructs a SQLiteHarness using a temporary database file
// that is migrated automatically. Cleanup is registered with the provided
// testing.TB, though callers may also invoke Close themselves.
func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()

	dir := tb.TempDir()
	dsn := "file:" + filepath.Join(dir, "courseadmin.db") + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

	pool, err := sqlite.Open(dsn)
	if err != nil {
		tb.Fatalf("failed to open sqlite database: %v", err)
	}

	if err := sqlite.Migrate(context.Background(), pool); err != nil {
		_ = pool.Close()
		tb.Fatalf("failed to migrate sqlite database: %v", err)
	}

	loc := timeutil.DefaultLocation()
	harness := &SQLiteHarness{
		Pool:        pool,
		Courses:     sqlite.NewCourseRepository(pool),
		Learners:    sqlite.NewLearnerRepository(pool),
		Items:       sqlite.NewScheduleItemRepository(pool, loc),
		Sessions:    sqlite.NewSessionRepository(pool, loc),
		Enrollments: sqlite.NewEnrollmentRepository(pool, loc),
		Attendance:  sqlite.NewAttendanceRepository(pool, loc),
		cleanup: func() {
			_ = pool.Close()
		},
	}

	tb.Cleanup(harness.Close)
	return harness
}
