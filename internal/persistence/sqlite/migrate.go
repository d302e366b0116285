package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// Migration pairs a monotonically increasing version with the DDL that brings
// the schema to that version.
type Migration struct {
	Version int
	Name    string
	SQL     string
}

// migrations is the ordered, embedded migration set. Append only; applied
// versions are recorded in schema_migrations and never re-run.
var migrations = []Migration{
	{
		Version: 1,
		Name:    "initial schema",
		SQL: `
CREATE TABLE IF NOT EXISTS courses (
	id TEXT PRIMARY KEY,
	organization_id TEXT NOT NULL,
	name TEXT NOT NULL,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_courses_organization ON courses(organization_id);

CREATE TABLE IF NOT EXISTS learners (
	id TEXT PRIMARY KEY,
	organization_id TEXT NOT NULL,
	display_name TEXT NOT NULL,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_learners_organization ON learners(organization_id);

CREATE TABLE IF NOT EXISTS schedule_items (
	id TEXT PRIMARY KEY,
	course_id TEXT NOT NULL REFERENCES courses(id),
	organization_id TEXT NOT NULL,
	day_of_week INTEGER NOT NULL CHECK (day_of_week BETWEEN 0 AND 6),
	start_time TEXT NOT NULL,
	end_time TEXT NOT NULL,
	validity_start TEXT NOT NULL,
	validity_end TEXT NOT NULL,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_schedule_items_course ON schedule_items(course_id, organization_id);

CREATE TABLE IF NOT EXISTS sessions (
	id TEXT PRIMARY KEY,
	course_id TEXT NOT NULL REFERENCES courses(id),
	organization_id TEXT NOT NULL,
	schedule_item_id TEXT NOT NULL,
	date TEXT NOT NULL,
	start_at TEXT NOT NULL,
	end_at TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'NORMAL',
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sessions_course_date ON sessions(course_id, organization_id, date);

CREATE TABLE IF NOT EXISTS enrollments (
	id TEXT PRIMARY KEY,
	organization_id TEXT NOT NULL,
	course_id TEXT NOT NULL,
	learner_id TEXT NOT NULL,
	enrolled_on TEXT NOT NULL,
	created_at TEXT NOT NULL,
	UNIQUE (course_id, learner_id)
);
CREATE INDEX IF NOT EXISTS idx_enrollments_organization ON enrollments(organization_id);

CREATE TABLE IF NOT EXISTS attendance_records (
	id TEXT PRIMARY KEY,
	organization_id TEXT NOT NULL,
	course_id TEXT NOT NULL,
	learner_id TEXT NOT NULL,
	date TEXT NOT NULL,
	attended INTEGER NOT NULL DEFAULT 0,
	notes TEXT,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	UNIQUE (organization_id, course_id, learner_id, date)
);
CREATE INDEX IF NOT EXISTS idx_attendance_org_date ON attendance_records(organization_id, date, attended);
`,
	},
}

// Migrate applies every pending migration in order, each within its own
// transaction, recording applied versions in schema_migrations.
func Migrate(ctx context.Context, pool *ConnectionPool) error {
	if _, err := pool.DB().ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now'))
		)`); err != nil {
		return fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	applied, err := appliedVersions(ctx, pool)
	if err != nil {
		return err
	}

	for _, migration := range migrations {
		if _, ok := applied[migration.Version]; ok {
			continue
		}
		if err := applyMigration(ctx, pool, migration); err != nil {
			return fmt.Errorf("migration %d (%s) failed: %w", migration.Version, migration.Name, err)
		}
	}

	return nil
}

func appliedVersions(ctx context.Context, pool *ConnectionPool) (map[int]struct{}, error) {
	rows, err := pool.DB().QueryContext(ctx, "SELECT version FROM schema_migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to read schema_migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[int]struct{})
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, err
		}
		applied[version] = struct{}{}
	}
	return applied, rows.Err()
}

func applyMigration(ctx context.Context, pool *ConnectionPool, migration Migration) error {
	return pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		for _, stmt := range splitStatements(migration.SQL) {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("statement %q: %w", firstLine(stmt), err)
			}
		}
		_, err := tx.ExecContext(ctx,
			"INSERT INTO schema_migrations (version, name) VALUES (?, ?)",
			migration.Version, migration.Name)
		return err
	})
}

func splitStatements(script string) []string {
	parts := strings.Split(script, ";")
	statements := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			statements = append(statements, trimmed)
		}
	}
	return statements
}

func firstLine(stmt string) string {
	if idx := strings.IndexByte(stmt, '\n'); idx >= 0 {
		return strings.TrimSpace(stmt[:idx])
	}
	return stmt
}
