package sqlite

import (
	"context"
	"path/filepath"
	"testing"
)

func TestMigrate_AppliesAllVersions(t *testing.T) {
	ctx := context.Background()
	pool := newTestPool(t)

	var count int
	if err := pool.DB().QueryRowContext(ctx,
		"SELECT COUNT(*) FROM schema_migrations").Scan(&count); err != nil {
		t.Fatalf("failed to count applied migrations: %v", err)
	}
	if count != len(migrations) {
		t.Fatalf("expected %d applied migrations, got %d", len(migrations), count)
	}

	tables := []string{"courses", "learners", "schedule_items", "sessions", "enrollments", "attendance_records"}
	for _, table := range tables {
		var name string
		err := pool.DB().QueryRowContext(ctx,
			"SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&name)
		if err != nil {
			t.Fatalf("expected table %s to exist: %v", table, err)
		}
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	ctx := context.Background()

	dir := t.TempDir()
	dsn := "file:" + filepath.Join(dir, "courseadmin.db") + "?_pragma=foreign_keys(1)"
	pool, err := Open(dsn)
	if err != nil {
		t.Fatalf("failed to open pool: %v", err)
	}
	t.Cleanup(func() { _ = pool.Close() })

	if err := Migrate(ctx, pool); err != nil {
		t.Fatalf("first Migrate failed: %v", err)
	}
	if err := Migrate(ctx, pool); err != nil {
		t.Fatalf("second Migrate failed: %v", err)
	}

	var count int
	if err := pool.DB().QueryRowContext(ctx,
		"SELECT COUNT(*) FROM schema_migrations").Scan(&count); err != nil {
		t.Fatalf("failed to count applied migrations: %v", err)
	}
	if count != len(migrations) {
		t.Fatalf("expected %d applied migrations after re-run, got %d", len(migrations), count)
	}
}
