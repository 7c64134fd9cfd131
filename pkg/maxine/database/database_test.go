package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func openTestDB(t *testing.T) *Backend {
	t.Helper()
	tmpDir, err := os.MkdirTemp("", "maxine-test-*")
	if err != nil {
		t.Fatalf("create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tmpDir) })

	backend, err := Open(context.Background(), Config{
		Type: BackendSQLite,
		Path: filepath.Join(tmpDir, "nested", "test.db"),
	}, nil)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { backend.Close() })
	return backend
}

func TestOpenSQLite(t *testing.T) {
	backend := openTestDB(t)

	if backend.Type != BackendSQLite {
		t.Errorf("expected sqlite, got %s", backend.Type)
	}
	if err := backend.Ping(context.Background()); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}
}

func TestOpenUnsupported(t *testing.T) {
	if _, err := Open(context.Background(), Config{Type: "mysql"}, nil); err == nil {
		t.Fatal("expected error for unsupported backend")
	}
}

func TestOpenPostgresRequiresDSN(t *testing.T) {
	if _, err := Open(context.Background(), Config{Type: BackendPostgreSQL}, nil); err == nil {
		t.Fatal("expected error without DSN")
	}
}

func TestMigrate(t *testing.T) {
	ctx := context.Background()
	backend := openTestDB(t)

	needs, err := backend.Migrator.NeedsMigration(ctx)
	if err != nil {
		t.Fatalf("NeedsMigration failed: %v", err)
	}
	if !needs {
		t.Error("fresh database should need migration")
	}

	applied, err := backend.Migrator.Migrate(ctx, 0)
	if err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}
	if applied != len(migrations) {
		t.Errorf("applied %d migrations, want %d", applied, len(migrations))
	}

	version, err := backend.Migrator.CurrentVersion(ctx)
	if err != nil {
		t.Fatalf("CurrentVersion failed: %v", err)
	}
	if version != LatestVersion {
		t.Errorf("version = %d, want %d", version, LatestVersion)
	}

	// Running again is a no-op.
	applied, err = backend.Migrator.Migrate(ctx, 0)
	if err != nil {
		t.Fatalf("second Migrate failed: %v", err)
	}
	if applied != 0 {
		t.Errorf("second Migrate applied %d migrations", applied)
	}

	if _, err := backend.DB.ExecContext(ctx,
		"INSERT INTO user_system_prompts (user_id, prompt) VALUES (?, ?)", "1", "hi"); err != nil {
		t.Fatalf("table not usable after migration: %v", err)
	}
}

func TestRebind(t *testing.T) {
	sqlite := &Backend{Type: BackendSQLite}
	pg := &Backend{Type: BackendPostgreSQL}
	q := "SELECT a FROM t WHERE x = ? AND y = ?"

	if got := sqlite.Rebind(q); got != q {
		t.Errorf("sqlite Rebind changed query: %q", got)
	}
	if got, want := pg.Rebind(q), "SELECT a FROM t WHERE x = $1 AND y = $2"; got != want {
		t.Errorf("postgres Rebind = %q, want %q", got, want)
	}
}
