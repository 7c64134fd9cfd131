package database

import (
	"context"
	"database/sql"
	"fmt"
)

// migration is one schema step. Statements must be idempotent.
type migration struct {
	version    int
	statements []string
}

var migrations = []migration{
	{
		version: 1,
		statements: []string{`
			CREATE TABLE IF NOT EXISTS user_system_prompts (
				user_id    TEXT PRIMARY KEY,
				prompt     TEXT NOT NULL,
				created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
			)`,
		},
	},
}

// LatestVersion is the newest schema version.
var LatestVersion = migrations[len(migrations)-1].version

// Migrator applies schema migrations and tracks them in schema_version.
type Migrator struct {
	db      *sql.DB
	backend BackendType
}

func newMigrator(db *sql.DB, backend BackendType) *Migrator {
	return &Migrator{db: db, backend: backend}
}

func (m *Migrator) ensureVersionTable(ctx context.Context) error {
	_, err := m.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_version (
			version    INTEGER PRIMARY KEY,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`)
	if err != nil {
		return fmt.Errorf("database: create schema_version table: %w", err)
	}
	return nil
}

// CurrentVersion returns the applied schema version, 0 for a fresh database.
func (m *Migrator) CurrentVersion(ctx context.Context) (int, error) {
	if err := m.ensureVersionTable(ctx); err != nil {
		return 0, err
	}
	var version int
	err := m.db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("database: read schema version: %w", err)
	}
	return version, nil
}

// NeedsMigration reports whether the schema is behind LatestVersion.
func (m *Migrator) NeedsMigration(ctx context.Context) (bool, error) {
	current, err := m.CurrentVersion(ctx)
	if err != nil {
		return false, err
	}
	return current < LatestVersion, nil
}

// Migrate applies every pending migration up to target. A target of 0 means
// LatestVersion. It returns the number of migrations applied.
func (m *Migrator) Migrate(ctx context.Context, target int) (int, error) {
	if target <= 0 || target > LatestVersion {
		target = LatestVersion
	}
	current, err := m.CurrentVersion(ctx)
	if err != nil {
		return 0, err
	}

	applied := 0
	for _, mig := range migrations {
		if mig.version <= current || mig.version > target {
			continue
		}
		if err := m.apply(ctx, mig); err != nil {
			return applied, err
		}
		applied++
	}
	return applied, nil
}

func (m *Migrator) apply(ctx context.Context, mig migration) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("database: begin migration %d: %w", mig.version, err)
	}
	defer tx.Rollback()

	for _, stmt := range mig.statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("database: migration %d: %w", mig.version, err)
		}
	}

	insert := "INSERT INTO schema_version (version) VALUES (?)"
	if m.backend == BackendPostgreSQL {
		insert = "INSERT INTO schema_version (version) VALUES ($1)"
	}
	if _, err := tx.ExecContext(ctx, insert, mig.version); err != nil {
		return fmt.Errorf("database: record migration %d: %w", mig.version, err)
	}
	return tx.Commit()
}
