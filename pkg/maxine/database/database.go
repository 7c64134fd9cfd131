// Package database opens Maxine's SQL store. SQLite is the default backend;
// PostgreSQL is available for deployments that already run one.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
)

// BackendType identifies a database backend.
type BackendType string

const (
	BackendSQLite     BackendType = "sqlite"
	BackendPostgreSQL BackendType = "postgres"
)

// Config holds backend settings.
type Config struct {
	Type BackendType

	// SQLite
	Path        string
	JournalMode string
	BusyTimeout int

	// PostgreSQL
	DSN string
}

// Backend is an open database with its migrator.
type Backend struct {
	Type     BackendType
	DB       *sql.DB
	Migrator *Migrator
}

// Open creates the backend selected by cfg.Type.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*Backend, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var (
		db  *sql.DB
		err error
	)
	switch cfg.Type {
	case BackendSQLite, "":
		cfg.Type = BackendSQLite
		db, err = openSQLite(ctx, cfg)
	case BackendPostgreSQL:
		db, err = openPostgreSQL(ctx, cfg)
	default:
		return nil, fmt.Errorf("database: unsupported backend %q", cfg.Type)
	}
	if err != nil {
		return nil, err
	}

	logger.Info("database opened", "backend", string(cfg.Type))
	return &Backend{
		Type:     cfg.Type,
		DB:       db,
		Migrator: newMigrator(db, cfg.Type),
	}, nil
}

// Rebind rewrites ? placeholders to the backend's style. PostgreSQL uses
// $1, $2, ... and SQLite accepts ? as written.
func (b *Backend) Rebind(query string) string {
	if b.Type != BackendPostgreSQL {
		return query
	}
	var sb strings.Builder
	sb.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// Ping checks connectivity.
func (b *Backend) Ping(ctx context.Context) error {
	return b.DB.PingContext(ctx)
}

// Close closes the connection pool.
func (b *Backend) Close() error {
	return b.DB.Close()
}
