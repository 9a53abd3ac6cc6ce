// Package migrations applies the embedded schema for SQLite and PostgreSQL.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	_ "github.com/lib/pq" // database/sql driver for the PostgreSQL runner
)

//go:embed sqlite/*.sql postgres/*.sql
var files embed.FS

// Dialect selects the migration set and placeholder style.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// RunSQLite applies pending SQLite migrations to db.
func RunSQLite(ctx context.Context, db *sql.DB) ([]string, error) {
	return Run(ctx, db, DialectSQLite)
}

// RunPostgres opens url with lib/pq and applies pending PostgreSQL migrations.
func RunPostgres(ctx context.Context, url string) ([]string, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres for migrations: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping postgres for migrations: %w", err)
	}
	return Run(ctx, db, DialectPostgres)
}

// Run applies every .up.sql file of the dialect that is not yet recorded in
// schema_migrations, in file name order, and returns the applied versions.
func Run(ctx context.Context, db *sql.DB, dialect Dialect) ([]string, error) {
	upFiles, err := Pending(dialect)
	if err != nil {
		return nil, err
	}

	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version TEXT PRIMARY KEY,
		applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return nil, fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	insert := `INSERT INTO schema_migrations (version) VALUES (?)`
	exists := `SELECT COUNT(*) FROM schema_migrations WHERE version = ?`
	if dialect == DialectPostgres {
		insert = `INSERT INTO schema_migrations (version) VALUES ($1)`
		exists = `SELECT COUNT(*) FROM schema_migrations WHERE version = $1`
	}

	var applied []string
	for _, file := range upFiles {
		version := strings.TrimSuffix(file, ".up.sql")

		var n int
		if err := db.QueryRowContext(ctx, exists, version).Scan(&n); err != nil {
			return applied, fmt.Errorf("failed to check migration %s: %w", version, err)
		}
		if n > 0 {
			continue
		}

		body, err := files.ReadFile(string(dialect) + "/" + file)
		if err != nil {
			return applied, fmt.Errorf("failed to read migration %s: %w", file, err)
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return applied, err
		}
		if _, err := tx.ExecContext(ctx, string(body)); err != nil {
			_ = tx.Rollback()
			return applied, fmt.Errorf("failed to execute migration %s: %w", file, err)
		}
		if _, err := tx.ExecContext(ctx, insert, version); err != nil {
			_ = tx.Rollback()
			return applied, fmt.Errorf("failed to record migration %s: %w", file, err)
		}
		if err := tx.Commit(); err != nil {
			return applied, err
		}
		applied = append(applied, version)
	}

	return applied, nil
}

// Pending lists the embedded .up.sql files of a dialect in order.
func Pending(dialect Dialect) ([]string, error) {
	entries, err := fs.ReadDir(files, string(dialect))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s migrations: %w", dialect, err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)
	return upFiles, nil
}
