// Package database opens the platform's sqlite store and keeps its schema
// current through embedded goose migrations.
package database

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

// dsnOptions enable WAL for concurrent webhook and request writes, a busy
// timeout so reconciliation retries instead of failing on lock contention,
// and foreign keys for the tenant relationship chain (city → publisher →
// plan → subscription).
const dsnOptions = "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"

// Open opens the database at the given path (":memory:" in tests) and runs
// any pending migrations before returning the handle.
func Open(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dbPath+dsnOptions)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return db, nil
}

func runMigrations(db *sql.DB) error {
	goose.SetBaseFS(migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}

	return nil
}
