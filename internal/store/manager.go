// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists ideation entities in a pooled SQLite database.
// Manager provides the low-level query/update/transaction primitives
// over a bounded connection pool; IdeationDatabase layers a typed
// repository for CodexObjects, tournaments, and series on top.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/ideation-engine/pkg/types"
)

const (
	defaultPoolSize       = 5
	defaultAcquireTimeout = 10 * time.Second
)

// Manager owns the SQLite handle and its bounded connection pool. All
// connections run with WAL journaling and foreign-key enforcement. The
// schema is created idempotently at construction. Safe for use from
// multiple goroutines.
type Manager struct {
	db             *sql.DB
	path           string
	acquireTimeout time.Duration
}

// NewManager opens or creates the database at cfg.Path, applies the
// pool bounds, and ensures the schema exists.
func NewManager(cfg types.DatabaseConfig) (*Manager, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path is required")
	}
	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	poolSize := cfg.PoolSize
	if poolSize <= 0 {
		poolSize = defaultPoolSize
	}
	db.SetMaxOpenConns(poolSize)
	db.SetMaxIdleConns(poolSize)

	acquireTimeout := cfg.AcquireTimeout
	if acquireTimeout <= 0 {
		acquireTimeout = defaultAcquireTimeout
	}

	m := &Manager{
		db:             db,
		path:           cfg.Path,
		acquireTimeout: acquireTimeout,
	}

	if err := m.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return m, nil
}

// Path returns the database file path.
func (m *Manager) Path() string {
	return m.path
}

// Close drains the pool and closes every connection. Intended for
// process shutdown only.
func (m *Manager) Close() error {
	return m.db.Close()
}

// Conn acquires a dedicated connection from the pool, waiting at most
// the acquire timeout for one to free up. The caller must Close it.
// Exhaustion past the timeout is an error: there is no safe default to
// hand back.
func (m *Manager) Conn(ctx context.Context) (*sql.Conn, error) {
	acquireCtx, cancel := context.WithTimeout(ctx, m.acquireTimeout)
	defer cancel()

	conn, err := m.db.Conn(acquireCtx)
	if err != nil {
		return nil, fmt.Errorf("acquiring connection: %w", err)
	}
	return conn, nil
}

// Row is one materialized result row, keyed by column name.
type Row map[string]any

// Query runs a single SELECT and materializes all rows, so the
// connection returns to the pool before the caller sees results.
func (m *Manager) Query(ctx context.Context, query string, args ...any) ([]Row, error) {
	conn, err := m.Conn(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	rows, err := conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("executing query: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("reading columns: %w", err)
	}

	var result []Row
	for rows.Next() {
		values := make([]any, len(columns))
		pointers := make([]any, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}

		row := make(Row, len(columns))
		for i, col := range columns {
			row[col] = values[i]
		}
		result = append(result, row)
	}

	return result, rows.Err()
}

// Update runs a single INSERT/UPDATE/DELETE with auto-commit and
// returns the affected row count.
func (m *Manager) Update(ctx context.Context, query string, args ...any) (int64, error) {
	conn, err := m.Conn(ctx)
	if err != nil {
		return 0, err
	}
	defer conn.Close()

	res, err := conn.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("executing update: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reading affected rows: %w", err)
	}
	return affected, nil
}

// Statement pairs SQL with its arguments for Transaction.
type Statement struct {
	SQL  string
	Args []any
}

// Transaction executes all statements in order inside one transaction:
// any failure rolls everything back, success commits once at the end.
func (m *Manager) Transaction(ctx context.Context, statements []Statement) error {
	conn, err := m.Conn(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for i, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt.SQL, stmt.Args...); err != nil {
			return fmt.Errorf("statement %d: %w", i, err)
		}
	}

	return tx.Commit()
}

func (m *Manager) createSchema() error {
	for _, stmt := range schemaStatements {
		if _, err := m.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}
