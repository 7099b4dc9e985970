// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package migrate evolves the ideation database schema through
// versioned, idempotent migrations with backup-before-migrate and
// post-migration validation.
package migrate

import (
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Migration is one versioned schema change. Each migration's script
// executes in a single transaction together with its tracking record:
// a failure leaves the migration unrecorded and safe to retry.
type Migration struct {
	Version     int
	Description string
	Script      string
}

// Manager applies migrations to one database file.
type Manager struct {
	db   *sql.DB
	path string
}

// NewManager opens the database at path for migration work. The caller
// must Close it.
func NewManager(path string) (*Manager, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	m := &Manager{db: db, path: path}
	if err := m.ensureTrackingTable(); err != nil {
		db.Close()
		return nil, err
	}
	return m, nil
}

// Close releases the database connection.
func (m *Manager) Close() error {
	return m.db.Close()
}

func (m *Manager) ensureTrackingTable() error {
	_, err := m.db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		description TEXT NOT NULL,
		applied_at TEXT NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations: %w", err)
	}
	return nil
}

// CurrentVersion returns the highest applied version, or 0 when no
// migration has been applied.
func (m *Manager) CurrentVersion() (int, error) {
	var version sql.NullInt64
	err := m.db.QueryRow(`SELECT max(version) FROM schema_migrations`).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("reading current version: %w", err)
	}
	return int(version.Int64), nil
}

// Pending returns the migrations not yet applied, in version order.
func (m *Manager) Pending() ([]Migration, error) {
	applied := make(map[int]bool)
	rows, err := m.db.Query(`SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("reading applied versions: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scanning version: %w", err)
		}
		applied[v] = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var pending []Migration
	for _, mig := range migrations {
		if !applied[mig.Version] {
			pending = append(pending, mig)
		}
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].Version < pending[j].Version })
	return pending, nil
}

// Apply executes one migration and records it in the same transaction.
// Returns false (with the error) on failure; the migration stays
// unrecorded and can be retried.
func (m *Manager) Apply(mig Migration) (bool, error) {
	tx, err := m.db.Begin()
	if err != nil {
		return false, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(mig.Script); err != nil {
		return false, fmt.Errorf("migration %d (%s): %w", mig.Version, mig.Description, err)
	}
	if _, err := tx.Exec(
		`INSERT INTO schema_migrations (version, description, applied_at) VALUES (?, ?, ?)`,
		mig.Version, mig.Description, time.Now().UTC().Format(time.RFC3339Nano),
	); err != nil {
		return false, fmt.Errorf("recording migration %d: %w", mig.Version, err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("committing migration %d: %w", mig.Version, err)
	}
	return true, nil
}

// MigrateToLatest applies all pending migrations in order, stopping on
// the first failure. Later migrations may assume earlier ones' tables
// exist, so skipping ahead is never safe.
func (m *Manager) MigrateToLatest(w io.Writer) (bool, error) {
	pending, err := m.Pending()
	if err != nil {
		return false, err
	}

	for _, mig := range pending {
		ok, err := m.Apply(mig)
		if !ok {
			fmt.Fprintf(w, "failed  migration %d: %v\n", mig.Version, err)
			return false, err
		}
		fmt.Fprintf(w, "applied migration %d: %s\n", mig.Version, mig.Description)
	}
	return true, nil
}

// ValidationReport holds the outcome of a schema validation pass.
type ValidationReport struct {
	Valid               bool     `json:"valid" yaml:"valid"`
	MissingTables       []string `json:"missing_tables,omitempty" yaml:"missing_tables,omitempty"`
	ForeignKeyViolations int     `json:"foreign_key_violations" yaml:"foreign_key_violations"`
}

// ValidateSchema diffs the actual table set against the expected one
// and counts foreign-key violations via PRAGMA foreign_key_check.
func (m *Manager) ValidateSchema() (ValidationReport, error) {
	report := ValidationReport{Valid: true}

	actual := make(map[string]bool)
	rows, err := m.db.Query(`SELECT name FROM sqlite_master WHERE type='table'`)
	if err != nil {
		return report, fmt.Errorf("listing tables: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return report, fmt.Errorf("scanning table name: %w", err)
		}
		actual[name] = true
	}
	if err := rows.Err(); err != nil {
		return report, err
	}

	for _, table := range expectedTables() {
		if !actual[table] {
			report.MissingTables = append(report.MissingTables, table)
			report.Valid = false
		}
	}

	fkRows, err := m.db.Query(`PRAGMA foreign_key_check`)
	if err != nil {
		return report, fmt.Errorf("checking foreign keys: %w", err)
	}
	defer fkRows.Close()
	for fkRows.Next() {
		report.ForeignKeyViolations++
	}
	if report.ForeignKeyViolations > 0 {
		report.Valid = false
	}

	return report, fkRows.Err()
}

// CreateBackup copies the whole database file to a timestamped sibling
// under backups/ next to the database. Returns the backup path.
func (m *Manager) CreateBackup() (string, error) {
	backupDir := filepath.Join(filepath.Dir(m.path), "backups")
	if err := os.MkdirAll(backupDir, 0o755); err != nil {
		return "", fmt.Errorf("creating backup directory: %w", err)
	}

	// In WAL mode committed state can still live in the -wal sidecar;
	// checkpoint it into the main file so the copy is complete.
	if _, err := m.db.Exec(`PRAGMA wal_checkpoint(TRUNCATE)`); err != nil {
		return "", fmt.Errorf("checkpointing before backup: %w", err)
	}

	stamp := time.Now().UTC().Format("20060102-150405")
	backupPath := filepath.Join(backupDir, fmt.Sprintf("%s.%s.bak", filepath.Base(m.path), stamp))

	src, err := os.Open(m.path)
	if err != nil {
		return "", fmt.Errorf("opening database for backup: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(backupPath)
	if err != nil {
		return "", fmt.Errorf("creating backup file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("copying database: %w", err)
	}
	return backupPath, nil
}

// Initialize brings the database at path to a known-good state: backup
// if the file already exists, migrate to latest, then validate. This is
// the sanctioned entry point for standing up an ideation database.
func Initialize(path string, createBackup bool, w io.Writer) (bool, error) {
	_, statErr := os.Stat(path)
	existed := statErr == nil

	m, err := NewManager(path)
	if err != nil {
		return false, err
	}
	defer m.Close()

	if createBackup && existed {
		backupPath, err := m.CreateBackup()
		if err != nil {
			return false, fmt.Errorf("backup before migration: %w", err)
		}
		fmt.Fprintf(w, "backup written to %s\n", backupPath)
	}

	ok, err := m.MigrateToLatest(w)
	if !ok {
		return false, err
	}

	report, err := m.ValidateSchema()
	if err != nil {
		return false, err
	}
	if !report.Valid {
		fmt.Fprintf(w, "validation failed: missing tables %v, %d foreign key violations\n",
			report.MissingTables, report.ForeignKeyViolations)
		return false, nil
	}

	fmt.Fprintf(w, "database ready at %s\n", path)
	return true, nil
}
