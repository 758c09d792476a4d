package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/workforce-tracker/internal/persistence"
	_ "modernc.org/sqlite"
)

// ConnectionPool manages the SQLite database handle shared by the
// repositories. It is constructed once at process start and injected into
// every repository; there is no package level state.
type ConnectionPool struct {
	db *sql.DB
}

// Open connects to the SQLite database identified by dsn.
func Open(dsn string) (*ConnectionPool, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// modernc.org/sqlite serialises writes; a single connection avoids
	// SQLITE_BUSY churn under concurrent requests.
	db.SetMaxOpenConns(1)
	return &ConnectionPool{db: db}, nil
}

// DB returns the underlying database handle.
func (cp *ConnectionPool) DB() *sql.DB {
	return cp.db
}

// Close closes the connection pool.
func (cp *ConnectionPool) Close() error {
	if cp.db != nil {
		return cp.db.Close()
	}
	return nil
}

// Ping tests the database connection.
func (cp *ConnectionPool) Ping(ctx context.Context) error {
	return cp.db.PingContext(ctx)
}

// TransactionFunc represents a function executed within a transaction.
type TransactionFunc func(tx *sql.Tx) error

// WithTransaction executes fn inside a transaction, rolling back when fn
// returns an error and committing otherwise.
func (cp *ConnectionPool) WithTransaction(ctx context.Context, fn TransactionFunc) error {
	tx, err := cp.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("transaction failed (rollback error: %v): %w", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		first_name TEXT NOT NULL DEFAULT '',
		last_name TEXT NOT NULL DEFAULT '',
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL CHECK (role IN ('ADMIN','MANAGER','EMPLOYEE')),
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS teams (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		manager_user_id TEXT REFERENCES users(id),
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS team_members (
		team_id TEXT NOT NULL REFERENCES teams(id),
		user_id TEXT NOT NULL REFERENCES users(id),
		PRIMARY KEY (team_id, user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS projects (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		manager_id TEXT REFERENCES users(id),
		created_by TEXT REFERENCES users(id),
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS project_members (
		project_id TEXT NOT NULL REFERENCES projects(id),
		user_id TEXT NOT NULL REFERENCES users(id),
		PRIMARY KEY (project_id, user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS tasks (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		status TEXT NOT NULL CHECK (status IN ('TODO','IN_PROGRESS','BLOCKED','DONE')),
		due_date TEXT,
		team_id TEXT REFERENCES teams(id),
		project_id TEXT REFERENCES projects(id),
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS task_assignees (
		task_id TEXT NOT NULL REFERENCES tasks(id),
		user_id TEXT NOT NULL REFERENCES users(id),
		PRIMARY KEY (task_id, user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS work_sessions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id),
		task_id TEXT REFERENCES tasks(id),
		start_time TEXT NOT NULL,
		end_time TEXT,
		duration_minutes INTEGER,
		created_at TEXT NOT NULL
	)`,
	// One open session per user, enforced by the storage layer rather than
	// only by the application-level check-then-insert.
	`CREATE UNIQUE INDEX IF NOT EXISTS work_sessions_open_unique
		ON work_sessions(user_id) WHERE end_time IS NULL`,
	`CREATE TABLE IF NOT EXISTS day_closes (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id),
		close_date TEXT NOT NULL,
		total_minutes INTEGER NOT NULL DEFAULT 0,
		tasks_done INTEGER NOT NULL DEFAULT 0,
		comment TEXT,
		closed_at TEXT NOT NULL,
		created_at TEXT NOT NULL,
		UNIQUE (user_id, close_date)
	)`,
	`CREATE TABLE IF NOT EXISTS day_close_validations (
		id TEXT PRIMARY KEY,
		day_close_id TEXT NOT NULL UNIQUE REFERENCES day_closes(id),
		validator_user_id TEXT NOT NULL REFERENCES users(id),
		status TEXT NOT NULL CHECK (status IN ('PENDING','APPROVED','REJECTED')),
		comment TEXT,
		decided_at TEXT,
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS team_closes (
		id TEXT PRIMARY KEY,
		team_id TEXT NOT NULL REFERENCES teams(id),
		manager_user_id TEXT NOT NULL REFERENCES users(id),
		close_date TEXT NOT NULL,
		members_total INTEGER NOT NULL DEFAULT 0,
		members_submitted INTEGER NOT NULL DEFAULT 0,
		tasks_done_total INTEGER NOT NULL DEFAULT 0,
		total_minutes INTEGER NOT NULL DEFAULT 0,
		comment TEXT,
		closed_at TEXT NOT NULL,
		created_at TEXT NOT NULL,
		UNIQUE (team_id, close_date)
	)`,
	`CREATE TABLE IF NOT EXISTS team_close_validations (
		id TEXT PRIMARY KEY,
		team_close_id TEXT NOT NULL UNIQUE REFERENCES team_closes(id),
		validator_user_id TEXT NOT NULL REFERENCES users(id),
		status TEXT NOT NULL CHECK (status IN ('PENDING','APPROVED','REJECTED')),
		comment TEXT,
		decided_at TEXT,
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS auth_sessions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id),
		token TEXT NOT NULL UNIQUE,
		expires_at TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		revoked_at TEXT
	)`,
}

// Migrate applies the schema. Statements are idempotent so Migrate can run on
// every start.
func (cp *ConnectionPool) Migrate(ctx context.Context) error {
	for _, stmt := range migrations {
		if _, err := cp.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply migration: %w", err)
		}
	}
	return nil
}

// mapError translates driver errors into persistence sentinel errors.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return persistence.ErrNotFound
	}
	msg := err.Error()
	if strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "constraint failed") {
		return persistence.ErrConflict
	}
	return err
}

// formatTime renders an instant as UTC RFC3339 text, the storage format for
// all timestamps. Lexicographic comparison of stored values is chronological.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func parseTime(value string) (time.Time, error) {
	return time.Parse(time.RFC3339, value)
}

func parseTimePtr(value sql.NullString) (*time.Time, error) {
	if !value.Valid {
		return nil, nil
	}
	parsed, err := parseTime(value.String)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

func nullString(value *string) sql.NullString {
	if value == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *value, Valid: true}
}

func stringPtr(value sql.NullString) *string {
	if !value.Valid {
		return nil
	}
	clone := value.String
	return &clone
}

func nullInt(value *int) sql.NullInt64 {
	if value == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*value), Valid: true}
}

func intPtr(value sql.NullInt64) *int {
	if !value.Valid {
		return nil
	}
	clone := int(value.Int64)
	return &clone
}
