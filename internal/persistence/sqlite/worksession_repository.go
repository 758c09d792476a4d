package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/workforce-tracker/internal/persistence"
)

// WorkSessionRepository implements persistence.WorkSessionRepository using
// SQLite.
type WorkSessionRepository struct {
	pool *ConnectionPool
}

// NewWorkSessionRepository creates a new SQLite work session repository.
func NewWorkSessionRepository(pool *ConnectionPool) *WorkSessionRepository {
	return &WorkSessionRepository{pool: pool}
}

const workSessionColumns = `id, user_id, task_id, start_time, end_time, duration_minutes, created_at`

func scanWorkSession(scanner interface{ Scan(...any) error }) (persistence.WorkSession, error) {
	var (
		session            persistence.WorkSession
		taskID, endTime    sql.NullString
		duration           sql.NullInt64
		startTime, created string
	)
	if err := scanner.Scan(&session.ID, &session.UserID, &taskID, &startTime, &endTime, &duration, &created); err != nil {
		return persistence.WorkSession{}, err
	}
	session.TaskID = stringPtr(taskID)
	session.DurationMinutes = intPtr(duration)
	var err error
	if session.StartTime, err = parseTime(startTime); err != nil {
		return persistence.WorkSession{}, fmt.Errorf("failed to parse start_time: %w", err)
	}
	if session.EndTime, err = parseTimePtr(endTime); err != nil {
		return persistence.WorkSession{}, fmt.Errorf("failed to parse end_time: %w", err)
	}
	if session.CreatedAt, err = parseTime(created); err != nil {
		return persistence.WorkSession{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	return session, nil
}

// CreateWorkSession inserts an open session. The partial unique index on open
// sessions turns a duplicate start into ErrConflict.
func (r *WorkSessionRepository) CreateWorkSession(ctx context.Context, session persistence.WorkSession) (persistence.WorkSession, error) {
	if session.ID == "" || session.UserID == "" {
		return persistence.WorkSession{}, persistence.ErrConflict
	}
	_, err := r.pool.db.ExecContext(ctx, `
		INSERT INTO work_sessions (id, user_id, task_id, start_time, end_time, duration_minutes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		session.ID,
		session.UserID,
		nullString(session.TaskID),
		formatTime(session.StartTime),
		formatTimePtr(session.EndTime),
		nullInt(session.DurationMinutes),
		formatTime(session.CreatedAt),
	)
	if err != nil {
		return persistence.WorkSession{}, mapError(err)
	}
	return r.GetWorkSession(ctx, session.ID)
}

// GetWorkSession retrieves a session by id.
func (r *WorkSessionRepository) GetWorkSession(ctx context.Context, id string) (persistence.WorkSession, error) {
	if id == "" {
		return persistence.WorkSession{}, persistence.ErrNotFound
	}
	row := r.pool.db.QueryRowContext(ctx, `SELECT `+workSessionColumns+` FROM work_sessions WHERE id = ?`, id)
	session, err := scanWorkSession(row)
	if err != nil {
		return persistence.WorkSession{}, mapError(err)
	}
	return session, nil
}

// FinishWorkSession sets the end time and duration of an open session.
func (r *WorkSessionRepository) FinishWorkSession(ctx context.Context, id string, end time.Time, minutes int) (persistence.WorkSession, error) {
	result, err := r.pool.db.ExecContext(ctx, `
		UPDATE work_sessions SET end_time = ?, duration_minutes = ?
		WHERE id = ? AND end_time IS NULL
	`, formatTime(end), minutes, id)
	if err != nil {
		return persistence.WorkSession{}, mapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.WorkSession{}, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		// Either the session is unknown or it is already finished.
		if _, getErr := r.GetWorkSession(ctx, id); getErr != nil {
			return persistence.WorkSession{}, getErr
		}
		return persistence.WorkSession{}, persistence.ErrConflict
	}
	return r.GetWorkSession(ctx, id)
}

// OpenWorkSession returns the user's open session, ErrNotFound if none.
func (r *WorkSessionRepository) OpenWorkSession(ctx context.Context, userID string) (persistence.WorkSession, error) {
	row := r.pool.db.QueryRowContext(ctx, `
		SELECT `+workSessionColumns+` FROM work_sessions
		WHERE user_id = ? AND end_time IS NULL
		ORDER BY start_time DESC
		LIMIT 1
	`, userID)
	session, err := scanWorkSession(row)
	if err != nil {
		return persistence.WorkSession{}, mapError(err)
	}
	return session, nil
}

// ListWorkSessions returns the user's sessions, newest first, optionally
// restricted to one start date.
func (r *WorkSessionRepository) ListWorkSessions(ctx context.Context, userID string, date *string) ([]persistence.WorkSession, error) {
	query := `SELECT ` + workSessionColumns + ` FROM work_sessions WHERE user_id = ?`
	args := []any{userID}
	if date != nil {
		query += ` AND substr(start_time, 1, 10) = ?`
		args = append(args, *date)
	}
	query += ` ORDER BY start_time DESC`

	rows, err := r.pool.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var sessions []persistence.WorkSession
	for rows.Next() {
		session, err := scanWorkSession(rows)
		if err != nil {
			return nil, mapError(err)
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

// SumDurationsOn sums completed session minutes started on the given date.
func (r *WorkSessionRepository) SumDurationsOn(ctx context.Context, userID, date string) (int, error) {
	var total int
	err := r.pool.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(duration_minutes), 0)
		FROM work_sessions
		WHERE user_id = ? AND substr(start_time, 1, 10) = ?
	`, userID, date).Scan(&total)
	if err != nil {
		return 0, mapError(err)
	}
	return total, nil
}

// HasActivitySince reports whether any session on the date started or ended
// after the reference instant.
func (r *WorkSessionRepository) HasActivitySince(ctx context.Context, userID, date string, since time.Time) (bool, error) {
	reference := formatTime(since)
	var one int
	err := r.pool.db.QueryRowContext(ctx, `
		SELECT 1
		FROM work_sessions
		WHERE user_id = ?
		  AND substr(start_time, 1, 10) = ?
		  AND (start_time > ? OR (end_time IS NOT NULL AND end_time > ?))
		LIMIT 1
	`, userID, date, reference, reference).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, mapError(err)
	}
	return true, nil
}
