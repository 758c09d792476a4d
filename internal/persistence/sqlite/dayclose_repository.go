package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/example/workforce-tracker/internal/persistence"
)

// DayCloseRepository implements persistence.DayCloseRepository using SQLite.
type DayCloseRepository struct {
	pool *ConnectionPool
}

// NewDayCloseRepository creates a new SQLite day close repository.
func NewDayCloseRepository(pool *ConnectionPool) *DayCloseRepository {
	return &DayCloseRepository{pool: pool}
}

const dayCloseColumns = `id, user_id, close_date, total_minutes, tasks_done, comment, closed_at, created_at`

func scanDayClose(scanner interface{ Scan(...any) error }) (persistence.DayClose, error) {
	var (
		close             persistence.DayClose
		comment           sql.NullString
		closedAt, created string
	)
	if err := scanner.Scan(&close.ID, &close.UserID, &close.CloseDate, &close.TotalMinutes, &close.TasksDone, &comment, &closedAt, &created); err != nil {
		return persistence.DayClose{}, err
	}
	close.Comment = stringPtr(comment)
	var err error
	if close.ClosedAt, err = parseTime(closedAt); err != nil {
		return persistence.DayClose{}, fmt.Errorf("failed to parse closed_at: %w", err)
	}
	if close.CreatedAt, err = parseTime(created); err != nil {
		return persistence.DayClose{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	return close, nil
}

// CreateDayClose inserts a closure. The unique (user_id, close_date) index
// turns a duplicate closure into ErrConflict.
func (r *DayCloseRepository) CreateDayClose(ctx context.Context, close persistence.DayClose) (persistence.DayClose, error) {
	if close.ID == "" || close.UserID == "" || close.CloseDate == "" {
		return persistence.DayClose{}, persistence.ErrConflict
	}
	_, err := r.pool.db.ExecContext(ctx, `
		INSERT INTO day_closes (id, user_id, close_date, total_minutes, tasks_done, comment, closed_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		close.ID,
		close.UserID,
		close.CloseDate,
		close.TotalMinutes,
		close.TasksDone,
		nullString(close.Comment),
		formatTime(close.ClosedAt),
		formatTime(close.CreatedAt),
	)
	if err != nil {
		return persistence.DayClose{}, mapError(err)
	}
	return r.GetDayClose(ctx, close.ID)
}

// UpdateDayClose rewrites the mutable fields of an existing closure.
func (r *DayCloseRepository) UpdateDayClose(ctx context.Context, close persistence.DayClose) (persistence.DayClose, error) {
	result, err := r.pool.db.ExecContext(ctx, `
		UPDATE day_closes
		SET total_minutes = ?, tasks_done = ?, comment = ?, closed_at = ?
		WHERE id = ?
	`,
		close.TotalMinutes,
		close.TasksDone,
		nullString(close.Comment),
		formatTime(close.ClosedAt),
		close.ID,
	)
	if err != nil {
		return persistence.DayClose{}, mapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.DayClose{}, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.DayClose{}, persistence.ErrNotFound
	}
	return r.GetDayClose(ctx, close.ID)
}

// GetDayClose retrieves a closure by id.
func (r *DayCloseRepository) GetDayClose(ctx context.Context, id string) (persistence.DayClose, error) {
	if id == "" {
		return persistence.DayClose{}, persistence.ErrNotFound
	}
	row := r.pool.db.QueryRowContext(ctx, `SELECT `+dayCloseColumns+` FROM day_closes WHERE id = ?`, id)
	close, err := scanDayClose(row)
	if err != nil {
		return persistence.DayClose{}, mapError(err)
	}
	return close, nil
}

// DayCloseOn returns the user's closure for the given date.
func (r *DayCloseRepository) DayCloseOn(ctx context.Context, userID, date string) (persistence.DayClose, error) {
	row := r.pool.db.QueryRowContext(ctx, `
		SELECT `+dayCloseColumns+` FROM day_closes WHERE user_id = ? AND close_date = ?
	`, userID, date)
	close, err := scanDayClose(row)
	if err != nil {
		return persistence.DayClose{}, mapError(err)
	}
	return close, nil
}

// ListDayCloses returns the user's closures, newest first.
func (r *DayCloseRepository) ListDayCloses(ctx context.Context, userID string, limit int) ([]persistence.DayClose, error) {
	if limit <= 0 {
		limit = 60
	}
	rows, err := r.pool.db.QueryContext(ctx, `
		SELECT `+dayCloseColumns+` FROM day_closes
		WHERE user_id = ?
		ORDER BY close_date DESC, closed_at DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()
	return collectDayCloses(rows)
}

// ListDayClosesOn returns the closures of the given users for one date.
func (r *DayCloseRepository) ListDayClosesOn(ctx context.Context, userIDs []string, date string) ([]persistence.DayClose, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(userIDs)), ", ")
	args := make([]any, 0, len(userIDs)+1)
	for _, id := range userIDs {
		args = append(args, id)
	}
	args = append(args, date)

	rows, err := r.pool.db.QueryContext(ctx, `
		SELECT `+dayCloseColumns+` FROM day_closes
		WHERE user_id IN (`+placeholders+`) AND close_date = ?
		ORDER BY user_id
	`, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()
	return collectDayCloses(rows)
}

func collectDayCloses(rows *sql.Rows) ([]persistence.DayClose, error) {
	var closes []persistence.DayClose
	for rows.Next() {
		close, err := scanDayClose(rows)
		if err != nil {
			return nil, mapError(err)
		}
		closes = append(closes, close)
	}
	return closes, rows.Err()
}

const dayCloseValidationColumns = `id, day_close_id, validator_user_id, status, comment, decided_at, created_at`

func scanDayCloseValidation(scanner interface{ Scan(...any) error }) (persistence.DayCloseValidation, error) {
	var (
		validation         persistence.DayCloseValidation
		comment, decidedAt sql.NullString
		created            string
	)
	if err := scanner.Scan(&validation.ID, &validation.DayCloseID, &validation.ValidatorUserID, &validation.Status, &comment, &decidedAt, &created); err != nil {
		return persistence.DayCloseValidation{}, err
	}
	validation.Comment = stringPtr(comment)
	var err error
	if validation.DecidedAt, err = parseTimePtr(decidedAt); err != nil {
		return persistence.DayCloseValidation{}, fmt.Errorf("failed to parse decided_at: %w", err)
	}
	if validation.CreatedAt, err = parseTime(created); err != nil {
		return persistence.DayCloseValidation{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	return validation, nil
}

// CreateDayCloseValidation inserts a validation. The unique day_close_id
// constraint keeps the 1:1 attachment.
func (r *DayCloseRepository) CreateDayCloseValidation(ctx context.Context, validation persistence.DayCloseValidation) (persistence.DayCloseValidation, error) {
	if validation.ID == "" || validation.DayCloseID == "" {
		return persistence.DayCloseValidation{}, persistence.ErrConflict
	}
	_, err := r.pool.db.ExecContext(ctx, `
		INSERT INTO day_close_validations (id, day_close_id, validator_user_id, status, comment, decided_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		validation.ID,
		validation.DayCloseID,
		validation.ValidatorUserID,
		validation.Status,
		nullString(validation.Comment),
		formatTimePtr(validation.DecidedAt),
		formatTime(validation.CreatedAt),
	)
	if err != nil {
		return persistence.DayCloseValidation{}, mapError(err)
	}
	return r.GetDayCloseValidation(ctx, validation.ID)
}

// GetDayCloseValidation retrieves a validation by id.
func (r *DayCloseRepository) GetDayCloseValidation(ctx context.Context, id string) (persistence.DayCloseValidation, error) {
	if id == "" {
		return persistence.DayCloseValidation{}, persistence.ErrNotFound
	}
	row := r.pool.db.QueryRowContext(ctx, `
		SELECT `+dayCloseValidationColumns+` FROM day_close_validations WHERE id = ?
	`, id)
	validation, err := scanDayCloseValidation(row)
	if err != nil {
		return persistence.DayCloseValidation{}, mapError(err)
	}
	return validation, nil
}

// ValidationForDayClose retrieves the validation attached to a closure.
func (r *DayCloseRepository) ValidationForDayClose(ctx context.Context, dayCloseID string) (persistence.DayCloseValidation, error) {
	row := r.pool.db.QueryRowContext(ctx, `
		SELECT `+dayCloseValidationColumns+` FROM day_close_validations WHERE day_close_id = ?
	`, dayCloseID)
	validation, err := scanDayCloseValidation(row)
	if err != nil {
		return persistence.DayCloseValidation{}, mapError(err)
	}
	return validation, nil
}

// ResetDayCloseValidation returns the validation to PENDING and clears the
// decision fields.
func (r *DayCloseRepository) ResetDayCloseValidation(ctx context.Context, id string) (persistence.DayCloseValidation, error) {
	result, err := r.pool.db.ExecContext(ctx, `
		UPDATE day_close_validations
		SET status = 'PENDING', comment = NULL, decided_at = NULL
		WHERE id = ?
	`, id)
	if err != nil {
		return persistence.DayCloseValidation{}, mapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.DayCloseValidation{}, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.DayCloseValidation{}, persistence.ErrNotFound
	}
	return r.GetDayCloseValidation(ctx, id)
}

// DecideDayCloseValidation records a decision.
func (r *DayCloseRepository) DecideDayCloseValidation(ctx context.Context, id, status string, comment *string, decidedAt time.Time) (persistence.DayCloseValidation, error) {
	result, err := r.pool.db.ExecContext(ctx, `
		UPDATE day_close_validations
		SET status = ?, comment = ?, decided_at = ?
		WHERE id = ?
	`, status, nullString(comment), formatTime(decidedAt), id)
	if err != nil {
		return persistence.DayCloseValidation{}, mapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.DayCloseValidation{}, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.DayCloseValidation{}, persistence.ErrNotFound
	}
	return r.GetDayCloseValidation(ctx, id)
}

// ListPendingDayCloses returns pending validations joined with their closure
// and owner, oldest submission first. A non-empty managerID restricts results
// to closures owned by that manager's team members.
func (r *DayCloseRepository) ListPendingDayCloses(ctx context.Context, managerID string) ([]persistence.PendingDayClose, error) {
	query := `
		SELECT v.id, v.day_close_id, v.validator_user_id, v.status, v.comment, v.decided_at, v.created_at,
		       dc.id, dc.user_id, dc.close_date, dc.total_minutes, dc.tasks_done, dc.comment, dc.closed_at, dc.created_at,
		       u.id, u.email, u.first_name, u.last_name, u.password_hash, u.role, u.created_at, u.updated_at
		FROM day_close_validations v
		JOIN day_closes dc ON dc.id = v.day_close_id
		JOIN users u ON u.id = dc.user_id
		WHERE v.status = 'PENDING'`
	args := []any{}
	if managerID != "" {
		query += `
		  AND EXISTS (
			SELECT 1
			FROM team_members tm
			JOIN teams t ON t.id = tm.team_id
			WHERE tm.user_id = dc.user_id AND t.manager_user_id = ?
		  )`
		args = append(args, managerID)
	}
	query += `
		ORDER BY v.created_at ASC`

	rows, err := r.pool.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var pending []persistence.PendingDayClose
	for rows.Next() {
		var (
			entry                 persistence.PendingDayClose
			vComment, vDecidedAt  sql.NullString
			vCreated              string
			dcComment             sql.NullString
			dcClosedAt, dcCreated string
			uCreated, uUpdated    string
		)
		if err := rows.Scan(
			&entry.Validation.ID, &entry.Validation.DayCloseID, &entry.Validation.ValidatorUserID,
			&entry.Validation.Status, &vComment, &vDecidedAt, &vCreated,
			&entry.Close.ID, &entry.Close.UserID, &entry.Close.CloseDate, &entry.Close.TotalMinutes,
			&entry.Close.TasksDone, &dcComment, &dcClosedAt, &dcCreated,
			&entry.User.ID, &entry.User.Email, &entry.User.FirstName, &entry.User.LastName,
			&entry.User.PasswordHash, &entry.User.Role, &uCreated, &uUpdated,
		); err != nil {
			return nil, mapError(err)
		}
		entry.Validation.Comment = stringPtr(vComment)
		if entry.Validation.DecidedAt, err = parseTimePtr(vDecidedAt); err != nil {
			return nil, fmt.Errorf("failed to parse decided_at: %w", err)
		}
		if entry.Validation.CreatedAt, err = parseTime(vCreated); err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}
		entry.Close.Comment = stringPtr(dcComment)
		if entry.Close.ClosedAt, err = parseTime(dcClosedAt); err != nil {
			return nil, fmt.Errorf("failed to parse closed_at: %w", err)
		}
		if entry.Close.CreatedAt, err = parseTime(dcCreated); err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}
		if entry.User.CreatedAt, err = parseTime(uCreated); err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}
		if entry.User.UpdatedAt, err = parseTime(uUpdated); err != nil {
			return nil, fmt.Errorf("failed to parse updated_at: %w", err)
		}
		pending = append(pending, entry)
	}
	return pending, rows.Err()
}
