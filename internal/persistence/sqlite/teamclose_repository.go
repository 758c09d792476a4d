package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/workforce-tracker/internal/persistence"
)

// TeamCloseRepository implements persistence.TeamCloseRepository using SQLite.
type TeamCloseRepository struct {
	pool *ConnectionPool
}

// NewTeamCloseRepository creates a new SQLite team close repository.
func NewTeamCloseRepository(pool *ConnectionPool) *TeamCloseRepository {
	return &TeamCloseRepository{pool: pool}
}

const teamCloseColumns = `id, team_id, manager_user_id, close_date, members_total, members_submitted, tasks_done_total, total_minutes, comment, closed_at, created_at`

func scanTeamClose(scanner interface{ Scan(...any) error }) (persistence.TeamClose, error) {
	var (
		close             persistence.TeamClose
		comment           sql.NullString
		closedAt, created string
	)
	if err := scanner.Scan(
		&close.ID, &close.TeamID, &close.ManagerUserID, &close.CloseDate,
		&close.MembersTotal, &close.MembersSubmitted, &close.TasksDoneTotal, &close.TotalMinutes,
		&comment, &closedAt, &created,
	); err != nil {
		return persistence.TeamClose{}, err
	}
	close.Comment = stringPtr(comment)
	var err error
	if close.ClosedAt, err = parseTime(closedAt); err != nil {
		return persistence.TeamClose{}, fmt.Errorf("failed to parse closed_at: %w", err)
	}
	if close.CreatedAt, err = parseTime(created); err != nil {
		return persistence.TeamClose{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	return close, nil
}

// CreateTeamClose inserts a closure. The unique (team_id, close_date) index
// turns a duplicate closure into ErrConflict.
func (r *TeamCloseRepository) CreateTeamClose(ctx context.Context, close persistence.TeamClose) (persistence.TeamClose, error) {
	if close.ID == "" || close.TeamID == "" || close.CloseDate == "" {
		return persistence.TeamClose{}, persistence.ErrConflict
	}
	_, err := r.pool.db.ExecContext(ctx, `
		INSERT INTO team_closes (id, team_id, manager_user_id, close_date, members_total, members_submitted, tasks_done_total, total_minutes, comment, closed_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		close.ID,
		close.TeamID,
		close.ManagerUserID,
		close.CloseDate,
		close.MembersTotal,
		close.MembersSubmitted,
		close.TasksDoneTotal,
		close.TotalMinutes,
		nullString(close.Comment),
		formatTime(close.ClosedAt),
		formatTime(close.CreatedAt),
	)
	if err != nil {
		return persistence.TeamClose{}, mapError(err)
	}
	return r.GetTeamClose(ctx, close.ID)
}

// UpdateTeamClose rewrites the aggregates of an existing closure.
func (r *TeamCloseRepository) UpdateTeamClose(ctx context.Context, close persistence.TeamClose) (persistence.TeamClose, error) {
	result, err := r.pool.db.ExecContext(ctx, `
		UPDATE team_closes
		SET manager_user_id = ?, members_total = ?, members_submitted = ?, tasks_done_total = ?, total_minutes = ?, comment = ?, closed_at = ?
		WHERE id = ?
	`,
		close.ManagerUserID,
		close.MembersTotal,
		close.MembersSubmitted,
		close.TasksDoneTotal,
		close.TotalMinutes,
		nullString(close.Comment),
		formatTime(close.ClosedAt),
		close.ID,
	)
	if err != nil {
		return persistence.TeamClose{}, mapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.TeamClose{}, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.TeamClose{}, persistence.ErrNotFound
	}
	return r.GetTeamClose(ctx, close.ID)
}

// GetTeamClose retrieves a closure by id.
func (r *TeamCloseRepository) GetTeamClose(ctx context.Context, id string) (persistence.TeamClose, error) {
	if id == "" {
		return persistence.TeamClose{}, persistence.ErrNotFound
	}
	row := r.pool.db.QueryRowContext(ctx, `SELECT `+teamCloseColumns+` FROM team_closes WHERE id = ?`, id)
	close, err := scanTeamClose(row)
	if err != nil {
		return persistence.TeamClose{}, mapError(err)
	}
	return close, nil
}

// TeamCloseOn returns the team's closure for the given date.
func (r *TeamCloseRepository) TeamCloseOn(ctx context.Context, teamID, date string) (persistence.TeamClose, error) {
	row := r.pool.db.QueryRowContext(ctx, `
		SELECT `+teamCloseColumns+` FROM team_closes WHERE team_id = ? AND close_date = ?
	`, teamID, date)
	close, err := scanTeamClose(row)
	if err != nil {
		return persistence.TeamClose{}, mapError(err)
	}
	return close, nil
}

const teamCloseValidationColumns = `id, team_close_id, validator_user_id, status, comment, decided_at, created_at`

func scanTeamCloseValidation(scanner interface{ Scan(...any) error }) (persistence.TeamCloseValidation, error) {
	var (
		validation         persistence.TeamCloseValidation
		comment, decidedAt sql.NullString
		created            string
	)
	if err := scanner.Scan(&validation.ID, &validation.TeamCloseID, &validation.ValidatorUserID, &validation.Status, &comment, &decidedAt, &created); err != nil {
		return persistence.TeamCloseValidation{}, err
	}
	validation.Comment = stringPtr(comment)
	var err error
	if validation.DecidedAt, err = parseTimePtr(decidedAt); err != nil {
		return persistence.TeamCloseValidation{}, fmt.Errorf("failed to parse decided_at: %w", err)
	}
	if validation.CreatedAt, err = parseTime(created); err != nil {
		return persistence.TeamCloseValidation{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	return validation, nil
}

// CreateTeamCloseValidation inserts a validation. The unique team_close_id
// constraint keeps the 1:1 attachment.
func (r *TeamCloseRepository) CreateTeamCloseValidation(ctx context.Context, validation persistence.TeamCloseValidation) (persistence.TeamCloseValidation, error) {
	if validation.ID == "" || validation.TeamCloseID == "" {
		return persistence.TeamCloseValidation{}, persistence.ErrConflict
	}
	_, err := r.pool.db.ExecContext(ctx, `
		INSERT INTO team_close_validations (id, team_close_id, validator_user_id, status, comment, decided_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		validation.ID,
		validation.TeamCloseID,
		validation.ValidatorUserID,
		validation.Status,
		nullString(validation.Comment),
		formatTimePtr(validation.DecidedAt),
		formatTime(validation.CreatedAt),
	)
	if err != nil {
		return persistence.TeamCloseValidation{}, mapError(err)
	}
	return r.GetTeamCloseValidation(ctx, validation.ID)
}

// GetTeamCloseValidation retrieves a validation by id.
func (r *TeamCloseRepository) GetTeamCloseValidation(ctx context.Context, id string) (persistence.TeamCloseValidation, error) {
	if id == "" {
		return persistence.TeamCloseValidation{}, persistence.ErrNotFound
	}
	row := r.pool.db.QueryRowContext(ctx, `
		SELECT `+teamCloseValidationColumns+` FROM team_close_validations WHERE id = ?
	`, id)
	validation, err := scanTeamCloseValidation(row)
	if err != nil {
		return persistence.TeamCloseValidation{}, mapError(err)
	}
	return validation, nil
}

// ValidationForTeamClose retrieves the validation attached to a closure.
func (r *TeamCloseRepository) ValidationForTeamClose(ctx context.Context, teamCloseID string) (persistence.TeamCloseValidation, error) {
	row := r.pool.db.QueryRowContext(ctx, `
		SELECT `+teamCloseValidationColumns+` FROM team_close_validations WHERE team_close_id = ?
	`, teamCloseID)
	validation, err := scanTeamCloseValidation(row)
	if err != nil {
		return persistence.TeamCloseValidation{}, mapError(err)
	}
	return validation, nil
}

// ResetTeamCloseValidation returns the validation to PENDING and clears the
// decision fields.
func (r *TeamCloseRepository) ResetTeamCloseValidation(ctx context.Context, id string) (persistence.TeamCloseValidation, error) {
	result, err := r.pool.db.ExecContext(ctx, `
		UPDATE team_close_validations
		SET status = 'PENDING', comment = NULL, decided_at = NULL
		WHERE id = ?
	`, id)
	if err != nil {
		return persistence.TeamCloseValidation{}, mapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.TeamCloseValidation{}, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.TeamCloseValidation{}, persistence.ErrNotFound
	}
	return r.GetTeamCloseValidation(ctx, id)
}

// DecideTeamCloseValidation records a decision.
func (r *TeamCloseRepository) DecideTeamCloseValidation(ctx context.Context, id, status string, comment *string, decidedAt time.Time) (persistence.TeamCloseValidation, error) {
	result, err := r.pool.db.ExecContext(ctx, `
		UPDATE team_close_validations
		SET status = ?, comment = ?, decided_at = ?
		WHERE id = ?
	`, status, nullString(comment), formatTime(decidedAt), id)
	if err != nil {
		return persistence.TeamCloseValidation{}, mapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.TeamCloseValidation{}, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.TeamCloseValidation{}, persistence.ErrNotFound
	}
	return r.GetTeamCloseValidation(ctx, id)
}

// ListPendingTeamCloses returns pending validations joined with their closure,
// team and manager, oldest submission first.
func (r *TeamCloseRepository) ListPendingTeamCloses(ctx context.Context) ([]persistence.PendingTeamClose, error) {
	rows, err := r.pool.db.QueryContext(ctx, `
		SELECT v.id, v.team_close_id, v.validator_user_id, v.status, v.comment, v.decided_at, v.created_at,
		       tc.id, tc.team_id, tc.manager_user_id, tc.close_date, tc.members_total, tc.members_submitted, tc.tasks_done_total, tc.total_minutes, tc.comment, tc.closed_at, tc.created_at,
		       t.id, t.name, t.manager_user_id, t.created_at, t.updated_at,
		       m.id, m.email, m.first_name, m.last_name, m.password_hash, m.role, m.created_at, m.updated_at
		FROM team_close_validations v
		JOIN team_closes tc ON tc.id = v.team_close_id
		JOIN teams t ON t.id = tc.team_id
		JOIN users m ON m.id = tc.manager_user_id
		WHERE v.status = 'PENDING'
		ORDER BY v.created_at ASC
	`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var pending []persistence.PendingTeamClose
	for rows.Next() {
		var (
			entry                 persistence.PendingTeamClose
			vComment, vDecidedAt  sql.NullString
			vCreated              string
			tcComment             sql.NullString
			tcClosedAt, tcCreated string
			teamManagerID         sql.NullString
			tCreated, tUpdated    string
			mCreated, mUpdated    string
		)
		if err := rows.Scan(
			&entry.Validation.ID, &entry.Validation.TeamCloseID, &entry.Validation.ValidatorUserID,
			&entry.Validation.Status, &vComment, &vDecidedAt, &vCreated,
			&entry.Close.ID, &entry.Close.TeamID, &entry.Close.ManagerUserID, &entry.Close.CloseDate,
			&entry.Close.MembersTotal, &entry.Close.MembersSubmitted, &entry.Close.TasksDoneTotal,
			&entry.Close.TotalMinutes, &tcComment, &tcClosedAt, &tcCreated,
			&entry.Team.ID, &entry.Team.Name, &teamManagerID, &tCreated, &tUpdated,
			&entry.Manager.ID, &entry.Manager.Email, &entry.Manager.FirstName, &entry.Manager.LastName,
			&entry.Manager.PasswordHash, &entry.Manager.Role, &mCreated, &mUpdated,
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
		entry.Close.Comment = stringPtr(tcComment)
		if entry.Close.ClosedAt, err = parseTime(tcClosedAt); err != nil {
			return nil, fmt.Errorf("failed to parse closed_at: %w", err)
		}
		if entry.Close.CreatedAt, err = parseTime(tcCreated); err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}
		entry.Team.ManagerUserID = stringPtr(teamManagerID)
		if entry.Team.CreatedAt, err = parseTime(tCreated); err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}
		if entry.Team.UpdatedAt, err = parseTime(tUpdated); err != nil {
			return nil, fmt.Errorf("failed to parse updated_at: %w", err)
		}
		if entry.Manager.CreatedAt, err = parseTime(mCreated); err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}
		if entry.Manager.UpdatedAt, err = parseTime(mUpdated); err != nil {
			return nil, fmt.Errorf("failed to parse updated_at: %w", err)
		}
		pending = append(pending, entry)
	}
	return pending, rows.Err()
}
