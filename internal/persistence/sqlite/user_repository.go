package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/example/workforce-tracker/internal/persistence"
)

// UserRepository implements persistence.UserRepository using SQLite. It also
// answers the team and project membership questions the services ask.
type UserRepository struct {
	pool *ConnectionPool
}

// NewUserRepository creates a new SQLite user repository.
func NewUserRepository(pool *ConnectionPool) *UserRepository {
	return &UserRepository{pool: pool}
}

const userColumns = `id, email, first_name, last_name, password_hash, role, created_at, updated_at`

func scanUser(scanner interface{ Scan(...any) error }) (persistence.User, error) {
	var (
		user                 persistence.User
		createdAt, updatedAt string
	)
	if err := scanner.Scan(&user.ID, &user.Email, &user.FirstName, &user.LastName, &user.PasswordHash, &user.Role, &createdAt, &updatedAt); err != nil {
		return persistence.User{}, err
	}
	var err error
	if user.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.User{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if user.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.User{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return user, nil
}

// CreateUser inserts a new user.
func (r *UserRepository) CreateUser(ctx context.Context, user persistence.User) error {
	if user.ID == "" || user.PasswordHash == "" {
		return persistence.ErrConflict
	}
	_, err := r.pool.db.ExecContext(ctx, `
		INSERT INTO users (id, email, first_name, last_name, password_hash, role, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		user.ID,
		strings.ToLower(strings.TrimSpace(user.Email)),
		user.FirstName,
		user.LastName,
		user.PasswordHash,
		user.Role,
		formatTime(user.CreatedAt),
		formatTime(user.UpdatedAt),
	)
	return mapError(err)
}

// GetUser retrieves a user by id.
func (r *UserRepository) GetUser(ctx context.Context, id string) (persistence.User, error) {
	if id == "" {
		return persistence.User{}, persistence.ErrNotFound
	}
	row := r.pool.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	user, err := scanUser(row)
	if err != nil {
		return persistence.User{}, mapError(err)
	}
	return user, nil
}

// GetUserByEmail retrieves a user by email, case-insensitively.
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (persistence.User, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))
	if normalized == "" {
		return persistence.User{}, persistence.ErrNotFound
	}
	row := r.pool.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, normalized)
	user, err := scanUser(row)
	if err != nil {
		return persistence.User{}, mapError(err)
	}
	return user, nil
}

// FirstAdminID returns the lowest-id user carrying the ADMIN role.
func (r *UserRepository) FirstAdminID(ctx context.Context) (string, error) {
	var id string
	err := r.pool.db.QueryRowContext(ctx, `
		SELECT id FROM users WHERE role = 'ADMIN' ORDER BY id LIMIT 1
	`).Scan(&id)
	if err != nil {
		return "", mapError(err)
	}
	return id, nil
}

// ManagerForUser returns the manager of any team the user belongs to.
func (r *UserRepository) ManagerForUser(ctx context.Context, userID string) (string, error) {
	var managerID string
	err := r.pool.db.QueryRowContext(ctx, `
		SELECT t.manager_user_id
		FROM team_members tm
		JOIN teams t ON t.id = tm.team_id
		WHERE tm.user_id = ? AND t.manager_user_id IS NOT NULL
		LIMIT 1
	`, userID).Scan(&managerID)
	if err != nil {
		return "", mapError(err)
	}
	return managerID, nil
}

// IsManagerOfTeam reports whether the user manages the team.
func (r *UserRepository) IsManagerOfTeam(ctx context.Context, userID, teamID string) (bool, error) {
	var one int
	err := r.pool.db.QueryRowContext(ctx, `
		SELECT 1 FROM teams WHERE id = ? AND manager_user_id = ? LIMIT 1
	`, teamID, userID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, mapError(err)
	}
	return true, nil
}

// ManagesUser reports whether managerID owns a team userID belongs to.
func (r *UserRepository) ManagesUser(ctx context.Context, managerID, userID string) (bool, error) {
	var one int
	err := r.pool.db.QueryRowContext(ctx, `
		SELECT 1
		FROM team_members tm
		JOIN teams t ON t.id = tm.team_id
		WHERE tm.user_id = ? AND t.manager_user_id = ?
		LIMIT 1
	`, userID, managerID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, mapError(err)
	}
	return true, nil
}

// HasProjectAccess reports whether the user manages, created or is a member
// of the project.
func (r *UserRepository) HasProjectAccess(ctx context.Context, userID, projectID string) (bool, error) {
	var one int
	err := r.pool.db.QueryRowContext(ctx, `
		SELECT 1
		FROM projects p
		LEFT JOIN project_members pm ON pm.project_id = p.id AND pm.user_id = ?
		WHERE p.id = ?
		  AND (p.manager_id = ? OR p.created_by = ? OR pm.user_id IS NOT NULL)
		LIMIT 1
	`, userID, projectID, userID, userID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, mapError(err)
	}
	return true, nil
}

// GetTeam retrieves a team by id.
func (r *UserRepository) GetTeam(ctx context.Context, id string) (persistence.Team, error) {
	if id == "" {
		return persistence.Team{}, persistence.ErrNotFound
	}
	var (
		team                 persistence.Team
		managerID            sql.NullString
		createdAt, updatedAt string
	)
	err := r.pool.db.QueryRowContext(ctx, `
		SELECT id, name, manager_user_id, created_at, updated_at FROM teams WHERE id = ?
	`, id).Scan(&team.ID, &team.Name, &managerID, &createdAt, &updatedAt)
	if err != nil {
		return persistence.Team{}, mapError(err)
	}
	team.ManagerUserID = stringPtr(managerID)
	if team.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Team{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if team.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.Team{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return team, nil
}

// ListTeamMembers returns the team's members ordered by name.
func (r *UserRepository) ListTeamMembers(ctx context.Context, teamID string) ([]persistence.User, error) {
	rows, err := r.pool.db.QueryContext(ctx, `
		SELECT u.id, u.email, u.first_name, u.last_name, u.password_hash, u.role, u.created_at, u.updated_at
		FROM team_members tm
		JOIN users u ON u.id = tm.user_id
		WHERE tm.team_id = ?
		ORDER BY u.last_name, u.first_name
	`, teamID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var members []persistence.User
	for rows.Next() {
		member, err := scanUser(rows)
		if err != nil {
			return nil, mapError(err)
		}
		members = append(members, member)
	}
	return members, rows.Err()
}
