package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/workforce-tracker/internal/persistence"
)

// TaskRepository implements persistence.TaskRepository using SQLite.
type TaskRepository struct {
	pool *ConnectionPool
}

// NewTaskRepository creates a new SQLite task repository.
func NewTaskRepository(pool *ConnectionPool) *TaskRepository {
	return &TaskRepository{pool: pool}
}

// todayWindow is the SQL rendering of the "today" task predicate: due on the
// date, or without a due date and created on the date. It must stay in sync
// with application.TaskMatchesDay.
const todayWindow = `(t.due_date = ? OR (t.due_date IS NULL AND substr(t.created_at, 1, 10) = ?))`

// CreateTask inserts a task together with its assignees.
func (r *TaskRepository) CreateTask(ctx context.Context, task persistence.Task, assigneeIDs []string) error {
	if task.ID == "" {
		return persistence.ErrConflict
	}
	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO tasks (id, title, status, due_date, team_id, project_id, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`,
			task.ID,
			task.Title,
			task.Status,
			nullString(task.DueDate),
			nullString(task.TeamID),
			nullString(task.ProjectID),
			formatTime(task.CreatedAt),
			formatTime(task.UpdatedAt),
		)
		if err != nil {
			return mapError(err)
		}
		for _, userID := range assigneeIDs {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO task_assignees (task_id, user_id) VALUES (?, ?)
			`, task.ID, userID); err != nil {
				return mapError(err)
			}
		}
		return nil
	})
}

// GetTask retrieves a task by id.
func (r *TaskRepository) GetTask(ctx context.Context, id string) (persistence.Task, error) {
	if id == "" {
		return persistence.Task{}, persistence.ErrNotFound
	}
	var (
		task                       persistence.Task
		dueDate, teamID, projectID sql.NullString
		createdAt, updatedAt       string
	)
	err := r.pool.db.QueryRowContext(ctx, `
		SELECT id, title, status, due_date, team_id, project_id, created_at, updated_at
		FROM tasks WHERE id = ?
	`, id).Scan(&task.ID, &task.Title, &task.Status, &dueDate, &teamID, &projectID, &createdAt, &updatedAt)
	if err != nil {
		return persistence.Task{}, mapError(err)
	}
	task.DueDate = stringPtr(dueDate)
	task.TeamID = stringPtr(teamID)
	task.ProjectID = stringPtr(projectID)
	if task.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Task{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if task.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.Task{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return task, nil
}

// MarkInProgress moves the task to IN_PROGRESS unless it is already DONE.
func (r *TaskRepository) MarkInProgress(ctx context.Context, id string, at time.Time) error {
	_, err := r.pool.db.ExecContext(ctx, `
		UPDATE tasks SET status = 'IN_PROGRESS', updated_at = ?
		WHERE id = ? AND status <> 'DONE'
	`, formatTime(at), id)
	return mapError(err)
}

// IsAssignee reports whether the user is assigned to the task.
func (r *TaskRepository) IsAssignee(ctx context.Context, taskID, userID string) (bool, error) {
	var one int
	err := r.pool.db.QueryRowContext(ctx, `
		SELECT 1 FROM task_assignees WHERE task_id = ? AND user_id = ? LIMIT 1
	`, taskID, userID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, mapError(err)
	}
	return true, nil
}

// CountAssignedDoneOn counts the user's assigned DONE tasks in the date
// window.
func (r *TaskRepository) CountAssignedDoneOn(ctx context.Context, userID, date string) (int, error) {
	var count int
	err := r.pool.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM tasks t
		JOIN task_assignees ta ON ta.task_id = t.id
		WHERE ta.user_id = ?
		  AND `+todayWindow+`
		  AND t.status = 'DONE'
	`, userID, date, date).Scan(&count)
	if err != nil {
		return 0, mapError(err)
	}
	return count, nil
}

// HasAssignedActivitySince reports whether any of the user's tasks in the
// date window was created or updated after the reference instant.
func (r *TaskRepository) HasAssignedActivitySince(ctx context.Context, userID, date string, since time.Time) (bool, error) {
	reference := formatTime(since)
	var one int
	err := r.pool.db.QueryRowContext(ctx, `
		SELECT 1
		FROM tasks t
		JOIN task_assignees ta ON ta.task_id = t.id
		WHERE ta.user_id = ?
		  AND `+todayWindow+`
		  AND (t.created_at > ? OR t.updated_at > ?)
		LIMIT 1
	`, userID, date, date, reference, reference).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, mapError(err)
	}
	return true, nil
}
