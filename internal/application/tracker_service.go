package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// WorkSessionStore captures the persistence interactions for tracked
// intervals.
type WorkSessionStore interface {
	// CreateWorkSession inserts an open session and returns ErrConflict when
	// the user already has one.
	CreateWorkSession(ctx context.Context, session WorkSession) (WorkSession, error)
	GetWorkSession(ctx context.Context, id string) (WorkSession, error)
	FinishWorkSession(ctx context.Context, id string, end time.Time, minutes int) (WorkSession, error)
	// OpenWorkSession returns the user's open session, ErrNotFound if none.
	OpenWorkSession(ctx context.Context, userID string) (WorkSession, error)
	ListWorkSessions(ctx context.Context, userID string, date *string) ([]WorkSession, error)
}

// TaskCatalog exposes the task lookups the tracker needs.
type TaskCatalog interface {
	GetTask(ctx context.Context, id string) (Task, error)
	// MarkInProgress moves the task to IN_PROGRESS unless it is already DONE.
	MarkInProgress(ctx context.Context, id string, at time.Time) error
	IsAssignee(ctx context.Context, taskID, userID string) (bool, error)
}

// TrackerDirectory resolves the membership facts behind task access checks.
type TrackerDirectory interface {
	IsManagerOfTeam(ctx context.Context, userID, teamID string) (bool, error)
	HasProjectAccess(ctx context.Context, userID, projectID string) (bool, error)
}

// TrackerService starts and stops work sessions.
type TrackerService struct {
	sessions  WorkSessionStore
	tasks     TaskCatalog
	directory TrackerDirectory
	newID     func() string
	now       func() time.Time
	logger    *slog.Logger
}

// NewTrackerService constructs a TrackerService with the provided dependencies.
func NewTrackerService(sessions WorkSessionStore, tasks TaskCatalog, directory TrackerDirectory, newID func() string, now func() time.Time, logger *slog.Logger) *TrackerService {
	if newID == nil {
		newID = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &TrackerService{
		sessions:  sessions,
		tasks:     tasks,
		directory: directory,
		newID:     newID,
		now:       now,
		logger:    defaultLogger(logger),
	}
}

func (s *TrackerService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "TrackerService", operation, attrs...)
}

// StartParams captures a session start request.
type StartParams struct {
	Principal Principal
	TaskID    *string
}

// Start opens a new work session for the caller, optionally bound to a task.
func (s *TrackerService) Start(ctx context.Context, params StartParams) (session WorkSession, err error) {
	if s == nil || s.sessions == nil {
		err = fmt.Errorf("tracker service not configured")
		return
	}

	uid := params.Principal.UserID
	logger := s.loggerWith(ctx, "Start", "user_id", uid)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to start session", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("session_id", session.ID).InfoContext(ctx, "session started")
	}()

	if uid == "" {
		err = ErrUnauthorized
		return
	}

	if _, openErr := s.sessions.OpenWorkSession(ctx, uid); openErr == nil {
		err = conflict("a session is already running")
		return
	} else if !errors.Is(openErr, ErrNotFound) {
		err = openErr
		return
	}

	var task *Task
	if params.TaskID != nil && *params.TaskID != "" {
		var found Task
		found, err = s.tasks.GetTask(ctx, *params.TaskID)
		if err != nil {
			return
		}
		task = &found

		if err = s.authorizeTaskAccess(ctx, params.Principal, found); err != nil {
			return
		}
	}

	now := s.now()
	created := WorkSession{
		ID:        s.newID(),
		UserID:    uid,
		StartTime: now,
		CreatedAt: now,
	}
	if task != nil {
		id := task.ID
		created.TaskID = &id
	}

	session, err = s.sessions.CreateWorkSession(ctx, created)
	if err != nil {
		if errors.Is(err, ErrConflict) {
			err = conflict("a session is already running")
		}
		return
	}

	if task != nil && task.Status != TaskStatusDone {
		if err = s.tasks.MarkInProgress(ctx, task.ID, now); err != nil {
			return
		}
	}
	return
}

// authorizeTaskAccess applies the per-role task access rules: admins always,
// managers when they manage the task's team or can access its project,
// employees only when assigned.
func (s *TrackerService) authorizeTaskAccess(ctx context.Context, principal Principal, task Task) error {
	switch principal.Role {
	case RoleAdmin:
		return nil
	case RoleManager:
		if task.TeamID != nil {
			ok, err := s.directory.IsManagerOfTeam(ctx, principal.UserID, *task.TeamID)
			if err != nil {
				return err
			}
			if ok {
				return nil
			}
		}
		if task.ProjectID != nil {
			ok, err := s.directory.HasProjectAccess(ctx, principal.UserID, *task.ProjectID)
			if err != nil {
				return err
			}
			if ok {
				return nil
			}
		}
		return ErrForbidden
	default:
		ok, err := s.tasks.IsAssignee(ctx, task.ID, principal.UserID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrForbidden
		}
		return nil
	}
}

// StopParams captures a session stop request.
type StopParams struct {
	Principal Principal
	SessionID string
}

// Stop finishes the caller's open session and records the elapsed minutes.
func (s *TrackerService) Stop(ctx context.Context, params StopParams) (session WorkSession, err error) {
	if s == nil || s.sessions == nil {
		err = fmt.Errorf("tracker service not configured")
		return
	}

	logger := s.loggerWith(ctx, "Stop", "user_id", params.Principal.UserID, "session_id", params.SessionID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to stop session", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "session stopped", "duration_minutes", session.DurationMinutes)
	}()

	if params.SessionID == "" {
		vErr := &ValidationError{}
		vErr.add("session_id", "session_id is required")
		err = vErr
		return
	}

	var current WorkSession
	current, err = s.sessions.GetWorkSession(ctx, params.SessionID)
	if err != nil {
		return
	}

	if current.UserID != params.Principal.UserID {
		err = ErrForbidden
		return
	}
	if !current.Open() {
		err = conflict("this session is already finished")
		return
	}

	now := s.now()
	minutes := int(now.Sub(current.StartTime).Minutes())
	if minutes < 0 {
		minutes = 0
	}

	session, err = s.sessions.FinishWorkSession(ctx, current.ID, now, minutes)
	return
}

// Open returns the caller's running session, or ErrNotFound when none exists.
func (s *TrackerService) Open(ctx context.Context, principal Principal) (WorkSession, error) {
	if s == nil || s.sessions == nil {
		return WorkSession{}, fmt.Errorf("tracker service not configured")
	}
	return s.sessions.OpenWorkSession(ctx, principal.UserID)
}

// ListMy returns the caller's sessions, optionally restricted to one date.
func (s *TrackerService) ListMy(ctx context.Context, principal Principal, date *string) ([]WorkSession, error) {
	if s == nil || s.sessions == nil {
		return nil, fmt.Errorf("tracker service not configured")
	}
	if date != nil {
		normalized, err := ParseDate(*date)
		if err != nil {
			vErr := &ValidationError{}
			vErr.add("date", "date must be formatted YYYY-MM-DD")
			return nil, vErr
		}
		date = &normalized
	}
	return s.sessions.ListWorkSessions(ctx, principal.UserID, date)
}
