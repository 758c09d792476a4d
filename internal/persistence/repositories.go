package persistence

import (
	"context"
	"time"
)

// UserRepository exposes the directory lookups required by the services.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	// FirstAdminID returns the lowest-id user carrying the ADMIN role.
	FirstAdminID(ctx context.Context) (string, error)
	// ManagerForUser returns the manager of any team the user belongs to.
	ManagerForUser(ctx context.Context, userID string) (string, error)
	IsManagerOfTeam(ctx context.Context, userID, teamID string) (bool, error)
	// ManagesUser reports whether managerID owns a team userID belongs to.
	ManagesUser(ctx context.Context, managerID, userID string) (bool, error)
	HasProjectAccess(ctx context.Context, userID, projectID string) (bool, error)
	GetTeam(ctx context.Context, id string) (Team, error)
	ListTeamMembers(ctx context.Context, teamID string) ([]User, error)
}

// TaskRepository exposes task lookups and the single status side effect the
// tracker performs.
type TaskRepository interface {
	CreateTask(ctx context.Context, task Task, assigneeIDs []string) error
	GetTask(ctx context.Context, id string) (Task, error)
	// MarkInProgress moves the task to IN_PROGRESS unless it is already DONE.
	MarkInProgress(ctx context.Context, id string, at time.Time) error
	IsAssignee(ctx context.Context, taskID, userID string) (bool, error)
	// CountAssignedDoneOn counts the user's assigned DONE tasks whose due
	// window matches the given date.
	CountAssignedDoneOn(ctx context.Context, userID, date string) (int, error)
	// HasAssignedActivitySince reports whether any of the user's tasks in the
	// given date window was created or updated after the reference instant.
	HasAssignedActivitySince(ctx context.Context, userID, date string, since time.Time) (bool, error)
}

// WorkSessionRepository persists time-tracking intervals.
type WorkSessionRepository interface {
	// CreateWorkSession inserts an open session. It returns ErrConflict when
	// the user already has an open session.
	CreateWorkSession(ctx context.Context, session WorkSession) (WorkSession, error)
	GetWorkSession(ctx context.Context, id string) (WorkSession, error)
	// FinishWorkSession sets the end time and duration of an open session.
	FinishWorkSession(ctx context.Context, id string, end time.Time, minutes int) (WorkSession, error)
	// OpenWorkSession returns the user's open session, ErrNotFound if none.
	OpenWorkSession(ctx context.Context, userID string) (WorkSession, error)
	ListWorkSessions(ctx context.Context, userID string, date *string) ([]WorkSession, error)
	// SumDurationsOn sums completed session minutes started on the given date.
	SumDurationsOn(ctx context.Context, userID, date string) (int, error)
	// HasActivitySince reports whether any session on the given date started
	// or ended after the reference instant.
	HasActivitySince(ctx context.Context, userID, date string, since time.Time) (bool, error)
}

// DayCloseRepository persists day closes and their validations.
type DayCloseRepository interface {
	CreateDayClose(ctx context.Context, close DayClose) (DayClose, error)
	UpdateDayClose(ctx context.Context, close DayClose) (DayClose, error)
	GetDayClose(ctx context.Context, id string) (DayClose, error)
	// DayCloseOn returns the user's closure for the given date.
	DayCloseOn(ctx context.Context, userID, date string) (DayClose, error)
	ListDayCloses(ctx context.Context, userID string, limit int) ([]DayClose, error)
	ListDayClosesOn(ctx context.Context, userIDs []string, date string) ([]DayClose, error)

	CreateDayCloseValidation(ctx context.Context, validation DayCloseValidation) (DayCloseValidation, error)
	GetDayCloseValidation(ctx context.Context, id string) (DayCloseValidation, error)
	ValidationForDayClose(ctx context.Context, dayCloseID string) (DayCloseValidation, error)
	// ResetDayCloseValidation returns the validation to PENDING and clears the
	// decision fields.
	ResetDayCloseValidation(ctx context.Context, id string) (DayCloseValidation, error)
	DecideDayCloseValidation(ctx context.Context, id, status string, comment *string, decidedAt time.Time) (DayCloseValidation, error)
	// ListPendingDayCloses returns pending validations; a non-empty managerID
	// restricts results to closures whose owner belongs to a team that
	// manager owns.
	ListPendingDayCloses(ctx context.Context, managerID string) ([]PendingDayClose, error)
}

// TeamCloseRepository persists team closes and their validations.
type TeamCloseRepository interface {
	CreateTeamClose(ctx context.Context, close TeamClose) (TeamClose, error)
	UpdateTeamClose(ctx context.Context, close TeamClose) (TeamClose, error)
	GetTeamClose(ctx context.Context, id string) (TeamClose, error)
	// TeamCloseOn returns the team's closure for the given date.
	TeamCloseOn(ctx context.Context, teamID, date string) (TeamClose, error)

	CreateTeamCloseValidation(ctx context.Context, validation TeamCloseValidation) (TeamCloseValidation, error)
	GetTeamCloseValidation(ctx context.Context, id string) (TeamCloseValidation, error)
	ValidationForTeamClose(ctx context.Context, teamCloseID string) (TeamCloseValidation, error)
	ResetTeamCloseValidation(ctx context.Context, id string) (TeamCloseValidation, error)
	DecideTeamCloseValidation(ctx context.Context, id, status string, comment *string, decidedAt time.Time) (TeamCloseValidation, error)
	ListPendingTeamCloses(ctx context.Context) ([]PendingTeamClose, error)
}

// AuthSessionRepository persists issued bearer tokens.
type AuthSessionRepository interface {
	CreateAuthSession(ctx context.Context, session AuthSession) (AuthSession, error)
	GetAuthSession(ctx context.Context, token string) (AuthSession, error)
	RevokeAuthSession(ctx context.Context, token string, revokedAt time.Time) (AuthSession, error)
	DeleteExpiredAuthSessions(ctx context.Context, reference time.Time) error
}
