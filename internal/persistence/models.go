package persistence

import "time"

// User represents an employee account stored in persistence.
type User struct {
	ID           string
	Email        string
	FirstName    string
	LastName     string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Team represents a team with an optional manager.
type Team struct {
	ID            string
	Name          string
	ManagerUserID *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Task represents an assignable unit of work.
type Task struct {
	ID        string
	Title     string
	Status    string
	DueDate   *string
	TeamID    *string
	ProjectID *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// WorkSession represents a single start/stop time-tracking interval.
type WorkSession struct {
	ID              string
	UserID          string
	TaskID          *string
	StartTime       time.Time
	EndTime         *time.Time
	DurationMinutes *int
	CreatedAt       time.Time
}

// DayClose is a user's end-of-day submission for one calendar date.
type DayClose struct {
	ID           string
	UserID       string
	CloseDate    string
	TotalMinutes int
	TasksDone    int
	Comment      *string
	ClosedAt     time.Time
	CreatedAt    time.Time
}

// DayCloseValidation is the approval record attached 1:1 to a day close.
type DayCloseValidation struct {
	ID              string
	DayCloseID      string
	ValidatorUserID string
	Status          string
	Comment         *string
	DecidedAt       *time.Time
	CreatedAt       time.Time
}

// PendingDayClose joins a pending validation with its closure and owner.
type PendingDayClose struct {
	Validation DayCloseValidation
	Close      DayClose
	User       User
}

// TeamClose aggregates a team's day closes for one calendar date.
type TeamClose struct {
	ID               string
	TeamID           string
	ManagerUserID    string
	CloseDate        string
	MembersTotal     int
	MembersSubmitted int
	TasksDoneTotal   int
	TotalMinutes     int
	Comment          *string
	ClosedAt         time.Time
	CreatedAt        time.Time
}

// TeamCloseValidation is the approval record attached 1:1 to a team close.
type TeamCloseValidation struct {
	ID              string
	TeamCloseID     string
	ValidatorUserID string
	Status          string
	Comment         *string
	DecidedAt       *time.Time
	CreatedAt       time.Time
}

// PendingTeamClose joins a pending team validation with its closure, team and
// manager details.
type PendingTeamClose struct {
	Validation TeamCloseValidation
	Close      TeamClose
	Team       Team
	Manager    User
}

// AuthSession represents an issued bearer token.
type AuthSession struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	RevokedAt *time.Time
}
