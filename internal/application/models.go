package application

import "time"

// Task statuses mirrored from the task catalog.
const (
	TaskStatusTodo       = "TODO"
	TaskStatusInProgress = "IN_PROGRESS"
	TaskStatusBlocked    = "BLOCKED"
	TaskStatusDone       = "DONE"
)

// Validation statuses shared by day and team close approvals.
const (
	ValidationPending  = "PENDING"
	ValidationApproved = "APPROVED"
	ValidationRejected = "REJECTED"
)

// User represents an employee account exposed by the application services.
type User struct {
	ID        string
	Email     string
	FirstName string
	LastName  string
	Role      Role
	CreatedAt time.Time
	UpdatedAt time.Time
}

// UserCredentials models the authentication attributes persisted for a user.
type UserCredentials struct {
	User         User
	PasswordHash string
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

// AuthenticateParams captures the data required to authenticate a user.
type AuthenticateParams struct {
	Email    string
	Password string
}

// AuthenticateResult captures the outcome of a successful login.
type AuthenticateResult struct {
	User    User
	Session AuthSession
}

// Team represents a team with an optional manager.
type Team struct {
	ID            string
	Name          string
	ManagerUserID *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Task is the subset of the task catalog the tracker consumes.
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

// Open reports whether the session is still running.
func (s WorkSession) Open() bool { return s.EndTime == nil }

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

// DayClosePreview reports the live state of the caller's current day without
// mutating anything.
type DayClosePreview struct {
	Date          string
	OpenSession   bool
	AlreadyClosed bool
	LastClosedAt  *time.Time
	TotalMinutes  int
	TasksDone     int
}

// CloseDayResult carries the closure row plus whether it was newly created.
type CloseDayResult struct {
	Close   DayClose
	Created bool
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

// SubmitParams identifies the closure to submit for validation. When both
// fields are empty the caller's closure for today is used.
type SubmitParams struct {
	DayCloseID string
	Date       string
}

// SubmitResult carries the validation id plus whether a new row was created.
type SubmitResult struct {
	Validation DayCloseValidation
	Created    bool
}

// PendingDayClose pairs a pending validation with its closure and owner.
type PendingDayClose struct {
	Validation DayCloseValidation
	Close      DayClose
	User       User
}

// DayCloseStatus reports the caller's closure and validation for one date.
type DayCloseStatus struct {
	Close      DayClose
	Validation *DayCloseValidation
}

// DecideParams captures a validator's decision.
type DecideParams struct {
	ValidationID string
	Status       string
	Comment      *string
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

// TeamMemberStatus reports one member's submission state within a preview.
type TeamMemberStatus struct {
	User             User
	Close            *DayClose
	ValidationStatus *string
}

// TeamClosePreview is the read-only aggregate a manager sees before closing.
type TeamClosePreview struct {
	Date             string
	MembersTotal     int
	MembersSubmitted int
	TotalMinutes     int
	TasksDoneTotal   int
	Members          []TeamMemberStatus
	Close            *TeamClose
	Validation       *TeamCloseValidation
}

// CloseTeamParams captures a team closure request.
type CloseTeamParams struct {
	TeamID  string
	Date    string
	Comment *string
}

// PendingTeamClose pairs a pending team validation with its closure, team and
// manager details.
type PendingTeamClose struct {
	Validation TeamCloseValidation
	Close      TeamClose
	TeamName   string
	Manager    User
}
