package application

import (
	"context"
	"errors"
	"testing"
	"time"
)

type teamCloseStoreStub struct {
	existing  TeamClose
	lookupErr error
	created   TeamClose
	createErr error
	updated   TeamClose
	hasUpdate bool
}

func (s *teamCloseStoreStub) CreateTeamClose(ctx context.Context, close TeamClose) (TeamClose, error) {
	if s.createErr != nil {
		return TeamClose{}, s.createErr
	}
	s.created = close
	return close, nil
}

func (s *teamCloseStoreStub) UpdateTeamClose(ctx context.Context, close TeamClose) (TeamClose, error) {
	s.updated = close
	s.hasUpdate = true
	return close, nil
}

func (s *teamCloseStoreStub) GetTeamClose(ctx context.Context, id string) (TeamClose, error) {
	if s.hasUpdate {
		return s.updated, nil
	}
	if s.created.ID != "" {
		return s.created, nil
	}
	if s.existing.ID != "" {
		return s.existing, nil
	}
	return TeamClose{}, ErrNotFound
}

func (s *teamCloseStoreStub) TeamCloseOn(ctx context.Context, teamID, date string) (TeamClose, error) {
	if s.lookupErr != nil {
		return TeamClose{}, s.lookupErr
	}
	return s.existing, nil
}

type teamCloseValidationStoreStub struct {
	existing    TeamCloseValidation
	existingErr error
	created     TeamCloseValidation
	resetCalled bool
	byID        TeamCloseValidation
	byIDErr     error
	decided     TeamCloseValidation
	pending     []PendingTeamClose
}

func (s *teamCloseValidationStoreStub) CreateTeamCloseValidation(ctx context.Context, validation TeamCloseValidation) (TeamCloseValidation, error) {
	s.created = validation
	return validation, nil
}

func (s *teamCloseValidationStoreStub) GetTeamCloseValidation(ctx context.Context, id string) (TeamCloseValidation, error) {
	if s.byIDErr != nil {
		return TeamCloseValidation{}, s.byIDErr
	}
	if s.byID.ID == "" {
		return TeamCloseValidation{}, ErrNotFound
	}
	return s.byID, nil
}

func (s *teamCloseValidationStoreStub) ValidationForTeamClose(ctx context.Context, teamCloseID string) (TeamCloseValidation, error) {
	if s.existingErr != nil {
		return TeamCloseValidation{}, s.existingErr
	}
	return s.existing, nil
}

func (s *teamCloseValidationStoreStub) ResetTeamCloseValidation(ctx context.Context, id string) (TeamCloseValidation, error) {
	s.resetCalled = true
	reset := s.existing
	reset.Status = ValidationPending
	reset.Comment = nil
	reset.DecidedAt = nil
	return reset, nil
}

func (s *teamCloseValidationStoreStub) DecideTeamCloseValidation(ctx context.Context, id, status string, comment *string, decidedAt time.Time) (TeamCloseValidation, error) {
	decided := s.byID
	decided.Status = status
	decided.Comment = comment
	decided.DecidedAt = &decidedAt
	s.decided = decided
	return decided, nil
}

func (s *teamCloseValidationStoreStub) ListPendingTeamCloses(ctx context.Context) ([]PendingTeamClose, error) {
	return s.pending, nil
}

type memberCloseSourceStub struct {
	closes      []DayClose
	validations map[string]DayCloseValidation
}

func (s *memberCloseSourceStub) ListDayClosesOn(ctx context.Context, userIDs []string, date string) ([]DayClose, error) {
	out := make([]DayClose, len(s.closes))
	copy(out, s.closes)
	return out, nil
}

func (s *memberCloseSourceStub) ValidationForDayClose(ctx context.Context, dayCloseID string) (DayCloseValidation, error) {
	if validation, ok := s.validations[dayCloseID]; ok {
		return validation, nil
	}
	return DayCloseValidation{}, ErrNotFound
}

type teamDirectoryStub struct {
	team     Team
	teamErr  error
	owner    bool
	members  []User
	adminID  string
	adminErr error
}

func (s *teamDirectoryStub) GetTeam(ctx context.Context, id string) (Team, error) {
	if s.teamErr != nil {
		return Team{}, s.teamErr
	}
	return s.team, nil
}

func (s *teamDirectoryStub) IsManagerOfTeam(ctx context.Context, userID, teamID string) (bool, error) {
	return s.owner, nil
}

func (s *teamDirectoryStub) ListTeamMembers(ctx context.Context, teamID string) ([]User, error) {
	out := make([]User, len(s.members))
	copy(out, s.members)
	return out, nil
}

func (s *teamDirectoryStub) FirstAdminID(ctx context.Context) (string, error) {
	if s.adminErr != nil {
		return "", s.adminErr
	}
	return s.adminID, nil
}

func threeMemberTeam() *teamDirectoryStub {
	return &teamDirectoryStub{
		team: Team{ID: "team-1", Name: "Platform"},
		members: []User{
			{ID: "user-1", FirstName: "Ada"},
			{ID: "user-2", FirstName: "Ben"},
			{ID: "user-3", FirstName: "Cleo"},
		},
		adminID: "admin-1",
	}
}

func TestTeamCloseService_Preview_RequiresTeamID(t *testing.T) {
	t.Parallel()

	svc := NewTeamCloseService(&teamCloseStoreStub{}, &teamCloseValidationStoreStub{}, &memberCloseSourceStub{}, threeMemberTeam(), nil, nil, nil)

	_, err := svc.Preview(context.Background(), Principal{UserID: "admin-1", Role: RoleAdmin}, "", "")

	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, ok := vErr.FieldErrors["team_id"]; !ok {
		t.Fatalf("expected team_id validation error, got %v", vErr.FieldErrors)
	}
}

func TestTeamCloseService_Preview_BlocksManagersOfOtherTeams(t *testing.T) {
	t.Parallel()

	directory := threeMemberTeam()
	directory.owner = false
	svc := NewTeamCloseService(&teamCloseStoreStub{}, &teamCloseValidationStoreStub{}, &memberCloseSourceStub{}, directory, nil, nil, nil)

	_, err := svc.Preview(context.Background(), Principal{UserID: "manager-2", Role: RoleManager}, "team-1", "")

	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for a foreign manager, got %v", err)
	}
}

func TestTeamCloseService_Preview_RejectsEmployees(t *testing.T) {
	t.Parallel()

	svc := NewTeamCloseService(&teamCloseStoreStub{}, &teamCloseValidationStoreStub{}, &memberCloseSourceStub{}, threeMemberTeam(), nil, nil, nil)

	_, err := svc.Preview(context.Background(), Principal{UserID: "user-1", Role: RoleEmployee}, "team-1", "")

	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for employees, got %v", err)
	}
}

func TestTeamCloseService_Preview_AggregatesMemberSubmissions(t *testing.T) {
	t.Parallel()

	directory := threeMemberTeam()
	directory.owner = true
	members := &memberCloseSourceStub{
		closes: []DayClose{
			{ID: "close-1", UserID: "user-1", CloseDate: "2025-06-02", TotalMinutes: 90, TasksDone: 1},
			{ID: "close-2", UserID: "user-2", CloseDate: "2025-06-02", TotalMinutes: 60, TasksDone: 2},
		},
		validations: map[string]DayCloseValidation{
			"close-1": {ID: "validation-1", DayCloseID: "close-1", Status: ValidationApproved},
		},
	}
	closes := &teamCloseStoreStub{lookupErr: ErrNotFound}
	svc := NewTeamCloseService(closes, &teamCloseValidationStoreStub{}, members, directory, nil, fixedClock(t, 18, 0), nil)

	preview, err := svc.Preview(context.Background(), Principal{UserID: "manager-1", Role: RoleManager}, "team-1", "2025-06-02")
	if err != nil {
		t.Fatalf("expected preview to succeed, got %v", err)
	}

	if preview.MembersTotal != 3 || preview.MembersSubmitted != 2 {
		t.Fatalf("expected 2 of 3 members submitted, got %d of %d", preview.MembersSubmitted, preview.MembersTotal)
	}
	if preview.TotalMinutes != 150 || preview.TasksDoneTotal != 3 {
		t.Fatalf("expected aggregate 150 minutes and 3 tasks, got %d/%d", preview.TotalMinutes, preview.TasksDoneTotal)
	}
	if len(preview.Members) != 3 {
		t.Fatalf("expected one status row per member, got %d", len(preview.Members))
	}

	byUser := map[string]TeamMemberStatus{}
	for _, status := range preview.Members {
		byUser[status.User.ID] = status
	}
	if status := byUser["user-1"]; status.Close == nil || status.ValidationStatus == nil || *status.ValidationStatus != ValidationApproved {
		t.Fatalf("expected user-1 submitted and approved, got %+v", status)
	}
	if status := byUser["user-2"]; status.Close == nil || status.ValidationStatus != nil {
		t.Fatalf("expected user-2 submitted without a validation, got %+v", status)
	}
	if status := byUser["user-3"]; status.Close != nil {
		t.Fatalf("expected user-3 without a submission, got %+v", status)
	}
}

func TestTeamCloseService_CloseTeam_CreatesAggregateAndPendingValidation(t *testing.T) {
	t.Parallel()

	directory := threeMemberTeam()
	directory.owner = true
	members := &memberCloseSourceStub{
		closes: []DayClose{
			{ID: "close-1", UserID: "user-1", CloseDate: "2025-06-02", TotalMinutes: 90, TasksDone: 1},
			{ID: "close-2", UserID: "user-2", CloseDate: "2025-06-02", TotalMinutes: 60, TasksDone: 2},
		},
	}
	closes := &teamCloseStoreStub{lookupErr: ErrNotFound}
	validations := &teamCloseValidationStoreStub{existingErr: ErrNotFound}
	svc := NewTeamCloseService(closes, validations, members, directory, func() string { return "team-close-new" }, fixedClock(t, 18, 0), nil)

	close, err := svc.CloseTeam(context.Background(), Principal{UserID: "manager-1", Role: RoleManager}, CloseTeamParams{
		TeamID: "team-1",
		Date:   "2025-06-02",
	})
	if err != nil {
		t.Fatalf("expected team closure to succeed, got %v", err)
	}

	if close.MembersTotal != 3 || close.MembersSubmitted != 2 {
		t.Fatalf("expected 2 of 3 members in the aggregate, got %d of %d", close.MembersSubmitted, close.MembersTotal)
	}
	if close.TotalMinutes != 150 || close.TasksDoneTotal != 3 {
		t.Fatalf("expected aggregate 150 minutes and 3 tasks, got %d/%d", close.TotalMinutes, close.TasksDoneTotal)
	}
	if validations.created.TeamCloseID != "team-close-new" || validations.created.ValidatorUserID != "admin-1" {
		t.Fatalf("expected a pending validation routed to admin-1, got %+v", validations.created)
	}
	if validations.created.Status != ValidationPending {
		t.Fatalf("expected PENDING status, got %q", validations.created.Status)
	}
}

func TestTeamCloseService_CloseTeam_RecomputesExistingClosure(t *testing.T) {
	t.Parallel()

	directory := threeMemberTeam()
	directory.owner = true
	members := &memberCloseSourceStub{
		closes: []DayClose{
			{ID: "close-1", UserID: "user-1", CloseDate: "2025-06-02", TotalMinutes: 200, TasksDone: 2},
		},
	}
	closes := &teamCloseStoreStub{existing: TeamClose{
		ID:               "team-close-1",
		TeamID:           "team-1",
		ManagerUserID:    "manager-1",
		CloseDate:        "2025-06-02",
		MembersTotal:     3,
		MembersSubmitted: 2,
		TotalMinutes:     150,
		TasksDoneTotal:   3,
	}}
	validations := &teamCloseValidationStoreStub{existing: TeamCloseValidation{
		ID:          "validation-1",
		TeamCloseID: "team-close-1",
		Status:      ValidationPending,
	}}
	svc := NewTeamCloseService(closes, validations, members, directory, nil, fixedClock(t, 19, 0), nil)

	close, err := svc.CloseTeam(context.Background(), Principal{UserID: "manager-1", Role: RoleManager}, CloseTeamParams{
		TeamID: "team-1",
		Date:   "2025-06-02",
	})
	if err != nil {
		t.Fatalf("expected re-closure to succeed, got %v", err)
	}

	if close.ID != "team-close-1" {
		t.Fatalf("expected the existing closure to be updated, got %q", close.ID)
	}
	if close.MembersSubmitted != 1 || close.TotalMinutes != 200 || close.TasksDoneTotal != 2 {
		t.Fatalf("expected recomputed aggregate 1/200/2, got %d/%d/%d", close.MembersSubmitted, close.TotalMinutes, close.TasksDoneTotal)
	}
	if validations.resetCalled {
		t.Fatalf("expected pending validation to stay untouched")
	}
}

func TestTeamCloseService_CloseTeam_ResetsDecidedValidation(t *testing.T) {
	t.Parallel()

	decidedAt := time.Date(2025, 6, 2, 18, 0, 0, 0, time.UTC)
	directory := threeMemberTeam()
	directory.owner = true
	closes := &teamCloseStoreStub{existing: TeamClose{
		ID:        "team-close-1",
		TeamID:    "team-1",
		CloseDate: "2025-06-02",
	}}
	validations := &teamCloseValidationStoreStub{existing: TeamCloseValidation{
		ID:          "validation-1",
		TeamCloseID: "team-close-1",
		Status:      ValidationRejected,
		DecidedAt:   &decidedAt,
	}}
	svc := NewTeamCloseService(closes, validations, &memberCloseSourceStub{}, directory, nil, fixedClock(t, 19, 0), nil)

	if _, err := svc.CloseTeam(context.Background(), Principal{UserID: "manager-1", Role: RoleManager}, CloseTeamParams{
		TeamID: "team-1",
		Date:   "2025-06-02",
	}); err != nil {
		t.Fatalf("expected re-closure to succeed, got %v", err)
	}

	if !validations.resetCalled {
		t.Fatalf("expected the rejected validation to return to PENDING")
	}
}

func TestTeamCloseService_CloseTeam_FailsWithoutAdminValidator(t *testing.T) {
	t.Parallel()

	directory := threeMemberTeam()
	directory.owner = true
	directory.adminErr = ErrNotFound
	closes := &teamCloseStoreStub{lookupErr: ErrNotFound}
	validations := &teamCloseValidationStoreStub{existingErr: ErrNotFound}
	svc := NewTeamCloseService(closes, validations, &memberCloseSourceStub{}, directory, nil, fixedClock(t, 19, 0), nil)

	_, err := svc.CloseTeam(context.Background(), Principal{UserID: "manager-1", Role: RoleManager}, CloseTeamParams{TeamID: "team-1"})

	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound when no admin exists, got %v", err)
	}
}

func TestTeamCloseService_CloseTeam_RejectsEmployees(t *testing.T) {
	t.Parallel()

	svc := NewTeamCloseService(&teamCloseStoreStub{}, &teamCloseValidationStoreStub{}, &memberCloseSourceStub{}, threeMemberTeam(), nil, nil, nil)

	_, err := svc.CloseTeam(context.Background(), Principal{UserID: "user-1", Role: RoleEmployee}, CloseTeamParams{TeamID: "team-1"})

	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for employees, got %v", err)
	}
}

func TestTeamCloseService_CloseTeam_ValidatesDate(t *testing.T) {
	t.Parallel()

	directory := threeMemberTeam()
	svc := NewTeamCloseService(&teamCloseStoreStub{}, &teamCloseValidationStoreStub{}, &memberCloseSourceStub{}, directory, nil, nil, nil)

	_, err := svc.CloseTeam(context.Background(), Principal{UserID: "admin-1", Role: RoleAdmin}, CloseTeamParams{
		TeamID: "team-1",
		Date:   "02.06.2025",
	})

	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, ok := vErr.FieldErrors["date"]; !ok {
		t.Fatalf("expected date validation error, got %v", vErr.FieldErrors)
	}
}
