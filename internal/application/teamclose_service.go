package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// TeamCloseStore captures the persistence interactions for team closes.
type TeamCloseStore interface {
	// CreateTeamClose inserts a closure and returns ErrConflict when one
	// already exists for the team and date.
	CreateTeamClose(ctx context.Context, close TeamClose) (TeamClose, error)
	UpdateTeamClose(ctx context.Context, close TeamClose) (TeamClose, error)
	GetTeamClose(ctx context.Context, id string) (TeamClose, error)
	// TeamCloseOn returns the team's closure for the date, ErrNotFound if none.
	TeamCloseOn(ctx context.Context, teamID, date string) (TeamClose, error)
}

// TeamCloseValidationStore captures the persistence interactions for team
// close validations.
type TeamCloseValidationStore interface {
	CreateTeamCloseValidation(ctx context.Context, validation TeamCloseValidation) (TeamCloseValidation, error)
	GetTeamCloseValidation(ctx context.Context, id string) (TeamCloseValidation, error)
	ValidationForTeamClose(ctx context.Context, teamCloseID string) (TeamCloseValidation, error)
	ResetTeamCloseValidation(ctx context.Context, id string) (TeamCloseValidation, error)
	DecideTeamCloseValidation(ctx context.Context, id, status string, comment *string, decidedAt time.Time) (TeamCloseValidation, error)
	ListPendingTeamCloses(ctx context.Context) ([]PendingTeamClose, error)
}

// TeamDirectory resolves teams, membership and the admin fallback validator.
type TeamDirectory interface {
	GetTeam(ctx context.Context, id string) (Team, error)
	IsManagerOfTeam(ctx context.Context, userID, teamID string) (bool, error)
	ListTeamMembers(ctx context.Context, teamID string) ([]User, error)
	FirstAdminID(ctx context.Context) (string, error)
}

// MemberCloseSource exposes the member day-close rows a team closure
// aggregates over.
type MemberCloseSource interface {
	ListDayClosesOn(ctx context.Context, userIDs []string, date string) ([]DayClose, error)
	ValidationForDayClose(ctx context.Context, dayCloseID string) (DayCloseValidation, error)
}

// TeamCloseService aggregates member day closes into team closures.
type TeamCloseService struct {
	closes      TeamCloseStore
	validations TeamCloseValidationStore
	members     MemberCloseSource
	directory   TeamDirectory
	newID       func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewTeamCloseService constructs a TeamCloseService with the provided
// dependencies.
func NewTeamCloseService(closes TeamCloseStore, validations TeamCloseValidationStore, members MemberCloseSource, directory TeamDirectory, newID func() string, now func() time.Time, logger *slog.Logger) *TeamCloseService {
	if newID == nil {
		newID = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &TeamCloseService{
		closes:      closes,
		validations: validations,
		members:     members,
		directory:   directory,
		newID:       newID,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *TeamCloseService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "TeamCloseService", operation, attrs...)
}

// authorize verifies the caller may act on the team: admins always, managers
// only for teams they own.
func (s *TeamCloseService) authorize(ctx context.Context, principal Principal, teamID string) error {
	if _, err := s.directory.GetTeam(ctx, teamID); err != nil {
		return err
	}
	ownsTeam := false
	if principal.Role == RoleManager {
		var err error
		ownsTeam, err = s.directory.IsManagerOfTeam(ctx, principal.UserID, teamID)
		if err != nil {
			return err
		}
	}
	if !CanCloseTeam(principal, ownsTeam) {
		return ErrForbidden
	}
	return nil
}

func (s *TeamCloseService) resolveDate(date string) (string, error) {
	if date == "" {
		return DateOf(s.now()), nil
	}
	normalized, err := ParseDate(date)
	if err != nil {
		vErr := &ValidationError{}
		vErr.add("date", "date must be formatted YYYY-MM-DD")
		return "", vErr
	}
	return normalized, nil
}

// Preview returns the read-only aggregate a manager reviews before closing.
func (s *TeamCloseService) Preview(ctx context.Context, principal Principal, teamID, date string) (preview TeamClosePreview, err error) {
	if s == nil || s.closes == nil || s.directory == nil {
		err = fmt.Errorf("team close service not configured")
		return
	}
	if teamID == "" {
		vErr := &ValidationError{}
		vErr.add("team_id", "team_id is required")
		err = vErr
		return
	}
	if err = s.authorize(ctx, principal, teamID); err != nil {
		return
	}
	if date, err = s.resolveDate(date); err != nil {
		return
	}

	members, err := s.directory.ListTeamMembers(ctx, teamID)
	if err != nil {
		return
	}

	preview = TeamClosePreview{Date: date, MembersTotal: len(members)}

	memberIDs := make([]string, 0, len(members))
	for _, member := range members {
		memberIDs = append(memberIDs, member.ID)
	}

	closesByUser := make(map[string]DayClose)
	if len(memberIDs) > 0 {
		var closes []DayClose
		closes, err = s.members.ListDayClosesOn(ctx, memberIDs, date)
		if err != nil {
			return
		}
		for _, close := range closes {
			closesByUser[close.UserID] = close
			preview.TotalMinutes += close.TotalMinutes
			preview.TasksDoneTotal += close.TasksDone
		}
		preview.MembersSubmitted = len(closes)
	}

	preview.Members = make([]TeamMemberStatus, 0, len(members))
	for _, member := range members {
		status := TeamMemberStatus{User: member}
		if close, ok := closesByUser[member.ID]; ok {
			c := close
			status.Close = &c
			if validation, vErr := s.members.ValidationForDayClose(ctx, close.ID); vErr == nil {
				vs := validation.Status
				status.ValidationStatus = &vs
			} else if !errors.Is(vErr, ErrNotFound) {
				err = vErr
				return
			}
		}
		preview.Members = append(preview.Members, status)
	}

	if existing, closeErr := s.closes.TeamCloseOn(ctx, teamID, date); closeErr == nil {
		c := existing
		preview.Close = &c
		if validation, vErr := s.validations.ValidationForTeamClose(ctx, existing.ID); vErr == nil {
			v := validation
			preview.Validation = &v
		} else if !errors.Is(vErr, ErrNotFound) {
			err = vErr
			return
		}
	} else if !errors.Is(closeErr, ErrNotFound) {
		err = closeErr
		return
	}
	return
}

// upsertClose recomputes the aggregate from the current day-close rows and
// writes it, updating the existing row for (team, date) when present. The
// recomputation is authoritative; stored aggregates are never trusted.
func (s *TeamCloseService) upsertClose(ctx context.Context, teamID, managerID, date string, comment *string) (TeamClose, error) {
	members, err := s.directory.ListTeamMembers(ctx, teamID)
	if err != nil {
		return TeamClose{}, err
	}

	memberIDs := make([]string, 0, len(members))
	for _, member := range members {
		memberIDs = append(memberIDs, member.ID)
	}

	var (
		submitted    int
		totalMinutes int
		tasksDone    int
	)
	if len(memberIDs) > 0 {
		closes, err := s.members.ListDayClosesOn(ctx, memberIDs, date)
		if err != nil {
			return TeamClose{}, err
		}
		submitted = len(closes)
		for _, close := range closes {
			totalMinutes += close.TotalMinutes
			tasksDone += close.TasksDone
		}
	}

	now := s.now()
	existing, lookupErr := s.closes.TeamCloseOn(ctx, teamID, date)
	switch {
	case lookupErr == nil:
		existing.MembersTotal = len(members)
		existing.MembersSubmitted = submitted
		existing.TasksDoneTotal = tasksDone
		existing.TotalMinutes = totalMinutes
		existing.Comment = comment
		existing.ClosedAt = now
		return s.closes.UpdateTeamClose(ctx, existing)
	case !errors.Is(lookupErr, ErrNotFound):
		return TeamClose{}, lookupErr
	}

	created, err := s.closes.CreateTeamClose(ctx, TeamClose{
		ID:               s.newID(),
		TeamID:           teamID,
		ManagerUserID:    managerID,
		CloseDate:        date,
		MembersTotal:     len(members),
		MembersSubmitted: submitted,
		TasksDoneTotal:   tasksDone,
		TotalMinutes:     totalMinutes,
		Comment:          comment,
		ClosedAt:         now,
		CreatedAt:        now,
	})
	if errors.Is(err, ErrConflict) {
		// Lost a race against a concurrent closure; fold into an update.
		current, getErr := s.closes.TeamCloseOn(ctx, teamID, date)
		if getErr != nil {
			return TeamClose{}, err
		}
		current.MembersTotal = len(members)
		current.MembersSubmitted = submitted
		current.TasksDoneTotal = tasksDone
		current.TotalMinutes = totalMinutes
		current.Comment = comment
		current.ClosedAt = now
		return s.closes.UpdateTeamClose(ctx, current)
	}
	return created, err
}

// CloseTeam upserts the team closure for the date and ensures a PENDING
// validation routed to an admin.
func (s *TeamCloseService) CloseTeam(ctx context.Context, principal Principal, params CloseTeamParams) (close TeamClose, err error) {
	if s == nil || s.closes == nil || s.validations == nil || s.directory == nil {
		err = fmt.Errorf("team close service not configured")
		return
	}

	logger := s.loggerWith(ctx, "CloseTeam", "user_id", principal.UserID, "team_id", params.TeamID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to close team", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("team_close_id", close.ID).InfoContext(ctx, "team closed")
	}()

	if params.TeamID == "" {
		vErr := &ValidationError{}
		vErr.add("team_id", "team_id is required")
		err = vErr
		return
	}
	if err = s.authorize(ctx, principal, params.TeamID); err != nil {
		return
	}

	var date string
	if date, err = s.resolveDate(params.Date); err != nil {
		return
	}

	close, err = s.upsertClose(ctx, params.TeamID, principal.UserID, date, params.Comment)
	if err != nil {
		return
	}

	existing, lookupErr := s.validations.ValidationForTeamClose(ctx, close.ID)
	switch {
	case lookupErr == nil:
		if existing.Status != ValidationPending {
			if _, err = s.validations.ResetTeamCloseValidation(ctx, existing.ID); err != nil {
				return
			}
		}
	case errors.Is(lookupErr, ErrNotFound):
		var adminID string
		adminID, err = s.directory.FirstAdminID(ctx)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				err = fmt.Errorf("no validator available: %w", ErrNotFound)
			}
			return
		}
		if _, err = s.validations.CreateTeamCloseValidation(ctx, TeamCloseValidation{
			ID:              s.newID(),
			TeamCloseID:     close.ID,
			ValidatorUserID: adminID,
			Status:          ValidationPending,
			CreatedAt:       s.now(),
		}); err != nil {
			return
		}
	default:
		err = lookupErr
		return
	}

	close, err = s.closes.GetTeamClose(ctx, close.ID)
	return
}
