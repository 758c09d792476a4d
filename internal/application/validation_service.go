package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// DayCloseValidationStore captures the persistence interactions for day close
// validations.
type DayCloseValidationStore interface {
	CreateDayCloseValidation(ctx context.Context, validation DayCloseValidation) (DayCloseValidation, error)
	GetDayCloseValidation(ctx context.Context, id string) (DayCloseValidation, error)
	// ValidationForDayClose returns the validation attached to a closure,
	// ErrNotFound if none exists yet.
	ValidationForDayClose(ctx context.Context, dayCloseID string) (DayCloseValidation, error)
	// ResetDayCloseValidation returns the validation to PENDING and clears the
	// decision fields.
	ResetDayCloseValidation(ctx context.Context, id string) (DayCloseValidation, error)
	DecideDayCloseValidation(ctx context.Context, id, status string, comment *string, decidedAt time.Time) (DayCloseValidation, error)
	// ListPendingDayCloses returns pending validations; a non-empty managerID
	// restricts results to closures owned by that manager's team members.
	ListPendingDayCloses(ctx context.Context, managerID string) ([]PendingDayClose, error)
}

// ValidatorDirectory resolves validator routing and team ownership facts.
type ValidatorDirectory interface {
	// ManagerForUser returns the manager of any team the user belongs to,
	// ErrNotFound when the user has no managed team.
	ManagerForUser(ctx context.Context, userID string) (string, error)
	// FirstAdminID returns the lowest-id admin, ErrNotFound when none exists.
	FirstAdminID(ctx context.Context) (string, error)
	// ManagesUser reports whether managerID owns a team userID belongs to.
	ManagesUser(ctx context.Context, managerID, userID string) (bool, error)
}

// ValidationService routes day closes through the approval chain.
type ValidationService struct {
	closes      DayCloseStore
	validations DayCloseValidationStore
	directory   ValidatorDirectory
	newID       func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewValidationService constructs a ValidationService with the provided
// dependencies.
func NewValidationService(closes DayCloseStore, validations DayCloseValidationStore, directory ValidatorDirectory, newID func() string, now func() time.Time, logger *slog.Logger) *ValidationService {
	if newID == nil {
		newID = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &ValidationService{
		closes:      closes,
		validations: validations,
		directory:   directory,
		newID:       newID,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *ValidationService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "ValidationService", operation, attrs...)
}

// pickValidator routes a submission: the manager of any team the user belongs
// to, otherwise the lowest-id admin.
func (s *ValidationService) pickValidator(ctx context.Context, userID string) (string, error) {
	managerID, err := s.directory.ManagerForUser(ctx, userID)
	if err == nil {
		return managerID, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return "", err
	}
	adminID, err := s.directory.FirstAdminID(ctx)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", fmt.Errorf("no validator available: %w", ErrNotFound)
		}
		return "", err
	}
	return adminID, nil
}

// Submit sends the caller's closure into the approval chain. A fresh
// submission creates a PENDING validation; re-submitting a decided one resets
// it to PENDING; re-submitting a pending one is a no-op.
func (s *ValidationService) Submit(ctx context.Context, principal Principal, params SubmitParams) (result SubmitResult, err error) {
	if s == nil || s.closes == nil || s.validations == nil {
		err = fmt.Errorf("validation service not configured")
		return
	}

	uid := principal.UserID
	logger := s.loggerWith(ctx, "Submit", "user_id", uid)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to submit day close", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("validation_id", result.Validation.ID, "created", result.Created).InfoContext(ctx, "day close submitted")
	}()

	var close DayClose
	if params.DayCloseID != "" {
		close, err = s.closes.GetDayClose(ctx, params.DayCloseID)
		if err != nil {
			return
		}
		if close.UserID != uid {
			err = ErrNotFound
			return
		}
	} else {
		date := params.Date
		if date == "" {
			date = DateOf(s.now())
		} else if date, err = ParseDate(date); err != nil {
			vErr := &ValidationError{}
			vErr.add("date", "date must be formatted YYYY-MM-DD")
			err = vErr
			return
		}
		close, err = s.closes.DayCloseOn(ctx, uid, date)
		if err != nil {
			return
		}
	}

	existing, lookupErr := s.validations.ValidationForDayClose(ctx, close.ID)
	switch {
	case lookupErr == nil:
		if existing.Status != ValidationPending {
			var reset DayCloseValidation
			reset, err = s.validations.ResetDayCloseValidation(ctx, existing.ID)
			if err != nil {
				return
			}
			result = SubmitResult{Validation: reset}
			return
		}
		result = SubmitResult{Validation: existing}
		return
	case !errors.Is(lookupErr, ErrNotFound):
		err = lookupErr
		return
	}

	validatorID, err := s.pickValidator(ctx, uid)
	if err != nil {
		return
	}

	created, err := s.validations.CreateDayCloseValidation(ctx, DayCloseValidation{
		ID:              s.newID(),
		DayCloseID:      close.ID,
		ValidatorUserID: validatorID,
		Status:          ValidationPending,
		CreatedAt:       s.now(),
	})
	if err != nil {
		return
	}
	result = SubmitResult{Validation: created, Created: true}
	return
}

// ListPending returns the pending validations visible to the caller: all of
// them for admins, only their team members' for managers.
func (s *ValidationService) ListPending(ctx context.Context, principal Principal) ([]PendingDayClose, error) {
	if s == nil || s.validations == nil {
		return nil, fmt.Errorf("validation service not configured")
	}
	if !CanListDayCloseValidations(principal) {
		return nil, ErrForbidden
	}
	managerID := ""
	if principal.Role == RoleManager {
		managerID = principal.UserID
	}
	return s.validations.ListPendingDayCloses(ctx, managerID)
}

// Decide records an APPROVED or REJECTED outcome on a validation.
func (s *ValidationService) Decide(ctx context.Context, principal Principal, params DecideParams) (decided DayCloseValidation, err error) {
	if s == nil || s.closes == nil || s.validations == nil {
		err = fmt.Errorf("validation service not configured")
		return
	}

	logger := s.loggerWith(ctx, "Decide", "validation_id", params.ValidationID, "status", params.Status)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to decide day close validation", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "day close validation decided")
	}()

	if params.Status != ValidationApproved && params.Status != ValidationRejected {
		err = badRequest("status must be APPROVED or REJECTED")
		return
	}

	var validation DayCloseValidation
	validation, err = s.validations.GetDayCloseValidation(ctx, params.ValidationID)
	if err != nil {
		return
	}

	var close DayClose
	close, err = s.closes.GetDayClose(ctx, validation.DayCloseID)
	if err != nil {
		return
	}

	managesOwner := false
	if principal.Role == RoleManager {
		managesOwner, err = s.directory.ManagesUser(ctx, principal.UserID, close.UserID)
		if err != nil {
			return
		}
	}
	if !CanDecideDayClose(principal, managesOwner) {
		err = ErrForbidden
		return
	}

	decided, err = s.validations.DecideDayCloseValidation(ctx, validation.ID, params.Status, params.Comment, s.now())
	return
}

// TodayStatus reports the caller's closure and validation state for today.
// It returns ErrNotFound when the day has not been closed yet.
func (s *ValidationService) TodayStatus(ctx context.Context, principal Principal) (status DayCloseStatus, err error) {
	if s == nil || s.closes == nil || s.validations == nil {
		err = fmt.Errorf("validation service not configured")
		return
	}

	close, err := s.closes.DayCloseOn(ctx, principal.UserID, DateOf(s.now()))
	if err != nil {
		return
	}
	status.Close = close

	validation, lookupErr := s.validations.ValidationForDayClose(ctx, close.ID)
	if lookupErr == nil {
		status.Validation = &validation
	} else if !errors.Is(lookupErr, ErrNotFound) {
		err = lookupErr
	}
	return
}
