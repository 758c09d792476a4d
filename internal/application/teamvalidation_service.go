package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// TeamValidationService lets admins decide team close validations. It mirrors
// ValidationService but the approval chain ends here, so only admins act.
type TeamValidationService struct {
	validations TeamCloseValidationStore
	now         func() time.Time
	logger      *slog.Logger
}

// NewTeamValidationService constructs a TeamValidationService.
func NewTeamValidationService(validations TeamCloseValidationStore, now func() time.Time, logger *slog.Logger) *TeamValidationService {
	if now == nil {
		now = time.Now
	}
	return &TeamValidationService{
		validations: validations,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *TeamValidationService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "TeamValidationService", operation, attrs...)
}

// ListPending returns all pending team close validations. Admin only.
func (s *TeamValidationService) ListPending(ctx context.Context, principal Principal) ([]PendingTeamClose, error) {
	if s == nil || s.validations == nil {
		return nil, fmt.Errorf("team validation service not configured")
	}
	if !CanDecideTeamClose(principal) {
		return nil, ErrForbidden
	}
	return s.validations.ListPendingTeamCloses(ctx)
}

// Decide records an APPROVED or REJECTED outcome on a team close validation.
func (s *TeamValidationService) Decide(ctx context.Context, principal Principal, params DecideParams) (decided TeamCloseValidation, err error) {
	if s == nil || s.validations == nil {
		err = fmt.Errorf("team validation service not configured")
		return
	}

	logger := s.loggerWith(ctx, "Decide", "validation_id", params.ValidationID, "status", params.Status)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to decide team close validation", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "team close validation decided")
	}()

	if !CanDecideTeamClose(principal) {
		err = ErrForbidden
		return
	}

	if params.Status != ValidationApproved && params.Status != ValidationRejected {
		err = badRequest("status must be APPROVED or REJECTED")
		return
	}

	if _, err = s.validations.GetTeamCloseValidation(ctx, params.ValidationID); err != nil {
		return
	}

	decided, err = s.validations.DecideTeamCloseValidation(ctx, params.ValidationID, params.Status, params.Comment, s.now())
	return
}
