package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// DayCloseStore captures the persistence interactions for day closes.
type DayCloseStore interface {
	// CreateDayClose inserts a closure and returns ErrConflict when one
	// already exists for the user and date.
	CreateDayClose(ctx context.Context, close DayClose) (DayClose, error)
	UpdateDayClose(ctx context.Context, close DayClose) (DayClose, error)
	GetDayClose(ctx context.Context, id string) (DayClose, error)
	// DayCloseOn returns the user's closure for the date, ErrNotFound if none.
	DayCloseOn(ctx context.Context, userID, date string) (DayClose, error)
	ListDayCloses(ctx context.Context, userID string, limit int) ([]DayClose, error)
}

// ActivitySource answers the questions the close-day gate asks about a
// user's day: totals so far and whether anything happened after an instant.
type ActivitySource interface {
	// OpenWorkSession returns the user's open session, ErrNotFound if none.
	OpenWorkSession(ctx context.Context, userID string) (WorkSession, error)
	// SumDurationsOn sums completed session minutes started on the date.
	SumDurationsOn(ctx context.Context, userID, date string) (int, error)
	// HasSessionActivitySince reports a session on the date that started or
	// ended after the reference instant.
	HasSessionActivitySince(ctx context.Context, userID, date string, since time.Time) (bool, error)
	// CountAssignedDoneOn counts the user's assigned DONE tasks in the date
	// window.
	CountAssignedDoneOn(ctx context.Context, userID, date string) (int, error)
	// HasTaskActivitySince reports an assigned task in the date window created
	// or updated after the reference instant.
	HasTaskActivitySince(ctx context.Context, userID, date string, since time.Time) (bool, error)
}

// myClosesLimit caps the personal closure history listing.
const myClosesLimit = 60

// DayCloseService computes daily totals and runs the close-day state machine.
type DayCloseService struct {
	closes   DayCloseStore
	activity ActivitySource
	newID    func() string
	now      func() time.Time
	logger   *slog.Logger
}

// NewDayCloseService constructs a DayCloseService with the provided
// dependencies.
func NewDayCloseService(closes DayCloseStore, activity ActivitySource, newID func() string, now func() time.Time, logger *slog.Logger) *DayCloseService {
	if newID == nil {
		newID = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &DayCloseService{
		closes:   closes,
		activity: activity,
		newID:    newID,
		now:      now,
		logger:   defaultLogger(logger),
	}
}

func (s *DayCloseService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "DayCloseService", operation, attrs...)
}

// computeTotals derives the user's live totals for the date. Pure read.
func (s *DayCloseService) computeTotals(ctx context.Context, userID, date string) (totalMinutes, tasksDone int, err error) {
	totalMinutes, err = s.activity.SumDurationsOn(ctx, userID, date)
	if err != nil {
		return
	}
	tasksDone, err = s.activity.CountAssignedDoneOn(ctx, userID, date)
	return
}

// hasNewWorkSince reports whether anything countable happened after the last
// closure: a session on the date that started or ended after it, or an
// assigned task in the date window created or updated after it.
func (s *DayCloseService) hasNewWorkSince(ctx context.Context, userID, date string, since time.Time) (bool, error) {
	if since.IsZero() {
		return true, nil
	}
	if ok, err := s.activity.HasSessionActivitySince(ctx, userID, date, since); err != nil || ok {
		return ok, err
	}
	return s.activity.HasTaskActivitySince(ctx, userID, date, since)
}

// Preview reports the caller's current-day state without mutating anything.
func (s *DayCloseService) Preview(ctx context.Context, principal Principal) (preview DayClosePreview, err error) {
	if s == nil || s.closes == nil || s.activity == nil {
		err = fmt.Errorf("day close service not configured")
		return
	}

	uid := principal.UserID
	date := DateOf(s.now())
	preview = DayClosePreview{Date: date}

	if _, openErr := s.activity.OpenWorkSession(ctx, uid); openErr == nil {
		preview.OpenSession = true
	} else if !errors.Is(openErr, ErrNotFound) {
		err = openErr
		return
	}

	if last, closeErr := s.closes.DayCloseOn(ctx, uid, date); closeErr == nil {
		preview.AlreadyClosed = true
		closedAt := last.ClosedAt
		preview.LastClosedAt = &closedAt
	} else if !errors.Is(closeErr, ErrNotFound) {
		err = closeErr
		return
	}

	preview.TotalMinutes, preview.TasksDone, err = s.computeTotals(ctx, uid, date)
	return
}

// CloseDay creates the caller's closure for today, or updates it in place when
// new activity occurred since the previous closure.
func (s *DayCloseService) CloseDay(ctx context.Context, principal Principal, comment *string) (result CloseDayResult, err error) {
	if s == nil || s.closes == nil || s.activity == nil {
		err = fmt.Errorf("day close service not configured")
		return
	}

	uid := principal.UserID
	now := s.now()
	date := DateOf(now)

	logger := s.loggerWith(ctx, "CloseDay", "user_id", uid, "date", date)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to close day", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("day_close_id", result.Close.ID, "created", result.Created).InfoContext(ctx, "day closed")
	}()

	if _, openErr := s.activity.OpenWorkSession(ctx, uid); openErr == nil {
		err = conflict("stop your running session first")
		return
	} else if !errors.Is(openErr, ErrNotFound) {
		err = openErr
		return
	}

	totalMinutes, tasksDone, err := s.computeTotals(ctx, uid, date)
	if err != nil {
		return
	}

	last, lastErr := s.closes.DayCloseOn(ctx, uid, date)
	switch {
	case errors.Is(lastErr, ErrNotFound):
		var created DayClose
		created, err = s.closes.CreateDayClose(ctx, DayClose{
			ID:           s.newID(),
			UserID:       uid,
			CloseDate:    date,
			TotalMinutes: totalMinutes,
			TasksDone:    tasksDone,
			Comment:      comment,
			ClosedAt:     now,
			CreatedAt:    now,
		})
		if errors.Is(err, ErrConflict) {
			// Lost a race against a concurrent closure of the same day.
			err = conflict("day already closed")
			return
		}
		if err != nil {
			return
		}
		result = CloseDayResult{Close: created, Created: true}
		return
	case lastErr != nil:
		err = lastErr
		return
	}

	var newWork bool
	newWork, err = s.hasNewWorkSince(ctx, uid, date, last.ClosedAt)
	if err != nil {
		return
	}
	if !newWork {
		err = conflict("day already closed, no new activity since the last closure")
		return
	}

	last.TotalMinutes = totalMinutes
	last.TasksDone = tasksDone
	last.Comment = comment
	last.ClosedAt = now

	var updated DayClose
	updated, err = s.closes.UpdateDayClose(ctx, last)
	if err != nil {
		return
	}
	result = CloseDayResult{Close: updated}
	return
}

// MyCloses returns the caller's closure history, most recent first.
func (s *DayCloseService) MyCloses(ctx context.Context, principal Principal) ([]DayClose, error) {
	if s == nil || s.closes == nil {
		return nil, fmt.Errorf("day close service not configured")
	}
	return s.closes.ListDayCloses(ctx, principal.UserID, myClosesLimit)
}
