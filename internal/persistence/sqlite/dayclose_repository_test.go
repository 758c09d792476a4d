package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/workforce-tracker/internal/persistence"
)

func seedDayClose(t *testing.T, repo *DayCloseRepository, id, userID, date string) persistence.DayClose {
	t.Helper()

	close, err := repo.CreateDayClose(context.Background(), persistence.DayClose{
		ID:           id,
		UserID:       userID,
		CloseDate:    date,
		TotalMinutes: 420,
		TasksDone:    2,
		ClosedAt:     testInstant,
		CreatedAt:    testInstant,
	})
	if err != nil {
		t.Fatalf("CreateDayClose failed for %s: %v", id, err)
	}
	return close
}

func TestDayCloseRepository_CreateDayClose(t *testing.T) {
	pool := newTestPool(t)
	repo := NewDayCloseRepository(pool)
	ctx := context.Background()

	seedUser(t, pool, "user-1", "ada@example.com", "EMPLOYEE")
	comment := "wrapped up"

	created, err := repo.CreateDayClose(ctx, persistence.DayClose{
		ID:           "close-1",
		UserID:       "user-1",
		CloseDate:    "2025-06-02",
		TotalMinutes: 420,
		TasksDone:    2,
		Comment:      &comment,
		ClosedAt:     testInstant,
		CreatedAt:    testInstant,
	})
	if err != nil {
		t.Fatalf("CreateDayClose failed: %v", err)
	}
	if created.TotalMinutes != 420 || created.TasksDone != 2 {
		t.Errorf("Expected totals to round-trip, got %+v", created)
	}
	if created.Comment == nil || *created.Comment != "wrapped up" {
		t.Errorf("Expected comment to round-trip, got %v", created.Comment)
	}

	found, err := repo.DayCloseOn(ctx, "user-1", "2025-06-02")
	if err != nil {
		t.Fatalf("DayCloseOn failed: %v", err)
	}
	if found.ID != "close-1" {
		t.Errorf("Expected 'close-1', got '%s'", found.ID)
	}

	if _, err := repo.DayCloseOn(ctx, "user-1", "2025-06-03"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound for an open date, got %v", err)
	}
}

func TestDayCloseRepository_DuplicateDateConflicts(t *testing.T) {
	pool := newTestPool(t)
	repo := NewDayCloseRepository(pool)
	ctx := context.Background()

	seedUser(t, pool, "user-1", "ada@example.com", "EMPLOYEE")
	seedDayClose(t, repo, "close-1", "user-1", "2025-06-02")

	// One closure per user and date.
	_, err := repo.CreateDayClose(ctx, persistence.DayClose{
		ID:        "close-2",
		UserID:    "user-1",
		CloseDate: "2025-06-02",
		ClosedAt:  testInstant,
		CreatedAt: testInstant,
	})
	if !errors.Is(err, persistence.ErrConflict) {
		t.Fatalf("Expected ErrConflict for duplicate date, got %v", err)
	}

	// Another date is fine.
	if _, err := repo.CreateDayClose(ctx, persistence.DayClose{
		ID:        "close-2",
		UserID:    "user-1",
		CloseDate: "2025-06-03",
		ClosedAt:  testInstant,
		CreatedAt: testInstant,
	}); err != nil {
		t.Fatalf("CreateDayClose on another date failed: %v", err)
	}
}

func TestDayCloseRepository_UpdateDayClose(t *testing.T) {
	pool := newTestPool(t)
	repo := NewDayCloseRepository(pool)
	ctx := context.Background()

	seedUser(t, pool, "user-1", "ada@example.com", "EMPLOYEE")
	close := seedDayClose(t, repo, "close-1", "user-1", "2025-06-02")

	close.TotalMinutes = 480
	close.TasksDone = 3
	close.ClosedAt = testInstant.Add(time.Hour)
	updated, err := repo.UpdateDayClose(ctx, close)
	if err != nil {
		t.Fatalf("UpdateDayClose failed: %v", err)
	}
	if updated.ID != "close-1" || updated.TotalMinutes != 480 || updated.TasksDone != 3 {
		t.Errorf("Expected in-place update, got %+v", updated)
	}

	if _, err := repo.UpdateDayClose(ctx, persistence.DayClose{ID: "ghost-close", ClosedAt: testInstant}); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound for unknown closure, got %v", err)
	}
}

func TestDayCloseRepository_ListDayCloses(t *testing.T) {
	pool := newTestPool(t)
	repo := NewDayCloseRepository(pool)
	ctx := context.Background()

	seedUser(t, pool, "user-1", "ada@example.com", "EMPLOYEE")
	seedDayClose(t, repo, "close-1", "user-1", "2025-06-01")
	seedDayClose(t, repo, "close-2", "user-1", "2025-06-02")
	seedDayClose(t, repo, "close-3", "user-1", "2025-06-03")

	closes, err := repo.ListDayCloses(ctx, "user-1", 2)
	if err != nil {
		t.Fatalf("ListDayCloses failed: %v", err)
	}
	if len(closes) != 2 {
		t.Fatalf("Expected the limit to apply, got %d closures", len(closes))
	}
	if closes[0].CloseDate != "2025-06-03" || closes[1].CloseDate != "2025-06-02" {
		t.Errorf("Expected newest first, got %s, %s", closes[0].CloseDate, closes[1].CloseDate)
	}
}

func TestDayCloseRepository_ListDayClosesOn(t *testing.T) {
	pool := newTestPool(t)
	repo := NewDayCloseRepository(pool)
	ctx := context.Background()

	seedUser(t, pool, "user-1", "ada@example.com", "EMPLOYEE")
	seedUser(t, pool, "user-2", "ben@example.com", "EMPLOYEE")
	seedDayClose(t, repo, "close-1", "user-1", "2025-06-02")
	seedDayClose(t, repo, "close-2", "user-2", "2025-06-02")
	seedDayClose(t, repo, "close-3", "user-1", "2025-06-01")

	closes, err := repo.ListDayClosesOn(ctx, []string{"user-1", "user-2"}, "2025-06-02")
	if err != nil {
		t.Fatalf("ListDayClosesOn failed: %v", err)
	}
	if len(closes) != 2 {
		t.Fatalf("Expected 2 closures on the date, got %d", len(closes))
	}

	closes, err = repo.ListDayClosesOn(ctx, nil, "2025-06-02")
	if err != nil {
		t.Fatalf("ListDayClosesOn with no users failed: %v", err)
	}
	if len(closes) != 0 {
		t.Errorf("Expected no closures without users, got %d", len(closes))
	}
}

func TestDayCloseRepository_ValidationLifecycle(t *testing.T) {
	pool := newTestPool(t)
	repo := NewDayCloseRepository(pool)
	ctx := context.Background()

	seedUser(t, pool, "user-1", "ada@example.com", "EMPLOYEE")
	seedUser(t, pool, "manager-1", "manager@example.com", "MANAGER")
	seedDayClose(t, repo, "close-1", "user-1", "2025-06-02")

	created, err := repo.CreateDayCloseValidation(ctx, persistence.DayCloseValidation{
		ID:              "validation-1",
		DayCloseID:      "close-1",
		ValidatorUserID: "manager-1",
		Status:          "PENDING",
		CreatedAt:       testInstant,
	})
	if err != nil {
		t.Fatalf("CreateDayCloseValidation failed: %v", err)
	}
	if created.Status != "PENDING" {
		t.Errorf("Expected PENDING, got '%s'", created.Status)
	}

	// One validation per closure.
	_, err = repo.CreateDayCloseValidation(ctx, persistence.DayCloseValidation{
		ID:              "validation-2",
		DayCloseID:      "close-1",
		ValidatorUserID: "manager-1",
		Status:          "PENDING",
		CreatedAt:       testInstant,
	})
	if !errors.Is(err, persistence.ErrConflict) {
		t.Fatalf("Expected ErrConflict for second validation, got %v", err)
	}

	comment := "numbers check out"
	decided, err := repo.DecideDayCloseValidation(ctx, "validation-1", "APPROVED", &comment, testInstant.Add(time.Hour))
	if err != nil {
		t.Fatalf("DecideDayCloseValidation failed: %v", err)
	}
	if decided.Status != "APPROVED" || decided.DecidedAt == nil || decided.Comment == nil {
		t.Errorf("Expected recorded decision, got %+v", decided)
	}

	reset, err := repo.ResetDayCloseValidation(ctx, "validation-1")
	if err != nil {
		t.Fatalf("ResetDayCloseValidation failed: %v", err)
	}
	if reset.Status != "PENDING" || reset.DecidedAt != nil || reset.Comment != nil {
		t.Errorf("Expected cleared decision fields, got %+v", reset)
	}

	found, err := repo.ValidationForDayClose(ctx, "close-1")
	if err != nil {
		t.Fatalf("ValidationForDayClose failed: %v", err)
	}
	if found.ID != "validation-1" {
		t.Errorf("Expected 'validation-1', got '%s'", found.ID)
	}
}

func TestDayCloseRepository_ListPendingDayCloses(t *testing.T) {
	pool := newTestPool(t)
	repo := NewDayCloseRepository(pool)
	ctx := context.Background()

	seedUser(t, pool, "manager-1", "manager@example.com", "MANAGER")
	seedUser(t, pool, "admin-1", "admin@example.com", "ADMIN")
	seedUser(t, pool, "user-1", "ada@example.com", "EMPLOYEE")
	seedUser(t, pool, "user-2", "ben@example.com", "EMPLOYEE")
	managerID := "manager-1"
	seedTeam(t, pool, "team-1", "Platform", &managerID, "user-1")

	seedDayClose(t, repo, "close-1", "user-1", "2025-06-02")
	seedDayClose(t, repo, "close-2", "user-2", "2025-06-02")
	validations := []persistence.DayCloseValidation{
		{ID: "validation-1", DayCloseID: "close-1", ValidatorUserID: "manager-1", Status: "PENDING", CreatedAt: testInstant},
		{ID: "validation-2", DayCloseID: "close-2", ValidatorUserID: "admin-1", Status: "PENDING", CreatedAt: testInstant.Add(time.Minute)},
	}
	for _, validation := range validations {
		if _, err := repo.CreateDayCloseValidation(ctx, validation); err != nil {
			t.Fatalf("CreateDayCloseValidation failed for %s: %v", validation.ID, err)
		}
	}

	// Admins see every pending validation, oldest first.
	pending, err := repo.ListPendingDayCloses(ctx, "")
	if err != nil {
		t.Fatalf("ListPendingDayCloses failed: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("Expected 2 pending entries, got %d", len(pending))
	}
	if pending[0].Validation.ID != "validation-1" {
		t.Errorf("Expected oldest submission first, got '%s'", pending[0].Validation.ID)
	}
	if pending[0].User.Email != "ada@example.com" {
		t.Errorf("Expected joined owner, got '%s'", pending[0].User.Email)
	}

	// Managers only see their team members' closures.
	pending, err = repo.ListPendingDayCloses(ctx, "manager-1")
	if err != nil {
		t.Fatalf("ListPendingDayCloses for manager failed: %v", err)
	}
	if len(pending) != 1 || pending[0].Close.UserID != "user-1" {
		t.Fatalf("Expected only the managed member's closure, got %+v", pending)
	}

	// Decided validations drop out of the queue.
	if _, err := repo.DecideDayCloseValidation(ctx, "validation-1", "APPROVED", nil, testInstant.Add(time.Hour)); err != nil {
		t.Fatalf("DecideDayCloseValidation failed: %v", err)
	}
	pending, err = repo.ListPendingDayCloses(ctx, "manager-1")
	if err != nil {
		t.Fatalf("ListPendingDayCloses failed: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("Expected no pending entries after the decision, got %d", len(pending))
	}
}
