package application

import (
	"testing"
	"time"
)

func TestDateOf_RendersUTCCalendarDate(t *testing.T) {
	t.Parallel()

	// 23:30 in UTC-5 is already the next day in UTC.
	loc := time.FixedZone("UTC-5", -5*60*60)
	instant := time.Date(2025, 6, 2, 23, 30, 0, 0, loc)

	if got := DateOf(instant); got != "2025-06-03" {
		t.Fatalf("expected 2025-06-03, got %q", got)
	}
}

func TestParseDate_AcceptsOnlyCalendarDates(t *testing.T) {
	t.Parallel()

	if got, err := ParseDate("2025-06-02"); err != nil || got != "2025-06-02" {
		t.Fatalf("expected valid date to round-trip, got %q, %v", got, err)
	}

	for _, bad := range []string{"02-06-2025", "2025-6-2", "2025-06-02T10:00:00Z", "yesterday"} {
		if _, err := ParseDate(bad); err == nil {
			t.Fatalf("expected %q to be rejected", bad)
		}
	}
}

func TestTaskMatchesDay_PrefersDueDate(t *testing.T) {
	t.Parallel()

	due := "2025-06-02"
	task := Task{DueDate: &due, CreatedAt: time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)}

	if !TaskMatchesDay(task, "2025-06-02") {
		t.Fatalf("expected task due on the date to match")
	}
	if TaskMatchesDay(task, "2025-05-01") {
		t.Fatalf("expected due date to override the creation date")
	}
}

func TestTaskMatchesDay_FallsBackToCreationDate(t *testing.T) {
	t.Parallel()

	task := Task{CreatedAt: time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)}

	if !TaskMatchesDay(task, "2025-06-02") {
		t.Fatalf("expected task created on the date to match")
	}
	if TaskMatchesDay(task, "2025-06-03") {
		t.Fatalf("expected task created on another date not to match")
	}
}
