package application

import "time"

// dateLayout is the calendar-date format used for close dates and due dates.
const dateLayout = "2006-01-02"

// DateOf renders the calendar date of an instant in UTC.
func DateOf(t time.Time) string {
	return t.UTC().Format(dateLayout)
}

// ParseDate validates a YYYY-MM-DD string.
func ParseDate(value string) (string, error) {
	parsed, err := time.Parse(dateLayout, value)
	if err != nil {
		return "", err
	}
	return parsed.Format(dateLayout), nil
}

// TaskMatchesDay reports whether a task counts toward the given date's
// totals: due that day, or without a due date and created that day.
//
// This is the single definition of the "today" window; the SQL repositories
// mirror it and the in-memory fixtures call it directly.
func TaskMatchesDay(task Task, date string) bool {
	if task.DueDate != nil {
		return *task.DueDate == date
	}
	return DateOf(task.CreatedAt) == date
}
