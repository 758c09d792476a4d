package application

import (
	"context"
	"errors"
	"testing"
	"time"
)

type workSessionStoreStub struct {
	open      WorkSession
	openErr   error
	session   WorkSession
	getErr    error
	created   WorkSession
	createErr error
	finished  WorkSession
	finishEnd time.Time
	finishMin int
	list      []WorkSession
	listDate  *string
}

func (s *workSessionStoreStub) CreateWorkSession(ctx context.Context, session WorkSession) (WorkSession, error) {
	if s.createErr != nil {
		return WorkSession{}, s.createErr
	}
	s.created = session
	return session, nil
}

func (s *workSessionStoreStub) GetWorkSession(ctx context.Context, id string) (WorkSession, error) {
	if s.getErr != nil {
		return WorkSession{}, s.getErr
	}
	if s.session.ID == "" {
		return WorkSession{}, ErrNotFound
	}
	return s.session, nil
}

func (s *workSessionStoreStub) FinishWorkSession(ctx context.Context, id string, end time.Time, minutes int) (WorkSession, error) {
	s.finishEnd = end
	s.finishMin = minutes
	finished := s.session
	finished.EndTime = &end
	finished.DurationMinutes = &minutes
	s.finished = finished
	return finished, nil
}

func (s *workSessionStoreStub) OpenWorkSession(ctx context.Context, userID string) (WorkSession, error) {
	if s.openErr != nil {
		return WorkSession{}, s.openErr
	}
	return s.open, nil
}

func (s *workSessionStoreStub) ListWorkSessions(ctx context.Context, userID string, date *string) ([]WorkSession, error) {
	s.listDate = date
	return s.list, nil
}

type taskCatalogStub struct {
	task         Task
	taskErr      error
	assignee     bool
	assigneeErr  error
	inProgressID string
}

func (s *taskCatalogStub) GetTask(ctx context.Context, id string) (Task, error) {
	if s.taskErr != nil {
		return Task{}, s.taskErr
	}
	return s.task, nil
}

func (s *taskCatalogStub) MarkInProgress(ctx context.Context, id string, at time.Time) error {
	s.inProgressID = id
	return nil
}

func (s *taskCatalogStub) IsAssignee(ctx context.Context, taskID, userID string) (bool, error) {
	if s.assigneeErr != nil {
		return false, s.assigneeErr
	}
	return s.assignee, nil
}

type trackerDirectoryStub struct {
	managesTeam   bool
	projectAccess bool
}

func (s *trackerDirectoryStub) IsManagerOfTeam(ctx context.Context, userID, teamID string) (bool, error) {
	return s.managesTeam, nil
}

func (s *trackerDirectoryStub) HasProjectAccess(ctx context.Context, userID, projectID string) (bool, error) {
	return s.projectAccess, nil
}

func fixedClock(t *testing.T, hour, minute int) func() time.Time {
	t.Helper()
	return func() time.Time {
		return time.Date(2025, 6, 2, hour, minute, 0, 0, time.UTC)
	}
}

func TestTrackerService_Start_RejectsSecondOpenSession(t *testing.T) {
	t.Parallel()

	sessions := &workSessionStoreStub{open: WorkSession{ID: "session-1", UserID: "user-1"}}
	svc := NewTrackerService(sessions, &taskCatalogStub{}, &trackerDirectoryStub{}, nil, fixedClock(t, 9, 0), nil)

	_, err := svc.Start(context.Background(), StartParams{Principal: Principal{UserID: "user-1", Role: RoleEmployee}})

	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict for running session, got %v", err)
	}
}

func TestTrackerService_Start_CreatesSessionBoundToTask(t *testing.T) {
	t.Parallel()

	sessions := &workSessionStoreStub{openErr: ErrNotFound}
	tasks := &taskCatalogStub{task: Task{ID: "task-1", Status: TaskStatusTodo}, assignee: true}
	svc := NewTrackerService(sessions, tasks, &trackerDirectoryStub{}, func() string { return "session-new" }, fixedClock(t, 9, 0), nil)

	taskID := "task-1"
	session, err := svc.Start(context.Background(), StartParams{
		Principal: Principal{UserID: "user-1", Role: RoleEmployee},
		TaskID:    &taskID,
	})
	if err != nil {
		t.Fatalf("expected session to start, got %v", err)
	}

	if session.ID != "session-new" {
		t.Fatalf("expected generated session id, got %q", session.ID)
	}
	if sessions.created.TaskID == nil || *sessions.created.TaskID != "task-1" {
		t.Fatalf("expected session bound to task-1, got %v", sessions.created.TaskID)
	}
	if tasks.inProgressID != "task-1" {
		t.Fatalf("expected task-1 to be marked in progress, got %q", tasks.inProgressID)
	}
}

func TestTrackerService_Start_LeavesDoneTasksUntouched(t *testing.T) {
	t.Parallel()

	sessions := &workSessionStoreStub{openErr: ErrNotFound}
	tasks := &taskCatalogStub{task: Task{ID: "task-1", Status: TaskStatusDone}, assignee: true}
	svc := NewTrackerService(sessions, tasks, &trackerDirectoryStub{}, nil, fixedClock(t, 9, 0), nil)

	taskID := "task-1"
	if _, err := svc.Start(context.Background(), StartParams{
		Principal: Principal{UserID: "user-1", Role: RoleEmployee},
		TaskID:    &taskID,
	}); err != nil {
		t.Fatalf("expected session to start, got %v", err)
	}

	if tasks.inProgressID != "" {
		t.Fatalf("expected done task to keep its status, got mark on %q", tasks.inProgressID)
	}
}

func TestTrackerService_Start_BlocksUnassignedEmployees(t *testing.T) {
	t.Parallel()

	sessions := &workSessionStoreStub{openErr: ErrNotFound}
	tasks := &taskCatalogStub{task: Task{ID: "task-1", Status: TaskStatusTodo}, assignee: false}
	svc := NewTrackerService(sessions, tasks, &trackerDirectoryStub{}, nil, fixedClock(t, 9, 0), nil)

	taskID := "task-1"
	_, err := svc.Start(context.Background(), StartParams{
		Principal: Principal{UserID: "user-1", Role: RoleEmployee},
		TaskID:    &taskID,
	})

	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for unassigned employee, got %v", err)
	}
}

func TestTrackerService_Start_AllowsManagersOfTheTaskTeam(t *testing.T) {
	t.Parallel()

	teamID := "team-1"
	sessions := &workSessionStoreStub{openErr: ErrNotFound}
	tasks := &taskCatalogStub{task: Task{ID: "task-1", Status: TaskStatusTodo, TeamID: &teamID}}
	svc := NewTrackerService(sessions, tasks, &trackerDirectoryStub{managesTeam: true}, nil, fixedClock(t, 9, 0), nil)

	taskID := "task-1"
	if _, err := svc.Start(context.Background(), StartParams{
		Principal: Principal{UserID: "manager-1", Role: RoleManager},
		TaskID:    &taskID,
	}); err != nil {
		t.Fatalf("expected manager to start session on own team's task, got %v", err)
	}
}

func TestTrackerService_Start_BlocksManagersOfOtherTeams(t *testing.T) {
	t.Parallel()

	teamID := "team-2"
	sessions := &workSessionStoreStub{openErr: ErrNotFound}
	tasks := &taskCatalogStub{task: Task{ID: "task-1", Status: TaskStatusTodo, TeamID: &teamID}}
	svc := NewTrackerService(sessions, tasks, &trackerDirectoryStub{}, nil, fixedClock(t, 9, 0), nil)

	taskID := "task-1"
	_, err := svc.Start(context.Background(), StartParams{
		Principal: Principal{UserID: "manager-1", Role: RoleManager},
		TaskID:    &taskID,
	})

	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for manager outside the team, got %v", err)
	}
}

func TestTrackerService_Stop_RequiresSessionID(t *testing.T) {
	t.Parallel()

	svc := NewTrackerService(&workSessionStoreStub{}, &taskCatalogStub{}, &trackerDirectoryStub{}, nil, nil, nil)

	_, err := svc.Stop(context.Background(), StopParams{Principal: Principal{UserID: "user-1"}})

	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, ok := vErr.FieldErrors["session_id"]; !ok {
		t.Fatalf("expected session_id validation error, got %v", vErr.FieldErrors)
	}
}

func TestTrackerService_Stop_BlocksOtherUsersSessions(t *testing.T) {
	t.Parallel()

	sessions := &workSessionStoreStub{session: WorkSession{ID: "session-1", UserID: "user-2", StartTime: time.Now()}}
	svc := NewTrackerService(sessions, &taskCatalogStub{}, &trackerDirectoryStub{}, nil, nil, nil)

	_, err := svc.Stop(context.Background(), StopParams{Principal: Principal{UserID: "user-1"}, SessionID: "session-1"})

	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for foreign session, got %v", err)
	}
}

func TestTrackerService_Stop_RejectsFinishedSessions(t *testing.T) {
	t.Parallel()

	end := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	sessions := &workSessionStoreStub{session: WorkSession{ID: "session-1", UserID: "user-1", EndTime: &end}}
	svc := NewTrackerService(sessions, &taskCatalogStub{}, &trackerDirectoryStub{}, nil, nil, nil)

	_, err := svc.Stop(context.Background(), StopParams{Principal: Principal{UserID: "user-1"}, SessionID: "session-1"})

	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict for finished session, got %v", err)
	}
}

func TestTrackerService_Stop_TruncatesElapsedMinutes(t *testing.T) {
	t.Parallel()

	start := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	sessions := &workSessionStoreStub{session: WorkSession{ID: "session-1", UserID: "user-1", StartTime: start}}
	svc := NewTrackerService(sessions, &taskCatalogStub{}, &trackerDirectoryStub{}, nil, func() time.Time {
		return start.Add(25*time.Minute + 45*time.Second)
	}, nil)

	session, err := svc.Stop(context.Background(), StopParams{Principal: Principal{UserID: "user-1"}, SessionID: "session-1"})
	if err != nil {
		t.Fatalf("expected stop to succeed, got %v", err)
	}

	if session.DurationMinutes == nil || *session.DurationMinutes != 25 {
		t.Fatalf("expected 25 whole minutes, got %v", session.DurationMinutes)
	}
}

func TestTrackerService_Stop_ClampsNegativeDurations(t *testing.T) {
	t.Parallel()

	start := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	sessions := &workSessionStoreStub{session: WorkSession{ID: "session-1", UserID: "user-1", StartTime: start}}
	svc := NewTrackerService(sessions, &taskCatalogStub{}, &trackerDirectoryStub{}, nil, func() time.Time {
		return start.Add(-time.Minute)
	}, nil)

	session, err := svc.Stop(context.Background(), StopParams{Principal: Principal{UserID: "user-1"}, SessionID: "session-1"})
	if err != nil {
		t.Fatalf("expected stop to succeed, got %v", err)
	}

	if session.DurationMinutes == nil || *session.DurationMinutes != 0 {
		t.Fatalf("expected clamped zero duration, got %v", session.DurationMinutes)
	}
}

func TestTrackerService_ListMy_ValidatesDateFormat(t *testing.T) {
	t.Parallel()

	svc := NewTrackerService(&workSessionStoreStub{}, &taskCatalogStub{}, &trackerDirectoryStub{}, nil, nil, nil)

	bad := "02-06-2025"
	_, err := svc.ListMy(context.Background(), Principal{UserID: "user-1"}, &bad)

	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, ok := vErr.FieldErrors["date"]; !ok {
		t.Fatalf("expected date validation error, got %v", vErr.FieldErrors)
	}
}

func TestTrackerService_ListMy_PassesNormalizedDate(t *testing.T) {
	t.Parallel()

	sessions := &workSessionStoreStub{}
	svc := NewTrackerService(sessions, &taskCatalogStub{}, &trackerDirectoryStub{}, nil, nil, nil)

	date := "2025-06-02"
	if _, err := svc.ListMy(context.Background(), Principal{UserID: "user-1"}, &date); err != nil {
		t.Fatalf("expected list to succeed, got %v", err)
	}

	if sessions.listDate == nil || *sessions.listDate != "2025-06-02" {
		t.Fatalf("expected normalized date filter, got %v", sessions.listDate)
	}
}
