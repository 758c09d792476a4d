package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/example/workforce-tracker/internal/application"
	"github.com/example/workforce-tracker/internal/config"
	httptransport "github.com/example/workforce-tracker/internal/http"
	"github.com/example/workforce-tracker/internal/persistence"
	"github.com/example/workforce-tracker/internal/persistence/sqlite"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	storage, err := sqlite.Open(cfg.SQLiteDSN)
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := storage.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	if err := storage.Migrate(context.Background()); err != nil {
		logger.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}

	idGenerator := uuid.NewString
	tokenGenerator := func() string { return randomHex(32) }
	now := time.Now

	userRepo := sqlite.NewUserRepository(storage)
	taskRepo := sqlite.NewTaskRepository(storage)
	workSessionRepo := sqlite.NewWorkSessionRepository(storage)
	dayCloseRepo := sqlite.NewDayCloseRepository(storage)
	teamCloseRepo := sqlite.NewTeamCloseRepository(storage)
	authSessionRepo := sqlite.NewAuthSessionRepository(storage)

	if err := seedAdmin(context.Background(), userRepo, cfg, idGenerator, now, logger); err != nil {
		logger.Error("failed to seed administrator", "error", err)
		os.Exit(1)
	}

	credentials := newCredentialStoreAdapter(userRepo)
	authSessions := newAuthSessionAdapter(authSessionRepo)
	workSessions := newWorkSessionAdapter(workSessionRepo)
	taskCatalog := newTaskCatalogAdapter(taskRepo)
	directory := newDirectoryAdapter(userRepo)
	activity := newActivityAdapter(workSessionRepo, taskRepo)
	dayCloses := newDayCloseAdapter(dayCloseRepo)
	teamCloses := newTeamCloseAdapter(teamCloseRepo)

	authService := application.NewAuthService(credentials, authSessions, nil, idGenerator, tokenGenerator, now, cfg.SessionTTL, logger)
	trackerService := application.NewTrackerService(workSessions, taskCatalog, directory, idGenerator, now, logger)
	dayCloseService := application.NewDayCloseService(dayCloses, activity, idGenerator, now, logger)
	validationService := application.NewValidationService(dayCloses, dayCloses, directory, idGenerator, now, logger)
	teamCloseService := application.NewTeamCloseService(teamCloses, teamCloses, dayCloses, directory, idGenerator, now, logger)
	teamValidationService := application.NewTeamValidationService(teamCloses, now, logger)

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Auth:            httptransport.NewAuthHandler(authService, logger),
		Tracker:         httptransport.NewTrackerHandler(trackerService, logger),
		DayCloses:       httptransport.NewDayCloseHandler(dayCloseService, logger),
		Validations:     httptransport.NewValidationHandler(validationService, logger),
		TeamCloses:      httptransport.NewTeamCloseHandler(teamCloseService, logger),
		TeamValidations: httptransport.NewTeamValidationHandler(teamValidationService, logger),
		Authenticate:    httptransport.RequireAuth(authService, logger),
		Middleware:      []func(http.Handler) http.Handler{httptransport.RequestLogger(logger)},
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("workforce API listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}

func randomHex(bytes int) string {
	if bytes <= 0 {
		bytes = 16
	}
	buf := make([]byte, bytes)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return fmt.Sprintf("fallback-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(buf)
}

// seedAdmin creates the bootstrap administrator account when configured and
// not already present.
func seedAdmin(ctx context.Context, users persistence.UserRepository, cfg config.Config, newID func() string, now func() time.Time, logger *slog.Logger) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return nil
	}

	if _, err := users.GetUserByEmail(ctx, cfg.AdminEmail); err == nil {
		return nil
	} else if !errors.Is(err, persistence.ErrNotFound) {
		return err
	}

	hash, err := application.CreatePasswordHash(cfg.AdminPassword, application.DefaultArgon2idParams)
	if err != nil {
		return err
	}

	created := now()
	if err := users.CreateUser(ctx, persistence.User{
		ID:           newID(),
		Email:        cfg.AdminEmail,
		FirstName:    "System",
		LastName:     "Administrator",
		PasswordHash: hash,
		Role:         string(application.RoleAdmin),
		CreatedAt:    created,
		UpdatedAt:    created,
	}); err != nil {
		return err
	}

	logger.Info("bootstrap administrator created", "email", cfg.AdminEmail)
	return nil
}

// mapStoreError translates persistence sentinels into the application's error
// vocabulary so services can use errors.Is uniformly.
func mapStoreError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, persistence.ErrNotFound):
		return application.ErrNotFound
	case errors.Is(err, persistence.ErrConflict):
		return application.ErrConflict
	}
	return err
}

type credentialStoreAdapter struct {
	repo persistence.UserRepository
}

func newCredentialStoreAdapter(repo persistence.UserRepository) *credentialStoreAdapter {
	return &credentialStoreAdapter{repo: repo}
}

func (a *credentialStoreAdapter) GetUserCredentialsByEmail(ctx context.Context, email string) (application.UserCredentials, error) {
	stored, err := a.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return application.UserCredentials{}, mapStoreError(err)
	}
	return application.UserCredentials{
		User:         toApplicationUser(stored),
		PasswordHash: stored.PasswordHash,
	}, nil
}

func (a *credentialStoreAdapter) GetUser(ctx context.Context, id string) (application.User, error) {
	stored, err := a.repo.GetUser(ctx, id)
	if err != nil {
		return application.User{}, mapStoreError(err)
	}
	return toApplicationUser(stored), nil
}

type authSessionAdapter struct {
	repo persistence.AuthSessionRepository
}

func newAuthSessionAdapter(repo persistence.AuthSessionRepository) *authSessionAdapter {
	return &authSessionAdapter{repo: repo}
}

func (a *authSessionAdapter) CreateAuthSession(ctx context.Context, session application.AuthSession) (application.AuthSession, error) {
	stored, err := a.repo.CreateAuthSession(ctx, persistence.AuthSession{
		ID:        session.ID,
		UserID:    session.UserID,
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		CreatedAt: session.CreatedAt,
		UpdatedAt: session.UpdatedAt,
		RevokedAt: cloneTime(session.RevokedAt),
	})
	if err != nil {
		return application.AuthSession{}, mapStoreError(err)
	}
	return toApplicationAuthSession(stored), nil
}

func (a *authSessionAdapter) GetAuthSession(ctx context.Context, token string) (application.AuthSession, error) {
	stored, err := a.repo.GetAuthSession(ctx, token)
	if err != nil {
		return application.AuthSession{}, mapStoreError(err)
	}
	return toApplicationAuthSession(stored), nil
}

func (a *authSessionAdapter) RevokeAuthSession(ctx context.Context, token string, revokedAt time.Time) (application.AuthSession, error) {
	stored, err := a.repo.RevokeAuthSession(ctx, token, revokedAt)
	if err != nil {
		return application.AuthSession{}, mapStoreError(err)
	}
	return toApplicationAuthSession(stored), nil
}

func (a *authSessionAdapter) DeleteExpiredAuthSessions(ctx context.Context, reference time.Time) error {
	return mapStoreError(a.repo.DeleteExpiredAuthSessions(ctx, reference))
}

type workSessionAdapter struct {
	repo persistence.WorkSessionRepository
}

func newWorkSessionAdapter(repo persistence.WorkSessionRepository) *workSessionAdapter {
	return &workSessionAdapter{repo: repo}
}

func (a *workSessionAdapter) CreateWorkSession(ctx context.Context, session application.WorkSession) (application.WorkSession, error) {
	stored, err := a.repo.CreateWorkSession(ctx, persistence.WorkSession{
		ID:              session.ID,
		UserID:          session.UserID,
		TaskID:          cloneString(session.TaskID),
		StartTime:       session.StartTime,
		EndTime:         cloneTime(session.EndTime),
		DurationMinutes: cloneInt(session.DurationMinutes),
		CreatedAt:       session.CreatedAt,
	})
	if err != nil {
		return application.WorkSession{}, mapStoreError(err)
	}
	return toApplicationWorkSession(stored), nil
}

func (a *workSessionAdapter) GetWorkSession(ctx context.Context, id string) (application.WorkSession, error) {
	stored, err := a.repo.GetWorkSession(ctx, id)
	if err != nil {
		return application.WorkSession{}, mapStoreError(err)
	}
	return toApplicationWorkSession(stored), nil
}

func (a *workSessionAdapter) FinishWorkSession(ctx context.Context, id string, end time.Time, minutes int) (application.WorkSession, error) {
	stored, err := a.repo.FinishWorkSession(ctx, id, end, minutes)
	if err != nil {
		return application.WorkSession{}, mapStoreError(err)
	}
	return toApplicationWorkSession(stored), nil
}

func (a *workSessionAdapter) OpenWorkSession(ctx context.Context, userID string) (application.WorkSession, error) {
	stored, err := a.repo.OpenWorkSession(ctx, userID)
	if err != nil {
		return application.WorkSession{}, mapStoreError(err)
	}
	return toApplicationWorkSession(stored), nil
}

func (a *workSessionAdapter) ListWorkSessions(ctx context.Context, userID string, date *string) ([]application.WorkSession, error) {
	models, err := a.repo.ListWorkSessions(ctx, userID, date)
	if err != nil {
		return nil, mapStoreError(err)
	}
	sessions := make([]application.WorkSession, 0, len(models))
	for _, model := range models {
		sessions = append(sessions, toApplicationWorkSession(model))
	}
	return sessions, nil
}

type taskCatalogAdapter struct {
	repo persistence.TaskRepository
}

func newTaskCatalogAdapter(repo persistence.TaskRepository) *taskCatalogAdapter {
	return &taskCatalogAdapter{repo: repo}
}

func (a *taskCatalogAdapter) GetTask(ctx context.Context, id string) (application.Task, error) {
	stored, err := a.repo.GetTask(ctx, id)
	if err != nil {
		return application.Task{}, mapStoreError(err)
	}
	return application.Task{
		ID:        stored.ID,
		Title:     stored.Title,
		Status:    stored.Status,
		DueDate:   cloneString(stored.DueDate),
		TeamID:    cloneString(stored.TeamID),
		ProjectID: cloneString(stored.ProjectID),
		CreatedAt: stored.CreatedAt,
		UpdatedAt: stored.UpdatedAt,
	}, nil
}

func (a *taskCatalogAdapter) MarkInProgress(ctx context.Context, id string, at time.Time) error {
	return mapStoreError(a.repo.MarkInProgress(ctx, id, at))
}

func (a *taskCatalogAdapter) IsAssignee(ctx context.Context, taskID, userID string) (bool, error) {
	ok, err := a.repo.IsAssignee(ctx, taskID, userID)
	return ok, mapStoreError(err)
}

// directoryAdapter serves every directory-shaped interface the services
// declare: tracker access checks, validator routing and team resolution.
type directoryAdapter struct {
	repo persistence.UserRepository
}

func newDirectoryAdapter(repo persistence.UserRepository) *directoryAdapter {
	return &directoryAdapter{repo: repo}
}

func (a *directoryAdapter) IsManagerOfTeam(ctx context.Context, userID, teamID string) (bool, error) {
	ok, err := a.repo.IsManagerOfTeam(ctx, userID, teamID)
	return ok, mapStoreError(err)
}

func (a *directoryAdapter) HasProjectAccess(ctx context.Context, userID, projectID string) (bool, error) {
	ok, err := a.repo.HasProjectAccess(ctx, userID, projectID)
	return ok, mapStoreError(err)
}

func (a *directoryAdapter) ManagerForUser(ctx context.Context, userID string) (string, error) {
	managerID, err := a.repo.ManagerForUser(ctx, userID)
	return managerID, mapStoreError(err)
}

func (a *directoryAdapter) FirstAdminID(ctx context.Context) (string, error) {
	adminID, err := a.repo.FirstAdminID(ctx)
	return adminID, mapStoreError(err)
}

func (a *directoryAdapter) ManagesUser(ctx context.Context, managerID, userID string) (bool, error) {
	ok, err := a.repo.ManagesUser(ctx, managerID, userID)
	return ok, mapStoreError(err)
}

func (a *directoryAdapter) GetTeam(ctx context.Context, id string) (application.Team, error) {
	stored, err := a.repo.GetTeam(ctx, id)
	if err != nil {
		return application.Team{}, mapStoreError(err)
	}
	return application.Team{
		ID:            stored.ID,
		Name:          stored.Name,
		ManagerUserID: cloneString(stored.ManagerUserID),
		CreatedAt:     stored.CreatedAt,
		UpdatedAt:     stored.UpdatedAt,
	}, nil
}

func (a *directoryAdapter) ListTeamMembers(ctx context.Context, teamID string) ([]application.User, error) {
	models, err := a.repo.ListTeamMembers(ctx, teamID)
	if err != nil {
		return nil, mapStoreError(err)
	}
	members := make([]application.User, 0, len(models))
	for _, model := range models {
		members = append(members, toApplicationUser(model))
	}
	return members, nil
}

// activityAdapter joins the session and task repositories behind the single
// activity interface the day close service consumes.
type activityAdapter struct {
	sessions persistence.WorkSessionRepository
	tasks    persistence.TaskRepository
}

func newActivityAdapter(sessions persistence.WorkSessionRepository, tasks persistence.TaskRepository) *activityAdapter {
	return &activityAdapter{sessions: sessions, tasks: tasks}
}

func (a *activityAdapter) OpenWorkSession(ctx context.Context, userID string) (application.WorkSession, error) {
	stored, err := a.sessions.OpenWorkSession(ctx, userID)
	if err != nil {
		return application.WorkSession{}, mapStoreError(err)
	}
	return toApplicationWorkSession(stored), nil
}

func (a *activityAdapter) SumDurationsOn(ctx context.Context, userID, date string) (int, error) {
	total, err := a.sessions.SumDurationsOn(ctx, userID, date)
	return total, mapStoreError(err)
}

func (a *activityAdapter) HasSessionActivitySince(ctx context.Context, userID, date string, since time.Time) (bool, error) {
	ok, err := a.sessions.HasActivitySince(ctx, userID, date, since)
	return ok, mapStoreError(err)
}

func (a *activityAdapter) CountAssignedDoneOn(ctx context.Context, userID, date string) (int, error) {
	count, err := a.tasks.CountAssignedDoneOn(ctx, userID, date)
	return count, mapStoreError(err)
}

func (a *activityAdapter) HasTaskActivitySince(ctx context.Context, userID, date string, since time.Time) (bool, error) {
	ok, err := a.tasks.HasAssignedActivitySince(ctx, userID, date, since)
	return ok, mapStoreError(err)
}

// dayCloseAdapter serves both the closure store and the validation store, and
// doubles as the member close source for team aggregation.
type dayCloseAdapter struct {
	repo persistence.DayCloseRepository
}

func newDayCloseAdapter(repo persistence.DayCloseRepository) *dayCloseAdapter {
	return &dayCloseAdapter{repo: repo}
}

func (a *dayCloseAdapter) CreateDayClose(ctx context.Context, close application.DayClose) (application.DayClose, error) {
	stored, err := a.repo.CreateDayClose(ctx, toPersistenceDayClose(close))
	if err != nil {
		return application.DayClose{}, mapStoreError(err)
	}
	return toApplicationDayClose(stored), nil
}

func (a *dayCloseAdapter) UpdateDayClose(ctx context.Context, close application.DayClose) (application.DayClose, error) {
	stored, err := a.repo.UpdateDayClose(ctx, toPersistenceDayClose(close))
	if err != nil {
		return application.DayClose{}, mapStoreError(err)
	}
	return toApplicationDayClose(stored), nil
}

func (a *dayCloseAdapter) GetDayClose(ctx context.Context, id string) (application.DayClose, error) {
	stored, err := a.repo.GetDayClose(ctx, id)
	if err != nil {
		return application.DayClose{}, mapStoreError(err)
	}
	return toApplicationDayClose(stored), nil
}

func (a *dayCloseAdapter) DayCloseOn(ctx context.Context, userID, date string) (application.DayClose, error) {
	stored, err := a.repo.DayCloseOn(ctx, userID, date)
	if err != nil {
		return application.DayClose{}, mapStoreError(err)
	}
	return toApplicationDayClose(stored), nil
}

func (a *dayCloseAdapter) ListDayCloses(ctx context.Context, userID string, limit int) ([]application.DayClose, error) {
	models, err := a.repo.ListDayCloses(ctx, userID, limit)
	if err != nil {
		return nil, mapStoreError(err)
	}
	closes := make([]application.DayClose, 0, len(models))
	for _, model := range models {
		closes = append(closes, toApplicationDayClose(model))
	}
	return closes, nil
}

func (a *dayCloseAdapter) ListDayClosesOn(ctx context.Context, userIDs []string, date string) ([]application.DayClose, error) {
	models, err := a.repo.ListDayClosesOn(ctx, userIDs, date)
	if err != nil {
		return nil, mapStoreError(err)
	}
	closes := make([]application.DayClose, 0, len(models))
	for _, model := range models {
		closes = append(closes, toApplicationDayClose(model))
	}
	return closes, nil
}

func (a *dayCloseAdapter) CreateDayCloseValidation(ctx context.Context, validation application.DayCloseValidation) (application.DayCloseValidation, error) {
	stored, err := a.repo.CreateDayCloseValidation(ctx, persistence.DayCloseValidation{
		ID:              validation.ID,
		DayCloseID:      validation.DayCloseID,
		ValidatorUserID: validation.ValidatorUserID,
		Status:          validation.Status,
		Comment:         cloneString(validation.Comment),
		DecidedAt:       cloneTime(validation.DecidedAt),
		CreatedAt:       validation.CreatedAt,
	})
	if err != nil {
		return application.DayCloseValidation{}, mapStoreError(err)
	}
	return toApplicationDayCloseValidation(stored), nil
}

func (a *dayCloseAdapter) GetDayCloseValidation(ctx context.Context, id string) (application.DayCloseValidation, error) {
	stored, err := a.repo.GetDayCloseValidation(ctx, id)
	if err != nil {
		return application.DayCloseValidation{}, mapStoreError(err)
	}
	return toApplicationDayCloseValidation(stored), nil
}

func (a *dayCloseAdapter) ValidationForDayClose(ctx context.Context, dayCloseID string) (application.DayCloseValidation, error) {
	stored, err := a.repo.ValidationForDayClose(ctx, dayCloseID)
	if err != nil {
		return application.DayCloseValidation{}, mapStoreError(err)
	}
	return toApplicationDayCloseValidation(stored), nil
}

func (a *dayCloseAdapter) ResetDayCloseValidation(ctx context.Context, id string) (application.DayCloseValidation, error) {
	stored, err := a.repo.ResetDayCloseValidation(ctx, id)
	if err != nil {
		return application.DayCloseValidation{}, mapStoreError(err)
	}
	return toApplicationDayCloseValidation(stored), nil
}

func (a *dayCloseAdapter) DecideDayCloseValidation(ctx context.Context, id, status string, comment *string, decidedAt time.Time) (application.DayCloseValidation, error) {
	stored, err := a.repo.DecideDayCloseValidation(ctx, id, status, comment, decidedAt)
	if err != nil {
		return application.DayCloseValidation{}, mapStoreError(err)
	}
	return toApplicationDayCloseValidation(stored), nil
}

func (a *dayCloseAdapter) ListPendingDayCloses(ctx context.Context, managerID string) ([]application.PendingDayClose, error) {
	models, err := a.repo.ListPendingDayCloses(ctx, managerID)
	if err != nil {
		return nil, mapStoreError(err)
	}
	pending := make([]application.PendingDayClose, 0, len(models))
	for _, model := range models {
		pending = append(pending, application.PendingDayClose{
			Validation: toApplicationDayCloseValidation(model.Validation),
			Close:      toApplicationDayClose(model.Close),
			User:       toApplicationUser(model.User),
		})
	}
	return pending, nil
}

// teamCloseAdapter serves both the team closure store and its validation
// store.
type teamCloseAdapter struct {
	repo persistence.TeamCloseRepository
}

func newTeamCloseAdapter(repo persistence.TeamCloseRepository) *teamCloseAdapter {
	return &teamCloseAdapter{repo: repo}
}

func (a *teamCloseAdapter) CreateTeamClose(ctx context.Context, close application.TeamClose) (application.TeamClose, error) {
	stored, err := a.repo.CreateTeamClose(ctx, toPersistenceTeamClose(close))
	if err != nil {
		return application.TeamClose{}, mapStoreError(err)
	}
	return toApplicationTeamClose(stored), nil
}

func (a *teamCloseAdapter) UpdateTeamClose(ctx context.Context, close application.TeamClose) (application.TeamClose, error) {
	stored, err := a.repo.UpdateTeamClose(ctx, toPersistenceTeamClose(close))
	if err != nil {
		return application.TeamClose{}, mapStoreError(err)
	}
	return toApplicationTeamClose(stored), nil
}

func (a *teamCloseAdapter) GetTeamClose(ctx context.Context, id string) (application.TeamClose, error) {
	stored, err := a.repo.GetTeamClose(ctx, id)
	if err != nil {
		return application.TeamClose{}, mapStoreError(err)
	}
	return toApplicationTeamClose(stored), nil
}

func (a *teamCloseAdapter) TeamCloseOn(ctx context.Context, teamID, date string) (application.TeamClose, error) {
	stored, err := a.repo.TeamCloseOn(ctx, teamID, date)
	if err != nil {
		return application.TeamClose{}, mapStoreError(err)
	}
	return toApplicationTeamClose(stored), nil
}

func (a *teamCloseAdapter) CreateTeamCloseValidation(ctx context.Context, validation application.TeamCloseValidation) (application.TeamCloseValidation, error) {
	stored, err := a.repo.CreateTeamCloseValidation(ctx, persistence.TeamCloseValidation{
		ID:              validation.ID,
		TeamCloseID:     validation.TeamCloseID,
		ValidatorUserID: validation.ValidatorUserID,
		Status:          validation.Status,
		Comment:         cloneString(validation.Comment),
		DecidedAt:       cloneTime(validation.DecidedAt),
		CreatedAt:       validation.CreatedAt,
	})
	if err != nil {
		return application.TeamCloseValidation{}, mapStoreError(err)
	}
	return toApplicationTeamCloseValidation(stored), nil
}

func (a *teamCloseAdapter) GetTeamCloseValidation(ctx context.Context, id string) (application.TeamCloseValidation, error) {
	stored, err := a.repo.GetTeamCloseValidation(ctx, id)
	if err != nil {
		return application.TeamCloseValidation{}, mapStoreError(err)
	}
	return toApplicationTeamCloseValidation(stored), nil
}

func (a *teamCloseAdapter) ValidationForTeamClose(ctx context.Context, teamCloseID string) (application.TeamCloseValidation, error) {
	stored, err := a.repo.ValidationForTeamClose(ctx, teamCloseID)
	if err != nil {
		return application.TeamCloseValidation{}, mapStoreError(err)
	}
	return toApplicationTeamCloseValidation(stored), nil
}

func (a *teamCloseAdapter) ResetTeamCloseValidation(ctx context.Context, id string) (application.TeamCloseValidation, error) {
	stored, err := a.repo.ResetTeamCloseValidation(ctx, id)
	if err != nil {
		return application.TeamCloseValidation{}, mapStoreError(err)
	}
	return toApplicationTeamCloseValidation(stored), nil
}

func (a *teamCloseAdapter) DecideTeamCloseValidation(ctx context.Context, id, status string, comment *string, decidedAt time.Time) (application.TeamCloseValidation, error) {
	stored, err := a.repo.DecideTeamCloseValidation(ctx, id, status, comment, decidedAt)
	if err != nil {
		return application.TeamCloseValidation{}, mapStoreError(err)
	}
	return toApplicationTeamCloseValidation(stored), nil
}

func (a *teamCloseAdapter) ListPendingTeamCloses(ctx context.Context) ([]application.PendingTeamClose, error) {
	models, err := a.repo.ListPendingTeamCloses(ctx)
	if err != nil {
		return nil, mapStoreError(err)
	}
	pending := make([]application.PendingTeamClose, 0, len(models))
	for _, model := range models {
		pending = append(pending, application.PendingTeamClose{
			Validation: toApplicationTeamCloseValidation(model.Validation),
			Close:      toApplicationTeamClose(model.Close),
			TeamName:   model.Team.Name,
			Manager:    toApplicationUser(model.Manager),
		})
	}
	return pending, nil
}

func toApplicationUser(model persistence.User) application.User {
	return application.User{
		ID:        model.ID,
		Email:     model.Email,
		FirstName: model.FirstName,
		LastName:  model.LastName,
		Role:      application.Role(model.Role),
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

func toApplicationAuthSession(model persistence.AuthSession) application.AuthSession {
	return application.AuthSession{
		ID:        model.ID,
		UserID:    model.UserID,
		Token:     model.Token,
		ExpiresAt: model.ExpiresAt,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
		RevokedAt: cloneTime(model.RevokedAt),
	}
}

func toApplicationWorkSession(model persistence.WorkSession) application.WorkSession {
	return application.WorkSession{
		ID:              model.ID,
		UserID:          model.UserID,
		TaskID:          cloneString(model.TaskID),
		StartTime:       model.StartTime,
		EndTime:         cloneTime(model.EndTime),
		DurationMinutes: cloneInt(model.DurationMinutes),
		CreatedAt:       model.CreatedAt,
	}
}

func toApplicationDayClose(model persistence.DayClose) application.DayClose {
	return application.DayClose{
		ID:           model.ID,
		UserID:       model.UserID,
		CloseDate:    model.CloseDate,
		TotalMinutes: model.TotalMinutes,
		TasksDone:    model.TasksDone,
		Comment:      cloneString(model.Comment),
		ClosedAt:     model.ClosedAt,
		CreatedAt:    model.CreatedAt,
	}
}

func toPersistenceDayClose(close application.DayClose) persistence.DayClose {
	return persistence.DayClose{
		ID:           close.ID,
		UserID:       close.UserID,
		CloseDate:    close.CloseDate,
		TotalMinutes: close.TotalMinutes,
		TasksDone:    close.TasksDone,
		Comment:      cloneString(close.Comment),
		ClosedAt:     close.ClosedAt,
		CreatedAt:    close.CreatedAt,
	}
}

func toApplicationDayCloseValidation(model persistence.DayCloseValidation) application.DayCloseValidation {
	return application.DayCloseValidation{
		ID:              model.ID,
		DayCloseID:      model.DayCloseID,
		ValidatorUserID: model.ValidatorUserID,
		Status:          model.Status,
		Comment:         cloneString(model.Comment),
		DecidedAt:       cloneTime(model.DecidedAt),
		CreatedAt:       model.CreatedAt,
	}
}

func toApplicationTeamClose(model persistence.TeamClose) application.TeamClose {
	return application.TeamClose{
		ID:               model.ID,
		TeamID:           model.TeamID,
		ManagerUserID:    model.ManagerUserID,
		CloseDate:        model.CloseDate,
		MembersTotal:     model.MembersTotal,
		MembersSubmitted: model.MembersSubmitted,
		TasksDoneTotal:   model.TasksDoneTotal,
		TotalMinutes:     model.TotalMinutes,
		Comment:          cloneString(model.Comment),
		ClosedAt:         model.ClosedAt,
		CreatedAt:        model.CreatedAt,
	}
}

func toPersistenceTeamClose(close application.TeamClose) persistence.TeamClose {
	return persistence.TeamClose{
		ID:               close.ID,
		TeamID:           close.TeamID,
		ManagerUserID:    close.ManagerUserID,
		CloseDate:        close.CloseDate,
		MembersTotal:     close.MembersTotal,
		MembersSubmitted: close.MembersSubmitted,
		TasksDoneTotal:   close.TasksDoneTotal,
		TotalMinutes:     close.TotalMinutes,
		Comment:          cloneString(close.Comment),
		ClosedAt:         close.ClosedAt,
		CreatedAt:        close.CreatedAt,
	}
}

func toApplicationTeamCloseValidation(model persistence.TeamCloseValidation) application.TeamCloseValidation {
	return application.TeamCloseValidation{
		ID:              model.ID,
		TeamCloseID:     model.TeamCloseID,
		ValidatorUserID: model.ValidatorUserID,
		Status:          model.Status,
		Comment:         cloneString(model.Comment),
		DecidedAt:       cloneTime(model.DecidedAt),
		CreatedAt:       model.CreatedAt,
	}
}

func cloneString(value *string) *string {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}

func cloneTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}

func cloneInt(value *int) *int {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}
