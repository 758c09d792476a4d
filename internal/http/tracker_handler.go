package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/workforce-tracker/internal/application"
)

type trackerService interface {
	Start(ctx context.Context, params application.StartParams) (application.WorkSession, error)
	Stop(ctx context.Context, params application.StopParams) (application.WorkSession, error)
	Open(ctx context.Context, principal application.Principal) (application.WorkSession, error)
	ListMy(ctx context.Context, principal application.Principal, date *string) ([]application.WorkSession, error)
}

type TrackerHandler struct {
	service   trackerService
	responder responder
	logger    *slog.Logger
}

func NewTrackerHandler(service trackerService, logger *slog.Logger) *TrackerHandler {
	base := defaultLogger(logger)
	return &TrackerHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *TrackerHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "TrackerHandler", operation, attrs...)
}

func (h *TrackerHandler) Start(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, okPrincipal := PrincipalFromContext(r.Context())
	if !okPrincipal {
		h.responder.writeJSON(r.Context(), w, http.StatusUnauthorized, envelope{Message: statusMessage(http.StatusUnauthorized)})
		return
	}

	var req startSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Start", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode start request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Start", "user_id", principal.UserID)

	session, err := h.service.Start(r.Context(), application.StartParams{
		Principal: principal,
		TaskID:    req.TaskID,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to start session", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("session_id", session.ID).InfoContext(r.Context(), "session started")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, ok(toSessionDTO(session)))
}

func (h *TrackerHandler) Stop(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, okPrincipal := PrincipalFromContext(r.Context())
	if !okPrincipal {
		h.responder.writeJSON(r.Context(), w, http.StatusUnauthorized, envelope{Message: statusMessage(http.StatusUnauthorized)})
		return
	}

	var req stopSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Stop", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode stop request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Stop", "user_id", principal.UserID, "session_id", req.SessionID)

	session, err := h.service.Stop(r.Context(), application.StopParams{
		Principal: principal,
		SessionID: strings.TrimSpace(req.SessionID),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to stop session", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "session stopped")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, ok(toSessionDTO(session)))
}

// Open answers with the caller's running session, or a null payload when no
// session is open.
func (h *TrackerHandler) Open(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, okPrincipal := PrincipalFromContext(r.Context())
	if !okPrincipal {
		h.responder.writeJSON(r.Context(), w, http.StatusUnauthorized, envelope{Message: statusMessage(http.StatusUnauthorized)})
		return
	}

	session, err := h.service.Open(r.Context(), principal)
	if err != nil {
		if errors.Is(err, application.ErrNotFound) {
			h.responder.writeJSON(r.Context(), w, http.StatusOK, envelope{Success: true})
			return
		}
		h.log(r.Context(), "Open").ErrorContext(r.Context(), "failed to load open session", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, ok(toSessionDTO(session)))
}

func (h *TrackerHandler) ListMy(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, okPrincipal := PrincipalFromContext(r.Context())
	if !okPrincipal {
		h.responder.writeJSON(r.Context(), w, http.StatusUnauthorized, envelope{Message: statusMessage(http.StatusUnauthorized)})
		return
	}

	var date *string
	if raw := strings.TrimSpace(r.URL.Query().Get("date")); raw != "" {
		date = &raw
	}

	sessions, err := h.service.ListMy(r.Context(), principal, date)
	if err != nil {
		h.log(r.Context(), "ListMy").ErrorContext(r.Context(), "failed to list sessions", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	payload := make([]sessionDTO, 0, len(sessions))
	for _, session := range sessions {
		payload = append(payload, toSessionDTO(session))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, ok(payload))
}

type startSessionRequest struct {
	TaskID *string `json:"task_id"`
}

type stopSessionRequest struct {
	SessionID string `json:"session_id"`
}

type sessionDTO struct {
	ID              string  `json:"id"`
	UserID          string  `json:"user_id"`
	TaskID          *string `json:"task_id,omitempty"`
	StartTime       string  `json:"start_time"`
	EndTime         *string `json:"end_time,omitempty"`
	DurationMinutes *int    `json:"duration_minutes,omitempty"`
	CreatedAt       string  `json:"created_at"`
}

func toSessionDTO(session application.WorkSession) sessionDTO {
	return sessionDTO{
		ID:              session.ID,
		UserID:          session.UserID,
		TaskID:          session.TaskID,
		StartTime:       formatTimestamp(session.StartTime),
		EndTime:         formatTimestampPtr(session.EndTime),
		DurationMinutes: session.DurationMinutes,
		CreatedAt:       formatTimestamp(session.CreatedAt),
	}
}
