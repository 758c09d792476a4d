package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/example/workforce-tracker/internal/application"
)

type dayCloseService interface {
	Preview(ctx context.Context, principal application.Principal) (application.DayClosePreview, error)
	CloseDay(ctx context.Context, principal application.Principal, comment *string) (application.CloseDayResult, error)
	MyCloses(ctx context.Context, principal application.Principal) ([]application.DayClose, error)
}

type DayCloseHandler struct {
	service   dayCloseService
	responder responder
	logger    *slog.Logger
}

func NewDayCloseHandler(service dayCloseService, logger *slog.Logger) *DayCloseHandler {
	base := defaultLogger(logger)
	return &DayCloseHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *DayCloseHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "DayCloseHandler", operation, attrs...)
}

func (h *DayCloseHandler) Preview(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, okPrincipal := PrincipalFromContext(r.Context())
	if !okPrincipal {
		h.responder.writeJSON(r.Context(), w, http.StatusUnauthorized, envelope{Message: statusMessage(http.StatusUnauthorized)})
		return
	}

	preview, err := h.service.Preview(r.Context(), principal)
	if err != nil {
		h.log(r.Context(), "Preview").ErrorContext(r.Context(), "failed to build day close preview", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, ok(dayClosePreviewDTO{
		Date:          preview.Date,
		OpenSession:   preview.OpenSession,
		AlreadyClosed: preview.AlreadyClosed,
		LastClosedAt:  formatTimestampPtr(preview.LastClosedAt),
		TotalMinutes:  preview.TotalMinutes,
		TasksDone:     preview.TasksDone,
	}))
}

// CloseDay answers 201 for the first closure of the day and 200 for an
// in-place re-closure.
func (h *DayCloseHandler) CloseDay(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, okPrincipal := PrincipalFromContext(r.Context())
	if !okPrincipal {
		h.responder.writeJSON(r.Context(), w, http.StatusUnauthorized, envelope{Message: statusMessage(http.StatusUnauthorized)})
		return
	}

	var req closeDayRequest
	// An empty body means a closure without a comment.
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.log(r.Context(), "CloseDay", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode close request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "CloseDay", "user_id", principal.UserID)

	result, err := h.service.CloseDay(r.Context(), principal, req.Comment)
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to close day", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	logger.With("day_close_id", result.Close.ID, "created", result.Created).InfoContext(r.Context(), "day closed")
	h.responder.writeJSON(r.Context(), w, status, ok(toDayCloseDTO(result.Close)))
}

func (h *DayCloseHandler) MyCloses(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, okPrincipal := PrincipalFromContext(r.Context())
	if !okPrincipal {
		h.responder.writeJSON(r.Context(), w, http.StatusUnauthorized, envelope{Message: statusMessage(http.StatusUnauthorized)})
		return
	}

	closes, err := h.service.MyCloses(r.Context(), principal)
	if err != nil {
		h.log(r.Context(), "MyCloses").ErrorContext(r.Context(), "failed to list closures", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	payload := make([]dayCloseDTO, 0, len(closes))
	for _, close := range closes {
		payload = append(payload, toDayCloseDTO(close))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, ok(payload))
}

type closeDayRequest struct {
	Comment *string `json:"comment"`
}

type dayClosePreviewDTO struct {
	Date          string  `json:"date"`
	OpenSession   bool    `json:"open_session"`
	AlreadyClosed bool    `json:"already_closed"`
	LastClosedAt  *string `json:"last_closed_at,omitempty"`
	TotalMinutes  int     `json:"total_minutes"`
	TasksDone     int     `json:"tasks_done"`
}

type dayCloseDTO struct {
	ID           string  `json:"id"`
	UserID       string  `json:"user_id"`
	CloseDate    string  `json:"close_date"`
	TotalMinutes int     `json:"total_minutes"`
	TasksDone    int     `json:"tasks_done"`
	Comment      *string `json:"comment,omitempty"`
	ClosedAt     string  `json:"closed_at"`
	CreatedAt    string  `json:"created_at"`
}

func toDayCloseDTO(close application.DayClose) dayCloseDTO {
	return dayCloseDTO{
		ID:           close.ID,
		UserID:       close.UserID,
		CloseDate:    close.CloseDate,
		TotalMinutes: close.TotalMinutes,
		TasksDone:    close.TasksDone,
		Comment:      close.Comment,
		ClosedAt:     formatTimestamp(close.ClosedAt),
		CreatedAt:    formatTimestamp(close.CreatedAt),
	}
}
