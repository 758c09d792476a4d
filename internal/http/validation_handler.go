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

type validationService interface {
	Submit(ctx context.Context, principal application.Principal, params application.SubmitParams) (application.SubmitResult, error)
	ListPending(ctx context.Context, principal application.Principal) ([]application.PendingDayClose, error)
	Decide(ctx context.Context, principal application.Principal, params application.DecideParams) (application.DayCloseValidation, error)
	TodayStatus(ctx context.Context, principal application.Principal) (application.DayCloseStatus, error)
}

type ValidationHandler struct {
	service   validationService
	responder responder
	logger    *slog.Logger
}

func NewValidationHandler(service validationService, logger *slog.Logger) *ValidationHandler {
	base := defaultLogger(logger)
	return &ValidationHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *ValidationHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "ValidationHandler", operation, attrs...)
}

// Submit answers 201 when a fresh PENDING validation is created and 200 when
// an existing one is reused or reset.
func (h *ValidationHandler) Submit(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, okPrincipal := PrincipalFromContext(r.Context())
	if !okPrincipal {
		h.responder.writeJSON(r.Context(), w, http.StatusUnauthorized, envelope{Message: statusMessage(http.StatusUnauthorized)})
		return
	}

	var req submitValidationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Submit", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode submit request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Submit", "user_id", principal.UserID)

	result, err := h.service.Submit(r.Context(), principal, application.SubmitParams{
		DayCloseID: strings.TrimSpace(req.DayCloseID),
		Date:       strings.TrimSpace(req.Date),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to submit day close", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	logger.With("validation_id", result.Validation.ID, "created", result.Created).InfoContext(r.Context(), "day close submitted")
	h.responder.writeJSON(r.Context(), w, status, ok(toValidationDTO(result.Validation)))
}

func (h *ValidationHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, okPrincipal := PrincipalFromContext(r.Context())
	if !okPrincipal {
		h.responder.writeJSON(r.Context(), w, http.StatusUnauthorized, envelope{Message: statusMessage(http.StatusUnauthorized)})
		return
	}

	pending, err := h.service.ListPending(r.Context(), principal)
	if err != nil {
		h.log(r.Context(), "ListPending").ErrorContext(r.Context(), "failed to list pending validations", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	payload := make([]pendingDayCloseDTO, 0, len(pending))
	for _, entry := range pending {
		payload = append(payload, pendingDayCloseDTO{
			Validation: toValidationDTO(entry.Validation),
			Close:      toDayCloseDTO(entry.Close),
			User:       toUserDTO(entry.User),
		})
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, ok(payload))
}

func (h *ValidationHandler) Decide(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, okPrincipal := PrincipalFromContext(r.Context())
	if !okPrincipal {
		h.responder.writeJSON(r.Context(), w, http.StatusUnauthorized, envelope{Message: statusMessage(http.StatusUnauthorized)})
		return
	}

	validationID, okID := ValidationIDFromContext(r.Context())
	if !okID || strings.TrimSpace(validationID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidID)
		return
	}

	var req decideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Decide", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode decision request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Decide", "validation_id", validationID, "status", req.Status)

	decided, err := h.service.Decide(r.Context(), principal, application.DecideParams{
		ValidationID: validationID,
		Status:       strings.ToUpper(strings.TrimSpace(req.Status)),
		Comment:      req.Comment,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to decide validation", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "validation decided")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, ok(toValidationDTO(decided)))
}

// TodayStatus answers with the caller's closure and validation for today, or a
// null payload when the day has not been closed yet.
func (h *ValidationHandler) TodayStatus(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, okPrincipal := PrincipalFromContext(r.Context())
	if !okPrincipal {
		h.responder.writeJSON(r.Context(), w, http.StatusUnauthorized, envelope{Message: statusMessage(http.StatusUnauthorized)})
		return
	}

	status, err := h.service.TodayStatus(r.Context(), principal)
	if err != nil {
		if errors.Is(err, application.ErrNotFound) {
			h.responder.writeJSON(r.Context(), w, http.StatusOK, envelope{Success: true})
			return
		}
		h.log(r.Context(), "TodayStatus").ErrorContext(r.Context(), "failed to load today status", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	payload := dayCloseStatusDTO{Close: toDayCloseDTO(status.Close)}
	if status.Validation != nil {
		v := toValidationDTO(*status.Validation)
		payload.Validation = &v
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, ok(payload))
}

type submitValidationRequest struct {
	DayCloseID string `json:"day_close_id"`
	Date       string `json:"date"`
}

type decideRequest struct {
	Status  string  `json:"status"`
	Comment *string `json:"comment"`
}

type validationDTO struct {
	ID              string  `json:"id"`
	DayCloseID      string  `json:"day_close_id"`
	ValidatorUserID string  `json:"validator_user_id"`
	Status          string  `json:"status"`
	Comment         *string `json:"comment,omitempty"`
	DecidedAt       *string `json:"decided_at,omitempty"`
	CreatedAt       string  `json:"created_at"`
}

type pendingDayCloseDTO struct {
	Validation validationDTO `json:"validation"`
	Close      dayCloseDTO   `json:"close"`
	User       userDTO       `json:"user"`
}

type dayCloseStatusDTO struct {
	Close      dayCloseDTO    `json:"close"`
	Validation *validationDTO `json:"validation,omitempty"`
}

func toValidationDTO(validation application.DayCloseValidation) validationDTO {
	return validationDTO{
		ID:              validation.ID,
		DayCloseID:      validation.DayCloseID,
		ValidatorUserID: validation.ValidatorUserID,
		Status:          validation.Status,
		Comment:         validation.Comment,
		DecidedAt:       formatTimestampPtr(validation.DecidedAt),
		CreatedAt:       formatTimestamp(validation.CreatedAt),
	}
}
