package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/workforce-tracker/internal/application"
)

type teamValidationService interface {
	ListPending(ctx context.Context, principal application.Principal) ([]application.PendingTeamClose, error)
	Decide(ctx context.Context, principal application.Principal, params application.DecideParams) (application.TeamCloseValidation, error)
}

type TeamValidationHandler struct {
	service   teamValidationService
	responder responder
	logger    *slog.Logger
}

func NewTeamValidationHandler(service teamValidationService, logger *slog.Logger) *TeamValidationHandler {
	base := defaultLogger(logger)
	return &TeamValidationHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *TeamValidationHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "TeamValidationHandler", operation, attrs...)
}

func (h *TeamValidationHandler) ListPending(w http.ResponseWriter, r *http.Request) {
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
		h.log(r.Context(), "ListPending").ErrorContext(r.Context(), "failed to list pending team validations", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	payload := make([]pendingTeamCloseDTO, 0, len(pending))
	for _, entry := range pending {
		payload = append(payload, pendingTeamCloseDTO{
			Validation: toTeamValidationDTO(entry.Validation),
			Close:      toTeamCloseDTO(entry.Close),
			TeamName:   entry.TeamName,
			Manager:    toUserDTO(entry.Manager),
		})
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, ok(payload))
}

func (h *TeamValidationHandler) Decide(w http.ResponseWriter, r *http.Request) {
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
		logger.ErrorContext(r.Context(), "failed to decide team validation", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "team validation decided")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, ok(toTeamValidationDTO(decided)))
}

type teamValidationDTO struct {
	ID              string  `json:"id"`
	TeamCloseID     string  `json:"team_close_id"`
	ValidatorUserID string  `json:"validator_user_id"`
	Status          string  `json:"status"`
	Comment         *string `json:"comment,omitempty"`
	DecidedAt       *string `json:"decided_at,omitempty"`
	CreatedAt       string  `json:"created_at"`
}

type pendingTeamCloseDTO struct {
	Validation teamValidationDTO `json:"validation"`
	Close      teamCloseDTO      `json:"close"`
	TeamName   string            `json:"team_name"`
	Manager    userDTO           `json:"manager"`
}

func toTeamValidationDTO(validation application.TeamCloseValidation) teamValidationDTO {
	return teamValidationDTO{
		ID:              validation.ID,
		TeamCloseID:     validation.TeamCloseID,
		ValidatorUserID: validation.ValidatorUserID,
		Status:          validation.Status,
		Comment:         validation.Comment,
		DecidedAt:       formatTimestampPtr(validation.DecidedAt),
		CreatedAt:       formatTimestamp(validation.CreatedAt),
	}
}
