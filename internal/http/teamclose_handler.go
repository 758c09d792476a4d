package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/workforce-tracker/internal/application"
)

type teamCloseService interface {
	Preview(ctx context.Context, principal application.Principal, teamID, date string) (application.TeamClosePreview, error)
	CloseTeam(ctx context.Context, principal application.Principal, params application.CloseTeamParams) (application.TeamClose, error)
}

type TeamCloseHandler struct {
	service   teamCloseService
	responder responder
	logger    *slog.Logger
}

func NewTeamCloseHandler(service teamCloseService, logger *slog.Logger) *TeamCloseHandler {
	base := defaultLogger(logger)
	return &TeamCloseHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *TeamCloseHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "TeamCloseHandler", operation, attrs...)
}

func (h *TeamCloseHandler) Preview(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, okPrincipal := PrincipalFromContext(r.Context())
	if !okPrincipal {
		h.responder.writeJSON(r.Context(), w, http.StatusUnauthorized, envelope{Message: statusMessage(http.StatusUnauthorized)})
		return
	}

	query := r.URL.Query()
	teamID := strings.TrimSpace(query.Get("team_id"))
	date := strings.TrimSpace(query.Get("date"))

	preview, err := h.service.Preview(r.Context(), principal, teamID, date)
	if err != nil {
		h.log(r.Context(), "Preview", "team_id", teamID).ErrorContext(r.Context(), "failed to build team close preview", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, ok(toTeamClosePreviewDTO(preview)))
}

func (h *TeamCloseHandler) CloseTeam(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, okPrincipal := PrincipalFromContext(r.Context())
	if !okPrincipal {
		h.responder.writeJSON(r.Context(), w, http.StatusUnauthorized, envelope{Message: statusMessage(http.StatusUnauthorized)})
		return
	}

	var req closeTeamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "CloseTeam", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode team close request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "CloseTeam", "user_id", principal.UserID, "team_id", req.TeamID)

	close, err := h.service.CloseTeam(r.Context(), principal, application.CloseTeamParams{
		TeamID:  strings.TrimSpace(req.TeamID),
		Date:    strings.TrimSpace(req.Date),
		Comment: req.Comment,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to close team", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("team_close_id", close.ID).InfoContext(r.Context(), "team closed")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, ok(toTeamCloseDTO(close)))
}

type closeTeamRequest struct {
	TeamID  string  `json:"team_id"`
	Date    string  `json:"date"`
	Comment *string `json:"comment"`
}

type teamCloseDTO struct {
	ID               string  `json:"id"`
	TeamID           string  `json:"team_id"`
	ManagerUserID    string  `json:"manager_user_id"`
	CloseDate        string  `json:"close_date"`
	MembersTotal     int     `json:"members_total"`
	MembersSubmitted int     `json:"members_submitted"`
	TasksDoneTotal   int     `json:"tasks_done_total"`
	TotalMinutes     int     `json:"total_minutes"`
	Comment          *string `json:"comment,omitempty"`
	ClosedAt         string  `json:"closed_at"`
	CreatedAt        string  `json:"created_at"`
}

func toTeamCloseDTO(close application.TeamClose) teamCloseDTO {
	return teamCloseDTO{
		ID:               close.ID,
		TeamID:           close.TeamID,
		ManagerUserID:    close.ManagerUserID,
		CloseDate:        close.CloseDate,
		MembersTotal:     close.MembersTotal,
		MembersSubmitted: close.MembersSubmitted,
		TasksDoneTotal:   close.TasksDoneTotal,
		TotalMinutes:     close.TotalMinutes,
		Comment:          close.Comment,
		ClosedAt:         formatTimestamp(close.ClosedAt),
		CreatedAt:        formatTimestamp(close.CreatedAt),
	}
}

type teamMemberStatusDTO struct {
	User             userDTO      `json:"user"`
	Close            *dayCloseDTO `json:"close,omitempty"`
	ValidationStatus *string      `json:"validation_status,omitempty"`
}

type teamClosePreviewDTO struct {
	Date             string                `json:"date"`
	MembersTotal     int                   `json:"members_total"`
	MembersSubmitted int                   `json:"members_submitted"`
	TotalMinutes     int                   `json:"total_minutes"`
	TasksDoneTotal   int                   `json:"tasks_done_total"`
	Members          []teamMemberStatusDTO `json:"members"`
	Close            *teamCloseDTO         `json:"close,omitempty"`
	Validation       *teamValidationDTO    `json:"validation,omitempty"`
}

func toTeamClosePreviewDTO(preview application.TeamClosePreview) teamClosePreviewDTO {
	dto := teamClosePreviewDTO{
		Date:             preview.Date,
		MembersTotal:     preview.MembersTotal,
		MembersSubmitted: preview.MembersSubmitted,
		TotalMinutes:     preview.TotalMinutes,
		TasksDoneTotal:   preview.TasksDoneTotal,
		Members:          make([]teamMemberStatusDTO, 0, len(preview.Members)),
	}
	for _, member := range preview.Members {
		status := teamMemberStatusDTO{
			User:             toUserDTO(member.User),
			ValidationStatus: member.ValidationStatus,
		}
		if member.Close != nil {
			c := toDayCloseDTO(*member.Close)
			status.Close = &c
		}
		dto.Members = append(dto.Members, status)
	}
	if preview.Close != nil {
		c := toTeamCloseDTO(*preview.Close)
		dto.Close = &c
	}
	if preview.Validation != nil {
		v := toTeamValidationDTO(*preview.Validation)
		dto.Validation = &v
	}
	return dto
}
