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

var (
	errBadRequestBody = errors.New("invalid request body")
	errInvalidID      = errors.New("invalid identifier")
	errMissingToken   = errors.New("authentication token required")
)

// envelope is the uniform response shape: every endpoint answers
// {"success", "data", "message"}, with field level validation issues in
// "errors" when present.
type envelope struct {
	Success bool              `json:"success"`
	Data    any               `json:"data,omitempty"`
	Message string            `json:"message,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

func ok(data any) envelope {
	return envelope{Success: true, Data: data}
}

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	message := statusMessage(status)
	if err != nil {
		if msg := strings.TrimSpace(err.Error()); msg != "" {
			message = msg
		}
		r.loggerFor(ctx).ErrorContext(ctx, "request failed", "status", status, "error", err)
	}

	r.writeJSON(ctx, w, status, envelope{Message: message})
}

// handleServiceError maps application sentinel errors onto the HTTP error
// taxonomy: 422 validation, 401 unauthenticated, 403 forbidden, 404 missing,
// 409 workflow conflicts, 500 otherwise.
func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.writeError(ctx, w, http.StatusInternalServerError, errors.New("unknown error"))
		return
	}

	switch {
	case errors.Is(err, application.ErrBadRequest):
		message := statusMessage(http.StatusBadRequest)
		var bErr *application.BadRequestError
		if errors.As(err, &bErr) && bErr.Reason != "" {
			message = bErr.Reason
		}
		r.writeJSON(ctx, w, http.StatusBadRequest, envelope{Message: message})
	case errors.Is(err, application.ErrUnauthorized),
		errors.Is(err, application.ErrSessionExpired),
		errors.Is(err, application.ErrSessionRevoked):
		r.writeJSON(ctx, w, http.StatusUnauthorized, envelope{Message: "authentication required"})
	case errors.Is(err, application.ErrForbidden):
		r.writeJSON(ctx, w, http.StatusForbidden, envelope{Message: "you are not allowed to perform this operation"})
	case errors.Is(err, application.ErrNotFound):
		r.writeJSON(ctx, w, http.StatusNotFound, envelope{Message: "the requested resource was not found"})
	case errors.Is(err, application.ErrConflict):
		message := "the request conflicts with the current state"
		var cErr *application.ConflictError
		if errors.As(err, &cErr) && cErr.Reason != "" {
			message = cErr.Reason
		}
		r.writeJSON(ctx, w, http.StatusConflict, envelope{Message: message})
	default:
		var vErr *application.ValidationError
		if errors.As(err, &vErr) {
			r.writeJSON(ctx, w, http.StatusUnprocessableEntity, envelope{
				Message: "the submitted values are invalid",
				Errors:  vErr.FieldErrors,
			})
			return
		}

		r.loggerFor(ctx).ErrorContext(ctx, "unhandled service error", "error", err)
		r.writeJSON(ctx, w, http.StatusInternalServerError, envelope{Message: "internal server error"})
	}
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := LoggerFromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

func statusMessage(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "the request is malformed"
	case http.StatusUnauthorized:
		return "authentication required"
	case http.StatusForbidden:
		return "you are not allowed to perform this operation"
	case http.StatusNotFound:
		return "the requested resource was not found"
	case http.StatusConflict:
		return "the request conflicts with the current state"
	case http.StatusUnprocessableEntity:
		return "the submitted values are invalid"
	default:
		return "internal server error"
	}
}
