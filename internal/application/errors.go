package application

import "errors"

var (
	// ErrUnauthorized is returned when no valid principal accompanies a call.
	ErrUnauthorized = errors.New("application: unauthorized")
	// ErrForbidden is returned when the principal's role or ownership does not
	// permit the operation.
	ErrForbidden = errors.New("application: forbidden")
	// ErrNotFound is returned when the requested resource does not exist or is
	// not visible to the caller.
	ErrNotFound = errors.New("application: not found")
	// ErrConflict is returned on workflow state violations: an open session
	// already exists, a session is already finished, or a day is already
	// closed with no new activity.
	ErrConflict = errors.New("application: conflict")
	// ErrInvalidCredentials is returned when authentication fails.
	ErrInvalidCredentials = errors.New("application: invalid credentials")
	// ErrSessionExpired is returned when a bearer token is past its TTL.
	ErrSessionExpired = errors.New("application: session expired")
	// ErrSessionRevoked is returned when a bearer token has been revoked.
	ErrSessionRevoked = errors.New("application: session revoked")
	// ErrBadRequest is returned when the request itself is malformed, such as
	// a decision status outside the allowed set.
	ErrBadRequest = errors.New("application: bad request")
)

// ConflictError wraps ErrConflict with a caller-facing reason.
type ConflictError struct {
	Reason string
}

func (e *ConflictError) Error() string {
	if e == nil || e.Reason == "" {
		return ErrConflict.Error()
	}
	return e.Reason
}

// Unwrap allows errors.Is(err, ErrConflict) to match.
func (e *ConflictError) Unwrap() error { return ErrConflict }

func conflict(reason string) error {
	return &ConflictError{Reason: reason}
}

// BadRequestError wraps ErrBadRequest with a caller-facing reason.
type BadRequestError struct {
	Reason string
}

func (e *BadRequestError) Error() string {
	if e == nil || e.Reason == "" {
		return ErrBadRequest.Error()
	}
	return e.Reason
}

// Unwrap allows errors.Is(err, ErrBadRequest) to match.
func (e *BadRequestError) Unwrap() error { return ErrBadRequest }

func badRequest(reason string) error {
	return &BadRequestError{Reason: reason}
}

// ValidationError captures field level validation issues that callers can
// surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}
