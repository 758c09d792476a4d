package application

import (
	"errors"
	"fmt"
	"testing"
)

func TestConflictError_UnwrapsToSentinel(t *testing.T) {
	t.Parallel()

	err := conflict("a session is already running")

	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict errors to match ErrConflict, got %v", err)
	}

	var cErr *ConflictError
	if !errors.As(err, &cErr) {
		t.Fatalf("expected ConflictError, got %T", err)
	}
	if cErr.Reason != "a session is already running" {
		t.Fatalf("expected reason to carry through, got %q", cErr.Reason)
	}
	if err.Error() != "a session is already running" {
		t.Fatalf("expected reason as message, got %q", err.Error())
	}
}

func TestConflictError_FallsBackToSentinelMessage(t *testing.T) {
	t.Parallel()

	err := &ConflictError{}
	if err.Error() != ErrConflict.Error() {
		t.Fatalf("expected sentinel message without a reason, got %q", err.Error())
	}
}

func TestBadRequestError_UnwrapsToSentinel(t *testing.T) {
	t.Parallel()

	err := badRequest("status must be APPROVED or REJECTED")

	if !errors.Is(err, ErrBadRequest) {
		t.Fatalf("expected bad request errors to match ErrBadRequest, got %v", err)
	}

	var bErr *BadRequestError
	if !errors.As(err, &bErr) {
		t.Fatalf("expected BadRequestError, got %T", err)
	}
	if err.Error() != "status must be APPROVED or REJECTED" {
		t.Fatalf("expected reason as message, got %q", err.Error())
	}
	if (&BadRequestError{}).Error() != ErrBadRequest.Error() {
		t.Fatalf("expected sentinel message without a reason")
	}
}

func TestValidationError_CollectsFieldErrors(t *testing.T) {
	t.Parallel()

	vErr := &ValidationError{}
	if vErr.HasErrors() {
		t.Fatalf("expected empty error to report no fields")
	}

	vErr.add("date", "date must be formatted YYYY-MM-DD")
	vErr.add("status", "status must be APPROVED or REJECTED")

	if !vErr.HasErrors() {
		t.Fatalf("expected HasErrors after adding fields")
	}
	if got := vErr.FieldErrors["date"]; got != "date must be formatted YYYY-MM-DD" {
		t.Fatalf("unexpected date message: %q", got)
	}
	if vErr.Error() != "validation failed" {
		t.Fatalf("expected stable message, got %q", vErr.Error())
	}
}

func TestErrorKind_LabelsSentinels(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		err  error
		want string
	}{
		"nil":                 {nil, ""},
		"unauthorized":        {ErrUnauthorized, "unauthorized"},
		"forbidden":           {ErrForbidden, "forbidden"},
		"not found":           {ErrNotFound, "not_found"},
		"conflict":            {conflict("day already closed"), "conflict"},
		"invalid credentials": {ErrInvalidCredentials, "invalid_credentials"},
		"session expired":     {ErrSessionExpired, "session_expired"},
		"session revoked":     {ErrSessionRevoked, "session_revoked"},
		"bad request":         {badRequest("status must be APPROVED or REJECTED"), "bad_request"},
		"validation":          {&ValidationError{FieldErrors: map[string]string{"date": "bad"}}, "validation"},
		"wrapped":             {fmt.Errorf("lookup: %w", ErrNotFound), "not_found"},
		"unexpected":          {errors.New("disk on fire"), "unexpected"},
	}

	for name, tc := range cases {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			if got := ErrorKind(tc.err); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}
