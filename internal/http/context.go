package http

import (
	"context"

	"github.com/example/workforce-tracker/internal/application"
)

type contextKey string

const (
	principalContextKey    contextKey = "principal"
	validationIDContextKey contextKey = "validation_id"
)

// ContextWithPrincipal returns a derived context containing the authenticated principal.
func ContextWithPrincipal(ctx context.Context, principal application.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, principal)
}

// PrincipalFromContext extracts the authenticated principal from context if available.
func PrincipalFromContext(ctx context.Context) (application.Principal, bool) {
	principal, ok := ctx.Value(principalContextKey).(application.Principal)
	return principal, ok
}

// ContextWithValidationID injects the validation identifier resolved from the request path.
func ContextWithValidationID(ctx context.Context, validationID string) context.Context {
	return context.WithValue(ctx, validationIDContextKey, validationID)
}

// ValidationIDFromContext extracts a validation identifier previously associated with the context.
func ValidationIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(validationIDContextKey).(string)
	return id, ok
}
