// Package http provides HTTP handlers and middleware for the workforce
// tracker API.
//
// The router exposes the following endpoints:
//   - POST /auth/login: issues a bearer token. Body: {"email","password"}.
//   - POST /auth/logout: revokes the presented token. GET /auth/me returns the
//     current principal's user record.
//   - POST /sessions/start, POST /sessions/stop, GET /sessions/my,
//     GET /sessions/my/open: the time tracker surface defined in
//     tracker_handler.go.
//   - GET /day-close/preview, POST /day-close, GET /day-close/my: the daily
//     closure surface defined in dayclose_handler.go.
//   - POST /validations/submit, GET /validations/pending,
//     GET /validations/today/status, POST /validations/{id}/decision: the day
//     close approval chain defined in validation_handler.go.
//   - GET /team-close/preview, POST /team-close: the team closure surface
//     defined in teamclose_handler.go.
//   - GET /team-validations/pending, POST /team-validations/{id}/decision: the
//     admin-only team approval surface defined in teamvalidation_handler.go.
//
// Every response is wrapped in the {"success","data","message"} envelope
// produced by responder.go. Request/response DTOs live alongside their
// respective handlers so tests and documentation share the same ground truth.
package http
