package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/atlasconseil/opsboard/internal/api/metrics"
	"github.com/atlasconseil/opsboard/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error string `json:"error"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their appropriate HTTP status codes.
//   - Renders denials as a generic message while logging role, resource,
//     action, and scope internally.
//   - Renders a consistent JSON envelope: {"error": "<message>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		_ = c.JSON(code, errorResponse{Error: msg})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	// Denials carry the full decision internally; the caller sees only a
	// generic refusal, never which rule or row stopped them.
	var denied *domain.AccessDenied
	if errors.As(err, &denied) {
		log.Warn().
			Str("role", string(denied.Role)).
			Str("resource", string(denied.Resource)).
			Str("action", string(denied.Action)).
			Str("scope", denied.Scope).
			Str("path", c.Path()).
			Msg("access denied")
		metrics.PolicyDenialsTotal.WithLabelValues(
			string(denied.Role), string(denied.Resource), string(denied.Action)).Inc()
		return http.StatusForbidden, "not authorized"
	}

	var invalid *domain.ValidationError
	if errors.As(err, &invalid) {
		return http.StatusUnprocessableEntity, invalid.Error()
	}

	var storage *domain.StorageError
	if errors.As(err, &storage) {
		log.Error().Err(storage.Err).Str("op", storage.Op).Msg("storage failure")
		if storage.Transient {
			return http.StatusServiceUnavailable, "temporarily unavailable, retry"
		}
		return http.StatusInternalServerError, "internal server error"
	}

	// Known domain errors → deterministic HTTP codes. Unknown user and bad
	// password share one message so usernames cannot be probed.
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials), errors.Is(err, domain.ErrUnknownUser):
		return http.StatusUnauthorized, "invalid credentials"
	case errors.Is(err, domain.ErrUserExists):
		return http.StatusConflict, "user already exists"
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, "user not found"
	case errors.Is(err, domain.ErrClientNotFound):
		return http.StatusNotFound, "client not found"
	case errors.Is(err, domain.ErrMissionNotFound):
		return http.StatusNotFound, "mission not found"
	case errors.Is(err, domain.ErrEntryNotFound):
		return http.StatusNotFound, "time entry not found"
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal server error"
}
