package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/99minutos/auth-api/internal/api/handler"
	"github.com/99minutos/auth-api/internal/core/domain"
)

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps domain errors to their HTTP status codes.
//   - Logs store, configuration and unexpected errors without leaking details to the client.
//   - Renders a consistent JSON envelope: {"message": "<message>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, resp := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, resp)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, handler.ErrorResponse) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, handler.ErrorResponse{Message: fmt.Sprintf("%v", he.Message)}
	}

	var pv *domain.PolicyViolationError
	if errors.As(err, &pv) {
		return http.StatusBadRequest, handler.ErrorResponse{Message: pv.Error(), Violations: pv.Violations}
	}

	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, handler.ErrorResponse{Message: err.Error()}
	case errors.Is(err, domain.ErrDuplicateUsername):
		return http.StatusConflict, handler.ErrorResponse{Message: "username already exists"}
	case errors.Is(err, domain.ErrDuplicateEmail):
		return http.StatusConflict, handler.ErrorResponse{Message: "email already exists"}
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, handler.ErrorResponse{Message: "user not found"}
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, handler.ErrorResponse{Message: "invalid credentials"}
	case errors.Is(err, domain.ErrTooManyAttempts):
		return http.StatusTooManyRequests, handler.ErrorResponse{Message: "too many failed login attempts, try again later"}
	}

	code := http.StatusInternalServerError
	msg := "internal server error"
	if errors.Is(err, domain.ErrStore) {
		code = http.StatusServiceUnavailable
		msg = "user store unavailable"
	}

	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Int("status", code).
		Msg("request failed")

	return code, handler.ErrorResponse{Message: msg}
}
