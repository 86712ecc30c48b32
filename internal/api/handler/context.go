package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/auth-api/internal/api/middleware"
)

// ctxClaims extracts the claims injected by the Auth middleware. An empty
// username or role means the middleware did not run, so the request is
// rejected before any service call.
func ctxClaims(c echo.Context) (username, role string, err error) {
	username, _ = c.Get(middleware.ContextUsername).(string)
	role, _ = c.Get(middleware.ContextRole).(string)
	if username == "" || role == "" {
		return "", "", echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return username, role, nil
}
