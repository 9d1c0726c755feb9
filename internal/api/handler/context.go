package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/multirole-auth/internal/api/middleware"
	"github.com/99minutos/multirole-auth/internal/core/domain"
)

// apiResponse is the envelope of the role-protected resources.
type apiResponse struct {
	Message string `json:"message"`
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
}

// errorBody documents the envelope rendered by the central error handler.
type errorBody struct {
	Error string `json:"error"`
}

// ctxPrincipal returns the principal set by the BasicAuth middleware. A
// missing principal after a successful role check means the route was wired
// without the gate; answer 401 rather than panic.
func ctxPrincipal(c echo.Context) (*domain.Principal, error) {
	p := middleware.Principal(c)
	if p == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication")
	}
	return p, nil
}
