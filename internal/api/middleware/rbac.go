package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/multirole-auth/internal/api/metrics"
	"github.com/99minutos/multirole-auth/internal/core/domain"
	"github.com/99minutos/multirole-auth/internal/core/ports"
)

// RequireRole is called at the top of every protected handler. It returns nil
// when the request's principal holds role, a 401 challenge when there is no
// principal and a 403 otherwise.
func RequireRole(c echo.Context, authz ports.Authorizer, role domain.RoleName) error {
	decision := authz.Decide(Principal(c), role)
	metrics.AuthorizationDecisionsTotal.WithLabelValues(string(role), decision.String()).Inc()

	switch decision {
	case domain.DecisionAllow:
		return nil
	case domain.DecisionUnauthenticated:
		c.Response().Header().Set(echo.HeaderWWWAuthenticate, Challenge)
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	default:
		return echo.NewHTTPError(http.StatusForbidden, "access denied")
	}
}
