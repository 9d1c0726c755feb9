package middleware

import (
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/99minutos/multirole-auth/internal/api/metrics"
	"github.com/99minutos/multirole-auth/internal/core/domain"
	"github.com/99minutos/multirole-auth/internal/core/ports"
)

const (
	// Realm is announced in every WWW-Authenticate challenge.
	Realm = "multirole-auth"
	// Challenge is the WWW-Authenticate value of every 401. It matches what
	// echo's BasicAuth middleware sends for Realm.
	Challenge = `basic realm="` + Realm + `"`

	principalKey = "principal"
)

// BasicAuth checks HTTP Basic credentials against the AuthService and stores
// the resulting principal on the context. Requests without an Authorization
// header pass through anonymously so the role check can answer 401; bad
// credentials are rejected here with a 401 challenge.
func BasicAuth(auth ports.AuthService, log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.BasicAuthWithConfig(echomiddleware.BasicAuthConfig{
		Realm: Realm,
		Skipper: func(c echo.Context) bool {
			return c.Request().Header.Get(echo.HeaderAuthorization) == ""
		},
		Validator: func(username, password string, c echo.Context) (bool, error) {
			res, err := auth.AuthenticateUser(c.Request().Context(), ports.LoginInput{
				Username: username,
				Password: password,
			})
			if err != nil {
				metrics.LoginsTotal.WithLabelValues("basic", "error").Inc()
				return false, err
			}
			if !res.Success {
				metrics.LoginsTotal.WithLabelValues("basic", LoginOutcome(res.Message)).Inc()
				log.Debug().
					Str("username", username).
					Str("path", c.Path()).
					Str("reason", res.Message).
					Msg("basic auth rejected")
				return false, nil
			}

			metrics.LoginsTotal.WithLabelValues("basic", "success").Inc()
			c.Set(principalKey, domain.PrincipalFrom(res))
			return true, nil
		},
	})
}

// Principal returns the principal stored by BasicAuth, or nil for an
// anonymous request.
func Principal(c echo.Context) *domain.Principal {
	p, _ := c.Get(principalKey).(*domain.Principal)
	return p
}

// LoginOutcome maps a failed result message onto a metric label.
func LoginOutcome(message string) string {
	switch message {
	case domain.MsgAccountDisabled:
		return "disabled"
	case domain.MsgAccountLocked:
		return "locked"
	default:
		return "invalid_credentials"
	}
}
