package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/99minutos/multirole-auth/internal/api/metrics"
	"github.com/99minutos/multirole-auth/internal/api/middleware"
	"github.com/99minutos/multirole-auth/internal/core/domain"
	"github.com/99minutos/multirole-auth/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
	log         zerolog.Logger
}

func NewAuthHandler(authService ports.AuthService, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, log: log}
}

type registerRequest struct {
	Username  string   `json:"username" validate:"required"`
	Password  string   `json:"password" validate:"required"`
	Email     string   `json:"email,omitempty" validate:"omitempty,email"`
	FirstName string   `json:"firstName,omitempty"`
	LastName  string   `json:"lastName,omitempty"`
	RoleNames []string `json:"roleNames,omitempty"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// PublicHealth reports that the authentication service is up.
//
// @Summary      Authentication service health
// @Tags         auth
// @Produce      json
// @Success      200  {object}  apiResponse
// @Router       /api/auth/public/health [get]
func (h *AuthHandler) PublicHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, apiResponse{Message: "Authentication service is running", Success: true})
}

// Register creates a new user account with the requested roles.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "User registration details"
// @Success      201   {object}  domain.AuthenticationResult
// @Failure      400   {object}  domain.AuthenticationResult
// @Failure      500   {object}  errorBody
// @Router       /api/auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		metrics.RegistrationsTotal.WithLabelValues("invalid").Inc()
		return c.JSON(http.StatusBadRequest, domain.Failed("invalid payload"))
	}
	if err := c.Validate(&req); err != nil {
		metrics.RegistrationsTotal.WithLabelValues("invalid").Inc()
		return c.JSON(http.StatusBadRequest, domain.Failed(err.Error()))
	}

	res, err := h.authService.RegisterUser(c.Request().Context(), ports.RegisterInput{
		Username:  req.Username,
		Password:  req.Password,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		RoleNames: req.RoleNames,
	})
	if err != nil {
		var rnf *domain.RoleNotFoundError
		if errors.As(err, &rnf) {
			metrics.RegistrationsTotal.WithLabelValues("role_not_found").Inc()
			return c.JSON(http.StatusBadRequest, domain.Failed(rnf.Error()))
		}
		metrics.RegistrationsTotal.WithLabelValues("error").Inc()
		return err
	}

	if !res.Success {
		metrics.RegistrationsTotal.WithLabelValues("username_taken").Inc()
		return c.JSON(http.StatusBadRequest, res)
	}
	metrics.RegistrationsTotal.WithLabelValues("created").Inc()
	return c.JSON(http.StatusCreated, res)
}

// Login checks a username/password pair and returns the user's identity.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  domain.AuthenticationResult
// @Failure      400   {object}  domain.AuthenticationResult
// @Failure      401   {object}  domain.AuthenticationResult
// @Failure      500   {object}  errorBody
// @Router       /api/auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, domain.Failed("invalid payload"))
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, domain.Failed(err.Error()))
	}

	res, err := h.authService.AuthenticateUser(c.Request().Context(), ports.LoginInput{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("login", "error").Inc()
		return err
	}

	if !res.Success {
		metrics.LoginsTotal.WithLabelValues("login", middleware.LoginOutcome(res.Message)).Inc()
		return c.JSON(http.StatusUnauthorized, res)
	}
	metrics.LoginsTotal.WithLabelValues("login", "success").Inc()
	h.log.Info().Str("username", res.Username).Msg("login successful")
	return c.JSON(http.StatusOK, res)
}

// Logout acknowledges a logout. No session state is kept server-side.
//
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Success      200  {object}  apiResponse
// @Router       /api/auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	return c.JSON(http.StatusOK, apiResponse{Message: "Logout successful", Success: true})
}
