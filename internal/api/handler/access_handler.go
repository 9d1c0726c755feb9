package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/multirole-auth/internal/api/middleware"
	"github.com/99minutos/multirole-auth/internal/core/domain"
	"github.com/99minutos/multirole-auth/internal/core/ports"
)

// AccessHandler serves the role-protected admin, manager and user resources.
// Every method checks its required role before doing anything else.
type AccessHandler struct {
	authService ports.AuthService
	authorizer  ports.Authorizer
}

func NewAccessHandler(authService ports.AuthService, authorizer ports.Authorizer) *AccessHandler {
	return &AccessHandler{authService: authService, authorizer: authorizer}
}

type userSummary struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email,omitempty"`
	FirstName string    `json:"firstName,omitempty"`
	LastName  string    `json:"lastName,omitempty"`
	Enabled   bool      `json:"enabled"`
	Locked    bool      `json:"locked"`
	Roles     []string  `json:"roles"`
	CreatedAt time.Time `json:"createdAt"`
}

func toUserSummary(u *domain.User) userSummary {
	return userSummary{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Enabled:   u.Enabled,
		Locked:    u.Locked,
		Roles:     u.RoleNames(),
		CreatedAt: u.CreatedAt,
	}
}

type updateRolesRequest struct {
	RoleNames []string `json:"roleNames"`
}

// ── Admin ─────────────────────────────────────────────────────────────────────

// AdminDashboard
//
// @Summary      Admin dashboard
// @Tags         admin
// @Produce      json
// @Security     BasicAuth
// @Success      200  {object}  apiResponse
// @Failure      401  {object}  errorBody
// @Failure      403  {object}  errorBody
// @Router       /api/admin/dashboard [get]
func (h *AccessHandler) AdminDashboard(c echo.Context) error {
	if err := middleware.RequireRole(c, h.authorizer, domain.RoleAdmin); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, apiResponse{
		Message: "Welcome to Admin Dashboard",
		Success: true,
		Data:    "You have admin access to system configuration, user management, and audit logs",
	})
}

// AdminUsers lists every registered user.
//
// @Summary      List all users
// @Tags         admin
// @Produce      json
// @Security     BasicAuth
// @Success      200  {object}  apiResponse{data=[]userSummary}
// @Failure      401  {object}  errorBody
// @Failure      403  {object}  errorBody
// @Router       /api/admin/users [get]
func (h *AccessHandler) AdminUsers(c echo.Context) error {
	if err := middleware.RequireRole(c, h.authorizer, domain.RoleAdmin); err != nil {
		return err
	}

	users, err := h.authService.ListUsers(c.Request().Context())
	if err != nil {
		return err
	}
	out := make([]userSummary, 0, len(users))
	for _, u := range users {
		out = append(out, toUserSummary(u))
	}
	return c.JSON(http.StatusOK, apiResponse{Message: "Fetching all users", Success: true, Data: out})
}

// AdminStatistics
//
// @Summary      System statistics
// @Tags         admin
// @Produce      json
// @Security     BasicAuth
// @Success      200  {object}  apiResponse
// @Failure      401  {object}  errorBody
// @Failure      403  {object}  errorBody
// @Router       /api/admin/statistics [get]
func (h *AccessHandler) AdminStatistics(c echo.Context) error {
	if err := middleware.RequireRole(c, h.authorizer, domain.RoleAdmin); err != nil {
		return err
	}

	total, err := h.authService.CountUsers(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, apiResponse{
		Message: "System Statistics",
		Success: true,
		Data:    fmt.Sprintf("Total Users: %d, Active Sessions: 0, System Health: Good", total),
	})
}

// UpdateUserRoles replaces the role set of a user.
//
// @Summary      Replace a user's roles
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BasicAuth
// @Param        id    path      string              true  "User ID"
// @Param        body  body      updateRolesRequest  true  "New role names"
// @Success      200   {object}  apiResponse{data=userSummary}
// @Failure      400   {object}  errorBody
// @Failure      401   {object}  errorBody
// @Failure      403   {object}  errorBody
// @Failure      404   {object}  errorBody
// @Router       /api/admin/users/{id}/roles [put]
func (h *AccessHandler) UpdateUserRoles(c echo.Context) error {
	if err := middleware.RequireRole(c, h.authorizer, domain.RoleAdmin); err != nil {
		return err
	}

	var req updateRolesRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	ctx := c.Request().Context()
	id := c.Param("id")
	if err := h.authService.UpdateUserRoles(ctx, id, req.RoleNames); err != nil {
		return err
	}

	user, err := h.authService.GetUserByID(ctx, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, apiResponse{Message: "User roles updated", Success: true, Data: toUserSummary(user)})
}

// ── Manager ───────────────────────────────────────────────────────────────────

// ManagerDashboard
//
// @Summary      Manager dashboard
// @Tags         manager
// @Produce      json
// @Security     BasicAuth
// @Success      200  {object}  apiResponse
// @Failure      401  {object}  errorBody
// @Failure      403  {object}  errorBody
// @Router       /api/manager/dashboard [get]
func (h *AccessHandler) ManagerDashboard(c echo.Context) error {
	if err := middleware.RequireRole(c, h.authorizer, domain.RoleManager); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, apiResponse{
		Message: "Welcome to Manager Dashboard",
		Success: true,
		Data:    "You have access to team management, reports, and project oversight",
	})
}

// ManagerTeam
//
// @Summary      View team members
// @Tags         manager
// @Produce      json
// @Security     BasicAuth
// @Success      200  {object}  apiResponse
// @Failure      401  {object}  errorBody
// @Failure      403  {object}  errorBody
// @Router       /api/manager/team [get]
func (h *AccessHandler) ManagerTeam(c echo.Context) error {
	if err := middleware.RequireRole(c, h.authorizer, domain.RoleManager); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, apiResponse{
		Message: "Team Members",
		Success: true,
		Data:    "Manager can view and manage team members",
	})
}

// ManagerReports
//
// @Summary      View reports
// @Tags         manager
// @Produce      json
// @Security     BasicAuth
// @Success      200  {object}  apiResponse
// @Failure      401  {object}  errorBody
// @Failure      403  {object}  errorBody
// @Router       /api/manager/reports [get]
func (h *AccessHandler) ManagerReports(c echo.Context) error {
	if err := middleware.RequireRole(c, h.authorizer, domain.RoleManager); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, apiResponse{
		Message: "Reports",
		Success: true,
		Data:    "Manager can access team performance and project reports",
	})
}

// ── User ──────────────────────────────────────────────────────────────────────

// UserProfile
//
// @Summary      Current user's profile
// @Tags         user
// @Produce      json
// @Security     BasicAuth
// @Success      200  {object}  apiResponse
// @Failure      401  {object}  errorBody
// @Failure      403  {object}  errorBody
// @Router       /api/user/profile [get]
func (h *AccessHandler) UserProfile(c echo.Context) error {
	if err := middleware.RequireRole(c, h.authorizer, domain.RoleUser); err != nil {
		return err
	}
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, apiResponse{
		Message: "User Profile",
		Success: true,
		Data:    fmt.Sprintf("Username: %s, Role: %s", p.Username, domain.RoleUser),
	})
}

// UserDashboard
//
// @Summary      User dashboard
// @Tags         user
// @Produce      json
// @Security     BasicAuth
// @Success      200  {object}  apiResponse
// @Failure      401  {object}  errorBody
// @Failure      403  {object}  errorBody
// @Router       /api/user/dashboard [get]
func (h *AccessHandler) UserDashboard(c echo.Context) error {
	if err := middleware.RequireRole(c, h.authorizer, domain.RoleUser); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, apiResponse{
		Message: "Welcome to User Dashboard",
		Success: true,
		Data:    "You have access to view your profile and personal settings",
	})
}

// UserSettings
//
// @Summary      User settings
// @Tags         user
// @Produce      json
// @Security     BasicAuth
// @Success      200  {object}  apiResponse
// @Failure      401  {object}  errorBody
// @Failure      403  {object}  errorBody
// @Router       /api/user/settings [get]
func (h *AccessHandler) UserSettings(c echo.Context) error {
	if err := middleware.RequireRole(c, h.authorizer, domain.RoleUser); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, apiResponse{
		Message: "User Settings",
		Success: true,
		Data:    "You can update your profile, password, and preferences",
	})
}
