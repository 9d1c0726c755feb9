package ports

import (
	"context"

	"github.com/99minutos/multirole-auth/internal/core/domain"
)

// RegisterInput carries the data needed to create an account.
type RegisterInput struct {
	Username  string
	Password  string
	Email     string
	FirstName string
	LastName  string
	// RoleNames may be empty; every name must resolve to an existing role.
	RoleNames []string
}

// LoginInput carries a credential pair.
type LoginInput struct {
	Username string
	Password string
}

// AuthService defines the authentication use cases. User-facing failures come
// back as unsuccessful results; only missing users/roles and infrastructure
// faults are returned as errors.
type AuthService interface {
	RegisterUser(ctx context.Context, in RegisterInput) (*domain.AuthenticationResult, error)
	AuthenticateUser(ctx context.Context, in LoginInput) (*domain.AuthenticationResult, error)
	UpdateUserRoles(ctx context.Context, userID string, roleNames []string) error
	UserHasRole(user *domain.User, roleName string) bool
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
	GetUserByID(ctx context.Context, id string) (*domain.User, error)
	ListUsers(ctx context.Context) ([]*domain.User, error)
	CountUsers(ctx context.Context) (int64, error)
}

// Authorizer decides whether a principal may reach a resource guarded by a
// single required role.
type Authorizer interface {
	Decide(principal *domain.Principal, required domain.RoleName) domain.Decision
}
