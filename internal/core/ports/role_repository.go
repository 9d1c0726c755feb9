package ports

import (
	"context"

	"github.com/99minutos/multirole-auth/internal/core/domain"
)

// RoleRepository defines persistence operations for roles.
type RoleRepository interface {
	// FindByName is an exact, case-sensitive lookup. It returns
	// domain.ErrRoleNotFound when no role has that name.
	FindByName(ctx context.Context, name string) (*domain.Role, error)
	Save(ctx context.Context, role *domain.Role) (*domain.Role, error)
}
