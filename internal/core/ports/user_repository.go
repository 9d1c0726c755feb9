package ports

import (
	"context"

	"github.com/99minutos/multirole-auth/internal/core/domain"
)

// UserRepository defines persistence operations for user accounts.
// Lookups return domain.ErrUserNotFound when nothing matches.
type UserRepository interface {
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	// Save inserts the user when ID is empty (assigning one) and replaces the
	// stored record otherwise. It returns domain.ErrUserExists when the
	// username is already taken by another record.
	Save(ctx context.Context, user *domain.User) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	Count(ctx context.Context) (int64, error)
}
