package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/99minutos/multirole-auth/internal/core/domain"
	"github.com/99minutos/multirole-auth/internal/core/ports"
)

// SeedAccount describes one account created at startup.
type SeedAccount struct {
	Username  string
	Password  string
	Email     string
	FirstName string
	LastName  string
	Role      domain.RoleName
}

// DefaultRoles are created on every start if missing.
var DefaultRoles = []domain.Role{
	{Name: string(domain.RoleAdmin), Description: "System administrator with full access"},
	{Name: string(domain.RoleManager), Description: "Manager with team management capabilities"},
	{Name: string(domain.RoleUser), Description: "Regular user with basic access"},
}

// DefaultAccounts holds one well-known account per default role. These
// credentials are public; only enable seeding outside production.
var DefaultAccounts = []SeedAccount{
	{Username: "admin", Password: "admin123", Email: "admin@example.com", FirstName: "Admin", LastName: "User", Role: domain.RoleAdmin},
	{Username: "manager", Password: "manager123", Email: "manager@example.com", FirstName: "Manager", LastName: "User", Role: domain.RoleManager},
	{Username: "user", Password: "user123", Email: "user@example.com", FirstName: "Regular", LastName: "User", Role: domain.RoleUser},
}

// Seeder find-or-creates the default roles and accounts.
type Seeder struct {
	users  ports.UserRepository
	roles  ports.RoleRepository
	hasher ports.PasswordHasher
	log    zerolog.Logger
}

func NewSeeder(users ports.UserRepository, roles ports.RoleRepository, hasher ports.PasswordHasher, log zerolog.Logger) *Seeder {
	return &Seeder{users: users, roles: roles, hasher: hasher, log: log}
}

// Seed is idempotent: existing roles and usernames are left untouched.
func (s *Seeder) Seed(ctx context.Context, roles []domain.Role, accounts []SeedAccount) error {
	byName := make(map[string]domain.Role, len(roles))
	for _, r := range roles {
		role, err := s.ensureRole(ctx, r)
		if err != nil {
			return err
		}
		byName[role.Name] = *role
	}

	created := make([]string, 0, len(accounts))
	for _, acc := range accounts {
		exists, err := s.users.ExistsByUsername(ctx, acc.Username)
		if err != nil {
			return fmt.Errorf("seed: check user %q: %w", acc.Username, err)
		}
		if exists {
			continue
		}

		role, ok := byName[string(acc.Role)]
		if !ok {
			return fmt.Errorf("seed: account %q: %w", acc.Username, &domain.RoleNotFoundError{Name: string(acc.Role)})
		}

		hash, err := s.hasher.Hash(ctx, acc.Password)
		if err != nil {
			return fmt.Errorf("seed: hash password for %q: %w", acc.Username, err)
		}

		user := domain.NewUser(acc.Username, hash, acc.Email, acc.FirstName, acc.LastName)
		user.Roles.Add(role)
		if _, err := s.users.Save(ctx, user); err != nil {
			// Another instance seeded the same account first.
			if errors.Is(err, domain.ErrUserExists) {
				continue
			}
			return fmt.Errorf("seed: save user %q: %w", acc.Username, err)
		}
		created = append(created, acc.Username)
	}

	if len(created) > 0 {
		s.log.Warn().
			Strs("usernames", created).
			Str("action_required", "change default passwords before exposing this service").
			Msg("seed accounts created")
	} else {
		s.log.Info().Msg("seed accounts already present, skipping")
	}
	return nil
}

func (s *Seeder) ensureRole(ctx context.Context, r domain.Role) (*domain.Role, error) {
	existing, err := s.roles.FindByName(ctx, r.Name)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, domain.ErrRoleNotFound) {
		return nil, fmt.Errorf("seed: find role %q: %w", r.Name, err)
	}

	saved, err := s.roles.Save(ctx, &domain.Role{Name: r.Name, Description: r.Description})
	if errors.Is(err, domain.ErrRoleExists) {
		// Lost the insert race to another instance; use its role.
		existing, ferr := s.roles.FindByName(ctx, r.Name)
		if ferr != nil {
			return nil, fmt.Errorf("seed: reload role %q: %w", r.Name, ferr)
		}
		return existing, nil
	}
	if err != nil {
		return nil, fmt.Errorf("seed: save role %q: %w", r.Name, err)
	}
	s.log.Info().Str("role", saved.Name).Msg("role created")
	return saved, nil
}
