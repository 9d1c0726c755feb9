package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/multirole-auth/internal/core/domain"
	"github.com/99minutos/multirole-auth/internal/core/ports"
)

// AuthService implements registration, login and role management.
type AuthService struct {
	users  ports.UserRepository
	roles  ports.RoleRepository
	hasher ports.PasswordHasher
	log    zerolog.Logger
}

func NewAuthService(users ports.UserRepository, roles ports.RoleRepository, hasher ports.PasswordHasher, log zerolog.Logger) *AuthService {
	return &AuthService{users: users, roles: roles, hasher: hasher, log: log}
}

// RegisterUser creates a new account. A taken username is reported as an
// unsuccessful result; an unknown role name aborts with *domain.RoleNotFoundError
// before anything is written.
func (s *AuthService) RegisterUser(ctx context.Context, in ports.RegisterInput) (*domain.AuthenticationResult, error) {
	exists, err := s.users.ExistsByUsername(ctx, in.Username)
	if err != nil {
		return nil, fmt.Errorf("register: check username: %w", err)
	}
	if exists {
		s.log.Info().Str("username", in.Username).Msg("registration rejected: username taken")
		return domain.UserExists(in.Username), nil
	}

	roles, err := s.resolveRoles(ctx, in.RoleNames)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	hash, err := s.hasher.Hash(ctx, in.Password)
	if err != nil {
		return nil, fmt.Errorf("register: hash password: %w", err)
	}
	if hash == "" {
		return nil, errors.New("register: hasher returned an empty digest")
	}

	user := domain.NewUser(in.Username, hash, in.Email, in.FirstName, in.LastName)
	user.Roles = roles

	saved, err := s.users.Save(ctx, user)
	if err != nil {
		// The unique index caught a concurrent registration of the same name.
		if errors.Is(err, domain.ErrUserExists) {
			s.log.Info().Str("username", in.Username).Msg("registration rejected: username taken")
			return domain.UserExists(in.Username), nil
		}
		s.log.Error().Err(err).Str("username", in.Username).Msg("failed to save user")
		return nil, fmt.Errorf("register: save user: %w", err)
	}

	s.log.Info().
		Str("user_id", saved.ID).
		Str("username", saved.Username).
		Strs("roles", saved.RoleNames()).
		Msg("user registered")

	return domain.Succeeded(domain.MsgRegistered, saved), nil
}

// AuthenticateUser checks a credential pair. Unknown usernames and wrong
// passwords share one message, and the account-state checks only run once
// the credentials have been proven.
func (s *AuthService) AuthenticateUser(ctx context.Context, in ports.LoginInput) (*domain.AuthenticationResult, error) {
	user, err := s.users.FindByUsername(ctx, in.Username)
	if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("authenticate: find user: %w", err)
	}
	if user == nil {
		s.log.Debug().Str("username", in.Username).Msg("login failed: invalid credentials")
		return domain.Failed(domain.MsgInvalidCredential), nil
	}

	ok, err := s.hasher.Verify(ctx, in.Password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("authenticate: verify password: %w", err)
	}
	if !ok {
		s.log.Debug().Str("username", in.Username).Msg("login failed: invalid credentials")
		return domain.Failed(domain.MsgInvalidCredential), nil
	}

	if !user.Enabled {
		s.log.Info().Str("username", in.Username).Msg("login refused: account disabled")
		return domain.Failed(domain.MsgAccountDisabled), nil
	}
	if user.Locked {
		s.log.Info().Str("username", in.Username).Msg("login refused: account locked")
		return domain.Failed(domain.MsgAccountLocked), nil
	}

	return domain.Succeeded(domain.MsgLoginSuccessful, user), nil
}

// UpdateUserRoles replaces the user's whole role set with the named roles.
func (s *AuthService) UpdateUserRoles(ctx context.Context, userID string, roleNames []string) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("update roles: %w", err)
	}

	roles, err := s.resolveRoles(ctx, roleNames)
	if err != nil {
		return fmt.Errorf("update roles: %w", err)
	}

	user.Roles = roles
	user.UpdatedAt = time.Now().UTC()
	if _, err := s.users.Save(ctx, user); err != nil {
		return fmt.Errorf("update roles: save user: %w", err)
	}

	s.log.Info().Str("user_id", userID).Strs("roles", roles.Names()).Msg("user roles replaced")
	return nil
}

// UserHasRole is a case-insensitive membership test.
func (s *AuthService) UserHasRole(user *domain.User, roleName string) bool {
	if user == nil {
		return false
	}
	for _, r := range user.Roles {
		if strings.EqualFold(r.Name, roleName) {
			return true
		}
	}
	return false
}

func (s *AuthService) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	return s.users.FindByUsername(ctx, username)
}

func (s *AuthService) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	return s.users.FindByID(ctx, id)
}

func (s *AuthService) ListUsers(ctx context.Context) ([]*domain.User, error) {
	return s.users.List(ctx)
}

func (s *AuthService) CountUsers(ctx context.Context) (int64, error) {
	return s.users.Count(ctx)
}

// resolveRoles looks up every name and fails on the first one that does not
// exist. Repeated names collapse into a single membership.
func (s *AuthService) resolveRoles(ctx context.Context, names []string) (domain.RoleSet, error) {
	set := domain.NewRoleSet()
	for _, name := range names {
		role, err := s.roles.FindByName(ctx, name)
		if err != nil {
			if errors.Is(err, domain.ErrRoleNotFound) {
				return nil, &domain.RoleNotFoundError{Name: name}
			}
			return nil, fmt.Errorf("find role %q: %w", name, err)
		}
		set.Add(*role)
	}
	return set, nil
}
