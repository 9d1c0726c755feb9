// Package memory holds process-local stores used for development and tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/99minutos/multirole-auth/internal/core/domain"
)

// UserRepository keeps users in maps guarded by a RWMutex. Values are cloned
// on the way in and out so callers never share state with the store.
type UserRepository struct {
	mu         sync.RWMutex
	byID       map[string]*domain.User
	byUsername map[string]string
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		byID:       make(map[string]*domain.User),
		byUsername: make(map[string]string),
	}
}

func (r *UserRepository) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byUsername[username]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return r.byID[id].Clone(), nil
}

func (r *UserRepository) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return u.Clone(), nil
}

func (r *UserRepository) ExistsByUsername(_ context.Context, username string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.byUsername[username]
	return ok, nil
}

func (r *UserRepository) Save(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if owner, taken := r.byUsername[user.Username]; taken && owner != user.ID {
		return nil, domain.ErrUserExists
	}

	stored := user.Clone()
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	} else if prev, ok := r.byID[stored.ID]; ok && prev.Username != stored.Username {
		delete(r.byUsername, prev.Username)
	}

	r.byID[stored.ID] = stored
	r.byUsername[stored.Username] = stored.ID
	return stored.Clone(), nil
}

// List returns users ordered by username.
func (r *UserRepository) List(_ context.Context) ([]*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.User, 0, len(r.byID))
	for _, u := range r.byID {
		out = append(out, u.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (r *UserRepository) Count(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.byID)), nil
}
