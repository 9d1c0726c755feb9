package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/99minutos/multirole-auth/internal/core/domain"
)

type RoleRepository struct {
	mu     sync.RWMutex
	byName map[string]domain.Role
}

func NewRoleRepository() *RoleRepository {
	return &RoleRepository{byName: make(map[string]domain.Role)}
}

func (r *RoleRepository) FindByName(_ context.Context, name string) (*domain.Role, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	role, ok := r.byName[name]
	if !ok {
		return nil, domain.ErrRoleNotFound
	}
	return &role, nil
}

func (r *RoleRepository) Save(_ context.Context, role *domain.Role) (*domain.Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *role
	if cur, ok := r.byName[stored.Name]; ok && cur.ID != stored.ID {
		return nil, domain.ErrRoleExists
	}
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	} else {
		// A rename frees the previous name.
		for name, cur := range r.byName {
			if cur.ID == stored.ID && name != stored.Name {
				delete(r.byName, name)
			}
		}
	}
	r.byName[stored.Name] = stored
	return &stored, nil
}
