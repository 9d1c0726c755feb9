package domain

import (
	"errors"
	"sort"
)

// RoleName is the case-sensitive key used to match roles.
type RoleName string

const (
	RoleAdmin   RoleName = "ADMIN"
	RoleManager RoleName = "MANAGER"
	RoleUser    RoleName = "USER"
)

var (
	ErrRoleNotFound = errors.New("role not found")
	// ErrRoleExists is returned by a RoleRepository when a role name is
	// already taken by another role.
	ErrRoleExists = errors.New("role already exists")
)

// RoleNotFoundError names the role that could not be resolved.
type RoleNotFoundError struct {
	Name string
}

func (e *RoleNotFoundError) Error() string {
	return "Role not found: " + e.Name
}

// Is lets errors.Is(err, ErrRoleNotFound) match a *RoleNotFoundError.
func (e *RoleNotFoundError) Is(target error) bool {
	return target == ErrRoleNotFound
}

// Role is a named permission grouping shared by many users.
type Role struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// key identifies a role inside a RoleSet. Unsaved roles have no ID yet, so
// their name stands in.
func (r Role) key() string {
	if r.ID != "" {
		return "id:" + r.ID
	}
	return "name:" + r.Name
}

// RoleSet is a set of roles without ordering guarantees.
type RoleSet map[string]Role

func NewRoleSet(roles ...Role) RoleSet {
	s := make(RoleSet, len(roles))
	for _, r := range roles {
		s.Add(r)
	}
	return s
}

// Add inserts r; adding the same role twice is a no-op.
func (s RoleSet) Add(r Role) {
	s[r.key()] = r
}

// HasName reports whether a role with exactly this name is in the set.
func (s RoleSet) HasName(name string) bool {
	for _, r := range s {
		if r.Name == name {
			return true
		}
	}
	return false
}

// Names returns the role names sorted alphabetically.
func (s RoleSet) Names() []string {
	names := make([]string, 0, len(s))
	for _, r := range s {
		names = append(names, r.Name)
	}
	sort.Strings(names)
	return names
}

// Slice returns the roles ordered by name.
func (s RoleSet) Slice() []Role {
	out := make([]Role, 0, len(s))
	for _, r := range s {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (s RoleSet) Clone() RoleSet {
	clone := make(RoleSet, len(s))
	for k, r := range s {
		clone[k] = r
	}
	return clone
}
