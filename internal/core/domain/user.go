package domain

import (
	"errors"
	"time"
)

var ErrUserNotFound = errors.New("user not found")
var ErrUserExists = errors.New("user already exists")

// User models a registered account. PasswordHash always holds a digest,
// never the plaintext.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Email        string    `json:"email,omitempty"`
	FirstName    string    `json:"first_name,omitempty"`
	LastName     string    `json:"last_name,omitempty"`
	Enabled      bool      `json:"enabled"`
	Locked       bool      `json:"locked"`
	Roles        RoleSet   `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewUser returns an enabled, unlocked user with an empty role set.
func NewUser(username, passwordHash, email, firstName, lastName string) *User {
	now := time.Now().UTC()
	return &User{
		Username:     username,
		PasswordHash: passwordHash,
		Email:        email,
		FirstName:    firstName,
		LastName:     lastName,
		Enabled:      true,
		Locked:       false,
		Roles:        NewRoleSet(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Clone returns a deep copy of u, including its role set.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	clone := *u
	clone.Roles = u.Roles.Clone()
	return &clone
}

// RoleNames returns the sorted names of the roles the user currently holds.
func (u *User) RoleNames() []string {
	return u.Roles.Names()
}
