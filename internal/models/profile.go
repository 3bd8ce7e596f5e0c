package models

import (
	"time"
)

// Role is the coarse permission level of a user
type Role string

const (
	RoleAdmin Role = "admin"
	RoleView  Role = "view"
)

// ValidRoles defines allowed user roles
var ValidRoles = map[Role]bool{
	RoleAdmin: true,
	RoleView:  true,
}

// Profile is the users row keyed by the identity id
type Profile struct {
	ID              string    `json:"id" db:"id"`
	Email           string    `json:"email" db:"email"`
	Username        string    `json:"username,omitempty" db:"username"`
	Role            Role      `json:"role" db:"role"`
	PasswordChanged bool      `json:"password_changed" db:"password_changed"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at,omitempty" db:"updated_at"`
}

// IsAdmin reports whether the profile carries the admin role
func (p *Profile) IsAdmin() bool {
	return p != nil && p.Role == RoleAdmin
}

// DefaultProfile is the in-memory profile used when no row exists yet
func DefaultProfile(id, email string) *Profile {
	return &Profile{
		ID:    id,
		Email: email,
		Role:  RoleView,
	}
}
