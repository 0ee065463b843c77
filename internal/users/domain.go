// Package users manages employee profiles: directory reads for everyone,
// create/update/deactivate for admins.
package users

import (
	"errors"
	"time"
)

// Profile is one employee record as exposed over the API. The password hash
// never leaves the repository layer.
type Profile struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	FullName     string    `json:"full_name"`
	Role         string    `json:"role"`
	DepartmentID *int64    `json:"department_id,omitempty"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

var (
	// ErrNotFound indicates the profile does not exist.
	ErrNotFound = errors.New("users: profile not found")
	// ErrDuplicateEmail indicates the email is already registered.
	ErrDuplicateEmail = errors.New("users: email already registered")
	// ErrInvalidRole indicates an unknown role name.
	ErrInvalidRole = errors.New("users: invalid role")
	// ErrSelfDemotion indicates an admin tried to change their own role.
	ErrSelfDemotion = errors.New("users: cannot change own role")
)

// CreateInput carries fields for a new profile.
type CreateInput struct {
	Email        string
	FullName     string
	Password     string
	Role         string
	DepartmentID *int64
	ActorID      int64
	ActorName    string
}

// UpdateInput carries administrative profile changes. Nil fields are left
// untouched.
type UpdateInput struct {
	FullName     *string
	Role         *string
	DepartmentID *int64
	IsActive     *bool
	ActorID      int64
	ActorName    string
}
