// Package auth implements email/password login against profiles.
package auth

import "time"

// User is the credential-bearing view of a profile.
type User struct {
	ID           int64
	Email        string
	FullName     string
	PasswordHash string
	Role         string
	DepartmentID *int64
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
