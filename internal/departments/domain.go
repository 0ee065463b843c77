// Package departments manages the department directory used for inbox
// scoping and report filters.
package departments

import (
	"errors"
	"time"
)

// Department is one organisational unit.
type Department struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	ManagerID   *int64    `json:"manager_id,omitempty"`
	MemberCount int       `json:"member_count"`
	CreatedAt   time.Time `json:"created_at"`
}

var (
	// ErrNotFound indicates the department does not exist.
	ErrNotFound = errors.New("departments: not found")
	// ErrDuplicateName indicates another department already uses the name.
	ErrDuplicateName = errors.New("departments: name already in use")
	// ErrHasMembers indicates deletion was blocked by assigned profiles.
	ErrHasMembers = errors.New("departments: department still has members")
	// ErrInvalidName indicates a blank or oversized name.
	ErrInvalidName = errors.New("departments: invalid name")
)

// Input carries create/update fields.
type Input struct {
	Name        string
	Description string
	ManagerID   *int64
	ActorID     int64
	ActorName   string
}
