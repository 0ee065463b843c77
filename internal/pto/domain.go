// Package pto implements the PTO request/approval workflow and balance ledger.
package pto

import (
	"time"

	"github.com/google/uuid"
)

// Type enumerates the kinds of time off an employee can request.
type Type string

const (
	TypeVacation Type = "vacation"
	TypePersonal Type = "personal"
	TypeSick     Type = "sick"
	TypeUnpaid   Type = "unpaid"
)

// Paid reports whether approval of this type consumes balance hours.
func (t Type) Paid() bool {
	return t != TypeUnpaid
}

// Valid reports whether the type is one of the known values.
func (t Type) Valid() bool {
	switch t {
	case TypeVacation, TypePersonal, TypeSick, TypeUnpaid:
		return true
	}
	return false
}

// Status enumerates the request lifecycle. Pending is the only non-terminal
// state; approved, denied and cancelled are final.
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusDenied    Status = "denied"
	StatusCancelled Status = "cancelled"
)

// Request is one time-off request.
type Request struct {
	ID              uuid.UUID  `json:"id"`
	UserID          int64      `json:"user_id"`
	Type            Type       `json:"type"`
	StartDate       time.Time  `json:"start_date"`
	EndDate         time.Time  `json:"end_date"`
	PartialDayHours *float64   `json:"partial_day_hours,omitempty"`
	TotalHours      float64    `json:"total_hours"`
	Note            string     `json:"note,omitempty"`
	Status          Status     `json:"status"`
	ApproverID      *int64     `json:"approver_id,omitempty"`
	ApproverNote    string     `json:"approver_note,omitempty"`
	ApprovedAt      *time.Time `json:"approved_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// PendingRequest is an inbox row: a pending request with requester details.
type PendingRequest struct {
	Request
	UserName     string `json:"user_name"`
	UserEmail    string `json:"user_email"`
	DepartmentID *int64 `json:"department_id,omitempty"`
}

// Balance is the PTO ledger row for one employee. The unique constraint on
// user_id guarantees at most one row per user; version backs optimistic
// concurrency on updates.
type Balance struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"user_id"`
	BalanceHours float64   `json:"balance_hours"`
	AccruedHours float64   `json:"accrued_hours"`
	UsedHours    float64   `json:"used_hours"`
	Version      int64     `json:"-"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Contact is the requester's profile view needed for notifications and
// inbox scoping.
type Contact struct {
	Name         string
	Email        string
	DepartmentID *int64
}

// Actor identifies who performs a workflow operation and what they may do.
// Capabilities are resolved by the caller from the actor's role; the service
// never reads ambient state.
type Actor struct {
	ID         int64
	Name       string
	CanApprove bool
	CanAdjust  bool
}

// SubmitInput describes a new request from an employee.
type SubmitInput struct {
	UserID          int64
	UserName        string
	Type            Type
	StartDate       time.Time
	EndDate         time.Time
	PartialDayHours *float64
	Note            string
}

// ApproveInput carries an approval decision.
type ApproveInput struct {
	RequestID      uuid.UUID
	Actor          Actor
	Note           string
	AllowNegative  bool
	IdempotencyKey string
}

// DenyInput carries a denial decision.
type DenyInput struct {
	RequestID      uuid.UUID
	Actor          Actor
	Reason         string
	IdempotencyKey string
}

// AdjustInput is an administrative balance adjustment, independent of any
// specific request.
type AdjustInput struct {
	UserID         int64
	DeltaHours     float64
	Reason         string
	Actor          Actor
	IdempotencyKey string
}

// Policy is the company-level PTO configuration the workflow depends on.
type Policy struct {
	WorkdayHours          float64
	DefaultAllotmentHours float64
}

// DefaultPolicy mirrors the standard configuration: 8h workdays, 80h starting
// allotment.
var DefaultPolicy = Policy{WorkdayHours: 8, DefaultAllotmentHours: 80}
