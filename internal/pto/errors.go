package pto

import "errors"

var (
	// ErrNotFound indicates the request or balance does not exist.
	ErrNotFound = errors.New("pto: not found")
	// ErrNotPending indicates a transition was attempted on a terminal request.
	// Raced approvals surface this: the conditional update affects zero rows.
	ErrNotPending = errors.New("pto: request is not pending")
	// ErrNotOwner indicates a cancellation by someone other than the requester.
	ErrNotOwner = errors.New("pto: request belongs to another user")
	// ErrNotAuthorized indicates the actor lacks the approver/admin capability.
	ErrNotAuthorized = errors.New("pto: actor not authorized")
	// ErrInsufficientBalance indicates approval would drive the balance negative
	// without an explicit override.
	ErrInsufficientBalance = errors.New("pto: insufficient balance")
	// ErrEmptyReason indicates a denial or adjustment without a reason.
	ErrEmptyReason = errors.New("pto: reason is required")
	// ErrInvalidRange indicates end_date precedes start_date.
	ErrInvalidRange = errors.New("pto: end date before start date")
	// ErrMissingNote indicates an unpaid request without an explanatory note.
	ErrMissingNote = errors.New("pto: note required for unpaid time off")
	// ErrInvalidType indicates an unknown time-off type.
	ErrInvalidType = errors.New("pto: invalid time off type")
	// ErrInvalidHours indicates the computed or supplied total is not positive.
	ErrInvalidHours = errors.New("pto: total hours must be positive")
	// ErrStaleBalance indicates the optimistic version check failed on a
	// balance update.
	ErrStaleBalance = errors.New("pto: balance was modified concurrently")
)
