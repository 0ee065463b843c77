// Package reports aggregates worked time and approved PTO into per-user
// summaries with CSV export.
package reports

import (
	"errors"
	"time"
)

// Filters bounds a report. From is inclusive, To exclusive.
type Filters struct {
	From         time.Time
	To           time.Time
	DepartmentID *int64
}

// Validate checks the date range.
func (f Filters) Validate() error {
	if f.From.IsZero() || f.To.IsZero() || !f.To.After(f.From) {
		return ErrInvalidRange
	}
	return nil
}

// ErrInvalidRange indicates a bad report window.
var ErrInvalidRange = errors.New("reports: invalid date range")

// Row is one user's totals for the window.
type Row struct {
	UserID        int64   `json:"user_id"`
	UserName      string  `json:"user_name"`
	Department    string  `json:"department,omitempty"`
	RegularHours  float64 `json:"regular_hours"`
	OvertimeHours float64 `json:"overtime_hours"`
	PTOHours      float64 `json:"pto_hours"`
	TotalHours    float64 `json:"total_hours"`
}

// Summary is the full report.
type Summary struct {
	From  time.Time `json:"from"`
	To    time.Time `json:"to"`
	Rows  []Row     `json:"rows"`
	Total Row       `json:"total"`
}

// UserRef identifies a reportable user.
type UserRef struct {
	ID         int64
	Name       string
	Department string
}

// WeeklyHours is one user's worked hours in one week.
type WeeklyHours struct {
	UserID    int64
	WeekStart time.Time
	Hours     float64
}

// PTOHours is one user's approved PTO hours in the window.
type PTOHours struct {
	UserID int64
	Hours  float64
}
