// Package timeclock implements clock-in/clock-out tracking, manual entries
// and weekly summaries with overtime split.
package timeclock

import (
	"errors"
	"time"
)

// Entry source values.
const (
	SourceClock  = "clock"
	SourceManual = "manual"
)

// Entry is one worked interval. An open entry (nil EndTime) means the user is
// currently clocked in; at most one open entry exists per user.
type Entry struct {
	ID        int64      `json:"id"`
	UserID    int64      `json:"user_id"`
	StartTime time.Time  `json:"start_time"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	Source    string     `json:"source"`
	Note      string     `json:"note,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// Hours returns the worked duration in hours, zero while the entry is open.
func (e Entry) Hours() float64 {
	if e.EndTime == nil {
		return 0
	}
	return e.EndTime.Sub(e.StartTime).Hours()
}

// WeekSummary aggregates one ISO week of closed entries.
type WeekSummary struct {
	WeekStart     time.Time `json:"week_start"`
	TotalHours    float64   `json:"total_hours"`
	RegularHours  float64   `json:"regular_hours"`
	OvertimeHours float64   `json:"overtime_hours"`
	Entries       []Entry   `json:"entries"`
}

// PresenceRow is one currently clocked-in user.
type PresenceRow struct {
	UserID       int64     `json:"user_id"`
	UserName     string    `json:"user_name"`
	DepartmentID *int64    `json:"department_id,omitempty"`
	ClockedInAt  time.Time `json:"clocked_in_at"`
}

var (
	// ErrNotFound indicates the entry does not exist.
	ErrNotFound = errors.New("timeclock: entry not found")
	// ErrNotClockedIn indicates a clock-out with no open entry.
	ErrNotClockedIn = errors.New("timeclock: no open entry")
	// ErrInvalidInterval indicates a manual entry with a bad time range.
	ErrInvalidInterval = errors.New("timeclock: invalid time interval")
)

// ManualInput describes a backfilled entry.
type ManualInput struct {
	UserID    int64
	StartTime time.Time
	EndTime   time.Time
	Note      string
}

// SplitOvertime divides weekly hours at the threshold.
func SplitOvertime(total, threshold float64) (regular, overtime float64) {
	if threshold <= 0 || total <= threshold {
		return total, 0
	}
	return threshold, total - threshold
}

// WeekStart returns the Monday 00:00 of the week containing t, in t's
// location.
func WeekStart(t time.Time) time.Time {
	t = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	offset := (int(t.Weekday()) + 6) % 7
	return t.AddDate(0, 0, -offset)
}
