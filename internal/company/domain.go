// Package company manages the singleton company settings row: workday length,
// overtime threshold and the default PTO allotment consumed by the workflows.
package company

import "time"

// Settings is the single company configuration row.
type Settings struct {
	ID                       int64     `json:"-"`
	CompanyName              string    `json:"company_name"`
	WorkdayHours             float64   `json:"workday_hours"`
	OvertimeThresholdHours   float64   `json:"overtime_threshold_hours"`
	DefaultPTOAllotmentHours float64   `json:"default_pto_allotment_hours"`
	UpdatedAt                time.Time `json:"updated_at"`
}

// Defaults returns the configuration applied when no row exists yet.
func Defaults() Settings {
	return Settings{
		CompanyName:              "Timewise",
		WorkdayHours:             8,
		OvertimeThresholdHours:   40,
		DefaultPTOAllotmentHours: 80,
	}
}

// UpdateInput carries an administrative settings change.
type UpdateInput struct {
	CompanyName              string
	WorkdayHours             float64
	OvertimeThresholdHours   float64
	DefaultPTOAllotmentHours float64
	ActorID                  int64
	ActorName                string
}
