package company

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/timewise-hq/timewise/internal/audit"
	"github.com/timewise-hq/timewise/internal/pto"
	"github.com/timewise-hq/timewise/internal/shared"
)

// ErrInvalidSettings indicates an update with out-of-range values.
var ErrInvalidSettings = errors.New("company: invalid settings")

// Service manages company settings and exposes them as workflow policy.
type Service struct {
	logger  *slog.Logger
	repo    Repository
	auditor *audit.Recorder
}

// NewService constructs the settings service.
func NewService(logger *slog.Logger, repo Repository, auditor *audit.Recorder) *Service {
	return &Service{logger: logger, repo: repo, auditor: auditor}
}

// Get returns the current settings, falling back to defaults when the row
// was never written.
func (s *Service) Get(ctx context.Context) (*Settings, error) {
	settings, err := s.repo.Get(ctx)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			defaults := Defaults()
			return &defaults, nil
		}
		return nil, err
	}
	return settings, nil
}

// Update validates and persists new settings, recording an audit entry with
// the previous values.
func (s *Service) Update(ctx context.Context, in UpdateInput) (*Settings, error) {
	in.CompanyName = strings.TrimSpace(in.CompanyName)
	if in.CompanyName == "" {
		return nil, fmt.Errorf("%w: company name required", ErrInvalidSettings)
	}
	if in.WorkdayHours <= 0 || in.WorkdayHours > 24 {
		return nil, fmt.Errorf("%w: workday hours out of range", ErrInvalidSettings)
	}
	if in.OvertimeThresholdHours <= 0 || in.OvertimeThresholdHours > 168 {
		return nil, fmt.Errorf("%w: overtime threshold out of range", ErrInvalidSettings)
	}
	if in.DefaultPTOAllotmentHours < 0 {
		return nil, fmt.Errorf("%w: allotment cannot be negative", ErrInvalidSettings)
	}

	before, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}

	next := &Settings{
		CompanyName:              in.CompanyName,
		WorkdayHours:             in.WorkdayHours,
		OvertimeThresholdHours:   in.OvertimeThresholdHours,
		DefaultPTOAllotmentHours: in.DefaultPTOAllotmentHours,
	}
	if err := s.repo.Upsert(ctx, next); err != nil {
		return nil, fmt.Errorf("upsert company settings: %w", err)
	}

	if err := s.auditor.Record(ctx, audit.Entry{
		ActorID:    in.ActorID,
		ActorName:  in.ActorName,
		Action:     "company.update_settings",
		EntityType: "company_settings",
		EntityID:   "1",
		Details:    "company settings updated",
		Metadata: map[string]any{
			"workday_hours_before": before.WorkdayHours,
			"workday_hours_after":  next.WorkdayHours,
			"overtime_before":      before.OvertimeThresholdHours,
			"overtime_after":       next.OvertimeThresholdHours,
			"pto_allotment_before": before.DefaultPTOAllotmentHours,
			"pto_allotment_after":  next.DefaultPTOAllotmentHours,
			"company_name_before":  before.CompanyName,
			"company_name_after":   next.CompanyName,
		},
	}); err != nil {
		s.logger.Error("audit settings update", slog.Any("error", err))
	}
	return next, nil
}

// Policy implements pto.PolicyProvider from the live settings row.
func (s *Service) Policy(ctx context.Context) (pto.Policy, error) {
	settings, err := s.Get(ctx)
	if err != nil {
		return pto.Policy{}, err
	}
	return pto.Policy{
		WorkdayHours:          settings.WorkdayHours,
		DefaultAllotmentHours: settings.DefaultPTOAllotmentHours,
	}, nil
}

// OvertimeThreshold resolves the weekly overtime boundary for timeclock math.
func (s *Service) OvertimeThreshold(ctx context.Context) (float64, error) {
	settings, err := s.Get(ctx)
	if err != nil {
		return 0, err
	}
	return settings.OvertimeThresholdHours, nil
}
