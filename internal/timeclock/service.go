package timeclock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// ThresholdProvider resolves the weekly overtime boundary from company
// settings.
type ThresholdProvider interface {
	OvertimeThreshold(ctx context.Context) (float64, error)
}

// StaticThreshold is a ThresholdProvider with a fixed value.
type StaticThreshold float64

// OvertimeThreshold implements ThresholdProvider.
func (t StaticThreshold) OvertimeThreshold(context.Context) (float64, error) {
	return float64(t), nil
}

// Service implements timeclock operations.
type Service struct {
	logger    *slog.Logger
	repo      Repository
	threshold ThresholdProvider
	now       func() time.Time
}

// NewService constructs the timeclock service.
func NewService(logger *slog.Logger, repo Repository, threshold ThresholdProvider) *Service {
	if threshold == nil {
		threshold = StaticThreshold(40)
	}
	return &Service{logger: logger, repo: repo, threshold: threshold, now: time.Now}
}

// ClockIn opens an entry for the user. Repeated calls while already clocked
// in return the existing open entry, so double-taps never create duplicates.
func (s *Service) ClockIn(ctx context.Context, userID int64) (*Entry, bool, error) {
	open, err := s.repo.OpenEntry(ctx, userID)
	if err == nil {
		return open, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, fmt.Errorf("find open entry: %w", err)
	}

	e := &Entry{
		UserID:    userID,
		StartTime: s.now(),
		Source:    SourceClock,
	}
	if err := s.repo.Insert(ctx, e); err != nil {
		return nil, false, fmt.Errorf("insert time entry: %w", err)
	}
	s.logger.Info("clock in", slog.Int64("user_id", userID), slog.Int64("entry_id", e.ID))
	return e, true, nil
}

// ClockOut closes the user's open entry.
func (s *Service) ClockOut(ctx context.Context, userID int64) (*Entry, error) {
	e, err := s.repo.CloseOpenEntry(ctx, userID, s.now())
	if err != nil {
		return nil, err
	}
	s.logger.Info("clock out",
		slog.Int64("user_id", userID),
		slog.Int64("entry_id", e.ID),
		slog.Float64("hours", e.Hours()))
	return e, nil
}

// AddManualEntry backfills a closed interval, capped at 24 hours.
func (s *Service) AddManualEntry(ctx context.Context, in ManualInput) (*Entry, error) {
	if in.StartTime.IsZero() || in.EndTime.IsZero() || !in.EndTime.After(in.StartTime) {
		return nil, ErrInvalidInterval
	}
	if in.EndTime.Sub(in.StartTime) > 24*time.Hour {
		return nil, ErrInvalidInterval
	}
	if in.EndTime.After(s.now()) {
		return nil, ErrInvalidInterval
	}

	end := in.EndTime
	e := &Entry{
		UserID:    in.UserID,
		StartTime: in.StartTime,
		EndTime:   &end,
		Source:    SourceManual,
		Note:      strings.TrimSpace(in.Note),
	}
	if err := s.repo.Insert(ctx, e); err != nil {
		return nil, fmt.Errorf("insert manual entry: %w", err)
	}
	return e, nil
}

// Week summarises the week containing ref, splitting regular and overtime
// hours at the configured threshold. Open entries appear in the list but do
// not count toward totals.
func (s *Service) Week(ctx context.Context, userID int64, ref time.Time) (*WeekSummary, error) {
	start := WeekStart(ref)
	end := start.AddDate(0, 0, 7)

	entries, err := s.repo.ListRange(ctx, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("list week entries: %w", err)
	}

	var total float64
	for _, e := range entries {
		total += e.Hours()
	}
	threshold, err := s.threshold.OvertimeThreshold(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve overtime threshold: %w", err)
	}
	regular, overtime := SplitOvertime(total, threshold)

	if entries == nil {
		entries = []Entry{}
	}
	return &WeekSummary{
		WeekStart:     start,
		TotalHours:    total,
		RegularHours:  regular,
		OvertimeHours: overtime,
		Entries:       entries,
	}, nil
}

// Presence lists everyone currently clocked in, optionally scoped to a
// department.
func (s *Service) Presence(ctx context.Context, departmentID *int64) ([]PresenceRow, error) {
	return s.repo.LivePresence(ctx, departmentID)
}
