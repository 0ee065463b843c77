package reports

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/timewise-hq/timewise/internal/timeclock"
)

// Service assembles report summaries.
type Service struct {
	logger    *slog.Logger
	repo      Repository
	threshold timeclock.ThresholdProvider
}

// NewService constructs the reports service.
func NewService(logger *slog.Logger, repo Repository, threshold timeclock.ThresholdProvider) *Service {
	if threshold == nil {
		threshold = timeclock.StaticThreshold(40)
	}
	return &Service{logger: logger, repo: repo, threshold: threshold}
}

// Summary builds the per-user report for the window. The three source
// queries are independent and run concurrently.
func (s *Service) Summary(ctx context.Context, f Filters) (*Summary, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	threshold, err := s.threshold.OvertimeThreshold(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve overtime threshold: %w", err)
	}

	var (
		users  []UserRef
		worked []WeeklyHours
		pto    []PTOHours
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		users, err = s.repo.Users(gctx, f.DepartmentID)
		return err
	})
	g.Go(func() error {
		var err error
		worked, err = s.repo.WorkedHoursByWeek(gctx, f)
		return err
	})
	g.Go(func() error {
		var err error
		pto, err = s.repo.ApprovedPTOHours(gctx, f)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load report data: %w", err)
	}

	// Overtime is decided per week, then summed per user.
	regularByUser := make(map[int64]float64)
	overtimeByUser := make(map[int64]float64)
	for _, w := range worked {
		regular, overtime := timeclock.SplitOvertime(w.Hours, threshold)
		regularByUser[w.UserID] += regular
		overtimeByUser[w.UserID] += overtime
	}
	ptoByUser := make(map[int64]float64, len(pto))
	for _, p := range pto {
		ptoByUser[p.UserID] = p.Hours
	}

	summary := &Summary{From: f.From, To: f.To, Rows: make([]Row, 0, len(users))}
	for _, u := range users {
		row := Row{
			UserID:        u.ID,
			UserName:      u.Name,
			Department:    u.Department,
			RegularHours:  regularByUser[u.ID],
			OvertimeHours: overtimeByUser[u.ID],
			PTOHours:      ptoByUser[u.ID],
		}
		row.TotalHours = row.RegularHours + row.OvertimeHours + row.PTOHours
		summary.Rows = append(summary.Rows, row)

		summary.Total.RegularHours += row.RegularHours
		summary.Total.OvertimeHours += row.OvertimeHours
		summary.Total.PTOHours += row.PTOHours
		summary.Total.TotalHours += row.TotalHours
	}
	return summary, nil
}
