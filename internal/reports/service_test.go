package reports

import (
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/timewise-hq/timewise/internal/timeclock"
)

type memoryReportRepo struct {
	users  []UserRef
	worked []WeeklyHours
	pto    []PTOHours
}

func (r *memoryReportRepo) Users(ctx context.Context, departmentID *int64) ([]UserRef, error) {
	return r.users, nil
}

func (r *memoryReportRepo) WorkedHoursByWeek(ctx context.Context, f Filters) ([]WeeklyHours, error) {
	return r.worked, nil
}

func (r *memoryReportRepo) ApprovedPTOHours(ctx context.Context, f Filters) ([]PTOHours, error) {
	return r.pto, nil
}

func window(t *testing.T) Filters {
	t.Helper()
	from, err := time.Parse("2006-01-02", "2024-03-01")
	require.NoError(t, err)
	to, err := time.Parse("2006-01-02", "2024-03-31")
	require.NoError(t, err)
	return Filters{From: from, To: to}
}

func TestSummarySplitsOvertimePerWeek(t *testing.T) {
	week1 := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	week2 := week1.AddDate(0, 0, 7)
	repo := &memoryReportRepo{
		users: []UserRef{
			{ID: 1, Name: "Ana Silva", Department: "Engineering"},
			{ID: 2, Name: "Ben Okafor", Department: "Operations"},
		},
		worked: []WeeklyHours{
			{UserID: 1, WeekStart: week1, Hours: 45}, // 5h overtime
			{UserID: 1, WeekStart: week2, Hours: 38}, // under threshold
			{UserID: 2, WeekStart: week1, Hours: 40},
		},
		pto: []PTOHours{{UserID: 2, Hours: 16}},
	}
	svc := NewService(slog.Default(), repo, timeclock.StaticThreshold(40))

	summary, err := svc.Summary(context.Background(), window(t))
	require.NoError(t, err)
	require.Len(t, summary.Rows, 2)

	ana := summary.Rows[0]
	require.Equal(t, 78.0, ana.RegularHours)
	require.Equal(t, 5.0, ana.OvertimeHours)
	require.Zero(t, ana.PTOHours)
	require.Equal(t, 83.0, ana.TotalHours)

	ben := summary.Rows[1]
	require.Equal(t, 40.0, ben.RegularHours)
	require.Zero(t, ben.OvertimeHours)
	require.Equal(t, 16.0, ben.PTOHours)

	require.Equal(t, 139.0, summary.Total.TotalHours)
}

func TestSummaryRejectsBadRange(t *testing.T) {
	svc := NewService(slog.Default(), &memoryReportRepo{}, nil)

	_, err := svc.Summary(context.Background(), Filters{})
	require.ErrorIs(t, err, ErrInvalidRange)

	f := window(t)
	f.From, f.To = f.To, f.From
	_, err = svc.Summary(context.Background(), f)
	require.ErrorIs(t, err, ErrInvalidRange)
}

func TestWriteCSV(t *testing.T) {
	repo := &memoryReportRepo{
		users:  []UserRef{{ID: 1, Name: "Ana Silva", Department: "Engineering"}},
		worked: []WeeklyHours{{UserID: 1, WeekStart: time.Now(), Hours: 45}},
	}
	svc := NewService(slog.Default(), repo, timeclock.StaticThreshold(40))

	summary, err := svc.Summary(context.Background(), window(t))
	require.NoError(t, err)

	var sb strings.Builder
	require.NoError(t, WriteCSV(&sb, summary))

	lines := strings.Split(strings.TrimSpace(sb.String()), "\n")
	require.Len(t, lines, 3)
	require.Equal(t, "user_id,user_name,department,regular_hours,overtime_hours,pto_hours,total_hours", lines[0])
	require.Contains(t, lines[1], "Ana Silva")
	require.Contains(t, lines[1], "40.00,5.00,0.00,45.00")
	require.Contains(t, lines[2], "TOTAL")
}
