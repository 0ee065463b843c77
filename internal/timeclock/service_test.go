package timeclock

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type memoryClockRepo struct {
	entries map[int64]*Entry
	nextID  int64
	names   map[int64]string
	depts   map[int64]*int64
}

func newMemoryClockRepo() *memoryClockRepo {
	return &memoryClockRepo{
		entries: make(map[int64]*Entry),
		nextID:  1,
		names:   make(map[int64]string),
		depts:   make(map[int64]*int64),
	}
}

func (r *memoryClockRepo) OpenEntry(ctx context.Context, userID int64) (*Entry, error) {
	for _, e := range r.entries {
		if e.UserID == userID && e.EndTime == nil {
			cp := *e
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (r *memoryClockRepo) Insert(ctx context.Context, e *Entry) error {
	e.ID = r.nextID
	r.nextID++
	e.CreatedAt = time.Now()
	cp := *e
	r.entries[e.ID] = &cp
	return nil
}

func (r *memoryClockRepo) CloseOpenEntry(ctx context.Context, userID int64, at time.Time) (*Entry, error) {
	for _, e := range r.entries {
		if e.UserID == userID && e.EndTime == nil {
			end := at
			e.EndTime = &end
			cp := *e
			return &cp, nil
		}
	}
	return nil, ErrNotClockedIn
}

func (r *memoryClockRepo) ListRange(ctx context.Context, userID int64, from, to time.Time) ([]Entry, error) {
	var out []Entry
	for id := int64(1); id < r.nextID; id++ {
		e, ok := r.entries[id]
		if !ok || e.UserID != userID {
			continue
		}
		if e.StartTime.Before(from) || !e.StartTime.Before(to) {
			continue
		}
		out = append(out, *e)
	}
	return out, nil
}

func (r *memoryClockRepo) LivePresence(ctx context.Context, departmentID *int64) ([]PresenceRow, error) {
	var out []PresenceRow
	for _, e := range r.entries {
		if e.EndTime != nil {
			continue
		}
		dept := r.depts[e.UserID]
		if departmentID != nil {
			if dept == nil || *dept != *departmentID {
				continue
			}
		}
		out = append(out, PresenceRow{
			UserID:       e.UserID,
			UserName:     r.names[e.UserID],
			DepartmentID: dept,
			ClockedInAt:  e.StartTime,
		})
	}
	return out, nil
}

func newClockService(repo *memoryClockRepo, threshold float64) *Service {
	return NewService(slog.Default(), repo, StaticThreshold(threshold))
}

func TestClockInIdempotent(t *testing.T) {
	repo := newMemoryClockRepo()
	svc := newClockService(repo, 40)

	first, created, err := svc.ClockIn(context.Background(), 1)
	require.NoError(t, err)
	require.True(t, created)

	second, created, err := svc.ClockIn(context.Background(), 1)
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, first.ID, second.ID)
	require.Len(t, repo.entries, 1)
}

func TestClockOutClosesEntry(t *testing.T) {
	repo := newMemoryClockRepo()
	svc := newClockService(repo, 40)

	_, _, err := svc.ClockIn(context.Background(), 1)
	require.NoError(t, err)

	closed, err := svc.ClockOut(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, closed.EndTime)

	_, err = svc.ClockOut(context.Background(), 1)
	require.ErrorIs(t, err, ErrNotClockedIn)
}

func TestManualEntryValidation(t *testing.T) {
	svc := newClockService(newMemoryClockRepo(), 40)
	now := time.Now()

	_, err := svc.AddManualEntry(context.Background(), ManualInput{
		UserID: 1, StartTime: now.Add(-time.Hour), EndTime: now.Add(-2 * time.Hour),
	})
	require.ErrorIs(t, err, ErrInvalidInterval)

	_, err = svc.AddManualEntry(context.Background(), ManualInput{
		UserID: 1, StartTime: now.Add(-48 * time.Hour), EndTime: now.Add(-2 * time.Hour),
	})
	require.ErrorIs(t, err, ErrInvalidInterval)

	_, err = svc.AddManualEntry(context.Background(), ManualInput{
		UserID: 1, StartTime: now.Add(time.Hour), EndTime: now.Add(2 * time.Hour),
	})
	require.ErrorIs(t, err, ErrInvalidInterval)

	entry, err := svc.AddManualEntry(context.Background(), ManualInput{
		UserID: 1, StartTime: now.Add(-9 * time.Hour), EndTime: now.Add(-time.Hour), Note: "forgot to clock in",
	})
	require.NoError(t, err)
	require.Equal(t, SourceManual, entry.Source)
	require.Equal(t, 8.0, entry.Hours())
}

func TestWeekOvertimeSplit(t *testing.T) {
	repo := newMemoryClockRepo()
	svc := newClockService(repo, 40)

	// Five 9h days: 45h total, 40 regular + 5 overtime.
	monday := WeekStart(time.Date(2024, 3, 6, 12, 0, 0, 0, time.UTC))
	for d := 0; d < 5; d++ {
		start := monday.AddDate(0, 0, d).Add(9 * time.Hour)
		end := start.Add(9 * time.Hour)
		require.NoError(t, repo.Insert(context.Background(), &Entry{
			UserID: 1, StartTime: start, EndTime: &end, Source: SourceClock,
		}))
	}

	summary, err := svc.Week(context.Background(), 1, monday.AddDate(0, 0, 2))
	require.NoError(t, err)
	require.Equal(t, monday, summary.WeekStart)
	require.Equal(t, 45.0, summary.TotalHours)
	require.Equal(t, 40.0, summary.RegularHours)
	require.Equal(t, 5.0, summary.OvertimeHours)
	require.Len(t, summary.Entries, 5)
}

func TestWeekIgnoresOpenEntries(t *testing.T) {
	repo := newMemoryClockRepo()
	svc := newClockService(repo, 40)

	monday := WeekStart(time.Date(2024, 3, 6, 12, 0, 0, 0, time.UTC))
	require.NoError(t, repo.Insert(context.Background(), &Entry{
		UserID: 1, StartTime: monday.Add(9 * time.Hour), Source: SourceClock,
	}))

	summary, err := svc.Week(context.Background(), 1, monday)
	require.NoError(t, err)
	require.Zero(t, summary.TotalHours)
	require.Len(t, summary.Entries, 1)
}

func TestSplitOvertime(t *testing.T) {
	regular, overtime := SplitOvertime(38, 40)
	require.Equal(t, 38.0, regular)
	require.Zero(t, overtime)

	regular, overtime = SplitOvertime(45, 40)
	require.Equal(t, 40.0, regular)
	require.Equal(t, 5.0, overtime)
}

func TestWeekStartIsMonday(t *testing.T) {
	// 2024-03-06 is a Wednesday.
	start := WeekStart(time.Date(2024, 3, 6, 15, 30, 0, 0, time.UTC))
	require.Equal(t, time.Monday, start.Weekday())
	require.Equal(t, 4, start.Day())

	// Sunday belongs to the preceding Monday's week.
	start = WeekStart(time.Date(2024, 3, 10, 1, 0, 0, 0, time.UTC))
	require.Equal(t, 4, start.Day())
}

func TestPresenceFilter(t *testing.T) {
	repo := newMemoryClockRepo()
	eng := int64(1)
	repo.names[1] = "Ana Silva"
	repo.depts[1] = &eng
	repo.names[2] = "Ben Okafor"
	svc := newClockService(repo, 40)

	_, _, err := svc.ClockIn(context.Background(), 1)
	require.NoError(t, err)
	_, _, err = svc.ClockIn(context.Background(), 2)
	require.NoError(t, err)

	all, err := svc.Presence(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, all, 2)

	scoped, err := svc.Presence(context.Background(), &eng)
	require.NoError(t, err)
	require.Len(t, scoped, 1)
	require.Equal(t, "Ana Silva", scoped[0].UserName)
}
