package pto

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestBusinessDaysInclusive(t *testing.T) {
	cases := []struct {
		name  string
		start string
		end   string
		want  int
	}{
		{"single weekday", "2024-03-04", "2024-03-04", 1},
		{"full work week", "2024-03-04", "2024-03-08", 5},
		{"spanning one weekend", "2024-03-07", "2024-03-12", 4},
		{"weekend only", "2024-03-09", "2024-03-10", 0},
		{"two full weeks", "2024-03-04", "2024-03-15", 10},
		{"end before start", "2024-03-08", "2024-03-04", 0},
		{"friday to monday", "2024-03-08", "2024-03-11", 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, BusinessDaysInclusive(day(tc.start), day(tc.end)))
		})
	}
}

func TestTotalHoursFullDays(t *testing.T) {
	require.Equal(t, 40.0, TotalHours(day("2024-03-04"), day("2024-03-08"), nil, 8))
}

func TestTotalHoursPartialOverrideWins(t *testing.T) {
	partial := 4.0
	require.Equal(t, 4.0, TotalHours(day("2024-03-04"), day("2024-03-08"), &partial, 8))
}

func TestTotalHoursCustomWorkday(t *testing.T) {
	require.Equal(t, 37.5, TotalHours(day("2024-03-04"), day("2024-03-08"), nil, 7.5))
}
