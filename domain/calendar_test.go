package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMonthGridJanuary2024(t *testing.T) {
	now := time.Date(2024, 1, 16, 12, 0, 0, 0, time.UTC)
	buckets := BucketByDate([]Activity{
		act("1", "2024-01-15", "14:30", false),
		act("2", "2024-01-15", "16:00", true),
		act("3", "2024-01-16", "09:00", false),
		act("4", "2024-02-01", "09:00", false),
	})

	grid := MonthGrid(2024, time.January, buckets, now)

	require.Equal(t, "2024-01", grid.Month)
	require.Equal(t, "2023-12", grid.Prev)
	require.Equal(t, "2024-02", grid.Next)
	// 1 Jan 2024 is a Monday: one blank Sunday cell.
	require.Len(t, grid.Days, 1+31)
	require.Equal(t, CalendarDay{}, grid.Days[0])
	require.Equal(t, 1, grid.Days[1].Day)
	require.Equal(t, "2024-01-01", grid.Days[1].Date)

	fifteenth := grid.Days[15]
	require.Equal(t, "2024-01-15", fifteenth.Date)
	require.Equal(t, 2, fifteenth.Count)
	require.True(t, fifteenth.HasActivity)
	require.False(t, fifteenth.IsToday)

	sixteenth := grid.Days[16]
	require.True(t, sixteenth.HasActivity)
	require.True(t, sixteenth.IsToday)

	require.False(t, grid.Days[17].HasActivity)
}

func TestMonthGridLeapFebruary(t *testing.T) {
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	grid := MonthGrid(2024, time.February, nil, now)
	// 1 Feb 2024 is a Thursday.
	require.Len(t, grid.Days, 4+29)
	require.Equal(t, "2024-02-29", grid.Days[len(grid.Days)-1].Date)
	for _, d := range grid.Days {
		require.False(t, d.IsToday)
	}
}

func TestParseMonth(t *testing.T) {
	year, month, err := ParseMonth("2024-12")
	require.NoError(t, err)
	require.Equal(t, 2024, year)
	require.Equal(t, time.December, month)

	_, _, err = ParseMonth("2024-13")
	require.Error(t, err)
}
