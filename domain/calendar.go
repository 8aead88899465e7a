package domain

import (
	"fmt"
	"time"
)

// CalendarDay is one cell of a month grid. Leading blank cells have Day == 0.
type CalendarDay struct {
	Day         int    `json:"day,omitempty"`
	Date        string `json:"date,omitempty"`
	Count       int    `json:"count"`
	HasActivity bool   `json:"hasActivity"`
	IsToday     bool   `json:"isToday"`
}

// CalendarMonth is a Sunday-first month grid.
type CalendarMonth struct {
	Month string        `json:"month"`
	Year  int           `json:"year"`
	Index int           `json:"index"`
	Prev  string        `json:"prev"`
	Next  string        `json:"next"`
	Days  []CalendarDay `json:"days"`
}

// ParseMonth parses a "YYYY-MM" key.
func ParseMonth(key string) (int, time.Month, error) {
	t, err := time.Parse(MonthLayout, key)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid month %q: %w", key, err)
	}
	return t.Year(), t.Month(), nil
}

// MonthGrid lays out the given month with one blank cell per weekday before
// the 1st and marks days that have activities in buckets.
func MonthGrid(year int, month time.Month, buckets map[string][]Activity, now time.Time) CalendarMonth {
	first := time.Date(year, month, 1, 0, 0, 0, 0, now.Location())
	daysInMonth := first.AddDate(0, 1, -1).Day()
	blanks := int(first.Weekday())
	today := now.Format(DateLayout)

	days := make([]CalendarDay, 0, blanks+daysInMonth)
	for i := 0; i < blanks; i++ {
		days = append(days, CalendarDay{})
	}
	for d := 1; d <= daysInMonth; d++ {
		key := first.AddDate(0, 0, d-1).Format(DateLayout)
		count := len(buckets[key])
		days = append(days, CalendarDay{
			Day:         d,
			Date:        key,
			Count:       count,
			HasActivity: count > 0,
			IsToday:     key == today,
		})
	}

	return CalendarMonth{
		Month: first.Format(MonthLayout),
		Year:  year,
		Index: int(month),
		Prev:  first.AddDate(0, -1, 0).Format(MonthLayout),
		Next:  first.AddDate(0, 1, 0).Format(MonthLayout),
		Days:  days,
	}
}
