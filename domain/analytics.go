package domain

import (
	"strings"
	"time"
)

var weekdayLabels = [7]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// DayHours aggregates the study time scheduled on one day of a week.
type DayHours struct {
	Weekday        string  `json:"weekday"`
	Date           string  `json:"date"`
	PlannedMinutes int     `json:"plannedMinutes"`
	StudiedMinutes int     `json:"studiedMinutes"`
	PlannedHours   float64 `json:"plannedHours"`
	StudiedHours   float64 `json:"studiedHours"`
}

// WeekSummary covers Monday through Sunday of one week.
type WeekSummary struct {
	Start          string     `json:"start"`
	End            string     `json:"end"`
	Days           []DayHours `json:"days"`
	StudiedMinutes int        `json:"studiedMinutes"`
	TotalHours     float64    `json:"totalHours"`
	BestDay        *DayHours  `json:"bestDay,omitempty"`
	// UnknownDurations counts activities whose duration label could not be read.
	UnknownDurations int `json:"unknownDurations"`
}

// MonthSummary holds the monthly statistics shown on the analytics page.
type MonthSummary struct {
	Month          string  `json:"month"`
	Completed      int     `json:"completed"`
	Total          int     `json:"total"`
	StudiedMinutes int     `json:"studiedMinutes"`
	StudiedHours   float64 `json:"studiedHours"`
	TopSubject     string  `json:"topSubject,omitempty"`
	CurrentStreak  int     `json:"currentStreak"`
	// UnknownDurations counts activities whose duration label could not be read.
	UnknownDurations int `json:"unknownDurations"`
}

// WeeklyHours sums durations per day for the week containing now. Planned time
// counts every activity, studied time only completed ones. BestDay is the
// first day with the most studied time and is nil for a week without any.
func WeeklyHours(activities []Activity, now time.Time) WeekSummary {
	offset := (int(now.Weekday()) + 6) % 7
	start := startOfDay(now).AddDate(0, 0, -offset)

	index := make(map[string]int, 7)
	days := make([]DayHours, 7)
	for i := range days {
		date := start.AddDate(0, 0, i).Format(DateLayout)
		days[i] = DayHours{Weekday: weekdayLabels[i], Date: date}
		index[date] = i
	}

	unknown := 0
	for _, a := range activities {
		i, ok := index[a.Date]
		if !ok {
			continue
		}
		if a.durationUnknown() {
			unknown++
		}
		days[i].PlannedMinutes += a.DurationMinutes
		if a.Completed {
			days[i].StudiedMinutes += a.DurationMinutes
		}
	}

	summary := WeekSummary{
		Start:            days[0].Date,
		End:              days[6].Date,
		Days:             days,
		UnknownDurations: unknown,
	}
	best := -1
	for i := range days {
		days[i].PlannedHours = minutesToHours(days[i].PlannedMinutes)
		days[i].StudiedHours = minutesToHours(days[i].StudiedMinutes)
		summary.StudiedMinutes += days[i].StudiedMinutes
		if days[i].StudiedMinutes > 0 && (best < 0 || days[i].StudiedMinutes > days[best].StudiedMinutes) {
			best = i
		}
	}
	summary.TotalHours = minutesToHours(summary.StudiedMinutes)
	if best >= 0 {
		bd := days[best]
		summary.BestDay = &bd
	}
	return summary
}

// MonthStats summarises activities dated in the given month. The streak is
// not limited to the month: it counts consecutive days with a completed
// activity ending today, or yesterday when nothing is completed today yet.
func MonthStats(activities []Activity, year int, month time.Month, now time.Time) MonthSummary {
	key := time.Date(year, month, 1, 0, 0, 0, 0, now.Location()).Format(MonthLayout)
	summary := MonthSummary{Month: key}

	subjectMinutes := make(map[string]int)
	var subjects []string
	for _, a := range activities {
		if !strings.HasPrefix(a.Date, key+"-") {
			continue
		}
		summary.Total++
		if a.durationUnknown() {
			summary.UnknownDurations++
		}
		if !a.Completed {
			continue
		}
		summary.Completed++
		summary.StudiedMinutes += a.DurationMinutes
		if _, seen := subjectMinutes[a.Subject]; !seen {
			subjects = append(subjects, a.Subject)
		}
		subjectMinutes[a.Subject] += a.DurationMinutes
	}
	summary.StudiedHours = minutesToHours(summary.StudiedMinutes)

	top := -1
	for _, s := range subjects {
		if subjectMinutes[s] > top {
			top = subjectMinutes[s]
			summary.TopSubject = s
		}
	}

	summary.CurrentStreak = currentStreak(activities, now)
	return summary
}

func currentStreak(activities []Activity, now time.Time) int {
	studied := make(map[string]bool)
	for _, a := range activities {
		if a.Completed {
			studied[a.Date] = true
		}
	}
	day := startOfDay(now)
	if !studied[day.Format(DateLayout)] {
		day = day.AddDate(0, 0, -1)
	}
	streak := 0
	for studied[day.Format(DateLayout)] {
		streak++
		day = day.AddDate(0, 0, -1)
	}
	return streak
}

func minutesToHours(minutes int) float64 {
	return float64(minutes) / 60
}

func (a Activity) durationUnknown() bool {
	return a.Duration != "" && !a.DurationParsed
}
