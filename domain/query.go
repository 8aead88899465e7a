package domain

import (
	"math"
	"sort"
	"time"
)

// NextUpcoming picks the pending activity that comes next: scheduled at or
// after now, or scheduled for today. Equal instants keep collection order.
func NextUpcoming(activities []Activity, now time.Time) (Activity, bool) {
	type candidate struct {
		activity Activity
		at       time.Time
	}

	today := now.Format(DateLayout)
	candidates := make([]candidate, 0, len(activities))
	for _, a := range activities {
		if a.Completed {
			continue
		}
		at, ok := a.Instant(now.Location())
		if !ok {
			continue
		}
		if !at.Before(now) || a.Date == today {
			candidates = append(candidates, candidate{activity: a, at: at})
		}
	}
	if len(candidates) == 0 {
		return Activity{}, false
	}
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].at.Before(candidates[j].at) })
	return candidates[0].activity, true
}

// CompletionRate returns the rounded percentage of completed activities, 0 for none.
func CompletionRate(activities []Activity) int {
	if len(activities) == 0 {
		return 0
	}
	completed := 0
	for _, a := range activities {
		if a.Completed {
			completed++
		}
	}
	return int(math.Round(float64(completed) / float64(len(activities)) * 100))
}

// BucketByDate groups activities by their Date, keeping collection order inside each bucket.
func BucketByDate(activities []Activity) map[string][]Activity {
	buckets := make(map[string][]Activity)
	for _, a := range activities {
		buckets[a.Date] = append(buckets[a.Date], a)
	}
	return buckets
}

// FilterByDate returns the activities scheduled on date, in collection order.
func FilterByDate(activities []Activity, date string) []Activity {
	out := make([]Activity, 0)
	for _, a := range activities {
		if a.Date == date {
			out = append(out, a)
		}
	}
	return out
}

// RelativeDay labels date as "today" or "tomorrow" relative to now, or "" otherwise.
func RelativeDay(date string, now time.Time) string {
	switch date {
	case now.Format(DateLayout):
		return "today"
	case now.AddDate(0, 0, 1).Format(DateLayout):
		return "tomorrow"
	}
	return ""
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
