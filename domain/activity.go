package domain

import (
	"strconv"
	"strings"
	"time"
)

const (
	// DateLayout is the calendar date format used for Activity.Date.
	DateLayout = "2006-01-02"
	// TimeLayout is the 24h time-of-day format used for Activity.Time.
	TimeLayout = "15:04"
	// MonthLayout identifies a calendar month, e.g. "2024-01".
	MonthLayout = "2006-01"
)

// Activity represents a single study session.
type Activity struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Subject         string    `json:"subject"`
	Date            string    `json:"date"`
	Time            string    `json:"time"`
	Duration        string    `json:"duration"`
	DurationMinutes int       `json:"durationMinutes"`
	DurationParsed  bool      `json:"durationParsed"`
	Completed       bool      `json:"completed"`
	Notes           string    `json:"notes,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

// NewActivity carries the caller supplied fields of an activity.
type NewActivity struct {
	Title    string `json:"title"`
	Subject  string `json:"subject"`
	Date     string `json:"date"`
	Time     string `json:"time"`
	Duration string `json:"duration"`
	Notes    string `json:"notes,omitempty"`
}

// Build turns the input into a pending Activity created at now.
func (in NewActivity) Build(now time.Time) Activity {
	minutes, parsed := ParseDuration(in.Duration)
	return Activity{
		ID:              NextID(),
		Title:           in.Title,
		Subject:         in.Subject,
		Date:            in.Date,
		Time:            in.Time,
		Duration:        in.Duration,
		DurationMinutes: minutes,
		DurationParsed:  parsed,
		Completed:       false,
		Notes:           in.Notes,
		CreatedAt:       now,
	}
}

// Instant combines Date and Time in loc. An unparseable Time counts as midnight;
// ok is false when Date itself cannot be parsed.
func (a Activity) Instant(loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.Local
	}
	day, err := time.ParseInLocation(DateLayout, a.Date, loc)
	if err != nil {
		return time.Time{}, false
	}
	clock, err := time.Parse(TimeLayout, a.Time)
	if err != nil {
		return day, true
	}
	return day.Add(time.Duration(clock.Hour())*time.Hour + time.Duration(clock.Minute())*time.Minute), true
}

// Conjunctions and "half" phrasings are rewritten before units are shortened.
// Longer spellings come first, the replacer matches in argument order.
var durationPhrases = strings.NewReplacer(
	"uma hora", "1h",
	"meia hora", "30m",
	"half an hour", "30m",
	" e meia", "30m",
	" and a half", "30m",
	" e ", " ",
	" and ", " ",
)

var durationUnits = strings.NewReplacer(
	"minutos", "m",
	"minuto", "m",
	"minutes", "m",
	"minute", "m",
	"mins", "m",
	"min", "m",
	"horas", "h",
	"hora", "h",
	"hours", "h",
	"hour", "h",
	"hrs", "h",
	"hr", "h",
	" ", "",
)

// ParseDuration normalises a free-text duration label ("1h 30min", "45min",
// "2 horas", "1 hora e meia", "1:30") to whole minutes. A bare number has no
// unit and is rejected.
func ParseDuration(label string) (int, bool) {
	s := strings.ToLower(strings.Join(strings.Fields(label), " "))
	if s == "" {
		return 0, false
	}
	if h, m, found := strings.Cut(s, ":"); found {
		hours, herr := strconv.Atoi(strings.TrimSpace(h))
		mins, merr := strconv.Atoi(strings.TrimSpace(m))
		if herr != nil || merr != nil || hours < 0 || mins < 0 || mins >= 60 {
			return 0, false
		}
		return hours*60 + mins, true
	}
	s = durationUnits.Replace(durationPhrases.Replace(s))
	s = strings.ReplaceAll(s, ",", ".")
	if _, err := strconv.ParseFloat(s, 64); err == nil {
		return 0, false
	}
	if last := s[len(s)-1]; last >= '0' && last <= '9' && strings.Contains(s, "h") {
		s += "m"
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return 0, false
	}
	return int(d / time.Minute), true
}
