package timetrack

import (
	"fmt"
	"strings"
	"time"
)

// Period is a summary window anchored on the current date
type Period string

const (
	Day   Period = "day"
	Week  Period = "week"
	Month Period = "month"
	Year  Period = "year"
)

// Periods lists the valid summary periods
var Periods = []Period{Day, Week, Month, Year}

// ParsePeriod validates a period name
func ParsePeriod(s string) (Period, error) {
	p := Period(strings.ToLower(s))
	for _, valid := range Periods {
		if p == valid {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %s (valid periods: %s)", ErrInvalidPeriod, s, PeriodNames())
}

// PeriodNames is the comma-separated list of valid periods
func PeriodNames() string {
	names := make([]string, len(Periods))
	for i, p := range Periods {
		names[i] = string(p)
	}
	return strings.Join(names, ", ")
}

// Title is the capitalized period name
func (p Period) Title() string {
	if p == "" {
		return ""
	}
	return strings.ToUpper(string(p[:1])) + string(p[1:])
}

// Range returns [start, end) for the period containing now, in now's location.
// Weeks start on Monday.
func (p Period) Range(now time.Time) (time.Time, time.Time) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	switch p {
	case Day:
		return today, today.AddDate(0, 0, 1)
	case Week:
		sinceMonday := (int(today.Weekday()) + 6) % 7
		start := today.AddDate(0, 0, -sinceMonday)
		return start, start.AddDate(0, 0, 7)
	case Month:
		start := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())
		return start, start.AddDate(0, 1, 0)
	case Year:
		start := time.Date(today.Year(), time.January, 1, 0, 0, 0, 0, today.Location())
		return start, start.AddDate(1, 0, 0)
	}
	return time.Time{}, time.Time{}
}

// FormatDuration renders d as h:mm, truncating seconds
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	return fmt.Sprintf("%d:%02d", total/3600, (total%3600)/60)
}
