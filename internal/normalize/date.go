package normalize

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// Date parses a date in any common layout (ISO, 01/02/2006, "Jan 02, 2006",
// timestamps) and truncates it to the calendar date in UTC.
func Date(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(strings.ReplaceAll(raw, "\u00a0", " "))
	if raw == "" {
		return time.Time{}, false
	}

	t, err := dateparse.ParseIn(raw, time.UTC)
	if err != nil {
		return time.Time{}, false
	}

	return CalendarDate(t), true
}

// CalendarDate drops the time-of-day, keeping the written calendar day
func CalendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDay parses the strict YYYY-MM-DD form used by query parameters and flags
func ParseDay(raw string) (time.Time, error) {
	return time.Parse("2006-01-02", strings.TrimSpace(raw))
}
