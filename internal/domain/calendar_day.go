package domain

import (
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// NextCalendarDay returns the date after date, both YYYY-MM-DD. Month and year
// rollover follow the proleptic Gregorian calendar.
func NextCalendarDay(date string) (string, error) {
	d, err := time.Parse(dateLayout, date)
	if err != nil {
		return "", fmt.Errorf("parse date %q: %w", date, err)
	}
	return d.AddDate(0, 0, 1).Format(dateLayout), nil
}

// DatePart returns the YYYY-MM-DD prefix of a canonical start or end time.
func DatePart(s string) string {
	if i := strings.IndexByte(s, 'T'); i >= 0 {
		return s[:i]
	}
	return s
}

// ParseEventTime reads a canonical time in loc. Date-only values are midnight.
// Values that already carry an offset keep it.
func ParseEventTime(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if loc == nil {
		loc = time.UTC
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	for _, layout := range []string{"2006-01-02T15:04:05", "2006-01-02T15:04", dateLayout} {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized event time %q", s)
}
