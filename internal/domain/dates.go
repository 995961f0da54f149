package domain

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire format for every calendar date (ISO-8601 YYYY-MM-DD).
const DateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD string into midnight UTC.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return t, nil
}

// DateOf truncates t to its calendar date at midnight UTC.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// InclusiveDays counts calendar days in [start, end]; a same-day range is 1.
func InclusiveDays(start, end time.Time) int {
	return int(DateOf(end).Sub(DateOf(start)).Hours()/24) + 1
}
