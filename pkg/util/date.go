package util

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// dateLayouts are tried in order by ParseDate. The two-digit year layout
// matches the exported expiry sheets (e.g. 11/20/25).
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"01/02/2006",
	"01/02/06",
	"1/2/2006",
	"1/2/06",
}

// ParseDate parses a calendar date in any supported layout (or unix seconds)
// and returns it truncated to midnight UTC.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return DateOf(t), nil
		}
	}
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
		return DateOf(time.Unix(ts, 0)), nil
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// DateOf drops the clock part of t, keeping its calendar day in UTC.
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FirstOfNextMonth returns the first calendar day of the month after t.
func FirstOfNextMonth(t time.Time) time.Time {
	y, m, _ := t.UTC().Date()
	return time.Date(y, m+1, 1, 0, 0, 0, 0, time.UTC)
}

// LastDayOfMonth returns the last calendar day of the given month.
func LastDayOfMonth(year int, month time.Month) time.Time {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC)
}

// YearsAgo returns t moved back n calendar years (Feb 29 rolls to Mar 1).
func YearsAgo(t time.Time, n int) time.Time {
	return t.AddDate(-n, 0, 0)
}
