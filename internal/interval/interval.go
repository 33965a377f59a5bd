// Package interval holds the pure time arithmetic shared by the recurrence
// expander, the conflict detector and the reminder scheduler.
package interval

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Overlaps reports whether the half-open intervals [aStart, aEnd) and
// [bStart, bEnd) intersect. Back-to-back intervals do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

// End returns start + durationMin minutes.
func End(start time.Time, durationMin int) time.Time {
	return start.Add(time.Duration(durationMin) * time.Minute)
}

// AddDays advances t by n calendar days.
func AddDays(t time.Time, n int) time.Time { return t.AddDate(0, 0, n) }

// AddWeeks advances t by n calendar weeks.
func AddWeeks(t time.Time, n int) time.Time { return t.AddDate(0, 0, 7*n) }

// AddMonths advances t by n calendar months. Like time.AddDate, a day-of-month
// past the target month's end rolls over (Jan 31 + 1 month = Mar 2/3).
func AddMonths(t time.Time, n int) time.Time { return t.AddDate(0, n, 0) }

// DayStart truncates t to midnight in its own location.
func DayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// DayEnd returns the first instant of the following day.
func DayEnd(t time.Time) time.Time { return DayStart(t).AddDate(0, 0, 1) }

// SameDay reports whether a and b fall on the same calendar date.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// DateStamp renders t's calendar date as YYYY-MM-DD. Occurrence ids embed
// this stamp, which is what makes regeneration naturally deduplicate.
func DateStamp(t time.Time) string { return t.Format("2006-01-02") }

// ParseHHMM parses a wall-clock time like "09:00".
func ParseHHMM(s string) (hour, minute int, err error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", s)
	}
	return h, m, nil
}

// AtTime returns day's date at the given wall-clock time.
func AtTime(day time.Time, hour, minute int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, day.Location())
}

// NextClockTime returns the next instant at hour:minute at-or-after now:
// today if that time has not passed yet, else the same time tomorrow.
func NextClockTime(now time.Time, hour, minute int) time.Time {
	at := AtTime(now, hour, minute)
	if at.Before(now) {
		at = at.AddDate(0, 0, 1)
	}
	return at
}
