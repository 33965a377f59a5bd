// Package recur expands recurring event definitions into bounded, concrete
// occurrences.
//
// Expansion walks forward from the pattern's anchor (the base event's start
// instant) in steps of the pattern interval. The walk is bounded three ways:
// the requested range, the pattern's optional end date, and a hard iteration
// cap that guarantees termination even for a non-advancing step.
package recur

import (
	"time"

	"dayplan/internal/interval"
	"dayplan/internal/model"
)

// maxExpandIterations bounds every expansion walk independently of date
// math, so an interval <= 0 cannot loop forever.
const maxExpandIterations = 1000

// Expand returns the occurrences of e whose dates fall within the closed
// date range [rangeStart, rangeEnd]. Non-recurring events expand to nothing.
//
// Occurrence ids are <baseID>_<YYYY-MM-DD>; regenerating the same range
// yields identical ids.
func Expand(e model.Event, rangeStart, rangeEnd time.Time) []model.Occurrence {
	if !e.IsRecurring || e.Recurrence == nil {
		return nil
	}
	p := *e.Recurrence

	// The range is date-granular: an occurrence on rangeEnd's date counts
	// even when rangeEnd itself is midnight.
	lo := interval.DayStart(rangeStart)
	hi := interval.DayEnd(rangeEnd)

	var out []model.Occurrence
	lastStamp := ""
	cur := e.Start
	for i := 0; i < maxExpandIterations; i++ {
		if !cur.Before(hi) {
			break
		}
		if p.EndDate != nil && cur.After(*p.EndDate) {
			break
		}
		if !cur.Before(lo) {
			// A non-advancing step revisits the same date; the stamp check
			// keeps the output deduplicated while the cap counts down.
			stamp := interval.DateStamp(cur)
			if stamp != lastStamp {
				out = append(out, makeOccurrence(e, cur))
				lastStamp = stamp
			}
		}
		cur = step(cur, p)
	}
	return out
}

// ShouldOccurOnDate reports whether e has an occurrence on date's calendar
// day. It walks the pattern only as far as the target date instead of
// enumerating a whole range.
func ShouldOccurOnDate(e model.Event, date time.Time) bool {
	if !e.IsRecurring || e.Recurrence == nil {
		return interval.SameDay(e.Start, date)
	}
	p := *e.Recurrence
	day := interval.DayStart(date)

	cur := e.Start
	for i := 0; i < maxExpandIterations; i++ {
		if p.EndDate != nil && cur.After(*p.EndDate) {
			return false
		}
		if interval.SameDay(cur, day) {
			return true
		}
		if interval.DayStart(cur).After(day) {
			return false
		}
		next := step(cur, p)
		if !next.After(cur) {
			return false
		}
		cur = next
	}
	return false
}

// FindNextOccurrence returns the earliest occurrence instant strictly after
// from, or equal to it when from is the anchor itself. ok is false when the
// recurrence has ended (or the event is not recurring).
func FindNextOccurrence(e model.Event, from time.Time) (next time.Time, ok bool) {
	if !e.IsRecurring || e.Recurrence == nil {
		return time.Time{}, false
	}
	p := *e.Recurrence

	cur := e.Start
	for i := 0; i < maxExpandIterations; i++ {
		if p.EndDate != nil && cur.After(*p.EndDate) {
			return time.Time{}, false
		}
		if cur.After(from) || (cur.Equal(from) && cur.Equal(e.Start)) {
			return cur, true
		}
		n := step(cur, p)
		if !n.After(cur) {
			return time.Time{}, false
		}
		cur = n
	}
	return time.Time{}, false
}

// step advances one pattern interval. Custom patterns carry no cadence of
// their own and step like daily.
func step(t time.Time, p model.RecurrencePattern) time.Time {
	switch p.Type {
	case model.PatternWeekly:
		return interval.AddWeeks(t, p.Interval)
	case model.PatternMonthly:
		return interval.AddMonths(t, p.Interval)
	case model.PatternCustom:
		return interval.AddDays(t, p.Interval)
	default: // daily
		return interval.AddDays(t, p.Interval)
	}
}

func makeOccurrence(e model.Event, start time.Time) model.Occurrence {
	occ := model.Occurrence{
		Event:       e,
		BaseEventID: e.ID,
		Generated:   true,
	}
	occ.ID = OccurrenceID(e.ID, start)
	occ.Start = start
	return occ
}

// OccurrenceID builds the deterministic per-date id of a recurring instance.
func OccurrenceID(baseID string, start time.Time) string {
	return baseID + "_" + interval.DateStamp(start)
}
