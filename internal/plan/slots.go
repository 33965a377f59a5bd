package plan

import (
	"errors"
	"sort"
	"time"

	"dayplan/internal/interval"
	"dayplan/internal/model"
	"dayplan/internal/recur"
)

// ErrNoSlot signals that no free slot can hold the requested duration.
var ErrNoSlot = errors.New("no free slot of the requested duration")

// WorkingHours bounds the planning window of a day, as HH:MM wall-clock
// strings (e.g. "09:00".."17:00").
type WorkingHours struct {
	Start string
	End   string
}

// Bounds resolves the working hours on day's date.
func (w WorkingHours) Bounds(day time.Time) (start, end time.Time, err error) {
	sh, sm, err := interval.ParseHHMM(w.Start)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	eh, em, err := interval.ParseHHMM(w.End)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return interval.AtTime(day, sh, sm), interval.AtTime(day, eh, em), nil
}

// dayIntervals resolves the committed intervals touching day's date,
// expanding recurring events to that single day, sorted by start.
func dayIntervals(committed []model.Event, day time.Time) []model.TimeSlot {
	var out []model.TimeSlot
	for _, e := range committed {
		if e.IsRecurring && e.Recurrence != nil {
			for _, occ := range recur.Expand(e, day, day) {
				out = append(out, model.TimeSlot{Start: occ.Start, End: occ.End()})
			}
			continue
		}
		if interval.SameDay(e.Start, day) {
			out = append(out, model.TimeSlot{Start: e.Start, End: e.End()})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out
}

// FreeSlots returns the ordered free slots of at least slotMinutes on day's
// date within the working hours. Gaps smaller than slotMinutes are omitted
// entirely, never partially offered.
func FreeSlots(committed []model.Event, day time.Time, slotMinutes int, hours WorkingHours) ([]model.TimeSlot, error) {
	whStart, whEnd, err := hours.Bounds(day)
	if err != nil {
		return nil, err
	}
	minDur := time.Duration(slotMinutes) * time.Minute

	var slots []model.TimeSlot
	cursor := whStart
	for _, iv := range dayIntervals(committed, day) {
		gapEnd := iv.Start
		if gapEnd.After(whEnd) {
			gapEnd = whEnd
		}
		if gapEnd.Sub(cursor) >= minDur {
			slots = append(slots, model.TimeSlot{Start: cursor, End: gapEnd})
		}
		if iv.End.After(cursor) {
			cursor = iv.End
		}
		if !cursor.Before(whEnd) {
			return slots, nil
		}
	}
	if whEnd.Sub(cursor) >= minDur {
		slots = append(slots, model.TimeSlot{Start: cursor, End: whEnd})
	}
	return slots, nil
}

// SuggestOptimalTime proposes a start instant for a durationMin-minute item
// on day's date: preferred time first when it fits inside a slot, else the
// start of the earliest free slot; ErrNoSlot when nothing fits.
func SuggestOptimalTime(committed []model.Event, day time.Time, durationMin int, preferred *time.Time, hours WorkingHours) (time.Time, error) {
	slots, err := FreeSlots(committed, day, durationMin, hours)
	if err != nil {
		return time.Time{}, err
	}
	if len(slots) == 0 {
		return time.Time{}, ErrNoSlot
	}
	dur := time.Duration(durationMin) * time.Minute

	if preferred != nil {
		for _, s := range slots {
			if s.Start.After(*preferred) {
				continue
			}
			start := *preferred
			if s.Start.After(start) {
				start = s.Start
			}
			if !start.Add(dur).After(s.End) {
				return start, nil
			}
		}
	}
	return slots[0].Start, nil
}
