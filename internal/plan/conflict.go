// Package plan detects time-interval conflicts between events and computes
// free slots and placement suggestions inside working hours.
package plan

import (
	"dayplan/internal/interval"
	"dayplan/internal/model"
)

// FindConflicts returns every committed event whose interval overlaps the
// candidate's. The candidate never conflicts with itself; an event sharing
// its id is skipped. Conflicts are advisory: the caller decides whether to
// block the mutation or just surface a warning.
func FindConflicts(candidate model.Event, committed []model.Event) []model.Event {
	var out []model.Event
	cStart, cEnd := candidate.Start, candidate.End()
	for _, e := range committed {
		if e.ID == candidate.ID {
			continue
		}
		if interval.Overlaps(cStart, cEnd, e.Start, e.End()) {
			out = append(out, e)
		}
	}
	return out
}
