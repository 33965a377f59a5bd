package model

import "time"

// Category classifies an event. The set is closed; anything else fails
// validation.
type Category string

const (
	CategoryWork     Category = "work"
	CategoryPersonal Category = "personal"
	CategoryHealth   Category = "health"
	CategoryOther    Category = "other"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryWork, CategoryPersonal, CategoryHealth, CategoryOther:
		return true
	}
	return false
}

// PatternType selects the stepping unit of a recurrence pattern.
//
// PatternCustom is kept as a distinct case even though it currently steps
// the same way as daily; see recur.step.
type PatternType string

const (
	PatternDaily   PatternType = "daily"
	PatternWeekly  PatternType = "weekly"
	PatternMonthly PatternType = "monthly"
	PatternCustom  PatternType = "custom"
)

func (p PatternType) Valid() bool {
	switch p {
	case PatternDaily, PatternWeekly, PatternMonthly, PatternCustom:
		return true
	}
	return false
}

// RecurrencePattern describes how an event repeats.
//
// Interval is the step count in the pattern's unit and must be >= 1; the
// expander additionally guards against non-advancing steps with a hard
// iteration cap. EndDate, when set, is an inclusive upper bound on
// occurrence start instants.
type RecurrencePattern struct {
	Type     PatternType `json:"type"`
	Interval int         `json:"interval"`
	EndDate  *time.Time  `json:"end_date,omitempty"`
}

// Event is a scheduled calendar entry.
type Event struct {
	ID                  string             `json:"id"`
	Title               string             `json:"title"`
	Description         string             `json:"description,omitempty"`
	Start               time.Time          `json:"start"`
	DurationMin         int                `json:"duration_min"`
	Category            Category           `json:"category"`
	IsRecurring         bool               `json:"is_recurring"`
	Recurrence          *RecurrencePattern `json:"recurrence,omitempty"`
	NotificationEnabled bool               `json:"notification_enabled"`
}

// End returns the event's end instant (start + duration). Intervals are
// half-open: [Start, End).
func (e Event) End() time.Time {
	return e.Start.Add(time.Duration(e.DurationMin) * time.Minute)
}

// Occurrence is one concrete, dated materialization of a recurring event.
// It inherits every field from its base event except identity and start
// instant, and is never independently persisted.
type Occurrence struct {
	Event

	BaseEventID string `json:"base_event_id"`
	Generated   bool   `json:"generated"`
}

// TimeSlot is a half-open interval [Start, End).
type TimeSlot struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (s TimeSlot) Duration() time.Duration { return s.End.Sub(s.Start) }
