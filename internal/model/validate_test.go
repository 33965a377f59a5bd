package model

import (
	"testing"
	"time"
)

func validEvent() Event {
	return Event{
		ID:          "ev1",
		Title:       "Checkup",
		Start:       time.Date(2024, 3, 18, 10, 0, 0, 0, time.UTC),
		DurationMin: 30,
		Category:    CategoryHealth,
	}
}

func TestValidateEvent(t *testing.T) {
	t.Parallel()

	if errs := ValidateEvent(validEvent()); errs.OrNil() != nil {
		t.Fatalf("valid event rejected: %v", errs)
	}

	cases := []struct {
		name      string
		mutate    func(*Event)
		wantField string
	}{
		{"missing id", func(e *Event) { e.ID = " " }, "id"},
		{"missing title", func(e *Event) { e.Title = "" }, "title"},
		{"zero duration", func(e *Event) { e.DurationMin = 0 }, "duration_min"},
		{"negative duration", func(e *Event) { e.DurationMin = -15 }, "duration_min"},
		{"bad category", func(e *Event) { e.Category = "hobby" }, "category"},
		{"zero start", func(e *Event) { e.Start = time.Time{} }, "start"},
		{"recurring without pattern", func(e *Event) { e.IsRecurring = true }, "recurrence"},
		{
			"zero interval",
			func(e *Event) {
				e.IsRecurring = true
				e.Recurrence = &RecurrencePattern{Type: PatternDaily, Interval: 0}
			},
			"recurrence.interval",
		},
		{
			"bad pattern type",
			func(e *Event) {
				e.IsRecurring = true
				e.Recurrence = &RecurrencePattern{Type: "yearly", Interval: 1}
			},
			"recurrence.type",
		},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			e := validEvent()
			tc.mutate(&e)
			errs := ValidateEvent(e)
			if len(errs) == 0 {
				t.Fatalf("invalid event accepted")
			}
			found := false
			for _, fe := range errs {
				if fe.Field == tc.wantField {
					found = true
				}
			}
			if !found {
				t.Fatalf("no error on field %q, got %v", tc.wantField, errs)
			}
		})
	}
}

func TestValidateEventCollectsAllErrors(t *testing.T) {
	t.Parallel()
	errs := ValidateEvent(Event{})
	// Every broken field is reported at once, not just the first.
	if len(errs) < 4 {
		t.Fatalf("got %d errors, want one per broken field: %v", len(errs), errs)
	}
	if errs.OrNil() == nil {
		t.Fatalf("OrNil() = nil for a broken event")
	}
}

func TestValidateTask(t *testing.T) {
	t.Parallel()
	valid := Task{ID: "t1", Title: "File taxes", Priority: PriorityHigh, Due: time.Now()}
	if errs := ValidateTask(valid); errs.OrNil() != nil {
		t.Fatalf("valid task rejected: %v", errs)
	}

	errs := ValidateTask(Task{Priority: "urgent"})
	fields := map[string]bool{}
	for _, fe := range errs {
		fields[fe.Field] = true
	}
	for _, want := range []string{"id", "title", "priority", "due"} {
		if !fields[want] {
			t.Fatalf("missing error on %q, got %v", want, errs)
		}
	}
}
