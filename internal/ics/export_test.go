package ics

import (
	"strings"
	"testing"
	"time"

	"dayplan/internal/model"
	"dayplan/pkg/logx"
)

func TestExport(t *testing.T) {
	t.Parallel()
	start := time.Date(2024, 3, 18, 9, 0, 0, 0, time.UTC)
	events := []model.Event{
		{
			ID:          "ev1",
			Title:       "Team sync",
			Description: "weekly agenda",
			Start:       start,
			DurationMin: 30,
			Category:    model.CategoryWork,
			IsRecurring: true,
			Recurrence:  &model.RecurrencePattern{Type: model.PatternWeekly, Interval: 1},
		},
		{
			ID:          "ev2",
			Title:       "Dentist",
			Start:       start.Add(26 * time.Hour),
			DurationMin: 45,
			Category:    model.CategoryHealth,
		},
	}

	out := Export(events, "dayplan", logx.Nop())

	for _, want := range []string{
		"BEGIN:VCALENDAR",
		"END:VCALENDAR",
		"UID:ev1",
		"UID:ev2",
		"SUMMARY:Team sync",
		"SUMMARY:Dentist",
		"FREQ=WEEKLY",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("serialized feed missing %q:\n%s", want, out)
		}
	}

	// One RRULE only: the single event must not carry one.
	if got := strings.Count(out, "RRULE"); got != 1 {
		t.Fatalf("found %d RRULE lines, want 1", got)
	}
}

func TestExportEmpty(t *testing.T) {
	t.Parallel()
	out := Export(nil, "", logx.Nop())
	if !strings.Contains(out, "BEGIN:VCALENDAR") {
		t.Fatalf("empty export is not a valid calendar:\n%s", out)
	}
	if strings.Contains(out, "BEGIN:VEVENT") {
		t.Fatalf("empty export contains events:\n%s", out)
	}
}
