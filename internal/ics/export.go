// Package ics renders the event list as an iCalendar feed so external
// calendars can subscribe to it.
package ics

import (
	"strings"

	ical "github.com/arran4/golang-ical"

	"dayplan/internal/model"
	"dayplan/internal/recur"
	"dayplan/pkg/logx"
)

const productID = "-//dayplan//scheduler//EN"

// Export serializes events into a VCALENDAR. Recurring events carry
// their RRULE so the subscriber expands occurrences itself. Events
// whose pattern cannot be rendered are exported without the rule and
// logged.
func Export(events []model.Event, calName string, log logx.Logger) string {
	if log.IsZero() {
		log = logx.Nop()
	}
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)
	if strings.TrimSpace(calName) != "" {
		cal.SetName(calName)
		cal.SetXWRCalName(calName)
	}

	for _, e := range events {
		ve := cal.AddEvent(e.ID)
		ve.SetSummary(e.Title)
		if e.Description != "" {
			ve.SetDescription(e.Description)
		}
		ve.SetStartAt(e.Start)
		ve.SetEndAt(e.End())
		ve.SetDtStampTime(e.Start)
		if e.Category.Valid() {
			ve.SetProperty(ical.ComponentPropertyCategories, strings.ToUpper(string(e.Category)))
		}

		if e.IsRecurring && e.Recurrence != nil {
			rule, err := recur.RRuleString(e)
			if err != nil {
				log.Warn("rrule render failed, exporting single instance",
					logx.String("event", e.ID),
					logx.Err(err))
				continue
			}
			ve.AddRrule(strings.TrimPrefix(rule, "RRULE:"))
		}
	}

	return cal.Serialize()
}
