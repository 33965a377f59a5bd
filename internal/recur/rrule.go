package recur

import (
	"fmt"

	"github.com/teambition/rrule-go"

	"dayplan/internal/model"
)

// RRuleString renders an event's recurrence pattern as an RFC 5545 RRULE
// (FREQ/INTERVAL/UNTIL). The custom pattern has no RFC equivalent and is
// exported as daily, matching its stepping behavior.
func RRuleString(e model.Event) (string, error) {
	if !e.IsRecurring || e.Recurrence == nil {
		return "", fmt.Errorf("event %s is not recurring", e.ID)
	}
	p := *e.Recurrence

	var freq rrule.Frequency
	switch p.Type {
	case model.PatternWeekly:
		freq = rrule.WEEKLY
	case model.PatternMonthly:
		freq = rrule.MONTHLY
	case model.PatternDaily, model.PatternCustom:
		freq = rrule.DAILY
	default:
		return "", fmt.Errorf("unknown pattern type %q", p.Type)
	}

	opt := rrule.ROption{
		Freq:     freq,
		Interval: p.Interval,
		Dtstart:  e.Start,
	}
	if p.EndDate != nil {
		opt.Until = *p.EndDate
	}

	r, err := rrule.NewRRule(opt)
	if err != nil {
		return "", fmt.Errorf("build rrule: %w", err)
	}
	return r.String(), nil
}
