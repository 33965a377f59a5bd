package model

import (
	"fmt"
	"strings"
)

// FieldError is one structural problem with a value.
type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) String() string { return e.Field + ": " + e.Message }

// ValidationErrors collects field-level problems. A nil/empty slice means
// the value is valid. It satisfies error so callers can return it directly,
// but it is data, not a control-flow signal: it is never panicked or thrown.
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	parts := make([]string, len(v))
	for i, e := range v {
		parts[i] = e.String()
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// OrNil returns the collected errors as an error, or nil when empty.
func (v ValidationErrors) OrNil() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

// ValidateEvent checks an event's structural invariants.
func ValidateEvent(e Event) ValidationErrors {
	var errs ValidationErrors
	if strings.TrimSpace(e.ID) == "" {
		errs = append(errs, FieldError{"id", "required"})
	}
	if strings.TrimSpace(e.Title) == "" {
		errs = append(errs, FieldError{"title", "required"})
	}
	if e.DurationMin <= 0 {
		errs = append(errs, FieldError{"duration_min", "must be positive"})
	}
	if !e.Category.Valid() {
		errs = append(errs, FieldError{"category", fmt.Sprintf("unknown category %q", e.Category)})
	}
	if e.Start.IsZero() {
		errs = append(errs, FieldError{"start", "required"})
	}
	if e.IsRecurring {
		if e.Recurrence == nil {
			errs = append(errs, FieldError{"recurrence", "required for recurring events"})
		} else {
			errs = append(errs, validatePattern(*e.Recurrence)...)
		}
	}
	return errs
}

func validatePattern(p RecurrencePattern) ValidationErrors {
	var errs ValidationErrors
	if !p.Type.Valid() {
		errs = append(errs, FieldError{"recurrence.type", fmt.Sprintf("unknown type %q", p.Type)})
	}
	if p.Interval < 1 {
		errs = append(errs, FieldError{"recurrence.interval", "must be >= 1"})
	}
	return errs
}

// ValidateTask checks a task's structural invariants.
func ValidateTask(t Task) ValidationErrors {
	var errs ValidationErrors
	if strings.TrimSpace(t.ID) == "" {
		errs = append(errs, FieldError{"id", "required"})
	}
	if strings.TrimSpace(t.Title) == "" {
		errs = append(errs, FieldError{"title", "required"})
	}
	if !t.Priority.Valid() {
		errs = append(errs, FieldError{"priority", fmt.Sprintf("unknown priority %q", t.Priority)})
	}
	if t.Due.IsZero() {
		errs = append(errs, FieldError{"due", "required"})
	}
	return errs
}
