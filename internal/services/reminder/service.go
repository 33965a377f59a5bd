package reminder

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"dayplan/internal/eventbus"
	"dayplan/internal/interval"
	"dayplan/internal/model"
	"dayplan/internal/notify"
	"dayplan/internal/recur"
	"dayplan/pkg/logx"
)

// Fan-out bounds for recurring events: whichever is hit first wins.
const (
	maxFanOutOccurrences = 30
	fanOutWindowMonths   = 3
)

// Registry is the slice of the notification service this package needs.
type Registry interface {
	Register(r notify.Registration) error
	Cancel(id string) bool
	ListScheduled() []notify.Registration
}

type Config struct {
	Enabled       bool
	DefaultOffset time.Duration
}

type Service struct {
	mu sync.Mutex

	log logx.Logger
	cfg Config
	reg Registry
	bus eventbus.Bus

	now func() time.Time
}

func New(cfg Config, reg Registry, log logx.Logger, bus eventbus.Bus) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	s := &Service{log: log, reg: reg, bus: bus, now: time.Now}
	s.applyLocked(cfg)
	return s
}

func (s *Service) Enabled() bool {
	s.mu.Lock()
	en := s.cfg.Enabled
	s.mu.Unlock()
	return en
}

func (s *Service) Apply(cfg Config) {
	s.mu.Lock()
	s.applyLocked(cfg)
	s.mu.Unlock()
}

func (s *Service) applyLocked(cfg Config) {
	if cfg.DefaultOffset <= 0 {
		cfg.DefaultOffset = 15 * time.Minute
	}
	s.cfg = cfg
}

// upsert cancels any registration with the same id, then registers.
// All scheduling goes through here so a stale registration can never
// survive a replacement.
func (s *Service) upsert(r notify.Registration) {
	s.reg.Cancel(r.ID)
	if err := s.reg.Register(r); err != nil {
		s.log.Warn("reminder registration failed",
			logx.String("id", r.ID),
			logx.Err(err))
		return
	}
	if s.bus != nil {
		s.bus.Publish(eventbus.Event{Type: "reminder.scheduled", Time: s.now(), Data: r})
	}
}

// ScheduleEventReminder registers a reminder offsetMinutes before the
// event starts. Events with notifications disabled are skipped, as are
// fire times already in the past. Recurring events additionally fan out
// one registration per upcoming occurrence.
func (s *Service) ScheduleEventReminder(e model.Event, offsetMinutes int) {
	if !s.Enabled() || !e.NotificationEnabled {
		return
	}
	offset := time.Duration(offsetMinutes) * time.Minute
	if offsetMinutes <= 0 {
		s.mu.Lock()
		offset = s.cfg.DefaultOffset
		s.mu.Unlock()
	}
	now := s.now()

	fireAt := e.Start.Add(-offset)
	if fireAt.After(now) {
		s.upsert(notify.Registration{
			ID:      "timetable_" + e.ID,
			FireAt:  fireAt,
			Payload: eventPayload(e.ID, e.Title, e.Category, e.Start),
		})
	} else {
		s.log.Debug("event reminder in the past, skipped",
			logx.String("event", e.ID),
			logx.Time("fire_at", fireAt))
	}

	if e.IsRecurring && e.Recurrence != nil {
		s.fanOutRecurring(e, offset, now)
	}
}

// fanOutRecurring registers reminders for upcoming occurrences of a
// recurring event, bounded by count and by a rolling window.
func (s *Service) fanOutRecurring(e model.Event, offset time.Duration, now time.Time) {
	horizon := interval.AddMonths(now, fanOutWindowMonths)
	occs := recur.Expand(e, now, horizon)

	n := 0
	for _, occ := range occs {
		if n >= maxFanOutOccurrences {
			break
		}
		if occ.Start.Equal(e.Start) {
			// base occurrence already covered by the timetable reminder
			continue
		}
		fireAt := occ.Start.Add(-offset)
		if !fireAt.After(now) {
			continue
		}
		s.upsert(notify.Registration{
			ID:      occ.ID,
			FireAt:  fireAt,
			Payload: eventPayload(e.ID, occ.Title, occ.Category, occ.Start),
		})
		n++
	}
}

// eventPayload carries enough context for the sink to render the
// reminder without a storage lookup.
func eventPayload(eventID, title string, cat model.Category, start time.Time) notify.Payload {
	return notify.Payload{
		Kind:    "event",
		ItemID:  eventID,
		Title:   title,
		Message: fmt.Sprintf("Starts at %s", start.Format("15:04")),
		Data: map[string]string{
			"category": string(cat),
			"start":    start.Format(time.RFC3339),
		},
	}
}

// Task reminder kinds.
const (
	TaskDueToday = "due_today"
	TaskOverdue  = "overdue"
)

// ScheduleTaskReminder registers a due-date reminder for a task.
// Completed tasks and past fire times are skipped.
func (s *Service) ScheduleTaskReminder(t model.Task, kind string) {
	if !s.Enabled() || t.Completed {
		return
	}

	var (
		fireAt  time.Time
		message string
	)
	switch kind {
	case TaskDueToday:
		fireAt = interval.AtTime(t.Due, 9, 0)
		message = "Due today"
	case TaskOverdue:
		fireAt = t.Due.Add(time.Hour)
		message = "Overdue"
	default:
		s.log.Warn("unknown task reminder kind", logx.String("kind", kind))
		return
	}
	if !fireAt.After(s.now()) {
		return
	}

	s.upsert(notify.Registration{
		ID:     fmt.Sprintf("task_%s_%s", t.ID, kind),
		FireAt: fireAt,
		Payload: notify.Payload{
			Kind:    "task",
			ItemID:  t.ID,
			Title:   t.Title,
			Message: message,
		},
	})
}

// ScheduleHighPriorityBatch registers a single morning summary of
// incomplete high-priority tasks, fired at 08:00 the next day. Calling
// it again replaces the previous batch.
func (s *Service) ScheduleHighPriorityBatch(tasks []model.Task) {
	if !s.Enabled() {
		return
	}

	var titles []string
	for _, t := range tasks {
		if t.Completed || t.Priority != model.PriorityHigh {
			continue
		}
		titles = append(titles, t.Title)
	}
	if len(titles) == 0 {
		s.reg.Cancel("high_priority_morning")
		return
	}

	shown := titles
	if len(shown) > 3 {
		shown = shown[:3]
	}
	message := strings.Join(shown, ", ")
	if rest := len(titles) - len(shown); rest > 0 {
		message = fmt.Sprintf("%s +%d more", message, rest)
	}

	now := s.now()
	fireAt := interval.AtTime(interval.AddDays(now, 1), 8, 0)

	s.upsert(notify.Registration{
		ID:     "high_priority_morning",
		FireAt: fireAt,
		Payload: notify.Payload{
			Kind:    "summary",
			Title:   fmt.Sprintf("%d high priority tasks", len(titles)),
			Message: message,
		},
	})
}

// ScheduleMedicationReminder registers a daily reminder at the given
// HH:MM, anchored to the next matching wall-clock time.
func (s *Service) ScheduleMedicationReminder(name, hhmm, medID string) error {
	if !s.Enabled() {
		return nil
	}
	h, m, err := interval.ParseHHMM(hhmm)
	if err != nil {
		return err
	}

	fireAt := interval.NextClockTime(s.now(), h, m)
	s.upsert(notify.Registration{
		ID:     fmt.Sprintf("medication_%s_%s", medID, hhmm),
		FireAt: fireAt,
		Repeat: notify.RepeatDaily,
		Payload: notify.Payload{
			Kind:    "medication",
			ItemID:  medID,
			Title:   name,
			Message: fmt.Sprintf("Take %s (%s)", name, hhmm),
		},
	})
	return nil
}

// ScheduleMedication registers one daily reminder per intake time.
// Stale registrations from removed intake times are cancelled first.
func (s *Service) ScheduleMedication(med model.Medication) error {
	s.CancelForItem(med.ID, "medication")
	for _, hhmm := range med.Times {
		if err := s.ScheduleMedicationReminder(med.Name, hhmm, med.ID); err != nil {
			return err
		}
	}
	return nil
}

// CancelForItem cancels every registration whose payload points at the
// given item. It returns the number of cancelled registrations.
func (s *Service) CancelForItem(itemID, kind string) int {
	n := 0
	for _, r := range s.reg.ListScheduled() {
		if r.Payload.ItemID != itemID {
			continue
		}
		if kind != "" && r.Payload.Kind != kind {
			continue
		}
		if s.reg.Cancel(r.ID) {
			n++
		}
	}
	if n > 0 {
		s.log.Debug("reminders cancelled",
			logx.String("item", itemID),
			logx.Int("count", n))
	}
	return n
}

// RescheduleAllEvents cancels and re-registers reminders for every
// event, e.g. after a bulk import or a reminder-offset config change.
func (s *Service) RescheduleAllEvents(events []model.Event, offsetMinutes int) {
	for _, e := range events {
		s.CancelForItem(e.ID, "event")
		s.ScheduleEventReminder(e, offsetMinutes)
	}
}

// RescheduleAllTasks rebuilds the due-date reminders for every task.
func (s *Service) RescheduleAllTasks(tasks []model.Task) {
	for _, t := range tasks {
		s.CancelForItem(t.ID, "task")
		s.ScheduleTaskReminder(t, TaskDueToday)
		s.ScheduleTaskReminder(t, TaskOverdue)
	}
	s.ScheduleHighPriorityBatch(tasks)
}
