package notify

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/time/rate"

	"dayplan/internal/eventbus"
	"dayplan/pkg/logx"
)

var ErrDisabled = errors.New("notify disabled")

// Service keeps the set of scheduled reminders and fires them.
//
// One-shot registrations use a time.Timer each; daily ones are cron
// entries. Registering an ID again replaces the old registration, so
// callers can cancel-then-schedule without checking first.
//
// Delivery failures are logged and swallowed: a reminder that cannot be
// delivered never fails the operation that scheduled it.
type Service struct {
	mu sync.Mutex

	log   logx.Logger
	cfg   Config
	sinks []Sink
	bus   eventbus.Bus

	limiter *rate.Limiter

	c       *cron.Cron
	cronIDs map[string]cron.EntryID

	regs   map[string]Registration
	timers map[string]*time.Timer
	// ver lets stale AfterFunc callbacks detect they were replaced.
	ver map[string]uint64

	started bool

	now func() time.Time
}

func New(cfg Config, log logx.Logger, bus eventbus.Bus, sinks ...Sink) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	s := &Service{
		log:     log,
		bus:     bus,
		sinks:   sinks,
		c:       cron.New(),
		cronIDs: map[string]cron.EntryID{},
		regs:    map[string]Registration{},
		timers:  map[string]*time.Timer{},
		ver:     map[string]uint64{},
		now:     time.Now,
	}
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
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = 3
	}
	s.cfg = cfg
	s.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.RatePerSec)
}

func (s *Service) Start(ctx context.Context) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true
	s.c.Start()
	s.log.Info("notify started",
		logx.Int("scheduled", len(s.regs)),
		logx.Int("sinks", len(s.sinks)))
}

func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	for id, t := range s.timers {
		_ = t.Stop()
		delete(s.timers, id)
	}
	c := s.c
	s.mu.Unlock()

	select {
	case <-c.Stop().Done():
	case <-ctx.Done():
	}
	s.log.Info("notify stopped")
}

// Register schedules r, replacing any registration with the same ID.
func (s *Service) Register(r Registration) error {
	if strings.TrimSpace(r.ID) == "" {
		return errors.New("registration id required")
	}
	if r.FireAt.IsZero() && r.Repeat == RepeatNone {
		return errors.New("fire time required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.cfg.Enabled {
		return ErrDisabled
	}

	s.cancelLocked(r.ID)
	s.regs[r.ID] = r

	switch r.Repeat {
	case RepeatDaily:
		spec := fmt.Sprintf("%d %d * * *", r.FireAt.Minute(), r.FireAt.Hour())
		id := r.ID
		entry, err := s.c.AddFunc(spec, func() { s.fire(id, false) })
		if err != nil {
			delete(s.regs, r.ID)
			return err
		}
		s.cronIDs[r.ID] = entry
	default:
		delay := r.FireAt.Sub(s.now())
		if delay < 0 {
			delay = 0
		}
		ver := s.ver[r.ID] + 1
		s.ver[r.ID] = ver
		id := r.ID
		s.timers[r.ID] = time.AfterFunc(delay, func() {
			s.mu.Lock()
			if s.ver[id] != ver {
				s.mu.Unlock()
				return
			}
			delete(s.timers, id)
			delete(s.ver, id)
			s.mu.Unlock()
			s.fire(id, true)
		})
	}

	s.log.Debug("reminder registered",
		logx.String("id", r.ID),
		logx.Time("fire_at", r.FireAt),
		logx.String("repeat", string(r.Repeat)))
	return nil
}

// Cancel removes a registration. It reports whether one existed.
func (s *Service) Cancel(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelLocked(id)
}

func (s *Service) cancelLocked(id string) bool {
	_, existed := s.regs[id]
	delete(s.regs, id)
	if t, ok := s.timers[id]; ok {
		_ = t.Stop()
		delete(s.timers, id)
	}
	delete(s.ver, id)
	if entry, ok := s.cronIDs[id]; ok {
		s.c.Remove(entry)
		delete(s.cronIDs, id)
	}
	return existed
}

// ListScheduled returns all live registrations sorted by fire time.
func (s *Service) ListScheduled() []Registration {
	s.mu.Lock()
	out := make([]Registration, 0, len(s.regs))
	for _, r := range s.regs {
		out = append(out, r)
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].FireAt.Equal(out[j].FireAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].FireAt.Before(out[j].FireAt)
	})
	return out
}

// fire delivers the registration's payload to every sink.
// oneShot registrations are forgotten afterwards; daily ones stay.
func (s *Service) fire(id string, oneShot bool) {
	s.mu.Lock()
	r, ok := s.regs[id]
	if !ok {
		s.mu.Unlock()
		return
	}
	if oneShot {
		delete(s.regs, id)
	}
	sinks := append([]Sink(nil), s.sinks...)
	lim := s.limiter
	bus := s.bus
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if lim != nil {
		if err := lim.Wait(ctx); err != nil {
			return
		}
	}

	for _, sink := range sinks {
		if err := sink.Deliver(ctx, r.Payload); err != nil {
			s.log.Warn("reminder delivery failed",
				logx.String("id", id),
				logx.String("kind", r.Payload.Kind),
				logx.Err(err))
		}
	}

	if bus != nil {
		bus.Publish(eventbus.Event{
			Type: "reminder.fired",
			Time: s.now(),
			Data: r,
		})
	}
	s.log.Info("reminder fired",
		logx.String("id", id),
		logx.String("kind", r.Payload.Kind))
}
