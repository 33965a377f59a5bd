package notify

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"dayplan/pkg/logx"
)

type recordingSink struct {
	mu   sync.Mutex
	got  []Payload
	fail error
}

func (r *recordingSink) Deliver(ctx context.Context, p Payload) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, p)
	return r.fail
}

func newTestService(sinks ...Sink) *Service {
	return New(Config{Enabled: true}, logx.Nop(), nil, sinks...)
}

func TestRegisterUpsertsByID(t *testing.T) {
	t.Parallel()
	s := newTestService()
	far := time.Now().Add(24 * time.Hour)

	if err := s.Register(Registration{ID: "r1", FireAt: far, Payload: Payload{Title: "first"}}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := s.Register(Registration{ID: "r1", FireAt: far.Add(time.Hour), Payload: Payload{Title: "second"}}); err != nil {
		t.Fatalf("re-register: %v", err)
	}

	regs := s.ListScheduled()
	if len(regs) != 1 {
		t.Fatalf("got %d registrations, want 1", len(regs))
	}
	if regs[0].Payload.Title != "second" {
		t.Fatalf("payload = %q, want replacement", regs[0].Payload.Title)
	}
	if !regs[0].FireAt.Equal(far.Add(time.Hour)) {
		t.Fatalf("fire at = %v, want replacement time", regs[0].FireAt)
	}
}

func TestCancel(t *testing.T) {
	t.Parallel()
	s := newTestService()
	far := time.Now().Add(24 * time.Hour)

	if err := s.Register(Registration{ID: "r1", FireAt: far}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if !s.Cancel("r1") {
		t.Fatalf("cancel existing = false")
	}
	if s.Cancel("r1") {
		t.Fatalf("cancel missing = true")
	}
	if got := s.ListScheduled(); len(got) != 0 {
		t.Fatalf("still %d registrations after cancel", len(got))
	}
}

func TestRegisterValidation(t *testing.T) {
	t.Parallel()
	s := newTestService()
	if err := s.Register(Registration{FireAt: time.Now().Add(time.Hour)}); err == nil {
		t.Fatalf("register without id should fail")
	}
	if err := s.Register(Registration{ID: "r1"}); err == nil {
		t.Fatalf("register without fire time should fail")
	}

	disabled := New(Config{Enabled: false}, logx.Nop(), nil)
	err := disabled.Register(Registration{ID: "r1", FireAt: time.Now().Add(time.Hour)})
	if err != ErrDisabled {
		t.Fatalf("disabled register = %v, want ErrDisabled", err)
	}
}

func TestOneShotFireDeliversAndForgets(t *testing.T) {
	t.Parallel()
	sink := &recordingSink{}
	s := newTestService(sink)

	err := s.Register(Registration{
		ID:      "soon",
		FireAt:  time.Now().Add(10 * time.Millisecond),
		Payload: Payload{Kind: "event", ItemID: "ev1", Title: "standup"},
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		sink.mu.Lock()
		n := len(sink.got)
		sink.mu.Unlock()
		if n > 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("reminder never fired")
		}
		time.Sleep(5 * time.Millisecond)
	}

	sink.mu.Lock()
	p := sink.got[0]
	sink.mu.Unlock()
	if p.Kind != "event" || p.ItemID != "ev1" {
		t.Fatalf("delivered payload = %+v", p)
	}
	if got := s.ListScheduled(); len(got) != 0 {
		t.Fatalf("one-shot still listed after firing: %d", len(got))
	}
}

func TestListScheduledSortedByFireTime(t *testing.T) {
	t.Parallel()
	s := newTestService()
	base := time.Now().Add(24 * time.Hour)

	for _, r := range []Registration{
		{ID: "c", FireAt: base.Add(2 * time.Hour)},
		{ID: "a", FireAt: base},
		{ID: "b", FireAt: base.Add(time.Hour)},
	} {
		if err := s.Register(r); err != nil {
			t.Fatalf("register %s: %v", r.ID, err)
		}
	}

	got := s.ListScheduled()
	for i, want := range []string{"a", "b", "c"} {
		if got[i].ID != want {
			t.Fatalf("order[%d] = %s, want %s", i, got[i].ID, want)
		}
	}
}

func TestConsoleSink(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	sink := ConsoleSink{W: &buf}
	if err := sink.Deliver(context.Background(), Payload{Title: "meds", Message: "take aspirin"}); err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if !strings.Contains(buf.String(), "take aspirin") {
		t.Fatalf("output = %q", buf.String())
	}
}
