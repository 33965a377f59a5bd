package sync

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"dayplan/internal/model"
	"dayplan/internal/storage"
	"dayplan/pkg/logx"
)

// memStore is an in-memory storage.Store with per-key failure injection.
type memStore struct {
	kv      map[string]json.RawMessage
	ops     []model.QueuedOperation
	failSet map[string]error
}

func newMemStore() *memStore {
	return &memStore{kv: map[string]json.RawMessage{}, failSet: map[string]error{}}
}

func (m *memStore) Get(ctx context.Context, key string) (json.RawMessage, bool, error) {
	_ = ctx
	v, ok := m.kv[key]
	return v, ok, nil
}

func (m *memStore) Set(ctx context.Context, key string, value json.RawMessage) error {
	_ = ctx
	if err, ok := m.failSet[key]; ok {
		return err
	}
	m.kv[key] = value
	return nil
}

func (m *memStore) Remove(ctx context.Context, key string) error {
	_ = ctx
	delete(m.kv, key)
	return nil
}

func (m *memStore) AppendOp(ctx context.Context, op model.QueuedOperation) error {
	_ = ctx
	m.ops = append(m.ops, op)
	return nil
}

func (m *memStore) ListOps(ctx context.Context) ([]model.QueuedOperation, error) {
	_ = ctx
	return append([]model.QueuedOperation(nil), m.ops...), nil
}

func (m *memStore) RemoveOp(ctx context.Context, id string) error {
	_ = ctx
	n := 0
	for _, op := range m.ops {
		if op.ID == id {
			continue
		}
		m.ops[n] = op
		n++
	}
	m.ops = m.ops[:n]
	return nil
}

func (m *memStore) Close() error { return nil }

var _ storage.Store = (*memStore)(nil)

func newTestService(store storage.Store, online bool) *Service {
	return New(Config{Enabled: true}, store, Online(online), logx.Nop(), nil)
}

func TestSaveOrMutateOnlineDoesNotQueue(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newMemStore()
	s := newTestService(store, true)

	op := model.QueuedOperation{
		ID:         "op1",
		Kind:       model.OpCreateEvent,
		StorageKey: "events",
		ItemID:     "ev1",
		Data:       json.RawMessage(`{"id":"ev1"}`),
	}
	if err := s.SaveOrMutate(ctx, op); err != nil {
		t.Fatalf("save: %v", err)
	}

	if got := string(store.kv["events/ev1"]); got != `{"id":"ev1"}` {
		t.Fatalf("storage = %q, want write applied", got)
	}
	if len(store.ops) != 0 {
		t.Fatalf("online mutation queued anyway: %d ops", len(store.ops))
	}
}

func TestSaveOrMutateOfflineQueues(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newMemStore()
	s := newTestService(store, false)

	op := model.QueuedOperation{
		ID:         "op1",
		Kind:       model.OpUpdateTask,
		StorageKey: "tasks",
		ItemID:     "t1",
		Data:       json.RawMessage(`{"id":"t1","completed":true}`),
	}
	if err := s.SaveOrMutate(ctx, op); err != nil {
		t.Fatalf("save: %v", err)
	}

	// Local write happens even offline.
	if _, ok := store.kv["tasks/t1"]; !ok {
		t.Fatalf("offline mutation not written locally")
	}
	if len(store.ops) != 1 || store.ops[0].ID != "op1" {
		t.Fatalf("queue = %+v, want op1", store.ops)
	}
}

func TestSaveOrMutateValidation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestService(newMemStore(), true)

	if err := s.SaveOrMutate(ctx, model.QueuedOperation{Kind: "RENAME_EVENT", StorageKey: "events"}); err == nil {
		t.Fatalf("unknown kind accepted")
	}
	if err := s.SaveOrMutate(ctx, model.QueuedOperation{Kind: model.OpCreateEvent}); err == nil {
		t.Fatalf("missing storage key accepted")
	}
}

func TestSaveOrMutatePersistenceErrorPropagates(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newMemStore()
	store.failSet["events/ev1"] = errors.New("disk full")
	s := newTestService(store, true)

	err := s.SaveOrMutate(ctx, model.QueuedOperation{
		ID: "op1", Kind: model.OpCreateEvent, StorageKey: "events", ItemID: "ev1",
	})
	if err == nil || err.Error() != "disk full" {
		t.Fatalf("err = %v, want storage error surfaced", err)
	}
}

func TestReplayDrainsFIFO(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newMemStore()
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	store.ops = []model.QueuedOperation{
		{ID: "op1", Kind: model.OpCreateEvent, StorageKey: "events", ItemID: "ev1", Data: json.RawMessage(`{"v":1}`), QueuedAt: base},
		{ID: "op2", Kind: model.OpUpdateEvent, StorageKey: "events", ItemID: "ev1", Data: json.RawMessage(`{"v":2}`), QueuedAt: base.Add(time.Minute)},
		{ID: "op3", Kind: model.OpDeleteTask, StorageKey: "tasks", ItemID: "t1", QueuedAt: base.Add(2 * time.Minute)},
	}
	store.kv["tasks/t1"] = json.RawMessage(`{}`)

	s := newTestService(store, true)
	if err := s.Replay(ctx); err != nil {
		t.Fatalf("replay: %v", err)
	}

	// Later op wins because ops apply in queue order.
	if got := string(store.kv["events/ev1"]); got != `{"v":2}` {
		t.Fatalf("events/ev1 = %q, want FIFO final state", got)
	}
	if _, ok := store.kv["tasks/t1"]; ok {
		t.Fatalf("delete op not applied")
	}
	if len(store.ops) != 0 {
		t.Fatalf("%d ops still queued after replay", len(store.ops))
	}
}

func TestReplayIsIdempotent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newMemStore()
	op := model.QueuedOperation{
		ID: "op1", Kind: model.OpUpdateEvent, StorageKey: "events", ItemID: "ev1",
		Data: json.RawMessage(`{"title":"final"}`), QueuedAt: time.Now(),
	}
	store.ops = []model.QueuedOperation{op}

	s := newTestService(store, true)
	if err := s.Replay(ctx); err != nil {
		t.Fatalf("first replay: %v", err)
	}
	want := string(store.kv["events/ev1"])

	// Re-queue the same op and replay again: absolute writes converge.
	store.ops = []model.QueuedOperation{op}
	if err := s.Replay(ctx); err != nil {
		t.Fatalf("second replay: %v", err)
	}
	if got := string(store.kv["events/ev1"]); got != want {
		t.Fatalf("second replay diverged: %q vs %q", got, want)
	}
}

func TestReplayKeepsFailedOpsQueued(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newMemStore()
	base := time.Now()
	store.ops = []model.QueuedOperation{
		{ID: "bad", Kind: model.OpCreateEvent, StorageKey: "events", ItemID: "broken", Data: json.RawMessage(`{}`), QueuedAt: base},
		{ID: "good", Kind: model.OpCreateEvent, StorageKey: "events", ItemID: "ok", Data: json.RawMessage(`{}`), QueuedAt: base.Add(time.Second)},
	}
	store.failSet["events/broken"] = errors.New("conflict")

	s := newTestService(store, true)
	if err := s.Replay(ctx); err != nil {
		t.Fatalf("replay: %v", err)
	}

	// The failed op stays for the next pass; the one behind it still ran.
	if len(store.ops) != 1 || store.ops[0].ID != "bad" {
		t.Fatalf("queue after replay = %+v, want only the failed op", store.ops)
	}
	if _, ok := store.kv["events/ok"]; !ok {
		t.Fatalf("op behind the failed one was not applied")
	}

	n, err := s.Pending(ctx)
	if err != nil || n != 1 {
		t.Fatalf("pending = %d, %v", n, err)
	}
}
