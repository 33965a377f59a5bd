// Package sync queues mutations made offline and replays them once
// connectivity returns.
//
// Mutations always land in local storage first; the queue only records
// what must be pushed later. Replay applies operations as absolute
// writes, so replaying the same operation twice converges on the same
// state.
package sync

import (
	"context"
	"fmt"
	"sync"
	"time"

	"dayplan/internal/eventbus"
	"dayplan/internal/model"
	"dayplan/internal/storage"
	"dayplan/pkg/logx"
)

type Config struct {
	Enabled      bool
	ReplayEvery  time.Duration
	ProbeAddr    string
	ProbeTimeout time.Duration
}

type Service struct {
	mu sync.Mutex

	log   logx.Logger
	cfg   Config
	store storage.Store
	conn  Connectivity
	bus   eventbus.Bus

	stopCh chan struct{}
	wg     sync.WaitGroup

	now func() time.Time
}

func New(cfg Config, store storage.Store, conn Connectivity, log logx.Logger, bus eventbus.Bus) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	if conn == nil {
		conn = DialProbe{Addr: cfg.ProbeAddr, Timeout: cfg.ProbeTimeout}
	}
	s := &Service{log: log, store: store, conn: conn, bus: bus, now: time.Now}
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
	if cfg.ReplayEvery <= 0 {
		cfg.ReplayEvery = time.Minute
	}
	s.cfg = cfg
}

// Start launches the periodic replay loop.
func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopCh != nil || !s.cfg.Enabled {
		return
	}
	s.stopCh = make(chan struct{})
	stopCh := s.stopCh
	every := s.cfg.ReplayEvery

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-stopCh:
				return
			case <-ticker.C:
				if s.conn.IsOnline(ctx) {
					if err := s.Replay(ctx); err != nil {
						s.log.Warn("replay pass failed", logx.Err(err))
					}
				}
			}
		}
	}()
	s.log.Info("sync started", logx.Duration("replay_every", every))
}

func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	if s.stopCh == nil {
		s.mu.Unlock()
		return
	}
	close(s.stopCh)
	s.stopCh = nil
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}
	s.log.Info("sync stopped")
}

// SaveOrMutate applies a mutation to local storage and, when offline,
// queues it for replay. Persistence errors propagate to the caller;
// they are the one failure class a mutation can surface.
func (s *Service) SaveOrMutate(ctx context.Context, op model.QueuedOperation) error {
	if !op.Kind.Valid() {
		return fmt.Errorf("unknown operation kind %q", op.Kind)
	}
	if op.StorageKey == "" {
		return fmt.Errorf("operation %q has no storage key", op.ID)
	}
	if op.ID == "" {
		op.ID = fmt.Sprintf("%s_%d", op.Kind, s.now().UnixNano())
	}
	if op.QueuedAt.IsZero() {
		op.QueuedAt = s.now()
	}

	if err := s.apply(ctx, op); err != nil {
		return err
	}

	if s.conn.IsOnline(ctx) {
		return nil
	}

	if err := s.store.AppendOp(ctx, op); err != nil {
		return err
	}
	s.log.Debug("operation queued offline",
		logx.String("id", op.ID),
		logx.String("kind", string(op.Kind)),
		logx.String("key", op.TargetKey()))
	if s.bus != nil {
		s.bus.Publish(eventbus.Event{Type: "sync.queued", Time: s.now(), Data: op})
	}
	return nil
}

// apply performs the operation as an absolute write against storage.
// Deletes remove the target key; everything else sets it.
func (s *Service) apply(ctx context.Context, op model.QueuedOperation) error {
	key := op.TargetKey()
	if op.Kind.IsDelete() {
		return s.store.Remove(ctx, key)
	}
	return s.store.Set(ctx, key, op.Data)
}

// Replay drains the queue in FIFO order. Each successful operation is
// removed; a failed one stays queued for the next pass and does not
// stop the drain.
func (s *Service) Replay(ctx context.Context) error {
	ops, err := s.store.ListOps(ctx)
	if err != nil {
		return err
	}
	if len(ops) == 0 {
		return nil
	}

	replayed, failed := 0, 0
	for _, op := range ops {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.apply(ctx, op); err != nil {
			failed++
			s.log.Warn("replay failed, keeping op queued",
				logx.String("id", op.ID),
				logx.String("kind", string(op.Kind)),
				logx.Err(err))
			continue
		}
		if err := s.store.RemoveOp(ctx, op.ID); err != nil {
			return err
		}
		replayed++
	}

	s.log.Info("replay pass done",
		logx.Int("replayed", replayed),
		logx.Int("failed", failed))
	if s.bus != nil && replayed > 0 {
		s.bus.Publish(eventbus.Event{Type: "sync.replayed", Time: s.now(), Data: replayed})
	}
	return nil
}

// Pending reports how many operations are waiting for replay.
func (s *Service) Pending(ctx context.Context) (int, error) {
	ops, err := s.store.ListOps(ctx)
	if err != nil {
		return 0, err
	}
	return len(ops), nil
}
