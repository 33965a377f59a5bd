package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"dayplan/internal/model"
	"dayplan/pkg/logx"
)

// fileStore is a dependency-free persistence backend.
//
// Files:
//   - <prefix>.kv.snapshot.json (periodic snapshot of the key-value map)
//   - <prefix>.kv.journal.jsonl (append-only journal of sets/removes)
//   - <prefix>.ops.jsonl        (offline operation queue, rewritten on removal)
//
// The journal is periodically compacted into the snapshot.
type fileStore struct {
	log logx.Logger

	mu sync.Mutex

	kvSnapshotPath string
	kvJournalFile  *os.File
	kv             map[string]json.RawMessage
	kvWrites       int

	opsPath string
	ops     []model.QueuedOperation
}

type kvRecord struct {
	Key    string          `json:"key"`
	Value  json.RawMessage `json:"value,omitempty"`
	Delete bool            `json:"delete,omitempty"`
}

const compactEvery = 1000

func openFile(cfg Config, log logx.Logger) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("storage.path is required for file driver")
	}
	if log.IsZero() {
		log = logx.Nop()
	}

	dir := filepath.Dir(path)
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	prefix := filepath.Join(dir, base)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	snapPath := prefix + ".kv.snapshot.json"
	journalPath := prefix + ".kv.journal.jsonl"
	opsPath := prefix + ".ops.jsonl"

	kv := map[string]json.RawMessage{}
	_ = loadKVSnapshot(snapPath, kv)
	_ = replayKVJournal(journalPath, kv)

	jf, err := os.OpenFile(journalPath, os.O_CREATE|os.O_APPEND|os.O_RDWR, 0o600)
	if err != nil {
		return nil, err
	}

	ops, err := loadOps(opsPath)
	if err != nil {
		_ = jf.Close()
		return nil, err
	}

	return &fileStore{
		log:            log,
		kvSnapshotPath: snapPath,
		kvJournalFile:  jf,
		kv:             kv,
		opsPath:        opsPath,
		ops:            ops,
	}, nil
}

func (s *fileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.kvJournalFile != nil {
		err := s.kvJournalFile.Close()
		s.kvJournalFile = nil
		return err
	}
	return nil
}

func (s *fileStore) Get(ctx context.Context, key string) (json.RawMessage, bool, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.kv[key]
	if !ok {
		return nil, false, nil
	}
	return append(json.RawMessage(nil), v...), true, nil
}

func (s *fileStore) Set(ctx context.Context, key string, value json.RawMessage) error {
	_ = ctx
	if strings.TrimSpace(key) == "" {
		return errors.New("empty storage key")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.kvJournalFile == nil {
		return errors.New("kv journal closed")
	}
	s.kv[key] = append(json.RawMessage(nil), value...)
	return s.appendJournalLocked(kvRecord{Key: key, Value: value})
}

func (s *fileStore) Remove(ctx context.Context, key string) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.kvJournalFile == nil {
		return errors.New("kv journal closed")
	}
	delete(s.kv, key)
	return s.appendJournalLocked(kvRecord{Key: key, Delete: true})
}

func (s *fileStore) appendJournalLocked(r kvRecord) error {
	if err := json.NewEncoder(s.kvJournalFile).Encode(r); err != nil {
		return err
	}
	s.kvWrites++
	if s.kvWrites%compactEvery == 0 {
		// Best-effort compact.
		if err := s.compactLocked(); err != nil {
			s.log.Debug("kv compact failed", logx.Err(err))
		}
	}
	return nil
}

func (s *fileStore) AppendOp(ctx context.Context, op model.QueuedOperation) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ops = append(s.ops, op)
	f, err := os.OpenFile(s.opsPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(op)
}

func (s *fileStore) ListOps(ctx context.Context) ([]model.QueuedOperation, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]model.QueuedOperation(nil), s.ops...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].QueuedAt.Before(out[j].QueuedAt) })
	return out, nil
}

func (s *fileStore) RemoveOp(ctx context.Context, id string) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, op := range s.ops {
		if op.ID == id {
			continue
		}
		s.ops[n] = op
		n++
	}
	if n == len(s.ops) {
		return nil
	}
	s.ops = s.ops[:n]
	return s.rewriteOpsLocked()
}

func (s *fileStore) rewriteOpsLocked() error {
	tmp := s.opsPath + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	for _, op := range s.ops {
		if err := enc.Encode(op); err != nil {
			_ = f.Close()
			return err
		}
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, s.opsPath)
}

func (s *fileStore) compactLocked() error {
	tmp := s.kvSnapshotPath + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	if err := json.NewEncoder(f).Encode(s.kv); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp, s.kvSnapshotPath); err != nil {
		return err
	}
	// Truncate journal.
	if err := s.kvJournalFile.Truncate(0); err != nil {
		return err
	}
	_, err = s.kvJournalFile.Seek(0, 2)
	return err
}

func loadKVSnapshot(path string, out map[string]json.RawMessage) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	var m map[string]json.RawMessage
	if err := json.NewDecoder(f).Decode(&m); err != nil {
		return err
	}
	for k, v := range m {
		out[k] = v
	}
	return nil
}

func replayKVJournal(path string, out map[string]json.RawMessage) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var r kvRecord
		if err := json.Unmarshal(sc.Bytes(), &r); err != nil {
			continue
		}
		if r.Key == "" {
			continue
		}
		if r.Delete {
			delete(out, r.Key)
			continue
		}
		out[r.Key] = r.Value
	}
	return sc.Err()
}

func loadOps(path string) ([]model.QueuedOperation, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()
	var ops []model.QueuedOperation
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var op model.QueuedOperation
		if err := json.Unmarshal(sc.Bytes(), &op); err != nil {
			continue
		}
		if op.ID == "" {
			continue
		}
		ops = append(ops, op)
	}
	return ops, sc.Err()
}
