package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"dayplan/internal/model"
)

var ErrDisabled = errors.New("storage disabled")

// Config configures storage.
//
// Driver values:
//   - "file": dependency-free file backend (journal + snapshot)
//   - "sqlite": SQLite database file (optional build tag)
//
// If Driver is empty or "none", storage is disabled.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// Store is the persistence API consumed by the services.
//
// Get/Set/Remove implement the opaque key-value contract; AppendOp/ListOps/
// RemoveOp implement the durable offline operation queue. ListOps returns
// operations in enqueue (FIFO) order.
type Store interface {
	Get(ctx context.Context, key string) (value json.RawMessage, ok bool, err error)
	Set(ctx context.Context, key string, value json.RawMessage) error
	Remove(ctx context.Context, key string) error

	AppendOp(ctx context.Context, op model.QueuedOperation) error
	ListOps(ctx context.Context) ([]model.QueuedOperation, error)
	RemoveOp(ctx context.Context, id string) error

	Close() error
}
