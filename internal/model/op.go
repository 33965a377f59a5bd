package model

import (
	"encoding/json"
	"time"
)

// OpKind enumerates the mutations that can be queued for replay.
type OpKind string

const (
	OpCreateEvent      OpKind = "CREATE_EVENT"
	OpUpdateEvent      OpKind = "UPDATE_EVENT"
	OpDeleteEvent      OpKind = "DELETE_EVENT"
	OpCreateTask       OpKind = "CREATE_TASK"
	OpUpdateTask       OpKind = "UPDATE_TASK"
	OpDeleteTask       OpKind = "DELETE_TASK"
	OpUpdateMedication OpKind = "UPDATE_MEDICATION"
)

func (k OpKind) Valid() bool {
	switch k {
	case OpCreateEvent, OpUpdateEvent, OpDeleteEvent,
		OpCreateTask, OpUpdateTask, OpDeleteTask, OpUpdateMedication:
		return true
	}
	return false
}

// IsDelete reports whether the operation removes data instead of writing it.
func (k OpKind) IsDelete() bool {
	return k == OpDeleteEvent || k == OpDeleteTask
}

// QueuedOperation is one durably logged mutation, replayed later with
// idempotent set-not-diff semantics.
type QueuedOperation struct {
	ID         string          `json:"id"`
	Kind       OpKind          `json:"kind"`
	StorageKey string          `json:"storage_key"`
	ItemID     string          `json:"item_id,omitempty"`
	Data       json.RawMessage `json:"data,omitempty"`
	QueuedAt   time.Time       `json:"queued_at"`
}

// TargetKey is the storage key the operation applies to: the per-item key
// when an item id is present, else the raw storage key.
func (o QueuedOperation) TargetKey() string {
	if o.ItemID == "" {
		return o.StorageKey
	}
	return o.StorageKey + "/" + o.ItemID
}
