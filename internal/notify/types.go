package notify

import (
	"context"
	"time"
)

// Payload is what a reminder carries when it fires.
type Payload struct {
	Kind    string            `json:"kind"`    // "event", "task", "medication", "summary"
	ItemID  string            `json:"item_id"` // id of the event/task/medication this reminder belongs to
	Title   string            `json:"title"`
	Message string            `json:"message"`
	Data    map[string]string `json:"data,omitempty"`
}

// Repeat controls what happens after a registration fires.
type Repeat string

const (
	RepeatNone  Repeat = ""      // fire once, then forget
	RepeatDaily Repeat = "daily" // fire every day at the same wall-clock time
)

// Registration is a scheduled reminder. The ID is the upsert key:
// registering the same ID again replaces the previous registration.
type Registration struct {
	ID      string
	FireAt  time.Time
	Repeat  Repeat
	Payload Payload
}

// Sink delivers a fired reminder to the user.
type Sink interface {
	Deliver(ctx context.Context, p Payload) error
}

type Config struct {
	Enabled    bool
	RatePerSec int
}
