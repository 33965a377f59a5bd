package config

// Config is the on-disk configuration. JSON and YAML are both
// accepted; YAML is coerced to JSON before strict decoding, so unknown
// keys are rejected in either format.
type Config struct {
	Logging  LoggingConfig   `json:"logging"`
	Storage  *StorageConfig  `json:"storage,omitempty"`
	Notify   NotifyConfig    `json:"notify"`
	Reminder ReminderConfig  `json:"reminder"`
	Planner  PlannerConfig   `json:"planner"`
	Sync     SyncConfig      `json:"sync"`
	Telegram *TelegramConfig `json:"telegram,omitempty"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// StorageConfig controls the persistence layer.
//
// Example:
//
//	"storage": { "driver": "file", "path": "./dayplan_store" }
type StorageConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string (sqlite)
}

type NotifyConfig struct {
	Enabled    bool `json:"enabled"`
	RatePerSec int  `json:"rate_per_sec,omitempty"`
}

type ReminderConfig struct {
	Enabled bool `json:"enabled"`
	// DefaultOffset is a Go duration string (e.g. "15m").
	DefaultOffset string `json:"default_offset,omitempty"`
}

// PlannerConfig shapes free-slot search.
type PlannerConfig struct {
	WorkingHoursStart string `json:"working_hours_start,omitempty"` // HH:MM, default "09:00"
	WorkingHoursEnd   string `json:"working_hours_end,omitempty"`   // HH:MM, default "17:00"
	SlotMinutes       int    `json:"slot_minutes,omitempty"`        // default 30
}

type SyncConfig struct {
	Enabled bool `json:"enabled"`
	// ReplayEvery is a Go duration string (e.g. "1m").
	ReplayEvery  string `json:"replay_every,omitempty"`
	ProbeAddr    string `json:"probe_addr,omitempty"`
	ProbeTimeout string `json:"probe_timeout,omitempty"`
}

type TelegramConfig struct {
	Token  string `json:"token"`
	ChatID int64  `json:"chat_id"`
}
