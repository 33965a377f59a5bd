package model

import "time"

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// Task is a to-do item with a due instant.
type Task struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Priority     Priority   `json:"priority"`
	Due          time.Time  `json:"due"`
	Completed    bool       `json:"completed"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	Category     string     `json:"category,omitempty"`
	EstimatedMin int        `json:"estimated_min,omitempty"`
}

// Medication is a named daily medication with one or more HH:MM intake times.
type Medication struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Times []string `json:"times"`
}
