package models

import "time"

// TaskStatus is the lifecycle state of a scrape task.
type TaskStatus string

const (
	StatusPending   TaskStatus = "pending"
	StatusRunning   TaskStatus = "running"
	StatusCompleted TaskStatus = "completed"
	StatusFailed    TaskStatus = "failed"
)

// Terminal reports whether no further transitions may occur from s.
func (s TaskStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Valid reports whether s is a known status value.
func (s TaskStatus) Valid() bool {
	switch s {
	case StatusPending, StatusRunning, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// ValidTransition reports whether a task may move from one status to another.
// Transitions are one-directional: pending → running → completed|failed.
// pending → failed is allowed so a task whose worker dies before claiming it
// can still be closed out by an operator.
func ValidTransition(from, to TaskStatus) bool {
	switch from {
	case StatusPending:
		return to == StatusRunning || to == StatusFailed
	case StatusRunning:
		return to == StatusCompleted || to == StatusFailed
	default:
		return false
	}
}

// Task is one unit of scrape work tied to a URL, category, and client.
// It is created by the dispatcher on submission and mutated only by the
// single worker executing it.
type Task struct {
	ID         string     `json:"task_id"`
	ClientName string     `json:"client_name"`
	Category   string     `json:"category"`
	URL        string     `json:"url"`
	Status     TaskStatus `json:"status"`
	CreatedAt  time.Time  `json:"created_at"`

	// Error carries the failure diagnostic. Present iff Status is failed.
	Error string `json:"error,omitempty"`
}
