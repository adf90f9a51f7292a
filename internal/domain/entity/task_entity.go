package entity

import (
	"strings"
	"time"
)

type TaskStatus string

const (
	TaskStatusPending TaskStatus = "pending"
	TaskStatusDone    TaskStatus = "done"
)

// Valid reports whether s is one of the two defined statuses.
func (s TaskStatus) Valid() bool {
	return s == TaskStatusPending || s == TaskStatusDone
}

// Toggled flips pending and done.
func (s TaskStatus) Toggled() TaskStatus {
	if s == TaskStatusDone {
		return TaskStatusPending
	}
	return TaskStatusDone
}

// ParseTaskStatus validates a raw status value.
func ParseTaskStatus(raw string) (TaskStatus, error) {
	s := TaskStatus(raw)
	if !s.Valid() {
		return "", Validationf("status must be one of: pending, done")
	}
	return s, nil
}

// Task is a single to-do record. UserID is fixed at creation.
type Task struct {
	ID          string
	Title       string
	Description *string
	Status      TaskStatus
	UserID      string
	CreatedAt   time.Time
}

// TaskPatch is a partial update. Only the three mutable columns are patchable.
type TaskPatch struct {
	Title       Optional[string]
	Description Optional[string]
	Status      Optional[TaskStatus]
}

// Empty reports whether no field was supplied.
func (p TaskPatch) Empty() bool {
	return !p.Title.Set && !p.Description.Set && !p.Status.Set
}

// Validate checks the supplied fields. Description may be cleared; title and status may not.
func (p TaskPatch) Validate() error {
	if p.Title.Set {
		if p.Title.Null || strings.TrimSpace(p.Title.Value) == "" {
			return Validationf("Title is required")
		}
	}
	if p.Status.Set {
		if p.Status.Null || !p.Status.Value.Valid() {
			return Validationf("status must be one of: pending, done")
		}
	}
	return nil
}

// Apply returns a copy of t with the supplied fields applied.
func (p TaskPatch) Apply(t Task) Task {
	if p.Title.Set {
		t.Title = p.Title.Value
	}
	if p.Description.Set {
		t.Description = p.Description.Ptr()
	}
	if p.Status.Set {
		t.Status = p.Status.Value
	}
	return t
}

// TaskFilter is an equality predicate over tasks. UserID is mandatory for every store call.
type TaskFilter struct {
	ID     string
	UserID string
}
