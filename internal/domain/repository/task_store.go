package repository

import (
	"context"

	"github.com/oksasatya/go-task-manager/internal/domain/entity"
)

// TaskStore is the record store capability over the tasks table.
// Every call must carry filter.UserID; implementations refuse unscoped queries.
type TaskStore interface {
	// Select returns rows matching the filter, newest created_at first.
	Select(ctx context.Context, filter entity.TaskFilter) ([]entity.Task, error)
	// Insert stores t and returns the inserted row with id and created_at assigned.
	Insert(ctx context.Context, t entity.Task) (*entity.Task, error)
	// Update applies patch to matching rows and returns them.
	Update(ctx context.Context, filter entity.TaskFilter, patch entity.TaskPatch) ([]entity.Task, error)
	// Delete removes matching rows and returns the affected count.
	Delete(ctx context.Context, filter entity.TaskFilter) (int64, error)
}

// TaskIndex mirrors tasks into a search backend. Searches are owner scoped.
type TaskIndex interface {
	Index(ctx context.Context, t entity.Task) error
	Remove(ctx context.Context, id string) error
	Search(ctx context.Context, userID, query string, size int) ([]string, error)
}
