// Package memory holds in-process adapters for the record store and user table.
// They back STORE_DRIVER=memory for local runs and serve as fakes in tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oksasatya/go-task-manager/internal/domain/entity"
	"github.com/oksasatya/go-task-manager/internal/domain/repository"
)

type TaskStore struct {
	mu    sync.RWMutex
	rows  map[string]entity.Task
	seq   map[string]int64
	next  int64
	now   func() time.Time
	calls int
}

func NewTaskStore() *TaskStore {
	return &TaskStore{rows: make(map[string]entity.Task), seq: make(map[string]int64), now: time.Now}
}

// Calls returns how many store operations have been made.
func (s *TaskStore) Calls() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.calls
}

func (s *TaskStore) Select(ctx context.Context, filter entity.TaskFilter) ([]entity.Task, error) {
	if filter.UserID == "" {
		return nil, repository.ErrUnscopedQuery
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	out := s.matchLocked(filter)

	// Insertion order breaks created_at ties.
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return s.seq[out[i].ID] > s.seq[out[j].ID]
	})
	return out, nil
}

func (s *TaskStore) Insert(ctx context.Context, t entity.Task) (*entity.Task, error) {
	if t.UserID == "" {
		return nil, repository.ErrUnscopedQuery
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++

	t.ID = uuid.NewString()
	t.CreatedAt = s.now().UTC()
	t.Description = cloneString(t.Description)
	s.rows[t.ID] = t
	s.next++
	s.seq[t.ID] = s.next
	out := t
	out.Description = cloneString(t.Description)
	return &out, nil
}

func (s *TaskStore) Update(ctx context.Context, filter entity.TaskFilter, patch entity.TaskPatch) ([]entity.Task, error) {
	if filter.UserID == "" {
		return nil, repository.ErrUnscopedQuery
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++

	matched := s.matchLocked(filter)
	for i, t := range matched {
		updated := patch.Apply(t)
		s.rows[t.ID] = updated
		updated.Description = cloneString(updated.Description)
		matched[i] = updated
	}
	return matched, nil
}

func (s *TaskStore) Delete(ctx context.Context, filter entity.TaskFilter) (int64, error) {
	if filter.UserID == "" {
		return 0, repository.ErrUnscopedQuery
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++

	var n int64
	for _, t := range s.matchLocked(filter) {
		delete(s.rows, t.ID)
		delete(s.seq, t.ID)
		n++
	}
	return n, nil
}

func (s *TaskStore) matchLocked(filter entity.TaskFilter) []entity.Task {
	out := []entity.Task{}
	for _, t := range s.rows {
		if t.UserID != filter.UserID {
			continue
		}
		if filter.ID != "" && t.ID != filter.ID {
			continue
		}
		t.Description = cloneString(t.Description)
		out = append(out, t)
	}
	return out
}

func cloneString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

var _ repository.TaskStore = (*TaskStore)(nil)
