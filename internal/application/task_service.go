package application

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-task-manager/internal/domain/entity"
	repo "github.com/oksasatya/go-task-manager/internal/domain/repository"
	"github.com/oksasatya/go-task-manager/internal/metrics"
)

const defaultSearchSize = 20

// TaskService is the owner-scoped task repository. Every operation takes the
// caller's user id and never touches rows owned by anyone else.
type TaskService struct {
	Store   repo.TaskStore
	Index   repo.TaskIndex
	Logger  *logrus.Logger
	Metrics metrics.Recorder
}

// NewTaskService wires the service. index and rec may be nil.
func NewTaskService(store repo.TaskStore, index repo.TaskIndex, logger *logrus.Logger, rec metrics.Recorder) *TaskService {
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &TaskService{Store: store, Index: index, Logger: logger, Metrics: rec}
}

type CreateTaskInput struct {
	Title       string
	Description *string
	Status      entity.TaskStatus // empty means pending
}

func (s *TaskService) ListTasks(ctx context.Context, userID string) (tasks []entity.Task, err error) {
	defer s.observe("list", userID, "", &err)
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	rows, err := s.Store.Select(ctx, entity.TaskFilter{UserID: userID})
	if err != nil {
		return nil, entity.NewStoreError(err)
	}
	if rows == nil {
		rows = []entity.Task{}
	}
	return rows, nil
}

func (s *TaskService) GetTask(ctx context.Context, id, userID string) (task *entity.Task, err error) {
	defer s.observe("get", userID, id, &err)
	return s.get(ctx, id, userID)
}

func (s *TaskService) get(ctx context.Context, id, userID string) (*entity.Task, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if !validID(id) {
		return nil, entity.ErrNotFound
	}
	rows, err := s.Store.Select(ctx, entity.TaskFilter{ID: id, UserID: userID})
	if err != nil {
		return nil, entity.NewStoreError(err)
	}
	if len(rows) != 1 {
		return nil, entity.ErrNotFound
	}
	return &rows[0], nil
}

func (s *TaskService) CreateTask(ctx context.Context, in CreateTaskInput, userID string) (task *entity.Task, err error) {
	defer s.observe("create", userID, "", &err)

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, entity.Validationf("Title is required")
	}
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	status := in.Status
	if status == "" {
		status = entity.TaskStatusPending
	}
	if !status.Valid() {
		return nil, entity.Validationf("status must be one of: pending, done")
	}

	created, err := s.Store.Insert(ctx, entity.Task{
		Title:       title,
		Description: in.Description,
		Status:      status,
		UserID:      userID,
	})
	if err != nil {
		return nil, entity.NewStoreError(err)
	}
	s.index(ctx, *created)
	return created, nil
}

// UpdateTask applies only the supplied fields. An empty patch returns the current row.
func (s *TaskService) UpdateTask(ctx context.Context, id string, patch entity.TaskPatch, userID string) (task *entity.Task, err error) {
	defer s.observe("update", userID, id, &err)
	return s.update(ctx, id, patch, userID)
}

func (s *TaskService) update(ctx context.Context, id string, patch entity.TaskPatch, userID string) (*entity.Task, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if !validID(id) {
		return nil, entity.ErrNotFound
	}
	if patch.Empty() {
		return s.get(ctx, id, userID)
	}
	if patch.Title.Set {
		patch.Title.Value = strings.TrimSpace(patch.Title.Value)
	}

	rows, err := s.Store.Update(ctx, entity.TaskFilter{ID: id, UserID: userID}, patch)
	if err != nil {
		return nil, entity.NewStoreError(err)
	}
	if len(rows) != 1 {
		return nil, entity.ErrNotFound
	}
	s.index(ctx, rows[0])
	return &rows[0], nil
}

func (s *TaskService) DeleteTask(ctx context.Context, id, userID string) (err error) {
	defer s.observe("delete", userID, id, &err)
	if err := requireUser(userID); err != nil {
		return err
	}
	if !validID(id) {
		return entity.ErrNotFound
	}
	n, err := s.Store.Delete(ctx, entity.TaskFilter{ID: id, UserID: userID})
	if err != nil {
		return entity.NewStoreError(err)
	}
	if n == 0 {
		return entity.ErrNotFound
	}
	s.unindex(ctx, id)
	return nil
}

// ToggleTask flips pending and done. Concurrent toggles are last write wins.
func (s *TaskService) ToggleTask(ctx context.Context, id, userID string) (task *entity.Task, err error) {
	defer s.observe("toggle", userID, id, &err)
	cur, err := s.get(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	return s.update(ctx, id, entity.TaskPatch{Status: entity.Some(cur.Status.Toggled())}, userID)
}

// SearchTasks matches title and description. Without a search index, or when the
// index fails, it falls back to a substring match over the caller's tasks.
func (s *TaskService) SearchTasks(ctx context.Context, userID, query string, size int) (tasks []entity.Task, err error) {
	defer s.observe("search", userID, "", &err)
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, entity.Validationf("Search query is required")
	}
	if size <= 0 {
		size = defaultSearchSize
	}

	var ids []string
	if s.Index != nil {
		ids, err = s.Index.Search(ctx, userID, query, size)
		if err != nil {
			s.logger().WithError(err).WithField("user_id", userID).Warn("task search index failed, falling back to store scan")
			ids = nil
		}
	}

	rows, err := s.Store.Select(ctx, entity.TaskFilter{UserID: userID})
	if err != nil {
		return nil, entity.NewStoreError(err)
	}
	if ids != nil {
		return pickByID(rows, ids), nil
	}
	return matchSubstring(rows, query, size), nil
}

func pickByID(rows []entity.Task, ids []string) []entity.Task {
	byID := make(map[string]entity.Task, len(rows))
	for _, t := range rows {
		byID[t.ID] = t
	}
	out := make([]entity.Task, 0, len(ids))
	for _, id := range ids {
		if t, ok := byID[id]; ok {
			out = append(out, t)
		}
	}
	return out
}

func matchSubstring(rows []entity.Task, query string, size int) []entity.Task {
	q := strings.ToLower(query)
	out := make([]entity.Task, 0)
	for _, t := range rows {
		if len(out) == size {
			break
		}
		if strings.Contains(strings.ToLower(t.Title), q) ||
			(t.Description != nil && strings.Contains(strings.ToLower(*t.Description), q)) {
			out = append(out, t)
		}
	}
	return out
}

func (s *TaskService) index(ctx context.Context, t entity.Task) {
	if s.Index == nil {
		return
	}
	if err := s.Index.Index(ctx, t); err != nil {
		s.logger().WithError(err).WithField("task_id", t.ID).Warn("task index failed")
	}
}

func (s *TaskService) unindex(ctx context.Context, id string) {
	if s.Index == nil {
		return
	}
	if err := s.Index.Remove(ctx, id); err != nil {
		s.logger().WithError(err).WithField("task_id", id).Warn("task index removal failed")
	}
}

func (s *TaskService) observe(op, userID, taskID string, errp *error) {
	err := *errp
	s.Metrics.RecordTaskOp(op, outcomeOf(err))
	if err == nil || errors.Is(err, entity.ErrNotFound) || errors.Is(err, entity.ErrValidation) {
		return
	}
	fields := logrus.Fields{"op": op, "user_id": userID}
	if taskID != "" {
		fields["task_id"] = taskID
	}
	s.logger().WithError(err).WithFields(fields).Error("task operation failed")
}

func (s *TaskService) logger() *logrus.Logger {
	if s.Logger == nil {
		return nopLogger
	}
	return s.Logger
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.Is(err, entity.ErrValidation):
		return metrics.OutcomeInvalid
	case errors.Is(err, entity.ErrNotFound):
		return metrics.OutcomeNotFound
	case errors.Is(err, entity.ErrUnauthorized):
		return metrics.OutcomeDenied
	default:
		return metrics.OutcomeError
	}
}

func requireUser(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return entity.Validationf("User ID is required")
	}
	return nil
}

// Task ids are uuids; anything else cannot match a row.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
