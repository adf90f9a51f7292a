package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/go-task-manager/internal/domain/entity"
	"github.com/oksasatya/go-task-manager/internal/domain/repository"
)

// TaskStore is the PostgreSQL record store for tasks.
type TaskStore struct {
	pool *pgxpool.Pool
}

func NewTaskStore(pool *pgxpool.Pool) *TaskStore {
	return &TaskStore{pool: pool}
}

const taskColumns = `id::text, title, description, status, user_id::text, created_at`

func (s *TaskStore) Select(ctx context.Context, filter entity.TaskFilter) ([]entity.Task, error) {
	where, args, err := buildWhere(filter, 1)
	if err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx, `SELECT `+taskColumns+` FROM tasks WHERE `+where+` ORDER BY created_at DESC`, args...)
	if err != nil {
		return nil, err
	}
	return collectTasks(rows)
}

func (s *TaskStore) Insert(ctx context.Context, t entity.Task) (*entity.Task, error) {
	if t.UserID == "" {
		return nil, repository.ErrUnscopedQuery
	}
	rows, err := s.pool.Query(ctx, `
		INSERT INTO tasks (title, description, status, user_id)
		VALUES ($1, $2, $3, $4)
		RETURNING `+taskColumns, t.Title, t.Description, string(t.Status), t.UserID)
	if err != nil {
		return nil, err
	}
	out, err := collectTasks(rows)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("insert returned no rows")
	}
	return &out[0], nil
}

func (s *TaskStore) Update(ctx context.Context, filter entity.TaskFilter, patch entity.TaskPatch) ([]entity.Task, error) {
	if patch.Empty() {
		return s.Select(ctx, filter)
	}
	query, args, err := buildUpdate(filter, patch)
	if err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collectTasks(rows)
}

func (s *TaskStore) Delete(ctx context.Context, filter entity.TaskFilter) (int64, error) {
	where, args, err := buildWhere(filter, 1)
	if err != nil {
		return 0, err
	}
	res, err := s.pool.Exec(ctx, `DELETE FROM tasks WHERE `+where, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected(), nil
}

// buildWhere renders the owner-scoped equality predicate starting at placeholder $start.
func buildWhere(filter entity.TaskFilter, start int) (string, []any, error) {
	if filter.UserID == "" {
		return "", nil, repository.ErrUnscopedQuery
	}
	clauses := []string{fmt.Sprintf("user_id = $%d", start)}
	args := []any{filter.UserID}
	if filter.ID != "" {
		clauses = append(clauses, fmt.Sprintf("id = $%d", start+1))
		args = append(args, filter.ID)
	}
	return strings.Join(clauses, " AND "), args, nil
}

func buildUpdate(filter entity.TaskFilter, patch entity.TaskPatch) (string, []any, error) {
	var (
		sets []string
		args []any
	)
	if patch.Title.Set {
		args = append(args, patch.Title.Value)
		sets = append(sets, fmt.Sprintf("title = $%d", len(args)))
	}
	if patch.Description.Set {
		args = append(args, patch.Description.Ptr())
		sets = append(sets, fmt.Sprintf("description = $%d", len(args)))
	}
	if patch.Status.Set {
		args = append(args, string(patch.Status.Value))
		sets = append(sets, fmt.Sprintf("status = $%d", len(args)))
	}
	if len(sets) == 0 {
		return "", nil, fmt.Errorf("empty update")
	}
	where, whereArgs, err := buildWhere(filter, len(args)+1)
	if err != nil {
		return "", nil, err
	}
	args = append(args, whereArgs...)
	query := `UPDATE tasks SET ` + strings.Join(sets, ", ") + ` WHERE ` + where + ` RETURNING ` + taskColumns
	return query, args, nil
}

func collectTasks(rows pgx.Rows) ([]entity.Task, error) {
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.Task, error) {
		var (
			t      entity.Task
			status string
		)
		if err := row.Scan(&t.ID, &t.Title, &t.Description, &status, &t.UserID, &t.CreatedAt); err != nil {
			return entity.Task{}, err
		}
		t.Status = entity.TaskStatus(status)
		return t, nil
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []entity.Task{}
	}
	return out, nil
}

var _ repository.TaskStore = (*TaskStore)(nil)
