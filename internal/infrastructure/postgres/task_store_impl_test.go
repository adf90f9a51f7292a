package postgres

import (
	"errors"
	"reflect"
	"testing"

	"github.com/oksasatya/go-task-manager/internal/domain/entity"
	"github.com/oksasatya/go-task-manager/internal/domain/repository"
)

func TestBuildWhereRequiresOwner(t *testing.T) {
	if _, _, err := buildWhere(entity.TaskFilter{ID: "t1"}, 1); !errors.Is(err, repository.ErrUnscopedQuery) {
		t.Fatalf("expected unscoped error, got %v", err)
	}
}

func TestBuildWhereOwnerAndID(t *testing.T) {
	where, args, err := buildWhere(entity.TaskFilter{ID: "t1", UserID: "u1"}, 3)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if where != "user_id = $3 AND id = $4" {
		t.Fatalf("unexpected where: %s", where)
	}
	if !reflect.DeepEqual(args, []any{"u1", "t1"}) {
		t.Fatalf("unexpected args: %#v", args)
	}
}

func TestBuildUpdateOnlySuppliedFields(t *testing.T) {
	patch := entity.TaskPatch{
		Description: entity.Null[string](),
		Status:      entity.Some(entity.TaskStatusDone),
	}
	query, args, err := buildUpdate(entity.TaskFilter{ID: "t1", UserID: "u1"}, patch)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	want := "UPDATE tasks SET description = $1, status = $2 WHERE user_id = $3 AND id = $4 RETURNING " + taskColumns
	if query != want {
		t.Fatalf("unexpected query:\n got %s\nwant %s", query, want)
	}
	if len(args) != 4 {
		t.Fatalf("unexpected args: %#v", args)
	}
	if p, ok := args[0].(*string); !ok || p != nil {
		t.Fatalf("cleared description should bind a nil *string, got %#v", args[0])
	}
	if args[1] != "done" || args[2] != "u1" || args[3] != "t1" {
		t.Fatalf("unexpected args: %#v", args)
	}
}

func TestBuildUpdateRejectsEmptyAndUnscoped(t *testing.T) {
	if _, _, err := buildUpdate(entity.TaskFilter{ID: "t1", UserID: "u1"}, entity.TaskPatch{}); err == nil {
		t.Fatalf("empty patch should not build")
	}
	if _, _, err := buildUpdate(entity.TaskFilter{ID: "t1"}, entity.TaskPatch{Title: entity.Some("x")}); !errors.Is(err, repository.ErrUnscopedQuery) {
		t.Fatalf("expected unscoped error, got %v", err)
	}
}
