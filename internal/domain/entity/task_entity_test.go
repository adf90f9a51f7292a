package entity

import (
	"errors"
	"testing"
)

func TestTaskStatusToggleTwiceRestores(t *testing.T) {
	s := TaskStatusPending
	if got := s.Toggled(); got != TaskStatusDone {
		t.Fatalf("pending toggled = %q", got)
	}
	if got := s.Toggled().Toggled(); got != TaskStatusPending {
		t.Fatalf("double toggle = %q", got)
	}
}

func TestParseTaskStatus(t *testing.T) {
	for _, raw := range []string{"pending", "done"} {
		if _, err := ParseTaskStatus(raw); err != nil {
			t.Fatalf("%q should be valid: %v", raw, err)
		}
	}
	for _, raw := range []string{"", "DONE", "in_progress"} {
		if _, err := ParseTaskStatus(raw); !errors.Is(err, ErrValidation) {
			t.Fatalf("%q should be a validation error, got %v", raw, err)
		}
	}
}

func TestTaskPatchValidate(t *testing.T) {
	cases := []struct {
		name    string
		patch   TaskPatch
		wantErr bool
	}{
		{"empty", TaskPatch{}, false},
		{"title", TaskPatch{Title: Some("new")}, false},
		{"blank title", TaskPatch{Title: Some("   ")}, true},
		{"null title", TaskPatch{Title: Null[string]()}, true},
		{"clear description", TaskPatch{Description: Null[string]()}, false},
		{"bad status", TaskPatch{Status: Some(TaskStatus("archived"))}, true},
		{"null status", TaskPatch{Status: Null[TaskStatus]()}, true},
	}
	for _, tc := range cases {
		err := tc.patch.Validate()
		if tc.wantErr != (err != nil) {
			t.Fatalf("%s: err = %v", tc.name, err)
		}
		if err != nil && !errors.Is(err, ErrValidation) {
			t.Fatalf("%s: expected validation kind, got %v", tc.name, err)
		}
	}
}

func TestTaskPatchApply(t *testing.T) {
	desc := "old"
	task := Task{ID: "1", Title: "a", Description: &desc, Status: TaskStatusPending, UserID: "u"}

	got := TaskPatch{Description: Null[string](), Status: Some(TaskStatusDone)}.Apply(task)
	if got.Title != "a" || got.Description != nil || got.Status != TaskStatusDone || got.UserID != "u" {
		t.Fatalf("unexpected apply result: %+v", got)
	}
	if task.Description == nil || *task.Description != "old" {
		t.Fatalf("apply must not mutate the input")
	}
}

func TestStoreErrorKind(t *testing.T) {
	base := errors.New("connection refused")
	err := NewStoreError(base)
	if !errors.Is(err, ErrStore) || !errors.Is(err, base) {
		t.Fatalf("store error should match both kind and cause")
	}
	if err.Error() != "connection refused" {
		t.Fatalf("message should pass through verbatim, got %q", err.Error())
	}
	if NewStoreError(err) != err {
		t.Fatalf("wrapping twice should be a no-op")
	}
}

func TestUserDisplayName(t *testing.T) {
	u := User{Email: "ada@example.com"}
	if u.DisplayName() != "ada" {
		t.Fatalf("display name = %q", u.DisplayName())
	}
	u.Username = "Ada L"
	if u.DisplayName() != "Ada L" {
		t.Fatalf("display name = %q", u.DisplayName())
	}
}
