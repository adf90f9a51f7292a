package client

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/oksasatya/go-task-manager/internal/domain/entity"
)

func TestAPITaskLifecycle(t *testing.T) {
	env := newEnv(t, false)
	ctx := context.Background()

	res, err := env.api.Register(ctx, "ada@example.com", testPassword, "")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if res.Session == nil || res.Session.AccessToken == "" || res.RequiresConfirmation {
		t.Fatalf("expected a session, got %+v", res)
	}
	if res.User == nil || res.User.Username != "ada" {
		t.Fatalf("username should default to the email prefix: %+v", res.User)
	}
	if res.Session.User == nil || res.Session.User.ID != res.User.ID {
		t.Fatalf("session should carry the user")
	}
	tok := res.Session.AccessToken

	empty, err := env.api.ListTasks(ctx, tok)
	if err != nil || len(empty) != 0 || empty == nil {
		t.Fatalf("empty list: %v %v", empty, err)
	}

	desc := "two litres"
	created, err := env.api.CreateTask(ctx, tok, NewTask{Title: "Buy milk", Description: &desc})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if created.Status != entity.TaskStatusPending || created.UserID != res.User.ID {
		t.Fatalf("unexpected task %+v", created)
	}

	got, err := env.api.GetTask(ctx, tok, created.ID)
	if err != nil || got.Title != "Buy milk" {
		t.Fatalf("GetTask: %+v %v", got, err)
	}

	upd, err := env.api.UpdateTask(ctx, tok, created.ID, TaskUpdate{Description: entity.Null[string]()})
	if err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}
	if upd.Description != nil || upd.Title != "Buy milk" {
		t.Fatalf("only the description should be cleared: %+v", upd)
	}

	toggled, err := env.api.ToggleTask(ctx, tok, created.ID)
	if err != nil || toggled.Status != entity.TaskStatusDone {
		t.Fatalf("ToggleTask: %+v %v", toggled, err)
	}

	found, err := env.api.SearchTasks(ctx, tok, "milk", 10)
	if err != nil || len(found) != 1 || found[0].ID != created.ID {
		t.Fatalf("SearchTasks: %+v %v", found, err)
	}

	if err := env.api.DeleteTask(ctx, tok, created.ID); err != nil {
		t.Fatalf("DeleteTask: %v", err)
	}
	_, err = env.api.GetTask(ctx, tok, created.ID)
	if !errors.Is(err, entity.ErrNotFound) {
		t.Fatalf("get after delete: want not found, got %v", err)
	}
}

func TestAPIErrorsMatchDomainKinds(t *testing.T) {
	env := newEnv(t, false)
	ctx := context.Background()

	_, err := env.api.ListTasks(ctx, "")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnauthorized {
		t.Fatalf("want 401, got %v", err)
	}
	if !IsUnauthorized(err) || apiErr.Message != "Not authorized, no token provided" {
		t.Fatalf("unexpected error %q", apiErr.Message)
	}

	res, err := env.api.Register(ctx, "bob@example.com", testPassword, "bob")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	_, err = env.api.CreateTask(ctx, res.Session.AccessToken, NewTask{Title: "   "})
	if !errors.Is(err, entity.ErrValidation) {
		t.Fatalf("blank title: want validation error, got %v", err)
	}

	_, err = env.api.Login(ctx, "bob@example.com", "wrong-password")
	if !IsUnauthorized(err) || err.Error() != "Invalid email or password" {
		t.Fatalf("bad login: %v", err)
	}

	_, err = env.api.Register(ctx, "bob@example.com", testPassword, "")
	if !errors.Is(err, entity.ErrValidation) {
		t.Fatalf("duplicate register: %v", err)
	}
}

func TestAPIMeAndLogout(t *testing.T) {
	env := newEnv(t, false)
	ctx := context.Background()

	res, err := env.api.Register(ctx, "cy@example.com", testPassword, "cy")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	tok := res.Session.AccessToken
	me, err := env.api.Me(ctx, tok)
	if err != nil || me.Email != "cy@example.com" || me.Username != "cy" {
		t.Fatalf("Me: %+v %v", me, err)
	}
	if err := env.api.Logout(ctx, tok); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, err := env.api.Me(ctx, tok); !IsUnauthorized(err) {
		t.Fatalf("revoked token should be refused, got %v", err)
	}
	if err := env.api.Logout(ctx, ""); err != nil {
		t.Fatalf("Logout without token: %v", err)
	}
}
