package client

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/oksasatya/go-task-manager/internal/domain/entity"
)

// countingBackend records how many calls reach the wrapped backend.
type countingBackend struct {
	TaskBackend
	calls atomic.Int32
}

func (b *countingBackend) List(ctx context.Context) ([]Task, error) {
	b.calls.Add(1)
	return b.TaskBackend.List(ctx)
}

func (b *countingBackend) Create(ctx context.Context, in NewTask) (*Task, error) {
	b.calls.Add(1)
	return b.TaskBackend.Create(ctx, in)
}

func (b *countingBackend) Update(ctx context.Context, id string, u TaskUpdate) (*Task, error) {
	b.calls.Add(1)
	return b.TaskBackend.Update(ctx, id, u)
}

func (b *countingBackend) Delete(ctx context.Context, id string) error {
	b.calls.Add(1)
	return b.TaskBackend.Delete(ctx, id)
}

func newApp(t *testing.T, env *testEnv) (*App, *countingBackend) {
	t.Helper()
	backend := &countingBackend{TaskBackend: NewHTTPBackend(env.auth)}
	app := NewApp(env.auth, backend, nil)
	app.FormResetDelay = 20 * time.Millisecond
	t.Cleanup(app.Close)
	return app, backend
}

func TestAppRefusesMutationsWhenSignedOut(t *testing.T) {
	env := newEnv(t, false)
	app, backend := newApp(t, env)
	ctx := context.Background()

	app.Start(ctx)
	if v := app.View(); v.State != StateUnauthenticated || v.Loading {
		t.Fatalf("start without session: %+v", v)
	}

	if app.AddTask(ctx, "Buy milk", "") {
		t.Fatal("AddTask should be refused")
	}
	if got := app.View().Error; got != MsgLoginToAdd {
		t.Fatalf("error = %q", got)
	}
	app.ToggleTask(ctx, "any")
	if got := app.View().Error; got != MsgLoginToUpdate {
		t.Fatalf("error = %q", got)
	}
	app.DeleteTask(ctx, "any")
	if got := app.View().Error; got != MsgLoginToDelete {
		t.Fatalf("error = %q", got)
	}
	if n := backend.calls.Load(); n != 0 {
		t.Fatalf("no backend call expected, got %d", n)
	}

	app.DismissError()
	if app.View().Error != "" {
		t.Fatal("DismissError should clear the error")
	}
}

func TestAppLoginTaskFlowAndLogout(t *testing.T) {
	env := newEnv(t, false)
	ctx := context.Background()
	if _, err := env.api.Register(ctx, "ada@example.com", testPassword, ""); err != nil {
		t.Fatalf("Register: %v", err)
	}
	app, _ := newApp(t, env)
	app.Start(ctx)

	app.SetCredentials(" ada@example.com ", "short")
	if err := app.Submit(ctx); err == nil || app.View().Error != MsgFormIncomplete {
		t.Fatalf("short password should be refused locally: %v", err)
	}

	app.SetCredentials("ada@example.com", "wrong-password")
	if err := app.Submit(ctx); err == nil {
		t.Fatal("wrong password should fail")
	}
	if v := app.View(); v.Error != MsgInvalidCredentials || v.State != StateUnauthenticated {
		t.Fatalf("after bad login: %+v", v)
	}

	app.SetCredentials("ada@example.com", testPassword)
	if err := app.Submit(ctx); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	v := app.View()
	if v.State != StateAuthenticated || v.User == nil || v.User.Email != "ada@example.com" {
		t.Fatalf("after login: %+v", v)
	}
	if v.Info != MsgLoggedIn || v.Error != "" || v.Loading {
		t.Fatalf("after login: %+v", v)
	}

	if !app.AddTask(ctx, "first", "") || !app.AddTask(ctx, "second", "details") {
		t.Fatalf("AddTask failed: %s", app.View().Error)
	}
	if app.AddTask(ctx, "  ", "") || app.View().Error != MsgTitleRequired {
		t.Fatal("blank title should be refused")
	}
	app.DismissError()

	tasks := app.View().Tasks
	if len(tasks) != 2 || tasks[0].Title != "second" {
		t.Fatalf("new tasks go first: %+v", tasks)
	}

	id := tasks[0].ID
	app.ToggleTask(ctx, id)
	if st := app.View().Tasks[0].Status; st != entity.TaskStatusDone {
		t.Fatalf("status after toggle = %s", st)
	}
	app.ToggleTask(ctx, id)
	if st := app.View().Tasks[0].Status; st != entity.TaskStatusPending {
		t.Fatalf("status after second toggle = %s", st)
	}

	app.DeleteTask(ctx, id)
	if tasks := app.View().Tasks; len(tasks) != 1 || tasks[0].Title != "first" {
		t.Fatalf("after delete: %+v", tasks)
	}

	// a fresh app sees the same session and reloads the list
	other := NewApp(env.auth, NewHTTPBackend(env.auth), nil)
	other.Start(ctx)
	if v := other.View(); v.State != StateAuthenticated || len(v.Tasks) != 1 {
		t.Fatalf("restart: %+v", v)
	}
	other.Close()

	if err := app.Logout(ctx); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if v := app.View(); v.State != StateUnauthenticated || len(v.Tasks) != 0 || v.User != nil {
		t.Fatalf("after logout: %+v", v)
	}
}

func TestAppRegistrationRequiringConfirmation(t *testing.T) {
	env := newEnv(t, true)
	ctx := context.Background()
	app, _ := newApp(t, env)
	app.Start(ctx)

	app.SetMode(ModeRegister)
	app.SetCredentials("new@example.com", testPassword)
	if err := app.Submit(ctx); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	v := app.View()
	if v.State != StateUnauthenticated || v.Info != MsgConfirmEmail {
		t.Fatalf("after register: %+v", v)
	}

	waitFor(t, "form reset", func() bool {
		f := app.View().Form
		return f.Mode == ModeLogin && f.Email == "" && f.Password == ""
	})

	app.SetCredentials("new@example.com", testPassword)
	if err := app.Submit(ctx); err == nil {
		t.Fatal("login before confirmation should fail")
	}
	if got := app.View().Error; got != MsgEmailNotConfirmed {
		t.Fatalf("error = %q", got)
	}

	if _, err := env.api.Confirm(ctx, env.box.token(t)); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if err := app.Submit(ctx); err != nil {
		t.Fatalf("login after confirmation: %v", err)
	}
	if !app.AddTask(ctx, "after confirm", "") {
		t.Fatalf("AddTask: %s", app.View().Error)
	}
	if v := app.View(); v.State != StateAuthenticated || len(v.Tasks) != 1 {
		t.Fatalf("after confirm: %+v", v)
	}
}

func TestAppFollowsOutOfBandSignOut(t *testing.T) {
	env := newEnv(t, false)
	ctx := context.Background()
	app, _ := newApp(t, env)
	app.Start(ctx)

	if _, err := env.auth.SignUp(ctx, "ada@example.com", testPassword, ""); err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if app.View().State != StateAuthenticated {
		t.Fatal("sign up with a session should authenticate the app")
	}

	// an expired session with no refresh token is dropped by the watcher
	s, _ := env.auth.store.Load()
	s.ExpiresAt = time.Now().Add(-time.Second).Unix()
	s.RefreshToken = ""
	_ = env.auth.store.Save(s)
	env.auth.check(ctx)

	if v := app.View(); v.State != StateUnauthenticated || len(v.Tasks) != 0 {
		t.Fatalf("after expiry: %+v", v)
	}

	var changes atomic.Int32
	app.OnChange(func(View) { changes.Add(1) })
	app.Close()
	if _, err := env.auth.SignInWithPassword(ctx, "ada@example.com", testPassword); err != nil {
		t.Fatalf("SignInWithPassword: %v", err)
	}
	if app.View().State != StateUnauthenticated || changes.Load() != 0 {
		t.Fatal("a closed app should not follow auth events")
	}
}
