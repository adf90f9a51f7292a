package client

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-task-manager/internal/domain/entity"
)

type State string

const (
	StateInitializing    State = "initializing"
	StateUnauthenticated State = "unauthenticated"
	StateAuthenticated   State = "authenticated"
)

type AuthMode string

const (
	ModeLogin    AuthMode = "login"
	ModeRegister AuthMode = "register"
)

const minPasswordLength = 6

// User-facing messages.
const (
	MsgLoggedIn           = "Logged in successfully!"
	MsgRegistered         = "Registration successful! You are now logged in."
	MsgConfirmEmail       = "Registration successful! Please check your email to confirm your account."
	MsgInvalidCredentials = "Invalid email or password. Please try again."
	MsgAlreadyRegistered  = "This email is already registered. Please log in instead."
	MsgEmailNotConfirmed  = "Please confirm your email before signing in."
	MsgAuthFailed         = "An error occurred. Please try again."
	MsgFormIncomplete     = "Enter an email and a password of at least 6 characters."
	MsgInitFailed         = "Failed to initialize authentication. Please try again."
	MsgFetchFailed        = "Failed to fetch tasks. Please try again later."
	MsgTitleRequired      = "Please enter a task title"
	MsgLoginToAdd         = "Please log in to add tasks."
	MsgLoginToUpdate      = "Please log in to update tasks."
	MsgLoginToDelete      = "Please log in to delete tasks."
	MsgAddFailed          = "Failed to add task. Please try again."
	MsgToggleFailed       = "Failed to update task status. Please try again."
	MsgDeleteFailed       = "Failed to delete task. Please try again."
)

const DefaultFormResetDelay = 2 * time.Second

type AuthForm struct {
	Mode     AuthMode
	Email    string
	Password string
}

// Valid mirrors the submit button: an email and a 6+ character password.
func (f AuthForm) Valid() bool {
	return strings.TrimSpace(f.Email) != "" && len(strings.TrimSpace(f.Password)) >= minPasswordLength
}

// View is a snapshot of everything a front end renders.
type View struct {
	State   State
	User    *User
	Tasks   []Task
	Loading bool
	Error   string
	Info    string
	Form    AuthForm
}

// App is the client state machine:
// initializing -> unauthenticated <-> authenticated.
type App struct {
	auth    *Auth
	backend TaskBackend
	logger  *logrus.Logger

	// FormResetDelay is how long the confirmation notice stays before the
	// form switches back to login and clears.
	FormResetDelay time.Duration

	mu       sync.Mutex
	view     View
	sub      *Subscription
	resetT   *time.Timer
	onChange func(View)
}

func NewApp(auth *Auth, backend TaskBackend, logger *logrus.Logger) *App {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &App{
		auth:           auth,
		backend:        backend,
		logger:         logger,
		FormResetDelay: DefaultFormResetDelay,
		view:           View{State: StateInitializing, Form: AuthForm{Mode: ModeLogin}, Tasks: []Task{}},
	}
}

// OnChange registers a callback invoked with a fresh snapshot after every change.
func (a *App) OnChange(fn func(View)) {
	a.mu.Lock()
	a.onChange = fn
	a.mu.Unlock()
}

// View returns a copy of the current view state.
func (a *App) View() View {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.snapshot()
}

func (a *App) snapshot() View {
	v := a.view
	v.Tasks = append([]Task(nil), a.view.Tasks...)
	if a.view.User != nil {
		u := *a.view.User
		v.User = &u
	}
	return v
}

// update applies fn under the lock and notifies the OnChange callback.
func (a *App) update(fn func(v *View)) {
	a.mu.Lock()
	fn(&a.view)
	snap := a.snapshot()
	cb := a.onChange
	a.mu.Unlock()
	if cb != nil {
		cb(snap)
	}
}

func (a *App) state() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.view.State
}

// Start resolves the stored session, loads tasks when signed in and then
// follows auth state changes until Close.
func (a *App) Start(ctx context.Context) {
	a.update(func(v *View) {
		v.State = StateInitializing
		v.Loading = true
	})

	s, err := a.auth.GetSession()
	if err != nil {
		a.logger.WithError(err).Error("resolve session")
		a.update(func(v *View) {
			v.State = StateUnauthenticated
			v.Loading = false
			v.Error = MsgInitFailed
		})
	} else if s != nil {
		a.signedIn(ctx, s)
	} else {
		a.signedOut()
	}

	a.mu.Lock()
	if a.sub == nil {
		a.sub = a.auth.OnAuthStateChange(a.handleAuthEvent)
	}
	a.mu.Unlock()
}

// Close drops the auth subscription and any pending form reset.
func (a *App) Close() {
	a.mu.Lock()
	sub := a.sub
	a.sub = nil
	if a.resetT != nil {
		a.resetT.Stop()
		a.resetT = nil
	}
	a.mu.Unlock()
	if sub != nil {
		sub.Unsubscribe()
	}
}

func (a *App) handleAuthEvent(ctx context.Context, ev AuthEvent, s *Session) {
	switch ev {
	case EventSignedIn:
		a.signedIn(ctx, s)
	case EventTokenRefreshed:
		if a.state() != StateAuthenticated {
			a.signedIn(ctx, s)
			return
		}
		a.update(func(v *View) {
			if s != nil && s.User != nil {
				u := *s.User
				v.User = &u
			}
		})
	case EventSignedOut:
		a.signedOut()
	}
}

func (a *App) signedIn(ctx context.Context, s *Session) {
	a.update(func(v *View) {
		v.State = StateAuthenticated
		if s != nil && s.User != nil {
			u := *s.User
			v.User = &u
		}
	})
	a.FetchTasks(ctx)
}

func (a *App) signedOut() {
	a.update(func(v *View) {
		v.State = StateUnauthenticated
		v.User = nil
		v.Tasks = []Task{}
		v.Loading = false
	})
}

func (a *App) SetMode(m AuthMode) {
	a.update(func(v *View) {
		v.Form.Mode = m
		v.Error = ""
		v.Info = ""
	})
}

func (a *App) SetCredentials(email, password string) {
	a.update(func(v *View) {
		v.Form.Email = strings.TrimSpace(email)
		v.Form.Password = password
	})
}

// Submit runs the auth form in its current mode.
func (a *App) Submit(ctx context.Context) error {
	a.mu.Lock()
	form := a.view.Form
	a.mu.Unlock()

	if !form.Valid() {
		a.update(func(v *View) { v.Error = MsgFormIncomplete })
		return entity.Validationf("%s", MsgFormIncomplete)
	}
	a.update(func(v *View) {
		v.Error = ""
		v.Info = ""
		v.Loading = true
	})
	defer a.update(func(v *View) { v.Loading = false })

	if form.Mode == ModeRegister {
		return a.register(ctx, form)
	}
	if _, err := a.auth.SignInWithPassword(ctx, form.Email, form.Password); err != nil {
		a.authFailed(err)
		return err
	}
	a.update(func(v *View) { v.Info = MsgLoggedIn })
	return nil
}

func (a *App) register(ctx context.Context, form AuthForm) error {
	res, err := a.auth.SignUp(ctx, form.Email, form.Password, "")
	if err != nil {
		a.authFailed(err)
		return err
	}
	if !res.RequiresConfirmation {
		a.update(func(v *View) { v.Info = MsgRegistered })
		return nil
	}

	a.update(func(v *View) { v.Info = MsgConfirmEmail })
	a.mu.Lock()
	if a.resetT != nil {
		a.resetT.Stop()
	}
	a.resetT = time.AfterFunc(a.FormResetDelay, a.resetForm)
	a.mu.Unlock()
	return nil
}

func (a *App) resetForm() {
	a.update(func(v *View) {
		v.Form = AuthForm{Mode: ModeLogin}
	})
}

func (a *App) authFailed(err error) {
	a.logger.WithError(err).Warn("auth failed")
	msg := MsgAuthFailed
	switch text := err.Error(); {
	case strings.Contains(text, "Invalid"):
		msg = MsgInvalidCredentials
	case strings.Contains(text, "already registered"):
		msg = MsgAlreadyRegistered
	case strings.Contains(text, "not confirmed"):
		msg = MsgEmailNotConfirmed
	}
	a.update(func(v *View) { v.Error = msg })
}

// Logout signs out and clears the task list.
func (a *App) Logout(ctx context.Context) error {
	err := a.auth.SignOut(ctx)
	a.update(func(v *View) {
		v.State = StateUnauthenticated
		v.User = nil
		v.Tasks = []Task{}
		v.Error = ""
		v.Loading = false
	})
	return err
}

// FetchTasks reloads the task list. Only valid while authenticated.
func (a *App) FetchTasks(ctx context.Context) {
	if a.state() != StateAuthenticated {
		return
	}
	a.update(func(v *View) { v.Loading = true })
	tasks, err := a.backend.List(ctx)
	if err != nil {
		a.logger.WithError(err).Error("fetch tasks")
		a.update(func(v *View) {
			v.Loading = false
			v.Error = MsgFetchFailed
		})
		return
	}
	a.update(func(v *View) {
		v.Loading = false
		v.Tasks = tasks
		v.Error = ""
	})
}

// AddTask creates a task and puts it at the top of the list.
func (a *App) AddTask(ctx context.Context, title, description string) bool {
	if a.state() != StateAuthenticated {
		a.update(func(v *View) { v.Error = MsgLoginToAdd })
		return false
	}
	if strings.TrimSpace(title) == "" {
		a.update(func(v *View) { v.Error = MsgTitleRequired })
		return false
	}
	in := NewTask{Title: title, Status: entity.TaskStatusPending}
	if description != "" {
		in.Description = &description
	}
	t, err := a.backend.Create(ctx, in)
	if err != nil {
		a.logger.WithError(err).Error("add task")
		a.update(func(v *View) { v.Error = MsgAddFailed })
		return false
	}
	a.update(func(v *View) {
		v.Tasks = append([]Task{*t}, v.Tasks...)
	})
	return true
}

// ToggleTask flips the status of the listed task between pending and done.
func (a *App) ToggleTask(ctx context.Context, id string) {
	if a.state() != StateAuthenticated {
		a.update(func(v *View) { v.Error = MsgLoginToUpdate })
		return
	}
	cur, ok := a.find(id)
	if !ok {
		a.update(func(v *View) { v.Error = MsgToggleFailed })
		return
	}
	t, err := a.backend.Update(ctx, id, TaskUpdate{Status: entity.Some(cur.Status.Toggled())})
	if err != nil {
		a.logger.WithError(err).WithField("task_id", id).Error("toggle task")
		a.update(func(v *View) { v.Error = MsgToggleFailed })
		return
	}
	a.update(func(v *View) {
		for i := range v.Tasks {
			if v.Tasks[i].ID == id {
				v.Tasks[i] = *t
			}
		}
	})
}

func (a *App) DeleteTask(ctx context.Context, id string) {
	if a.state() != StateAuthenticated {
		a.update(func(v *View) { v.Error = MsgLoginToDelete })
		return
	}
	if err := a.backend.Delete(ctx, id); err != nil {
		a.logger.WithError(err).WithField("task_id", id).Error("delete task")
		a.update(func(v *View) { v.Error = MsgDeleteFailed })
		return
	}
	a.update(func(v *View) {
		kept := v.Tasks[:0:0]
		for _, t := range v.Tasks {
			if t.ID != id {
				kept = append(kept, t)
			}
		}
		v.Tasks = kept
	})
}

func (a *App) DismissError() {
	a.update(func(v *View) { v.Error = "" })
}

func (a *App) find(id string) (Task, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, t := range a.view.Tasks {
		if t.ID == id {
			return t, true
		}
	}
	return Task{}, false
}

// Err returns the current error message as an error, or nil.
func (a *App) Err() error {
	if msg := a.View().Error; msg != "" {
		return errors.New(msg)
	}
	return nil
}
