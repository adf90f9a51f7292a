package client

import (
	"context"

	"github.com/oksasatya/go-task-manager/internal/application"
	"github.com/oksasatya/go-task-manager/internal/domain/entity"
	"github.com/oksasatya/go-task-manager/internal/domain/repository"
)

// ErrNotSignedIn is returned by backends when no usable session is stored.
var ErrNotSignedIn = entity.Unauthorizedf("User not authenticated")

// TaskBackend is the set of task calls the App makes.
type TaskBackend interface {
	List(ctx context.Context) ([]Task, error)
	Create(ctx context.Context, in NewTask) (*Task, error)
	Update(ctx context.Context, id string, u TaskUpdate) (*Task, error)
	Delete(ctx context.Context, id string) error
}

// HTTPBackend goes through the API with the current access token.
type HTTPBackend struct {
	Auth *Auth
}

func NewHTTPBackend(auth *Auth) *HTTPBackend { return &HTTPBackend{Auth: auth} }

func (b *HTTPBackend) token() (string, error) {
	s, err := b.Auth.GetSession()
	if err != nil {
		return "", err
	}
	if s == nil {
		return "", ErrNotSignedIn
	}
	return s.AccessToken, nil
}

func (b *HTTPBackend) List(ctx context.Context) ([]Task, error) {
	tok, err := b.token()
	if err != nil {
		return nil, err
	}
	return b.Auth.API().ListTasks(ctx, tok)
}

func (b *HTTPBackend) Create(ctx context.Context, in NewTask) (*Task, error) {
	tok, err := b.token()
	if err != nil {
		return nil, err
	}
	return b.Auth.API().CreateTask(ctx, tok, in)
}

func (b *HTTPBackend) Update(ctx context.Context, id string, u TaskUpdate) (*Task, error) {
	tok, err := b.token()
	if err != nil {
		return nil, err
	}
	return b.Auth.API().UpdateTask(ctx, tok, id, u)
}

func (b *HTTPBackend) Delete(ctx context.Context, id string) error {
	tok, err := b.token()
	if err != nil {
		return err
	}
	return b.Auth.API().DeleteTask(ctx, tok, id)
}

// DirectBackend calls the task service in-process. The HTTP gateway is
// skipped, so every call verifies the stored access token with the identity
// provider and scopes the work to the user it names.
type DirectBackend struct {
	Auth     *Auth
	Identity repository.IdentityProvider
	Tasks    *application.TaskService
}

func NewDirectBackend(auth *Auth, idp repository.IdentityProvider, tasks *application.TaskService) *DirectBackend {
	return &DirectBackend{Auth: auth, Identity: idp, Tasks: tasks}
}

// userID never trusts the user recorded in the session file.
func (b *DirectBackend) userID(ctx context.Context) (string, error) {
	s, err := b.Auth.GetSession()
	if err != nil {
		return "", err
	}
	if s == nil || s.AccessToken == "" {
		return "", ErrNotSignedIn
	}
	u, err := b.Identity.GetUser(ctx, s.AccessToken)
	if err != nil {
		return "", err
	}
	return u.ID, nil
}

func (b *DirectBackend) List(ctx context.Context) ([]Task, error) {
	uid, err := b.userID(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := b.Tasks.ListTasks(ctx, uid)
	if err != nil {
		return nil, err
	}
	out := make([]Task, 0, len(rows))
	for i := range rows {
		out = append(out, fromEntity(&rows[i]))
	}
	return out, nil
}

func (b *DirectBackend) Create(ctx context.Context, in NewTask) (*Task, error) {
	uid, err := b.userID(ctx)
	if err != nil {
		return nil, err
	}
	t, err := b.Tasks.CreateTask(ctx, application.CreateTaskInput{
		Title:       in.Title,
		Description: in.Description,
		Status:      in.Status,
	}, uid)
	if err != nil {
		return nil, err
	}
	res := fromEntity(t)
	return &res, nil
}

func (b *DirectBackend) Update(ctx context.Context, id string, u TaskUpdate) (*Task, error) {
	uid, err := b.userID(ctx)
	if err != nil {
		return nil, err
	}
	t, err := b.Tasks.UpdateTask(ctx, id, entity.TaskPatch{
		Title:       u.Title,
		Description: u.Description,
		Status:      u.Status,
	}, uid)
	if err != nil {
		return nil, err
	}
	res := fromEntity(t)
	return &res, nil
}

func (b *DirectBackend) Delete(ctx context.Context, id string) error {
	uid, err := b.userID(ctx)
	if err != nil {
		return err
	}
	return b.Tasks.DeleteTask(ctx, id, uid)
}

func fromEntity(t *entity.Task) Task {
	return Task{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Status:      t.Status,
		UserID:      t.UserID,
		CreatedAt:   t.CreatedAt,
	}
}
