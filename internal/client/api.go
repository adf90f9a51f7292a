// Package client is the terminal-side counterpart of the task API: a typed
// HTTP client, a session store, the auth state notifier and the App view
// state machine driven by cmd/taskcli.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/oksasatya/go-task-manager/internal/domain/entity"
)

type User struct {
	ID               string     `json:"id"`
	Email            string     `json:"email"`
	Username         string     `json:"username"`
	EmailConfirmedAt *time.Time `json:"email_confirmed_at,omitempty"`
}

// Session is what the API hands out on login. User is filled in locally so
// a stored session can answer "who am I" without a round-trip.
type Session struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at"`
	RefreshToken string `json:"refresh_token"`
	User         *User  `json:"user,omitempty"`
}

func (s *Session) Expiry() time.Time { return time.Unix(s.ExpiresAt, 0) }

// ExpiresWithin reports whether the access token is expired or will be within d.
func (s *Session) ExpiresWithin(now time.Time, d time.Duration) bool {
	return !now.Add(d).Before(s.Expiry())
}

type Task struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Description *string           `json:"description"`
	Status      entity.TaskStatus `json:"status"`
	UserID      string            `json:"user_id"`
	CreatedAt   time.Time         `json:"created_at"`
}

type NewTask struct {
	Title       string            `json:"title"`
	Description *string           `json:"description,omitempty"`
	Status      entity.TaskStatus `json:"status,omitempty"`
}

// TaskUpdate only sends the fields that are set; a Null description clears it.
type TaskUpdate struct {
	Title       entity.Optional[string]            `json:"title,omitzero"`
	Description entity.Optional[string]            `json:"description,omitzero"`
	Status      entity.Optional[entity.TaskStatus] `json:"status,omitzero"`
}

// AuthResult is the data of register, login and refresh responses.
type AuthResult struct {
	User                 *User    `json:"user,omitempty"`
	Session              *Session `json:"session,omitempty"`
	RequiresConfirmation bool     `json:"requiresConfirmation,omitempty"`
	Message              string   `json:"-"`
}

// APIError is a non-2xx answer. It matches the domain error kinds by status
// so callers can use errors.Is the same way for HTTP and in-process backends.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: %d %s", e.Status, http.StatusText(e.Status))
	}
	return e.Message
}

func (e *APIError) Is(target error) bool {
	switch target {
	case entity.ErrValidation:
		return e.Status == http.StatusBadRequest
	case entity.ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case entity.ErrNotFound:
		return e.Status == http.StatusNotFound
	case entity.ErrStore:
		return e.Status >= http.StatusInternalServerError
	}
	return false
}

type envelope struct {
	Status  int             `json:"status"`
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// API is a thin typed wrapper over the /api routes.
type API struct {
	base string
	hc   *http.Client
}

// NewAPI returns a client for baseURL, e.g. http://localhost:5000. A nil hc
// gets a client with a 15s timeout.
func NewAPI(baseURL string, hc *http.Client) *API {
	if hc == nil {
		hc = &http.Client{Timeout: 15 * time.Second}
	}
	return &API{base: strings.TrimRight(baseURL, "/"), hc: hc}
}

func (a *API) Register(ctx context.Context, email, password, username string) (*AuthResult, error) {
	body := map[string]string{"email": email, "password": password}
	if username != "" {
		body["username"] = username
	}
	return a.auth(ctx, "/api/auth/register", body)
}

func (a *API) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	return a.auth(ctx, "/api/auth/login", map[string]string{"email": email, "password": password})
}

func (a *API) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	return a.auth(ctx, "/api/auth/refresh", map[string]string{"refresh_token": refreshToken})
}

func (a *API) auth(ctx context.Context, path string, body any) (*AuthResult, error) {
	var res AuthResult
	msg, err := a.do(ctx, http.MethodPost, path, "", body, &res)
	if err != nil {
		return nil, err
	}
	res.Message = msg
	if res.Session != nil && res.Session.User == nil {
		res.Session.User = res.User
	}
	return &res, nil
}

// Logout revokes token on the server. An empty token is still a valid call.
func (a *API) Logout(ctx context.Context, token string) error {
	_, err := a.do(ctx, http.MethodPost, "/api/auth/logout", token, nil, nil)
	return err
}

func (a *API) Confirm(ctx context.Context, token string) (*User, error) {
	var res AuthResult
	if _, err := a.do(ctx, http.MethodPost, "/api/auth/confirm", "", map[string]string{"token": token}, &res); err != nil {
		return nil, err
	}
	return res.User, nil
}

func (a *API) ResendConfirmation(ctx context.Context, email string) error {
	_, err := a.do(ctx, http.MethodPost, "/api/auth/confirm/resend", "", map[string]string{"email": email}, nil)
	return err
}

func (a *API) Me(ctx context.Context, token string) (*User, error) {
	var u User
	if _, err := a.do(ctx, http.MethodGet, "/api/auth/me", token, nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (a *API) ListTasks(ctx context.Context, token string) ([]Task, error) {
	tasks := []Task{}
	if _, err := a.do(ctx, http.MethodGet, "/api/tasks", token, nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (a *API) SearchTasks(ctx context.Context, token, query string, size int) ([]Task, error) {
	q := url.Values{"q": {query}}
	if size > 0 {
		q.Set("size", strconv.Itoa(size))
	}
	tasks := []Task{}
	if _, err := a.do(ctx, http.MethodGet, "/api/tasks/search?"+q.Encode(), token, nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (a *API) GetTask(ctx context.Context, token, id string) (*Task, error) {
	return a.task(ctx, http.MethodGet, "/api/tasks/"+url.PathEscape(id), token, nil)
}

func (a *API) CreateTask(ctx context.Context, token string, in NewTask) (*Task, error) {
	return a.task(ctx, http.MethodPost, "/api/tasks", token, in)
}

func (a *API) UpdateTask(ctx context.Context, token, id string, u TaskUpdate) (*Task, error) {
	return a.task(ctx, http.MethodPut, "/api/tasks/"+url.PathEscape(id), token, u)
}

func (a *API) ToggleTask(ctx context.Context, token, id string) (*Task, error) {
	return a.task(ctx, http.MethodPatch, "/api/tasks/"+url.PathEscape(id)+"/toggle", token, nil)
}

func (a *API) DeleteTask(ctx context.Context, token, id string) error {
	_, err := a.do(ctx, http.MethodDelete, "/api/tasks/"+url.PathEscape(id), token, nil, nil)
	return err
}

func (a *API) task(ctx context.Context, method, path, token string, body any) (*Task, error) {
	var t Task
	if _, err := a.do(ctx, method, path, token, body, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// do sends one request and decodes the envelope's data into out. It returns
// the envelope message for callers that show it.
func (a *API) do(ctx context.Context, method, path, token string, body, out any) (string, error) {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return "", fmt.Errorf("encode request: %w", err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, a.base+path, rd)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := a.hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	var env envelope
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil && resp.StatusCode < 300 {
			return "", fmt.Errorf("decode response: %w", err)
		}
	}
	if resp.StatusCode >= 300 {
		return "", &APIError{Status: resp.StatusCode, Message: env.Message}
	}
	// data is omitted for message-only answers
	if out != nil && len(env.Data) > 0 && !bytes.Equal(env.Data, []byte("null")) {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return "", fmt.Errorf("decode data: %w", err)
		}
	}
	return env.Message, nil
}

// IsUnauthorized is a shorthand used by the session watcher and the CLI.
func IsUnauthorized(err error) bool { return errors.Is(err, entity.ErrUnauthorized) }
